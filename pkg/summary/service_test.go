package summary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/store"
)

func newService(t *testing.T, h http.HandlerFunc, sessions *store.MemoryStore) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	_ = sessions.SetToken("tok")
	c, err := api.New(srv.URL+"/api", sessions)
	require.NoError(t, err)
	return New(c, sessions, zerolog.Nop())
}

var (
	start = entry.NewDate(2025, time.March, 1)
	end   = entry.NewDate(2025, time.March, 31)
)

func TestJournalSummaryComputesWhenMissing(t *testing.T) {
	var gets, posts int32
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/journal-summaries", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			assert.Equal(t, "2025-03-01", r.URL.Query().Get("start_date"))
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail": "Summary not found"}`)
		case http.MethodPost:
			atomic.AddInt32(&posts, 1)
			var in map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "2025-03-31", in["end_date"])
			_, _ = io.WriteString(w, `{"start_date":"2025-03-01","end_date":"2025-03-31","summary_text":"A calmer month."}`)
		}
	}, store.NewMemory())

	sum, err := s.JournalSummary(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "A calmer month.", sum.SummaryText)
	assert.EqualValues(t, 1, atomic.LoadInt32(&gets))
	assert.EqualValues(t, 1, atomic.LoadInt32(&posts))
}

func TestJournalSummaryEmptyBodyComputes(t *testing.T) {
	var posts int32
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&posts, 1)
			_, _ = io.WriteString(w, `{"summary_text":"computed"}`)
			return
		}
		_, _ = io.WriteString(w, `null`)
	}, store.NewMemory())

	sum, err := s.JournalSummary(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "computed", sum.SummaryText)
	assert.EqualValues(t, 1, atomic.LoadInt32(&posts))
}

func TestJournalSummaryStoredIsNotRecomputed(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, `{"summary_text":"stored"}`)
	}, store.NewMemory())

	sum, err := s.JournalSummary(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "stored", sum.SummaryText)
}

func TestJournalSummaryServerErrorIsReturned(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusInternalServerError)
	}, store.NewMemory())

	_, err := s.JournalSummary(context.Background(), start, end)
	require.Error(t, err)
	assert.True(t, api.IsServer(err))
}

func TestInsightsPlaceholder(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"insights": ""}`)
	}, store.NewMemory())

	text, err := s.Insights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoInsights, text)
}

func TestOnboardValidatesBeforeSending(t *testing.T) {
	var calls int32
	sessions := store.NewMemory()
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var in api.GoalsJournal
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Run a half marathon", in.Goals.Yearly)
		assert.Equal(t, "Not specified", in.Goals.Weekly)
		assert.Equal(t, "Feel steadier and sleep better", in.Journal)
		_, _ = io.WriteString(w, `{"message": "Goals and journal saved successfully"}`)
	}, sessions)

	valid := Onboarding{
		Name:          "Sam",
		Age:           30,
		Aspirations:   "  Feel steadier and sleep better ",
		TermsAccepted: true,
		Goals:         api.Goals{Yearly: "Run a half marathon"},
	}

	bad := map[string]func(o *Onboarding){
		"no name":       func(o *Onboarding) { o.Name = " " },
		"too young":     func(o *Onboarding) { o.Age = 12 },
		"short":         func(o *Onboarding) { o.Aspirations = " 0123456789 " },
		"terms refused": func(o *Onboarding) { o.TermsAccepted = false },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			o := valid
			mutate(&o)
			_, err := s.Onboard(context.Background(), o)
			assert.Equal(t, api.KindValidation, api.KindOf(err))
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.True(t, s.NeedsOnboarding())

	msg, err := s.Onboard(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, "Goals and journal saved successfully", msg)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.False(t, s.NeedsOnboarding())
	assert.True(t, sessions.WelcomeSeen())
}

func TestFieldsOrder(t *testing.T) {
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"zodiac": "Leo",
		"socialSkills": {"score": 7, "description": "Warm with close friends"},
		"weaknesses": [{"area": "Sleep", "description": "Late nights"}],
		"name": "Sam",
		"strengths": [{"area": "Focus", "description": "Deep work"}, {"area": "Care", "description": "Listens well"}],
		"favourite_colour": "green",
		"extra": {"b": 1, "a": true}
	}`), &data))

	fields := Fields(api.Profile{ProfileData: data})
	var labels []string
	for _, f := range fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Name", "Strengths", "Weaknesses", "Social skills", "Extra", "Favourite colour", "Zodiac"}, labels)
	assert.Equal(t, "Focus: Deep work\nCare: Listens well", fields[1].Value)
	assert.Equal(t, "Warm with close friends (score 7)", fields[3].Value)
	assert.Equal(t, "A: yes, B: 1", fields[4].Value)
}

func TestFieldsEmptyProfile(t *testing.T) {
	assert.Empty(t, Fields(api.Profile{}))
}
