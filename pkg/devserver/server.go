// Package devserver is a local implementation of the Tranquil API backed by
// SQLite. It signs its own tokens and answers chat messages with a canned
// reflective reply, which is enough to drive the client end to end.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	dateLayout  = "2006-01-02"
	minPassword = 6
)

// Options configure a Server. The zero value serves from memory with a fixed
// development secret.
type Options struct {
	// DBPath is the SQLite file. Empty keeps data in memory.
	DBPath string
	Secret string
	Log    zerolog.Logger
	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost    int
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	// ConfirmEmail makes signup return no tokens, as when the account needs
	// confirming before the first sign-in.
	ConfirmEmail bool
	Now          func() time.Time
}

type Server struct {
	opts   Options
	log    zerolog.Logger
	store  *Store
	tokens *tokens
	router chi.Router

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	mu    sync.Mutex
	calls map[string]int
}

func New(opts Options) (*Server, error) {
	if opts.Secret == "" {
		opts.Secret = "tranquil-development-secret"
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.AccessExpiry == 0 {
		opts.AccessExpiry = time.Hour
	}
	if opts.RefreshExpiry == 0 {
		opts.RefreshExpiry = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	st, err := OpenStore(opts.DBPath, opts.Now)
	if err != nil {
		return nil, err
	}
	s := &Server{
		opts:  opts,
		log:   opts.Log.With().Str("component", "devserver").Logger(),
		store: st,
		tokens: &tokens{
			secret:        []byte(opts.Secret),
			accessExpiry:  opts.AccessExpiry,
			refreshExpiry: opts.RefreshExpiry,
			cost:          opts.BcryptCost,
			now:           opts.Now,
			store:         st,
		},
		registry: prometheus.NewRegistry(),
		calls:    map[string]int{},
	}
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tranquil_devserver",
		Name:      "http_requests_total",
		Help:      "Requests served, by method, route and status.",
	}, []string{"method", "route", "status"})
	s.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tranquil_devserver",
		Name:      "http_request_duration_seconds",
		Help:      "Request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	s.registry.MustRegister(s.requests, s.latency)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.signup)
		r.Post("/login", s.login)
		r.Post("/refresh", s.refresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/protected", s.protected)

			r.Post("/journals", s.saveJournal)
			r.Get("/journal-dates", s.journalDates)
			r.Get("/journal-summaries", s.getJournalSummary)
			r.Post("/journal-summaries", s.createJournalSummary)
			r.Post("/goals-journals", s.saveGoals)

			r.Get("/chat-sessions", s.listSessions)
			r.Post("/chat-sessions", s.createSession)
			r.Get("/chat-sessions/{id}/messages", s.sessionMessages)
			r.Post("/chat-sessions/{id}/messages", s.sendSessionMessage)
			r.Get("/chat-summaries", s.getChatSummary)
			r.Post("/chat-summaries", s.createChatSummary)
			r.Post("/chat", s.chat)
			r.Get("/chat-history", s.chatHistory)

			r.Get("/user-profile", s.getProfile)
			r.Put("/user-profile", s.putProfile)
			r.Get("/insights", s.getInsights)
			r.Post("/generate-insights", s.generateInsights)
		})
	})
	return r
}

// accessLog logs each request and records it in the metrics and the call
// counters.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		s.count(r.Method, strings.TrimPrefix(route, "/api"))

		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) count(method, route string) {
	s.mu.Lock()
	s.calls[method+" "+route]++
	s.mu.Unlock()
}

// Calls reports how many requests hit route (a pattern below /api, such as
// "/chat-sessions/{id}/messages") with method.
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+route]
}

// Handler serves the API under /api and metrics under /metrics.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store exposes the database, mostly for tests.
func (s *Server) Store() *Store {
	return s.store
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	s.log.Info().Str("addr", l.Addr().String()).Msg("serving")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) Close() error {
	return s.store.Close()
}
