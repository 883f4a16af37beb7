package devserver

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// replyTo produces the assistant's answer to a message. It is deterministic
// so tests can assert on it.
func replyTo(message string) string {
	msg := strings.TrimSpace(message)
	words := strings.Fields(msg)
	if len(words) == 0 {
		return "Take a breath. What is on your mind today?"
	}
	focus := keyword(words)
	if strings.HasSuffix(msg, "?") {
		return fmt.Sprintf("That is a good question. What do you already sense about %s?", focus)
	}
	return fmt.Sprintf("It sounds like %s is on your mind. How does that feel right now?", focus)
}

// keyword picks the longest word, first one wins ties.
func keyword(words []string) string {
	best := ""
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(w)) > len([]rune(best)) {
			best = w
		}
	}
	if best == "" {
		return "this"
	}
	return strings.ToLower(best)
}

// summarizeJournals condenses a range of entries into a short paragraph.
func summarizeJournals(rows []journalRow) string {
	if len(rows) == 0 {
		return ""
	}
	words := 0
	for _, r := range rows {
		words += len(strings.Fields(r.Content))
	}
	first, last := rows[0].JournalDate, rows[len(rows)-1].JournalDate
	return fmt.Sprintf("You wrote %d %s between %s and %s, %d words in total. Recurring themes: %s.",
		len(rows), plural(len(rows), "entry", "entries"), first, last, words, themes(rows))
}

func summarizeChat(msgs []messageRow) string {
	var user []string
	for _, m := range msgs {
		if m.Role == "user" {
			user = append(user, m.Content)
		}
	}
	if len(user) == 0 {
		return ""
	}
	return fmt.Sprintf("In this session you shared %d %s. You talked about %s.",
		len(user), plural(len(user), "message", "messages"), keyword(strings.Fields(strings.Join(user, " "))))
}

func insightsFor(rows []journalRow, g goalsRow) string {
	if len(rows) == 0 && g.Yearly == "" {
		return ""
	}
	var b strings.Builder
	if len(rows) > 0 {
		fmt.Fprintf(&b, "Across %d %s your writing returns to %s.", len(rows), plural(len(rows), "entry", "entries"), themes(rows))
	}
	if g.Yearly != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "Keep your yearly goal in view: %s.", strings.TrimSuffix(g.Yearly, "."))
	}
	return b.String()
}

// themes returns the three most frequent long words.
func themes(rows []journalRow) string {
	counts := map[string]int{}
	for _, r := range rows {
		for _, w := range strings.Fields(strings.ToLower(r.Content)) {
			w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
			if len([]rune(w)) >= 5 {
				counts[w]++
			}
		}
	}
	type kv struct {
		word string
		n    int
	}
	list := make([]kv, 0, len(counts))
	for w, n := range counts {
		list = append(list, kv{w, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].n != list[j].n {
			return list[i].n > list[j].n
		}
		return list[i].word < list[j].word
	})
	if len(list) > 3 {
		list = list[:3]
	}
	if len(list) == 0 {
		return "everyday life"
	}
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.word
	}
	return strings.Join(out, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
