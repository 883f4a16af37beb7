package summary

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"tableflip.dev/tranquil/pkg/api"
)

// Field is one displayable entry of a profile.
type Field struct {
	Key   string
	Label string
	Value string
}

var knownFields = []struct{ key, label string }{
	{"name", "Name"},
	{"strengths", "Strengths"},
	{"weaknesses", "Weaknesses"},
	{"socialSkills", "Social skills"},
	{"social_skills", "Social skills"},
}

// Fields flattens profile data into display order: the known keys first,
// then any others sorted by key. Values are rendered as text without
// assuming a schema.
func Fields(p api.Profile) []Field {
	seen := make(map[string]bool, len(p.ProfileData))
	var out []Field
	for _, k := range knownFields {
		v, ok := p.ProfileData[k.key]
		if !ok {
			continue
		}
		seen[k.key] = true
		out = append(out, Field{Key: k.key, Label: k.label, Value: Format(v)})
	}

	rest := make([]string, 0, len(p.ProfileData))
	for k := range p.ProfileData {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, Field{Key: k, Label: Label(k), Value: Format(p.ProfileData[k])})
	}
	return out
}

// Label turns socialSkills or social_skills into "Social skills".
func Label(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	if len(words) == 0 {
		return key
	}
	s := strings.Join(words, " ")
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Format renders a decoded JSON value as text. Lists become one line per
// item.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := Format(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		return formatObject(t)
	}
	return fmt.Sprint(v)
}

func formatObject(m map[string]any) string {
	area, hasArea := m["area"].(string)
	desc, hasDesc := m["description"].(string)
	score, hasScore := m["score"]
	switch {
	case hasArea && hasDesc && len(m) == 2:
		return area + ": " + desc
	case hasScore && hasDesc && len(m) == 2:
		return fmt.Sprintf("%s (score %s)", desc, Format(score))
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, Label(k)+": "+Format(m[k]))
	}
	return strings.Join(parts, ", ")
}
