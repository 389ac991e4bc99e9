// Package search provides Gmail-like search query parsing and client-side
// matching for inbox messages. Paginated views pass the raw query string to
// the server; snapshot views (sent/archived/starred) filter the cached
// result set locally with Matches.
package search

import (
	"regexp"
	"strings"
	"time"

	"github.com/kenny1934/tutordesk/internal/message"
)

// Query represents a parsed search query with all supported filters.
type Query struct {
	TextTerms     []string          // bare words and quoted phrases
	FromIDs       []string          // from: filters (sender id or name)
	ToIDs         []string          // to: filters
	SubjectTerms  []string          // subject: filters
	Category      *message.Category // category: / c: filter
	Priority      *message.Priority // priority: filter
	HasAttachment *bool             // has:attachment
	Unread        *bool             // is:unread / is:read
	BeforeDate    *time.Time        // before: filter
	AfterDate     *time.Time        // after: filter
}

// IsEmpty returns true if the query has no search criteria.
func (q *Query) IsEmpty() bool {
	return len(q.TextTerms) == 0 &&
		len(q.FromIDs) == 0 &&
		len(q.ToIDs) == 0 &&
		len(q.SubjectTerms) == 0 &&
		q.Category == nil &&
		q.Priority == nil &&
		q.HasAttachment == nil &&
		q.Unread == nil &&
		q.BeforeDate == nil &&
		q.AfterDate == nil
}

// operatorFn applies a parsed operator:value pair to the query.
type operatorFn func(q *Query, value string)

var operators = map[string]operatorFn{
	"from": func(q *Query, v string) {
		q.FromIDs = append(q.FromIDs, strings.ToLower(v))
	},
	"to": func(q *Query, v string) {
		q.ToIDs = append(q.ToIDs, strings.ToLower(v))
	},
	"subject": func(q *Query, v string) {
		q.SubjectTerms = append(q.SubjectTerms, v)
	},
	"category": setCategory,
	"c":        setCategory,
	"priority": func(q *Query, v string) {
		switch strings.ToLower(v) {
		case "high":
			p := message.PriorityHigh
			q.Priority = &p
		case "urgent":
			p := message.PriorityUrgent
			q.Priority = &p
		case "normal":
			p := message.PriorityNormal
			q.Priority = &p
		}
	},
	"has": func(q *Query, v string) {
		if low := strings.ToLower(v); low == "attachment" || low == "attachments" {
			b := true
			q.HasAttachment = &b
		}
	},
	"is": func(q *Query, v string) {
		switch strings.ToLower(v) {
		case "unread":
			b := true
			q.Unread = &b
		case "read":
			b := false
			q.Unread = &b
		}
	},
	"before": func(q *Query, v string) {
		if t := parseDate(v); t != nil {
			q.BeforeDate = t
		}
	},
	"after": func(q *Query, v string) {
		if t := parseDate(v); t != nil {
			q.AfterDate = t
		}
	},
}

func setCategory(q *Query, v string) {
	if c := message.ParseCategory(strings.ToLower(v)); c != message.CategoryNone {
		q.Category = &c
	}
}

// Parse parses a search query string into a Query.
//
// Supported operators:
//   - from:, to: - participant filters (matched against ids and names)
//   - subject: - subject text search
//   - category: or c: - category filter (wire names, e.g. category:reminder)
//   - priority: - normal/high/urgent
//   - has:attachment - attachment filter
//   - is:unread, is:read - read-state filter
//   - before:, after: - date filters (YYYY-MM-DD)
//   - Bare words and "quoted phrases" - full-text search
func Parse(queryStr string) *Query {
	q := &Query{}
	for _, token := range tokenize(queryStr) {
		if isQuotedPhrase(token) {
			q.TextTerms = append(q.TextTerms, unquote(token))
			continue
		}

		if idx := strings.Index(token, ":"); idx != -1 {
			op := strings.ToLower(token[:idx])
			value := unquote(token[idx+1:])
			if handler, ok := operators[op]; ok {
				handler(q, value)
				continue
			}
		}

		q.TextTerms = append(q.TextTerms, token)
	}
	return q
}

// unquote removes surrounding double quotes from a string if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// isQuotedPhrase returns true if the token is a double-quoted phrase.
func isQuotedPhrase(token string) bool {
	return len(token) > 2 && token[0] == '"' && token[len(token)-1] == '"'
}

// tokenize splits a query string, preserving quoted phrases and keeping
// operator:"quoted value" pairs together as single tokens.
func tokenize(queryStr string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	afterColon := false
	opQuoted := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, char := range queryStr {
		switch {
		case char == '"' && !inQuotes:
			inQuotes = true
			opQuoted = afterColon
			if !afterColon {
				flush()
			}
			if afterColon {
				current.WriteRune(char)
			}
			afterColon = false
		case char == '"' && inQuotes:
			inQuotes = false
			if opQuoted {
				current.WriteRune(char)
				flush()
			} else if current.Len() > 0 {
				tokens = append(tokens, "\""+current.String()+"\"")
				current.Reset()
			}
			opQuoted = false
		case char == ' ' && !inQuotes:
			flush()
			afterColon = false
		default:
			current.WriteRune(char)
			afterColon = char == ':'
		}
	}
	flush()

	return tokens
}

var dateFormats = []string{"2006-01-02", "2006/01/02"}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// markupTags strips rich-text markup so body text can be searched as plain
// text. Good enough for the limited markup the compose editor emits.
var markupTags = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes markup tags from a rich-text body. Adjacent tags
// collapse to a single space so inline markup never doubles the spacing
// between words; newlines survive so paragraph structure is kept.
func StripMarkup(body string) string {
	body = markupTags.ReplaceAllString(body, " ")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
