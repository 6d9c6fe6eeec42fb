// Package search implements sent-email discovery: keyword search over
// the record store plus recipient/subject/date filters and compact
// excerpts for list views.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/model"
)

// DefaultExcerptChars is the default excerpt cap for list views
const DefaultExcerptChars = 220

// Filters are user-selected constraints applied on top of keyword
// search results. Zero values disable a filter.
type Filters struct {
	RecipientContains string
	SubjectContains   string
	DateFrom          time.Time
	DateTo            time.Time
}

// Result is the normalized view of one matched sent email. SentDate is
// zero when the stored date was missing or unparsable.
type Result struct {
	EmailID     string
	Subject     string
	Recipients  []string
	SentDate    time.Time
	BodyExcerpt string
}

// ParseSentDate parses a stored ISO 8601 sent date, returning the zero
// time for invalid or empty input
func ParseSentDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// BuildExcerpt builds a compact single-line excerpt. The result is at
// most maxChars runes and ends in "..." exactly when the
// whitespace-collapsed input exceeds maxChars.
func BuildExcerpt(text string, maxChars int) string {
	compact := strings.Join(strings.Fields(text), " ")
	runes := []rune(compact)
	if len(runes) <= maxChars {
		return compact
	}
	return string(runes[:maxChars-3]) + "..."
}

// ApplyFilters applies recipient/subject/date filters and returns
// normalized results sorted latest first; unknown dates appear last.
func ApplyFilters(emails []model.SentEmail, filters Filters) []Result {
	var results []Result

	for _, email := range emails {
		sentDate := ParseSentDate(email.SentDate)
		subject := email.Subject
		if subject == "" {
			subject = "(No subject)"
		}

		if filters.RecipientContains != "" {
			recipientsText := strings.Join(email.Recipients, ", ")
			if !containsFold(recipientsText, filters.RecipientContains) {
				continue
			}
		}
		if filters.SubjectContains != "" && !containsFold(subject, filters.SubjectContains) {
			continue
		}
		if !filters.DateFrom.IsZero() && (sentDate.IsZero() || dateOf(sentDate).Before(dateOf(filters.DateFrom))) {
			continue
		}
		if !filters.DateTo.IsZero() && (sentDate.IsZero() || dateOf(sentDate).After(dateOf(filters.DateTo))) {
			continue
		}

		results = append(results, Result{
			EmailID:     email.ID,
			Subject:     subject,
			Recipients:  append([]string(nil), email.Recipients...),
			SentDate:    sentDate,
			BodyExcerpt: BuildExcerpt(email.Body, DefaultExcerptChars),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SentDate.After(results[j].SentDate)
	})
	return results
}

// Search runs a keyword search through the record store and applies the
// given filters to the matches
func Search(ctx context.Context, store interfaces.RecordStore, pattern string, filters Filters) ([]Result, error) {
	matches, err := store.SearchSentEmails(ctx, pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search sent emails", goerr.V("pattern", pattern))
	}
	return ApplyFilters(matches, filters), nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
