package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docforge/internal/model"
)

// SearchInput carries a metadata search request. When DateFrom/DateTo are
// nil, a month phrase in the query text supplies the range.
type SearchInput struct {
	Query    string
	DocType  string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// candidateFactor over-fetches the SQL candidate set so the in-memory
// relevance pass has enough rows to fill the limit.
const candidateFactor = 5

var (
	cjkMonthRe = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月`)
	engMonthRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// parseMonthPhrase extracts a calendar-month range from free text,
// recognizing both the CJK form "2024年5月" and the English form
// "May 2024". It returns the remaining text with the phrase removed.
func parseMonthPhrase(query string) (from, to *time.Time, rest string) {
	rest = query

	if m := cjkMonthRe.FindStringSubmatchIndex(query); m != nil {
		year, _ := strconv.Atoi(query[m[2]:m[3]])
		month, _ := strconv.Atoi(query[m[4]:m[5]])
		if month >= 1 && month <= 12 {
			f := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			t := f.AddDate(0, 1, 0)
			rest = strings.TrimSpace(query[:m[0]] + " " + query[m[1]:])
			return &f, &t, rest
		}
	}

	if m := engMonthRe.FindStringSubmatchIndex(query); m != nil {
		month := monthNames[strings.ToLower(query[m[2]:m[3]])]
		year, _ := strconv.Atoi(query[m[4]:m[5]])
		f := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		t := f.AddDate(0, 1, 0)
		rest = strings.TrimSpace(query[:m[0]] + " " + query[m[1]:])
		return &f, &t, rest
	}

	return nil, nil, rest
}

func (s *documentService) Search(ctx context.Context, in SearchInput) ([]model.Document, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}

	from, to := in.DateFrom, in.DateTo
	needle := strings.TrimSpace(in.Query)
	if from == nil && to == nil {
		var rest string
		from, to, rest = parseMonthPhrase(needle)
		if from != nil {
			needle = rest
		}
	}

	candidates, err := s.documents.SearchCandidates(ctx, needle, in.DocType, from, to, limit*candidateFactor)
	if err != nil {
		return nil, err
	}
	if needle == "" {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates, nil
	}

	// Relevance pass: metadata matches rank before title/doc_type matches.
	lowered := strings.ToLower(needle)
	matched := make([]model.Document, 0, limit)
	seen := make(map[string]bool, limit)

	for _, d := range candidates {
		if len(matched) >= limit {
			break
		}
		if matchesMetadata(d.Metadata, lowered) {
			matched = append(matched, d)
			seen[d.ID] = true
		}
	}
	for _, d := range candidates {
		if len(matched) >= limit {
			break
		}
		if seen[d.ID] {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), lowered) ||
			strings.Contains(strings.ToLower(d.DocType), lowered) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// matchesMetadata reports whether any metadata key or stringified value
// contains the lowercased needle.
func matchesMetadata(metadata map[string]any, needle string) bool {
	for k, v := range metadata {
		if strings.Contains(strings.ToLower(k), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
			return true
		}
	}
	return false
}
