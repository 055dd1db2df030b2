package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docforge/internal/model"
)

func TestParseMonthPhrase(t *testing.T) {
	may := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	june := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		query    string
		wantFrom *time.Time
		wantTo   *time.Time
		wantRest string
	}{
		{
			name:     "cjk month phrase",
			query:    "2024年5月 的报告",
			wantFrom: &may,
			wantTo:   &june,
			wantRest: "的报告",
		},
		{
			name:     "cjk with spacing",
			query:    "2024 年 5 月",
			wantFrom: &may,
			wantTo:   &june,
			wantRest: "",
		},
		{
			name:     "english month phrase",
			query:    "sales report May 2024",
			wantFrom: &may,
			wantTo:   &june,
			wantRest: "sales report",
		},
		{
			name:     "english lowercase",
			query:    "may 2024 invoices",
			wantFrom: &may,
			wantTo:   &june,
			wantRest: "invoices",
		},
		{
			name:     "december rolls the year",
			query:    "December 2023",
			wantFrom: timePtr(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)),
			wantTo:   timePtr(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
			wantRest: "",
		},
		{
			name:     "cjk month out of range is ignored",
			query:    "2024年13月",
			wantRest: "2024年13月",
		},
		{
			name:     "no month phrase",
			query:    "quarterly report",
			wantRest: "quarterly report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, rest := parseMonthPhrase(tt.query)

			if tt.wantFrom == nil {
				assert.Nil(t, from)
				assert.Nil(t, to)
			} else {
				assert.NotNil(t, from)
				assert.NotNil(t, to)
				assert.True(t, tt.wantFrom.Equal(*from), "from = %v", from)
				assert.True(t, tt.wantTo.Equal(*to), "to = %v", to)
			}
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestDocumentService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("metadata matches rank before title matches", func(t *testing.T) {
		svc, m := newDocService(t)
		candidates := []model.Document{
			{ID: "title-match", Title: "acme report", DocType: "report"},
			{ID: "meta-match", Title: "other", DocType: "report", Metadata: map[string]any{"customer": "Acme Corp"}},
		}
		m.documents.On("SearchCandidates", ctx, "acme", "", (*time.Time)(nil), (*time.Time)(nil), 100).
			Return(candidates, nil)

		docs, err := svc.Search(ctx, SearchInput{Query: "acme", Limit: 20})

		assert.NoError(t, err)
		assert.Len(t, docs, 2)
		assert.Equal(t, "meta-match", docs[0].ID)
		assert.Equal(t, "title-match", docs[1].ID)
	})

	t.Run("month phrase narrows the date range", func(t *testing.T) {
		svc, m := newDocService(t)
		from := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

		m.documents.On("SearchCandidates", ctx, "报告", "",
			mock.MatchedBy(func(p *time.Time) bool { return p != nil && p.Equal(from) }),
			mock.MatchedBy(func(p *time.Time) bool { return p != nil && p.Equal(to) }),
			100).
			Return([]model.Document{{ID: "doc-1", Title: "月度报告"}}, nil)

		docs, err := svc.Search(ctx, SearchInput{Query: "2024年5月 报告", Limit: 20})

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		m.documents.AssertExpectations(t)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		svc, m := newDocService(t)
		candidates := make([]model.Document, 5)
		for i := range candidates {
			candidates[i] = model.Document{ID: string(rune('a' + i)), Title: "acme"}
		}
		m.documents.On("SearchCandidates", ctx, "acme", "", (*time.Time)(nil), (*time.Time)(nil), 10).
			Return(candidates, nil)

		docs, err := svc.Search(ctx, SearchInput{Query: "acme", Limit: 2})

		assert.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("empty query returns candidates in stored order", func(t *testing.T) {
		svc, m := newDocService(t)
		m.documents.On("SearchCandidates", ctx, "", "report", (*time.Time)(nil), (*time.Time)(nil), 100).
			Return([]model.Document{{ID: "doc-1"}}, nil)

		docs, err := svc.Search(ctx, SearchInput{Query: "", DocType: "report", Limit: 20})

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}
