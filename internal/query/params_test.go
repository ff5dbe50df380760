package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListParams_PageDefaults(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]string
		expected int
	}{
		{
			name:     "missing page defaults to 1",
			raw:      map[string]string{},
			expected: 1,
		},
		{
			name:     "valid page",
			raw:      map[string]string{"page": "7"},
			expected: 7,
		},
		{
			name:     "non-numeric page defaults silently",
			raw:      map[string]string{"page": "banana"},
			expected: 1,
		},
		{
			name:     "zero page defaults silently",
			raw:      map[string]string{"page": "0"},
			expected: 1,
		},
		{
			name:     "negative page defaults silently",
			raw:      map[string]string{"page": "-3"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseListParams(tt.raw, Limits{})
			assert.Equal(t, tt.expected, p.Page)
		})
	}
}

func TestParseListParams_SizeDefaultsAndClamping(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]string
		limits   Limits
		expected int
	}{
		{
			name:     "missing size defaults to 10",
			raw:      map[string]string{},
			expected: 10,
		},
		{
			name:     "valid size",
			raw:      map[string]string{"size": "25"},
			expected: 25,
		},
		{
			name:     "non-numeric size defaults silently",
			raw:      map[string]string{"size": "lots"},
			expected: 10,
		},
		{
			name:     "size above max defaults silently",
			raw:      map[string]string{"size": "5000"},
			expected: 10,
		},
		{
			name:     "size below one defaults silently",
			raw:      map[string]string{"size": "0"},
			expected: 10,
		},
		{
			name:     "legacy limit alias accepted",
			raw:      map[string]string{"limit": "15"},
			expected: 15,
		},
		{
			name:     "size wins over limit",
			raw:      map[string]string{"size": "20", "limit": "99"},
			expected: 20,
		},
		{
			name:     "configured default applies",
			raw:      map[string]string{},
			limits:   Limits{DefaultPageSize: 25, MaxPageSize: 50},
			expected: 25,
		},
		{
			name:     "configured max enforced",
			raw:      map[string]string{"size": "60"},
			limits:   Limits{DefaultPageSize: 25, MaxPageSize: 50},
			expected: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseListParams(tt.raw, tt.limits)
			assert.Equal(t, tt.expected, p.Size)
		})
	}
}

func TestParseListParams_Sort(t *testing.T) {
	tests := []struct {
		name          string
		raw           map[string]string
		expectedField string
		expectedOrder SortOrder
	}{
		{
			name:          "defaults",
			raw:           map[string]string{},
			expectedField: "created_at",
			expectedOrder: SortAsc,
		},
		{
			name:          "explicit sort and order",
			raw:           map[string]string{"sort": "name", "order": "desc"},
			expectedField: "name",
			expectedOrder: SortDesc,
		},
		{
			name:          "sort_by and sort_order aliases",
			raw:           map[string]string{"sort_by": "email", "sort_order": "DESC"},
			expectedField: "email",
			expectedOrder: SortDesc,
		},
		{
			name:          "unrecognized order treated as ascending",
			raw:           map[string]string{"order": "sideways"},
			expectedField: "created_at",
			expectedOrder: SortAsc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseListParams(tt.raw, Limits{})
			assert.Equal(t, tt.expectedField, p.SortField)
			assert.Equal(t, tt.expectedOrder, p.SortOrder)
		})
	}
}

func TestParseListParams_Search(t *testing.T) {
	t.Run("search with explicit fields", func(t *testing.T) {
		p := ParseListParams(map[string]string{
			"search": "berlin",
			"fields": "name, country",
		}, Limits{})

		assert.Equal(t, "berlin", p.Search)
		assert.Equal(t, []string{"name", "country"}, p.SearchFields)
	})

	t.Run("filter alias leaves targets to schema resolution", func(t *testing.T) {
		p := ParseListParams(map[string]string{"filter": "bot"}, Limits{})

		assert.Equal(t, "bot", p.Search)
		assert.Empty(t, p.SearchFields)
	})

	t.Run("no search term means no free-text filter", func(t *testing.T) {
		p := ParseListParams(map[string]string{"fields": "name"}, Limits{})

		assert.Empty(t, p.Search)
		assert.Empty(t, p.SearchFields)
	})
}

func TestParseListParams_EqualityFilterCandidates(t *testing.T) {
	p := ParseListParams(map[string]string{
		"page":    "2",
		"size":    "5",
		"sort":    "name",
		"order":   "desc",
		"search":  "x",
		"fields":  "name",
		"country": "Germany",
		"active":  "true",
	}, Limits{})

	// Reserved keys never leak into the filter set.
	assert.Equal(t, map[string]string{
		"country": "Germany",
		"active":  "true",
	}, p.Filters)
}

func TestListParams_Offset(t *testing.T) {
	p := ListParams{Page: 3, Size: 20}
	assert.Equal(t, 40, p.Offset())

	p = ListParams{Page: 1, Size: 10}
	assert.Equal(t, 0, p.Offset())
}
