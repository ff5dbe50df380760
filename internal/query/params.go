package query

import (
	"strconv"
	"strings"
)

// SortOrder is the direction of a single-column sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSearchFields are the free-text targets of last resort, used
// when a search term arrives without an explicit fields list and the
// schema declares no SearchFields of its own.
var DefaultSearchFields = []string{"name", "description"}

// reservedKeys are query parameters consumed by the pipeline itself;
// every other key is a candidate equality filter.
var reservedKeys = map[string]struct{}{
	"page":       {},
	"size":       {},
	"limit":      {},
	"sort":       {},
	"sort_by":    {},
	"order":      {},
	"sort_order": {},
	"search":     {},
	"filter":     {},
	"fields":     {},
}

// Limits bounds the page size. Zero values fall back to 10/100.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (l Limits) defaultSize() int {
	if l.DefaultPageSize > 0 {
		return l.DefaultPageSize
	}
	return 10
}

func (l Limits) maxSize() int {
	if l.MaxPageSize > 0 {
		return l.MaxPageSize
	}
	return 100
}

// ListParams is the normalized form of a list request, prior to filter
// type coercion.
type ListParams struct {
	Page      int
	Size      int
	SortField string
	SortOrder SortOrder

	// Search is the free-text term; empty means no free-text filter.
	// SearchFields are its explicitly requested targets, not yet
	// validated against a schema. Empty means the request named no
	// targets; NewSpec resolves them from the schema.
	Search       string
	SearchFields []string

	// Filters holds the raw candidate equality filters keyed by
	// column name.
	Filters map[string]string
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Size
}

// ParseListParams normalizes raw query parameters into ListParams.
//
// Malformed pagination input never fails: page and size silently fall
// back to their defaults, mirroring how filter values (which DO fail
// hard on bad input, see CoerceFilters) are treated differently. That
// asymmetry is a deliberate product decision carried over from the
// original API.
func ParseListParams(raw map[string]string, limits Limits) ListParams {
	p := ListParams{
		Page:      parseBoundedInt(raw["page"], 1, 1, 0),
		SortField: "created_at",
		SortOrder: SortAsc,
		Filters:   map[string]string{},
	}

	// "size" wins over its legacy alias "limit".
	sizeRaw := raw["size"]
	if sizeRaw == "" {
		sizeRaw = raw["limit"]
	}
	p.Size = parseBoundedInt(sizeRaw, limits.defaultSize(), 1, limits.maxSize())

	if sort := firstNonEmpty(raw["sort"], raw["sort_by"]); sort != "" {
		p.SortField = sort
	}
	if order := firstNonEmpty(raw["order"], raw["sort_order"]); strings.EqualFold(order, string(SortDesc)) {
		p.SortOrder = SortDesc
	}

	if search := firstNonEmpty(raw["search"], raw["filter"]); search != "" {
		p.Search = search
		p.SearchFields = splitFields(raw["fields"])
	}

	for key, value := range raw {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		p.Filters[key] = value
	}

	return p
}

// parseBoundedInt parses s, falling back to def when it is missing,
// non-numeric or out of bounds. max <= 0 means unbounded above.
func parseBoundedInt(s string, def, min, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < min || (max > 0 && n > max) {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
