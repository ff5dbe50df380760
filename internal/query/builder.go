package query

import (
	"sort"

	sq "github.com/Masterminds/squirrel"
)

// Spec is a fully validated list query: equality filters are typed and
// allow-listed, search fields exist in the schema, and the sort column
// has been resolved. Build a Spec with NewSpec rather than by hand.
type Spec struct {
	Equality     map[string]any
	Search       string
	SearchFields []string
	SortField    string
	SortDesc     bool
	Offset       int
	Limit        int
}

// NewSpec combines normalized parameters with coerced filters into an
// executable Spec. An unknown sort field falls back to the schema
// default rather than failing: sorting is presentation, not filtering,
// so a bad sort column never rejects a request.
//
// A search term without an explicit fields list targets the schema's
// SearchFields, then DefaultSearchFields when the schema declares none.
func NewSpec(p ListParams, typed map[string]any, schema Schema) Spec {
	sortField := p.SortField
	if !schema.HasColumn(sortField) {
		sortField = schema.DefaultSort
	}

	searchFields := p.SearchFields
	if p.Search != "" && len(searchFields) == 0 {
		searchFields = schema.SearchFields
		if len(searchFields) == 0 {
			searchFields = DefaultSearchFields
		}
	}

	return Spec{
		Equality:     typed,
		Search:       p.Search,
		SearchFields: ValidSearchFields(searchFields, schema),
		SortField:    sortField,
		SortDesc:     p.SortOrder == SortDesc,
		Offset:       p.Offset(),
		Limit:        p.Size,
	}
}

// whereClauses returns the predicate shared by the select and count
// statements: equality filters ANDed together, with the free-text
// ILIKE group (ORed across its target fields) ANDed on top.
func (s Spec) whereClauses(b sq.SelectBuilder) sq.SelectBuilder {
	for _, field := range sortedKeys(s.Equality) {
		b = b.Where(sq.Eq{field: s.Equality[field]})
	}

	if s.Search != "" && len(s.SearchFields) > 0 {
		pattern := "%" + s.Search + "%"
		or := make(sq.Or, 0, len(s.SearchFields))
		for _, field := range s.SearchFields {
			or = append(or, sq.ILike{field: pattern})
		}
		b = b.Where(or)
	}
	return b
}

// BuildSelect renders the paginated select statement for the spec.
func (s Spec) BuildSelect(table string, columns []string) (string, []any, error) {
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	b := sq.Select(columns...).From(table).PlaceholderFormat(sq.Dollar)
	b = s.whereClauses(b)

	direction := "ASC"
	if s.SortDesc {
		direction = "DESC"
	}
	b = b.OrderBy(s.SortField + " " + direction)

	if s.Limit > 0 {
		b = b.Limit(uint64(s.Limit)).Offset(uint64(s.Offset))
	}
	return b.ToSql()
}

// BuildCount renders the count statement over the same predicate,
// independent of sort and pagination so the total is exact.
func (s Spec) BuildCount(table string) (string, []any, error) {
	b := sq.Select("COUNT(*)").From(table).PlaceholderFormat(sq.Dollar)
	b = s.whereClauses(b)
	return b.ToSql()
}

// sortedKeys keeps generated SQL deterministic across map iterations.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
