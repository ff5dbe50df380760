// Package query implements the generic list-query pipeline shared by
// every resource: query-string normalization, filter type coercion,
// SQL construction and pagination envelope assembly.
//
// The pipeline is pure up to SQL generation; executing the statements
// is the caller's concern.
package query

// FieldType is the semantic type of a resource column, used to coerce
// string filter values before they reach the database.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInt       FieldType = "int"
	TypeFloat     FieldType = "float"
	TypeBool      FieldType = "bool"
	TypeTimestamp FieldType = "timestamp"
)

// Schema describes the queryable surface of one resource. Schemas are
// built once at startup and never mutated; the coercion and builder
// layers consult them instead of inspecting database metadata at
// request time.
type Schema struct {
	// Columns maps a column name to its semantic type. Only columns
	// listed here may appear in equality filters, free-text targets or
	// sort fields.
	Columns map[string]FieldType

	// DefaultSort is the column used when the request names no sort
	// field or names one that does not exist.
	DefaultSort string

	// SearchFields are the free-text targets used when the request
	// provides a search term without a fields list.
	SearchFields []string
}

// HasColumn reports whether the schema exposes the named column.
func (s Schema) HasColumn(name string) bool {
	_, ok := s.Columns[name]
	return ok
}

// ColumnType returns the semantic type of the named column.
func (s Schema) ColumnType(name string) (FieldType, bool) {
	t, ok := s.Columns[name]
	return t, ok
}
