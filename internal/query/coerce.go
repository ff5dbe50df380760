package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CoercionError reports a filter value that could not be converted to
// its column's semantic type. It is a client error: the request as a
// whole is rejected, naming the offending field.
type CoercionError struct {
	Field    string
	Expected FieldType
	Value    string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("filter %q expects a %s value, got %q", e.Field, e.Expected, e.Value)
}

// timestampFormats are the accepted ISO-8601 layouts for timestamp
// filters, tried in order.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CoerceFilters converts raw equality filters to typed values using
// the schema. Keys that do not name a schema column are dropped: the
// filterable surface is an explicit allow-list, never a pass-through
// into the query.
//
// Any value that fails conversion rejects the whole request with a
// *CoercionError.
func CoerceFilters(raw map[string]string, schema Schema) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	typed := make(map[string]any, len(raw))
	for field, value := range raw {
		fieldType, ok := schema.ColumnType(field)
		if !ok {
			continue
		}

		coerced, err := coerceValue(value, fieldType)
		if err != nil {
			return nil, &CoercionError{Field: field, Expected: fieldType, Value: value}
		}
		typed[field] = coerced
	}
	return typed, nil
}

func coerceValue(value string, t FieldType) (any, error) {
	switch t {
	case TypeString:
		return value, nil

	case TypeInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil

	case TypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		return f, nil

	case TypeBool:
		switch strings.ToLower(value) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean: %q", value)

	case TypeTimestamp:
		for _, layout := range timestampFormats {
			if ts, err := time.Parse(layout, value); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("not an ISO-8601 timestamp: %q", value)
	}

	return nil, fmt.Errorf("unsupported field type %q", t)
}

// ValidSearchFields filters the requested free-text targets down to
// columns the schema exposes. Unknown targets are silently dropped;
// free-text filtering is best effort, not a validation surface.
func ValidSearchFields(requested []string, schema Schema) []string {
	var valid []string
	for _, f := range requested {
		if schema.HasColumn(f) {
			valid = append(valid, f)
		}
	}
	return valid
}
