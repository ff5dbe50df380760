package resource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/query"
)

// MockStore is an in-memory Store implementation for testing. It
// honors equality filters, the case-insensitive substring search,
// single-field sorting and offset/limit pagination, so service tests
// exercise the full list pipeline without a database.
type MockStore struct {
	mu      sync.RWMutex
	desc    *Descriptor
	nextID  int64
	records []Record

	// Optional error injections.
	FindErr  error
	CountErr error
	WriteErr error
}

// NewMockStore creates an empty in-memory store for the descriptor.
func NewMockStore(desc *Descriptor) *MockStore {
	return &MockStore{desc: desc, nextID: 1}
}

// Seed inserts records directly, bypassing uniqueness checks.
func (m *MockStore) Seed(records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if _, ok := rec[m.desc.IDColumn]; !ok {
			rec[m.desc.IDColumn] = m.nextID
			m.nextID++
		}
		m.records = append(m.records, rec)
	}
}

// Len returns the number of stored records.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Raw returns the full stored record by id, bypassing the response
// column projection. Nil when absent.
func (m *MockStore) Raw(id any) Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec := m.byID(id); rec != nil {
		return cloneRecord(rec)
	}
	return nil
}

// project reduces a record to the descriptor's response columns, the
// way the SQL store's RETURNING clause does.
func (m *MockStore) project(rec Record) Record {
	if len(m.desc.ResponseColumns) == 0 {
		return cloneRecord(rec)
	}
	out := make(Record, len(m.desc.ResponseColumns))
	for _, col := range m.desc.ResponseColumns {
		if value, ok := rec[col]; ok {
			out[col] = value
		}
	}
	return out
}

func (m *MockStore) Find(ctx context.Context, spec query.Spec) ([]Record, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.match(spec)
	sortRecords(matched, spec.SortField, spec.SortDesc)

	if spec.Limit <= 0 {
		return matched, nil
	}
	if spec.Offset >= len(matched) {
		return []Record{}, nil
	}
	matched = matched[spec.Offset:]
	if spec.Limit < len(matched) {
		matched = matched[:spec.Limit]
	}
	return matched, nil
}

func (m *MockStore) Count(ctx context.Context, spec query.Spec) (int64, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.match(spec))), nil
}

func (m *MockStore) Get(ctx context.Context, id any) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec := m.byID(id); rec != nil {
		return m.project(rec), nil
	}
	return nil, database.ErrNotFound
}

func (m *MockStore) Create(ctx context.Context, data Record) (Record, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := cloneRecord(data)
	if _, ok := rec[m.desc.IDColumn]; !ok {
		rec[m.desc.IDColumn] = m.nextID
		m.nextID++
	}
	m.records = append(m.records, rec)
	return m.project(rec), nil
}

func (m *MockStore) Update(ctx context.Context, id any, data Record) (Record, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.byID(id)
	if rec == nil {
		return nil, database.ErrNotFound
	}
	for col, value := range data {
		rec[col] = value
	}
	return m.project(rec), nil
}

func (m *MockStore) Delete(ctx context.Context, id any) (Record, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, rec := range m.records {
		if sameID(rec[m.desc.IDColumn], id) {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return m.project(rec), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockStore) DeleteMany(ctx context.Context, ids []any) (int64, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []Record
	var deleted int64
	for _, rec := range m.records {
		remove := false
		for _, id := range ids {
			if sameID(rec[m.desc.IDColumn], id) {
				remove = true
				break
			}
		}
		if remove {
			deleted++
		} else {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return deleted, nil
}

func (m *MockStore) ExistsMatching(ctx context.Context, filters Record, excludeID any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		if excludeID != nil && sameID(rec[m.desc.IDColumn], excludeID) {
			continue
		}
		all := true
		for col, want := range filters {
			if fmt.Sprint(rec[col]) != fmt.Sprint(want) {
				all = false
				break
			}
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStore) match(spec query.Spec) []Record {
	var matched []Record
	for _, rec := range m.records {
		if !matchesEquality(rec, spec.Equality) {
			continue
		}
		if spec.Search != "" && len(spec.SearchFields) > 0 && !matchesSearch(rec, spec) {
			continue
		}
		matched = append(matched, m.project(rec))
	}
	return matched
}

func matchesEquality(rec Record, filters map[string]any) bool {
	for col, want := range filters {
		if fmt.Sprint(rec[col]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func matchesSearch(rec Record, spec query.Spec) bool {
	needle := strings.ToLower(spec.Search)
	for _, field := range spec.SearchFields {
		value, ok := rec[field].(string)
		if ok && strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}

func sortRecords(records []Record, field string, desc bool) {
	if field == "" {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		less := lessValue(records[i][field], records[j][field])
		if desc {
			return !less
		}
		return less
	})
}

// lessValue orders two column values the way SQL ORDER BY does:
// numerically when both are numbers, lexicographically otherwise.
func lessValue(a, b any) bool {
	if na, aOK := numericValue(a); aOK {
		if nb, bOK := numericValue(b); bOK {
			return na < nb
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (m *MockStore) byID(id any) Record {
	for _, rec := range m.records {
		if sameID(rec[m.desc.IDColumn], id) {
			return rec
		}
	}
	return nil
}

func sameID(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
