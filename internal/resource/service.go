package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/query"
)

// Record is one resource row keyed by column name.
type Record = map[string]any

// Client errors surfaced by the service; the HTTP layer maps them to
// status codes.
var (
	ErrInvalidID = errors.New("invalid identifier")
	// ErrConflict indicates a unique-field collision with an existing
	// record.
	ErrConflict = errors.New("record with these unique fields already exists")
)

// Store is the persistence capability the service delegates to. The
// production implementation is Repository; tests use MockStore.
type Store interface {
	Find(ctx context.Context, spec query.Spec) ([]Record, error)
	Count(ctx context.Context, spec query.Spec) (int64, error)
	Get(ctx context.Context, id any) (Record, error)
	Create(ctx context.Context, data Record) (Record, error)
	Update(ctx context.Context, id any, data Record) (Record, error)
	Delete(ctx context.Context, id any) (Record, error)
	DeleteMany(ctx context.Context, ids []any) (int64, error)
	// ExistsMatching reports whether a row matches all given filters,
	// excluding the row with excludeID when it is non-nil.
	ExistsMatching(ctx context.Context, filters Record, excludeID any) (bool, error)
}

// Service runs the generic list pipeline and CRUD operations for one
// resource.
type Service struct {
	desc   *Descriptor
	store  Store
	limits query.Limits
}

// NewService creates a service for the descriptor backed by the store.
func NewService(desc *Descriptor, store Store, limits query.Limits) *Service {
	return &Service{desc: desc, store: store, limits: limits}
}

// Descriptor returns the resource descriptor the service operates on.
func (s *Service) Descriptor() *Descriptor { return s.desc }

// List runs the full pipeline over raw query parameters: normalize,
// coerce, build, execute the find/count pair and assemble the
// pagination envelope. Extra equality filters (e.g. a parent scope)
// are ANDed on top of the client's filters.
func (s *Service) List(ctx context.Context, raw map[string]string, extra Record) (query.Paginated[Record], error) {
	var zero query.Paginated[Record]

	params := query.ParseListParams(raw, s.limits)
	typed, err := query.CoerceFilters(params.Filters, s.desc.Schema)
	if err != nil {
		return zero, err
	}
	for field, value := range extra {
		if typed == nil {
			typed = Record{}
		}
		typed[field] = value
	}

	spec := query.NewSpec(params, typed, s.desc.Schema)

	// Two independent reads; exactness across them is not guaranteed
	// and not required.
	total, err := s.store.Count(ctx, spec)
	if err != nil {
		return zero, fmt.Errorf("counting %s: %w", s.desc.Name, err)
	}
	items, err := s.store.Find(ctx, spec)
	if err != nil {
		return zero, fmt.Errorf("listing %s: %w", s.desc.Name, err)
	}

	return query.Paginate(items, total, params.Page, params.Size), nil
}

// ListAll returns every record, ordered by the default sort column.
func (s *Service) ListAll(ctx context.Context, extra Record) ([]Record, error) {
	spec := query.Spec{
		Equality:  extra,
		SortField: s.desc.Schema.DefaultSort,
	}
	items, err := s.store.Find(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.desc.Name, err)
	}
	if items == nil {
		items = []Record{}
	}
	return items, nil
}

// Get fetches one record by its raw path identifier.
func (s *Service) Get(ctx context.Context, rawID string) (Record, error) {
	id, err := s.desc.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", s.desc.Name, rawID, err)
	}
	return rec, nil
}

// Create inserts a record after checking unique-field collisions.
func (s *Service) Create(ctx context.Context, data Record) (Record, error) {
	if err := s.checkUnique(ctx, data, nil); err != nil {
		return nil, err
	}
	rec, err := s.store.Create(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.desc.Name, err)
	}
	return rec, nil
}

// Update applies a partial update; absent fields keep their values.
func (s *Service) Update(ctx context.Context, rawID string, data Record) (Record, error) {
	id, err := s.desc.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, data, id); err != nil {
		return nil, err
	}
	rec, err := s.store.Update(ctx, id, data)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", s.desc.Name, rawID, err)
	}
	return rec, nil
}

// Delete removes one record and returns it.
func (s *Service) Delete(ctx context.Context, rawID string) (Record, error) {
	id, err := s.desc.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting %s %s: %w", s.desc.Name, rawID, err)
	}
	return rec, nil
}

// DeleteManyResult reports the outcome of a bulk delete.
type DeleteManyResult struct {
	DeletedCount int64    `json:"deleted_count"`
	RequestedIDs []string `json:"requested_ids"`
	ValidIDs     []string `json:"valid_ids_processed"`
	InvalidIDs   []string `json:"invalid_ids_found"`
}

// DeleteMany removes the records with the given raw identifiers. Any
// unparseable identifier rejects the whole request.
func (s *Service) DeleteMany(ctx context.Context, rawIDs []string) (*DeleteManyResult, error) {
	result := &DeleteManyResult{
		RequestedIDs: rawIDs,
		ValidIDs:     []string{},
		InvalidIDs:   []string{},
	}

	var ids []any
	for _, raw := range rawIDs {
		id, err := s.desc.ParseID(raw)
		if err != nil {
			result.InvalidIDs = append(result.InvalidIDs, raw)
			continue
		}
		result.ValidIDs = append(result.ValidIDs, raw)
		ids = append(ids, id)
	}

	if len(result.InvalidIDs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, strings.Join(result.InvalidIDs, ", "))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no identifiers provided", ErrInvalidID)
	}

	deleted, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", s.desc.Name, err)
	}
	result.DeletedCount = deleted
	return result, nil
}

// checkUnique rejects the write when another record already carries
// the same unique-field values. The data's own row (excludeID) does
// not count as a collision on update.
func (s *Service) checkUnique(ctx context.Context, data Record, excludeID any) error {
	if len(s.desc.UniqueFields) == 0 {
		return nil
	}

	filters := Record{}
	for _, field := range s.desc.UniqueFields {
		if value, ok := data[field]; ok {
			filters[field] = value
		}
	}
	if len(filters) == 0 {
		return nil
	}

	exists, err := s.store.ExistsMatching(ctx, filters, excludeID)
	if err != nil {
		return fmt.Errorf("checking uniqueness for %s: %w", s.desc.Name, err)
	}
	if exists {
		return ErrConflict
	}
	return nil
}

// IsClientError reports whether err should surface as a 4xx rather
// than a store failure.
func IsClientError(err error) bool {
	var coercion *query.CoercionError
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, database.ErrNotFound) ||
		errors.Is(err, database.ErrDuplicate) ||
		errors.As(err, &coercion)
}
