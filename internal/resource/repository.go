package resource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albedo-dev/albedo/internal/database"
	"github.com/albedo-dev/albedo/internal/query"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the pgx-backed Store for one resource.
type Repository struct {
	db   Querier
	desc *Descriptor
}

// NewRepository creates a repository bound to the descriptor's table.
func NewRepository(db Querier, desc *Descriptor) *Repository {
	return &Repository{db: db, desc: desc}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *Repository) returning() string {
	return "RETURNING " + strings.Join(r.desc.ResponseColumns, ", ")
}

// Find executes the paginated select for the spec.
func (r *Repository) Find(ctx context.Context, spec query.Spec) ([]Record, error) {
	sql, args, err := spec.BuildSelect(r.desc.Table, r.desc.ResponseColumns)
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, database.MapError(err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, database.MapError(err)
	}
	return records, nil
}

// Count executes the count statement sharing Find's predicate.
func (r *Repository) Count(ctx context.Context, spec query.Spec) (int64, error) {
	sql, args, err := spec.BuildCount(r.desc.Table)
	if err != nil {
		return 0, fmt.Errorf("building count: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, database.MapError(err)
	}
	return total, nil
}

// Get fetches a single record by primary key.
func (r *Repository) Get(ctx context.Context, id any) (Record, error) {
	sql, args, err := psql.
		Select(r.desc.ResponseColumns...).
		From(r.desc.Table).
		Where(sq.Eq{r.desc.IDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

// Create inserts the record and returns the stored row.
func (r *Repository) Create(ctx context.Context, data Record) (Record, error) {
	columns := sortedColumns(data)
	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = data[col]
	}

	sql, args, err := psql.
		Insert(r.desc.Table).
		Columns(columns...).
		Values(values...).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

// Update applies a partial update and returns the stored row.
// updated_at is bumped when the schema carries that column.
func (r *Repository) Update(ctx context.Context, id any, data Record) (Record, error) {
	setMap := make(map[string]any, len(data)+1)
	for col, value := range data {
		setMap[col] = value
	}
	if r.desc.Schema.HasColumn("updated_at") {
		setMap["updated_at"] = time.Now().UTC()
	}

	sql, args, err := psql.
		Update(r.desc.Table).
		SetMap(setMap).
		Where(sq.Eq{r.desc.IDColumn: id}).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

// Delete removes the record and returns the deleted row.
func (r *Repository) Delete(ctx context.Context, id any) (Record, error) {
	sql, args, err := psql.
		Delete(r.desc.Table).
		Where(sq.Eq{r.desc.IDColumn: id}).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building delete: %w", err)
	}
	return r.queryOne(ctx, sql, args)
}

// DeleteMany removes all records with the given ids and returns how
// many rows went away.
func (r *Repository) DeleteMany(ctx context.Context, ids []any) (int64, error) {
	sql, args, err := psql.
		Delete(r.desc.Table).
		Where(sq.Eq{r.desc.IDColumn: ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building bulk delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, database.MapError(err)
	}
	return tag.RowsAffected(), nil
}

// ExistsMatching reports whether any row matches all filters, skipping
// excludeID when set.
func (r *Repository) ExistsMatching(ctx context.Context, filters Record, excludeID any) (bool, error) {
	b := psql.Select("1").From(r.desc.Table)
	for _, col := range sortedColumns(filters) {
		b = b.Where(sq.Eq{col: filters[col]})
	}
	if excludeID != nil {
		b = b.Where(sq.NotEq{r.desc.IDColumn: excludeID})
	}

	sql, args, err := b.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("building existence check: %w", err)
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if database.MapError(err) == database.ErrNotFound {
			return false, nil
		}
		return false, database.MapError(err)
	}
	return true, nil
}

func (r *Repository) queryOne(ctx context.Context, sql string, args []any) (Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, database.MapError(err)
	}
	rec, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, database.MapError(err)
	}
	return rec, nil
}

func sortedColumns(data Record) []string {
	columns := make([]string, 0, len(data))
	for col := range data {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
