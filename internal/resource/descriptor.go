// Package resource implements generic CRUD over the API's resources.
// Each resource is described by a static Descriptor built at startup;
// the Service runs the shared list pipeline and CRUD operations
// against a Store, and the pgx-backed Repository is the production
// Store.
package resource

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/albedo-dev/albedo/internal/query"
)

// IDKind selects how a resource's path identifier is parsed.
type IDKind int

const (
	// IDInt is a serial integer primary key.
	IDInt IDKind = iota
	// IDUUID is a uuid primary key.
	IDUUID
)

// Descriptor is the static description of one resource: its table,
// queryable schema and uniqueness rules. Descriptors are immutable
// after Registry construction.
type Descriptor struct {
	// Name is the plural resource name used in routes and logs.
	Name  string
	Table string

	IDColumn string
	IDKind   IDKind

	Schema query.Schema

	// UniqueFields must not collide with an existing row on create or
	// update (excluding the row itself).
	UniqueFields []string

	// ResponseColumns are the columns selected and returned to
	// clients. Sensitive columns (password hashes, tokens) are simply
	// not listed here.
	ResponseColumns []string
}

// ParseID converts a path identifier into its typed form. Failures are
// client errors (ErrInvalidID).
func (d *Descriptor) ParseID(raw string) (any, error) {
	switch d.IDKind {
	case IDUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
		return id, nil
	default:
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
		return id, nil
	}
}

// Registry holds the descriptors for every resource the API exposes.
type Registry struct {
	Users      *Descriptor
	Assistants *Descriptor
	Entities   *Descriptor
	Cities     *Descriptor
}

// NewRegistry builds the static descriptor set. This is the only place
// resource schemas are defined; nothing inspects database metadata at
// request time.
func NewRegistry() *Registry {
	return &Registry{
		Users: &Descriptor{
			Name:     "users",
			Table:    "users",
			IDColumn: "id",
			IDKind:   IDUUID,
			Schema: query.Schema{
				Columns: map[string]query.FieldType{
					"id":         query.TypeString,
					"name":       query.TypeString,
					"email":      query.TypeString,
					"role":       query.TypeString,
					"verified":   query.TypeBool,
					"created_at": query.TypeTimestamp,
					"updated_at": query.TypeTimestamp,
				},
				DefaultSort:  "created_at",
				SearchFields: []string{"name", "email"},
			},
			UniqueFields: []string{"email"},
			ResponseColumns: []string{
				"id", "name", "email", "role", "verified", "created_at", "updated_at",
			},
		},
		Assistants: &Descriptor{
			Name:     "assistants",
			Table:    "assistants",
			IDColumn: "id",
			IDKind:   IDInt,
			Schema: query.Schema{
				Columns: map[string]query.FieldType{
					"id":          query.TypeInt,
					"name":        query.TypeString,
					"description": query.TypeString,
					"created_at":  query.TypeTimestamp,
					"updated_at":  query.TypeTimestamp,
				},
				DefaultSort:  "created_at",
				SearchFields: []string{"name", "description"},
			},
			ResponseColumns: []string{
				"id", "name", "description", "created_at", "updated_at",
			},
		},
		Entities: &Descriptor{
			Name:     "entities",
			Table:    "entities",
			IDColumn: "id",
			IDKind:   IDInt,
			Schema: query.Schema{
				Columns: map[string]query.FieldType{
					"id":           query.TypeInt,
					"name":         query.TypeString,
					"description":  query.TypeString,
					"assistant_id": query.TypeInt,
					"created_at":   query.TypeTimestamp,
					"updated_at":   query.TypeTimestamp,
				},
				DefaultSort:  "created_at",
				SearchFields: []string{"name", "description"},
			},
			ResponseColumns: []string{
				"id", "name", "description", "assistant_id", "created_at", "updated_at",
			},
		},
		Cities: &Descriptor{
			Name:     "cities",
			Table:    "cities",
			IDColumn: "id",
			IDKind:   IDInt,
			Schema: query.Schema{
				Columns: map[string]query.FieldType{
					"id":          query.TypeInt,
					"name":        query.TypeString,
					"country":     query.TypeString,
					"description": query.TypeString,
					"created_at":  query.TypeTimestamp,
					"updated_at":  query.TypeTimestamp,
				},
				DefaultSort:  "created_at",
				SearchFields: []string{"name", "description"},
			},
			UniqueFields: []string{"name"},
			ResponseColumns: []string{
				"id", "name", "country", "description", "created_at", "updated_at",
			},
		},
	}
}

// All returns every registered descriptor.
func (r *Registry) All() []*Descriptor {
	return []*Descriptor{r.Users, r.Assistants, r.Entities, r.Cities}
}
