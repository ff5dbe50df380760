package resource

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_ParseID(t *testing.T) {
	reg := NewRegistry()

	t.Run("int id", func(t *testing.T) {
		id, err := reg.Cities.ParseID("42")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("int id rejects text", func(t *testing.T) {
		_, err := reg.Cities.ParseID("fortytwo")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("uuid id", func(t *testing.T) {
		raw := "550e8400-e29b-41d4-a716-446655440000"
		id, err := reg.Users.ParseID(raw)
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse(raw), id)
	})

	t.Run("uuid id rejects malformed input", func(t *testing.T) {
		_, err := reg.Users.ParseID("123")
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func TestRegistry_SchemasAreConsistent(t *testing.T) {
	for _, desc := range NewRegistry().All() {
		t.Run(desc.Name, func(t *testing.T) {
			// The default sort column and all default search fields
			// must exist in the schema, otherwise the fallback paths
			// in the query pipeline would produce broken SQL.
			assert.True(t, desc.Schema.HasColumn(desc.Schema.DefaultSort),
				"default sort %q missing from schema", desc.Schema.DefaultSort)
			for _, f := range desc.Schema.SearchFields {
				assert.True(t, desc.Schema.HasColumn(f), "search field %q missing from schema", f)
			}

			// Response columns come straight from the schema.
			require.NotEmpty(t, desc.ResponseColumns)
			for _, col := range desc.ResponseColumns {
				assert.True(t, desc.Schema.HasColumn(col), "response column %q missing from schema", col)
			}

			// Unique fields must be real columns too.
			for _, f := range desc.UniqueFields {
				assert.True(t, desc.Schema.HasColumn(f), "unique field %q missing from schema", f)
			}

			assert.True(t, desc.Schema.HasColumn(desc.IDColumn))
		})
	}
}

func TestRegistry_SensitiveUserColumnsNeverExposed(t *testing.T) {
	users := NewRegistry().Users
	for _, col := range users.ResponseColumns {
		assert.NotEqual(t, "hashed_password", col)
		assert.NotEqual(t, "verification_token", col)
	}
	assert.False(t, users.Schema.HasColumn("hashed_password"),
		"password hash must not be filterable either")
}
