package database_test

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-boutique-backend/internal/database"
)

func TestMigrations_Ordered(t *testing.T) {
	names, err := database.Migrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_catalog.sql", "002_orders.sql"}, names)
}

func TestConstraintErrors(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	fk := &pq.Error{Code: "23503"}

	assert.True(t, database.IsUniqueViolation(unique))
	assert.True(t, database.IsUniqueViolation(fmt.Errorf("insert fragrance: %w", unique)))
	assert.False(t, database.IsUniqueViolation(fk))
	assert.True(t, database.IsForeignKeyViolation(fk))
	assert.False(t, database.IsForeignKeyViolation(assert.AnError))
}
