package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_Embebidas(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/0001_init.sql", names[0])

	body, err := migrationsFS.ReadFile(names[0])
	require.NoError(t, err)
	for _, table := range []string{"warehouses", "stock_records", "stock_transfers", "purchase_receipt_lines", "purchase_receipts"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, string(body), "UNIQUE (warehouse_id, identity_key)")

	require.Len(t, names, 2)
	assert.Equal(t, "migrations/0002_receipt_line_key.sql", names[1])
	body, err = migrationsFS.ReadFile(names[1])
	require.NoError(t, err)
	assert.Contains(t, string(body), "PRIMARY KEY (purchase_id, line_key)")
}
