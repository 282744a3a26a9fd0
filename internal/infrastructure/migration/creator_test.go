package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wims/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add placements table", "add_placements_table"},
		{"Add-Placements-Table", "add_placements_table"},
		{"ADD_PLACEMENTS_TABLE", "add_placements_table"},
		{"add__audit__index", "add_audit_index"},
		{"Order Items 2", "order_items_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add expiry index", "Index placements by expiry date")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))
	assert.Equal(t,
		strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql"),
		strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add expiry index")
	assert.Contains(t, string(up), "Index placements by expiry date")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_SameSecondStillOrders(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "first", "")
	require.NoError(t, err)
	second, err := CreateMigration(dir, "second", "")
	require.NoError(t, err)

	assert.Less(t, first.Version, second.Version)

	entries, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Name)
	assert.Equal(t, "second", entries[1].Name)
	assert.True(t, entries[1].HasDown)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations_MissingDir(t *testing.T) {
	entries, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListMigrationsFS(t *testing.T) {
	fsys := fstest.MapFS{
		"20260102000000_second.up.sql":   {},
		"20260101000000_first.up.sql":    {},
		"20260101000000_first.down.sql":  {},
		"20260102000000_second.down.sql": {},
		"20260103000000_no_down.up.sql":  {},
		"README.md":                      {},
		"not_a_version.up.sql":           {},
		"nested/20260104000000_x.up.sql": {},
	}

	entries, err := ListMigrationsFS(fsys)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Version: 20260101000000, Name: "first", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 20260102000000, Name: "second", HasDown: true}, entries[1])
	assert.Equal(t, Entry{Version: 20260103000000, Name: "no_down", HasDown: false}, entries[2])
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := ListMigrationsFS(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		assert.True(t, e.HasDown, "migration %d has no rollback", e.Version)
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"create_catalog", "create_stock_ledger", "create_orders"}, names)
}

func TestParseFileName(t *testing.T) {
	v, name, dir, ok := parseFileName("20260301090100_create_stock_ledger.down.sql")
	require.True(t, ok)
	assert.Equal(t, uint(20260301090100), v)
	assert.Equal(t, "create_stock_ledger", name)
	assert.Equal(t, "down", dir)

	_, _, _, ok = parseFileName("20260301090100_create.sql")
	assert.False(t, ok)
}
