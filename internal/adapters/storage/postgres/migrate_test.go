package postgres

import (
	"testing"
	"testing/fstest"

	"vet-med-tracker/internal/adapters/storage/postgres/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFiles_SortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"002_more.sql": {Data: []byte("SELECT 1")},
		"001_init.sql": {Data: []byte("SELECT 1")},
		"README.md":    {Data: []byte("x")},
	}

	files, err := listMigrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, files)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := listMigrationFiles(migrations.Files)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
	assert.Contains(t, files, "002_administrations_key_per_household.sql")
}
