package database

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFilesOrderAndSkips(t *testing.T) {
	files := fstest.MapFS{
		"002_indexes.sql":   {Data: []byte("SELECT 1")},
		"001_init.sql":      {Data: []byte("SELECT 1")},
		"900_reset_all.sql": {Data: []byte("DROP TABLE boxes")},
		"README.md":         {Data: []byte("notes")},
	}

	names, err := PendingFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_indexes.sql"}, names)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	sub, err := fs.Sub(migrationFS, "migrations")
	require.NoError(t, err)

	names, err := PendingFiles(sub)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
	assert.NotContains(t, names, resetScript)

	_, err = fs.Stat(sub, resetScript)
	assert.NoError(t, err)
}
