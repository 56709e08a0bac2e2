package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t(x INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t(x) VALUES (1),(2),(3)")
	require.NoError(t, err)
}

func TestOpenPath_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.sqlite")
	db, err := OpenPath(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	assert.FileExists(t, path)
}

func TestOpenPath_Empty(t *testing.T) {
	_, err := OpenPath("")
	assert.Error(t, err)
}
