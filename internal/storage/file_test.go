package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFile_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "minidb.db")
	db := newTestDB(t)

	require.NoError(t, SaveFile(path, db))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Encode(db), string(raw))

	got, warnings := LoadFile(path)
	assert.Empty(t, warnings)
	requireSameDB(t, db, got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minidb.db")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	db := newTestDB(t)
	require.NoError(t, SaveFile(path, db))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Encode(db), string(raw))
}

func TestSaveFile_ErrorIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := SaveFile(filepath.Join(blocker, "minidb.db"), newTestDB(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageIO)
}

func TestLoadFile_MissingFileIsEmpty(t *testing.T) {
	db, warnings := LoadFile(filepath.Join(t.TempDir(), "nope.db"))
	require.NotNil(t, db)
	assert.Zero(t, db.NumTables())
	assert.Empty(t, warnings)
}

func TestLoadFile_UnreadableIsEmpty(t *testing.T) {
	// A directory cannot be read as a file.
	db, warnings := LoadFile(t.TempDir())
	require.NotNil(t, db)
	assert.Zero(t, db.NumTables())
	assert.Empty(t, warnings)
}
