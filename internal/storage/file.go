package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tuannm99/minidb/internal/engine"
)

// LoadFile reads and decodes the data file at path. A missing or unreadable
// file yields an empty database; that case is logged, not returned.
func LoadFile(path string) (*engine.Database, []LoadWarning) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("storage: no data file, starting empty", "path", path)
		} else {
			slog.Warn("storage: cannot read data file, starting empty", "path", path, "err", err)
		}
		return engine.NewDatabase(), nil
	}

	db, warnings := Decode(string(data))
	for _, w := range warnings {
		slog.Warn("storage: load", "path", path, "warning", w.String())
	}
	slog.Debug("storage: loaded", "path", path, "tables", db.NumTables())
	return db, warnings
}

// SaveFile writes the encoded database to path. The content goes to a
// temporary file in the same directory which then replaces path, so readers
// never see a half-written file.
func SaveFile(path string, db *engine.Database) error {
	return WriteFileAtomic(path, []byte(Encode(db)))
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, FileMode0755); err != nil {
		return fmt.Errorf("%w: create dir: %w", ErrStorageIO, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorageIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrStorageIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrStorageIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorageIO, tmpName, err)
	}
	if err := os.Chmod(tmpName, FileMode0644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrStorageIO, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename into %s: %w", ErrStorageIO, path, err)
	}
	return nil
}
