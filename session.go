package minidb

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tuannm99/minidb/internal"
	"github.com/tuannm99/minidb/internal/engine"
	"github.com/tuannm99/minidb/internal/snapshot"
	"github.com/tuannm99/minidb/internal/sql/executor"
	"github.com/tuannm99/minidb/internal/storage"
)

var (
	ErrSessionClosed = errors.New("minidb: session closed")
	ErrNoHistory     = errors.New("minidb: snapshot history disabled")
)

// Options configure a Session directly, without a config file.
type Options struct {
	// DataFile is loaded on open and written by Save. Empty keeps the
	// session in memory only.
	DataFile     string
	AtomicUpdate bool
	History      *snapshot.History
}

// Session owns one database and its data file. All methods serialise on
// one lock, so a Session can be shared by many connections.
type Session struct {
	mu       sync.Mutex
	db       *engine.Database
	exec     *executor.Executor
	dataFile string
	history  *snapshot.History
	warnings []storage.LoadWarning
	closed   bool
}

// Open builds a session from cfg: it loads storage.data_file and opens the
// snapshot history when storage.history.enabled is set.
func Open(cfg *internal.Config) (*Session, error) {
	opts := Options{
		DataFile:     cfg.Storage.DataFile,
		AtomicUpdate: cfg.Engine.AtomicUpdate,
	}

	if h := cfg.Storage.History; h.Enabled {
		hist, err := snapshot.OpenHistory(h.Dir, snapshot.Identity{Name: h.Author, Email: h.Email})
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		opts.History = hist
	}

	return OpenWith(opts), nil
}

// OpenWith builds a session from explicit options.
func OpenWith(opts Options) *Session {
	db := engine.NewDatabase()
	var warnings []storage.LoadWarning
	if opts.DataFile != "" {
		db, warnings = storage.LoadFile(opts.DataFile)
	}

	s := &Session{
		db:       db,
		dataFile: opts.DataFile,
		history:  opts.History,
		warnings: warnings,
	}
	s.exec = executor.NewExecutor(db, executor.WithAtomicUpdate(opts.AtomicUpdate))
	return s
}

// Exec runs one statement.
func (s *Session) Exec(sql string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec.ExecSQL(sql)
}

// ExecScript runs every statement of script in order.
func (s *Session) ExecScript(script string) []*Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec.ExecScript(script)
}

func (s *Session) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ListTables()
}

// LoadWarnings returns what could not be restored from the data file.
func (s *Session) LoadWarnings() []LoadWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warnings
}

func (s *Session) DataFile() string { return s.dataFile }

// Save writes the data file and, with history enabled, commits a snapshot.
// A session without a data file has nothing to save.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if s.dataFile == "" {
		return nil
	}

	content := storage.Encode(s.db)
	if err := storage.WriteFileAtomic(s.dataFile, []byte(content)); err != nil {
		slog.Error("session: save failed", "path", s.dataFile, "err", err)
		return fmt.Errorf("save %s: %w", s.dataFile, err)
	}
	slog.Debug("session: saved", "path", s.dataFile, "tables", s.db.NumTables())

	if s.history == nil {
		return nil
	}
	entry, changed, err := s.history.Commit([]byte(content))
	if err != nil {
		slog.Error("session: snapshot failed", "err", err)
		return fmt.Errorf("snapshot: %w", err)
	}
	if changed {
		slog.Info("session: snapshot committed", "commit", entry.ShortHash())
	}
	return nil
}

// History lists up to n snapshots, newest first.
func (s *Session) History(n int) ([]snapshot.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.Log(n)
}

// Restore replaces the in-memory tables with the snapshot at hash, a full
// commit hash or a unique prefix of one. The data file is not touched until
// the next Save.
func (s *Session) Restore(hash string) ([]LoadWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.history == nil {
		return nil, ErrNoHistory
	}
	content, err := s.history.Restore(hash)
	if err != nil {
		return nil, err
	}

	restored, warnings := storage.Decode(string(content))
	s.db.Replace(restored)
	return warnings, nil
}

// Close saves the database. Further saves fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.saveLocked()
}
