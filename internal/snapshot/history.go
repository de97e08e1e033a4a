// Package snapshot keeps a git history of the persisted data file.
//
// Every successful save can be committed into a small repository whose
// worktree holds a single file. Unchanged content does not produce a
// commit. Earlier versions can be listed and read back.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

// FileName is the path of the data file inside the history worktree.
const FileName = "minidb.db"

var (
	ErrNotInitialized = errors.New("snapshot: history not initialized")
	ErrCommitNotFound = errors.New("snapshot: commit not found")
	ErrAmbiguousHash  = errors.New("snapshot: ambiguous commit prefix")
)

// MinPrefixLen is the shortest hash prefix Restore accepts.
const MinPrefixLen = 4

var errStopIter = errors.New("stop")

// Identity signs snapshot commits.
type Identity struct {
	Name  string
	Email string
}

// Entry is one commit of the history, newest first in Log.
type Entry struct {
	Hash    string
	Message string
	Author  string
	When    time.Time
}

func (e Entry) ShortHash() string {
	if len(e.Hash) > 8 {
		return e.Hash[:8]
	}
	return e.Hash
}

type History struct {
	mu       sync.Mutex
	repo     *git.Repository
	identity Identity
	now      func() time.Time
}

// NewMemoryHistory keeps the repository in memory only.
func NewMemoryHistory(id Identity) (*History, error) {
	repo, err := git.Init(memory.NewStorage(), git.WithWorkTree(memfs.New()))
	if err != nil {
		return nil, fmt.Errorf("snapshot: init memory repo: %w", err)
	}
	return newHistory(repo, id), nil
}

// OpenHistory opens the repository under dir, creating it on first use.
func OpenHistory(dir string, id Identity) (*History, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	wt := osfs.New(dir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, fmt.Errorf("snapshot: chroot: %w", err)
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: open repo %s: %w", dir, err)
	}
	return newHistory(repo, id), nil
}

func newHistory(repo *git.Repository, id Identity) *History {
	if id.Name == "" {
		id.Name = "minidb"
	}
	if id.Email == "" {
		id.Email = "minidb@localhost"
	}
	return &History{repo: repo, identity: id, now: time.Now}
}

func (h *History) ensureInitialized() error {
	if h == nil || h.repo == nil {
		return ErrNotInitialized
	}
	return nil
}

// Commit records content as the new version of the data file. It returns
// changed=false, and the current head, when content equals the last
// committed version.
func (h *History) Commit(content []byte) (entry Entry, changed bool, err error) {
	if err := h.ensureInitialized(); err != nil {
		return Entry{}, false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if head, ok := h.headCommit(); ok {
		if prev, err := fileAt(head); err == nil && prev == string(content) {
			return toEntry(head), false, nil
		}
	}

	wt, err := h.repo.Worktree()
	if err != nil {
		return Entry{}, false, fmt.Errorf("snapshot: worktree: %w", err)
	}
	if err := util.WriteFile(wt.Filesystem, FileName, content, 0o644); err != nil {
		return Entry{}, false, fmt.Errorf("snapshot: write %s: %w", FileName, err)
	}
	if _, err := wt.Add(FileName); err != nil {
		return Entry{}, false, fmt.Errorf("snapshot: add %s: %w", FileName, err)
	}

	when := h.now()
	hash, err := wt.Commit("snapshot "+when.UTC().Format(time.RFC3339), &git.CommitOptions{
		Author: &object.Signature{
			Name:  h.identity.Name,
			Email: h.identity.Email,
			When:  when,
		},
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("snapshot: commit: %w", err)
	}

	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return Entry{}, false, fmt.Errorf("snapshot: read back commit: %w", err)
	}
	return toEntry(commit), true, nil
}

// Log returns up to n commits, newest first. n <= 0 returns all of them.
// An empty history has no entries.
func (h *History) Log(n int) ([]Entry, error) {
	if err := h.ensureInitialized(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	head, ok := h.headCommit()
	if !ok {
		return nil, nil
	}

	cIter, err := h.repo.Log(&git.LogOptions{From: head.Hash})
	if err != nil {
		return nil, fmt.Errorf("snapshot: log: %w", err)
	}
	defer cIter.Close()

	var out []Entry
	err = cIter.ForEach(func(c *object.Commit) error {
		if n > 0 && len(out) >= n {
			return errStopIter
		}
		out = append(out, toEntry(c))
		return nil
	})
	if err != nil && !errors.Is(err, errStopIter) {
		return nil, fmt.Errorf("snapshot: log: %w", err)
	}
	return out, nil
}

// Restore returns the data file content recorded by a commit. hash may be
// the full hash or a unique prefix of at least MinPrefixLen hex digits,
// such as Entry.ShortHash.
func (h *History) Restore(hash string) ([]byte, error) {
	if err := h.ensureInitialized(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	commit, err := h.resolve(hash)
	if err != nil {
		return nil, err
	}
	content, err := fileAt(commit)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s at %s: %w", FileName, hash, err)
	}
	return []byte(content), nil
}

func (h *History) resolve(hash string) (*object.Commit, error) {
	prefix := strings.ToLower(strings.TrimSpace(hash))
	if len(prefix) < MinPrefixLen || !isHex(prefix) {
		return nil, fmt.Errorf("%w: %q is not a hash or a prefix of %d+ hex digits", ErrCommitNotFound, hash, MinPrefixLen)
	}

	if len(prefix) == len(plumbing.ZeroHash.String()) {
		commit, err := h.repo.CommitObject(plumbing.NewHash(prefix))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCommitNotFound, hash, err)
		}
		return commit, nil
	}

	head, ok := h.headCommit()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}
	cIter, err := h.repo.Log(&git.LogOptions{From: head.Hash})
	if err != nil {
		return nil, fmt.Errorf("snapshot: log: %w", err)
	}
	defer cIter.Close()

	var found *object.Commit
	err = cIter.ForEach(func(c *object.Commit) error {
		if !strings.HasPrefix(c.Hash.String(), prefix) {
			return nil
		}
		if found != nil {
			return fmt.Errorf("%w: %s", ErrAmbiguousHash, hash)
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}
	return found, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

func (h *History) headCommit() (*object.Commit, bool) {
	headRef, err := h.repo.Head()
	if err != nil {
		// no commits yet
		return nil, false
	}
	commit, err := h.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, false
	}
	return commit, true
}

func fileAt(commit *object.Commit) (string, error) {
	tree, err := commit.Tree()
	if err != nil {
		return "", err
	}
	file, err := tree.File(FileName)
	if err != nil {
		return "", err
	}
	return file.Contents()
}

func toEntry(c *object.Commit) Entry {
	return Entry{
		Hash:    c.Hash.String(),
		Message: c.Message,
		Author:  c.Author.Name,
		When:    c.Author.When,
	}
}
