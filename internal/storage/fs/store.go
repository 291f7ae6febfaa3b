package fs

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one result of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Store is a blob store over a directory tree, keyed by slash-separated
// logical paths. All operations fail soft: errors are logged and reported
// as nil/false so callers decide the fallback.
type Store struct {
	root   string
	locker *Locker
}

func NewStore(root string) *Store {
	return &Store{root: root, locker: NewLocker()}
}

func (s *Store) Root() string {
	return s.root
}

// Load returns the blob stored under key, or nil if it does not exist or
// cannot be read.
func (s *Store) Load(key string) []byte {
	full, err := s.keyPath(key)
	if err != nil {
		slog.Warn("store load: bad key", "key", key, "err", err)
		return nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("store load", "key", key, "err", err)
		}
		return nil
	}
	return data
}

// Save writes the blob under key, creating parent directories as needed.
// Reports success; never panics past this boundary.
func (s *Store) Save(key string, data []byte) bool {
	full, err := s.keyPath(key)
	if err != nil {
		slog.Warn("store save: bad key", "key", key, "err", err)
		return false
	}
	unlock := s.locker.Lock(key)
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		slog.Error("store save: mkdir", "key", key, "err", err)
		return false
	}
	if err := WriteFileAtomic(full, data, 0o644); err != nil {
		slog.Error("store save", "key", key, "err", err)
		return false
	}
	return true
}

// Remove deletes the blob under key. Best effort: a missing blob is not an
// error and failures are only logged.
func (s *Store) Remove(key string) {
	full, err := s.keyPath(key)
	if err != nil {
		slog.Warn("store remove: bad key", "key", key, "err", err)
		return
	}
	unlock := s.locker.Lock(key)
	defer unlock()

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		slog.Warn("store remove", "key", key, "err", err)
	}
}

// Exists reports whether a blob is stored under key.
func (s *Store) Exists(key string) bool {
	full, err := s.keyPath(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// ReadDir lists the directory under key. Returns nil when the listing is
// unavailable; callers must treat that as "no directory semantics" and fall
// back to probing.
func (s *Store) ReadDir(key string) []Entry {
	full, err := s.keyPath(key)
	if err != nil {
		slog.Warn("store readdir: bad key", "key", key, "err", err)
		return nil
	}
	dirents, err := os.ReadDir(full)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("store readdir", "key", key, "err", err)
		}
		return nil
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, Entry{Name: d.Name(), IsDir: d.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// EnsureDir materializes the directory for key by writing and removing a
// probe blob, mirroring stores that only expose save/remove.
func (s *Store) EnsureDir(key string) {
	probe := key + "/.keep"
	if s.Save(probe, nil) {
		s.Remove(probe)
	}
}

func (s *Store) keyPath(key string) (string, error) {
	clean, err := NormalizeKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || filepath.IsAbs(rel) {
		return "", ErrUnsafeKey
	}
	return full, nil
}
