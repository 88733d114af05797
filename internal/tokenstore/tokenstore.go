// Package tokenstore holds the session credentials. It is pure storage:
// no network calls, no token parsing, no expiry policy.
package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Well-known credential names.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// Store is a durable key/value holder for bearer tokens. Implementations
// must be safe for concurrent use. Writes never fail from the caller's
// perspective; an implementation that loses durability keeps serving from
// memory and reports it via Degraded.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Clear(name string)
	ClearAll()

	// Degraded reports that values are held in memory only and will not
	// survive a restart. Callers must not assume durability either way.
	Degraded() bool
}

// Syncer is implemented by stores whose backing medium can be mutated by
// another process (another "tab"). Sync reloads from the medium and reports
// whether any value changed.
type Syncer interface {
	Sync() bool
}

// ------------------------------
// File-backed store
// ------------------------------

// FileStore persists tokens as a single JSON object in dir. If the directory
// or file is unusable it degrades to in-memory for the process lifetime.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu       sync.RWMutex
	values   map[string]string
	modTime  time.Time
	degraded bool
}

const fileName = "tokens.json"

// NewFileStore opens (or creates) the token file under dir.
func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	s := &FileStore{
		path:   filepath.Join(dir, fileName),
		log:    log,
		values: map[string]string{},
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.degraded = true
		log.Warn().Err(err).Str("dir", dir).Msg("token storage unavailable, keeping tokens in memory")
		return s
	}
	s.load()
	return s
}

func (s *FileStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok && v != ""
}

func (s *FileStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	s.persist()
}

func (s *FileStore) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	s.persist()
}

func (s *FileStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	s.persist()
}

func (s *FileStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Sync reloads the file when another process has rewritten it. Returns true
// when the in-memory view changed. A file that disappeared entirely is
// treated as a cleared store: ambiguous state fails closed.
func (s *FileStore) Sync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return false
	}
	fi, err := os.Stat(s.path)
	if err != nil {
		if len(s.values) == 0 {
			return false
		}
		s.values = map[string]string{}
		return true
	}
	if fi.ModTime().Equal(s.modTime) {
		return false
	}
	before := s.snapshotLocked()
	s.load()
	after := s.snapshotLocked()
	if len(before) != len(after) {
		return true
	}
	for k, v := range before {
		if after[k] != v {
			return true
		}
	}
	return false
}

func (s *FileStore) snapshotLocked() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// load reads the file into memory; malformed content is discarded rather
// than trusted.
func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Msg("reading token file failed")
		}
		s.values = map[string]string{}
		return
	}
	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		s.log.Warn().Err(err).Msg("token file malformed, discarding")
		s.values = map[string]string{}
		return
	}
	s.values = values
	if fi, err := os.Stat(s.path); err == nil {
		s.modTime = fi.ModTime()
	}
}

// persist writes the current values; the first failure flips the store into
// degraded mode so later writes stop touching the disk.
func (s *FileStore) persist() {
	if s.degraded {
		return
	}
	raw, err := json.Marshal(s.values)
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		s.degraded = true
		s.log.Warn().Err(err).Msg("token storage unavailable, keeping tokens in memory")
		return
	}
	if fi, err := os.Stat(s.path); err == nil {
		s.modTime = fi.ModTime()
	}
}

// ------------------------------
// In-memory store
// ------------------------------

// MemStore is a volatile Store for tests and private-mode sessions.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: map[string]string{}}
}

func (s *MemStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok && v != ""
}

func (s *MemStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

func (s *MemStore) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

func (s *MemStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
}

func (s *MemStore) Degraded() bool { return true }
