// Package localstore persists the anonymous user's saved properties on the
// local machine. It is the fallback medium while no user is signed in and
// the staging area for migration after login.
package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/glodinasflexwork/sessionkit/internal/types"
)

const (
	fileName = "saved_properties.json"

	// envelopeVersion guards against future layout changes; unknown
	// versions are discarded on read.
	envelopeVersion = 1
)

// envelope is the at-rest layout. Items are validated on read and malformed
// entries dropped rather than trusted.
type envelope struct {
	Version     int               `json:"version"`
	Items       []types.SavedItem `json:"items"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// Store keeps an ordered saved-item collection in a single JSON file.
// Operations never fail; if the file is unusable the store degrades to
// memory for the process lifetime.
type Store struct {
	path string
	log  zerolog.Logger

	mu       sync.RWMutex
	items    []types.SavedItem
	degraded bool
}

// New opens (or creates) the saved-properties file under dir.
func New(dir string, log zerolog.Logger) *Store {
	s := &Store{path: filepath.Join(dir, fileName), log: log}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.degraded = true
		log.Warn().Err(err).Str("dir", dir).Msg("local saved-properties storage unavailable, using memory")
		return s
	}
	s.items = s.load()
	return s
}

// List returns the collection in insertion order.
func (s *Store) List() []types.SavedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SavedItem, len(s.items))
	copy(out, s.items)
	return out
}

// Upsert inserts item or, if its itemId is already present, replaces the
// existing entry in place so insertion order is preserved.
func (s *Store) Upsert(item types.SavedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ItemID == item.ItemID {
			s.items[i] = item
			s.persist()
			return
		}
	}
	s.items = append(s.items, item)
	s.persist()
}

// Remove deletes the entry for itemID if present. Idempotent.
func (s *Store) Remove(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ItemID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist()
			return
		}
	}
}

// Clear empties the collection. Used after a fully successful migration.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist()
}

// Count returns the number of stored items.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Degraded reports that items are held in memory only.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func (s *Store) load() []types.SavedItem {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Msg("reading saved-properties file failed")
		}
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn().Err(err).Msg("saved-properties file malformed, discarding")
		return nil
	}
	if env.Version != envelopeVersion {
		s.log.Warn().Int("version", env.Version).Msg("saved-properties file has unknown version, discarding")
		return nil
	}
	items := env.Items[:0]
	for _, it := range env.Items {
		if it.Valid() {
			items = append(items, it)
		}
	}
	return items
}

func (s *Store) persist() {
	if s.degraded {
		return
	}
	env := envelope{Version: envelopeVersion, Items: s.items, LastUpdated: time.Now().UTC()}
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		s.degraded = true
		s.log.Warn().Err(err).Msg("local saved-properties storage unavailable, using memory")
	}
}
