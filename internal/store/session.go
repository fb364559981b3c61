// Package store persists per-user sessions as JSON files with an LRU
// read cache in front.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"vidcourier/internal/core"
)

// FileStore keeps one JSON file per user under a session directory. Saves
// write through the cache and go to disk atomically via a rename, so a crash
// mid-write never corrupts an existing record.
type FileStore struct {
	dir   string
	cache *lru.Cache[string, *core.Session]
	mutex sync.Mutex
}

// NewFileStore creates the session directory if needed.
func NewFileStore(dir string, cacheSize int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	cache, err := lru.New[string, *core.Session](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	return &FileStore{dir: dir, cache: cache}, nil
}

// Load returns the user's session, or (nil, nil) when none is persisted.
// Records written by older releases are normalized on the way in. Every call
// returns a private deep copy; the cached object is never handed out, so
// concurrent readers and a writer holding the chat lock cannot alias state.
func (fs *FileStore) Load(userID string) (*core.Session, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if session, ok := fs.cache.Get(userID); ok {
		return session.Clone(), nil
	}

	data, err := os.ReadFile(fs.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session %s: %w", userID, err)
	}

	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", userID, err)
	}
	session.Normalize()

	fs.cache.Add(userID, &session)
	return session.Clone(), nil
}

// Save persists the session and refreshes the cache entry.
func (fs *FileStore) Save(userID string, session *core.Session) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", userID, err)
	}

	path := fs.path(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", userID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit session %s: %w", userID, err)
	}

	fs.cache.Add(userID, session.Clone())
	return nil
}

// UserIDs lists every user with a persisted session file.
func (fs *FileStore) UserIDs() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("list session dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (fs *FileStore) path(userID string) string {
	return filepath.Join(fs.dir, userID+".json")
}
