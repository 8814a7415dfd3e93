package session

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"storefront-client/pkg/logger"

	"github.com/goccy/go-json"
)

type fileEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// origin -> key -> entry
type fileLayout map[string]map[string]fileEntry

// FileStore persists tokens in a JSON file, scoped to the backend origin the
// way browser cookies are. Every write is mirrored into the fallback store;
// after the first IO failure the store serves from the fallback only.
type FileStore struct {
	mu       sync.Mutex
	path     string
	origin   string
	fallback *MemoryStore
	degraded bool
	nowFunc  func() time.Time
}

// NewFileStore builds a store for backendURL's origin. It never fails: an
// unusable path simply means the session lives in memory.
func NewFileStore(path, backendURL string, fallback *MemoryStore) *FileStore {
	return &FileStore{
		path:     path,
		origin:   originOf(backendURL),
		fallback: fallback,
		degraded: path == "",
		nowFunc:  time.Now,
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

// Degraded reports whether the store has fallen back to memory.
func (s *FileStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return s.fallback.Get(key)
	}
	layout, err := s.load()
	if err != nil {
		s.degrade(err)
		return s.fallback.Get(key)
	}
	entry, ok := layout[s.origin][key]
	if !ok || entry.Value == "" {
		return "", false
	}
	if !entry.ExpiresAt.IsZero() && s.nowFunc().After(entry.ExpiresAt) {
		return "", false
	}
	return entry.Value, true
}

func (s *FileStore) Set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fallback.Set(key, value, ttl)
	if s.degraded {
		return
	}
	s.mutate(func(scope map[string]fileEntry) {
		entry := fileEntry{Value: value}
		if ttl > 0 {
			entry.ExpiresAt = s.nowFunc().Add(ttl)
		}
		scope[key] = entry
	})
}

func (s *FileStore) Clear(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fallback.Clear(keys...)
	if s.degraded {
		return
	}
	s.mutate(func(scope map[string]fileEntry) {
		for _, k := range keys {
			delete(scope, k)
		}
	})
}

// mutate runs a read-modify-write on this origin's scope. Caller holds mu.
func (s *FileStore) mutate(fn func(scope map[string]fileEntry)) {
	layout, err := s.load()
	if err != nil {
		s.degrade(err)
		return
	}
	scope := layout[s.origin]
	if scope == nil {
		scope = map[string]fileEntry{}
		layout[s.origin] = scope
	}
	fn(scope)

	now := s.nowFunc()
	for k, e := range scope {
		if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
			delete(scope, k)
		}
	}
	if err := s.save(layout); err != nil {
		s.degrade(err)
	}
}

func (s *FileStore) load() (fileLayout, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileLayout{}, nil
	}
	if err != nil {
		return nil, err
	}
	layout := fileLayout{}
	if len(data) == 0 {
		return layout, nil
	}
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// save writes to a temp file and renames it so readers never see a torn file.
func (s *FileStore) save(layout fileLayout) error {
	data, err := json.Marshal(layout)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) degrade(err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	logger.Warn().Err(err).Str("path", s.path).Msg("Session file unusable, keeping session in memory")
}
