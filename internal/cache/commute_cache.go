// Package cache keeps recently fetched commute times on local disk so the
// routing proxy can answer repeated questions without calling the provider.
// It is an independent shortcut next to the authoritative commute store and
// may be stale relative to it.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// DefaultTTL is how long a cached commute time may be served.
const DefaultTTL = 30 * 24 * time.Hour

// Entry is one cached commute time.
type Entry struct {
	Minutes   int       `json:"minutes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommuteCache maps a routing question to its last answer.
type CommuteCache struct {
	logger    *logrus.Logger
	path      string
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]Entry
	cacheLock sync.RWMutex
}

// Key joins the parts of a routing question into one cache key. Empty
// arrive-by or depart-at values are kept as empty segments so that the
// position of every field is fixed.
func Key(origin, destination string, mode models.TravelMode, arriveBy, departAt string) string {
	return strings.Join([]string{
		strings.TrimSpace(origin),
		strings.TrimSpace(destination),
		string(mode),
		strings.TrimSpace(arriveBy),
		strings.TrimSpace(departAt),
	}, "|")
}

// NewCommuteCache loads the cache stored at path. A missing or corrupt file
// results in an empty cache.
func NewCommuteCache(path string, ttl time.Duration, logger *logrus.Logger) *CommuteCache {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &CommuteCache{
		logger:  logger,
		path:    path,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	c.load()
	return c
}

func (c *CommuteCache) load() {
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).Warn("Could not load commute cache")
		}
		return
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.WithError(err).Warn("Commute cache is corrupt, starting empty")
		return
	}
	if entries != nil {
		c.entries = entries
	}
	c.logger.Infof("Loaded %d cached commutes", len(c.entries))
}

// Get returns the cached minutes for key when the entry is younger than the
// TTL. Expired entries are ignored, not evicted.
func (c *CommuteCache) Get(key string) (int, bool) {
	c.cacheLock.RLock()
	entry, ok := c.entries[key]
	c.cacheLock.RUnlock()
	if !ok {
		return 0, false
	}
	if c.now().Sub(entry.UpdatedAt) >= c.ttl {
		return 0, false
	}
	return entry.Minutes, true
}

// Set stores minutes for key and persists the cache. Persisting is best
// effort: a failed write is logged and otherwise ignored.
func (c *CommuteCache) Set(key string, minutes int) {
	c.cacheLock.Lock()
	c.entries[key] = Entry{Minutes: minutes, UpdatedAt: c.now()}
	c.cacheLock.Unlock()

	c.save()
}

// Len returns the number of stored entries, expired ones included.
func (c *CommuteCache) Len() int {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	return len(c.entries)
}

func (c *CommuteCache) save() {
	if c.path == "" {
		return
	}

	c.cacheLock.RLock()
	data, err := json.Marshal(c.entries)
	c.cacheLock.RUnlock()
	if err != nil {
		c.logger.WithError(err).Debug("Failed to marshal commute cache")
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		c.logger.WithError(err).Debug("Failed to create commute cache directory")
		return
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		c.logger.WithError(err).Debug("Failed to save commute cache")
	}
}
