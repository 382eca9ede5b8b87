package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestKey(t *testing.T) {
	assert.Equal(t, "A|B|transit||", Key("A", "B", models.ModeTransit, "", ""))
	assert.Equal(t, "A|B|transit|08:30|", Key(" A ", "B", models.ModeTransit, "08:30", ""))
	assert.NotEqual(t,
		Key("A", "B", models.ModeTransit, "08:30", ""),
		Key("A", "B", models.ModeTransit, "", "08:30"),
	)
}

func TestCommuteCache_TTL(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCommuteCache("", DefaultTTL, testLogger())
	c.now = func() time.Time { return now }

	key := Key("A", "B", models.ModeTransit, "", "")

	// Scenario C: written 31 days ago
	c.entries[key] = Entry{Minutes: 40, UpdatedAt: now.Add(-31 * 24 * time.Hour)}
	_, ok := c.Get(key)
	assert.False(t, ok, "entry older than 30 days must not be served")
	assert.Equal(t, 1, c.Len(), "expired entries are not evicted")

	c.entries[key] = Entry{Minutes: 40, UpdatedAt: now.Add(-30 * 24 * time.Hour)}
	_, ok = c.Get(key)
	assert.False(t, ok, "exactly 30 days is expired")

	c.entries[key] = Entry{Minutes: 40, UpdatedAt: now.Add(-29 * 24 * time.Hour)}
	minutes, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, 40, minutes)
}

func TestCommuteCache_Miss(t *testing.T) {
	c := NewCommuteCache("", 0, testLogger())
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestCommuteCache_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "commutes.json")

	c := NewCommuteCache(path, DefaultTTL, testLogger())
	c.Set(Key("A", "B", models.ModeTransit, "", ""), 33)

	reloaded := NewCommuteCache(path, DefaultTTL, testLogger())
	minutes, ok := reloaded.Get(Key("A", "B", models.ModeTransit, "", ""))
	require.True(t, ok)
	assert.Equal(t, 33, minutes)
}

func TestCommuteCache_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commutes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	c := NewCommuteCache(path, DefaultTTL, testLogger())
	assert.Equal(t, 0, c.Len())

	c.Set("k", 5)
	minutes, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 5, minutes)
}

func TestCommuteCache_WriteFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// parent of the cache path is a regular file, so every save fails
	c := NewCommuteCache(filepath.Join(blocker, "commutes.json"), DefaultTTL, testLogger())
	assert.NotPanics(t, func() { c.Set("k", 12) })

	minutes, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 12, minutes)
}
