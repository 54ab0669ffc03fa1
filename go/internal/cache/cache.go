package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/models"
)

// Bucket names for the per-device durable cache. Entries are read once
// at startup to pre-populate the UI and overwritten wholesale by the
// first successful snapshot apply. They carry no version stamps and are
// never diffed against server data.
const (
	BucketAppState = "app-state"
	BucketTeams    = "teams"
	BucketUsername = "username"
)

// Cache is a best-effort file-backed JSON bucket store. Every failure
// mode (missing file, corrupt JSON, full disk) is logged and swallowed:
// Load falls back to the caller's default and Save silently gives up.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir, creating the directory if needed
func New(dir string) *Cache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("cache directory unavailable, persistence disabled")
	}
	return &Cache{dir: dir}
}

// Load reads a bucket into out and reports whether it succeeded. On any
// failure out is left untouched so the caller's default survives.
func (c *Cache) Load(bucket string, out any) bool {
	data, err := os.ReadFile(c.path(bucket))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("bucket", bucket).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("cache entry corrupt, ignoring")
		return false
	}
	return true
}

// Save writes a bucket atomically via temp file and rename
func (c *Cache) Save(bucket string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("cache serialization failed")
		return
	}
	tmp := c.path(bucket) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("cache write failed")
		return
	}
	if err := os.Rename(tmp, c.path(bucket)); err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("cache rename failed")
	}
}

func (c *Cache) path(bucket string) string {
	return filepath.Join(c.dir, bucket+".json")
}

// LoadAppState returns the cached app state or the default
func (c *Cache) LoadAppState() models.AppState {
	state := models.DefaultAppState()
	c.Load(BucketAppState, &state)
	return state
}

// LoadTeams returns the cached team list or nil
func (c *Cache) LoadTeams() []models.Team {
	var teams []models.Team
	c.Load(BucketTeams, &teams)
	return teams
}

// LoadUsername returns the cached username or empty
func (c *Cache) LoadUsername() string {
	var name string
	c.Load(BucketUsername, &name)
	return name
}

// SaveSnapshot overwrites the cache buckets after a successful
// snapshot apply
func (c *Cache) SaveSnapshot(teams []models.Team, state models.AppState) {
	c.Save(BucketTeams, teams)
	c.Save(BucketAppState, state)
}

// SaveUsername persists the client-owned username
func (c *Cache) SaveUsername(name string) {
	c.Save(BucketUsername, name)
}
