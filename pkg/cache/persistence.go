package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"igprofiles/pkg/logger"
	"igprofiles/pkg/models"
)

// Persistence mirrors the cache snapshot to a JSON file with a freshness
// window on load. Disk problems never propagate: a bad load is a cache
// miss, a failed save is logged and the in-memory state stays valid.
type Persistence struct {
	path   string
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewPersistence creates a persistence layer for the given snapshot file
func NewPersistence(path string, ttl time.Duration, log logger.Logger) *Persistence {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Persistence{
		path:   path,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// Load reads the on-disk snapshot. It returns (snapshot, true) only when the
// file exists, parses, and its last-update timestamp is within the freshness
// window; every other outcome is reported as a miss so the caller refreshes.
func (p *Persistence) Load() (*models.Snapshot, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.WarnWithFields("failed to read cache file", map[string]interface{}{
				"path":  p.path,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		p.logger.WarnWithFields("failed to parse cache file", map[string]interface{}{
			"path":  p.path,
			"error": err.Error(),
		})
		return nil, false
	}

	if snap.LastUpdate.IsZero() {
		return nil, false
	}

	age := p.now().Sub(snap.LastUpdate)
	if age >= p.ttl {
		p.logger.InfoWithFields("cache expired, will fetch fresh data", map[string]interface{}{
			"path":        p.path,
			"age_minutes": int(age.Minutes()),
		})
		return nil, false
	}

	p.logger.InfoWithFields("loaded profiles from cache", map[string]interface{}{
		"path":     p.path,
		"profiles": len(snap.Profiles),
	})

	return &snap, true
}

// Save serializes the snapshot to disk, overwriting any prior one. The
// write goes through a temp file and rename so a crash mid-write leaves the
// previous snapshot intact. Errors are logged, never returned: the refresh
// job must not fail because the disk did.
func (p *Persistence) Save(snap models.Snapshot) {
	if err := p.save(snap); err != nil {
		p.logger.ErrorWithFields("failed to save cache", map[string]interface{}{
			"path":  p.path,
			"error": err.Error(),
		})
		return
	}

	p.logger.Debug("cache saved to file")
}

func (p *Persistence) save(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	tempPath := p.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary cache file: %w", err)
	}

	if err := os.Rename(tempPath, p.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary cache file: %w", err)
	}

	return nil
}
