package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"igprofiles/pkg/logger"
	"igprofiles/pkg/models"
)

func newTestPersistence(t *testing.T, ttl time.Duration) *Persistence {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instagram_cache.json")
	return NewPersistence(path, ttl, logger.NewTestLogger())
}

func sampleSnapshot(lastUpdate time.Time) models.Snapshot {
	return models.Snapshot{
		Profiles: []models.ProfileRecord{
			{Username: "nasa", FullName: "NASA", Followers: 96000000, IsVerified: true},
			{Username: "spotify", Followers: 4800000},
		},
		LastUpdate: lastUpdate,
		FetchCount: 3,
		Errors:     []models.FetchError{{Username: "ghostaccount", Error: "profile does not exist"}},
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	p := newTestPersistence(t, 30*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.Save(sampleSnapshot(now.Add(-10 * time.Minute)))

	loaded, ok := p.Load()
	if !ok {
		t.Fatal("Expected a fresh snapshot to load")
	}
	if len(loaded.Profiles) != 2 {
		t.Errorf("Expected 2 profiles, got %d", len(loaded.Profiles))
	}
	if loaded.FetchCount != 3 {
		t.Errorf("Expected fetch count 3, got %d", loaded.FetchCount)
	}
	if loaded.Profiles[0].Username != "nasa" {
		t.Errorf("Expected first profile nasa, got %s", loaded.Profiles[0].Username)
	}
}

func TestPersistenceFreshnessWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		age        time.Duration
		expectLoad bool
	}{
		{"just written", 0, true},
		{"29 minutes old", 29 * time.Minute, true},
		{"exactly at the window", 30 * time.Minute, false},
		{"31 minutes old", 31 * time.Minute, false},
		{"hours old", 5 * time.Hour, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := newTestPersistence(t, 30*time.Minute)
			p.now = func() time.Time { return now }

			p.Save(sampleSnapshot(now.Add(-test.age)))

			_, ok := p.Load()
			if ok != test.expectLoad {
				t.Errorf("Load() usable = %v, want %v for age %v", ok, test.expectLoad, test.age)
			}
		})
	}
}

func TestPersistenceMissingFile(t *testing.T) {
	p := newTestPersistence(t, 30*time.Minute)

	if _, ok := p.Load(); ok {
		t.Error("Expected no snapshot from a missing file")
	}
}

func TestPersistenceCorruptFile(t *testing.T) {
	p := newTestPersistence(t, 30*time.Minute)
	if err := os.WriteFile(p.path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := p.Load(); ok {
		t.Error("Expected a corrupt file to be treated as no snapshot")
	}
}

func TestPersistenceZeroLastUpdate(t *testing.T) {
	p := newTestPersistence(t, 30*time.Minute)
	p.Save(models.Snapshot{Profiles: []models.ProfileRecord{{Username: "nasa"}}})

	if _, ok := p.Load(); ok {
		t.Error("Expected a snapshot without a run timestamp to be unusable")
	}
}

func TestPersistenceSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cache", "instagram_cache.json")
	p := NewPersistence(path, 30*time.Minute, logger.NewTestLogger())

	p.Save(sampleSnapshot(time.Now()))

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected snapshot file to exist: %v", err)
	}
}

func TestPersistenceFileFormat(t *testing.T) {
	p := newTestPersistence(t, 30*time.Minute)
	p.Save(sampleSnapshot(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	data, err := os.ReadFile(p.path)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Snapshot file is not valid JSON: %v", err)
	}

	for _, field := range []string{"profiles", "last_update", "fetch_count", "errors"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("Expected top-level field %q in snapshot file", field)
		}
	}

	// No leftover temp file from the atomic write
	entries, err := os.ReadDir(filepath.Dir(p.path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the snapshot file in the directory, found %d entries", len(entries))
	}
}
