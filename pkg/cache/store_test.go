package cache

import (
	"testing"
	"time"

	"igprofiles/pkg/models"
)

func TestStoreReplace(t *testing.T) {
	store := NewStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	records := []models.ProfileRecord{
		{Username: "nasa", Followers: 96000000},
		{Username: "spotify", Followers: 4800000},
	}
	fetchErrs := []models.FetchError{
		{Username: "ghostaccount", Error: "not_found error for 'ghostaccount' (code 404): profile does not exist"},
	}

	snap := store.Replace(records, fetchErrs, now)

	if snap.FetchCount != 1 {
		t.Errorf("Expected fetch count 1 after first run, got %d", snap.FetchCount)
	}
	if !snap.LastUpdate.Equal(now) {
		t.Errorf("Expected last update %v, got %v", now, snap.LastUpdate)
	}
	if len(snap.Profiles) != 2 || len(snap.Errors) != 1 {
		t.Errorf("Expected 2 profiles and 1 error, got %d and %d", len(snap.Profiles), len(snap.Errors))
	}

	// Second run replaces wholesale and keeps counting
	later := now.Add(time.Hour)
	snap = store.Replace(records[:1], nil, later)
	if snap.FetchCount != 2 {
		t.Errorf("Expected fetch count 2 after second run, got %d", snap.FetchCount)
	}
	if len(snap.Profiles) != 1 {
		t.Errorf("Expected old records to be dropped, got %d profiles", len(snap.Profiles))
	}
	if len(snap.Errors) != 0 {
		t.Errorf("Expected old errors to be dropped, got %d", len(snap.Errors))
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	now := time.Now()

	store.Replace([]models.ProfileRecord{{Username: "nasa", Followers: 1}}, nil, now)

	snap := store.Snapshot()
	snap.Profiles[0].Username = "mutated"
	snap.FetchCount = 99

	fresh := store.Snapshot()
	if fresh.Profiles[0].Username != "nasa" {
		t.Error("Expected snapshot mutation to not reach the store")
	}
	if fresh.FetchCount != 1 {
		t.Errorf("Expected fetch count 1, got %d", fresh.FetchCount)
	}
}

func TestStoreRestore(t *testing.T) {
	store := NewStore()
	saved := models.Snapshot{
		Profiles:   []models.ProfileRecord{{Username: "nasa"}, {Username: "natgeo"}},
		LastUpdate: time.Date(2025, 6, 1, 11, 45, 0, 0, time.UTC),
		FetchCount: 7,
	}

	store.Restore(saved)

	snap := store.Snapshot()
	if snap.FetchCount != 7 {
		t.Errorf("Expected restored fetch count 7, got %d", snap.FetchCount)
	}
	if store.ProfileCount() != 2 {
		t.Errorf("Expected 2 profiles, got %d", store.ProfileCount())
	}

	// A refresh after restore keeps counting from the restored value
	snap = store.Replace(nil, nil, time.Now())
	if snap.FetchCount != 8 {
		t.Errorf("Expected fetch count 8 after refresh, got %d", snap.FetchCount)
	}
}

func TestStoreEmpty(t *testing.T) {
	store := NewStore()

	snap := store.Snapshot()
	if snap.FetchCount != 0 || len(snap.Profiles) != 0 {
		t.Error("Expected a fresh store to be empty")
	}
	if !snap.LastUpdate.IsZero() {
		t.Error("Expected zero last update before the first run")
	}
}
