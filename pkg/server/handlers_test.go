package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igprofiles/pkg/cache"
	"igprofiles/pkg/config"
	"igprofiles/pkg/errors"
	"igprofiles/pkg/logger"
	"igprofiles/pkg/models"
	"igprofiles/pkg/tracker"
)

// tableFetcher resolves usernames from a fixed outcome table
type tableFetcher struct {
	records map[string]*models.ProfileRecord
	errs    map[string]error
}

func (f *tableFetcher) Fetch(ctx context.Context, username string) (*models.ProfileRecord, error) {
	if err, ok := f.errs[username]; ok {
		return nil, err
	}
	if record, ok := f.records[username]; ok {
		return record, nil
	}
	return &models.ProfileRecord{Username: username}, nil
}

func newTestServer(t *testing.T, usernames []string, f tracker.Fetcher) *Server {
	t.Helper()

	log := logger.NewTestLogger()
	path := filepath.Join(t.TempDir(), "instagram_cache.json")
	p := cache.NewPersistence(path, 30*time.Minute, log)
	tr := tracker.New(usernames, f, cache.NewStore(), p, log)

	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 5000, CORSOrigins: []string{"*"}}
	return New(tr, cfg, log)
}

func seededServer(t *testing.T) *Server {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	srv := newTestServer(t, nil, &tableFetcher{})
	srv.now = func() time.Time { return now }

	srv.store.Restore(models.Snapshot{
		Profiles: []models.ProfileRecord{
			{Username: "cristiano", Followers: 650000000, Following: 590, Posts: 3700, IsVerified: true},
			{Username: "nasa", Followers: 96000000, Following: 77, Posts: 4200, IsVerified: true},
			{Username: "nichebrand", Followers: 120000, Following: 900, Posts: 210},
		},
		LastUpdate: now.Add(-90 * time.Second),
		FetchCount: 2,
		Errors:     []models.FetchError{{Username: "ghostaccount", Error: "profile does not exist"}},
	})
	return srv
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestIndex(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indexResponse
	decode(t, rec, &resp)

	assert.Equal(t, "Instagram Profile Analytics API", resp.Name)
	assert.Equal(t, Version, resp.Version)
	assert.Equal(t, "healthy", resp.Status)
	assert.Len(t, resp.Endpoints, 5)
	assert.Equal(t, 3, resp.CacheInfo.ProfilesCached)
	assert.Equal(t, 2, resp.CacheInfo.TotalFetches)
	assert.NotNil(t, resp.CacheInfo.LastUpdate)
}

func TestHealth(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decode(t, rec, &resp)

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 3, resp.ProfilesCached)
	assert.Equal(t, 1, resp.ErrorsCount)
	require.NotNil(t, resp.CacheAgeMinutes)
	assert.Equal(t, 1.5, *resp.CacheAgeMinutes)
}

func TestHealthEmptyCache(t *testing.T) {
	srv := newTestServer(t, nil, &tableFetcher{})

	rec := doRequest(srv, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decode(t, rec, &resp)

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.ProfilesCached)
	assert.Nil(t, resp.LastUpdate)
	assert.Nil(t, resp.CacheAgeMinutes)
}

func TestProfiles(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/profiles")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp profilesResponse
	decode(t, rec, &resp)

	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Data, 3)
	assert.Len(t, resp.Errors, 1)
	require.NotNil(t, resp.CacheAgeMinutes)
	assert.Equal(t, 1.5, *resp.CacheAgeMinutes)
}

func TestProfilesFilters(t *testing.T) {
	srv := seededServer(t)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"verified only", "?verified=true", []string{"cristiano", "nasa"}},
		{"verified case insensitive", "?verified=TRUE", []string{"cristiano", "nasa"}},
		{"verified false is a no-op", "?verified=false", []string{"cristiano", "nasa", "nichebrand"}},
		{"min followers", "?min_followers=1000000", []string{"cristiano", "nasa"}},
		{"min followers high", "?min_followers=100000000", []string{"cristiano"}},
		{"combined", "?verified=true&min_followers=100000000", []string{"cristiano"}},
		{"nothing matches", "?min_followers=999999999999", []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodGet, "/api/profiles"+test.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp profilesResponse
			decode(t, rec, &resp)

			assert.True(t, resp.Success)
			assert.Equal(t, len(test.expected), resp.Total)

			got := make([]string, 0, len(resp.Data))
			for _, p := range resp.Data {
				got = append(got, p.Username)
			}
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestProfilesBadMinFollowers(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/profiles?min_followers=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	decode(t, rec, &resp)
	assert.Equal(t, false, resp["success"])
}

func TestProfilesEmptyCache(t *testing.T) {
	srv := newTestServer(t, nil, &tableFetcher{})

	rec := doRequest(srv, http.MethodGet, "/api/profiles")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp profilesResponse
	decode(t, rec, &resp)

	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Data, "data must be an empty array, not null")
	assert.NotNil(t, resp.Errors, "errors must be an empty array, not null")
}

func TestRefresh(t *testing.T) {
	f := &tableFetcher{
		records: map[string]*models.ProfileRecord{
			"nasa":   {Username: "nasa", Followers: 96000000, IsVerified: true},
			"natgeo": {Username: "natgeo", Followers: 280000000, IsVerified: true},
		},
		errs: map[string]error{
			"ghostaccount": &errors.Error{Type: errors.ErrorTypeNotFound, Message: "profile does not exist", Code: 404, Username: "ghostaccount"},
		},
	}
	srv := newTestServer(t, []string{"nasa", "ghostaccount", "natgeo"}, f)

	rec := doRequest(srv, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp refreshResponse
	decode(t, rec, &resp)

	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully refreshed 2 profiles", resp.Message)
	assert.Equal(t, 2, resp.Stats.Successful)
	assert.Equal(t, 1, resp.Stats.Failed)
	assert.Equal(t, 3, resp.Stats.TotalRequested)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "natgeo", resp.Data[0].Username, "records must be sorted by followers")
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "ghostaccount", resp.Errors[0].Username)

	// The refresh must have replaced the cache
	var health healthResponse
	decode(t, doRequest(srv, http.MethodGet, "/api/health"), &health)
	assert.Equal(t, 2, health.ProfilesCached)
	assert.Equal(t, 1, health.ErrorsCount)
}

func TestStats(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	decode(t, rec, &resp)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 3, resp.Stats.TotalProfiles)
	assert.Equal(t, 2, resp.Stats.VerifiedProfiles)
	assert.Equal(t, int64(746120000), resp.Stats.TotalFollowers)
	assert.Equal(t, int64(1567), resp.Stats.TotalFollowing)
	assert.Equal(t, int64(8110), resp.Stats.TotalPosts)
	assert.InDelta(t, 248706666.67, resp.Stats.AvgFollowers, 0.01)
	assert.InDelta(t, 2703.33, resp.Stats.AvgPosts, 0.01)
	require.Len(t, resp.Stats.Top5Profiles, 3)
	assert.Equal(t, "cristiano", resp.Stats.Top5Profiles[0].Username)
}

func TestStatsEmptyCache(t *testing.T) {
	srv := newTestServer(t, nil, &tableFetcher{})

	rec := doRequest(srv, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	decode(t, rec, &resp)

	assert.False(t, resp.Success)
	assert.Equal(t, "No data available", resp.Message)
	assert.Nil(t, resp.Stats)
}

func TestTrailingSlashAccepted(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/health/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := seededServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
