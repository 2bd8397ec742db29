package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"igprofiles/pkg/models"
)

type indexResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
	CacheInfo   cacheInfo         `json:"cache_info"`
	Status      string            `json:"status"`
}

type cacheInfo struct {
	ProfilesCached int        `json:"profiles_cached"`
	LastUpdate     *time.Time `json:"last_update"`
	TotalFetches   int        `json:"total_fetches"`
}

type healthResponse struct {
	Status          string     `json:"status"`
	ProfilesCached  int        `json:"profiles_cached"`
	LastUpdate      *time.Time `json:"last_update"`
	CacheAgeMinutes *float64   `json:"cache_age_minutes"`
	ErrorsCount     int        `json:"errors_count"`
}

type profilesResponse struct {
	Success         bool                   `json:"success"`
	Data            []models.ProfileRecord `json:"data"`
	LastUpdate      *time.Time             `json:"last_update"`
	Total           int                    `json:"total"`
	CacheAgeMinutes *float64               `json:"cache_age_minutes"`
	Errors          []models.FetchError    `json:"errors"`
}

type refreshResponse struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	Data       []models.ProfileRecord `json:"data"`
	LastUpdate *time.Time             `json:"last_update"`
	Errors     []models.FetchError    `json:"errors"`
	Stats      refreshStats           `json:"stats"`
}

type refreshStats struct {
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	TotalRequested int `json:"total_requested"`
}

type statsResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message,omitempty"`
	Stats      *stats     `json:"stats,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

type stats struct {
	TotalProfiles    int          `json:"total_profiles"`
	VerifiedProfiles int          `json:"verified_profiles"`
	TotalFollowers   int64        `json:"total_followers"`
	TotalFollowing   int64        `json:"total_following"`
	TotalPosts       int64        `json:"total_posts"`
	AvgFollowers     float64      `json:"avg_followers"`
	AvgPosts         float64      `json:"avg_posts"`
	Top5Profiles     []topProfile `json:"top_5_profiles"`
}

type topProfile struct {
	Username  string `json:"username"`
	Followers int64  `json:"followers"`
}

// lastUpdate converts the zero time to a JSON null
func lastUpdate(snap models.Snapshot) *time.Time {
	if snap.LastUpdate.IsZero() {
		return nil
	}
	t := snap.LastUpdate
	return &t
}

// handleIndex serves API metadata and a cache summary
func (s *Server) handleIndex(e echo.Context) error {
	snap := s.store.Snapshot()

	return e.JSON(http.StatusOK, indexResponse{
		Name:        "Instagram Profile Analytics API",
		Version:     Version,
		Description: "Profile metadata cache with rate limiting, retries and derived analytics",
		Endpoints: map[string]string{
			"GET /":             "API documentation",
			"GET /api/health":   "Health check",
			"GET /api/profiles": "Get all cached profiles",
			"POST /api/refresh": "Force refresh all profiles",
			"GET /api/stats":    "Get analytics statistics",
		},
		CacheInfo: cacheInfo{
			ProfilesCached: len(snap.Profiles),
			LastUpdate:     lastUpdate(snap),
			TotalFetches:   snap.FetchCount,
		},
		Status: "healthy",
	})
}

// handleHealth serves the health check
func (s *Server) handleHealth(e echo.Context) error {
	snap := s.store.Snapshot()

	return e.JSON(http.StatusOK, healthResponse{
		Status:          "healthy",
		ProfilesCached:  len(snap.Profiles),
		LastUpdate:      lastUpdate(snap),
		CacheAgeMinutes: snap.AgeMinutes(s.now()),
		ErrorsCount:     len(snap.Errors),
	})
}

// handleProfiles serves the cached records with optional filtering
func (s *Server) handleProfiles(e echo.Context) error {
	snap := s.store.Snapshot()

	verifiedOnly := strings.EqualFold(e.QueryParam("verified"), "true")

	var minFollowers int64
	if raw := e.QueryParam("min_followers"); raw != "" {
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return e.JSON(http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "min_followers must be an integer",
			})
		}
		minFollowers = val
	}

	profiles := snap.Profiles
	if verifiedOnly || minFollowers > 0 {
		filtered := make([]models.ProfileRecord, 0, len(profiles))
		for _, p := range profiles {
			if verifiedOnly && !p.IsVerified {
				continue
			}
			if minFollowers > 0 && p.Followers < minFollowers {
				continue
			}
			filtered = append(filtered, p)
		}
		profiles = filtered
	}
	if profiles == nil {
		profiles = []models.ProfileRecord{}
	}

	errs := snap.Errors
	if errs == nil {
		errs = []models.FetchError{}
	}

	return e.JSON(http.StatusOK, profilesResponse{
		Success:         true,
		Data:            profiles,
		LastUpdate:      lastUpdate(snap),
		Total:           len(profiles),
		CacheAgeMinutes: snap.AgeMinutes(s.now()),
		Errors:          errs,
	})
}

// handleRefresh synchronously runs a refresh pass and reports its result.
// The caller blocks until the run completes; worst case is the full
// username list with retry backoffs.
func (s *Server) handleRefresh(e echo.Context) error {
	s.logger.Info("manual refresh requested")

	records, fetchErrors, err := s.tracker.Refresh(e.Request().Context())
	if err != nil {
		return e.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"message": fmt.Sprintf("refresh aborted: %v", err),
		})
	}

	snap := s.store.Snapshot()

	return e.JSON(http.StatusOK, refreshResponse{
		Success:    true,
		Message:    fmt.Sprintf("Successfully refreshed %d profiles", len(records)),
		Data:       records,
		LastUpdate: lastUpdate(snap),
		Errors:     fetchErrors,
		Stats: refreshStats{
			Successful:     len(records),
			Failed:         len(fetchErrors),
			TotalRequested: len(s.tracker.Usernames()),
		},
	})
}

// handleStats serves aggregate metrics over the cached records
func (s *Server) handleStats(e echo.Context) error {
	snap := s.store.Snapshot()

	if len(snap.Profiles) == 0 {
		return e.JSON(http.StatusOK, statsResponse{
			Success: false,
			Message: "No data available",
		})
	}

	var totalFollowers, totalFollowing, totalPosts int64
	verifiedCount := 0
	for _, p := range snap.Profiles {
		totalFollowers += p.Followers
		totalFollowing += p.Following
		totalPosts += p.Posts
		if p.IsVerified {
			verifiedCount++
		}
	}

	top5 := models.TopByFollowers(snap.Profiles, 5)
	topProfiles := make([]topProfile, 0, len(top5))
	for _, p := range top5 {
		topProfiles = append(topProfiles, topProfile{
			Username:  p.Username,
			Followers: p.Followers,
		})
	}

	count := len(snap.Profiles)

	return e.JSON(http.StatusOK, statsResponse{
		Success: true,
		Stats: &stats{
			TotalProfiles:    count,
			VerifiedProfiles: verifiedCount,
			TotalFollowers:   totalFollowers,
			TotalFollowing:   totalFollowing,
			TotalPosts:       totalPosts,
			AvgFollowers:     models.Round2(float64(totalFollowers) / float64(count)),
			AvgPosts:         models.Round2(float64(totalPosts) / float64(count)),
			Top5Profiles:     topProfiles,
		},
		LastUpdate: lastUpdate(snap),
	})
}
