package models

import (
	"math"
	"sort"
	"time"
)

// MaxBiographyLength is the number of characters a biography is truncated to
const MaxBiographyLength = 100

// ProfileRecord is the cached, normalized snapshot of one tracked account's
// public attributes at fetch time. JSON field names match the API payload
// consumed by the dashboard frontend.
type ProfileRecord struct {
	Username       string    `json:"username"`
	FullName       string    `json:"fullName"`
	Followers      int64     `json:"followers"`
	Following      int64     `json:"following"`
	Posts          int64     `json:"posts"`
	ProfilePic     string    `json:"profilePic"`
	IsVerified     bool      `json:"isVerified"`
	Biography      string    `json:"biography"`
	ExternalURL    string    `json:"externalUrl"`
	IsPrivate      bool      `json:"isPrivate"`
	IsBusiness     bool      `json:"isBusiness"`
	Category       string    `json:"category"`
	FetchedAt      time.Time `json:"fetchedAt"`
	EngagementRate float64   `json:"engagementRate"`
}

// FetchError records a per-username failure from a refresh run
type FetchError struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// Snapshot is the full cache state: one refresh run's records plus run
// bookkeeping. It is replaced wholesale by each run and mirrored to disk.
type Snapshot struct {
	Profiles   []ProfileRecord `json:"profiles"`
	LastUpdate time.Time       `json:"last_update"`
	FetchCount int             `json:"fetch_count"`
	Errors     []FetchError    `json:"errors"`
}

// Age returns how old the snapshot is relative to now
func (s *Snapshot) Age(now time.Time) time.Duration {
	if s.LastUpdate.IsZero() {
		return 0
	}
	return now.Sub(s.LastUpdate)
}

// AgeMinutes returns the snapshot age in minutes rounded to one decimal,
// or nil when no run has completed yet.
func (s *Snapshot) AgeMinutes(now time.Time) *float64 {
	if s.LastUpdate.IsZero() {
		return nil
	}
	age := math.Round(s.Age(now).Minutes()*10) / 10
	return &age
}

// EngagementRate computes the following/followers ratio as a percentage,
// rounded to two decimals. Defined as 0 when there are no followers.
func EngagementRate(followers, following int64) float64 {
	if followers <= 0 {
		return 0.0
	}
	return Round2(float64(following) / float64(followers) * 100)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TruncateBiography cuts a biography down to MaxBiographyLength characters.
// Truncation is rune-based so multi-byte text is never split mid-character.
func TruncateBiography(bio string) string {
	runes := []rune(bio)
	if len(runes) <= MaxBiographyLength {
		return bio
	}
	return string(runes[:MaxBiographyLength])
}

// SortByFollowers orders records by follower count descending. The sort is
// stable: records with equal follower counts keep their fetch order.
func SortByFollowers(records []ProfileRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Followers > records[j].Followers
	})
}

// TopByFollowers returns up to n records with the highest follower counts
func TopByFollowers(records []ProfileRecord, n int) []ProfileRecord {
	sorted := make([]ProfileRecord, len(records))
	copy(sorted, records)
	SortByFollowers(sorted)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
