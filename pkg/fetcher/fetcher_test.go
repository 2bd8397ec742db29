package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"igprofiles/pkg/errors"
	"igprofiles/pkg/instagram"
	"igprofiles/pkg/logger"
)

// stubSource scripts per-call outcomes for one username
type stubSource struct {
	calls   int
	handler func(call int, username string) (*instagram.User, error)
}

func (s *stubSource) FetchUserProfile(ctx context.Context, username string) (*instagram.User, error) {
	s.calls++
	return s.handler(s.calls, username)
}

func newTestFetcher(source *stubSource) *Fetcher {
	// Zero delays keep tests instant
	return New(source, Options{
		RequestDelay: 0,
		MaxRetries:   3,
		RetryDelay:   0,
		Logger:       logger.NewTestLogger(),
	})
}

func TestFetchBuildsRecord(t *testing.T) {
	fetchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	source := &stubSource{handler: func(call int, username string) (*instagram.User, error) {
		return &instagram.User{
			Username:          "nasa",
			FullName:          "NASA",
			Biography:         "Exploring the universe and our home planet.",
			ExternalURL:       "https://www.nasa.gov",
			ProfilePicURL:     "https://cdn.example/nasa.jpg",
			ProfilePicURLHD:   "https://cdn.example/nasa_hd.jpg",
			IsVerified:        true,
			IsBusinessAccount: true,
			CategoryName:      "Government organization",
			FollowedBy:        instagram.EdgeCount{Count: 96000000},
			Follow:            instagram.EdgeCount{Count: 77},
			TimelineMedia:     instagram.EdgeCount{Count: 4200},
		}, nil
	}}

	f := newTestFetcher(source)
	f.now = func() time.Time { return fetchedAt }

	record, err := f.Fetch(context.Background(), "nasa")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if record.Username != "nasa" || record.FullName != "NASA" {
		t.Errorf("Unexpected identity fields: %+v", record)
	}
	if record.Followers != 96000000 || record.Following != 77 || record.Posts != 4200 {
		t.Errorf("Unexpected counts: %+v", record)
	}
	if record.ProfilePic != "https://cdn.example/nasa_hd.jpg" {
		t.Errorf("Expected the HD picture to win, got %s", record.ProfilePic)
	}
	if !record.IsVerified || !record.IsBusiness {
		t.Errorf("Expected verified business account flags: %+v", record)
	}
	if !record.FetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected fetch timestamp %v, got %v", fetchedAt, record.FetchedAt)
	}
	if record.EngagementRate != 0.0 {
		// 77 / 96000000 * 100 rounds to zero
		t.Errorf("Expected engagement rate 0.0, got %v", record.EngagementRate)
	}
}

func TestFetchFullNameFallsBackToUsername(t *testing.T) {
	source := &stubSource{handler: func(call int, username string) (*instagram.User, error) {
		return &instagram.User{Username: "cristiano"}, nil
	}}

	record, err := newTestFetcher(source).Fetch(context.Background(), "cristiano")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if record.FullName != "cristiano" {
		t.Errorf("Expected username as full name fallback, got %q", record.FullName)
	}
}

func TestFetchTruncatesBiography(t *testing.T) {
	source := &stubSource{handler: func(call int, username string) (*instagram.User, error) {
		return &instagram.User{
			Username:  "wordy",
			Biography: strings.Repeat("x", 500),
		}, nil
	}}

	record, err := newTestFetcher(source).Fetch(context.Background(), "wordy")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(record.Biography) != 100 {
		t.Errorf("Expected biography truncated to 100 characters, got %d", len(record.Biography))
	}
}

func TestFetchRetriesConnectionErrors(t *testing.T) {
	source := &stubSource{handler: func(call int, username string) (*instagram.User, error) {
		if call < 3 {
			return nil, &errors.Error{Type: errors.ErrorTypeNetwork, Message: "connection reset", Username: username}
		}
		return &instagram.User{Username: username, FollowedBy: instagram.EdgeCount{Count: 42}}, nil
	}}

	record, err := newTestFetcher(source).Fetch(context.Background(), "flaky")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if source.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", source.calls)
	}
	if record.Followers != 42 {
		t.Errorf("Expected the successful attempt's data, got %+v", record)
	}
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	source := &stubSource{handler: func(call int, username string) (*instagram.User, error) {
		return nil, &errors.Error{Type: errors.ErrorTypeNetwork, Message: "no route to host", Username: username}
	}}

	_, err := newTestFetcher(source).Fetch(context.Background(), "unreachable")
	if err == nil {
		t.Fatal("Expected failure after exhausting attempts")
	}
	if source.calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", source.calls)
	}
}

func TestFetchNotFoundIsTerminal(t *testing.T) {
	source := &stubSource{handler: func(call int, username string) (*instagram.User, error) {
		return nil, &errors.Error{Type: errors.ErrorTypeNotFound, Message: "profile does not exist", Code: 404, Username: username}
	}}

	_, err := newTestFetcher(source).Fetch(context.Background(), "ghostaccount")
	if err == nil {
		t.Fatal("Expected a not-found error")
	}
	if source.calls != 1 {
		t.Errorf("Expected a single attempt for a missing profile, got %d", source.calls)
	}
}
