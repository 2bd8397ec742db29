package fetcher

import (
	"context"
	"time"

	"igprofiles/pkg/instagram"
	"igprofiles/pkg/logger"
	"igprofiles/pkg/models"
	"igprofiles/pkg/ratelimit"
	"igprofiles/pkg/retry"
)

// ProfileSource resolves a username to profile attributes or fails with a
// typed error. The Instagram client satisfies it; tests substitute mocks.
type ProfileSource interface {
	FetchUserProfile(ctx context.Context, username string) (*instagram.User, error)
}

// Options configures a Fetcher
type Options struct {
	// RequestDelay is the fixed pause paid before each fetch
	RequestDelay time.Duration
	// MaxRetries is the total number of attempts for transient failures
	MaxRetries int
	// RetryDelay is the pause between attempts
	RetryDelay time.Duration
	// Logger for fetch tracing
	Logger logger.Logger
}

// Fetcher obtains one ProfileRecord per call, applying the outbound
// politeness delay and the retry policy around the profile source.
type Fetcher struct {
	source     ProfileSource
	delay      ratelimit.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
	now        func() time.Time
}

// New creates a Fetcher around the given profile source
func New(source ProfileSource, opts Options) *Fetcher {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Fetcher{
		source:     source,
		delay:      ratelimit.NewFixedInterval(opts.RequestDelay),
		maxRetries: maxRetries,
		retryDelay: opts.RetryDelay,
		logger:     log,
		now:        time.Now,
	}
}

// Fetch obtains the profile record for one username. It returns exactly one
// of {record, error}: a missing profile or any non-transient failure comes
// back immediately, connection failures are retried up to the attempt bound
// with a fixed pause between attempts, and the last error wins when the
// bound is exhausted.
func (f *Fetcher) Fetch(ctx context.Context, username string) (*models.ProfileRecord, error) {
	f.delay.Wait()

	cfg := &retry.Config{
		MaxAttempts: f.maxRetries,
		Backoff:     &retry.ConstantBackoff{Delay: f.retryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      f.logger,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			f.logger.WarnWithFields("connection error, will retry", map[string]interface{}{
				"username": username,
				"attempt":  attempt,
				"max":      f.maxRetries,
				"error":    err.Error(),
			})
		},
	}

	user, err := retry.DoWithResult(func() (*instagram.User, error) {
		return f.source.FetchUserProfile(ctx, username)
	}, cfg)
	if err != nil {
		return nil, err
	}

	record := f.buildRecord(user)

	f.logger.InfoWithFields("profile fetched", map[string]interface{}{
		"username":  record.Username,
		"followers": record.Followers,
	})

	return record, nil
}

// buildRecord normalizes the upstream payload into a ProfileRecord
func (f *Fetcher) buildRecord(user *instagram.User) *models.ProfileRecord {
	fullName := user.FullName
	if fullName == "" {
		fullName = user.Username
	}

	profilePic := user.ProfilePicURLHD
	if profilePic == "" {
		profilePic = user.ProfilePicURL
	}

	followers := user.FollowedBy.Count
	following := user.Follow.Count

	return &models.ProfileRecord{
		Username:       user.Username,
		FullName:       fullName,
		Followers:      followers,
		Following:      following,
		Posts:          user.TimelineMedia.Count,
		ProfilePic:     profilePic,
		IsVerified:     user.IsVerified,
		Biography:      models.TruncateBiography(user.Biography),
		ExternalURL:    user.ExternalURL,
		IsPrivate:      user.IsPrivate,
		IsBusiness:     user.IsBusinessAccount,
		Category:       user.CategoryName,
		FetchedAt:      f.now(),
		EngagementRate: models.EngagementRate(followers, following),
	}
}
