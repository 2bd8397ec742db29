package tracker

import (
	"context"
	"sync"
	"time"

	"igprofiles/pkg/cache"
	"igprofiles/pkg/logger"
	"igprofiles/pkg/models"
)

// Fetcher obtains one profile record per username. *fetcher.Fetcher
// satisfies it; tests substitute a stub with no delays.
type Fetcher interface {
	Fetch(ctx context.Context, username string) (*models.ProfileRecord, error)
}

// Tracker runs refresh passes over the tracked username list and owns the
// resulting cache snapshot.
type Tracker struct {
	usernames   []string
	fetcher     Fetcher
	store       *cache.Store
	persistence *cache.Persistence
	logger      logger.Logger
	now         func() time.Time

	// Serializes refresh runs; concurrent refresh requests queue up
	// rather than interleave fetches.
	runMu sync.Mutex
}

// New creates a Tracker for the given username list
func New(usernames []string, f Fetcher, store *cache.Store, persistence *cache.Persistence, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Tracker{
		usernames:   usernames,
		fetcher:     f,
		store:       store,
		persistence: persistence,
		logger:      log,
		now:         time.Now,
	}
}

// Usernames returns the tracked username list
func (t *Tracker) Usernames() []string {
	return t.usernames
}

// Store returns the cache store the tracker writes to
func (t *Tracker) Store() *cache.Store {
	return t.store
}

// Refresh sequentially fetches every tracked username and replaces the
// cache with the results. Each username yields exactly one record or one
// error; a failing profile never aborts the run. Records are sorted by
// follower count descending before the swap, the snapshot is persisted,
// and the run's records and errors are returned.
func (t *Tracker) Refresh(ctx context.Context) ([]models.ProfileRecord, []models.FetchError, error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	t.logger.InfoWithFields("starting refresh run", map[string]interface{}{
		"usernames": len(t.usernames),
	})

	start := t.now()
	records := make([]models.ProfileRecord, 0, len(t.usernames))
	fetchErrors := make([]models.FetchError, 0)

	for i, username := range t.usernames {
		if err := ctx.Err(); err != nil {
			t.logger.WarnWithFields("refresh run cancelled", map[string]interface{}{
				"processed": i,
				"total":     len(t.usernames),
			})
			return nil, nil, err
		}

		t.logger.InfoWithFields("processing profile", map[string]interface{}{
			"username": username,
			"index":    i + 1,
			"total":    len(t.usernames),
		})

		record, err := t.fetcher.Fetch(ctx, username)
		if err != nil {
			fetchErrors = append(fetchErrors, models.FetchError{
				Username: username,
				Error:    err.Error(),
			})
			continue
		}
		records = append(records, *record)
	}

	models.SortByFollowers(records)

	snap := t.store.Replace(records, fetchErrors, t.now())
	if t.persistence != nil {
		t.persistence.Save(snap)
	}

	t.logger.InfoWithFields("refresh run complete", map[string]interface{}{
		"success":     len(records),
		"failed":      len(fetchErrors),
		"total":       len(t.usernames),
		"fetch_count": snap.FetchCount,
		"elapsed":     t.now().Sub(start),
	})

	return records, fetchErrors, nil
}

// RestoreOrRefresh seeds the store from the persisted snapshot when it is
// still inside the freshness window, and runs a fresh pass otherwise.
// Staleness is only checked here, at startup; afterwards it is resolved by
// explicit refresh requests.
func (t *Tracker) RestoreOrRefresh(ctx context.Context) error {
	if t.persistence != nil {
		if snap, ok := t.persistence.Load(); ok {
			t.store.Restore(*snap)
			t.logger.InfoWithFields("using cached data", map[string]interface{}{
				"profiles":    len(snap.Profiles),
				"age_minutes": int(snap.Age(t.now()).Minutes()),
			})
			return nil
		}
	}

	t.logger.Info("no valid cache found, fetching fresh data")
	_, _, err := t.Refresh(ctx)
	return err
}
