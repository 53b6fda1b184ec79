package file

import (
	"fmt"
	"path/filepath"
	"time"

	"form-service/internal/models"
	"form-service/internal/util"
)

const rateLimitFile = "rate_limits.json"

// RateLimitStore tracks request timestamps per client in a sliding window
// backed by one JSON file. Deleting the file resets all counters.
type RateLimitStore struct {
	store       *RecordStore
	path        string
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

func NewRateLimitStore(store *RecordStore, dataDir string, maxRequests int, window time.Duration) *RateLimitStore {
	return &RateLimitStore{
		store:       store,
		path:        filepath.Join(dataDir, rateLimitFile),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Used by tests to slide the window.
func (s *RateLimitStore) WithClock(now func() time.Time) *RateLimitStore {
	s.now = now
	return s
}

// Check admits or denies a request from clientID. On admission the current
// timestamp is recorded, every tracked client is pruned to the window, and
// the full mapping is persisted. A denial mutates nothing: the pruned view
// is recomputed on the next admit, so skipping the write-back costs only a
// little file growth between admits. A persistence failure denies the
// request and returns the error so the caller can report a storage fault
// rather than a rate limit.
func (s *RateLimitStore) Check(clientID string) (bool, error) {
	lock := s.store.Locker(s.path)
	lock.Lock()
	defer lock.Unlock()

	rates := models.RateRecord{}
	s.store.Load(s.path, &rates)

	now := s.now().Unix()
	cutoff := now - int64(s.window/time.Second)

	recent := inWindow(rates[clientID], cutoff)
	if len(recent) >= s.maxRequests {
		util.Warn("Rate limit exceeded",
			util.String("client_id", clientID),
			util.Int("requests_in_window", len(recent)),
			util.Int("max_requests", s.maxRequests),
		)
		return false, nil
	}

	rates[clientID] = append(recent, now)
	for id, stamps := range rates {
		kept := inWindow(stamps, cutoff)
		if len(kept) == 0 {
			delete(rates, id)
			continue
		}
		rates[id] = kept
	}

	if err := s.store.Save(s.path, rates, false); err != nil {
		return false, fmt.Errorf("persist rate record: %w", err)
	}
	return true, nil
}

// inWindow keeps the timestamps strictly newer than cutoff
func inWindow(stamps []int64, cutoff int64) []int64 {
	var kept []int64
	for _, ts := range stamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}
