package file

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"form-service/internal/models"
	"form-service/internal/util"

	"github.com/google/uuid"
)

const submissionsFile = "form-submissions.json"

// ErrDuplicateEmail is returned when a submission's email, compared
// case-insensitively, already exists in the ledger.
var ErrDuplicateEmail = errors.New("email already submitted")

// SubmissionStore is the append-only ledger of accepted submissions, backed
// by one pretty-printed JSON file so it stays readable by hand.
type SubmissionStore struct {
	store *RecordStore
	path  string
	now   func() time.Time
}

func NewSubmissionStore(store *RecordStore, dataDir string) *SubmissionStore {
	return &SubmissionStore{
		store: store,
		path:  filepath.Join(dataDir, submissionsFile),
		now:   time.Now,
	}
}

// WithClock replaces the time source. Used by tests for stable timestamps.
func (s *SubmissionStore) WithClock(now func() time.Time) *SubmissionStore {
	s.now = now
	return s
}

// TryInsert appends sub to the ledger unless its email is already present.
// The duplicate scan and the append run under the file's lock, so two
// concurrent inserts of the same email commit exactly once. The stored
// submission, with its assigned id and timestamp, is returned on success.
func (s *SubmissionStore) TryInsert(sub models.Submission) (models.Submission, error) {
	lock := s.store.Locker(s.path)
	lock.Lock()
	defer lock.Unlock()

	var ledger []models.Submission
	s.store.Load(s.path, &ledger)

	lower := strings.ToLower(sub.Email)
	for _, existing := range ledger {
		if strings.ToLower(existing.Email) == lower {
			return models.Submission{}, ErrDuplicateEmail
		}
	}

	now := s.now()
	sub.ID = newSubmissionID(now)
	sub.SubmittedAt = now.Format(models.SubmittedAtLayout)
	ledger = append(ledger, sub)

	if err := s.store.Save(s.path, ledger, true); err != nil {
		return models.Submission{}, fmt.Errorf("persist submission ledger: %w", err)
	}

	util.Debug("Submission appended to ledger",
		util.String("submission_id", sub.ID),
		util.Int("ledger_size", len(ledger)),
	)
	return sub, nil
}

// Count returns the number of accepted submissions in the ledger
func (s *SubmissionStore) Count() int {
	lock := s.store.Locker(s.path)
	lock.Lock()
	defer lock.Unlock()

	var ledger []models.Submission
	s.store.Load(s.path, &ledger)
	return len(ledger)
}

// newSubmissionID builds an identifier from the acceptance timestamp and a
// random component, unique across restarts.
func newSubmissionID(now time.Time) string {
	return fmt.Sprintf("contest_%d_%s", now.UnixNano(), uuid.NewString()[:8])
}
