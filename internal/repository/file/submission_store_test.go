package file_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"form-service/internal/models"
	"form-service/internal/repository/file"

	"github.com/stretchr/testify/require"
)

func newSubmissionStore(t *testing.T) (*file.SubmissionStore, string) {
	t.Helper()
	dataDir := t.TempDir()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := file.NewSubmissionStore(file.NewRecordStore(), dataDir).
		WithClock(func() time.Time { return now })
	return store, dataDir
}

func entry(name, email string) models.Submission {
	return models.Submission{
		Name:    name,
		Company: "Acme &amp; Co",
		Email:   email,
		Phone:   "555-1234",
	}
}

func readLedger(t *testing.T, dataDir string) []models.Submission {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dataDir, "form-submissions.json"))
	require.NoError(t, err)
	var ledger []models.Submission
	require.NoError(t, json.Unmarshal(data, &ledger))
	return ledger
}

func TestTryInsertAssignsIDAndKeepsOrder(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	store, dataDir := newSubmissionStore(t)

	emails := []string{"first@example.com", "second@example.com", "third@example.com"}
	ids := map[string]bool{}
	for _, email := range emails {
		stored, err := store.TryInsert(entry("Jo Ann", email))
		require.NoError(err)
		require.True(strings.HasPrefix(stored.ID, "contest_"))
		require.Equal("2026-08-28 12:00:00", stored.SubmittedAt)
		require.False(ids[stored.ID])
		ids[stored.ID] = true
	}

	ledger := readLedger(t, dataDir)
	require.Len(ledger, 3)
	for i, email := range emails {
		require.Equal(email, ledger[i].Email)
	}
}

func TestDuplicateEmailIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	store, dataDir := newSubmissionStore(t)

	_, err := store.TryInsert(entry("Jo Ann", "X@Foo.com"))
	require.NoError(err)
	before := readLedger(t, dataDir)

	_, err = store.TryInsert(entry("Someone Else", "x@foo.com"))
	require.ErrorIs(err, file.ErrDuplicateEmail)

	after := readLedger(t, dataDir)
	require.Equal(before, after)
	require.Equal(1, store.Count())
}

func TestLedgerSurvivesReopen(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	store, dataDir := newSubmissionStore(t)
	_, err := store.TryInsert(entry("Jo Ann", "jo@example.com"))
	require.NoError(err)

	reopened := file.NewSubmissionStore(file.NewRecordStore(), dataDir)
	require.Equal(1, reopened.Count())
	_, err = reopened.TryInsert(entry("Jo Ann", "JO@example.com"))
	require.ErrorIs(err, file.ErrDuplicateEmail)
}

func TestConcurrentSameEmailInsertsOnce(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	store, dataDir := newSubmissionStore(t)

	const workers = 8
	var inserted, duplicates atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := store.TryInsert(entry("Jo Ann", "race@example.com"))
			switch {
			case err == nil:
				inserted.Add(1)
			case errors.Is(err, file.ErrDuplicateEmail):
				duplicates.Add(1)
			default:
				require.NoError(err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(1, inserted.Load())
	require.EqualValues(workers-1, duplicates.Load())
	require.Len(readLedger(t, dataDir), 1)
}
