package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

type fakeTokenCleanupRepo struct {
	deletedRows int64
	lastCutoff  time.Time
	err         error
}

func (f *fakeTokenCleanupRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.lastCutoff = cutoff
	return f.deletedRows, nil
}

func TestTokenCleanupJobDeletesExpiredTokens(t *testing.T) {
	now := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	repo := &fakeTokenCleanupRepo{deletedRows: 3}

	jobIface, err := NewTokenCleanupJob(TokenCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewTokenCleanupJob: %v", err)
	}
	job := jobIface.(*tokenCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
}

func TestTokenCleanupJobPropagatesErrors(t *testing.T) {
	repo := &fakeTokenCleanupRepo{err: errors.New("boom")}

	jobIface, err := NewTokenCleanupJob(TokenCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewTokenCleanupJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
