package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

// TokenCleanupJobParams configures the registration token purge.
type TokenCleanupJobParams struct {
	Logger     *logger.Logger
	Repository tokenCleanupRepo
}

type tokenCleanupRepo interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewTokenCleanupJob constructs a job that purges expired registration
// tokens. Redemption already rejects expired tokens, so this only keeps the
// table from accumulating dead rows.
func NewTokenCleanupJob(params TokenCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("token repository required")
	}
	return &tokenCleanupJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type tokenCleanupJob struct {
	logg *logger.Logger
	repo tokenCleanupRepo
	now  func() time.Time
}

func (j *tokenCleanupJob) Name() string { return "registration-token-cleanup" }

func (j *tokenCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.repo.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("delete expired tokens: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"rows_deleted": deleted})
	j.logg.Info(logCtx, "registration token cleanup complete")
	return nil
}
