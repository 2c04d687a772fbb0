package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Gravender/boardgames-backend/pkg/logger"
)

const shareRetentionDays = 30

type shareExpiryRepo interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ShareExpiryJobParams configure the expired share cleanup job.
type ShareExpiryJobParams struct {
	Logger     *logger.Logger
	Repository shareExpiryRepo
	Retention  int
}

// NewShareExpiryJob removes pending share trees whose expiry passed more
// than the retention window ago. Resolved trees are kept as history.
func NewShareExpiryJob(params ShareExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("sharing repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = shareRetentionDays
	}
	return &shareExpiryJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type shareExpiryJob struct {
	logg      *logger.Logger
	repo      shareExpiryRepo
	retention int
	now       func() time.Time
}

func (j *shareExpiryJob) Name() string { return "share-expiry-cleanup" }

func (j *shareExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("share expiry cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "share expiry cleanup complete")
	return nil
}
