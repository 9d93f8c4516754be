package attempts

import (
	"context"
	"fmt"
	"time"

	"peerprep/captcha/internal/models"

	"gorm.io/gorm"
)

// Recorder persists verification attempts and aggregates them
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record stores one attempt. AttemptedAt defaults to now.
func (r *Recorder) Record(ctx context.Context, attempt *models.Attempt) error {
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Stats aggregates attempts made at or after since, grouped by kind and difficulty.
func (r *Recorder) Stats(ctx context.Context, since time.Time) (*models.StatsResponse, error) {
	var groups []models.AttemptStat
	err := r.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Select("kind, difficulty, COUNT(*) AS total, SUM(CASE WHEN success THEN 1 ELSE 0 END) AS passed").
		Where("attempted_at >= ?", since).
		Group("kind, difficulty").
		Order("kind, difficulty").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attempts: %w", err)
	}

	stats := &models.StatsResponse{Since: since, Groups: groups}
	if stats.Groups == nil {
		stats.Groups = []models.AttemptStat{}
	}
	for _, g := range groups {
		stats.Total += g.Total
		stats.Passed += g.Passed
	}
	return stats, nil
}

// PruneBefore permanently deletes attempts older than cutoff and returns how many were removed.
func (r *Recorder) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("attempted_at < ?", cutoff).
		Delete(&models.Attempt{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Recorder) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
