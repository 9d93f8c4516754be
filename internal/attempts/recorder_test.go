package attempts

import (
	"context"
	"testing"
	"time"

	"peerprep/captcha/internal/models"
	"peerprep/captcha/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, r *Recorder, kind, difficulty string, success bool, at time.Time) {
	t.Helper()
	reason := models.ReasonWrongAnswer
	if success {
		reason = models.ReasonPassed
	}
	err := r.Record(context.Background(), &models.Attempt{
		ChallengeID: "c",
		Kind:        kind,
		Difficulty:  difficulty,
		Size:        3,
		Success:     success,
		Reason:      reason,
		AttemptedAt: at,
	})
	require.NoError(t, err)
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	r := NewRecorder(db)

	attempt := &models.Attempt{ChallengeID: "c1", Kind: "expression", Difficulty: "easy", Reason: models.ReasonPassed, Success: true}
	require.NoError(t, r.Record(context.Background(), attempt))

	assert.NotZero(t, attempt.ID)
	assert.WithinDuration(t, time.Now(), attempt.AttemptedAt, 5*time.Second)
}

func TestStatsGroupsByKindAndDifficulty(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	r := NewRecorder(db)
	now := time.Now()

	record(t, r, "expression", "easy", true, now)
	record(t, r, "expression", "easy", false, now)
	record(t, r, "expression", "hard", false, now)
	record(t, r, "string", "normal", true, now)
	// outside the window
	record(t, r, "string", "normal", true, now.Add(-48*time.Hour))

	stats, err := r.Stats(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Passed)
	assert.Equal(t, []models.AttemptStat{
		{Kind: "expression", Difficulty: "easy", Total: 2, Passed: 1},
		{Kind: "expression", Difficulty: "hard", Total: 1, Passed: 0},
		{Kind: "string", Difficulty: "normal", Total: 1, Passed: 1},
	}, stats.Groups)
}

func TestStatsEmpty(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	r := NewRecorder(db)

	stats, err := r.Stats(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.NotNil(t, stats.Groups)
	assert.Empty(t, stats.Groups)
}

func TestPruneBefore(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	r := NewRecorder(db)
	now := time.Now()

	record(t, r, "expression", "easy", true, now.Add(-72*time.Hour))
	record(t, r, "expression", "easy", true, now.Add(-25*time.Hour))
	record(t, r, "expression", "easy", true, now)

	removed, err := r.PruneBefore(context.Background(), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var remaining int64
	require.NoError(t, db.Unscoped().Model(&models.Attempt{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestRecorderErrors(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	r := NewRecorder(db)
	require.NoError(t, r.Ping(context.Background()))

	testhelpers.DropAttemptTable(t, db)

	assert.Error(t, r.Record(context.Background(), &models.Attempt{ChallengeID: "c", Reason: models.ReasonPassed}))
	_, err := r.Stats(context.Background(), time.Now())
	assert.Error(t, err)
	_, err = r.PruneBefore(context.Background(), time.Now())
	assert.Error(t, err)
}
