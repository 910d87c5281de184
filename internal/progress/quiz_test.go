package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordQuizAttempt(t *testing.T) {
	g := newTestGate()
	now := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)

	failed, err := g.RecordQuizAttempt(1, 40, false, []string{"sleep"}, now)
	require.NoError(t, err)
	require.NotNil(t, failed.CanRetryAt)
	assert.Equal(t, now.Add(24*time.Hour), *failed.CanRetryAt)
	assert.Equal(t, []string{"sleep"}, failed.MissedTopics)

	passed, err := g.RecordQuizAttempt(1, 90, true, nil, now)
	require.NoError(t, err)
	assert.Nil(t, passed.CanRetryAt)
}

func TestRecordQuizAttempt_Validation(t *testing.T) {
	g := newTestGate()
	now := time.Now()

	_, err := g.RecordQuizAttempt(1, 101, true, nil, now)
	assert.ErrorIs(t, err, ErrInvalidScore)
	_, err = g.RecordQuizAttempt(1, -1, false, nil, now)
	assert.ErrorIs(t, err, ErrInvalidScore)
	_, err = g.RecordQuizAttempt(0, 50, false, nil, now)
	assert.ErrorIs(t, err, ErrInvalidChapter)
}

func TestCanRetryQuiz_NoAttempts(t *testing.T) {
	d := CanRetryQuiz(1, nil, time.Now())
	assert.True(t, d.CanRetry)
	assert.Equal(t, QuizNotAttempted, d.State)
}

func TestCanRetryQuiz_Cooldown(t *testing.T) {
	g := newTestGate()
	attemptedAt := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	attempt, err := g.RecordQuizAttempt(2, 30, false, nil, attemptedAt)
	require.NoError(t, err)
	attempts := []QuizAttempt{attempt}

	d := CanRetryQuiz(2, attempts, attemptedAt.Add(23*time.Hour+59*time.Minute))
	assert.False(t, d.CanRetry)
	assert.Equal(t, QuizFailedCooldown, d.State)
	assert.Equal(t, time.Minute, d.WaitTime)
	assert.Equal(t, int64(60000), d.WaitTimeMs)

	d = CanRetryQuiz(2, attempts, attemptedAt.Add(24*time.Hour+time.Second))
	assert.True(t, d.CanRetry)
	assert.Equal(t, QuizFailedRetryable, d.State)
	assert.Zero(t, d.WaitTimeMs)

	d = CanRetryQuiz(2, attempts, *attempt.CanRetryAt)
	assert.True(t, d.CanRetry)
}

func TestCanRetryQuiz_PassedIsTerminal(t *testing.T) {
	now := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	attempts := []QuizAttempt{
		{ChapterID: 1, Passed: true, Score: 80, AttemptedAt: now},
	}

	d := CanRetryQuiz(1, attempts, now.Add(72*time.Hour))
	assert.False(t, d.CanRetry)
	assert.Equal(t, QuizPassed, d.State)
	assert.Zero(t, d.WaitTime)
}

func TestCanRetryQuiz_FailedWithoutCooldown(t *testing.T) {
	now := time.Now()
	attempts := []QuizAttempt{{ChapterID: 3, Passed: false, AttemptedAt: now}}

	assert.True(t, CanRetryQuiz(3, attempts, now).CanRetry)
}

func TestCanRetryQuiz_UsesLatestAttemptOfChapter(t *testing.T) {
	base := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	retryAt := base.Add(48 * time.Hour)
	attempts := []QuizAttempt{
		{ChapterID: 1, Passed: false, AttemptedAt: base.Add(24 * time.Hour), CanRetryAt: &retryAt},
		{ChapterID: 1, Passed: true, AttemptedAt: base},
		{ChapterID: 2, Passed: true, AttemptedAt: base.Add(30 * time.Hour)},
	}

	latest, ok := LatestAttempt(1, attempts)
	require.True(t, ok)
	assert.False(t, latest.Passed)

	d := CanRetryQuiz(1, attempts, base.Add(25*time.Hour))
	assert.False(t, d.CanRetry)
	assert.Equal(t, QuizFailedCooldown, d.State)
	assert.Equal(t, 23*time.Hour, d.WaitTime)
}
