package repository

import (
	"context"
	"errors"
	"habit_coach_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProgressRepository_CreateIsOncePerUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	seedProgress(t, db, 7, "2024-01-01")

	created, err := repo.Create(ctx, &model.UserProgress{UserID: 7, SubscriptionStart: "2024-05-05"})
	require.NoError(t, err)
	assert.False(t, created)

	row, err := repo.FindByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", row.SubscriptionStart)
}

func TestProgressRepository_FindMissing(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))

	_, err := repo.FindByUserID(context.Background(), 99)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestProgressRepository_CompleteLesson(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()
	seedProgress(t, db, 1, "2024-01-01")

	calls := 0
	apply := func(row *model.UserProgress, before []string) error {
		calls++
		row.CurrentStreak = len(before) + 1
		row.LongestStreak = row.CurrentStreak
		return nil
	}

	inserted, err := repo.CompleteLesson(ctx, 1, "phase1-day01", time.Now(), apply)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.CompleteLesson(ctx, 1, "phase1-day01", time.Now(), apply)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, calls)

	inserted, err = repo.CompleteLesson(ctx, 1, "phase1-day02", time.Now(), apply)
	require.NoError(t, err)
	assert.True(t, inserted)

	ids, err := repo.CompletedLessonIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"phase1-day01", "phase1-day02"}, ids)

	row, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, row.CurrentStreak)
}

// 完成课程只写连续计数和当前天数，测验推进的章节和开始日不会被旧快照覆盖
func TestProgressRepository_CompleteLessonKeepsOtherColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()
	seedProgress(t, db, 1, "2024-01-01")
	require.NoError(t, db.Model(&model.UserProgress{}).Where("user_id = ?", 1).Update("current_chapter", 2).Error)

	inserted, err := repo.CompleteLesson(ctx, 1, "phase1-day01", time.Now(), func(row *model.UserProgress, before []string) error {
		// 旧快照里的章节和开始日
		row.CurrentChapter = 1
		row.SubscriptionStart = "1999-01-01"
		row.CurrentStreak = len(before) + 1
		row.LongestStreak = row.CurrentStreak
		row.CurrentDay = 2
		return nil
	})
	require.NoError(t, err)
	require.True(t, inserted)

	row, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, row.CurrentChapter)
	assert.Equal(t, "2024-01-01", row.SubscriptionStart)
	assert.Equal(t, 1, row.CurrentStreak)
	assert.Equal(t, 1, row.LongestStreak)
	assert.Equal(t, 2, row.CurrentDay)
}

func TestProgressRepository_CompleteLessonRollsBackOnApplyError(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()
	seedProgress(t, db, 1, "2024-01-01")

	boom := errors.New("boom")
	_, err := repo.CompleteLesson(ctx, 1, "phase1-day01", time.Now(), func(*model.UserProgress, []string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ids, err := repo.CompletedLessonIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProgressRepository_CompleteLessonWithoutProgress(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))

	_, err := repo.CompleteLesson(context.Background(), 5, "phase1-day01", time.Now(), func(*model.UserProgress, []string) error {
		return nil
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProgressRepository_UpdateSubscriptionStart(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()
	seedProgress(t, db, 3, "2024-03-10")

	require.NoError(t, repo.UpdateSubscriptionStart(ctx, 3, "2024-03-08"))
	row, err := repo.FindByUserID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", row.SubscriptionStart)
}
