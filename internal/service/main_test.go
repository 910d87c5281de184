package service

import (
	"context"
	"fmt"
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/model"
	"habit_coach_backend/internal/repository"
	"habit_coach_backend/pkg/database"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testProgram = config.ProgramConfig{
	Phase:              1,
	MaxPhaseDay:        30,
	ChapterSize:        5,
	ChapterBoundaries:  []int{6, 11, 16, 21, 26},
	RetryCooldownHours: 24,
	Timezone:           "UTC",
}

// 2025-03-10 09:00 UTC
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	progress *ProgressService
	quiz     *QuizService
	activity *LessonActivityService
	clock    *time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db, testProgram))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	gates, err := NewGateProvider(testProgram)
	require.NoError(t, err)

	now := testNow
	f := &fixture{db: db, clock: &now}
	clock := func() time.Time { return *f.clock }

	progressRepo := repository.NewProgressRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	activityRepo := repository.NewLessonActivityRepository(db)
	locker := NewLocalLocker()

	f.progress = NewProgressService(progressRepo, lessonRepo, activityRepo, gates, locker).WithClock(clock)
	f.quiz = NewQuizService(repository.NewQuizAttemptRepository(db), progressRepo, gates, locker).WithClock(clock)
	storage := &StorageService{Provider: &LocalStorageProvider{Root: t.TempDir()}}
	f.activity = NewLessonActivityService(activityRepo, lessonRepo, storage, 1).WithClock(clock)
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) seedProgress(t *testing.T, userID uint, start string) {
	t.Helper()
	created, err := repository.NewProgressRepository(f.db).Create(context.Background(), &model.UserProgress{
		UserID:            userID,
		SubscriptionStart: start,
		CurrentChapter:    1,
		CurrentDay:        1,
	})
	require.NoError(t, err)
	require.True(t, created)
}

// finishLesson 完成某天课程的日记和运动
func (f *fixture) finishLesson(t *testing.T, userID uint, day int) {
	t.Helper()
	ctx := context.Background()
	id := database.LessonID(testProgram.Phase, day)
	_, err := f.activity.SaveJournal(ctx, userID, id, "felt good")
	require.NoError(t, err)
	_, err = f.activity.SetMovement(ctx, userID, id, true)
	require.NoError(t, err)
}
