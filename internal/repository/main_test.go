package repository

import (
	"context"
	"fmt"
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/model"
	"habit_coach_backend/pkg/database"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testProgram = config.ProgramConfig{Phase: 1, MaxPhaseDay: 30, ChapterSize: 5}

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

func seedProgress(t *testing.T, db *gorm.DB, userID uint, start string) *model.UserProgress {
	t.Helper()
	row := &model.UserProgress{UserID: userID, SubscriptionStart: start, CurrentChapter: 1, CurrentDay: 1}
	created, err := NewProgressRepository(db).Create(context.Background(), row)
	require.NoError(t, err)
	require.True(t, created)
	return row
}
