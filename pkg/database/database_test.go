package database

import (
	"fmt"
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/model"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestMigrate_SeedsCatalog(t *testing.T) {
	db := openTestDB(t)
	program := config.ProgramConfig{Phase: 1, MaxPhaseDay: 30, ChapterSize: 5}

	require.NoError(t, Migrate(db, program))
	// 重复执行不会重复写入
	require.NoError(t, Migrate(db, program))

	var lessons []model.Lesson
	require.NoError(t, db.Order("day_number").Find(&lessons).Error)
	require.Len(t, lessons, 30)
	assert.Equal(t, "phase1-day01", lessons[0].ID)
	assert.Equal(t, 1, lessons[4].Chapter)
	assert.Equal(t, 2, lessons[5].Chapter)
	assert.Equal(t, 6, lessons[29].Chapter)
}

func TestSeedLessonCatalog_InvalidSize(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, SeedLessonCatalog(db, 1, 0, 5))
}
