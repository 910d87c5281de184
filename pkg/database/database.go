package database

import (
	"fmt"
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 建表并写入默认课程目录
func Migrate(db *gorm.DB, program config.ProgramConfig) error {
	err := db.AutoMigrate(
		&model.UserProgress{},
		&model.LessonCompletion{},
		&model.Lesson{},
		&model.LessonActivity{},
		&model.QuizAttempt{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")

	return SeedLessonCatalog(db, program.Phase, program.MaxPhaseDay, program.ChapterSize)
}

// LessonID 默认课程目录的课程ID
func LessonID(phase, dayNumber int) string {
	return fmt.Sprintf("phase%d-day%02d", phase, dayNumber)
}

// SeedLessonCatalog 补齐某一阶段的课程目录，已存在的课程不会被覆盖
func SeedLessonCatalog(db *gorm.DB, phase, days, chapterSize int) error {
	if days < 1 || chapterSize < 1 {
		return fmt.Errorf("invalid catalog size: days=%d chapterSize=%d", days, chapterSize)
	}

	var count int64
	if err := db.Model(&model.Lesson{}).Where("phase = ?", phase).Count(&count).Error; err != nil {
		return err
	}
	if count >= int64(days) {
		return nil
	}

	lessons := make([]model.Lesson, 0, days)
	for d := 1; d <= days; d++ {
		lessons = append(lessons, model.Lesson{
			ID:        LessonID(phase, d),
			Phase:     phase,
			DayNumber: d,
			Chapter:   (d + chapterSize - 1) / chapterSize,
			Title:     fmt.Sprintf("Day %d", d),
		})
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lessons).Error
}
