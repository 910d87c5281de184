package repository

import (
	"context"
	"habit_coach_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Create(attempt).Error
}

// CreatePassingAttempt 写入通过的测验并把 current_chapter 推进到至少 chapter+1，两步在同一事务中完成
func (r *QuizAttemptRepository) CreatePassingAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		next := attempt.ChapterID + 1
		return tx.Model(&model.UserProgress{}).
			Where("user_id = ? AND current_chapter < ?", attempt.UserID, next).
			Update("current_chapter", next).Error
	})
}

// ListByUserAndChapter 按作答时间升序
func (r *QuizAttemptRepository) ListByUserAndChapter(ctx context.Context, userID uint, chapterID int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND chapter_id = ?", userID, chapterID).
		Order("attempted_at ASC, id ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) ListByUser(ctx context.Context, userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("chapter_id ASC, attempted_at ASC").
		Find(&attempts).Error
	return attempts, err
}
