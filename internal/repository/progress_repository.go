package repository

import (
	"context"
	"habit_coach_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserID(ctx context.Context, userID uint) (*model.UserProgress, error) {
	var p model.UserProgress
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Create 创建进度行，user_id 唯一，已存在时返回 false
func (r *ProgressRepository) Create(ctx context.Context, p *model.UserProgress) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateSubscriptionStart 只用于修正设备时钟偏差
func (r *ProgressRepository) UpdateSubscriptionStart(ctx context.Context, userID uint, start string) error {
	return r.DB.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ?", userID).
		Update("subscription_start", start).Error
}

func (r *ProgressRepository) CompletedLessonIDs(ctx context.Context, userID uint) ([]string, error) {
	return completedLessonIDs(r.DB.WithContext(ctx), userID)
}

func completedLessonIDs(db *gorm.DB, userID uint) ([]string, error) {
	var ids []string
	err := db.Model(&model.LessonCompletion{}).
		Where("user_id = ?", userID).
		Order("completed_at ASC").
		Pluck("lesson_id", &ids).Error
	return ids, err
}

// CompletionApplier 在事务内根据已完成课程（不含本次）更新进度行
type CompletionApplier func(row *model.UserProgress, completedBefore []string) error

// completionColumns CompleteLesson 写回的列。current_chapter 由测验事务推进，这里不能覆盖
var completionColumns = []string{"current_streak", "longest_streak", "current_day", "updated_at"}

// CompleteLesson 在一个事务里写入完成记录并更新进度。
// 进度行以 SELECT ... FOR UPDATE 读取，跨实例的并发完成按行串行；
// 完成记录依赖 (user_id, lesson_id) 唯一索引，并发重复提交时只有一次返回 inserted=true。
func (r *ProgressRepository) CompleteLesson(ctx context.Context, userID uint, lessonID string, completedAt time.Time, apply CompletionApplier) (inserted bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.UserProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&row).Error
		if err != nil {
			return err
		}

		before, err := completedLessonIDs(tx, userID)
		if err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.LessonCompletion{
			UserID:      userID,
			LessonID:    lessonID,
			CompletedAt: completedAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true

		if err := apply(&row, before); err != nil {
			return err
		}
		return tx.Model(&row).Select(completionColumns).Updates(&row).Error
	})
	return inserted, err
}
