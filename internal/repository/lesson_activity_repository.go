package repository

import (
	"context"
	"habit_coach_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LessonActivityRepository struct {
	DB *gorm.DB
}

func NewLessonActivityRepository(db *gorm.DB) *LessonActivityRepository {
	return &LessonActivityRepository{DB: db}
}

func (r *LessonActivityRepository) FindByUserAndLesson(ctx context.Context, userID uint, lessonID string) (*model.LessonActivity, error) {
	var a model.LessonActivity
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// MapByUser 返回用户全部打卡记录，key 为课程ID
func (r *LessonActivityRepository) MapByUser(ctx context.Context, userID uint) (map[string]*model.LessonActivity, error) {
	var rows []model.LessonActivity
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*model.LessonActivity, len(rows))
	for i := range rows {
		out[rows[i].LessonID] = &rows[i]
	}
	return out, nil
}

// Upsert 按 (user_id, lesson_id) 插入或更新指定列
func (r *LessonActivityRepository) Upsert(ctx context.Context, a *model.LessonActivity, columns ...string) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(a).Error
}
