package model

import "time"

// LessonCompletion 课程完成记录，(user_id, lesson_id) 唯一，保证重复完成不会重复计数
// swagger:model
type LessonCompletion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_lesson" json:"userId"`
	LessonID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_lesson" json:"lessonId"`
	CompletedAt time.Time `gorm:"not null" json:"completedAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
