package model

import (
	"habit_coach_backend/internal/progress"
	"time"
)

// LessonActivity 课程的日记与运动打卡
// swagger:model
type LessonActivity struct {
	UUIDBase
	UserID              uint       `gorm:"not null;uniqueIndex:idx_user_lesson_activity" json:"userId"`
	LessonID            string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_lesson_activity" json:"lessonId"`
	JournalContent      string     `gorm:"type:text" json:"journalContent"`
	JournalAttachment   string     `gorm:"type:varchar(512)" json:"journalAttachment,omitempty"`
	JournalCompletedAt  *time.Time `json:"journalCompletedAt,omitempty"`
	MovementCompletedAt *time.Time `json:"movementCompletedAt,omitempty"`
}

func (LessonActivity) TableName() string {
	return "lesson_activities"
}

func (a *LessonActivity) Status() progress.LessonStatus {
	if a == nil {
		return progress.LessonStatus{}
	}
	return progress.LessonStatus{
		JournalComplete:  a.JournalCompletedAt != nil,
		MovementComplete: a.MovementCompletedAt != nil,
	}
}
