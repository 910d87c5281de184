package model

import (
	"habit_coach_backend/internal/progress"
	"time"
)

// QuizAttempt 章节测验记录，只增不改
// swagger:model
type QuizAttempt struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint       `gorm:"not null;index:idx_user_chapter" json:"userId"`
	ChapterID    int        `gorm:"not null;index:idx_user_chapter" json:"chapterId"`
	Score        int        `gorm:"not null" json:"score"`
	Passed       bool       `gorm:"default:false" json:"passed"`
	MissedTopics []string   `gorm:"serializer:json;type:text" json:"missedTopics"`
	CanRetryAt   *time.Time `json:"canRetryAt,omitempty"`
	AttemptedAt  time.Time  `gorm:"not null;index" json:"attemptedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func NewQuizAttempt(userID uint, a progress.QuizAttempt) *QuizAttempt {
	return &QuizAttempt{
		UserID:       userID,
		ChapterID:    a.ChapterID,
		Score:        a.Score,
		Passed:       a.Passed,
		MissedTopics: a.MissedTopics,
		CanRetryAt:   a.CanRetryAt,
		AttemptedAt:  a.AttemptedAt,
	}
}

func (q *QuizAttempt) ToAttempt() progress.QuizAttempt {
	return progress.QuizAttempt{
		ChapterID:    q.ChapterID,
		Score:        q.Score,
		Passed:       q.Passed,
		MissedTopics: q.MissedTopics,
		CanRetryAt:   q.CanRetryAt,
		AttemptedAt:  q.AttemptedAt,
	}
}

// ToAttempts 批量转换
func ToAttempts(rows []QuizAttempt) []progress.QuizAttempt {
	out := make([]progress.QuizAttempt, len(rows))
	for i := range rows {
		out[i] = rows[i].ToAttempt()
	}
	return out
}
