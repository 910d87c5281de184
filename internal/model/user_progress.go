package model

import (
	"habit_coach_backend/internal/progress"
)

// UserProgress 用户的课程进度，每个用户一行
// swagger:model
type UserProgress struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex;not null" json:"userId"`
	// SubscriptionStart 订阅开始日（YYYY-MM-DD），第 1 天的锚点
	SubscriptionStart string `gorm:"type:varchar(10);not null" json:"subscriptionStart"`
	CurrentStreak     int    `gorm:"default:0" json:"currentStreak"`
	LongestStreak     int    `gorm:"default:0" json:"longestStreak"`
	CurrentChapter    int    `gorm:"default:1" json:"currentChapter"`
	CurrentDay        int    `gorm:"default:1" json:"currentDay"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// ToProgress 转换为解锁规则使用的快照
func (p *UserProgress) ToProgress(completed []string) (progress.Progress, error) {
	start, err := progress.ParseDate(p.SubscriptionStart)
	if err != nil {
		return progress.Progress{}, err
	}
	chapter := p.CurrentChapter
	if chapter < 1 {
		chapter = 1
	}
	return progress.Progress{
		SubscriptionStart: start,
		CompletedLessons:  progress.NewLessonSet(completed...),
		Streak:            progress.Streak{Current: p.CurrentStreak, Longest: p.LongestStreak},
		CurrentChapter:    chapter,
		CurrentDay:        p.CurrentDay,
	}, nil
}

// ApplyProgress 将计算后的快照写回行
func (p *UserProgress) ApplyProgress(snapshot progress.Progress) {
	p.CurrentStreak = snapshot.Streak.Current
	p.LongestStreak = snapshot.Streak.Longest
	p.CurrentChapter = snapshot.CurrentChapter
	p.CurrentDay = snapshot.CurrentDay
}
