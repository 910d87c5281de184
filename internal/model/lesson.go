package model

import "time"

// Lesson 每天一节的课程内容
// swagger:model
type Lesson struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Phase     int       `gorm:"not null;default:1;uniqueIndex:idx_phase_day" json:"phase"`
	DayNumber int       `gorm:"not null;uniqueIndex:idx_phase_day" json:"dayNumber"`
	Chapter   int       `gorm:"not null;index" json:"chapter"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Lesson) TableName() string {
	return "lessons"
}
