package progress

import (
	"encoding/json"
	"sort"
)

// LessonSet 已完成课程的集合，插入顺序无意义
type LessonSet struct {
	ids map[string]struct{}
}

func NewLessonSet(ids ...string) LessonSet {
	s := LessonSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Add 加入课程，已存在时返回 false
func (s *LessonSet) Add(id string) bool {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s LessonSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s LessonSet) Len() int {
	return len(s.ids)
}

// IDs 返回排序后的课程ID
func (s LessonSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s LessonSet) Clone() LessonSet {
	return NewLessonSet(s.IDs()...)
}

func (s LessonSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *LessonSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewLessonSet(ids...)
	return nil
}

// LessonStatus 课程的日记与运动完成情况，由日记协作方提供
type LessonStatus struct {
	JournalComplete  bool `json:"journalComplete"`
	MovementComplete bool `json:"movementComplete"`
}

// FullyComplete 日记和运动都完成才算完整完成
func (s LessonStatus) FullyComplete() bool {
	return s.JournalComplete && s.MovementComplete
}

// Streak 连续完成计数。每完成一节新课 Current 加一，与日历是否连续无关。
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Progress 用户进度快照
type Progress struct {
	SubscriptionStart Date      `json:"subscriptionStart"`
	CompletedLessons  LessonSet `json:"completedLessons"`
	Streak            Streak    `json:"streak"`
	CurrentChapter    int       `json:"currentChapter"`
	CurrentDay        int       `json:"currentDay"`
}

func (p Progress) Clone() Progress {
	p.CompletedLessons = p.CompletedLessons.Clone()
	return p
}
