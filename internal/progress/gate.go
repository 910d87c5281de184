package progress

import (
	"sort"
	"time"
)

const (
	DefaultMaxPhaseDay   = 30
	DefaultChapterSize   = 5
	DefaultRetryCooldown = 24 * time.Hour
)

// DefaultChapterBoundaries 需要先通过上一章测验才能进入的课程日
var DefaultChapterBoundaries = []int{6, 11, 16, 21, 26}

// Config 课程解锁规则
type Config struct {
	MaxPhaseDay       int
	ChapterSize       int
	ChapterBoundaries []int
	RetryCooldown     time.Duration
	Location          *time.Location
}

func DefaultConfig() Config {
	return Config{
		MaxPhaseDay:       DefaultMaxPhaseDay,
		ChapterSize:       DefaultChapterSize,
		ChapterBoundaries: append([]int(nil), DefaultChapterBoundaries...),
		RetryCooldown:     DefaultRetryCooldown,
		Location:          time.Local,
	}
}

// Gate 根据进度事实判断课程是否可访问。所有方法都是纯函数，可并发使用。
type Gate struct {
	cfg Config
}

func NewGate(cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.MaxPhaseDay < 1 {
		cfg.MaxPhaseDay = def.MaxPhaseDay
	}
	if cfg.ChapterSize < 1 {
		cfg.ChapterSize = def.ChapterSize
	}
	if cfg.ChapterBoundaries == nil {
		cfg.ChapterBoundaries = def.ChapterBoundaries
	}
	if cfg.RetryCooldown <= 0 {
		cfg.RetryCooldown = def.RetryCooldown
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	boundaries := append([]int(nil), cfg.ChapterBoundaries...)
	sort.Ints(boundaries)
	cfg.ChapterBoundaries = boundaries
	return &Gate{cfg: cfg}
}

func (g *Gate) Config() Config {
	cfg := g.cfg
	cfg.ChapterBoundaries = append([]int(nil), g.cfg.ChapterBoundaries...)
	return cfg
}

// Today 当前时刻在规则时区下的日历日
func (g *Gate) Today(now time.Time) Date {
	return DateOf(now.In(g.cfg.Location))
}

// CalculateUnlockedDay 按订阅开始日计算今天最多可以看到第几天的课程。
// 开始当天即解锁第 1 天，结果封顶于 MaxPhaseDay。
func (g *Gate) CalculateUnlockedDay(start, today Date) int {
	unlocked := DaysBetween(start, today, g.cfg.Location) + 1
	if unlocked < 1 {
		return 1
	}
	if unlocked > g.cfg.MaxPhaseDay {
		return g.cfg.MaxPhaseDay
	}
	return unlocked
}

// CurrentDay 下一节待学习的课程日
func (g *Gate) CurrentDay(completedCount int) int {
	next := completedCount + 1
	if next > g.cfg.MaxPhaseDay {
		return g.cfg.MaxPhaseDay
	}
	return next
}

// ChapterOf 课程日所属章节
func (g *Gate) ChapterOf(lessonDay int) int {
	if lessonDay < 1 {
		return 0
	}
	return (lessonDay + g.cfg.ChapterSize - 1) / g.cfg.ChapterSize
}

// RequiredChapter 访问 lessonDay 所需的最小 currentChapter，没有边界限制时返回 0
func (g *Gate) RequiredChapter(lessonDay int) int {
	required := 0
	for _, boundary := range g.cfg.ChapterBoundaries {
		if boundary > lessonDay {
			break
		}
		if ch := g.ChapterOf(boundary); ch > required {
			required = ch
		}
	}
	return required
}

// CanAccessLesson 判断课程是否可访问，按顺序检查，第一个失败的检查即为结果。
// previous 为前一节课的完成情况，前一节课不存在时传 nil。
func (g *Gate) CanAccessLesson(lessonDay int, p *Progress, previous *LessonStatus, today Date) AccessDecision {
	if lessonDay == 1 {
		return allow(lessonDay)
	}
	if lessonDay < 1 || lessonDay > g.cfg.MaxPhaseDay {
		return deny(lessonDay, ReasonLessonNotFound)
	}
	if p == nil || p.SubscriptionStart.IsZero() {
		return deny(lessonDay, ReasonNoProgress)
	}

	unlocked := g.CalculateUnlockedDay(p.SubscriptionStart, today)
	if lessonDay > unlocked {
		d := deny(lessonDay, ReasonNotAvailableYet)
		d.UnlockedDay = unlocked
		return d
	}

	if required := g.RequiredChapter(lessonDay); required > 0 && p.CurrentChapter < required {
		d := deny(lessonDay, ReasonChapterQuiz)
		d.UnlockedDay = unlocked
		d.RequiredChapter = required
		return d
	}

	if previous != nil && !previous.FullyComplete() {
		d := deny(lessonDay, previousLessonReason(*previous))
		d.UnlockedDay = unlocked
		status := *previous
		d.PreviousLessonStatus = &status
		return d
	}

	d := allow(lessonDay)
	d.UnlockedDay = unlocked
	return d
}

func previousLessonReason(s LessonStatus) ReasonCode {
	switch {
	case !s.JournalComplete && !s.MovementComplete:
		return ReasonPreviousIncomplete
	case !s.JournalComplete:
		return ReasonPreviousJournal
	default:
		return ReasonPreviousMovement
	}
}

// CompleteLesson 记录课程完成，返回新的进度，入参不会被修改。
// 重复完成同一课程不会改变连续计数。
func (g *Gate) CompleteLesson(lessonID string, p Progress) Progress {
	next := p.Clone()
	if next.CompletedLessons.Add(lessonID) {
		next.Streak.Current++
	}
	if next.Streak.Longest < next.Streak.Current {
		next.Streak.Longest = next.Streak.Current
	}
	next.CurrentDay = g.CurrentDay(next.CompletedLessons.Len())
	return next
}

// AdvanceChapter 通过第 passedChapter 章测验后，currentChapter 至少推进到下一章
func AdvanceChapter(p Progress, passedChapter int) Progress {
	if p.CurrentChapter < passedChapter+1 {
		p.CurrentChapter = passedChapter + 1
	}
	return p
}
