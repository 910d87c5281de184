package service

import (
	"context"
	"errors"
	"habit_coach_backend/internal/model"
	"habit_coach_backend/internal/progress"
	"habit_coach_backend/internal/repository"
	"habit_coach_backend/internal/util"
	"habit_coach_backend/pkg/logger"
	"habit_coach_backend/pkg/monitoring"
	"habit_coach_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressService struct {
	progressRepo *repository.ProgressRepository
	lessonRepo   *repository.LessonRepository
	activityRepo *repository.LessonActivityRepository
	gates        *GateProvider
	locker       Locker
	now          func() time.Time
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	lessonRepo *repository.LessonRepository,
	activityRepo *repository.LessonActivityRepository,
	gates *GateProvider,
	locker Locker,
) *ProgressService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &ProgressService{
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
		activityRepo: activityRepo,
		gates:        gates,
		locker:       locker,
		now:          time.Now,
	}
}

// WithClock 替换时钟，测试使用
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// ProgressOverview 进度概览
type ProgressOverview struct {
	Started     bool               `json:"started"`
	Progress    *progress.Progress `json:"progress,omitempty"`
	Today       progress.Date      `json:"today"`
	UnlockedDay int                `json:"unlockedDay"`
	CurrentDay  int                `json:"currentDay"`
	MaxPhaseDay int                `json:"maxPhaseDay"`
}

// LessonView 课程目录中的一项
type LessonView struct {
	model.Lesson
	Completed bool                    `json:"completed"`
	Status    progress.LessonStatus   `json:"status"`
	Access    progress.AccessDecision `json:"access"`
}

// CompletionResult 完成课程的结果
type CompletionResult struct {
	LessonID       string            `json:"lessonId"`
	NewlyCompleted bool              `json:"newlyCompleted"`
	Progress       progress.Progress `json:"progress"`
}

// ServerToday 服务器时钟在配置时区下的日期
func (s *ProgressService) ServerToday() progress.Date {
	return s.gates.Gate().Today(s.now())
}

// startSkewDays 设备日期与服务器日期允许相差的天数（时区）
const startSkewDays = 1

// startWindow 可接受的订阅开始日范围，两端都包含
func (s *ProgressService) startWindow() (earliest, latest progress.Date) {
	serverToday := s.ServerToday()
	return serverToday.AddDays(-startSkewDays), serverToday.AddDays(startSkewDays)
}

// StartProgram 记录订阅开始日，只能设置一次，重复调用返回已有进度。
// start 缺省为设备的 today，必须落在服务器今天前后一天内。
func (s *ProgressService) StartProgram(ctx context.Context, userID uint, start, today progress.Date) (*ProgressOverview, error) {
	if userID == 0 {
		return nil, util.ErrNotAuthenticated
	}

	if today.IsZero() {
		today = s.ServerToday()
	}
	if start.IsZero() {
		start = today
	}
	earliest, latest := s.startWindow()
	if start.Before(earliest) || start.After(latest) {
		return nil, util.ErrInvalidDate
	}

	created, err := s.progressRepo.Create(ctx, &model.UserProgress{
		UserID:            userID,
		SubscriptionStart: start.String(),
		CurrentChapter:    1,
		CurrentDay:        1,
	})
	if err != nil {
		return nil, err
	}
	if created {
		logger.WithUser(userID).Info("program started", zap.String("start", start.String()))
	}

	return s.GetOverview(ctx, userID, today)
}

// GetOverview 返回进度、已解锁天数和当前天数
func (s *ProgressService) GetOverview(ctx context.Context, userID uint, today progress.Date) (*ProgressOverview, error) {
	gate := s.gates.Gate()
	overview := &ProgressOverview{
		Today:       today,
		UnlockedDay: 1,
		CurrentDay:  1,
		MaxPhaseDay: gate.Config().MaxPhaseDay,
	}
	if userID == 0 {
		return overview, nil
	}

	p, err := s.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return overview, nil
	}

	overview.Started = true
	overview.Progress = p
	overview.UnlockedDay = gate.CalculateUnlockedDay(p.SubscriptionStart, today)
	overview.CurrentDay = p.CurrentDay
	return overview, nil
}

// CanAccessLesson 判断第 lessonDay 天的课程今天是否可访问
func (s *ProgressService) CanAccessLesson(ctx context.Context, userID uint, lessonDay int, today progress.Date) (progress.AccessDecision, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ProgressService.CanAccessLesson")
	defer span.End()
	span.SetAttributes(attribute.Int("lesson.day", lessonDay))

	gate := s.gates.Gate()
	if userID == 0 {
		return s.observe(anonymousDecision(gate, lessonDay, today)), nil
	}

	if lessonDay != 1 {
		if _, err := s.lessonRepo.FindByDay(ctx, s.gates.Phase(), lessonDay); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return s.observe(progress.Deny(lessonDay, progress.ReasonLessonNotFound)), nil
			}
			return progress.AccessDecision{}, err
		}
	}

	p, err := s.loadProgress(ctx, userID)
	if err != nil {
		return progress.AccessDecision{}, err
	}
	previous, err := s.previousLessonStatus(ctx, userID, lessonDay)
	if err != nil {
		return progress.AccessDecision{}, err
	}

	decision := gate.CanAccessLesson(lessonDay, p, previous, today)
	span.SetAttributes(attribute.Bool("lesson.accessible", decision.CanAccess))
	return s.observe(decision), nil
}

// ListLessons 返回当前阶段的课程目录及每节课的访问判断
func (s *ProgressService) ListLessons(ctx context.Context, userID uint, today progress.Date) ([]LessonView, error) {
	gate := s.gates.Gate()
	lessons, err := s.lessonRepo.ListByPhase(ctx, s.gates.Phase())
	if err != nil {
		return nil, err
	}

	views := make([]LessonView, 0, len(lessons))
	if userID == 0 {
		for _, l := range lessons {
			views = append(views, LessonView{Lesson: l, Access: anonymousDecision(gate, l.DayNumber, today)})
		}
		return views, nil
	}

	p, err := s.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	activities, err := s.activityRepo.MapByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int]model.Lesson, len(lessons))
	for _, l := range lessons {
		byDay[l.DayNumber] = l
	}

	for _, l := range lessons {
		var previous *progress.LessonStatus
		if prev, ok := byDay[l.DayNumber-1]; ok {
			status := activities[prev.ID].Status()
			previous = &status
		}

		view := LessonView{
			Lesson: l,
			Status: activities[l.ID].Status(),
			Access: gate.CanAccessLesson(l.DayNumber, p, previous, today),
		}
		if p != nil {
			view.Completed = p.CompletedLessons.Has(l.ID)
		}
		views = append(views, view)
	}
	return views, nil
}

// CompleteLesson 标记课程完成。同一用户的请求串行执行，重复完成不会改变连续计数。
func (s *ProgressService) CompleteLesson(ctx context.Context, userID uint, lessonID string) (*CompletionResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ProgressService.CompleteLesson")
	defer span.End()
	span.SetAttributes(attribute.String("lesson.id", lessonID))

	if userID == 0 {
		return nil, util.ErrNotAuthenticated
	}
	if _, err := s.lessonRepo.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, progressLockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	gate := s.gates.Gate()
	inserted, err := s.progressRepo.CompleteLesson(ctx, userID, lessonID, s.now(), func(row *model.UserProgress, completedBefore []string) error {
		current, err := row.ToProgress(completedBefore)
		if err != nil {
			return err
		}
		row.ApplyProgress(gate.CompleteLesson(lessonID, current))
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProgressNotFound
		}
		return nil, err
	}

	p, err := s.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, util.ErrProgressNotFound
	}

	if inserted {
		monitoring.LessonCompletions.Inc()
		logger.WithUser(userID).Info("lesson completed",
			zap.String("lessonId", lessonID),
			zap.Int("streak", p.Streak.Current),
		)
	}

	return &CompletionResult{LessonID: lessonID, NewlyCompleted: inserted, Progress: *p}, nil
}

// loadProgress 未开始时返回 nil
func (s *ProgressService) loadProgress(ctx context.Context, userID uint) (*progress.Progress, error) {
	row, err := s.progressRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.correctClockSkew(ctx, row); err != nil {
		return nil, err
	}

	ids, err := s.progressRepo.CompletedLessonIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := row.ToProgress(ids)
	if err != nil {
		return nil, err
	}
	p.CurrentDay = s.gates.Gate().CurrentDay(p.CompletedLessons.Len())
	return &p, nil
}

// correctClockSkew 开始日晚于 StartProgram 允许的最晚日期时，说明创建时设备时钟超前，改为服务器今天
func (s *ProgressService) correctClockSkew(ctx context.Context, row *model.UserProgress) error {
	start, err := progress.ParseDate(row.SubscriptionStart)
	if err != nil {
		return err
	}
	_, latest := s.startWindow()
	if !start.After(latest) {
		return nil
	}

	today := s.ServerToday()
	logger.WithUser(row.UserID).Warn("subscription start is too far in the future, resetting to today",
		zap.String("stored", row.SubscriptionStart),
		zap.String("today", today.String()),
	)
	if err := s.progressRepo.UpdateSubscriptionStart(ctx, row.UserID, today.String()); err != nil {
		return err
	}
	row.SubscriptionStart = today.String()
	return nil
}

// previousLessonStatus 前一节课的日记与运动完成情况，第 1 天没有前一节课
func (s *ProgressService) previousLessonStatus(ctx context.Context, userID uint, lessonDay int) (*progress.LessonStatus, error) {
	if lessonDay <= 1 {
		return nil, nil
	}
	prev, err := s.lessonRepo.FindByDay(ctx, s.gates.Phase(), lessonDay-1)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	activity, err := s.activityRepo.FindByUserAndLesson(ctx, userID, prev.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	status := activity.Status()
	return &status, nil
}

func (s *ProgressService) observe(d progress.AccessDecision) progress.AccessDecision {
	if !d.CanAccess {
		monitoring.LessonAccessDenied.WithLabelValues(string(d.ReasonCode)).Inc()
	}
	return d
}

func anonymousDecision(gate *progress.Gate, lessonDay int, today progress.Date) progress.AccessDecision {
	if lessonDay == 1 {
		return gate.CanAccessLesson(1, nil, nil, today)
	}
	return progress.Deny(lessonDay, progress.ReasonNotAuthenticated)
}
