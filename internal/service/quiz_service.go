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
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizService struct {
	attemptRepo  *repository.QuizAttemptRepository
	progressRepo *repository.ProgressRepository
	gates        *GateProvider
	locker       Locker
	now          func() time.Time
}

func NewQuizService(attemptRepo *repository.QuizAttemptRepository, progressRepo *repository.ProgressRepository, gates *GateProvider, locker Locker) *QuizService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &QuizService{
		attemptRepo:  attemptRepo,
		progressRepo: progressRepo,
		gates:        gates,
		locker:       locker,
		now:          time.Now,
	}
}

func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// AttemptResult 提交测验后的结果
type AttemptResult struct {
	Attempt        *model.QuizAttempt     `json:"attempt,omitempty"`
	Retry          progress.RetryDecision `json:"retry"`
	CurrentChapter int                    `json:"currentChapter"`
}

// RecordAttempt 记录一次章节测验。
// 只能作答 currentChapter 及之前的章节，否则返回 ErrQuizChapterLocked；
// 冷却中返回 ErrQuizCooldown 并附带剩余时间；已通过的章节返回 ErrQuizAlreadyPassed。
// 通过时测验记录与章节推进在同一事务中写入。
func (s *QuizService) RecordAttempt(ctx context.Context, userID uint, chapterID, score int, passed bool, missedTopics []string) (*AttemptResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizService.RecordAttempt")
	defer span.End()
	span.SetAttributes(attribute.Int("quiz.chapter", chapterID), attribute.Bool("quiz.passed", passed))

	if userID == 0 {
		return nil, util.ErrNotAuthenticated
	}
	if err := s.checkChapter(chapterID); err != nil {
		return nil, err
	}

	row, err := s.progressRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProgressNotFound
		}
		return nil, err
	}
	// currentChapter 只增不减，锁外读到的旧值只会更严格
	if chapterID > row.CurrentChapter {
		return nil, util.ErrQuizChapterLocked
	}

	// 冷却检查和写入之间不能插入同一章节的另一次提交
	unlock, err := s.locker.Lock(ctx, quizLockKey(userID, chapterID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	existing, err := s.attemptRepo.ListByUserAndChapter(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}
	history := model.ToAttempts(existing)

	retry := progress.CanRetryQuiz(chapterID, history, now)
	switch {
	case retry.State == progress.QuizPassed:
		return &AttemptResult{Retry: retry, CurrentChapter: row.CurrentChapter}, util.ErrQuizAlreadyPassed
	case !retry.CanRetry:
		return &AttemptResult{Retry: retry, CurrentChapter: row.CurrentChapter}, util.ErrQuizCooldown
	}

	attempt, err := s.gates.Gate().RecordQuizAttempt(chapterID, score, passed, missedTopics, now)
	if err != nil {
		return nil, err
	}

	record := model.NewQuizAttempt(userID, attempt)
	if passed {
		err = s.attemptRepo.CreatePassingAttempt(ctx, record)
	} else {
		err = s.attemptRepo.Create(ctx, record)
	}
	if err != nil {
		return nil, err
	}

	monitoring.QuizAttempts.WithLabelValues(strconv.FormatBool(passed)).Inc()
	logger.WithUser(userID).Info("quiz attempt recorded",
		zap.Int("chapter", chapterID),
		zap.Int("score", score),
		zap.Bool("passed", passed),
	)

	currentChapter := row.CurrentChapter
	if passed {
		currentChapter = progress.AdvanceChapter(progress.Progress{CurrentChapter: currentChapter}, chapterID).CurrentChapter
	}

	return &AttemptResult{
		Attempt:        record,
		Retry:          progress.CanRetryQuiz(chapterID, append(history, attempt), now),
		CurrentChapter: currentChapter,
	}, nil
}

// CanRetry 未登录时返回不可重试
func (s *QuizService) CanRetry(ctx context.Context, userID uint, chapterID int) (progress.RetryDecision, error) {
	if userID == 0 {
		return progress.RetryDecision{CanRetry: false, State: progress.QuizNotAttempted}, nil
	}
	if err := s.checkChapter(chapterID); err != nil {
		return progress.RetryDecision{}, err
	}

	rows, err := s.attemptRepo.ListByUserAndChapter(ctx, userID, chapterID)
	if err != nil {
		return progress.RetryDecision{}, err
	}
	return progress.CanRetryQuiz(chapterID, model.ToAttempts(rows), s.now()), nil
}

func (s *QuizService) ListAttempts(ctx context.Context, userID uint, chapterID int) ([]model.QuizAttempt, error) {
	if userID == 0 {
		return []model.QuizAttempt{}, nil
	}
	if err := s.checkChapter(chapterID); err != nil {
		return nil, err
	}
	return s.attemptRepo.ListByUserAndChapter(ctx, userID, chapterID)
}

// checkChapter 章节号必须在当前阶段范围内
func (s *QuizService) checkChapter(chapterID int) error {
	gate := s.gates.Gate()
	if chapterID < 1 || chapterID > gate.ChapterOf(gate.Config().MaxPhaseDay) {
		return util.ErrChapterNotFound
	}
	return nil
}
