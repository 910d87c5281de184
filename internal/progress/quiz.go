package progress

import (
	"errors"
	"time"
)

var (
	ErrInvalidScore   = errors.New("quiz score must be between 0 and 100")
	ErrInvalidChapter = errors.New("chapter id must be positive")
)

// QuizAttempt 一次章节测验记录，创建后不再修改
type QuizAttempt struct {
	ChapterID    int        `json:"chapterId"`
	Score        int        `json:"score"`
	Passed       bool       `json:"passed"`
	MissedTopics []string   `json:"missedTopics,omitempty"`
	CanRetryAt   *time.Time `json:"canRetryAt,omitempty"`
	AttemptedAt  time.Time  `json:"attemptedAt"`
}

// QuizState 单个章节测验的状态
type QuizState string

const (
	QuizNotAttempted    QuizState = "not_attempted"
	QuizFailedCooldown  QuizState = "failed_cooldown"
	QuizFailedRetryable QuizState = "failed_retryable"
	QuizPassed          QuizState = "passed"
)

// RetryDecision 是否可以重新测验
type RetryDecision struct {
	CanRetry bool          `json:"canRetry"`
	State    QuizState     `json:"state"`
	WaitTime time.Duration `json:"-"`
	// WaitTimeMs 冷却剩余毫秒数，仅冷却中时有值
	WaitTimeMs int64 `json:"waitTimeMs,omitempty"`
}

// RecordQuizAttempt 构造测验记录。未通过时 canRetryAt = now + RetryCooldown。
// 通过后推进章节由调用方在同一事务内完成。
func (g *Gate) RecordQuizAttempt(chapterID, score int, passed bool, missedTopics []string, now time.Time) (QuizAttempt, error) {
	if chapterID < 1 {
		return QuizAttempt{}, ErrInvalidChapter
	}
	if score < 0 || score > 100 {
		return QuizAttempt{}, ErrInvalidScore
	}

	attempt := QuizAttempt{
		ChapterID:    chapterID,
		Score:        score,
		Passed:       passed,
		MissedTopics: append([]string(nil), missedTopics...),
		AttemptedAt:  now,
	}
	if !passed {
		retryAt := now.Add(g.cfg.RetryCooldown)
		attempt.CanRetryAt = &retryAt
	}
	return attempt, nil
}

// LatestAttempt 返回章节最近一次测验
func LatestAttempt(chapterID int, attempts []QuizAttempt) (QuizAttempt, bool) {
	var latest QuizAttempt
	found := false
	for _, a := range attempts {
		if a.ChapterID != chapterID {
			continue
		}
		if !found || a.AttemptedAt.After(latest.AttemptedAt) {
			latest = a
			found = true
		}
	}
	return latest, found
}

// CanRetryQuiz 只看最近一次测验。冷却到期后自动变为可重试，不需要存储状态变更。
func CanRetryQuiz(chapterID int, attempts []QuizAttempt, now time.Time) RetryDecision {
	latest, ok := LatestAttempt(chapterID, attempts)
	if !ok {
		return RetryDecision{CanRetry: true, State: QuizNotAttempted}
	}
	if latest.Passed {
		return RetryDecision{CanRetry: false, State: QuizPassed}
	}
	if latest.CanRetryAt == nil || !now.Before(*latest.CanRetryAt) {
		return RetryDecision{CanRetry: true, State: QuizFailedRetryable}
	}

	wait := latest.CanRetryAt.Sub(now)
	return RetryDecision{
		CanRetry:   false,
		State:      QuizFailedCooldown,
		WaitTime:   wait,
		WaitTimeMs: wait.Milliseconds(),
	}
}
