package util

import "errors"

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrProgressNotFound    = errors.New("no progress found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrChapterNotFound     = errors.New("chapter not found")
	ErrQuizCooldown        = errors.New("quiz retry is cooling down")
	ErrQuizAlreadyPassed   = errors.New("quiz already passed")
	ErrQuizChapterLocked   = errors.New("pass the earlier chapter quizzes first")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrLockNotAcquired     = errors.New("another request for this user is in progress")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)
