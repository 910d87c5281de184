package controller

import (
	"errors"
	"habit_coach_backend/internal/progress"
	"habit_coach_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 把服务层错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNotAuthenticated):
		util.Unauthorized(ctx)
	case errors.Is(err, util.ErrProgressNotFound),
		errors.Is(err, util.ErrLessonNotFound),
		errors.Is(err, util.ErrChapterNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidDate),
		errors.Is(err, util.ErrUnsupportedFileType),
		errors.Is(err, progress.ErrInvalidScore),
		errors.Is(err, progress.ErrInvalidChapter):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrFileTooLarge):
		util.Error(ctx, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, util.ErrQuizChapterLocked):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrQuizAlreadyPassed):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrLockNotAcquired):
		util.Error(ctx, http.StatusConflict, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// parseToday 读取设备本地日期 today=YYYY-MM-DD，缺省时使用 fallback
func parseToday(ctx *gin.Context, fallback func() progress.Date) (progress.Date, error) {
	raw := ctx.Query("today")
	if raw == "" {
		return fallback(), nil
	}
	d, err := progress.ParseDate(raw)
	if err != nil {
		return progress.Date{}, util.ErrInvalidDate
	}
	return d, nil
}
