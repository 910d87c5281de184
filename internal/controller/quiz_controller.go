package controller

import (
	"errors"
	"habit_coach_backend/internal/service"
	"habit_coach_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	service *service.QuizService
}

func NewQuizController(s *service.QuizService) *QuizController {
	return &QuizController{service: s}
}

type RecordAttemptRequest struct {
	Score        *int     `json:"score" binding:"required,min=0,max=100"`
	Passed       *bool    `json:"passed" binding:"required"`
	MissedTopics []string `json:"missedTopics"`
}

func chapterParam(ctx *gin.Context) (int, bool) {
	chapterID, ok := util.ParsePositiveInt(ctx.Param("chapterId"))
	if !ok {
		util.BadRequest(ctx, "invalid chapter id")
		return 0, false
	}
	return chapterID, true
}

// RecordAttempt godoc
// @Summary 提交章节测验
// @Description 只能作答已到达的章节，否则返回 403。未通过后 24 小时内不能重试，冷却中返回 429 及剩余时间
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param chapterId path int true "章节"
// @Param body body RecordAttemptRequest true "测验结果"
// @Success 201 {object} util.Response{data=service.AttemptResult}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 429 {object} util.Response{data=service.AttemptResult}
// @Router /quizzes/{chapterId}/attempts [post]
func (c *QuizController) RecordAttempt(ctx *gin.Context) {
	chapterID, ok := chapterParam(ctx)
	if !ok {
		return
	}

	var req RecordAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.service.RecordAttempt(ctx.Request.Context(), util.UserIDFromContext(ctx), chapterID, *req.Score, *req.Passed, req.MissedTopics)
	if err != nil {
		if errors.Is(err, util.ErrQuizCooldown) {
			util.ErrorWithData(ctx, http.StatusTooManyRequests, err.Error(), result)
			return
		}
		respondError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// ListAttempts godoc
// @Summary 章节测验记录
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param chapterId path int true "章节"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /quizzes/{chapterId}/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	chapterID, ok := chapterParam(ctx)
	if !ok {
		return
	}

	attempts, err := c.service.ListAttempts(ctx.Request.Context(), util.UserIDFromContext(ctx), chapterID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// CanRetry godoc
// @Summary 是否可以重新测验
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param chapterId path int true "章节"
// @Success 200 {object} util.Response{data=progress.RetryDecision}
// @Router /quizzes/{chapterId}/retry [get]
func (c *QuizController) CanRetry(ctx *gin.Context) {
	chapterID, ok := chapterParam(ctx)
	if !ok {
		return
	}

	decision, err := c.service.CanRetry(ctx.Request.Context(), util.UserIDFromContext(ctx), chapterID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, decision)
}
