package controller

import (
	"habit_coach_backend/internal/service"
	"habit_coach_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	progress *service.ProgressService
	activity *service.LessonActivityService
}

func NewLessonController(p *service.ProgressService, a *service.LessonActivityService) *LessonController {
	return &LessonController{progress: p, activity: a}
}

type SaveJournalRequest struct {
	Content string `json:"content"`
}

type SetMovementRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// ListLessons godoc
// @Summary 课程目录
// @Description 返回当前阶段全部课程及访问判断，未登录时只有第 1 天可访问
// @Tags 课程
// @Produce json
// @Param today query string false "设备本地日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=[]service.LessonView}
// @Router /lessons [get]
func (c *LessonController) ListLessons(ctx *gin.Context) {
	today, err := parseToday(ctx, c.progress.ServerToday)
	if err != nil {
		respondError(ctx, err)
		return
	}

	views, err := c.progress.ListLessons(ctx.Request.Context(), util.UserIDFromContext(ctx), today)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// CheckAccess godoc
// @Summary 课程访问判断
// @Tags 课程
// @Produce json
// @Param day path int true "课程天数"
// @Param today query string false "设备本地日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=progress.AccessDecision}
// @Router /lessons/day/{day}/access [get]
func (c *LessonController) CheckAccess(ctx *gin.Context) {
	day, ok := util.ParsePositiveInt(ctx.Param("day"))
	if !ok {
		util.BadRequest(ctx, "invalid lesson day")
		return
	}
	today, err := parseToday(ctx, c.progress.ServerToday)
	if err != nil {
		respondError(ctx, err)
		return
	}

	decision, err := c.progress.CanAccessLesson(ctx.Request.Context(), util.UserIDFromContext(ctx), day, today)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, decision)
}

// CompleteLesson godoc
// @Summary 完成课程
// @Description 重复完成同一课程不会改变连续天数
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=service.CompletionResult}
// @Failure 404 {object} util.Response
// @Router /lessons/{id}/complete [post]
func (c *LessonController) CompleteLesson(ctx *gin.Context) {
	result, err := c.progress.CompleteLesson(ctx.Request.Context(), util.UserIDFromContext(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetStatus godoc
// @Summary 课程打卡记录
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.LessonActivity}
// @Router /lessons/{id}/status [get]
func (c *LessonController) GetStatus(ctx *gin.Context) {
	activity, err := c.activity.Get(ctx.Request.Context(), util.UserIDFromContext(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"activity": activity,
		"status":   activity.Status(),
	})
}

// SaveJournal godoc
// @Summary 保存日记
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Param body body SaveJournalRequest true "日记内容"
// @Success 200 {object} util.Response{data=model.LessonActivity}
// @Router /lessons/{id}/journal [put]
func (c *LessonController) SaveJournal(ctx *gin.Context) {
	var req SaveJournalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	activity, err := c.activity.SaveJournal(ctx.Request.Context(), util.UserIDFromContext(ctx), ctx.Param("id"), req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, activity)
}

// UploadJournalAttachment godoc
// @Summary 上传日记图片
// @Tags 课程
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Param file formData file true "图片 jpg/png/webp"
// @Success 200 {object} util.Response{data=model.LessonActivity}
// @Failure 413 {object} util.Response
// @Router /lessons/{id}/journal/attachment [post]
func (c *LessonController) UploadJournalAttachment(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.activity.MaxUploadBytes()+1<<20)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.BadRequest(ctx, "cannot read file")
		return
	}
	defer file.Close()

	activity, err := c.activity.UploadJournalAttachment(
		ctx.Request.Context(),
		util.UserIDFromContext(ctx),
		ctx.Param("id"),
		fileHeader.Filename,
		fileHeader.Size,
		file,
	)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, activity)
}

// SetMovement godoc
// @Summary 运动打卡
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Param body body SetMovementRequest true "是否完成"
// @Success 200 {object} util.Response{data=model.LessonActivity}
// @Router /lessons/{id}/movement [put]
func (c *LessonController) SetMovement(ctx *gin.Context) {
	var req SetMovementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	activity, err := c.activity.SetMovement(ctx.Request.Context(), util.UserIDFromContext(ctx), ctx.Param("id"), *req.Completed)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, activity)
}
