package controller

import (
	"habit_coach_backend/internal/progress"
	"habit_coach_backend/internal/service"
	"habit_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	service *service.ProgressService
}

func NewProgressController(s *service.ProgressService) *ProgressController {
	return &ProgressController{service: s}
}

type StartProgramRequest struct {
	// StartDate 设备本地日期 YYYY-MM-DD，缺省为 today，须在服务器今天前后一天内
	StartDate string `json:"startDate"`
}

// StartProgram godoc
// @Summary 开始课程
// @Description 记录订阅开始日，只能设置一次，重复调用返回已有进度
// @Tags 进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body StartProgramRequest false "开始日期"
// @Param today query string false "设备本地日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=service.ProgressOverview}
// @Failure 400 {object} util.Response
// @Router /progress/start [post]
func (c *ProgressController) StartProgram(ctx *gin.Context) {
	var req StartProgramRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	today, err := parseToday(ctx, c.service.ServerToday)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var start progress.Date
	if req.StartDate != "" {
		d, err := progress.ParseDate(req.StartDate)
		if err != nil {
			util.BadRequest(ctx, util.ErrInvalidDate.Error())
			return
		}
		start = d
	}

	overview, err := c.service.StartProgram(ctx.Request.Context(), util.UserIDFromContext(ctx), start, today)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// GetOverview godoc
// @Summary 进度概览
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param today query string false "设备本地日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=service.ProgressOverview}
// @Router /progress [get]
func (c *ProgressController) GetOverview(ctx *gin.Context) {
	today, err := parseToday(ctx, c.service.ServerToday)
	if err != nil {
		respondError(ctx, err)
		return
	}

	overview, err := c.service.GetOverview(ctx.Request.Context(), util.UserIDFromContext(ctx), today)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}
