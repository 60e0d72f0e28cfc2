package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

// StatsHandler 统计模块 HTTP 处理器
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// Overview 总览
// GET /api/v1/stats/overview
func (h *StatsHandler) Overview(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.Overview(c.Request.Context(), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// MemberStats 单个成员的会费与考勤汇总
// GET /api/v1/stats/members/:id
func (h *StatsHandler) MemberStats(c *gin.Context) {
	memberID, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.MemberStats(c.Request.Context(), memberID, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// DuesTrend 会费月度趋势
// GET /api/v1/stats/trend/dues?months=
func (h *StatsHandler) DuesTrend(c *gin.Context) {
	var req dto.DuesTrendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.DuesTrend(c.Request.Context(), req.Months, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// AttendanceTrend 考勤日趋势
// GET /api/v1/stats/trend/attendance?days=
func (h *StatsHandler) AttendanceTrend(c *gin.Context) {
	var req dto.AttendanceTrendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.AttendanceTrend(c.Request.Context(), req.Days, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// TopAttendance 出勤率最高的成员
// GET /api/v1/stats/top-attendance
func (h *StatsHandler) TopAttendance(c *gin.Context) {
	h.performers(c, h.statsSvc.TopPerformers)
}

// LowAttendance 出勤率低于阈值的成员
// GET /api/v1/stats/low-attendance
func (h *StatsHandler) LowAttendance(c *gin.Context) {
	h.performers(c, h.statsSvc.BottomPerformers)
}

// Distribution 成员分布
// GET /api/v1/stats/distribution/:dimension
func (h *StatsHandler) Distribution(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.Distribution(c.Request.Context(), c.Param("dimension"), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// FinancialInsights 财务洞察
// GET /api/v1/stats/financial-insights?months=
func (h *StatsHandler) FinancialInsights(c *gin.Context) {
	var req dto.FinancialInsightsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.FinancialInsights(c.Request.Context(), req.Months, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Goals 月度目标
// GET /api/v1/stats/goals?month=
func (h *StatsHandler) Goals(c *gin.Context) {
	var req dto.GoalsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.Goals(c.Request.Context(), req.Month, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

type performersFunc func(ctx context.Context, req *dto.PerformanceRequest, callerID string) ([]dto.MemberPerformance, error)

func (h *StatsHandler) performers(c *gin.Context, rank performersFunc) {
	var req dto.PerformanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := rank(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
