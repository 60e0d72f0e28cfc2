package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Record 记录考勤；同一成员同一天再次提交时覆盖原记录
// POST /api/v1/attendance
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, created, err := h.attendanceSvc.Record(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	if created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// ByDate 某一天的考勤
// GET /api/v1/attendance?date=YYYY-MM-DD
func (h *AttendanceHandler) ByDate(c *gin.Context) {
	var req dto.AttendanceByDateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ByDate(c.Request.Context(), req.Date, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// ListAll 最近的考勤记录
// GET /api/v1/attendance/all
func (h *AttendanceHandler) ListAll(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.List(c.Request.Context(), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// ByMember 成员考勤历史（闭区间）
// GET /api/v1/attendance/member/:id?start=&end=
func (h *AttendanceHandler) ByMember(c *gin.Context) {
	memberID, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AttendanceRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ByMember(c.Request.Context(), memberID, &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// Rate 成员出勤率
// GET /api/v1/attendance/member/:id/rate?since=
func (h *AttendanceHandler) Rate(c *gin.Context) {
	memberID, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AttendanceRateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rate, err := h.attendanceSvc.Rate(c.Request.Context(), memberID, req.Since, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, rate)
}

// Update 修改考勤
// PUT /api/v1/attendance/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除考勤
// DELETE /api/v1/attendance/:id
func (h *AttendanceHandler) Delete(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
