package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

// EventHandler 活动模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents 活动列表
// GET /api/v1/events?from=&to=
func (h *EventHandler) ListEvents(c *gin.Context) {
	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.eventSvc.List(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// GetEvent 活动详情
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.GetByID(c.Request.Context(), id, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateEvent 新建活动
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent 更新活动
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent 删除活动
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ConfirmMember 成员确认或取消参与
// PUT /api/v1/events/:id/members/:memberId/confirm
func (h *EventHandler) ConfirmMember(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}
	memberID, ok := mustParamID(c, "memberId")
	if !ok {
		return
	}

	var req dto.ConfirmEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Confirm(c.Request.Context(), id, memberID, &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, event)
}

// Calendar iCalendar 订阅
// GET /api/v1/events/calendar.ics
func (h *EventHandler) Calendar(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.eventSvc.Calendar(c.Request.Context(), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}
