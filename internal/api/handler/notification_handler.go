package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

// NotificationHandler 手动触发邮件通知（与定时任务执行同一逻辑）
type NotificationHandler struct {
	notifySvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notifySvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifySvc: notifySvc}
}

// DuesReminders 向当月未缴成员发送提醒
// POST /api/v1/notifications/dues-reminders/:month
func (h *NotificationHandler) DuesReminders(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notifySvc.SendDuesReminders(c.Request.Context(), c.Param("month"), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// AbsenceAlerts 发送缺席关怀
// POST /api/v1/notifications/absence-alerts
func (h *NotificationHandler) AbsenceAlerts(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.notifySvc.SendAbsenceAlerts(c.Request.Context(), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// MonthlyReport 把月度报告发到操作者邮箱
// POST /api/v1/notifications/monthly-report/:month
func (h *NotificationHandler) MonthlyReport(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notifySvc.SendMonthlyReport(c.Request.Context(), c.Param("month"), callerID); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
