package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

// DuesHandler 会费模块 HTTP 处理器
type DuesHandler struct {
	duesSvc service.DuesService
}

// NewDuesHandler 创建 DuesHandler
func NewDuesHandler(duesSvc service.DuesService) *DuesHandler {
	return &DuesHandler{duesSvc: duesSvc}
}

// CreateDues 新增会费记录
// POST /api/v1/dues
func (h *DuesHandler) CreateDues(c *gin.Context) {
	var req dto.CreateDuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dues, err := h.duesSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, dues)
}

// GenerateDues 为所有活跃成员生成当月会费
// POST /api/v1/dues/generate
func (h *DuesHandler) GenerateDues(c *gin.Context) {
	var req dto.GenerateDuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.duesSvc.Generate(c.Request.Context(), req.Month, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// ListDues 会费列表
// GET /api/v1/dues?month=&status=
func (h *DuesHandler) ListDues(c *gin.Context) {
	var req dto.DuesListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.duesSvc.List(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// RecentPayments 最近付款
// GET /api/v1/dues/recent?limit=
func (h *DuesHandler) RecentPayments(c *gin.Context) {
	var req dto.RecentPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.duesSvc.RecentPayments(c.Request.Context(), req.Limit, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// MonthStats 月度会费统计
// GET /api/v1/dues/stats/:month
func (h *DuesHandler) MonthStats(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stats, err := h.duesSvc.StatsForMonth(c.Request.Context(), c.Param("month"), callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, stats)
}

// ListByMember 成员的会费历史
// GET /api/v1/dues/member/:memberId
func (h *DuesHandler) ListByMember(c *gin.Context) {
	memberID, ok := mustParamID(c, "memberId")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.duesSvc.ListByMember(c.Request.Context(), memberID, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, list)
}

// GetDues 会费详情
// GET /api/v1/dues/:id
func (h *DuesHandler) GetDues(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dues, err := h.duesSvc.GetByID(c.Request.Context(), id, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dues)
}

// UpdateDues 更新会费记录
// PUT /api/v1/dues/:id
func (h *DuesHandler) UpdateDues(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dues, err := h.duesSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dues)
}

// MarkPaid 标记已缴，请求体可省略
// PATCH /api/v1/dues/:id/pay
func (h *DuesHandler) MarkPaid(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dues, err := h.duesSvc.MarkPaid(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dues)
}

// CancelPayment 撤销付款
// PATCH /api/v1/dues/:id/cancel
func (h *DuesHandler) CancelPayment(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dues, err := h.duesSvc.CancelPayment(c.Request.Context(), id, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dues)
}

// DeleteDues 删除会费记录
// DELETE /api/v1/dues/:id
func (h *DuesHandler) DeleteDues(c *gin.Context) {
	id, ok := mustParamID(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.duesSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
