package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// MonthlyReport 月度 Excel 报表
// GET /api/v1/export/excel/monthly/:month
func (h *ExportHandler) MonthlyReport(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	month := c.Param("month")
	data, err := h.exportSvc.ExportMonthlyReport(c.Request.Context(), month, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Attachment(c, contentTypeXLSX, service.MonthlyReportFilename(month), data)
}

// Members 成员名单 Excel
// GET /api/v1/export/excel/members?status=
func (h *ExportHandler) Members(c *gin.Context) {
	var req dto.ExportMembersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.exportSvc.ExportMembers(c.Request.Context(), &req, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Attachment(c, contentTypeXLSX, service.MembersFilename(time.Now()), data)
}

// DuesCSV 月度会费 CSV
// GET /api/v1/export/csv/dues/:month
func (h *ExportHandler) DuesCSV(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	month := c.Param("month")
	data, err := h.exportSvc.ExportDuesCSV(c.Request.Context(), month, callerID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Attachment(c, contentTypeCSV, service.DuesCSVFilename(month), data)
}
