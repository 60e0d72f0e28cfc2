package dto

// ── 导出模块 DTO ──

// ExportMembersRequest 成员导出参数
type ExportMembersRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=active inactive paused"`
}
