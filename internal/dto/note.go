package dto

// ── 备注模块 DTO ──

// CreateNoteRequest 创建备注请求
type CreateNoteRequest struct {
	MemberID string `json:"member_id" binding:"required,uuid"`
	Content  string `json:"content"   binding:"required,min=1,max=2000"`
}

// UpdateNoteRequest 更新备注请求
type UpdateNoteRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// NoteResponse 备注响应
type NoteResponse struct {
	ID         string `json:"id"`
	MemberID   string `json:"member_id"`
	Content    string `json:"content"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}
