package dto

// ── 成员模块 DTO ──

// CreateMemberRequest 创建成员请求
type CreateMemberRequest struct {
	FirstName   string `json:"first_name"    binding:"required,min=1,max=100"`
	LastName    string `json:"last_name"     binding:"required,min=1,max=100"`
	Pseudo      string `json:"pseudo"        binding:"omitempty,max=100"`
	Email       string `json:"email"         binding:"omitempty,email,max=255"`
	Phone       string `json:"phone"         binding:"omitempty,max=30"`
	Gender      string `json:"gender"        binding:"omitempty,oneof=male female unspecified"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty"`
	Residence   string `json:"residence"     binding:"omitempty,max=200"`
	Role        string `json:"role"          binding:"omitempty,oneof=singer musician technician other"`
	Instrument  string `json:"instrument"    binding:"omitempty,max=100"`
	Status      string `json:"status"        binding:"omitempty,oneof=active inactive paused"`
	EntryDate   string `json:"entry_date"    binding:"omitempty"`
	Notes       string `json:"notes"         binding:"omitempty,max=500"`
}

// UpdateMemberRequest 更新成员请求（字段为空表示不修改；email/date_of_birth 传空字符串表示清空）
type UpdateMemberRequest struct {
	FirstName   *string `json:"first_name"    binding:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name"     binding:"omitempty,min=1,max=100"`
	Pseudo      *string `json:"pseudo"        binding:"omitempty,max=100"`
	Email       *string `json:"email"         binding:"omitempty,max=255"`
	Phone       *string `json:"phone"         binding:"omitempty,max=30"`
	Gender      *string `json:"gender"        binding:"omitempty,oneof=male female unspecified"`
	DateOfBirth *string `json:"date_of_birth"`
	Residence   *string `json:"residence"     binding:"omitempty,max=200"`
	Role        *string `json:"role"          binding:"omitempty,oneof=singer musician technician other"`
	Instrument  *string `json:"instrument"    binding:"omitempty,max=100"`
	Status      *string `json:"status"        binding:"omitempty,oneof=active inactive paused"`
	EntryDate   *string `json:"entry_date"`
	Notes       *string `json:"notes"         binding:"omitempty,max=500"`
}

// MemberListRequest 成员列表查询参数
type MemberListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=active inactive paused"`
	Role   string `form:"role"   binding:"omitempty,oneof=singer musician technician other"`
}

// MemberSearchRequest 成员搜索参数
type MemberSearchRequest struct {
	PaginationRequest
	Q          string `form:"q"          binding:"omitempty,max=100"`
	Role       string `form:"role"       binding:"omitempty,oneof=singer musician technician other"`
	Status     string `form:"status"     binding:"omitempty,oneof=active inactive paused"`
	Gender     string `form:"gender"     binding:"omitempty,oneof=male female unspecified"`
	Instrument string `form:"instrument" binding:"omitempty,max=100"`
	MinAge     *int   `form:"min_age"    binding:"omitempty,min=0,max=150"`
	MaxAge     *int   `form:"max_age"    binding:"omitempty,min=0,max=150"`
	Sort       string `form:"sort"       binding:"omitempty,oneof=name age entry_date created_at"`
	Order      string `form:"order"      binding:"omitempty,oneof=asc desc"`
}

// MemberResponse 成员信息响应
type MemberResponse struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	FullName    string  `json:"full_name"`
	Pseudo      string  `json:"pseudo,omitempty"`
	Email       *string `json:"email"`
	Phone       string  `json:"phone,omitempty"`
	Gender      string  `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Age         *int    `json:"age"`
	Residence   string  `json:"residence,omitempty"`
	Role        string  `json:"role"`
	Instrument  string  `json:"instrument,omitempty"`
	Status      string  `json:"status"`
	EntryDate   string  `json:"entry_date"`
	Notes       string  `json:"notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// MemberDeleteResponse 删除成员结果（级联清理计数）
type MemberDeleteResponse struct {
	MemberID          string `json:"member_id"`
	NotesDeleted      int64  `json:"notes_deleted"`
	AttendanceDeleted int64  `json:"attendance_deleted"`
	DuesDeleted       int64  `json:"dues_deleted"`
	EventLinksDeleted int64  `json:"event_links_deleted"`
}
