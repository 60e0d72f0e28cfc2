package dto

// ── 会费模块 DTO ──

// CreateDuesRequest 创建会费记录请求
type CreateDuesRequest struct {
	MemberID      string `json:"member_id"      binding:"required,uuid"`
	Month         string `json:"month"          binding:"required,month_key"`
	Amount        *int64 `json:"amount"         binding:"omitempty,min=0"`
	Status        string `json:"status"         binding:"omitempty,oneof=paid unpaid"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=cash mobile_money bank other"`
	PaidAt        string `json:"paid_at"`
	Notes         string `json:"notes"          binding:"omitempty,max=500"`
}

// GenerateDuesRequest 批量生成月度会费请求
type GenerateDuesRequest struct {
	Month string `json:"month" binding:"required,month_key"`
}

// MarkPaidRequest 标记已缴请求
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=cash mobile_money bank other"`
	Date          string `json:"date"`
}

// UpdateDuesRequest 更新会费请求，至少提供一个字段
type UpdateDuesRequest struct {
	Status        *string `json:"status"         binding:"omitempty,oneof=paid unpaid"`
	Amount        *int64  `json:"amount"         binding:"omitempty,min=0"`
	PaymentMethod *string `json:"payment_method" binding:"omitempty,oneof=cash mobile_money bank other"`
	PaidAt        *string `json:"paid_at"`
	Notes         *string `json:"notes"          binding:"omitempty,max=500"`
}

// IsEmpty 是否未提供任何字段
func (r *UpdateDuesRequest) IsEmpty() bool {
	return r.Status == nil && r.Amount == nil && r.PaymentMethod == nil && r.PaidAt == nil && r.Notes == nil
}

// DuesListRequest 会费列表查询参数
type DuesListRequest struct {
	Month  string `form:"month"  binding:"omitempty,month_key"`
	Status string `form:"status" binding:"omitempty,oneof=paid unpaid"`
}

// RecentPaymentsRequest 最近付款查询参数
type RecentPaymentsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// DuesResponse 会费记录响应
type DuesResponse struct {
	ID            string  `json:"id"`
	MemberID      string  `json:"member_id"`
	MemberName    string  `json:"member_name,omitempty"`
	Month         string  `json:"month"`
	Amount        int64   `json:"amount"`
	Status        string  `json:"status"`
	PaymentMethod *string `json:"payment_method"`
	PaidAt        *string `json:"paid_at"`
	PaidBy        *string `json:"paid_by"`
	Notes         string  `json:"notes,omitempty"`
	IsOverdue     bool    `json:"is_overdue"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// GenerateDuesResponse 批量生成结果
type GenerateDuesResponse struct {
	Month   string         `json:"month"`
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
	Records []DuesResponse `json:"records"`
}

// DuesStatusGroup 按状态分组的统计
type DuesStatusGroup struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Amount int64  `json:"amount"`
}

// DuesMonthStatsResponse 单月会费统计
type DuesMonthStatsResponse struct {
	Month        string            `json:"month"`
	ByStatus     []DuesStatusGroup `json:"by_status"`
	Total        int64             `json:"total"`
	TotalAmount  int64             `json:"total_amount"`
	Paid         int64             `json:"paid"`
	Unpaid       int64             `json:"unpaid"`
	PaidAmount   int64             `json:"paid_amount"`
	UnpaidAmount int64             `json:"unpaid_amount"`
	PaymentRate  int               `json:"payment_rate"`
}
