package dto

// ── 活动模块 DTO ──

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Title     string   `json:"title"      binding:"required,min=1,max=200"`
	Date      string   `json:"date"       binding:"required"`
	StartTime string   `json:"start_time" binding:"required,hhmm"`
	EndTime   string   `json:"end_time"   binding:"omitempty,hhmm"`
	Location  string   `json:"location"   binding:"omitempty,max=200"`
	Type      string   `json:"type"       binding:"omitempty,oneof=service rehearsal special"`
	Notes     string   `json:"notes"      binding:"omitempty,max=2000"`
	MemberIDs []string `json:"member_ids" binding:"omitempty,dive,uuid"`
}

// UpdateEventRequest 更新活动请求
type UpdateEventRequest struct {
	Title     *string   `json:"title"      binding:"omitempty,min=1,max=200"`
	Date      *string   `json:"date"`
	StartTime *string   `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string   `json:"end_time"`
	Location  *string   `json:"location"   binding:"omitempty,max=200"`
	Type      *string   `json:"type"       binding:"omitempty,oneof=service rehearsal special"`
	Notes     *string   `json:"notes"      binding:"omitempty,max=2000"`
	MemberIDs *[]string `json:"member_ids" binding:"omitempty,dive,uuid"`
}

// EventListRequest 活动列表查询参数
type EventListRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// ConfirmEventRequest 确认/取消参与
type ConfirmEventRequest struct {
	Confirmed *bool `json:"confirmed"`
}

// EventMemberResponse 活动成员
type EventMemberResponse struct {
	MemberID    string  `json:"member_id"`
	Name        string  `json:"name,omitempty"`
	Confirmed   bool    `json:"confirmed"`
	ConfirmedAt *string `json:"confirmed_at"`
}

// EventResponse 活动响应
type EventResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Date      string                `json:"date"`
	StartTime string                `json:"start_time"`
	EndTime   string                `json:"end_time,omitempty"`
	Location  string                `json:"location"`
	Type      string                `json:"type"`
	Notes     string                `json:"notes,omitempty"`
	Members   []EventMemberResponse `json:"members"`
	CreatedAt string                `json:"created_at"`
}
