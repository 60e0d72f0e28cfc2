package dto

// ── 考勤模块 DTO ──

// RecordAttendanceRequest 记录考勤请求（同一成员同一天重复提交时覆盖）
type RecordAttendanceRequest struct {
	MemberID    string `json:"member_id"    binding:"required,uuid"`
	Date        string `json:"date"         binding:"required"`
	Status      string `json:"status"       binding:"required,oneof=present absent excused late"`
	Reason      string `json:"reason"       binding:"omitempty,max=500"`
	ArrivalTime string `json:"arrival_time" binding:"omitempty,hhmm"`
	Type        string `json:"type"         binding:"omitempty,max=50"`
}

// UpdateAttendanceRequest 更新考勤请求
type UpdateAttendanceRequest struct {
	Status      *string `json:"status"       binding:"omitempty,oneof=present absent excused late"`
	Reason      *string `json:"reason"       binding:"omitempty,max=500"`
	ArrivalTime *string `json:"arrival_time" binding:"omitempty,max=5"`
	Type        *string `json:"type"         binding:"omitempty,max=50"`
}

// AttendanceByDateRequest 按日期查询
type AttendanceByDateRequest struct {
	Date string `form:"date" binding:"required"`
}

// AttendanceRangeRequest 成员考勤历史查询（闭区间）
type AttendanceRangeRequest struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

// AttendanceRateRequest 出勤率查询
type AttendanceRateRequest struct {
	Since string `form:"since"`
}

// AttendanceResponse 考勤记录响应
type AttendanceResponse struct {
	ID          string  `json:"id"`
	MemberID    string  `json:"member_id"`
	MemberName  string  `json:"member_name,omitempty"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Type        string  `json:"type"`
	ArrivalTime string  `json:"arrival_time,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	MarkedBy    *string `json:"marked_by"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// AttendanceRateResponse 成员出勤率
type AttendanceRateResponse struct {
	MemberID string `json:"member_id"`
	Since    string `json:"since"`
	Total    int64  `json:"total"`
	Present  int64  `json:"present"`
	Late     int64  `json:"late"`
	Absent   int64  `json:"absent"`
	Excused  int64  `json:"excused"`
	Rate     int    `json:"rate"`
}
