package dto

// ── 统计模块 DTO ──

// DuesTrendRequest 会费趋势参数
type DuesTrendRequest struct {
	Months int `form:"months" binding:"omitempty,min=1,max=36"`
}

// AttendanceTrendRequest 考勤趋势参数
type AttendanceTrendRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=366"`
}

// PerformanceRequest 出勤排行参数
type PerformanceRequest struct {
	Limit     int  `form:"limit"      binding:"omitempty,min=1,max=100"`
	Months    int  `form:"months"     binding:"omitempty,min=1,max=24"`
	MinSample *int `form:"min_sample" binding:"omitempty,min=0,max=100"`
	Threshold *int `form:"threshold"  binding:"omitempty,min=0,max=100"`
}

// FinancialInsightsRequest 财务洞察参数
type FinancialInsightsRequest struct {
	Months int `form:"months" binding:"omitempty,min=1,max=36"`
}

// GoalsRequest 月度目标参数
type GoalsRequest struct {
	Month string `form:"month" binding:"omitempty,month_key"`
}

// DuesTrendPoint 会费趋势数据点（按月）
type DuesTrendPoint struct {
	Month       string `json:"month"`
	Paid        int64  `json:"paid"`
	Unpaid      int64  `json:"unpaid"`
	PaidAmount  int64  `json:"paid_amount"`
	TotalAmount int64  `json:"total_amount"`
	PaymentRate int    `json:"payment_rate"`
}

// AttendanceTrendPoint 考勤趋势数据点（按日）
type AttendanceTrendPoint struct {
	Date           string `json:"date"`
	Present        int64  `json:"present"`
	Absent         int64  `json:"absent"`
	Excused        int64  `json:"excused"`
	Late           int64  `json:"late"`
	Total          int64  `json:"total"`
	AttendanceRate int    `json:"attendance_rate"`
}

// MemberPerformance 成员出勤表现
type MemberPerformance struct {
	MemberID       string `json:"member_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Total          int64  `json:"total"`
	Present        int64  `json:"present"`
	Late           int64  `json:"late"`
	Absent         int64  `json:"absent"`
	Excused        int64  `json:"excused"`
	AttendanceRate int    `json:"attendance_rate"`
}

// DistributionEntry 分布统计中的一项
type DistributionEntry struct {
	Key        string `json:"key"`
	Count      int64  `json:"count"`
	Active     int64  `json:"active"`
	Paused     int64  `json:"paused"`
	Percentage int    `json:"percentage"`
}

// DistributionResponse 成员分布
type DistributionResponse struct {
	Dimension string              `json:"dimension"`
	Total     int64               `json:"total"`
	Entries   []DistributionEntry `json:"entries"`
}

// TopPayer 缴费排行
type TopPayer struct {
	MemberID   string `json:"member_id"`
	Name       string `json:"name"`
	PaidMonths int64  `json:"paid_months"`
	TotalPaid  int64  `json:"total_paid"`
}

// FinancialInsightsResponse 财务洞察
type FinancialInsightsResponse struct {
	Months           int              `json:"months"`
	AverageExpected  int64            `json:"average_expected"`
	AverageCollected int64            `json:"average_collected"`
	CollectionRate   int              `json:"collection_rate"`
	TopPayers        []TopPayer       `json:"top_payers"`
	Series           []DuesTrendPoint `json:"series"`
}

// GoalsResponse 月度收款目标
type GoalsResponse struct {
	Month            string `json:"month"`
	ActiveMembers    int64  `json:"active_members"`
	Fee              int64  `json:"fee"`
	TargetAmount     int64  `json:"target_amount"`
	CollectedAmount  int64  `json:"collected_amount"`
	PaidCount        int64  `json:"paid_count"`
	UnpaidCount      int64  `json:"unpaid_count"`
	Progress         int    `json:"progress"`
	RemainingAmount  int64  `json:"remaining_amount"`
	RemainingMembers int64  `json:"remaining_members"`
}

// MemberCounts 成员数量
type MemberCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Paused   int64 `json:"paused"`
}

// AttendanceSummary 考勤汇总
type AttendanceSummary struct {
	Total   int64 `json:"total"`
	Present int64 `json:"present"`
	Late    int64 `json:"late"`
	Absent  int64 `json:"absent"`
	Excused int64 `json:"excused"`
	Rate    int   `json:"rate"`
}

// DuesSummary 会费汇总
type DuesSummary struct {
	Total        int64 `json:"total"`
	Paid         int64 `json:"paid"`
	Unpaid       int64 `json:"unpaid"`
	Overdue      int64 `json:"overdue"`
	PaidAmount   int64 `json:"paid_amount"`
	UnpaidAmount int64 `json:"unpaid_amount"`
	PaymentRate  int   `json:"payment_rate"`
}

// OverviewResponse 总览
type OverviewResponse struct {
	Month        string            `json:"month"`
	Members      MemberCounts      `json:"members"`
	Dues         DuesSummary       `json:"dues"`
	Attendance   AttendanceSummary `json:"attendance"`
	TodayPresent int64             `json:"today_present"`
}

// MemberStatsResponse 单个成员统计
type MemberStatsResponse struct {
	Member         MemberResponse    `json:"member"`
	Dues           DuesSummary       `json:"dues"`
	Attendance     AttendanceSummary `json:"attendance"`
	LastAttendance *string           `json:"last_attendance"`
}
