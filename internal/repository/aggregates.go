package repository

import "time"

// ── 聚合查询结果 ──

// StatusCount 按状态分组的计数与金额
type StatusCount struct {
	Status string
	Count  int64
	Amount int64
}

// MonthStatusCount 按月份+状态分组
type MonthStatusCount struct {
	Month  string
	Status string
	Count  int64
	Amount int64
}

// PayerTotal 成员缴费汇总
type PayerTotal struct {
	MemberID   string
	PaidMonths int64
	TotalPaid  int64
}

// MemberAttendanceCount 成员考勤计数
type MemberAttendanceCount struct {
	MemberID string
	Total    int64
	Present  int64
	Late     int64
	Absent   int64
	Excused  int64
}

// DayStatusCount 按自然日+状态分组
type DayStatusCount struct {
	Day    string
	Status string
	Count  int64
}

// PurgeResult 成员级联删除结果
type PurgeResult struct {
	Notes      int64
	Attendance int64
	Dues       int64
	EventLinks int64
}

// ── 查询条件 ──

// MemberFilter 成员查询条件
type MemberFilter struct {
	Keyword        string
	Role           string
	Status         string
	Statuses       []string
	Gender         string
	Instrument     string
	BornOnOrBefore *time.Time // 年龄下限换算
	BornAfter      *time.Time // 年龄上限换算
	Sort           string     // name | age | entry_date | created_at
	Order          string     // asc | desc
}

// DuesFilter 会费查询条件
type DuesFilter struct {
	Month    string
	Status   string
	MemberID string
}
