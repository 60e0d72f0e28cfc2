package model

import "time"

// 考勤状态
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
	AttendanceLate    = "late"
)

// DefaultAttendanceType 未指定时的考勤类别
const DefaultAttendanceType = "rehearsal"

// IsValidAttendanceStatus 校验考勤状态
func IsValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceLate:
		return true
	}
	return false
}

// Attendance 考勤记录 — 对应 attendances，每个成员每个自然日一条
type Attendance struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	MemberID     string    `gorm:"type:uuid;not null"                             json:"member_id"`
	OwnerID      string    `gorm:"type:uuid;not null"                             json:"owner_id"`
	Date         time.Time `gorm:"not null"                                       json:"date"`
	Status       string    `gorm:"type:varchar(10);not null"                      json:"status"`
	Type         string    `gorm:"type:varchar(50);not null;default:'rehearsal'"  json:"type"`
	ArrivalTime  string    `gorm:"type:varchar(5);not null;default:''"            json:"arrival_time"`
	Reason       string    `gorm:"type:text;not null;default:''"                  json:"reason"`
	MarkedBy     *string   `gorm:"type:uuid"                                      json:"marked_by"`
	BaseModel

	// 关联
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// Attended 出席或迟到都计为到场
func (a *Attendance) Attended() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceLate
}

// DropIrrelevantFields 只保留与状态相关的字段：
// 原因仅用于缺席/请假，到达时间仅用于出席/迟到
func (a *Attendance) DropIrrelevantFields() {
	switch a.Status {
	case AttendanceAbsent, AttendanceExcused:
		a.ArrivalTime = ""
	case AttendancePresent, AttendanceLate:
		a.Reason = ""
	}
}
