package model

import (
	"strings"
	"time"

	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// 成员角色
const (
	MemberRoleSinger     = "singer"
	MemberRoleMusician   = "musician"
	MemberRoleTechnician = "technician"
	MemberRoleOther      = "other"
)

// 成员状态
const (
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
	MemberStatusPaused   = "paused"
)

// 性别
const (
	GenderMale        = "male"
	GenderFemale      = "female"
	GenderUnspecified = "unspecified"
)

// IsValidMemberRole 校验成员角色
func IsValidMemberRole(r string) bool {
	switch r {
	case MemberRoleSinger, MemberRoleMusician, MemberRoleTechnician, MemberRoleOther:
		return true
	}
	return false
}

// IsValidMemberStatus 校验成员状态
func IsValidMemberStatus(s string) bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusPaused:
		return true
	}
	return false
}

// IsValidGender 校验性别
func IsValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnspecified:
		return true
	}
	return false
}

// Member 团队成员 — 对应 members
type Member struct {
	MemberID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	OwnerID     string     `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	FirstName   string     `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName    string     `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Pseudo      string     `gorm:"type:varchar(100);not null;default:''"          json:"pseudo"`
	Email       *string    `gorm:"type:varchar(255)"                              json:"email"`
	Phone       string     `gorm:"type:varchar(30);not null;default:''"           json:"phone"`
	Gender      string     `gorm:"type:varchar(20);not null;default:'unspecified'" json:"gender"`
	DateOfBirth *time.Time `gorm:"type:date"                                      json:"date_of_birth"`
	Age         *int       `gorm:"type:int"                                       json:"age"`
	Residence   string     `gorm:"type:varchar(200);not null;default:''"          json:"residence"`
	Role        string     `gorm:"type:varchar(20);not null;default:'singer'"     json:"role"`
	Instrument  string     `gorm:"type:varchar(100);not null;default:''"          json:"instrument"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	EntryDate   time.Time  `gorm:"type:date;not null"                             json:"entry_date"`
	Notes       string     `gorm:"type:varchar(500);not null;default:''"          json:"notes"`
	BaseModel
}

// TableName 指定表名
func (Member) TableName() string { return "members" }

// FullName 展示用姓名
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// DisplayName 有昵称时优先使用昵称
func (m *Member) DisplayName() string {
	if m.Pseudo != "" {
		return m.Pseudo
	}
	return m.FullName()
}

// RefreshAge 按出生日期重新计算年龄；无出生日期时清空
func (m *Member) RefreshAge(now time.Time) {
	if m.DateOfBirth == nil || m.DateOfBirth.IsZero() {
		m.Age = nil
		return
	}
	age := period.AgeAt(*m.DateOfBirth, now)
	m.Age = &age
}

// AgeAt 查询时刻的年龄（不依赖已存储的 age 字段）
func (m *Member) AgeAt(now time.Time) (int, bool) {
	if m.DateOfBirth == nil || m.DateOfBirth.IsZero() {
		return 0, false
	}
	return period.AgeAt(*m.DateOfBirth, now), true
}
