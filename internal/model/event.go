package model

import "time"

// 活动类型
const (
	EventTypeService   = "service"
	EventTypeRehearsal = "rehearsal"
	EventTypeSpecial   = "special"
)

// DefaultEventLocation 未指定地点时的默认值
const DefaultEventLocation = "Église"

// IsValidEventType 校验活动类型
func IsValidEventType(t string) bool {
	switch t {
	case EventTypeService, EventTypeRehearsal, EventTypeSpecial:
		return true
	}
	return false
}

// Event 活动（礼拜、排练、特别活动）— 对应 events
type Event struct {
	EventID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	OwnerID   string    `gorm:"type:uuid;not null"                             json:"owner_id"`
	Title     string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Date      time.Time `gorm:"not null"                                       json:"date"`
	StartTime string    `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null;default:''"            json:"end_time"`
	Location  string    `gorm:"type:varchar(200);not null"                     json:"location"`
	Type      string    `gorm:"type:varchar(20);not null;default:'rehearsal'"  json:"type"`
	Notes     string    `gorm:"type:text;not null;default:''"                  json:"notes"`
	BaseModel

	// 关联
	Members []EventMember `gorm:"foreignKey:EventID;references:EventID" json:"members,omitempty"`
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// EventMember 活动参与成员 — 对应 event_members
type EventMember struct {
	EventID     string     `gorm:"type:uuid;primaryKey" json:"event_id"`
	MemberID    string     `gorm:"type:uuid;primaryKey" json:"member_id"`
	Confirmed   bool       `gorm:"not null;default:false" json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at"`

	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

// TableName 指定表名
func (EventMember) TableName() string { return "event_members" }
