package model

// 用户角色
const (
	UserRoleAdmin  = "admin"
	UserRoleLeader = "leader"
	UserRoleViewer = "viewer"
)

// IsValidUserRole 校验用户角色
func IsValidUserRole(role string) bool {
	switch role {
	case UserRoleAdmin, UserRoleLeader, UserRoleViewer:
		return true
	}
	return false
}

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'leader'"     json:"role"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// CanWrite 是否可修改业务数据
func (u *User) CanWrite() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleLeader
}
