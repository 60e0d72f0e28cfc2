package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User       UserRepository
	Member     MemberRepository
	Dues       DuesRepository
	Attendance AttendanceRepository
	Event      EventRepository
	Note       NoteRepository
	Cascade    MemberCascade
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:       NewUserRepo(db),
		Member:     NewMemberRepo(db),
		Dues:       NewDuesRepo(db),
		Attendance: NewAttendanceRepo(db),
		Event:      NewEventRepo(db),
		Note:       NewNoteRepo(db),
		Cascade:    NewMemberCascade(db),
	}
}
