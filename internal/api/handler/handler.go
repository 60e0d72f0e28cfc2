package handler

import "github.com/Dotaka123/worship-team-manager/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Member       *MemberHandler
	Note         *NoteHandler
	Dues         *DuesHandler
	Attendance   *AttendanceHandler
	Stats        *StatsHandler
	Event        *EventHandler
	Export       *ExportHandler
	Notification *NotificationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Member:       NewMemberHandler(svc.Member),
		Note:         NewNoteHandler(svc.Note),
		Dues:         NewDuesHandler(svc.Dues),
		Attendance:   NewAttendanceHandler(svc.Attendance),
		Stats:        NewStatsHandler(svc.Stats),
		Event:        NewEventHandler(svc.Event),
		Export:       NewExportHandler(svc.Export),
		Notification: NewNotificationHandler(svc.Notification),
	}
}
