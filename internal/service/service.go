package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	"github.com/Dotaka123/worship-team-manager/pkg/jwt"
	"github.com/Dotaka123/worship-team-manager/pkg/mailer"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Member       MemberService
	Note         NoteService
	Dues         DuesService
	Attendance   AttendanceService
	Stats        StatsService
	Event        EventService
	Export       ExportService
	Notification NotificationService
}

// Deps 构建 Service 所需的外部依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist // Redis 不可用时为 nil
	Mailer    mailer.Mailer
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	stats := NewStatsService(d.Config, d.Repo, d.Logger)
	export := NewExportService(d.Config, d.Repo, stats, d.Logger)
	notification := NewNotificationService(d.Config, d.Repo, d.Mailer, export, d.Logger)

	return &Service{
		Auth:         NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		User:         NewUserService(d.Repo, d.Logger),
		Member:       NewMemberService(d.Config, d.Repo, d.Logger),
		Note:         NewNoteService(d.Repo, d.Logger),
		Dues:         NewDuesService(d.Config, d.Repo, notification, d.Logger),
		Attendance:   NewAttendanceService(d.Config, d.Repo, d.Logger),
		Stats:        stats,
		Event:        NewEventService(d.Config, d.Repo, d.Logger),
		Export:       export,
		Notification: notification,
	}
}

// ── 内部辅助方法 ──

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func strPtr(s string) *string {
	return &s
}
