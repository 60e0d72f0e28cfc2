package service

import (
	"context"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/mailer"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 通知模块业务错误 ──

var (
	ErrOperatorNoEmail = pkgerrors.New(pkgerrors.ErrValidation, 20001, "操作者未设置邮箱，无法发送报告")
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportBuilder 生成月度报表附件
type ReportBuilder interface {
	ExportMonthlyReport(ctx context.Context, month, callerID string) ([]byte, error)
}

// NotificationService 邮件通知接口；单封邮件失败只记录日志，批量结果以计数返回
type NotificationService interface {
	PaymentNotifier
	SendDuesReminders(ctx context.Context, month, callerID string) (*dto.BulkSendResponse, error)
	SendAbsenceAlerts(ctx context.Context, callerID string) (*dto.BulkSendResponse, error)
	SendMonthlyReport(ctx context.Context, month, callerID string) error
}

type notificationService struct {
	repo     *repository.Repository
	mailer   mailer.Mailer
	reports  ReportBuilder
	appName  string
	currency string
	timeout  time.Duration
	pace     rate.Limit
	minTotal int64
	minCount int64
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(cfg *config.Config, repo *repository.Repository, m mailer.Mailer, reports ReportBuilder, logger *zap.Logger) NotificationService {
	pace := rate.Inf
	if cfg.Scheduler.MailsPerSecond > 0 {
		pace = rate.Limit(cfg.Scheduler.MailsPerSecond)
	}
	timeout := cfg.Mail.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &notificationService{
		repo:     repo,
		mailer:   m,
		reports:  reports,
		appName:  cfg.App.Name,
		currency: cfg.Dues.Currency,
		timeout:  timeout,
		pace:     pace,
		minTotal: int64(cfg.Scheduler.AbsenceMinTotal),
		minCount: int64(cfg.Scheduler.AbsenceMinCount),
		loc:      cfg.App.Location(),
		now:      time.Now,
		logger:   logger.Named("notification"),
	}
}

// ── 模板数据 ──

type paymentMail struct {
	AppName    string
	Name       string
	MonthLabel string
	Amount     string
	Method     string
	PaidAt     string
}

type reminderMail struct {
	AppName    string
	Name       string
	MonthLabel string
	Amount     string
}

type absenceMail struct {
	AppName  string
	Name     string
	Absences int64
	Total    int64
}

type reportMail struct {
	AppName        string
	Name           string
	MonthLabel     string
	ActiveMembers  int64
	Paid           int64
	Total          int64
	PaymentRate    int
	Collected      string
	AttendanceRate int
	Unpaid         []string
}

// ────────────────────── PaymentConfirmed ──────────────────────

// PaymentConfirmed 付款确认邮件；不影响已完成的会费变更
func (s *notificationService) PaymentConfirmed(ctx context.Context, dues *model.Dues, member *model.Member) {
	if member == nil || member.Email == nil || *member.Email == "" {
		s.logger.Debug("成员未设置邮箱，跳过付款确认", zap.String("dues_id", dues.DuesID))
		return
	}

	paidAt := ""
	if dues.PaidAt != nil {
		paidAt = dues.PaidAt.In(s.loc).Format("02/01/2006")
	}
	data := paymentMail{
		AppName:    s.appName,
		Name:       member.DisplayName(),
		MonthLabel: monthLabel(dues.Month),
		Amount:     formatAmount(dues.Amount, s.currency),
		Method:     paymentMethodLabel(dues.PaymentMethod),
		PaidAt:     paidAt,
	}

	// 请求结束不应中断确认邮件
	sendCtx := context.WithoutCancel(ctx)
	if err := s.send(sendCtx, member.FullName(), *member.Email, "Confirmation de paiement - "+data.MonthLabel, "payment_confirmed", data, nil); err != nil {
		s.logger.Warn("付款确认邮件发送失败",
			zap.String("dues_id", dues.DuesID),
			zap.String("member_id", member.MemberID),
			zap.Error(err),
		)
	}
}

// ────────────────────── SendDuesReminders ──────────────────────

// SendDuesReminders 向当月未缴成员发送提醒；无邮箱的成员计入 skipped
func (s *notificationService) SendDuesReminders(ctx context.Context, month, callerID string) (*dto.BulkSendResponse, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}

	unpaid, err := s.repo.Dues.List(ctx, callerID, repository.DuesFilter{Month: month, Status: model.DuesStatusUnpaid})
	if err != nil {
		s.logger.Error("查询未缴会费失败", zap.String("month", month), zap.Error(err))
		return nil, pkgerrors.Dependency("查询未缴会费", err)
	}

	result := &dto.BulkSendResponse{}
	limiter := rate.NewLimiter(s.pace, 1)
	for i := range unpaid {
		d := &unpaid[i]
		if d.Member == nil || d.Member.Email == nil || *d.Member.Email == "" {
			result.Skipped++
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		data := reminderMail{
			AppName:    s.appName,
			Name:       d.Member.DisplayName(),
			MonthLabel: monthLabel(d.Month),
			Amount:     formatAmount(d.Amount, s.currency),
		}
		if err := s.send(ctx, d.Member.FullName(), *d.Member.Email, "Rappel de cotisation - "+data.MonthLabel, "dues_reminder", data, nil); err != nil {
			result.Failed++
			s.logger.Warn("会费提醒发送失败", zap.String("dues_id", d.DuesID), zap.Error(err))
			continue
		}
		result.Sent++
	}

	s.logger.Info("会费提醒发送完成",
		zap.String("owner_id", callerID),
		zap.String("month", month),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ────────────────────── SendAbsenceAlerts ──────────────────────

// SendAbsenceAlerts 最近一个月考勤次数与缺席次数都达到阈值的活跃成员收到关怀邮件
func (s *notificationService) SendAbsenceAlerts(ctx context.Context, callerID string) (*dto.BulkSendResponse, error) {
	since, _ := period.DayBounds(s.now().AddDate(0, -1, 0), s.loc)

	counts, err := s.repo.Attendance.AggregateByMember(ctx, callerID, "", since)
	if err != nil {
		s.logger.Error("统计缺席失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计缺席", err)
	}

	flagged := make(map[string]repository.MemberAttendanceCount)
	ids := make([]string, 0)
	for _, c := range counts {
		if c.Total >= s.minTotal && c.Absent >= s.minCount {
			flagged[c.MemberID] = c
			ids = append(ids, c.MemberID)
		}
	}

	result := &dto.BulkSendResponse{}
	if len(ids) == 0 {
		return result, nil
	}

	members, err := s.repo.Member.ListByIDs(ctx, callerID, ids)
	if err != nil {
		return nil, pkgerrors.Dependency("查询成员", err)
	}

	limiter := rate.NewLimiter(s.pace, 1)
	for i := range members {
		m := &members[i]
		if m.Status != model.MemberStatusActive || m.Email == nil || *m.Email == "" {
			result.Skipped++
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		c := flagged[m.MemberID]
		data := absenceMail{AppName: s.appName, Name: m.DisplayName(), Absences: c.Absent, Total: c.Total}
		if err := s.send(ctx, m.FullName(), *m.Email, "Tu nous manques !", "absence_alert", data, nil); err != nil {
			result.Failed++
			s.logger.Warn("缺席提醒发送失败", zap.String("member_id", m.MemberID), zap.Error(err))
			continue
		}
		result.Sent++
	}

	s.logger.Info("缺席提醒发送完成",
		zap.String("owner_id", callerID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ────────────────────── SendMonthlyReport ──────────────────────

// SendMonthlyReport 将月度汇总与 Excel 报表发送给操作者本人
func (s *notificationService) SendMonthlyReport(ctx context.Context, month, callerID string) error {
	if err := checkMonth(month); err != nil {
		return err
	}

	user, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return pkgerrors.Dependency("查询用户", err)
	}
	if user.Email == "" {
		return ErrOperatorNoEmail
	}

	data, err := s.reportData(ctx, month, user)
	if err != nil {
		return err
	}

	var attachments []mailer.Attachment
	if s.reports != nil {
		content, err := s.reports.ExportMonthlyReport(ctx, month, callerID)
		if err != nil {
			// 附件失败时仍发送正文
			s.logger.Warn("生成月度报表附件失败", zap.String("month", month), zap.Error(err))
		} else {
			attachments = append(attachments, mailer.Attachment{
				Filename:    "rapport-" + month + ".xlsx",
				ContentType: xlsxContentType,
				Content:     content,
			})
		}
	}

	if err := s.send(ctx, user.Name, user.Email, "Rapport mensuel - "+data.MonthLabel, "monthly_report", data, attachments); err != nil {
		s.logger.Warn("月度报告发送失败", zap.String("user_id", callerID), zap.Error(err))
		return pkgerrors.Dependency("发送月度报告", err)
	}
	s.logger.Info("月度报告已发送", zap.String("user_id", callerID), zap.String("month", month))
	return nil
}

func (s *notificationService) reportData(ctx context.Context, month string, user *model.User) (*reportMail, error) {
	statusRows, err := s.repo.Member.CountByStatus(ctx, user.UserID)
	if err != nil {
		return nil, pkgerrors.Dependency("统计成员数量", err)
	}
	var active int64
	for _, r := range statusRows {
		if r.Status == model.MemberStatusActive {
			active = r.Count
		}
	}

	dues, err := s.repo.Dues.List(ctx, user.UserID, repository.DuesFilter{Month: month})
	if err != nil {
		return nil, pkgerrors.Dependency("查询月度会费", err)
	}

	start, end, _ := period.MonthBounds(month, s.loc)
	attRows, err := s.repo.Attendance.CountByStatus(ctx, user.UserID, start, end)
	if err != nil {
		return nil, pkgerrors.Dependency("统计月度考勤", err)
	}
	att := summarizeAttendanceRows(attRows)

	data := &reportMail{
		AppName:        s.appName,
		Name:           user.Name,
		MonthLabel:     monthLabel(month),
		ActiveMembers:  active,
		Total:          int64(len(dues)),
		AttendanceRate: att.Rate,
		Unpaid:         []string{},
	}
	var collected int64
	for i := range dues {
		d := &dues[i]
		if d.Status == model.DuesStatusPaid {
			data.Paid++
			collected += d.Amount
			continue
		}
		name := "N/A"
		if d.Member != nil {
			name = d.Member.DisplayName()
		}
		data.Unpaid = append(data.Unpaid, name)
	}
	data.PaymentRate = period.Percent(data.Paid, data.Total)
	data.Collected = formatAmount(collected, s.currency)
	return data, nil
}

// ── 内部辅助方法 ──

// send 渲染模板并在超时内发送一封邮件
func (s *notificationService) send(ctx context.Context, toName, toAddr, subject, tmpl string, data interface{}, attachments []mailer.Attachment) error {
	text, html, err := mailer.Render(tmpl, data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.mailer.Send(ctx, mailer.Message{
		To:          []mail.Address{{Name: toName, Address: toAddr}},
		Subject:     subject,
		Text:        text,
		HTML:        html,
		Attachments: attachments,
	})
}
