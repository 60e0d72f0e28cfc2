package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/internal/model"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/mailer"
)

// recordingMailer 记录发出的邮件，failTo 中的地址发送失败
type recordingMailer struct {
	sent   []mailer.Message
	failTo map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if m.failTo[msg.To[0].Address] {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubReportBuilder struct {
	content []byte
	err     error
	calls   int
}

func (b *stubReportBuilder) ExportMonthlyReport(_ context.Context, _, _ string) ([]byte, error) {
	b.calls++
	return b.content, b.err
}

func setupTestNotificationService(t *testing.T) (NotificationService, *memStore, *recordingMailer, *stubReportBuilder) {
	t.Helper()
	repo, st := newMockRepository()
	m := &recordingMailer{failTo: map[string]bool{}}
	reports := &stubReportBuilder{content: []byte("PK-fake-xlsx")}
	svc := NewNotificationService(newTestConfig(t), repo, m, reports, zap.NewNop())
	svc.(*notificationService).now = func() time.Time { return testNow(t) }
	return svc, st, m, reports
}

// ── PaymentConfirmed ──

func TestPaymentConfirmed_SendsToMember(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)
	member := withEmail(seedMember(st, "m1", "Hery", model.MemberStatusActive), "hery@example.com")
	dues := seedDues(st, "m1", "2026-02", model.DuesStatusPaid)

	svc.PaymentConfirmed(context.Background(), dues, member)

	if len(m.sent) != 1 {
		t.Fatalf("期望发送 1 封, 实际 %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To[0].Address != "hery@example.com" {
		t.Errorf("收件人错误: %v", msg.To)
	}
	if msg.Subject != "Confirmation de paiement - Février 2026" {
		t.Errorf("主题错误: %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "3 000 Ar") || !strings.Contains(msg.Text, "01/02/2026") {
		t.Errorf("正文应包含金额与付款日期: %q", msg.Text)
	}
	if msg.HTML == "" {
		t.Error("应同时渲染 HTML 正文")
	}
}

func TestPaymentConfirmed_SkipsMemberWithoutEmail(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)
	member := seedMember(st, "m1", "Hery", model.MemberStatusActive)
	dues := seedDues(st, "m1", "2026-02", model.DuesStatusPaid)

	svc.PaymentConfirmed(context.Background(), dues, member)
	svc.PaymentConfirmed(context.Background(), dues, nil)

	if len(m.sent) != 0 {
		t.Errorf("无邮箱不应发送, 实际 %d 封", len(m.sent))
	}
}

func TestPaymentConfirmed_CanceledRequestStillSends(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)
	member := withEmail(seedMember(st, "m1", "Hery", model.MemberStatusActive), "hery@example.com")
	dues := seedDues(st, "m1", "2026-02", model.DuesStatusPaid)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.PaymentConfirmed(ctx, dues, member)

	if len(m.sent) != 1 {
		t.Errorf("请求取消后仍应发送确认邮件, 实际 %d 封", len(m.sent))
	}
}

// ── SendDuesReminders ──

func TestSendDuesReminders_Counts(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)
	withEmail(seedMember(st, "m1", "Hery", model.MemberStatusActive), "hery@example.com")
	withEmail(seedMember(st, "m2", "Lova", model.MemberStatusActive), "lova@example.com")
	seedMember(st, "m3", "Fara", model.MemberStatusActive)
	withEmail(seedMember(st, "m4", "Tiana", model.MemberStatusActive), "tiana@example.com")
	seedDues(st, "m1", "2026-02", model.DuesStatusUnpaid)
	seedDues(st, "m2", "2026-02", model.DuesStatusUnpaid)
	seedDues(st, "m3", "2026-02", model.DuesStatusUnpaid)
	seedDues(st, "m4", "2026-02", model.DuesStatusPaid)
	m.failTo["lova@example.com"] = true

	resp, err := svc.SendDuesReminders(context.Background(), "2026-02", testOwner)
	if err != nil {
		t.Fatalf("发送提醒失败: %v", err)
	}
	if resp.Sent != 1 || resp.Failed != 1 || resp.Skipped != 1 {
		t.Errorf("计数错误: %+v", resp)
	}
	if len(m.sent) != 1 || m.sent[0].To[0].Address != "hery@example.com" {
		t.Errorf("只应成功发送给 hery: %+v", m.sent)
	}
	if !strings.HasPrefix(m.sent[0].Subject, "Rappel de cotisation") {
		t.Errorf("主题错误: %q", m.sent[0].Subject)
	}
}

func TestSendDuesReminders_InvalidMonth(t *testing.T) {
	svc, _, _, _ := setupTestNotificationService(t)
	if _, err := svc.SendDuesReminders(context.Background(), "2026-2", testOwner); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("期望 ErrInvalidMonth, 实际 %v", err)
	}
}

// ── SendAbsenceAlerts ──

func TestSendAbsenceAlerts_Thresholds(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)
	withEmail(seedMember(st, "m1", "Hery", model.MemberStatusActive), "hery@example.com")
	withEmail(seedMember(st, "m2", "Lova", model.MemberStatusActive), "lova@example.com")
	withEmail(seedMember(st, "m3", "Fara", model.MemberStatusInactive), "fara@example.com")
	seedMember(st, "m4", "Tiana", model.MemberStatusActive)

	absent := model.AttendanceAbsent
	seedRun(t, st, "m1", absent, absent, absent, model.AttendancePresent)
	seedRun(t, st, "m2", absent, absent, absent) // 考勤次数不足
	seedRun(t, st, "m3", absent, absent, absent, absent)
	seedRun(t, st, "m4", absent, absent, absent, absent)
	// 超出最近一个月的缺席不计入
	seedAttendance(st, "m2", time.Date(2026, 1, 5, 12, 0, 0, 0, testLoc(t)), absent)

	resp, err := svc.SendAbsenceAlerts(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("发送缺席提醒失败: %v", err)
	}
	if resp.Sent != 1 || resp.Skipped != 2 || resp.Failed != 0 {
		t.Errorf("计数错误: %+v", resp)
	}
	if len(m.sent) != 1 || m.sent[0].To[0].Address != "hery@example.com" {
		t.Fatalf("只应提醒 hery: %+v", m.sent)
	}
	if !strings.Contains(m.sent[0].Text, "3") {
		t.Errorf("正文应包含缺席次数: %q", m.sent[0].Text)
	}
}

func TestSendAbsenceAlerts_NothingFlagged(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)
	withEmail(seedMember(st, "m1", "Hery", model.MemberStatusActive), "hery@example.com")
	seedRun(t, st, "m1", model.AttendancePresent, model.AttendancePresent, model.AttendancePresent, model.AttendancePresent)

	resp, err := svc.SendAbsenceAlerts(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("发送缺席提醒失败: %v", err)
	}
	if resp.Sent != 0 || len(m.sent) != 0 {
		t.Errorf("不应发送: %+v", resp)
	}
}

// ── SendMonthlyReport ──

func seedOperator(st *memStore, id, email string) {
	st.users[id] = &model.User{UserID: id, Name: "Responsable", Email: email, Role: model.UserRoleAdmin}
}

func TestSendMonthlyReport_AttachesWorkbook(t *testing.T) {
	svc, st, m, reports := setupTestNotificationService(t)
	seedOperator(st, testOwner, "admin@example.com")
	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	seedMember(st, "m2", "Lova", model.MemberStatusActive)
	seedDues(st, "m1", "2026-02", model.DuesStatusPaid)
	seedDues(st, "m2", "2026-02", model.DuesStatusUnpaid)

	if err := svc.SendMonthlyReport(context.Background(), "2026-02", testOwner); err != nil {
		t.Fatalf("发送月度报告失败: %v", err)
	}
	if reports.calls != 1 {
		t.Errorf("应生成 1 次报表, 实际 %d", reports.calls)
	}
	if len(m.sent) != 1 {
		t.Fatalf("期望发送 1 封, 实际 %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To[0].Address != "admin@example.com" {
		t.Errorf("应发送给操作者: %v", msg.To)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "rapport-2026-02.xlsx" {
		t.Fatalf("附件错误: %+v", msg.Attachments)
	}
	if msg.Attachments[0].ContentType != xlsxContentType {
		t.Errorf("附件类型错误: %q", msg.Attachments[0].ContentType)
	}
	if !strings.Contains(msg.Text, "Lova") {
		t.Errorf("正文应列出未缴成员: %q", msg.Text)
	}
}

func TestSendMonthlyReport_AttachmentFailureStillSends(t *testing.T) {
	svc, st, m, reports := setupTestNotificationService(t)
	seedOperator(st, testOwner, "admin@example.com")
	reports.err = errors.New("excel broken")

	if err := svc.SendMonthlyReport(context.Background(), "2026-02", testOwner); err != nil {
		t.Fatalf("附件失败不应影响正文发送: %v", err)
	}
	if len(m.sent) != 1 || len(m.sent[0].Attachments) != 0 {
		t.Errorf("应发送无附件的报告: %+v", m.sent)
	}
}

func TestSendMonthlyReport_Errors(t *testing.T) {
	svc, st, m, _ := setupTestNotificationService(t)

	if err := svc.SendMonthlyReport(context.Background(), "2026-02", testOwner); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound, 实际 %v", err)
	}

	seedOperator(st, testOwner, "")
	if err := svc.SendMonthlyReport(context.Background(), "2026-02", testOwner); !errors.Is(err, ErrOperatorNoEmail) {
		t.Errorf("期望 ErrOperatorNoEmail, 实际 %v", err)
	}

	seedOperator(st, testOwner, "admin@example.com")
	m.failTo["admin@example.com"] = true
	if err := svc.SendMonthlyReport(context.Background(), "2026-02", testOwner); !errors.Is(err, pkgerrors.ErrDependency) {
		t.Errorf("发送失败应返回依赖错误, 实际 %v", err)
	}
}
