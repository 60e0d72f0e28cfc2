// Package scheduler 定时任务：自动生成会费、会费提醒、缺席关怀、月度报告。
// 每个任务对所有 leader/admin 操作者逐一执行，单个操作者失败不影响其余操作者。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	"github.com/Dotaka123/worship-team-manager/internal/service"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// Scheduler 基于 robfig/cron 的任务调度器
type Scheduler struct {
	cron    *cron.Cron
	users   repository.UserRepository
	dues    service.DuesService
	notify  service.NotificationService
	timeout time.Duration
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
}

// New 创建调度器并注册任务；cron 表达式为空的任务不注册
func New(cfg *config.Config, users repository.UserRepository, dues service.DuesService, notify service.NotificationService, logger *zap.Logger) (*Scheduler, error) {
	logger = logger.Named("scheduler")
	loc := cfg.App.Location()
	cl := cronLogger{s: logger.Sugar()}

	timeout := cfg.Scheduler.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		users:   users,
		dues:    dues,
		notify:  notify,
		timeout: timeout,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context)
	}{
		{"generate_dues", cfg.Scheduler.GenerateDues, s.RunGenerateDues},
		{"dues_reminders", cfg.Scheduler.DuesReminders, s.RunDuesReminders},
		{"absence_alerts", cfg.Scheduler.AbsenceAlerts, s.RunAbsenceAlerts},
		{"monthly_report", cfg.Scheduler.MonthlyReport, s.RunMonthlyReport},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		job := j
		if _, err := s.cron.AddFunc(job.spec, func() { s.runJob(job.name, job.run) }); err != nil {
			cancel()
			return nil, fmt.Errorf("注册定时任务 %s (%q) 失败: %w", job.name, job.spec, err)
		}
		logger.Info("定时任务已注册", zap.String("job", job.name), zap.String("spec", job.spec))
	}
	return s, nil
}

// Start 启动调度（非阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时任务调度已启动", zap.String("timezone", s.loc.String()))
}

// Stop 停止调度并等待运行中的任务结束，ctx 到期时取消运行中的任务
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("等待定时任务结束超时，已取消运行中的任务")
	}
	s.cancel()
}

func (s *Scheduler) runJob(name string, run func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("定时任务开始", zap.String("job", name))
	run(ctx)
	s.logger.Info("定时任务结束", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
}

// ────────────────────── Jobs ──────────────────────

// RunGenerateDues 为当月生成会费；没有活跃成员的操作者跳过
func (s *Scheduler) RunGenerateDues(ctx context.Context) {
	month := period.MonthOf(s.now(), s.loc)
	s.forEachOperator(ctx, "generate_dues", func(ctx context.Context, op *model.User) error {
		resp, err := s.dues.Generate(ctx, month, op.UserID)
		if errors.Is(err, service.ErrNoActiveMembers) {
			return nil
		}
		if err != nil {
			return err
		}
		s.logger.Info("自动生成会费完成",
			zap.String("user_id", op.UserID),
			zap.String("month", month),
			zap.Int("created", resp.Created),
			zap.Int("skipped", resp.Skipped),
			zap.Int("failed", resp.Failed),
		)
		return nil
	})
}

// RunDuesReminders 当月未缴提醒
func (s *Scheduler) RunDuesReminders(ctx context.Context) {
	month := period.MonthOf(s.now(), s.loc)
	s.forEachOperator(ctx, "dues_reminders", func(ctx context.Context, op *model.User) error {
		_, err := s.notify.SendDuesReminders(ctx, month, op.UserID)
		return err
	})
}

// RunAbsenceAlerts 缺席关怀
func (s *Scheduler) RunAbsenceAlerts(ctx context.Context) {
	s.forEachOperator(ctx, "absence_alerts", func(ctx context.Context, op *model.User) error {
		_, err := s.notify.SendAbsenceAlerts(ctx, op.UserID)
		return err
	})
}

// RunMonthlyReport 上月报告
func (s *Scheduler) RunMonthlyReport(ctx context.Context) {
	month, _ := period.AddMonths(period.MonthOf(s.now(), s.loc), -1)
	s.forEachOperator(ctx, "monthly_report", func(ctx context.Context, op *model.User) error {
		return s.notify.SendMonthlyReport(ctx, month, op.UserID)
	})
}

func (s *Scheduler) forEachOperator(ctx context.Context, job string, fn func(ctx context.Context, op *model.User) error) {
	operators, err := s.users.ListByRoles(ctx, model.UserRoleAdmin, model.UserRoleLeader)
	if err != nil {
		s.logger.Error("查询操作者失败", zap.String("job", job), zap.Error(err))
		return
	}
	for i := range operators {
		if ctx.Err() != nil {
			s.logger.Warn("定时任务被中断", zap.String("job", job), zap.Error(ctx.Err()))
			return
		}
		op := &operators[i]
		if err := fn(ctx, op); err != nil {
			s.logger.Error("定时任务执行失败",
				zap.String("job", job),
				zap.String("user_id", op.UserID),
				zap.Error(err),
			)
		}
	}
}

// cronLogger 将 cron 内部日志接入 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
