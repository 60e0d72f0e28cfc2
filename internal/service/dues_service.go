package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 会费模块业务错误 ──

var (
	ErrDuesNotFound       = pkgerrors.New(pkgerrors.ErrNotFound, 14001, "会费记录不存在")
	ErrDuesDuplicate      = pkgerrors.New(pkgerrors.ErrDuplicate, 14002, "该成员当月会费记录已存在")
	ErrNoActiveMembers    = pkgerrors.New(pkgerrors.ErrValidation, 14003, "没有活跃成员，无法生成会费")
	ErrDuesEmptyUpdate    = pkgerrors.New(pkgerrors.ErrValidation, 14004, "至少需要提供一个更新字段")
	ErrDuesConflict       = pkgerrors.New(pkgerrors.ErrDuplicate, 14005, "会费记录已被其他操作修改，请刷新后重试")
	ErrDuesPaymentOnUnpay = pkgerrors.New(pkgerrors.ErrValidation, 14006, "未缴记录不能设置付款方式或付款日期")
)

const defaultRecentPayments = 10

// PaymentNotifier 付款确认通知；实现方自行吸收发送失败
type PaymentNotifier interface {
	PaymentConfirmed(ctx context.Context, dues *model.Dues, member *model.Member)
}

// DuesService 会费业务接口
type DuesService interface {
	Create(ctx context.Context, req *dto.CreateDuesRequest, callerID string) (*dto.DuesResponse, error)
	Generate(ctx context.Context, month, callerID string) (*dto.GenerateDuesResponse, error)
	MarkPaid(ctx context.Context, id string, req *dto.MarkPaidRequest, callerID string) (*dto.DuesResponse, error)
	CancelPayment(ctx context.Context, id, callerID string) (*dto.DuesResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDuesRequest, callerID string) (*dto.DuesResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	GetByID(ctx context.Context, id, callerID string) (*dto.DuesResponse, error)
	List(ctx context.Context, req *dto.DuesListRequest, callerID string) ([]dto.DuesResponse, error)
	ListByMember(ctx context.Context, memberID, callerID string) ([]dto.DuesResponse, error)
	RecentPayments(ctx context.Context, limit int, callerID string) ([]dto.DuesResponse, error)
	StatsForMonth(ctx context.Context, month, callerID string) (*dto.DuesMonthStatsResponse, error)
}

type duesService struct {
	repo     *repository.Repository
	notifier PaymentNotifier
	fee      int64
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewDuesService 创建 DuesService 实例
func NewDuesService(cfg *config.Config, repo *repository.Repository, notifier PaymentNotifier, logger *zap.Logger) DuesService {
	return &duesService{
		repo:     repo,
		notifier: notifier,
		fee:      cfg.Dues.MonthlyFee,
		loc:      cfg.App.Location(),
		now:      time.Now,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *duesService) Create(ctx context.Context, req *dto.CreateDuesRequest, callerID string) (*dto.DuesResponse, error) {
	if err := checkMonth(req.Month); err != nil {
		return nil, err
	}
	if req.Status != model.DuesStatusPaid && (req.PaymentMethod != "" || req.PaidAt != "") {
		return nil, ErrDuesPaymentOnUnpay
	}

	member, err := s.loadMember(ctx, req.MemberID, callerID)
	if err != nil {
		return nil, err
	}

	d := &model.Dues{
		MemberID: member.MemberID,
		OwnerID:  callerID,
		Month:    req.Month,
		Amount:   s.fee,
		Status:   model.DuesStatusUnpaid,
		Notes:    req.Notes,
	}
	if req.Amount != nil {
		d.Amount = *req.Amount
	}

	if req.Status == model.DuesStatusPaid {
		paidAt := s.now()
		if req.PaidAt != "" {
			if paidAt, err = parseInstant(req.PaidAt, s.loc); err != nil {
				return nil, err
			}
		}
		d.MarkPaid(orDefault(req.PaymentMethod, model.PaymentMethodCash), paidAt, callerID)
	}

	// 先查后插；并发下由唯一索引兜底
	if _, err := s.repo.Dues.GetByMemberMonth(ctx, d.MemberID, d.Month); err == nil {
		return nil, ErrDuesDuplicate
	} else if !repository.IsNotFound(err) {
		return nil, pkgerrors.Dependency("查询会费", err)
	}

	if err := s.repo.Dues.Create(ctx, d); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuesDuplicate
		}
		s.logger.Error("创建会费失败", zap.String("member_id", d.MemberID), zap.String("month", d.Month), zap.Error(err))
		return nil, pkgerrors.Dependency("创建会费", err)
	}

	d.Member = member
	return s.toDuesResponse(d), nil
}

// ────────────────────── Generate ──────────────────────

// Generate 为所有活跃成员生成当月未缴会费，已存在的跳过
// 单个成员失败不影响其他成员，重复调用不会产生新记录
func (s *duesService) Generate(ctx context.Context, month, callerID string) (*dto.GenerateDuesResponse, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}

	members, err := s.repo.Member.List(ctx, callerID, repository.MemberFilter{Status: model.MemberStatusActive})
	if err != nil {
		s.logger.Error("查询活跃成员失败", zap.Error(err))
		return nil, pkgerrors.Dependency("查询活跃成员", err)
	}
	if len(members) == 0 {
		return nil, ErrNoActiveMembers
	}

	existingIDs, err := s.repo.Dues.MemberIDsWithMonth(ctx, callerID, month)
	if err != nil {
		return nil, pkgerrors.Dependency("查询已有会费", err)
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	resp := &dto.GenerateDuesResponse{Month: month, Records: []dto.DuesResponse{}}
	for i := range members {
		m := &members[i]
		if existing[m.MemberID] {
			resp.Skipped++
			continue
		}

		d := &model.Dues{
			MemberID: m.MemberID,
			OwnerID:  callerID,
			Month:    month,
			Amount:   s.fee,
			Status:   model.DuesStatusUnpaid,
		}
		if err := s.repo.Dues.Create(ctx, d); err != nil {
			if repository.IsUniqueViolation(err) {
				resp.Skipped++
				continue
			}
			resp.Failed++
			s.logger.Error("生成会费失败",
				zap.String("member_id", m.MemberID),
				zap.String("month", month),
				zap.Error(err),
			)
			continue
		}

		d.Member = m
		resp.Created++
		resp.Records = append(resp.Records, *s.toDuesResponse(d))
	}

	s.logger.Info("月度会费生成完成",
		zap.String("owner_id", callerID),
		zap.String("month", month),
		zap.Int("created", resp.Created),
		zap.Int("skipped", resp.Skipped),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// ────────────────────── MarkPaid ──────────────────────

func (s *duesService) MarkPaid(ctx context.Context, id string, req *dto.MarkPaidRequest, callerID string) (*dto.DuesResponse, error) {
	d, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	paidAt := s.now()
	if req.Date != "" {
		if paidAt, err = parseInstant(req.Date, s.loc); err != nil {
			return nil, err
		}
	}
	d.MarkPaid(orDefault(req.PaymentMethod, model.PaymentMethodCash), paidAt, callerID)

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("会费已缴",
		zap.String("dues_id", d.DuesID),
		zap.String("member_id", d.MemberID),
		zap.String("month", d.Month),
	)

	// 通知失败不影响付款结果
	if s.notifier != nil {
		s.notifier.PaymentConfirmed(ctx, d, d.Member)
	}

	return s.toDuesResponse(d), nil
}

// ────────────────────── CancelPayment ──────────────────────

func (s *duesService) CancelPayment(ctx context.Context, id, callerID string) (*dto.DuesResponse, error) {
	d, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	d.ClearPayment()
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return s.toDuesResponse(d), nil
}

// ────────────────────── Update ──────────────────────

func (s *duesService) Update(ctx context.Context, id string, req *dto.UpdateDuesRequest, callerID string) (*dto.DuesResponse, error) {
	if req.IsEmpty() {
		return nil, ErrDuesEmptyUpdate
	}

	d, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		d.Amount = *req.Amount
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}

	target := d.Status
	if req.Status != nil {
		target = *req.Status
	}

	switch target {
	case model.DuesStatusUnpaid:
		if req.Status == nil && (req.PaymentMethod != nil || req.PaidAt != nil) {
			return nil, ErrDuesPaymentOnUnpay
		}
		d.ClearPayment()

	case model.DuesStatusPaid:
		method := model.PaymentMethodCash
		if d.PaymentMethod != nil {
			method = *d.PaymentMethod
		}
		if req.PaymentMethod != nil {
			method = *req.PaymentMethod
		}

		var paidAt time.Time
		switch {
		case req.PaidAt != nil:
			if paidAt, err = parseInstant(*req.PaidAt, s.loc); err != nil {
				return nil, err
			}
		case d.Status == model.DuesStatusPaid && d.PaidAt != nil:
			paidAt = *d.PaidAt
		default:
			paidAt = s.now()
		}

		by := callerID
		if d.Status == model.DuesStatusPaid && req.Status == nil && d.PaidBy != nil {
			by = *d.PaidBy
		}
		d.MarkPaid(method, paidAt, by)
	}

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return s.toDuesResponse(d), nil
}

// ────────────────────── Delete ──────────────────────

func (s *duesService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.Dues.Delete(ctx, callerID, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrDuesNotFound
		}
		s.logger.Error("删除会费失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Dependency("删除会费", err)
	}
	return nil
}

// ────────────────────── Queries ──────────────────────

func (s *duesService) GetByID(ctx context.Context, id, callerID string) (*dto.DuesResponse, error) {
	d, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return s.toDuesResponse(d), nil
}

func (s *duesService) List(ctx context.Context, req *dto.DuesListRequest, callerID string) ([]dto.DuesResponse, error) {
	if req.Month != "" {
		if err := checkMonth(req.Month); err != nil {
			return nil, err
		}
	}
	list, err := s.repo.Dues.List(ctx, callerID, repository.DuesFilter{Month: req.Month, Status: req.Status})
	if err != nil {
		s.logger.Error("列出会费失败", zap.Error(err))
		return nil, pkgerrors.Dependency("列出会费", err)
	}
	return s.toDuesResponses(list), nil
}

func (s *duesService) ListByMember(ctx context.Context, memberID, callerID string) ([]dto.DuesResponse, error) {
	if _, err := s.loadMember(ctx, memberID, callerID); err != nil {
		return nil, err
	}
	list, err := s.repo.Dues.List(ctx, callerID, repository.DuesFilter{MemberID: memberID})
	if err != nil {
		s.logger.Error("查询成员会费失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("查询成员会费", err)
	}
	return s.toDuesResponses(list), nil
}

func (s *duesService) RecentPayments(ctx context.Context, limit int, callerID string) ([]dto.DuesResponse, error) {
	if limit <= 0 {
		limit = defaultRecentPayments
	}
	list, err := s.repo.Dues.RecentPaid(ctx, callerID, limit)
	if err != nil {
		s.logger.Error("查询最近付款失败", zap.Error(err))
		return nil, pkgerrors.Dependency("查询最近付款", err)
	}
	return s.toDuesResponses(list), nil
}

// ────────────────────── StatsForMonth ──────────────────────

func (s *duesService) StatsForMonth(ctx context.Context, month, callerID string) (*dto.DuesMonthStatsResponse, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}

	rows, err := s.repo.Dues.SummarizeByStatus(ctx, callerID, repository.DuesFilter{Month: month})
	if err != nil {
		s.logger.Error("统计月度会费失败", zap.String("month", month), zap.Error(err))
		return nil, pkgerrors.Dependency("统计月度会费", err)
	}
	return buildMonthStats(month, rows), nil
}

// buildMonthStats 汇总状态分组；两种状态始终输出，缺失时计 0
func buildMonthStats(month string, rows []repository.StatusCount) *dto.DuesMonthStatsResponse {
	byStatus := map[string]repository.StatusCount{}
	for _, r := range rows {
		byStatus[r.Status] = r
	}
	paid := byStatus[model.DuesStatusPaid]
	unpaid := byStatus[model.DuesStatusUnpaid]

	resp := &dto.DuesMonthStatsResponse{
		Month: month,
		ByStatus: []dto.DuesStatusGroup{
			{Status: model.DuesStatusPaid, Count: paid.Count, Amount: paid.Amount},
			{Status: model.DuesStatusUnpaid, Count: unpaid.Count, Amount: unpaid.Amount},
		},
		Paid:         paid.Count,
		Unpaid:       unpaid.Count,
		PaidAmount:   paid.Amount,
		UnpaidAmount: unpaid.Amount,
	}
	resp.Total = paid.Count + unpaid.Count
	resp.TotalAmount = paid.Amount + unpaid.Amount
	resp.PaymentRate = period.Percent(resp.Paid, resp.Total)
	return resp
}

// ── 内部辅助方法 ──

func (s *duesService) load(ctx context.Context, id, callerID string) (*model.Dues, error) {
	d, err := s.repo.Dues.GetByID(ctx, callerID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDuesNotFound
		}
		s.logger.Error("查询会费失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("查询会费", err)
	}
	return d, nil
}

func (s *duesService) loadMember(ctx context.Context, memberID, callerID string) (*model.Member, error) {
	m, err := s.repo.Member.GetByID(ctx, callerID, memberID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMemberNotFound
		}
		return nil, pkgerrors.Dependency("查询成员", err)
	}
	return m, nil
}

func (s *duesService) save(ctx context.Context, d *model.Dues) error {
	if err := s.repo.Dues.Update(ctx, d); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrDuesConflict
		}
		s.logger.Error("更新会费失败", zap.String("id", d.DuesID), zap.Error(err))
		return pkgerrors.Dependency("更新会费", err)
	}
	return nil
}

func (s *duesService) toDuesResponses(list []model.Dues) []dto.DuesResponse {
	result := make([]dto.DuesResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toDuesResponse(&list[i]))
	}
	return result
}

func (s *duesService) toDuesResponse(d *model.Dues) *dto.DuesResponse {
	resp := &dto.DuesResponse{
		ID:            d.DuesID,
		MemberID:      d.MemberID,
		Month:         d.Month,
		Amount:        d.Amount,
		Status:        d.Status,
		PaymentMethod: d.PaymentMethod,
		PaidAt:        formatTimePtr(d.PaidAt),
		PaidBy:        d.PaidBy,
		Notes:         d.Notes,
		IsOverdue:     d.IsOverdue(period.MonthOf(s.now(), s.loc)),
		CreatedAt:     formatTime(d.CreatedAt),
		UpdatedAt:     formatTime(d.UpdatedAt),
	}
	if d.Member != nil {
		resp.MemberName = d.Member.DisplayName()
	}
	return resp
}
