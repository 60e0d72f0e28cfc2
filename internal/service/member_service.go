package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
)

// ── 成员模块业务错误 ──

var (
	ErrMemberNotFound    = pkgerrors.New(pkgerrors.ErrNotFound, 13001, "成员不存在")
	ErrMemberEmailTaken  = pkgerrors.New(pkgerrors.ErrDuplicate, 13002, "该邮箱已被其他成员使用")
	ErrMemberAgeRange    = pkgerrors.New(pkgerrors.ErrValidation, 13003, "最小年龄不能大于最大年龄")
	ErrMemberInvalidMail = pkgerrors.New(pkgerrors.ErrValidation, 13004, "邮箱格式无效")
)

// MemberService 成员业务接口
type MemberService interface {
	Create(ctx context.Context, req *dto.CreateMemberRequest, callerID string) (*dto.MemberResponse, error)
	GetByID(ctx context.Context, id, callerID string) (*dto.MemberResponse, error)
	List(ctx context.Context, req *dto.MemberListRequest, callerID string) ([]dto.MemberResponse, error)
	Search(ctx context.Context, req *dto.MemberSearchRequest, callerID string) ([]dto.MemberResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateMemberRequest, callerID string) (*dto.MemberResponse, error)
	Delete(ctx context.Context, id, callerID string) (*dto.MemberDeleteResponse, error)
}

type memberService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewMemberService 创建 MemberService 实例
func NewMemberService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) MemberService {
	return &memberService{
		repo:   repo,
		loc:    cfg.App.Location(),
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *memberService) Create(ctx context.Context, req *dto.CreateMemberRequest, callerID string) (*dto.MemberResponse, error) {
	now := s.now().In(s.loc)

	m := &model.Member{
		OwnerID:    callerID,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Pseudo:     strings.TrimSpace(req.Pseudo),
		Phone:      strings.TrimSpace(req.Phone),
		Gender:     orDefault(req.Gender, model.GenderUnspecified),
		Residence:  strings.TrimSpace(req.Residence),
		Role:       orDefault(req.Role, model.MemberRoleSinger),
		Instrument: strings.TrimSpace(req.Instrument),
		Status:     orDefault(req.Status, model.MemberStatusActive),
		Notes:      req.Notes,
		EntryDate:  calendarDate(now, s.loc),
	}

	if email := normalizeEmail(req.Email); email != "" {
		m.Email = &email
	}
	if req.DateOfBirth != "" {
		dob, err := parseDay(req.DateOfBirth, s.loc)
		if err != nil {
			return nil, err
		}
		d := calendarDate(dob, s.loc)
		m.DateOfBirth = &d
	}
	if req.EntryDate != "" {
		entry, err := parseDay(req.EntryDate, s.loc)
		if err != nil {
			return nil, err
		}
		m.EntryDate = calendarDate(entry, s.loc)
	}

	if err := s.ensureEmailFree(ctx, callerID, m.Email, ""); err != nil {
		return nil, err
	}

	m.RefreshAge(now)

	if err := s.repo.Member.Create(ctx, m); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrMemberEmailTaken
		}
		s.logger.Error("创建成员失败", zap.Error(err))
		return nil, pkgerrors.Dependency("创建成员", err)
	}

	s.logger.Info("成员已创建", zap.String("member_id", m.MemberID), zap.String("owner_id", callerID))
	return toMemberResponse(m), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *memberService) GetByID(ctx context.Context, id, callerID string) (*dto.MemberResponse, error) {
	m, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	m.RefreshAge(s.now().In(s.loc))
	return toMemberResponse(m), nil
}

// ────────────────────── List ──────────────────────

func (s *memberService) List(ctx context.Context, req *dto.MemberListRequest, callerID string) ([]dto.MemberResponse, error) {
	members, err := s.repo.Member.List(ctx, callerID, repository.MemberFilter{
		Status: req.Status,
		Role:   req.Role,
	})
	if err != nil {
		s.logger.Error("列出成员失败", zap.Error(err))
		return nil, pkgerrors.Dependency("列出成员", err)
	}
	return s.toResponses(members), nil
}

// ────────────────────── Search ──────────────────────

func (s *memberService) Search(ctx context.Context, req *dto.MemberSearchRequest, callerID string) ([]dto.MemberResponse, int64, error) {
	if req.MinAge != nil && req.MaxAge != nil && *req.MinAge > *req.MaxAge {
		return nil, 0, ErrMemberAgeRange
	}

	filter := repository.MemberFilter{
		Keyword:    req.Q,
		Role:       req.Role,
		Status:     req.Status,
		Gender:     req.Gender,
		Instrument: strings.TrimSpace(req.Instrument),
		Sort:       req.Sort,
		Order:      req.Order,
	}

	// 年龄条件换算为出生日期条件，避免依赖已存储的 age
	today := calendarDate(s.now(), s.loc)
	if req.MinAge != nil {
		t := today.AddDate(-*req.MinAge, 0, 0)
		filter.BornOnOrBefore = &t
	}
	if req.MaxAge != nil {
		t := today.AddDate(-(*req.MaxAge + 1), 0, 0)
		filter.BornAfter = &t
	}

	members, total, err := s.repo.Member.Search(ctx, callerID, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("搜索成员失败", zap.Error(err))
		return nil, 0, pkgerrors.Dependency("搜索成员", err)
	}
	return s.toResponses(members), total, nil
}

// ────────────────────── Update ──────────────────────

func (s *memberService) Update(ctx context.Context, id string, req *dto.UpdateMemberRequest, callerID string) (*dto.MemberResponse, error) {
	m, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		m.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		m.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Pseudo != nil {
		m.Pseudo = strings.TrimSpace(*req.Pseudo)
	}
	if req.Email != nil {
		if email := normalizeEmail(*req.Email); email != "" {
			if !strings.Contains(email, "@") {
				return nil, ErrMemberInvalidMail
			}
			m.Email = &email
		} else {
			m.Email = nil
		}
	}
	if req.Phone != nil {
		m.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Gender != nil {
		m.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		if strings.TrimSpace(*req.DateOfBirth) == "" {
			m.DateOfBirth = nil
		} else {
			dob, err := parseDay(*req.DateOfBirth, s.loc)
			if err != nil {
				return nil, err
			}
			d := calendarDate(dob, s.loc)
			m.DateOfBirth = &d
		}
	}
	if req.Residence != nil {
		m.Residence = strings.TrimSpace(*req.Residence)
	}
	if req.Role != nil {
		m.Role = *req.Role
	}
	if req.Instrument != nil {
		m.Instrument = strings.TrimSpace(*req.Instrument)
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if req.EntryDate != nil {
		entry, err := parseDay(*req.EntryDate, s.loc)
		if err != nil {
			return nil, err
		}
		m.EntryDate = calendarDate(entry, s.loc)
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}

	if req.Email != nil {
		if err := s.ensureEmailFree(ctx, callerID, m.Email, m.MemberID); err != nil {
			return nil, err
		}
	}

	m.RefreshAge(s.now().In(s.loc))

	if err := s.repo.Member.Update(ctx, m); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrMemberEmailTaken
		}
		s.logger.Error("更新成员失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("更新成员", err)
	}

	return toMemberResponse(m), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除成员并级联清理其备注、考勤、会费与活动参与记录
func (s *memberService) Delete(ctx context.Context, id, callerID string) (*dto.MemberDeleteResponse, error) {
	res, err := s.repo.Cascade.PurgeMember(ctx, callerID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("删除成员失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("删除成员", err)
	}

	s.logger.Info("成员已删除",
		zap.String("member_id", id),
		zap.Int64("dues", res.Dues),
		zap.Int64("attendance", res.Attendance),
		zap.Int64("notes", res.Notes),
	)

	return &dto.MemberDeleteResponse{
		MemberID:          id,
		NotesDeleted:      res.Notes,
		AttendanceDeleted: res.Attendance,
		DuesDeleted:       res.Dues,
		EventLinksDeleted: res.EventLinks,
	}, nil
}

// ── 内部辅助方法 ──

func (s *memberService) load(ctx context.Context, id, callerID string) (*model.Member, error) {
	m, err := s.repo.Member.GetByID(ctx, callerID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("查询成员失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("查询成员", err)
	}
	return m, nil
}

func (s *memberService) ensureEmailFree(ctx context.Context, ownerID string, email *string, excludeID string) error {
	if email == nil {
		return nil
	}
	taken, err := s.repo.Member.EmailTaken(ctx, ownerID, *email, excludeID)
	if err != nil {
		return pkgerrors.Dependency("检查成员邮箱", err)
	}
	if taken {
		return ErrMemberEmailTaken
	}
	return nil
}

func (s *memberService) toResponses(members []model.Member) []dto.MemberResponse {
	now := s.now().In(s.loc)
	result := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		members[i].RefreshAge(now)
		result = append(result, *toMemberResponse(&members[i]))
	}
	return result
}

func toMemberResponse(m *model.Member) *dto.MemberResponse {
	resp := &dto.MemberResponse{
		ID:         m.MemberID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		FullName:   m.FullName(),
		Pseudo:     m.Pseudo,
		Email:      m.Email,
		Phone:      m.Phone,
		Gender:     m.Gender,
		Age:        m.Age,
		Residence:  m.Residence,
		Role:       m.Role,
		Instrument: m.Instrument,
		Status:     m.Status,
		EntryDate:  m.EntryDate.Format(dto.DateLayout),
		Notes:      m.Notes,
		CreatedAt:  formatTime(m.CreatedAt),
		UpdatedAt:  formatTime(m.UpdatedAt),
	}
	if m.DateOfBirth != nil {
		resp.DateOfBirth = strPtr(m.DateOfBirth.Format(dto.DateLayout))
	}
	return resp
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
