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
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 考勤模块业务错误 ──

var (
	ErrAttendanceNotFound        = pkgerrors.New(pkgerrors.ErrNotFound, 15001, "考勤记录不存在")
	ErrAttendanceReasonRequired  = pkgerrors.New(pkgerrors.ErrValidation, 15002, "请假必须填写原因")
	ErrAttendanceArrivalRequired = pkgerrors.New(pkgerrors.ErrValidation, 15003, "迟到必须填写到达时间（HH:MM）")
	ErrAttendanceInvalidStatus   = pkgerrors.New(pkgerrors.ErrValidation, 15004, "考勤状态无效")
	ErrAttendanceInvalidArrival  = pkgerrors.New(pkgerrors.ErrValidation, 15005, "到达时间格式无效，应为 HH:MM")
)

const (
	memberHistoryLimit = 100
	attendanceListCap  = 500
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// Record 按 (成员, 自然日) 写入考勤；created 表示是否新建
	Record(ctx context.Context, req *dto.RecordAttendanceRequest, callerID string) (resp *dto.AttendanceResponse, created bool, err error)
	ByDate(ctx context.Context, date, callerID string) ([]dto.AttendanceResponse, error)
	ByMember(ctx context.Context, memberID string, req *dto.AttendanceRangeRequest, callerID string) ([]dto.AttendanceResponse, error)
	List(ctx context.Context, callerID string) ([]dto.AttendanceResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest, callerID string) (*dto.AttendanceResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	Rate(ctx context.Context, memberID, since, callerID string) (*dto.AttendanceRateResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{
		repo:   repo,
		loc:    cfg.App.Location(),
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── Record ──────────────────────

func (s *attendanceService) Record(ctx context.Context, req *dto.RecordAttendanceRequest, callerID string) (*dto.AttendanceResponse, bool, error) {
	day, err := parseDay(req.Date, s.loc)
	if err != nil {
		return nil, false, err
	}

	a := &model.Attendance{
		MemberID:    req.MemberID,
		OwnerID:     callerID,
		Date:        day,
		Status:      req.Status,
		Type:        orDefault(strings.TrimSpace(req.Type), model.DefaultAttendanceType),
		ArrivalTime: req.ArrivalTime,
		Reason:      req.Reason,
		MarkedBy:    strPtr(callerID),
	}
	if err := validateAttendance(a); err != nil {
		return nil, false, err
	}

	member, err := s.repo.Member.GetByID(ctx, callerID, req.MemberID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, ErrMemberNotFound
		}
		return nil, false, pkgerrors.Dependency("查询成员", err)
	}

	created := false
	if _, err := s.repo.Attendance.GetByMemberDate(ctx, a.MemberID, a.Date); err != nil {
		if !repository.IsNotFound(err) {
			return nil, false, pkgerrors.Dependency("查询考勤", err)
		}
		created = true
	}

	if err := s.repo.Attendance.Upsert(ctx, a); err != nil {
		s.logger.Error("记录考勤失败",
			zap.String("member_id", a.MemberID),
			zap.Time("date", a.Date),
			zap.Error(err),
		)
		return nil, false, pkgerrors.Dependency("记录考勤", err)
	}

	a.Member = member
	return s.toAttendanceResponse(a), created, nil
}

// ────────────────────── ByDate ──────────────────────

func (s *attendanceService) ByDate(ctx context.Context, date, callerID string) ([]dto.AttendanceResponse, error) {
	day, err := parseDay(date, s.loc)
	if err != nil {
		return nil, err
	}
	start, end := period.DayBounds(day, s.loc)

	list, err := s.repo.Attendance.ListByRange(ctx, callerID, start, end)
	if err != nil {
		s.logger.Error("按日期查询考勤失败", zap.String("date", date), zap.Error(err))
		return nil, pkgerrors.Dependency("按日期查询考勤", err)
	}
	return s.toResponses(list), nil
}

// ────────────────────── ByMember ──────────────────────

func (s *attendanceService) ByMember(ctx context.Context, memberID string, req *dto.AttendanceRangeRequest, callerID string) ([]dto.AttendanceResponse, error) {
	if _, err := s.repo.Member.GetByID(ctx, callerID, memberID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMemberNotFound
		}
		return nil, pkgerrors.Dependency("查询成员", err)
	}

	startDay, err := parseOptionalDay(req.Start, s.loc)
	if err != nil {
		return nil, err
	}
	endDay, err := parseOptionalDay(req.End, s.loc)
	if err != nil {
		return nil, err
	}
	if startDay != nil && endDay != nil && startDay.After(*endDay) {
		return nil, ErrInvalidRange
	}

	// 闭区间 [start, end] 换算为 [start 00:00, end 次日 00:00)
	var from, to *time.Time
	if startDay != nil {
		b, _ := period.DayBounds(*startDay, s.loc)
		from = &b
	}
	if endDay != nil {
		_, e := period.DayBounds(*endDay, s.loc)
		to = &e
	}

	list, err := s.repo.Attendance.ListByMember(ctx, callerID, memberID, from, to, memberHistoryLimit)
	if err != nil {
		s.logger.Error("查询成员考勤失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("查询成员考勤", err)
	}
	return s.toResponses(list), nil
}

// ────────────────────── List ──────────────────────

func (s *attendanceService) List(ctx context.Context, callerID string) ([]dto.AttendanceResponse, error) {
	list, err := s.repo.Attendance.List(ctx, callerID, attendanceListCap)
	if err != nil {
		s.logger.Error("列出考勤失败", zap.Error(err))
		return nil, pkgerrors.Dependency("列出考勤", err)
	}
	return s.toResponses(list), nil
}

// ────────────────────── Update ──────────────────────

func (s *attendanceService) Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest, callerID string) (*dto.AttendanceResponse, error) {
	a, err := s.repo.Attendance.GetByID(ctx, callerID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAttendanceNotFound
		}
		return nil, pkgerrors.Dependency("查询考勤", err)
	}

	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.Reason != nil {
		a.Reason = *req.Reason
	}
	if req.ArrivalTime != nil {
		a.ArrivalTime = *req.ArrivalTime
	}
	if req.Type != nil {
		a.Type = orDefault(strings.TrimSpace(*req.Type), model.DefaultAttendanceType)
	}
	// 校验的是更新后的完整状态
	if err := validateAttendance(a); err != nil {
		return nil, err
	}
	a.MarkedBy = strPtr(callerID)

	if err := s.repo.Attendance.Update(ctx, a); err != nil {
		s.logger.Error("更新考勤失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("更新考勤", err)
	}
	return s.toAttendanceResponse(a), nil
}

// ────────────────────── Delete ──────────────────────

func (s *attendanceService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.Attendance.Delete(ctx, callerID, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrAttendanceNotFound
		}
		s.logger.Error("删除考勤失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Dependency("删除考勤", err)
	}
	return nil
}

// ────────────────────── Rate ──────────────────────

// Rate 成员自 since 起的出勤率；since 为空时统计全部记录
func (s *attendanceService) Rate(ctx context.Context, memberID, since, callerID string) (*dto.AttendanceRateResponse, error) {
	if _, err := s.repo.Member.GetByID(ctx, callerID, memberID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMemberNotFound
		}
		return nil, pkgerrors.Dependency("查询成员", err)
	}

	var from time.Time
	resp := &dto.AttendanceRateResponse{MemberID: memberID}
	if since != "" {
		day, err := parseDay(since, s.loc)
		if err != nil {
			return nil, err
		}
		from, _ = period.DayBounds(day, s.loc)
		resp.Since = formatDate(day, s.loc)
	}

	rows, err := s.repo.Attendance.AggregateByMember(ctx, callerID, memberID, from)
	if err != nil {
		s.logger.Error("统计出勤率失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("统计出勤率", err)
	}
	for _, r := range rows {
		resp.Total += r.Total
		resp.Present += r.Present
		resp.Late += r.Late
		resp.Absent += r.Absent
		resp.Excused += r.Excused
	}
	resp.Rate = attendanceRate(resp.Present, resp.Late, resp.Total)
	return resp, nil
}

// ── 内部辅助方法 ──

// validateAttendance 校验状态相关的必填项，并清理与状态无关的字段
func validateAttendance(a *model.Attendance) error {
	if !model.IsValidAttendanceStatus(a.Status) {
		return ErrAttendanceInvalidStatus
	}
	a.Reason = strings.TrimSpace(a.Reason)
	a.ArrivalTime = strings.TrimSpace(a.ArrivalTime)

	if a.ArrivalTime != "" && !period.ValidClock(a.ArrivalTime) {
		return ErrAttendanceInvalidArrival
	}

	switch a.Status {
	case model.AttendanceExcused:
		if a.Reason == "" {
			return ErrAttendanceReasonRequired
		}
	case model.AttendanceLate:
		if a.ArrivalTime == "" {
			return ErrAttendanceArrivalRequired
		}
	}

	a.DropIrrelevantFields()
	return nil
}

// attendanceRate 出席与迟到都计为到场
func attendanceRate(present, late, total int64) int {
	return period.Percent(present+late, total)
}

func (s *attendanceService) toResponses(list []model.Attendance) []dto.AttendanceResponse {
	result := make([]dto.AttendanceResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toAttendanceResponse(&list[i]))
	}
	return result
}

func (s *attendanceService) toAttendanceResponse(a *model.Attendance) *dto.AttendanceResponse {
	resp := &dto.AttendanceResponse{
		ID:          a.AttendanceID,
		MemberID:    a.MemberID,
		Date:        formatDate(a.Date, s.loc),
		Status:      a.Status,
		Type:        a.Type,
		ArrivalTime: a.ArrivalTime,
		Reason:      a.Reason,
		MarkedBy:    a.MarkedBy,
		CreatedAt:   formatTime(a.CreatedAt),
		UpdatedAt:   formatTime(a.UpdatedAt),
	}
	if a.Member != nil {
		resp.MemberName = a.Member.DisplayName()
	}
	return resp
}
