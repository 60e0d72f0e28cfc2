package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound        = pkgerrors.New(pkgerrors.ErrNotFound, 17001, "活动不存在")
	ErrEventInvalidTime     = pkgerrors.New(pkgerrors.ErrValidation, 17002, "时间格式无效或结束时间早于开始时间")
	ErrEventMemberNotLinked = pkgerrors.New(pkgerrors.ErrNotFound, 17003, "该成员未参与此活动")
	ErrEventUnknownMembers  = pkgerrors.New(pkgerrors.ErrValidation, 17004, "参与成员不存在")
	ErrEventInvalidType     = pkgerrors.New(pkgerrors.ErrValidation, 17005, "活动类型无效")
)

// defaultEventDuration 未填写结束时间时日历中的默认时长
const defaultEventDuration = 2 * time.Hour

// EventService 活动业务接口
type EventService interface {
	Create(ctx context.Context, req *dto.CreateEventRequest, callerID string) (*dto.EventResponse, error)
	GetByID(ctx context.Context, id, callerID string) (*dto.EventResponse, error)
	List(ctx context.Context, req *dto.EventListRequest, callerID string) ([]dto.EventResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEventRequest, callerID string) (*dto.EventResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	Confirm(ctx context.Context, eventID, memberID string, req *dto.ConfirmEventRequest, callerID string) (*dto.EventResponse, error)
	// Calendar 生成操作者全部活动的 iCalendar 订阅内容
	Calendar(ctx context.Context, callerID string) ([]byte, error)
}

type eventService struct {
	repo    *repository.Repository
	appName string
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) EventService {
	return &eventService{
		repo:    repo,
		appName: cfg.App.Name,
		loc:     cfg.App.Location(),
		now:     time.Now,
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest, callerID string) (*dto.EventResponse, error) {
	day, err := parseDay(req.Date, s.loc)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		OwnerID:   callerID,
		Title:     strings.TrimSpace(req.Title),
		Date:      day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  orDefault(strings.TrimSpace(req.Location), model.DefaultEventLocation),
		Type:      orDefault(req.Type, model.EventTypeRehearsal),
		Notes:     req.Notes,
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	memberIDs := dedupe(req.MemberIDs)
	if err := s.ensureMembers(ctx, callerID, memberIDs); err != nil {
		return nil, err
	}

	if err := s.repo.Event.Create(ctx, event, memberIDs); err != nil {
		s.logger.Error("创建活动失败", zap.String("title", event.Title), zap.Error(err))
		return nil, pkgerrors.Dependency("创建活动", err)
	}

	s.logger.Info("活动已创建", zap.String("event_id", event.EventID), zap.Int("members", len(memberIDs)))
	return s.GetByID(ctx, event.EventID, callerID)
}

// ────────────────────── GetByID ──────────────────────

func (s *eventService) GetByID(ctx context.Context, id, callerID string) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return s.toEventResponse(event), nil
}

// ────────────────────── List ──────────────────────

func (s *eventService) List(ctx context.Context, req *dto.EventListRequest, callerID string) ([]dto.EventResponse, error) {
	fromDay, err := parseOptionalDay(req.From, s.loc)
	if err != nil {
		return nil, err
	}
	toDay, err := parseOptionalDay(req.To, s.loc)
	if err != nil {
		return nil, err
	}
	if fromDay != nil && toDay != nil && fromDay.After(*toDay) {
		return nil, ErrInvalidRange
	}

	var from, to *time.Time
	if fromDay != nil {
		b, _ := period.DayBounds(*fromDay, s.loc)
		from = &b
	}
	if toDay != nil {
		_, e := period.DayBounds(*toDay, s.loc)
		to = &e
	}

	events, err := s.repo.Event.List(ctx, callerID, from, to)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, pkgerrors.Dependency("查询活动列表", err)
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *s.toEventResponse(&events[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *eventService) Update(ctx context.Context, id string, req *dto.UpdateEventRequest, callerID string) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Date != nil {
		day, err := parseDay(*req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		event.Date = day
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = strings.TrimSpace(*req.EndTime)
	}
	if req.Location != nil {
		event.Location = orDefault(strings.TrimSpace(*req.Location), model.DefaultEventLocation)
	}
	if req.Type != nil {
		event.Type = *req.Type
	}
	if req.Notes != nil {
		event.Notes = *req.Notes
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	var memberIDs *[]string
	if req.MemberIDs != nil {
		ids := dedupe(*req.MemberIDs)
		if err := s.ensureMembers(ctx, callerID, ids); err != nil {
			return nil, err
		}
		memberIDs = &ids
	}

	if err := s.repo.Event.Update(ctx, event, memberIDs); err != nil {
		s.logger.Error("更新活动失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("更新活动", err)
	}
	return s.GetByID(ctx, id, callerID)
}

// ────────────────────── Delete ──────────────────────

func (s *eventService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.Event.Delete(ctx, callerID, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrEventNotFound
		}
		s.logger.Error("删除活动失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Dependency("删除活动", err)
	}
	return nil
}

// ────────────────────── Confirm ──────────────────────

// Confirm 设置成员对活动的确认状态；未传 confirmed 时视为确认
func (s *eventService) Confirm(ctx context.Context, eventID, memberID string, req *dto.ConfirmEventRequest, callerID string) (*dto.EventResponse, error) {
	if _, err := s.load(ctx, eventID, callerID); err != nil {
		return nil, err
	}

	confirmed := req.Confirmed == nil || *req.Confirmed
	var at *time.Time
	if confirmed {
		now := s.now()
		at = &now
	}

	if err := s.repo.Event.SetConfirmation(ctx, eventID, memberID, confirmed, at); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrEventMemberNotLinked
		}
		s.logger.Error("更新参与确认失败", zap.String("event_id", eventID), zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("更新参与确认", err)
	}
	return s.GetByID(ctx, eventID, callerID)
}

// ────────────────────── Calendar ──────────────────────

func (s *eventService) Calendar(ctx context.Context, callerID string) ([]byte, error) {
	events, err := s.repo.Event.List(ctx, callerID, nil, nil)
	if err != nil {
		s.logger.Error("导出活动日历失败", zap.Error(err))
		return nil, pkgerrors.Dependency("导出活动日历", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + s.appName + "//FR")
	cal.SetXWRCalName(s.appName)
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now()
	for i := range events {
		e := &events[i]
		start, end, ok := eventWindow(e, s.loc)
		if !ok {
			s.logger.Warn("活动时间无效，跳过", zap.String("event_id", e.EventID))
			continue
		}

		vevent := cal.AddEvent(e.EventID + "@" + strings.ReplaceAll(strings.ToLower(s.appName), " ", "-"))
		vevent.SetDtStampTime(stamp)
		vevent.SetCreatedTime(e.CreatedAt)
		vevent.SetModifiedAt(e.UpdatedAt)
		vevent.SetStartAt(start)
		vevent.SetEndAt(end)
		vevent.SetSummary(e.Title)
		vevent.SetLocation(e.Location)
		if desc := eventDescription(e); desc != "" {
			vevent.SetDescription(desc)
		}
		vevent.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(e.Type))
	}

	return []byte(cal.Serialize()), nil
}

// eventWindow 计算活动的起止时刻
func eventWindow(e *model.Event, loc *time.Location) (time.Time, time.Time, bool) {
	start, ok := atClock(e.Date, e.StartTime, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end := start.Add(defaultEventDuration)
	if e.EndTime != "" {
		if t, ok := atClock(e.Date, e.EndTime, loc); ok && t.After(start) {
			end = t
		}
	}
	return start, end, true
}

// atClock 将 HH:MM 落到 day 所在的本地日期
func atClock(day time.Time, clock string, loc *time.Location) (time.Time, bool) {
	if !period.ValidClock(clock) {
		return time.Time{}, false
	}
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return time.Time{}, false
	}
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), h, m, 0, 0, loc), true
}

func eventDescription(e *model.Event) string {
	var b strings.Builder
	b.WriteString(e.Notes)
	for _, em := range e.Members {
		if em.Member == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		mark := "?"
		if em.Confirmed {
			mark = "✓"
		}
		b.WriteString(mark + " " + em.Member.DisplayName())
	}
	return b.String()
}

// ── 内部辅助方法 ──

func validateEvent(e *model.Event) error {
	if !model.IsValidEventType(e.Type) {
		return ErrEventInvalidType
	}
	if !period.ValidClock(e.StartTime) {
		return ErrEventInvalidTime
	}
	if e.EndTime != "" && (!period.ValidClock(e.EndTime) || e.EndTime <= e.StartTime) {
		return ErrEventInvalidTime
	}
	return nil
}

func (s *eventService) load(ctx context.Context, id, callerID string) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, callerID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("查询活动", err)
	}
	return event, nil
}

// ensureMembers 确认所有成员都属于操作者
func (s *eventService) ensureMembers(ctx context.Context, callerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members, err := s.repo.Member.ListByIDs(ctx, callerID, ids)
	if err != nil {
		return pkgerrors.Dependency("查询成员", err)
	}
	if len(members) != len(ids) {
		return ErrEventUnknownMembers
	}
	return nil
}

func (s *eventService) toEventResponse(e *model.Event) *dto.EventResponse {
	resp := &dto.EventResponse{
		ID:        e.EventID,
		Title:     e.Title,
		Date:      formatDate(e.Date, s.loc),
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Location:  e.Location,
		Type:      e.Type,
		Notes:     e.Notes,
		Members:   make([]dto.EventMemberResponse, 0, len(e.Members)),
		CreatedAt: formatTime(e.CreatedAt),
	}
	for _, em := range e.Members {
		m := dto.EventMemberResponse{
			MemberID:    em.MemberID,
			Confirmed:   em.Confirmed,
			ConfirmedAt: formatTimePtr(em.ConfirmedAt),
		}
		if em.Member != nil {
			m.Name = em.Member.DisplayName()
		}
		resp.Members = append(resp.Members, m)
	}
	return resp
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
