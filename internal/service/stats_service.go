package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 统计模块业务错误 ──

var (
	ErrInvalidDimension = pkgerrors.New(pkgerrors.ErrValidation, 16001, "分布维度无效，可选 role / gender / age")
)

// 分布维度
const (
	DimensionRole   = "role"
	DimensionGender = "gender"
	DimensionAge    = "age"
)

const (
	defaultDuesTrendMonths  = 12
	defaultAttendanceDays   = 30
	defaultPerformanceLimit = 10
	defaultTopMonths        = 3
	defaultBottomMonths     = 1
	defaultMinSample        = 4
	defaultLowThreshold     = 50
	defaultInsightMonths    = 6
	topPayersLimit          = 10
	unknownAgeBucket        = "unknown"
)

// ageBucket 年龄段 [Min, Max]，Max < 0 表示无上限
type ageBucket struct {
	Key string
	Min int
	Max int
}

var ageBuckets = []ageBucket{
	{"0-17", 0, 17},
	{"18-24", 18, 24},
	{"25-34", 25, 34},
	{"35-44", 35, 44},
	{"45-54", 45, 54},
	{"55-64", 55, 64},
	{"65+", 65, -1},
}

// bucketForAge 返回年龄所属区间
func bucketForAge(age int) string {
	for _, b := range ageBuckets {
		if age >= b.Min && (b.Max < 0 || age <= b.Max) {
			return b.Key
		}
	}
	return unknownAgeBucket
}

// StatsService 统计业务接口（只读）
type StatsService interface {
	DuesTrend(ctx context.Context, months int, callerID string) ([]dto.DuesTrendPoint, error)
	AttendanceTrend(ctx context.Context, days int, callerID string) ([]dto.AttendanceTrendPoint, error)
	TopPerformers(ctx context.Context, req *dto.PerformanceRequest, callerID string) ([]dto.MemberPerformance, error)
	BottomPerformers(ctx context.Context, req *dto.PerformanceRequest, callerID string) ([]dto.MemberPerformance, error)
	Distribution(ctx context.Context, dimension, callerID string) (*dto.DistributionResponse, error)
	FinancialInsights(ctx context.Context, months int, callerID string) (*dto.FinancialInsightsResponse, error)
	Goals(ctx context.Context, month, callerID string) (*dto.GoalsResponse, error)
	Overview(ctx context.Context, callerID string) (*dto.OverviewResponse, error)
	MemberStats(ctx context.Context, memberID, callerID string) (*dto.MemberStatsResponse, error)
}

type statsService struct {
	repo   *repository.Repository
	fee    int64
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) StatsService {
	return &statsService{
		repo:   repo,
		fee:    cfg.Dues.MonthlyFee,
		loc:    cfg.App.Location(),
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── DuesTrend ──────────────────────

// DuesTrend 最近 months 个月（含当月）的会费序列，无数据的月份补零
func (s *statsService) DuesTrend(ctx context.Context, months int, callerID string) ([]dto.DuesTrendPoint, error) {
	if months <= 0 {
		months = defaultDuesTrendMonths
	}
	keys := period.LastMonths(s.now(), months, s.loc)

	rows, err := s.repo.Dues.SummarizeByMonth(ctx, callerID, keys[0], keys[len(keys)-1])
	if err != nil {
		s.logger.Error("统计会费趋势失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计会费趋势", err)
	}
	return buildDuesSeries(keys, rows), nil
}

func buildDuesSeries(keys []string, rows []repository.MonthStatusCount) []dto.DuesTrendPoint {
	index := make(map[string]int, len(keys))
	series := make([]dto.DuesTrendPoint, len(keys))
	for i, k := range keys {
		index[k] = i
		series[i].Month = k
	}
	for _, r := range rows {
		i, ok := index[r.Month]
		if !ok {
			continue
		}
		p := &series[i]
		switch r.Status {
		case model.DuesStatusPaid:
			p.Paid += r.Count
			p.PaidAmount += r.Amount
		case model.DuesStatusUnpaid:
			p.Unpaid += r.Count
		}
		p.TotalAmount += r.Amount
	}
	for i := range series {
		series[i].PaymentRate = period.Percent(series[i].Paid, series[i].Paid+series[i].Unpaid)
	}
	return series
}

// ────────────────────── AttendanceTrend ──────────────────────

// AttendanceTrend 最近 days 天（含今天）有考勤的每一天
func (s *statsService) AttendanceTrend(ctx context.Context, days int, callerID string) ([]dto.AttendanceTrendPoint, error) {
	if days <= 0 {
		days = defaultAttendanceDays
	}
	today, _ := period.DayBounds(s.now(), s.loc)
	since := today.AddDate(0, 0, -(days - 1))

	rows, err := s.repo.Attendance.AggregateByDay(ctx, callerID, since, s.loc.String())
	if err != nil {
		s.logger.Error("统计考勤趋势失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计考勤趋势", err)
	}
	return buildAttendanceSeries(rows), nil
}

func buildAttendanceSeries(rows []repository.DayStatusCount) []dto.AttendanceTrendPoint {
	byDay := map[string]*dto.AttendanceTrendPoint{}
	var order []string
	for _, r := range rows {
		p, ok := byDay[r.Day]
		if !ok {
			p = &dto.AttendanceTrendPoint{Date: r.Day}
			byDay[r.Day] = p
			order = append(order, r.Day)
		}
		switch r.Status {
		case model.AttendancePresent:
			p.Present += r.Count
		case model.AttendanceAbsent:
			p.Absent += r.Count
		case model.AttendanceExcused:
			p.Excused += r.Count
		case model.AttendanceLate:
			p.Late += r.Count
		}
		p.Total += r.Count
	}
	sort.Strings(order)

	series := make([]dto.AttendanceTrendPoint, 0, len(order))
	for _, day := range order {
		p := byDay[day]
		p.AttendanceRate = attendanceRate(p.Present, p.Late, p.Total)
		series = append(series, *p)
	}
	return series
}

// ────────────────────── Performers ──────────────────────

func (s *statsService) TopPerformers(ctx context.Context, req *dto.PerformanceRequest, callerID string) ([]dto.MemberPerformance, error) {
	limit, months := req.Limit, req.Months
	if limit <= 0 {
		limit = defaultPerformanceLimit
	}
	if months <= 0 {
		months = defaultTopMonths
	}

	ranked, err := s.performances(ctx, callerID, months, intOr(req.MinSample, defaultMinSample))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ratio != ranked[j].ratio {
			return ranked[i].ratio > ranked[j].ratio
		}
		return lessByPresent(ranked[i].MemberPerformance, ranked[j].MemberPerformance)
	})
	return truncate(ranked, limit), nil
}

func (s *statsService) BottomPerformers(ctx context.Context, req *dto.PerformanceRequest, callerID string) ([]dto.MemberPerformance, error) {
	limit, months := req.Limit, req.Months
	if limit <= 0 {
		limit = defaultPerformanceLimit
	}
	if months <= 0 {
		months = defaultBottomMonths
	}
	threshold := intOr(req.Threshold, defaultLowThreshold)

	all, err := s.performances(ctx, callerID, months, intOr(req.MinSample, defaultMinSample))
	if err != nil {
		return nil, err
	}
	// 阈值与排序都用未取整的出勤率，取整只用于展示
	low := make([]performance, 0, len(all))
	for _, p := range all {
		if p.ratio*100 < float64(threshold) {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		if low[i].ratio != low[j].ratio {
			return low[i].ratio < low[j].ratio
		}
		return lessByPresent(low[i].MemberPerformance, low[j].MemberPerformance)
	})
	return truncate(low, limit), nil
}

// performance 成员出勤表现及未取整的出勤比例
type performance struct {
	dto.MemberPerformance
	ratio float64
}

// performances 计算窗口内样本数 ≥ minSample 的成员出勤表现
func (s *statsService) performances(ctx context.Context, callerID string, months, minSample int) ([]performance, error) {
	start, _ := period.DayBounds(s.now().AddDate(0, -months, 0), s.loc)

	counts, err := s.repo.Attendance.AggregateByMember(ctx, callerID, "", start)
	if err != nil {
		s.logger.Error("统计成员出勤失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计成员出勤", err)
	}

	eligible := make([]repository.MemberAttendanceCount, 0, len(counts))
	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.Total < int64(minSample) {
			continue
		}
		eligible = append(eligible, c)
		ids = append(ids, c.MemberID)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	members, err := s.memberIndex(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}

	result := make([]performance, 0, len(eligible))
	for _, c := range eligible {
		m, ok := members[c.MemberID]
		if !ok {
			continue
		}
		var ratio float64
		if c.Total > 0 {
			ratio = float64(c.Present+c.Late) / float64(c.Total)
		}
		result = append(result, performance{ratio: ratio, MemberPerformance: dto.MemberPerformance{
			MemberID:       c.MemberID,
			Name:           m.DisplayName(),
			Role:           m.Role,
			Total:          c.Total,
			Present:        c.Present,
			Late:           c.Late,
			Absent:         c.Absent,
			Excused:        c.Excused,
			AttendanceRate: attendanceRate(c.Present, c.Late, c.Total),
		}})
	}
	return result, nil
}

// lessByPresent 同比率时出席次数多者在前，再按成员 ID 升序
func lessByPresent(a, b dto.MemberPerformance) bool {
	if a.Present != b.Present {
		return a.Present > b.Present
	}
	return a.MemberID < b.MemberID
}

// ────────────────────── Distribution ──────────────────────

// Distribution 活跃与暂停成员按维度分布；unknown 不计入百分比分母
func (s *statsService) Distribution(ctx context.Context, dimension, callerID string) (*dto.DistributionResponse, error) {
	var keyOf func(m *model.Member) string
	var keys []string

	now := s.now().In(s.loc)
	switch dimension {
	case DimensionRole:
		keyOf = func(m *model.Member) string { return m.Role }
		keys = []string{model.MemberRoleSinger, model.MemberRoleMusician, model.MemberRoleTechnician, model.MemberRoleOther}
	case DimensionGender:
		keyOf = func(m *model.Member) string { return m.Gender }
		keys = []string{model.GenderMale, model.GenderFemale, model.GenderUnspecified}
	case DimensionAge:
		keyOf = func(m *model.Member) string {
			age, ok := m.AgeAt(now)
			if !ok {
				return unknownAgeBucket
			}
			return bucketForAge(age)
		}
		for _, b := range ageBuckets {
			keys = append(keys, b.Key)
		}
		keys = append(keys, unknownAgeBucket)
	default:
		return nil, ErrInvalidDimension
	}

	members, err := s.repo.Member.List(ctx, callerID, repository.MemberFilter{
		Statuses: []string{model.MemberStatusActive, model.MemberStatusPaused},
	})
	if err != nil {
		s.logger.Error("统计成员分布失败", zap.String("dimension", dimension), zap.Error(err))
		return nil, pkgerrors.Dependency("统计成员分布", err)
	}

	entries := make(map[string]*dto.DistributionEntry, len(keys))
	for _, k := range keys {
		entries[k] = &dto.DistributionEntry{Key: k}
	}
	for i := range members {
		m := &members[i]
		k := keyOf(m)
		e, ok := entries[k]
		if !ok {
			e = &dto.DistributionEntry{Key: k}
			entries[k] = e
			keys = append(keys, k)
		}
		e.Count++
		if m.Status == model.MemberStatusPaused {
			e.Paused++
		} else {
			e.Active++
		}
	}

	resp := &dto.DistributionResponse{Dimension: dimension, Total: int64(len(members))}
	known := resp.Total
	if e, ok := entries[unknownAgeBucket]; ok {
		known -= e.Count
	}
	for _, k := range keys {
		e := entries[k]
		if k != unknownAgeBucket {
			e.Percentage = period.Percent(e.Count, known)
		}
		resp.Entries = append(resp.Entries, *e)
	}
	return resp, nil
}

// ────────────────────── FinancialInsights ──────────────────────

func (s *statsService) FinancialInsights(ctx context.Context, months int, callerID string) (*dto.FinancialInsightsResponse, error) {
	if months <= 0 {
		months = defaultInsightMonths
	}
	series, err := s.DuesTrend(ctx, months, callerID)
	if err != nil {
		return nil, err
	}

	// 月均只计有会费记录的月份，空月不拉低均值
	var expected, collected, active int64
	for _, p := range series {
		expected += p.TotalAmount
		collected += p.PaidAmount
		if p.Paid+p.Unpaid > 0 {
			active++
		}
	}
	var avgExpected, avgCollected int64
	if active > 0 {
		avgExpected, avgCollected = expected/active, collected/active
	}
	resp := &dto.FinancialInsightsResponse{
		Months:           months,
		AverageExpected:  avgExpected,
		AverageCollected: avgCollected,
		CollectionRate:   period.Percent(collected, expected),
		TopPayers:        []dto.TopPayer{},
		Series:           series,
	}

	payers, err := s.repo.Dues.TopPayers(ctx, callerID, series[0].Month, series[len(series)-1].Month, topPayersLimit)
	if err != nil {
		s.logger.Error("统计缴费排行失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计缴费排行", err)
	}
	if len(payers) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(payers))
	for _, p := range payers {
		ids = append(ids, p.MemberID)
	}
	members, err := s.memberIndex(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range payers {
		name := ""
		if m, ok := members[p.MemberID]; ok {
			name = m.DisplayName()
		}
		resp.TopPayers = append(resp.TopPayers, dto.TopPayer{
			MemberID:   p.MemberID,
			Name:       name,
			PaidMonths: p.PaidMonths,
			TotalPaid:  p.TotalPaid,
		})
	}
	return resp, nil
}

// ────────────────────── Goals ──────────────────────

// Goals 月度收款目标：目标 = 活跃成员数 × 会费
func (s *statsService) Goals(ctx context.Context, month, callerID string) (*dto.GoalsResponse, error) {
	if month == "" {
		month = period.MonthOf(s.now(), s.loc)
	}
	if err := checkMonth(month); err != nil {
		return nil, err
	}

	counts, err := s.memberCounts(ctx, callerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Dues.SummarizeByStatus(ctx, callerID, repository.DuesFilter{Month: month})
	if err != nil {
		s.logger.Error("统计月度目标失败", zap.String("month", month), zap.Error(err))
		return nil, pkgerrors.Dependency("统计月度目标", err)
	}
	dues := summarizeDues(rows)

	resp := &dto.GoalsResponse{
		Month:           month,
		ActiveMembers:   counts.Active,
		Fee:             s.fee,
		TargetAmount:    counts.Active * s.fee,
		CollectedAmount: dues.PaidAmount,
		PaidCount:       dues.Paid,
		UnpaidCount:     dues.Unpaid,
	}
	resp.Progress = period.Percent(resp.CollectedAmount, resp.TargetAmount)
	resp.RemainingAmount = max(resp.TargetAmount-resp.CollectedAmount, 0)
	resp.RemainingMembers = max(resp.ActiveMembers-resp.PaidCount, 0)
	return resp, nil
}

// ────────────────────── Overview ──────────────────────

func (s *statsService) Overview(ctx context.Context, callerID string) (*dto.OverviewResponse, error) {
	now := s.now()
	month := period.MonthOf(now, s.loc)

	counts, err := s.memberCounts(ctx, callerID)
	if err != nil {
		return nil, err
	}

	duesRows, err := s.repo.Dues.SummarizeByStatus(ctx, callerID, repository.DuesFilter{Month: month})
	if err != nil {
		s.logger.Error("统计当月会费失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计当月会费", err)
	}
	dues := summarizeDues(duesRows)
	if dues.Overdue, err = s.repo.Dues.CountOverdue(ctx, callerID, month); err != nil {
		return nil, pkgerrors.Dependency("统计逾期会费", err)
	}

	monthStart, monthEnd, _ := period.MonthBounds(month, s.loc)
	attRows, err := s.repo.Attendance.CountByStatus(ctx, callerID, monthStart, monthEnd)
	if err != nil {
		s.logger.Error("统计当月考勤失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计当月考勤", err)
	}

	dayStart, dayEnd := period.DayBounds(now, s.loc)
	todayRows, err := s.repo.Attendance.CountByStatus(ctx, callerID, dayStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Dependency("统计今日考勤", err)
	}
	today := summarizeAttendanceRows(todayRows)

	return &dto.OverviewResponse{
		Month:        month,
		Members:      *counts,
		Dues:         dues,
		Attendance:   summarizeAttendanceRows(attRows),
		TodayPresent: today.Present + today.Late,
	}, nil
}

// ────────────────────── MemberStats ──────────────────────

func (s *statsService) MemberStats(ctx context.Context, memberID, callerID string) (*dto.MemberStatsResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, callerID, memberID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMemberNotFound
		}
		return nil, pkgerrors.Dependency("查询成员", err)
	}
	member.RefreshAge(s.now().In(s.loc))

	list, err := s.repo.Dues.List(ctx, callerID, repository.DuesFilter{MemberID: memberID})
	if err != nil {
		s.logger.Error("统计成员会费失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("统计成员会费", err)
	}
	current := period.MonthOf(s.now(), s.loc)
	var dues dto.DuesSummary
	for i := range list {
		d := &list[i]
		dues.Total++
		if d.Status == model.DuesStatusPaid {
			dues.Paid++
			dues.PaidAmount += d.Amount
		} else {
			dues.Unpaid++
			dues.UnpaidAmount += d.Amount
		}
		if d.IsOverdue(current) {
			dues.Overdue++
		}
	}
	dues.PaymentRate = period.Percent(dues.Paid, dues.Total)

	counts, err := s.repo.Attendance.AggregateByMember(ctx, callerID, memberID, time.Time{})
	if err != nil {
		s.logger.Error("统计成员考勤失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("统计成员考勤", err)
	}
	var att dto.AttendanceSummary
	for _, c := range counts {
		att.Total += c.Total
		att.Present += c.Present
		att.Late += c.Late
		att.Absent += c.Absent
		att.Excused += c.Excused
	}
	att.Rate = attendanceRate(att.Present, att.Late, att.Total)

	last, err := s.repo.Attendance.LastDate(ctx, callerID, memberID)
	if err != nil {
		return nil, pkgerrors.Dependency("查询最近考勤", err)
	}
	var lastDay *string
	if last != nil {
		lastDay = strPtr(formatDate(*last, s.loc))
	}

	return &dto.MemberStatsResponse{
		Member:         *toMemberResponse(member),
		Dues:           dues,
		Attendance:     att,
		LastAttendance: lastDay,
	}, nil
}

// ── 内部辅助方法 ──

func (s *statsService) memberCounts(ctx context.Context, callerID string) (*dto.MemberCounts, error) {
	rows, err := s.repo.Member.CountByStatus(ctx, callerID)
	if err != nil {
		s.logger.Error("统计成员数量失败", zap.Error(err))
		return nil, pkgerrors.Dependency("统计成员数量", err)
	}
	counts := &dto.MemberCounts{}
	for _, r := range rows {
		counts.Total += r.Count
		switch r.Status {
		case model.MemberStatusActive:
			counts.Active = r.Count
		case model.MemberStatusInactive:
			counts.Inactive = r.Count
		case model.MemberStatusPaused:
			counts.Paused = r.Count
		}
	}
	return counts, nil
}

func (s *statsService) memberIndex(ctx context.Context, callerID string, ids []string) (map[string]*model.Member, error) {
	members, err := s.repo.Member.ListByIDs(ctx, callerID, ids)
	if err != nil {
		s.logger.Error("批量查询成员失败", zap.Error(err))
		return nil, pkgerrors.Dependency("批量查询成员", err)
	}
	index := make(map[string]*model.Member, len(members))
	for i := range members {
		index[members[i].MemberID] = &members[i]
	}
	return index, nil
}

func summarizeDues(rows []repository.StatusCount) dto.DuesSummary {
	var sum dto.DuesSummary
	for _, r := range rows {
		switch r.Status {
		case model.DuesStatusPaid:
			sum.Paid += r.Count
			sum.PaidAmount += r.Amount
		case model.DuesStatusUnpaid:
			sum.Unpaid += r.Count
			sum.UnpaidAmount += r.Amount
		}
	}
	sum.Total = sum.Paid + sum.Unpaid
	sum.PaymentRate = period.Percent(sum.Paid, sum.Total)
	return sum
}

func summarizeAttendanceRows(rows []repository.StatusCount) dto.AttendanceSummary {
	var sum dto.AttendanceSummary
	for _, r := range rows {
		switch r.Status {
		case model.AttendancePresent:
			sum.Present += r.Count
		case model.AttendanceLate:
			sum.Late += r.Count
		case model.AttendanceAbsent:
			sum.Absent += r.Count
		case model.AttendanceExcused:
			sum.Excused += r.Count
		}
		sum.Total += r.Count
	}
	sum.Rate = attendanceRate(sum.Present, sum.Late, sum.Total)
	return sum
}

func truncate(list []performance, limit int) []dto.MemberPerformance {
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]dto.MemberPerformance, 0, len(list))
	for _, p := range list {
		out = append(out, p.MemberPerformance)
	}
	return out
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
