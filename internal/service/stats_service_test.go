package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
)

func setupTestStatsService(t *testing.T) (StatsService, *memStore) {
	t.Helper()
	repo, st := newMockRepository()
	svc := NewStatsService(newTestConfig(t), repo, zap.NewNop())
	svc.(*statsService).now = func() time.Time { return testNow(t) }
	return svc, st
}

// seedDues 直接写入一条会费
func seedDues(st *memStore, memberID, month, status string) *model.Dues {
	id := st.nextID("dues")
	d := &model.Dues{
		DuesID:   id,
		MemberID: memberID,
		OwnerID:  testOwner,
		Month:    month,
		Amount:   3000,
		Status:   model.DuesStatusUnpaid,
	}
	d.Version = 1
	if status == model.DuesStatusPaid {
		d.MarkPaid(model.PaymentMethodCash, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), testOwner)
	}
	st.dues[id] = d
	return d
}

// seedRun 为成员写入一串考勤（从 2026-02-01 起每天一条）
func seedRun(t *testing.T, st *memStore, memberID string, statuses ...string) {
	t.Helper()
	loc := testLoc(t)
	for i, status := range statuses {
		seedAttendance(st, memberID, time.Date(2026, 2, 1+i, 12, 0, 0, 0, loc), status)
	}
}

func TestBucketForAge(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "0-17"}, {17, "0-17"}, {18, "18-24"}, {24, "18-24"}, {25, "25-34"},
		{44, "35-44"}, {54, "45-54"}, {64, "55-64"}, {65, "65+"}, {102, "65+"},
		{-1, unknownAgeBucket},
	}
	for _, tt := range tests {
		if got := bucketForAge(tt.age); got != tt.want {
			t.Errorf("bucketForAge(%d) = %s, 期望 %s", tt.age, got, tt.want)
		}
	}
}

// ── Performers ──

func TestTopPerformers_TieBreakAndMinSample(t *testing.T) {
	svc, st := setupTestStatsService(t)
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		seedMember(st, id, "Membre "+id, model.MemberStatusActive)
	}
	p, l := model.AttendancePresent, model.AttendanceLate
	seedRun(t, st, "m3", p, p, p, p)
	seedRun(t, st, "m2", p, p, p, l)
	seedRun(t, st, "m1", p, p, p, p)
	seedRun(t, st, "m4", p, p, p) // 样本不足

	top, err := svc.TopPerformers(context.Background(), &dto.PerformanceRequest{}, testOwner)
	if err != nil {
		t.Fatalf("出勤排行失败: %v", err)
	}
	want := []string{"m1", "m3", "m2"}
	if len(top) != len(want) {
		t.Fatalf("期望 %d 人上榜, 实际 %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].MemberID != id {
			t.Errorf("第 %d 名期望 %s, 实际 %s", i+1, id, top[i].MemberID)
		}
		if top[i].AttendanceRate != 100 {
			t.Errorf("%s 出勤率期望 100, 实际 %d", id, top[i].AttendanceRate)
		}
	}

	zero := 0
	all, err := svc.TopPerformers(context.Background(), &dto.PerformanceRequest{MinSample: &zero, Limit: 2}, testOwner)
	if err != nil {
		t.Fatalf("出勤排行失败: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("limit=2 期望 2 人, 实际 %d", len(all))
	}
}

func TestBottomPerformers_Threshold(t *testing.T) {
	svc, st := setupTestStatsService(t)
	for _, id := range []string{"m1", "m2", "m3"} {
		seedMember(st, id, "Membre "+id, model.MemberStatusActive)
	}
	p, a, e := model.AttendancePresent, model.AttendanceAbsent, model.AttendanceExcused
	seedRun(t, st, "m1", p, a, a, a) // 25%
	seedRun(t, st, "m2", p, p, a, e) // 50%，不低于阈值
	seedRun(t, st, "m3", a, a, a, e) // 0%

	low, err := svc.BottomPerformers(context.Background(), &dto.PerformanceRequest{}, testOwner)
	if err != nil {
		t.Fatalf("低出勤查询失败: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("期望 2 人低于 50%%, 实际 %d", len(low))
	}
	if low[0].MemberID != "m3" || low[1].MemberID != "m1" {
		t.Errorf("应按出勤率升序: %s, %s", low[0].MemberID, low[1].MemberID)
	}
}

// seedSpread 从 start 起逐日写入 present 条出勤与 absent 条缺勤
func seedSpread(t *testing.T, st *memStore, memberID string, start time.Time, present, absent int) {
	t.Helper()
	for i := 0; i < present+absent; i++ {
		status := model.AttendancePresent
		if i >= present {
			status = model.AttendanceAbsent
		}
		seedAttendance(st, memberID, start.AddDate(0, 0, i), status)
	}
}

func TestBottomPerformers_ThresholdUsesExactRate(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	// 50/101 ≈ 49.5%，展示为 50 但仍低于阈值
	seedSpread(t, st, "m1", time.Date(2025, 11, 1, 12, 0, 0, 0, testLoc(t)), 50, 51)

	low, err := svc.BottomPerformers(context.Background(), &dto.PerformanceRequest{Months: 6}, testOwner)
	if err != nil {
		t.Fatalf("低出勤查询失败: %v", err)
	}
	if len(low) != 1 || low[0].MemberID != "m1" {
		t.Fatalf("49.5%% 应低于 50%% 阈值: %+v", low)
	}
	if low[0].AttendanceRate != 50 {
		t.Errorf("展示出勤率期望 50, 实际 %d", low[0].AttendanceRate)
	}
}

func TestTopPerformers_OrdersByExactRate(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	seedMember(st, "m2", "Lova", model.MemberStatusActive)
	seedSpread(t, st, "m1", time.Date(2025, 12, 1, 12, 0, 0, 0, testLoc(t)), 35, 9) // ≈79.5%
	seedSpread(t, st, "m2", time.Date(2026, 2, 1, 12, 0, 0, 0, testLoc(t)), 4, 1)   // 80%

	top, err := svc.TopPerformers(context.Background(), &dto.PerformanceRequest{Months: 6}, testOwner)
	if err != nil {
		t.Fatalf("出勤排行失败: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("期望 2 人上榜, 实际 %d", len(top))
	}
	if top[0].MemberID != "m2" || top[1].MemberID != "m1" {
		t.Errorf("应按未取整出勤率排序: %s, %s", top[0].MemberID, top[1].MemberID)
	}
	if top[0].AttendanceRate != 80 || top[1].AttendanceRate != 80 {
		t.Errorf("展示出勤率均应为 80: %d, %d", top[0].AttendanceRate, top[1].AttendanceRate)
	}
}

// ── Distribution ──

func TestDistribution_AgeExcludesUnknownFromPercent(t *testing.T) {
	svc, st := setupTestStatsService(t)
	born := func(y, m, d int) *time.Time {
		v := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	seedMember(st, "m1", "A", model.MemberStatusActive).DateOfBirth = born(2000, 6, 15)
	seedMember(st, "m2", "B", model.MemberStatusActive).DateOfBirth = born(2010, 1, 1)
	seedMember(st, "m3", "C", model.MemberStatusActive)
	seedMember(st, "m4", "D", model.MemberStatusInactive).DateOfBirth = born(1980, 1, 1)
	seedMember(st, "m5", "E", model.MemberStatusPaused).DateOfBirth = born(1990, 1, 1)

	resp, err := svc.Distribution(context.Background(), DimensionAge, testOwner)
	if err != nil {
		t.Fatalf("年龄分布失败: %v", err)
	}
	if resp.Total != 4 {
		t.Fatalf("停用成员不计入, 期望 4, 实际 %d", resp.Total)
	}

	got := map[string]dto.DistributionEntry{}
	for _, e := range resp.Entries {
		got[e.Key] = e
	}
	if len(resp.Entries) != len(ageBuckets)+1 {
		t.Errorf("所有区间都应输出, 实际 %d 项", len(resp.Entries))
	}
	for _, k := range []string{"0-17", "25-34", "35-44"} {
		if got[k].Count != 1 || got[k].Percentage != 33 {
			t.Errorf("%s 期望 1 人 33%%, 实际 %+v", k, got[k])
		}
	}
	if u := got[unknownAgeBucket]; u.Count != 1 || u.Percentage != 0 {
		t.Errorf("unknown 期望 1 人且不计百分比, 实际 %+v", u)
	}
	if got["35-44"].Paused != 1 {
		t.Error("暂停成员应单独计数")
	}
}

func TestDistribution_Role(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "A", model.MemberStatusActive)
	seedMember(st, "m2", "B", model.MemberStatusActive).Role = model.MemberRoleMusician

	resp, err := svc.Distribution(context.Background(), DimensionRole, testOwner)
	if err != nil {
		t.Fatalf("角色分布失败: %v", err)
	}
	if resp.Entries[0].Key != model.MemberRoleSinger || resp.Entries[0].Percentage != 50 {
		t.Errorf("singer 期望 50%%, 实际 %+v", resp.Entries[0])
	}

	if _, err := svc.Distribution(context.Background(), "height", testOwner); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("期望 ErrInvalidDimension, 实际 %v", err)
	}
}

// ── Trends ──

func TestDuesTrend_ZeroFillsMonths(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "A", model.MemberStatusActive)
	seedMember(st, "m2", "B", model.MemberStatusActive)
	seedDues(st, "m1", "2026-01", model.DuesStatusPaid)
	seedDues(st, "m2", "2026-01", model.DuesStatusUnpaid)
	seedDues(st, "m1", "2026-02", model.DuesStatusUnpaid)
	seedDues(st, "m1", "2025-06", model.DuesStatusPaid) // 窗口外

	series, err := svc.DuesTrend(context.Background(), 3, testOwner)
	if err != nil {
		t.Fatalf("会费趋势失败: %v", err)
	}
	if len(series) != 3 || series[0].Month != "2025-12" || series[2].Month != "2026-02" {
		t.Fatalf("期望 2025-12..2026-02 三个月, 实际 %+v", series)
	}
	if series[0].Paid != 0 || series[0].TotalAmount != 0 {
		t.Errorf("无数据月份应补零: %+v", series[0])
	}
	if jan := series[1]; jan.Paid != 1 || jan.Unpaid != 1 || jan.PaymentRate != 50 || jan.TotalAmount != 6000 {
		t.Errorf("2026-01 汇总错误: %+v", jan)
	}
}

func TestAttendanceTrend_SortedDays(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "A", model.MemberStatusActive)
	seedMember(st, "m2", "B", model.MemberStatusActive)
	loc := testLoc(t)
	seedAttendance(st, "m1", time.Date(2026, 2, 15, 12, 0, 0, 0, loc), model.AttendancePresent)
	seedAttendance(st, "m2", time.Date(2026, 2, 15, 12, 0, 0, 0, loc), model.AttendanceAbsent)
	seedAttendance(st, "m1", time.Date(2026, 2, 8, 12, 0, 0, 0, loc), model.AttendanceLate)
	seedAttendance(st, "m1", time.Date(2025, 12, 1, 12, 0, 0, 0, loc), model.AttendancePresent) // 窗口外

	series, err := svc.AttendanceTrend(context.Background(), 0, testOwner)
	if err != nil {
		t.Fatalf("考勤趋势失败: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("期望 2 天, 实际 %d", len(series))
	}
	if series[0].Date != "2026-02-08" || series[0].AttendanceRate != 100 {
		t.Errorf("首日错误: %+v", series[0])
	}
	if series[1].Total != 2 || series[1].AttendanceRate != 50 {
		t.Errorf("02-15 期望 2 条 50%%, 实际 %+v", series[1])
	}
}

// ── Goals / Insights / Overview ──

func TestGoals(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "A", model.MemberStatusActive)
	seedMember(st, "m2", "B", model.MemberStatusActive)
	seedMember(st, "m3", "C", model.MemberStatusActive)
	seedMember(st, "m4", "D", model.MemberStatusInactive)
	seedDues(st, "m1", "2026-02", model.DuesStatusPaid)
	seedDues(st, "m2", "2026-02", model.DuesStatusUnpaid)

	goals, err := svc.Goals(context.Background(), "", testOwner)
	if err != nil {
		t.Fatalf("月度目标失败: %v", err)
	}
	if goals.Month != "2026-02" || goals.TargetAmount != 9000 || goals.CollectedAmount != 3000 {
		t.Errorf("目标金额错误: %+v", goals)
	}
	if goals.Progress != 33 || goals.RemainingAmount != 6000 || goals.RemainingMembers != 2 {
		t.Errorf("进度错误: %+v", goals)
	}

	if _, err := svc.Goals(context.Background(), "2026-2", testOwner); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("期望 ErrInvalidMonth, 实际 %v", err)
	}
}

func TestFinancialInsights(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	seedMember(st, "m2", "Lova", model.MemberStatusActive)
	seedDues(st, "m1", "2026-01", model.DuesStatusPaid)
	seedDues(st, "m1", "2026-02", model.DuesStatusPaid)
	seedDues(st, "m2", "2026-02", model.DuesStatusPaid)
	seedDues(st, "m2", "2026-01", model.DuesStatusUnpaid)

	resp, err := svc.FinancialInsights(context.Background(), 2, testOwner)
	if err != nil {
		t.Fatalf("财务洞察失败: %v", err)
	}
	if resp.AverageExpected != 6000 || resp.AverageCollected != 4500 || resp.CollectionRate != 75 {
		t.Errorf("汇总错误: %+v", resp)
	}
	if len(resp.TopPayers) != 2 || resp.TopPayers[0].MemberID != "m1" || resp.TopPayers[0].Name != "Hery Rakoto" {
		t.Errorf("缴费排行错误: %+v", resp.TopPayers)
	}
}

func TestFinancialInsights_AveragesOnlyMonthsWithDues(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	seedDues(st, "m1", "2026-01", model.DuesStatusPaid)
	seedDues(st, "m1", "2026-02", model.DuesStatusPaid)

	resp, err := svc.FinancialInsights(context.Background(), 0, testOwner)
	if err != nil {
		t.Fatalf("财务洞察失败: %v", err)
	}
	if resp.Months != 6 || len(resp.Series) != 6 {
		t.Fatalf("默认窗口应为 6 个月: %+v", resp)
	}
	if resp.AverageExpected != 3000 || resp.AverageCollected != 3000 || resp.CollectionRate != 100 {
		t.Errorf("空月不应计入月均: expected=%d collected=%d rate=%d",
			resp.AverageExpected, resp.AverageCollected, resp.CollectionRate)
	}

	empty, _ := setupTestStatsService(t)
	resp, err = empty.FinancialInsights(context.Background(), 3, testOwner)
	if err != nil {
		t.Fatalf("财务洞察失败: %v", err)
	}
	if resp.AverageExpected != 0 || resp.AverageCollected != 0 {
		t.Errorf("无会费时月均应为 0: %+v", resp)
	}
}

func TestOverviewAndMemberStats(t *testing.T) {
	svc, st := setupTestStatsService(t)
	seedMember(st, "m1", "A", model.MemberStatusActive)
	seedMember(st, "m2", "B", model.MemberStatusPaused)
	seedDues(st, "m1", "2026-01", model.DuesStatusUnpaid) // 逾期
	seedDues(st, "m1", "2026-02", model.DuesStatusPaid)
	loc := testLoc(t)
	seedAttendance(st, "m1", time.Date(2026, 2, 20, 12, 0, 0, 0, loc), model.AttendancePresent)
	seedAttendance(st, "m1", time.Date(2026, 2, 13, 12, 0, 0, 0, loc), model.AttendanceAbsent)

	ov, err := svc.Overview(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("总览失败: %v", err)
	}
	if ov.Members.Total != 2 || ov.Members.Active != 1 || ov.Members.Paused != 1 {
		t.Errorf("成员计数错误: %+v", ov.Members)
	}
	if ov.Dues.Paid != 1 || ov.Dues.Overdue != 1 {
		t.Errorf("会费汇总错误: %+v", ov.Dues)
	}
	if ov.Attendance.Total != 2 || ov.Attendance.Rate != 50 || ov.TodayPresent != 1 {
		t.Errorf("考勤汇总错误: %+v / today=%d", ov.Attendance, ov.TodayPresent)
	}

	ms, err := svc.MemberStats(context.Background(), "m1", testOwner)
	if err != nil {
		t.Fatalf("成员统计失败: %v", err)
	}
	if ms.Dues.Total != 2 || ms.Dues.Overdue != 1 || ms.Dues.PaymentRate != 50 {
		t.Errorf("成员会费统计错误: %+v", ms.Dues)
	}
	if ms.LastAttendance == nil || *ms.LastAttendance != "2026-02-20" {
		t.Errorf("最近考勤日期错误: %v", ms.LastAttendance)
	}

	if _, err := svc.MemberStats(context.Background(), "ghost", testOwner); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("期望 ErrMemberNotFound, 实际 %v", err)
	}
}
