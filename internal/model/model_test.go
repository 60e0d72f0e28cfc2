package model

import (
	"testing"
	"time"
)

func TestMember_RefreshAge(t *testing.T) {
	dob := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	m := &Member{DateOfBirth: &dob}

	m.RefreshAge(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC))
	if m.Age == nil || *m.Age != 25 {
		t.Fatalf("期望年龄 25，实际 %v", m.Age)
	}

	// 一年后重新计算，年龄不应停留在旧值
	m.RefreshAge(time.Date(2027, 6, 15, 0, 0, 0, 0, time.UTC))
	if *m.Age != 27 {
		t.Errorf("期望年龄 27，实际 %d", *m.Age)
	}

	m.DateOfBirth = nil
	m.RefreshAge(time.Now())
	if m.Age != nil {
		t.Error("无出生日期时年龄应为空")
	}
}

func TestDues_PaymentTransitions(t *testing.T) {
	d := &Dues{Month: "2026-02", Status: DuesStatusUnpaid}
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	d.MarkPaid(PaymentMethodCash, at, "user-1")
	if d.Status != DuesStatusPaid || d.PaidAt == nil || !d.PaidAt.Equal(at) {
		t.Fatalf("标记已缴失败: %+v", d)
	}
	if d.PaymentMethod == nil || *d.PaymentMethod != PaymentMethodCash {
		t.Errorf("付款方式应为 cash")
	}

	d.ClearPayment()
	if d.Status != DuesStatusUnpaid || d.PaidAt != nil || d.PaymentMethod != nil || d.PaidBy != nil {
		t.Errorf("取消付款后字段应清空: %+v", d)
	}
}

func TestDues_IsOverdue(t *testing.T) {
	tests := []struct {
		month, status, current string
		want                   bool
	}{
		{"2026-01", DuesStatusUnpaid, "2026-02", true},
		{"2026-02", DuesStatusUnpaid, "2026-02", false},
		{"2025-12", DuesStatusPaid, "2026-02", false},
	}
	for _, tt := range tests {
		d := &Dues{Month: tt.month, Status: tt.status}
		if got := d.IsOverdue(tt.current); got != tt.want {
			t.Errorf("IsOverdue(%s,%s,%s)=%v，期望 %v", tt.month, tt.status, tt.current, got, tt.want)
		}
	}
}

func TestAttendance_DropIrrelevantFields(t *testing.T) {
	a := &Attendance{Status: AttendanceLate, ArrivalTime: "18:40", Reason: "bouchons"}
	a.DropIrrelevantFields()
	if a.Reason != "" || a.ArrivalTime != "18:40" {
		t.Errorf("迟到记录应只保留到达时间: %+v", a)
	}

	a = &Attendance{Status: AttendanceExcused, ArrivalTime: "18:40", Reason: "malade"}
	a.DropIrrelevantFields()
	if a.ArrivalTime != "" || a.Reason != "malade" {
		t.Errorf("请假记录应只保留原因: %+v", a)
	}
	if a.Attended() {
		t.Error("请假不应计为到场")
	}
}
