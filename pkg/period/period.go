// Package period 处理月份键（YYYY-MM）、自然日归一化与比率计算。
//
// 考勤日期统一归一到本地时区中午 12:00：按自然日比较时，
// 无论存储时区如何换算都不会跨到前一天或后一天。
package period

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
)

var (
	ErrInvalidMonth = errors.New("月份格式无效，应为 YYYY-MM")
	ErrInvalidDate  = errors.New("日期格式无效，应为 YYYY-MM-DD")
)

var (
	monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	clockRe    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ValidMonth 判断是否为合法月份键
func ValidMonth(s string) bool {
	return monthKeyRe.MatchString(s)
}

// ValidClock 判断是否为合法的 HH:MM 时刻
func ValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// ParseMonth 解析月份键，返回该月 1 日 00:00（loc 时区）
func ParseMonth(month string, loc *time.Location) (time.Time, error) {
	if !ValidMonth(month) {
		return time.Time{}, ErrInvalidMonth
	}
	t, err := time.ParseInLocation(MonthLayout, month, loc)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

// MonthOf 返回 t 在 loc 时区所在月份的键
func MonthOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(MonthLayout)
}

// MonthBounds 返回月份的 [开始, 下月开始)
func MonthBounds(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseMonth(month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// AddMonths 月份键平移 n 个月（n 可为负）
func AddMonths(month string, n int) (string, error) {
	start, err := ParseMonth(month, time.UTC)
	if err != nil {
		return "", err
	}
	return start.AddDate(0, n, 0).Format(MonthLayout), nil
}

// LastMonths 返回截至 now 所在月份（含）的最近 n 个月，按时间升序
func LastMonths(now time.Time, n int, loc *time.Location) []string {
	if n <= 0 {
		return nil
	}
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	months := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, first.AddDate(0, -i, 0).Format(MonthLayout))
	}
	return months
}

// NormalizeDay 将时间归一到其在 loc 时区所在自然日的中午 12:00
func NormalizeDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
}

// DayBounds 返回 t 所在自然日的 [00:00, 次日 00:00)
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate 解析 YYYY-MM-DD 或 RFC3339 时间，返回归一化后的自然日
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return NormalizeDay(t, loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NormalizeDay(t, loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// AgeAt 计算 now 时刻的周岁
func AgeAt(birth, now time.Time) int {
	if birth.IsZero() || now.Before(birth) {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Percent 返回 num/den 的整数百分比（四舍五入），den 为 0 时返回 0
func Percent(num, den int64) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(float64(num) * 100 / float64(den)))
}
