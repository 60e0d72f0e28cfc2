package service

import (
	"strings"
	"time"

	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 通用校验错误 ──

var (
	ErrInvalidDate  = pkgerrors.New(pkgerrors.ErrValidation, 10002, "日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidMonth = pkgerrors.New(pkgerrors.ErrValidation, 10003, "月份格式无效，应为 YYYY-MM")
	ErrInvalidRange = pkgerrors.New(pkgerrors.ErrValidation, 10004, "开始日期不能晚于结束日期")
)

// parseDay 解析日期并归一到本地自然日中午
func parseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := period.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// parseOptionalDay 空字符串返回 nil
func parseOptionalDay(s string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDay(s, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseInstant 解析付款时间等时刻：支持 RFC3339 与 YYYY-MM-DD（取当地中午）
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return parseDay(s, loc)
}

// checkMonth 校验月份键
func checkMonth(month string) error {
	if !period.ValidMonth(month) {
		return ErrInvalidMonth
	}
	return nil
}

// calendarDate 转为数据库 date 列使用的日期（UTC 零点，避免时区换算改变日期）
func calendarDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
