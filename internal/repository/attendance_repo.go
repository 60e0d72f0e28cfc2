package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dotaka123/worship-team-manager/internal/model"
)

// AttendanceRepository 考勤数据访问接口
type AttendanceRepository interface {
	Upsert(ctx context.Context, a *model.Attendance) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Attendance, error)
	GetByMemberDate(ctx context.Context, memberID string, date time.Time) (*model.Attendance, error)
	Update(ctx context.Context, a *model.Attendance) error
	Delete(ctx context.Context, ownerID, id string) error
	ListByRange(ctx context.Context, ownerID string, start, end time.Time) ([]model.Attendance, error)
	ListByMember(ctx context.Context, ownerID, memberID string, start, end *time.Time, limit int) ([]model.Attendance, error)
	List(ctx context.Context, ownerID string, limit int) ([]model.Attendance, error)
	AggregateByMember(ctx context.Context, ownerID, memberID string, since time.Time) ([]MemberAttendanceCount, error)
	AggregateByDay(ctx context.Context, ownerID string, since time.Time, tz string) ([]DayStatusCount, error)
	CountByStatus(ctx context.Context, ownerID string, start, end time.Time) ([]StatusCount, error)
	LastDate(ctx context.Context, ownerID, memberID string) (*time.Time, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// Upsert 按 (member_id, date) 插入或覆盖
func (r *attendanceRepo) Upsert(ctx context.Context, a *model.Attendance) error {
	return r.db.WithContext(ctx).
		Omit("Member").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "member_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "type", "arrival_time", "reason", "marked_by", "updated_at",
			}),
		}).
		Create(a).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("attendance_id = ? AND owner_id = ?", id, ownerID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepo) GetByMemberDate(ctx context.Context, memberID string, date time.Time) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND date = ?", memberID, date).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepo) Update(ctx context.Context, a *model.Attendance) error {
	return r.db.WithContext(ctx).Omit("Member").Save(a).Error
}

func (r *attendanceRepo) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("attendance_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Attendance{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByRange 查询 [start, end) 内的考勤
func (r *attendanceRepo) ListByRange(ctx context.Context, ownerID string, start, end time.Time) ([]model.Attendance, error) {
	var list []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("owner_id = ? AND date >= ? AND date < ?", ownerID, start, end).
		Order("date DESC, member_id ASC").
		Find(&list).Error
	return list, err
}

// ListByMember 成员考勤历史，最新在前；start/end 为 [start, end) 边界
func (r *attendanceRepo) ListByMember(ctx context.Context, ownerID, memberID string, start, end *time.Time, limit int) ([]model.Attendance, error) {
	var list []model.Attendance
	db := r.db.WithContext(ctx).
		Where("owner_id = ? AND member_id = ?", ownerID, memberID)
	if start != nil {
		db = db.Where("date >= ?", *start)
	}
	if end != nil {
		db = db.Where("date < ?", *end)
	}
	err := db.Order("date DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *attendanceRepo) List(ctx context.Context, ownerID string, limit int) ([]model.Attendance, error) {
	var list []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("owner_id = ?", ownerID).
		Order("date DESC, member_id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// AggregateByMember 按成员统计 since 之后的考勤；memberID 为空时统计全部成员
func (r *attendanceRepo) AggregateByMember(ctx context.Context, ownerID, memberID string, since time.Time) ([]MemberAttendanceCount, error) {
	var rows []MemberAttendanceCount
	db := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Select(`member_id,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'present') AS present,
			COUNT(*) FILTER (WHERE status = 'late') AS late,
			COUNT(*) FILTER (WHERE status = 'absent') AS absent,
			COUNT(*) FILTER (WHERE status = 'excused') AS excused`).
		Where("owner_id = ? AND date >= ?", ownerID, since)
	if memberID != "" {
		db = db.Where("member_id = ?", memberID)
	}
	err := db.Group("member_id").Scan(&rows).Error
	return rows, err
}

// AggregateByDay 按本地自然日 + 状态统计 since 之后的考勤
func (r *attendanceRepo) AggregateByDay(ctx context.Context, ownerID string, since time.Time, tz string) ([]DayStatusCount, error) {
	var rows []DayStatusCount
	err := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Select("to_char(date AT TIME ZONE ?, 'YYYY-MM-DD') AS day, status, COUNT(*) AS count", tz).
		Where("owner_id = ? AND date >= ?", ownerID, since).
		Group("day, status").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// CountByStatus 统计 [start, end) 内各状态数量
func (r *attendanceRepo) CountByStatus(ctx context.Context, ownerID string, start, end time.Time) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ? AND date >= ? AND date < ?", ownerID, start, end).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *attendanceRepo) LastDate(ctx context.Context, ownerID, memberID string) (*time.Time, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).
		Select("date").
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Order("date DESC").
		First(&a).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a.Date, nil
}
