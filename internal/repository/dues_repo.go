package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Dotaka123/worship-team-manager/internal/model"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
)

// DuesRepository 会费数据访问接口
type DuesRepository interface {
	Create(ctx context.Context, dues *model.Dues) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Dues, error)
	GetByMemberMonth(ctx context.Context, memberID, month string) (*model.Dues, error)
	Update(ctx context.Context, dues *model.Dues) error
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string, filter DuesFilter) ([]model.Dues, error)
	RecentPaid(ctx context.Context, ownerID string, limit int) ([]model.Dues, error)
	MemberIDsWithMonth(ctx context.Context, ownerID, month string) ([]string, error)
	SummarizeByStatus(ctx context.Context, ownerID string, filter DuesFilter) ([]StatusCount, error)
	SummarizeByMonth(ctx context.Context, ownerID, fromMonth, toMonth string) ([]MonthStatusCount, error)
	TopPayers(ctx context.Context, ownerID, fromMonth, toMonth string, limit int) ([]PayerTotal, error)
	CountOverdue(ctx context.Context, ownerID, beforeMonth string) (int64, error)
}

type duesRepo struct {
	db *gorm.DB
}

// NewDuesRepo 创建 DuesRepository 实例
func NewDuesRepo(db *gorm.DB) DuesRepository {
	return &duesRepo{db: db}
}

func (r *duesRepo) Create(ctx context.Context, dues *model.Dues) error {
	return r.db.WithContext(ctx).Omit("Member").Create(dues).Error
}

func (r *duesRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Dues, error) {
	var dues model.Dues
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("dues_id = ? AND owner_id = ?", id, ownerID).
		First(&dues).Error
	if err != nil {
		return nil, err
	}
	return &dues, nil
}

func (r *duesRepo) GetByMemberMonth(ctx context.Context, memberID, month string) (*model.Dues, error) {
	var dues model.Dues
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND month = ?", memberID, month).
		First(&dues).Error
	if err != nil {
		return nil, err
	}
	return &dues, nil
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *duesRepo) Update(ctx context.Context, dues *model.Dues) error {
	oldVersion := dues.Version
	result := r.db.WithContext(ctx).
		Model(&model.Dues{}).
		Where("dues_id = ? AND version = ?", dues.DuesID, oldVersion).
		Updates(map[string]interface{}{
			"amount":         dues.Amount,
			"status":         dues.Status,
			"payment_method": dues.PaymentMethod,
			"paid_at":        dues.PaidAt,
			"paid_by":        dues.PaidBy,
			"notes":          dues.Notes,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dues.Version = oldVersion + 1
	return nil
}

func (r *duesRepo) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("dues_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Dues{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *duesRepo) List(ctx context.Context, ownerID string, filter DuesFilter) ([]model.Dues, error) {
	var list []model.Dues
	err := applyDuesFilter(r.db.WithContext(ctx).Preload("Member").Where("owner_id = ?", ownerID), filter).
		Order("month DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *duesRepo) RecentPaid(ctx context.Context, ownerID string, limit int) ([]model.Dues, error) {
	var list []model.Dues
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("owner_id = ? AND status = ?", ownerID, model.DuesStatusPaid).
		Order("paid_at DESC NULLS LAST").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *duesRepo) MemberIDsWithMonth(ctx context.Context, ownerID, month string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Dues{}).
		Where("owner_id = ? AND month = ?", ownerID, month).
		Pluck("member_id", &ids).Error
	return ids, err
}

func (r *duesRepo) SummarizeByStatus(ctx context.Context, ownerID string, filter DuesFilter) ([]StatusCount, error) {
	var rows []StatusCount
	db := r.db.WithContext(ctx).Model(&model.Dues{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("owner_id = ?", ownerID)
	err := applyDuesFilter(db, filter).
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

func (r *duesRepo) SummarizeByMonth(ctx context.Context, ownerID, fromMonth, toMonth string) ([]MonthStatusCount, error) {
	var rows []MonthStatusCount
	err := r.db.WithContext(ctx).Model(&model.Dues{}).
		Select("month, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("owner_id = ? AND month BETWEEN ? AND ?", ownerID, fromMonth, toMonth).
		Group("month, status").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *duesRepo) TopPayers(ctx context.Context, ownerID, fromMonth, toMonth string, limit int) ([]PayerTotal, error) {
	var rows []PayerTotal
	err := r.db.WithContext(ctx).Model(&model.Dues{}).
		Select("member_id, COUNT(*) AS paid_months, COALESCE(SUM(amount), 0) AS total_paid").
		Where("owner_id = ? AND status = ? AND month BETWEEN ? AND ?", ownerID, model.DuesStatusPaid, fromMonth, toMonth).
		Group("member_id").
		Order("paid_months DESC, total_paid DESC, member_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *duesRepo) CountOverdue(ctx context.Context, ownerID, beforeMonth string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Dues{}).
		Where("owner_id = ? AND status = ? AND month < ?", ownerID, model.DuesStatusUnpaid, beforeMonth).
		Count(&count).Error
	return count, err
}

func applyDuesFilter(db *gorm.DB, f DuesFilter) *gorm.DB {
	if f.Month != "" {
		db = db.Where("month = ?", f.Month)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.MemberID != "" {
		db = db.Where("member_id = ?", f.MemberID)
	}
	return db
}
