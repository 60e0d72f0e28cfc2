package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Dotaka123/worship-team-manager/internal/model"
)

// MemberRepository 成员数据访问接口
// 除 Create/Update 外的所有查询都按 owner 限定范围
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Member, error)
	Update(ctx context.Context, member *model.Member) error
	List(ctx context.Context, ownerID string, filter MemberFilter) ([]model.Member, error)
	Search(ctx context.Context, ownerID string, filter MemberFilter, offset, limit int) ([]model.Member, int64, error)
	ListByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Member, error)
	EmailTaken(ctx context.Context, ownerID, email, excludeID string) (bool, error)
	CountByStatus(ctx context.Context, ownerID string) ([]StatusCount, error)
}

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND owner_id = ?", id, ownerID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) Update(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *memberRepo) List(ctx context.Context, ownerID string, filter MemberFilter) ([]model.Member, error) {
	var members []model.Member
	err := r.applyFilter(r.db.WithContext(ctx).Where("owner_id = ?", ownerID), filter).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) Search(ctx context.Context, ownerID string, filter MemberFilter, offset, limit int) ([]model.Member, int64, error) {
	var members []model.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Member{}).Where("owner_id = ?", ownerID)
	db = r.applyFilter(db, filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *memberRepo) ListByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND member_id IN ?", ownerID, ids).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) EmailTaken(ctx context.Context, ownerID, email, excludeID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&model.Member{}).
		Where("owner_id = ? AND email = ?", ownerID, strings.ToLower(email))
	if excludeID != "" {
		db = db.Where("member_id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *memberRepo) CountByStatus(ctx context.Context, ownerID string) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&model.Member{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// applyFilter 组装筛选与排序条件
func (r *memberRepo) applyFilter(db *gorm.DB, f MemberFilter) *gorm.DB {
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		db = db.Where(
			"lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(pseudo) LIKE ? OR lower(coalesce(email, '')) LIKE ? OR phone LIKE ?",
			like, like, like, like, like,
		)
	}
	if f.Role != "" {
		db = db.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if len(f.Statuses) > 0 {
		db = db.Where("status IN ?", f.Statuses)
	}
	if f.Gender != "" {
		db = db.Where("gender = ?", f.Gender)
	}
	if f.Instrument != "" {
		db = db.Where("lower(instrument) LIKE ?", "%"+strings.ToLower(f.Instrument)+"%")
	}
	if f.BornOnOrBefore != nil {
		db = db.Where("date_of_birth <= ?", *f.BornOnOrBefore)
	}
	if f.BornAfter != nil {
		db = db.Where("date_of_birth > ?", *f.BornAfter)
	}
	return db.Order(memberOrder(f.Sort, f.Order))
}

// memberOrder 排序字段白名单
func memberOrder(sort, order string) string {
	desc := strings.EqualFold(order, "desc")
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	switch sort {
	case "age":
		// 年龄升序即出生日期降序
		if desc {
			return "date_of_birth ASC NULLS LAST, member_id ASC"
		}
		return "date_of_birth DESC NULLS LAST, member_id ASC"
	case "entry_date":
		return "entry_date " + dir + ", member_id ASC"
	case "created_at":
		return "created_at " + dir + ", member_id ASC"
	default:
		return "last_name " + dir + ", first_name " + dir + ", member_id ASC"
	}
}
