package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dotaka123/worship-team-manager/internal/model"
)

// MemberCascade 成员删除协调器
// 在同一事务内依次清理备注、考勤、会费、活动参与记录，最后删除成员本身
type MemberCascade interface {
	PurgeMember(ctx context.Context, ownerID, memberID string) (*PurgeResult, error)
}

type memberCascade struct {
	db *gorm.DB
}

// NewMemberCascade 创建 MemberCascade 实例
func NewMemberCascade(db *gorm.DB) MemberCascade {
	return &memberCascade{db: db}
}

func (c *memberCascade) PurgeMember(ctx context.Context, ownerID, memberID string) (*PurgeResult, error) {
	res := &PurgeResult{}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定成员行，防止并发写入新的会费/考勤
		var member model.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("member_id = ? AND owner_id = ?", memberID, ownerID).
			First(&member).Error; err != nil {
			return err
		}

		steps := []struct {
			model interface{}
			count *int64
		}{
			{&model.Note{}, &res.Notes},
			{&model.Attendance{}, &res.Attendance},
			{&model.Dues{}, &res.Dues},
			{&model.EventMember{}, &res.EventLinks},
		}
		for _, step := range steps {
			result := tx.Where("member_id = ?", memberID).Delete(step.model)
			if result.Error != nil {
				return result.Error
			}
			*step.count = result.RowsAffected
		}

		return tx.Delete(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
