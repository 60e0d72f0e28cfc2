package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Dotaka123/worship-team-manager/internal/model"
)

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event, memberIDs []string) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Event, error)
	List(ctx context.Context, ownerID string, from, to *time.Time) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event, memberIDs *[]string) error
	Delete(ctx context.Context, ownerID, id string) error
	SetConfirmation(ctx context.Context, eventID, memberID string, confirmed bool, at *time.Time) error
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event, memberIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(event).Error; err != nil {
			return err
		}
		return insertEventMembers(tx, event.EventID, memberIDs)
	})
}

func (r *eventRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Preload("Members.Member").
		Where("event_id = ? AND owner_id = ?", id, ownerID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context, ownerID string, from, to *time.Time) ([]model.Event, error) {
	var events []model.Event
	db := r.db.WithContext(ctx).
		Preload("Members.Member").
		Where("owner_id = ?", ownerID)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	if to != nil {
		db = db.Where("date < ?", *to)
	}
	err := db.Order("date ASC, start_time ASC").Find(&events).Error
	return events, err
}

// Update 更新活动；memberIDs 非 nil 时整体替换参与成员（已确认状态保留）
func (r *eventRepo) Update(ctx context.Context, event *model.Event, memberIDs *[]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Save(event).Error; err != nil {
			return err
		}
		if memberIDs == nil {
			return nil
		}
		del := tx.Where("event_id = ?", event.EventID)
		if len(*memberIDs) > 0 {
			del = del.Where("member_id NOT IN ?", *memberIDs)
		}
		if err := del.Delete(&model.EventMember{}).Error; err != nil {
			return err
		}

		var existing []string
		if err := tx.Model(&model.EventMember{}).
			Where("event_id = ?", event.EventID).
			Pluck("member_id", &existing).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing))
		for _, id := range existing {
			seen[id] = true
		}
		var added []string
		for _, id := range *memberIDs {
			if !seen[id] {
				added = append(added, id)
				seen[id] = true
			}
		}
		return insertEventMembers(tx, event.EventID, added)
	})
}

func (r *eventRepo) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *eventRepo) SetConfirmation(ctx context.Context, eventID, memberID string, confirmed bool, at *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.EventMember{}).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Updates(map[string]interface{}{
			"confirmed":    confirmed,
			"confirmed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func insertEventMembers(tx *gorm.DB, eventID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	rows := make([]model.EventMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		rows = append(rows, model.EventMember{EventID: eventID, MemberID: id})
	}
	return tx.Omit("Member").Create(&rows).Error
}
