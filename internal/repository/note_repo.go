package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Dotaka123/worship-team-manager/internal/model"
)

// NoteRepository 成员备注数据访问接口
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Note, error)
	ListByMember(ctx context.Context, ownerID, memberID string) ([]model.Note, error)
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, ownerID, id string) error
}

type noteRepo struct {
	db *gorm.DB
}

// NewNoteRepo 创建 NoteRepository 实例
func NewNoteRepo(db *gorm.DB) NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Omit("Author").Create(note).Error
}

func (r *noteRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("note_id = ? AND owner_id = ?", id, ownerID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepo) ListByMember(ctx context.Context, ownerID, memberID string) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

func (r *noteRepo) Update(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("note_id = ?", note.NoteID).
		Update("content", note.Content).Error
}

func (r *noteRepo) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("note_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
