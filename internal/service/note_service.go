package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
)

// ── 备注模块业务错误 ──

var (
	ErrNoteNotFound = pkgerrors.New(pkgerrors.ErrNotFound, 18001, "备注不存在")
	ErrNoteEmpty    = pkgerrors.New(pkgerrors.ErrValidation, 18002, "备注内容不能为空")
)

// NoteService 成员备注业务接口
type NoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest, callerID string) (*dto.NoteResponse, error)
	ListByMember(ctx context.Context, memberID, callerID string) ([]dto.NoteResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateNoteRequest, callerID string) (*dto.NoteResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type noteService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(repo *repository.Repository, logger *zap.Logger) NoteService {
	return &noteService{repo: repo, logger: logger}
}

func (s *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest, callerID string) (*dto.NoteResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrNoteEmpty
	}
	if err := s.ensureMember(ctx, req.MemberID, callerID); err != nil {
		return nil, err
	}

	note := &model.Note{
		MemberID: req.MemberID,
		OwnerID:  callerID,
		AuthorID: callerID,
		Content:  content,
	}
	if err := s.repo.Note.Create(ctx, note); err != nil {
		s.logger.Error("创建备注失败", zap.String("member_id", req.MemberID), zap.Error(err))
		return nil, pkgerrors.Dependency("创建备注", err)
	}
	return toNoteResponse(note), nil
}

func (s *noteService) ListByMember(ctx context.Context, memberID, callerID string) ([]dto.NoteResponse, error) {
	if err := s.ensureMember(ctx, memberID, callerID); err != nil {
		return nil, err
	}
	notes, err := s.repo.Note.ListByMember(ctx, callerID, memberID)
	if err != nil {
		s.logger.Error("查询备注失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, pkgerrors.Dependency("查询备注", err)
	}

	result := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		result = append(result, *toNoteResponse(&notes[i]))
	}
	return result, nil
}

func (s *noteService) Update(ctx context.Context, id string, req *dto.UpdateNoteRequest, callerID string) (*dto.NoteResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrNoteEmpty
	}

	note, err := s.repo.Note.GetByID(ctx, callerID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoteNotFound
		}
		return nil, pkgerrors.Dependency("查询备注", err)
	}

	note.Content = content
	if err := s.repo.Note.Update(ctx, note); err != nil {
		s.logger.Error("更新备注失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Dependency("更新备注", err)
	}
	return toNoteResponse(note), nil
}

func (s *noteService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.Note.Delete(ctx, callerID, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrNoteNotFound
		}
		s.logger.Error("删除备注失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Dependency("删除备注", err)
	}
	return nil
}

func (s *noteService) ensureMember(ctx context.Context, memberID, callerID string) error {
	if _, err := s.repo.Member.GetByID(ctx, callerID, memberID); err != nil {
		if repository.IsNotFound(err) {
			return ErrMemberNotFound
		}
		return pkgerrors.Dependency("查询成员", err)
	}
	return nil
}

func toNoteResponse(n *model.Note) *dto.NoteResponse {
	resp := &dto.NoteResponse{
		ID:        n.NoteID,
		MemberID:  n.MemberID,
		Content:   n.Content,
		AuthorID:  n.AuthorID,
		CreatedAt: formatTime(n.CreatedAt),
		UpdatedAt: formatTime(n.UpdatedAt),
	}
	if n.Author != nil {
		resp.AuthorName = n.Author.Name
	}
	return resp
}
