package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
)

func TestNoteLifecycle(t *testing.T) {
	repo, st := newMockRepository()
	svc := NewNoteService(repo, zap.NewNop())
	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	st.users[testOwner] = &model.User{UserID: testOwner, Name: "Responsable"}
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateNoteRequest{MemberID: "m1", Content: "   "}, testOwner); !errors.Is(err, ErrNoteEmpty) {
		t.Errorf("空内容期望 ErrNoteEmpty, 实际 %v", err)
	}
	if _, err := svc.Create(ctx, &dto.CreateNoteRequest{MemberID: "ghost", Content: "x"}, testOwner); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("期望 ErrMemberNotFound, 实际 %v", err)
	}

	note, err := svc.Create(ctx, &dto.CreateNoteRequest{MemberID: "m1", Content: " Très motivé "}, testOwner)
	if err != nil {
		t.Fatalf("创建备注失败: %v", err)
	}
	if note.Content != "Très motivé" || note.AuthorID != testOwner {
		t.Errorf("备注内容或作者错误: %+v", note)
	}

	updated, err := svc.Update(ctx, note.ID, &dto.UpdateNoteRequest{Content: "Absent en mars"}, testOwner)
	if err != nil {
		t.Fatalf("更新备注失败: %v", err)
	}
	if updated.Content != "Absent en mars" || updated.AuthorName != "Responsable" {
		t.Errorf("更新结果错误: %+v", updated)
	}

	list, err := svc.ListByMember(ctx, "m1", testOwner)
	if err != nil || len(list) != 1 {
		t.Fatalf("期望 1 条备注, 实际 %d (%v)", len(list), err)
	}

	if err := svc.Delete(ctx, note.ID, testOwner); err != nil {
		t.Fatalf("删除备注失败: %v", err)
	}
	if err := svc.Delete(ctx, note.ID, testOwner); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("重复删除期望 ErrNoteNotFound, 实际 %v", err)
	}
}
