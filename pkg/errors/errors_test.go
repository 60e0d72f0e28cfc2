package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_KindMatching(t *testing.T) {
	errDuesMissing := New(ErrNotFound, 13001, "会费记录不存在")
	wrapped := fmt.Errorf("mark paid: %w", errDuesMissing)

	assert.True(t, errors.Is(wrapped, errDuesMissing))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrDuplicate))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 13001, appErr.Code)
}

func TestValidation_FormatsMessage(t *testing.T) {
	err := Validation(10001, "月份 %q 格式无效", "2026-13")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, `月份 "2026-13" 格式无效`, err.Error())
}

func TestDependency_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("查询成员", cause)

	assert.True(t, errors.Is(err, ErrDependency))
	assert.True(t, errors.Is(err, cause))
	_, ok := As(err)
	assert.False(t, ok)
}
