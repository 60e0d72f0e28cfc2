package errors

import (
	"errors"
	"fmt"
)

// ── 错误分类 ──
// Handler 层只按分类映射 HTTP 状态码，具体业务错误由各 Service 以 New 声明。

var (
	ErrValidation   = errors.New("参数校验失败")
	ErrNotFound     = errors.New("资源不存在")
	ErrDuplicate    = errors.New("数据重复")
	ErrUnauthorized = errors.New("未认证")
	ErrForbidden    = errors.New("无权操作")
	ErrDependency   = errors.New("依赖服务不可用")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// AppError 业务错误：分类 + 业务码 + 面向调用方的提示
type AppError struct {
	Kind    error
	Code    int
	Message string
}

// New 声明一个业务错误
func New(kind error, code int, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func (e *AppError) Error() string { return e.Message }

// Is 使 errors.Is(err, ErrNotFound) 等分类判断成立
func (e *AppError) Is(target error) bool {
	return target == e.Kind
}

// Validation 构造一次性的校验错误（消息随输入变化时使用）
func Validation(code int, format string, args ...interface{}) *AppError {
	return New(ErrValidation, code, fmt.Sprintf(format, args...))
}

// Dependency 将底层故障标记为依赖错误，保留原始错误链
func Dependency(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}

// As 提取错误链上的 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
