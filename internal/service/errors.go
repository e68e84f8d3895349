package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 表示输入缺失或格式错误，具体字段见 ValidationError。
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 表示引用的记录不存在。
	ErrNotFound = errors.New("not found")
	// ErrConflict 表示唯一性冲突或乐观锁版本不一致。
	ErrConflict = errors.New("conflict")

	ErrPostNotFound     = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", ErrNotFound)
	ErrRevisionNotFound = fmt.Errorf("revision %w", ErrNotFound)
	ErrSlugTaken        = fmt.Errorf("slug already in use: %w", ErrConflict)
	ErrVersionMismatch  = fmt.Errorf("post was modified concurrently: %w", ErrConflict)

	// 评论提交专用的拒绝原因，调用方需要能够区分处理。
	ErrCaptchaFailed = errors.New("challenge answer is incorrect")
	ErrSpamDetected  = errors.New("comment looks like spam")
	ErrRateLimited   = errors.New("too many comments, try again later")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError 描述单个字段的校验失败。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap 使 errors.Is(err, ErrValidation) 成立。
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func requiredError(field string) error {
	return newValidationError(field, "is required")
}
