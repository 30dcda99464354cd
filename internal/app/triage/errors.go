package triage

import (
	"errors"

	"github.com/John-Robertt/sitebot/internal/domain"
)

// ValidationError 是面向提交者的失败：Message 原样回帖，提交者可修正后重提。
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StageError 是基础设施失败（网络、磁盘、git、审核服务）。
type StageError struct {
	Code    string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// classify 把任意错误映射为 (status, error_code)。
func classify(err error) (string, string) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return domain.StatusRejected, ve.Code
	}
	var se *StageError
	if errors.As(err, &se) {
		return domain.StatusFailed, se.Code
	}
	return domain.StatusFailed, domain.ErrCodeIOFailed
}
