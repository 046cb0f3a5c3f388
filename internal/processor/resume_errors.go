package processor

import (
	"context"
	"errors"
	"fmt"

	"resume-structurer/internal/parser"
	"resume-structurer/internal/storage"
)

// 上游文档错误，在结构化之前返回
var (
	ErrUnsupportedFile = parser.ErrUnsupportedFile
	ErrFileTooLarge    = parser.ErrFileTooLarge
	ErrDecodeFailed    = parser.ErrDecodeFailed
)

// 服务层错误
var (
	ErrStorageNotInit        = errors.New("异步处理所需的存储未启用")
	ErrSubmissionNotFound    = storage.ErrSubmissionNotFound
	ErrInvalidSubmissionUUID = errors.New("submission_uuid 格式无效")
	ErrStoreFailed           = errors.New("保存简历失败")
	ErrPublishFailed         = errors.New("发布上传消息失败")
	// ErrRetryable 暂时性失败，消息应重新投递
	ErrRetryable = errors.New("暂时性失败")
)

// IsRetryable 判断消费失败是否应该重新入队
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// DocumentError 包含操作与文件信息的错误
type DocumentError struct {
	Op             string
	Filename       string
	SubmissionUUID string
	BaseErr        error
	Detail         string
}

func (e *DocumentError) Error() string {
	msg := fmt.Sprintf("%s (操作:%s, 文件:%s", e.BaseErr, e.Op, e.Filename)
	if e.SubmissionUUID != "" {
		msg += ", UUID:" + e.SubmissionUUID
	}
	msg += ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DocumentError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewExtractError 文本提取失败，err 保留上游的错误类型
func NewExtractError(filename, submissionUUID string, err error) error {
	return &DocumentError{
		Op:             "extract",
		Filename:       filename,
		SubmissionUUID: submissionUUID,
		BaseErr:        err,
	}
}

func NewStoreError(filename, submissionUUID string, err error) error {
	return &DocumentError{
		Op:             "store",
		Filename:       filename,
		SubmissionUUID: submissionUUID,
		BaseErr:        ErrStoreFailed,
		Detail:         err.Error(),
	}
}

func NewPublishError(filename, submissionUUID string, err error) error {
	return &DocumentError{
		Op:             "publish",
		Filename:       filename,
		SubmissionUUID: submissionUUID,
		BaseErr:        ErrPublishFailed,
		Detail:         err.Error(),
	}
}

// IsDocumentError 文件本身有问题，重试不会成功
func IsDocumentError(err error) bool {
	return errors.Is(err, ErrUnsupportedFile) || errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrDecodeFailed)
}
