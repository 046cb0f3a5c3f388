package processor

import (
	"context"
	"io"

	"resume-structurer/internal/parser"
	"resume-structurer/internal/storage"
	"resume-structurer/internal/storage/models"
	"resume-structurer/internal/types"
)

// Extractor 文档文本提取
type Extractor interface {
	Validate(data []byte) (string, error)
	Extract(ctx context.Context, filename string, data []byte) (*parser.ExtractionResult, error)
}

// ResultCache 按文本 MD5 缓存结构化结果，未命中返回 storage.ErrNotFound
type ResultCache interface {
	GetStructured(ctx context.Context, textMD5 string) (*types.StructuredResume, error)
	SetStructured(ctx context.Context, textMD5 string, res *types.StructuredResume) error
}

// DedupStore 原始文件去重
type DedupStore interface {
	CheckAndSetFileMD5(ctx context.Context, md5Hex, submissionUUID string) (bool, string, error)
	RemoveFileMD5(ctx context.Context, md5Hex string) error
}

// ObjectStore 原始文件与提取文本的对象存储
type ObjectStore interface {
	UploadResumeFileStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	UploadExtractedText(ctx context.Context, submissionUUID, text string) (string, error)
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
	DeleteResumeFile(ctx context.Context, objectKey string) error
}

// SubmissionRepository 提交记录与结构化结果的持久化
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *models.ResumeSubmission) error
	UpdateSubmissionStatus(ctx context.Context, submissionUUID, status, errMsg string) error
	GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error)
	SaveParsedResume(ctx context.Context, result storage.ParsedResult) error
}

// UploadPublisher 发布上传事件
type UploadPublisher interface {
	PublishUpload(ctx context.Context, msg storage.ResumeUploadMessage) error
}
