package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"

	"resume-structurer/internal/config"
	"resume-structurer/internal/logger"
)

// MinIO 对象存储：原始简历与提取出的纯文本分桶保存
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
	textBucket     string
	logger         *zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	log := logger.Component("minio")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: cfg.OriginalsBucket,
		textBucket:     cfg.ExtractedTextBucket,
		logger:         log,
	}
	for _, bucket := range []string{m.originalBucket, m.textBucket} {
		if err := m.ensureBucketExists(ctx, bucket); err != nil {
			return nil, err
		}
	}
	if cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalBucket, "expire-originals", cfg.OriginalFileExpireDays); err != nil {
			log.Warn().Err(err).Str("bucket", m.originalBucket).Msg("设置生命周期规则失败")
		}
	}

	log.Info().Str("endpoint", cfg.Endpoint).Msg("MinIO客户端初始化成功")
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

// OriginalObjectKey 原始简历的对象键，例如 resume/{uuid}/original.pdf
func OriginalObjectKey(submissionUUID, fileExt string) string {
	return fmt.Sprintf("resume/%s/original%s", submissionUUID, strings.ToLower(fileExt))
}

// ExtractedTextObjectKey 提取文本的对象键
func ExtractedTextObjectKey(submissionUUID string) string {
	return fmt.Sprintf("resume/%s/extracted_text.txt", submissionUUID)
}

// UploadResumeFileStreaming 流式上传简历文件并同时计算MD5
// 返回: objectKey, md5Hex, error
func (m *MinIO) UploadResumeFileStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	objectName := OriginalObjectKey(submissionUUID, fileExt)
	md5Hash := md5.New()
	teeReader := io.TeeReader(reader, md5Hash)

	info, err := m.client.PutObject(ctx, m.originalBucket, objectName, teeReader,
		fileSize, minio.PutObjectOptions{ContentType: ContentTypeForExt(fileExt)})
	if err != nil {
		return "", "", fmt.Errorf("流式上传文件到MinIO失败: %w", err)
	}
	md5Hex := hex.EncodeToString(md5Hash.Sum(nil))

	m.logger.Debug().
		Str("object", objectName).
		Int64("size", info.Size).
		Str("md5", md5Hex).
		Msg("原始简历已上传")
	return objectName, md5Hex, nil
}

// UploadExtractedText 上传提取出的纯文本
func (m *MinIO) UploadExtractedText(ctx context.Context, submissionUUID, text string) (string, error) {
	objectName := ExtractedTextObjectKey(submissionUUID)
	_, err := m.client.PutObject(ctx, m.textBucket, objectName, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("上传提取文本 %s 到存储桶 %s 失败: %w", objectName, m.textBucket, err)
	}
	return objectName, nil
}

// GetResumeFile 下载原始简历
func (m *MinIO) GetResumeFile(ctx context.Context, objectKey string) ([]byte, error) {
	return m.download(ctx, m.originalBucket, objectKey)
}

// GetExtractedText 下载提取文本
func (m *MinIO) GetExtractedText(ctx context.Context, objectKey string) (string, error) {
	data, err := m.download(ctx, m.textBucket, objectKey)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeleteResumeFile 删除原始简历，用于提交失败时回滚
func (m *MinIO) DeleteResumeFile(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.originalBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectKey, err)
	}
	return nil
}

func (m *MinIO) download(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	return buf.Bytes(), nil
}

// Ping 检查对象存储可用
func (m *MinIO) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.originalBucket)
	return err
}

// ContentTypeForExt 根据扩展名返回内容类型
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
