package processor

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-structurer/internal/constants"
	"resume-structurer/internal/logger"
	"resume-structurer/internal/parser"
	"resume-structurer/internal/storage"
	"resume-structurer/internal/storage/models"
	"resume-structurer/internal/structurer"
	"resume-structurer/internal/tracing"
	"resume-structurer/internal/types"
)

var tracer = otel.Tracer("resume-structurer/processor")

// statusUpdateTimeout 写失败状态的时限，不受处理上下文取消的影响
const statusUpdateTimeout = 5 * time.Second

// ResumeService 简历处理服务：同步的提取与结构化，以及基于存储的异步提交
// 只有 extractor 是必需的，其余组件未配置时对应功能降级或返回 ErrStorageNotInit
type ResumeService struct {
	extractor  Extractor
	structurer *structurer.Structurer

	cache     ResultCache
	dedup     DedupStore
	objects   ObjectStore
	repo      SubmissionRepository
	publisher UploadPublisher

	logger *zerolog.Logger
}

// NewResumeService 创建简历服务
func NewResumeService(extractor Extractor, opts ...ServiceOption) *ResumeService {
	s := &ResumeService{
		extractor: extractor,
		logger:    logger.Component("resume_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.structurer == nil {
		s.structurer = structurer.New(structurer.WithLogger(s.logger))
	}
	return s
}

// SupportsAsync 异步提交需要对象存储、仓库和发布者
func (s *ResumeService) SupportsAsync() bool {
	return s.objects != nil && s.repo != nil && s.publisher != nil
}

// SubmitResult 异步提交的结果
type SubmitResult struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
}

// SubmissionView 提交记录及其结构化结果
type SubmissionView struct {
	SubmissionUUID   string                  `json:"submission_uuid"`
	Status           string                  `json:"status"`
	ErrorMessage     string                  `json:"error_message,omitempty"`
	OriginalFilename string                  `json:"original_filename"`
	FileSize         int64                   `json:"file_size"`
	SubmittedAt      time.Time               `json:"submitted_at"`
	Resume           *types.StructuredResume `json:"resume,omitempty"`
	Meta             *types.ExtractionMeta   `json:"meta,omitempty"`
}

// TextMD5 结构化缓存使用的文本摘要
func TextMD5(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// StructureText 对纯文本做结构化，配置了缓存时按文本 MD5 复用结果
// 缓存失败只记录日志
func (s *ResumeService) StructureText(ctx context.Context, text string) *types.StructuredResume {
	ctx, span := tracer.Start(ctx, "ResumeService.StructureText")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	if s.cache == nil {
		return s.structure(span, text)
	}

	key := TextMD5(text)
	cached, err := s.cache.GetStructured(ctx, key)
	switch {
	case err == nil && cached != nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		s.logger.Debug().Str("text_md5", key).Msg("命中结构化结果缓存")
		return cached
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		s.logger.Warn().Err(err).Str("text_md5", key).Msg("读取结构化结果缓存失败")
	}

	res := s.structure(span, text)
	if err := s.cache.SetStructured(ctx, key, res); err != nil {
		s.logger.Warn().Err(err).Str("text_md5", key).Msg("写入结构化结果缓存失败")
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	return res
}

func (s *ResumeService) structure(span trace.Span, text string) *types.StructuredResume {
	res := s.structurer.Structure(text)
	span.SetAttributes(
		attribute.Int("resume.completion", res.Completion),
		attribute.String("resume.email", tracing.SafeAttributeValue("email", res.PersonalInfo.Email, tracing.DefaultMaxLength)),
	)
	return res
}

// ExtractAndStructure 提取上传文件的文本并结构化
func (s *ResumeService) ExtractAndStructure(ctx context.Context, filename string, data []byte) (*types.ParsedDocument, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.ExtractAndStructure")
	defer span.End()
	span.SetAttributes(
		attribute.String("file.name", tracing.SafeFilename(filename)),
		attribute.Int("file.size", len(data)),
	)

	res, err := s.extractor.Extract(ctx, filename, data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return nil, NewExtractError(filename, "", err)
	}

	doc := &types.ParsedDocument{
		Resume: s.StructureText(ctx, res.Text),
		Meta:   extractionMeta(filename, int64(len(data)), res),
	}
	span.SetAttributes(
		attribute.Int("resume.pages", doc.Meta.Pages),
		attribute.Int("resume.completion", doc.Resume.Completion),
	)
	s.logger.Info().
		Str("filename", filename).
		Str("mime", res.MIMEType).
		Str("engine", res.Engine).
		Int("pages", doc.Meta.Pages).
		Int("completion", doc.Resume.Completion).
		Msg("简历解析完成")
	return doc, nil
}

func extractionMeta(filename string, size int64, res *parser.ExtractionResult) types.ExtractionMeta {
	return types.ExtractionMeta{
		Filename:   filename,
		Size:       size,
		MIMEType:   res.MIMEType,
		Pages:      res.NumPages,
		Characters: utf8.RuneCountInString(res.Text),
		Engine:     res.Engine,
	}
}

// Submit 保存原始文件并发布上传事件，由消费者异步完成结构化
// 相同文件重复上传时返回已有的 submission_uuid
func (s *ResumeService) Submit(ctx context.Context, filename, sourceChannel string, data []byte) (*SubmitResult, error) {
	if !s.SupportsAsync() {
		return nil, ErrStorageNotInit
	}
	ctx, span := tracer.Start(ctx, "ResumeService.Submit", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	mime, err := s.extractor.Validate(data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, NewExtractError(filename, "", err)
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()
	log := s.logger.With().Str("submission_uuid", submissionUUID).Str("filename", filename).Logger()
	span.SetAttributes(attribute.String("submission_uuid", submissionUUID))

	sum := md5.Sum(data)
	fileMD5 := hex.EncodeToString(sum[:])
	if s.dedup != nil {
		exists, existingUUID, err := s.dedup.CheckAndSetFileMD5(ctx, fileMD5, submissionUUID)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRedis)
			return nil, fmt.Errorf("检查文件MD5重复性失败: %w", err)
		}
		if exists {
			log.Info().Str("md5", fileMD5).Str("existing_uuid", existingUUID).Msg("检测到重复的文件，返回已有提交")
			span.SetAttributes(attribute.Bool("duplicate_file", true))
			return &SubmitResult{SubmissionUUID: existingUUID, Status: constants.StatusDuplicateFile}, nil
		}
	}
	rollbackDedup := func() {
		if s.dedup == nil {
			return
		}
		if err := s.dedup.RemoveFileMD5(ctx, fileMD5); err != nil {
			log.Warn().Err(err).Str("md5", fileMD5).Msg("回滚文件MD5记录失败")
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = parser.ExtensionForMIME(mime)
	}
	objectKey, _, err := s.objects.UploadResumeFileStreaming(ctx, submissionUUID, ext, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		rollbackDedup()
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, NewStoreError(filename, submissionUUID, err)
	}

	now := time.Now()
	submission := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          fileMD5,
		FileSize:            int64(len(data)),
		MIMEType:            mime,
		ProcessingStatus:    constants.StatusPendingParsing,
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		rollbackDedup()
		if delErr := s.objects.DeleteResumeFile(ctx, objectKey); delErr != nil {
			log.Warn().Err(delErr).Str("object_key", objectKey).Msg("回滚已上传的原始文件失败")
		}
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, NewStoreError(filename, submissionUUID, err)
	}

	msg := storage.ResumeUploadMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          fileMD5,
		FileSize:            int64(len(data)),
	}
	if err := s.publisher.PublishUpload(ctx, msg); err != nil {
		rollbackDedup()
		if upErr := s.repo.UpdateSubmissionStatus(ctx, submissionUUID, constants.StatusStoreFailed, err.Error()); upErr != nil {
			log.Error().Err(upErr).Msg("更新状态为STORE_FAILED失败")
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return nil, NewPublishError(filename, submissionUUID, err)
	}

	log.Info().Str("object_key", objectKey).Int("size", len(data)).Msg("简历已提交，等待异步结构化")
	span.SetStatus(codes.Ok, "")
	return &SubmitResult{SubmissionUUID: submissionUUID, Status: constants.StatusPendingParsing}, nil
}

// ProcessSubmission 消费上传事件：下载原始文件、提取、保存文本、结构化并持久化结果
// 提取失败时提交被标记为 EXTRACTION_FAILED 并返回 DocumentError
func (s *ResumeService) ProcessSubmission(ctx context.Context, msg storage.ResumeUploadMessage) error {
	if s.objects == nil || s.repo == nil {
		return ErrStorageNotInit
	}
	ctx, span := tracer.Start(ctx, "ResumeService.ProcessSubmission", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(attribute.String("submission_uuid", msg.SubmissionUUID))
	log := s.logger.With().Str("submission_uuid", msg.SubmissionUUID).Logger()

	submission, err := s.repo.GetSubmission(ctx, msg.SubmissionUUID)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			log.Info().Msg("提交记录不存在，跳过")
			return nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return fmt.Errorf("%w: 查询提交记录失败: %w", ErrRetryable, err)
	}
	if constants.IsTerminalStatus(submission.ProcessingStatus) {
		log.Debug().Str("status", submission.ProcessingStatus).Msg("提交已处理，跳过重复消息")
		span.SetAttributes(attribute.String("skipped_reason", "terminal_status"))
		return nil
	}

	data, err := s.objects.GetResumeFile(ctx, msg.OriginalFilePathOSS)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return s.fail(ctx, msg.SubmissionUUID, constants.StatusStoreFailed, fmt.Errorf("下载原始简历失败: %w", err))
	}

	res, err := s.extractor.Extract(ctx, msg.OriginalFilename, data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return s.fail(ctx, msg.SubmissionUUID, constants.StatusExtractionFailed, NewExtractError(msg.OriginalFilename, msg.SubmissionUUID, err))
	}
	span.AddEvent("text_extraction_completed")

	textKey, err := s.objects.UploadExtractedText(ctx, msg.SubmissionUUID, res.Text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return s.fail(ctx, msg.SubmissionUUID, constants.StatusStoreFailed, fmt.Errorf("上传提取文本失败: %w", err))
	}

	resume := s.StructureText(ctx, res.Text)
	result := storage.ParsedResult{
		SubmissionUUID:   msg.SubmissionUUID,
		ExtractedTextKey: textKey,
		Resume:           resume,
		Meta:             extractionMeta(msg.OriginalFilename, int64(len(data)), res),
	}
	if err := s.repo.SaveParsedResume(ctx, result); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return s.fail(ctx, msg.SubmissionUUID, constants.StatusStoreFailed, fmt.Errorf("保存结构化结果失败: %w", err))
	}

	log.Info().
		Int("pages", res.NumPages).
		Int("completion", resume.Completion).
		Str("engine", res.Engine).
		Msg("异步结构化完成")
	span.SetStatus(codes.Ok, "")
	return nil
}

// fail 记录失败状态；被取消或超时的处理不落状态，交给重新投递
func (s *ResumeService) fail(ctx context.Context, submissionUUID, status string, cause error) error {
	if IsRetryable(cause) {
		return fmt.Errorf("%w: %w", ErrRetryable, cause)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusUpdateTimeout)
	defer cancel()
	if err := s.repo.UpdateSubmissionStatus(ctx, submissionUUID, status, cause.Error()); err != nil {
		s.logger.Error().Err(err).Str("submission_uuid", submissionUUID).Str("status", status).Msg("更新提交状态失败")
	}
	return cause
}

// GetSubmission 查询提交状态与结构化结果
func (s *ResumeService) GetSubmission(ctx context.Context, submissionUUID string) (*SubmissionView, error) {
	if s.repo == nil {
		return nil, ErrStorageNotInit
	}
	if _, err := uuid.FromString(submissionUUID); err != nil {
		return nil, ErrInvalidSubmissionUUID
	}

	sub, err := s.repo.GetSubmission(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}
	view := &SubmissionView{
		SubmissionUUID:   sub.SubmissionUUID,
		Status:           sub.ProcessingStatus,
		ErrorMessage:     sub.ErrorMessage,
		OriginalFilename: sub.OriginalFilename,
		FileSize:         sub.FileSize,
		SubmittedAt:      sub.SubmissionTimestamp,
	}
	if sub.Parsed != nil && len(sub.Parsed.StructuredJSON) > 0 {
		var resume types.StructuredResume
		if err := json.Unmarshal(sub.Parsed.StructuredJSON, &resume); err != nil {
			return nil, fmt.Errorf("反序列化结构化结果失败: %w", err)
		}
		view.Resume = &resume
		view.Meta = &types.ExtractionMeta{
			Filename:   sub.OriginalFilename,
			Size:       sub.FileSize,
			MIMEType:   sub.MIMEType,
			Pages:      sub.Parsed.Pages,
			Characters: sub.Parsed.Characters,
			Engine:     sub.Parsed.Engine,
		}
	}
	return view, nil
}

// ConsumeHandler 返回上传队列的消息处理函数
// 格式错误与文件错误直接确认，存储错误拒绝且不重新入队
func (s *ResumeService) ConsumeHandler() storage.DeliveryHandler {
	return func(ctx context.Context, body []byte) (bool, bool) {
		msg, err := storage.DecodeUploadMessage(body)
		if err != nil {
			s.logger.Error().Err(err).Msg("丢弃无法解析的上传消息")
			return false, false
		}

		err = s.ProcessSubmission(ctx, msg)
		switch {
		case err == nil:
			return true, false
		case IsRetryable(err):
			s.logger.Warn().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("处理上传消息暂时失败，重新入队")
			tracing.RecordRabbitMQNack(trace.SpanFromContext(ctx), msg.SubmissionUUID, err.Error(), true)
			return false, true
		case IsDocumentError(err):
			s.logger.Warn().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("简历文件无法解析")
			return true, false
		default:
			s.logger.Error().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("处理上传消息失败")
			span := trace.SpanFromContext(ctx)
			tracing.RecordRabbitMQNack(span, msg.SubmissionUUID, err.Error(), false)
			return false, false
		}
	}
}
