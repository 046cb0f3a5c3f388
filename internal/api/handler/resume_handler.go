package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"resume-structurer/internal/constants"
	"resume-structurer/internal/logger"
	"resume-structurer/internal/processor"
	"resume-structurer/internal/tracing"
)

// 表单字段
const (
	FormFieldFile          = "file"
	FormFieldSourceChannel = "source_channel"
	defaultSourceChannel   = "web_upload"
)

var errMissingFile = errors.New("缺少上传文件字段 file")

// ResumeHandler 简历相关的 HTTP 处理器
type ResumeHandler struct {
	service     *processor.ResumeService
	maxFileSize int64
	logger      *zerolog.Logger
}

// NewResumeHandler 创建简历处理器，maxFileSize 为上传文件大小上限（字节）
func NewResumeHandler(service *processor.ResumeService, maxFileSize int64) *ResumeHandler {
	return &ResumeHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      logger.Component("resume_handler"),
	}
}

// StructureRequest 纯文本结构化请求
type StructureRequest struct {
	Text string `json:"text"`
}

// HandleExtract POST /resume/extract：同步提取并结构化上传文件
func (h *ResumeHandler) HandleExtract(ctx context.Context, c *app.RequestContext) {
	filename, data, err := h.readUpload(c)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}

	doc, err := h.service.ExtractAndStructure(ctx, filename, data)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, doc)
}

// HandleStructure POST /resume/structure：结构化请求体中的纯文本
func (h *ResumeHandler) HandleStructure(ctx context.Context, c *app.RequestContext) {
	var req StructureRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体必须是包含 text 字段的 JSON"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"resume": h.service.StructureText(ctx, req.Text)})
}

// HandleUpload POST /resume/upload：保存文件并异步结构化
func (h *ResumeHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	filename, data, err := h.readUpload(c)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	sourceChannel := c.PostForm(FormFieldSourceChannel)
	if sourceChannel == "" {
		sourceChannel = defaultSourceChannel
	}

	res, err := h.service.Submit(ctx, filename, sourceChannel, data)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	status := consts.StatusAccepted
	if res.Status == constants.StatusDuplicateFile {
		status = consts.StatusOK
	}
	c.JSON(status, res)
}

// HandleGetSubmission GET /resume/:submission_uuid：查询异步处理状态
func (h *ResumeHandler) HandleGetSubmission(ctx context.Context, c *app.RequestContext) {
	view, err := h.service.GetSubmission(ctx, c.Param("submission_uuid"))
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, view)
}

// readUpload 读取 multipart 文件，超过上限时不读完整个文件
func (h *ResumeHandler) readUpload(c *app.RequestContext) (string, []byte, error) {
	fileHeader, err := c.FormFile(FormFieldFile)
	if err != nil {
		return "", nil, errMissingFile
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", processor.ErrFileTooLarge, fileHeader.Size, h.maxFileSize)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer file.Close()

	data, err := readLimited(file, h.maxFileSize)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, data, nil
}

func readLimited(file multipart.File, limit int64) ([]byte, error) {
	var r io.Reader = file
	if limit > 0 {
		r = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds limit of %d bytes", processor.ErrFileTooLarge, limit)
	}
	return data, nil
}

// StatusCodeFor 错误到 HTTP 状态码的映射
func StatusCodeFor(err error) int {
	switch {
	case errors.Is(err, errMissingFile), errors.Is(err, processor.ErrInvalidSubmissionUUID):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrUnsupportedFile):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, processor.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, processor.ErrDecodeFailed):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrSubmissionNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrStorageNotInit):
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}

func (h *ResumeHandler) writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := StatusCodeFor(err)
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)

	evt := h.logger.Warn()
	if status >= consts.StatusInternalServerError {
		evt = h.logger.Error()
	}
	evt.Err(err).
		Int("status", status).
		Str("path", string(c.Path())).
		Msg("请求处理失败")

	msg := err.Error()
	if status == consts.StatusInternalServerError {
		msg = "服务器内部错误"
	}
	c.JSON(status, utils.H{"error": msg})
}
