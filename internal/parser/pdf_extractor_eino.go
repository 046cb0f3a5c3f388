package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-structurer/internal/logger"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	logger  *zerolog.Logger
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(l *zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.logger = l
	}
}

// WithEinoTimeout 配置单个文件的解析超时
func WithEinoTimeout(timeout time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

var _ TextExtractor = (*EinoPDFTextExtractor)(nil)

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 按页拆分，以便统计页数
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		logger:  logger.Component("pdf_eino"),
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// Name 引擎名称
func (e *EinoPDFTextExtractor) Name() string { return "eino" }

// ExtractTextFromBytes 从字节数组提取文本，每页之间以空行分隔
func (e *EinoPDFTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()
	extraMeta := map[string]interface{}{
		MetaSourceURI:      uri,
		MetaExtractionTime: startTime.Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(extraMeta),
	)
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Dur("duration", duration).Msg("PDF解析失败")
		return "", extraMeta, fmt.Errorf("eino PDF parser failed for URI %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", extraMeta, fmt.Errorf("eino PDF parser returned no documents for URI %s", uri)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		pages = append(pages, doc.Content)
	}
	fullContent := strings.Join(pages, "\n\n")

	meta := make(map[string]interface{}, len(extraMeta)+4)
	if docs[0].MetaData != nil {
		for k, v := range docs[0].MetaData {
			meta[k] = v
		}
	}
	for k, v := range extraMeta {
		meta[k] = v
	}
	meta[MetaEngine] = e.Name()
	meta[MetaPageCount] = len(docs)
	meta[MetaTextLength] = len(fullContent)
	meta[MetaProcessDuration] = duration.Milliseconds()

	e.logger.Debug().
		Str("uri", uri).
		Int("pages", len(docs)).
		Int("chars", len(fullContent)).
		Dur("duration", duration).
		Msg("PDF提取完成")
	return fullContent, meta, nil
}
