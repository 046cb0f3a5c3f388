package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"resume-structurer/internal/logger"
)

// LedongPDFExtractor 纯 Go 实现的 PDF 解析器，不依赖外部服务
type LedongPDFExtractor struct {
	logger *zerolog.Logger
}

var _ TextExtractor = (*LedongPDFExtractor)(nil)

// NewLedongPDFExtractor 创建 ledongthuc/pdf 提取器
func NewLedongPDFExtractor(l *zerolog.Logger) *LedongPDFExtractor {
	if l == nil {
		l = logger.Component("pdf_ledong")
	}
	return &LedongPDFExtractor{logger: l}
}

// Name 引擎名称
func (e *LedongPDFExtractor) Name() string { return "ledongthuc" }

// ExtractTextFromBytes 逐页提取纯文本，单页失败时跳过该页
func (e *LedongPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (text string, meta map[string]interface{}, err error) {
	startTime := time.Now()
	meta = map[string]interface{}{
		MetaSourceURI:      uri,
		MetaExtractionTime: startTime.Format(time.RFC3339),
		MetaEngine:         e.Name(),
	}
	// 损坏的 PDF 可能让底层库 panic
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("ledongthuc PDF parser panic for URI %s: %v", uri, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", meta, fmt.Errorf("failed to read pdf %s: %w", uri, err)
	}

	numPages := r.NumPage()
	var b strings.Builder
	var fonts map[string]*pdf.Font
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", meta, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, perr := page.GetPlainText(fonts)
		if perr != nil {
			e.logger.Debug().Err(perr).Int("page", i).Str("uri", uri).Msg("跳过无法解析的页面")
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}

	text = b.String()
	meta[MetaPageCount] = numPages
	meta[MetaTextLength] = len(text)
	meta[MetaProcessDuration] = time.Since(startTime).Milliseconds()
	return text, meta, nil
}

// CountPages 只读取页数
func CountPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("count pdf pages: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
