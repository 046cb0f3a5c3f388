package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"resume-structurer/internal/logger"
)

// 支持的文件类型
const (
	MIMEPDF   = "application/pdf"
	MIMEDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPlain = "text/plain"
)

// ExtractionResult 一次文件提取的结果
type ExtractionResult struct {
	Text     string
	NumPages int
	MIMEType string
	Engine   string
	Metadata map[string]interface{}
}

// DocumentExtractor 按文件内容嗅探类型并分发到对应的提取器
type DocumentExtractor struct {
	pdf     TextExtractor
	docx    TextExtractor
	maxSize int64
	allowed map[string]bool
	logger  *zerolog.Logger
}

// DocumentOption 文档提取器选项
type DocumentOption func(*DocumentExtractor)

// WithMaxSize 文件大小上限（字节），<=0 表示不限制
func WithMaxSize(n int64) DocumentOption {
	return func(d *DocumentExtractor) {
		d.maxSize = n
	}
}

// WithAllowedMIMETypes 覆盖允许的文件类型
func WithAllowedMIMETypes(types []string) DocumentOption {
	return func(d *DocumentExtractor) {
		if len(types) == 0 {
			return
		}
		d.allowed = make(map[string]bool, len(types))
		for _, t := range types {
			d.allowed[strings.ToLower(strings.TrimSpace(t))] = true
		}
	}
}

// WithDocxExtractor 替换 DOCX 提取器
func WithDocxExtractor(e TextExtractor) DocumentOption {
	return func(d *DocumentExtractor) {
		d.docx = e
	}
}

// WithDocumentLogger 配置日志记录器
func WithDocumentLogger(l *zerolog.Logger) DocumentOption {
	return func(d *DocumentExtractor) {
		d.logger = l
	}
}

// NewDocumentExtractor 创建文档提取器，pdf 为选定的 PDF 引擎
func NewDocumentExtractor(pdf TextExtractor, opts ...DocumentOption) *DocumentExtractor {
	d := &DocumentExtractor{
		pdf:     pdf,
		docx:    DocxExtractor{},
		maxSize: 10 << 20,
		allowed: map[string]bool{MIMEPDF: true, MIMEDocx: true, MIMEPlain: true},
		logger:  logger.Component("document_extractor"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PDFEngine 当前 PDF 引擎名称
func (d *DocumentExtractor) PDFEngine() string {
	if d.pdf == nil {
		return ""
	}
	return d.pdf.Name()
}

// DetectMIME 根据内容嗅探类型，返回不带参数的 type/subtype
// 文本类子类型（csv、html 等）归并为 text/plain
func DetectMIME(data []byte) string {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		switch base := baseMIME(m.String()); base {
		case MIMEPDF, MIMEDocx, MIMEPlain:
			return base
		}
	}
	return baseMIME(detected.String())
}

func baseMIME(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(s, ";", 2)[0]))
}

// Validate 检查大小与类型，返回嗅探出的 MIME 类型
func (d *DocumentExtractor) Validate(data []byte) (string, error) {
	if d.maxSize > 0 && int64(len(data)) > d.maxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrFileTooLarge, len(data), d.maxSize)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrDecodeFailed)
	}
	mime := DetectMIME(data)
	if !d.allowed[mime] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, mime)
	}
	return mime, nil
}

// Extract 校验大小与类型后提取文本
func (d *DocumentExtractor) Extract(ctx context.Context, filename string, data []byte) (*ExtractionResult, error) {
	mime, err := d.Validate(data)
	if err != nil {
		return nil, err
	}

	var (
		text string
		meta map[string]interface{}
	)
	res := &ExtractionResult{MIMEType: mime}
	switch mime {
	case MIMEPDF:
		if d.pdf == nil {
			return nil, fmt.Errorf("%w: no pdf engine configured", ErrUnsupportedFile)
		}
		res.Engine = d.pdf.Name()
		text, meta, err = d.pdf.ExtractTextFromBytes(ctx, data, filename)
	case MIMEDocx:
		res.Engine = d.docx.Name()
		text, meta, err = d.docx.ExtractTextFromBytes(ctx, data, filename)
	case MIMEPlain:
		res.Engine = "plain"
		if !utf8.Valid(data) {
			err = fmt.Errorf("invalid utf-8 text")
		}
		text, meta = string(data), map[string]interface{}{MetaEngine: "plain"}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, mime)
	}
	if err != nil {
		d.logger.Warn().Err(err).Str("filename", filename).Str("mime", mime).Str("engine", res.Engine).Msg("文件文本提取失败")
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	res.Text = NormalizeText(text)
	if res.Text == "" {
		return nil, fmt.Errorf("%w: no extractable text", ErrDecodeFailed)
	}
	res.Metadata = meta
	res.NumPages = pageCount(meta)
	if mime == MIMEPDF && res.NumPages == 0 {
		if n, perr := CountPages(data); perr == nil {
			res.NumPages = n
		}
	}
	if res.NumPages == 0 {
		res.NumPages = 1
	}

	d.logger.Debug().
		Str("filename", filename).
		Str("mime", mime).
		Str("engine", res.Engine).
		Int("pages", res.NumPages).
		Int("chars", utf8.RuneCountInString(res.Text)).
		Msg("文件文本提取完成")
	return res, nil
}

// ExtensionForMIME 支持的类型对应的文件扩展名
func ExtensionForMIME(mime string) string {
	switch mime {
	case MIMEPDF:
		return ".pdf"
	case MIMEDocx:
		return ".docx"
	case MIMEPlain:
		return ".txt"
	}
	return ""
}
