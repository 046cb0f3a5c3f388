package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"resume-structurer/internal/logger"
)

// TikaPDFExtractor 基于Apache Tika服务器的文本提取器
type TikaPDFExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client

	extractFullMetadata    bool
	extractMinimalMetadata bool
	extractAnnotations     bool
	logger                 *zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaPDFExtractor)

// WithFullMetadata 配置是否提取完整元数据
func WithFullMetadata(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractFullMetadata = extract
	}
}

// WithMinimalMetadata 配置是否提取精简的关键元数据
func WithMinimalMetadata(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractMinimalMetadata = extract
	}
}

// WithAnnotations 配置是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(l *zerolog.Logger) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.logger = l
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.Client.Timeout = timeout
	}
}

// WithMetadataMode 按配置字符串设置元数据模式: full, minimal, none
func WithMetadataMode(mode string) TikaOption {
	return func(e *TikaPDFExtractor) {
		switch mode {
		case "full":
			e.extractFullMetadata, e.extractMinimalMetadata = true, false
		case "none":
			e.extractFullMetadata, e.extractMinimalMetadata = false, false
		case "minimal":
			e.extractFullMetadata, e.extractMinimalMetadata = false, true
		}
	}
}

var _ TextExtractor = (*TikaPDFExtractor)(nil)

// NewTikaPDFExtractor 创建一个新的Tika解析器
func NewTikaPDFExtractor(serverURL string, options ...TikaOption) *TikaPDFExtractor {
	extractor := &TikaPDFExtractor{
		ServerURL:              serverURL,
		Client:                 &http.Client{Timeout: 60 * time.Second},
		extractMinimalMetadata: true,
		extractAnnotations:     true,
		logger:                 logger.Component("pdf_tika"),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// Name 引擎名称
func (e *TikaPDFExtractor) Name() string { return "tika" }

// ExtractTextFromBytes 调用 /tika 获取纯文本，按配置调用 /meta 获取元数据
func (e *TikaPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()
	baseMetadata := map[string]interface{}{
		MetaExtractionTime: startTime.Format(time.RFC3339),
		MetaSourceURI:      uri,
		MetaEngine:         e.Name(),
	}

	req, err := e.newRequest(ctx, "/tika", "text/plain", data, uri)
	if err != nil {
		return "", baseMetadata, err
	}
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	textBytes, err := e.do(req)
	if err != nil {
		return "", baseMetadata, err
	}
	text := string(textBytes)

	baseMetadata[MetaTextLength] = len(text)
	baseMetadata[MetaProcessDuration] = time.Since(startTime).Milliseconds()

	if !e.extractMinimalMetadata && !e.extractFullMetadata {
		return text, baseMetadata, nil
	}

	rawMetadata, err := e.extractMetadata(ctx, data, uri)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Msg("元数据提取失败, 继续使用基本元数据")
		return text, baseMetadata, nil
	}
	for k, v := range rawMetadata {
		if e.extractFullMetadata || isImportantMetadata(k) {
			baseMetadata[k] = v
		}
	}
	if n := tikaPageCount(rawMetadata["xmpTPg:NPages"]); n > 0 {
		baseMetadata[MetaPageCount] = n
	}

	e.logger.Debug().Str("uri", uri).Int("chars", len(text)).Dur("duration", time.Since(startTime)).Msg("Tika提取完成")
	return text, baseMetadata, nil
}

// 判断元数据字段是否重要
func isImportantMetadata(key string) bool {
	importantKeys := map[string]bool{
		"pdf:PDFVersion":      true,
		"xmpTPg:NPages":       true,
		"dcterms:created":     true,
		"language":            true,
		"dc:title":            true,
		"Content-Type":        true,
		"pdf:docinfo:title":   true,
		"pdf:docinfo:created": true,
	}
	return importantKeys[key]
}

// tikaPageCount Tika 的页数可能是字符串或字符串数组
func tikaPageCount(v interface{}) int {
	switch val := v.(type) {
	case string:
		n, _ := strconv.Atoi(val)
		return n
	case float64:
		return int(val)
	case []interface{}:
		if len(val) > 0 {
			return tikaPageCount(val[0])
		}
	}
	return 0
}

// extractMetadata 调用 /meta 获取文档元数据
func (e *TikaPDFExtractor) extractMetadata(ctx context.Context, data []byte, uri string) (map[string]interface{}, error) {
	req, err := e.newRequest(ctx, "/meta", "application/json", data, uri)
	if err != nil {
		return nil, err
	}
	metadataBytes, err := e.do(req)
	if err != nil {
		return nil, err
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	return metadata, nil
}

func (e *TikaPDFExtractor) newRequest(ctx context.Context, path, accept string, data []byte, uri string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", accept)
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	return req, nil
}

func (e *TikaPDFExtractor) do(req *http.Request) ([]byte, error) {
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	return body, nil
}
