// Package parser 把上传的简历文件（PDF、DOCX、纯文本）转换为纯文本
package parser

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrFileTooLarge 文件超过大小上限
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFile 不支持的文件类型
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrDecodeFailed 文件无法解码或没有可提取的文本
	ErrDecodeFailed = errors.New("document decode failed")
)

// 元数据中的通用键
const (
	MetaPageCount       = "page_count"
	MetaTextLength      = "text_length"
	MetaEngine          = "engine"
	MetaSourceURI       = "source_file_path"
	MetaExtractionTime  = "extraction_time"
	MetaProcessDuration = "processing_duration_ms"
)

// TextExtractor 单一格式的文本提取器
type TextExtractor interface {
	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error)
	// Name 引擎名称，写入提取结果的元数据
	Name() string
}

var (
	inlineSpaceRe = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText 合并行内空白，保留换行，最多保留一个空行
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaceRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// pageCount 从元数据中读取页数，兼容 Tika 的字符串与数组形式
func pageCount(meta map[string]interface{}) int {
	switch v := meta[MetaPageCount].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
