package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraphEndRe = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTabRe          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTagRe           = regexp.MustCompile(`<[^>]+>`)
)

// DocxExtractor Word (.docx) 文本提取器
type DocxExtractor struct{}

var _ TextExtractor = DocxExtractor{}

// Name 引擎名称
func (DocxExtractor) Name() string { return "docx" }

// ExtractTextFromBytes 读取 word/document.xml，段落转换为换行
func (d DocxExtractor) ExtractTextFromBytes(_ context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()
	meta := map[string]interface{}{
		MetaSourceURI:      uri,
		MetaExtractionTime: startTime.Format(time.RFC3339),
		MetaEngine:         d.Name(),
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", meta, fmt.Errorf("failed to parse docx %s: %w", uri, err)
	}
	defer doc.Close()

	text := docxXMLToText(doc.Editable().GetContent())
	meta[MetaTextLength] = len(text)
	meta[MetaProcessDuration] = time.Since(startTime).Milliseconds()
	return text, meta, nil
}

func docxXMLToText(xml string) string {
	xml = docxParagraphEndRe.ReplaceAllString(xml, "\n")
	xml = docxTabRe.ReplaceAllString(xml, "\t")
	xml = xmlTagRe.ReplaceAllString(xml, "")
	return strings.TrimSpace(html.UnescapeString(xml))
}
