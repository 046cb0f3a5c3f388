package processor

import (
	"context"
	"fmt"
	"time"

	"resume-structurer/internal/config"
	"resume-structurer/internal/logger"
	"resume-structurer/internal/parser"
)

// PDF 引擎名称
const (
	EngineEino       = "eino"
	EngineTika       = "tika"
	EngineLedongthuc = "ledongthuc"
)

// BuildPDFExtractor 按配置选择 PDF 文本提取引擎
func BuildPDFExtractor(ctx context.Context, cfg *config.Config) (parser.TextExtractor, error) {
	timeout := time.Duration(cfg.PDF.TimeoutSeconds) * time.Second

	switch cfg.PDF.Engine {
	case EngineTika:
		opts := []parser.TikaOption{
			parser.WithMetadataMode(cfg.Tika.MetadataMode),
			parser.WithTikaLogger(logger.Component("pdf_tika")),
		}
		if cfg.Tika.Timeout > 0 {
			opts = append(opts, parser.WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
		}
		logger.Info().Str("server", cfg.Tika.ServerURL).Msg("使用Tika PDF解析器")
		return parser.NewTikaPDFExtractor(cfg.Tika.ServerURL, opts...), nil
	case EngineLedongthuc:
		logger.Info().Msg("使用ledongthuc PDF解析器")
		return parser.NewLedongPDFExtractor(nil), nil
	case EngineEino, "":
		opts := []parser.EinoPDFOption{parser.WithEinoLogger(logger.Component("pdf_eino"))}
		if timeout > 0 {
			opts = append(opts, parser.WithEinoTimeout(timeout))
		}
		ext, err := parser.NewEinoPDFTextExtractor(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("创建Eino PDF提取器失败: %w", err)
		}
		logger.Info().Msg("使用Eino PDF解析器")
		return ext, nil
	default:
		return nil, fmt.Errorf("未知的PDF引擎: %s", cfg.PDF.Engine)
	}
}

// BuildDocumentExtractor 按配置创建带大小与类型限制的文档提取器
func BuildDocumentExtractor(ctx context.Context, cfg *config.Config) (*parser.DocumentExtractor, error) {
	pdf, err := BuildPDFExtractor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return parser.NewDocumentExtractor(pdf,
		parser.WithMaxSize(cfg.Upload.MaxFileSizeBytes()),
		parser.WithAllowedMIMETypes(cfg.Upload.AllowedMIMETypes),
	), nil
}
