package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"resume-structurer/internal/config"
	"resume-structurer/internal/logger"
	"resume-structurer/internal/processor"
)

func main() {
	var (
		filePath string
		engine   string
		pretty   bool
		verbose  bool
		timeout  time.Duration
	)
	pflag.StringVarP(&filePath, "file", "f", "", "简历文件路径 (pdf, docx, txt)")
	pflag.StringVar(&engine, "engine", processor.EngineLedongthuc, "PDF 引擎: eino | tika | ledongthuc")
	pflag.BoolVar(&pretty, "pretty", false, "格式化输出 JSON")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	pflag.DurationVar(&timeout, "timeout", time.Minute, "解析超时")
	pflag.Parse()

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.InitWithWriter(logger.Config{Level: level, Format: "pretty"}, os.Stderr)

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "用法: resumeparse -f resume.pdf [--pretty] [--engine ledongthuc]")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	if err := run(filePath, engine, pretty, timeout); err != nil {
		fmt.Fprintf(os.Stderr, "解析失败: %v\n", err)
		os.Exit(1)
	}
}

func run(filePath, engine string, pretty bool, timeout time.Duration) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	cfg := config.Default()
	cfg.PDF.Engine = engine
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	extractor, err := processor.BuildDocumentExtractor(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := processor.NewResumeService(extractor).ExtractAndStructure(ctx, filepath.Base(filePath), data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
