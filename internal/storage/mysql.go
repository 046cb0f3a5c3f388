package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-structurer/internal/config"
	"resume-structurer/internal/constants"
	"resume-structurer/internal/logger"
	"resume-structurer/internal/storage/models"
	"resume-structurer/internal/tracing"
	"resume-structurer/internal/types"
)

// ErrSubmissionNotFound 提交记录不存在
var ErrSubmissionNotFound = errors.New("submission not found")

var mysqlTracer = otel.Tracer("resume-structurer/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为每条 GORM 操作创建 OpenTelemetry span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName, disableErrSkip: true}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	errs := []error{
		cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")),
		cb.Create().After("gorm:create").Register("otel:after_create", p.after()),
		cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")),
		cb.Query().After("gorm:query").Register("otel:after_query", p.after()),
		cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")),
		cb.Update().After("gorm:update").Register("otel:after_update", p.after()),
		cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")),
		cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()),
		cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")),
		cb.Row().After("gorm:row").Register("otel:after_row", p.after()),
		cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")),
		cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()),
	}
	return errors.Join(errs...)
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+tableName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			attribute.String("db.statement", tracing.SafeSQL(db.Statement.SQL.String())),
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
		)
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			span.SetAttributes(attribute.String("error.type", "database_error"))
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}

// MySQL 提交记录与结构化结果的持久化
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 连接 MySQL 并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 3:
		logLevel = gormlogger.Warn
	case 4:
		logLevel = gormlogger.Info
	default:
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err := silentDB.AutoMigrate(&models.ResumeSubmission{}, &models.ParsedResume{}); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 检查数据库连接
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateSubmission 写入新的提交记录
func (m *MySQL) CreateSubmission(ctx context.Context, submission *models.ResumeSubmission) error {
	if err := m.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("创建提交记录失败: %w", err)
	}
	return nil
}

// UpdateSubmissionStatus 更新处理状态与错误信息
func (m *MySQL) UpdateSubmissionStatus(ctx context.Context, submissionUUID, status, errMsg string) error {
	res := m.db.WithContext(ctx).Model(&models.ResumeSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{"processing_status": status, "error_message": errMsg})
	if res.Error != nil {
		return fmt.Errorf("更新提交状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// GetSubmission 查询提交记录及其结构化结果
func (m *MySQL) GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error) {
	var submission models.ResumeSubmission
	err := m.db.WithContext(ctx).Preload("Parsed").
		Where("submission_uuid = ?", submissionUUID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	return &submission, nil
}

// ParsedResult 写入结构化结果所需的数据
type ParsedResult struct {
	SubmissionUUID   string
	ExtractedTextKey string
	Resume           *types.StructuredResume
	Meta             types.ExtractionMeta
}

// SaveParsedResume 在同一事务中写入结构化结果并把提交标记为 PARSED
func (m *MySQL) SaveParsedResume(ctx context.Context, result ParsedResult) error {
	structured, err := json.Marshal(result.Resume)
	if err != nil {
		return fmt.Errorf("序列化结构化结果失败: %w", err)
	}
	skills, err := json.Marshal(result.Resume.Skills)
	if err != nil {
		return fmt.Errorf("序列化技能失败: %w", err)
	}

	row := models.ParsedResume{
		SubmissionUUID:    result.SubmissionUUID,
		StructuredJSON:    datatypes.JSON(structured),
		SkillsJSON:        datatypes.JSON(skills),
		FullName:          result.Resume.PersonalInfo.FullName,
		Email:             result.Resume.PersonalInfo.Email,
		Phone:             result.Resume.PersonalInfo.Phone,
		Completion:        result.Resume.Completion,
		Pages:             result.Meta.Pages,
		Characters:        result.Meta.Characters,
		Engine:            result.Meta.Engine,
		StructurerVersion: constants.StructurerVersion,
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("写入结构化结果失败: %w", err)
		}
		return tx.Model(&models.ResumeSubmission{}).
			Where("submission_uuid = ?", result.SubmissionUUID).
			Updates(map[string]interface{}{
				"extracted_text_path_oss": result.ExtractedTextKey,
				"mime_type":               result.Meta.MIMEType,
				"processing_status":       constants.StatusParsed,
				"error_message":           "",
			}).Error
	})
}
