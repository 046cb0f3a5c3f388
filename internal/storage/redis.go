package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-structurer/internal/config"
	"resume-structurer/internal/constants"
	"resume-structurer/internal/tracing"
	"resume-structurer/internal/types"
)

// ErrNotFound 缓存未命中
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-structurer/storage/redis")

// Redis 结构化结果缓存与文件去重
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建 Redis 客户端并检查连接
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout: time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// MD5ExpireDuration 去重记录的过期时间
func (r *Redis) MD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// ResultCacheTTL 结构化结果的缓存时间
func (r *Redis) ResultCacheTTL() time.Duration {
	return config.GetDuration(r.config.ResultCacheTTL, constants.DefaultResultCacheTTL)
}

// checkAndSetScript 原子地检查文件 MD5，不存在时写入并登记 submission_uuid
var checkAndSetScript = redis.NewScript(`
	if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
		return {1, redis.call('GET', KEYS[2]) or ''}
	end
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	redis.call('SET', KEYS[2], ARGV[2], 'EX', ARGV[3])
	return {0, ''}
`)

// CheckAndSetFileMD5 文件 MD5 已存在时返回 true 和已有的 submission_uuid
func (r *Redis) CheckAndSetFileMD5(ctx context.Context, md5Hex, submissionUUID string) (exists bool, existingUUID string, err error) {
	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndSetFileMD5", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "EVALSHA"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(constants.KeyFileMD5Set)),
		attribute.String("db.redis.member", md5Hex),
	)

	keys := []string{constants.KeyFileMD5Set, fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex)}
	expiry := int64(r.MD5ExpireDuration().Seconds())
	res, err := checkAndSetScript.Run(ctx, r.Client, keys, md5Hex, submissionUUID, expiry).Slice()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, "", fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}
	if len(res) != 2 {
		return false, "", fmt.Errorf("意外的Redis返回: %v", res)
	}
	flag, _ := res[0].(int64)
	existingUUID, _ = res[1].(string)
	exists = flag == 1

	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, existingUUID, nil
}

// RemoveFileMD5 删除文件去重记录，用于提交失败时回滚
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	pipe := r.Client.TxPipeline()
	pipe.SRem(ctx, constants.KeyFileMD5Set, md5Hex)
	pipe.Del(ctx, fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("从集合中移除MD5失败: %w", err)
	}
	return nil
}

// GetStructured 读取缓存的结构化结果，未命中返回 ErrNotFound
func (r *Redis) GetStructured(ctx context.Context, textMD5 string) (*types.StructuredResume, error) {
	val, err := r.Client.Get(ctx, fmt.Sprintf(constants.KeyStructuredResult, textMD5)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var res types.StructuredResume
	if err := json.Unmarshal(val, &res); err != nil {
		return nil, fmt.Errorf("反序列化缓存结果失败: %w", err)
	}
	return &res, nil
}

// SetStructured 缓存结构化结果
func (r *Redis) SetStructured(ctx context.Context, textMD5 string, res *types.StructuredResume) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("序列化结构化结果失败: %w", err)
	}
	return r.Client.Set(ctx, fmt.Sprintf(constants.KeyStructuredResult, textMD5), data, r.ResultCacheTTL()).Err()
}
