package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-structurer/internal/config"
	"resume-structurer/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖；未启用的组件为 nil
type Storage struct {
	// 对象存储
	MinIO *MinIO
	// 消息队列
	RabbitMQ *RabbitMQ
	// 关系型数据库
	MySQL *MySQL
	// 键值存储
	Redis *Redis
}

// NewStorage 按配置初始化启用的存储组件，任一启用的组件失败都会返回错误
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var initErrors []string
	var err error

	if cfg.MinIO.Enabled {
		if s.MinIO, err = NewMinIO(ctx, &cfg.MinIO); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}
	if cfg.MySQL.Enabled {
		if s.MySQL, err = NewMySQL(&cfg.MySQL); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}
	if cfg.Redis.Enabled {
		if s.Redis, err = NewRedis(ctx, &cfg.Redis); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}
	if cfg.RabbitMQ.Enabled {
		if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ); err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if len(initErrors) > 0 {
		s.Close()
		return nil, fmt.Errorf("存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	logger.Info().
		Bool("minio", s.MinIO != nil).
		Bool("mysql", s.MySQL != nil).
		Bool("redis", s.Redis != nil).
		Bool("rabbitmq", s.RabbitMQ != nil).
		Msg("存储组件初始化完成")
	return s, nil
}

// SupportsAsync 异步上传需要对象存储、数据库与消息队列同时可用
func (s *Storage) SupportsAsync() bool {
	return s != nil && s.MinIO != nil && s.MySQL != nil && s.RabbitMQ != nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s == nil {
		return
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
