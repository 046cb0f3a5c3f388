package processor

import (
	"github.com/rs/zerolog"

	"resume-structurer/internal/storage"
	"resume-structurer/internal/structurer"
)

// ServiceOption 服务选项
type ServiceOption func(*ResumeService)

// WithResultCache 设置结构化结果缓存
func WithResultCache(c ResultCache) ServiceOption {
	return func(s *ResumeService) {
		s.cache = c
	}
}

// WithDedupStore 设置文件去重存储
func WithDedupStore(d DedupStore) ServiceOption {
	return func(s *ResumeService) {
		s.dedup = d
	}
}

// WithObjectStore 设置对象存储
func WithObjectStore(o ObjectStore) ServiceOption {
	return func(s *ResumeService) {
		s.objects = o
	}
}

// WithSubmissionRepository 设置提交记录仓库
func WithSubmissionRepository(r SubmissionRepository) ServiceOption {
	return func(s *ResumeService) {
		s.repo = r
	}
}

// WithUploadPublisher 设置上传事件发布者
func WithUploadPublisher(p UploadPublisher) ServiceOption {
	return func(s *ResumeService) {
		s.publisher = p
	}
}

// WithStructurer 替换结构化器
func WithStructurer(st *structurer.Structurer) ServiceOption {
	return func(s *ResumeService) {
		if st != nil {
			s.structurer = st
		}
	}
}

// WithServiceLogger 设置日志记录器
func WithServiceLogger(l *zerolog.Logger) ServiceOption {
	return func(s *ResumeService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage 从存储管理器装配所有已启用的组件
func WithStorage(st *storage.Storage) ServiceOption {
	return func(s *ResumeService) {
		if st == nil {
			return
		}
		if st.Redis != nil {
			s.cache = st.Redis
			s.dedup = st.Redis
		}
		if st.MinIO != nil {
			s.objects = st.MinIO
		}
		if st.MySQL != nil {
			s.repo = st.MySQL
		}
		if st.RabbitMQ != nil {
			s.publisher = st.RabbitMQ
		}
	}
}
