package constants

import "time"

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "resume"

	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// TextModulePrefix 文本模块
	TextModulePrefix = "text"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"
	// EntityStructured 结构化结果实体
	EntityStructured = "structured"

	// KeyFileMD5Set 文件MD5集合，用于快速去重 (SET)
	// 格式: resume:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5到SubmissionUUID的映射 (STRING)
	// 格式: resume:file:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyStructuredResult 结构化结果缓存 (STRING, JSON)
	// 格式: resume:text:structured:{textMD5}
	KeyStructuredResult = AppPrefix + ":" + TextModulePrefix + ":" + EntityStructured + ":%s"
)

const (
	// DefaultResultCacheTTL 结构化结果默认缓存时间
	DefaultResultCacheTTL = 24 * time.Hour
	// StructurerVersion 写入数据库的规则版本号，规则变化时递增
	StructurerVersion = "rules-1"
)
