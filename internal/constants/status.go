package constants

// 简历提交的处理状态
const (
	StatusPendingParsing   = "PENDING_PARSING"
	StatusParsed           = "PARSED"
	StatusExtractionFailed = "EXTRACTION_FAILED"
	StatusStoreFailed      = "STORE_FAILED"

	// StatusDuplicateFile 上传的文件与已有提交完全相同，直接返回已有提交
	StatusDuplicateFile = "DUPLICATE_FILE"
)

// IsTerminalStatus 终态的提交不会再被消费者处理
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusParsed, StatusExtractionFailed:
		return true
	}
	return false
}
