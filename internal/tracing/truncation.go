package tracing

import (
	"strings"
)

// span 属性长度上限
const (
	DefaultMaxLength  = 200
	MaxSQLLength      = 500
	MaxRedisLength    = 100
	MaxFilenameLength = 80
)

// 属性名包含这些关键字时值会被掩码
var piiKeywords = []string{
	"email",
	"phone",
	"password",
	"address",
	"name",
	"linkedin",
	"github",
	"secret",
	"token",
}

// SafeAttributeValue 敏感字段返回掩码，其余按 maxLength 截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符，中间替换为 *，例如 "13812345678" -> "13*******78"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
	return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
}

// TruncateString 超长时保留首尾两段，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

func SafeFilename(name string) string {
	return TruncateString(name, MaxFilenameLength)
}

func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}
