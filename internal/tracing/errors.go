package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType span 上的 error.type 取值
type ErrorType string

const (
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrorTypeStorage    ErrorType = "object_storage"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeValidation ErrorType = "validation"
)

// RecordError 记录错误并标记 span 失败
func RecordError(span trace.Span, err error, errorType ErrorType) {
	RecordErrorWithInfo(span, err, errorType)
}

// RecordErrorWithInfo 记录错误并添加额外信息
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	span.SetAttributes(attributes...)
	span.SetStatus(codes.Error, err.Error())
}

// ErrorCategory 按 HTTP 状态码区分客户端与服务端错误
func ErrorCategory(statusCode int) string {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "unknown"
	}
}

// RecordHTTPError 记录带状态码的HTTP错误
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	RecordErrorWithInfo(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", ErrorCategory(statusCode)),
	)
}

// RecordRabbitMQNack 记录消费者拒绝消息
func RecordRabbitMQNack(span trace.Span, submissionUUID string, reason string, requeue bool) {
	if span == nil {
		return
	}

	errMsg := reason
	if errMsg == "" {
		errMsg = "message rejected by consumer"
	}

	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeRabbitMQ)),
		attribute.String("error.message", errMsg),
		attribute.String("submission_uuid", submissionUUID),
		attribute.String("messaging.error_type", "nack"),
		attribute.Bool("messaging.rabbitmq.requeue", requeue),
	)
	span.SetStatus(codes.Error, errMsg)
}
