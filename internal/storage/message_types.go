package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResumeUploadMessage 简历上传消息，由上传接口发布，结构化消费者处理
type ResumeUploadMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	SourceChannel       string    `json:"source_channel,omitempty"`
	OriginalFilename    string    `json:"original_filename"`
	OriginalFilePathOSS string    `json:"original_file_path_oss"`
	RawFileMD5          string    `json:"raw_file_md5,omitempty"`
	FileSize            int64     `json:"file_size"`
}

// DecodeUploadMessage 解析并校验上传消息
func DecodeUploadMessage(body []byte) (ResumeUploadMessage, error) {
	var msg ResumeUploadMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("解析上传消息失败: %w", err)
	}
	if msg.SubmissionUUID == "" || msg.OriginalFilePathOSS == "" {
		return msg, fmt.Errorf("上传消息缺少必要字段: submission_uuid=%q, original_file_path_oss=%q",
			msg.SubmissionUUID, msg.OriginalFilePathOSS)
	}
	return msg, nil
}
