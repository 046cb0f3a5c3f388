package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResumeSubmission 简历提交记录
type ResumeSubmission struct {
	SubmissionUUID       string    `gorm:"type:char(36);primaryKey" json:"submission_uuid"`
	SubmissionTimestamp  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_rs_submission_timestamp" json:"submission_timestamp"`
	SourceChannel        string    `gorm:"type:varchar(100)" json:"source_channel,omitempty"`
	OriginalFilename     string    `gorm:"type:varchar(255)" json:"original_filename"`
	OriginalFilePathOSS  string    `gorm:"type:varchar(1024)" json:"original_file_path_oss"`
	ExtractedTextPathOSS string    `gorm:"type:varchar(1024)" json:"extracted_text_path_oss,omitempty"`
	RawFileMD5           string    `gorm:"type:char(32);index:idx_rs_raw_file_md5" json:"raw_file_md5"`
	FileSize             int64     `json:"file_size"`
	MIMEType             string    `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	ProcessingStatus     string    `gorm:"type:varchar(50);default:'PENDING_PARSING';index:idx_rs_processing_status" json:"processing_status"`
	ErrorMessage         string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt            time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt            time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`

	Parsed *ParsedResume `gorm:"foreignKey:SubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"parsed,omitempty"`
}

func (ResumeSubmission) TableName() string {
	return "resume_submissions"
}

// ParsedResume 结构化结果，每个提交一条
type ParsedResume struct {
	SubmissionUUID    string         `gorm:"type:char(36);primaryKey" json:"submission_uuid"`
	StructuredJSON    datatypes.JSON `gorm:"type:json" json:"structured"`
	SkillsJSON        datatypes.JSON `gorm:"type:json" json:"skills"`
	FullName          string         `gorm:"type:varchar(255);index:idx_pr_full_name" json:"full_name,omitempty"`
	Email             string         `gorm:"type:varchar(255);index:idx_pr_email" json:"email,omitempty"`
	Phone             string         `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Completion        int            `json:"completion"`
	Pages             int            `json:"pages"`
	Characters        int            `json:"characters"`
	Engine            string         `gorm:"type:varchar(50)" json:"engine,omitempty"`
	StructurerVersion string         `gorm:"type:varchar(50)" json:"structurer_version"`
	CreatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (ParsedResume) TableName() string {
	return "parsed_resumes"
}
