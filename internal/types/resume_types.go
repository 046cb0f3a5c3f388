package types

// SectionName 结构化结果中的章节名称
type SectionName string

const (
	SectionPersonalInfo   SectionName = "personalInfo"
	SectionSummary        SectionName = "summary"
	SectionSkills         SectionName = "skills"
	SectionExperience     SectionName = "experience"
	SectionEducation      SectionName = "education"
	SectionProjects       SectionName = "projects"
	SectionCertifications SectionName = "certifications"
	SectionLanguages      SectionName = "languages"
	SectionAchievements   SectionName = "achievements"
	SectionHobbies        SectionName = "hobbies"
	SectionReferences     SectionName = "references"
)

// PersonalInfo 个人联系信息，每个字段取第一个命中的候选
type PersonalInfo struct {
	FullName  string `json:"fullName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Website   string `json:"website,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// IsEmpty 判断是否没有任何字段被提取
func (p PersonalInfo) IsEmpty() bool {
	return p == PersonalInfo{}
}

// ExperienceEntry 工作经历条目
type ExperienceEntry struct {
	ID          string   `json:"id"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Duration    string   `json:"duration"`
	Location    string   `json:"location"`
	Current     bool     `json:"current"`
	Description []string `json:"description"`
}

// EducationEntry 教育经历条目
type EducationEntry struct {
	ID          string `json:"id"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
	GPA         string `json:"gpa"`
}

// ProjectEntry 项目条目
type ProjectEntry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
}

// CertificationEntry 证书条目
type CertificationEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Year         string `json:"year"`
	Expiry       string `json:"expiry"`
}

// LanguageEntry 语言能力条目
type LanguageEntry struct {
	ID          string `json:"id"`
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// AchievementEntry 奖项/成就条目
type AchievementEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Year        string `json:"year"`
}

// SkillsSection 技能章节的诊断结果，附带按类别的拆分
type SkillsSection struct {
	All        []string            `json:"all"`
	ByCategory map[string][]string `json:"byCategory"`
}

// StructuredResume 规则解析后的结构化简历
type StructuredResume struct {
	PersonalInfo   PersonalInfo         `json:"personalInfo"`
	Summary        string               `json:"summary"`
	Skills         []string             `json:"skills"`
	Experience     []ExperienceEntry    `json:"experience"`
	Education      []EducationEntry     `json:"education"`
	Projects       []ProjectEntry       `json:"projects"`
	Certifications []CertificationEntry `json:"certifications"`
	Languages      []LanguageEntry      `json:"languages"`
	Achievements   []AchievementEntry   `json:"achievements"`
	Hobbies        []string             `json:"hobbies"`
	References     string               `json:"references"`

	// 以下字段仅用于诊断
	RawLines   []string                    `json:"rawLines"`
	Sections   map[SectionName]interface{} `json:"sections"`
	Completion int                         `json:"completion"`
}

// NewStructuredResume 返回所有字段均为空默认值的结构化简历
func NewStructuredResume() *StructuredResume {
	return &StructuredResume{
		Skills:         []string{},
		Experience:     []ExperienceEntry{},
		Education:      []EducationEntry{},
		Projects:       []ProjectEntry{},
		Certifications: []CertificationEntry{},
		Languages:      []LanguageEntry{},
		Achievements:   []AchievementEntry{},
		Hobbies:        []string{},
		RawLines:       []string{},
		Sections:       map[SectionName]interface{}{},
	}
}

// ExtractionMeta 上传文件的提取元信息
type ExtractionMeta struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	MIMEType   string `json:"mime_type"`
	Pages      int    `json:"pages"`
	Characters int    `json:"characters"`
	Engine     string `json:"engine"`
}

// ParsedDocument 同步解析接口的返回体
type ParsedDocument struct {
	Resume *StructuredResume `json:"resume"`
	Meta   ExtractionMeta    `json:"meta"`
}
