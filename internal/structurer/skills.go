package structurer

import (
	"regexp"
	"strings"
)

// skillCategory 技能词库中的一个类别
type skillCategory struct {
	Name   string
	Skills []string
}

// 技能词库（小写），类别顺序即输出顺序
var skillBank = []skillCategory{
	{"programming", []string{
		"javascript", "typescript", "python", "java", "c++", "c#", "golang", "ruby", "php",
		"swift", "kotlin", "scala", "rust", "perl", "matlab", "dart", "objective-c", "bash",
	}},
	{"frontend", []string{
		"react", "angular", "vue", "next.js", "nuxt", "svelte", "redux", "html", "css",
		"sass", "tailwind", "bootstrap", "jquery", "webpack",
	}},
	{"backend", []string{
		"node.js", "express", "django", "flask", "fastapi", "spring", "spring boot", "rails",
		"laravel", ".net", "asp.net", "graphql", "rest api", "grpc", "microservices",
	}},
	{"database", []string{
		"sql", "mysql", "postgresql", "mongodb", "redis", "sqlite", "oracle", "cassandra",
		"elasticsearch", "dynamodb", "firebase", "mariadb",
	}},
	{"cloud", []string{
		"aws", "azure", "gcp", "google cloud", "docker", "kubernetes", "terraform", "ansible",
		"jenkins", "ci/cd", "linux", "nginx", "heroku",
	}},
	{"data", []string{
		"machine learning", "deep learning", "tensorflow", "pytorch", "pandas", "numpy",
		"scikit-learn", "data analysis", "tableau", "power bi", "spark", "hadoop", "nlp",
	}},
	{"tools", []string{
		"git", "github", "gitlab", "jira", "figma", "postman", "excel", "photoshop",
		"illustrator", "agile", "scrum",
	}},
	{"soft", []string{
		"leadership", "communication", "teamwork", "problem solving", "time management",
		"project management", "critical thinking", "collaboration", "mentoring",
		"public speaking", "negotiation", "adaptability",
	}},
}

type compiledSkill struct {
	name     string
	category string
	re       *regexp.Regexp
}

var compiledSkills = compileSkillBank()

func compileSkillBank() []compiledSkill {
	var out []compiledSkill
	for _, cat := range skillBank {
		for _, s := range cat.Skills {
			// 用非单词字符作为边界，兼容 c++ / .net 这类含符号的技能名
			pattern := `(?i)(?:^|[^A-Za-z0-9_])` + regexp.QuoteMeta(s) + `(?:[^A-Za-z0-9_+#]|$)`
			out = append(out, compiledSkill{name: s, category: cat.Name, re: regexp.MustCompile(pattern)})
		}
	}
	return out
}

// 带标签的技能段落，例如 "Technical Skills: Go, Docker"
var labeledSkillPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:technical\s+)?skills\s*:`),
	regexp.MustCompile(`(?i)\bcompetencies\s*:`),
	regexp.MustCompile(`(?i)\btechnologies\s*:`),
	regexp.MustCompile(`(?i)\bexpertise\s*:`),
}

var (
	headerLineRe     = regexp.MustCompile(`(?m)^[ \t]*(?:[A-Z][A-Z &/]{2,}|[A-Z][A-Za-z &/]{2,}:)[ \t]*$`)
	sectionHeadingRe = regexp.MustCompile(`(?im)^[ \t]*(?:(?:work|professional|employment)[ \t]+(?:history|experience)|experience|education|academic[ \t]+background|projects|certifications|achievements|awards|languages|hobbies|interests|references|summary|profile|objective)[ \t]*:?[ \t]*$`)
	skillSeparatorRe = regexp.MustCompile(`[,\n•·▪●|;]|\s[-–—]\s`)
)

const (
	maxSkills         = 25
	maxSkillsPerLabel = 15
	labeledSkillSpan  = 500
	minSkillLen       = 2
	maxSkillLen       = 30
)

// skillsResult 技能提取结果
type skillsResult struct {
	All        []string
	ByCategory map[string][]string
}

// extractSkills 词库匹配与带标签段落两轮提取，去重后最多保留 25 个
func extractSkills(text string) skillsResult {
	set := newOrderedSet()
	byCategory := make(map[string][]string)
	lower := strings.ToLower(text)

	for _, s := range compiledSkills {
		if !strings.Contains(lower, s.name) {
			continue
		}
		if !s.re.MatchString(text) {
			continue
		}
		name := capitalize(s.name)
		set.Add(name)
		byCategory[s.category] = append(byCategory[s.category], name)
	}

	for _, re := range labeledSkillPatterns {
		for _, token := range labeledSkillTokens(text, re) {
			set.Add(token)
		}
	}

	return skillsResult{All: set.Items(maxSkills), ByCategory: byCategory}
}

// labeledSkillTokens 取标签后直到下一个标题行的内容，切分成技能
func labeledSkillTokens(text string, label *regexp.Regexp) []string {
	loc := label.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	body := text[loc[1]:]
	// 第一行之后遇到标题行即停止
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		end := len(body)
		for _, re := range []*regexp.Regexp{headerLineRe, sectionHeadingRe} {
			if h := re.FindStringIndex(body[nl:]); h != nil && nl+h[0] < end {
				end = nl + h[0]
			}
		}
		body = body[:end]
	}
	body = truncateRunes(body, labeledSkillSpan)

	var tokens []string
	for _, part := range skillSeparatorRe.Split(body, -1) {
		part = strings.TrimSpace(stripBullet(part))
		part = strings.Trim(part, ".:")
		n := runeLen(part)
		if n <= minSkillLen || n >= maxSkillLen {
			continue
		}
		if numericOnlyRe.MatchString(part) {
			continue
		}
		tokens = append(tokens, part)
		if len(tokens) == maxSkillsPerLabel {
			break
		}
	}
	return tokens
}
