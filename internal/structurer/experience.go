package structurer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-structurer/internal/types"
)

const (
	monthPattern = `(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`
	datePoint    = `(?:` + monthPattern + `[ \t]+|\d{1,2}/)?(?:19|20)\d{2}`
	dateRange    = datePoint + `[ \t]*(?:-|–|—|(?i:to))[ \t]*(?:` + datePoint + `|(?i:present|current|now|till date|date))`
	roleNouns    = `(?:Engineer|Developer|Manager|Analyst|Designer|Consultant|Intern|Architect|Administrator|Specialist|Scientist|Officer|Director|Coordinator|Lead|Executive|Associate|Technician|Programmer|Accountant)`
)

var experienceLocator = newLocator(
	[]string{"work experience", "professional experience", "employment history", "work history", "experience", "employment"},
	[]string{"education", "skills", "projects", "certifications", "awards"},
	1500,
)

// experiencePattern 工作经历的结构化模式，按固定顺序匹配，各自的结果直接拼接
type experiencePattern struct {
	kind     string
	re       *regexp.Regexp
	position int // 捕获组序号，0 表示不存在
	company  int
	duration int
	years    int // "N years of experience" 形式的年数
}

var experiencePatterns = []experiencePattern{
	{
		kind:     "title-at-company",
		re:       regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z/&.,' \-]{1,60}?)[ \t]+(?:at|@)[ \t]+([A-Z][A-Za-z0-9&.,' \-]{1,60}?)[ \t]*[,(|–—\-]?[ \t]*(` + dateRange + `)[ \t)]*$`),
		position: 1, company: 2, duration: 3,
	},
	{
		kind:     "pipe-separated",
		re:       regexp.MustCompile(`(?m)^[ \t]*([^|\n]{2,60}?)[ \t]*\|[ \t]*([^|\n]{2,60}?)[ \t]*\|[ \t]*(` + dateRange + `)[ \t]*$`),
		position: 1, company: 2, duration: 3,
	},
	{
		// 公司在前、职位在后
		kind:    "company-dash-title",
		re:      regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z0-9&.,' ]{1,60}?)[ \t]+[–—\-][ \t]+([A-Z][A-Za-z/&.' ]{1,60}?)[ \t]*[,(|]?[ \t]*(` + dateRange + `)[ \t)]*$`),
		company: 1, position: 2, duration: 3,
	},
	{
		kind:     "role-title",
		re:       regexp.MustCompile(`(?m)^[ \t]*((?:(?:Senior|Junior|Lead|Principal|Staff|Chief|Associate|Assistant)[ \t]+)?(?:[A-Z][A-Za-z]+[ \t]+){0,3}` + roleNouns + `)(?:[ \t]*(?:,|at|@|[–—\-]|\|)[ \t]*([A-Z][A-Za-z0-9&.' ]{1,60}?))?(?:[ \t]*[,(|–—\-]?[ \t]*(` + dateRange + `))?[ \t)]*$`),
		position: 1, company: 2, duration: 3,
	},
	{
		kind:  "years-of-experience",
		re:    regexp.MustCompile(`(?i)(\d{1,2}\+?)[ \t]+years?[ \t]+(?:of[ \t]+)?experience[ \t]+(?:as|in)[ \t]+(?:an?[ \t]+)?([a-z /&]{2,50}?)(?:[ \t]+(?:at|with)[ \t]+([a-z0-9&.' ]{2,60}?))?[ \t]*(?:[.,;\n]|$)`),
		years: 1, position: 2, company: 3,
	},
}

var (
	jobHeaderRe       = regexp.MustCompile(`(?m)^.*` + dateRange + `.*$`)
	currentRe         = regexp.MustCompile(`(?i)present|current`)
	companyLocationRe = regexp.MustCompile(`^(.+?),[ \t]*([A-Z][A-Za-z .]{1,40})$`)
)

const (
	maxExperience        = 8
	descriptionWindow    = 400
	maxDescriptionLines  = 5
	minDescriptionLength = 10
	maxDescriptionLength = 200
)

// extractExperience 提取工作经历；不同模式的结果不去重
func extractExperience(text string) []types.ExperienceEntry {
	window := experienceLocator.window(text)
	if strings.TrimSpace(window) == "" {
		return []types.ExperienceEntry{}
	}

	entries := make([]types.ExperienceEntry, 0, maxExperience)
	for _, p := range experiencePatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(window, -1) {
			entry := types.ExperienceEntry{
				ID:          uuid.NewString(),
				Position:    trimPunct(group(window, m, p.position)),
				Company:     trimPunct(group(window, m, p.company)),
				Duration:    collapseSpaces(group(window, m, p.duration)),
				Description: []string{},
			}
			if p.years > 0 {
				entry.Duration = group(window, m, p.years) + " years"
			}
			if loc := companyLocationRe.FindStringSubmatch(entry.Company); loc != nil {
				entry.Company = strings.TrimSpace(loc[1])
				entry.Location = strings.TrimSpace(loc[2])
			}
			if entry.Position == "" && entry.Company == "" {
				continue
			}
			entry.Current = currentRe.MatchString(entry.Duration)
			entry.Description = experienceDescription(window[m[1]:])
			entries = append(entries, entry)
			if len(entries) == maxExperience {
				return entries
			}
		}
	}
	return entries
}

// experienceDescription 取匹配之后到下一个职位标题（或 400 字符）之间的要点行
func experienceDescription(after string) []string {
	// 跳过匹配所在行的剩余部分
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		after = after[nl+1:]
	} else {
		return []string{}
	}
	if h := jobHeaderRe.FindStringIndex(after); h != nil {
		after = after[:h[0]]
	}
	after = truncateRunes(after, descriptionWindow)

	lines := []string{}
	for _, line := range splitLines(after) {
		if !hasBullet(line) && !startsUpper(line) {
			continue
		}
		line = stripBullet(line)
		n := runeLen(line)
		if n <= minDescriptionLength || n >= maxDescriptionLength {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxDescriptionLines {
			break
		}
	}
	return lines
}

// group 返回第 idx 个捕获组的文本，未参与匹配时返回空串
func group(s string, m []int, idx int) string {
	if idx <= 0 || 2*idx+1 >= len(m) || m[2*idx] < 0 {
		return ""
	}
	return s[m[2*idx]:m[2*idx+1]]
}
