package structurer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-structurer/internal/types"
)

var projectsLocator = newLocator(
	[]string{"projects", "project experience", "project"},
	[]string{"experience", "education", "skills", "certifications", "achievements", "awards", "languages", "hobbies", "interests", "references"},
	1200,
)

// projectPattern 项目模式：标题、描述两个捕获组
type projectPattern struct {
	kind        string
	re          *regexp.Regexp
	title       int
	description int
}

var projectPatterns = []projectPattern{
	{
		kind:  "name-suffix",
		re:    regexp.MustCompile(`(?m)^[ \t•*\-]*([A-Z][A-Za-z0-9 ]{1,40}?[ \t](?:App|Application|System|Platform|Website|Portal|Tool|Bot|Dashboard|API|Engine|Tracker|Manager|Clone|Game))\b[ \t]*(?:[:–—\-][ \t]*(.*))?$`),
		title: 1, description: 2,
	},
	{
		kind:  "bulleted",
		re:    regexp.MustCompile(`(?m)^[ \t]*[•▪◦●*][ \t]*([^:\n–—\-]{3,60}?)[ \t]*(?:[:–—\-][ \t]*(.+))?$`),
		title: 1, description: 2,
	},
	{
		kind:  "numbered",
		re:    regexp.MustCompile(`(?m)^[ \t]*\d{1,2}[.)][ \t]*([^:\n–—\-]{3,60}?)[ \t]*(?:[:–—\-][ \t]*(.+))?$`),
		title: 1, description: 2,
	},
	{
		kind:  "labeled",
		re:    regexp.MustCompile(`(?mi)^[ \t]*project(?:[ \t]+(?:name|title))?[ \t]*:[ \t]*([^\n]+)$`),
		title: 1,
	},
}

// 项目描述中识别的技术名称
var projectTechnologies = []string{
	"React", "Angular", "Vue", "Node.js", "Express", "Django", "Flask", "Spring", "Python",
	"Java", "JavaScript", "TypeScript", "Golang", "Kotlin", "Swift", "Flutter", "MongoDB",
	"MySQL", "PostgreSQL", "Redis", "Firebase", "AWS", "Docker", "Kubernetes", "TensorFlow",
	"PyTorch", "HTML", "CSS", "PHP", "Laravel", "GraphQL", "Next.js", "Tailwind",
}

var (
	projectTechRes = compileTechnologies(projectTechnologies)
	urlRe          = regexp.MustCompile(`(?i)\bhttps?://[^\s,;<>"'()]+|\b(?:www\.)?github\.com/[^\s,;<>"'()]+`)
	formFieldRe    = regexp.MustCompile(`(?i)^(?:name|email|phone|address|date|duration|description|technologies|tech stack|tools|link|url|role)\b`)
)

const (
	maxProjects       = 8
	minProjectLineLen = 15
	maxProjectLineLen = 120
	maxProjectDescLen = 300
)

func compileTechnologies(names []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(names))
	for i, n := range names {
		out[i] = regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9_.])` + regexp.QuoteMeta(n) + `(?:[^A-Za-z0-9_]|$)`)
	}
	return out
}

// extractProjects 提取项目；模式均未命中时退回到逐行候选
func extractProjects(text string) []types.ProjectEntry {
	window := projectsLocator.window(text)
	if strings.TrimSpace(window) == "" {
		return []types.ProjectEntry{}
	}

	entries := make([]types.ProjectEntry, 0, maxProjects)
	for _, p := range projectPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(window, -1) {
			title := trimPunct(group(window, m, p.title))
			if title == "" {
				continue
			}
			desc := truncateRunes(strings.TrimSpace(group(window, m, p.description)), maxProjectDescLen)
			entries = append(entries, newProject(title, desc, window[m[0]:m[1]]))
			if len(entries) == maxProjects {
				return entries
			}
		}
	}
	if len(entries) > 0 {
		return entries
	}

	for _, line := range splitLines(window) {
		line = stripBullet(line)
		n := runeLen(line)
		if n < minProjectLineLen || n > maxProjectLineLen || formFieldRe.MatchString(line) {
			continue
		}
		entries = append(entries, newProject(line, "", line))
		if len(entries) == maxProjects {
			break
		}
	}
	return entries
}

func newProject(title, description, source string) types.ProjectEntry {
	return types.ProjectEntry{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		Technologies: detectTechnologies(source),
		URL:          strings.TrimRight(urlRe.FindString(source), ".,;:"),
	}
}

// detectTechnologies 返回文本中出现的技术名称（按列表顺序）
func detectTechnologies(s string) []string {
	techs := []string{}
	for i, re := range projectTechRes {
		if re.MatchString(s) {
			techs = append(techs, projectTechnologies[i])
		}
	}
	return techs
}
