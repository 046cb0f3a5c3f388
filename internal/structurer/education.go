package structurer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-structurer/internal/types"
)

const yearSpan = `(?:19|20)\d{2}(?:[ \t]*[-–—][ \t]*(?:(?:19|20)\d{2}|(?i:present|current)))?`

var educationLocator = newLocator(
	[]string{"education", "academic", "qualification", "degree", "university", "college"},
	[]string{"experience", "skills", "projects", "certifications", "achievements"},
	800,
)

// degreePattern 学历模式：捕获组依次为 学位、专业、院校、年份
type degreePattern struct {
	kind        string
	re          *regexp.Regexp
	degree      int
	field       int
	institution int
	year        int
	school      bool // 中学阶段（12th / 10th）
}

// degreeLine 构造 "学位 [in 专业] [from/at/, 院校] [, 年份]" 形式的行模式
func degreeLine(alt string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)\b(` + alt + `)\b\.?` +
		`(?:[ \t]*(?:[ \t](?:in|of)[ \t]+|\()([A-Za-z&./' ]+?)\)?)?` +
		`(?:(?:[ \t]+(?:from|at)[ \t]+|[ \t]*[,|–—\-][ \t]*)([A-Za-z&.'][A-Za-z0-9&.,' ]*?))?` +
		`(?:[ \t]*[,(|–—\-]?[ \t]*(` + yearSpan + `))?` +
		`[ \t).]*$`)
}

func namedDegree(kind, alt string, school bool) degreePattern {
	return degreePattern{kind: kind, re: degreeLine(alt), degree: 1, field: 2, institution: 3, year: 4, school: school}
}

// 按固定顺序尝试，通用的 "院校 – 学位" 模式放在最后
var degreePatterns = []degreePattern{
	namedDegree("mca", `MCA|(?i:master(?:'s)? of computer applications?)`, false),
	namedDegree("bsc", `B\.?[ \t]?Sc|BSC|(?i:bachelor(?:'s)? of science)`, false),
	namedDegree("ba", `B\.?A|(?i:bachelor(?:'s)? of arts)`, false),
	namedDegree("ma", `M\.?A|(?i:master(?:'s)? of arts)`, false),
	namedDegree("btech", `B\.?[ \t]?(?:Tech|TECH|tech)|B\.?E|(?i:bachelor(?:'s)? of (?:technology|engineering))`, false),
	namedDegree("mtech", `M\.?[ \t]?(?:Tech|TECH|tech)|M\.?[ \t]?Sc|M\.?S|M\.?E|(?i:master(?:'s)? of (?:technology|science|engineering))`, false),
	namedDegree("mba", `MBA|BBA|(?i:(?:master|bachelor)(?:'s)? of business administration)`, false),
	namedDegree("bca", `BCA|(?i:bachelor(?:'s)? of computer applications?)`, false),
	namedDegree("higher-secondary", `(?i:higher secondary(?: certificate| education)?|senior secondary|hsc|12th(?: grade| standard| class)?|class xii|class 12|xii|intermediate)`, true),
	namedDegree("matriculation", `(?i:matriculation|secondary school certificate|ssc|10th(?: grade| standard| class)?|class x|class 10|high school)`, true),
	{
		kind: "institution-degree",
		re: regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z&.' ]*?(?:University|College|Institute|School|Academy)[A-Za-z&.' ]*?)[ \t]*[,|–—\-][ \t]*` +
			`([A-Z][A-Za-z.']*(?:[ \t]+of[ \t]+[A-Z][A-Za-z]+)?)` +
			`(?:[ \t]+(?:in|of)[ \t]+([A-Za-z&./' ]+?))?` +
			`(?:[ \t]*[,(|–—\-]?[ \t]*(` + yearSpan + `))?[ \t).]*$`),
		institution: 1, degree: 2, field: 3, year: 4,
	},
}

// canonicalDegrees 学位别名到规范名称的映射，键为去掉点号和空白后的大写形式
var canonicalDegrees = map[string]string{
	"BSC": "BSc", "BACHELOROFSCIENCE": "BSc", "BACHELORSOFSCIENCE": "BSc",
	"BA": "BA", "BACHELOROFARTS": "BA", "BACHELORSOFARTS": "BA",
	"MA": "MA", "MASTEROFARTS": "MA", "MASTERSOFARTS": "MA",
	"BTECH": "BTech", "BACHELOROFTECHNOLOGY": "BTech", "BACHELORSOFTECHNOLOGY": "BTech",
	"BE": "BE", "BACHELOROFENGINEERING": "BE", "BACHELORSOFENGINEERING": "BE",
	"MTECH": "MTech", "MASTEROFTECHNOLOGY": "MTech", "MASTERSOFTECHNOLOGY": "MTech",
	"MS": "MS", "MSC": "MSc", "MASTEROFSCIENCE": "MS", "MASTERSOFSCIENCE": "MS",
	"ME": "ME", "MASTEROFENGINEERING": "ME", "MASTERSOFENGINEERING": "ME",
	"MBA": "MBA", "MASTEROFBUSINESSADMINISTRATION": "MBA", "MASTERSOFBUSINESSADMINISTRATION": "MBA",
	"BBA": "BBA", "BACHELOROFBUSINESSADMINISTRATION": "BBA", "BACHELORSOFBUSINESSADMINISTRATION": "BBA",
	"MCA": "MCA", "MASTEROFCOMPUTERAPPLICATION": "MCA", "MASTEROFCOMPUTERAPPLICATIONS": "MCA",
	"BCA": "BCA", "BACHELOROFCOMPUTERAPPLICATION": "BCA", "BACHELOROFCOMPUTERAPPLICATIONS": "BCA",
	"12TH": "12th Grade", "12THGRADE": "12th Grade", "12THSTANDARD": "12th Grade", "12THCLASS": "12th Grade",
	"CLASSXII": "12th Grade", "CLASS12": "12th Grade", "XII": "12th Grade", "HSC": "12th Grade",
	"HIGHERSECONDARY": "12th Grade", "HIGHERSECONDARYCERTIFICATE": "12th Grade",
	"HIGHERSECONDARYEDUCATION": "12th Grade", "SENIORSECONDARY": "12th Grade", "INTERMEDIATE": "12th Grade",
	"10TH": "10th Grade", "10THGRADE": "10th Grade", "10THSTANDARD": "10th Grade", "10THCLASS": "10th Grade",
	"CLASSX": "10th Grade", "CLASS10": "10th Grade", "SSC": "10th Grade", "MATRICULATION": "10th Grade",
	"SECONDARYSCHOOLCERTIFICATE": "10th Grade", "HIGHSCHOOL": "10th Grade",
}

var (
	degreeKeyCleaner    = regexp.MustCompile(`[.\s']+`)
	institutionWordRe   = regexp.MustCompile(`(?i)\b(?:university|college|institute)\b`)
	schoolInstitutionRe = regexp.MustCompile(`(?i)\b(?:school|vidyalaya|vidyalayam|academy|board|cbse|icse|convent|college|institute|university)\b`)
	schoolStreamRe      = regexp.MustCompile(`(?i)\b(?:science|commerce|arts|humanities|pcm|pcb|pcmb|maths?|mathematics|biology|non-medical|medical)\b`)
	standaloneYearsRe   = regexp.MustCompile(`\b(?:19|20)\d{2}[ \t]*[-–—][ \t]*(?:(?:19|20)\d{2}|(?i:present|current))\b`)
	gpaRe               = regexp.MustCompile(`(?i)\b(?:c?gpa|grade point average)[ \t]*[:\-]?[ \t]*(\d+(?:\.\d+)?(?:[ \t]*/[ \t]*\d+(?:\.\d+)?)?)`)
)

const maxEducation = 5

// canonicalDegree 返回学位的规范名称，未知学位原样返回
func canonicalDegree(raw string) string {
	raw = collapseSpaces(raw)
	key := strings.ToUpper(degreeKeyCleaner.ReplaceAllString(raw, ""))
	if v, ok := canonicalDegrees[key]; ok {
		return v
	}
	return raw
}

// extractEducation 提取教育经历
func extractEducation(text string) []types.EducationEntry {
	window := educationLocator.window(text)
	if strings.TrimSpace(window) == "" {
		return []types.EducationEntry{}
	}

	entries := make([]types.EducationEntry, 0, maxEducation)
	for _, p := range degreePatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(window, -1) {
			entry := types.EducationEntry{
				Degree:      canonicalDegree(group(window, m, p.degree)),
				Field:       trimPunct(group(window, m, p.field)),
				Institution: trimPunct(group(window, m, p.institution)),
				Year:        collapseSpaces(group(window, m, p.year)),
			}
			disambiguate(&entry, p.school)
			if entry.Degree == "" || (entry.Institution == "" && entry.Field == "" && entry.Year == "") {
				continue
			}
			entry.ID = uuid.NewString()
			entries = append(entries, entry)
		}
	}

	if len(entries) > maxEducation {
		entries = entries[:maxEducation]
	}

	// 缺失年份的条目用窗口中第一个年份区间补齐
	if span := standaloneYearsRe.FindString(window); span != "" {
		for i := range entries {
			if entries[i].Year == "" {
				entries[i].Year = collapseSpaces(span)
			}
		}
	}

	if m := gpaRe.FindStringSubmatch(window); m != nil && len(entries) > 0 {
		entries[len(entries)-1].GPA = strings.ReplaceAll(m[1], " ", "")
	}
	return entries
}

// disambiguate 区分专业与院校
func disambiguate(e *types.EducationEntry, school bool) {
	if school {
		if e.Field != "" && schoolInstitutionRe.MatchString(e.Field) && !schoolStreamRe.MatchString(e.Field) {
			if e.Institution == "" {
				e.Institution = e.Field
			}
			e.Field = ""
		}
		if e.Field == "" && e.Institution != "" && schoolStreamRe.MatchString(e.Institution) && !schoolInstitutionRe.MatchString(e.Institution) {
			e.Field = e.Institution
			e.Institution = ""
		}
		return
	}
	if e.Field != "" && (institutionWordRe.MatchString(e.Field) || strings.Contains(e.Field, ",")) {
		if e.Institution == "" {
			e.Institution = e.Field
		}
		e.Field = ""
	}
}
