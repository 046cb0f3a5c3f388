package structurer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-structurer/internal/types"
)

var languagesLocator = newLocator(
	[]string{"languages", "language proficiency", "language"},
	[]string{"experience", "education", "skills", "projects", "certifications", "hobbies", "interests", "references", "achievements"},
	400,
)

var knownLanguages = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese", "Russian", "Chinese",
	"Mandarin", "Cantonese", "Japanese", "Korean", "Arabic", "Hindi", "Bengali", "Urdu",
	"Punjabi", "Tamil", "Telugu", "Marathi", "Gujarati", "Kannada", "Malayalam", "Dutch", "Turkish",
}

const proficiencyLevels = `native|fluent|advanced|intermediate|basic|beginner|conversational|proficient|professional working|elementary|bilingual|mother tongue`

type languageMatcher struct {
	name   string
	word   *regexp.Regexp
	after  *regexp.Regexp
	before *regexp.Regexp
}

var languageMatchers = compileLanguageMatchers()

func compileLanguageMatchers() []languageMatcher {
	out := make([]languageMatcher, len(knownLanguages))
	for i, lang := range knownLanguages {
		q := regexp.QuoteMeta(lang)
		out[i] = languageMatcher{
			name:   lang,
			word:   regexp.MustCompile(`(?i)\b` + q + `\b`),
			after:  regexp.MustCompile(`(?i)\b` + q + `\b[^\n,;]{0,20}?\b(` + proficiencyLevels + `)\b`),
			before: regexp.MustCompile(`(?i)\b(` + proficiencyLevels + `)\b[ \t:\-]*` + q + `\b`),
		}
	}
	return out
}

const maxLanguages = 6

// extractLanguages 按已知语言列表顺序扫描语言章节
func extractLanguages(text string) []types.LanguageEntry {
	window := languagesLocator.window(text)
	if strings.TrimSpace(window) == "" {
		return []types.LanguageEntry{}
	}

	entries := make([]types.LanguageEntry, 0, maxLanguages)
	for _, lm := range languageMatchers {
		if !lm.word.MatchString(window) {
			continue
		}
		entry := types.LanguageEntry{ID: uuid.NewString(), Language: lm.name}
		if m := lm.after.FindStringSubmatch(window); m != nil {
			entry.Proficiency = capitalize(m[1])
		} else if m := lm.before.FindStringSubmatch(window); m != nil {
			entry.Proficiency = capitalize(m[1])
		}
		entries = append(entries, entry)
		if len(entries) == maxLanguages {
			break
		}
	}
	return entries
}
