package structurer

import "strings"

var summaryLocator = newCombinedLocator(
	[]string{"summary", "objective", "profile", "about", "overview", "introduction"},
	[]string{"experience", "education", "skills", "work", "employment", "projects", "certifications"},
	600,
)

const (
	summaryMinLineLen = 10
	summaryMaxLen     = 500
	summaryMinLen     = 20
)

// extractSummary 提取个人简介段落
func extractSummary(text string) string {
	window := summaryLocator.window(text)
	if window == "" {
		return ""
	}

	var kept []string
	for _, line := range splitLines(window) {
		if runeLen(line) <= summaryMinLineLen || isAllUpper(line) {
			continue
		}
		kept = append(kept, collapseSpaces(line))
	}

	summary := strings.TrimSpace(truncateRunes(strings.Join(kept, " "), summaryMaxLen))
	if runeLen(summary) <= summaryMinLen {
		return ""
	}
	return summary
}
