package structurer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-structurer/internal/types"
)

var achievementsLocator = newLocator(
	[]string{"achievements", "awards", "honors", "accomplishments"},
	[]string{"experience", "education", "skills", "projects", "certifications", "languages", "hobbies", "interests", "references"},
	600,
)

var hobbiesLocator = newLocator(
	[]string{"hobbies", "interests", "activities"},
	[]string{"references", "experience", "education", "skills", "projects", "languages", "certifications", "achievements"},
	300,
)

var (
	hobbyKeywordRe   = regexp.MustCompile(`(?i)\b(?:hobbies|interests|activities)\b[ \t]*[:&]?`)
	hobbySeparatorRe = regexp.MustCompile(`[,\n•·▪●|;/]|\s[-–—]\s|\band\b`)
	referencesRe     = regexp.MustCompile(`(?i)\breferences\b`)
	onRequestRe      = regexp.MustCompile(`(?i)(?:available|provided)\s+(?:up)?on\s+request`)
)

const (
	minAchievementLen   = 10
	maxAchievementLen   = 150
	maxHobbies          = 8
	minHobbyLen         = 2
	maxHobbyLen         = 30
	referencesWindow    = 200
	referencesOnRequest = "Available upon request"
)

// extractAchievements 逐行提取成就，第一个 '-' 之前为标题
func extractAchievements(text string) []types.AchievementEntry {
	match, ok := achievementsLocator.locate(text)
	if !ok || strings.TrimSpace(match.Window) == "" {
		return []types.AchievementEntry{}
	}

	entries := []types.AchievementEntry{}
	for _, line := range splitLines(match.Window) {
		line = stripBullet(line)
		if strings.EqualFold(strings.Trim(line, ": "), match.Keyword) {
			continue
		}
		n := runeLen(line)
		if n < minAchievementLen || n > maxAchievementLen {
			continue
		}
		entry := types.AchievementEntry{ID: uuid.NewString(), Title: line, Year: firstYear(line)}
		if i := strings.Index(line, "-"); i > 0 {
			entry.Title = strings.TrimSpace(line[:i])
			entry.Description = strings.TrimSpace(line[i+1:])
		}
		entries = append(entries, entry)
	}
	return entries
}

// extractHobbies 去掉标题关键字后按分隔符切分
func extractHobbies(text string) []string {
	window := hobbiesLocator.window(text)
	if strings.TrimSpace(window) == "" {
		return []string{}
	}
	window = hobbyKeywordRe.ReplaceAllString(window, " ")

	set := newOrderedSet()
	for _, part := range hobbySeparatorRe.Split(window, -1) {
		part = strings.Trim(stripBullet(part), " \t.:")
		n := runeLen(part)
		if n <= minHobbyLen || n >= maxHobbyLen {
			continue
		}
		set.Add(part)
		if set.Len() == maxHobbies {
			break
		}
	}
	return set.Items(maxHobbies)
}

// extractReferences 只识别 "references available upon request" 一类的声明
func extractReferences(text string) string {
	loc := referencesRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	if onRequestRe.MatchString(truncateRunes(text[loc[1]:], referencesWindow)) {
		return referencesOnRequest
	}
	return ""
}
