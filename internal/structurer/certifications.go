package structurer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-structurer/internal/types"
)

var certificationsLocator = newLocator(
	[]string{"certifications", "certificates", "certification", "licenses"},
	[]string{"experience", "education", "skills", "projects", "achievements", "awards", "languages", "hobbies", "interests", "references"},
	800,
)

// certPattern 证书模式；两种模式的名称与机构顺序相反
type certPattern struct {
	kind         string
	re           *regexp.Regexp
	name         int
	organization int
	year         int
	expiry       int
}

var certPatterns = []certPattern{
	{
		// AWS Solutions Architect - Amazon (2021)
		kind: "name-org-year",
		re:   regexp.MustCompile(`(?m)^[ \t•*\-]*([A-Za-z0-9][^–—\-\n(]{2,80}?)[ \t]+[–—\-][ \t]+([^(\n]{2,60}?)[ \t]*\([ \t]*((?:19|20)\d{2})(?:[ \t]*[-–—][ \t]*((?:19|20)\d{2}))?[ \t]*\)`),
		name: 1, organization: 2, year: 3, expiry: 4,
	},
	{
		// Coursera: Machine Learning Specialization
		kind:         "org-colon-name",
		re:           regexp.MustCompile(`(?m)^[ \t•*\-]*([A-Z][A-Za-z0-9&. ]{1,40}?)[ \t]*:[ \t]*([^\n]{3,80}?)[ \t]*$`),
		organization: 1, name: 2,
	},
}

const maxCertifications = 8

// extractCertifications 提取证书
func extractCertifications(text string) []types.CertificationEntry {
	window := certificationsLocator.window(text)
	if strings.TrimSpace(window) == "" {
		return []types.CertificationEntry{}
	}

	entries := make([]types.CertificationEntry, 0, maxCertifications)
	for _, p := range certPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(window, -1) {
			entry := types.CertificationEntry{
				Name:         trimPunct(group(window, m, p.name)),
				Organization: trimPunct(group(window, m, p.organization)),
				Year:         group(window, m, p.year),
				Expiry:       group(window, m, p.expiry),
			}
			if entry.Name == "" {
				continue
			}
			if entry.Year == "" {
				entry.Year = firstYear(entry.Name)
			}
			entry.ID = uuid.NewString()
			entries = append(entries, entry)
			if len(entries) == maxCertifications {
				return entries
			}
		}
	}
	return entries
}
