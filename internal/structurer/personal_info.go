package structurer

import (
	"regexp"
	"strings"

	"resume-structurer/internal/types"
)

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// 电话号码模式，按顺序尝试：国际格式、美式格式、纯数字
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\d{1,3}[\s.\-]?\(?\d{1,4}\)?(?:[\s.\-]?\d{2,5}){2,4}`),
	regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`),
	regexp.MustCompile(`\d{10,15}`),
}

const minPhoneDigits = 10

// 地址模式，按顺序尝试：街道、城市/州/邮编、国际邮编、带标签的地址
var addressPatterns = []struct {
	re    *regexp.Regexp
	group int
	hint  string // 文本中必须出现的小写字面量，为空时不预筛
}{
	{regexp.MustCompile(`\d{1,6}\s+[A-Za-z0-9.' ]{2,40}?\s(?i:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl)\b\.?(?:,?[ \t]*[A-Za-z .]{2,40})?(?:,[ \t]*[A-Z]{2}[ \t]*\d{5}(?:-\d{4})?)?`), 0, ""},
	{regexp.MustCompile(`[A-Z][A-Za-z .]{1,40},[ \t]*[A-Z]{2}[ \t]+\d{5}(?:-\d{4})?`), 0, ""},
	{regexp.MustCompile(`[A-Z][A-Za-z .]{1,40},?[ \t]+[A-Z]{1,2}\d[A-Z\d]?[ \t]*\d[A-Z]{2}\b`), 0, ""},
	{regexp.MustCompile(`[A-Z][A-Za-z .]{1,40}(?:,[ \t]*[A-Z][A-Za-z ]{1,30})?[,\-][ \t]*\d{6}\b`), 0, ""},
	{regexp.MustCompile(`(?i)\baddress\s*[:\-]\s*([^\n]+)`), 1, "address"},
}

var linkedinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_%\-]+/?`),
	regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/pub/[A-Za-z0-9_%\-/]+`),
}

// 网站候选模式：带协议的 URL、裸域名、带标签的作品集、免费托管站点
var websitePatterns = []struct {
	re    *regexp.Regexp
	group int
	hint  string
}{
	{regexp.MustCompile(`(?i)https?://[^\s,;<>"'()]+`), 0, "http"},
	{regexp.MustCompile(`(?i)\b(?:www\.)?[a-z0-9\-]+(?:\.[a-z0-9\-]+)*\.(?:com|io|dev|net|org|me|co|app|xyz|site|in)\b(?:/[^\s,;<>"'()]*)?`), 0, "."},
	{regexp.MustCompile(`(?i)\b(?:portfolio|website|web|site)\s*[:\-]\s*(\S+)`), 1, ""},
	{regexp.MustCompile(`(?i)\b[a-z0-9\-]+\.(?:github\.io|herokuapp\.com|netlify\.app|vercel\.app|wordpress\.com|wixsite\.com|blogspot\.com)(?:/[^\s,;<>"'()]*)?`), 0, "."},
}

var (
	websiteExcludeRe   = regexp.MustCompile(`(?i)linkedin|email|phone|gmail|yahoo|hotmail|outlook`)
	websitePreferredRe = regexp.MustCompile(`(?i)portfolio|personal|github\.io|herokuapp|netlify|vercel`)
	portfolioRe        = regexp.MustCompile(`(?i)\b(?:portfolio|github|behance|dribbble)\s*[:\-]\s*(\S+)`)
	schemeRe           = regexp.MustCompile(`(?i)^https?://`)
)

// 姓名候选行的过滤条件
var (
	nameWordRe        = regexp.MustCompile(`^[A-Z](?:[a-z'.\-]*|[A-Z'.\-]*)$`)
	phoneLikeRunRe    = regexp.MustCompile(`\d[\d\s().\-]{5,}\d`)
	nameStopKeywordRe = regexp.MustCompile(`(?i)\b(?:street|st\.|avenue|road|lane|city|phone|mobile|tel|email|e-mail|address)\b`)
	resumeTitleRe     = regexp.MustCompile(`(?i)^(?:resume|cv|curriculum vitae)$`)
)

const (
	nameSearchLines = 8
	maxNameLength   = 50
	minAddressLen   = 10
	maxAddressLen   = 150
)

// extractPersonalInfo 提取个人联系信息
func extractPersonalInfo(text string, lines []string) types.PersonalInfo {
	var info types.PersonalInfo

	if strings.IndexByte(text, '@') >= 0 {
		info.Email = emailRe.FindString(text)
	}
	info.Phone = findPhone(text)
	info.FullName = findName(lines)
	info.Address = findAddress(text)

	if strings.Contains(asciiLower(text), "linkedin.com") {
		for _, re := range linkedinPatterns {
			if m := re.FindString(text); m != "" {
				info.LinkedIn = strings.TrimRight(m, "/.,")
				break
			}
		}
	}

	info.Website = findWebsite(text)

	if info.Portfolio == "" {
		if m := portfolioRe.FindStringSubmatch(text); m != nil {
			if v := strings.TrimRight(m[1], ".,;)"); v != "" {
				info.Portfolio = withScheme(v)
			}
		}
	}
	return info
}

// findPhone 依次尝试各电话模式，接受第一个数字位数达标的候选
func findPhone(text string) string {
	if countDigits(text, minPhoneDigits) < minPhoneDigits {
		return ""
	}
	for _, re := range phonePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			end := loc[1]
			// 匹配停在数字中间时延伸到整段数字结束
			for end < len(text) && text[end] >= '0' && text[end] <= '9' {
				end++
			}
			m := text[loc[0]:end]
			if len(digitsOnly(m)) >= minPhoneDigits {
				return strings.TrimSpace(m)
			}
		}
	}
	return ""
}

// countDigits 统计数字个数，达到 limit 即返回
func countDigits(s string, limit int) int {
	n := 0
	for i := 0; i < len(s) && n < limit; i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// findName 在前几行中寻找 2-4 个首字母大写单词组成的行
func findName(lines []string) string {
	limit := nameSearchLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		if runeLen(line) >= maxNameLength {
			continue
		}
		if strings.Contains(line, "@") || phoneLikeRunRe.MatchString(line) {
			continue
		}
		if resumeTitleRe.MatchString(line) || nameStopKeywordRe.MatchString(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			if !nameWordRe.MatchString(w) {
				ok = false
				break
			}
		}
		if ok {
			return strings.Join(words, " ")
		}
	}
	return ""
}

// findAddress 接受第一个长度合适且不含邮箱/链接的地址候选
func findAddress(text string) string {
	lower := asciiLower(text)
	for _, p := range addressPatterns {
		if p.hint != "" && !strings.Contains(lower, p.hint) {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimRight(collapseSpaces(m[p.group]), ",; ")
			n := runeLen(candidate)
			if n <= minAddressLen || n >= maxAddressLen {
				continue
			}
			if strings.Contains(candidate, "@") || strings.Contains(asciiLower(candidate), "http") {
				continue
			}
			return candidate
		}
	}
	return ""
}

// findWebsite 收集网站候选并过滤，优先个人站点/作品集类托管域名
func findWebsite(text string) string {
	var candidates []string
	lower := asciiLower(text)
	for _, p := range websitePatterns {
		if p.hint != "" && !strings.Contains(lower, p.hint) {
			continue
		}
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*p.group], loc[2*p.group+1]
			if start < 0 {
				continue
			}
			// 邮箱的域名部分不算网站
			if start > 0 && (text[start-1] == '@' || text[start-1] == '.') {
				continue
			}
			if end < len(text) && text[end] == '@' {
				continue
			}
			c := strings.TrimRight(text[start:end], ".,;:)")
			if c == "" || strings.Contains(c, "@") || websiteExcludeRe.MatchString(c) {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	for _, c := range candidates {
		if websitePreferredRe.MatchString(c) {
			return withScheme(c)
		}
	}
	return withScheme(candidates[0])
}

// withScheme 缺少协议时补上 https://
func withScheme(u string) string {
	if schemeRe.MatchString(u) {
		return u
	}
	return "https://" + u
}
