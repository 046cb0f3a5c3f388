package structurer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	whitespaceRunRe = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	bulletPrefixRe  = regexp.MustCompile(`^[\s•·▪◦●■►*\-–—]+`)
	yearRe          = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	digitRe         = regexp.MustCompile(`\d`)
	numericOnlyRe   = regexp.MustCompile(`^[\d\s.,%+\-/]+$`)
)

// splitLines 按换行切分文本，返回去除首尾空白后的非空行
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// collapseSpaces 把行内连续空白压缩为单个空格
func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " "))
}

// truncateRunes 截取前 n 个字符（按 rune 计）
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// runeLen 返回字符数
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// capitalize 首字母大写，其余小写
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// stripBullet 去掉行首的项目符号
func stripBullet(s string) string {
	return strings.TrimSpace(bulletPrefixRe.ReplaceAllString(s, ""))
}

// hasBullet 判断行是否以项目符号开头
func hasBullet(s string) bool {
	loc := bulletPrefixRe.FindStringIndex(s)
	if loc == nil {
		return false
	}
	return strings.TrimSpace(s[loc[0]:loc[1]]) != ""
}

// startsUpper 判断首字符是否为大写字母
func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isAllUpper 只包含大写字母和空白（至少一个字母）
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case unicode.IsUpper(r):
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}

// trimPunct 去掉两端常见的标点和空白
func trimPunct(s string) string {
	return strings.Trim(s, " \t,;:|.-–—()")
}

// firstYear 返回字符串中的第一个四位年份
func firstYear(s string) string {
	return yearRe.FindString(s)
}

// digitsOnly 返回字符串中的所有数字
func digitsOnly(s string) string {
	return strings.Join(digitRe.FindAllString(s, -1), "")
}

// orderedSet 保持插入顺序的字符串集合
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

// Add 添加元素，已存在则忽略；返回是否新增
func (s *orderedSet) Add(v string) bool {
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) Len() int { return len(s.items) }

// Items 返回最多 limit 个元素，limit<=0 表示不限制
func (s *orderedSet) Items(limit int) []string {
	out := s.items
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]string, len(out))
	copy(result, out)
	return result
}
