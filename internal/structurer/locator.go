package structurer

import (
	"regexp"
	"strings"
)

// sectionLocator 章节定位器
//
// keywords 按优先级排列，第一个在全文中出现的关键字胜出（不是位置最靠前的）。
// 窗口从关键字之后开始，到第一个出现的停止词为止；没有停止词时取前 span 个字符。
// 停止词要求完整单词，"Experienced" 不会截断窗口。窗口开头的 ":"、"-" 等标签标点会被去掉。
type sectionLocator struct {
	keywords []*regexp.Regexp
	hints    [][]string // 与 keywords 对应，小写全文不含任何 hint 时跳过正则
	stop     *regexp.Regexp
	stopHint []string
	span     int
}

// newLocator 编译关键字（按优先级）和停止词
func newLocator(keywords, stops []string, span int) *sectionLocator {
	l := &sectionLocator{span: span}
	for _, kw := range keywords {
		l.keywords = append(l.keywords, keywordRegexp(kw))
		l.hints = append(l.hints, literalHints([]string{kw}))
	}
	l.setStops(stops)
	return l
}

// newCombinedLocator 关键字作为一个整体集合，全文最早出现的任意关键字胜出
func newCombinedLocator(keywords, stops []string, span int) *sectionLocator {
	l := &sectionLocator{span: span}
	l.keywords = []*regexp.Regexp{keywordRegexp(strings.Join(keywords, "|"))}
	l.hints = [][]string{literalHints(keywords)}
	l.setStops(stops)
	return l
}

func (l *sectionLocator) setStops(stops []string) {
	if len(stops) > 0 {
		l.stop = stopRegexp(stops)
		l.stopHint = literalHints(stops)
	}
}

// literalHints 每个关键字取第一个单词的小写形式
func literalHints(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		for _, alt := range strings.Split(kw, "|") {
			if f := strings.Fields(strings.ToLower(alt)); len(f) > 0 {
				out = append(out, f[0])
			}
		}
	}
	return out
}

// asciiLower 只转换 ASCII 字母，保证下标与原文一致
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func keywordRegexp(alt string) *regexp.Regexp {
	parts := strings.Split(alt, "|")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

func stopRegexp(stops []string) *regexp.Regexp {
	parts := make([]string, len(stops))
	for i, s := range stops {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(s), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// sectionMatch 定位结果
const labelPunct = " \t:-–—"

type sectionMatch struct {
	Keyword string // 实际命中的关键字文本
	Window  string // 关键字之后的章节窗口
}

// locate 返回章节窗口；没有命中关键字时 ok 为 false
func (l *sectionLocator) locate(text string) (sectionMatch, bool) {
	lower := asciiLower(text)
	for i, kw := range l.keywords {
		if !containsAny(lower, l.hints[i]) {
			continue
		}
		loc := kw.FindStringIndex(text)
		if loc == nil {
			continue
		}
		after := text[loc[1]:]
		window := truncateRunes(after, l.span)
		if l.stop != nil && containsAny(lower[loc[1]:], l.stopHint) {
			if s := l.stop.FindStringIndex(after); s != nil {
				window = after[:s[0]]
			}
		}
		return sectionMatch{Keyword: text[loc[0]:loc[1]], Window: strings.TrimLeft(window, labelPunct)}, true
	}
	return sectionMatch{}, false
}

// window 只返回窗口文本
func (l *sectionLocator) window(text string) string {
	m, _ := l.locate(text)
	return m.Window
}
