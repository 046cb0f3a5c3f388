// Package structurer 基于规则的简历文本结构化
//
// 输入任意纯文本，输出结构化简历。提取过程只依赖正则与长度、位置等启发式规则，
// 不会返回错误；某个字段提取失败只会让该字段保持空值。
package structurer

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-structurer/internal/logger"
	"resume-structurer/internal/types"
)

// parseInput 一次解析共享的只读输入
type parseInput struct {
	text  string
	lines []string
}

// step 单个字段提取器，把结果写入 out
type step struct {
	name types.SectionName
	run  func(in *parseInput, out *types.StructuredResume)
}

var defaultSteps = []step{
	{types.SectionPersonalInfo, func(in *parseInput, out *types.StructuredResume) {
		out.PersonalInfo = extractPersonalInfo(in.text, in.lines)
		if !out.PersonalInfo.IsEmpty() {
			out.Sections[types.SectionPersonalInfo] = out.PersonalInfo
		}
	}},
	{types.SectionSummary, func(in *parseInput, out *types.StructuredResume) {
		out.Summary = extractSummary(in.text)
		if out.Summary != "" {
			out.Sections[types.SectionSummary] = out.Summary
		}
	}},
	{types.SectionSkills, func(in *parseInput, out *types.StructuredResume) {
		res := extractSkills(in.text)
		out.Skills = res.All
		if len(res.All) > 0 {
			out.Sections[types.SectionSkills] = types.SkillsSection{All: res.All, ByCategory: res.ByCategory}
		}
	}},
	{types.SectionExperience, func(in *parseInput, out *types.StructuredResume) {
		out.Experience = extractExperience(in.text)
		if len(out.Experience) > 0 {
			out.Sections[types.SectionExperience] = out.Experience
		}
	}},
	{types.SectionEducation, func(in *parseInput, out *types.StructuredResume) {
		out.Education = extractEducation(in.text)
		if len(out.Education) > 0 {
			out.Sections[types.SectionEducation] = out.Education
		}
	}},
	{types.SectionProjects, func(in *parseInput, out *types.StructuredResume) {
		out.Projects = extractProjects(in.text)
		if len(out.Projects) > 0 {
			out.Sections[types.SectionProjects] = out.Projects
		}
	}},
	{types.SectionCertifications, func(in *parseInput, out *types.StructuredResume) {
		out.Certifications = extractCertifications(in.text)
		if len(out.Certifications) > 0 {
			out.Sections[types.SectionCertifications] = out.Certifications
		}
	}},
	{types.SectionLanguages, func(in *parseInput, out *types.StructuredResume) {
		out.Languages = extractLanguages(in.text)
		if len(out.Languages) > 0 {
			out.Sections[types.SectionLanguages] = out.Languages
		}
	}},
	{types.SectionAchievements, func(in *parseInput, out *types.StructuredResume) {
		out.Achievements = extractAchievements(in.text)
		if len(out.Achievements) > 0 {
			out.Sections[types.SectionAchievements] = out.Achievements
		}
	}},
	{types.SectionHobbies, func(in *parseInput, out *types.StructuredResume) {
		out.Hobbies = extractHobbies(in.text)
		if len(out.Hobbies) > 0 {
			out.Sections[types.SectionHobbies] = out.Hobbies
		}
	}},
	{types.SectionReferences, func(in *parseInput, out *types.StructuredResume) {
		out.References = extractReferences(in.text)
		if out.References != "" {
			out.Sections[types.SectionReferences] = out.References
		}
	}},
}

// Structurer 规则简历结构化器，无内部可变状态，可并发使用
type Structurer struct {
	logger *zerolog.Logger
	steps  []step
}

// Option 结构化器选项
type Option func(*Structurer)

// WithLogger 指定日志记录器
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Structurer) {
		s.logger = l
	}
}

// New 创建结构化器
func New(opts ...Option) *Structurer {
	s := &Structurer{logger: &logger.Logger, steps: defaultSteps}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultStructurer = New()

// Structure 使用默认结构化器解析文本
func Structure(text string) *types.StructuredResume {
	return defaultStructurer.Structure(text)
}

// Structure 把纯文本解析为结构化简历，任何输入都返回完整的记录
func (s *Structurer) Structure(text string) *types.StructuredResume {
	out := types.NewStructuredResume()
	if strings.TrimSpace(text) == "" {
		return out
	}

	in := &parseInput{text: text, lines: splitLines(text)}
	out.RawLines = append(out.RawLines, in.lines...)

	for _, st := range s.steps {
		s.runStep(st, in, out)
	}
	normalizeEmpty(out)
	out.Completion = completion(out)

	s.logger.Debug().
		Int("lines", len(in.lines)).
		Int("skills", len(out.Skills)).
		Int("experience", len(out.Experience)).
		Int("education", len(out.Education)).
		Int("completion", out.Completion).
		Msg("简历文本结构化完成")
	return out
}

// runStep 执行单个提取器，panic 只影响该字段
func (s *Structurer) runStep(st step, in *parseInput, out *types.StructuredResume) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().
				Str("section", string(st.name)).
				Str("panic", fmt.Sprint(r)).
				Msg("字段提取异常，已跳过该字段")
			delete(out.Sections, st.name)
		}
	}()
	st.run(in, out)
}

// normalizeEmpty 提取器异常后字段可能为 nil，统一替换为空切片
func normalizeEmpty(out *types.StructuredResume) {
	if out.Skills == nil {
		out.Skills = []string{}
	}
	if out.Experience == nil {
		out.Experience = []types.ExperienceEntry{}
	}
	if out.Education == nil {
		out.Education = []types.EducationEntry{}
	}
	if out.Projects == nil {
		out.Projects = []types.ProjectEntry{}
	}
	if out.Certifications == nil {
		out.Certifications = []types.CertificationEntry{}
	}
	if out.Languages == nil {
		out.Languages = []types.LanguageEntry{}
	}
	if out.Achievements == nil {
		out.Achievements = []types.AchievementEntry{}
	}
	if out.Hobbies == nil {
		out.Hobbies = []string{}
	}
}

// completion 五个核心字段中已填充的比例（百分比）
func completion(r *types.StructuredResume) int {
	filled := 0
	if !r.PersonalInfo.IsEmpty() {
		filled++
	}
	if r.Summary != "" {
		filled++
	}
	if len(r.Skills) > 0 {
		filled++
	}
	if len(r.Experience) > 0 {
		filled++
	}
	if len(r.Education) > 0 {
		filled++
	}
	return filled * 100 / 5
}
