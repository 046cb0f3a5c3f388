package structurer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-structurer/internal/types"
)

const sampleResume = `John Smith
john.smith@email.com
+1 555-123-4567

SUMMARY
Experienced engineer with 5 years in web development.

SKILLS
JavaScript, React, Node.js

EDUCATION
BTech in Computer Science from MIT, 2018`

// TestStructureSampleResume 验证典型简历的各字段提取
func TestStructureSampleResume(t *testing.T) {
	res := Structure(sampleResume)
	require.NotNil(t, res)

	assert.Equal(t, "John Smith", res.PersonalInfo.FullName)
	assert.Equal(t, "john.smith@email.com", res.PersonalInfo.Email)
	assert.Contains(t, digitsOnly(res.PersonalInfo.Phone), "5551234567")
	assert.Equal(t, "Experienced engineer with 5 years in web development.", res.Summary)

	assert.Contains(t, res.Skills, "Javascript")
	assert.Contains(t, res.Skills, "React")
	assert.Contains(t, res.Skills, "Node.js")

	require.Len(t, res.Education, 1)
	edu := res.Education[0]
	assert.Equal(t, "BTech", edu.Degree)
	assert.Equal(t, "Computer Science", edu.Field)
	assert.Contains(t, edu.Institution, "MIT")
	assert.Equal(t, "2018", edu.Year)
	assert.NotEmpty(t, edu.ID)

	assert.Empty(t, res.Experience, "Experienced 不应被当作经历章节关键字")
	assert.Equal(t, 80, res.Completion)

	skills, ok := res.Sections[types.SectionSkills].(types.SkillsSection)
	require.True(t, ok, "sections.skills 应包含按类别拆分的结果")
	assert.Equal(t, []string{"Javascript"}, skills.ByCategory["programming"])
	assert.Equal(t, []string{"React"}, skills.ByCategory["frontend"])
	assert.Equal(t, []string{"Node.js"}, skills.ByCategory["backend"])
	assert.Contains(t, res.RawLines, "SUMMARY")
}

// TestStructureEmptyInput 空输入返回全部为空默认值的记录
func TestStructureEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n  "} {
		res := Structure(input)
		require.NotNil(t, res)
		assert.True(t, res.PersonalInfo.IsEmpty())
		assert.Empty(t, res.Summary)
		assert.NotNil(t, res.Skills)
		assert.Empty(t, res.Skills)
		assert.Empty(t, res.Experience)
		assert.Empty(t, res.Education)
		assert.Empty(t, res.Projects)
		assert.Empty(t, res.Certifications)
		assert.Empty(t, res.Languages)
		assert.Empty(t, res.Achievements)
		assert.Empty(t, res.Hobbies)
		assert.Empty(t, res.References)
		assert.Empty(t, res.RawLines)
		assert.Empty(t, res.Sections)
		assert.Equal(t, 0, res.Completion)
	}
}

// TestStructureEmailOnly 只有邮箱时其余字段均为空
func TestStructureEmailOnly(t *testing.T) {
	res := Structure("john@example.com")

	assert.Equal(t, types.PersonalInfo{Email: "john@example.com"}, res.PersonalInfo)
	assert.Empty(t, res.Summary)
	assert.Empty(t, res.Skills)
	assert.Empty(t, res.Experience)
	assert.Empty(t, res.Education)
	assert.Empty(t, res.Projects)
	assert.Empty(t, res.Certifications)
	assert.Empty(t, res.Languages)
	assert.Empty(t, res.Achievements)
	assert.Empty(t, res.Hobbies)
	assert.Empty(t, res.References)
	assert.Equal(t, 20, res.Completion)
}

// TestStructureLabeledSkillsDeduplicated 带标签的技能段落去重
func TestStructureLabeledSkillsDeduplicated(t *testing.T) {
	res := Structure("Skills: Python, AWS, Leadership, Leadership")

	assert.Contains(t, res.Skills, "Python")
	assert.Contains(t, res.Skills, "AWS")
	assert.Contains(t, res.Skills, "Leadership")

	count := 0
	for _, s := range res.Skills {
		if s == "Leadership" {
			count++
		}
	}
	assert.Equal(t, 1, count, "Leadership 只应出现一次")
}

func stripIDs(r *types.StructuredResume) {
	for i := range r.Experience {
		r.Experience[i].ID = ""
	}
	for i := range r.Education {
		r.Education[i].ID = ""
	}
	for i := range r.Projects {
		r.Projects[i].ID = ""
	}
	for i := range r.Certifications {
		r.Certifications[i].ID = ""
	}
	for i := range r.Languages {
		r.Languages[i].ID = ""
	}
	for i := range r.Achievements {
		r.Achievements[i].ID = ""
	}
}

// TestStructureIdempotent 同一输入两次解析，除 ID 外结果一致
func TestStructureIdempotent(t *testing.T) {
	input := sampleResume + `

WORK EXPERIENCE
Software Engineer at Acme Corp, Jan 2020 - Present
• Built scalable REST services in Go

LANGUAGES
English (Fluent), Hindi - Native

HOBBIES
Reading, Chess`

	first := Structure(input)
	second := Structure(input)
	stripIDs(first)
	stripIDs(second)
	assert.Equal(t, first, second)
}

// TestStructureAdversarialInput 随机字节、无空白的长文本都能在有限时间内完成且不 panic
func TestStructureAdversarialInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	random := make([]byte, 1<<20)
	_, _ = rng.Read(random)

	inputs := map[string]string{
		"random-1mb":    string(random),
		"no-whitespace": strings.Repeat("abcXYZ123", 20000),
		"emails-only":   strings.Repeat("a@b.co", 5000),
		"digits-only":   strings.Repeat("1234567890", 10000),
		"headers-only":  strings.Repeat("EXPERIENCE EDUCATION SKILLS PROJECTS ", 2000),
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			var res *types.StructuredResume
			assert.NotPanics(t, func() { res = Structure(input) })
			require.NotNil(t, res)
			assertCaps(t, res)
		})
	}
}

func assertCaps(t *testing.T, res *types.StructuredResume) {
	t.Helper()
	assert.LessOrEqual(t, len(res.Skills), 25)
	assert.LessOrEqual(t, len(res.Experience), 8)
	assert.LessOrEqual(t, len(res.Education), 5)
	assert.LessOrEqual(t, len(res.Projects), 8)
	assert.LessOrEqual(t, len(res.Certifications), 8)
	assert.LessOrEqual(t, len(res.Languages), 6)
	assert.LessOrEqual(t, len(res.Hobbies), 8)
	assert.LessOrEqual(t, res.Completion, 100)
	for _, e := range res.Experience {
		assert.LessOrEqual(t, len(e.Description), 5)
	}
}

// TestStructureCaps 各字段数量上限
func TestStructureCaps(t *testing.T) {
	var b strings.Builder
	b.WriteString("Skills: ")
	var names []string
	for _, cat := range skillBank {
		names = append(names, cat.Skills...)
	}
	b.WriteString(strings.Join(names, ", "))

	b.WriteString("\n\nEXPERIENCE\n")
	for _, c := range "ABCDEFGHIJKL" {
		b.WriteString("Software Engineer at Company" + string(c) + ", 2010 - 2012\n")
	}
	b.WriteString("\nEDUCATION\n")
	for _, c := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta"} {
		b.WriteString("BSc in Physics from " + c + " College, 2010\n")
	}
	b.WriteString("\nLANGUAGES\n")
	b.WriteString(strings.Join(knownLanguages, ", "))
	b.WriteString("\n\nHOBBIES\nReading, Chess, Hiking, Cycling, Painting, Cooking, Gardening, Running, Swimming, Singing\n")

	res := Structure(b.String())
	assert.Len(t, res.Skills, 25)
	assert.Len(t, res.Experience, 8)
	assert.Len(t, res.Education, 5)
	assert.Len(t, res.Languages, 6)
	assert.Len(t, res.Hobbies, 8)
	assertCaps(t, res)
}

// TestStepPanicIsolated 单个提取器 panic 不影响其他字段
func TestStepPanicIsolated(t *testing.T) {
	s := New()
	s.steps = append([]step{
		{name: "boom", run: func(*parseInput, *types.StructuredResume) { panic("boom") }},
		{name: types.SectionSkills, run: func(_ *parseInput, out *types.StructuredResume) {
			out.Skills = nil
			panic("skills broken")
		}},
	}, defaultSteps[:2]...)

	var res *types.StructuredResume
	require.NotPanics(t, func() { res = s.Structure("john@example.com") })
	assert.Equal(t, "john@example.com", res.PersonalInfo.Email)
	assert.NotNil(t, res.Skills)
	assert.Empty(t, res.Skills)
	assert.NotContains(t, res.Sections, types.SectionName("boom"))
}

// TestStructureConcurrent 并发调用互不影响
func TestStructureConcurrent(t *testing.T) {
	done := make(chan *types.StructuredResume, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- Structure(sampleResume) }()
	}
	for i := 0; i < 8; i++ {
		res := <-done
		assert.Equal(t, "John Smith", res.PersonalInfo.FullName)
		assert.Len(t, res.Education, 1)
	}
}
