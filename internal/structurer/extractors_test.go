package structurer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorKeywordPriority(t *testing.T) {
	text := "alpha one\nbeta two"

	m, ok := newLocator([]string{"beta", "alpha"}, nil, 100).locate(text)
	require.True(t, ok)
	assert.Equal(t, "beta", m.Keyword)
	assert.Equal(t, "two", m.Window, "按优先级取第一个出现的关键字，而不是位置最靠前的")

	m, ok = newCombinedLocator([]string{"beta", "alpha"}, nil, 100).locate(text)
	require.True(t, ok)
	assert.Equal(t, "one\nbeta two", m.Window, "组合关键字取最早出现的位置")
}

func TestLocatorStopAndSpan(t *testing.T) {
	l := newLocator([]string{"summary"}, []string{"skills"}, 600)
	assert.Equal(t, "\nGood at things\n", l.window("Summary\nGood at things\nSkills\nGo"))

	short := newLocator([]string{"summary"}, nil, 5)
	assert.Equal(t, "abcd", short.window("summary abcdefghij"))

	assert.Equal(t, "Good at things. ", l.window("Summary: Good at things. Skills: Go"), "行内停止词截断窗口，开头的标签标点被去掉")
	assert.Equal(t, "\nExperienced in Go\n", l.window("Summary\nExperienced in Go\nSkills\nGo"))

	_, ok := l.locate("nothing relevant here")
	assert.False(t, ok)
	assert.Equal(t, "", l.window("nothing relevant here"))
}

func TestExtractPersonalInfo(t *testing.T) {
	t.Run("address", func(t *testing.T) {
		text := "Jane Doe\n123 Main Street, Springfield, IL 62704\njane@doe.dev"
		info := extractPersonalInfo(text, splitLines(text))
		assert.Equal(t, "Jane Doe", info.FullName)
		assert.Equal(t, "123 Main Street, Springfield, IL 62704", info.Address)
		assert.Empty(t, info.Website, "邮箱域名不应被识别为网站")
	})

	t.Run("address rejects email", func(t *testing.T) {
		text := "Address: contact me at john@x.com for details"
		info := extractPersonalInfo(text, splitLines(text))
		assert.NotContains(t, info.Address, "@")
		assert.NotContains(t, info.Address, "http")
	})

	t.Run("phone needs ten digits", func(t *testing.T) {
		assert.Equal(t, "", findPhone("Call 555-1234"))
		assert.Equal(t, "(555) 123-4567", findPhone("Phone: (555) 123-4567"))
	})

	t.Run("international phone keeps every digit", func(t *testing.T) {
		cases := []struct {
			in   string
			want string
		}{
			{"Phone: +91 98765 43210", "919876543210"},
			{"Mobile: +44 7911 123456", "447911123456"},
			{"Tel +1 555-123-4567", "15551234567"},
			{"+49 30 1234 5678", "493012345678"},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.want, digitsOnly(findPhone(tc.in)), tc.in)
		}
	})

	t.Run("name skips title lines", func(t *testing.T) {
		assert.Equal(t, "Jane Doe", findName([]string{"Curriculum Vitae", "RESUME", "Jane Doe"}))
		assert.Equal(t, "JANE DOE", findName([]string{"JANE DOE"}))
		assert.Equal(t, "", findName([]string{"Jane", "jane doe", "Jane Doe 2019 Student Of The Year"}))
	})

	t.Run("website preference", func(t *testing.T) {
		text := "Jane Doe\nhttps://example.com\nhttps://jane.github.io"
		assert.Equal(t, "https://jane.github.io", findWebsite(text))
		assert.Equal(t, "https://www.janedoe.com", findWebsite("Jane Doe\nwww.janedoe.com"))
	})

	t.Run("linkedin and portfolio", func(t *testing.T) {
		text := "Jane Doe\nlinkedin.com/in/jane-doe\nGitHub: github.com/janedoe"
		info := extractPersonalInfo(text, splitLines(text))
		assert.Equal(t, "linkedin.com/in/jane-doe", info.LinkedIn)
		assert.Equal(t, "https://github.com/janedoe", info.Portfolio)
		assert.NotContains(t, info.Website, "linkedin")
	})
}

func TestExtractSummaryRules(t *testing.T) {
	text := "PROFILE\nSHORT\nDETAIL ORIENTED\nBackend developer focused on distributed systems.\n\nEXPERIENCE\nSomething"
	assert.Equal(t, "Backend developer focused on distributed systems.", extractSummary(text))

	inline := "Summary: Passionate backend developer building web apps for ten years. Skills: Go, Docker, Kubernetes"
	assert.Equal(t, "Passionate backend developer building web apps for ten years.", extractSummary(inline),
		"行内的停止词也应截断窗口，标签冒号不进入简介")

	assert.Equal(t, "", extractSummary("Summary\nToo short."), "不足 20 个字符的简介应丢弃")
}

func TestExtractExperience(t *testing.T) {
	t.Run("title at company with description", func(t *testing.T) {
		text := `WORK EXPERIENCE
Software Engineer at Acme Corp, Jan 2020 - Present
• Built scalable REST services in Go
• Led migration to Kubernetes clusters
short
Data Analyst at Beta Inc, 2017 - 2019
• Analysed sales data`

		entries := extractExperience(text)
		// 不同模式命中同一行时不去重
		require.Len(t, entries, 4)

		first := entries[0]
		assert.Equal(t, "Software Engineer", first.Position)
		assert.Equal(t, "Acme Corp", first.Company)
		assert.Equal(t, "Jan 2020 - Present", first.Duration)
		assert.True(t, first.Current)
		assert.Equal(t, []string{"Built scalable REST services in Go", "Led migration to Kubernetes clusters"}, first.Description)

		second := entries[1]
		assert.Equal(t, "Data Analyst", second.Position)
		assert.Equal(t, "Beta Inc", second.Company)
		assert.False(t, second.Current)
		assert.Equal(t, []string{"Analysed sales data"}, second.Description)
	})

	t.Run("company dash title swaps fields", func(t *testing.T) {
		entries := extractExperience("EXPERIENCE\nGoogle - Senior Engineer, 2019 - Present\n")
		require.Len(t, entries, 1)
		assert.Equal(t, "Google", entries[0].Company)
		assert.Equal(t, "Senior Engineer", entries[0].Position)
		assert.True(t, entries[0].Current)
	})

	t.Run("company location split", func(t *testing.T) {
		entries := extractExperience("EXPERIENCE\nSoftware Engineer at Google, Mountain View, 2019 - 2021\n")
		require.NotEmpty(t, entries)
		assert.Equal(t, "Google", entries[0].Company)
		assert.Equal(t, "Mountain View", entries[0].Location)
	})

	t.Run("pipe separated", func(t *testing.T) {
		text := "EXPERIENCE\nBackend Engineer | Stripe | Mar 2018 - Dec 2021\n• Built payment reconciliation services\n"
		entries := extractExperience(text)
		require.NotEmpty(t, entries)
		assert.Equal(t, "Backend Engineer", entries[0].Position)
		assert.Equal(t, "Stripe", entries[0].Company)
		assert.Equal(t, "Mar 2018 - Dec 2021", entries[0].Duration)
		assert.False(t, entries[0].Current)
		assert.Equal(t, []string{"Built payment reconciliation services"}, entries[0].Description)
	})

	t.Run("years of experience phrase", func(t *testing.T) {
		entries := extractExperience("EXPERIENCE\n5 years of experience as a backend developer at Initech.\n")
		require.Len(t, entries, 1)
		assert.Equal(t, "backend developer", entries[0].Position)
		assert.Equal(t, "Initech", entries[0].Company)
		assert.Equal(t, "5 years", entries[0].Duration)
	})
}

func TestExtractEducation(t *testing.T) {
	t.Run("gpa attaches to last entry", func(t *testing.T) {
		entries := extractEducation("EDUCATION\nB.Sc in Physics, Delhi University, 2015\nGPA: 3.8/4.0")
		require.Len(t, entries, 1)
		assert.Equal(t, "BSc", entries[0].Degree)
		assert.Equal(t, "Physics", entries[0].Field)
		assert.Equal(t, "Delhi University", entries[0].Institution)
		assert.Equal(t, "2015", entries[0].Year)
		assert.Equal(t, "3.8/4.0", entries[0].GPA)
	})

	t.Run("school level stream and institution", func(t *testing.T) {
		text := "EDUCATION\n12th (Science) - Delhi Public School, 2016\nClass X, St. Mary's Convent School, 2014"
		entries := extractEducation(text)
		require.Len(t, entries, 2)
		assert.Equal(t, "12th Grade", entries[0].Degree)
		assert.Equal(t, "Science", entries[0].Field)
		assert.Equal(t, "Delhi Public School", entries[0].Institution)
		assert.Equal(t, "2016", entries[0].Year)
		assert.Equal(t, "10th Grade", entries[1].Degree)
		assert.Equal(t, "St. Mary's Convent School", entries[1].Institution)
		assert.Equal(t, "2014", entries[1].Year)
	})

	t.Run("year backfill", func(t *testing.T) {
		entries := extractEducation("EDUCATION\n2014 - 2018\nMBA from Harvard Business School\n")
		require.Len(t, entries, 1)
		assert.Equal(t, "MBA", entries[0].Degree)
		assert.Equal(t, "Harvard Business School", entries[0].Institution)
		assert.Equal(t, "2014 - 2018", entries[0].Year)
	})

	t.Run("trailing year is not an institution", func(t *testing.T) {
		entries := extractEducation("EDUCATION\nBSc in Physics, 2012")
		require.Len(t, entries, 1)
		assert.Equal(t, "BSc", entries[0].Degree)
		assert.Equal(t, "Physics", entries[0].Field)
		assert.Empty(t, entries[0].Institution)
		assert.Equal(t, "2012", entries[0].Year)
	})

	t.Run("degree alone is dropped", func(t *testing.T) {
		assert.Empty(t, extractEducation("EDUCATION\nMCA\n"))
	})
}

func TestCanonicalDegree(t *testing.T) {
	cases := map[string]string{
		"B.Sc":                   "BSc",
		"BSC":                    "BSc",
		"12TH":                   "12th Grade",
		"CLASS XII":              "12th Grade",
		"Bachelor of Technology": "BTech",
		"M.Tech":                 "MTech",
		"PhD":                    "PhD",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalDegree(in), in)
	}
}

func TestExtractProjects(t *testing.T) {
	text := "PROJECTS\nExpense Tracker App - Budgeting tool built with React and Firebase\n"
	entries := extractProjects(text)
	require.NotEmpty(t, entries)
	assert.Equal(t, "Expense Tracker App", entries[0].Title)
	assert.Equal(t, "Budgeting tool built with React and Firebase", entries[0].Description)
	assert.Equal(t, []string{"React", "Firebase"}, entries[0].Technologies)

	fallback := extractProjects("PROJECTS\nPersonal finance dashboard for students\nok\n")
	require.Len(t, fallback, 1)
	assert.Equal(t, "Personal finance dashboard for students", fallback[0].Title)
}

func TestExtractProjectsLineFallback(t *testing.T) {
	var b strings.Builder
	b.WriteString("PROJECTS\n")
	b.WriteString("Description: internal tool for the library\n")
	b.WriteString("too short\n")
	b.WriteString(strings.Repeat("very long line ", 10) + "\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "Weather data pipeline number %d\n", i)
	}

	entries := extractProjects(b.String())
	require.Len(t, entries, 8)
	assert.Equal(t, "Weather data pipeline number 1", entries[0].Title)
	assert.Equal(t, "Weather data pipeline number 8", entries[7].Title)
	for _, e := range entries {
		assert.NotContains(t, e.Title, "Description")
		assert.NotContains(t, e.Title, "very long line")
		assert.Empty(t, e.Description)
		assert.NotEmpty(t, e.ID)
	}
}

func TestExtractCertifications(t *testing.T) {
	text := "CERTIFICATIONS\nAWS Certified Solutions Architect - Amazon Web Services (2021)\nCoursera: Machine Learning\n"
	entries := extractCertifications(text)
	require.Len(t, entries, 2)
	assert.Equal(t, "AWS Certified Solutions Architect", entries[0].Name)
	assert.Equal(t, "Amazon Web Services", entries[0].Organization)
	assert.Equal(t, "2021", entries[0].Year)
	assert.Equal(t, "Machine Learning", entries[1].Name)
	assert.Equal(t, "Coursera", entries[1].Organization)
}

func TestExtractLanguages(t *testing.T) {
	entries := extractLanguages("LANGUAGES\nEnglish (Fluent), Hindi - Native, French basic")
	require.Len(t, entries, 3)
	assert.Equal(t, "English", entries[0].Language)
	assert.Equal(t, "Fluent", entries[0].Proficiency)
	assert.Equal(t, "French", entries[1].Language)
	assert.Equal(t, "Basic", entries[1].Proficiency)
	assert.Equal(t, "Hindi", entries[2].Language)
	assert.Equal(t, "Native", entries[2].Proficiency)
}

func TestExtractAchievementsHobbiesReferences(t *testing.T) {
	ach := extractAchievements("ACHIEVEMENTS\nWon first prize - National Hackathon 2019\nDean's List\n")
	require.Len(t, ach, 2)
	assert.Equal(t, "Won first prize", ach[0].Title)
	assert.Equal(t, "National Hackathon 2019", ach[0].Description)
	assert.Equal(t, "2019", ach[0].Year)
	assert.Equal(t, "Dean's List", ach[1].Title)

	assert.Equal(t, []string{"Reading", "Chess", "Hiking", "Photography"},
		extractHobbies("HOBBIES\nReading, Chess, Hiking and Photography\n"))

	assert.Equal(t, "Available upon request", extractReferences("REFERENCES\nAvailable upon request"))
	assert.Equal(t, "Available upon request", extractReferences("References will be provided upon request."))
	assert.Equal(t, "", extractReferences("References: John Doe, Manager"))
	assert.Equal(t, "", extractReferences("Reference: available upon request"), "只识别复数 references")
	assert.Equal(t, "Available upon request", extractReferences("References available upon request"))
}

func TestLabeledSkillsStopAtSectionHeading(t *testing.T) {
	for _, heading := range []string{"Experience", "Work History", "Education:"} {
		res := extractSkills("Technical Skills:\nGolang, Docker\n" + heading + "\nAcme Inc")
		assert.Contains(t, res.All, "Golang", heading)
		assert.Contains(t, res.All, "Docker", heading)
		assert.NotContains(t, res.All, strings.TrimSuffix(heading, ":"), heading)
		assert.NotContains(t, res.All, "Acme Inc", heading)
	}
}

func TestLiteralPrefilter(t *testing.T) {
	in := "ÄBC \xff Résumé SKILLS"
	out := asciiLower(in)
	assert.Len(t, out, len(in), "下标必须与原文对齐")
	assert.Equal(t, "Äbc \xff résumé skills", out)

	assert.Equal(t, []string{"work", "experience", "a", "b"}, literalHints([]string{"work experience", "experience", "a|b"}))

	l := newLocator([]string{"projects"}, []string{"skills"}, 50)
	_, ok := l.locate(strings.Repeat("x", 1000))
	assert.False(t, ok)
	assert.Equal(t, "Chess bot", l.window("Projects: Chess bot"))
}
