package service

import (
	"strings"

	"github.com/andreypavlenko/autoapply/internal/platform/llm"
)

// Section headers recognized by the heuristic splitter, checked in order.
var (
	responsibilityHeaders = []string{"岗位职责", "工作职责", "职位描述", "工作内容", "responsibilities", "what you will do"}
	requirementHeaders    = []string{"任职要求", "岗位要求", "职位要求", "任职资格", "requirements", "qualifications"}
	skillHeaders          = []string{"技能要求", "技术栈", "skills"}
)

// fallbackExtract is the degraded path used when the structured
// extractor capability fails: split the description on known section
// headers and bullet markers.
func fallbackExtract(description string) *llm.JobStructure {
	out := &llm.JobStructure{}

	lines := strings.Split(description, "\n")
	section := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case matchesHeader(line, responsibilityHeaders):
			section = "responsibility"
			continue
		case matchesHeader(line, requirementHeaders):
			section = "requirement"
			continue
		case matchesHeader(line, skillHeaders):
			section = "skills"
			continue
		}

		item := trimBullet(line)
		if item == "" {
			continue
		}
		switch section {
		case "responsibility":
			out.Responsibilities = append(out.Responsibilities, item)
		case "requirement":
			out.Requirements = append(out.Requirements, item)
		case "skills":
			out.Skills = append(out.Skills, splitSkills(item)...)
		}
	}

	// Requirements often carry the skills when no dedicated section exists
	if len(out.Skills) == 0 {
		out.Skills = skillsFromLines(out.Requirements)
	}
	return out
}

func matchesHeader(line string, headers []string) bool {
	lower := strings.ToLower(line)
	for _, h := range headers {
		if strings.Contains(lower, h) && len([]rune(line)) <= len([]rune(h))+12 {
			return true
		}
	}
	return false
}

var bulletPrefixes = []string{"-", "*", "•", "·", "●"}

func trimBullet(line string) string {
	for _, p := range bulletPrefixes {
		line = strings.TrimPrefix(line, p)
	}
	// Numbered bullets: "1.", "2、", "(3)"
	line = strings.TrimLeft(line, "0123456789.、()（） ")
	return strings.TrimSpace(line)
}

func splitSkills(item string) []string {
	var skills []string
	for _, part := range strings.FieldsFunc(item, func(r rune) bool {
		return r == ',' || r == '，' || r == '、' || r == '/' || r == ';' || r == '；'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			skills = append(skills, part)
		}
	}
	return skills
}

// skillsFromLines pulls short comma-separated fragments out of
// requirement lines as a last-resort skill list
func skillsFromLines(lines []string) []string {
	var skills []string
	for _, line := range lines {
		for _, part := range splitSkills(line) {
			if len([]rune(part)) <= 20 && !strings.ContainsAny(part, "。.") {
				skills = append(skills, part)
			}
		}
	}
	if len(skills) > 15 {
		skills = skills[:15]
	}
	return skills
}
