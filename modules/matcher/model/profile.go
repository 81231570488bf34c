package model

// ResumeProfile is the structured candidate input to the pipeline.
// It is read-only and never persisted by the core.
type ResumeProfile struct {
	Name               string          `json:"name" yaml:"name"`
	TotalYears         float64         `json:"total_years" yaml:"total_years"`
	CurrentPosition    string          `json:"current_position" yaml:"current_position"`
	SkillCategories    []SkillCategory `json:"skill_categories" yaml:"skill_categories"`
	WorkHistory        []WorkEntry     `json:"work_history" yaml:"work_history"`
	PreferredLocations []string        `json:"preferred_locations" yaml:"preferred_locations"`
	SalaryExpectation  SalaryRange     `json:"salary_expectation" yaml:"salary_expectation"`
}

// SkillCategory groups related candidate skills
type SkillCategory struct {
	Name        string   `json:"name" yaml:"name"`
	Skills      []string `json:"skills" yaml:"skills"`
	Proficiency string   `json:"proficiency" yaml:"proficiency"`
	Years       float64  `json:"years" yaml:"years"`
}

// WorkEntry is one past position of the candidate
type WorkEntry struct {
	Company   string `json:"company" yaml:"company"`
	Position  string `json:"position" yaml:"position"`
	StartYear int    `json:"start_year" yaml:"start_year"`
	EndYear   int    `json:"end_year" yaml:"end_year"`
	Industry  string `json:"industry" yaml:"industry"`
}

// SalaryRange is a monthly salary range in yuan. A zero range means the
// expectation is unknown.
type SalaryRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// IsZero reports whether the range carries no information
func (r SalaryRange) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// AllSkills flattens the candidate's skill categories
func (p *ResumeProfile) AllSkills() []string {
	var skills []string
	for _, cat := range p.SkillCategories {
		skills = append(skills, cat.Skills...)
	}
	return skills
}

// TopSkills returns up to n skills in category order
func (p *ResumeProfile) TopSkills(n int) []string {
	skills := p.AllSkills()
	if len(skills) > n {
		skills = skills[:n]
	}
	return skills
}
