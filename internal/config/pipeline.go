package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PipelineConfig holds the behavioral configuration of the pipeline,
// loaded from a yaml file. Unknown keys are rejected at load time.
type PipelineConfig struct {
	Extract   ExtractConfig   `yaml:"extract"`
	Process   ProcessConfig   `yaml:"process"`
	Match     MatchConfig     `yaml:"match"`
	Decide    DecideConfig    `yaml:"decide"`
	Submit    SubmitConfig    `yaml:"submit"`
	Control   ControlConfig   `yaml:"control"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

// ExtractConfig configures the extraction stage
type ExtractConfig struct {
	Sites          []SiteConfig  `yaml:"sites"`
	MaxPages       int           `yaml:"max_pages"`
	MinDelay       time.Duration `yaml:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	MaxCardFails   int           `yaml:"max_card_fails"`
	SalaryFilterOn bool          `yaml:"salary_filter_on"`
}

// SiteConfig describes one recruiting site: URL template and its
// ordered selector strategies
type SiteConfig struct {
	Name                  string   `yaml:"name"`
	SearchURLTemplate     string   `yaml:"search_url_template"`
	CardSelectors         []string `yaml:"card_selectors"`
	TitleSelector         string   `yaml:"title_selector"`
	CompanySelector       string   `yaml:"company_selector"`
	SalarySelector        string   `yaml:"salary_selector"`
	LocationSelector      string   `yaml:"location_selector"`
	DescriptionSelector   string   `yaml:"description_selector"`
	NextPageSelector      string   `yaml:"next_page_selector"`
	PageNumberSelector    string   `yaml:"page_number_selector"`
	SalaryFilterSelectors []string `yaml:"salary_filter_selectors"`
	ApplySelectors        []string `yaml:"apply_selectors"`
}

// ProcessConfig configures the structured-processing stage
type ProcessConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// MatchConfig configures the matching stage
type MatchConfig struct {
	Workers         int                `yaml:"workers"`
	SearchStrategy  string             `yaml:"search_strategy"`
	TopSkills       int                `yaml:"top_skills"`
	SearchK         int                `yaml:"search_k"`
	Weights         DimensionWeights   `yaml:"weights"`
	DocTypeWeights  map[string]float64 `yaml:"doc_type_weights"`
}

// DimensionWeights are the weights of the match score dimensions
type DimensionWeights struct {
	Semantic   float64 `yaml:"semantic"`
	Skill      float64 `yaml:"skill"`
	Experience float64 `yaml:"experience"`
	Salary     float64 `yaml:"salary"`
	Industry   float64 `yaml:"industry"`
}

// DecideConfig configures the decision engine
type DecideConfig struct {
	MinSalaryScore        float64            `yaml:"min_salary_score"`
	SeniorSalaryScore     float64            `yaml:"senior_salary_score"`
	EntrySalaryScore      float64            `yaml:"entry_salary_score"`
	SeniorKeywords        []string           `yaml:"senior_keywords"`
	EntryKeywords         []string           `yaml:"entry_keywords"`
	PriorityWeights       map[string]float64 `yaml:"priority_weights"`
	MaxSubmissionsPerDay  int                `yaml:"max_submissions_per_day"`
	RejectionWindow       int                `yaml:"rejection_window"`
	InitialRejectionRate  float64            `yaml:"initial_rejection_rate"`
}

// SubmitConfig configures the submission stage
type SubmitConfig struct {
	MinDelay           time.Duration `yaml:"min_delay"`
	MaxDelay           time.Duration `yaml:"max_delay"`
	BatchRestEvery     int           `yaml:"batch_rest_every"`
	BatchRestMin       time.Duration `yaml:"batch_rest_min"`
	BatchRestMax       time.Duration `yaml:"batch_rest_max"`
	KeepAliveInterval  time.Duration `yaml:"keep_alive_interval"`
	ReloginTimeout     time.Duration `yaml:"relogin_timeout"`
	DryRun             bool          `yaml:"dry_run"`
	SuspendedPhrases   []string      `yaml:"suspended_phrases"`
	ExpiredPhrases     []string      `yaml:"expired_phrases"`
	LoginPhrases       []string      `yaml:"login_phrases"`
	AppliedIndicators  []string      `yaml:"applied_indicators"`
	DisabledIndicators []string      `yaml:"disabled_indicators"`
	ApplyVerbs         []string      `yaml:"apply_verbs"`
}

// ControlConfig configures the master controller
type ControlConfig struct {
	CheckpointInterval int           `yaml:"checkpoint_interval"`
	StageTimeout       time.Duration `yaml:"stage_timeout"`
}

// ScheduleConfig configures automated daily runs
type ScheduleConfig struct {
	Cron     string   `yaml:"cron"`
	Keywords []string `yaml:"keywords"`
}

// DefaultPipelineConfig returns the pipeline defaults documented in the
// configuration reference
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Extract: ExtractConfig{
			MaxPages:       10,
			MinDelay:       2 * time.Second,
			MaxDelay:       5 * time.Second,
			MaxCardFails:   10,
			SalaryFilterOn: true,
		},
		Process: ProcessConfig{
			BatchSize: 25,
			Workers:   4,
		},
		Match: MatchConfig{
			Workers:        8,
			SearchStrategy: "hybrid",
			TopSkills:      10,
			SearchK:        10,
			Weights: DimensionWeights{
				Semantic:   0.40,
				Skill:      0.30,
				Experience: 0.20,
				Salary:     0.10,
				Industry:   0.0,
			},
			DocTypeWeights: map[string]float64{
				"overview":           0.30,
				"responsibility":     0.25,
				"requirement":        0.25,
				"skills":             0.15,
				"basic_requirements": 0.05,
			},
		},
		Decide: DecideConfig{
			MinSalaryScore:    0.30,
			SeniorSalaryScore: 0.50,
			EntrySalaryScore:  0.20,
			SeniorKeywords:    []string{"架构师", "总监", "专家", "architect", "director", "senior", "staff", "principal"},
			EntryKeywords:     []string{"实习", "初级", "助理", "intern", "junior", "entry"},
			PriorityWeights: map[string]float64{
				"match_score":   0.35,
				"reputation":    0.15,
				"salary":        0.20,
				"location":      0.15,
				"career_growth": 0.10,
				"competition":   0.05,
			},
			MaxSubmissionsPerDay: 50,
			RejectionWindow:      50,
			InitialRejectionRate: 0.9,
		},
		Submit: SubmitConfig{
			MinDelay:          3 * time.Second,
			MaxDelay:          8 * time.Second,
			BatchRestEvery:    10,
			BatchRestMin:      2 * time.Minute,
			BatchRestMax:      5 * time.Minute,
			KeepAliveInterval: 30 * time.Second,
			ReloginTimeout:    3 * time.Minute,
			SuspendedPhrases:  []string{"很抱歉，你选择的职位目前已经暂停招聘", "职位已暂停", "停止招聘"},
			ExpiredPhrases:    []string{"职位已过期", "职位已下线", "该职位已结束招聘"},
			LoginPhrases:      []string{"请先登录", "登录后查看", "login required"},
			AppliedIndicators: []string{"已申请", "已投递", "已沟通"},
			DisabledIndicators: []string{"off", "disabled"},
			ApplyVerbs:         []string{"申请", "投递", "沟通", "apply"},
		},
		Control: ControlConfig{
			CheckpointInterval: 20,
			StageTimeout:       time.Hour,
		},
	}
}

// LoadPipelineConfig reads a pipeline config file, applies it over the
// defaults, and validates the result. Unknown keys are an error.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open pipeline config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse pipeline config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on programmer errors in the configuration
func (c *PipelineConfig) Validate() error {
	switch c.Match.SearchStrategy {
	case "hybrid", "fresh_first", "balanced":
	default:
		return fmt.Errorf("invalid search_strategy %q", c.Match.SearchStrategy)
	}

	w := c.Match.Weights
	sum := w.Semantic + w.Skill + w.Experience + w.Salary + w.Industry
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("match weights must sum to 1, got %.3f", sum)
	}

	if c.Decide.MinSalaryScore < 0 || c.Decide.MinSalaryScore > 1 {
		return fmt.Errorf("min_salary_score must be in [0,1], got %.2f", c.Decide.MinSalaryScore)
	}
	if c.Decide.MaxSubmissionsPerDay <= 0 {
		return fmt.Errorf("max_submissions_per_day must be positive")
	}

	if c.Extract.MinDelay > c.Extract.MaxDelay {
		return fmt.Errorf("extract min_delay exceeds max_delay")
	}
	if c.Submit.MinDelay > c.Submit.MaxDelay {
		return fmt.Errorf("submit min_delay exceeds max_delay")
	}
	for _, site := range c.Extract.Sites {
		if site.Name == "" {
			return fmt.Errorf("site name is required")
		}
		if len(site.CardSelectors) == 0 {
			return fmt.Errorf("site %s has no card selectors", site.Name)
		}
		if len(site.ApplySelectors) == 0 {
			return fmt.Errorf("site %s has no apply selectors", site.Name)
		}
	}
	if c.Process.Workers <= 0 || c.Match.Workers <= 0 {
		return fmt.Errorf("worker counts must be positive")
	}
	return nil
}

// Site returns the configuration of a site by tag
func (c *PipelineConfig) Site(name string) (*SiteConfig, bool) {
	for i := range c.Extract.Sites {
		if c.Extract.Sites[i].Name == name {
			return &c.Extract.Sites[i], true
		}
	}
	return nil, false
}
