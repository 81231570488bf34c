// Package skills expands skill names through three layers (canonical
// dictionary, bilingual mapping, variant groups) so that a requirement
// written as "机器学习" matches a candidate listing "Machine Learning".
package skills

import "strings"

// canonical lists the skills the matcher recognizes as first-class
// entries across programming languages, frameworks, data platforms,
// cloud services and ML tooling.
var canonical = []string{
	// Programming languages
	"python", "java", "go", "rust", "c", "c++", "c#", "javascript", "typescript",
	"ruby", "php", "swift", "kotlin", "scala", "r", "matlab", "perl", "lua", "shell", "sql",
	// Web frameworks
	"django", "flask", "fastapi", "spring", "spring boot", "gin", "express",
	"react", "vue", "angular", "next.js", "node.js", "rails", "laravel",
	// Data platforms
	"mysql", "postgresql", "oracle", "sql server", "mongodb", "redis",
	"elasticsearch", "clickhouse", "hive", "hbase", "cassandra", "neo4j",
	"kafka", "rabbitmq", "rocketmq", "pulsar", "spark", "flink", "hadoop", "airflow",
	// Cloud and infrastructure
	"docker", "kubernetes", "aws", "azure", "gcp", "aliyun", "terraform",
	"ansible", "jenkins", "git", "linux", "nginx", "prometheus", "grafana",
	// ML tooling
	"pytorch", "tensorflow", "keras", "scikit-learn", "pandas", "numpy",
	"hugging face", "transformers", "langchain", "llamaindex", "opencv",
	"xgboost", "lightgbm", "onnx", "triton", "cuda",
	// Practices
	"microservices", "rest", "grpc", "graphql", "ci/cd", "tdd", "agile",
}

// bilingual maps Chinese skill names to their English canonical form.
// Expansion applies the mapping in both directions.
var bilingual = map[string]string{
	"机器学习":   "machine learning",
	"深度学习":   "deep learning",
	"强化学习":   "reinforcement learning",
	"自然语言处理": "nlp",
	"计算机视觉":  "computer vision",
	"数据挖掘":   "data mining",
	"数据分析":   "data analysis",
	"数据仓库":   "data warehouse",
	"大数据":    "big data",
	"人工智能":   "artificial intelligence",
	"大模型":    "llm",
	"大语言模型":  "llm",
	"神经网络":   "neural network",
	"知识图谱":   "knowledge graph",
	"推荐系统":   "recommendation system",
	"搜索引擎":   "search engine",
	"语音识别":   "speech recognition",
	"图像识别":   "image recognition",
	"微服务":    "microservices",
	"分布式系统":  "distributed systems",
	"分布式":    "distributed systems",
	"高并发":    "high concurrency",
	"消息队列":   "message queue",
	"缓存":     "cache",
	"数据库":    "database",
	"关系型数据库": "relational database",
	"容器化":    "docker",
	"云计算":    "cloud computing",
	"云原生":    "cloud native",
	"运维":     "devops",
	"自动化测试":  "test automation",
	"单元测试":   "unit testing",
	"性能优化":   "performance optimization",
	"网络安全":   "security",
	"爬虫":     "web scraping",
	"网络爬虫":   "web scraping",
	"前端":     "frontend",
	"后端":     "backend",
	"全栈":     "full stack",
	"算法":     "algorithms",
	"数据结构":   "data structures",
	"设计模式":   "design patterns",
	"敏捷开发":   "agile",
	"项目管理":   "project management",
	"需求分析":   "requirements analysis",
}

// variants groups alternate spellings of the same skill. The first entry
// is the canonical spelling.
var variants = [][]string{
	{"javascript", "js", "java script"},
	{"typescript", "ts"},
	{"python", "python3", "py"},
	{"go", "golang"},
	{"c++", "cpp", "cplusplus"},
	{"c#", "csharp", ".net", "dotnet"},
	{"node.js", "nodejs", "node"},
	{"vue", "vuejs", "vue.js"},
	{"react", "reactjs", "react.js"},
	{"next.js", "nextjs"},
	{"postgresql", "postgres", "pgsql"},
	{"mysql", "mariadb"},
	{"mongodb", "mongo"},
	{"elasticsearch", "es", "elastic search"},
	{"kubernetes", "k8s"},
	{"machine learning", "ml"},
	{"deep learning", "dl"},
	{"nlp", "natural language processing"},
	{"artificial intelligence", "ai"},
	{"llm", "large language model", "large language models"},
	{"scikit-learn", "sklearn"},
	{"ci/cd", "cicd", "ci cd"},
}

var variantIndex map[string][]string

func init() {
	variantIndex = make(map[string][]string)
	for _, group := range variants {
		for _, v := range group {
			variantIndex[v] = group
		}
	}
}

// Normalize lowercases and trims a skill name
func Normalize(skill string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(skill))), " ")
}

// Expand returns every name a skill is known under: its normalized form,
// its bilingual counterpart, and all spelling variants of either.
func Expand(skill string) map[string]struct{} {
	out := make(map[string]struct{})
	add := func(s string) {
		if s != "" {
			out[s] = struct{}{}
		}
	}

	n := Normalize(skill)
	add(n)

	// Bilingual layer, both directions
	if en, ok := bilingual[n]; ok {
		add(en)
		n = en
	} else {
		for zh, en := range bilingual {
			if en == n {
				add(zh)
			}
		}
	}

	// Variant layer
	if group, ok := variantIndex[n]; ok {
		for _, v := range group {
			add(v)
		}
	}

	return out
}

// IsCanonical reports whether the normalized skill is a dictionary entry
func IsCanonical(skill string) bool {
	n := Normalize(skill)
	for _, c := range canonical {
		if c == n {
			return true
		}
	}
	return false
}

// MatchResult is the outcome of matching a job's required skills against
// a candidate's skill set
type MatchResult struct {
	Matched  []string
	Required int
}

// Match records a hit when any expansion of a required skill appears in
// any expansion of the candidate's skills.
func Match(required, candidate []string) MatchResult {
	candidateSet := make(map[string]struct{})
	for _, skill := range candidate {
		for name := range Expand(skill) {
			candidateSet[name] = struct{}{}
		}
	}

	res := MatchResult{Required: len(required)}
	for _, req := range required {
		for name := range Expand(req) {
			if _, ok := candidateSet[name]; ok {
				res.Matched = append(res.Matched, Normalize(req))
				break
			}
		}
	}
	return res
}

// Score converts a match result into the skill dimension score:
// matched/required clamped to [0,1], plus a bonus of 0.05 per surplus
// candidate skill beyond the required count, capped at +0.25.
func Score(res MatchResult, candidateCount int) float64 {
	if res.Required == 0 {
		return 0.5
	}

	score := float64(len(res.Matched)) / float64(res.Required)
	if score > 1 {
		score = 1
	}

	if surplus := candidateCount - res.Required; surplus > 0 {
		bonus := 0.05 * float64(surplus)
		if bonus > 0.25 {
			bonus = 0.25
		}
		score += bonus
	}

	if score > 1 {
		score = 1
	}
	return score
}
