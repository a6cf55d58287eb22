package usecase

import (
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

type rolePattern struct {
	role domain.RoleCategory
	re   *regexp.Regexp
}

// keywords builds a case-folded alternation matched on token boundaries.
// Terms may contain punctuation (node.js, c++, ci/cd), so \b is not enough.
func keywords(terms ...string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?:^|[^a-z0-9])(?:` + strings.Join(quoted, "|") + `)(?:$|[^a-z0-9+#])`)
}

// rolePatterns is evaluated in order; the first match wins.
var rolePatterns = []rolePattern{
	{domain.RoleFrontend, keywords(
		"react", "redux", "vue", "vuex", "pinia", "angular", "svelte", "next.js", "nextjs", "nuxt",
		"webpack", "vite", "tailwind", "sass", "css", "html", "jquery", "前端",
	)},
	{domain.RoleBackend, keywords(
		"golang", "go", "java", "spring", "spring boot", "django", "flask", "fastapi", "node.js", "nodejs",
		"express", "nestjs", "rails", "laravel", "php", "grpc", "microservice", "microservices",
		"postgresql", "postgres", "mysql", "kafka", "rabbitmq", "asp.net", "c#", "rust", "后端",
	)},
	{domain.RoleFullstack, keywords(
		"full-stack", "fullstack", "full stack", "mern", "mean stack", "lamp", "全栈",
	)},
	{domain.RoleMobile, keywords(
		"android", "ios", "swift", "swiftui", "kotlin", "flutter", "react native", "objective-c",
		"mini program", "小程序", "移动端",
	)},
	{domain.RoleDevOps, keywords(
		"kubernetes", "k8s", "docker", "terraform", "ansible", "jenkins", "ci/cd", "helm", "prometheus",
		"sre", "devops", "aws", "gcp", "azure", "运维",
	)},
	{domain.RoleData, keywords(
		"pandas", "numpy", "spark", "hadoop", "flink", "airflow", "tensorflow", "pytorch", "scikit-learn",
		"machine learning", "deep learning", "sql", "tableau", "power bi", "etl", "data analysis",
		"数据分析", "机器学习",
	)},
	{domain.RoleProduct, keywords(
		"product manager", "product management", "prd", "roadmap", "user research", "a/b test", "axure",
		"产品经理", "需求分析",
	)},
	{domain.RoleDesign, keywords(
		"figma", "sketch", "photoshop", "illustrator", "ui design", "ux", "interaction design",
		"prototyping", "设计师", "交互设计",
	)},
	{domain.RoleOperations, keywords(
		"operations", "seo", "sem", "content marketing", "community management", "growth hacking",
		"social media", "运营", "新媒体",
	)},
}

// Classify maps a resume to a role category and its topic briefing. It is
// deterministic and performs no I/O.
func Classify(profile domain.ResumeProfile, lang domain.Language) domain.Classification {
	role := classifyRole(resumeCorpus(profile))
	return domain.Classification{Role: role, TopicBriefing: Briefing(role, lang)}
}

func classifyRole(corpus string) domain.RoleCategory {
	if strings.TrimSpace(corpus) == "" {
		return domain.RoleGeneral
	}
	for _, p := range rolePatterns {
		if p.re.MatchString(corpus) {
			return p.role
		}
	}
	return domain.RoleGeneral
}

func resumeCorpus(profile domain.ResumeProfile) string {
	var b strings.Builder
	for _, s := range profile.Skills.All() {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	for _, p := range profile.Projects {
		b.WriteString(p.Name)
		b.WriteByte('\n')
		b.WriteString(p.Description)
		b.WriteByte('\n')
		for _, t := range p.TechStack {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	}
	return strings.ToLower(b.String())
}
