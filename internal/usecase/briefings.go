package usecase

import (
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

// roleTopics lists candidate interview topics per role and language. Order
// matters: round r leans on topic (r-1) when a fallback question is needed.
var roleTopics = map[domain.RoleCategory]map[domain.Language][]string{
	domain.RoleFrontend: {
		domain.LangEN: {"rendering performance and the browser event loop", "state management and component design", "build tooling, bundling and code splitting", "accessibility and cross-browser compatibility"},
		domain.LangZH: {"渲染性能与浏览器事件循环", "状态管理与组件设计", "构建工具、打包与代码分割", "可访问性与浏览器兼容"},
	},
	domain.RoleBackend: {
		domain.LangEN: {"API design and service boundaries", "database modelling, indexing and transactions", "concurrency, caching and consistency", "observability and handling production incidents"},
		domain.LangZH: {"API 设计与服务边界", "数据库建模、索引与事务", "并发、缓存与一致性", "可观测性与线上故障处理"},
	},
	domain.RoleFullstack: {
		domain.LangEN: {"end-to-end feature delivery across client and server", "API contracts between frontend and backend", "data modelling and persistence choices", "deployment and performance across the stack"},
		domain.LangZH: {"前后端端到端的功能交付", "前后端之间的接口约定", "数据建模与存储选型", "全链路的部署与性能"},
	},
	domain.RoleMobile: {
		domain.LangEN: {"app lifecycle and memory management", "offline support and data synchronisation", "UI performance and smooth scrolling", "release process and crash monitoring"},
		domain.LangZH: {"应用生命周期与内存管理", "离线支持与数据同步", "界面性能与流畅度", "发布流程与崩溃监控"},
	},
	domain.RoleDevOps: {
		domain.LangEN: {"container orchestration and scheduling", "CI/CD pipelines and release safety", "infrastructure as code", "monitoring, alerting and incident response"},
		domain.LangZH: {"容器编排与调度", "CI/CD 流水线与发布安全", "基础设施即代码", "监控告警与应急响应"},
	},
	domain.RoleData: {
		domain.LangEN: {"data modelling and SQL proficiency", "data pipelines and quality checks", "statistics and experiment analysis", "model training, evaluation and deployment"},
		domain.LangZH: {"数据建模与 SQL 能力", "数据管道与质量校验", "统计与实验分析", "模型训练、评估与上线"},
	},
	domain.RoleProduct: {
		domain.LangEN: {"discovering and prioritising user needs", "writing requirements and defining scope", "metrics and measuring product success", "working with engineering and design"},
		domain.LangZH: {"用户需求挖掘与优先级", "需求文档与范围界定", "指标体系与效果衡量", "与研发和设计的协作"},
	},
	domain.RoleDesign: {
		domain.LangEN: {"design process from research to delivery", "interaction patterns and usability", "design systems and consistency", "validating designs with users"},
		domain.LangZH: {"从调研到交付的设计流程", "交互模式与可用性", "设计系统与一致性", "用户验证设计方案"},
	},
	domain.RoleOperations: {
		domain.LangEN: {"growth channels and acquisition", "content planning and community engagement", "campaign design and measurement", "user retention and lifecycle operations"},
		domain.LangZH: {"增长渠道与拉新", "内容策划与社区运营", "活动策划与效果评估", "用户留存与生命周期运营"},
	},
	domain.RoleGeneral: {
		domain.LangEN: {"the most challenging project on the resume", "problem solving and decision making", "collaboration and communication", "learning new skills and career goals"},
		domain.LangZH: {"简历中最有挑战的项目", "问题解决与决策", "团队协作与沟通", "学习能力与职业规划"},
	},
}

func topicsFor(role domain.RoleCategory, lang domain.Language) []string {
	byLang, ok := roleTopics[role]
	if !ok {
		byLang = roleTopics[domain.RoleGeneral]
	}
	if t, ok := byLang[lang]; ok {
		return t
	}
	return byLang[domain.LangEN]
}

// Briefing returns the static topic briefing injected into question prompts.
func Briefing(role domain.RoleCategory, lang domain.Language) string {
	var b strings.Builder
	if lang == domain.LangZH {
		b.WriteString("候选人方向：")
	} else {
		b.WriteString("Candidate track: ")
	}
	b.WriteString(string(role))
	b.WriteByte('\n')
	if lang == domain.LangZH {
		b.WriteString("可考察的主题：\n")
	} else {
		b.WriteString("Suggested interview topics:\n")
	}
	for _, t := range topicsFor(role, lang) {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return b.String()
}

// focusTopic picks the topic a round leans on.
func focusTopic(role domain.RoleCategory, lang domain.Language, round int) string {
	topics := topicsFor(role, lang)
	if round < 1 {
		round = 1
	}
	return topics[(round-1)%len(topics)]
}
