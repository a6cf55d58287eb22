package usecase

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

type reportLabels struct {
	Title          string
	Overall        string
	Recommendation string
	Breakdown      string
	Technical      string
	Communication  string
	ProblemSolving string
	Rounds         string
	Round          string
	Strengths      string
	Improvements   string
	Feedback       string
	Study          string
	Questions      string
	Duration       string
	None           string
	Verdicts       map[domain.Recommendation]string
}

var reportLabelsByLang = map[domain.Language]reportLabels{
	domain.LangEN: {
		Title: "Mock Interview Report", Overall: "Overall score", Recommendation: "Recommendation",
		Breakdown: "Breakdown", Technical: "Technical", Communication: "Communication", ProblemSolving: "Problem solving",
		Rounds: "Round scores", Round: "Round", Strengths: "Strengths", Improvements: "Areas to improve",
		Feedback: "Detailed feedback", Study: "Study recommendations", Questions: "Questions answered",
		Duration: "Duration", None: "None noted.",
		Verdicts: map[domain.Recommendation]string{
			domain.RecommendStrongHire: "Strong hire", domain.RecommendHire: "Hire",
			domain.RecommendMaybe: "Maybe", domain.RecommendNoHire: "No hire",
		},
	},
	domain.LangZH: {
		Title: "模拟面试报告", Overall: "总分", Recommendation: "录用建议",
		Breakdown: "分项评分", Technical: "技术能力", Communication: "沟通表达", ProblemSolving: "问题解决",
		Rounds: "各轮得分", Round: "第 N 轮", Strengths: "优势", Improvements: "待提升",
		Feedback: "详细反馈", Study: "学习建议", Questions: "已回答题目", Duration: "用时", None: "暂无。",
		Verdicts: map[domain.Recommendation]string{
			domain.RecommendStrongHire: "强烈推荐", domain.RecommendHire: "推荐",
			domain.RecommendMaybe: "待定", domain.RecommendNoHire: "不推荐",
		},
	},
}

const reportTemplate = `# {{.L.Title}}

**{{.L.Overall}}:** {{.R.OverallScore}}/100
**{{.L.Recommendation}}:** {{index .L.Verdicts .R.Recommendation}}
**{{.L.Questions}}:** {{.R.QuestionCount}} · **{{.L.Duration}}:** {{duration .R.DurationSec}}

## {{.L.Breakdown}}

| {{.L.Technical}} | {{.L.Communication}} | {{.L.ProblemSolving}} |
|---|---|---|
| {{.R.Breakdown.Technical}} | {{.R.Breakdown.Communication}} | {{.R.Breakdown.ProblemSolving}} |

## {{.L.Rounds}}
{{range $i, $s := .R.RoundScores}}
- {{roundLabel $.L.Round $i}}: {{$s}}{{end}}

## {{.L.Strengths}}
{{bullets .R.Strengths .L.None}}

## {{.L.Improvements}}
{{bullets .R.Improvements .L.None}}

## {{.L.Feedback}}

{{if .R.DetailedFeedback}}{{.R.DetailedFeedback}}{{else}}{{.L.None}}{{end}}

## {{.L.Study}}
{{bullets .R.StudyRecommendations .L.None}}
`

var reportTpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"bullets": func(items []string, none string) string {
		if len(items) == 0 {
			return "\n" + none
		}
		var b strings.Builder
		for _, it := range items {
			b.WriteString("\n- ")
			b.WriteString(it)
		}
		return b.String()
	},
	"roundLabel": func(label string, i int) string {
		n := strconv.Itoa(i + 1)
		if strings.Contains(label, "N") {
			return strings.Replace(label, "N", n, 1)
		}
		return label + " " + n
	},
	"duration": func(sec int) string {
		if sec <= 0 {
			return "-"
		}
		return fmt.Sprintf("%dm %02ds", sec/60, sec%60)
	},
}).Parse(reportTemplate))

// RenderReport expands the report into Markdown. It makes no AI call and is
// deterministic for a given report.
func RenderReport(r domain.FinalReport) (string, error) {
	l, ok := reportLabelsByLang[r.Language]
	if !ok {
		l = reportLabelsByLang[domain.LangEN]
	}
	var buf bytes.Buffer
	if err := reportTpl.Execute(&buf, struct {
		L reportLabels
		R domain.FinalReport
	}{l, r}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
