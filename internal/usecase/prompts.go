package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/pkg/textx"
)

const (
	answerPromptRunes = 300
	resumeInputRunes  = 12000
)

// Every JSON prompt quotes its output keys literally; the offline stub
// provider keys its canned payloads off them.

const evaluationPromptEN = `You are a senior technical interviewer. Score the candidate's answer.

CANDIDATE BACKGROUND:
%s
QUESTION:
%s

ANSWER:
%s

Scoring guide: 90-100 excellent and precise, 75-89 solid with minor gaps,
60-74 partially correct, 40-59 shallow or vague, 0-39 wrong or missing.
An empty answer scores 0.

Return a JSON object with exactly these keys:
{"score": <integer 0-100>, "strengths": [<up to 3 short strings>], "weaknesses": [<up to 3 short strings>], "feedback": "<2-3 sentences addressed to the candidate>"}

Return ONLY the JSON object, no markdown, no explanation.`

const evaluationPromptZH = `你是一名资深技术面试官，请为候选人的回答打分。

候选人背景：
%s
问题：
%s

回答：
%s

评分参考：90-100 优秀且准确，75-89 扎实但有小缺口，60-74 部分正确，40-59 浅显或含糊，0-39 错误或未作答。
空回答记 0 分。

请返回一个 JSON 对象，且只包含以下键：
{"score": <0-100 的整数>, "strengths": [<最多 3 条简短描述>], "weaknesses": [<最多 3 条简短描述>], "feedback": "<面向候选人的 2-3 句中文反馈>"}

只返回 JSON 对象，不要 markdown，不要解释。`

func evaluationPrompt(question, answer string, profile domain.ResumeProfile, lang domain.Language) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "(no answer)"
		if lang == domain.LangZH {
			answer = "（未作答）"
		}
	}
	tpl := evaluationPromptEN
	if lang == domain.LangZH {
		tpl = evaluationPromptZH
	}
	return fmt.Sprintf(tpl, profileSummary(profile), strings.TrimSpace(question), answer)
}

var roundThemes = map[domain.Language][domain.TotalRounds]string{
	domain.LangEN: {
		"Round 1: fundamentals and the candidate's own projects.",
		"Round 2: applied problem solving and technical depth.",
		"Round 3: system design, trade-offs and experience under pressure.",
	},
	domain.LangZH: {
		"第一轮：基础知识与候选人自己的项目。",
		"第二轮：实际问题解决与技术深度。",
		"第三轮：系统设计、权衡取舍与高压下的经验。",
	},
}

func roundTheme(round int, lang domain.Language) string {
	if round < 1 {
		round = 1
	}
	if round > domain.TotalRounds {
		round = domain.TotalRounds
	}
	themes, ok := roundThemes[lang]
	if !ok {
		themes = roundThemes[domain.LangEN]
	}
	return themes[round-1]
}

// scoreRule steers the depth of the next question from the last score.
func scoreRule(last *domain.Evaluation, lang domain.Language) string {
	zh := lang == domain.LangZH
	switch {
	case last == nil:
		if zh {
			return "这是本轮的第一个问题，请给出一个开场问题。"
		}
		return "This is the opening question of the round."
	case last.Score >= 80:
		if zh {
			return fmt.Sprintf("上一题得分 %d（≥80）：沿同一主题继续深挖。", last.Score)
		}
		return fmt.Sprintf("The last answer scored %d (>= 80): go deeper on the same topic.", last.Score)
	case last.Score >= 60:
		if zh {
			return fmt.Sprintf("上一题得分 %d（60-79）：换到相关的相邻主题。", last.Score)
		}
		return fmt.Sprintf("The last answer scored %d (60-79): pivot to a related adjacent topic.", last.Score)
	default:
		if zh {
			return fmt.Sprintf("上一题得分 %d（<60）：回到该方向的基础知识。", last.Score)
		}
		return fmt.Sprintf("The last answer scored %d (< 60): return to fundamentals of this area.", last.Score)
	}
}

func questionPrompt(in QuestionInput) string {
	zh := in.Language == domain.LangZH
	var b strings.Builder
	if zh {
		b.WriteString("你是一名技术面试官，正在进行一场共三轮、每轮四题的模拟面试。\n\n")
	} else {
		b.WriteString("You are a technical interviewer running a mock interview of three rounds with four questions each.\n\n")
	}
	b.WriteString(in.Classification.TopicBriefing)
	b.WriteString("\n")
	if zh {
		b.WriteString("候选人背景：\n")
	} else {
		b.WriteString("CANDIDATE BACKGROUND:\n")
	}
	b.WriteString(profileSummary(in.Profile))
	b.WriteString("\n")
	b.WriteString(roundTheme(in.TargetRound, in.Language))
	b.WriteString("\n\n")

	if len(in.History) > 0 {
		if zh {
			b.WriteString("已进行的问答：\n")
		} else {
			b.WriteString("TRANSCRIPT SO FAR:\n")
		}
		for i, qa := range in.History {
			fmt.Fprintf(&b, "Q%d (round %d, score %d): %s\n", i+1, qa.Round, qa.Score, strings.TrimSpace(qa.Question))
			fmt.Fprintf(&b, "A%d: %s\n", i+1, textx.TruncateRunes(strings.TrimSpace(qa.Answer), answerPromptRunes, "..."))
		}
		b.WriteString("\n")
	}

	if in.LastEvaluation != nil && answersInRound(in.History, in.TargetRound) == 0 {
		if zh {
			b.WriteString("这是新一轮的第一个问题：按本轮主题出题，同时参考上一题的得分。\n")
		} else {
			b.WriteString("This question opens a new round: follow the round theme and still take the last score into account.\n")
		}
	}
	b.WriteString(scoreRule(in.LastEvaluation, in.Language))
	b.WriteString("\n\n")
	if zh {
		b.WriteString("只输出下一个问题本身：一句简短、有针对性的中文问题，不要编号，不要前缀，不要重复已问过的问题。")
	} else {
		b.WriteString("Output only the next question: one short, pointed sentence in English. No numbering, no prefix, and do not repeat earlier questions.")
	}
	return b.String()
}

const reportPromptEN = `You are a hiring panel writing the final assessment of a mock interview.

CANDIDATE BACKGROUND:
%s
Overall score (mean of all answers): %d/100

TRANSCRIPT:
%s
Return a JSON object with exactly these keys:
{"breakdown": {"technical": <0-100>, "communication": <0-100>, "problemSolving": <0-100>}, "strengths": [<up to 5 strings>], "improvements": [<up to 5 strings>], "detailedFeedback": "<one paragraph>", "studyRecommendations": [<up to 5 concrete study topics>]}

Return ONLY the JSON object, no markdown, no explanation.`

const reportPromptZH = `你是招聘评审小组，正在撰写一场模拟面试的最终评估。

候选人背景：
%s
总分（所有回答的平均分）：%d/100

面试记录：
%s
请返回一个 JSON 对象，且只包含以下键：
{"breakdown": {"technical": <0-100>, "communication": <0-100>, "problemSolving": <0-100>}, "strengths": [<最多 5 条>], "improvements": [<最多 5 条>], "detailedFeedback": "<一段中文总结>", "studyRecommendations": [<最多 5 个具体的学习主题>]}

只返回 JSON 对象，不要 markdown，不要解释。`

func reportPrompt(profile domain.ResumeProfile, history []domain.QARecord, overall int, lang domain.Language) string {
	var t strings.Builder
	for i, qa := range history {
		fmt.Fprintf(&t, "Q%d (round %d, score %d): %s\n", i+1, qa.Round, qa.Score, strings.TrimSpace(qa.Question))
		fmt.Fprintf(&t, "A%d: %s\n", i+1, textx.TruncateRunes(strings.TrimSpace(qa.Answer), answerPromptRunes, "..."))
	}
	tpl := reportPromptEN
	if lang == domain.LangZH {
		tpl = reportPromptZH
	}
	return fmt.Sprintf(tpl, profileSummary(profile), overall, t.String())
}

const resumePrompt = `Extract a structured profile from the resume below.

RESUME:
%s

Return a JSON object with exactly these keys:
{"yearsOfExperience": <integer>, "skills": {"languages": [...], "frameworks": [...], "tools": [...]}, "projects": [{"name": "...", "description": "<one sentence>", "techStack": [...]}], "focusAreas": [<up to 5 strings>]}

Keep names as written in the resume. Use %s for descriptions.
Return ONLY the JSON object, no markdown, no explanation.`

func resumeAnalysisPrompt(text string, lang domain.Language) string {
	descLang := "English"
	if lang == domain.LangZH {
		descLang = "Chinese"
	}
	return fmt.Sprintf(resumePrompt, text, descLang)
}

func profileSummary(p domain.ResumeProfile) string {
	var b strings.Builder
	if p.YearsOfExperience > 0 {
		fmt.Fprintf(&b, "Years of experience: %d\n", p.YearsOfExperience)
	}
	if s := strings.Join(p.Skills.All(), ", "); s != "" {
		fmt.Fprintf(&b, "Skills: %s\n", s)
	}
	for _, pr := range p.Projects {
		fmt.Fprintf(&b, "Project %s: %s", pr.Name, textx.TruncateRunes(strings.TrimSpace(pr.Description), answerPromptRunes, "..."))
		if len(pr.TechStack) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(pr.TechStack, ", "))
		}
		b.WriteByte('\n')
	}
	if len(p.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join(p.FocusAreas, ", "))
	}
	return b.String()
}
