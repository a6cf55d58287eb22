package ai

import "strings"

// refusalLeadRunes bounds how far into a response LooksLikeRefusal looks.
// Refusals open with the apology; a question that mentions "policy" halfway
// through is not one.
const refusalLeadRunes = 80

var refusalIndicators = []string{
	"i'm sorry", "i am sorry", "i apologize",
	"i cannot", "i can't", "i can not",
	"i'm unable", "i am unable", "i'm not able",
	"as an ai", "as a language model",
	"抱歉", "对不起", "很遗憾",
	"作为一个ai", "作为ai", "作为人工智能", "作为一个人工智能",
	"我无法", "我不能",
}

// LooksLikeRefusal reports whether a model response opens like a refusal
// instead of doing the task.
func LooksLikeRefusal(s string) bool {
	lead := []rune(strings.ToLower(strings.TrimSpace(s)))
	if len(lead) > refusalLeadRunes {
		lead = lead[:refusalLeadRunes]
	}
	head := strings.ReplaceAll(string(lead), "’", "'")
	for _, ind := range refusalIndicators {
		if strings.Contains(head, ind) {
			return true
		}
	}
	return false
}
