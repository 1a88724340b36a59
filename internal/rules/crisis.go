// Package rules holds the pure decision tables of the check-in service: crisis
// keyword detection, risk assessment, response selection, intake summaries,
// conversation pattern analysis and the voice stress heuristic.
package rules

import "strings"

// CrisisKeywords is the single list consulted by both risk assessment and the
// support chat. Entries are lower case.
var CrisisKeywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"want to die",
	"better off dead",
	"no reason to live",
	"nothing to live for",
	"not worth living",
	"self-harm",
	"self harm",
	"hurt myself",
	"harm myself",
	"cut myself",
	"cutting",
	"overdose",
	"end it all",
	"can't go on",
}

// CrisisResources is appended to any support reply whose latest user turn
// matches a crisis keyword.
const CrisisResources = "\n\nI'm concerned about your safety. Please reach out now:\n" +
	"• 988 Suicide & Crisis Lifeline: call or text 988\n" +
	"• Crisis Text Line: text HELLO to 741741\n" +
	"• Emergency: call 911"

// DetectCrisis reports whether text contains any crisis keyword, ignoring case.
func DetectCrisis(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range CrisisKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchedCrisisKeywords returns every keyword contained in text, in list order.
func MatchedCrisisKeywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range CrisisKeywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}
