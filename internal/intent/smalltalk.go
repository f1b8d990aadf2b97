package intent

import "strings"

var greetingWords = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"howdy", "greetings",
}

var smallTalkPhrases = []string{
	"how are you", "what's up", "whats up", "who are you", "what can you do",
	"thank you", "thanks", "bye", "goodbye", "see you",
}

// DSA vocabulary that overrides the small-talk shortcut. "hi, can you
// explain graphs" is a learning query, not a greeting.
var dsaIndicators = []string{
	"algorithm", "data structure", "array", "list", "tree", "graph", "stack",
	"queue", "heap", "hash", "sort", "search", "complexity", "recursion",
	"dynamic programming", "learn", "explain", "teach", "path",
}

// IsSmallTalk reports whether the message is a greeting or pleasantry
// that deserves a canned reply instead of the learning pipeline.
func IsSmallTalk(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, ind := range dsaIndicators {
		if strings.Contains(t, ind) {
			return false
		}
	}
	if len(t) <= 20 {
		for _, g := range greetingWords {
			if strings.Contains(t, g) {
				return true
			}
		}
	}
	for _, p := range smallTalkPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
