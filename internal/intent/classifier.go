package intent

import (
	"strings"
	"time"
)

// Message is one prior conversation turn, passed along for future
// context-aware classification.
type Message struct {
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// Flags is the set of learning-flow intents detected in a message.
// Several can be true at once; precedence is the orchestrator's call.
type Flags struct {
	WantsNextTopic        bool
	ConfirmsUnderstanding bool
	NeedsMoreExplanation  bool
	WantsToCompleteTopic  bool
	SatisfiedWithTopic    bool
	WantsConfirmation     bool
	SaysNoNeedHelp        bool
}

var nextTopicPhrases = []string{
	"next topic", "next step", "what's next", "continue", "move on", "proceed",
	"go to next", "advance", "ready for next", "next lesson",
}

var understandingPhrases = []string{
	"yes", "got it", "understand", "clear", "makes sense", "i know", "learned",
	"understood", "ok", "okay", "right", "correct", "good", "thanks",
	"i understand this topic", "i get it",
}

var moreExplanationPhrases = []string{
	"no", "don't understand", "confused", "explain more", "not clear",
	"can you explain", "i don't get it", "more details", "elaborate",
	"need help", "still confused", "more examples", "i need more explanation",
}

var completionPhrases = []string{
	"i'm done", "completed", "finished", "mastered", "ready to move on",
	"i know this now", "learned this", "understand this topic",
}

var satisfactionPhrases = []string{
	"satisfied", "good enough", "ready", "confident", "comfortable",
	"i am satisfied", "add to profile", "add to my profile",
	"i am satisfied with this topic", "ready to add it to my profile",
}

var confirmationPhrases = []string{
	"yes", "yeah", "yep", "sure", "of course", "definitely", "absolutely",
}

var noHelpPhrases = []string{
	"no", "nope", "not really", "i'm good", "no thanks", "no need",
}

// Classify maps free text to learning-flow flags. Matching is substring
// based and case-insensitive; the first hit per table sets the flag.
// History is accepted for future context use; the current pass only
// scans the latest message.
func Classify(text string, _ []Message) Flags {
	t := strings.ToLower(strings.TrimSpace(text))
	return Flags{
		WantsNextTopic:        matchAny(t, nextTopicPhrases),
		ConfirmsUnderstanding: matchAny(t, understandingPhrases),
		NeedsMoreExplanation:  matchAny(t, moreExplanationPhrases),
		WantsToCompleteTopic:  matchAny(t, completionPhrases),
		SatisfiedWithTopic:    matchAny(t, satisfactionPhrases),
		WantsConfirmation:     matchAny(t, confirmationPhrases),
		SaysNoNeedHelp:        matchAny(t, noHelpPhrases),
	}
}

func matchAny(t string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
