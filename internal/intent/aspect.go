package intent

import "strings"

// Aspect is the angle of a follow-up question about the current topic.
type Aspect string

const (
	AspectGeneral        Aspect = "general"
	AspectExample        Aspect = "example"
	AspectImplementation Aspect = "implementation"
	AspectUseCase        Aspect = "use_case"
	AspectComparison     Aspect = "comparison"
	AspectStepByStep     Aspect = "step_by_step"
)

var aspectPhrases = []struct {
	aspect  Aspect
	phrases []string
}{
	{AspectExample, []string{"example", "show me", "demonstrate", "sample"}},
	{AspectImplementation, []string{"implement", "code", "write", "program", "syntax"}},
	{AspectUseCase, []string{"use case", "when to use", "why use", "application", "real world"}},
	{AspectComparison, []string{"compare", "difference", "versus", " vs ", "better than"}},
	{AspectStepByStep, []string{"step by step", "walk me through", "walkthrough", "break it down"}},
}

// DetectAspect picks the explanation angle for a follow-up question.
// First matching table wins; unmatched text falls back to general.
func DetectAspect(text string) Aspect {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, row := range aspectPhrases {
		for _, p := range row.phrases {
			if strings.Contains(t, p) {
				return row.aspect
			}
		}
	}
	return AspectGeneral
}
