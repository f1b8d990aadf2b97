package intent

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Flags
	}{
		{
			name: "next_topic",
			text: "let's move on please",
			want: Flags{WantsNextTopic: true},
		},
		{
			name: "understanding_and_confirmation",
			text: "yes, got it",
			want: Flags{ConfirmsUnderstanding: true, WantsConfirmation: true},
		},
		{
			name: "needs_more_explanation",
			text: "I'm still confused, can you explain more",
			want: Flags{NeedsMoreExplanation: true},
		},
		{
			name: "satisfied",
			text: "I am satisfied with this topic, add it to my profile",
			want: Flags{SatisfiedWithTopic: true},
		},
		{
			name: "completion",
			text: "I have mastered this",
			want: Flags{WantsToCompleteTopic: true},
		},
		{
			name: "no_overlaps_explanation_and_help",
			text: "no",
			want: Flags{NeedsMoreExplanation: true, SaysNoNeedHelp: true},
		},
		{
			name: "neutral",
			text: "tell me about binary trees",
			want: Flags{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, nil)
			if got != tc.want {
				t.Fatalf("Classify(%q)=%+v, want %+v", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	got := Classify("NEXT TOPIC", nil)
	if !got.WantsNextTopic {
		t.Fatalf("Classify upper-cased input missed next-topic: %+v", got)
	}
}

func TestIsSmallTalk(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{name: "greeting", text: "hey there", want: true},
		{name: "pleasantry", text: "how are you doing today my friend", want: true},
		{name: "identity", text: "who are you", want: true},
		{name: "dsa_override", text: "hi, can you explain graphs", want: false},
		{name: "dsa_override_learn", text: "hello, I want to learn sorting", want: false},
		{name: "long_greeting_without_phrase", text: "well hello to everyone in this room today", want: false},
		{name: "empty", text: "", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSmallTalk(tc.text); got != tc.want {
				t.Fatalf("IsSmallTalk(%q)=%v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestDetectAspect(t *testing.T) {
	cases := []struct {
		text string
		want Aspect
	}{
		{"show me an example", AspectExample},
		{"how do I implement this in code", AspectImplementation},
		{"when to use this", AspectUseCase},
		{"what's the difference from a queue", AspectComparison},
		{"walk me through it", AspectStepByStep},
		{"I just don't get it", AspectGeneral},
	}
	for _, tc := range cases {
		if got := DetectAspect(tc.text); got != tc.want {
			t.Fatalf("DetectAspect(%q)=%s, want %s", tc.text, got, tc.want)
		}
	}
}
