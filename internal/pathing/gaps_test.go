package pathing

import (
	"reflect"
	"testing"

	"github.com/knograph/knograph-backend/internal/knowledge"
)

func gapsGraph() *knowledge.Graph {
	return knowledge.NewGraph([]knowledge.Node{
		{ID: "arrays", Name: "Arrays", Kind: knowledge.KindTopic},
		{ID: "sorting", Name: "Sorting", Kind: knowledge.KindTopic},
		{ID: "sorting.bubble", Name: "Bubble Sort", Kind: knowledge.KindSubtopic, ParentTopicID: "sorting"},
		{ID: "sorting.merge", Name: "Merge Sort", Kind: knowledge.KindSubtopic, ParentTopicID: "sorting"},
		{ID: "sorting.quick", Name: "Quick Sort", Kind: knowledge.KindSubtopic, ParentTopicID: "sorting"},
		{ID: "arrays.traversal", Name: "Array Traversal", Kind: knowledge.KindSubtopic, ParentTopicID: "arrays"},
	}, []knowledge.Edge{
		{Source: "sorting", Target: "sorting.bubble", Relation: knowledge.RelationContains},
		{Source: "sorting", Target: "sorting.merge", Relation: knowledge.RelationContains},
		{Source: "sorting", Target: "sorting.quick", Relation: knowledge.RelationContains},
		{Source: "sorting.bubble", Target: "sorting.merge", Relation: knowledge.RelationPrerequisite},
		{Source: "sorting.merge", Target: "sorting.quick", Relation: knowledge.RelationSequence},
		{Source: "arrays.traversal", Target: "sorting.bubble", Relation: knowledge.RelationPrerequisite},
	})
}

func TestSubtopicGapsPriorityOrder(t *testing.T) {
	g := gapsGraph()
	e := testEngine(t)

	// bubble is known; merge gets an inbound prerequisite bonus from
	// it, quick only an inbound sequence from unknown merge.
	known := map[string]bool{"sorting.bubble": true}
	ga := e.SubtopicGaps(g, known, "sorting")

	if !reflect.DeepEqual(ga.RecommendedSubtopics, []string{"sorting.merge", "sorting.quick"}) {
		t.Fatalf("RecommendedSubtopics=%v, want merge before quick", ga.RecommendedSubtopics)
	}
	want := float64(1) / float64(3) * 100
	if ga.CompletionPercentage != want {
		t.Fatalf("CompletionPercentage=%v, want %v", ga.CompletionPercentage, want)
	}
}

func TestSubtopicGapsMissingPrerequisites(t *testing.T) {
	g := gapsGraph()
	e := testEngine(t)

	ga := e.SubtopicGaps(g, map[string]bool{}, "sorting")
	if !reflect.DeepEqual(ga.MissingPrerequisites, []string{"arrays.traversal"}) {
		t.Fatalf("MissingPrerequisites=%v, want [arrays.traversal]", ga.MissingPrerequisites)
	}
}

func TestSubtopicGapsFullyKnown(t *testing.T) {
	g := gapsGraph()
	e := testEngine(t)

	known := map[string]bool{
		"sorting.bubble": true,
		"sorting.merge":  true,
		"sorting.quick":  true,
	}
	ga := e.SubtopicGaps(g, known, "sorting")
	if ga.CompletionPercentage != 100 {
		t.Fatalf("CompletionPercentage=%v, want 100", ga.CompletionPercentage)
	}
	if len(ga.RecommendedSubtopics) != 0 {
		t.Fatalf("RecommendedSubtopics=%v, want empty", ga.RecommendedSubtopics)
	}
}

func TestSubtopicGapsNoSubtopics(t *testing.T) {
	g := gapsGraph()
	e := testEngine(t)

	ga := e.SubtopicGaps(g, map[string]bool{}, "arrays")
	// arrays has one subtopic via parent linkage; nothing known.
	if ga.CompletionPercentage != 0 {
		t.Fatalf("CompletionPercentage=%v, want 0", ga.CompletionPercentage)
	}
	if !reflect.DeepEqual(ga.RecommendedSubtopics, []string{"arrays.traversal"}) {
		t.Fatalf("RecommendedSubtopics=%v, want [arrays.traversal]", ga.RecommendedSubtopics)
	}
}
