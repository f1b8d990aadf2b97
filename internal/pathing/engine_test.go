package pathing

import (
	"reflect"
	"testing"

	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewEngine(log)
}

func TestFindPathAlreadyKnown(t *testing.T) {
	g := knowledge.NewGraph([]knowledge.Node{
		{ID: "arrays", Name: "Arrays", Kind: knowledge.KindTopic},
	}, nil)
	e := testEngine(t)

	result := e.FindPath(g, map[string]bool{"arrays": true}, "arrays")
	if result.Reason != ReasonAlreadyCompleted {
		t.Fatalf("Reason=%s, want %s", result.Reason, ReasonAlreadyCompleted)
	}
	if len(result.Path) != 0 {
		t.Fatalf("Path=%v, want empty", result.Path)
	}
}

func TestFindPathDirect(t *testing.T) {
	g := knowledge.NewGraph([]knowledge.Node{
		{ID: "arrays", Name: "Arrays", Kind: knowledge.KindTopic},
		{ID: "stacks", Name: "Stacks", Kind: knowledge.KindTopic},
	}, []knowledge.Edge{
		{Source: "arrays", Target: "stacks", Relation: knowledge.RelationPrerequisite},
	})
	e := testEngine(t)

	result := e.FindPath(g, map[string]bool{"arrays": true}, "stacks")
	if result.Reason != ReasonDirectPath {
		t.Fatalf("Reason=%s, want %s", result.Reason, ReasonDirectPath)
	}
	if !reflect.DeepEqual(result.Path, []string{"Stacks"}) {
		t.Fatalf("Path=%v, want [Stacks]", result.Path)
	}
	if result.Distance != 0.1 {
		t.Fatalf("Distance=%v, want 0.1", result.Distance)
	}
}

func TestFindPathDirectPicksCheapestRoute(t *testing.T) {
	// Two routes from the known node: direct related edge (0.8) and a
	// two-hop prerequisite chain (0.1 + 0.1). The chain must win.
	g := knowledge.NewGraph([]knowledge.Node{
		{ID: "a", Name: "A", Kind: knowledge.KindTopic},
		{ID: "b", Name: "B", Kind: knowledge.KindTopic},
		{ID: "c", Name: "C", Kind: knowledge.KindTopic},
	}, []knowledge.Edge{
		{Source: "a", Target: "c", Relation: knowledge.RelationRelated},
		{Source: "a", Target: "b", Relation: knowledge.RelationPrerequisite},
		{Source: "b", Target: "c", Relation: knowledge.RelationPrerequisite},
	})
	e := testEngine(t)

	result := e.FindPath(g, map[string]bool{"a": true}, "c")
	if result.Reason != ReasonDirectPath {
		t.Fatalf("Reason=%s, want %s", result.Reason, ReasonDirectPath)
	}
	if !reflect.DeepEqual(result.Path, []string{"B", "C"}) {
		t.Fatalf("Path=%v, want [B C]", result.Path)
	}
}

func TestFindPathPrerequisiteChainOrder(t *testing.T) {
	// Nothing known, so no direct path exists. X and Y are both unmet
	// prerequisite ancestors of the target; X is closer and must come
	// first.
	g := knowledge.NewGraph([]knowledge.Node{
		{ID: "x", Name: "X", Kind: knowledge.KindTopic},
		{ID: "y", Name: "Y", Kind: knowledge.KindTopic},
		{ID: "target", Name: "Target", Kind: knowledge.KindTopic},
	}, []knowledge.Edge{
		{Source: "y", Target: "x", Relation: knowledge.RelationPrerequisite},
		{Source: "x", Target: "target", Relation: knowledge.RelationPrerequisite},
	})
	e := testEngine(t)

	result := e.FindPath(g, map[string]bool{}, "target")
	if result.Reason != ReasonPrerequisiteChain {
		t.Fatalf("Reason=%s, want %s", result.Reason, ReasonPrerequisiteChain)
	}
	if !reflect.DeepEqual(result.Path, []string{"X", "Y"}) {
		t.Fatalf("Path=%v, want [X Y] (closer ancestor first)", result.Path)
	}
}

func TestFindPathClusterFallback(t *testing.T) {
	// No known nodes and no prerequisite ancestors: recommend cluster
	// siblings ordered by complexity. "simple" has no subtopics or
	// inbound prerequisites; "complex" has two subtopics.
	g := knowledge.NewGraph([]knowledge.Node{
		{ID: "target", Name: "Target", Kind: knowledge.KindTopic},
		{ID: "simple", Name: "Simple", Kind: knowledge.KindTopic},
		{ID: "complex", Name: "Complex", Kind: knowledge.KindTopic},
		{ID: "complex.a", Name: "Complex A", Kind: knowledge.KindSubtopic, ParentTopicID: "complex"},
		{ID: "complex.b", Name: "Complex B", Kind: knowledge.KindSubtopic, ParentTopicID: "complex"},
	}, []knowledge.Edge{
		{Source: "target", Target: "simple", Relation: knowledge.RelationRelated},
		{Source: "target", Target: "complex", Relation: knowledge.RelationRelated},
	})
	e := testEngine(t)

	result := e.FindPath(g, map[string]bool{}, "target")
	if result.Reason != ReasonClusterBased {
		t.Fatalf("Reason=%s, want %s", result.Reason, ReasonClusterBased)
	}
	if !reflect.DeepEqual(result.Path, []string{"Simple", "Complex"}) {
		t.Fatalf("Path=%v, want [Simple Complex]", result.Path)
	}
}

func TestFindPathEmptyGraph(t *testing.T) {
	e := testEngine(t)
	result := e.FindPath(knowledge.Empty(), map[string]bool{}, "anything")
	if result.Reason != ReasonClusterBased || len(result.Path) != 0 {
		t.Fatalf("empty graph result=%+v, want empty cluster fallback", result)
	}
}
