package services

import (
	"context"
	"errors"
	"testing"

	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/repos"
)

func profileGraph() *knowledge.Graph {
	nodes := []knowledge.Node{
		{ID: "trees", Name: "Trees", Kind: knowledge.KindTopic},
		{ID: "trees.traversal", Name: "Tree Traversal", Kind: knowledge.KindSubtopic, ParentTopicID: "trees"},
		{ID: "trees.bst", Name: "Binary Search Trees", Kind: knowledge.KindSubtopic, ParentTopicID: "trees"},
		{ID: "heaps", Name: "Heaps", Kind: knowledge.KindTopic},
	}
	edges := []knowledge.Edge{
		{Source: "trees", Target: "trees.traversal", Relation: knowledge.RelationContains},
		{Source: "trees", Target: "trees.bst", Relation: knowledge.RelationContains},
	}
	return knowledge.NewGraph(nodes, edges)
}

func testProfileService(t *testing.T) (ProfileService, repos.ProfileRepo) {
	t.Helper()
	log := testLog(t)
	repo := repos.NewProfileRepo(testDB(t), log)
	return NewProfileService(repo, log), repo
}

func TestKnownConceptsDerivesTopicFromSubtopics(t *testing.T) {
	svc, _ := testProfileService(t)
	g := profileGraph()
	ctx := context.Background()

	set, err := svc.KnownConcepts(ctx, g, "u1", nil, []string{"Tree Traversal", "Binary Search Trees"})
	if err != nil {
		t.Fatalf("KnownConcepts: %v", err)
	}
	if !set.IDs["trees"] {
		t.Fatalf("topic not derived from fully known subtopics: %v", set.IDs)
	}
	// Heaps has no subtopics and must never be promoted implicitly.
	if set.IDs["heaps"] {
		t.Fatalf("topic without subtopics was promoted: %v", set.IDs)
	}
}

func TestKnownConceptsPartialSubtopicsDoNotPromote(t *testing.T) {
	svc, _ := testProfileService(t)
	g := profileGraph()
	ctx := context.Background()

	set, err := svc.KnownConcepts(ctx, g, "u1", nil, []string{"Tree Traversal"})
	if err != nil {
		t.Fatalf("KnownConcepts: %v", err)
	}
	if set.IDs["trees"] {
		t.Fatalf("topic promoted with a missing subtopic: %v", set.IDs)
	}
	if !set.IDs["trees.traversal"] {
		t.Fatalf("explicit subtopic missing: %v", set.IDs)
	}
}

func TestKnownConceptsMergesRowsAndExtras(t *testing.T) {
	svc, repo := testProfileService(t)
	g := profileGraph()
	ctx := context.Background()

	if err := repo.EnsureProfile(ctx, "u1"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if err := repo.MarkKnown(ctx, "u1", "trees.traversal", "Tree Traversal", "subtopic"); err != nil {
		t.Fatalf("mark known: %v", err)
	}

	// Stored subtopic plus an inline one cover the topic together.
	set, err := svc.KnownConcepts(ctx, g, "u1", nil, []string{"Binary Search Trees"})
	if err != nil {
		t.Fatalf("KnownConcepts: %v", err)
	}
	for _, id := range []string{"trees.traversal", "trees.bst", "trees"} {
		if !set.IDs[id] {
			t.Fatalf("merge missing %q: %v", id, set.IDs)
		}
	}
}

func TestKnownConceptsDemotesPartiallyMasteredTopic(t *testing.T) {
	svc, _ := testProfileService(t)
	g := profileGraph()
	ctx := context.Background()

	// An explicit topic entry does not survive an unmastered subtopic.
	set, err := svc.KnownConcepts(ctx, g, "u1", []string{"Trees"}, []string{"Tree Traversal"})
	if err != nil {
		t.Fatalf("KnownConcepts: %v", err)
	}
	if set.IDs["trees"] {
		t.Fatalf("topic kept with unmastered subtopic: %v", set.IDs)
	}
	if !set.IDs["trees.traversal"] {
		t.Fatalf("subtopic entry lost: %v", set.IDs)
	}

	// A topic without subtopics has nothing to gate on and stays.
	set, err = svc.KnownConcepts(ctx, g, "u1", []string{"Heaps"}, nil)
	if err != nil {
		t.Fatalf("KnownConcepts: %v", err)
	}
	if !set.IDs["heaps"] {
		t.Fatalf("subtopic-free topic demoted: %v", set.IDs)
	}
}

func TestKnownConceptsWithoutProfileErrors(t *testing.T) {
	svc, repo := testProfileService(t)
	g := profileGraph()
	ctx := context.Background()

	if _, err := svc.KnownConcepts(ctx, g, "u1", nil, nil); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err=%v, want ErrProfileNotFound", err)
	}

	// An onboarded user with zero known concepts is not an error.
	if err := repo.EnsureProfile(ctx, "u1"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	set, err := svc.KnownConcepts(ctx, g, "u1", nil, nil)
	if err != nil {
		t.Fatalf("KnownConcepts after onboarding: %v", err)
	}
	if len(set.IDs) != 0 {
		t.Fatalf("unexpected ids: %v", set.IDs)
	}
}

func TestMarkTopicKnownUnknownName(t *testing.T) {
	svc, _ := testProfileService(t)
	g := profileGraph()

	if svc.MarkTopicKnown(context.Background(), g, "u1", "calculus") {
		t.Fatal("unknown name must not report a profile write")
	}
	if svc.MarkTopicKnown(context.Background(), g, "u1", "") {
		t.Fatal("empty name must not report a profile write")
	}
}
