package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/knograph/knograph-backend/internal/platform/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	artifact := `{
		"nodes": [
			{"id": "arrays", "name": "Arrays", "type": "topic"},
			{"id": "arrays.traversal", "name": "Array Traversal", "type": "subtopic", "parent_topic": "arrays"}
		],
		"edges": [
			{"source": "arrays", "target": "arrays.traversal", "type": "contains"}
		]
	}`
	if err := os.WriteFile(path, []byte(artifact), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	g, err := FileLoader{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("loaded %d nodes %d edges, want 2/1", g.NodeCount(), g.EdgeCount())
	}
	subs := g.SubtopicsOf("arrays")
	if len(subs) != 1 || subs[0].ID != "arrays.traversal" {
		t.Fatalf("SubtopicsOf(arrays)=%v", subs)
	}
}

func TestFileLoaderMissingFile(t *testing.T) {
	g, err := FileLoader{Path: "nope/does-not-exist.json"}.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if g == nil || g.NodeCount() != 0 {
		t.Fatalf("missing file must yield empty graph, got %v", g)
	}
}

type fakeLoader struct {
	graph *Graph
	err   error
}

func (f *fakeLoader) Load(context.Context) (*Graph, error) {
	if f.err != nil {
		return Empty(), f.err
	}
	return f.graph, nil
}

func TestStoreDegradesToEmptyOnLoadFailure(t *testing.T) {
	store := NewStore(context.Background(), &fakeLoader{err: errors.New("boom")}, testLog(t))
	if store.Graph().NodeCount() != 0 {
		t.Fatal("store must serve empty graph after load failure")
	}
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	loader := &fakeLoader{graph: testGraph()}
	store := NewStore(context.Background(), loader, testLog(t))
	if store.Graph().NodeCount() == 0 {
		t.Fatal("initial load should not be empty")
	}

	loader.err = errors.New("source gone")
	if err := store.Reload(context.Background()); err == nil {
		t.Fatal("Reload should surface the loader error")
	}
	if store.Graph().NodeCount() != 8 {
		t.Fatalf("previous snapshot lost: %d nodes", store.Graph().NodeCount())
	}

	loader.err = nil
	loader.graph = NewGraph([]Node{{ID: "solo", Name: "Solo", Kind: KindTopic}}, nil)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if store.Graph().NodeCount() != 1 {
		t.Fatalf("reloaded snapshot not swapped in: %d nodes", store.Graph().NodeCount())
	}
}
