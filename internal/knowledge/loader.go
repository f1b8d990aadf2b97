package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Loader produces a fully built graph from some backing source.
type Loader interface {
	Load(ctx context.Context) (*Graph, error)
}

type artifact struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// FileLoader reads the pre-built graph artifact from a JSON file.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(_ context.Context) (*Graph, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return Empty(), fmt.Errorf("read graph artifact %s: %w", l.Path, err)
	}
	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return Empty(), fmt.Errorf("parse graph artifact %s: %w", l.Path, err)
	}
	return NewGraph(a.Nodes, a.Edges), nil
}
