package knowledge

import (
	"context"
	"sync/atomic"

	"github.com/knograph/knograph-backend/internal/platform/logger"
)

// Store owns the current graph snapshot. Readers grab the snapshot once
// per request and never see a half-built index; Reload builds the new
// graph off to the side and swaps the pointer atomically.
type Store struct {
	loader  Loader
	log     *logger.Logger
	current atomic.Pointer[Graph]
}

// NewStore loads the graph once. A load failure degrades to an empty
// graph and is logged, not fatal: every downstream query then returns
// empty results.
func NewStore(ctx context.Context, loader Loader, baseLog *logger.Logger) *Store {
	s := &Store{
		loader: loader,
		log:    baseLog.With("store", "GraphStore"),
	}
	g, err := loader.Load(ctx)
	if err != nil {
		s.log.Error("graph load failed, serving empty graph", "error", err)
		g = Empty()
	} else {
		s.log.Info("graph loaded", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "clusters", g.ClusterCount())
	}
	s.current.Store(g)
	return s
}

// Graph returns the current immutable snapshot.
func (s *Store) Graph() *Graph {
	return s.current.Load()
}

// Reload rebuilds the graph from the loader and swaps it in. On failure
// the previous snapshot keeps serving.
func (s *Store) Reload(ctx context.Context) error {
	g, err := s.loader.Load(ctx)
	if err != nil {
		s.log.Error("graph reload failed, keeping previous snapshot", "error", err)
		return err
	}
	s.current.Store(g)
	s.log.Info("graph reloaded", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "clusters", g.ClusterCount())
	return nil
}
