package pathing

import (
	"container/heap"
	"math"
	"sort"

	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

// Reason labels which strategy produced a path.
type Reason string

const (
	ReasonAlreadyCompleted  Reason = "already_completed"
	ReasonDirectPath        Reason = "direct_path"
	ReasonPrerequisiteChain Reason = "prerequisite_chain"
	ReasonClusterBased      Reason = "cluster_based"
)

const (
	maxPrerequisiteSteps = 5
	maxClusterSteps      = 3
)

// PathResult carries the recommended learning sequence as node names,
// matching the text-generation contracts downstream.
type PathResult struct {
	Path     []string
	Distance float64
	Reason   Reason
}

// Engine runs the pathfinding and gap-analysis algorithms against a
// graph snapshot passed per call, so independent graphs can be used
// side by side in tests.
type Engine struct {
	log *logger.Logger
}

func NewEngine(baseLog *logger.Logger) *Engine {
	return &Engine{log: baseLog.With("engine", "PathEngine")}
}

// FindPath picks the first strategy that yields a result: the target is
// already known, a direct weighted shortest path exists from any known
// node, unmet prerequisites can be chained, or cluster membership
// offers a fallback pool.
func (e *Engine) FindPath(g *knowledge.Graph, known map[string]bool, targetID string) PathResult {
	if known[targetID] {
		e.log.Debug("Target already known", "target", targetID)
		return PathResult{Path: []string{}, Reason: ReasonAlreadyCompleted}
	}

	if path, dist, ok := e.shortestPath(g, known, targetID); ok {
		e.log.Debug("Direct path found", "target", targetID, "steps", len(path), "distance", dist)
		return PathResult{Path: namesOf(g, path), Distance: dist, Reason: ReasonDirectPath}
	}

	if missing := e.missingPrerequisites(g, known, targetID); len(missing) > 0 {
		e.log.Debug("No direct path, chaining prerequisites", "target", targetID, "steps", len(missing))
		return PathResult{
			Path:     namesOf(g, missing),
			Distance: float64(len(missing)),
			Reason:   ReasonPrerequisiteChain,
		}
	}

	fallback := e.clusterFallback(g, known, targetID)
	e.log.Debug("Falling back to cluster recommendations", "target", targetID, "steps", len(fallback))
	return PathResult{
		Path:     namesOf(g, fallback),
		Distance: float64(len(fallback)),
		Reason:   ReasonClusterBased,
	}
}

type frontierItem struct {
	id   string
	dist float64
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].id < f[j].id
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// shortestPath is a multi-source Dijkstra seeded from every known node
// at distance zero. The returned path excludes the seed and ends at the
// target. Ties break on node id.
func (e *Engine) shortestPath(g *knowledge.Graph, sources map[string]bool, targetID string) ([]string, float64, bool) {
	dist := make(map[string]float64)
	prev := make(map[string]string)
	seed := make(map[string]bool)

	f := &frontier{}
	for id := range sources {
		if _, ok := g.Node(id); !ok {
			continue
		}
		dist[id] = 0
		seed[id] = true
		heap.Push(f, frontierItem{id: id, dist: 0})
	}
	if f.Len() == 0 {
		return nil, 0, false
	}

	done := make(map[string]bool)
	for f.Len() > 0 {
		cur := heap.Pop(f).(frontierItem)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true
		if cur.id == targetID {
			break
		}
		for _, nb := range g.Forward(cur.id) {
			next := cur.dist + nb.Weight
			if d, seen := dist[nb.ID]; !seen || next < d {
				dist[nb.ID] = next
				prev[nb.ID] = cur.id
				heap.Push(f, frontierItem{id: nb.ID, dist: next})
			}
		}
	}

	d, reached := dist[targetID]
	if !reached || !done[targetID] {
		return nil, 0, false
	}

	var path []string
	for at := targetID; !seed[at]; at = prev[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, d, true
}

// missingPrerequisites walks prerequisite/sequence edges backwards from
// the target, collecting unknown ancestors. Results are ordered by
// ascending weighted distance to the target (unreachable last, then
// discovery order) and truncated.
func (e *Engine) missingPrerequisites(g *knowledge.Graph, known map[string]bool, targetID string) []string {
	visited := make(map[string]bool, len(known)+1)
	for id := range known {
		visited[id] = true
	}

	var missing []string
	seen := make(map[string]bool)
	queue := []string{targetID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur != targetID && visited[cur] {
			continue
		}
		visited[cur] = true
		for _, nb := range g.Reverse(cur) {
			if nb.Relation != knowledge.RelationPrerequisite && nb.Relation != knowledge.RelationSequence {
				continue
			}
			if known[nb.ID] {
				continue
			}
			if !seen[nb.ID] {
				seen[nb.ID] = true
				missing = append(missing, nb.ID)
			}
			queue = append(queue, nb.ID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	distTo := make(map[string]float64, len(missing))
	for _, id := range missing {
		distTo[id] = e.distanceBetween(g, id, targetID)
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return distTo[missing[i]] < distTo[missing[j]]
	})
	if len(missing) > maxPrerequisiteSteps {
		missing = missing[:maxPrerequisiteSteps]
	}
	return missing
}

// distanceBetween is a single-source weighted distance; +Inf when the
// target is unreachable.
func (e *Engine) distanceBetween(g *knowledge.Graph, fromID, toID string) float64 {
	if fromID == toID {
		return 0
	}
	dist := map[string]float64{fromID: 0}
	done := make(map[string]bool)
	f := &frontier{{id: fromID, dist: 0}}
	heap.Init(f)
	for f.Len() > 0 {
		cur := heap.Pop(f).(frontierItem)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true
		if cur.id == toID {
			return cur.dist
		}
		for _, nb := range g.Forward(cur.id) {
			next := cur.dist + nb.Weight
			if d, seen := dist[nb.ID]; !seen || next < d {
				dist[nb.ID] = next
				heap.Push(f, frontierItem{id: nb.ID, dist: next})
			}
		}
	}
	return math.Inf(1)
}

// clusterFallback recommends the least complex unknown topics sharing
// the target's weak-edge cluster.
func (e *Engine) clusterFallback(g *knowledge.Graph, known map[string]bool, targetID string) []string {
	members := g.ClusterOf(targetID)
	if len(members) == 0 {
		return nil
	}
	var candidates []string
	for _, id := range members {
		if id == targetID || known[id] {
			continue
		}
		candidates = append(candidates, id)
	}
	complexity := make(map[string]int, len(candidates))
	for _, id := range candidates {
		complexity[id] = e.topicComplexity(g, id)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if complexity[candidates[i]] != complexity[candidates[j]] {
			return complexity[candidates[i]] < complexity[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxClusterSteps {
		candidates = candidates[:maxClusterSteps]
	}
	return candidates
}

// topicComplexity weighs prerequisites double: a topic with many unmet
// entry requirements is a worse first recommendation than a leafy one.
func (e *Engine) topicComplexity(g *knowledge.Graph, topicID string) int {
	subtopics := len(g.SubtopicsOf(topicID))
	prereqs := 0
	for _, nb := range g.Reverse(topicID) {
		if nb.Relation == knowledge.RelationPrerequisite {
			prereqs++
		}
	}
	return subtopics + 2*prereqs
}

func namesOf(g *knowledge.Graph, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.NameOf(id))
	}
	return out
}
