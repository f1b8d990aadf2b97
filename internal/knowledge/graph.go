package knowledge

import (
	"strings"
)

// Graph is the immutable, fully indexed concept graph. All indices are
// built once in NewGraph; nothing mutates a Graph after that, so it is
// safe for unsynchronized concurrent reads.
type Graph struct {
	nodes     map[string]*Node
	order     []string // node ids in insertion order
	forward   map[string][]Neighbor
	reverse   map[string][]Neighbor
	nameToID  map[string]string // lowercase name -> id
	edgeCount int

	clusters     [][]string
	clusterIndex map[string]int // topic id -> index into clusters
}

func NewGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:        make(map[string]*Node, len(nodes)),
		order:        make([]string, 0, len(nodes)),
		forward:      make(map[string][]Neighbor),
		reverse:      make(map[string][]Neighbor),
		nameToID:     make(map[string]string, len(nodes)),
		clusterIndex: make(map[string]int),
	}
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			continue
		}
		if _, dup := g.nodes[n.ID]; dup {
			continue
		}
		g.nodes[n.ID] = &n
		g.order = append(g.order, n.ID)
		g.nameToID[strings.ToLower(strings.TrimSpace(n.Name))] = n.ID
	}
	for _, e := range edges {
		if _, ok := g.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := g.nodes[e.Target]; !ok {
			continue
		}
		rel := e.Relation
		if rel == "" {
			rel = RelationDefault
		}
		w := rel.Weight()
		g.forward[e.Source] = append(g.forward[e.Source], Neighbor{ID: e.Target, Relation: rel, Weight: w})
		g.reverse[e.Target] = append(g.reverse[e.Target], Neighbor{ID: e.Source, Relation: rel, Weight: w})
		g.edgeCount++
	}
	g.buildClusters()
	return g
}

// Empty returns a graph with zero nodes and edges. Every query on it
// yields empty results, which is the degraded mode after a load failure.
func Empty() *Graph {
	return NewGraph(nil, nil)
}

func (g *Graph) NodeCount() int { return len(g.order) }
func (g *Graph) EdgeCount() int { return g.edgeCount }

func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

func (g *Graph) Forward(id string) []Neighbor { return g.forward[id] }
func (g *Graph) Reverse(id string) []Neighbor { return g.reverse[id] }

// Degree is the total number of edges touching the node.
func (g *Graph) Degree(id string) int {
	return len(g.forward[id]) + len(g.reverse[id])
}

// SubtopicsOf returns the subtopics of a topic. Explicit contains-edges
// win; when a topic has none, parent linkage on the subtopic nodes is
// used instead, so partially populated edge sets still resolve.
func (g *Graph) SubtopicsOf(topicID string) []*Node {
	var out []*Node
	seen := make(map[string]bool)
	for _, nb := range g.forward[topicID] {
		if nb.Relation != RelationContains {
			continue
		}
		if n, ok := g.nodes[nb.ID]; ok && n.Kind == KindSubtopic && !seen[n.ID] {
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Kind == KindSubtopic && n.ParentTopicID == topicID {
			out = append(out, n)
		}
	}
	return out
}

// TopicOf resolves the owning topic of a node: the node itself for a
// topic, the parent for a subtopic.
func (g *Graph) TopicOf(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	if n.Kind == KindTopic {
		return n, true
	}
	if n.ParentTopicID != "" {
		if p, ok := g.nodes[n.ParentTopicID]; ok {
			return p, true
		}
	}
	for _, nb := range g.reverse[id] {
		if nb.Relation != RelationContains {
			continue
		}
		if p, ok := g.nodes[nb.ID]; ok && p.Kind == KindTopic {
			return p, true
		}
	}
	return nil, false
}

// NameOf returns the display name for a node id, or the id itself when
// the node is unknown.
func (g *Graph) NameOf(id string) string {
	if n, ok := g.nodes[id]; ok {
		return n.Name
	}
	return id
}

func (g *Graph) buildClusters() {
	// Weak-edge connectivity over topic nodes only; traversal is
	// undirected and restricted to related/leads_to edges whose both
	// endpoints are topics.
	adj := make(map[string][]string)
	link := func(a, b string) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, id := range g.order {
		if g.nodes[id].Kind != KindTopic {
			continue
		}
		for _, nb := range g.forward[id] {
			if !nb.Relation.weak() {
				continue
			}
			if other, ok := g.nodes[nb.ID]; ok && other.Kind == KindTopic {
				link(id, nb.ID)
			}
		}
	}
	visited := make(map[string]bool)
	for _, id := range g.order {
		if g.nodes[id].Kind != KindTopic || visited[id] {
			continue
		}
		var members []string
		queue := []string{id}
		visited[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		idx := len(g.clusters)
		g.clusters = append(g.clusters, members)
		for _, m := range members {
			g.clusterIndex[m] = idx
		}
	}
}

// ClusterOf returns the weak-connectivity cluster containing the node.
// For a subtopic the owning topic's cluster is used. Nil when the node
// is unknown or outside every cluster.
func (g *Graph) ClusterOf(id string) []string {
	topic, ok := g.TopicOf(id)
	if !ok {
		return nil
	}
	idx, ok := g.clusterIndex[topic.ID]
	if !ok {
		return nil
	}
	return g.clusters[idx]
}

func (g *Graph) ClusterCount() int { return len(g.clusters) }
