package knowledge

import (
	"sort"
	"strings"
)

const (
	searchLimit = 10

	// nameMatchThreshold is the minimum score NodeIDByName accepts when
	// no exact match exists.
	nameMatchThreshold = 3.0
)

type SearchResult struct {
	Node  *Node   `json:"node"`
	Score float64 `json:"score"`
}

// Search ranks nodes against a free-text query. Scoring: exact name
// match 10, substring containment 6-8, keyword match 4-9, long-word
// overlap 2-3, prefix overlap 1. Top ten results, ties broken by node
// id so rankings do not depend on artifact ordering.
func (g *Graph) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	qWords := strings.Fields(q)

	var results []SearchResult
	for _, id := range g.order {
		n := g.nodes[id]
		score := scoreNode(n, q, qWords)
		if score > 0 {
			results = append(results, SearchResult{Node: n, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Node.ID < results[j].Node.ID
	})
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	return results
}

func scoreNode(n *Node, q string, qWords []string) float64 {
	name := strings.ToLower(n.Name)
	var score float64

	if name == q {
		score += 10
	} else if strings.Contains(name, q) {
		score += 8
	} else if strings.Contains(q, name) {
		score += 6
	}

	for _, kw := range n.Keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if k == q {
			score += 9
		} else if strings.Contains(q, k) || strings.Contains(k, q) {
			score += 4
		}
	}

	nameWords := strings.Fields(name)
	for _, w := range qWords {
		if len(w) <= 3 {
			continue
		}
		if strings.Contains(name, w) {
			score += 3
			continue
		}
		for _, nw := range nameWords {
			if strings.Contains(w, nw) {
				score += 2
				break
			}
		}
	}

	for _, w := range qWords {
		if len(w) <= 4 {
			continue
		}
		if strings.HasPrefix(name, w) || strings.HasPrefix(w, name) {
			score += 1
			break
		}
	}

	return score
}

// NodeIDByName resolves a name to a node id. Case-insensitive exact
// match first, then the search scorer; fuzzy hits below the threshold
// are rejected.
func (g *Graph) NodeIDByName(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if id, ok := g.nameToID[key]; ok {
		return id, true
	}
	results := g.Search(key)
	if len(results) == 0 || results[0].Score < nameMatchThreshold {
		return "", false
	}
	return results[0].Node.ID, true
}

// MentionedNodes scans free text for references to graph nodes: name
// containment either direction on long words, keyword hits, and prefix
// overlap for longer words. Insertion order is preserved.
func (g *Graph) MentionedNodes(text string) []*Node {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return nil
	}
	tWords := strings.Fields(t)

	var out []*Node
	for _, id := range g.order {
		n := g.nodes[id]
		if nodeMentioned(n, t, tWords) {
			out = append(out, n)
		}
	}
	return out
}

func nodeMentioned(n *Node, t string, tWords []string) bool {
	name := strings.ToLower(n.Name)
	if name != "" && strings.Contains(t, name) {
		return true
	}
	for _, kw := range n.Keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(t, k) {
			return true
		}
	}
	for _, w := range tWords {
		if len(w) > 3 && strings.Contains(name, w) {
			return true
		}
	}
	for _, w := range tWords {
		if len(w) > 4 && (strings.HasPrefix(name, w) || strings.HasPrefix(w, name)) {
			return true
		}
	}
	return false
}
