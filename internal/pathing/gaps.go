package pathing

import (
	"sort"

	"github.com/knograph/knograph-backend/internal/knowledge"
)

const (
	maxRecommendedSubtopics = 5
	maxMissingPrerequisites = 5
)

// GapAnalysis is the subtopic-level view of what a learner still needs
// for a target topic. Slices hold node ids.
type GapAnalysis struct {
	MissingPrerequisites []string
	RecommendedSubtopics []string
	CompletionPercentage float64
}

// SubtopicGaps ranks the target topic's unknown subtopics by how well
// connected they are to what the learner already knows, and surfaces
// prerequisite subtopics from other topics.
func (e *Engine) SubtopicGaps(g *knowledge.Graph, knownSubtopics map[string]bool, targetTopicID string) GapAnalysis {
	targetSubs := g.SubtopicsOf(targetTopicID)
	inTarget := make(map[string]bool, len(targetSubs))
	knownInTarget := 0
	var missing []string
	for _, s := range targetSubs {
		inTarget[s.ID] = true
		if knownSubtopics[s.ID] {
			knownInTarget++
		} else {
			missing = append(missing, s.ID)
		}
	}

	priority := make(map[string]float64, len(missing))
	for _, id := range missing {
		priority[id] = e.subtopicPriority(g, id, knownSubtopics)
	}
	sort.SliceStable(missing, func(i, j int) bool {
		if priority[missing[i]] != priority[missing[j]] {
			return priority[missing[i]] > priority[missing[j]]
		}
		return missing[i] < missing[j]
	})
	if len(missing) > maxRecommendedSubtopics {
		missing = missing[:maxRecommendedSubtopics]
	}

	prereqs := e.prerequisiteSubtopics(g, knownSubtopics, inTarget)

	completion := 0.0
	if len(targetSubs) > 0 {
		completion = float64(knownInTarget) / float64(len(targetSubs)) * 100
	}

	return GapAnalysis{
		MissingPrerequisites: prereqs,
		RecommendedSubtopics: missing,
		CompletionPercentage: completion,
	}
}

// subtopicPriority scores an unknown subtopic by its connections to the
// known set: inbound prerequisite 3, sequence 2, leads_to 1.5, any
// other inbound 1, outbound to a known subtopic 0.5, plus a 0.1-per-edge
// connectivity bonus.
func (e *Engine) subtopicPriority(g *knowledge.Graph, subtopicID string, known map[string]bool) float64 {
	var priority float64
	for _, nb := range g.Reverse(subtopicID) {
		if !known[nb.ID] {
			continue
		}
		switch nb.Relation {
		case knowledge.RelationPrerequisite:
			priority += 3.0
		case knowledge.RelationSequence:
			priority += 2.0
		case knowledge.RelationLeadsTo:
			priority += 1.5
		default:
			priority += 1.0
		}
	}
	for _, nb := range g.Forward(subtopicID) {
		if known[nb.ID] {
			priority += 0.5
		}
	}
	priority += float64(g.Degree(subtopicID)) * 0.1
	return priority
}

// prerequisiteSubtopics finds unknown subtopics outside the target
// topic with a prerequisite/sequence edge into one of the target's
// subtopics. Insertion order, truncated.
func (e *Engine) prerequisiteSubtopics(g *knowledge.Graph, known map[string]bool, inTarget map[string]bool) []string {
	var out []string
	for _, n := range g.Nodes() {
		if n.Kind != knowledge.KindSubtopic || known[n.ID] || inTarget[n.ID] {
			continue
		}
		for _, nb := range g.Forward(n.ID) {
			if !inTarget[nb.ID] {
				continue
			}
			if nb.Relation == knowledge.RelationPrerequisite || nb.Relation == knowledge.RelationSequence {
				out = append(out, n.ID)
				break
			}
		}
		if len(out) >= maxMissingPrerequisites {
			break
		}
	}
	return out
}
