package knowledge

// NodeKind distinguishes the two node levels of the concept graph. A
// subtopic always belongs to exactly one topic via ParentTopicID.
type NodeKind string

const (
	KindTopic    NodeKind = "topic"
	KindSubtopic NodeKind = "subtopic"
)

// Relation is the typed, directed relationship carried by an edge.
type Relation string

const (
	RelationPrerequisite Relation = "prerequisite"
	RelationSequence     Relation = "sequence"
	RelationContains     Relation = "contains"
	RelationLeadsTo      Relation = "leads_to"
	RelationRelated      Relation = "related"
	RelationDefault      Relation = "default"
)

// Weight returns the traversal cost of the relation. Lower weight means
// higher learning priority; unknown relations fall back to the default.
func (r Relation) Weight() float64 {
	switch r {
	case RelationPrerequisite:
		return 0.1
	case RelationSequence:
		return 0.2
	case RelationContains:
		return 0.3
	case RelationLeadsTo:
		return 0.5
	case RelationRelated:
		return 0.8
	default:
		return 1.0
	}
}

// weak relations connect topics into clusters but do not imply ordering.
func (r Relation) weak() bool {
	return r == RelationRelated || r == RelationLeadsTo
}

type Node struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Kind          NodeKind `json:"type"`
	ParentTopicID string   `json:"parent_topic,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Description   string   `json:"description,omitempty"`
}

type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"type"`
}

// Neighbor is one adjacency entry: the node on the far side of an edge
// together with the relation and its derived weight.
type Neighbor struct {
	ID       string
	Relation Relation
	Weight   float64
}
