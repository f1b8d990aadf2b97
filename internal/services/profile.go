package services

import (
	"context"
	"errors"
	"strings"

	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/repos"
)

// ErrProfileNotFound means the user has no learner profile row and the
// request carried no inline known sets; the caller should steer the
// user to onboarding instead of computing paths.
var ErrProfileNotFound = errors.New("no user profile found")

// KnownConceptSet is the resolved learner knowledge used by path
// computation: graph node ids plus lower-cased names for matching
// free-text mentions.
type KnownConceptSet struct {
	IDs   map[string]bool
	Names []string
}

type ProfileService interface {
	KnownConcepts(ctx context.Context, g *knowledge.Graph, userID string, extraTopics, extraSubtopics []string) (KnownConceptSet, error)
	MarkTopicKnown(ctx context.Context, g *knowledge.Graph, userID, topicName string) bool
}

type profileService struct {
	log  *logger.Logger
	repo repos.ProfileRepo
}

func NewProfileService(repo repos.ProfileRepo, baseLog *logger.Logger) ProfileService {
	return &profileService{
		log:  baseLog.With("service", "ProfileService"),
		repo: repo,
	}
}

// KnownConcepts merges the stored profile rows with the topic and
// subtopic names supplied on the request, resolving everything against
// the graph. Names that match no node are kept in Names so mention
// matching still sees them.
func (p *profileService) KnownConcepts(ctx context.Context, g *knowledge.Graph, userID string, extraTopics, extraSubtopics []string) (KnownConceptSet, error) {
	set := KnownConceptSet{IDs: map[string]bool{}}

	rows, err := p.repo.KnownConcepts(ctx, userID)
	if err != nil {
		p.log.Error("Failed to load known concepts", "user_id", userID, "error", err)
		return set, err
	}
	for _, row := range rows {
		set.IDs[row.NodeID] = true
		set.Names = append(set.Names, strings.ToLower(row.Name))
	}

	inline := false
	for _, name := range append(append([]string{}, extraTopics...), extraSubtopics...) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		inline = true
		set.Names = append(set.Names, strings.ToLower(name))
		if id, ok := g.NodeIDByName(name); ok {
			set.IDs[id] = true
		}
	}

	if len(rows) == 0 && !inline {
		exists, err := p.repo.ProfileExists(ctx, userID)
		if err != nil {
			p.log.Error("Failed to check profile", "user_id", userID, "error", err)
			return set, err
		}
		if !exists {
			return set, ErrProfileNotFound
		}
	}

	p.enforceTrulyKnown(g, &set)
	return set, nil
}

// enforceTrulyKnown applies the subtopic-superset gate in both
// directions. A topic that has subtopics counts as known only while
// every one of them is known: fully covered topics are promoted into
// the set, and explicitly stored topic entries with an unmastered
// subtopic are demoted so they never seed pathfinding. Subtopic
// entries and topics without subtopics pass through untouched.
func (p *profileService) enforceTrulyKnown(g *knowledge.Graph, set *KnownConceptSet) {
	for _, n := range g.Nodes() {
		if n.Kind != knowledge.KindTopic {
			continue
		}
		subs := g.SubtopicsOf(n.ID)
		if len(subs) == 0 {
			continue
		}
		allKnown := true
		for _, s := range subs {
			if !set.IDs[s.ID] {
				allKnown = false
				break
			}
		}
		switch {
		case allKnown && !set.IDs[n.ID]:
			set.IDs[n.ID] = true
			set.Names = append(set.Names, strings.ToLower(n.Name))
		case !allKnown && set.IDs[n.ID]:
			p.log.Debug("Demoting partially mastered topic", "topic", n.ID)
			delete(set.IDs, n.ID)
		}
	}
}

// MarkTopicKnown resolves the name and upserts the known-concept row.
// The boolean mirrors whether the write actually happened.
func (p *profileService) MarkTopicKnown(ctx context.Context, g *knowledge.Graph, userID, topicName string) bool {
	topicName = strings.TrimSpace(topicName)
	if topicName == "" {
		return false
	}
	id, ok := g.NodeIDByName(topicName)
	if !ok {
		p.log.Warn("Topic not found in graph, skipping profile write", "topic", topicName)
		return false
	}
	node, ok := g.Node(id)
	if !ok {
		return false
	}
	if err := p.repo.EnsureProfile(ctx, userID); err != nil {
		p.log.Error("Failed to ensure profile", "user_id", userID, "error", err)
		return false
	}
	if err := p.repo.MarkKnown(ctx, userID, node.ID, node.Name, string(node.Kind)); err != nil {
		p.log.Error("Failed to mark topic known", "user_id", userID, "topic", topicName, "error", err)
		return false
	}
	return true
}
