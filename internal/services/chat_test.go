package services

import (
	"context"
	"testing"

	"github.com/knograph/knograph-backend/internal/intent"
	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/pathing"
	"github.com/knograph/knograph-backend/internal/repos"
	"github.com/knograph/knograph-backend/internal/types"
)

type fakeExplainer struct{}

func (fakeExplainer) Explain(_ context.Context, topic string) string {
	return "explained " + topic
}

func (fakeExplainer) ExplainAspect(_ context.Context, topic string, aspect intent.Aspect) string {
	return "explained " + topic + " as " + string(aspect)
}

func (fakeExplainer) ExplainFree(_ context.Context, query string) string {
	return "freeform answer for " + query
}

func (fakeExplainer) SmallTalkReply(_ context.Context, _ string) string {
	return "hi there, ask me about a DSA topic"
}

type fakeMedia struct{}

func (fakeMedia) Recommend(_ context.Context, term string) []types.MediaItem {
	return []types.MediaItem{{Title: "video: " + term, URL: "https://example.com/v"}}
}

type staticLoader struct {
	graph *knowledge.Graph
}

func (l staticLoader) Load(_ context.Context) (*knowledge.Graph, error) {
	return l.graph, nil
}

func chatGraph() *knowledge.Graph {
	nodes := []knowledge.Node{
		{ID: "arrays", Name: "Arrays", Kind: knowledge.KindTopic},
		{ID: "stacks", Name: "Stacks", Kind: knowledge.KindTopic},
		{ID: "queues", Name: "Queues", Kind: knowledge.KindTopic},
	}
	edges := []knowledge.Edge{
		{Source: "arrays", Target: "stacks", Relation: knowledge.RelationPrerequisite},
		{Source: "stacks", Target: "queues", Relation: knowledge.RelationPrerequisite},
	}
	return knowledge.NewGraph(nodes, edges)
}

type chatFixture struct {
	svc      ChatService
	sessions SessionService
	profiles repos.ProfileRepo
	unknowns repos.UnknownQueryRepo
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()
	log := testLog(t)
	db := testDB(t)

	store := knowledge.NewStore(context.Background(), staticLoader{graph: chatGraph()}, log)
	sessionRepo := repos.NewSessionRepo(db, log)
	profileRepo := repos.NewProfileRepo(db, log)
	unknownRepo := repos.NewUnknownQueryRepo(db, log)

	sessions := NewSessionService(context.Background(), sessionRepo, log)
	profiles := NewProfileService(profileRepo, log)
	engine := pathing.NewEngine(log)

	svc := NewChatService(store, engine, sessions, profiles, fakeExplainer{}, fakeMedia{}, unknownRepo, log)
	return chatFixture{svc: svc, sessions: sessions, profiles: profileRepo, unknowns: unknownRepo}
}

func seedPath(t *testing.T, f chatFixture, userID string, path []string, index int, target string) {
	t.Helper()
	f.sessions.Mutate(context.Background(), userID, func(s *types.LearningSession) {
		s.CurrentPath = append([]string(nil), path...)
		s.CurrentStepIndex = index
		s.TargetTopic = &target
	})
}

func onboardUser(t *testing.T, f chatFixture, userID string) {
	t.Helper()
	if err := f.profiles.EnsureProfile(context.Background(), userID); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
}

func TestHandleMessageAdvanceWithoutPath(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "next topic", UserID: "u1"})
	if !resp.Analysis.NoActivePath {
		t.Fatalf("NoActivePath not set: %+v", resp.Analysis)
	}

	sess := f.sessions.Get(ctx, "u1")
	if len(sess.CurrentPath) != 0 || sess.CurrentStepIndex != 0 {
		t.Fatalf("session mutated by refused advance: %+v", sess)
	}
}

func TestHandleMessageAdvanceMidPath(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")
	seedPath(t, f, "u1", []string{"Arrays", "Stacks", "Queues"}, 0, "Queues")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "next topic", UserID: "u1"})
	a := resp.Analysis
	if a.TopicCompleted != "Arrays" {
		t.Fatalf("TopicCompleted=%q", a.TopicCompleted)
	}
	if a.NextStep != "Stacks" {
		t.Fatalf("NextStep=%q", a.NextStep)
	}
	if a.Progress != "2/3" {
		t.Fatalf("Progress=%q", a.Progress)
	}
	if !a.SessionActive {
		t.Fatal("SessionActive not set")
	}
	if a.NextStepExplanation != "explained Stacks" {
		t.Fatalf("NextStepExplanation=%q", a.NextStepExplanation)
	}
	if len(a.NextStepMedia) != 1 {
		t.Fatalf("NextStepMedia=%v", a.NextStepMedia)
	}
}

func TestHandleMessageAdvanceFinishesPath(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")
	seedPath(t, f, "u1", []string{"Arrays", "Stacks", "Queues"}, 2, "Queues")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "I understand", UserID: "u1"})
	a := resp.Analysis
	if !a.PathCompleted {
		t.Fatalf("PathCompleted not set: %+v", a)
	}
	if a.MasteredTopic != "Queues" {
		t.Fatalf("MasteredTopic=%q", a.MasteredTopic)
	}
	if !a.ProfileUpdated {
		t.Fatal("ProfileUpdated not set")
	}

	sess := f.sessions.Get(ctx, "u1")
	if sess.CurrentStepIndex != len(sess.CurrentPath) {
		t.Fatalf("index=%d path=%v, want exhausted", sess.CurrentStepIndex, sess.CurrentPath)
	}

	rows, err := f.profiles.KnownConcepts(ctx, "u1")
	if err != nil {
		t.Fatalf("load concepts: %v", err)
	}
	if len(rows) != 1 || rows[0].NodeID != "queues" {
		t.Fatalf("profile rows=%v, want queues", rows)
	}
}

func TestHandleMessageCompletionAsksForSatisfaction(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")
	seedPath(t, f, "u1", []string{"Arrays", "Stacks"}, 0, "Stacks")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "i'm done with this", UserID: "u1"})
	a := resp.Analysis
	if !a.AwaitingSatisfaction {
		t.Fatalf("AwaitingSatisfaction not set: %+v", a)
	}
	if a.CurrentTopic != "Arrays" {
		t.Fatalf("CurrentTopic=%q", a.CurrentTopic)
	}

	// Asking for confirmation must not move the session or touch the profile.
	sess := f.sessions.Get(ctx, "u1")
	if sess.CurrentStepIndex != 0 {
		t.Fatalf("index moved to %d", sess.CurrentStepIndex)
	}
	rows, err := f.profiles.KnownConcepts(ctx, "u1")
	if err != nil {
		t.Fatalf("load concepts: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("profile written without satisfaction: %v", rows)
	}
}

func TestHandleMessageSatisfiedAddsToProfile(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")
	seedPath(t, f, "u1", []string{"Arrays", "Stacks"}, 0, "Stacks")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "i am satisfied", UserID: "u1"})
	a := resp.Analysis
	if a.TopicAddedToProfile != "Arrays" {
		t.Fatalf("TopicAddedToProfile=%q", a.TopicAddedToProfile)
	}
	if !a.ProfileUpdated {
		t.Fatal("ProfileUpdated not set")
	}
	if a.NextStep != "Stacks" {
		t.Fatalf("NextStep=%q", a.NextStep)
	}

	rows, err := f.profiles.KnownConcepts(ctx, "u1")
	if err != nil {
		t.Fatalf("load concepts: %v", err)
	}
	if len(rows) != 1 || rows[0].NodeID != "arrays" {
		t.Fatalf("profile rows=%v, want arrays", rows)
	}
}

func TestHandleMessageNewTopicBuildsPath(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	resp := f.svc.HandleMessage(ctx, ChatRequest{
		Message:     "I want to learn stacks",
		UserID:      "u1",
		KnownTopics: []string{"Arrays"},
	})
	a := resp.Analysis
	if !a.GraphBased {
		t.Fatalf("GraphBased not set: %+v", a)
	}
	if len(a.LearningPath) != 1 || a.LearningPath[0] != "Stacks" {
		t.Fatalf("LearningPath=%v", a.LearningPath)
	}
	if a.NextStep != "Stacks" {
		t.Fatalf("NextStep=%q", a.NextStep)
	}
	if len(a.MentionedTopics) != 1 || a.MentionedTopics[0] != "Stacks" {
		t.Fatalf("MentionedTopics=%v", a.MentionedTopics)
	}

	sess := f.sessions.Get(ctx, "u1")
	if len(sess.CurrentPath) != 1 || sess.CurrentPath[0] != "Stacks" || sess.CurrentStepIndex != 0 {
		t.Fatalf("session not aimed at new path: %+v", sess)
	}
	if sess.TargetTopic == nil || *sess.TargetTopic != "Stacks" {
		t.Fatalf("TargetTopic=%v", sess.TargetTopic)
	}
}

func TestHandleMessageAlreadyKnownTopic(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	resp := f.svc.HandleMessage(ctx, ChatRequest{
		Message:     "tell me about arrays",
		UserID:      "u1",
		KnownTopics: []string{"Arrays"},
	})
	a := resp.Analysis
	if !a.GraphBased {
		t.Fatalf("GraphBased not set: %+v", a)
	}
	if a.SessionActive || len(a.LearningPath) != 0 {
		t.Fatalf("known topic must not start a path: %+v", a)
	}

	sess := f.sessions.Get(ctx, "u1")
	if len(sess.CurrentPath) != 0 {
		t.Fatalf("session mutated: %+v", sess)
	}
}

func TestHandleMessageDeepenCurrentStep(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")
	seedPath(t, f, "u1", []string{"Arrays", "Stacks"}, 0, "Stacks")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "i'm confused, show me an example", UserID: "u1"})
	a := resp.Analysis
	if !a.DetailedExplanation {
		t.Fatalf("DetailedExplanation not set: %+v", a)
	}
	if a.CurrentTopic != "Arrays" {
		t.Fatalf("CurrentTopic=%q", a.CurrentTopic)
	}
	if a.RequestedAspect != "example" {
		t.Fatalf("RequestedAspect=%q", a.RequestedAspect)
	}
	if a.NextStepExplanation != "explained Arrays as example" {
		t.Fatalf("NextStepExplanation=%q", a.NextStepExplanation)
	}
}

func TestHandleMessageSmallTalk(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "hello", UserID: "u1"})
	if !resp.Analysis.SmallTalk {
		t.Fatalf("SmallTalk not set: %+v", resp.Analysis)
	}
	if resp.Response != "hi there, ask me about a DSA topic" {
		t.Fatalf("Response=%q", resp.Response)
	}
}

func TestHandleMessageWithoutProfileAsksForOnboarding(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	// No profile row, no inline known sets: every message routes to the
	// onboarding turn instead of the learning flows.
	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "what is quantum entanglement", UserID: "u1"})
	a := resp.Analysis
	if a.Error != "no user profile found" {
		t.Fatalf("Analysis.Error=%q", a.Error)
	}
	if a.Dynamic || a.Logged {
		t.Fatalf("profileless user reached the dynamic flow: %+v", a)
	}

	rows, err := f.unknowns.ListUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("list unprocessed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("unknown query logged before onboarding: %v", rows)
	}

	sess := f.sessions.Get(ctx, "u1")
	if len(sess.CurrentPath) != 0 || sess.CurrentStepIndex != 0 {
		t.Fatalf("session mutated: %+v", sess)
	}

	// Inline known sets stand in for a profile, so the same message
	// reaches the dynamic flow once the request carries them.
	resp = f.svc.HandleMessage(ctx, ChatRequest{
		Message:     "what is quantum entanglement",
		UserID:      "u1",
		KnownTopics: []string{"Arrays"},
	})
	if !resp.Analysis.Dynamic {
		t.Fatalf("inline known sets did not unlock the flows: %+v", resp.Analysis)
	}
}

func TestHandleMessageDynamicLogsUnknownQuery(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	onboardUser(t, f, "u1")

	resp := f.svc.HandleMessage(ctx, ChatRequest{Message: "what is quantum entanglement", UserID: "u1"})
	a := resp.Analysis
	if !a.Dynamic || !a.Logged {
		t.Fatalf("dynamic flags wrong: %+v", a)
	}
	if resp.Response != "freeform answer for what is quantum entanglement" {
		t.Fatalf("Response=%q", resp.Response)
	}

	rows, err := f.unknowns.ListUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("list unprocessed: %v", err)
	}
	if len(rows) != 1 || rows[0].Query != "what is quantum entanglement" {
		t.Fatalf("unknown queries=%v", rows)
	}
}
