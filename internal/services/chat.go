package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/knograph/knograph-backend/internal/intent"
	"github.com/knograph/knograph-backend/internal/knowledge"
	"github.com/knograph/knograph-backend/internal/pathing"
	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/repos"
	"github.com/knograph/knograph-backend/internal/types"
)

const collaboratorTimeout = 25 * time.Second

// ChatRequest is the engine-facing request for one conversation turn.
type ChatRequest struct {
	Message        string           `json:"message"`
	UserID         string           `json:"user_id"`
	KnownTopics    []string         `json:"known_topics"`
	KnownSubtopics []string         `json:"known_subtopics"`
	ChatHistory    []intent.Message `json:"chat_history"`
}

// Analysis carries the flow markers for one turn. Only fields relevant
// to the taken branch are populated.
type Analysis struct {
	SmallTalk            bool              `json:"small_talk,omitempty"`
	KnownTopics          []string          `json:"known_topics,omitempty"`
	Gaps                 []string          `json:"gaps,omitempty"`
	LearningPath         []string          `json:"learning_path,omitempty"`
	NextStep             string            `json:"next_step,omitempty"`
	NextStepExplanation  string            `json:"next_step_explanation,omitempty"`
	NextStepMedia        []types.MediaItem `json:"next_step_videos,omitempty"`
	MentionedTopics      []string          `json:"mentioned_topics,omitempty"`
	GraphBased           bool              `json:"graph_based,omitempty"`
	SessionActive        bool              `json:"learning_session_active,omitempty"`
	Progress             string            `json:"progress,omitempty"`
	TopicCompleted       string            `json:"topic_completed,omitempty"`
	TopicAddedToProfile  string            `json:"topic_added_to_profile,omitempty"`
	PathCompleted        bool              `json:"path_completed,omitempty"`
	MasteredTopic        string            `json:"mastered_topic,omitempty"`
	ProfileUpdated       bool              `json:"profile_updated,omitempty"`
	AwaitingSatisfaction bool              `json:"awaiting_satisfaction,omitempty"`
	CurrentTopic         string            `json:"current_topic,omitempty"`
	RequestedAspect      string            `json:"requested_aspect,omitempty"`
	HelpOptionsProvided  bool              `json:"help_options_provided,omitempty"`
	DetailedExplanation  bool              `json:"detailed_explanation_provided,omitempty"`
	NoActivePath         bool              `json:"no_active_path,omitempty"`
	Dynamic              bool              `json:"dynamic,omitempty"`
	Logged               bool              `json:"logged,omitempty"`
	Error                string            `json:"error,omitempty"`
}

// ChatResponse is the engine-facing response for one turn.
type ChatResponse struct {
	Response string            `json:"response"`
	Videos   []types.MediaItem `json:"videos"`
	Analysis Analysis          `json:"analysis"`
}

// conversationState is the explicit form of the per-turn session
// state that the flows below switch on.
type conversationState int

const (
	stateNoActivePath conversationState = iota
	stateStepActive
	statePathCompleted
)

func deriveState(sess types.LearningSession) conversationState {
	switch {
	case len(sess.CurrentPath) == 0:
		return stateNoActivePath
	case sess.PathExhausted():
		return statePathCompleted
	default:
		return stateStepActive
	}
}

// ChatService routes one message through intent classification, the
// session state machine, and the path engine, assembling the final
// response from the collaborator services.
type ChatService interface {
	HandleMessage(ctx context.Context, req ChatRequest) ChatResponse
}

type chatService struct {
	log            *logger.Logger
	graphs         *knowledge.Store
	engine         *pathing.Engine
	sessions       SessionService
	profiles       ProfileService
	explainer      ExplainerService
	media          MediaService
	unknownQueries repos.UnknownQueryRepo
}

func NewChatService(
	graphs *knowledge.Store,
	engine *pathing.Engine,
	sessions SessionService,
	profiles ProfileService,
	explainer ExplainerService,
	media MediaService,
	unknownQueries repos.UnknownQueryRepo,
	baseLog *logger.Logger,
) ChatService {
	return &chatService{
		log:            baseLog.With("service", "ChatService"),
		graphs:         graphs,
		engine:         engine,
		sessions:       sessions,
		profiles:       profiles,
		explainer:      explainer,
		media:          media,
		unknownQueries: unknownQueries,
	}
}

func (c *chatService) HandleMessage(ctx context.Context, req ChatRequest) ChatResponse {
	g := c.graphs.Graph()

	known, err := c.profiles.KnownConcepts(ctx, g, req.UserID, req.KnownTopics, req.KnownSubtopics)
	if errors.Is(err, ErrProfileNotFound) {
		return ChatResponse{
			Response: "I couldn't find your user profile. Please complete the onboarding process first to get personalized learning recommendations.",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{Error: "no user profile found"},
		}
	}
	if err != nil {
		return ChatResponse{
			Response: "I'm having trouble loading your learning profile right now. Please try again in a moment.",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{Error: "profile unavailable"},
		}
	}

	flags := intent.Classify(req.Message, req.ChatHistory)
	smallTalk := intent.IsSmallTalk(req.Message)

	switch {
	case flags.SatisfiedWithTopic || flags.WantsToCompleteTopic:
		return c.handleCompletion(ctx, g, req, flags)
	case flags.WantsNextTopic || flags.ConfirmsUnderstanding:
		return c.handleAdvance(ctx, g, req)
	case flags.NeedsMoreExplanation:
		return c.handleDeepen(ctx, req, known)
	case flags.SaysNoNeedHelp:
		return c.handleHelpMenu(ctx, req, known)
	case smallTalk:
		return ChatResponse{
			Response: c.explainer.SmallTalkReply(ctx, req.Message),
			Videos:   []types.MediaItem{},
			Analysis: Analysis{SmallTalk: true, KnownTopics: known.Names},
		}
	}

	if mentioned := g.MentionedNodes(req.Message); len(mentioned) > 0 {
		return c.handleNewTopic(ctx, g, req, known, mentioned)
	}
	return c.handleDynamic(ctx, req, known)
}

// handleCompletion commits the current step to the learner profile
// when the user has confirmed satisfaction. A bare completion wish
// only asks for that confirmation, so an ambiguous "done" can never
// write the profile by itself.
func (c *chatService) handleCompletion(ctx context.Context, g *knowledge.Graph, req ChatRequest, flags intent.Flags) ChatResponse {
	sess := c.sessions.Get(ctx, req.UserID)
	if deriveState(sess) != stateStepActive {
		return ChatResponse{
			Response: "You don't have an active learning path. Please ask about a topic to get started!",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{NoActivePath: true},
		}
	}
	currentTopic := sess.CurrentStep()

	if !flags.SatisfiedWithTopic {
		response := fmt.Sprintf("Great to hear you understand **%s**!\n\n", currentTopic)
		response += fmt.Sprintf("Are you satisfied with your understanding of **%s** and ready to add it to your profile?\n\n", currentTopic)
		response += "Reply with:\n"
		response += "- **'Yes'** or **'I am satisfied'** - Add to profile and continue\n"
		response += "- **'No'** - Get more practice and examples\n"
		response += "- **'Next topic'** - Continue without adding to profile"
		return ChatResponse{
			Response: response,
			Videos:   []types.MediaItem{},
			Analysis: Analysis{AwaitingSatisfaction: true, CurrentTopic: currentTopic},
		}
	}

	profileUpdated := c.profiles.MarkTopicKnown(ctx, g, req.UserID, currentTopic)
	newSess, ok := c.sessions.CompleteCurrentStep(ctx, req.UserID)
	if !ok {
		return ChatResponse{
			Response: "There seems to be an issue with your learning progress. Let's start fresh - what would you like to learn?",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{Error: "progress error"},
		}
	}

	switch deriveState(newSess) {
	case stateStepActive:
		nextTopic := newSess.CurrentStep()
		explanation, videos := c.stepBundle(ctx, nextTopic)
		progress := fmt.Sprintf("%d/%d", newSess.CurrentStepIndex+1, len(newSess.CurrentPath))

		response := fmt.Sprintf("Excellent! **%s** has been added to your profile!\n\n", currentTopic)
		response += fmt.Sprintf("**Next Topic: %s** (Step %s)\n\n", nextTopic, progress)
		response += "Ready to continue with the next topic? Let me know when you want to proceed!"
		return ChatResponse{
			Response: response,
			Videos:   []types.MediaItem{},
			Analysis: Analysis{
				TopicAddedToProfile: currentTopic,
				ProfileUpdated:      profileUpdated,
				NextStep:            nextTopic,
				NextStepExplanation: explanation,
				NextStepMedia:       videos,
				Progress:            progress,
				LearningPath:        newSess.CurrentPath,
				SessionActive:       true,
			},
		}
	default:
		target := currentTopic
		if newSess.TargetTopic != nil {
			target = *newSess.TargetTopic
		}
		response := fmt.Sprintf("**Congratulations!** You've completed your entire learning path and mastered **%s**!\n\n", target)
		response += fmt.Sprintf("**%s** has been added to your profile.\n\nWhat would you like to learn next?", currentTopic)
		return ChatResponse{
			Response: response,
			Videos:   []types.MediaItem{},
			Analysis: Analysis{
				PathCompleted:       true,
				MasteredTopic:       target,
				ProfileUpdated:      profileUpdated,
				TopicAddedToProfile: currentTopic,
			},
		}
	}
}

func (c *chatService) handleAdvance(ctx context.Context, g *knowledge.Graph, req ChatRequest) ChatResponse {
	sess := c.sessions.Get(ctx, req.UserID)
	if deriveState(sess) == stateNoActivePath {
		return ChatResponse{
			Response: "You don't have an active learning path. Please ask about a topic to get started!",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{NoActivePath: true},
		}
	}
	completedTopic := sess.CurrentStep()
	newSess, ok := c.sessions.CompleteCurrentStep(ctx, req.UserID)
	if !ok {
		return ChatResponse{
			Response: "There seems to be an issue with your learning progress. Let's start fresh - what would you like to learn?",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{Error: "progress error"},
		}
	}

	switch deriveState(newSess) {
	case stateStepActive:
		nextTopic := newSess.CurrentStep()
		explanation, videos := c.stepBundle(ctx, nextTopic)
		progress := fmt.Sprintf("%d/%d", newSess.CurrentStepIndex+1, len(newSess.CurrentPath))

		response := fmt.Sprintf("Great! You've completed **%s**!\n\n", completedTopic)
		response += fmt.Sprintf("**Next Topic: %s** (Step %s)\n\n", nextTopic, progress)
		response += "When you're ready to continue or if you understand this topic, just say 'next topic' or 'I understand'!"
		return ChatResponse{
			Response: response,
			Videos:   []types.MediaItem{},
			Analysis: Analysis{
				TopicCompleted:      completedTopic,
				NextStep:            nextTopic,
				NextStepExplanation: explanation,
				NextStepMedia:       videos,
				Progress:            progress,
				LearningPath:        newSess.CurrentPath,
				SessionActive:       true,
			},
		}
	default:
		target := completedTopic
		if newSess.TargetTopic != nil {
			target = *newSess.TargetTopic
		}
		profileUpdated := c.profiles.MarkTopicKnown(ctx, g, req.UserID, target)
		response := fmt.Sprintf("**Congratulations!** You've completed your learning path and mastered **%s**!\n\n", target)
		response += "This topic has been added to your profile.\n\nWhat would you like to learn next?"
		return ChatResponse{
			Response: response,
			Videos:   []types.MediaItem{},
			Analysis: Analysis{
				PathCompleted:  true,
				MasteredTopic:  target,
				ProfileUpdated: profileUpdated,
			},
		}
	}
}

func (c *chatService) handleDeepen(ctx context.Context, req ChatRequest, known KnownConceptSet) ChatResponse {
	sess := c.sessions.Get(ctx, req.UserID)
	if deriveState(sess) != stateStepActive {
		return ChatResponse{
			Response: "I'd be happy to explain more! What specific topic would you like me to clarify?",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{KnownTopics: known.Names},
		}
	}
	currentTopic := sess.CurrentStep()
	aspect := intent.DetectAspect(req.Message)

	var explanation string
	var videos []types.MediaItem
	c.withTimeout(ctx, func(tctx context.Context) {
		grp, gctx := errgroup.WithContext(tctx)
		grp.Go(func() error {
			explanation = c.explainer.ExplainAspect(gctx, currentTopic, aspect)
			return nil
		})
		grp.Go(func() error {
			term := currentTopic + " tutorial beginner"
			if aspect != intent.AspectGeneral {
				term += " " + strings.ReplaceAll(string(aspect), "_", " ")
			}
			videos = c.media.Recommend(gctx, term)
			return nil
		})
		_ = grp.Wait()
	})

	response := fmt.Sprintf("No worries! Let me explain **%s** in more detail", currentTopic)
	if aspect != intent.AspectGeneral {
		response += fmt.Sprintf(" with focus on %s", strings.ReplaceAll(string(aspect), "_", " "))
	}
	response += ":\n\nTake your time to understand this. When you're ready, let me know if you:\n"
	response += "- Want even more examples (say 'more examples')\n"
	response += "- Have specific questions (just ask!)\n"
	response += "- Feel ready to continue (say 'I understand' or 'next topic')\n"
	response += "- Want to try a different approach (say 'explain differently')"

	analysis := Analysis{
		DetailedExplanation: true,
		CurrentTopic:        currentTopic,
		NextStep:            currentTopic,
		NextStepExplanation: explanation,
		NextStepMedia:       videos,
		SessionActive:       true,
	}
	if aspect != intent.AspectGeneral {
		analysis.RequestedAspect = string(aspect)
	}
	return ChatResponse{Response: response, Videos: []types.MediaItem{}, Analysis: analysis}
}

func (c *chatService) handleHelpMenu(ctx context.Context, req ChatRequest, known KnownConceptSet) ChatResponse {
	sess := c.sessions.Get(ctx, req.UserID)
	if deriveState(sess) != stateStepActive {
		return ChatResponse{
			Response: "I'm here to help! What would you like to know more about?",
			Videos:   []types.MediaItem{},
			Analysis: Analysis{KnownTopics: known.Names},
		}
	}
	topic := sess.CurrentStep()

	response := fmt.Sprintf("No worries! I understand you might need something different about **%s**.\n\n", topic)
	response += "What specific aspect would you like me to explain? For example:\n"
	response += fmt.Sprintf("- How %s works step by step\n", topic)
	response += fmt.Sprintf("- Real-world examples of %s\n", topic)
	response += fmt.Sprintf("- Common mistakes with %s\n", topic)
	response += fmt.Sprintf("- Code implementation of %s\n", topic)
	response += fmt.Sprintf("- When to use %s\n\n", topic)
	response += "Just tell me what you'd like to know more about, and I'll explain it in detail!"

	return ChatResponse{
		Response: response,
		Videos:   []types.MediaItem{},
		Analysis: Analysis{CurrentTopic: topic, HelpOptionsProvided: true},
	}
}

// handleNewTopic replaces any unfinished path with a fresh one aimed
// at the first mentioned node.
func (c *chatService) handleNewTopic(ctx context.Context, g *knowledge.Graph, req ChatRequest, known KnownConceptSet, mentioned []*knowledge.Node) ChatResponse {
	target := mentioned[0]
	mentionedNames := make([]string, 0, len(mentioned))
	for _, n := range mentioned {
		mentionedNames = append(mentionedNames, n.Name)
	}

	result := c.engine.FindPath(g, known.IDs, target.ID)

	var gaps []string
	if target.Kind == knowledge.KindTopic {
		ga := c.engine.SubtopicGaps(g, known.IDs, target.ID)
		gaps = append(gaps, namesAll(g, ga.MissingPrerequisites)...)
		gaps = append(gaps, namesAll(g, ga.RecommendedSubtopics)...)
	}

	if result.Reason == pathing.ReasonAlreadyCompleted {
		response := fmt.Sprintf("You already know **%s**! Want to go deeper, or pick a new topic to learn next?", target.Name)
		return ChatResponse{
			Response: response,
			Videos:   []types.MediaItem{},
			Analysis: Analysis{
				KnownTopics:     known.Names,
				MentionedTopics: mentionedNames,
				GraphBased:      true,
			},
		}
	}

	c.sessions.Mutate(ctx, req.UserID, func(sess *types.LearningSession) {
		sess.CurrentPath = append([]string(nil), result.Path...)
		sess.CurrentStepIndex = 0
		name := target.Name
		sess.TargetTopic = &name
	})

	nextStep := firstUnknownStep(g, result.Path, known.IDs)

	var explanation string
	var videos []types.MediaItem
	if nextStep != "" {
		explanation, videos = c.stepBundle(ctx, nextStep)
	}

	response := fmt.Sprintf("Great question about %s! ", target.Name)
	if len(result.Path) > 0 {
		response += fmt.Sprintf("Here's your suggested learning path: %s", strings.Join(result.Path, " -> "))
		if nextStep != "" {
			response += fmt.Sprintf("\n\n**Let's start with: %s**", nextStep)
			response += fmt.Sprintf("\n\nAfter you understand %s, just say 'next topic' or 'I understand' to continue to the next step!", nextStep)
		}
	}
	if len(known.Names) > 0 {
		sample := known.Names
		if len(sample) > 3 {
			sample = sample[:3]
		}
		response += fmt.Sprintf("\n\nI see you already know: %s. Great foundation!", strings.Join(sample, ", "))
	}

	return ChatResponse{
		Response: response,
		Videos:   []types.MediaItem{},
		Analysis: Analysis{
			Gaps:                gaps,
			LearningPath:        result.Path,
			NextStep:            nextStep,
			NextStepExplanation: explanation,
			NextStepMedia:       videos,
			KnownTopics:         known.Names,
			MentionedTopics:     mentionedNames,
			GraphBased:          true,
			SessionActive:       true,
		},
	}
}

// handleDynamic covers anything the graph does not know about. The
// raw query goes into the unknown-query log so the graph can be grown
// from real demand later.
func (c *chatService) handleDynamic(ctx context.Context, req ChatRequest, known KnownConceptSet) ChatResponse {
	if err := c.unknownQueries.Append(ctx, req.Message); err != nil {
		c.log.Error("Failed to log unknown query", "error", err)
	}

	var explanation string
	var videos []types.MediaItem
	c.withTimeout(ctx, func(tctx context.Context) {
		grp, gctx := errgroup.WithContext(tctx)
		grp.Go(func() error {
			explanation = c.explainer.ExplainFree(gctx, req.Message)
			return nil
		})
		grp.Go(func() error {
			videos = c.media.Recommend(gctx, req.Message)
			return nil
		})
		_ = grp.Wait()
	})
	if videos == nil {
		videos = []types.MediaItem{}
	}

	return ChatResponse{
		Response: explanation,
		Videos:   videos,
		Analysis: Analysis{Dynamic: true, Logged: true, KnownTopics: known.Names},
	}
}

// stepBundle fetches the explanation and video list for one step
// concurrently. Both collaborators degrade internally, so the bundle
// never fails, only thins out.
func (c *chatService) stepBundle(ctx context.Context, topic string) (string, []types.MediaItem) {
	var explanation string
	var videos []types.MediaItem
	c.withTimeout(ctx, func(tctx context.Context) {
		grp, gctx := errgroup.WithContext(tctx)
		grp.Go(func() error {
			explanation = c.explainer.Explain(gctx, topic)
			return nil
		})
		grp.Go(func() error {
			videos = c.media.Recommend(gctx, topic)
			return nil
		})
		_ = grp.Wait()
	})
	if videos == nil {
		videos = []types.MediaItem{}
	}
	return explanation, videos
}

func (c *chatService) withTimeout(ctx context.Context, fn func(ctx context.Context)) {
	tctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	fn(tctx)
}

// firstUnknownStep finds the first path step the learner has not yet
// mastered. Steps are node names; ids are resolved via the graph.
func firstUnknownStep(g *knowledge.Graph, path []string, knownIDs map[string]bool) string {
	for _, step := range path {
		id, ok := g.NodeIDByName(step)
		if !ok || !knownIDs[id] {
			return step
		}
	}
	return ""
}

func namesAll(g *knowledge.Graph, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.NameOf(id))
	}
	return out
}
