package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/knograph/knograph-backend/internal/intent"
	"github.com/knograph/knograph-backend/internal/platform/groq"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

const tutorSystemPrompt = "You are a DSA tutor. Provide clear, concise explanations with examples. Be encouraging and educational."

// Canned topic summaries used when the language model is unavailable
// or times out. Keys match by substring against the topic name.
var topicExplanations = []struct {
	key  string
	text string
}{
	{"array", "Arrays are linear data structures that store elements in contiguous memory locations. They allow random access to elements using indices and are fundamental to many algorithms. Key operations include insertion, deletion, traversal, and searching."},
	{"searching", "Searching algorithms help find specific elements in data structures. Common types include linear search (O(n)) which checks each element sequentially, and binary search (O(log n)) which works on sorted arrays by repeatedly dividing the search space in half."},
	{"sorting", "Sorting algorithms arrange elements in a specific order. Popular algorithms include bubble sort, insertion sort, merge sort, and quick sort. Each has different time complexities and use cases."},
	{"tree", "Trees are hierarchical data structures with a root node and child nodes. They're used for efficient searching, sorting, and representing hierarchical data. Common types include binary trees, BSTs, and AVL trees."},
	{"graph", "Graphs consist of vertices (nodes) and edges (connections). They model relationships between entities and are used in networking, social media, and pathfinding algorithms."},
	{"stack", "Stacks follow the Last-In-First-Out (LIFO) principle. They support push (add) and pop (remove) operations. Used in function calls, expression evaluation, and undo operations."},
	{"queue", "Queues follow the First-In-First-Out (FIFO) principle. They support enqueue (add) and dequeue (remove) operations. Used in scheduling, breadth-first search, and buffering."},
	{"hash", "Hash tables use hash functions to map keys to values, providing O(1) average-case lookup time. They handle collisions through chaining or open addressing."},
	{"linked list", "Linked lists store elements in nodes, where each node contains data and a reference to the next node. They allow dynamic size and efficient insertion/deletion."},
	{"dynamic programming", "Dynamic programming solves complex problems by breaking them into simpler subproblems and storing results to avoid redundant calculations."},
	{"recursion", "Recursion involves functions calling themselves with modified parameters. It's useful for problems that can be broken down into similar smaller problems."},
	{"divide and conquer", "This approach divides problems into smaller subproblems, solves them independently, and combines results. Examples include merge sort and quick sort."},
}

var smallTalkReplies = []struct {
	key  string
	text string
}{
	{"how are you", "I'm doing great and ready to help you learn DSA! What would you like to explore?"},
	{"who are you", "I'm your AI DSA tutor! I can help you learn data structures, algorithms, find learning gaps, and recommend resources."},
	{"what can you do", "I can help you with DSA concepts, analyze your learning gaps, suggest learning paths, and find educational videos. Just ask me about any topic!"},
	{"thanks", "You're welcome! Feel free to ask me anything about data structures and algorithms."},
	{"bye", "Goodbye! Keep practicing those algorithms. See you next time!"},
	{"hello", "Hello! I'm your DSA learning assistant. How can I help you today?"},
	{"hi", "Hi there! Ready to dive into some data structures and algorithms?"},
	{"help", "I'm here to help! You can ask me about specific DSA topics like arrays, trees, sorting algorithms, or ask for learning recommendations based on your profile."},
}

const defaultSmallTalkReply = "Hello! I'm your DSA learning assistant. Feel free to ask me about any data structures or algorithms topic!"

// ExplainerService produces topic explanations. It never fails: when
// the model client is nil or errors out, it falls back to the canned
// summaries above.
type ExplainerService interface {
	Explain(ctx context.Context, topic string) string
	ExplainAspect(ctx context.Context, topic string, aspect intent.Aspect) string
	ExplainFree(ctx context.Context, query string) string
	SmallTalkReply(ctx context.Context, message string) string
}

type explainerService struct {
	log   *logger.Logger
	model groq.Client
}

// NewExplainerService accepts a nil model client; the service then
// runs entirely on fallback text.
func NewExplainerService(model groq.Client, baseLog *logger.Logger) ExplainerService {
	return &explainerService{
		log:   baseLog.With("service", "ExplainerService"),
		model: model,
	}
}

func (e *explainerService) Explain(ctx context.Context, topic string) string {
	return e.generate(ctx, fmt.Sprintf("Explain %s in detail", topic), topic)
}

func (e *explainerService) ExplainAspect(ctx context.Context, topic string, aspect intent.Aspect) string {
	var prompt string
	switch aspect {
	case intent.AspectExample:
		prompt = fmt.Sprintf("Provide examples of %s with step-by-step walkthrough.", topic)
	case intent.AspectImplementation:
		prompt = fmt.Sprintf("Show code implementation of %s with comments.", topic)
	case intent.AspectUseCase:
		prompt = fmt.Sprintf("Explain use cases of %s.", topic)
	case intent.AspectComparison:
		prompt = fmt.Sprintf("Compare %s with similar concepts.", topic)
	case intent.AspectStepByStep:
		prompt = fmt.Sprintf("Step-by-step explanation of %s.", topic)
	default:
		prompt = fmt.Sprintf("Provide a beginner-friendly explanation of %s with a simple definition, an example, and key points. Be encouraging.", topic)
	}
	return e.generate(ctx, prompt, topic)
}

func (e *explainerService) ExplainFree(ctx context.Context, query string) string {
	return e.generate(ctx, query, query)
}

func (e *explainerService) SmallTalkReply(ctx context.Context, message string) string {
	if e.model != nil {
		text, err := e.model.GenerateText(ctx, tutorSystemPrompt, message)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			e.log.Warn("Model call failed, using canned small talk", "error", err)
		}
	}
	lower := strings.ToLower(message)
	for _, row := range smallTalkReplies {
		if strings.Contains(lower, row.key) {
			return row.text
		}
	}
	return defaultSmallTalkReply
}

func (e *explainerService) generate(ctx context.Context, prompt, topic string) string {
	if e.model != nil {
		text, err := e.model.GenerateText(ctx, tutorSystemPrompt, prompt)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			e.log.Warn("Model call failed, using fallback explanation", "topic", topic, "error", err)
		}
	}
	return fallbackExplanation(topic)
}

func fallbackExplanation(topic string) string {
	lower := strings.ToLower(topic)
	for _, row := range topicExplanations {
		if strings.Contains(lower, row.key) {
			return fmt.Sprintf("%s: %s", topic, row.text)
		}
	}
	return fmt.Sprintf("Great question about %s! This is an important concept in data structures and algorithms. I'll help you understand it step by step with practical examples and clear explanations.", topic)
}
