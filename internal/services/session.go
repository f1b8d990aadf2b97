package services

import (
	"context"
	"sync"
	"time"

	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/repos"
	"github.com/knograph/knograph-backend/internal/types"
)

// SessionService owns every learning session in memory and mirrors
// mutations to the database synchronously. Mutations for the same user
// are serialized by a per-user mutex; different users never contend.
// A persistence failure is logged and the in-memory state stays
// authoritative for the rest of the process lifetime.
type SessionService interface {
	Get(ctx context.Context, userID string) types.LearningSession
	Mutate(ctx context.Context, userID string, fn func(s *types.LearningSession)) types.LearningSession
	CompleteCurrentStep(ctx context.Context, userID string) (types.LearningSession, bool)
	Reset(ctx context.Context, userID string) types.LearningSession
}

type sessionService struct {
	log  *logger.Logger
	repo repos.SessionRepo

	mu       sync.Mutex
	sessions map[string]*types.LearningSession
	locks    map[string]*sync.Mutex
}

// NewSessionService loads the whole session table so that reads never
// touch the database afterwards. A load failure starts the service
// empty rather than refusing to boot.
func NewSessionService(ctx context.Context, repo repos.SessionRepo, baseLog *logger.Logger) SessionService {
	log := baseLog.With("service", "SessionService")
	s := &sessionService{
		log:      log,
		repo:     repo,
		sessions: map[string]*types.LearningSession{},
		locks:    map[string]*sync.Mutex{},
	}
	rows, err := repo.LoadAll(ctx)
	if err != nil {
		log.Error("Failed to load sessions, starting empty", "error", err)
		return s
	}
	for i := range rows {
		row := rows[i]
		s.sessions[row.UserID] = &row
	}
	log.Info("Sessions loaded", "count", len(rows))
	return s
}

func (s *sessionService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[userID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[userID] = l
	return l
}

// getOrCreate must be called with the user lock held.
func (s *sessionService) getOrCreate(userID string) *types.LearningSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	now := time.Now().UTC()
	sess := &types.LearningSession{
		UserID:           userID,
		CurrentPath:      []string{},
		CurrentStepIndex: 0,
		CompletedTopics:  []types.CompletedTopic{},
		SessionStartedAt: now,
		LastUpdatedAt:    now,
	}
	s.sessions[userID] = sess
	return sess
}

func (s *sessionService) Get(ctx context.Context, userID string) types.LearningSession {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return snapshot(s.getOrCreate(userID))
}

func (s *sessionService) Mutate(ctx context.Context, userID string, fn func(sess *types.LearningSession)) types.LearningSession {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := s.getOrCreate(userID)
	fn(sess)
	sess.LastUpdatedAt = time.Now().UTC()
	s.persist(ctx, sess)
	return snapshot(sess)
}

func (s *sessionService) CompleteCurrentStep(ctx context.Context, userID string) (types.LearningSession, bool) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess := s.getOrCreate(userID)
	step := sess.CurrentStep()
	if step == "" {
		return snapshot(sess), false
	}
	now := time.Now().UTC()
	sess.CompletedTopics = append(sess.CompletedTopics, types.CompletedTopic{
		Topic:       step,
		CompletedAt: now,
	})
	sess.CurrentStepIndex++
	sess.LastUpdatedAt = now
	s.persist(ctx, sess)
	return snapshot(sess), true
}

// Reset clears the active path and target but keeps the completed
// history. It is a soft reset of the current path only.
func (s *sessionService) Reset(ctx context.Context, userID string) types.LearningSession {
	return s.Mutate(ctx, userID, func(sess *types.LearningSession) {
		sess.CurrentPath = []string{}
		sess.CurrentStepIndex = 0
		sess.TargetTopic = nil
	})
}

func (s *sessionService) persist(ctx context.Context, sess *types.LearningSession) {
	if err := s.repo.Upsert(ctx, sess); err != nil {
		s.log.Error("Failed to persist session, memory remains authoritative", "user_id", sess.UserID, "error", err)
	}
}

// snapshot deep-copies the slices so callers can never race the owner.
func snapshot(sess *types.LearningSession) types.LearningSession {
	out := *sess
	out.CurrentPath = append([]string(nil), sess.CurrentPath...)
	out.CompletedTopics = append([]types.CompletedTopic(nil), sess.CompletedTopics...)
	return out
}
