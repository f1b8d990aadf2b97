package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/types"
)

type SessionRepo interface {
	LoadAll(ctx context.Context) ([]types.LearningSession, error)
	Upsert(ctx context.Context, session *types.LearningSession) error
	Delete(ctx context.Context, userID string) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: baseLog.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) LoadAll(ctx context.Context) ([]types.LearningSession, error) {
	var rows []types.LearningSession
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionRepo) Upsert(ctx context.Context, session *types.LearningSession) error {
	if session == nil || session.UserID == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_path", "current_step_index", "completed_topics",
				"target_topic", "session_started_at", "last_updated_at",
			}),
		}).
		Create(session).Error
}

func (r *sessionRepo) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.LearningSession{}).Error
}
