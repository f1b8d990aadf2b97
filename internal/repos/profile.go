package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/types"
)

type ProfileRepo interface {
	EnsureProfile(ctx context.Context, userID string) error
	ProfileExists(ctx context.Context, userID string) (bool, error)
	KnownConcepts(ctx context.Context, userID string) ([]types.KnownConcept, error)
	MarkKnown(ctx context.Context, userID, nodeID, name, kind string) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{
		db:  db,
		log: baseLog.With("repo", "ProfileRepo"),
	}
}

func (r *profileRepo) EnsureProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	now := time.Now().UTC()
	row := &types.LearnerProfile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *profileRepo) ProfileExists(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&types.LearnerProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *profileRepo) KnownConcepts(ctx context.Context, userID string) ([]types.KnownConcept, error) {
	if userID == "" {
		return nil, nil
	}
	var rows []types.KnownConcept
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *profileRepo) MarkKnown(ctx context.Context, userID, nodeID, name, kind string) error {
	if userID == "" || nodeID == "" {
		return nil
	}
	now := time.Now().UTC()
	row := &types.KnownConcept{
		UserID:    userID,
		NodeID:    nodeID,
		Name:      name,
		Kind:      kind,
		AddedAt:   now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "node_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "kind", "updated_at",
			}),
		}).
		Create(row).Error
}
