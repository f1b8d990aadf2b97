package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/types"
)

type UnknownQueryRepo interface {
	Append(ctx context.Context, query string) error
	ListUnprocessed(ctx context.Context, limit int) ([]types.UnknownQuery, error)
}

type unknownQueryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnknownQueryRepo(db *gorm.DB, baseLog *logger.Logger) UnknownQueryRepo {
	return &unknownQueryRepo{
		db:  db,
		log: baseLog.With("repo", "UnknownQueryRepo"),
	}
}

func (r *unknownQueryRepo) Append(ctx context.Context, query string) error {
	if query == "" {
		return nil
	}
	row := &types.UnknownQuery{
		ID:        uuid.New(),
		Query:     query,
		Timestamp: time.Now().UTC(),
		Processed: false,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *unknownQueryRepo) ListUnprocessed(ctx context.Context, limit int) ([]types.UnknownQuery, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []types.UnknownQuery
	err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("timestamp asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
