package services

import (
	"context"

	"github.com/knograph/knograph-backend/internal/clients/youtube"
	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/types"
)

// MediaService recommends learning videos. Failures and a nil finder
// both degrade to an empty list; the chat flow never depends on it.
type MediaService interface {
	Recommend(ctx context.Context, term string) []types.MediaItem
}

type mediaService struct {
	log    *logger.Logger
	finder youtube.Client
}

func NewMediaService(finder youtube.Client, baseLog *logger.Logger) MediaService {
	return &mediaService{
		log:    baseLog.With("service", "MediaService"),
		finder: finder,
	}
}

func (m *mediaService) Recommend(ctx context.Context, term string) []types.MediaItem {
	if m.finder == nil || term == "" {
		return []types.MediaItem{}
	}
	items, err := m.finder.Search(ctx, term)
	if err != nil {
		m.log.Warn("Video search failed", "term", term, "error", err)
		return []types.MediaItem{}
	}
	if items == nil {
		items = []types.MediaItem{}
	}
	return items
}
