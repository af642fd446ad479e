package service

import (
	"context"

	"vidtube/internal/cache"
	"vidtube/internal/models"
	"vidtube/internal/observability"
	"vidtube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	dashRepo  repository.DashboardRepository
	videoRepo repository.VideoRepository
}

func NewDashboardService(dashRepo repository.DashboardRepository, videoRepo repository.VideoRepository) *DashboardService {
	return &DashboardService{dashRepo: dashRepo, videoRepo: videoRepo}
}

// ChannelStats totals a channel's videos, views, subscribers and video likes.
// Results are cached briefly; writes that change them invalidate the entry.
func (s *DashboardService) ChannelStats(ctx context.Context, channelID uint) (*models.ChannelStats, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.ChannelStats", attribute.Int64("channel.id", int64(channelID)))
	defer span.End()

	var stats models.ChannelStats
	err := cache.Aside(ctx, cache.ChannelStatsKey(channelID), &stats, cache.ChannelStatsTTL, func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			stats.TotalVideos, err = s.dashRepo.CountVideos(gctx, channelID)
			return err
		})
		g.Go(func() (err error) {
			stats.TotalViews, err = s.dashRepo.SumViews(gctx, channelID)
			return err
		})
		g.Go(func() (err error) {
			stats.TotalSubscribers, err = s.dashRepo.CountSubscribers(gctx, channelID)
			return err
		})
		g.Go(func() (err error) {
			stats.TotalLikes, err = s.dashRepo.CountVideoLikes(gctx, channelID)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	return &stats, nil
}

// ChannelVideos lists every video of the caller's channel, drafts included,
// newest first.
func (s *DashboardService) ChannelVideos(ctx context.Context, channelID uint, page, limit int) (models.Page[models.Video], error) {
	page, limit = repository.ClampPage(page, limit)
	videos, total, err := s.videoRepo.List(ctx, repository.VideoQuery{
		Page:     page,
		Limit:    limit,
		OwnerID:  channelID,
		ViewerID: channelID,
	})
	if err != nil {
		return models.Page[models.Video]{}, err
	}
	return models.NewPage(videos, total, page, limit), nil
}
