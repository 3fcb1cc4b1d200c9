package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/metrics"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

// DiscoveryService 赛程发现：把新比赛公告到每个已配置频道的社区（NOT_BROADCAST -> BROADCAST）
type DiscoveryService struct {
	channels repository.BroadcastRepository
	tracker  *BroadcastTracker
	source   interfaces.MatchSource
	notifier interfaces.Notifier
	window   time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// NewDiscoveryService 创建赛程发现服务
func NewDiscoveryService(
	channels repository.BroadcastRepository,
	tracker *BroadcastTracker,
	source interfaces.MatchSource,
	notifier interfaces.Notifier,
	window time.Duration,
	logger *logrus.Logger,
) *DiscoveryService {
	return &DiscoveryService{
		channels: channels,
		tracker:  tracker,
		source:   source,
		notifier: notifier,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// Run 拉取一次赛程，逐社区公告未公告过的比赛；发送成功才记录，失败的下轮重试
func (s *DiscoveryService) Run(ctx context.Context) error {
	channels, err := s.channels.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("ListChannels: %w", err)
	}
	if len(channels) == 0 {
		s.logger.Debug("没有配置公告频道的社区，跳过赛程发现")
		return nil
	}

	now := s.now().UTC()
	fetched := s.source.FetchUpcoming(ctx, now, now.Add(s.window))
	if len(fetched) == 0 {
		return nil
	}

	announced, failed := 0, 0
	for _, ch := range channels {
		a, f := s.announceCommunity(ctx, ch, fetched)
		announced += a
		failed += f
	}

	if announced > 0 || failed > 0 {
		s.logger.Infof("赛程发现：拉取 %d 场，公告 %d 场，发送失败 %d 场", len(fetched), announced, failed)
	}
	return nil
}

func (s *DiscoveryService) announceCommunity(ctx context.Context, ch *model.BroadcastChannel, fetched []model.Match) (int, int) {
	log := s.logger.WithField("community_id", ch.CommunityID)

	pending, err := s.tracker.PendingForCommunity(ctx, ch.CommunityID, fetched)
	if err != nil {
		log.WithError(err).Warn("PendingForCommunity")
		return 0, 0
	}

	announced, failed := 0, 0
	for i := range pending {
		m := pending[i]
		err := s.notifier.Announce(ctx, &model.Announcement{
			CommunityID: ch.CommunityID,
			ChannelID:   ch.ChannelID,
			Match:       m,
		})
		if err != nil {
			failed++
			metrics.Announcements.WithLabelValues("failed").Inc()
			log.WithError(err).WithField("match_id", m.ID).Warn("比赛公告发送失败，下轮重试")
			continue
		}
		metrics.Announcements.WithLabelValues("ok").Inc()

		if err := s.tracker.RecordBroadcast(ctx, ch.CommunityID, &m); err != nil {
			// 已发送但未记录，下轮会再次公告
			log.WithError(err).WithField("match_id", m.ID).Error("RecordBroadcast")
			continue
		}
		announced++
	}
	return announced, failed
}
