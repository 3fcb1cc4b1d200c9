package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cache"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// MatchService 近期赛程查询（/matches），带短时缓存
type MatchService struct {
	source interfaces.MatchSource
	cache  cache.Cache
	window time.Duration
	ttl    time.Duration
	logger *logrus.Logger
	now    func() time.Time
}

// NewMatchService 创建赛程查询服务
func NewMatchService(source interfaces.MatchSource, c cache.Cache, window, ttl time.Duration, logger *logrus.Logger) *MatchService {
	if c == nil {
		c = cache.Noop{}
	}
	return &MatchService{source: source, cache: c, window: window, ttl: ttl, logger: logger, now: time.Now}
}

// Upcoming 未来 window 内的比赛
func (s *MatchService) Upcoming(ctx context.Context) []model.Match {
	var cached []model.Match
	if hit, err := s.cache.Get(ctx, cache.UpcomingKey, &cached); err == nil && hit {
		return cached
	}

	now := s.now().UTC()
	matches := s.source.FetchUpcoming(ctx, now, now.Add(s.window))
	if len(matches) > 0 {
		if err := s.cache.Set(ctx, cache.UpcomingKey, matches, s.ttl); err != nil {
			s.logger.WithError(err).Warn("写入赛程缓存失败")
		}
	}
	return matches
}
