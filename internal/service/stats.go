package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cache"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

// LeaderboardSize 排行榜显示人数
const LeaderboardSize = 10

// LeaderboardEntry 排行榜一行
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	MemberID string  `json:"member_id"`
	Perfect  int     `json:"perfect"`
	Winner   int     `json:"winner"`
	Failed   int     `json:"failed"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// StatsService 成员战绩与排行榜（读缓存，结算后失效）
type StatsService struct {
	stats  repository.StatsRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewStatsService 创建战绩服务
func NewStatsService(stats repository.StatsRepository, c cache.Cache, ttl time.Duration, logger *logrus.Logger) *StatsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &StatsService{stats: stats, cache: c, ttl: ttl, logger: logger}
}

// Leaderboard 社区排行榜：perfect、winner、总场数降序，没有预测的成员不上榜
func (s *StatsService) Leaderboard(ctx context.Context, communityID string) ([]LeaderboardEntry, error) {
	key := cache.LeaderboardKey(communityID)
	var cached []LeaderboardEntry
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).WithField("community_id", communityID).Warn("读取排行榜缓存失败")
	} else if hit {
		return cached, nil
	}

	rows, err := s.stats.Leaderboard(ctx, communityID, LeaderboardSize)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			MemberID: r.MemberID,
			Perfect:  r.Perfect,
			Winner:   r.Winner,
			Failed:   r.Failed,
			Total:    r.Total(),
			Accuracy: r.Accuracy(),
		})
	}

	if err := s.cache.Set(ctx, key, entries, s.ttl); err != nil {
		s.logger.WithError(err).WithField("community_id", communityID).Warn("写入排行榜缓存失败")
	}
	return entries, nil
}

// MemberStats 成员战绩，没有记录时返回全零
func (s *StatsService) MemberStats(ctx context.Context, memberID, communityID string) (*model.MemberStats, error) {
	st, err := s.stats.Get(ctx, memberID, communityID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &model.MemberStats{MemberID: memberID, CommunityID: communityID}
	}
	return st, nil
}

// Invalidate 清除社区排行榜缓存
func (s *StatsService) Invalidate(ctx context.Context, communityID string) {
	if err := s.cache.Delete(ctx, cache.LeaderboardKey(communityID)); err != nil {
		s.logger.WithError(err).WithField("community_id", communityID).Warn("清除排行榜缓存失败")
	}
}
