package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/metrics"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

// ErrAlreadySettled 公告记录已不存在，说明 (社区, 比赛) 已结算过
var ErrAlreadySettled = errors.New("match already settled for community")

// SettlementService 结果结算：BROADCAST -> SETTLED
type SettlementService struct {
	db          *gorm.DB
	broadcasts  repository.BroadcastRepository
	predictions repository.PredictionRepository
	stats       repository.StatsRepository
	tracker     *BroadcastTracker
	source      interfaces.MatchSource
	notifier    interfaces.Notifier
	board       *StatsService
	workers     int
	logger      *logrus.Logger
	now         func() time.Time
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	db *gorm.DB,
	broadcasts repository.BroadcastRepository,
	predictions repository.PredictionRepository,
	stats repository.StatsRepository,
	tracker *BroadcastTracker,
	source interfaces.MatchSource,
	notifier interfaces.Notifier,
	board *StatsService,
	workers int,
	logger *logrus.Logger,
) *SettlementService {
	if workers <= 0 {
		workers = 1
	}
	return &SettlementService{
		db:          db,
		broadcasts:  broadcasts,
		predictions: predictions,
		stats:       stats,
		tracker:     tracker,
		source:      source,
		notifier:    notifier,
		board:       board,
		workers:     workers,
		logger:      logger,
		now:         time.Now,
	}
}

// resultMemo 一轮结算内同一场比赛只查询一次数据源
type resultMemo struct {
	source interfaces.MatchSource
	group  singleflight.Group
	mu     sync.Mutex
	seen   map[string]*model.MatchResult
}

func (m *resultMemo) lookup(matchID string) (*model.MatchResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.seen[matchID]
	return res, ok
}

func (m *resultMemo) check(ctx context.Context, matchID string) (*model.MatchResult, bool) {
	if res, ok := m.lookup(matchID); ok {
		return res, res != nil
	}
	v, _, _ := m.group.Do(matchID, func() (interface{}, error) {
		if res, ok := m.lookup(matchID); ok {
			return res, nil
		}
		res, finished := m.source.CheckResult(ctx, matchID)
		if !finished {
			res = nil
		}
		m.mu.Lock()
		m.seen[matchID] = res
		m.mu.Unlock()
		return res, nil
	})
	res := v.(*model.MatchResult)
	return res, res != nil
}

// Run 对每个已配置频道的社区，检查其全部未结算公告记录
func (s *SettlementService) Run(ctx context.Context) error {
	channels, err := s.broadcasts.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("ListChannels: %w", err)
	}
	if len(channels) == 0 {
		return nil
	}

	memo := &resultMemo{source: s.source, seen: make(map[string]*model.MatchResult)}
	var settled int64

	wp := workerpool.New(s.workers)
	for _, ch := range channels {
		ch := ch
		wp.Submit(func() {
			atomic.AddInt64(&settled, int64(s.settleCommunity(ctx, ch, memo)))
		})
	}
	wp.StopWait()

	if settled > 0 {
		s.logger.Infof("结果结算：%d 个社区，结算 %d 场比赛", len(channels), settled)
	}
	return nil
}

func (s *SettlementService) settleCommunity(ctx context.Context, ch *model.BroadcastChannel, memo *resultMemo) int {
	log := s.logger.WithField("community_id", ch.CommunityID)

	records, err := s.tracker.ListForCommunity(ctx, ch.CommunityID)
	if err != nil {
		log.WithError(err).Warn("ListForCommunity")
		return 0
	}

	now := s.now()
	settled := 0
	for _, rec := range records {
		if rec.ScheduledAt.After(now) {
			continue
		}
		m, err := rec.Match()
		if err != nil {
			log.WithError(err).Warn("公告快照损坏，跳过")
			continue
		}
		result, finished := memo.check(ctx, rec.MatchID)
		if !finished {
			continue
		}

		entries, err := s.SettleMatch(ctx, ch.CommunityID, m, result)
		if errors.Is(err, ErrAlreadySettled) {
			continue
		}
		if err != nil {
			log.WithError(err).WithField("match_id", rec.MatchID).Error("结算失败，下轮重试")
			continue
		}
		settled++
		s.board.Invalidate(ctx, ch.CommunityID)

		// 结果公告最多发送一次，失败只记录
		err = s.notifier.PublishResult(ctx, &model.ResultAnnouncement{
			CommunityID: ch.CommunityID,
			ChannelID:   ch.ChannelID,
			Match:       *m,
			Result:      *result,
			Entries:     entries,
		})
		if err != nil {
			metrics.ResultDeliveryFailures.Inc()
			log.WithError(err).WithField("match_id", rec.MatchID).Warn("结果公告发送失败，结算状态不回退")
		}
	}
	return settled
}

// SettleMatch 在一个事务内：删除公告记录占位，逐条结算该社区未结算的预测并累加战绩
func (s *SettlementService) SettleMatch(ctx context.Context, communityID string, m *model.Match, result *model.MatchResult) ([]model.ResultEntry, error) {
	var entries []model.ResultEntry
	settledAt := s.now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries = entries[:0]

		retired, err := s.tracker.WithTx(tx).Retire(ctx, communityID, m.ID)
		if err != nil {
			return err
		}
		if !retired {
			return ErrAlreadySettled
		}

		preds, err := s.predictions.WithTx(tx).ListUnsettled(ctx, m.ID, communityID)
		if err != nil {
			return fmt.Errorf("ListUnsettled: %w", err)
		}
		for _, p := range preds {
			score, err := model.ParseScore(p.Score)
			if err != nil {
				return fmt.Errorf("预测比分损坏(id=%d): %w", p.ID, err)
			}
			outcome := model.Evaluate(score, result)

			marked, err := s.predictions.WithTx(tx).MarkSettled(ctx, p.ID, outcome, result.Score(), settledAt)
			if err != nil {
				return fmt.Errorf("MarkSettled: %w", err)
			}
			if marked == 0 {
				continue
			}
			if err := s.stats.WithTx(tx).IncrementOutcome(ctx, p.MemberID, communityID, outcome); err != nil {
				return fmt.Errorf("IncrementOutcome: %w", err)
			}
			entries = append(entries, model.ResultEntry{MemberID: p.MemberID, Prediction: p.Score, Outcome: outcome})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SettledMatches.Inc()
	for _, e := range entries {
		metrics.SettledPredictions.WithLabelValues(string(e.Outcome)).Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"community_id": communityID,
		"match_id":     m.ID,
		"score":        result.Score(),
		"predictions":  len(entries),
	}).Info("比赛已结算")
	return entries, nil
}
