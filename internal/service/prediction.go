package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/metrics"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// SubmitResult 预测提交结果
type SubmitResult struct {
	Prediction *model.Prediction
	Match      *model.Match
	Created    bool
}

// PredictionService 成员提交预测的入口：截止时间检查后写入账本
type PredictionService struct {
	db      *gorm.DB
	tracker *BroadcastTracker
	ledger  *LedgerService
	logger  *logrus.Logger
	now     func() time.Time
}

// NewPredictionService 创建预测提交服务
func NewPredictionService(db *gorm.DB, tracker *BroadcastTracker, ledger *LedgerService, logger *logrus.Logger) *PredictionService {
	return &PredictionService{db: db, tracker: tracker, ledger: ledger, logger: logger, now: time.Now}
}

// OpenMatch 查询社区中仍可预测的比赛快照，截止时间以公告时冻结的开赛时间为准
func (s *PredictionService) OpenMatch(ctx context.Context, communityID, matchID string) (*model.Match, error) {
	rec, err := s.tracker.Get(ctx, communityID, matchID)
	if err != nil {
		return nil, err
	}
	m, err := rec.Match()
	if err != nil {
		return nil, err
	}
	if s.now().After(m.Deadline()) {
		return nil, apperr.Validation(apperr.CodeDeadlinePassed, "此比賽已超過預測截止時間！")
	}
	return m, nil
}

// Submit 截止后一律拒绝，比分格式错误原样返回校验提示
func (s *PredictionService) Submit(ctx context.Context, communityID, memberID, matchID, scoreText string) (*SubmitResult, error) {
	if communityID == "" || memberID == "" || matchID == "" {
		metrics.PredictionsSubmitted.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation(apperr.CodeInvalidArgument, "缺少社區、成員或比賽資訊！")
	}
	m, err := s.OpenMatch(ctx, communityID, matchID)
	if err != nil {
		metrics.PredictionsSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// 写入与结算的 Retire 锁同一条公告记录，结算先提交则这里读不到记录
	var (
		p       *model.Prediction
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.tracker.WithTx(tx).Lock(ctx, communityID, matchID); err != nil {
			return err
		}
		var err error
		p, created, err = s.ledger.WithTx(tx).Submit(ctx, matchID, memberID, communityID, scoreText, m)
		return err
	})
	if err != nil {
		metrics.PredictionsSubmitted.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if created {
		metrics.PredictionsSubmitted.WithLabelValues("created").Inc()
	} else {
		metrics.PredictionsSubmitted.WithLabelValues("updated").Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"match_id":     matchID,
		"member_id":    memberID,
		"community_id": communityID,
		"score":        p.Score,
		"created":      created,
	}).Info("预测已保存")
	return &SubmitResult{Prediction: p, Match: m, Created: created}, nil
}
