package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

// LedgerService 每个 (比赛, 成员, 社区) 只保留一条预测，截止前可覆盖；不关心截止时间
type LedgerService struct {
	predictions repository.PredictionRepository
	logger      *logrus.Logger
}

// NewLedgerService 创建预测账本
func NewLedgerService(predictions repository.PredictionRepository, logger *logrus.Logger) *LedgerService {
	return &LedgerService{predictions: predictions, logger: logger}
}

// WithTx 绑定到事务
func (s *LedgerService) WithTx(tx *gorm.DB) *LedgerService {
	return &LedgerService{predictions: s.predictions.WithTx(tx), logger: s.logger}
}

// Submit 校验后写入预测，返回预测记录以及是否为新建
func (s *LedgerService) Submit(ctx context.Context, matchID, memberID, communityID, scoreText string, snapshot *model.Match) (*model.Prediction, bool, error) {
	score, err := ValidatePrediction(scoreText, snapshot.Format)
	if err != nil {
		return nil, false, err
	}
	normalized := score.String()

	existing, err := s.predictions.Find(ctx, matchID, memberID, communityID)
	if err != nil {
		return nil, false, fmt.Errorf("查询预测失败: %w", err)
	}
	if existing == nil {
		p := &model.Prediction{
			PredictionUUID: uuid.NewString(),
			MatchID:        matchID,
			MemberID:       memberID,
			CommunityID:    communityID,
			Score:          normalized,
			Team1:          snapshot.Team1,
			Team2:          snapshot.Team2,
			Tournament:     snapshot.Tournament,
			ScheduledAt:    snapshot.ScheduledAt.UTC(),
		}
		err = s.predictions.Create(ctx, p)
		if err == nil {
			return p, true, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, fmt.Errorf("保存预测失败: %w", err)
		}
		// 并发提交先插入的一方胜出，这里转为覆盖
		existing, err = s.predictions.Find(ctx, matchID, memberID, communityID)
		if err != nil {
			return nil, false, fmt.Errorf("保存预测失败: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("保存预测失败: 唯一键冲突但记录不存在")
		}
	}

	if existing.Settled() {
		return nil, false, apperr.Validation(apperr.CodeAlreadySettled, "此比賽已結算，無法再修改預測！")
	}
	n, err := s.predictions.UpdateScore(ctx, existing.ID, normalized, snapshot)
	if err != nil {
		return nil, false, fmt.Errorf("更新预测失败: %w", err)
	}
	if n == 0 {
		return nil, false, apperr.Validation(apperr.CodeAlreadySettled, "此比賽已結算，無法再修改預測！")
	}
	existing.Score = normalized
	s.logger.WithFields(logrus.Fields{
		"match_id":     matchID,
		"member_id":    memberID,
		"community_id": communityID,
	}).Debug("预测已覆盖")
	return existing, false, nil
}

// PredictionsFor 一场比赛在所有社区的预测
func (s *LedgerService) PredictionsFor(ctx context.Context, matchID string) ([]*model.Prediction, error) {
	return s.predictions.ListByMatch(ctx, matchID)
}

// History 成员最近的预测记录
func (s *LedgerService) History(ctx context.Context, memberID, communityID string, limit int) ([]*model.Prediction, error) {
	return s.predictions.ListByMember(ctx, memberID, communityID, limit)
}
