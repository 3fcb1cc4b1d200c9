package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// StatsRepository 成员战绩仓储
type StatsRepository interface {
	// IncrementOutcome 对 (成员, 社区) 的某个计数器原子加一，行不存在时创建
	IncrementOutcome(ctx context.Context, memberID, communityID string, outcome model.Outcome) error
	// Get 查询成员战绩，不存在返回 nil
	Get(ctx context.Context, memberID, communityID string) (*model.MemberStats, error)
	// Leaderboard 按 perfect、winner、总场数降序，排除没有任何预测的成员
	Leaderboard(ctx context.Context, communityID string, limit int) ([]*model.MemberStats, error)
	// WithTx 绑定到事务
	WithTx(tx *gorm.DB) StatsRepository
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建 StatsRepository 实例
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) WithTx(tx *gorm.DB) StatsRepository {
	return &statsRepository{db: tx}
}

// outcomeColumn 结算结果对应的计数列
func outcomeColumn(outcome model.Outcome) (string, error) {
	switch outcome {
	case model.OutcomePerfect:
		return "perfect", nil
	case model.OutcomeWinner:
		return "winner", nil
	case model.OutcomeFailed:
		return "failed", nil
	default:
		return "", fmt.Errorf("未知的结算结果: %s", outcome)
	}
}

// IncrementOutcome 以 upsert 累加增量，而不是读出再整体覆盖
func (r *statsRepository) IncrementOutcome(ctx context.Context, memberID, communityID string, outcome model.Outcome) error {
	col, err := outcomeColumn(outcome)
	if err != nil {
		return err
	}
	row := &model.MemberStats{MemberID: memberID, CommunityID: communityID}
	switch outcome {
	case model.OutcomePerfect:
		row.Perfect = 1
	case model.OutcomeWinner:
		row.Winner = 1
	case model.OutcomeFailed:
		row.Failed = 1
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "member_id"}, {Name: "community_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				col:          gorm.Expr(model.MemberStats{}.TableName()+"."+col+" + ?", 1),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(row).Error
}

func (r *statsRepository) Get(ctx context.Context, memberID, communityID string) (*model.MemberStats, error) {
	var s model.MemberStats
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND community_id = ?", memberID, communityID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *statsRepository) Leaderboard(ctx context.Context, communityID string, limit int) ([]*model.MemberStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var list []*model.MemberStats
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Where("perfect + winner + failed > 0").
		Order("perfect DESC").
		Order("winner DESC").
		Order("perfect + winner + failed DESC").
		Order("member_id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
