package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// PredictionRepository 预测仓储
type PredictionRepository interface {
	// Find 按 (比赛, 成员, 社区) 查找，不存在返回 nil
	Find(ctx context.Context, matchID, memberID, communityID string) (*model.Prediction, error)
	// Create 新增预测
	Create(ctx context.Context, p *model.Prediction) error
	// UpdateScore 覆盖未结算预测的比分并刷新时间，返回受影响行数
	UpdateScore(ctx context.Context, id uint64, score string, m *model.Match) (int64, error)
	// ListByMatch 一场比赛在所有社区的预测
	ListByMatch(ctx context.Context, matchID string) ([]*model.Prediction, error)
	// ListUnsettled 某社区一场比赛尚未结算的预测
	ListUnsettled(ctx context.Context, matchID, communityID string) ([]*model.Prediction, error)
	// MarkSettled 写入结算结果，只对未结算行生效
	MarkSettled(ctx context.Context, id uint64, outcome model.Outcome, actualScore string, at time.Time) (int64, error)
	// ListByMember 成员在社区的预测历史，按开赛时间倒序
	ListByMember(ctx context.Context, memberID, communityID string, limit int) ([]*model.Prediction, error)
	// WithTx 绑定到事务
	WithTx(tx *gorm.DB) PredictionRepository
}

type predictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository 创建 PredictionRepository 实例
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) WithTx(tx *gorm.DB) PredictionRepository {
	return &predictionRepository{db: tx}
}

func (r *predictionRepository) Find(ctx context.Context, matchID, memberID, communityID string) (*model.Prediction, error) {
	var p model.Prediction
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND member_id = ? AND community_id = ?", matchID, memberID, communityID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *predictionRepository) Create(ctx context.Context, p *model.Prediction) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *predictionRepository) UpdateScore(ctx context.Context, id uint64, score string, m *model.Match) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Prediction{}).
		Where("id = ? AND settled_at IS NULL", id).
		Updates(map[string]interface{}{
			"score":        score,
			"team1":        m.Team1,
			"team2":        m.Team2,
			"tournament":   m.Tournament,
			"scheduled_at": m.ScheduledAt.UTC(),
			"updated_at":   time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *predictionRepository) ListByMatch(ctx context.Context, matchID string) ([]*model.Prediction, error) {
	var list []*model.Prediction
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *predictionRepository) ListUnsettled(ctx context.Context, matchID, communityID string) ([]*model.Prediction, error) {
	var list []*model.Prediction
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND community_id = ? AND settled_at IS NULL", matchID, communityID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *predictionRepository) MarkSettled(ctx context.Context, id uint64, outcome model.Outcome, actualScore string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Prediction{}).
		Where("id = ? AND settled_at IS NULL", id).
		Updates(map[string]interface{}{
			"outcome":      string(outcome),
			"actual_score": actualScore,
			"settled_at":   at,
		})
	return res.RowsAffected, res.Error
}

func (r *predictionRepository) ListByMember(ctx context.Context, memberID, communityID string, limit int) ([]*model.Prediction, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var list []*model.Prediction
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND community_id = ?", memberID, communityID).
		Order("scheduled_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
