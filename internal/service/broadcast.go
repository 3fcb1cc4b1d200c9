package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

// BroadcastTracker 记录每个社区已公告、未结算的比赛，防止重复公告
type BroadcastTracker struct {
	repo   repository.BroadcastRepository
	logger *logrus.Logger
}

// NewBroadcastTracker 创建公告追踪器
func NewBroadcastTracker(repo repository.BroadcastRepository, logger *logrus.Logger) *BroadcastTracker {
	return &BroadcastTracker{repo: repo, logger: logger}
}

// PendingForCommunity 返回 fetched 中该社区尚未公告的比赛，只读
func (t *BroadcastTracker) PendingForCommunity(ctx context.Context, communityID string, fetched []model.Match) ([]model.Match, error) {
	if len(fetched) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(fetched))
	for _, m := range fetched {
		ids = append(ids, m.ID)
	}
	existing, err := t.repo.ExistingMatchIDs(ctx, communityID, ids)
	if err != nil {
		return nil, fmt.Errorf("查询已公告比赛失败: %w", err)
	}

	pending := make([]model.Match, 0, len(fetched))
	for _, m := range fetched {
		if _, ok := existing[m.ID]; ok {
			continue
		}
		pending = append(pending, m)
	}
	return pending, nil
}

// RecordBroadcast 公告成功发送后调用，重复调用会覆盖快照
func (t *BroadcastTracker) RecordBroadcast(ctx context.Context, communityID string, m *model.Match) error {
	rec, err := model.NewBroadcastRecord(communityID, m)
	if err != nil {
		return err
	}
	if err := t.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("写入公告记录失败: %w", err)
	}
	return nil
}

// Retire 结算后删除公告记录，返回是否确实删除了一条
func (t *BroadcastTracker) Retire(ctx context.Context, communityID, matchID string) (bool, error) {
	n, err := t.repo.Delete(ctx, communityID, matchID)
	if err != nil {
		return false, fmt.Errorf("删除公告记录失败: %w", err)
	}
	return n > 0, nil
}

// WithTx 绑定到事务
func (t *BroadcastTracker) WithTx(tx *gorm.DB) *BroadcastTracker {
	return &BroadcastTracker{repo: t.repo.WithTx(tx), logger: t.logger}
}

// Get 查询公告记录，不存在返回 NotFoundError
func (t *BroadcastTracker) Get(ctx context.Context, communityID, matchID string) (*model.BroadcastRecord, error) {
	rec, err := t.repo.Get(ctx, communityID, matchID)
	if err != nil {
		return nil, fmt.Errorf("查询公告记录失败: %w", err)
	}
	if rec == nil {
		return nil, apperr.NotFound(apperr.CodeMatchNotOpen, "此比賽已不可預測！")
	}
	return rec, nil
}

// Lock 事务内锁定公告记录，记录已被结算删除时返回 MatchNotOpen
func (t *BroadcastTracker) Lock(ctx context.Context, communityID, matchID string) (*model.BroadcastRecord, error) {
	rec, err := t.repo.GetForUpdate(ctx, communityID, matchID)
	if err != nil {
		return nil, fmt.Errorf("锁定公告记录失败: %w", err)
	}
	if rec == nil {
		return nil, apperr.NotFound(apperr.CodeMatchNotOpen, "此比賽已不可預測！")
	}
	return rec, nil
}

// ListForCommunity 社区内全部未结算的公告记录
func (t *BroadcastTracker) ListForCommunity(ctx context.Context, communityID string) ([]*model.BroadcastRecord, error) {
	return t.repo.ListByCommunity(ctx, communityID)
}
