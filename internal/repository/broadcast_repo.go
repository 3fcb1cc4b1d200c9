package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// BroadcastRepository 已公告比赛记录与社区公告频道
type BroadcastRepository interface {
	// Upsert 写入公告记录，已存在时覆盖快照
	Upsert(ctx context.Context, rec *model.BroadcastRecord) error
	// Get 查询记录，不存在返回 nil
	Get(ctx context.Context, communityID, matchID string) (*model.BroadcastRecord, error)
	// GetForUpdate 事务内加行锁读取，与结算的删除互斥；不存在返回 nil
	GetForUpdate(ctx context.Context, communityID, matchID string) (*model.BroadcastRecord, error)
	// ExistingMatchIDs 返回 matchIDs 中已有公告记录的子集
	ExistingMatchIDs(ctx context.Context, communityID string, matchIDs []string) (map[string]struct{}, error)
	// ListByCommunity 社区内全部未结算的公告记录，按开赛时间升序
	ListByCommunity(ctx context.Context, communityID string) ([]*model.BroadcastRecord, error)
	// Delete 删除记录，返回受影响行数
	Delete(ctx context.Context, communityID, matchID string) (int64, error)

	// UpsertChannel 设置社区公告频道
	UpsertChannel(ctx context.Context, communityID, channelID string) error
	// GetChannel 查询社区公告频道，不存在返回 nil
	GetChannel(ctx context.Context, communityID string) (*model.BroadcastChannel, error)
	// ListChannels 全部已配置频道的社区
	ListChannels(ctx context.Context) ([]*model.BroadcastChannel, error)

	// WithTx 绑定到事务
	WithTx(tx *gorm.DB) BroadcastRepository
}

type broadcastRepository struct {
	db *gorm.DB
}

// NewBroadcastRepository 创建 BroadcastRepository 实例
func NewBroadcastRepository(db *gorm.DB) BroadcastRepository {
	return &broadcastRepository{db: db}
}

func (r *broadcastRepository) WithTx(tx *gorm.DB) BroadcastRepository {
	return &broadcastRepository{db: tx}
}

func (r *broadcastRepository) Upsert(ctx context.Context, rec *model.BroadcastRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "match_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"scheduled_at", "snapshot", "updated_at"}),
		}).
		Create(rec).Error
}

func (r *broadcastRepository) Get(ctx context.Context, communityID, matchID string) (*model.BroadcastRecord, error) {
	var rec model.BroadcastRecord
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND match_id = ?", communityID, matchID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *broadcastRepository) GetForUpdate(ctx context.Context, communityID, matchID string) (*model.BroadcastRecord, error) {
	q := r.db.WithContext(ctx)
	// sqlite 事务本身串行，不支持 FOR UPDATE
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec model.BroadcastRecord
	err := q.Where("community_id = ? AND match_id = ?", communityID, matchID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *broadcastRepository) ExistingMatchIDs(ctx context.Context, communityID string, matchIDs []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(matchIDs))
	if len(matchIDs) == 0 {
		return existing, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.BroadcastRecord{}).
		Where("community_id = ? AND match_id IN ?", communityID, matchIDs).
		Pluck("match_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		existing[id] = struct{}{}
	}
	return existing, nil
}

func (r *broadcastRepository) ListByCommunity(ctx context.Context, communityID string) ([]*model.BroadcastRecord, error) {
	var list []*model.BroadcastRecord
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("scheduled_at ASC").
		Find(&list).Error
	return list, err
}

func (r *broadcastRepository) Delete(ctx context.Context, communityID, matchID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND match_id = ?", communityID, matchID).
		Delete(&model.BroadcastRecord{})
	return res.RowsAffected, res.Error
}

func (r *broadcastRepository) UpsertChannel(ctx context.Context, communityID, channelID string) error {
	row := &model.BroadcastChannel{CommunityID: communityID, ChannelID: channelID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "community_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"channel_id": channelID,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(row).Error
}

func (r *broadcastRepository) GetChannel(ctx context.Context, communityID string) (*model.BroadcastChannel, error) {
	var ch model.BroadcastChannel
	err := r.db.WithContext(ctx).Where("community_id = ?", communityID).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *broadcastRepository) ListChannels(ctx context.Context) ([]*model.BroadcastChannel, error) {
	var list []*model.BroadcastChannel
	err := r.db.WithContext(ctx).Order("community_id ASC").Find(&list).Error
	return list, err
}
