package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// MemberStats 成员在某个社区的预测战绩，首次结算时惰性创建
type MemberStats struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	MemberID    string    `gorm:"column:member_id;type:varchar(32);not null;uniqueIndex:uq_member_community,priority:1;comment:成员ID"`
	CommunityID string    `gorm:"column:community_id;type:varchar(32);not null;uniqueIndex:uq_member_community,priority:2;index;comment:社区ID"`
	Perfect     int       `gorm:"column:perfect;type:int;not null;default:0;comment:比分完全正确次数"`
	Winner      int       `gorm:"column:winner;type:int;not null;default:0;comment:胜方正确次数"`
	Failed      int       `gorm:"column:failed;type:int;not null;default:0;comment:预测失败次数"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// Total 总预测场数
func (s *MemberStats) Total() int {
	return s.Perfect + s.Winner + s.Failed
}

// Accuracy 胜方命中率（完全正确也算命中），无记录时为0
func (s *MemberStats) Accuracy() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Perfect+s.Winner) / float64(total)
}

// Prediction 成员对一场比赛的预测，同一 (比赛, 成员, 社区) 只有一行，结算后不可再改
type Prediction struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	PredictionUUID string     `gorm:"column:prediction_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	MatchID        string     `gorm:"column:match_id;type:varchar(191);not null;uniqueIndex:uq_prediction_member,priority:1;index:idx_prediction_match;comment:比赛ID"`
	MemberID       string     `gorm:"column:member_id;type:varchar(32);not null;uniqueIndex:uq_prediction_member,priority:2;comment:成员ID"`
	CommunityID    string     `gorm:"column:community_id;type:varchar(32);not null;uniqueIndex:uq_prediction_member,priority:3;comment:社区ID"`
	Score          string     `gorm:"column:score;type:varchar(16);not null;comment:预测比分 a:b"`
	Team1          string     `gorm:"column:team1;type:varchar(128);comment:队伍1"`
	Team2          string     `gorm:"column:team2;type:varchar(128);comment:队伍2"`
	Tournament     string     `gorm:"column:tournament;type:varchar(256);comment:赛事"`
	ScheduledAt    time.Time  `gorm:"column:scheduled_at;not null;comment:预定开赛时间"`
	Outcome        *string    `gorm:"column:outcome;type:varchar(16);comment:结算结果 perfect/winner/failed"`
	ActualScore    *string    `gorm:"column:actual_score;type:varchar(16);comment:实际比分"`
	SettledAt      *time.Time `gorm:"column:settled_at;comment:结算时间"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// Settled 是否已结算
func (p *Prediction) Settled() bool {
	return p.SettledAt != nil
}

// BroadcastRecord 某社区已公告但未结算的比赛，结算后删除
type BroadcastRecord struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	CommunityID string         `gorm:"column:community_id;type:varchar(32);not null;uniqueIndex:uq_broadcast_community_match,priority:1;comment:社区ID"`
	MatchID     string         `gorm:"column:match_id;type:varchar(191);not null;uniqueIndex:uq_broadcast_community_match,priority:2;comment:比赛ID"`
	ScheduledAt time.Time      `gorm:"column:scheduled_at;not null;comment:公告时冻结的开赛时间"`
	Snapshot    datatypes.JSON `gorm:"column:snapshot;not null;comment:公告时的比赛快照"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// NewBroadcastRecord 冻结比赛快照
func NewBroadcastRecord(communityID string, m *Match) (*BroadcastRecord, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("序列化比赛快照失败: %w", err)
	}
	return &BroadcastRecord{
		CommunityID: communityID,
		MatchID:     m.ID,
		ScheduledAt: m.ScheduledAt.UTC(),
		Snapshot:    datatypes.JSON(raw),
	}, nil
}

// Match 还原公告时的比赛快照；开赛时间以冻结列为准
func (r *BroadcastRecord) Match() (*Match, error) {
	var m Match
	if err := json.Unmarshal(r.Snapshot, &m); err != nil {
		return nil, fmt.Errorf("解析比赛快照失败(match_id=%s): %w", r.MatchID, err)
	}
	m.ScheduledAt = r.ScheduledAt.UTC()
	return &m, nil
}

// BroadcastChannel 社区的公告频道配置
type BroadcastChannel struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	CommunityID string    `gorm:"column:community_id;type:varchar(32);not null;uniqueIndex;comment:社区ID"`
	ChannelID   string    `gorm:"column:channel_id;type:varchar(32);not null;comment:频道ID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

func (MemberStats) TableName() string      { return "member_stats" }
func (Prediction) TableName() string       { return "predictions" }
func (BroadcastRecord) TableName() string  { return "broadcast_records" }
func (BroadcastChannel) TableName() string { return "broadcast_channels" }

// AllTables AutoMigrate 使用的全部表
func AllTables() []interface{} {
	return []interface{}{
		&MemberStats{},
		&Prediction{},
		&BroadcastRecord{},
		&BroadcastChannel{},
	}
}
