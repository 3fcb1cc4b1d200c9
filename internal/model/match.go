package model

import (
	"fmt"
	"time"
)

// Format 赛制
type Format string

const (
	FormatBO1 Format = "BO1"
	FormatBO3 Format = "BO3"
	FormatBO5 Format = "BO5"
)

// PredictionGracePeriod 开赛后仍可预测的时长
const PredictionGracePeriod = 30 * time.Minute

// ParseBestOf 将数据源的 BestOf 字段转为赛制，未知值按 BO1 处理
func ParseBestOf(bestOf string) Format {
	switch bestOf {
	case "3":
		return FormatBO3
	case "5":
		return FormatBO5
	default:
		return FormatBO1
	}
}

// MaxWins 赛制对应的获胜局数
func (f Format) MaxWins() int {
	switch f {
	case FormatBO5:
		return 3
	case FormatBO3:
		return 2
	default:
		return 1
	}
}

// Match 统一的比赛模型，不单独落表，只以快照形式存在于 BroadcastRecord / Prediction
type Match struct {
	ID          string    `json:"id"`
	Team1       string    `json:"team1"`
	Team2       string    `json:"team2"`
	ScheduledAt time.Time `json:"scheduled_at"` // UTC
	Format      Format    `json:"format"`
	Tournament  string    `json:"tournament"`
}

// Deadline 预测截止时间
func (m *Match) Deadline() time.Time {
	return m.ScheduledAt.Add(PredictionGracePeriod)
}

// MatchResult 已完赛的结果
type MatchResult struct {
	MatchID string `json:"match_id"`
	Team1   string `json:"team1"`
	Team2   string `json:"team2"`
	Winner  string `json:"winner"`
	Score1  int    `json:"score1"`
	Score2  int    `json:"score2"`
}

// Score 比分，格式 a:b
func (r *MatchResult) Score() string {
	return fmt.Sprintf("%d:%d", r.Score1, r.Score2)
}

// Outcome 单条预测的结算结果
type Outcome string

const (
	OutcomePerfect Outcome = "perfect" // 比分完全正确
	OutcomeWinner  Outcome = "winner"  // 胜方正确
	OutcomeFailed  Outcome = "failed"
)

// Evaluate 比较预测比分与实际结果
func Evaluate(predicted Score, result *MatchResult) Outcome {
	if predicted.Team1 == result.Score1 && predicted.Team2 == result.Score2 {
		return OutcomePerfect
	}
	if (predicted.Team1 > predicted.Team2) == (result.Score1 > result.Score2) {
		return OutcomeWinner
	}
	return OutcomeFailed
}
