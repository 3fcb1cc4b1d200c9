package interfaces

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// MatchSource 赛程数据源必须实现的接口，所有错误在内部记录并降级为空结果
type MatchSource interface {
	GetName() string
	// FetchUpcoming 拉取 [start, end) 内的比赛，按开赛时间升序
	FetchUpcoming(ctx context.Context, start, end time.Time) []model.Match
	// CheckResult 查询比赛结果，未完赛返回 false
	CheckResult(ctx context.Context, matchID string) (*model.MatchResult, bool)
}

// Factory 数据源工厂函数签名
// 入参：数据源配置、日志实例
// 出参：实现MatchSource接口的适配器实例
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) MatchSource
