package interfaces

import (
	"context"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// Notifier 消息通道，负责渲染并发送公告与结果
type Notifier interface {
	// Announce 发送比赛公告（带预测入口），失败返回 DeliveryError
	Announce(ctx context.Context, a *model.Announcement) error
	// PublishResult 发送结算结果，失败返回 DeliveryError
	PublishResult(ctx context.Context, r *model.ResultAnnouncement) error
}
