package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// MessageSender 发送频道消息，*discordgo.Session 即满足
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier 通过 Discord 频道发送比赛公告与赛果
type Notifier struct {
	sender MessageSender
	logger *logrus.Logger
}

var _ interfaces.Notifier = (*Notifier)(nil)

// NewNotifier 创建 Discord 通知器
func NewNotifier(sender MessageSender, logger *logrus.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// Announce 发送比赛公告卡片与预测按钮
func (n *Notifier) Announce(ctx context.Context, a *model.Announcement) error {
	msg, err := n.sender.ChannelMessageSendComplex(a.ChannelID, AnnouncementMessage(a), discordgo.WithContext(ctx))
	if err != nil {
		return apperr.Delivery("比赛公告发送失败", err)
	}
	n.logger.WithFields(logrus.Fields{
		"community_id": a.CommunityID,
		"channel_id":   a.ChannelID,
		"match_id":     a.Match.ID,
		"message_id":   messageID(msg),
	}).Info("比赛公告已发送")
	return nil
}

// PublishResult 发送赛果与该社区的预测判定
func (n *Notifier) PublishResult(ctx context.Context, r *model.ResultAnnouncement) error {
	msg, err := n.sender.ChannelMessageSendComplex(r.ChannelID, ResultMessage(r), discordgo.WithContext(ctx))
	if err != nil {
		return apperr.Delivery("赛果公告发送失败", err)
	}
	n.logger.WithFields(logrus.Fields{
		"community_id": r.CommunityID,
		"channel_id":   r.ChannelID,
		"match_id":     r.Match.ID,
		"message_id":   messageID(msg),
	}).Info("赛果公告已发送")
	return nil
}

func messageID(m *discordgo.Message) string {
	if m == nil {
		return ""
	}
	return m.ID
}
