package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

const (
	historyLimit       = 10
	interactionTimeout = 10 * time.Second

	msgGuildOnly    = "請在伺服器中使用此功能！"
	msgUnknown      = "未知的命令！"
	msgNoPermission = "你沒有設定公告頻道的權限！"
	msgEmptyScore   = "請輸入預測比分！"
)

// Services 交互处理依赖的业务服务
type Services struct {
	Predictions *service.PredictionService
	Stats       *service.StatsService
	Ledger      *service.LedgerService
	Matches     *service.MatchService
	Channels    *service.ChannelService
}

// InteractionHandler 处理按钮、表单与斜线命令
type InteractionHandler struct {
	svc    Services
	logger *logrus.Logger
}

// NewInteractionHandler 创建交互处理器
func NewInteractionHandler(svc Services, logger *logrus.Logger) *InteractionHandler {
	return &InteractionHandler{svc: svc, logger: logger}
}

// OnInteraction discordgo 事件回调
func (h *InteractionHandler) OnInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	resp := h.Respond(ctx, i.Interaction)
	if resp == nil {
		return
	}
	if err := s.InteractionRespond(i.Interaction, resp, discordgo.WithContext(ctx)); err != nil {
		h.logger.WithError(err).WithField("interaction_id", i.ID).Error("回复交互失败")
	}
}

// Respond 根据交互类型生成回复，无需回复时返回 nil
func (h *InteractionHandler) Respond(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return h.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		return h.handleButton(ctx, i)
	case discordgo.InteractionModalSubmit:
		return h.handleModal(ctx, i)
	default:
		return nil
	}
}

func memberOf(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func embedReply(embed *discordgo.MessageEmbed, private bool) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if private {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// errorReply 用户可见的错误原样提示，其余记录日志后给通用提示
func (h *InteractionHandler) errorReply(op string, err error) *discordgo.InteractionResponse {
	if !apperr.IsKind(err, apperr.KindValidation) && !apperr.IsKind(err, apperr.KindNotFound) {
		h.logger.WithError(err).Error(op)
	}
	return ephemeral(apperr.UserMessage(err))
}

// handleButton 点击“進行預測”：比赛仍可预测时弹出比分表单
func (h *InteractionHandler) handleButton(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	matchID, ok := matchIDFrom(i.MessageComponentData().CustomID, predictButtonPrefix)
	if !ok {
		return nil
	}
	if i.GuildID == "" {
		return ephemeral(msgGuildOnly)
	}

	m, err := h.svc.Predictions.OpenMatch(ctx, i.GuildID, matchID)
	if err != nil {
		return h.errorReply("OpenMatch", err)
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: PredictionModal(m),
	}
}

// scoreFromModal 取出表单中的比分输入
func scoreFromModal(data discordgo.ModalSubmitInteractionData) string {
	for _, c := range data.Components {
		var row []discordgo.MessageComponent
		switch r := c.(type) {
		case *discordgo.ActionsRow:
			row = r.Components
		case discordgo.ActionsRow:
			row = r.Components
		}
		for _, inner := range row {
			switch in := inner.(type) {
			case *discordgo.TextInput:
				if in.CustomID == scoreInputID {
					return in.Value
				}
			case discordgo.TextInput:
				if in.CustomID == scoreInputID {
					return in.Value
				}
			}
		}
	}
	return ""
}

// handleModal 提交比分：去掉首尾空白后写入
func (h *InteractionHandler) handleModal(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ModalSubmitData()
	matchID, ok := matchIDFrom(data.CustomID, predictionModalPrefix)
	if !ok {
		return nil
	}
	if i.GuildID == "" {
		return ephemeral(msgGuildOnly)
	}

	score := strings.TrimSpace(scoreFromModal(data))
	if score == "" {
		return ephemeral(msgEmptyScore)
	}

	res, err := h.svc.Predictions.Submit(ctx, i.GuildID, memberOf(i), matchID, score)
	if err != nil {
		return h.errorReply("SubmitPrediction", err)
	}
	verb := "預測成功"
	if !res.Created {
		verb = "預測已更新"
	}
	return ephemeral(fmt.Sprintf("%s！你預測 %s vs %s 的比分為 %s", verb, res.Match.Team1, res.Match.Team2, res.Prediction.Score))
}

func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name && o.Value != nil {
			return fmt.Sprint(o.Value)
		}
	}
	return ""
}

func (h *InteractionHandler) handleCommand(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	if data.Name != CommandMatches && i.GuildID == "" {
		return ephemeral(msgGuildOnly)
	}

	switch data.Name {
	case CommandMatches:
		return embedReply(MatchesEmbed(h.svc.Matches.Upcoming(ctx)), false)

	case CommandStats:
		target := optionString(data.Options, optionUser)
		if target == "" {
			target = memberOf(i)
		}
		st, err := h.svc.Stats.MemberStats(ctx, target, i.GuildID)
		if err != nil {
			return h.errorReply("MemberStats", err)
		}
		return embedReply(StatsEmbed(st), false)

	case CommandLeaderboard:
		board, err := h.svc.Stats.Leaderboard(ctx, i.GuildID)
		if err != nil {
			return h.errorReply("Leaderboard", err)
		}
		return embedReply(LeaderboardEmbed(board), false)

	case CommandHistory:
		member := memberOf(i)
		preds, err := h.svc.Ledger.History(ctx, member, i.GuildID, historyLimit)
		if err != nil {
			return h.errorReply("History", err)
		}
		return embedReply(HistoryEmbed(member, preds), true)

	case CommandSetChannel:
		if i.Member == nil || i.Member.Permissions&discordgo.PermissionManageChannels == 0 {
			return ephemeral(msgNoPermission)
		}
		channelID := optionString(data.Options, optionChannel)
		if err := h.svc.Channels.SetBroadcastChannel(ctx, i.GuildID, channelID); err != nil {
			return h.errorReply("SetBroadcastChannel", err)
		}
		return ephemeral(fmt.Sprintf("已將比賽公告頻道設定為 <#%s>", channelID))

	default:
		return ephemeral(msgUnknown)
	}
}
