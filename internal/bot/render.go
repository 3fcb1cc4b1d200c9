package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

const (
	colorMatch       = 0x0099FF
	colorResult      = 0xFF0000
	colorLeaderboard = 0xFFD700
	colorStats       = 0x00FF00

	footerText = "LOL Esports Prediction Bot"

	// Discord 单个 embed 最多 25 个字段，字段值最长 1024 字符
	maxEmbedFields = 25
	maxFieldValue  = 1024

	displayTimeFmt  = "2006-01-02 15:04"
	displayZoneName = "UTC+8"
)

var displayZone = time.FixedZone(displayZoneName, 8*60*60)

func displayTime(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.In(displayZone).Format(displayTimeFmt), displayZoneName)
}

func mention(memberID string) string {
	return "<@" + memberID + ">"
}

func outcomeLabel(o model.Outcome) string {
	switch o {
	case model.OutcomePerfect:
		return "✅ 完全正確"
	case model.OutcomeWinner:
		return "🎯 勝方正確"
	default:
		return "❌ 預測失敗"
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// MatchEmbed 比赛公告卡片
func MatchEmbed(m *model.Match) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s vs %s", m.Team1, m.Team2),
		Color: colorMatch,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "比賽時間", Value: displayTime(m.ScheduledAt), Inline: true},
			{Name: "賽制", Value: string(m.Format), Inline: true},
			{Name: "系列賽", Value: m.Tournament, Inline: true},
		},
		Timestamp: m.ScheduledAt.UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

// PredictButton 公告下方的预测按钮
func PredictButton(matchID string) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "🎯 進行預測",
				Style:    discordgo.PrimaryButton,
				CustomID: PredictButtonID(matchID),
			},
		},
	}
}

// AnnouncementMessage 公告消息：卡片加按钮
func AnnouncementMessage(a *model.Announcement) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{MatchEmbed(&a.Match)},
		Components: []discordgo.MessageComponent{PredictButton(a.Match.ID)},
	}
}

func resultWinner(r *model.ResultAnnouncement) string {
	if r.Result.Winner != "" {
		return r.Result.Winner
	}
	if r.Result.Score1 > r.Result.Score2 {
		return r.Match.Team1
	}
	return r.Match.Team2
}

// joinLines 拼接多行，超过字段长度时截断并注明剩余人数
func joinLines(lines []string, limit int) string {
	const reserve = 32
	var b strings.Builder
	for i, line := range lines {
		if b.Len()+len(line)+1 > limit-reserve {
			fmt.Fprintf(&b, "\n…及其他 %d 人", len(lines)-i)
			return b.String()
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// ResultEmbed 赛果公告：胜方、比分、每位预测者的判定
func ResultEmbed(r *model.ResultAnnouncement) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		lines = append(lines, fmt.Sprintf("%s: %s - %s", mention(e.MemberID), e.Prediction, outcomeLabel(e.Outcome)))
	}
	value := "本場沒有人預測"
	if len(lines) > 0 {
		value = joinLines(lines, maxFieldValue)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("比賽結果：%s vs %s", r.Match.Team1, r.Match.Team2),
		Description: fmt.Sprintf("%s 獲勝！比分: %s", resultWinner(r), r.Result.Score()),
		Color:       colorResult,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "預測結果", Value: value},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

// ResultMessage 赛果公告消息
func ResultMessage(r *model.ResultAnnouncement) *discordgo.MessageSend {
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{ResultEmbed(r)}}
}

// LeaderboardEmbed 社区排行榜
func LeaderboardEmbed(entries []service.LeaderboardEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "預測排行榜",
		Description: fmt.Sprintf("前%d名預測高手", service.LeaderboardSize),
		Color:       colorLeaderboard,
	}
	if len(entries) == 0 {
		embed.Description = "目前還沒有任何預測紀錄！"
		return embed
	}
	for _, e := range entries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("第 %d 名", e.Rank),
			Value: fmt.Sprintf("%s\n準確率: %s | 完全正確: %d | 勝方正確: %d | 總預測: %d",
				mention(e.MemberID), percent(e.Accuracy), e.Perfect, e.Winner, e.Total),
		})
	}
	return embed
}

// StatsEmbed 成员战绩
func StatsEmbed(st *model.MemberStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "預測統計",
		Description: mention(st.MemberID),
		Color:       colorStats,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "完全正確", Value: fmt.Sprint(st.Perfect), Inline: true},
			{Name: "勝方正確", Value: fmt.Sprint(st.Winner), Inline: true},
			{Name: "預測失敗", Value: fmt.Sprint(st.Failed), Inline: true},
			{Name: "總預測次數", Value: fmt.Sprint(st.Total()), Inline: true},
			{Name: "準確率", Value: percent(st.Accuracy()), Inline: true},
		},
	}
}

// MatchesEmbed 近期赛程列表
func MatchesEmbed(matches []model.Match) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "近期賽程",
		Color: colorMatch,
	}
	if len(matches) == 0 {
		embed.Description = "目前沒有即將舉行的比賽！"
		return embed
	}
	for i, m := range matches {
		if i == maxEmbedFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s vs %s", m.Team1, m.Team2),
			Value: fmt.Sprintf("%s · %s · %s", displayTime(m.ScheduledAt), m.Format, m.Tournament),
		})
	}
	if len(matches) > maxEmbedFields {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("另有 %d 場未列出", len(matches)-maxEmbedFields)}
	}
	return embed
}

// HistoryEmbed 成员最近的预测
func HistoryEmbed(memberID string, preds []*model.Prediction) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "預測紀錄",
		Description: mention(memberID),
		Color:       colorStats,
	}
	if len(preds) == 0 {
		embed.Description = mention(memberID) + " 還沒有任何預測！"
		return embed
	}
	for _, p := range preds {
		status := "尚未結算"
		if p.Settled() && p.Outcome != nil && p.ActualScore != nil {
			status = fmt.Sprintf("結果 %s %s", *p.ActualScore, outcomeLabel(model.Outcome(*p.Outcome)))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s vs %s", p.Team1, p.Team2),
			Value: fmt.Sprintf("%s · 預測 %s · %s", displayTime(p.ScheduledAt), p.Score, status),
		})
	}
	return embed
}

// PredictionModal 比分输入表单
func PredictionModal(m *model.Match) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: PredictionModalID(m.ID),
		Title:    "比賽預測",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    scoreInputID,
						Label:       fmt.Sprintf("預測比分 (格式: num:num, 最高%d勝)", m.Format.MaxWins()),
						Style:       discordgo.TextInputShort,
						Placeholder: "例如: 2:1",
						Required:    true,
						MinLength:   3,
						MaxLength:   7,
					},
				},
			},
		},
	}
}
