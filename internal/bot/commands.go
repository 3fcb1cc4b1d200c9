package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// 斜线命令名
const (
	CommandMatches     = "matches"
	CommandStats       = "stats"
	CommandLeaderboard = "leaderboard"
	CommandHistory     = "history"
	CommandSetChannel  = "setchannel"
)

const (
	optionUser    = "user"
	optionChannel = "channel"
)

// CommandRegistrar 覆盖注册应用命令，*discordgo.Session 即满足
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Commands 机器人提供的全部斜线命令
func Commands() []*discordgo.ApplicationCommand {
	manageChannels := int64(discordgo.PermissionManageChannels)
	dmPermission := false

	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandMatches,
			Description: "查看未來 48 小時的比賽",
		},
		{
			Name:        CommandStats,
			Description: "查看預測統計",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: optionUser, Description: "要查看的成員（預設為自己）"},
			},
			DMPermission: &dmPermission,
		},
		{
			Name:         CommandLeaderboard,
			Description:  "查看本伺服器預測排行榜",
			DMPermission: &dmPermission,
		},
		{
			Name:         CommandHistory,
			Description:  "查看自己最近的預測紀錄",
			DMPermission: &dmPermission,
		},
		{
			Name:        CommandSetChannel,
			Description: "設定比賽公告頻道",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         optionChannel,
					Description:  "公告頻道",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
			DefaultMemberPermissions: &manageChannels,
			DMPermission:             &dmPermission,
		},
	}
}

// RegisterCommands 以全局命令覆盖注册
func RegisterCommands(r CommandRegistrar, appID string) error {
	if appID == "" {
		return fmt.Errorf("discord app_id is empty")
	}
	if _, err := r.ApplicationCommandBulkOverwrite(appID, "", Commands()); err != nil {
		return fmt.Errorf("注册斜线命令失败: %w", err)
	}
	return nil
}
