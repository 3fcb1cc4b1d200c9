package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/api"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/app"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

// NewSetChannelCommand 不经 Discord 直接设置社区公告频道
func NewSetChannelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-channel <community_id> <channel_id>",
		Short: "设置社区的比赛公告频道",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			quiet(logger, cmd.ErrOrStderr())
			db, err := app.OpenDatabase(cfg, logger)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			channels := service.NewChannelService(repository.NewBroadcastRepository(db), logger)
			if err := channels.SetBroadcastChannel(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "community %s -> channel %s\n", args[0], args[1])
			return nil
		},
	}
}

// NewLeaderboardCommand 打印社区排行榜
func NewLeaderboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <community_id>",
		Short: "查看社区排行榜",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			quiet(logger, cmd.ErrOrStderr())
			db, err := app.OpenDatabase(cfg, logger)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			stats := service.NewStatsService(repository.NewStatsRepository(db), nil, 0, logger)
			board, err := stats.Leaderboard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeLeaderboard(cmd, opts.Format, board)
		},
	}
}

func writeLeaderboard(cmd *cobra.Command, format string, board []service.LeaderboardEntry) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	}
	if len(board) == 0 {
		fmt.Fprintln(out, "no predictions yet")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tMEMBER\tPERFECT\tWINNER\tFAILED\tTOTAL\tACCURACY")
	for _, e := range board {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
			e.Rank, e.MemberID, e.Perfect, e.Winner, e.Failed, e.Total, e.Accuracy*100)
	}
	return w.Flush()
}

// NewTokenCommand 签发管理接口 token
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发 HTTP 管理接口的 Bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is empty, admin API is disabled")
			}
			token, err := api.GenerateToken(cfg.Server.JWTSecret, operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "cli", "token 持有人")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "有效期")
	return cmd
}

// NewConfigCommand 打印生效配置，敏感字段打码
func NewConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "打印生效配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			masked := cfg.Masked()
			if opts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(masked)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(masked)
		},
	}
}
