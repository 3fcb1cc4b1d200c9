// Package cli 命令行入口：服务、迁移、手动任务与运维查询
package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/app"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigDir string
	Format    string // text | json
}

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json"}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "lolpredict",
		Short:        "LoL 电竞比分预测机器人",
		Long:         "发现近期比赛并在 Discord 发布预测入口，赛后结算成员预测并维护排行榜。",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", config.DefaultConfigDir, "config.yaml 所在目录")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "输出格式 (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSetChannelCommand(opts))
	cmd.AddCommand(NewLeaderboardCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// load 读取配置并创建日志器
func (o *RootOptions) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfigFrom(o.ConfigDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(&cfg.Log), nil
}

// quiet 命令行查询时日志写 stderr，避免混进输出
func quiet(logger *logrus.Logger, errOut io.Writer) {
	logger.SetOutput(errOut)
	if logger.GetLevel() > logrus.WarnLevel {
		logger.SetLevel(logrus.WarnLevel)
	}
}
