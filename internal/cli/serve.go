package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/app"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/scheduler"
)

// NewServeCommand 启动机器人、定时任务与管理接口
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 Discord 机器人、定时任务与 HTTP 管理接口",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			logger.Info("配置文件加载成功")

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve()
		},
	}
}

// NewMigrateCommand 只建表不启动服务
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或升级数据库表结构",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			db, err := app.OpenDatabase(cfg, logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.Database.Driver)
			return nil
		},
	}
}

// NewRunCommand 手动执行一次发现或结算
func NewRunCommand(opts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:       "run <" + scheduler.JobDiscovery + "|" + scheduler.JobSettlement + ">",
		Short:     "立即执行一次周期任务",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{scheduler.JobDiscovery, scheduler.JobSettlement},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := a.RunJob(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", args[0])
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "任务超时时间")
	return cmd
}
