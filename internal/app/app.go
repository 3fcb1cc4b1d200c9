// Package app 组装配置、存储、数据源、业务服务、调度器与 Discord 会话
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/adapter"
	_ "github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/adapter/leaguepedia"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/api"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/bot"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cache"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/database"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/scheduler"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

const shutdownTimeout = 15 * time.Second

// ErrNoDiscordToken 需要发消息的操作缺少 Discord token
var ErrNoDiscordToken = errors.New("discord token is not configured")

// App 运行期依赖
type App struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	Cache  cache.Cache

	Source   interfaces.MatchSource
	Session  *discordgo.Session
	Notifier interfaces.Notifier

	Tracker    *service.BroadcastTracker
	Ledger     *service.LedgerService
	Prediction *service.PredictionService
	Channels   *service.ChannelService
	Stats      *service.StatsService
	Matches    *service.MatchService
	Discovery  *service.DiscoveryService
	Settlement *service.SettlementService
	Scheduler  *scheduler.Scheduler
}

// NewLogger 按配置创建 logrus 日志器
func NewLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
	return logger
}

// OpenDatabase 连接数据库并迁移表结构
func OpenDatabase(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := database.Open(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("数据库表结构检查完成（不存在则已创建）")
	return db, nil
}

// New 组装全部依赖，不建立 Discord 网关连接
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	db, err := OpenDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(&cfg.Redis, logger)
	if err != nil {
		// 缓存只是加速，连不上时退化为直读数据库
		logger.WithError(err).Warn("Redis不可用，排行榜不缓存")
		c = cache.Noop{}
	}
	source, err := adapter.NewMatchSource(&cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Cache: c, Source: source}

	if cfg.Discord.Token != "" {
		session, err := discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			return nil, fmt.Errorf("创建Discord会话失败: %w", err)
		}
		session.Identify.Intents = discordgo.IntentsGuilds
		a.Session = session
		a.Notifier = bot.NewNotifier(session, logger)
	} else {
		a.Notifier = unavailableNotifier{}
	}

	broadcasts := repository.NewBroadcastRepository(db)
	predictions := repository.NewPredictionRepository(db)
	stats := repository.NewStatsRepository(db)

	a.Tracker = service.NewBroadcastTracker(broadcasts, logger)
	a.Ledger = service.NewLedgerService(predictions, logger)
	a.Prediction = service.NewPredictionService(db, a.Tracker, a.Ledger, logger)
	a.Channels = service.NewChannelService(broadcasts, logger)
	a.Stats = service.NewStatsService(stats, c, cfg.Redis.LeaderboardTTL, logger)
	a.Matches = service.NewMatchService(source, c, cfg.Schedule.DiscoveryWindow, cfg.Redis.UpcomingTTL, logger)
	a.Discovery = service.NewDiscoveryService(broadcasts, a.Tracker, source, a.Notifier, cfg.Schedule.DiscoveryWindow, logger)
	a.Settlement = service.NewSettlementService(db, broadcasts, predictions, stats, a.Tracker, source, a.Notifier,
		a.Stats, cfg.Schedule.SettlementWorkers, logger)

	a.Scheduler = scheduler.New(logger)
	if err := a.Scheduler.Register(scheduler.JobDiscovery, cfg.Schedule.DiscoveryCron, a.Discovery.Run); err != nil {
		return nil, err
	}
	if err := a.Scheduler.Register(scheduler.JobSettlement, cfg.Schedule.SettlementCron, a.Settlement.Run); err != nil {
		return nil, err
	}
	return a, nil
}

// RunJob 手动执行一次周期任务
func (a *App) RunJob(ctx context.Context, name string) error {
	if a.Session == nil {
		return ErrNoDiscordToken
	}
	ran, err := a.Scheduler.TryRun(ctx, name)
	if err != nil {
		return err
	}
	if !ran {
		return fmt.Errorf("%s is already running", name)
	}
	return nil
}

// Serve 启动 HTTP、Discord 网关与定时任务，收到退出信号后依次关闭
func (a *App) Serve() error {
	if a.Session == nil {
		return ErrNoDiscordToken
	}

	handler := bot.NewInteractionHandler(bot.Services{
		Predictions: a.Prediction,
		Stats:       a.Stats,
		Ledger:      a.Ledger,
		Matches:     a.Matches,
		Channels:    a.Channels,
	}, a.Logger)
	a.Session.AddHandler(handler.OnInteraction)
	a.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Logger.Infof("Discord已连接：%s，服务 %d 个服务器", r.User.Username, len(r.Guilds))
	})
	if err := a.Session.Open(); err != nil {
		return fmt.Errorf("Discord网关连接失败: %w", err)
	}
	if a.Config.Discord.RegisterCommands {
		if err := bot.RegisterCommands(a.Session, a.Config.Discord.AppID); err != nil {
			a.Logger.WithError(err).Error("注册斜线命令失败")
		}
	}

	router := api.NewRouter(&a.Config.Server, api.Services{
		Channels:    a.Channels,
		Stats:       a.Stats,
		Ledger:      a.Ledger,
		Predictions: a.Prediction,
		Matches:     a.Matches,
		Jobs:        a.Scheduler,
	}, a.Logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Infof("服务启动成功，端口：%d", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.Scheduler.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case s := <-sig:
		a.Logger.Infof("收到信号 %s，开始关闭", s)
	case serveErr = <-errCh:
		a.Logger.WithError(serveErr).Error("HTTP服务异常退出")
	}

	a.Scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.WithError(err).Warn("HTTP服务关闭超时")
	}
	if err := a.Session.Close(); err != nil {
		a.Logger.WithError(err).Warn("关闭Discord会话失败")
	}
	return serveErr
}

// Close 释放数据库与缓存连接
func (a *App) Close() error {
	if closer, ok := a.Cache.(io.Closer); ok {
		_ = closer.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// unavailableNotifier 未配置 Discord 时任何发送都失败，公告不会被记录
type unavailableNotifier struct{}

func (unavailableNotifier) Announce(context.Context, *model.Announcement) error {
	return apperr.Delivery("Discord未配置", ErrNoDiscordToken)
}

func (unavailableNotifier) PublishResult(context.Context, *model.ResultAnnouncement) error {
	return apperr.Delivery("Discord未配置", ErrNoDiscordToken)
}
