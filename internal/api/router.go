package api

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

// Services 路由依赖的业务服务
type Services struct {
	Channels    *service.ChannelService
	Stats       *service.StatsService
	Ledger      *service.LedgerService
	Predictions *service.PredictionService
	Matches     *service.MatchService
	Jobs        JobRunner
}

// NewRouter 注册全部 HTTP 路由；未配置 jwt_secret 时不开放管理接口
func NewRouter(cfg *config.ServerConfig, svc Services, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(cfg.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// 注册ppof 方便调试和监测性能问题
	pprof.Register(r)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/internal/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.JWTSecret == "" {
		logger.Warn("未配置 server.jwt_secret，管理接口未开放")
		return r
	}

	admin := r.Group("/api")
	admin.Use(JWTAuthMiddleware(cfg.JWTSecret))

	syncHandler := NewSyncHandler(svc.Jobs, logger)
	admin.POST("/sync/:job", syncHandler.RunJob)

	community := NewCommunityHandler(svc.Channels, svc.Stats, svc.Ledger, logger)
	admin.PUT("/communities/:community_id/channel", community.SetChannel)
	admin.GET("/communities/:community_id/channel", community.GetChannel)
	admin.GET("/communities/:community_id/leaderboard", community.Leaderboard)
	admin.GET("/communities/:community_id/members/:member_id/stats", community.MemberStats)
	admin.GET("/communities/:community_id/members/:member_id/predictions", community.MemberPredictions)

	prediction := NewPredictionHandler(svc.Predictions, svc.Matches, logger)
	admin.POST("/predictions", prediction.Submit)
	admin.GET("/matches/upcoming", prediction.Upcoming)

	return r
}

// requestLogger 用 logrus 记录请求
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("http request")
	}
}
