package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

const defaultHistoryLimit = 10

// CommunityHandler 社区维度的管理与查询接口
type CommunityHandler struct {
	channels *service.ChannelService
	stats    *service.StatsService
	ledger   *service.LedgerService
	logger   *logrus.Logger
}

// NewCommunityHandler 创建 CommunityHandler
func NewCommunityHandler(channels *service.ChannelService, stats *service.StatsService, ledger *service.LedgerService, logger *logrus.Logger) *CommunityHandler {
	return &CommunityHandler{channels: channels, stats: stats, ledger: ledger, logger: logger}
}

type setChannelRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

// SetChannel 设置公告频道
// PUT /api/communities/:community_id/channel {"channel_id": "..."}
func (h *CommunityHandler) SetChannel(c *gin.Context) {
	var req setChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	communityID := c.Param("community_id")
	if err := h.channels.SetBroadcastChannel(c.Request.Context(), communityID, req.ChannelID); err != nil {
		respondError(c, h.logger, "SetChannel", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community_id": communityID, "channel_id": req.ChannelID})
}

// GetChannel 查询公告频道
// GET /api/communities/:community_id/channel
func (h *CommunityHandler) GetChannel(c *gin.Context) {
	ch, err := h.channels.GetBroadcastChannel(c.Request.Context(), c.Param("community_id"))
	if err != nil {
		respondError(c, h.logger, "GetChannel", err)
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "broadcast channel not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"community_id": ch.CommunityID, "channel_id": ch.ChannelID, "updated_at": ch.UpdatedAt})
}

// Leaderboard 社区排行榜
// GET /api/communities/:community_id/leaderboard
func (h *CommunityHandler) Leaderboard(c *gin.Context) {
	board, err := h.stats.Leaderboard(c.Request.Context(), c.Param("community_id"))
	if err != nil {
		respondError(c, h.logger, "Leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": board})
}

// MemberStats 成员战绩
// GET /api/communities/:community_id/members/:member_id/stats
func (h *CommunityHandler) MemberStats(c *gin.Context) {
	st, err := h.stats.MemberStats(c.Request.Context(), c.Param("member_id"), c.Param("community_id"))
	if err != nil {
		respondError(c, h.logger, "MemberStats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"member_id":    st.MemberID,
		"community_id": st.CommunityID,
		"perfect":      st.Perfect,
		"winner":       st.Winner,
		"failed":       st.Failed,
		"total":        st.Total(),
		"accuracy":     st.Accuracy(),
	})
}

// MemberPredictions 成员最近的预测
// GET /api/communities/:community_id/members/:member_id/predictions?limit=10
func (h *CommunityHandler) MemberPredictions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	preds, err := h.ledger.History(c.Request.Context(), c.Param("member_id"), c.Param("community_id"), limit)
	if err != nil {
		respondError(c, h.logger, "MemberPredictions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": preds})
}
