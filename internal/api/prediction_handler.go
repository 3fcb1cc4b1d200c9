package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

// PredictionHandler 预测提交与赛程查询
type PredictionHandler struct {
	predictions *service.PredictionService
	matches     *service.MatchService
	logger      *logrus.Logger
}

// NewPredictionHandler 创建 PredictionHandler
func NewPredictionHandler(predictions *service.PredictionService, matches *service.MatchService, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, matches: matches, logger: logger}
}

type submitPredictionRequest struct {
	CommunityID string `json:"community_id" binding:"required"`
	MemberID    string `json:"member_id" binding:"required"`
	MatchID     string `json:"match_id" binding:"required"`
	Score       string `json:"score" binding:"required"`
}

// Submit 代成员提交预测，首次提交返回 201，覆盖返回 200
// POST /api/predictions
func (h *PredictionHandler) Submit(c *gin.Context) {
	var req submitPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := h.predictions.Submit(c.Request.Context(), req.CommunityID, req.MemberID, req.MatchID, req.Score)
	if err != nil {
		respondError(c, h.logger, "SubmitPrediction", err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"prediction": res.Prediction, "match": res.Match})
}

// Upcoming 未来窗口内的比赛
// GET /api/matches/upcoming
func (h *PredictionHandler) Upcoming(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"matches": h.matches.Upcoming(c.Request.Context())})
}
