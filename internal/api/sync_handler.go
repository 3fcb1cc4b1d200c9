package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/scheduler"
)

// JobRunner 手动触发周期任务
type JobRunner interface {
	TryRun(ctx context.Context, name string) (bool, error)
}

type SyncHandler struct {
	jobs   JobRunner
	logger *logrus.Logger
}

func NewSyncHandler(jobs JobRunner, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{jobs: jobs, logger: logger}
}

// RunJob 立即执行一次赛程发现或结果结算
// @Summary 手动触发周期任务
// @Param job path string true "任务名（discovery/settlement）"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/sync/{job} [post]
func (h *SyncHandler) RunJob(c *gin.Context) {
	name := c.Param("job")

	ran, err := h.jobs.TryRun(c.Request.Context(), name)
	if errors.Is(err, scheduler.ErrUnknownJob) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job: " + name})
		return
	}
	if err != nil {
		h.logger.Errorf("手动执行 %s 失败: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ran {
		c.JSON(http.StatusConflict, gin.H{"error": name + " is already running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": name + " 执行完成"})
}
