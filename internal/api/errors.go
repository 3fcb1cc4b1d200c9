package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
)

// respondError 把业务错误映射为 HTTP 状态码；非用户可见的错误只返回通用提示
func respondError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	status := http.StatusInternalServerError
	switch kind, _ := apperr.KindOf(err); kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	default:
		logger.WithError(err).Error(op + " failed")
	}

	body := gin.H{"error": apperr.UserMessage(err)}
	if code := apperr.CodeOf(err); code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}
