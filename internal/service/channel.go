package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

// ChannelService 社区公告频道配置（管理操作）
type ChannelService struct {
	repo   repository.BroadcastRepository
	logger *logrus.Logger
}

// NewChannelService 创建频道配置服务
func NewChannelService(repo repository.BroadcastRepository, logger *logrus.Logger) *ChannelService {
	return &ChannelService{repo: repo, logger: logger}
}

// SetBroadcastChannel 设置社区的公告频道，已存在则覆盖
func (s *ChannelService) SetBroadcastChannel(ctx context.Context, communityID, channelID string) error {
	communityID = strings.TrimSpace(communityID)
	channelID = strings.TrimSpace(channelID)
	if communityID == "" || channelID == "" {
		return apperr.Validation(apperr.CodeInvalidArgument, "社區與頻道 ID 不可為空！")
	}
	if err := s.repo.UpsertChannel(ctx, communityID, channelID); err != nil {
		return fmt.Errorf("保存公告频道失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"community_id": communityID,
		"channel_id":   channelID,
	}).Info("公告频道已设置")
	return nil
}

// GetBroadcastChannel 查询社区公告频道，未设置返回 nil
func (s *ChannelService) GetBroadcastChannel(ctx context.Context, communityID string) (*model.BroadcastChannel, error) {
	return s.repo.GetChannel(ctx, communityID)
}

// ListChannels 全部已配置频道的社区
func (s *ChannelService) ListChannels(ctx context.Context) ([]*model.BroadcastChannel, error) {
	return s.repo.ListChannels(ctx)
}
