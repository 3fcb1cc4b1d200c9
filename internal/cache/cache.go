// Package cache 排行榜与近期赛程的读缓存，Redis 未配置时退化为不缓存
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
)

const keyPrefix = "lolpredict:"

// Cache JSON 读写缓存
type Cache interface {
	// Get 命中时反序列化到 dst 并返回 true
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// LeaderboardKey 社区排行榜缓存键
func LeaderboardKey(communityID string) string {
	return "leaderboard:" + communityID
}

// UpcomingKey 近期赛程缓存键
const UpcomingKey = "matches:upcoming"

// New 按配置创建缓存，地址为空时返回 Noop
func New(cfg *config.RedisConfig, logger *logrus.Logger) (Cache, error) {
	if cfg.Addr == "" {
		logger.Info("未配置Redis，排行榜不缓存")
		return Noop{}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}
	logger.WithField("addr", cfg.Addr).Info("Redis连接成功")
	return NewRedis(rdb), nil
}

// Redis 基于 go-redis 的实现
type Redis struct {
	rdb *redis.Client
}

// NewRedis 包装已有客户端
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("缓存反序列化失败(%s): %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	return r.rdb.Del(ctx, full...).Err()
}

// Close 关闭连接
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Noop 不缓存
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }
