// Package adapter 维护赛程数据源的工厂注册表
package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
)

// ========== 全局工厂函数注册表（依赖interfaces包） ==========
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 供数据源包的 init 函数调用，注册工厂函数
func Register(provider string, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", provider))
	}
	provider = strings.ToLower(provider)
	if _, exists := factoryRegistry[provider]; exists {
		logrus.Warnf("数据源%s已注册，将覆盖原有实现", provider)
	}
	factoryRegistry[provider] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(provider string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[strings.ToLower(provider)]
	return factory, ok
}

// ListFactories 列出所有已注册的数据源
func ListFactories() []string {
	var providers []string
	for p := range factoryRegistry {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers
}

// NewMatchSource 按配置创建数据源实例
func NewMatchSource(cfg *config.SourceConfig, logger *logrus.Logger) (interfaces.MatchSource, error) {
	factory, ok := GetFactory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("未找到数据源%s的工厂函数（已注册：%v）", cfg.Provider, ListFactories())
	}
	src := factory(cfg, logger)
	if src == nil {
		return nil, fmt.Errorf("数据源%s的工厂函数返回nil", cfg.Provider)
	}
	logger.WithField("provider", src.GetName()).Info("数据源初始化成功")
	return src, nil
}
