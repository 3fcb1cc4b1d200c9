package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigDir 默认配置目录
const DefaultConfigDir = "./config"

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`     // 服务器配置
	Database DatabaseConfig `mapstructure:"database" yaml:"database"` // 数据库配置
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`       // 排行榜缓存
	Discord  DiscordConfig  `mapstructure:"discord" yaml:"discord"`   // Discord 机器人
	Source   SourceConfig   `mapstructure:"source" yaml:"source"`     // 赛程数据源
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"` // 周期任务
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port      int    `mapstructure:"port" yaml:"port"`             // 服务端口
	Mode      string `mapstructure:"mode" yaml:"mode"`             // Gin运行模式：debug/release/test
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"` // 管理接口签名密钥，为空则不开放管理接口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`                       // sqlite/postgres/mysql
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`                             // 连接DSN（sqlite 为文件路径）
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`       // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`       // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // 连接最大存活时间
	LogSQL          bool          `mapstructure:"log_sql" yaml:"log_sql"`
}

// RedisConfig 地址为空时不启用缓存
type RedisConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	Password       string        `mapstructure:"password" yaml:"password"`
	DB             int           `mapstructure:"db" yaml:"db"`
	LeaderboardTTL time.Duration `mapstructure:"leaderboard_ttl" yaml:"leaderboard_ttl"` // 排行榜缓存时长
	UpcomingTTL    time.Duration `mapstructure:"upcoming_ttl" yaml:"upcoming_ttl"`       // 近期赛程缓存时长
}

// DiscordConfig Discord 机器人配置
type DiscordConfig struct {
	Token            string `mapstructure:"token" yaml:"token"`
	AppID            string `mapstructure:"app_id" yaml:"app_id"`
	RegisterCommands bool   `mapstructure:"register_commands" yaml:"register_commands"` // 启动时覆盖注册斜杠命令
}

// SourceConfig 赛程数据源配置
type SourceConfig struct {
	Provider   string   `mapstructure:"provider" yaml:"provider"`       // 数据源类型，目前仅 leaguepedia
	BaseURL    string   `mapstructure:"base_url" yaml:"base_url"`       // API基础地址
	Timeout    int      `mapstructure:"timeout" yaml:"timeout"`         // 请求超时（秒）
	RetryCount int      `mapstructure:"retry_count" yaml:"retry_count"` // 重试次数
	Proxy      string   `mapstructure:"proxy" yaml:"proxy"`             // 代理地址
	UserAgent  string   `mapstructure:"user_agent" yaml:"user_agent"`
	Leagues    []string `mapstructure:"leagues" yaml:"leagues"` // 关注的赛区（OverviewPage 前缀）
}

// ScheduleConfig 周期任务配置
type ScheduleConfig struct {
	DiscoveryCron     string        `mapstructure:"discovery_cron" yaml:"discovery_cron"`         // 赛程发现，默认每小时
	SettlementCron    string        `mapstructure:"settlement_cron" yaml:"settlement_cron"`       // 结果结算，默认每5分钟
	DiscoveryWindow   time.Duration `mapstructure:"discovery_window" yaml:"discovery_window"`     // 拉取未来多久的比赛
	SettlementWorkers int           `mapstructure:"settlement_workers" yaml:"settlement_workers"` // 社区并发结算数
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text/json
}

// secretEnv 敏感字段，只从环境变量读取覆盖
type secretEnv struct {
	DiscordToken   string `env:"DISCORD_TOKEN"`
	DiscordAppID   string `env:"DISCORD_APP_ID"`
	DatabaseDSN    string `env:"DATABASE_DSN"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`
	SourceProxy    string `env:"SOURCE_PROXY"`
	LogLevel       string `env:"LOG_LEVEL"`
}

// DefaultLeagues 默认关注的赛区
var DefaultLeagues = []string{"LCK", "LPL", "LEC", "LTA North", "LCP", "MSI", "Worlds"}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigDir)
}

// LoadConfigFrom 从指定目录加载 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "predictions.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("redis.leaderboard_ttl", 10*time.Minute)
	v.SetDefault("redis.upcoming_ttl", 5*time.Minute)
	v.SetDefault("discord.register_commands", true)
	v.SetDefault("source.provider", "leaguepedia")
	v.SetDefault("source.base_url", "https://lol.fandom.com/api.php")
	v.SetDefault("source.timeout", 15)
	v.SetDefault("source.retry_count", 2)
	v.SetDefault("source.user_agent", "LOL-Esports-Prediction-Bot/1.0")
	v.SetDefault("source.leagues", DefaultLeagues)
	v.SetDefault("schedule.discovery_cron", "0 * * * *")
	v.SetDefault("schedule.settlement_cron", "*/5 * * * *")
	v.SetDefault("schedule.discovery_window", 48*time.Hour)
	v.SetDefault("schedule.settlement_workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) error {
	var s secretEnv
	if err := env.Parse(&s); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}
	if s.DiscordToken != "" {
		cfg.Discord.Token = s.DiscordToken
	}
	if s.DiscordAppID != "" {
		cfg.Discord.AppID = s.DiscordAppID
	}
	if s.DatabaseDSN != "" {
		cfg.Database.DSN = s.DatabaseDSN
	}
	if s.RedisAddr != "" {
		cfg.Redis.Addr = s.RedisAddr
	}
	if s.RedisPassword != "" {
		cfg.Redis.Password = s.RedisPassword
	}
	if s.AdminJWTSecret != "" {
		cfg.Server.JWTSecret = s.AdminJWTSecret
	}
	if s.SourceProxy != "" {
		cfg.Source.Proxy = s.SourceProxy
	}
	if s.LogLevel != "" {
		cfg.Log.Level = s.LogLevel
	}
	return nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 不能为空")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url 不能为空")
	}
	if len(c.Source.Leagues) == 0 {
		return fmt.Errorf("source.leagues 至少配置一个赛区")
	}
	if c.Schedule.DiscoveryWindow <= 0 {
		return fmt.Errorf("schedule.discovery_window 必须大于0")
	}
	if c.Schedule.SettlementWorkers <= 0 {
		c.Schedule.SettlementWorkers = 1
	}
	return nil
}

// Masked 返回隐藏敏感字段后的副本，用于打印
func (c Config) Masked() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "******"
	}
	c.Server.JWTSecret = mask(c.Server.JWTSecret)
	c.Database.DSN = mask(c.Database.DSN)
	c.Redis.Password = mask(c.Redis.Password)
	c.Discord.Token = mask(c.Discord.Token)
	c.Source.Proxy = mask(c.Source.Proxy)
	c.Source.Leagues = append([]string(nil), c.Source.Leagues...)
	return c
}
