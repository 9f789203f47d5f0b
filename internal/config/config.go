package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/palemoky/bop/internal/game/status"
)

// Config 中继服务端与客户端共用的配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Relay  RelayConfig  `yaml:"relay"`
	Game   GameConfig   `yaml:"game"`
	CPU    CPUConfig    `yaml:"cpu"`
}

// ServerConfig WebSocket 中继配置
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedOrigins []string `yaml:"allowed_origins"` // 为空时允许所有来源
	MessageLimit   int      `yaml:"message_limit"`   // 每个连接每秒最多转发的帧数
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RelayConfig 频道消息保留策略
type RelayConfig struct {
	HistoryLimit int    `yaml:"history_limit"` // 每个频道保留的事件数
	HistoryTTL   int    `yaml:"history_ttl"`   // 频道空闲后的保留时间（分钟）
	LobbyChannel string `yaml:"lobby_channel"`
}

// GameConfig 对局配置
type GameConfig struct {
	MaxHP         int `yaml:"max_hp"`
	Attack        int `yaml:"attack"`
	Defence       int `yaml:"defence"`
	Money         int `yaml:"money"`
	EstimatedGain int `yaml:"estimated_gain"`
	LogLimit      int `yaml:"log_limit"` // 界面显示的日志条数
}

// CPUConfig 电脑玩家配置
type CPUConfig struct {
	Rollouts     int    `yaml:"rollouts"`
	ThinkTimeout int    `yaml:"think_timeout"` // 毫秒
	Seed         uint64 `yaml:"seed"`          // 0 表示按时间取种子
}

// HistoryTTLDuration 返回频道历史保留时长
func (c *RelayConfig) HistoryTTLDuration() time.Duration {
	return time.Duration(c.HistoryTTL) * time.Minute
}

// Initial 开局属性
func (c *GameConfig) Initial() status.Attributes {
	return status.Attributes{
		MaxHP:         c.MaxHP,
		CurrentHP:     c.MaxHP,
		Attack:        c.Attack,
		Defence:       c.Defence,
		Money:         c.Money,
		EstimatedGain: c.EstimatedGain,
	}
}

// ThinkTimeoutDuration 返回电脑玩家思考时长上限
func (c *CPUConfig) ThinkTimeoutDuration() time.Duration {
	return time.Duration(c.ThinkTimeout) * time.Millisecond
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv 环境变量覆盖配置文件
func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil {
		c.Server.Port = v
	}
	if v := os.Getenv("SERVER_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v, err := strconv.Atoi(os.Getenv("CPU_ROLLOUTS")); err == nil {
		c.CPU.Rollouts = v
	}
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = def.Server.MaxConnections
	}
	if c.Server.MessageLimit == 0 {
		c.Server.MessageLimit = def.Server.MessageLimit
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = def.Redis.Addr
	}
	if c.Relay.HistoryLimit == 0 {
		c.Relay.HistoryLimit = def.Relay.HistoryLimit
	}
	if c.Relay.HistoryTTL == 0 {
		c.Relay.HistoryTTL = def.Relay.HistoryTTL
	}
	if c.Relay.LobbyChannel == "" {
		c.Relay.LobbyChannel = def.Relay.LobbyChannel
	}
	if c.Game.MaxHP == 0 {
		c.Game.MaxHP = def.Game.MaxHP
	}
	if c.Game.Attack == 0 {
		c.Game.Attack = def.Game.Attack
	}
	if c.Game.Defence == 0 {
		c.Game.Defence = def.Game.Defence
	}
	if c.Game.Money == 0 {
		c.Game.Money = def.Game.Money
	}
	if c.Game.EstimatedGain == 0 {
		c.Game.EstimatedGain = def.Game.EstimatedGain
	}
	if c.Game.LogLimit == 0 {
		c.Game.LogLimit = def.Game.LogLimit
	}
	if c.CPU.Rollouts == 0 {
		c.CPU.Rollouts = def.CPU.Rollouts
	}
	if c.CPU.ThinkTimeout == 0 {
		c.CPU.ThinkTimeout = def.CPU.ThinkTimeout
	}
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           1780,
			MaxConnections: 1000,
			MessageLimit:   20,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Relay: RelayConfig{
			HistoryLimit: 512,
			HistoryTTL:   120,
			LobbyChannel: "lobby",
		},
		Game: GameConfig{
			MaxHP:         50,
			Attack:        10,
			Defence:       5,
			Money:         5,
			EstimatedGain: 3,
			LogLimit:      8,
		},
		CPU: CPUConfig{
			Rollouts:     40000,
			ThinkTimeout: 3000,
		},
	}
}
