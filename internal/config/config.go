package config

import (
	"log"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Reward   RewardConfig   `mapstructure:"reward"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	PointEvent string `mapstructure:"point_event"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// RewardConfig 签到奖励配置，零值字段回落到引擎默认值
type RewardConfig struct {
	EventProb         float64           `mapstructure:"event_prob"`
	StreakCycle       int               `mapstructure:"streak_cycle"`
	StreakStages      int               `mapstructure:"streak_stages"`
	StreakFixedMax    int               `mapstructure:"streak_fixed_max"`
	SteadyIntervalMin int               `mapstructure:"steady_interval_min"`
	SteadyIntervalMax int               `mapstructure:"steady_interval_max"`
	SteadyPointsMin   int               `mapstructure:"steady_points_min"`
	SteadyPointsMax   int               `mapstructure:"steady_points_max"`
	PointItems        []PointItemConfig `mapstructure:"point_items"`
}

type PointItemConfig struct {
	Value  int `mapstructure:"value"`
	Weight int `mapstructure:"weight"`
}

// TransferConfig 转账配置
// fee_ratio / min_fee 用字符串表达，避免 yaml 浮点解析损失精度
type TransferConfig struct {
	FeeRatio    string `mapstructure:"fee_ratio"`
	MinFee      string `mapstructure:"min_fee"`
	StrictCheck bool   `mapstructure:"strict_check"` // 开启后要求 余额 >= 转账额
	SinkAccount string `mapstructure:"sink_account"` // 黑洞账户，转入即销毁
}

// FeeRatioDecimal 手续费费率，解析失败回落到 0.01
func (c TransferConfig) FeeRatioDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.FeeRatio)
	if err != nil {
		return decimal.RequireFromString("0.01")
	}
	return d
}

// MinFeeDecimal 最低手续费，缺省时等于费率（历史口径）
func (c TransferConfig) MinFeeDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinFee)
	if err != nil {
		return c.FeeRatioDecimal()
	}
	return d
}

type AdminConfig struct {
	Token            string   `mapstructure:"token"`             // 管理接口共享令牌
	ExcludedAccounts []string `mapstructure:"excluded_accounts"` // 能量守恒汇总排除的账户
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	GlobalConfig = config
	return config
}
