// internal/service/config.go
package service

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// TelegramConfig 定义了 Telegram Bot 的接入信息
type TelegramConfig struct {
	BotToken    string // BotFather 下发的 token（必填）
	AdminID     int64  // 信号接收者（必填）
	ChannelID   int64  // 订阅校验用的频道 ID
	APIURL      string // Bot API 地址，默认官方
	PollTimeout time.Duration
}

// MarketConfig 定义了行情数据源（Twelve Data）的连接信息
type MarketConfig struct {
	APIKey       string // Twelve Data API key（必填）
	RESTURL      string
	WSURL        string
	Interval     string // K 线周期，例如 "1min"
	OutputSize   int    // 每次拉取的 K 线数量
	FetchTimeout time.Duration
}

// ScheduleConfig 定义了交易时段和信号配额
type ScheduleConfig struct {
	Timezone       string // 交易时段所在时区
	OpenHour       int    // 开盘小时（含）
	CloseHour      int    // 收盘小时（不含）
	IdleInterval   time.Duration
	ActiveInterval time.Duration
	StaggerDelay   time.Duration // 预告消息与正式信号之间的间隔
	DailyLimit     int           // 每日信号上限
}

// StrategyConfig 定义了指标窗口与判定阈值
type StrategyConfig struct {
	EMAFast      int
	EMASlow      int
	RSIPeriod    int
	RSIBuyBelow  float64 // RSI 低于该值才允许做多信号
	RSISellAbove float64 // RSI 高于该值才允许做空信号
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	Label        string // 通知中展示的策略名称
}

type Config struct {
	Telegram TelegramConfig `mapstructure:"Telegram"`
	Market   MarketConfig   `mapstructure:"Market"`
	Schedule ScheduleConfig `mapstructure:"Schedule"`
	Strategy StrategyConfig `mapstructure:"Strategy"`
	Pairs    []string       `mapstructure:"Pairs"`
}

// GlobalConfig 存储加载后的全局配置
var GlobalConfig Config

// setDefaults 写入全部可选项的默认值，密钥类字段没有默认值
func setDefaults() {
	viper.SetDefault("Telegram.APIURL", "https://api.telegram.org")
	viper.SetDefault("Telegram.PollTimeout", 30*time.Second)

	viper.SetDefault("Market.RESTURL", "https://api.twelvedata.com")
	viper.SetDefault("Market.WSURL", "wss://ws.twelvedata.com/v1/quotes/price")
	viper.SetDefault("Market.Interval", "1min")
	viper.SetDefault("Market.OutputSize", 100)
	viper.SetDefault("Market.FetchTimeout", 10*time.Second)

	viper.SetDefault("Schedule.Timezone", "Europe/Kiev")
	viper.SetDefault("Schedule.OpenHour", 10)
	viper.SetDefault("Schedule.CloseHour", 18)
	viper.SetDefault("Schedule.IdleInterval", 5*time.Minute)
	viper.SetDefault("Schedule.ActiveInterval", 30*time.Minute)
	viper.SetDefault("Schedule.StaggerDelay", 3*time.Second)
	viper.SetDefault("Schedule.DailyLimit", 15)

	viper.SetDefault("Strategy.EMAFast", 9)
	viper.SetDefault("Strategy.EMASlow", 21)
	viper.SetDefault("Strategy.RSIPeriod", 14)
	viper.SetDefault("Strategy.RSIBuyBelow", 45.0)
	viper.SetDefault("Strategy.RSISellAbove", 55.0)
	viper.SetDefault("Strategy.MACDFast", 12)
	viper.SetDefault("Strategy.MACDSlow", 26)
	viper.SetDefault("Strategy.MACDSignal", 9)
	viper.SetDefault("Strategy.Label", "EMA / RSI / MACD")

	viper.SetDefault("Pairs", []string{
		"EUR/USD", "GBP/USD", "USD/JPY", "USD/CHF", "AUD/USD",
		"NZD/USD", "USD/CAD", "EUR/JPY", "EUR/GBP", "GBP/JPY",
	})
}

// LoadConfig 读取并解析配置文件，校验失败直接退出进程
func LoadConfig(configPath string) *Config {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	// 密钥类字段允许用环境变量覆盖，避免写进配置文件
	_ = viper.BindEnv("Telegram.BotToken", "BOT_TOKEN")
	_ = viper.BindEnv("Telegram.AdminID", "ADMIN_ID")
	_ = viper.BindEnv("Telegram.ChannelID", "CHANNEL_ID")
	_ = viper.BindEnv("Market.APIKey", "FOREX_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	return &GlobalConfig
}

// Validate 检查没有默认值的必填项，缺失即 ConfigurationError，进程拒绝启动
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("Telegram.BotToken (or BOT_TOKEN env) is required")
	}
	if c.Telegram.AdminID == 0 {
		return fmt.Errorf("Telegram.AdminID (or ADMIN_ID env) is required")
	}
	if c.Market.APIKey == "" {
		return fmt.Errorf("Market.APIKey (or FOREX_API_KEY env) is required")
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("Pairs must not be empty")
	}
	if c.Schedule.DailyLimit <= 0 {
		return fmt.Errorf("Schedule.DailyLimit must be positive, got %d", c.Schedule.DailyLimit)
	}
	if c.Schedule.OpenHour < 0 || c.Schedule.CloseHour > 24 || c.Schedule.OpenHour >= c.Schedule.CloseHour {
		return fmt.Errorf("invalid trading window [%d, %d)", c.Schedule.OpenHour, c.Schedule.CloseHour)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid Schedule.Timezone %q: %w", c.Schedule.Timezone, err)
	}
	if _, err := ParseIntervalDuration(c.Market.Interval); err != nil {
		return fmt.Errorf("invalid Market.Interval %q: %w", c.Market.Interval, err)
	}
	return nil
}
