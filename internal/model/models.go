package model

import (
	"fmt"
	"time"
)

// Candle 代表单根 OHLC K 线（REST 拉取后已按时间升序排列）
type Candle struct {
	Time  time.Time // K 线起始时间
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// IndicatorSnapshot 保存一个序列最后一根 K 线对应的指标值
// 每轮扫描重新计算，不跨周期缓存
type IndicatorSnapshot struct {
	EMAFast    float64
	EMASlow    float64
	RSI        float64
	MACD       float64
	MACDSignal float64
}

// Direction 定义了信号方向
type Direction string

const (
	DirUp   Direction = "UP"
	DirDown Direction = "DOWN"
	DirNone Direction = "NONE"
)

// Signal 结构体定义了扫描器发现的一次有效信号
type Signal struct {
	Pair      string    // 货币对，例如 "EUR/USD"
	Direction Direction // UP 或 DOWN（DirNone 不会生成 Signal）
	Time      time.Time // 信号评估时间
	Timeframe string    // K 线周期，例如 "1min"
	Strategy  string    // 策略标签，例如 "EMA / RSI / MACD"
}

func (s Signal) String() string {
	return fmt.Sprintf("SIGNAL [%s | %s] TF: %s | Strategy: %s | %s",
		s.Pair, s.Direction, s.Timeframe, s.Strategy, s.Time.Format("15:04:05"))
}

// ScheduleStatus 是调度状态的只读快照，供 /status 命令展示
type ScheduleStatus struct {
	Enabled      bool
	DailyCount   int
	DailyLimit   int
	LastResetDay time.Time
}
