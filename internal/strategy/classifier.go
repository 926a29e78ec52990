package strategy

import (
	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"
)

// Classifier 根据指标快照判定信号方向
// 两个方向要求相反的 EMA 排列，互斥无需额外仲裁
type Classifier struct {
	cfg *service.StrategyConfig
}

// NewClassifier 初始化信号判定器
func NewClassifier(cfg *service.StrategyConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify 返回 UP / DOWN / NONE
// UP:   快线在慢线上方，RSI 低于买入阈值，MACD 在信号线上方
// DOWN: 条件全部取反
func (c *Classifier) Classify(snap model.IndicatorSnapshot) model.Direction {
	bullish := snap.EMAFast > snap.EMASlow &&
		snap.RSI < c.cfg.RSIBuyBelow &&
		snap.MACD > snap.MACDSignal

	bearish := snap.EMAFast < snap.EMASlow &&
		snap.RSI > c.cfg.RSISellAbove &&
		snap.MACD < snap.MACDSignal

	if bullish {
		return model.DirUp
	}
	if bearish {
		return model.DirDown
	}
	return model.DirNone
}
