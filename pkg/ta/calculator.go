package ta

import (
	"fmt"
	"math"

	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"

	"github.com/markcheno/go-talib"
	"go.uber.org/zap"
)

// Calculator 负责从收盘价序列计算本策略用到的全部指标
// 计算是纯函数式的：同一序列永远得到同一快照
type Calculator struct {
	cfg           *service.StrategyConfig
	minHistoryLen int // 产出有效末值所需的最小 K 线数量
	logger        *zap.Logger
}

// NewCalculator 初始化技术指标计算器
func NewCalculator(cfg *service.StrategyConfig, logger *zap.Logger) *Calculator {
	// MACD 慢线 + 信号线的窗口决定了最长的预热期
	minLen := cfg.EMASlow
	if cfg.RSIPeriod > minLen {
		minLen = cfg.RSIPeriod
	}
	if macdLen := cfg.MACDSlow + cfg.MACDSignal; macdLen > minLen {
		minLen = macdLen
	}

	return &Calculator{
		cfg:           cfg,
		minHistoryLen: minLen,
		logger:        logger,
	}
}

// MinHistory 返回计算所需的最小序列长度
func (c *Calculator) MinHistory() int {
	return c.minHistoryLen
}

// Snapshot 从 K 线序列计算最后一根 K 线的指标快照
// 序列不够长或末值非有限数时返回错误，由调用方按单个品种隔离处理
func (c *Calculator) Snapshot(candles []model.Candle) (model.IndicatorSnapshot, error) {
	if len(candles) < c.minHistoryLen {
		return model.IndicatorSnapshot{}, fmt.Errorf(
			"insufficient history: got %d candles, need %d", len(candles), c.minHistoryLen)
	}

	closes := make([]float64, len(candles))
	for i, k := range candles {
		closes[i] = k.Close
	}

	emaFast := talib.Ema(closes, c.cfg.EMAFast)
	emaSlow := talib.Ema(closes, c.cfg.EMASlow)
	rsi := talib.Rsi(closes, c.cfg.RSIPeriod)
	macd, macdSignal, _ := talib.Macd(closes, c.cfg.MACDFast, c.cfg.MACDSlow, c.cfg.MACDSignal)

	// 只取最新值，前段的预热值不参与判定
	snap := model.IndicatorSnapshot{
		EMAFast:    emaFast[len(emaFast)-1],
		EMASlow:    emaSlow[len(emaSlow)-1],
		RSI:        rsi[len(rsi)-1],
		MACD:       macd[len(macd)-1],
		MACDSignal: macdSignal[len(macdSignal)-1],
	}

	for name, v := range map[string]float64{
		"ema_fast": snap.EMAFast, "ema_slow": snap.EMASlow,
		"rsi": snap.RSI, "macd": snap.MACD, "macd_signal": snap.MACDSignal,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.IndicatorSnapshot{}, fmt.Errorf("non-finite %s value", name)
		}
	}

	c.logger.Debug("Indicator snapshot computed",
		zap.Float64("ema_fast", snap.EMAFast),
		zap.Float64("ema_slow", snap.EMASlow),
		zap.Float64("rsi", snap.RSI),
		zap.Float64("macd", snap.MACD),
		zap.Float64("macd_signal", snap.MACDSignal))

	return snap, nil
}
