package scheduler

import (
	"context"
	"fmt"
	"time"

	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"
	"forex-signal-bot/internal/strategy"

	"go.uber.org/zap"
)

// CandleSource 是行情数据源的抽象，按货币对拉取升序 K 线序列
type CandleSource interface {
	FetchCandles(ctx context.Context, pair, interval string, count int) ([]model.Candle, error)
}

// Notifier 是通知出口的抽象，投递失败由实现方记录，不重试
type Notifier interface {
	Notify(ctx context.Context, text, parseMode string) error
}

// PriceQuoter 提供最新成交价，用于在信号消息里附带实时价格
type PriceQuoter interface {
	LastPrice(pair string) (float64, bool)
}

// SnapshotEngine 从 K 线序列计算末值指标快照，由 ta.Calculator 实现
type SnapshotEngine interface {
	Snapshot(candles []model.Candle) (model.IndicatorSnapshot, error)
}

// DirectionClassifier 把指标快照判定为方向，由 strategy.Classifier 实现
type DirectionClassifier interface {
	Classify(snap model.IndicatorSnapshot) model.Direction
}

// Scanner 驱动周期性扫描：窗口与配额把关、逐个品种评估、两段式通知
// 单个品种的拉取或计算失败只影响该品种本轮的评估
type Scanner struct {
	source     CandleSource
	calc       SnapshotEngine
	classifier DirectionClassifier
	schedule   *strategy.Schedule
	notifier   Notifier
	quotes     PriceQuoter // 可为 nil，此时消息不带实时价格
	cfg        *service.Config
	loc        *time.Location
	logger     *zap.Logger

	now func() time.Time // 测试时注入合成时钟
}

// NewScanner 初始化扫描器
func NewScanner(
	cfg *service.Config,
	source CandleSource,
	calc SnapshotEngine,
	classifier DirectionClassifier,
	schedule *strategy.Schedule,
	notifier Notifier,
	quotes PriceQuoter,
	logger *zap.Logger,
) (*Scanner, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		source:     source,
		calc:       calc,
		classifier: classifier,
		schedule:   schedule,
		notifier:   notifier,
		quotes:     quotes,
		cfg:        cfg,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Run 启动扫描循环，直到 ctx 取消
// 每个 tick 自己决定下一次的休眠时长，循环本身没有终止状态
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info("Signal scan loop started",
		zap.Strings("pairs", s.cfg.Pairs),
		zap.String("interval", s.cfg.Market.Interval))

	for {
		sleep := s.runOnce(ctx, s.now())

		select {
		case <-ctx.Done():
			s.logger.Info("Signal scan loop stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// runOnce 执行一个 tick 并返回下一次的休眠时长
// 日切换每个 tick 都做（包括周末和盘外），错过午夜的 tick 不会漏掉重置
func (s *Scanner) runOnce(ctx context.Context, now time.Time) time.Duration {
	s.schedule.RolloverIfNewDay(now)

	if !s.schedule.WithinTradingWindow(now) {
		return s.cfg.Schedule.IdleInterval
	}

	st := s.schedule.Status()
	if !st.Enabled || st.DailyCount >= st.DailyLimit {
		return s.cfg.Schedule.IdleInterval
	}

	s.scanPairs(ctx, now)
	return s.cfg.Schedule.ActiveInterval
}

// scanPairs 按配置顺序评估每个货币对
// 配额在中途耗尽时发送一次上限通知并提前结束本轮
func (s *Scanner) scanPairs(ctx context.Context, now time.Time) {
	for _, pair := range s.cfg.Pairs {
		candles, err := s.fetchWithTimeout(ctx, pair)
		if err != nil {
			s.logger.Warn("Candle fetch failed, skipping pair",
				zap.String("pair", pair), zap.Error(err))
			continue
		}

		snap, err := s.calc.Snapshot(candles)
		if err != nil {
			s.logger.Warn("Indicator computation failed, skipping pair",
				zap.String("pair", pair), zap.Error(err))
			continue
		}

		direction := s.classifier.Classify(snap)
		s.logger.Info("Pair analyzed",
			zap.String("pair", pair),
			zap.String("direction", string(direction)))

		if direction == model.DirNone {
			continue
		}

		if !s.schedule.TryConsume() {
			// 配额在本轮中途耗尽：通知一次，不再继续扫剩余品种
			_ = s.notifier.Notify(ctx, "✅ Daily signal limit reached", "")
			return
		}

		s.deliverSignal(ctx, model.Signal{
			Pair:      pair,
			Direction: direction,
			Time:      now.In(s.loc),
			Timeframe: s.cfg.Market.Interval,
			Strategy:  s.cfg.Strategy.Label,
		})
	}
}

// fetchWithTimeout 给单个品种的拉取套上独立超时，超时只影响该品种
func (s *Scanner) fetchWithTimeout(ctx context.Context, pair string) ([]model.Candle, error) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.Market.FetchTimeout)
	defer cancel()

	return s.source.FetchCandles(fctx, pair, s.cfg.Market.Interval, s.cfg.Market.OutputSize)
}

// deliverSignal 两段式投递：预告消息、错峰延迟、正式信号
// 投递失败不回滚已占用的配额，信号本身已经成立
func (s *Scanner) deliverSignal(ctx context.Context, sig model.Signal) {
	s.logger.Info("!!! NEW SIGNAL !!!", zap.String("signal", sig.String()))

	_ = s.notifier.Notify(ctx,
		fmt.Sprintf("⏳ Preparing a signal for `%s`...", sig.Pair), "Markdown")

	if s.cfg.Schedule.StaggerDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Schedule.StaggerDelay):
		}
	}

	_ = s.notifier.Notify(ctx, s.formatSignal(sig), "HTML")
}

// formatSignal 渲染正式信号消息，有实时行情时附带当前价格
func (s *Scanner) formatSignal(sig model.Signal) string {
	arrow := "⬆️ Up"
	if sig.Direction == model.DirDown {
		arrow = "⬇️ Down"
	}

	msg := fmt.Sprintf(
		"📊 <b>Signal found!</b>\n"+
			"Pair: <code>%s</code>\n"+
			"Direction: %s\n"+
			"Timeframe: %s\n"+
			"Strategy: %s\n",
		sig.Pair, arrow, sig.Timeframe, sig.Strategy)

	if s.quotes != nil {
		if price, ok := s.quotes.LastPrice(sig.Pair); ok {
			msg += fmt.Sprintf("Price: %.5f\n", price)
		}
	}

	msg += fmt.Sprintf("🕒 %s", sig.Time.Format("15:04:05"))
	return msg
}
