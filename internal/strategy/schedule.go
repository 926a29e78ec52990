package strategy

import (
	"sync"
	"time"

	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"

	"go.uber.org/zap"
)

// Schedule 是唯一跨扫描周期存活的共享状态：
// 信号开关、当日计数、日切换。扫描器和命令处理器并发访问，
// 所有读写都必须经过这里的方法，不允许外部直接改字段。
type Schedule struct {
	mu           sync.Mutex
	enabled      bool
	dailyCount   int
	dailyLimit   int
	lastResetDay time.Time // 所在时区的日历日（零点）

	loc       *time.Location
	openHour  int
	closeHour int
	logger    *zap.Logger
}

// NewSchedule 初始化调度状态，启动时默认开启、计数为零
func NewSchedule(cfg *service.ScheduleConfig, logger *zap.Logger) (*Schedule, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Schedule{
		enabled:      true,
		dailyCount:   0,
		dailyLimit:   cfg.DailyLimit,
		lastResetDay: dayOf(time.Now(), loc),
		loc:          loc,
		openHour:     cfg.OpenHour,
		closeHour:    cfg.CloseHour,
		logger:       logger,
	}, nil
}

// dayOf 将时刻归一化为所在时区的日历日
func dayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// WithinTradingWindow 判断当前时刻是否处于交易时段
// 纯函数：周一到周五，小时在 [openHour, closeHour) 内
func (s *Schedule) WithinTradingWindow(now time.Time) bool {
	local := now.In(s.loc)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return local.Hour() >= s.openHour && local.Hour() < s.closeHour
}

// RolloverIfNewDay 在日历日变化时把当日计数清零，同一天内重复调用无效果
// 用显式的日期比较而不是 hour==0 探测，错过一次 tick 也不会漏掉重置
func (s *Schedule) RolloverIfNewDay(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := dayOf(now, s.loc)
	if today.Equal(s.lastResetDay) {
		return
	}

	s.logger.Info("New day, daily signal counter reset",
		zap.Time("day", today),
		zap.Int("previous_count", s.dailyCount))
	s.dailyCount = 0
	s.lastResetDay = today
}

// TryConsume 原子地检查并占用一个当日信号额度
// 只有开关打开且未到上限才放行，放行即计数，并发调用不会超发
func (s *Schedule) TryConsume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.dailyCount >= s.dailyLimit {
		return false
	}
	s.dailyCount++
	return true
}

// SetEnabled 打开或关闭信号，来自 /on 与 /off 命令
func (s *Schedule) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled != enabled {
		s.logger.Info("Signals toggled",
			zap.Bool("from", s.enabled),
			zap.Bool("to", enabled))
	}
	s.enabled = enabled
}

// ResetCount 将当日计数清零，来自 /reset 命令
func (s *Schedule) ResetCount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Daily signal counter reset by command",
		zap.Int("previous_count", s.dailyCount))
	s.dailyCount = 0
}

// Status 返回调度状态的只读快照
func (s *Schedule) Status() model.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.ScheduleStatus{
		Enabled:      s.enabled,
		DailyCount:   s.dailyCount,
		DailyLimit:   s.dailyLimit,
		LastResetDay: s.lastResetDay,
	}
}
