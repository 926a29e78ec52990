package main

import (
	"context"
	"os"

	"forex-signal-bot/internal/api"
	"forex-signal-bot/internal/bot"
	"forex-signal-bot/internal/scheduler"
	"forex-signal-bot/internal/service"
	"forex-signal-bot/internal/strategy"
	"forex-signal-bot/pkg/ta"

	"go.uber.org/zap"
)

func main() {
	service.InitLogger()
	defer service.Logger.Sync()

	configPath := "config"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		service.Logger.Fatal("Configuration directory 'config/' not found. Please create it.")
	}
	cfg := service.LoadConfig(configPath)

	service.Logger.Info("Forex signal bot starting",
		zap.Int64("admin_id", cfg.Telegram.AdminID),
		zap.Strings("pairs", cfg.Pairs),
		zap.Int("daily_limit", cfg.Schedule.DailyLimit))

	// 调度状态：唯一的跨周期共享状态，命令和扫描都经过它
	schedule, err := strategy.NewSchedule(&cfg.Schedule, service.Logger)
	if err != nil {
		service.Logger.Fatal("Failed to initialize schedule state", zap.Error(err))
	}

	// 行情：REST 拉 K 线 + WS 维护最新价格
	marketClient := api.NewClient(&cfg.Market, service.Logger)
	quoteStream := api.NewQuoteStream(cfg.Market.WSURL, cfg.Market.APIKey, cfg.Pairs, service.Logger)
	go quoteStream.Start()

	// Telegram：命令前端 + 管理员通知
	tgClient := bot.NewClient(&cfg.Telegram)
	commandBot := bot.NewBot(tgClient, &cfg.Telegram, schedule, service.Logger)
	notifier := bot.NewAdminNotifier(tgClient, cfg.Telegram.AdminID, service.Logger)

	// 指标与判定
	calculator := ta.NewCalculator(&cfg.Strategy, service.Logger)
	classifier := strategy.NewClassifier(&cfg.Strategy)

	scanner, err := scheduler.NewScanner(
		cfg, marketClient, calculator, classifier, schedule, notifier, quoteStream, service.Logger)
	if err != nil {
		service.Logger.Fatal("Failed to initialize scanner", zap.Error(err))
	}

	ctx := context.Background()
	go commandBot.Run(ctx)
	go scanner.Run(ctx)

	// 保持主 Goroutine 不退出
	select {}
}
