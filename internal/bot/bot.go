package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"

	"go.uber.org/zap"
)

const startReply = "👋 Hi! I am a forex signal bot.\n\n" +
	"Commands:\n" +
	"/on — enable signals\n" +
	"/off — disable signals\n" +
	"/status — show current status\n" +
	"/reset — reset the daily signal counter"

// ScheduleControl 是命令处理器对调度状态的全部操作面
type ScheduleControl interface {
	SetEnabled(enabled bool)
	ResetCount()
	Status() model.ScheduleStatus
}

// replySender 抽象出发送回复的动作，测试时可替换
type replySender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// memberChecker 抽象出订阅校验，测试时可替换
type memberChecker interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
}

// Bot 是 Telegram 命令前端：长轮询更新并把命令映射到调度状态操作
type Bot struct {
	client   *Client
	sender   replySender
	checker  memberChecker
	cfg      *service.TelegramConfig
	schedule ScheduleControl
	logger   *zap.Logger
}

// NewBot 初始化命令前端
func NewBot(client *Client, cfg *service.TelegramConfig, schedule ScheduleControl, logger *zap.Logger) *Bot {
	return &Bot{
		client:   client,
		sender:   client,
		checker:  client,
		cfg:      cfg,
		schedule: schedule,
		logger:   logger,
	}
}

// Run 启动长轮询循环，直到 ctx 取消
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("Telegram command loop started", zap.Int64("admin_id", b.cfg.AdminID))

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram command loop stopped")
			return
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			b.logger.Error("Failed to poll updates, retrying...", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

// handleMessage 分发一条收到的消息，非命令文本直接忽略
func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	cmd := strings.TrimSpace(msg.Text)
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // 群聊里的 /status@botname 形式
	}

	var reply string
	switch cmd {
	case "/start":
		if msg.From == nil || !b.isSubscribed(ctx, msg.From.ID) {
			reply = "❌ Subscribe to the channel to receive signals!"
		} else {
			reply = startReply
		}
	case "/on":
		b.schedule.SetEnabled(true)
		reply = "✅ Signals enabled"
	case "/off":
		b.schedule.SetEnabled(false)
		reply = "⛔ Signals disabled"
	case "/status":
		st := b.schedule.Status()
		state := "🔴 DISABLED"
		if st.Enabled {
			state = "🟢 ENABLED"
		}
		reply = fmt.Sprintf("Status: %s\nSignals sent today: %d/%d",
			state, st.DailyCount, st.DailyLimit)
	case "/reset":
		b.schedule.ResetCount()
		reply = "🔄 Signal counter reset"
	default:
		return
	}

	if err := b.sender.SendMessage(ctx, msg.Chat.ID, reply, ""); err != nil {
		b.logger.Error("Failed to send command reply",
			zap.String("command", cmd), zap.Error(err))
	}
}

// isSubscribed 校验用户是否订阅了频道，查询失败一律视为未订阅
func (b *Bot) isSubscribed(ctx context.Context, userID int64) bool {
	status, err := b.checker.GetChatMember(ctx, b.cfg.ChannelID, userID)
	if err != nil {
		b.logger.Warn("Membership check failed", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	switch status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

// AdminNotifier 把扫描器的通知发给管理员会话
// 投递失败只记日志，额度不回滚也不重试
type AdminNotifier struct {
	client  *Client
	adminID int64
	logger  *zap.Logger
}

// NewAdminNotifier 初始化管理员通知器
func NewAdminNotifier(client *Client, adminID int64, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{client: client, adminID: adminID, logger: logger}
}

// Notify 发送一条通知消息
func (n *AdminNotifier) Notify(ctx context.Context, text, parseMode string) error {
	if err := n.client.SendMessage(ctx, n.adminID, text, parseMode); err != nil {
		n.logger.Error("Notification delivery failed", zap.Error(err))
		return err
	}
	return nil
}
