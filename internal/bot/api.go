package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"forex-signal-bot/internal/service"
)

// Update 适配 Telegram getUpdates 的更新结构，只保留用到的字段
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type User struct {
	ID int64 `json:"id"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// chatMember 适配 getChatMember 的响应，status 用于订阅校验
type chatMember struct {
	Status string `json:"status"`
}

// apiResponse 是 Bot API 的统一响应信封
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Client 是对 Telegram Bot API 的最小封装
// 只实现本 bot 用到的三个方法：sendMessage / getUpdates / getChatMember
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// NewClient 初始化 Telegram 客户端
// 长轮询的超时比 PollTimeout 略长，避免客户端先于服务端断开
func NewClient(cfg *service.TelegramConfig) *Client {
	return &Client{
		apiURL:     cfg.APIURL,
		token:      cfg.BotToken,
		httpClient: &http.Client{Timeout: cfg.PollTimeout + 10*time.Second},
	}
}

// call 发起一次 Bot API 调用，result 为 nil 时丢弃返回体
func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: marshal: %w", method, err)
	}

	u := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: send: %w", method, err)
	}
	defer res.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram %s: decode: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: api error: %s", method, envelope.Description)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s: unmarshal result: %w", method, err)
		}
	}
	return nil
}

// SendMessage 向指定会话发送一条消息
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// GetUpdates 长轮询拉取更新，offset 为上次处理过的最大 update_id + 1
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// GetChatMember 查询用户在频道里的成员状态
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (string, error) {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	}

	var member chatMember
	if err := c.call(ctx, "getChatMember", payload, &member); err != nil {
		return "", err
	}
	return member.Status, nil
}
