package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// priceEvent 适配 Twelve Data price 频道的事件结构
type priceEvent struct {
	Event     string  `json:"event"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// QuoteStream 维护一份最新成交价映射，供信号通知附带实时价格
// 断线后自动重连，行情不可用时调用方拿不到价格但不受阻塞
type QuoteStream struct {
	mu     sync.RWMutex
	wsURL  string
	apiKey string
	pairs  []string
	prices map[string]float64
	logger *zap.Logger
}

// NewQuoteStream 初始化行情推送客户端
func NewQuoteStream(wsURL, apiKey string, pairs []string, logger *zap.Logger) *QuoteStream {
	return &QuoteStream{
		wsURL:  wsURL,
		apiKey: apiKey,
		pairs:  pairs,
		prices: make(map[string]float64, len(pairs)),
		logger: logger,
	}
}

// Start 启动 WebSocket 连接和接收循环，断线后等待重连
func (qs *QuoteStream) Start() {
	for {
		if err := qs.connectAndRead(); err != nil {
			qs.logger.Error("Quote stream disconnected, reconnecting...", zap.Error(err))
		}
		time.Sleep(5 * time.Second)
	}
}

func (qs *QuoteStream) connectAndRead() error {
	u := fmt.Sprintf("%s?apikey=%s", qs.wsURL, qs.apiKey)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	qs.logger.Info("Quote stream connected", zap.Strings("pairs", qs.pairs))

	// 一次订阅全部货币对
	subscribeMsg := map[string]interface{}{
		"action": "subscribe",
		"params": map[string]string{
			"symbols": strings.Join(qs.pairs, ","),
		},
	}
	if err := conn.WriteJSON(subscribeMsg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var ev priceEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			continue
		}
		// 忽略订阅确认和心跳事件
		if ev.Event != "price" || ev.Symbol == "" {
			continue
		}

		qs.mu.Lock()
		qs.prices[ev.Symbol] = ev.Price
		qs.mu.Unlock()
	}
}

// LastPrice 返回某个货币对的最新成交价，没收到过行情时 ok 为 false
func (qs *QuoteStream) LastPrice(pair string) (float64, bool) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()

	price, ok := qs.prices[pair]
	return price, ok
}
