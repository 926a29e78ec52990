package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"

	"go.uber.org/zap"
)

// timeSeriesResponse 适配 Twelve Data /time_series 的响应结构
// 外汇品种没有 volume 字段，OHLC 全部是字符串
type timeSeriesResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
	} `json:"values"`
}

// Client 负责从 Twelve Data REST API 拉取 K 线序列
type Client struct {
	cfg        *service.MarketConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 初始化行情客户端
func NewClient(cfg *service.MarketConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		logger:     logger,
	}
}

// FetchCandles 拉取一个货币对的 K 线序列，按时间升序返回
// 历史不足时返回的条数可能少于 count，由指标层自行校验长度
func (c *Client) FetchCandles(ctx context.Context, pair, interval string, count int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(count))
	q.Set("apikey", c.cfg.APIKey)

	u := fmt.Sprintf("%s/time_series?%s", c.cfg.RESTURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pair, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: twelvedata http %d", pair, res.StatusCode)
	}

	var body timeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch %s: decode: %w", pair, err)
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("fetch %s: twelvedata: %s", pair, body.Message)
	}
	if len(body.Values) == 0 {
		return nil, fmt.Errorf("fetch %s: empty time series", pair)
	}

	candles := make([]model.Candle, 0, len(body.Values))
	for _, v := range body.Values {
		tm, err := time.Parse("2006-01-02 15:04:05", v.Datetime)
		if err != nil {
			// 日线以上周期只有日期部分
			tm, err = time.Parse("2006-01-02", v.Datetime)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: parse time %q: %w", pair, v.Datetime, err)
			}
		}
		o, err := service.StringToFloat(v.Open)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: parse open %q: %w", pair, v.Open, err)
		}
		h, err := service.StringToFloat(v.High)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: parse high %q: %w", pair, v.High, err)
		}
		l, err := service.StringToFloat(v.Low)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: parse low %q: %w", pair, v.Low, err)
		}
		cl, err := service.StringToFloat(v.Close)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: parse close %q: %w", pair, v.Close, err)
		}

		candles = append(candles, model.Candle{Time: tm, Open: o, High: h, Low: l, Close: cl})
	}

	// Twelve Data 默认按时间倒序返回，这里统一成升序
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	c.logger.Debug("Candles fetched",
		zap.String("pair", pair),
		zap.String("interval", interval),
		zap.Int("count", len(candles)))

	return candles, nil
}
