package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIntervalDuration(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"1min", time.Minute, false},
		{"5min", 5 * time.Minute, false},
		{"45min", 45 * time.Minute, false},
		{"1h", time.Hour, false},
		{"4h", 4 * time.Hour, false},
		{"1day", 24 * time.Hour, false},
		{"1week", 7 * 24 * time.Hour, false},
		{"", 0, true},
		{"min", 0, true},
		{"0min", 0, true},
		{"-1h", 0, true},
		{"1x", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			d, err := ParseIntervalDuration(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Telegram: TelegramConfig{BotToken: "t", AdminID: 1},
			Market:   MarketConfig{APIKey: "k", Interval: "1min"},
			Schedule: ScheduleConfig{
				Timezone:   "Europe/Kiev",
				OpenHour:   10,
				CloseHour:  18,
				DailyLimit: 15,
			},
			Pairs: []string{"EUR/USD"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing bot token is fatal", func(t *testing.T) {
		cfg := valid()
		cfg.Telegram.BotToken = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing admin id is fatal", func(t *testing.T) {
		cfg := valid()
		cfg.Telegram.AdminID = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing api key is fatal", func(t *testing.T) {
		cfg := valid()
		cfg.Market.APIKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero daily limit is rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Schedule.DailyLimit = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("inverted trading window is rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Schedule.OpenHour = 18
		cfg.Schedule.CloseHour = 10
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown timezone is rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Schedule.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown interval is rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Market.Interval = "1fortnight"
		assert.Error(t, cfg.Validate())
	})
}
