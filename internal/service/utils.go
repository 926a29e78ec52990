package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func StringToFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// 将 Twelve Data 风格的周期字符串解析为 time.Duration
// 例如 "1min" -> 1*time.Minute, "4h" -> 4*time.Hour, "1day" -> 24*time.Hour
func ParseIntervalDuration(s string) (time.Duration, error) {
	var unitDuration time.Duration
	var valueStr string

	switch {
	case strings.HasSuffix(s, "min"):
		unitDuration = time.Minute
		valueStr = strings.TrimSuffix(s, "min")
	case strings.HasSuffix(s, "h"):
		unitDuration = time.Hour
		valueStr = strings.TrimSuffix(s, "h")
	case strings.HasSuffix(s, "day"):
		unitDuration = 24 * time.Hour
		valueStr = strings.TrimSuffix(s, "day")
	case strings.HasSuffix(s, "week"):
		unitDuration = 7 * 24 * time.Hour
		valueStr = strings.TrimSuffix(s, "week")
	default:
		return 0, fmt.Errorf("unsupported interval unit: %s", s)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid interval value: %s", s)
	}

	return time.Duration(value) * unitDuration, nil
}
