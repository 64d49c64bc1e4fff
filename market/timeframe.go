package market

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is a candle period such as M1 or H4.
type Timeframe time.Duration

const (
	M1  = Timeframe(time.Minute)
	M5  = Timeframe(5 * time.Minute)
	M15 = Timeframe(15 * time.Minute)
	M30 = Timeframe(30 * time.Minute)
	H1  = Timeframe(time.Hour)
	H4  = Timeframe(4 * time.Hour)
	D1  = Timeframe(24 * time.Hour)
	W1  = Timeframe(7 * 24 * time.Hour)
)

func (tf Timeframe) Duration() time.Duration { return time.Duration(tf) }

func (tf Timeframe) String() string {
	s, err := TimeframeString(tf)
	if err != nil {
		return time.Duration(tf).String()
	}
	return s
}

// TimeframeString maps a period onto the MT5 style name.
func TimeframeString(tf Timeframe) (string, error) {
	sec := int64(time.Duration(tf) / time.Second)
	if sec <= 0 || time.Duration(tf)%time.Second != 0 {
		return "", fmt.Errorf("invalid timeframe: %s", time.Duration(tf))
	}

	// Minutes
	if sec < 3600 && sec%60 == 0 {
		return fmt.Sprintf("M%d", sec/60), nil
	}

	// Hours
	if sec < 86400 && sec%3600 == 0 {
		return fmt.Sprintf("H%d", sec/3600), nil
	}

	// Days
	if sec%86400 == 0 {
		days := sec / 86400
		if days == 7 {
			return "W1", nil
		}
		return fmt.Sprintf("D%d", days), nil
	}

	return "", fmt.Errorf("cannot map timeframe: %d seconds", sec)
}

func ParseTimeframe(s string) (Timeframe, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M1":
		return M1, nil
	case "M5":
		return M5, nil
	case "M15":
		return M15, nil
	case "M30":
		return M30, nil
	case "H1":
		return H1, nil
	case "H4":
		return H4, nil
	case "D1", "D":
		return D1, nil
	case "W1", "W":
		return W1, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe string: %s", s)
	}
}
