package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/timestamp"
)

// Placeholder is shown for absent values.
const Placeholder = "-"

// FormatCost renders a USD amount with four decimals.
func FormatCost(usd float64) string {
	return fmt.Sprintf("$%.4f", usd)
}

// FormatCostPtr renders an optional cost.
func FormatCostPtr(usd *float64) string {
	if usd == nil {
		return Placeholder
	}
	return FormatCost(*usd)
}

// FormatDuration renders milliseconds compactly: 850ms, 1.2s, 3m05s.
func FormatDuration(ms float64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%.0fms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", ms/1000)
	default:
		d := time.Duration(ms * float64(time.Millisecond)).Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// FormatDurationPtr renders an optional duration.
func FormatDurationPtr(ms *float64) string {
	if ms == nil {
		return Placeholder
	}
	return FormatDuration(*ms)
}

// FormatTokens renders an optional token count.
func FormatTokens(n *int64) string {
	if n == nil {
		return Placeholder
	}
	return strconv.FormatInt(*n, 10)
}

// FormatTimestamp renders a raw timestamp as local "2006-01-02 15:04:05".
// Values that cannot be parsed are shown as written.
func FormatTimestamp(raw string) string {
	if raw == "" {
		return Placeholder
	}
	t, ok := timestamp.Parse(raw)
	if !ok {
		return raw
	}
	return t.Local().Format(time.DateTime)
}
