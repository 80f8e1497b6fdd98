package render

import (
	"fmt"
	"strconv"
	"time"
)

// Currency formats a signed amount to exactly two decimal places.
func Currency(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// BalanceClass returns the presentation class for a balance figure.
// Zero counts as non-negative.
func BalanceClass(amount float64) string {
	if amount < 0 {
		return "balance-neg"
	}
	return "balance-pos"
}

// CallDuration formats the elapsed time of a call as minutes:seconds
// with zero-padded seconds, recomputed against now at every render.
func CallDuration(start, now time.Time) string {
	secs := int(now.Sub(start).Seconds())
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Rate formats a per-second billing rate to three decimal places,
// substituting the platform default when the field is absent.
func Rate(rate float64) string {
	if rate == 0 {
		rate = 0.01
	}
	return strconv.FormatFloat(rate, 'f', 3, 64)
}

// GroupThousands renders an exact count with comma separators.
// Used for capacity figures only; exact counts stay unabbreviated.
func GroupThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// AbbrevThousands abbreviates a capacity figure with a K suffix.
// Non-multiples of 1000 keep their fractional part, so 250500 reads
// as 250.5K rather than rounding down.
func AbbrevThousands(n int) string {
	return fmt.Sprintf("%gK", float64(n)/1000)
}
