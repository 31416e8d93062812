package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const cutWidth = 5

// CutDecimals turns an integer minor-unit string into a decimal string and keeps only
// its first 5 characters. This is a fixed-width truncation, not rounding:
//
//	CutDecimals("1234500", 2)             == "12345"
//	CutDecimals("123456", 2)              == "1234."
//	CutDecimals("250", 2)                 == "2.50"
//	CutDecimals("500000000000000000", 18) == "0.5000"
//
// A leading '.' gets a '0' prepended after the cut. With decimals == 0 the point is
// placed in front of the number.
func CutDecimals(number string, decimals int) string {
	digits := []byte(number)
	for len(digits) < decimals {
		digits = append([]byte{'0'}, digits...)
	}
	at := 0
	if decimals > 0 {
		at = len(digits) - decimals
	}
	withPoint := make([]byte, 0, len(digits)+1)
	withPoint = append(withPoint, digits[:at]...)
	withPoint = append(withPoint, '.')
	withPoint = append(withPoint, digits[at:]...)

	s := string(withPoint)
	if len(s) > cutWidth {
		s = s[:cutWidth]
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return s
}

// cutValue parses the output of CutDecimals. A trailing point is allowed.
func cutValue(number string, decimals int) (decimal.Decimal, error) {
	s := strings.TrimSuffix(CutDecimals(number, decimals), ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q/%d: %w", number, decimals, err)
	}
	return d, nil
}

func roundFloat(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}

const (
	usPerSecond = int64(1000000)
	usPerDay    = 86400 * usPerSecond
)

// Humanize renders seconds as a coarse duration: "H:MM:SS" below one day and
// "N days" (or "1 day") from one day on. Sub-second precision is dropped.
func Humanize(seconds float64) string {
	us := int64(math.RoundToEven(seconds * float64(usPerSecond)))
	days := us / usPerDay
	rem := us % usPerDay
	if rem < 0 {
		days--
		rem += usPerDay
	}
	if days != 0 {
		if days == 1 || days == -1 {
			return fmt.Sprintf("%d day", days)
		}
		return fmt.Sprintf("%d days", days)
	}
	secs := rem / usPerSecond
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
