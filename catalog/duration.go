package catalog

import (
	"strconv"
	"strings"
	"time"
)

// Duration keeps a humanized duration as text and, when the text could be read, as a value.
type Duration struct {
	Text  string         `bson:"text" json:"text"`
	Value *time.Duration `bson:"value" json:"value"`
}

// ParseDuration reads "H:MM:SS" and "N days" / "N day". Any other text is kept as is,
// without a value.
func ParseDuration(text string) Duration {
	d := Duration{Text: text}
	switch {
	case strings.Contains(text, ":"):
		parts := strings.Split(text, ":")
		if len(parts) != 3 {
			return d
		}
		var hms [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return d
			}
			hms[i] = n
		}
		v := time.Duration(hms[0])*time.Hour + time.Duration(hms[1])*time.Minute + time.Duration(hms[2])*time.Second
		d.Value = &v
	case strings.Contains(text, "day"):
		fields := strings.Fields(text)
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return d
		}
		v := time.Duration(n) * 24 * time.Hour
		d.Value = &v
	}
	return d
}
