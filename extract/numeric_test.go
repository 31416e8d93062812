package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCutDecimals(t *testing.T) {
	tests := []struct {
		number   string
		decimals int
		want     string
	}{
		{"1234500", 2, "12345"},
		{"123456", 2, "1234."},
		{"250", 2, "2.50"},
		{"1000", 2, "10.00"},
		{"5", 2, "0.05"},
		{"500000000000000000", 18, "0.5000"},
		{"1500000000000000000", 18, "1.500"},
		{"12345678900000000000", 18, "12.34"},
		{"123", 0, "0.123"},
		{"123456", 0, "0.1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CutDecimals(tt.number, tt.decimals), "%s/%d", tt.number, tt.decimals)
	}
}

func TestCutValue(t *testing.T) {
	d, err := cutValue("123456", 2)
	assert.NoError(t, err)
	assert.Equal(t, "1234", d.String())

	_, err = cutValue("abc", 2)
	assert.Error(t, err)
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00"},
		{59.9, "0:00:59"},
		{3661, "1:01:01"},
		{64800, "18:00:00"},
		{86400, "1 day"},
		{90000, "1 day"},
		{3*86400 + 5, "3 days"},
		{-5, "-1 day"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Humanize(tt.seconds), "%v", tt.seconds)
	}
}

func TestMonthsSince(t *testing.T) {
	now := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	days := func(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour) }

	assert.Equal(t, 2, MonthsSince(days(40), now))
	assert.Equal(t, 1, MonthsSince(days(0), now))
	assert.Equal(t, 1, MonthsSince(days(29), now))
	assert.Equal(t, 2, MonthsSince(days(30), now))
	assert.Equal(t, 1, MonthsSince(days(-31), now))
	assert.Equal(t, 25.0, 50/float64(MonthsSince(days(40), now)))
}
