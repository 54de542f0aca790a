package csvio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-8.40", "-8.4"},
		{"-8,40", "-8.4"},
		{"12,5", "12.5"},
		{"1.234", "1234"},
		{"1.234,56", "1234.56"},
		{"-1.234.567,89", "-1234567.89"},
		{"2.000.000", "2000000"},
		{" 15,00 €", "15"},
		{"0.5", "0.5"},
		{"100", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1,2,3", "--5"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-8,40", FormatAmount(decimal.RequireFromString("-8.4")))
	assert.Equal(t, "1234,56", FormatAmount(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "3,00", FormatAmount(decimal.NewFromInt(3)))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

	got, err := ParseDate("15.09.25")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = ParseDate("15.09.2025")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	for _, in := range []string{"2025-09-15", "32.01.25", "15/09/25", ""} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05.01.24", FormatDate(time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)))
}
