package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyProfit(t *testing.T) {
	testCases := []struct {
		profit   string
		expected Result
	}{
		{"45.50", ResultWin},
		{"-20.00", ResultLoss},
		{"0", ResultBreakEven},
		{"0.01", ResultWin},
		{"-0.01", ResultLoss},
	}

	for _, tc := range testCases {
		t.Run(tc.profit, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyProfit(decimal.RequireFromString(tc.profit)))
		})
	}
}

func TestFormatDate(t *testing.T) {
	ms := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC).UnixMilli()

	assert.Equal(t, "Jan 15, 2024", FormatDate(ms))
	assert.Equal(t, "Jan 15, 2024", Trade{Date: ms}.DisplayDate())
	assert.Equal(t, 2024, Trade{Date: ms}.Time().Year())
}

func TestDefaultSettings(t *testing.T) {
	assert.True(t, DefaultSettings().InitialCapital.Equal(decimal.NewFromInt(1000)))
}
