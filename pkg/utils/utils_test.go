package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		step     int64
		expected string
	}{
		{name: "commercial value", value: "373.42", step: 5, expected: "375"},
		{name: "rounds down below half", value: "372.49", step: 5, expected: "370"},
		{name: "tie rounds up", value: "372.5", step: 5, expected: "375"},
		{name: "already a multiple", value: "500", step: 5, expected: "500"},
		{name: "small positive rounds to zero", value: "2.4", step: 5, expected: "0"},
		{name: "small positive tie rounds up", value: "2.5", step: 5, expected: "5"},
		{name: "zero", value: "0", step: 5, expected: "0"},
		{name: "negative", value: "-12.5", step: 5, expected: "0"},
		{name: "step of ten", value: "1234", step: 10, expected: "1230"},
		{name: "invalid step", value: "100", step: 0, expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToStep(decimal.RequireFromString(tt.value), tt.step)
			assert.True(t, result.Equal(decimal.RequireFromString(tt.expected)),
				"Expected %s, but got %s", tt.expected, result)
		})
	}
}

func TestRoundToStep_Idempotent(t *testing.T) {
	for _, raw := range []string{"0.01", "2.5", "7.49", "99.99", "373.42", "1000.01", "123456.78"} {
		once := RoundToDefaultStep(decimal.RequireFromString(raw))
		twice := RoundToDefaultStep(once)
		assert.True(t, once.Equal(twice), "value %s: %s != %s", raw, once, twice)
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(decimal.RequireFromString("10.00"), decimal.RequireFromString("10.01")))
	assert.True(t, WithinTolerance(decimal.RequireFromString("10.01"), decimal.RequireFromString("10.00")))
	assert.False(t, WithinTolerance(decimal.RequireFromString("10.00"), decimal.RequireFromString("10.02")))
}

func TestIsSettled(t *testing.T) {
	assert.True(t, IsSettled(decimal.Zero))
	assert.True(t, IsSettled(decimal.RequireFromString("0.01")))
	assert.False(t, IsSettled(decimal.RequireFromString("0.02")))
}

func TestPercentage(t *testing.T) {
	assert.True(t, Percentage(decimal.NewFromInt(25), decimal.NewFromInt(200)).Equal(decimal.RequireFromString("12.5")))
	assert.True(t, Percentage(decimal.NewFromInt(25), decimal.Zero).IsZero())
}

func TestCalculateDueDate(t *testing.T) {
	baseDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		installmentNumber int
		expected          time.Time
	}{
		{name: "first installment", installmentNumber: 1, expected: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{name: "second installment", installmentNumber: 2, expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "crosses year", installmentNumber: 12, expected: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateDueDate(baseDate, tt.installmentNumber))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(due, time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, 5, DaysBetween(due, time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, -2, DaysBetween(due, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)))
}

func TestIsDateOverdue(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsDateOverdue(due, time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, IsDateOverdue(due, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
}
