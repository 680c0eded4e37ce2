package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_Table(t *testing.T) {
	tests := []struct {
		payments int
		level    int
		discount int
		bonus    string
	}{
		{0, 0, 0, BonusNone},
		{1, 1, 20, BonusNone},
		{2, 1, 20, BonusNone},
		{3, 2, 25, BonusCoffee},
		{4, 2, 25, BonusCoffee},
		{5, 3, 30, BonusTwoCoffees},
		{6, 3, 30, BonusTwoCoffees},
		{7, 4, 35, BonusShake},
		{8, 4, 35, BonusShake},
		{9, 5, 40, BonusCoffeeShake},
		{10, 5, 40, BonusCoffeeShake},
		{11, 6, 45, BonusTwoCoffeesShake},
		{12, 6, 45, BonusTwoCoffeesShake},
		{100, 6, 45, BonusTwoCoffeesShake},
	}
	for _, tt := range tests {
		got := Calculate(tt.payments)
		assert.Equalf(t, tt.level, got.Level, "payments=%d", tt.payments)
		assert.Equalf(t, tt.discount, got.DiscountPercent, "payments=%d", tt.payments)
		assert.Equalf(t, tt.bonus, got.Bonus, "payments=%d", tt.payments)
	}
}

func TestCalculate_TotalOverNegatives(t *testing.T) {
	got := Calculate(-5)
	assert.Equal(t, 0, got.Level)
	assert.Equal(t, 0, got.DiscountPercent)
}

func TestForLevel_Clamps(t *testing.T) {
	assert.Equal(t, 0, ForLevel(-3).Level)
	assert.Equal(t, MaxLevel, ForLevel(99).Level)
	assert.Equal(t, 45, ForLevel(MaxLevel).DiscountPercent)
}

func TestTable_FullLadder(t *testing.T) {
	ladder := Table()
	require.Len(t, ladder, MaxLevel+1)
	for i, row := range ladder {
		assert.Equal(t, i, row.Level)
	}
	// returned slice must be a copy
	ladder[0].DiscountPercent = 99
	assert.Equal(t, 0, Table()[0].DiscountPercent)
}
