package tier

// Tier is the loyalty rank derived from cumulative successful payments.
type Tier struct {
	Level           int    `json:"level"`
	DiscountPercent int    `json:"discount_percent"`
	Bonus           string `json:"bonus"`
}

const (
	BonusNone            = ""
	BonusCoffee          = "one coffee"
	BonusTwoCoffees      = "two coffees"
	BonusShake           = "protein shake"
	BonusCoffeeShake     = "coffee + shake"
	BonusTwoCoffeesShake = "two coffees + shake"
)

// MaxLevel is the top loyalty rank; reached at eleven payments and kept
// thereafter.
const MaxLevel = 6

var table = [MaxLevel + 1]Tier{
	{Level: 0, DiscountPercent: 0, Bonus: BonusNone},
	{Level: 1, DiscountPercent: 20, Bonus: BonusNone},
	{Level: 2, DiscountPercent: 25, Bonus: BonusCoffee},
	{Level: 3, DiscountPercent: 30, Bonus: BonusTwoCoffees},
	{Level: 4, DiscountPercent: 35, Bonus: BonusShake},
	{Level: 5, DiscountPercent: 40, Bonus: BonusCoffeeShake},
	{Level: 6, DiscountPercent: 45, Bonus: BonusTwoCoffeesShake},
}

// Calculate maps a cumulative payment count to its tier. Total over all
// inputs: negative counts clamp to level 0, eleven and above to MaxLevel.
func Calculate(paymentsCount int) Tier {
	if paymentsCount <= 0 {
		return table[0]
	}
	level := (paymentsCount + 1) / 2
	if level > MaxLevel {
		level = MaxLevel
	}
	return table[level]
}

// ForLevel returns the tier row for a level, clamping into [0, MaxLevel].
// Used when a decayed member's effective level differs from the one their
// payment count alone would yield.
func ForLevel(level int) Tier {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return table[level]
}

// Table returns the full tier ladder, lowest first.
func Table() []Tier {
	out := make([]Tier, len(table))
	copy(out, table[:])
	return out
}
