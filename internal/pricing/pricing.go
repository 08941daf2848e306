// Package pricing computes the coin cost of a generation request. The
// function is pure: the orchestrator recomputes the price server-side from
// the validated config and never accepts a caller-supplied amount.
package pricing

import "server/internal/domain"

const (
	// BaseCost is the flat price of a standard generation.
	BaseCost = 15

	// HighQualityPercent is added on top of the base for the high tier,
	// rounded up to a whole coin.
	HighQualityPercent = 30

	// LongDurationThresholdSeconds marks where the duration surcharge
	// starts to apply.
	LongDurationThresholdSeconds = 5

	// LongDurationSurcharge applies to renders longer than the threshold.
	LongDurationSurcharge = 10

	// ReferenceSurcharge applies when a secondary motion/character
	// transfer asset is supplied.
	ReferenceSurcharge = 10

	// SignupBonus is the coin grant for a fresh account.
	SignupBonus = 200
)

// Cost returns the coin price for the given config. hasReference indicates
// a secondary motion/character-transfer asset.
func Cost(cfg domain.VideoConfig, hasReference bool) int {
	cost := BaseCost
	if cfg.Quality == domain.VideoQualityHigh {
		cost += ceilPercent(BaseCost, HighQualityPercent)
	}
	if cfg.DurationSeconds > LongDurationThresholdSeconds {
		cost += LongDurationSurcharge
	}
	if hasReference {
		cost += ReferenceSurcharge
	}
	return cost
}

func ceilPercent(amount, percent int) int {
	return (amount*percent + 99) / 100
}
