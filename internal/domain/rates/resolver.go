package rates

import (
	"time"
)

// Resolve returns the single rate effective on the given date. The non-overlap
// invariant guarantees at most one match; none is a hard failure, since gross
// pay cannot be computed without a rate. Pure over already-fetched rows.
func Resolve(workerRates []PayRate, on time.Time) (PayRate, error) {
	for _, rate := range workerRates {
		if rate.Active && rate.ContainsDate(on) {
			return rate, nil
		}
	}
	return PayRate{}, ErrRateNotFound
}

// CheckOverlap validates a candidate effective range against a worker's
// existing active rates. Open-ended ranges extend forever, so two open-ended
// rates always conflict.
func CheckOverlap(existing []PayRate, from time.Time, to *time.Time, ignoreRateID string) error {
	fromDay := DateOf(from)
	if to != nil && DateOf(*to).Before(fromDay) {
		return ErrInvalidRange
	}
	for _, rate := range existing {
		if !rate.Active || rate.ID == ignoreRateID {
			continue
		}
		existingFrom := DateOf(rate.EffectiveFrom)
		if rate.EffectiveTo != nil && DateOf(*rate.EffectiveTo).Before(fromDay) {
			continue
		}
		if to != nil && existingFrom.After(DateOf(*to)) {
			continue
		}
		return ErrRateOverlap
	}
	return nil
}
