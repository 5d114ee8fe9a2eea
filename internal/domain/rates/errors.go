package rates

import "errors"

var (
	ErrRateNotFound   = errors.New("no pay rate effective on date")
	ErrRateOverlap    = errors.New("pay rate effective range overlaps an existing rate")
	ErrRateLocked     = errors.New("pay rate amount is locked by a generated payroll period")
	ErrInvalidRange   = errors.New("pay rate effective range is invalid")
	ErrInvalidKind    = errors.New("unknown pay rate kind")
	ErrWorkerInactive = errors.New("inactive workers cannot accrue new pay rates")
)
