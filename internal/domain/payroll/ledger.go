package payroll

// LedgerTotal folds an entry's append-only adjustment ledger into one signed
// amount. The stored adjustments/net columns on an entry are always derived
// from this fold, never hand-edited.
func LedgerTotal(adjustments []Adjustment) (int64, error) {
	var total int64
	for _, adjustment := range adjustments {
		var err error
		total, err = addMinor(total, adjustment.AmountMinor)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
