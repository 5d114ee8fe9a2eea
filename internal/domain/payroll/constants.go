package payroll

const (
	PeriodStatusDraft      = "draft"
	PeriodStatusProcessing = "processing"
	PeriodStatusApproved   = "approved"
	PeriodStatusPaid       = "paid"
	PeriodStatusVoid       = "void"

	EntryStatusPending  = "pending"
	EntryStatusApproved = "approved"
	EntryStatusPaid     = "paid"

	PeriodKindWeekly      = "weekly"
	PeriodKindBiweekly    = "biweekly"
	PeriodKindSemimonthly = "semimonthly"
	PeriodKindMonthly     = "monthly"

	AdjustmentBonus         = "bonus"
	AdjustmentDeduction     = "deduction"
	AdjustmentReimbursement = "reimbursement"
	AdjustmentTax           = "tax"
	AdjustmentOther         = "other"
)

func ValidPeriodKind(kind string) bool {
	switch kind {
	case PeriodKindWeekly, PeriodKindBiweekly, PeriodKindSemimonthly, PeriodKindMonthly:
		return true
	}
	return false
}

func ValidAdjustmentKind(kind string) bool {
	switch kind {
	case AdjustmentBonus, AdjustmentDeduction, AdjustmentReimbursement, AdjustmentTax, AdjustmentOther:
		return true
	}
	return false
}
