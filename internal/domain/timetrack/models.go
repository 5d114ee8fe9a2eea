package timetrack

import (
	"time"

	"github.com/shopspring/decimal"
)

// Span is one block of tracked work. A span with no EndedAt is still running
// and never enters payroll.
type Span struct {
	ID        string     `json:"id"`
	WorkerID  string     `json:"workerId"`
	ProjectID string     `json:"projectId,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (s Span) Completed() bool {
	return s.EndedAt != nil && s.EndedAt.After(s.StartedAt)
}

// Hours returns the worked duration in hours. Zero for running spans.
func (s Span) Hours() decimal.Decimal {
	if !s.Completed() {
		return decimal.Zero
	}
	seconds := int64(s.EndedAt.Sub(s.StartedAt) / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600))
}
