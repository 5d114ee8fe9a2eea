package timetrack

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSpanHours(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		end  time.Time
		want decimal.Decimal
	}{
		{"whole hours", start.Add(8 * time.Hour), decimal.NewFromInt(8)},
		{"quarter hour", start.Add(15 * time.Minute), decimal.RequireFromString("0.25")},
		// 100 minutes is 1.666... hours.
		{"repeating fraction", start.Add(100 * time.Minute), decimal.NewFromInt(100).Div(decimal.NewFromInt(60))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			end := tc.end
			span := Span{StartedAt: start, EndedAt: &end}
			if !span.Hours().Equal(tc.want) {
				t.Fatalf("hours = %s, want %s", span.Hours(), tc.want)
			}
		})
	}
}

func TestSpanCompleted(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	if (Span{StartedAt: start}).Completed() {
		t.Fatal("running span must not be completed")
	}
	if !(Span{StartedAt: start, EndedAt: &end}).Completed() {
		t.Fatal("ended span must be completed")
	}
}
