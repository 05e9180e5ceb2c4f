package settlement

import (
	"strings"
	"testing"
	"time"
)

func TestMarkPaymentFlags(t *testing.T) {
	tests := []struct {
		status    PaymentStatus
		isPayment bool
		isPrintf  bool
	}{
		{status: PaymentPaid, isPayment: true, isPrintf: true},
		{status: PaymentPending, isPayment: false, isPrintf: false},
		{status: PaymentInprocess, isPayment: false, isPrintf: false},
		{status: PaymentVoided, isPayment: false, isPrintf: false},
		{status: PaymentFailed, isPayment: false, isPrintf: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			row := teamRepresentativeRow{Status: string(tt.status)}
			row.markPaymentFlags()
			if row.IsPayment != tt.isPayment {
				t.Errorf("isPayment for %s = %v, want %v", tt.status, row.IsPayment, tt.isPayment)
			}
			if row.IsPrintf != tt.isPrintf {
				t.Errorf("isPrintf for %s = %v, want %v", tt.status, row.IsPrintf, tt.isPrintf)
			}
		})
	}
}

func TestNormalizeDateRange(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	start, end := normalizeDateRange(early, late)
	if !start.Equal(early) || !end.Equal(late) {
		t.Errorf("ordered range changed: %v, %v", start, end)
	}
	start, end = normalizeDateRange(late, early)
	if !start.Equal(early) || !end.Equal(late) {
		t.Errorf("reversed range not swapped: %v, %v", start, end)
	}
}

func TestStatementSearchFilters(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	req := settlementStatementRequest{
		TeamRepresentativeID:   "TR-001",
		TeamRepresentativeName: "Alex",
	}

	clauses, args := statementSearchFilters(req, start, end, true)
	if len(args) != 4 {
		t.Fatalf("got %d args, want 4: %v", len(args), args)
	}
	// The range bounds joined date at the start and last gaming date at the
	// end; a single-column BETWEEN would let late gaming dates through.
	if !strings.Contains(clauses, "s.joined_date >=") {
		t.Errorf("missing joined date lower bound: %s", clauses)
	}
	if !strings.Contains(clauses, "s.last_gaming_date <=") {
		t.Errorf("missing last gaming date upper bound: %s", clauses)
	}
	if strings.Contains(clauses, "BETWEEN") {
		t.Errorf("range must bound two columns, not one: %s", clauses)
	}

	clauses, args = statementSearchFilters(settlementStatementRequest{}, time.Time{}, time.Time{}, false)
	if clauses != "" || len(args) != 0 {
		t.Errorf("empty request should add no filters, got %q with %d args", clauses, len(args))
	}
}
