package settlement

import "testing"

func TestPaymentStatusIsValid(t *testing.T) {
	for _, s := range []PaymentStatus{PaymentPending, PaymentInprocess, PaymentPaid, PaymentVoided, PaymentFailed} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []PaymentStatus{"", "Void", "Falied", "paid"} {
		if s.IsValid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestPaymentStatusCanTransition(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentPending, PaymentInprocess, true},
		{PaymentPending, PaymentPaid, false},
		{PaymentInprocess, PaymentPaid, true},
		{PaymentInprocess, PaymentVoided, true},
		{PaymentInprocess, PaymentFailed, true},
		{PaymentPaid, PaymentInprocess, true},
		{PaymentPaid, PaymentVoided, false},
		{PaymentVoided, PaymentInprocess, true},
		{PaymentVoided, PaymentPaid, false},
		{PaymentFailed, PaymentInprocess, false},
		{PaymentFailed, PaymentPaid, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPaymentStatusFlowGates(t *testing.T) {
	if !PaymentPending.CanStartPayment() || !PaymentVoided.CanStartPayment() {
		t.Error("Pending and Voided must be payable")
	}
	if PaymentPaid.CanStartPayment() || PaymentInprocess.CanStartPayment() || PaymentFailed.CanStartPayment() {
		t.Error("Paid, Inprocess and Failed must not be payable")
	}
	if !PaymentPaid.CanUnpay() {
		t.Error("Paid must be unpayable")
	}
	for _, s := range []PaymentStatus{PaymentPending, PaymentInprocess, PaymentVoided, PaymentFailed} {
		if s.CanUnpay() {
			t.Errorf("%s must not be unpayable", s)
		}
	}
}

// Voiding a paid record must pass through Inprocess, never jump directly.
func TestUnpayRouteThroughInprocess(t *testing.T) {
	if PaymentPaid.CanTransition(PaymentVoided) {
		t.Fatal("Paid -> Voided must not be a direct transition")
	}
	if !PaymentPaid.CanTransition(PaymentInprocess) || !PaymentInprocess.CanTransition(PaymentVoided) {
		t.Fatal("Paid -> Inprocess -> Voided must be legal")
	}
}
