package settlement

import (
	"testing"
)

func validRow() map[string]string {
	return map[string]string{
		colSegment:        "Premium",
		colRepresentative: "Alex Tan",
		colRepID:          "TR-001",
		colMonth:          "2024-06",
		colSettlementDoc:  "DOC-1001",
		colSeqNo:          "1",
		colMemberID:       "M-100",
		colMemberName:     "Jordan Lee",
		colJoinedDate:     "01/02/2024",
		colLastGaming:     "15/06/2024",
		colEligible:       "Y",
		colWinLoss:        "12,500.00",
		colAward:          "125.00",
	}
}

func TestValidateRowValid(t *testing.T) {
	if errs := ValidateRow(validRow()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateRowRequiredShortCircuits(t *testing.T) {
	row := validRow()
	row[colMemberID] = ""
	row[colMonth] = "not a month"

	errs := ValidateRow(row)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Column != colMemberID || errs[0].Message != msgRequired {
		t.Errorf("unexpected error %+v", errs[0])
	}
	// The bad month must not surface while a required column is missing.
	for _, e := range errs {
		if e.Message == msgInvalidMonth {
			t.Errorf("typed check ran despite missing required column")
		}
	}
}

func TestValidateRowTypedChecks(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		value   string
		message string
	}{
		{name: "bad month", column: colMonth, value: "13/13/13", message: msgInvalidMonth},
		{name: "bad sequence", column: colSeqNo, value: "first", message: msgInvalidInteger},
		{name: "bad joined date", column: colJoinedDate, value: "someday", message: msgInvalidDate},
		{name: "bad gaming date", column: colLastGaming, value: "never", message: msgInvalidDate},
		{name: "bad eligibility", column: colEligible, value: "maybe", message: msgInvalidYesNo},
		{name: "bad win loss", column: colWinLoss, value: "lots", message: msgInvalidNumber},
		{name: "bad award", column: colAward, value: "none", message: msgInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row[tt.column] = tt.value
			errs := ValidateRow(row)
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
			}
			if errs[0].Column != tt.column || errs[0].Message != tt.message {
				t.Errorf("got %+v, want column %q message %q", errs[0], tt.column, tt.message)
			}
		})
	}
}

func TestValidateRowCaseInsensitiveHeaders(t *testing.T) {
	row := map[string]string{}
	for k, v := range validRow() {
		row[swapCase(k)] = v
	}
	if errs := ValidateRow(row); len(errs) != 0 {
		t.Fatalf("expected case-insensitive match, got %v", errs)
	}
}

func swapCase(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			out[i] = r - 'A' + 'a'
		}
	}
	return string(out)
}

func TestBuildHeaders(t *testing.T) {
	seen := []string{"Extra Column", colMemberName, colSegment, colMonth}
	headers := buildHeaders(seen)

	want := []string{colSegment, colMonth, colMemberName, "Extra Column"}
	if len(headers) != len(want) {
		t.Fatalf("got %v, want %v", headers, want)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("headers[%d] = %q, want %q", i, headers[i], want[i])
		}
	}
}

func TestMissingRequiredHeaders(t *testing.T) {
	var headers []string
	for _, h := range requiredHeaders {
		if h == colWinLoss {
			continue
		}
		headers = append(headers, swapCase(h))
	}
	missing := missingRequiredHeaders(headers)
	if len(missing) != 1 || missing[0] != colWinLoss {
		t.Fatalf("got %v, want [%s]", missing, colWinLoss)
	}
}
