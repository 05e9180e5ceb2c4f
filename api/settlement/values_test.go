package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "day first", input: "25/12/2024", want: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{name: "single digits", input: "5/1/2024", want: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{name: "month first fallback", input: "12/25/2024", want: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{name: "iso", input: "2024-06-15", want: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{name: "excel serial", input: "45658", want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "excel serial with time", input: "45658.75", want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "not a date", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateEmptyDefaultsToToday(t *testing.T) {
	got, err := ParseDate("")
	if err != nil {
		t.Fatalf("ParseDate(\"\") unexpected error: %v", err)
	}
	now := time.Now().UTC()
	want := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate(\"\") = %v, want %v", got, want)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "year-month", input: "2024-06", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "year-month single digit", input: "2024-6", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "month/year", input: "6/2024", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "full date truncates", input: "25/12/2024", want: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
		{name: "month out of range", input: "2024-13", wantErr: true},
		{name: "month zero", input: "0/2024", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "June-ish", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMonth(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{input: "Y", want: true},
		{input: "y", want: true},
		{input: "N", want: false},
		{input: " n ", want: false},
		{input: "", want: false},
		{input: "yes", wantErr: true},
		{input: "1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseYesNo(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseYesNo(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseYesNo(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseYesNo(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "1234.50", want: "1234.5"},
		{name: "thousands separator", input: "1,234.50", want: "1234.5"},
		{name: "accounting negative", input: "(1,234.50)", want: "-1234.5"},
		{name: "explicit negative", input: "-500", want: "-500"},
		{name: "lone dash is zero", input: "-", want: "0"},
		{name: "currency prefix", input: "$2,000", want: "2000"},
		{name: "empty fails", input: "", wantErr: true},
		{name: "garbage fails", input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMoney(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.input, err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestCalculateAwardTotal(t *testing.T) {
	tests := []struct {
		name    string
		winLoss string
		want    string
	}{
		{name: "top tier boundary", winLoss: "90000", want: "10800"},
		{name: "above top tier", winLoss: "100000", want: "12000"},
		{name: "mid tier boundary", winLoss: "3000", want: "30"},
		{name: "mid tier", winLoss: "50000", want: "500"},
		{name: "low tier", winLoss: "2999.99", want: "149.9995"},
		{name: "low tier small", winLoss: "500", want: "25"},
		{name: "zero", winLoss: "0", want: "0"},
		{name: "negative", winLoss: "-5", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winLoss, _ := decimal.NewFromString(tt.winLoss)
			got := CalculateAwardTotal(winLoss)
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("CalculateAwardTotal(%s) = %s, want %s", tt.winLoss, got, want)
			}
		})
	}
}

func TestCalculateAwardTotalLegacy(t *testing.T) {
	tests := []struct {
		name    string
		winLoss string
		want    string
	}{
		{name: "top tier", winLoss: "90000", want: "10800"},
		{name: "mid tier", winLoss: "3000", want: "30"},
		{name: "floor boundary", winLoss: "1000", want: "50"},
		{name: "below floor", winLoss: "999.99", want: "0"},
		{name: "negative", winLoss: "-5", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winLoss, _ := decimal.NewFromString(tt.winLoss)
			got := CalculateAwardTotalLegacy(winLoss)
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("CalculateAwardTotalLegacy(%s) = %s, want %s", tt.winLoss, got, want)
			}
		})
	}
}
