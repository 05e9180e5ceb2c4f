package settlement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Spreadsheet cells arrive as display strings in whatever shape the upstream
// casino sheets use: day-first or month-first dates, raw Excel date serials,
// accounting-style negatives. The parsers below accept all observed shapes
// and fail only when nothing matches.

var explicitDateFormats = []string{
	"02/01/2006", "2/1/2006", "01/02/2006", "1/2/2006",
}

var fallbackDateFormats = []string{
	"2006-01-02", "2006-01-02 15:04:05", "2006/01/02", time.RFC3339,
}

// excelEpoch is day zero of the 1900 date system (serial 2 = 1900-01-01).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a cell into a calendar date. Empty defaults to today.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	for _, layout := range explicitDateFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}

	// Excel date serial; the fractional (time-of-day) part is ignored.
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}

	for _, layout := range fallbackDateFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

var (
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	monthYearRe = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
)

// ParseMonth parses a cell into the first day of its month. Accepted forms:
// any full date, YYYY-M, YYYY-MM, or M/YYYY with month 1-12.
func ParseMonth(value string) (time.Time, error) {
	v := strings.TrimSpace(value)

	if m := yearMonthRe.FindStringSubmatch(v); m != nil {
		return monthStart(m[1], m[2])
	}
	if m := monthYearRe.FindStringSubmatch(v); m != nil {
		return monthStart(m[2], m[1])
	}
	if v != "" {
		if t, err := ParseDate(v); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized month %q", value)
}

func monthStart(year, month string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	if mo < 1 || mo > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", mo)
	}
	return time.Date(y, time.Month(mo), 1, 0, 0, 0, 0, time.UTC), nil
}

// ParseYesNo parses an eligibility flag. Empty defaults to No.
func ParseYesNo(value string) (bool, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch v {
	case "":
		return false, nil
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	return false, fmt.Errorf("expected Y or N, got %q", value)
}

var moneyJunkRe = regexp.MustCompile(`[^\d.\-]`)

// ParseMoney parses an amount cell. Parenthesized values are accounting
// negatives; thousands separators and currency symbols are stripped; a lone
// "-" parses as zero; empty fails.
func ParseMoney(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")")
	v = strings.Trim(v, "()")
	v = moneyJunkRe.ReplaceAllString(v, "")

	if v == "-" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// Commission breakpoints. Product has two historical variants of the bottom
// tier (see CalculateAwardTotalLegacy); the breakpoints are named so flipping
// is a one-constant change once clarified.
var (
	awardTopBreak    = decimal.NewFromInt(90000)
	awardMidBreak    = decimal.NewFromInt(3000)
	awardLegacyFloor = decimal.NewFromInt(1000)

	awardTopRate = decimal.NewFromFloat(0.12)
	awardMidRate = decimal.NewFromFloat(0.01)
	awardLowRate = decimal.NewFromFloat(0.05)
)

// CalculateAwardTotal applies the tiered commission formula:
// winLoss >= 90000 -> 12%; >= 3000 -> 1%; <= 0 -> 0; otherwise 5%.
func CalculateAwardTotal(winLoss decimal.Decimal) decimal.Decimal {
	switch {
	case winLoss.GreaterThanOrEqual(awardTopBreak):
		return winLoss.Mul(awardTopRate)
	case winLoss.GreaterThanOrEqual(awardMidBreak):
		return winLoss.Mul(awardMidRate)
	case winLoss.LessThanOrEqual(decimal.Zero):
		return decimal.Zero
	default:
		return winLoss.Mul(awardLowRate)
	}
}

// CalculateAwardTotalLegacy is the variant with a 1000 floor on the bottom
// tier instead of the <=0 cutoff. Kept until product settles the discrepancy.
func CalculateAwardTotalLegacy(winLoss decimal.Decimal) decimal.Decimal {
	switch {
	case winLoss.GreaterThanOrEqual(awardTopBreak):
		return winLoss.Mul(awardTopRate)
	case winLoss.GreaterThanOrEqual(awardMidBreak):
		return winLoss.Mul(awardMidRate)
	case winLoss.GreaterThanOrEqual(awardLegacyFloor):
		return winLoss.Mul(awardLowRate)
	default:
		return decimal.Zero
	}
}
