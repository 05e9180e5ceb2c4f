package settlement

import (
	"strconv"
	"strings"
)

// Column names as they appear in the settlement sheets.
const (
	colSegment        = "SEGMENT"
	colRepresentative = "Team Representative"
	colRepID          = "ID"
	colMonth          = "Month"
	colSettlementDoc  = "Settlement Doc"
	colSeqNo          = "No"
	colMemberID       = "Member ID"
	colMemberName     = "Member name"
	colJoinedDate     = "Joined date"
	colLastGaming     = "Last gaming date"
	colEligible       = "Eligible (Y/N)"
	colWinLoss        = "Casino win/(loss)"
	colAward          = "Award settlement"
)

// requiredHeaders must all be present, both in the sheet header row and in
// every data row. The date/eligibility columns are optional (they default).
var requiredHeaders = []string{
	colSegment,
	colRepresentative,
	colRepID,
	colMonth,
	colSettlementDoc,
	colSeqNo,
	colMemberID,
	colMemberName,
	colWinLoss,
	colAward,
}

// preferredHeaderOrder drives the display ordering of detail projections and
// annotated exports; headers outside this list are appended afterwards.
var preferredHeaderOrder = []string{
	colSegment,
	colRepresentative,
	colRepID,
	colMonth,
	colSettlementDoc,
	colSeqNo,
	colMemberID,
	colMemberName,
	colJoinedDate,
	colLastGaming,
	colEligible,
	colWinLoss,
	colAward,
}

const (
	msgRequired       = "Required"
	msgInvalidMonth   = "Invalid month"
	msgInvalidInteger = "Invalid integer"
	msgInvalidDate    = "Invalid date"
	msgInvalidYesNo   = "Must be Y or N"
	msgInvalidNumber  = "Invalid number"
)

// cellValue looks a column up case-insensitively and returns its trimmed value.
func cellValue(data map[string]string, column string) string {
	if v, ok := data[column]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range data {
		if strings.EqualFold(k, column) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ValidateRow checks one header-keyed row. Missing required columns
// short-circuit: only "Required" errors come back and no typed checks run.
// Duplicate representative IDs across rows are allowed; rows group under
// approval.
func ValidateRow(data map[string]string) []CellError {
	var errors []CellError

	for _, col := range requiredHeaders {
		if cellValue(data, col) == "" {
			errors = append(errors, CellError{Column: col, Message: msgRequired})
		}
	}
	if len(errors) > 0 {
		return errors
	}

	if _, err := ParseMonth(cellValue(data, colMonth)); err != nil {
		errors = append(errors, CellError{Column: colMonth, Message: msgInvalidMonth})
	}
	if _, err := strconv.Atoi(cellValue(data, colSeqNo)); err != nil {
		errors = append(errors, CellError{Column: colSeqNo, Message: msgInvalidInteger})
	}
	if _, err := ParseDate(cellValue(data, colJoinedDate)); err != nil {
		errors = append(errors, CellError{Column: colJoinedDate, Message: msgInvalidDate})
	}
	if _, err := ParseDate(cellValue(data, colLastGaming)); err != nil {
		errors = append(errors, CellError{Column: colLastGaming, Message: msgInvalidDate})
	}
	if _, err := ParseYesNo(cellValue(data, colEligible)); err != nil {
		errors = append(errors, CellError{Column: colEligible, Message: msgInvalidYesNo})
	}
	if _, err := ParseMoney(cellValue(data, colWinLoss)); err != nil {
		errors = append(errors, CellError{Column: colWinLoss, Message: msgInvalidNumber})
	}
	if _, err := ParseMoney(cellValue(data, colAward)); err != nil {
		errors = append(errors, CellError{Column: colAward, Message: msgInvalidNumber})
	}

	return errors
}

// buildHeaders orders seen headers by display preference, then extras in the
// order first encountered.
func buildHeaders(seen []string) []string {
	var headers []string
	for _, h := range preferredHeaderOrder {
		for _, s := range seen {
			if strings.EqualFold(h, s) {
				headers = append(headers, h)
				break
			}
		}
	}
	for _, s := range seen {
		found := false
		for _, h := range headers {
			if strings.EqualFold(h, s) {
				found = true
				break
			}
		}
		if !found {
			headers = append(headers, s)
		}
	}
	return headers
}
