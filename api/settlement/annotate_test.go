package settlement

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestAnnotateWorkbook(t *testing.T) {
	content := buildWorkbook(t, [][]interface{}{
		headerRowValues(),
		{"Premium", "Alex Tan", "TR-001", "junk", "DOC-1001", "1",
			"M-100", "Jordan Lee", "", "", "Y", "100", "5"},
	})

	annotated, err := annotateWorkbook(content, map[int][]CellError{
		2: {
			{Column: colMonth, Message: msgInvalidMonth},
			{Column: colWinLoss, Message: msgInvalidNumber},
		},
	})
	if err != nil {
		t.Fatalf("annotateWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(annotated))
	if err != nil {
		t.Fatalf("reopen annotated workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetList()[0]

	errorsCol := len(preferredHeaderOrder) + 1
	headerCell, _ := excelize.CoordinatesToCellName(errorsCol, 1)
	if v, _ := f.GetCellValue(sheet, headerCell); v != "__Errors" {
		t.Errorf("header cell = %q, want __Errors", v)
	}

	msgCell, _ := excelize.CoordinatesToCellName(errorsCol, 2)
	msg, _ := f.GetCellValue(sheet, msgCell)
	if !strings.Contains(msg, colMonth+": "+msgInvalidMonth) {
		t.Errorf("message %q missing month error", msg)
	}
	if !strings.Contains(msg, colWinLoss+": "+msgInvalidNumber) {
		t.Errorf("message %q missing amount error", msg)
	}

	// The implicated month cell carries the highlight style.
	monthCol := 0
	for i, h := range preferredHeaderOrder {
		if h == colMonth {
			monthCol = i + 1
		}
	}
	monthCell, _ := excelize.CoordinatesToCellName(monthCol, 2)
	styleID, err := f.GetCellStyle(sheet, monthCell)
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	if styleID == 0 {
		t.Error("month cell should carry a highlight style")
	}
}
