package settlement

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// sheetRow is one non-empty data row, keyed by header name, with its 1-based
// position in the source sheet.
type sheetRow struct {
	Number int
	Data   map[string]string
}

// parseWorkbook reads the first worksheet of an uploaded workbook into
// header-keyed string rows. Cell values are the formatted display strings,
// trimmed. Both .xlsx (excelize) and legacy .xls (extrame/xls) are supported.
func parseWorkbook(content []byte, fileName string) ([]string, []sheetRow, error) {
	var grid [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(fileName), ".xls") {
		grid, err = readXLSGrid(content)
	} else {
		grid, err = readXLSXGrid(content)
	}
	if err != nil {
		return nil, nil, err
	}

	// First used row is the header row.
	headerIdx := -1
	for i, row := range grid {
		if !rowIsEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil, fmt.Errorf("workbook has no used rows")
	}

	var headers []string
	for _, h := range grid[headerIdx] {
		headers = append(headers, strings.TrimSpace(h))
	}

	if missing := missingRequiredHeaders(headers); len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var rows []sheetRow
	for i := headerIdx + 1; i < len(grid); i++ {
		if rowIsEmpty(grid[i]) {
			continue
		}
		data := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(grid[i]) {
				data[h] = strings.TrimSpace(grid[i][j])
			} else {
				data[h] = ""
			}
		}
		rows = append(rows, sheetRow{Number: i + 1, Data: data})
	}

	return headers, rows, nil
}

func readXLSXGrid(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func readXLSGrid(content []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("legacy workbook has no sheets")
	}

	var grid [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		var cells []string
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func rowIsEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// missingRequiredHeaders compares case-insensitively and returns every
// required header the sheet lacks, so the caller can fail with one message.
func missingRequiredHeaders(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}
	var missing []string
	for _, h := range requiredHeaders {
		if !present[strings.ToLower(h)] {
			missing = append(missing, h)
		}
	}
	return missing
}
