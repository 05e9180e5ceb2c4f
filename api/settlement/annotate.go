package settlement

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"

	"CasinoMassProgram/api"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadAnnotated re-opens the batch's stored workbook bytes, highlights
// every cell implicated by a recorded error, writes a consolidated __Errors
// column and streams the regenerated workbook back.
func DownloadAnnotated(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		batchID, err := uuid.Parse(mux.Vars(r)["batchId"])
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid batch id")
			return
		}

		var fileName string
		var content []byte
		err = pool.QueryRow(ctx, `
			SELECT file_name, file_content FROM import_batches WHERE id = $1`, batchID).
			Scan(&fileName, &content)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, "Batch not found")
			return
		}
		if len(content) == 0 {
			api.RespondWithError(w, http.StatusNotFound, "Original file content is not available")
			return
		}
		if strings.HasSuffix(strings.ToLower(fileName), ".xls") {
			api.RespondWithError(w, http.StatusBadRequest, "Annotated export is only available for .xlsx uploads")
			return
		}

		errRows, err := pool.Query(ctx, `
			SELECT ir.row_number, ce.column_name, ce.message
			FROM import_rows ir
			JOIN import_cell_errors ce ON ce.row_id = ir.id
			WHERE ir.batch_id = $1 AND NOT ir.is_valid
			ORDER BY ir.row_number`, batchID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer errRows.Close()

		errorMap := map[int][]CellError{}
		for errRows.Next() {
			var rowNumber int
			var ce CellError
			if err := errRows.Scan(&rowNumber, &ce.Column, &ce.Message); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			errorMap[rowNumber] = append(errorMap[rowNumber], ce)
		}

		annotated, err := annotateWorkbook(content, errorMap)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		api.RespondWithFile(w, base+"_annotated.xlsx", xlsxContentType, annotated)
	}
}

func annotateWorkbook(content []byte, errorMap map[int][]CellError) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open stored workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("stored workbook has no sheets")
	}
	sheet := sheets[0]

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored workbook: %w", err)
	}

	headerIdx := -1
	for i, row := range grid {
		if !rowIsEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("stored workbook has no used rows")
	}

	// Column lookup by header name, 1-based.
	headerCols := map[string]int{}
	lastCol := 0
	for j, h := range grid[headerIdx] {
		name := strings.TrimSpace(h)
		if name != "" {
			headerCols[strings.ToLower(name)] = j + 1
		}
		if j+1 > lastCol {
			lastCol = j + 1
		}
	}
	errorsCol := lastCol + 1

	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFFF00"}, Pattern: 1},
		Font: &excelize.Font{Color: "000000"},
	})
	if err != nil {
		return nil, err
	}

	headerCell, _ := excelize.CoordinatesToCellName(errorsCol, headerIdx+1)
	f.SetCellValue(sheet, headerCell, "__Errors")

	for rowNumber, cellErrors := range errorMap {
		var messages []string
		for _, ce := range cellErrors {
			messages = append(messages, fmt.Sprintf("%s: %s", ce.Column, ce.Message))
			if col, ok := headerCols[strings.ToLower(ce.Column)]; ok {
				cell, _ := excelize.CoordinatesToCellName(col, rowNumber)
				f.SetCellStyle(sheet, cell, cell, highlight)
			}
		}
		errCell, _ := excelize.CoordinatesToCellName(errorsCol, rowNumber)
		f.SetCellValue(sheet, errCell, strings.Join(messages, " | "))
		f.SetCellStyle(sheet, errCell, errCell, highlight)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write annotated workbook: %w", err)
	}
	return buf.Bytes(), nil
}
