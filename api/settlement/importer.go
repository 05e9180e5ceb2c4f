package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"CasinoMassProgram/api"
	"CasinoMassProgram/internal/config"
	"CasinoMassProgram/internal/logger"
)

// ImportAndValidate accepts a multipart spreadsheet upload, validates every
// row and persists the whole batch (rows, cell errors, original bytes) in one
// transaction. The upload succeeds whenever the file itself is readable;
// per-cell findings come back as data, not as an error.
func ImportAndValidate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to parse form data")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Missing uploaded file")
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}

		_, rows, err := parseWorkbook(content, header.Filename)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		summary := ImportSummary{
			BatchID:    uuid.New(),
			FileName:   header.Filename,
			UploadedAt: time.Now().UTC(),
			Status:     string(BatchValidated),
		}

		type validatedRow struct {
			id      uuid.UUID
			number  int
			isValid bool
			raw     []byte
			errors  []CellError
		}
		var validated []validatedRow

		for _, row := range rows {
			summary.TotalRows++
			errs := ValidateRow(row.Data)
			raw, mErr := json.Marshal(row.Data)
			if mErr != nil {
				api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to serialize row %d: %v", row.Number, mErr))
				return
			}
			vr := validatedRow{
				id:      uuid.New(),
				number:  row.Number,
				isValid: len(errs) == 0,
				raw:     raw,
				errors:  errs,
			}
			if vr.isValid {
				summary.ValidRows++
			} else {
				summary.InvalidRows++
				if len(summary.SampleErrors) < config.SampleErrorRows {
					summary.SampleErrors = append(summary.SampleErrors, RowError{RowNumber: row.Number, Errors: errs})
				}
			}
			validated = append(validated, vr)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start transaction: %v", err))
			return
		}
		defer func() {
			if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
				api.LogError("rollback failed: %v", err)
			}
		}()

		_, err = tx.Exec(ctx, `
			INSERT INTO import_batches
			(id, file_name, uploaded_at, status, total_rows, valid_rows, invalid_rows, file_content)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			summary.BatchID, summary.FileName, summary.UploadedAt, summary.Status,
			summary.TotalRows, summary.ValidRows, summary.InvalidRows, content)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create batch: %v", err))
			return
		}

		rowBatch := &pgx.Batch{}
		errBatch := &pgx.Batch{}
		for _, vr := range validated {
			rowBatch.Queue(`
				INSERT INTO import_rows (id, batch_id, row_number, is_valid, raw_data)
				VALUES ($1, $2, $3, $4, $5)`,
				vr.id, summary.BatchID, vr.number, vr.isValid, vr.raw)
			for _, ce := range vr.errors {
				errBatch.Queue(`
					INSERT INTO import_cell_errors (id, row_id, column_name, message)
					VALUES ($1, $2, $3, $4)`,
					uuid.New(), vr.id, ce.Column, ce.Message)
			}
		}
		if err := sendBatch(ctx, tx, rowBatch); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to insert rows: %v", err))
			return
		}
		if err := sendBatch(ctx, tx, errBatch); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to insert cell errors: %v", err))
			return
		}

		if err := tx.Commit(ctx); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to commit transaction: %v", err))
			return
		}

		logger.Audit("imported batch %s (%s): %d rows, %d valid, %d invalid",
			summary.BatchID, summary.FileName, summary.TotalRows, summary.ValidRows, summary.InvalidRows)
		api.RespondWithJSON(w, http.StatusOK, summary)
	}
}

// sendBatch runs a pgx batch inside the transaction and surfaces the first error.
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return nil
}

func loadSummary(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) (*ImportSummary, error) {
	s := &ImportSummary{}
	err := pool.QueryRow(ctx, `
		SELECT id, file_name, uploaded_at, status, total_rows, valid_rows, invalid_rows
		FROM import_batches WHERE id = $1`, batchID).
		Scan(&s.BatchID, &s.FileName, &s.UploadedAt, &s.Status,
			&s.TotalRows, &s.ValidRows, &s.InvalidRows)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetBatchSummary is the read-only summary projection including every invalid
// row with its errors.
func GetBatchSummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		batchID, err := uuid.Parse(mux.Vars(r)["batchId"])
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid batch id")
			return
		}

		summary, err := loadSummary(ctx, pool, batchID)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, "Batch not found")
			return
		}

		rows, err := pool.Query(ctx, `
			SELECT ir.row_number, ce.column_name, ce.message
			FROM import_rows ir
			JOIN import_cell_errors ce ON ce.row_id = ir.id
			WHERE ir.batch_id = $1 AND NOT ir.is_valid
			ORDER BY ir.row_number`, batchID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		byRow := map[int]*RowError{}
		var order []int
		for rows.Next() {
			var rowNumber int
			var ce CellError
			if err := rows.Scan(&rowNumber, &ce.Column, &ce.Message); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			re, ok := byRow[rowNumber]
			if !ok {
				re = &RowError{RowNumber: rowNumber}
				byRow[rowNumber] = re
				order = append(order, rowNumber)
			}
			re.Errors = append(re.Errors, ce)
		}
		for _, n := range order {
			summary.SampleErrors = append(summary.SampleErrors, *byRow[n])
		}

		api.RespondWithJSON(w, http.StatusOK, summary)
	}
}

type batchDetailsRequest struct {
	BatchID  uuid.UUID `json:"batchId"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// GetBatchDetails returns per-row parsed data and errors. When page or
// pageSize is set the projection is restricted to one page ordered by row
// number, with paging metadata.
func GetBatchDetails(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req batchDetailsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
		}

		summary, err := loadSummary(ctx, pool, req.BatchID)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, "Batch not found")
			return
		}
		details := &ImportDetails{ImportSummary: *summary}

		paged := req.Page != 0 || req.PageSize != 0
		query := `
			SELECT id, row_number, is_valid, raw_data
			FROM import_rows WHERE batch_id = $1
			ORDER BY row_number`
		args := []interface{}{req.BatchID}
		if paged {
			page := clampPage(req.Page)
			pageSize := clampPageSize(req.PageSize)
			details.Page = page
			details.PageSize = pageSize
			details.TotalPages = totalPages(summary.TotalRows, pageSize)
			details.HasPrevious = page > 1
			details.HasNext = page < details.TotalPages
			query += ` LIMIT $2 OFFSET $3`
			args = append(args, pageSize, (page-1)*pageSize)
		}

		rows, err := pool.Query(ctx, query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		rowIDs := map[uuid.UUID]int{}
		var seenHeaders []string
		seenSet := map[string]bool{}
		for rows.Next() {
			var id uuid.UUID
			var rd RowDetails
			var raw []byte
			if err := rows.Scan(&id, &rd.RowNumber, &rd.IsValid, &raw); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			rd.Errors = []CellError{}
			data, dErr := decodeRowData(raw)
			if dErr != nil {
				api.LogError("batch %s row %d carries unreadable data: %v", req.BatchID, rd.RowNumber, dErr)
			}
			rd.Data = data
			for k := range rd.Data {
				if !seenSet[k] {
					seenSet[k] = true
					seenHeaders = append(seenHeaders, k)
				}
			}
			rowIDs[id] = len(details.Rows)
			details.Rows = append(details.Rows, rd)
		}

		// Attach cell errors for the selected rows.
		if len(rowIDs) > 0 {
			ids := make([]uuid.UUID, 0, len(rowIDs))
			for id := range rowIDs {
				ids = append(ids, id)
			}
			errRows, err := pool.Query(ctx, `
				SELECT row_id, column_name, message
				FROM import_cell_errors WHERE row_id = ANY($1)`, ids)
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			defer errRows.Close()
			for errRows.Next() {
				var rowID uuid.UUID
				var ce CellError
				if err := errRows.Scan(&rowID, &ce.Column, &ce.Message); err != nil {
					api.RespondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				if idx, ok := rowIDs[rowID]; ok {
					details.Rows[idx].Errors = append(details.Rows[idx].Errors, ce)
				}
			}
		}

		// Required headers always show, joined by whatever the rows carry.
		seen := append(append([]string{}, requiredHeaders...), seenHeaders...)
		details.Headers = buildHeaders(seen)

		api.RespondWithJSON(w, http.StatusOK, details)
	}
}

// ListBatches returns every stored batch without file contents.
func ListBatches(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := pool.Query(r.Context(), `
			SELECT id, file_name, uploaded_at, status, total_rows, valid_rows, invalid_rows
			FROM import_batches ORDER BY uploaded_at DESC`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		batches := []ImportSummary{}
		for rows.Next() {
			var s ImportSummary
			if err := rows.Scan(&s.BatchID, &s.FileName, &s.UploadedAt, &s.Status,
				&s.TotalRows, &s.ValidRows, &s.InvalidRows); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			batches = append(batches, s)
		}
		api.RespondWithJSON(w, http.StatusOK, batches)
	}
}

// decodeRowData restores the header-keyed cell map stored with a row. The
// map is always usable; the error reports stored bytes that no longer parse.
func decodeRowData(raw []byte) (map[string]string, error) {
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]string{}, err
	}
	return data, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampPageSize(size int) int {
	if size == 0 {
		return config.DefaultPageSize
	}
	if size < config.MinPageSize {
		return config.MinPageSize
	}
	if size > config.MaxPageSize {
		return config.MaxPageSize
	}
	return size
}

func totalPages(totalRows, pageSize int) int {
	if totalRows == 0 {
		return 0
	}
	return (totalRows + pageSize - 1) / pageSize
}
