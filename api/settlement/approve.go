package settlement

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"CasinoMassProgram/api"
	"CasinoMassProgram/internal/logger"
)

type approveRequest struct {
	BatchID uuid.UUID `json:"batchId"`
}

type approveResponse struct {
	Representatives     int `json:"representatives"`
	Members             int `json:"members"`
	Links               int `json:"links"`
	SettlementsInserted int `json:"settlementsInserted"`
}

type repRecord struct {
	ID         uuid.UUID
	ExternalID string
	Name       string
	Segment    string
	isNew      bool
	changed    bool
}

type memberRecord struct {
	ID       uuid.UUID
	Code     string
	FullName string
	isNew    bool
	changed  bool
}

// ApprovedImport promotes every valid row of a Validated batch into domain
// records: representatives and members are upserted by natural key with
// fill-blank-only semantics, representative-member links are deduplicated,
// and one settlement fact is inserted per row with the month normalized to
// day 1. Everything commits in a single transaction, batch status included.
func ApprovedImport(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req approveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
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

		var status string
		err = tx.QueryRow(ctx, `SELECT status FROM import_batches WHERE id = $1 FOR UPDATE`, req.BatchID).Scan(&status)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, "Batch not found")
			return
		}
		if strings.EqualFold(status, string(BatchApproved)) {
			api.RespondWithError(w, http.StatusConflict, "This batch has already been 'Approved'.")
			return
		}
		if !strings.EqualFold(status, string(BatchValidated)) {
			api.RespondWithError(w, http.StatusConflict, "Batch must be in 'Validated' status.")
			return
		}

		// Preload existing representatives and members so upserts resolve
		// in memory without per-row round-trips.
		reps := map[string]*repRecord{}
		repRows, err := tx.Query(ctx, `SELECT id, external_id, name, segment FROM team_representatives`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for repRows.Next() {
			rec := &repRecord{}
			if err := repRows.Scan(&rec.ID, &rec.ExternalID, &rec.Name, &rec.Segment); err != nil {
				repRows.Close()
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			reps[strings.ToLower(rec.ExternalID)] = rec
		}
		repRows.Close()

		members := map[string]*memberRecord{}
		memRows, err := tx.Query(ctx, `SELECT id, member_code, full_name FROM members`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for memRows.Next() {
			rec := &memberRecord{}
			if err := memRows.Scan(&rec.ID, &rec.Code, &rec.FullName); err != nil {
				memRows.Close()
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			members[strings.ToLower(rec.Code)] = rec
		}
		memRows.Close()

		dataRows, err := tx.Query(ctx, `
			SELECT raw_data FROM import_rows
			WHERE batch_id = $1 AND is_valid
			ORDER BY row_number`, req.BatchID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var rawRows []map[string]string
		for dataRows.Next() {
			var raw []byte
			if err := dataRows.Scan(&raw); err != nil {
				dataRows.Close()
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			data := map[string]string{}
			if err := json.Unmarshal(raw, &data); err != nil {
				continue
			}
			rawRows = append(rawRows, data)
		}
		dataRows.Close()

		type fact struct {
			repID          uuid.UUID
			memberID       uuid.UUID
			monthStart     time.Time
			settlementDoc  string
			seqNo          int
			joinedDate     time.Time
			lastGamingDate time.Time
			eligible       bool
			winLoss        decimal.Decimal
			award          decimal.Decimal
		}
		var facts []fact
		type linkKey struct{ rep, member uuid.UUID }
		links := map[linkKey]bool{}

		for _, data := range rawRows {
			// Defensive re-parse: a row failing here is skipped, never fatal.
			month, err := ParseMonth(cellValue(data, colMonth))
			if err != nil {
				continue
			}
			joined, err := ParseDate(cellValue(data, colJoinedDate))
			if err != nil {
				continue
			}
			lastGaming, err := ParseDate(cellValue(data, colLastGaming))
			if err != nil {
				continue
			}
			eligible, err := ParseYesNo(cellValue(data, colEligible))
			if err != nil {
				continue
			}
			winLoss, err := ParseMoney(cellValue(data, colWinLoss))
			if err != nil {
				continue
			}
			award, err := ParseMoney(cellValue(data, colAward))
			if err != nil {
				continue
			}
			seqNo, err := strconv.Atoi(cellValue(data, colSeqNo))
			if err != nil {
				continue
			}

			externalID := cellValue(data, colRepID)
			rep, ok := reps[strings.ToLower(externalID)]
			if !ok {
				rep = &repRecord{
					ID:         uuid.New(),
					ExternalID: externalID,
					Name:       cellValue(data, colRepresentative),
					Segment:    cellValue(data, colSegment),
					isNew:      true,
				}
				reps[strings.ToLower(externalID)] = rep
			} else {
				// Existing values win; only blanks are filled.
				if strings.TrimSpace(rep.Name) == "" {
					rep.Name = cellValue(data, colRepresentative)
					rep.changed = true
				}
				if strings.TrimSpace(rep.Segment) == "" {
					rep.Segment = cellValue(data, colSegment)
					rep.changed = true
				}
			}

			code := cellValue(data, colMemberID)
			member, ok := members[strings.ToLower(code)]
			if !ok {
				member = &memberRecord{
					ID:       uuid.New(),
					Code:     code,
					FullName: cellValue(data, colMemberName),
					isNew:    true,
				}
				members[strings.ToLower(code)] = member
			} else if strings.TrimSpace(member.FullName) == "" {
				member.FullName = cellValue(data, colMemberName)
				member.changed = true
			}

			links[linkKey{rep.ID, member.ID}] = true

			facts = append(facts, fact{
				repID:          rep.ID,
				memberID:       member.ID,
				monthStart:     time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC),
				settlementDoc:  cellValue(data, colSettlementDoc),
				seqNo:          seqNo,
				joinedDate:     joined,
				lastGamingDate: lastGaming,
				eligible:       eligible,
				winLoss:        winLoss,
				award:          award,
			})
		}

		batch := &pgx.Batch{}
		for _, rep := range reps {
			if rep.isNew {
				batch.Queue(`
					INSERT INTO team_representatives (id, external_id, name, segment)
					VALUES ($1, $2, $3, $4)`,
					rep.ID, rep.ExternalID, rep.Name, rep.Segment)
			} else if rep.changed {
				batch.Queue(`
					UPDATE team_representatives SET name = $2, segment = $3 WHERE id = $1`,
					rep.ID, rep.Name, rep.Segment)
			}
		}
		for _, member := range members {
			if member.isNew {
				batch.Queue(`
					INSERT INTO members (id, member_code, full_name)
					VALUES ($1, $2, $3)`,
					member.ID, member.Code, member.FullName)
			} else if member.changed {
				batch.Queue(`
					UPDATE members SET full_name = $2 WHERE id = $1`,
					member.ID, member.FullName)
			}
		}
		for link := range links {
			batch.Queue(`
				INSERT INTO team_representative_members (team_representative_id, member_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				link.rep, link.member)
		}
		for _, f := range facts {
			batch.Queue(`
				INSERT INTO award_settlements
				(id, team_representative_id, member_id, month_start, settlement_doc,
				 seq_no, joined_date, last_gaming_date, eligible, casino_win_loss, award_amount)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				uuid.New(), f.repID, f.memberID, f.monthStart, f.settlementDoc,
				f.seqNo, f.joinedDate, f.lastGamingDate, f.eligible, f.winLoss, f.award)
		}
		batch.Queue(`UPDATE import_batches SET status = $2 WHERE id = $1`, req.BatchID, string(BatchApproved))

		if err := sendBatch(ctx, tx, batch); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to approve batch: %v", err))
			return
		}
		if err := tx.Commit(ctx); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to commit transaction: %v", err))
			return
		}

		logger.Audit("approved batch %s: %d settlement facts, %d links", req.BatchID, len(facts), len(links))
		api.RespondWithJSON(w, http.StatusOK, approveResponse{
			Representatives:     len(reps),
			Members:             len(members),
			Links:               len(links),
			SettlementsInserted: len(facts),
		})
	}
}
