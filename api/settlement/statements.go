package settlement

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"CasinoMassProgram/api"
	"CasinoMassProgram/internal/config"
)

// SettlementStatementSearch lists individual settlement facts filtered by
// representative and an optional joined-date range. A reversed range is
// swapped rather than rejected.
func SettlementStatementSearch(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req settlementStatementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
		}

		var startDate, endDate time.Time
		hasRange := false
		if strings.TrimSpace(req.StartDate) != "" || strings.TrimSpace(req.EndDate) != "" {
			var err error
			startDate, err = ParseDate(req.StartDate)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "Invalid start date")
				return
			}
			endDate, err = ParseDate(req.EndDate)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "Invalid end date")
				return
			}
			startDate, endDate = normalizeDateRange(startDate, endDate)
			hasRange = true
		}

		clauses, args := statementSearchFilters(req, startDate, endDate, hasRange)
		query := `
			SELECT s.id, m.member_code, m.full_name, s.joined_date,
			       s.last_gaming_date, s.eligible, s.casino_win_loss
			FROM award_settlements s
			JOIN members m ON m.id = s.member_id
			JOIN team_representatives tr ON tr.id = s.team_representative_id
			WHERE 1=1` + clauses + `
			ORDER BY s.joined_date DESC, m.member_code`

		rows, err := pool.Query(ctx, query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		results := []settlementStatementRow{}
		for rows.Next() {
			var row settlementStatementRow
			var joined, lastGaming time.Time
			if err := rows.Scan(&row.SettlementID, &row.MemberID, &row.MemberName,
				&joined, &lastGaming, &row.Eligible, &row.CasinoWinLoss); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			row.JoinedDate = joined.Format(config.ReportDateFmt)
			row.LastGamingDate = lastGaming.Format(config.ReportDateFmt)
			results = append(results, row)
		}

		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"rows":    results,
		})
	}
}

// markPaymentFlags derives the projection flags from the payment status.
// Both flags mark settled months: isPayment reports that the month has been
// paid out, isPrintf that its report is printable.
func (row *teamRepresentativeRow) markPaymentFlags() {
	paid := row.Status == string(PaymentPaid)
	row.IsPayment = paid
	row.IsPrintf = paid
}

// normalizeDateRange swaps a reversed range instead of rejecting it.
func normalizeDateRange(start, end time.Time) (time.Time, time.Time) {
	if end.Before(start) {
		return end, start
	}
	return start, end
}

// statementSearchFilters builds the WHERE clauses for the statement search.
// The date range bounds the membership window: joined on or after the start,
// last gaming on or before the end.
func statementSearchFilters(req settlementStatementRequest, startDate, endDate time.Time, hasRange bool) (string, []interface{}) {
	var clauses string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if v := strings.TrimSpace(req.TeamRepresentativeID); v != "" {
		clauses += " AND lower(tr.external_id) = lower(" + arg(v) + ")"
	}
	if v := strings.TrimSpace(req.TeamRepresentativeName); v != "" {
		clauses += " AND tr.name ILIKE " + arg("%"+v+"%")
	}
	if v := strings.TrimSpace(req.ProgramName); v != "" {
		clauses += " AND tr.segment ILIKE " + arg("%"+v+"%")
	}
	if hasRange {
		clauses += " AND s.joined_date >= " + arg(startDate) + " AND s.last_gaming_date <= " + arg(endDate)
	}
	return clauses, args
}

// GetTeamRepresentatives aggregates settlement facts per (month, representative)
// and attaches the latest payment record for each group, so the caller sees one
// row per representative-month with its payment state.
func GetTeamRepresentatives(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req teamRepresentativesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
		}

		if v := strings.TrimSpace(req.Status); v != "" && !PaymentStatus(v).IsValid() {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid payment status filter")
			return
		}

		query := `
			SELECT tr.segment, tr.name, tr.external_id, g.month_start,
			       g.settlement_doc, g.win_loss_total, g.award_total,
			       p.id, p.status, p.award_total, p.updated_by, p.updated_at
			FROM (
				SELECT s.team_representative_id, s.month_start,
				       MAX(s.settlement_doc) AS settlement_doc,
				       SUM(s.casino_win_loss) AS win_loss_total,
				       SUM(s.award_amount) AS award_total
				FROM award_settlements s
				GROUP BY s.team_representative_id, s.month_start
			) g
			JOIN team_representatives tr ON tr.id = g.team_representative_id
			LEFT JOIN LATERAL (
				SELECT id, status, award_total, updated_by, updated_at
				FROM payment_team_representatives
				WHERE team_representative_id = g.team_representative_id
				  AND month_start = g.month_start
				ORDER BY updated_at DESC
				LIMIT 1
			) p ON true
			WHERE 1=1`
		var args []interface{}
		arg := func(v interface{}) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}
		if v := strings.TrimSpace(req.TeamRepresentativeID); v != "" {
			query += " AND lower(tr.external_id) = lower(" + arg(v) + ")"
		}
		if v := strings.TrimSpace(req.TeamRepresentativeName); v != "" {
			query += " AND tr.name ILIKE " + arg("%"+v+"%")
		}
		if v := strings.TrimSpace(req.ProgramName); v != "" {
			query += " AND tr.segment ILIKE " + arg("%"+v+"%")
		}
		if v := strings.TrimSpace(req.Month); v != "" {
			month, err := ParseMonth(v)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "Invalid month")
				return
			}
			query += " AND g.month_start = " + arg(month)
		}
		if v := strings.TrimSpace(req.Status); v != "" {
			query += " AND COALESCE(p.status, 'Pending') = " + arg(v)
		}
		query += " ORDER BY g.month_start DESC, tr.name ASC"

		rows, err := pool.Query(ctx, query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		results := []teamRepresentativeRow{}
		for rows.Next() {
			var row teamRepresentativeRow
			var monthStart time.Time
			var paymentID *uuid.UUID
			var paymentStatus, updatedBy *string
			var paymentAward *decimal.Decimal
			var updatedAt *time.Time
			if err := rows.Scan(&row.Segment, &row.TeamRepresentativeName, &row.TeamRepresentativeID,
				&monthStart, &row.SettlementDoc, &row.CasinoWinLoss, &row.AwardTotal,
				&paymentID, &paymentStatus, &paymentAward, &updatedBy, &updatedAt); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}

			row.ProgramName = row.Segment
			row.Month = monthStart.Format(config.MonthFormat)
			// A representative-month with no payment record yet is Pending.
			row.Status = string(PaymentPending)
			if paymentID != nil {
				row.PaymentTeamRepresentativesID = *paymentID
				row.Status = *paymentStatus
				row.AwardTotal = *paymentAward
				if updatedBy != nil {
					row.PaymentBy = *updatedBy
				}
				if updatedAt != nil {
					row.PaymentDate = updatedAt.Format(config.DateTimeFormat)
				}
			}
			row.markPaymentFlags()
			results = append(results, row)
		}

		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":             true,
			"teamRepresentatives": results,
		})
	}
}
