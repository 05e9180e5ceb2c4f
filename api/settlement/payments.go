package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"CasinoMassProgram/api"
	"CasinoMassProgram/api/auth"
	"CasinoMassProgram/internal/logger"
)

type paymentRecord struct {
	ID         uuid.UUID
	RepID      uuid.UUID
	MonthStart time.Time
	AwardTotal decimal.Decimal
	Status     PaymentStatus
}

// Pay drives a payment to Paid through the Inprocess gateway. The Inprocess
// mark is committed on its own before the final state is written, so a crash
// between the two writes leaves a visible Inprocess record for the sweeper
// instead of silently losing the attempt.
func Pay(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req paymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		actingUser := auth.ActingUser(r)

		var rec *paymentRecord
		if req.PaymentTeamRepresentativesID != uuid.Nil {
			loaded, err := loadPayment(ctx, pool, req.PaymentTeamRepresentativesID)
			if err != nil {
				api.RespondWithError(w, http.StatusNotFound, "Payment record not found")
				return
			}
			rec = loaded
		} else {
			repKey := req.TeamRepresentativeID
			if strings.TrimSpace(repKey) == "" {
				repKey = req.TeamRepresentativeName
			}
			if strings.TrimSpace(repKey) == "" {
				api.RespondWithError(w, http.StatusBadRequest, "teamRepresentativeId or teamRepresentativeName is required")
				return
			}
			repID, _, _, err := resolveRepresentative(ctx, pool, repKey)
			if err != nil {
				api.RespondWithError(w, http.StatusNotFound, err.Error())
				return
			}
			monthStart, err := ParseMonth(req.Month)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "Invalid month")
				return
			}
			rec, err = findOrCreatePayment(ctx, pool, repID, monthStart, actingUser)
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		if rec.Status == PaymentPaid {
			api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
				"isPayment":                    false,
				"paymentTeamRepresentativesId": rec.ID,
			})
			return
		}
		if !rec.Status.CanStartPayment() {
			api.RespondWithError(w, http.StatusConflict,
				"Payment cannot be started from status '"+string(rec.Status)+"'.")
			return
		}

		// First commit: claim the record.
		if err := setPaymentStatus(ctx, pool, rec.ID, rec.Status, PaymentInprocess, actingUser); err != nil {
			api.RespondWithError(w, http.StatusConflict, "Payment is already being processed")
			return
		}

		// Second commit: finalize. A failure here leaves a Failed record
		// rather than rolling the claim back.
		if err := setPaymentStatus(ctx, pool, rec.ID, PaymentInprocess, PaymentPaid, actingUser); err != nil {
			markFailed(ctx, pool, rec.ID, actingUser)
			api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
				"isPayment":                    false,
				"paymentTeamRepresentativesId": rec.ID,
			})
			return
		}

		logger.Audit("payment %s marked Paid by %s", rec.ID, actingUser)
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"isPayment":                    true,
			"paymentTeamRepresentativesId": rec.ID,
		})
	}
}

// Unpay reverses a Paid record to Voided, again through Inprocess.
func Unpay(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req unPaidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		actingUser := auth.ActingUser(r)

		rec, err := loadPayment(ctx, pool, req.PaymentTeamRepresentativesID)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, "Payment record not found")
			return
		}
		if !rec.Status.CanUnpay() {
			api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"isUnPaid": false})
			return
		}

		if err := setPaymentStatus(ctx, pool, rec.ID, PaymentPaid, PaymentInprocess, actingUser); err != nil {
			api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"isUnPaid": false})
			return
		}
		if err := setPaymentStatus(ctx, pool, rec.ID, PaymentInprocess, PaymentVoided, actingUser); err != nil {
			markFailed(ctx, pool, rec.ID, actingUser)
			api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"isUnPaid": false})
			return
		}

		logger.Audit("payment %s voided by %s", rec.ID, actingUser)
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"isUnPaid": true})
	}
}

func loadPayment(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*paymentRecord, error) {
	rec := &paymentRecord{}
	err := pool.QueryRow(ctx, `
		SELECT id, team_representative_id, month_start, award_total, status
		FROM payment_team_representatives WHERE id = $1`, id).
		Scan(&rec.ID, &rec.RepID, &rec.MonthStart, &rec.AwardTotal, &rec.Status)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// findOrCreatePayment returns the live record for a representative-month, or
// inserts a fresh Pending one with the award computed from the month's facts.
// A reusable Voided record keeps its original award total.
func findOrCreatePayment(ctx context.Context, pool *pgxpool.Pool, repID uuid.UUID, monthStart time.Time, actingUser string) (*paymentRecord, error) {
	rec := &paymentRecord{}
	err := pool.QueryRow(ctx, `
		SELECT id, team_representative_id, month_start, award_total, status
		FROM payment_team_representatives
		WHERE team_representative_id = $1 AND month_start = $2
		ORDER BY updated_at DESC LIMIT 1`, repID, monthStart).
		Scan(&rec.ID, &rec.RepID, &rec.MonthStart, &rec.AwardTotal, &rec.Status)
	if err == nil && rec.Status != PaymentFailed {
		return rec, nil
	}

	var winLossTotal decimal.Decimal
	var settlementDoc string
	err = pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(casino_win_loss), 0), COALESCE(MAX(settlement_doc), '')
		FROM award_settlements
		WHERE team_representative_id = $1 AND month_start = $2`, repID, monthStart).
		Scan(&winLossTotal, &settlementDoc)
	if err != nil {
		return nil, err
	}
	awardTotal := CalculateAwardTotal(winLossTotal)

	rec = &paymentRecord{
		ID:         uuid.New(),
		RepID:      repID,
		MonthStart: monthStart,
		AwardTotal: awardTotal,
		Status:     PaymentPending,
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO payment_team_representatives
		(id, team_representative_id, month_start, award_total, casino_win_loss_total,
		 settlement_doc, status, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		rec.ID, repID, monthStart, awardTotal, winLossTotal,
		settlementDoc, string(PaymentPending), actingUser)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// setPaymentStatus commits one lifecycle step. The WHERE clause pins the
// expected current status so concurrent writers lose cleanly.
func setPaymentStatus(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, from, to PaymentStatus, actingUser string) error {
	if !from.CanTransition(to) {
		return errIllegalTransition(from, to)
	}
	tag, err := pool.Exec(ctx, `
		UPDATE payment_team_representatives
		SET status = $2, is_printf = $3, updated_by = $4, updated_at = now()
		WHERE id = $1 AND status = $5`,
		id, string(to), to == PaymentPaid, actingUser, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errStaleStatus(id, from)
	}
	return nil
}

func markFailed(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, actingUser string) {
	_, err := pool.Exec(ctx, `
		UPDATE payment_team_representatives
		SET status = $2, updated_by = $3, updated_at = now()
		WHERE id = $1`, id, string(PaymentFailed), actingUser)
	if err != nil {
		api.LogError("failed to mark payment %s as Failed: %v", id, err)
	}
}

type transitionError struct {
	from, to PaymentStatus
}

func (e transitionError) Error() string {
	return "illegal payment transition " + string(e.from) + " -> " + string(e.to)
}

func errIllegalTransition(from, to PaymentStatus) error {
	return transitionError{from: from, to: to}
}

type staleStatusError struct {
	id       uuid.UUID
	expected PaymentStatus
}

func (e staleStatusError) Error() string {
	return "payment " + e.id.String() + " is no longer '" + string(e.expected) + "'"
}

func errStaleStatus(id uuid.UUID, expected PaymentStatus) error {
	return staleStatusError{id: id, expected: expected}
}
