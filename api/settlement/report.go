package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"CasinoMassProgram/api"
	"CasinoMassProgram/internal/config"
)

type reportRequest struct {
	TeamRepresentativeID string `json:"teamRepresentativeId"`
	Month                string `json:"month"`
}

type reportFact struct {
	MemberCode     string
	MemberName     string
	JoinedDate     time.Time
	LastGamingDate time.Time
	Eligible       bool
	WinLoss        decimal.Decimal
	Award          decimal.Decimal
}

// Headers the report template must carry in its table header row.
var reportHeaders = []string{
	"No.", "Member ID", "Member name", "Joined date", "Last gaming date",
	"Eligible (Y/N)", "Casino win/(loss)",
}

// GenerateSettlementPaymentReport fills the CRP settlement template with the
// representative's facts for one month, appends total and award rows and the
// signature block, and streams the workbook.
func GenerateSettlementPaymentReport(pool *pgxpool.Pool, templatePath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req reportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		if strings.TrimSpace(req.TeamRepresentativeID) == "" {
			api.RespondWithError(w, http.StatusBadRequest, "teamRepresentativeId is required")
			return
		}
		monthStart, err := ParseMonth(req.Month)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid month")
			return
		}

		repID, externalID, repName, err := resolveRepresentative(ctx, pool, req.TeamRepresentativeID)
		if err != nil {
			api.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}

		facts, settlementDoc, err := loadReportFacts(ctx, pool, repID, monthStart)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// A stored payment's award total wins over recomputing from facts.
		awardTotal := decimal.Zero
		for _, f := range facts {
			awardTotal = awardTotal.Add(f.Award)
		}
		var storedAward decimal.Decimal
		err = pool.QueryRow(ctx, `
			SELECT award_total FROM payment_team_representatives
			WHERE team_representative_id = $1 AND month_start = $2
			ORDER BY updated_at DESC LIMIT 1`, repID, monthStart).Scan(&storedAward)
		if err == nil {
			awardTotal = storedAward
		}

		content, err := renderReport(templatePath, externalID, repName, settlementDoc, monthStart, facts, awardTotal)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		fileName := fmt.Sprintf("CRP_Settlement_%s_%s.xlsx", externalID, monthStart.Format("200601"))
		api.LogInfo("generated settlement report %s (%d rows)", fileName, len(facts))
		api.RespondWithFile(w, fileName, xlsxContentType, content)
	}
}

// resolveRepresentative matches by external id first, then by internal uuid.
func resolveRepresentative(ctx context.Context, pool *pgxpool.Pool, key string) (uuid.UUID, string, string, error) {
	key = strings.TrimSpace(key)
	var id uuid.UUID
	var externalID, name string
	err := pool.QueryRow(ctx, `
		SELECT id, external_id, name FROM team_representatives
		WHERE lower(external_id) = lower($1)`, key).Scan(&id, &externalID, &name)
	if err == nil {
		return id, externalID, name, nil
	}
	if parsed, pErr := uuid.Parse(key); pErr == nil {
		err = pool.QueryRow(ctx, `
			SELECT id, external_id, name FROM team_representatives WHERE id = $1`, parsed).
			Scan(&id, &externalID, &name)
		if err == nil {
			return id, externalID, name, nil
		}
	}
	return uuid.Nil, "", "", fmt.Errorf("TeamRepresentative '%s' not found", key)
}

func loadReportFacts(ctx context.Context, pool *pgxpool.Pool, repID uuid.UUID, monthStart time.Time) ([]reportFact, string, error) {
	rows, err := pool.Query(ctx, `
		SELECT m.member_code, m.full_name, s.joined_date, s.last_gaming_date,
		       s.eligible, s.casino_win_loss, s.award_amount, s.settlement_doc
		FROM award_settlements s
		JOIN members m ON m.id = s.member_id
		WHERE s.team_representative_id = $1 AND s.month_start = $2
		ORDER BY s.seq_no, m.member_code`, repID, monthStart)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var facts []reportFact
	var settlementDoc string
	for rows.Next() {
		var f reportFact
		var doc string
		if err := rows.Scan(&f.MemberCode, &f.MemberName, &f.JoinedDate, &f.LastGamingDate,
			&f.Eligible, &f.WinLoss, &f.Award, &doc); err != nil {
			return nil, "", err
		}
		if settlementDoc == "" {
			settlementDoc = doc
		}
		facts = append(facts, f)
	}
	return facts, settlementDoc, nil
}

func renderReport(templatePath, externalID, repName, settlementDoc string, monthStart time.Time, facts []reportFact, awardTotal decimal.Decimal) ([]byte, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("report template not found at %s: %w", templatePath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report template has no worksheets")
	}
	sheet := sheets[0]

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	// Locate the table header row by its two anchor labels.
	headerRow := 0
	headerCols := map[string]int{}
	for i := 0; i < len(grid) && i < 30; i++ {
		cols := map[string]int{}
		hasID, hasName := false, false
		for j, v := range grid[i] {
			name := strings.TrimSpace(v)
			if name == "" {
				continue
			}
			if _, ok := cols[strings.ToLower(name)]; !ok {
				cols[strings.ToLower(name)] = j + 1
			}
			if strings.EqualFold(name, "Member ID") {
				hasID = true
			}
			if strings.EqualFold(name, "Member name") {
				hasName = true
			}
		}
		if hasID && hasName {
			headerRow = i + 1
			headerCols = cols
			break
		}
	}
	if headerRow == 0 {
		return nil, fmt.Errorf("report template is missing its table header row")
	}
	for _, h := range reportHeaders {
		if _, ok := headerCols[strings.ToLower(h)]; !ok {
			return nil, fmt.Errorf("report template is missing required header: '%s'", h)
		}
	}
	idx := func(h string) int { return headerCols[strings.ToLower(h)] }

	// Representative metadata goes next to its labels wherever they sit.
	setRightOfLabel(f, sheet, grid, "Team Representative", fmt.Sprintf("%s (%s)", repName, externalID))
	setRightOfLabel(f, sheet, grid, "Month", monthStart.Format(config.MonthFormat))
	setRightOfLabel(f, sheet, grid, "Settlement Doc", settlementDoc)

	// Clear stale template data below the header before writing.
	minCol, maxCol := idx(reportHeaders[0]), idx(reportHeaders[0])
	for _, h := range reportHeaders {
		if idx(h) < minCol {
			minCol = idx(h)
		}
		if idx(h) > maxCol {
			maxCol = idx(h)
		}
	}
	for row := headerRow + 1; row <= len(grid); row++ {
		for col := minCol; col <= maxCol; col++ {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(sheet, cell, "")
		}
	}

	numFmt := config.AccountingNumFmt
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}
	moneyBoldStyle, _ := f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Font:         &excelize.Font{Bold: true},
		Border: []excelize.Border{
			{Type: "top", Style: 1, Color: "000000"},
		},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	borderStyle, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})

	setCell := func(col, row int, value interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(sheet, cell, value)
	}
	setStyle := func(col, row, style int) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellStyle(sheet, cell, cell, style)
	}

	row := headerRow + 1
	totalWinLoss := decimal.Zero
	for i, fact := range facts {
		setCell(idx("No."), row, i+1)
		setCell(idx("Member ID"), row, fact.MemberCode)
		setCell(idx("Member name"), row, fact.MemberName)
		setCell(idx("Joined date"), row, fact.JoinedDate.Format(config.ReportDateFmt))
		setCell(idx("Last gaming date"), row, fact.LastGamingDate.Format(config.ReportDateFmt))
		eligible := "N"
		if fact.Eligible {
			eligible = "Y"
		}
		setCell(idx("Eligible (Y/N)"), row, eligible)
		winLoss, _ := fact.WinLoss.Float64()
		setCell(idx("Casino win/(loss)"), row, winLoss)
		setStyle(idx("Casino win/(loss)"), row, moneyStyle)
		totalWinLoss = totalWinLoss.Add(fact.WinLoss)
		row++
	}

	labelCol := idx("Eligible (Y/N)")
	numberCol := idx("Casino win/(loss)")

	setCell(labelCol, row, "Total:")
	setStyle(labelCol, row, boldStyle)
	total, _ := totalWinLoss.Float64()
	setCell(numberCol, row, total)
	setStyle(numberCol, row, moneyBoldStyle)
	row++

	awardRow := row
	setCell(labelCol, row, "Award settlement:")
	setStyle(labelCol, row, boldStyle)
	award, _ := awardTotal.Float64()
	setCell(numberCol, row, award)
	setStyle(numberCol, row, moneyBoldStyle)

	// Full border around header, data and summary rows.
	topLeft, _ := excelize.CoordinatesToCellName(minCol, headerRow)
	bottomRight, _ := excelize.CoordinatesToCellName(maxCol, awardRow)
	f.SetCellStyle(sheet, topLeft, bottomRight, borderStyle)

	// Signature block: headers, four blank signing rows, then the parties.
	signHeaderRow := awardRow + 5
	signValueRow := signHeaderRow + 5
	paidCol := idx("Member ID")
	confirmCol := (minCol + maxCol) / 2
	receivedCol := maxCol

	setCell(paidCol, signHeaderRow, "Paid by")
	setCell(confirmCol, signHeaderRow, "Confirmed by")
	setCell(receivedCol, signHeaderRow, "Received by")
	setCell(paidCol, signValueRow, "Cage")
	setCell(confirmCol, signValueRow, "Casino Marketing")
	setCell(receivedCol, signValueRow, repName)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write report workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// setRightOfLabel writes value into the cell to the right of the first cell
// whose content equals label.
func setRightOfLabel(f *excelize.File, sheet string, grid [][]string, label string, value interface{}) {
	for i, gridRow := range grid {
		for j, v := range gridRow {
			if strings.EqualFold(strings.TrimSpace(v), label) {
				cell, _ := excelize.CoordinatesToCellName(j+2, i+1)
				f.SetCellValue(sheet, cell, value)
				return
			}
		}
	}
}
