package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus is the import batch lifecycle. A batch is created Validated and
// flips to Approved exactly once.
type BatchStatus string

const (
	BatchValidated BatchStatus = "Validated"
	BatchApproved  BatchStatus = "Approved"
)

// PaymentStatus is the closed payment lifecycle enumeration. The source data
// this system replaces carried stray literals ("Void", "Falied"); only these
// five values are ever written.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentInprocess PaymentStatus = "Inprocess"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentVoided    PaymentStatus = "Voided"
	PaymentFailed    PaymentStatus = "Failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentInprocess, PaymentPaid, PaymentVoided, PaymentFailed:
		return true
	}
	return false
}

// paymentTransitions lists the reachable next states. Inprocess is the only
// gateway state: Paid never moves to Voided directly, it must pass through
// Inprocess (the unpay prelude). Failed is terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentInprocess},
	PaymentInprocess: {PaymentPaid, PaymentVoided, PaymentFailed},
	PaymentPaid:      {PaymentInprocess},
	PaymentVoided:    {PaymentInprocess},
	PaymentFailed:    {},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanStartPayment reports whether a stored record may enter the pay flow.
func (s PaymentStatus) CanStartPayment() bool {
	return s == PaymentPending || s == PaymentVoided
}

// CanUnpay reports whether a stored record may enter the unpay flow.
func (s PaymentStatus) CanUnpay() bool {
	return s == PaymentPaid
}

// CellError is one validation finding against a single cell of a row.
type CellError struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// RowError groups the cell errors of one invalid row for summaries.
type RowError struct {
	RowNumber int         `json:"rowNumber"`
	Errors    []CellError `json:"errors"`
}

// RowDetails is the per-row projection exposed by batch details.
type RowDetails struct {
	RowNumber int               `json:"rowNumber"`
	IsValid   bool              `json:"isValid"`
	Data      map[string]string `json:"data"`
	Errors    []CellError       `json:"errors"`
}

// ImportSummary is the response of an upload and of the summary projection.
type ImportSummary struct {
	BatchID      uuid.UUID  `json:"batchId"`
	FileName     string     `json:"fileName"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	Status       string     `json:"status"`
	TotalRows    int        `json:"totalRows"`
	ValidRows    int        `json:"validRows"`
	InvalidRows  int        `json:"invalidRows"`
	SampleErrors []RowError `json:"sampleErrors"`
}

// ImportDetails extends the summary with headers, row data and paging metadata.
type ImportDetails struct {
	ImportSummary
	Headers     []string     `json:"headers"`
	Rows        []RowDetails `json:"rows"`
	Page        int          `json:"page,omitempty"`
	PageSize    int          `json:"pageSize,omitempty"`
	TotalPages  int          `json:"totalPages,omitempty"`
	HasPrevious bool         `json:"hasPrevious,omitempty"`
	HasNext     bool         `json:"hasNext,omitempty"`
}

type settlementStatementRequest struct {
	TeamRepresentativeName string `json:"teamRepresentativeName"`
	TeamRepresentativeID   string `json:"teamRepresentativeId"`
	ProgramName            string `json:"programName"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
}

type settlementStatementRow struct {
	SettlementID   uuid.UUID       `json:"settlementId"`
	MemberID       string          `json:"memberId"`
	MemberName     string          `json:"memberName"`
	JoinedDate     string          `json:"joinedDate"`
	LastGamingDate string          `json:"lastGamingDate"`
	Eligible       bool            `json:"eligible"`
	CasinoWinLoss  decimal.Decimal `json:"casinoWinLoss"`
}

type teamRepresentativesRequest struct {
	TeamRepresentativeID   string `json:"teamRepresentativeId"`
	TeamRepresentativeName string `json:"teamRepresentativeName"`
	ProgramName            string `json:"programName"`
	Status                 string `json:"status"`
	Month                  string `json:"month"`
}

type teamRepresentativeRow struct {
	Segment                      string          `json:"segment"`
	TeamRepresentativeName       string          `json:"teamRepresentativeName"`
	TeamRepresentativeID         string          `json:"teamRepresentativeId"`
	PaymentTeamRepresentativesID uuid.UUID       `json:"paymentTeamRepresentativesId"`
	SettlementDoc                string          `json:"settlementDoc"`
	ProgramName                  string          `json:"programName"`
	Month                        string          `json:"month"`
	AwardTotal                   decimal.Decimal `json:"awardTotal"`
	CasinoWinLoss                decimal.Decimal `json:"casinoWinLoss"`
	Status                       string          `json:"status"`
	IsPayment                    bool            `json:"isPayment"`
	IsPrintf                     bool            `json:"isPrintf"`
	PaymentBy                    string          `json:"paymentBy"`
	PaymentDate                  string          `json:"paymentDate"`
}

type paymentRequest struct {
	PaymentTeamRepresentativesID uuid.UUID `json:"paymentTeamRepresentativesId"`
	TeamRepresentativeName       string    `json:"teamRepresentativeName"`
	TeamRepresentativeID         string    `json:"teamRepresentativeId"`
	Month                        string    `json:"month"`
}

type unPaidRequest struct {
	PaymentTeamRepresentativesID uuid.UUID `json:"paymentTeamRepresentativesId"`
}
