package config

const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04:05"
	MonthFormat    = "2006-01"
	ReportDateFmt  = "02/01/2006"

	SystemUser = "System"
	AdminRole  = "admin"
	UserRole   = "user"

	// Paging clamps for batch detail projections
	MinPageSize     = 1
	MaxPageSize     = 500
	DefaultPageSize = 50

	SampleErrorRows = 10

	// Accounting number format used in generated workbooks
	AccountingNumFmt = "#,##0.00;(#,##0.00)"
)
