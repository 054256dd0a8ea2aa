package domain

import "github.com/shopspring/decimal"

// LedgerSummary is the general-ledger report some sources return alongside the
// bank transactions. The notification pipeline does not read it.
type LedgerSummary struct {
	AccountID       int64
	AccountName     string
	IncomingBalance decimal.Decimal
	Change          decimal.Decimal
	OutgoingBalance decimal.Decimal
	Lines           []LedgerLine
}

// LedgerLine is one voucher line in the ledger report.
type LedgerLine struct {
	ID              int64
	VoucherID       int64
	VoucherNumber   int64
	InvoiceID       int64
	InvoiceNumber   int64
	Description     string
	TransactionDate string
	Amount          decimal.Decimal
	CustomerName    string
	SupplierName    string
}
