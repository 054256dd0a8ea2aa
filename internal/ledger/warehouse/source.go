// Package warehouse reads bank transactions that were already exported to a
// BigQuery table.
package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

// numericScale is the scale of BigQuery NUMERIC.
const numericScale = 9

// BankTransactionRow is one row of the exported bank transactions table.
type BankTransactionRow struct {
	CustomerToken    string              `bigquery:"customer_token"`   // REQUIRED
	BankAccountID    int64               `bigquery:"bank_account_id"`  // REQUIRED
	TransactionID    int64               `bigquery:"transaction_id"`   // REQUIRED
	TransactionCode  bigquery.NullString `bigquery:"transaction_code"` // NULLABLE
	Description      bigquery.NullString `bigquery:"description"`      // NULLABLE
	BookingDate      civil.Date          `bigquery:"booking_date"`     // REQUIRED
	Amount           *big.Rat            `bigquery:"amount"`           // REQUIRED NUMERIC
	CurrencyCode     bigquery.NullString `bigquery:"currency_code"`
	Status           bigquery.NullString `bigquery:"status"`
	ArchiveReference bigquery.NullString `bigquery:"archive_reference"`
}

// Source is a ledger.Source over a BigQuery table. It holds one client for its
// lifetime.
type Source struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

// New creates the BigQuery client for project.
func New(ctx context.Context, project, dataset, table string) (*Source, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("warehouse.New: creating client: %w", err)
	}
	return &Source{client: client, project: project, dataset: dataset, table: table}, nil
}

// Close closes the BigQuery client connection.
func (s *Source) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Fetch returns the customer's transactions ordered by booking date.
func (s *Source) Fetch(ctx context.Context, req ledger.FetchRequest) (*domain.Batch, error) {
	sql, params, err := buildQuery(s.project, s.dataset, s.table, req)
	if err != nil {
		return nil, err
	}

	q := s.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("warehouse.Fetch: reading query: %w", err)
	}

	var txs []domain.Transaction
	for {
		var row BankTransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("warehouse.Fetch: iterating: %w", err)
		}
		tx, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return &domain.Batch{Transactions: txs}, nil
}

// buildQuery returns the SQL and parameters for req. Empty bounds and a zero
// bank account id are left out of the filter.
func buildQuery(project, dataset, table string, req ledger.FetchRequest) (string, []bigquery.QueryParameter, error) {
	where := []string{"customer_token = @token"}
	params := []bigquery.QueryParameter{{Name: "token", Value: req.Token}}

	if req.BankAccountID != 0 {
		where = append(where, "bank_account_id = @bankAccountId")
		params = append(params, bigquery.QueryParameter{Name: "bankAccountId", Value: req.BankAccountID})
	}
	if req.From != "" {
		d, err := civil.ParseDate(req.From)
		if err != nil {
			return "", nil, fmt.Errorf("warehouse: invalid from date %q: %w", req.From, err)
		}
		where = append(where, "booking_date >= @fromDate")
		params = append(params, bigquery.QueryParameter{Name: "fromDate", Value: d})
	}
	if req.To != "" {
		d, err := civil.ParseDate(req.To)
		if err != nil {
			return "", nil, fmt.Errorf("warehouse: invalid to date %q: %w", req.To, err)
		}
		where = append(where, "booking_date <= @toDate")
		params = append(params, bigquery.QueryParameter{Name: "toDate", Value: d})
	}

	sql := fmt.Sprintf(`
		SELECT
			customer_token,
			bank_account_id,
			transaction_id,
			transaction_code,
			description,
			booking_date,
			amount,
			currency_code,
			status,
			archive_reference
		FROM `+"`%s.%s.%s`"+`
		WHERE %s
		ORDER BY booking_date, transaction_id
	`, project, dataset, table, strings.Join(where, "\n\t\t  AND "))

	return sql, params, nil
}

func rowToTransaction(row BankTransactionRow) (domain.Transaction, error) {
	tx := domain.Transaction{
		ID:              row.TransactionID,
		TransactionCode: row.TransactionCode.StringVal,
		Description:     row.Description.StringVal,
		BookingDate:     row.BookingDate.String(),
	}
	if row.Amount != nil {
		amount, err := decimal.NewFromString(row.Amount.FloatString(numericScale))
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("warehouse: transaction %d: amount: %w", row.TransactionID, err)
		}
		tx.Amount = amount
	}

	extra := map[string]bigquery.NullString{
		"currencyCode":     row.CurrencyCode,
		"status":           row.Status,
		"archiveReference": row.ArchiveReference,
	}
	for key, v := range extra {
		if !v.Valid {
			continue
		}
		raw, err := json.Marshal(v.StringVal)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("warehouse: transaction %d: %s: %w", row.TransactionID, key, err)
		}
		if tx.Extra == nil {
			tx.Extra = make(map[string]json.RawMessage)
		}
		tx.Extra[key] = raw
	}
	return tx, nil
}
