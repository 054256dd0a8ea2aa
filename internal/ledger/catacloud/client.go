// Package catacloud fetches bank transactions and the ledger report from the
// Catacloud accounting GraphQL API.
package catacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultEndpoint = "https://api.catacloud.com/graphql"
	defaultTimeout  = 30 * time.Second
	maxErrorBody    = 2000
)

const ledgerQuery = `
query getLedgerData($options: AccountReportOptions!) {
  ledgerReport(options: $options) {
    account { id name }
    transactions {
      id
      voucherId
      voucherNumber
      invoiceId
      invoiceNumber
      description
      transactionDate
      bankTransactionLockId
      amount
      customer { id name }
      supplier { id name }
    }
    incomingBalance
    change
    outgoingBalance
  }
}`

const bankTransactionsQuery = `
fragment bankTransactionFragment on BankTransaction {
  id
  transactionCode
  description
  bookingDate
  valueDate
  amount
  currencyCode
  currencyAmount
  exchangeRate
  creditorData
  debtorData
  status
  type
  createdAt
  archiveReference
  otherReference
  bankTransactionLockId
}

query getBankTransactions($options: BankTransactionOptions!) {
  bankTransactions(options: $options) {
    ...bankTransactionFragment
  }
}`

// Client is a ledger.Source backed by the Catacloud GraphQL API. The token of
// each request is sent as a bearer token.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a client for endpoint, or DefaultEndpoint when empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   endpoint,
	}
}

type graphQLRequest struct {
	Query     string      `json:"query"`
	Variables interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type ledgerReportOptions struct {
	Account     int64  `json:"account"`
	Corrections bool   `json:"corrections"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
}

type bankTransactionOptions struct {
	BankAccountID int64  `json:"bankAccountId"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
}

type party struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ledgerReportData struct {
	LedgerReport struct {
		Account      party `json:"account"`
		Transactions []struct {
			ID              int64           `json:"id"`
			VoucherID       int64           `json:"voucherId"`
			VoucherNumber   int64           `json:"voucherNumber"`
			InvoiceID       int64           `json:"invoiceId"`
			InvoiceNumber   int64           `json:"invoiceNumber"`
			Description     string          `json:"description"`
			TransactionDate string          `json:"transactionDate"`
			Amount          decimal.Decimal `json:"amount"`
			Customer        *party          `json:"customer"`
			Supplier        *party          `json:"supplier"`
		} `json:"transactions"`
		IncomingBalance decimal.Decimal `json:"incomingBalance"`
		Change          decimal.Decimal `json:"change"`
		OutgoingBalance decimal.Decimal `json:"outgoingBalance"`
	} `json:"ledgerReport"`
}

type bankTransactionsData struct {
	BankTransactions []domain.Transaction `json:"bankTransactions"`
}

// Fetch runs the ledger report and bank transaction queries concurrently.
// Either failing fails the fetch.
func (c *Client) Fetch(ctx context.Context, req ledger.FetchRequest) (*domain.Batch, error) {
	var (
		ledgerData ledgerReportData
		bankData   bankTransactionsData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vars := map[string]interface{}{"options": ledgerReportOptions{
			Account: req.Account,
			From:    req.From,
			To:      req.To,
		}}
		return c.do(gctx, req.Token, ledgerQuery, vars, &ledgerData)
	})
	g.Go(func() error {
		vars := map[string]interface{}{"options": bankTransactionOptions{
			BankAccountID: req.BankAccountID,
			From:          req.From,
			To:            req.To,
		}}
		return c.do(gctx, req.Token, bankTransactionsQuery, vars, &bankData)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.Batch{
		Transactions: bankData.BankTransactions,
		Ledger:       toLedgerSummary(ledgerData),
	}, nil
}

// do posts one GraphQL query and decodes its data field into out.
func (c *Client) do(ctx context.Context, token, query string, variables interface{}, out interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("catacloud: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("catacloud: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catacloud: execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("catacloud: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("catacloud: request failed with status %d: %s", resp.StatusCode, body)
	}

	var result graphQLResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("catacloud: decode response: %w", err)
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("catacloud: graphql errors: %q", msgs)
	}
	if len(result.Data) == 0 || string(result.Data) == "null" {
		return fmt.Errorf("catacloud: response has no data")
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("catacloud: decode data: %w", err)
	}
	return nil
}

func toLedgerSummary(d ledgerReportData) *domain.LedgerSummary {
	r := d.LedgerReport
	summary := &domain.LedgerSummary{
		AccountID:       r.Account.ID,
		AccountName:     r.Account.Name,
		IncomingBalance: r.IncomingBalance,
		Change:          r.Change,
		OutgoingBalance: r.OutgoingBalance,
		Lines:           make([]domain.LedgerLine, 0, len(r.Transactions)),
	}
	for _, t := range r.Transactions {
		line := domain.LedgerLine{
			ID:              t.ID,
			VoucherID:       t.VoucherID,
			VoucherNumber:   t.VoucherNumber,
			InvoiceID:       t.InvoiceID,
			InvoiceNumber:   t.InvoiceNumber,
			Description:     t.Description,
			TransactionDate: t.TransactionDate,
			Amount:          t.Amount,
		}
		if t.Customer != nil {
			line.CustomerName = t.Customer.Name
		}
		if t.Supplier != nil {
			line.SupplierName = t.Supplier.Name
		}
		summary.Lines = append(summary.Lines, line)
	}
	return summary
}
