package warehouse

import (
	"math/big"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	sql, params, err := buildQuery("proj", "finance", "bank_transactions", ledger.FetchRequest{
		Token: "tok", BankAccountID: 77, From: "2025-11-01", To: "2025-11-30",
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "`proj.finance.bank_transactions`")
	assert.Contains(t, sql, "customer_token = @token")
	assert.Contains(t, sql, "bank_account_id = @bankAccountId")
	assert.Contains(t, sql, "booking_date >= @fromDate")
	assert.Contains(t, sql, "booking_date <= @toDate")

	require.Len(t, params, 4)
	assert.Equal(t, "tok", params[0].Value)
	assert.Equal(t, int64(77), params[1].Value)
	assert.Equal(t, civil.Date{Year: 2025, Month: 11, Day: 1}, params[2].Value)
}

func TestBuildQuery_OptionalFilters(t *testing.T) {
	sql, params, err := buildQuery("p", "d", "t", ledger.FetchRequest{Token: "tok"})
	require.NoError(t, err)

	assert.Len(t, params, 1)
	assert.False(t, strings.Contains(sql, "@bankAccountId"))
	assert.False(t, strings.Contains(sql, "@fromDate"))
}

func TestBuildQuery_InvalidDate(t *testing.T) {
	_, _, err := buildQuery("p", "d", "t", ledger.FetchRequest{Token: "tok", From: "01.11.2025"})
	assert.ErrorContains(t, err, "invalid from date")
}

func TestRowToTransaction(t *testing.T) {
	row := BankTransactionRow{
		TransactionID:   1003,
		TransactionCode: bigquery.NullString{StringVal: "CARD", Valid: true},
		Description:     bigquery.NullString{StringVal: "GITHUB.COM", Valid: true},
		BookingDate:     civil.Date{Year: 2025, Month: 11, Day: 2},
		Amount:          big.NewRat(-3895, 10),
		CurrencyCode:    bigquery.NullString{StringVal: "NOK", Valid: true},
	}

	tx, err := rowToTransaction(row)
	require.NoError(t, err)

	assert.Equal(t, int64(1003), tx.ID)
	assert.Equal(t, "CARD", tx.TransactionCode)
	assert.Equal(t, "2025-11-02", tx.BookingDate)
	assert.Equal(t, "-389.5", tx.Amount.String())
	assert.JSONEq(t, `"NOK"`, string(tx.Extra["currencyCode"]))
	_, hasStatus := tx.Extra["status"]
	assert.False(t, hasStatus)
}

func TestRowToTransaction_NullColumns(t *testing.T) {
	tx, err := rowToTransaction(BankTransactionRow{TransactionID: 5, BookingDate: civil.Date{Year: 2025, Month: 1, Day: 9}})
	require.NoError(t, err)

	assert.Empty(t, tx.Description)
	assert.True(t, tx.Amount.IsZero())
	assert.Nil(t, tx.Extra)
}
