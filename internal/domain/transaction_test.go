package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_UnmarshalKeepsExtraFields(t *testing.T) {
	raw := `{
		"id": 1042,
		"transactionCode": "CARD",
		"description": "GITHUB.COM",
		"bookingDate": "2025-11-03",
		"amount": -104.37,
		"currencyCode": "NOK",
		"status": "BOOKED",
		"bankTransactionLockId": null
	}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &tx))

	assert.Equal(t, int64(1042), tx.ID)
	assert.Equal(t, "CARD", tx.TransactionCode)
	assert.Equal(t, "GITHUB.COM", tx.Description)
	assert.Equal(t, "2025-11-03", tx.BookingDate)
	assert.True(t, decimal.RequireFromString("-104.37").Equal(tx.Amount))

	require.Len(t, tx.Extra, 3)
	assert.JSONEq(t, `"NOK"`, string(tx.Extra["currencyCode"]))
	assert.JSONEq(t, `null`, string(tx.Extra["bankTransactionLockId"]))
	assert.NotContains(t, tx.Extra, "description")
}

func TestTransaction_MissingFieldsDecodeToZero(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"id": 7, "description": null}`), &tx))

	assert.Equal(t, int64(7), tx.ID)
	assert.Empty(t, tx.Description)
	assert.Empty(t, tx.TransactionCode)
	assert.True(t, tx.Amount.IsZero())
	assert.Nil(t, tx.Extra)
}

func TestTransaction_AmountAcceptsQuotedDecimal(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3, "amount": "-389.50"}`), &tx))
	assert.Equal(t, "-389.5", tx.Amount.String())
}

func TestTransaction_MarshalWritesExtraAlongsideTypedFields(t *testing.T) {
	tx := Transaction{
		ID:              5,
		TransactionCode: "CARD",
		Description:     "RESTAURANT OSLO",
		BookingDate:     "2025-11-07",
		Amount:          decimal.RequireFromString("-612.00"),
		Extra:           map[string]json.RawMessage{"currencyCode": json.RawMessage(`"NOK"`)},
	}

	b, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 5,
		"transactionCode": "CARD",
		"description": "RESTAURANT OSLO",
		"bookingDate": "2025-11-07",
		"amount": -612,
		"currencyCode": "NOK"
	}`, string(b))
}

func TestTransaction_InvalidIDType(t *testing.T) {
	var tx Transaction
	err := json.Unmarshal([]byte(`{"id": "abc"}`), &tx)
	assert.Error(t, err)
}
