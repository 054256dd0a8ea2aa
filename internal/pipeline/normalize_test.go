package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	var raw []domain.Transaction
	err := json.Unmarshal([]byte(`[
		{"id": 2, "transactionCode": "CARD", "description": "GITHUB.COM", "bookingDate": "2025-11-02", "amount": -389.5, "accountNumber": "1234.56.78901", "kid": null},
		{"id": 1, "amount": "100"}
	]`), &raw)
	require.NoError(t, err)

	got := Normalize(raw)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "CARD", got[0].TransactionCode)
	assert.Equal(t, "GITHUB.COM", got[0].Description)
	assert.Equal(t, "2025-11-02", got[0].BookingDate)
	assert.Equal(t, "-389.5", got[0].Amount.String())

	// Missing fields pass through as zero values.
	assert.Equal(t, int64(1), got[1].ID)
	assert.Empty(t, got[1].Description)
	assert.Empty(t, got[1].TransactionCode)
}

func TestNormalize_Empty(t *testing.T) {
	got := Normalize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
