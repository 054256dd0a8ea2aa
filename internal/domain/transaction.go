package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction is one bank-ledger line item as delivered by a transaction source.
// Fields the pipeline does not consume are kept verbatim in Extra so they survive
// a round trip through JSON without being typed.
type Transaction struct {
	ID              int64           // unique within a batch
	TransactionCode string          // bank-assigned category/method marker, e.g. "CARD"
	Description     string          // free text
	BookingDate     string          // date string as delivered, e.g. "2025-11-03"
	Amount          decimal.Decimal // signed, negative for money out

	Extra map[string]json.RawMessage
}

// knownTransactionFields are the keys mapped onto Transaction's typed fields.
var knownTransactionFields = map[string]bool{
	"id":              true,
	"transactionCode": true,
	"description":     true,
	"bookingDate":     true,
	"amount":          true,
}

// UnmarshalJSON decodes the typed fields and keeps everything else in Extra.
// Missing or null fields decode to their zero value.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	var out Transaction
	if v, ok := raw["id"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &out.ID); err != nil {
			return fmt.Errorf("transaction: field \"id\": %w", err)
		}
	}
	for key, dst := range map[string]*string{
		"transactionCode": &out.TransactionCode,
		"description":     &out.Description,
		"bookingDate":     &out.BookingDate,
	} {
		v, ok := raw[key]
		if !ok || isNull(v) {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("transaction %d: field %q: %w", out.ID, key, err)
		}
	}
	if v, ok := raw["amount"]; ok && !isNull(v) {
		if err := out.Amount.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("transaction %d: field \"amount\": %w", out.ID, err)
		}
	}

	for key, v := range raw {
		if knownTransactionFields[key] {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = v
	}

	*t = out
	return nil
}

// MarshalJSON writes the typed fields next to the pass-through Extra fields.
// Amounts are written as bare JSON numbers.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.Extra)+len(knownTransactionFields))
	for k, v := range t.Extra {
		out[k] = v
	}

	typed := map[string]interface{}{
		"id":              t.ID,
		"transactionCode": t.TransactionCode,
		"description":     t.Description,
		"bookingDate":     t.BookingDate,
		"amount":          json.Number(t.Amount.String()),
	}
	for k, v := range typed {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: field %q: %w", t.ID, k, err)
		}
		out[k] = b
	}

	return json.Marshal(out)
}

func isNull(v json.RawMessage) bool {
	return string(v) == "null"
}

// NormalizedTransaction is the reduced record handed to the classifier.
type NormalizedTransaction struct {
	ID              int64           `json:"id"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionCode string          `json:"transactionCode"`
	BookingDate     string          `json:"bookingDate"`
}

// Batch is the bounded set of transactions processed in one invocation, plus the
// ledger summary returned by sources that have one.
type Batch struct {
	Transactions []Transaction
	Ledger       *LedgerSummary
}

// IDs returns the transaction ids of the batch in order.
func (b *Batch) IDs() []int64 {
	ids := make([]int64, 0, len(b.Transactions))
	for _, t := range b.Transactions {
		ids = append(ids, t.ID)
	}
	return ids
}
