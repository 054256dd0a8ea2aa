package pipeline

import "github.com/dvloznov/missing-receipts/internal/domain"

// Normalize reduces each transaction to the fields the classifier needs. Order
// is preserved and nothing is validated; missing fields stay zero.
func Normalize(txs []domain.Transaction) []domain.NormalizedTransaction {
	out := make([]domain.NormalizedTransaction, 0, len(txs))
	for _, t := range txs {
		out = append(out, domain.NormalizedTransaction{
			ID:              t.ID,
			Description:     t.Description,
			Amount:          t.Amount,
			TransactionCode: t.TransactionCode,
			BookingDate:     t.BookingDate,
		})
	}
	return out
}
