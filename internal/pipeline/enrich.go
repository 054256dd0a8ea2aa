package pipeline

import "github.com/dvloznov/missing-receipts/internal/domain"

// Enrich maps each bucket's ids back to the full transactions of batch. The
// output follows batch order, not id order. Unknown ids are ignored, and an id
// listed twice in a bucket still yields one transaction.
func Enrich(result domain.ClassificationResult, batch []domain.Transaction) domain.EnrichedResult {
	return domain.EnrichedResult{
		Subscriptions: filterByID(batch, result.Subscriptions),
		Physical:      filterByID(batch, result.Physical),
	}
}

func filterByID(batch []domain.Transaction, ids []int64) []domain.Transaction {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	out := make([]domain.Transaction, 0, len(ids))
	for _, t := range batch {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}
