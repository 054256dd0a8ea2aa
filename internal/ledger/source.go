// Package ledger defines where a customer's raw bank transactions come from.
package ledger

import (
	"context"

	"github.com/dvloznov/missing-receipts/internal/domain"
)

// FetchRequest identifies one customer's transactions. From and To are
// optional YYYY-MM-DD bounds; Account and BankAccountID are source specific.
type FetchRequest struct {
	Token         string
	From          string
	To            string
	Account       int64
	BankAccountID int64
}

// Source fetches the raw transaction batch for a customer.
type Source interface {
	Fetch(ctx context.Context, req FetchRequest) (*domain.Batch, error)
}

// MockSource is a Source backed by a function, for tests.
type MockSource struct {
	FetchFunc func(ctx context.Context, req FetchRequest) (*domain.Batch, error)
}

func (m *MockSource) Fetch(ctx context.Context, req FetchRequest) (*domain.Batch, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, req)
	}
	return &domain.Batch{}, nil
}
