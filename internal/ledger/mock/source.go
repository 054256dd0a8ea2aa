// Package mock serves a fixed transaction dataset instead of a real ledger. The
// dataset is embedded, or read from a local file or a gs:// object.
package mock

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/gcsuploader"
	"github.com/dvloznov/missing-receipts/internal/ledger"
)

//go:embed data/transactions.json
var defaultDataset []byte

// DefaultDataset returns a copy of the embedded dataset.
func DefaultDataset() []byte {
	return append([]byte(nil), defaultDataset...)
}

// Source is a ledger.Source over a JSON array of transactions. The token is
// required but not checked against anything.
type Source struct {
	path    string
	storage gcsuploader.StorageService
}

// New returns a Source reading path, which may be empty (embedded dataset), a
// local file or a gs:// URI fetched through storage.
func New(path string, storage gcsuploader.StorageService) *Source {
	return &Source{path: path, storage: storage}
}

// Fetch loads the dataset and keeps transactions booked within [From, To].
// Empty bounds are open.
func (s *Source) Fetch(ctx context.Context, req ledger.FetchRequest) (*domain.Batch, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("mock: decode dataset: %w", err)
	}

	filtered := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if req.From != "" && t.BookingDate < req.From {
			continue
		}
		if req.To != "" && t.BookingDate > req.To {
			continue
		}
		filtered = append(filtered, t)
	}
	return &domain.Batch{Transactions: filtered}, nil
}

func (s *Source) load(ctx context.Context) ([]byte, error) {
	switch {
	case s.path == "":
		return defaultDataset, nil
	case gcsuploader.IsGCSURI(s.path):
		if s.storage == nil {
			return nil, fmt.Errorf("mock: no storage configured for %s", s.path)
		}
		data, err := s.storage.FetchFromGCS(ctx, s.path)
		if err != nil {
			return nil, fmt.Errorf("mock: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("mock: read dataset: %w", err)
		}
		return data, nil
	}
}
