package llm

import (
	"context"
	"sync"
)

// MockClient is a Client backed by a function, for tests. It records every
// request it receives.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req Request) (Response, error)

	mu       sync.Mutex
	requests []Request
}

func (m *MockClient) Complete(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return Response{Text: "{}"}, nil
}

// Requests returns a copy of the requests received so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
