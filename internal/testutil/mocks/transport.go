// Package mocks provides fake transports and processors that simulate bad
// networks, corrupted responses and corrupted requests.
package mocks

import (
	"bytes"
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
)

// MockTransport is a testify mock of ports.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Post(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, error) {
	args := m.Called(ctx, endpoint, payload)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// FuncTransport adapts a function to ports.Transport
type FuncTransport func(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, error)

func (f FuncTransport) Post(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, error) {
	return f(ctx, endpoint, payload)
}

// StaticTransport returns body for every request
func StaticTransport(body string) FuncTransport {
	return func(context.Context, string, *ports.WirePayload) ([]byte, error) {
		return []byte(body), nil
	}
}

// CorruptResponseTransport forwards to Next and prepends "<" to the response
// body, which makes any XML document unparseable.
type CorruptResponseTransport struct {
	Next ports.Transport
}

func (t *CorruptResponseTransport) Post(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, error) {
	body, err := t.Next.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return append([]byte("<"), body...), nil
}

// RecordedCall is one exchange seen by a RecordingTransport
type RecordedCall struct {
	Endpoint string
	Payload  ports.WirePayload
}

// RecordingTransport forwards to Next, or returns Response when Next is nil,
// and records every call
type RecordingTransport struct {
	Next     ports.Transport
	Response []byte

	mu    sync.Mutex
	calls []RecordedCall
}

func (t *RecordingTransport) Post(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, error) {
	t.mu.Lock()
	t.calls = append(t.calls, RecordedCall{
		Endpoint: endpoint,
		Payload: ports.WirePayload{
			ContentType: payload.ContentType,
			Body:        bytes.Clone(payload.Body),
		},
	})
	t.mu.Unlock()

	if t.Next != nil {
		return t.Next.Post(ctx, endpoint, payload)
	}
	return bytes.Clone(t.Response), nil
}

// Calls returns a copy of the recorded exchanges
func (t *RecordingTransport) Calls() []RecordedCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RecordedCall(nil), t.calls...)
}
