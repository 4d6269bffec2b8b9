package ports

import "context"

// Transport performs a single blocking POST exchange with a processor.
// Connectivity failures (DNS, refused connection, TLS, timeout) must be
// returned as *errors.NetworkError. Implementations decide timeouts.
type Transport interface {
	Post(ctx context.Context, endpoint string, payload *WirePayload) ([]byte, error)
}
