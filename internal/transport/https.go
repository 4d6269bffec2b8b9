// Package transport performs the single POST exchange between a gateway and a
// processor and normalizes every connectivity failure into a NetworkError.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	pkghttp "github.com/kevin07696/merchant-gateway/pkg/http"
	"github.com/kevin07696/merchant-gateway/pkg/observability"
	"github.com/kevin07696/merchant-gateway/pkg/resilience"
)

const tracerName = "github.com/kevin07696/merchant-gateway/internal/transport"

// maxResponseBytes caps how much of a processor response is read
const maxResponseBytes = 1 << 20

// Config contains configuration for the HTTPS transport
type Config struct {
	// Overall exchange timeout (dial through body read)
	Timeout time.Duration

	// Client pool and TLS settings
	Client *pkghttp.HTTPClientConfig

	// MaxConnectRetries bounds retries of failed dials. Only dials are retried:
	// once a request body may have reached the processor, a retry could duplicate a charge.
	MaxConnectRetries int

	CircuitBreaker CircuitBreakerConfig
}

// DefaultConfig returns the transport defaults for the given environment ("sandbox" or "production")
func DefaultConfig(environment string) *Config {
	clientCfg := pkghttp.ProcessorClientConfig()
	if environment == "sandbox" {
		clientCfg = pkghttp.SandboxClientConfig()
	}

	return &Config{
		Timeout:           30 * time.Second,
		Client:            clientCfg,
		MaxConnectRetries: 2,
		CircuitBreaker:    DefaultCircuitBreakerConfig(),
	}
}

// Option customizes an HTTPSTransport
type Option func(*HTTPSTransport)

// WithHTTPClient replaces the pooled client, e.g. with an httptest server's client
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPSTransport) {
		t.httpClient = client
	}
}

// WithBackoff replaces the dial retry backoff strategy
func WithBackoff(b resilience.BackoffStrategy) Option {
	return func(t *HTTPSTransport) {
		t.backoff = b
	}
}

// HTTPSTransport implements ports.Transport over HTTPS POST
type HTTPSTransport struct {
	config         *Config
	httpClient     *http.Client
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
	backoff        resilience.BackoffStrategy
}

var _ ports.Transport = (*HTTPSTransport)(nil)

// NewHTTPS creates a new HTTPS transport
func NewHTTPS(config *Config, logger *zap.Logger, opts ...Option) *HTTPSTransport {
	if config == nil {
		config = DefaultConfig("production")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Client == nil {
		config.Client = pkghttp.ProcessorClientConfig()
	}

	breakerCfg := config.CircuitBreaker
	if breakerCfg.MaxFailures == 0 {
		breakerCfg = DefaultCircuitBreakerConfig()
	}
	userHook := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to CircuitState) {
		logger.Warn("Processor circuit breaker changed state",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if userHook != nil {
			userHook(from, to)
		}
	}

	t := &HTTPSTransport{
		config:         config,
		httpClient:     pkghttp.NewHTTPClient(config.Client, config.Timeout),
		logger:         logger,
		circuitBreaker: NewCircuitBreaker(breakerCfg),
		backoff:        resilience.DialRetryBackoff(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CircuitState exposes the breaker state for diagnostics
func (t *HTTPSTransport) CircuitState() CircuitState {
	return t.circuitBreaker.State()
}

// Post sends payload to endpoint and returns the response body.
// Any HTTP response below 500 is returned for the processor's parser to judge.
func (t *HTTPSTransport) Post(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, error) {
	if payload == nil {
		return nil, pkgerrors.NewValidationError("payload", "is required")
	}

	target, err := url.Parse(endpoint)
	if err != nil || target.Host == "" {
		return nil, pkgerrors.NewNetworkError(fmt.Errorf("invalid endpoint %q: %w", endpoint, err))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "transport.post")
	defer span.End()
	span.SetAttributes(
		attribute.String("server.address", target.Host),
		attribute.String("content_type", payload.ContentType),
		attribute.Int("request.body_length", len(payload.Body)),
	)

	finish := observability.TransportStarted(target.Host)
	start := time.Now()

	var body []byte
	var status string
	err = t.circuitBreaker.Call(func() error {
		var callErr error
		body, status, callErr = t.exchange(ctx, endpoint, payload)
		return callErr
	})

	if err != nil {
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
			status = "circuit_open"
			t.logger.Warn("Circuit breaker is open, rejecting processor request",
				zap.String("host", target.Host),
				zap.String("circuit_state", t.circuitBreaker.State().String()),
			)
			err = pkgerrors.NewNetworkError(err)
		}
		finish(status, time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	finish(status, time.Since(start).Seconds())
	return body, nil
}

// exchange performs the POST, retrying only failed dials
func (t *HTTPSTransport) exchange(ctx context.Context, endpoint string, payload *ports.WirePayload) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= t.config.MaxConnectRetries; attempt++ {
		if attempt > 0 {
			delay := t.backoff.NextDelay(attempt - 1)
			t.logger.Info("Retrying processor dial",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", t.config.MaxConnectRetries),
				zap.Duration("backoff_delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, "network_error", pkgerrors.NewNetworkError(fmt.Errorf("retry cancelled: %w", ctx.Err()))
			case <-time.After(delay):
			}
		}

		// A fresh request per attempt; the body reader is consumed by Do
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload.Body))
		if err != nil {
			return nil, "network_error", pkgerrors.NewNetworkError(fmt.Errorf("failed to create request: %w", err))
		}
		if payload.ContentType != "" {
			httpReq.Header.Set("Content-Type", payload.ContentType)
		}

		startTime := time.Now()
		httpResp, err := t.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			if isDialError(err) && attempt < t.config.MaxConnectRetries && ctx.Err() == nil {
				t.logger.Warn("Processor dial failed", zap.Error(err), zap.Int("attempt", attempt))
				continue
			}
			t.logger.Error("Failed to send processor request",
				zap.Error(err),
				zap.String("endpoint", endpoint),
				zap.Duration("elapsed", time.Since(startTime)),
			)
			return nil, "network_error", pkgerrors.NewNetworkError(err)
		}

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
		httpResp.Body.Close()
		if err != nil {
			t.logger.Error("Failed to read processor response body", zap.Error(err))
			return nil, "network_error", pkgerrors.NewNetworkError(fmt.Errorf("failed to read response: %w", err))
		}

		status := strconv.Itoa(httpResp.StatusCode)
		t.logger.Debug("Received processor response",
			zap.Int("status_code", httpResp.StatusCode),
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Int("body_length", len(body)),
		)

		if httpResp.StatusCode >= http.StatusInternalServerError {
			t.logger.Warn("Processor returned server error", zap.Int("status_code", httpResp.StatusCode))
			return nil, status, pkgerrors.NewNetworkError(
				fmt.Errorf("processor returned HTTP %d", httpResp.StatusCode))
		}
		return body, status, nil
	}

	return nil, "network_error", pkgerrors.NewNetworkError(
		fmt.Errorf("failed after %d dial retries: %w", t.config.MaxConnectRetries, lastErr))
}

// isDialError reports whether err happened before any request bytes were written
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
