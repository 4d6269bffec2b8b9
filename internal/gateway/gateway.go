// Package gateway exposes the unified purchase/authorize/capture/void/credit
// operations over any ports.Processor.
//
// A Gateway is reused across many calls. Concurrent operations are safe, but
// SetMode and SetTestOutcome must not race with in-flight operations: mode is
// configuration, not per-call state, and is deliberately not locked.
package gateway

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
	"github.com/kevin07696/merchant-gateway/pkg/observability"
	"github.com/kevin07696/merchant-gateway/pkg/resilience"
)

const tracerName = "github.com/kevin07696/merchant-gateway/internal/gateway"

// Options configure a Gateway at construction
type Options struct {
	// Mode defaults to live
	Mode domain.Mode

	// TestOutcome forces a sandbox decision; ignored in live mode
	TestOutcome domain.TestOutcome

	// Timeout bounds each operation. Zero leaves it to the transport.
	Timeout time.Duration
}

// Gateway runs operations through one processor and one transport
type Gateway struct {
	processor   ports.Processor
	transport   ports.Transport
	logger      *zap.Logger
	mode        domain.Mode
	testOutcome domain.TestOutcome
	timeout     time.Duration
}

// New creates a gateway. The processor has already validated its own options.
func New(processor ports.Processor, transport ports.Transport, logger *zap.Logger, opts Options) (*Gateway, error) {
	if processor == nil {
		return nil, pkgerrors.NewConfigurationError("", "processor")
	}
	if transport == nil {
		return nil, pkgerrors.NewConfigurationError(processor.Name(), "transport")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeLive
	}
	if mode != domain.ModeLive && mode != domain.ModeTest {
		return nil, pkgerrors.NewValidationError("mode", "must be live or test")
	}

	return &Gateway{
		processor:   processor,
		transport:   transport,
		logger:      logger.With(zap.String("processor", processor.Name())),
		mode:        mode,
		testOutcome: opts.TestOutcome,
		timeout:     opts.Timeout,
	}, nil
}

// Processor returns the processor identifier
func (g *Gateway) Processor() string { return g.processor.Name() }

func (g *Gateway) Mode() domain.Mode { return g.mode }

// SetMode switches between the sandbox and production endpoints
func (g *Gateway) SetMode(mode domain.Mode) {
	g.mode = mode
}

func (g *Gateway) TestOutcome() domain.TestOutcome { return g.testOutcome }

// SetTestOutcome forces approvals or declines while in test mode
func (g *Gateway) SetTestOutcome(outcome domain.TestOutcome) {
	g.testOutcome = outcome
}

// Purchase authorizes and captures amount in one step
func (g *Gateway) Purchase(ctx context.Context, amount money.Money, card *domain.CreditCard, order *domain.OrderContext) (*domain.Response, error) {
	return g.execute(ctx, &ports.Request{
		Operation: domain.OperationPurchase,
		Amount:    amount,
		Card:      card,
		Order:     order,
	})
}

// Authorize reserves amount; the response's Authorization is needed to capture it
func (g *Gateway) Authorize(ctx context.Context, amount money.Money, card *domain.CreditCard, order *domain.OrderContext) (*domain.Response, error) {
	return g.execute(ctx, &ports.Request{
		Operation: domain.OperationAuthorize,
		Amount:    amount,
		Card:      card,
		Order:     order,
	})
}

// Capture settles a prior authorization
func (g *Gateway) Capture(ctx context.Context, amount money.Money, authorization string, order *domain.OrderContext) (*domain.Response, error) {
	return g.execute(ctx, &ports.Request{
		Operation:     domain.OperationCapture,
		Amount:        amount,
		Authorization: authorization,
		Order:         order,
	})
}

// Void cancels a prior authorization or purchase before settlement
func (g *Gateway) Void(ctx context.Context, authorization string) (*domain.Response, error) {
	return g.execute(ctx, &ports.Request{
		Operation:     domain.OperationVoid,
		Authorization: authorization,
	})
}

// Credit refunds amount against a settled transaction. Exceeding the remaining
// value is a declined Response, not an error.
func (g *Gateway) Credit(ctx context.Context, amount money.Money, authorization string, order *domain.OrderContext) (*domain.Response, error) {
	return g.execute(ctx, &ports.Request{
		Operation:     domain.OperationCredit,
		Amount:        amount,
		Authorization: authorization,
		Order:         order,
	})
}

// execute runs build, exchange, parse and error mapping for one operation.
// Nothing is retried here; a NetworkError goes straight back to the caller.
func (g *Gateway) execute(ctx context.Context, req *ports.Request) (*domain.Response, error) {
	// Snapshot mode for the whole call
	req.Mode = g.mode
	req.TestOutcome = g.testOutcome

	start := time.Now()
	logger := g.logger.With(
		zap.String("operation", string(req.Operation)),
		zap.String("mode", string(req.Mode)),
	)
	if req.Order != nil {
		logger = logger.With(zap.String("order_id", req.Order.OrderID))
	}
	if req.Operation.NeedsAmount() {
		logger = logger.With(zap.String("amount", req.Amount.String()), zap.String("currency", req.Amount.Currency()))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "gateway."+string(req.Operation))
	defer span.End()
	span.SetAttributes(
		attribute.String("processor", g.processor.Name()),
		attribute.String("operation", string(req.Operation)),
		attribute.Bool("test", req.Mode.IsTest()),
	)

	resp, err := g.run(ctx, req, logger)

	outcome := observability.OutcomeApproved
	switch {
	case err != nil:
		kind, _ := pkgerrors.KindOf(err)
		outcome = string(kind)
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Gateway operation failed",
			zap.String("error_kind", outcome),
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
	case !resp.Success():
		outcome = observability.OutcomeDeclined
		span.SetAttributes(attribute.String("decline.message", resp.Message()))
		logger.Warn("Gateway operation declined",
			zap.String("message", resp.Message()),
			zap.String("category", string(resp.Category())),
			zap.Duration("elapsed", time.Since(start)),
		)
	default:
		logger.Info("Gateway operation approved",
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	var minorUnits int64
	if req.Operation.NeedsAmount() {
		minorUnits = req.Amount.MinorUnits()
	}
	observability.RecordGatewayOperation(
		g.processor.Name(), string(req.Operation), outcome,
		req.Mode.IsTest(), minorUnits, req.Amount.Currency(),
		time.Since(start).Seconds(),
	)

	return resp, err
}

func (g *Gateway) run(ctx context.Context, req *ports.Request, logger *zap.Logger) (*domain.Response, error) {
	if err := g.validate(req); err != nil {
		return nil, err
	}

	payload, err := g.processor.BuildRequest(req)
	if err != nil {
		return nil, err
	}

	logger.Info("Sending gateway operation",
		zap.Int("payload_bytes", len(payload.Body)),
	)

	ctx, cancel := resilience.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := g.transport.Post(ctx, g.processor.Endpoint(req.Mode), payload)
	if err != nil {
		if !pkgerrors.IsNetwork(err) {
			err = pkgerrors.NewNetworkError(err)
		}
		return nil, err
	}

	reply, err := g.processor.ParseResponse(req.Operation, body)
	if err != nil {
		if !pkgerrors.IsParse(err) {
			err = pkgerrors.NewXMLParseError(body, err)
		}
		return nil, err
	}

	if err := g.processor.MapError(reply); err != nil {
		return nil, err
	}

	return newResponse(reply, req.Mode, body), nil
}

// validate checks instrument and reference presence before anything is built
func (g *Gateway) validate(req *ports.Request) error {
	if req.Operation.NeedsCard() {
		if req.Card == nil {
			return pkgerrors.NewValidationError("credit_card", "is required")
		}
	} else if strings.TrimSpace(req.Authorization) == "" {
		return pkgerrors.NewValidationError("authorization", "is required")
	}

	if req.Operation.NeedsAmount() && req.Amount.IsZero() {
		return pkgerrors.NewValidationError("amount", "must be greater than zero")
	}

	if req.ForcedOutcome() != domain.TestOutcomeUnset {
		forcer, ok := g.processor.(ports.OutcomeForcer)
		if !ok || !forcer.SupportsForcedOutcome() {
			return pkgerrors.NewValidationError("test_outcome",
				g.processor.Name()+" does not support forced test outcomes")
		}
	}
	return nil
}

func newResponse(reply *ports.Reply, mode domain.Mode, raw []byte) *domain.Response {
	opts := domain.ResponseOptions{
		Test:         mode.IsTest(),
		ResponseCode: reply.ResponseCode,
		AVSResult:    reply.AVSResult,
		CVVResult:    reply.CVVResult,
		Category:     reply.Category,
		Params:       reply.Params,
		Raw:          raw,
	}
	if reply.Success {
		opts.Authorization = reply.Authorization
	}
	return domain.NewResponse(reply.Success, reply.Message, opts)
}
