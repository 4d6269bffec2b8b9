package gateway

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
	"github.com/kevin07696/merchant-gateway/pkg/observability"
)

// HostedCheckout owns the mode for a redirect-only processor. It makes no
// network call; the customer's browser follows the returned URL.
type HostedCheckout struct {
	builder ports.RedirectBuilder
	logger  *zap.Logger
	mode    domain.Mode
}

// NewHostedCheckout wraps builder. Mode defaults to live.
func NewHostedCheckout(builder ports.RedirectBuilder, logger *zap.Logger, mode domain.Mode) (*HostedCheckout, error) {
	if builder == nil {
		return nil, pkgerrors.NewConfigurationError("", "redirect_builder")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = domain.ModeLive
	}
	return &HostedCheckout{
		builder: builder,
		logger:  logger.With(zap.String("processor", builder.Name())),
		mode:    mode,
	}, nil
}

func (h *HostedCheckout) Mode() domain.Mode { return h.mode }

func (h *HostedCheckout) SetMode(mode domain.Mode) {
	h.mode = mode
}

// RedirectURL builds the checkout URL for amount and customer
func (h *HostedCheckout) RedirectURL(amount money.Money, customer *domain.CustomerData) (*url.URL, error) {
	u, err := h.builder.BuildRedirectURL(amount, customer, h.mode)
	if err != nil {
		observability.RecordRedirectURL(h.builder.Name(), "invalid")
		h.logger.Warn("Failed to build redirect URL", zap.Error(err))
		return nil, err
	}

	observability.RecordRedirectURL(h.builder.Name(), "built")
	h.logger.Info("Built hosted checkout redirect",
		zap.String("host", u.Host),
		zap.String("mode", string(h.mode)),
		zap.String("amount", amount.String()),
	)
	return u, nil
}

// ParseCallback normalizes the query a processor appends to the return URL.
// Processors that only redirect, like OneStopSecure, report nothing back.
func (h *HostedCheckout) ParseCallback(params url.Values) (*domain.Response, error) {
	parser, ok := h.builder.(ports.CallbackParser)
	if !ok {
		return nil, pkgerrors.NewValidationError("processor",
			fmt.Sprintf("%s does not return a callback", h.builder.Name()))
	}

	resp, err := parser.ParseRedirectResponse(params, h.mode)
	if err != nil {
		observability.RecordRedirectURL(h.builder.Name(), "callback_invalid")
		h.logger.Warn("Failed to parse hosted checkout callback", zap.Error(err))
		return nil, err
	}

	observability.RecordRedirectURL(h.builder.Name(), "callback")
	h.logger.Info("Parsed hosted checkout callback",
		zap.Bool("success", resp.Success()),
		zap.String("response_code", resp.ResponseCode()),
	)
	return resp, nil
}
