// Package onestopsecure builds OneStopSecure hosted-payment redirect URLs.
// The processor collects the card itself, so there is no response to parse.
package onestopsecure

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

const Name = "onestopsecure"

const (
	DefaultTestURL = "https://uwa-dev.onestopsecure.com/UWA/tranadd"
	DefaultLiveURL = "https://payments.uwa.edu.au/integrated/tranadd"
)

// Option keys. dev_url and prod_url only take effect as a pair.
const (
	OptionUDSAction     = "uds_action"
	OptionGLCode        = "glcode"
	OptionDevURL        = "dev_url"
	OptionProdURL       = "prod_url"
	OptionUnitSurcharge = "unit_surcharge"
)

const tranType = "10437"

// DefaultUnitSurcharge is added to every UnitAmountInctax unless unit_surcharge
// overrides it. Set unit_surcharge to "0" to send the bare amount.
const DefaultUnitSurcharge = "12"

func RequiredOptions() []string {
	return []string{OptionUDSAction, OptionGLCode}
}

// Builder implements ports.RedirectBuilder
type Builder struct {
	udsAction string
	glCode    string
	testURL   string
	liveURL   string
	surcharge money.Money
	logger    *zap.Logger
}

var _ ports.RedirectBuilder = (*Builder)(nil)

// New creates a redirect builder from processor options
func New(opts ports.Options, logger *zap.Logger) (*Builder, error) {
	if err := opts.Require(Name, RequiredOptions()...); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Builder{
		udsAction: opts.Get(OptionUDSAction),
		glCode:    opts.Get(OptionGLCode),
		testURL:   DefaultTestURL,
		liveURL:   DefaultLiveURL,
		logger:    logger,
	}
	if dev, prod := opts.Get(OptionDevURL), opts.Get(OptionProdURL); dev != "" && prod != "" {
		b.testURL, b.liveURL = dev, prod
	}

	surcharge, err := money.Parse(opts.GetOr(OptionUnitSurcharge, DefaultUnitSurcharge), money.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid %s: %w", Name, OptionUnitSurcharge, err)
	}
	b.surcharge = surcharge
	return b, nil
}

func (b *Builder) Name() string { return Name }

// BuildRedirectURL appends the fixed and per-customer fields to the endpoint for mode
func (b *Builder) BuildRedirectURL(amount money.Money, customer *domain.CustomerData, mode domain.Mode) (*url.URL, error) {
	if customer == nil {
		return nil, pkgerrors.NewValidationError("customer", "is required")
	}
	for _, f := range []struct{ field, value string }{
		{"customer_id", customer.CustomerID},
		{"first_name", customer.FirstName},
		{"last_name", customer.LastName},
		{"email", customer.Email},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, pkgerrors.NewValidationError(f.field, "is required")
		}
	}

	unitAmount, err := b.unitAmount(amount)
	if err != nil {
		return nil, err
	}

	base := b.liveURL
	if mode.IsTest() {
		base = b.testURL
	}
	target, err := url.Parse(base)
	if err != nil {
		return nil, pkgerrors.NewValidationError("endpoint", fmt.Sprintf("invalid redirect base url %q", base))
	}

	params := url.Values{}
	params.Set("tran-type", tranType)
	params.Set("UDS_ACTION", b.udsAction)
	params.Set("GLCODE", b.glCode)
	params.Set("CustomerId", customer.CustomerID)
	params.Set("FNAME", customer.FirstName)
	params.Set("SNAME", customer.LastName)
	params.Set("Email", customer.Email)
	params.Set("UnitAmountInctax", unitAmount.String())
	target.RawQuery = params.Encode()

	b.logger.Info("Built OneStopSecure redirect",
		zap.String("customer_id", customer.CustomerID),
		zap.String("amount", unitAmount.String()),
		zap.String("mode", string(mode)),
	)
	return target, nil
}

// unitAmount adds the configured surcharge, read in the charge's currency
func (b *Builder) unitAmount(amount money.Money) (money.Money, error) {
	if b.surcharge.IsZero() {
		return amount, nil
	}
	surcharge, err := money.New(b.surcharge.Decimal(), amount.Currency())
	if err != nil {
		return money.Money{}, err
	}
	return amount.Add(surcharge)
}
