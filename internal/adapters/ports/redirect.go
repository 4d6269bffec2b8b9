package ports

import (
	"net/url"

	"github.com/kevin07696/merchant-gateway/internal/domain"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

// RedirectBuilder builds hosted-checkout URLs. The customer's browser is sent to
// the URL; there is no network call. Builders whose processor reports the
// outcome on the return URL also implement CallbackParser.
type RedirectBuilder interface {
	// Name returns the registry identifier (e.g. "onestopsecure")
	Name() string

	// BuildRedirectURL merges fixed processor parameters with customer data and
	// appends them as a query string to the test or live base endpoint.
	// Returns a *errors.ValidationError if a required field is missing.
	BuildRedirectURL(amount money.Money, customer *domain.CustomerData, mode domain.Mode) (*url.URL, error)
}

// CallbackParser is implemented by redirect builders whose processor sends the
// customer back with the outcome in the return URL's query (EPX Browser Post).
type CallbackParser interface {
	ParseRedirectResponse(params url.Values, mode domain.Mode) (*domain.Response, error)
}
