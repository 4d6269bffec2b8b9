package epx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

// Browser Post option keys
const (
	OptionTAC            = "tac"
	OptionMACKey         = "mac_key"
	OptionAllowedDomains = "allowed_redirect_domains" // comma separated
	OptionTranGroup      = "tran_group"
)

// Browser Post endpoints
const (
	DefaultBrowserPostSandboxURL = "https://services.epxuap.com/browserpost/"
	DefaultBrowserPostLiveURL    = "https://epxnow.com/epx/browser_post"
)

const defaultTranGroup = "SALE"

// macFields are signed in this order
var macFields = []string{"CUST_NBR", "MERCH_NBR", "AUTH_GUID", "AUTH_RESP", "AMOUNT", "TRAN_NBR", "TRAN_GROUP"}

// BrowserPostRequiredOptions lists the keys NewBrowserPostAdapter refuses to run without
func BrowserPostRequiredOptions() []string {
	return append(RequiredOptions(), OptionTAC)
}

// BrowserPostConfig contains configuration for EPX Browser Post adapter
type BrowserPostConfig struct {
	Credentials Credentials

	// Terminal Authorization Code issued by the key exchange
	TAC string

	// Sandbox: https://services.epxuap.com/browserpost/
	// Production: https://epxnow.com/epx/browser_post
	SandboxURL string
	LiveURL    string

	TranGroup string

	// MACKey enables signature validation of redirect callbacks when set
	MACKey string

	// AllowedDomains restricts REDIRECT_URL hosts (subdomains included). Empty allows any.
	AllowedDomains []string
}

// BrowserPostAdapter builds hosted-checkout URLs and reads the callback EPX
// sends back to REDIRECT_URL
type BrowserPostAdapter struct {
	config *BrowserPostConfig
	logger *zap.Logger
}

var _ ports.RedirectBuilder = (*BrowserPostAdapter)(nil)

var _ ports.CallbackParser = (*BrowserPostAdapter)(nil)

// NewBrowserPostAdapter creates a new EPX Browser Post adapter
func NewBrowserPostAdapter(opts ports.Options, logger *zap.Logger) (*BrowserPostAdapter, error) {
	if err := opts.Require(BrowserPostName, BrowserPostRequiredOptions()...); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var domains []string
	for _, d := range strings.Split(opts.Get(OptionAllowedDomains), ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}

	return &BrowserPostAdapter{
		config: &BrowserPostConfig{
			Credentials:    credentialsFrom(opts),
			TAC:            opts.Get(OptionTAC),
			SandboxURL:     opts.GetOr(OptionTestURL, DefaultBrowserPostSandboxURL),
			LiveURL:        opts.GetOr(OptionLiveURL, DefaultBrowserPostLiveURL),
			TranGroup:      opts.GetOr(OptionTranGroup, defaultTranGroup),
			MACKey:         opts.Get(OptionMACKey),
			AllowedDomains: domains,
		},
		logger: logger,
	}, nil
}

func (a *BrowserPostAdapter) Name() string { return BrowserPostName }

// BuildRedirectURL merges the fixed merchant fields with the customer's data
// and appends them to the Browser Post endpoint for mode
func (a *BrowserPostAdapter) BuildRedirectURL(amount money.Money, customer *domain.CustomerData, mode domain.Mode) (*url.URL, error) {
	if customer == nil {
		return nil, pkgerrors.NewValidationError("customer", "is required")
	}
	if amount.IsZero() {
		return nil, pkgerrors.NewValidationError("amount", "must be greater than zero")
	}
	if strings.TrimSpace(customer.OrderID) == "" {
		return nil, pkgerrors.NewValidationError("order_id", "is required")
	}
	if strings.TrimSpace(customer.RedirectURL) == "" {
		return nil, pkgerrors.NewValidationError("redirect_url", "is required")
	}
	if err := a.ValidateRedirectURL(customer.RedirectURL, mode); err != nil {
		return nil, err
	}

	base := a.config.LiveURL
	if mode.IsTest() {
		base = a.config.SandboxURL
	}
	target, err := url.Parse(base)
	if err != nil {
		return nil, pkgerrors.NewValidationError("endpoint", fmt.Sprintf("invalid browser post url %q", base))
	}

	f := newForm()
	defer f.release()

	f.merchant(a.config.Credentials)
	f.set("TAC", a.config.TAC)
	f.set("TRAN_CODE", string(TransactionTypeSale))
	f.set("TRAN_GROUP", a.config.TranGroup)
	f.set("TRAN_NBR", TranNbr(customer.OrderID))
	f.set("AMOUNT", money.FormatMinorUnits(amount.MinorUnits(), amount.Currency()))
	f.set("REDIRECT_URL", customer.RedirectURL)
	// Decline and error redirects land on the same page
	f.set("REDIRECT_URL_DECLINE", customer.RedirectURL)
	f.set("REDIRECT_URL_ERROR", customer.RedirectURL)
	f.setIfPresent("USER_DATA_1", customer.CustomerID)
	f.setIfPresent("FIRST_NAME", customer.FirstName)
	f.setIfPresent("LAST_NAME", customer.LastName)
	f.setIfPresent("EMAIL", customer.Email)

	target.RawQuery = f.encode()

	a.logger.Info("Built Browser Post redirect",
		zap.String("tran_nbr", f.get("TRAN_NBR")),
		zap.String("amount", f.get("AMOUNT")),
		zap.String("mode", string(mode)),
	)
	return target, nil
}

// ParseRedirectResponse turns the query EPX appends to REDIRECT_URL into a
// normalized response. The MAC is checked first when a MAC key is configured.
func (a *BrowserPostAdapter) ParseRedirectResponse(params url.Values, mode domain.Mode) (*domain.Response, error) {
	if err := a.ValidateResponseMAC(params); err != nil {
		return nil, err
	}

	authGUID := params.Get(fieldAuthGUID)
	authResp := params.Get(fieldAuthResp)

	a.logger.Info("Parsing Browser Post redirect response",
		zap.String("auth_guid", authGUID),
		zap.String("auth_resp", authResp),
	)

	if authResp == "" {
		return nil, &pkgerrors.ParseError{Message: "AUTH_RESP is missing from redirect response"}
	}

	// Convert params map to simple string map for raw params
	rawParams := make(map[string]string, len(params))
	for key := range params {
		rawParams[key] = params.Get(key)
	}

	info := GetCreditCardResponseCode(authResp)
	approved := authResp == approvedAuthResp
	if approved && authGUID == "" {
		return nil, &pkgerrors.ParseError{Message: "AUTH_GUID is missing from redirect response"}
	}

	message := messageSuccess
	authorization := ""
	if approved {
		authorization = authGUID
	} else {
		message = params.Get(fieldAuthRespText)
		if message == "" {
			message = info.Display
		}
	}

	return domain.NewResponse(approved, message, domain.ResponseOptions{
		Authorization: authorization,
		Test:          mode.IsTest(),
		ResponseCode:  authResp,
		AVSResult:     params.Get(fieldAuthAVS),
		CVVResult:     params.Get(fieldAuthCVV2),
		Category:      info.Category,
		Params:        rawParams,
	}), nil
}

// ValidateResponseMAC checks the HMAC-SHA256 signature in the MAC parameter.
// A no-op when no MAC key is configured.
func (a *BrowserPostAdapter) ValidateResponseMAC(params url.Values) error {
	if a.config.MACKey == "" {
		return nil
	}

	responseMAC := params.Get("MAC")
	if responseMAC == "" {
		return pkgerrors.NewValidationError("MAC", "is missing from response")
	}

	expectedMAC := SignResponse(params, a.config.MACKey)
	if !hmac.Equal([]byte(expectedMAC), []byte(strings.ToLower(responseMAC))) {
		a.logger.Error("MAC validation failed", zap.String("tran_nbr", params.Get("TRAN_NBR")))
		return pkgerrors.NewValidationError("MAC", "signature mismatch")
	}
	return nil
}

// SignResponse computes the hex HMAC-SHA256 EPX sends as MAC
func SignResponse(params url.Values, key string) string {
	var sb strings.Builder
	for _, field := range macFields {
		sb.WriteString(params.Get(field))
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(sb.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateRedirectURL rejects redirect targets outside the allow list, and
// plain HTTP outside test mode
func (a *BrowserPostAdapter) ValidateRedirectURL(redirectURL string, mode domain.Mode) error {
	parsed, err := url.Parse(redirectURL)
	if err != nil || parsed.Host == "" {
		return pkgerrors.NewValidationError("redirect_url", fmt.Sprintf("invalid redirect URL %q", redirectURL))
	}

	if parsed.Scheme != "https" && !mode.IsTest() {
		return pkgerrors.NewValidationError("redirect_url", "must use HTTPS in live mode")
	}

	if len(a.config.AllowedDomains) == 0 {
		return nil
	}
	host := parsed.Hostname()
	for _, d := range a.config.AllowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return pkgerrors.NewValidationError("redirect_url", fmt.Sprintf("domain %s is not in allowed list", host))
}
