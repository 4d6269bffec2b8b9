// Package epx adapts North's EPX interfaces: Server Post (form fields in,
// <RESPONSE><FIELDS> XML out) as a gateway processor, and Browser Post as a
// hosted-checkout redirect builder.
package epx

import (
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
)

// Registry identifiers
const (
	Name            = "epx"
	BrowserPostName = "epx_browser_post"
)

// Option keys
const (
	OptionCustNbr     = "cust_nbr"
	OptionMerchNbr    = "merch_nbr"
	OptionDBANbr      = "dba_nbr"
	OptionTerminalNbr = "terminal_nbr"
	OptionTestURL     = "test_url"
	OptionLiveURL     = "live_url"
)

// Server Post endpoints
const (
	DefaultSandboxURL = "https://secure.epxuap.com"
	DefaultLiveURL    = "https://epxnow.com/epx/server_post"
)

// RequiredOptions lists the merchant hierarchy every EPX request carries
func RequiredOptions() []string {
	return []string{OptionCustNbr, OptionMerchNbr, OptionDBANbr, OptionTerminalNbr}
}

// Credentials identify the merchant in EPX's four-level hierarchy
type Credentials struct {
	CustNbr     string
	MerchNbr    string
	DBANbr      string
	TerminalNbr string
}

func credentialsFrom(opts ports.Options) Credentials {
	return Credentials{
		CustNbr:     opts.Get(OptionCustNbr),
		MerchNbr:    opts.Get(OptionMerchNbr),
		DBANbr:      opts.Get(OptionDBANbr),
		TerminalNbr: opts.Get(OptionTerminalNbr),
	}
}

// ServerPostConfig contains configuration for the Server Post adapter
type ServerPostConfig struct {
	Credentials Credentials

	// Sandbox: https://secure.epxuap.com
	// Production: https://epxnow.com/epx/server_post
	SandboxURL string
	LiveURL    string
}

// ServerPostAdapter implements ports.Processor over EPX Server Post
type ServerPostAdapter struct {
	config *ServerPostConfig
	logger *zap.Logger
}

var _ ports.Processor = (*ServerPostAdapter)(nil)

// NewServerPostAdapter creates a new EPX Server Post adapter from processor options
func NewServerPostAdapter(opts ports.Options, logger *zap.Logger) (*ServerPostAdapter, error) {
	if err := opts.Require(Name, RequiredOptions()...); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ServerPostAdapter{
		config: &ServerPostConfig{
			Credentials: credentialsFrom(opts),
			SandboxURL:  opts.GetOr(OptionTestURL, DefaultSandboxURL),
			LiveURL:     opts.GetOr(OptionLiveURL, DefaultLiveURL),
		},
		logger: logger,
	}, nil
}

func (a *ServerPostAdapter) Name() string { return Name }

// Endpoint returns the Server Post URL for mode
func (a *ServerPostAdapter) Endpoint(mode domain.Mode) string {
	if mode.IsTest() {
		return a.config.SandboxURL
	}
	return a.config.LiveURL
}
