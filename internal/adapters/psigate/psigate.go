// Package psigate adapts the Psigate XML Messenger interface: an <Order>
// document is POSTed over HTTPS and a <Result> document comes back.
package psigate

import (
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
)

// Name is the registry identifier
const Name = "psigate"

// Default XML Messenger endpoints
const (
	DefaultTestURL = "https://dev.psigate.com:7989/Messenger/XMLMessenger"
	DefaultLiveURL = "https://secure.psigate.com:7934/Messenger/XMLMessenger"
)

// Option keys
const (
	OptionStoreID    = "store_id"
	OptionPassphrase = "passphrase"
	OptionTestURL    = "test_url"
	OptionLiveURL    = "live_url"
)

// RequiredOptions lists the keys New refuses to run without
func RequiredOptions() []string {
	return []string{OptionStoreID, OptionPassphrase}
}

// Config holds Psigate credentials and endpoints
type Config struct {
	StoreID    string
	Passphrase string
	TestURL    string
	LiveURL    string
}

// Adapter implements ports.Processor for Psigate
type Adapter struct {
	config Config
	logger *zap.Logger
}

var (
	_ ports.Processor     = (*Adapter)(nil)
	_ ports.OutcomeForcer = (*Adapter)(nil)
)

// New creates a Psigate adapter from processor options
func New(opts ports.Options, logger *zap.Logger) (*Adapter, error) {
	if err := opts.Require(Name, RequiredOptions()...); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		config: Config{
			StoreID:    opts.Get(OptionStoreID),
			Passphrase: opts.Get(OptionPassphrase),
			TestURL:    opts.GetOr(OptionTestURL, DefaultTestURL),
			LiveURL:    opts.GetOr(OptionLiveURL, DefaultLiveURL),
		},
		logger: logger,
	}, nil
}

func (a *Adapter) Name() string { return Name }

// Endpoint returns the XML Messenger URL for mode
func (a *Adapter) Endpoint(mode domain.Mode) string {
	if mode.IsTest() {
		return a.config.TestURL
	}
	return a.config.LiveURL
}

// SupportsForcedOutcome is true: the sandbox honors the TestResult element
func (a *Adapter) SupportsForcedOutcome() bool { return true }
