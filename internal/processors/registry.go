// Package processors selects a processor adapter or redirect builder by its
// registry identifier.
package processors

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/epx"
	"github.com/kevin07696/merchant-gateway/internal/adapters/onestopsecure"
	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/adapters/psigate"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// Options are processor credentials keyed by lowercase option name
type Options = ports.Options

// ProcessorFactory builds a processor adapter from options
type ProcessorFactory func(opts Options, logger *zap.Logger) (ports.Processor, error)

// RedirectFactory builds a hosted-checkout redirect builder from options
type RedirectFactory func(opts Options, logger *zap.Logger) (ports.RedirectBuilder, error)

var processorFactories = map[string]ProcessorFactory{
	psigate.Name: func(opts Options, logger *zap.Logger) (ports.Processor, error) {
		return psigate.New(opts, logger)
	},
	epx.Name: func(opts Options, logger *zap.Logger) (ports.Processor, error) {
		return epx.NewServerPostAdapter(opts, logger)
	},
}

var redirectFactories = map[string]RedirectFactory{
	onestopsecure.Name: func(opts Options, logger *zap.Logger) (ports.RedirectBuilder, error) {
		return onestopsecure.New(opts, logger)
	},
	epx.BrowserPostName: func(opts Options, logger *zap.Logger) (ports.RedirectBuilder, error) {
		return epx.NewBrowserPostAdapter(opts, logger)
	},
}

// requiredOptions is reported by RequiredOptions for usage output
var requiredOptions = map[string]func() []string{
	psigate.Name:        psigate.RequiredOptions,
	epx.Name:            epx.RequiredOptions,
	epx.BrowserPostName: epx.BrowserPostRequiredOptions,
	onestopsecure.Name:  onestopsecure.RequiredOptions,
}

// NewProcessor returns the processor adapter registered under name.
// Options are copied; later changes by the caller have no effect.
func NewProcessor(name string, opts Options, logger *zap.Logger) (ports.Processor, error) {
	factory, ok := processorFactories[normalize(name)]
	if !ok {
		return nil, unknownProcessor(name)
	}
	return factory(opts.Clone(), logger)
}

// NewRedirectBuilder returns the hosted-checkout builder registered under name
func NewRedirectBuilder(name string, opts Options, logger *zap.Logger) (ports.RedirectBuilder, error) {
	factory, ok := redirectFactories[normalize(name)]
	if !ok {
		return nil, unknownProcessor(name)
	}
	return factory(opts.Clone(), logger)
}

// IsRedirect reports whether name identifies a redirect-only integration
func IsRedirect(name string) bool {
	_, ok := redirectFactories[normalize(name)]
	return ok
}

// Names lists every registered identifier, sorted
func Names() []string {
	names := make([]string, 0, len(processorFactories)+len(redirectFactories))
	for n := range processorFactories {
		names = append(names, n)
	}
	for n := range redirectFactories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RequiredOptions lists the option keys name cannot be constructed without
func RequiredOptions(name string) ([]string, error) {
	fn, ok := requiredOptions[normalize(name)]
	if !ok {
		return nil, unknownProcessor(name)
	}
	return fn(), nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func unknownProcessor(name string) error {
	return pkgerrors.NewValidationError("processor",
		fmt.Sprintf("unknown processor %q (available: %s)", name, strings.Join(Names(), ", ")))
}
