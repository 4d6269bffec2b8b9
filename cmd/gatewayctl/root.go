package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/config"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	"github.com/kevin07696/merchant-gateway/internal/gateway"
	"github.com/kevin07696/merchant-gateway/internal/processors"
	"github.com/kevin07696/merchant-gateway/internal/transport"
	"github.com/kevin07696/merchant-gateway/pkg/encoding"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/observability"
)

// globalFlags override the environment configuration
type globalFlags struct {
	processor   string
	mode        string
	testOutcome string
	timeout     time.Duration
	options     []string // key=value
	trace       bool
	metrics     bool
}

// app is the per-invocation state shared by subcommands
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *zap.Logger

	shutdownTracing func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gatewayctl",
		Short: "Unified payment gateway client",
		Long: `Issue purchase, authorize, capture, void and credit operations or build
hosted-checkout redirect URLs against any supported processor.

Configuration comes from GATEWAY_* environment variables; flags override them.
Option values of the form "secret:<path>" are read from SECRETS_BACKEND.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&a.flags.processor, "processor", "p", "", "processor identifier (overrides GATEWAY_PROCESSOR)")
	f.StringVar(&a.flags.mode, "mode", "", "live or test (overrides GATEWAY_MODE)")
	f.StringVar(&a.flags.testOutcome, "test-outcome", "", "always_authorize or always_decline (test mode only)")
	f.DurationVar(&a.flags.timeout, "timeout", 0, "per-operation timeout (overrides GATEWAY_TIMEOUT)")
	f.StringArrayVarP(&a.flags.options, "option", "o", nil, "processor option key=value, repeatable")
	f.BoolVar(&a.flags.trace, "trace", false, "print OpenTelemetry spans to stderr")
	f.BoolVar(&a.flags.metrics, "metrics", false, "print gateway Prometheus metrics to stderr on exit")

	rootCmd.AddCommand(
		newPurchaseCmd(a),
		newAuthorizeCmd(a),
		newCaptureCmd(a),
		newVoidCmd(a),
		newCreditCmd(a),
		newRedirectCmd(a),
		newRedirectCallbackCmd(a),
		newProcessorsCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	// Listing processors needs no configuration
	if cmd.Name() == "processors" {
		a.logger = zap.NewNop()
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return a.fail(cmd, err)
	}
	a.cfg = cfg

	logger, err := initLogger(cfg.Logger, cmd.ErrOrStderr())
	if err != nil {
		return a.fail(cmd, fmt.Errorf("failed to initialize logger: %w", err))
	}
	a.logger = logger

	if a.flags.trace {
		shutdown, err := initTracing(cmd.ErrOrStderr())
		if err != nil {
			return a.fail(cmd, err)
		}
		a.shutdownTracing = shutdown
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	if a.flags.metrics {
		if err := observability.WriteMetrics(cmd.ErrOrStderr(), nil); err != nil {
			a.logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(cmd.Context()); err != nil {
			a.logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// loadConfig reads the environment and applies flag overrides before validation
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.ReadEnv()
	if err != nil {
		return nil, err
	}

	if a.flags.processor != "" {
		cfg.Gateway.Processor = strings.ToLower(a.flags.processor)
	}
	if a.flags.mode != "" {
		mode, err := domain.ParseMode(a.flags.mode)
		if err != nil {
			return nil, err
		}
		cfg.Gateway.Mode = mode
	}
	if a.flags.testOutcome != "" {
		outcome, err := domain.ParseTestOutcome(a.flags.testOutcome)
		if err != nil {
			return nil, err
		}
		cfg.Gateway.TestOutcome = outcome
	}
	if a.flags.timeout > 0 {
		cfg.Gateway.Timeout = a.flags.timeout
	}
	for _, kv := range a.flags.options {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --option %q, expected key=value", kv)
		}
		cfg.Gateway.Options[strings.ToLower(strings.TrimSpace(key))] = value
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvedOptions replaces "secret:" references in the processor options
func (a *app) resolvedOptions(ctx context.Context) (ports.Options, error) {
	sm, err := config.NewSecretManager(ctx, a.cfg.Secrets, a.logger)
	if err != nil {
		return nil, err
	}
	return config.ResolveOptions(ctx, a.cfg.Gateway.Processor, a.cfg.Gateway.Options, sm)
}

// newGateway builds the processor, the HTTPS transport and the gateway
func (a *app) newGateway(ctx context.Context) (*gateway.Gateway, error) {
	opts, err := a.resolvedOptions(ctx)
	if err != nil {
		return nil, err
	}

	processor, err := processors.NewProcessor(a.cfg.Gateway.Processor, opts, a.logger)
	if err != nil {
		return nil, err
	}

	environment := "production"
	if a.cfg.Gateway.Mode.IsTest() {
		environment = "sandbox"
	}
	tr := transport.NewHTTPS(transport.DefaultConfig(environment), a.logger)

	return gateway.New(processor, tr, a.logger, gateway.Options{
		Mode:        a.cfg.Gateway.Mode,
		TestOutcome: a.cfg.Gateway.TestOutcome,
		Timeout:     a.cfg.Gateway.Timeout,
	})
}

// newHostedCheckout builds a redirect builder wrapped with the configured mode
func (a *app) newHostedCheckout(ctx context.Context) (*gateway.HostedCheckout, error) {
	opts, err := a.resolvedOptions(ctx)
	if err != nil {
		return nil, err
	}
	builder, err := processors.NewRedirectBuilder(a.cfg.Gateway.Processor, opts, a.logger)
	if err != nil {
		return nil, err
	}
	return gateway.NewHostedCheckout(builder, a.logger, a.cfg.Gateway.Mode)
}

// errorOutput is printed to stderr when an operation fails
type errorOutput struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// fail prints err as JSON and returns it so the process exits non-zero
func (a *app) fail(cmd *cobra.Command, err error) error {
	kind, ok := pkgerrors.KindOf(err)
	if !ok {
		kind = "error"
	}
	out, encErr := encoding.EncodeJSONIndent(errorOutput{Error: string(kind), Message: err.Error()})
	if encErr == nil {
		_, _ = cmd.ErrOrStderr().Write(out)
	}
	return err
}

// print writes v to stdout as indented JSON
func (a *app) print(w io.Writer, v interface{}) error {
	out, err := encoding.EncodeJSONIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// initLogger initializes the logger
func initLogger(cfg config.LoggerConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	// Logs go to stderr so stdout carries only the JSON result
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}
