package domain

import (
	"fmt"
	"strings"
)

// Mode selects the processor's sandbox or production endpoint
type Mode string

const (
	ModeLive Mode = "live"
	ModeTest Mode = "test"
)

// ParseMode accepts "live"/"production" and "test"/"sandbox"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "live", "production":
		return ModeLive, nil
	case "test", "sandbox":
		return ModeTest, nil
	default:
		return "", fmt.Errorf("invalid mode: %q", s)
	}
}

func (m Mode) IsTest() bool {
	return m == ModeTest
}

// TestOutcome forces a sandbox decision. Only meaningful when Mode is ModeTest.
type TestOutcome string

const (
	TestOutcomeUnset           TestOutcome = ""
	TestOutcomeAlwaysAuthorize TestOutcome = "always_authorize"
	TestOutcomeAlwaysDecline   TestOutcome = "always_decline"
)

// ParseTestOutcome accepts the constant names plus "auth"/"decline" shorthands
func ParseTestOutcome(s string) (TestOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset", "none":
		return TestOutcomeUnset, nil
	case "always_authorize", "authorize", "auth":
		return TestOutcomeAlwaysAuthorize, nil
	case "always_decline", "decline":
		return TestOutcomeAlwaysDecline, nil
	default:
		return "", fmt.Errorf("invalid test outcome: %q", s)
	}
}

// Operation is one of the unified gateway operations
type Operation string

const (
	OperationPurchase  Operation = "purchase"
	OperationAuthorize Operation = "authorize"
	OperationCapture   Operation = "capture"
	OperationVoid      Operation = "void"
	OperationCredit    Operation = "credit"
)

// NeedsCard reports whether the operation takes a card rather than an authorization reference
func (o Operation) NeedsCard() bool {
	return o == OperationPurchase || o == OperationAuthorize
}

// NeedsAmount reports whether the operation carries an amount
func (o Operation) NeedsAmount() bool {
	return o != OperationVoid
}
