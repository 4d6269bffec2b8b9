package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Fixed diagnostic messages surfaced to callers verbatim
const (
	MsgCouldNotConnect = "couldn't connect to host"
	MsgXMLParse        = "Error parsing XML response from merchant"
)

// ErrorCategory represents the category of a processor outcome for handling
type ErrorCategory string

const (
	CategoryApproved          ErrorCategory = "approved"
	CategoryDeclined          ErrorCategory = "declined"
	CategoryInsufficientFunds ErrorCategory = "insufficient_funds"
	CategoryInvalidCard       ErrorCategory = "invalid_card"
	CategoryExpiredCard       ErrorCategory = "expired_card"
	CategoryFraud             ErrorCategory = "fraud"
	CategorySystemError       ErrorCategory = "system_error"
	CategoryNetworkError      ErrorCategory = "network_error"
	CategoryInvalidRequest    ErrorCategory = "invalid_request"
)

// Kind classifies a gateway failure
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindNetwork       Kind = "network"
	KindParse         Kind = "parse"
	KindMerchant      Kind = "merchant"
	KindValidation    Kind = "validation"
)

// ConfigurationError is returned at construction when required options are absent
type ConfigurationError struct {
	Processor string
	Missing   []string
}

func (e *ConfigurationError) Error() string {
	if e.Processor == "" {
		return fmt.Sprintf("missing required option(s): %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: missing required option(s): %s", e.Processor, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Kind() Kind { return KindConfiguration }

// NewConfigurationError creates a configuration error for the given missing keys
func NewConfigurationError(processor string, missing ...string) *ConfigurationError {
	return &ConfigurationError{
		Processor: processor,
		Missing:   missing,
	}
}

// NetworkError means the transport could not complete the exchange.
// Error() returns Message only so callers can match it exactly.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Kind() Kind { return KindNetwork }

// NewNetworkError wraps a connectivity failure with the normalized message
func NewNetworkError(err error) *NetworkError {
	return &NetworkError{
		Message: MsgCouldNotConnect,
		Err:     err,
	}
}

// ParseError means the response body could not be decoded in the expected wire format
type ParseError struct {
	Message string
	Body    []byte
	Err     error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Kind() Kind { return KindParse }

// NewXMLParseError creates the parse error used by XML-speaking processors
func NewXMLParseError(body []byte, err error) *ParseError {
	return &ParseError{
		Message: MsgXMLParse,
		Body:    body,
		Err:     err,
	}
}

// MerchantError means the processor decoded the response but rejected the request itself.
// Code and Message are the processor's own, preserved verbatim.
type MerchantError struct {
	Code    string
	Message string
}

func (e *MerchantError) Error() string {
	if e.Code == "" {
		return "Merchant error: " + e.Message
	}
	return fmt.Sprintf("Merchant error: %s:%s", e.Code, e.Message)
}

func (e *MerchantError) Kind() Kind { return KindMerchant }

// NewMerchantError creates a merchant error
func NewMerchantError(code, message string) *MerchantError {
	return &MerchantError{
		Code:    code,
		Message: message,
	}
}

// ValidationError represents input validation errors raised before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Kind() Kind { return KindValidation }

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// KindOf reports the Kind of the first classified error in err's chain
func KindOf(err error) (Kind, bool) {
	var k interface{ Kind() Kind }
	if stderrors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return stderrors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target *NetworkError
	return stderrors.As(err, &target)
}

func IsParse(err error) bool {
	var target *ParseError
	return stderrors.As(err, &target)
}

func IsMerchant(err error) bool {
	var target *MerchantError
	return stderrors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}
