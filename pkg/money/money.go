// Package money converts caller-facing decimal amounts into the integer
// minor-unit representation processors expect, without floating point drift.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// DefaultCurrency is used when no currency is supplied
const DefaultCurrency = "USD"

// maxMinorUnits is the largest amount, in minor units, that MinorUnits can return
var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Minor-unit exponents (ISO 4217). Currencies not listed are rejected.
var currencyExponents = map[string]int32{
	"AUD": 2,
	"CAD": 2,
	"CHF": 2,
	"EUR": 2,
	"GBP": 2,
	"NZD": 2,
	"USD": 2,
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// Money is a non-negative amount in major units of a currency.
// The zero value is 0.00 USD.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New validates amount against the currency's minor-unit granularity
func New(amount decimal.Decimal, currency string) (Money, error) {
	currency = normalizeCurrency(currency)
	exp, ok := currencyExponents[currency]
	if !ok {
		return Money{}, pkgerrors.NewValidationError("currency", fmt.Sprintf("unsupported currency %q", currency))
	}
	if amount.IsNegative() {
		return Money{}, pkgerrors.NewValidationError("amount", "must not be negative")
	}
	if !amount.Equal(amount.Truncate(exp)) {
		return Money{}, pkgerrors.NewValidationError("amount",
			fmt.Sprintf("%s has more precision than %s allows (%d decimal places)", amount.String(), currency, exp))
	}
	if amount.Shift(exp).GreaterThan(maxMinorUnits) {
		return Money{}, pkgerrors.NewValidationError("amount",
			fmt.Sprintf("%s exceeds the largest representable %s amount", amount.String(), currency))
	}
	return Money{amount: amount, currency: currency}, nil
}

// Parse reads a decimal string such as "10.50"
func Parse(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, pkgerrors.NewValidationError("amount", fmt.Sprintf("invalid decimal %q", s))
	}
	return New(d, currency)
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s, currency string) Money {
	m, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat rounds f to the currency's granularity. Floats are inexact by nature,
// so this is the only constructor that rounds.
func FromFloat(f float64, currency string) (Money, error) {
	currency = normalizeCurrency(currency)
	exp, ok := currencyExponents[currency]
	if !ok {
		return Money{}, pkgerrors.NewValidationError("currency", fmt.Sprintf("unsupported currency %q", currency))
	}
	return New(decimal.NewFromFloat(f).Round(exp), currency)
}

// FromMinorUnits builds a Money from an integer count of minor units (e.g. cents)
func FromMinorUnits(units int64, currency string) (Money, error) {
	currency = normalizeCurrency(currency)
	exp, ok := currencyExponents[currency]
	if !ok {
		return Money{}, pkgerrors.NewValidationError("currency", fmt.Sprintf("unsupported currency %q", currency))
	}
	return New(decimal.New(units, -exp), currency)
}

// Exponent returns the number of minor-unit digits for currency
func Exponent(currency string) (int32, bool) {
	exp, ok := currencyExponents[normalizeCurrency(currency)]
	return exp, ok
}

// MinorUnits returns the exact integer minor-unit value
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(m.exponent()).IntPart()
}

// Decimal returns the major-unit amount
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Currency returns the ISO 4217 code
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// String formats the amount with exactly the currency's number of decimals, e.g. "10.50"
func (m Money) String() string {
	return m.amount.StringFixed(m.exponent())
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Cmp compares two amounts of the same currency
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Add returns m + other
func (m Money) Add(other Money) (Money, error) {
	if m.Currency() != other.Currency() {
		return Money{}, pkgerrors.NewValidationError("currency",
			fmt.Sprintf("currency mismatch: %s vs %s", m.Currency(), other.Currency()))
	}
	return New(m.amount.Add(other.amount), m.Currency())
}

// Sub returns m - other; the result must stay non-negative
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency() != other.Currency() {
		return Money{}, pkgerrors.NewValidationError("currency",
			fmt.Sprintf("currency mismatch: %s vs %s", m.Currency(), other.Currency()))
	}
	return New(m.amount.Sub(other.amount), m.Currency())
}

func (m Money) exponent() int32 {
	if exp, ok := currencyExponents[m.Currency()]; ok {
		return exp
	}
	return 2
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// FormatMinorUnits renders a minor-unit count as a major-unit decimal string,
// e.g. 1050 USD -> "10.50"
func FormatMinorUnits(units int64, currency string) string {
	exp, ok := Exponent(currency)
	if !ok {
		exp = 2
	}
	return decimal.New(units, -exp).StringFixed(exp)
}
