package domain

import (
	"strings"
	"time"
	"unicode"

	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// CardBrand identifies the card network
type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandAmex       CardBrand = "amex"
	CardBrandDiscover   CardBrand = "discover"
	CardBrandUnknown    CardBrand = "unknown"
)

// CreditCard is the payment instrument passed to purchase and authorize.
// Number and VerificationValue are never logged; use Masked for display.
type CreditCard struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Number            string `json:"number"`
	Month             int    `json:"month"` // 1-12
	Year              int    `json:"year"`  // four digits, e.g. 2027
	VerificationValue string `json:"verification_value,omitempty"`
}

// Validate checks the fields every card operation needs
func (c *CreditCard) Validate() error {
	if c == nil {
		return pkgerrors.NewValidationError("credit_card", "is required")
	}
	if strings.TrimSpace(c.FirstName) == "" {
		return pkgerrors.NewValidationError("first_name", "is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return pkgerrors.NewValidationError("last_name", "is required")
	}

	number := c.Digits()
	if number == "" {
		return pkgerrors.NewValidationError("number", "is required")
	}
	if len(number) < 13 || len(number) > 19 {
		return pkgerrors.NewValidationError("number", "must be 13-19 digits")
	}
	if !luhnValid(number) {
		return pkgerrors.NewValidationError("number", "failed checksum")
	}

	if c.Month < 1 || c.Month > 12 {
		return pkgerrors.NewValidationError("month", "must be between 1 and 12")
	}
	if c.Year < 1000 || c.Year > 9999 {
		return pkgerrors.NewValidationError("year", "must be four digits")
	}

	if c.VerificationValue != "" {
		if len(c.VerificationValue) < 3 || len(c.VerificationValue) > 4 || !allDigits(c.VerificationValue) {
			return pkgerrors.NewValidationError("verification_value", "must be 3 or 4 digits")
		}
	}
	return nil
}

// Digits returns the card number with spaces and dashes removed
func (c *CreditCard) Digits() string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.Number)
}

// Name returns "First Last"
func (c *CreditCard) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// LastFour returns the last four digits of the card number
func (c *CreditCard) LastFour() string {
	d := c.Digits()
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

// Masked returns the number with all but the last four digits replaced
func (c *CreditCard) Masked() string {
	d := c.Digits()
	if len(d) <= 4 {
		return d
	}
	return strings.Repeat("X", len(d)-4) + d[len(d)-4:]
}

// Brand detects the card network from the number prefix
func (c *CreditCard) Brand() CardBrand {
	d := c.Digits()
	switch {
	case strings.HasPrefix(d, "4"):
		return CardBrandVisa
	case hasPrefixInRange(d, 51, 55, 2), hasPrefixInRange(d, 2221, 2720, 4):
		return CardBrandMastercard
	case strings.HasPrefix(d, "34"), strings.HasPrefix(d, "37"):
		return CardBrandAmex
	case strings.HasPrefix(d, "6011"), strings.HasPrefix(d, "65"):
		return CardBrandDiscover
	default:
		return CardBrandUnknown
	}
}

// IsExpired reports whether the card expired before now.
// A card is valid through the last day of its expiry month.
func (c *CreditCard) IsExpired(now time.Time) bool {
	if c.Month < 1 || c.Month > 12 {
		return true
	}
	firstOfNext := time.Date(c.Year, time.Month(c.Month)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.UTC().Before(firstOfNext)
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		r := rune(number[i])
		if !unicode.IsDigit(r) {
			return false
		}
		n := int(r - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasPrefixInRange(number string, lo, hi, width int) bool {
	if len(number) < width {
		return false
	}
	n := 0
	for _, r := range number[:width] {
		if !unicode.IsDigit(r) {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n >= lo && n <= hi
}
