// Package fixtures provides test data builders shared across packages.
package fixtures

import (
	"github.com/kevin07696/merchant-gateway/internal/domain"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

// VisaTestNumber passes the Luhn check and is accepted by every sandbox
const VisaTestNumber = "4111111111111111"

// CreditCard returns a valid Visa test card
func CreditCard() *domain.CreditCard {
	return &domain.CreditCard{
		FirstName:         "Longbob",
		LastName:          "Longsen",
		Number:            VisaTestNumber,
		Month:             9,
		Year:              2030,
		VerificationValue: "123",
	}
}

// Order returns an order context with a fresh unique order id and a billing address
func Order() *domain.OrderContext {
	return &domain.OrderContext{
		OrderID:     domain.GenerateOrderID(),
		Description: "Store purchase",
		Email:       "buyer@example.com",
		BillingAddress: &domain.Address{
			Name:     "Jim Smith",
			Address1: "1234 My Street",
			Address2: "Apt 1",
			City:     "Ottawa",
			State:    "ON",
			Zip:      "K1C2N6",
			Country:  "CA",
			Phone:    "(555)555-5555",
		},
	}
}

// Amount parses a USD amount, panicking on invalid input
func Amount(s string) money.Money {
	return money.MustParse(s, "USD")
}

// Customer returns hosted-checkout customer data
func Customer() *domain.CustomerData {
	return &domain.CustomerData{
		CustomerID: "20571234",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.edu.au",
	}
}
