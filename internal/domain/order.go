package domain

import (
	"time"

	"github.com/google/uuid"
)

// Address is the billing address attached to an order
type Address struct {
	Name     string `json:"name,omitempty"`
	Company  string `json:"company,omitempty"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// OrderContext is caller-supplied correlation data for one logical transaction.
// OrderID must be unique per transaction and is reused by later capture/void/credit calls.
type OrderContext struct {
	OrderID        string   `json:"order_id"`
	Description    string   `json:"description,omitempty"`
	Email          string   `json:"email,omitempty"`
	CustomerIP     string   `json:"customer_ip,omitempty"`
	BillingAddress *Address `json:"billing_address,omitempty"`

	// SubmittedAt is echoed into processors that require local date/time fields.
	// Left zero, those fields are omitted so identical inputs build identical payloads.
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// CustomerData is the per-call data merged into hosted-checkout redirect URLs
type CustomerData struct {
	CustomerID  string `json:"customer_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	OrderID     string `json:"order_id,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// GenerateOrderID returns a new unique order identifier
func GenerateOrderID() string {
	return uuid.NewString()
}
