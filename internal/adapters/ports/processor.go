package ports

import (
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

// Content types understood by the transport
const (
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeXML  = "text/xml; charset=utf-8"
)

// WirePayload is a processor-encoded request body
type WirePayload struct {
	ContentType string // ContentTypeForm or ContentTypeXML
	Body        []byte
}

// Request is the normalized input to a processor's request builder
type Request struct {
	Operation     domain.Operation
	Amount        money.Money          // Ignored for void
	Card          *domain.CreditCard   // Purchase and authorize only
	Authorization string               // Capture, void and credit: reference from a prior response
	Order         *domain.OrderContext // May be nil for void and credit
	Mode          domain.Mode
	TestOutcome   domain.TestOutcome // Only honored when Mode is ModeTest
}

// ForcedOutcome returns the outcome to embed in the payload, if any
func (r *Request) ForcedOutcome() domain.TestOutcome {
	if r.Mode != domain.ModeTest {
		return domain.TestOutcomeUnset
	}
	return r.TestOutcome
}

// Reply is a decoded processor response, before error mapping
type Reply struct {
	Success       bool
	Message       string                  // Human-readable processor message
	Authorization string                  // Reference for later capture/void/credit
	ResponseCode  string                  // Processor approval/decline code
	ErrorCode     string                  // Processor error code (e.g. "PSI-0007"), empty when none
	ErrorMessage  string                  // Processor error text without the code
	AVSResult     string                  // Address verification result
	CVVResult     string                  // Card verification result
	Category      pkgerrors.ErrorCategory // Approval/decline classification
	Params        map[string]string       // Every decoded field
}

// Processor adapts one third-party payment processor's wire protocol.
// Implementations must be stateless: BuildRequest is a pure function of its input.
type Processor interface {
	// Name returns the registry identifier (e.g. "psigate")
	Name() string

	// Endpoint returns the sandbox or production URL for mode
	Endpoint(mode domain.Mode) string

	// BuildRequest maps a normalized operation into the processor's wire format.
	// Returns a *errors.ValidationError before any network call when required fields are missing.
	BuildRequest(req *Request) (*WirePayload, error)

	// ParseResponse decodes a raw body. Returns a *errors.ParseError when the body
	// is not in the expected wire format.
	ParseResponse(op domain.Operation, body []byte) (*Reply, error)

	// MapError returns a *errors.MerchantError when the reply shows the processor
	// rejected the request itself, nil for approvals and business declines.
	MapError(reply *Reply) error
}

// OutcomeForcer is implemented by processors whose sandbox honors a forced
// approve/decline marker in the request payload.
type OutcomeForcer interface {
	SupportsForcedOutcome() bool
}
