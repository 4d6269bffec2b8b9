package psigate

import (
	"encoding/xml"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	"github.com/kevin07696/merchant-gateway/pkg/encoding"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

// CardAction values
const (
	CardActionSale     = "0"
	CardActionPreAuth  = "1"
	CardActionPostAuth = "2"
	CardActionCredit   = "3"
	CardActionVoid     = "9"
)

// TestResult values understood by the sandbox
const (
	TestResultApprove = "A"
	TestResultDecline = "D"
)

const paymentTypeCard = "CC"

// referenceSeparator joins OrderID and TransRefNumber in an authorization reference
const referenceSeparator = ";"

// Order is the XML Messenger request document. Field order is fixed by the
// struct, which keeps the encoding deterministic.
type Order struct {
	XMLName        xml.Name `xml:"Order"`
	StoreID        string   `xml:"StoreID"`
	Passphrase     string   `xml:"Passphrase"`
	TestResult     string   `xml:"TestResult,omitempty"`
	OrderID        string   `xml:"OrderID,omitempty"`
	TransRefNumber string   `xml:"TransRefNumber,omitempty"`
	Email          string   `xml:"Email,omitempty"`
	CustomerIP     string   `xml:"CustomerIP,omitempty"`
	Comments       string   `xml:"Comments,omitempty"`
	PaymentType    string   `xml:"PaymentType"`
	CardAction     string   `xml:"CardAction"`
	Subtotal       string   `xml:"Subtotal,omitempty"`
	CardNumber     string   `xml:"CardNumber,omitempty"`
	CardExpMonth   string   `xml:"CardExpMonth,omitempty"`
	CardExpYear    string   `xml:"CardExpYear,omitempty"`
	CardIDCode     string   `xml:"CardIDCode,omitempty"`
	CardIDNumber   string   `xml:"CardIDNumber,omitempty"`
	Bname          string   `xml:"Bname,omitempty"`
	Bcompany       string   `xml:"Bcompany,omitempty"`
	Baddress1      string   `xml:"Baddress1,omitempty"`
	Baddress2      string   `xml:"Baddress2,omitempty"`
	Bcity          string   `xml:"Bcity,omitempty"`
	Bprovince      string   `xml:"Bprovince,omitempty"`
	Bpostalcode    string   `xml:"Bpostalcode,omitempty"`
	Bcountry       string   `xml:"Bcountry,omitempty"`
	Phone          string   `xml:"Phone,omitempty"`
}

var cardActions = map[domain.Operation]string{
	domain.OperationPurchase:  CardActionSale,
	domain.OperationAuthorize: CardActionPreAuth,
	domain.OperationCapture:   CardActionPostAuth,
	domain.OperationCredit:    CardActionCredit,
	domain.OperationVoid:      CardActionVoid,
}

// BuildRequest encodes req as an <Order> document
func (a *Adapter) BuildRequest(req *ports.Request) (*ports.WirePayload, error) {
	order, err := a.buildOrder(req)
	if err != nil {
		return nil, err
	}

	body, err := encoding.EncodeXMLDocument(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode psigate order: %w", err)
	}

	a.logger.Debug("Built Psigate order",
		zap.String("operation", string(req.Operation)),
		zap.String("card_action", order.CardAction),
		zap.String("order_id", order.OrderID),
		zap.String("test_result", order.TestResult),
	)

	return &ports.WirePayload{
		ContentType: ports.ContentTypeXML,
		Body:        body,
	}, nil
}

func (a *Adapter) buildOrder(req *ports.Request) (*Order, error) {
	if req == nil {
		return nil, pkgerrors.NewValidationError("request", "is required")
	}
	action, ok := cardActions[req.Operation]
	if !ok {
		return nil, pkgerrors.NewValidationError("operation", fmt.Sprintf("unsupported operation %q", req.Operation))
	}

	order := &Order{
		StoreID:     a.config.StoreID,
		Passphrase:  a.config.Passphrase,
		PaymentType: paymentTypeCard,
		CardAction:  action,
	}

	switch req.ForcedOutcome() {
	case domain.TestOutcomeAlwaysAuthorize:
		order.TestResult = TestResultApprove
	case domain.TestOutcomeAlwaysDecline:
		order.TestResult = TestResultDecline
	}

	if req.Operation.NeedsAmount() {
		if req.Amount.IsZero() {
			return nil, pkgerrors.NewValidationError("amount", "must be greater than zero")
		}
		// Single conversion point from the caller's decimal amount
		order.Subtotal = money.FormatMinorUnits(req.Amount.MinorUnits(), req.Amount.Currency())
	}

	if req.Operation.NeedsCard() {
		if err := req.Card.Validate(); err != nil {
			return nil, err
		}
		applyCard(order, req.Card)
	} else {
		orderID, transRef, err := SplitAuthorization(req.Authorization)
		if err != nil {
			return nil, err
		}
		if req.Operation == domain.OperationVoid && transRef == "" {
			return nil, pkgerrors.NewValidationError("authorization", "void needs a transaction reference number")
		}
		order.OrderID = orderID
		if req.Operation == domain.OperationVoid {
			order.TransRefNumber = transRef
		}
	}

	if req.Order != nil {
		applyOrderContext(order, req.Order, req.Operation.NeedsCard())
	}
	return order, nil
}

func applyCard(order *Order, card *domain.CreditCard) {
	order.CardNumber = card.Digits()
	order.CardExpMonth = fmt.Sprintf("%02d", card.Month)
	order.CardExpYear = fmt.Sprintf("%02d", card.Year%100)
	order.Bname = card.Name()
	if card.VerificationValue != "" {
		order.CardIDCode = "1"
		order.CardIDNumber = card.VerificationValue
	}
}

func applyOrderContext(order *Order, oc *domain.OrderContext, setOrderID bool) {
	if setOrderID {
		order.OrderID = oc.OrderID
	}
	order.Email = oc.Email
	order.CustomerIP = oc.CustomerIP
	order.Comments = oc.Description

	addr := oc.BillingAddress
	if addr == nil {
		return
	}
	if addr.Name != "" {
		order.Bname = addr.Name
	}
	order.Bcompany = addr.Company
	order.Baddress1 = addr.Address1
	order.Baddress2 = addr.Address2
	order.Bcity = addr.City
	order.Bprovince = addr.State
	order.Bpostalcode = addr.Zip
	order.Bcountry = addr.Country
	order.Phone = addr.Phone
}

// JoinAuthorization builds the reference returned to callers
func JoinAuthorization(orderID, transRefNumber string) string {
	return orderID + referenceSeparator + transRefNumber
}

// SplitAuthorization parses "OrderID;TransRefNumber". The TransRefNumber part may be empty.
// Order IDs are caller-chosen and may contain the separator; TransRefNumbers are hex,
// so the last separator is the boundary.
func SplitAuthorization(ref string) (orderID, transRefNumber string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", pkgerrors.NewValidationError("authorization", "is required")
	}
	orderID = ref
	if i := strings.LastIndex(ref, referenceSeparator); i >= 0 {
		orderID, transRefNumber = ref[:i], ref[i+len(referenceSeparator):]
	}
	if orderID == "" {
		return "", "", pkgerrors.NewValidationError("authorization", "is missing the order id")
	}
	return orderID, transRefNumber, nil
}
