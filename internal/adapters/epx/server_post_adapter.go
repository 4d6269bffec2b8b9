package epx

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

// TransactionType is EPX's TRAN_TYPE
type TransactionType string

// Credit card e-commerce transaction types
const (
	TransactionTypeSale     TransactionType = "CCE1"
	TransactionTypeAuthOnly TransactionType = "CCE2"
	TransactionTypeCapture  TransactionType = "CCE4"
	TransactionTypeRefund   TransactionType = "CCE9"
	TransactionTypeVoid     TransactionType = "CCEX"
)

const (
	cardEntryKeyed    = "E" // card number keyed by the customer
	industryEcommerce = "E"
	approvedAuthResp  = "00"
	messageSuccess    = "Success"
	fieldAuthGUID     = "AUTH_GUID"
	fieldAuthResp     = "AUTH_RESP"
	fieldAuthRespText = "AUTH_RESP_TEXT"
	fieldAuthAVS      = "AUTH_AVS"
	fieldAuthCVV2     = "AUTH_CVV2"
	fieldOrigAuthGUID = "ORIG_AUTH_GUID"
	localDateLayout   = "010206" // MMDDYY
	localTimeLayout   = "150405" // HHMMSS
	batchIDLayout     = "20060102"
)

var transactionTypes = map[domain.Operation]TransactionType{
	domain.OperationPurchase:  TransactionTypeSale,
	domain.OperationAuthorize: TransactionTypeAuthOnly,
	domain.OperationCapture:   TransactionTypeCapture,
	domain.OperationCredit:    TransactionTypeRefund,
	domain.OperationVoid:      TransactionTypeVoid,
}

// EPXResponse represents the XML response structure from EPX
// EPX returns responses in <FIELD KEY="xxx">value</FIELD> format
type EPXResponse struct {
	XMLName xml.Name  `xml:"RESPONSE"`
	Fields  EPXFields `xml:"FIELDS"`
}

type EPXFields struct {
	Fields []EPXField `xml:"FIELD"`
}

type EPXField struct {
	Key   string `xml:"KEY,attr"`
	Value string `xml:",chardata"`
}

// BuildRequest encodes req as a Server Post form
func (a *ServerPostAdapter) BuildRequest(req *ports.Request) (*ports.WirePayload, error) {
	if err := a.validateRequest(req); err != nil {
		a.logger.Error("Invalid Server Post request", zap.Error(err))
		return nil, err
	}

	f := newForm()
	defer f.release()
	a.fillForm(f, req)

	a.logger.Debug("Built EPX Server Post form",
		zap.String("operation", string(req.Operation)),
		zap.String("tran_type", f.get("TRAN_TYPE")),
		zap.String("tran_nbr", f.get("TRAN_NBR")),
		zap.String("amount", f.get("AMOUNT")),
	)

	return &ports.WirePayload{
		ContentType: ports.ContentTypeForm,
		Body:        []byte(f.encode()),
	}, nil
}

// validateRequest fails fast on anything EPX would reject for shape alone
func (a *ServerPostAdapter) validateRequest(req *ports.Request) error {
	if req == nil {
		return pkgerrors.NewValidationError("request", "is required")
	}
	if _, ok := transactionTypes[req.Operation]; !ok {
		return pkgerrors.NewValidationError("operation", fmt.Sprintf("unsupported operation %q", req.Operation))
	}
	if req.ForcedOutcome() != domain.TestOutcomeUnset {
		return pkgerrors.NewValidationError("test_outcome", "epx sandbox does not support forced outcomes")
	}
	if req.Operation.NeedsAmount() && req.Amount.IsZero() {
		return pkgerrors.NewValidationError("amount", "must be greater than zero")
	}

	if req.Operation.NeedsCard() {
		if err := req.Card.Validate(); err != nil {
			return err
		}
		if req.Order == nil || strings.TrimSpace(req.Order.OrderID) == "" {
			return pkgerrors.NewValidationError("order_id", "is required to derive TRAN_NBR")
		}
		return nil
	}

	if strings.TrimSpace(req.Authorization) == "" {
		return pkgerrors.NewValidationError("authorization",
			fmt.Sprintf("original AUTH_GUID is required for %s", transactionTypes[req.Operation]))
	}
	return nil
}

// fillForm writes the Server Post fields for req
func (a *ServerPostAdapter) fillForm(f *form, req *ports.Request) {
	f.merchant(a.config.Credentials)

	f.set("TRAN_TYPE", string(transactionTypes[req.Operation]))
	if req.Operation.NeedsAmount() {
		f.set("AMOUNT", money.FormatMinorUnits(req.Amount.MinorUnits(), req.Amount.Currency()))
	}

	// TRAN_NBR is per order; follow-ups derive it from the referenced AUTH_GUID
	orderID := req.Authorization
	if req.Order != nil && req.Order.OrderID != "" {
		orderID = req.Order.OrderID
	}
	f.set("TRAN_NBR", TranNbr(orderID))

	if req.Order != nil && !req.Order.SubmittedAt.IsZero() {
		at := req.Order.SubmittedAt
		f.set("BATCH_ID", at.Format(batchIDLayout))
		f.set("LOCAL_DATE", at.Format(localDateLayout))
		f.set("LOCAL_TIME", at.Format(localTimeLayout))
	}

	// For capture/void/refund, ORIG_AUTH_GUID references the original transaction
	if !req.Operation.NeedsCard() {
		f.set(fieldOrigAuthGUID, req.Authorization)
	}

	if card := req.Card; card != nil && req.Operation.NeedsCard() {
		f.set("ACCOUNT_NBR", card.Digits())
		f.set("EXP_DATE", fmt.Sprintf("%02d%02d", card.Year%100, card.Month)) // YYMM
		f.setIfPresent("CVV2", card.VerificationValue)
		f.set("CARD_ENT_METH", cardEntryKeyed)
		f.set("INDUSTRY_TYPE", industryEcommerce)
		f.set("FIRST_NAME", card.FirstName)
		f.set("LAST_NAME", card.LastName)
	}

	if req.Order != nil && req.Order.BillingAddress != nil {
		addr := req.Order.BillingAddress
		f.setIfPresent("ADDRESS", addr.Address1)
		f.setIfPresent("CITY", addr.City)
		f.setIfPresent("STATE", addr.State)
		f.setIfPresent("ZIP_CODE", addr.Zip)
	}
}

// ParseResponse decodes the <RESPONSE><FIELDS> XML. Older integrations answer
// with URL-encoded key/value pairs, which are accepted as well.
func (a *ServerPostAdapter) ParseResponse(op domain.Operation, body []byte) (*ports.Reply, error) {
	responseStr := strings.TrimSpace(string(body))

	var fields map[string]string
	if !strings.HasPrefix(responseStr, "<") {
		if params, err := url.ParseQuery(responseStr); err == nil && params.Get(fieldAuthResp) != "" {
			fields = make(map[string]string, len(params))
			for key := range params {
				fields[key] = params.Get(key)
			}
		}
	}

	if fields == nil {
		var epxResp EPXResponse
		if err := xml.Unmarshal(body, &epxResp); err != nil {
			a.logger.Error("Failed to parse Server Post response", zap.Error(err), zap.Int("body_length", len(body)))
			return nil, pkgerrors.NewXMLParseError(body, err)
		}
		// Convert field array to map for easy lookup
		fields = make(map[string]string, len(epxResp.Fields.Fields))
		for _, field := range epxResp.Fields.Fields {
			fields[field.Key] = field.Value
		}
	}

	authResp := fields[fieldAuthResp]
	if authResp == "" {
		a.logger.Error("AUTH_RESP is missing from Server Post response")
		return nil, pkgerrors.NewXMLParseError(body, fmt.Errorf("%s is missing from response", fieldAuthResp))
	}

	info := GetCreditCardResponseCode(authResp)
	reply := &ports.Reply{
		Success:      authResp == approvedAuthResp,
		ResponseCode: authResp,
		AVSResult:    fields[fieldAuthAVS],
		CVVResult:    fields[fieldAuthCVV2],
		Category:     info.Category,
		Params:       fields,
	}
	if reply.Success {
		reply.Message = messageSuccess
		reply.Authorization = fields[fieldAuthGUID]
	} else {
		reply.Message = fields[fieldAuthRespText]
		if reply.Message == "" {
			reply.Message = info.Display
		}
		reply.ErrorCode = authResp
		reply.ErrorMessage = reply.Message
	}

	a.logger.Info("Parsed Server Post response",
		zap.String("operation", string(op)),
		zap.String("auth_resp", authResp),
		zap.String("category", string(info.Category)),
		zap.Bool("is_approved", reply.Success),
	)
	return reply, nil
}

// MapError turns request-level AUTH_RESP codes into a MerchantError
func (a *ServerPostAdapter) MapError(reply *ports.Reply) error {
	if reply == nil || reply.Success {
		return nil
	}
	if GetCreditCardResponseCode(reply.ErrorCode).RejectsRequest() {
		return pkgerrors.NewMerchantError(reply.ErrorCode, reply.ErrorMessage)
	}
	return nil
}
