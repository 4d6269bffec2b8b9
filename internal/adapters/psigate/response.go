package psigate

import (
	"bytes"
	"encoding/xml"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// Approved values in a <Result>
const (
	ResultApproved = "APPROVED"
	ResultDeclined = "DECLINED"
	ResultError    = "ERROR"
)

const messageSuccess = "Success"

// resultElement is the root element of every XML Messenger response
const resultElement = "Result"

// resultDocument captures every child of <Result> generically so new fields
// survive into Reply.Params without a struct change.
type resultDocument struct {
	XMLName xml.Name
	Fields  []resultField `xml:",any"`
}

type resultField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// ParseResponse decodes a <Result> document
func (a *Adapter) ParseResponse(op domain.Operation, body []byte) (*ports.Reply, error) {
	var doc resultDocument
	decoder := xml.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&doc); err != nil {
		a.logger.Error("Failed to parse Psigate response", zap.Error(err), zap.Int("body_length", len(body)))
		return nil, pkgerrors.NewXMLParseError(body, err)
	}
	if doc.XMLName.Local != resultElement {
		a.logger.Error("Unexpected Psigate response root", zap.String("root", doc.XMLName.Local))
		return nil, pkgerrors.NewXMLParseError(body, nil)
	}

	params := make(map[string]string, len(doc.Fields))
	for _, f := range doc.Fields {
		params[f.XMLName.Local] = strings.TrimSpace(f.Value)
	}

	approved := strings.ToUpper(params["Approved"])
	reply := &ports.Reply{
		Success:      approved == ResultApproved,
		ResponseCode: params["ReturnCode"],
		AVSResult:    params["AVSResult"],
		CVVResult:    params["CardIDResult"],
		Params:       params,
	}

	if reply.Success {
		reply.Message = messageSuccess
		reply.Authorization = JoinAuthorization(params["OrderID"], params["TransRefNumber"])
		reply.Category = pkgerrors.CategoryApproved
	} else {
		reply.Message = params["ErrMsg"]
		if reply.Message == "" {
			reply.Message = approved
		}
		reply.ErrorCode, reply.ErrorMessage = splitErrMsg(params["ErrMsg"])
		reply.Category = categorize(approved, reply.ErrorCode)
	}

	a.logger.Debug("Parsed Psigate response",
		zap.String("operation", string(op)),
		zap.String("approved", approved),
		zap.String("return_code", reply.ResponseCode),
		zap.String("error_code", reply.ErrorCode),
	)
	return reply, nil
}

// MapError returns a MerchantError when Psigate could not accept the request
// itself. Transaction-level codes stay business declines.
func (a *Adapter) MapError(reply *ports.Reply) error {
	if reply == nil || reply.Success {
		return nil
	}
	if IsRequestRejection(reply.ErrorCode) {
		return pkgerrors.NewMerchantError(reply.ErrorCode, reply.ErrorMessage)
	}
	return nil
}

// IsRequestRejection reports whether code belongs to the messenger-level
// (PSI-0xxx) or credential-level (PSI-1xxx) ranges.
func IsRequestRejection(code string) bool {
	return strings.HasPrefix(code, "PSI-0") || strings.HasPrefix(code, "PSI-1")
}

// splitErrMsg splits "PSI-0007:Unable to Parse XML request." at the first colon
func splitErrMsg(msg string) (code, text string) {
	if !strings.HasPrefix(msg, "PSI-") {
		return "", msg
	}
	idx := strings.Index(msg, ":")
	if idx < 0 {
		return msg, ""
	}
	return msg[:idx], msg[idx+1:]
}

func categorize(approved, code string) pkgerrors.ErrorCategory {
	switch {
	case IsRequestRejection(code):
		return pkgerrors.CategoryInvalidRequest
	case approved == ResultDeclined:
		return pkgerrors.CategoryDeclined
	case approved == ResultError:
		return pkgerrors.CategoryDeclined
	default:
		return pkgerrors.CategorySystemError
	}
}
