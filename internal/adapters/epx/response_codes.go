package epx

import (
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// ResponseCodeInfo describes an AUTH_RESP code
type ResponseCodeInfo struct {
	Code        string
	Display     string
	Description string
	IsApproved  bool
	IsRetriable bool
	Category    pkgerrors.ErrorCategory
}

// RejectsRequest reports whether EPX refused the request itself rather than
// declining the transaction
func (r ResponseCodeInfo) RejectsRequest() bool {
	return r.Category == pkgerrors.CategoryInvalidRequest
}

// Response code map for credit card transactions
var creditCardResponseCodes = map[string]ResponseCodeInfo{
	"00": {Code: "00", Display: "APPROVAL", Description: "Transaction approved", IsApproved: true, Category: pkgerrors.CategoryApproved},
	"10": {Code: "10", Display: "PARTIAL APPROVAL", Description: "Partial amount approved", IsApproved: true, Category: pkgerrors.CategoryApproved},

	// Declines
	"05": {Code: "05", Display: "DECLINE", Description: "Do not honor", Category: pkgerrors.CategoryDeclined},
	"51": {Code: "51", Display: "INSUFF FUNDS", Description: "Insufficient funds in account", IsRetriable: true, Category: pkgerrors.CategoryInsufficientFunds},
	"54": {Code: "54", Display: "EXP CARD", Description: "Expired card", Category: pkgerrors.CategoryExpiredCard},
	"82": {Code: "82", Display: "CVV ERROR", Description: "CVV verification failed", Category: pkgerrors.CategoryInvalidCard},
	"14": {Code: "14", Display: "INVALID ACCT", Description: "Invalid card number", Category: pkgerrors.CategoryInvalidCard},
	"59": {Code: "59", Display: "SUSPECTED FRAUD", Description: "Suspected fraud", Category: pkgerrors.CategoryFraud},
	"41": {Code: "41", Display: "LOST CARD", Description: "Lost card, pick up", Category: pkgerrors.CategoryFraud},
	"43": {Code: "43", Display: "STOLEN CARD", Description: "Stolen card, pick up", Category: pkgerrors.CategoryFraud},

	// Issuer or switch trouble
	"91": {Code: "91", Display: "TIMEOUT", Description: "Issuer or switch timeout", IsRetriable: true, Category: pkgerrors.CategorySystemError},
	"96": {Code: "96", Display: "SYSTEM ERROR", Description: "System malfunction", IsRetriable: true, Category: pkgerrors.CategorySystemError},

	// Request rejections
	"03": {Code: "03", Display: "INVALID MERCHANT", Description: "Invalid merchant or service provider", Category: pkgerrors.CategoryInvalidRequest},
	"12": {Code: "12", Display: "INVALID TRANS", Description: "Invalid transaction", Category: pkgerrors.CategoryInvalidRequest},
	"13": {Code: "13", Display: "INVALID AMOUNT", Description: "Invalid amount", Category: pkgerrors.CategoryInvalidRequest},
	"30": {Code: "30", Display: "FORMAT ERROR", Description: "Message format error", Category: pkgerrors.CategoryInvalidRequest},
	"RR": {Code: "RR", Display: "REQUEST ERROR", Description: "Request could not be processed", Category: pkgerrors.CategoryInvalidRequest},
}

// GetCreditCardResponseCode retrieves response code information, defaulting
// unknown codes to a plain decline
func GetCreditCardResponseCode(code string) ResponseCodeInfo {
	if info, exists := creditCardResponseCodes[code]; exists {
		return info
	}
	return ResponseCodeInfo{
		Code:        code,
		Display:     "UNKNOWN",
		Description: "Unknown response code",
		Category:    pkgerrors.CategoryDeclined,
	}
}
