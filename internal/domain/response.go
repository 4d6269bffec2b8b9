package domain

import (
	"encoding/json"

	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// Response is the normalized result of one gateway operation.
// It is immutable once built; accessors return copies of mutable data.
type Response struct {
	success       bool
	message       string
	authorization string
	test          bool
	responseCode  string
	avsResult     string
	cvvResult     string
	category      pkgerrors.ErrorCategory
	params        map[string]string
	raw           []byte
}

// ResponseOptions carries the optional parts of a Response
type ResponseOptions struct {
	Authorization string
	Test          bool
	ResponseCode  string
	AVSResult     string
	CVVResult     string
	Category      pkgerrors.ErrorCategory
	Params        map[string]string
	Raw           []byte
}

// NewResponse builds an immutable Response
func NewResponse(success bool, message string, opts ResponseOptions) *Response {
	category := opts.Category
	if category == "" {
		if success {
			category = pkgerrors.CategoryApproved
		} else {
			category = pkgerrors.CategoryDeclined
		}
	}

	params := make(map[string]string, len(opts.Params))
	for k, v := range opts.Params {
		params[k] = v
	}

	var raw []byte
	if opts.Raw != nil {
		raw = append([]byte(nil), opts.Raw...)
	}

	return &Response{
		success:       success,
		message:       message,
		authorization: opts.Authorization,
		test:          opts.Test,
		responseCode:  opts.ResponseCode,
		avsResult:     opts.AVSResult,
		cvvResult:     opts.CVVResult,
		category:      category,
		params:        params,
		raw:           raw,
	}
}

// Success reports whether the processor approved the transaction
func (r *Response) Success() bool { return r.success }

// Message is the processor's human-readable outcome
func (r *Response) Message() string { return r.message }

// Authorization is the reference required by capture, void and credit.
// Empty when the transaction was not approved.
func (r *Response) Authorization() string { return r.authorization }

// Test mirrors the gateway Mode at the time of the call
func (r *Response) Test() bool { return r.test }

func (r *Response) ResponseCode() string { return r.responseCode }

func (r *Response) AVSResult() string { return r.avsResult }

func (r *Response) CVVResult() string { return r.cvvResult }

func (r *Response) Category() pkgerrors.ErrorCategory { return r.category }

// Param returns a single decoded processor field
func (r *Response) Param(key string) string { return r.params[key] }

// Params returns a copy of every decoded processor field
func (r *Response) Params() map[string]string {
	out := make(map[string]string, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

// Raw returns a copy of the undecoded processor payload
func (r *Response) Raw() []byte {
	return append([]byte(nil), r.raw...)
}

func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success       bool                    `json:"success"`
		Message       string                  `json:"message"`
		Authorization string                  `json:"authorization,omitempty"`
		Test          bool                    `json:"test"`
		ResponseCode  string                  `json:"response_code,omitempty"`
		AVSResult     string                  `json:"avs_result,omitempty"`
		CVVResult     string                  `json:"cvv_result,omitempty"`
		Category      pkgerrors.ErrorCategory `json:"category"`
		Params        map[string]string       `json:"params,omitempty"`
	}{
		Success:       r.success,
		Message:       r.message,
		Authorization: r.authorization,
		Test:          r.test,
		ResponseCode:  r.responseCode,
		AVSResult:     r.avsResult,
		CVVResult:     r.cvvResult,
		Category:      r.category,
		Params:        r.params,
	})
}
