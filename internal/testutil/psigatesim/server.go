// Package psigatesim is an in-memory Psigate XML Messenger sandbox served over
// TLS for end-to-end gateway tests.
package psigatesim

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/adapters/psigate"
)

// Default credentials accepted by the sandbox
const (
	StoreID    = "teststore"
	Passphrase = "psigate1234"
)

// Messenger error messages returned by the sandbox
const (
	ErrUnparseable     = "PSI-0007:Unable to Parse XML request."
	ErrCredentials     = "PSI-1001:Invalid StoreID or Passphrase."
	ErrDuplicateOrder  = "PSI-2002:Order ID already exists."
	ErrOrderNotFound   = "PSI-2003:Order not found."
	ErrCaptureExceeds  = "PSI-2004:Amount exceeds authorized value."
	ErrCreditExceeds   = "PSI-2005:Credit exceeds remaining order value."
	ErrNotCapturable   = "PSI-2006:Order cannot be captured."
	ErrAlreadyVoided   = "PSI-2007:Transaction already voided."
	ErrUnknownCardAct  = "PSI-2008:Invalid CardAction."
	ErrInvalidSubtotal = "PSI-2009:Invalid Subtotal."
)

type orderState struct {
	authorized decimal.Decimal
	settled    decimal.Decimal
	credited   decimal.Decimal
	captured   bool
	voided     bool
	transRefs  map[string]bool
}

// Server simulates the XML Messenger. It is safe for concurrent use.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	orders   map[string]*orderState
	nextRef  int
	requests int
}

// New starts a TLS sandbox. Call Close when done.
func New() *Server {
	s := &Server{orders: make(map[string]*orderState)}
	s.srv = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the XML Messenger endpoint
func (s *Server) URL() string {
	return s.srv.URL + "/Messenger/XMLMessenger"
}

// Client returns an HTTP client that trusts the sandbox certificate
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

func (s *Server) Close() {
	s.srv.Close()
}

// Options returns psigate processor options pointing both endpoints at the sandbox
func (s *Server) Options() ports.Options {
	return ports.Options{
		psigate.OptionStoreID:    StoreID,
		psigate.OptionPassphrase: Passphrase,
		psigate.OptionTestURL:    s.URL(),
		psigate.OptionLiveURL:    s.URL(),
	}
}

// Requests returns how many requests reached the sandbox
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	var order psigate.Order
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&order); err != nil {
		s.write(w, errorResult(ErrUnparseable))
		return
	}
	if order.StoreID != StoreID || order.Passphrase != Passphrase {
		s.write(w, errorResult(ErrCredentials))
		return
	}

	s.write(w, s.process(&order))
}

func (s *Server) process(order *psigate.Order) *result {
	var amount decimal.Decimal
	if order.CardAction != psigate.CardActionVoid {
		d, err := decimal.NewFromString(order.Subtotal)
		if err != nil || !d.IsPositive() {
			return declined(order, ErrInvalidSubtotal)
		}
		amount = d
	}

	if order.TestResult == psigate.TestResultDecline {
		return declined(order, "")
	}

	switch order.CardAction {
	case psigate.CardActionSale, psigate.CardActionPreAuth:
		if _, exists := s.orders[order.OrderID]; exists || order.OrderID == "" {
			return declined(order, ErrDuplicateOrder)
		}
		st := &orderState{authorized: amount, transRefs: make(map[string]bool)}
		if order.CardAction == psigate.CardActionSale {
			st.settled = amount
			st.captured = true
		}
		s.orders[order.OrderID] = st
		return s.approved(order, st, amount)

	case psigate.CardActionPostAuth:
		st, ok := s.orders[order.OrderID]
		if !ok {
			return declined(order, ErrOrderNotFound)
		}
		if st.captured || st.voided {
			return declined(order, ErrNotCapturable)
		}
		if amount.GreaterThan(st.authorized) {
			return declined(order, ErrCaptureExceeds)
		}
		st.settled = amount
		st.captured = true
		return s.approved(order, st, amount)

	case psigate.CardActionCredit:
		st, ok := s.orders[order.OrderID]
		if !ok {
			return declined(order, ErrOrderNotFound)
		}
		if st.voided || st.credited.Add(amount).GreaterThan(st.settled) {
			return declined(order, ErrCreditExceeds)
		}
		st.credited = st.credited.Add(amount)
		return s.approved(order, st, amount)

	case psigate.CardActionVoid:
		st, ok := s.orders[order.OrderID]
		if !ok || !st.transRefs[order.TransRefNumber] {
			return declined(order, ErrOrderNotFound)
		}
		if st.voided {
			return declined(order, ErrAlreadyVoided)
		}
		st.voided = true
		return s.approved(order, st, st.settled)

	default:
		return declined(order, ErrUnknownCardAct)
	}
}

func (s *Server) approved(order *psigate.Order, st *orderState, amount decimal.Decimal) *result {
	s.nextRef++
	ref := fmt.Sprintf("%016x", s.nextRef)
	st.transRefs[ref] = true

	return &result{
		TransTime:      time.Now().Format("Mon Jan 02 15:04:05 MST 2006"),
		OrderID:        order.OrderID,
		Approved:       psigate.ResultApproved,
		ReturnCode:     fmt.Sprintf("Y:%06d:0abcdef:M:X:NNN", s.nextRef),
		SubTotal:       amount.StringFixed(2),
		FullTotal:      amount.StringFixed(2),
		PaymentType:    order.PaymentType,
		CardNumber:     maskCard(order.CardNumber),
		TransRefNumber: ref,
		CardIDResult:   cardIDResult(order),
		AVSResult:      "X",
		CardAuthNumber: fmt.Sprintf("%06d", s.nextRef),
	}
}

type result struct {
	XMLName        xml.Name `xml:"Result"`
	TransTime      string   `xml:"TransTime"`
	OrderID        string   `xml:"OrderID"`
	Approved       string   `xml:"Approved"`
	ReturnCode     string   `xml:"ReturnCode"`
	ErrMsg         string   `xml:"ErrMsg"`
	SubTotal       string   `xml:"SubTotal"`
	FullTotal      string   `xml:"FullTotal"`
	PaymentType    string   `xml:"PaymentType"`
	CardNumber     string   `xml:"CardNumber"`
	TransRefNumber string   `xml:"TransRefNumber"`
	CardIDResult   string   `xml:"CardIDResult"`
	AVSResult      string   `xml:"AVSResult"`
	CardAuthNumber string   `xml:"CardAuthNumber"`
}

func declined(order *psigate.Order, errMsg string) *result {
	return &result{
		TransTime:   time.Now().Format("Mon Jan 02 15:04:05 MST 2006"),
		OrderID:     order.OrderID,
		Approved:    psigate.ResultDeclined,
		ReturnCode:  "N:TESTDECLINE",
		ErrMsg:      errMsg,
		SubTotal:    order.Subtotal,
		PaymentType: order.PaymentType,
		CardNumber:  maskCard(order.CardNumber),
	}
}

func errorResult(errMsg string) *result {
	return &result{
		TransTime: time.Now().Format("Mon Jan 02 15:04:05 MST 2006"),
		Approved:  psigate.ResultError,
		ErrMsg:    errMsg,
	}
}

func (s *Server) write(w http.ResponseWriter, res *result) {
	out, err := xml.Marshal(res)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

func maskCard(number string) string {
	if len(number) < 4 {
		return ""
	}
	return strings.Repeat(".", len(number)-4) + number[len(number)-4:]
}

func cardIDResult(order *psigate.Order) string {
	if order.CardIDNumber == "" {
		return ""
	}
	return "M"
}
