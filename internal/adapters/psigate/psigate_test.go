package psigate

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(ports.Options{
		OptionStoreID:    "teststore",
		OptionPassphrase: "psigate1234",
	}, zap.NewNop())
	require.NoError(t, err)
	return adapter
}

func testCard() *domain.CreditCard {
	return &domain.CreditCard{
		FirstName:         "John",
		LastName:          "Doe",
		Number:            "4111111111111111",
		Month:             1,
		Year:              2030,
		VerificationValue: "000",
	}
}

func testOrder() *domain.OrderContext {
	return &domain.OrderContext{
		OrderID:     "order-1001.1",
		Description: "Psigate Test Transaction",
		BillingAddress: &domain.Address{
			Address1: "1234 Street",
			Zip:      "98004",
			State:    "WA",
		},
	}
}

func decodeOrder(t *testing.T, payload *ports.WirePayload) Order {
	t.Helper()
	var order Order
	require.NoError(t, xml.Unmarshal(payload.Body, &order))
	return order
}

func TestNew(t *testing.T) {
	t.Run("missing every required option", func(t *testing.T) {
		_, err := New(ports.Options{}, nil)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsConfiguration(err))

		var cfgErr *pkgerrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, []string{OptionStoreID, OptionPassphrase}, cfgErr.Missing)
	})

	t.Run("missing passphrase", func(t *testing.T) {
		_, err := New(ports.Options{OptionStoreID: "teststore"}, nil)
		var cfgErr *pkgerrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, []string{OptionPassphrase}, cfgErr.Missing)
	})

	t.Run("default and overridden endpoints", func(t *testing.T) {
		adapter := newTestAdapter(t)
		assert.Equal(t, DefaultTestURL, adapter.Endpoint(domain.ModeTest))
		assert.Equal(t, DefaultLiveURL, adapter.Endpoint(domain.ModeLive))

		overridden, err := New(ports.Options{
			OptionStoreID:    "teststore",
			OptionPassphrase: "psigate1234",
			OptionTestURL:    "https://127.0.0.1:9443/Messenger/XMLMessenger",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://127.0.0.1:9443/Messenger/XMLMessenger", overridden.Endpoint(domain.ModeTest))
		assert.Equal(t, DefaultLiveURL, overridden.Endpoint(domain.ModeLive))
	})
}

func TestBuildRequest(t *testing.T) {
	adapter := newTestAdapter(t)
	amount := money.MustParse("37.01", "CAD")

	tests := []struct {
		name   string
		req    *ports.Request
		verify func(t *testing.T, order Order)
	}{
		{
			name: "purchase",
			req: &ports.Request{
				Operation: domain.OperationPurchase,
				Amount:    amount,
				Card:      testCard(),
				Order:     testOrder(),
				Mode:      domain.ModeLive,
			},
			verify: func(t *testing.T, order Order) {
				assert.Equal(t, "teststore", order.StoreID)
				assert.Equal(t, "psigate1234", order.Passphrase)
				assert.Equal(t, CardActionSale, order.CardAction)
				assert.Equal(t, "CC", order.PaymentType)
				assert.Equal(t, "37.01", order.Subtotal)
				assert.Equal(t, "4111111111111111", order.CardNumber)
				assert.Equal(t, "01", order.CardExpMonth)
				assert.Equal(t, "30", order.CardExpYear)
				assert.Equal(t, "000", order.CardIDNumber)
				assert.Equal(t, "order-1001.1", order.OrderID)
				assert.Equal(t, "John Doe", order.Bname)
				assert.Equal(t, "1234 Street", order.Baddress1)
				assert.Equal(t, "WA", order.Bprovince)
				assert.Equal(t, "98004", order.Bpostalcode)
				assert.Empty(t, order.TestResult)
			},
		},
		{
			name: "authorize forced approve in test mode",
			req: &ports.Request{
				Operation:   domain.OperationAuthorize,
				Amount:      amount,
				Card:        testCard(),
				Order:       testOrder(),
				Mode:        domain.ModeTest,
				TestOutcome: domain.TestOutcomeAlwaysAuthorize,
			},
			verify: func(t *testing.T, order Order) {
				assert.Equal(t, CardActionPreAuth, order.CardAction)
				assert.Equal(t, TestResultApprove, order.TestResult)
			},
		},
		{
			name: "forced decline",
			req: &ports.Request{
				Operation:   domain.OperationPurchase,
				Amount:      amount,
				Card:        testCard(),
				Mode:        domain.ModeTest,
				TestOutcome: domain.TestOutcomeAlwaysDecline,
			},
			verify: func(t *testing.T, order Order) {
				assert.Equal(t, TestResultDecline, order.TestResult)
				assert.Empty(t, order.OrderID)
			},
		},
		{
			name: "test outcome ignored in live mode",
			req: &ports.Request{
				Operation:   domain.OperationPurchase,
				Amount:      amount,
				Card:        testCard(),
				Mode:        domain.ModeLive,
				TestOutcome: domain.TestOutcomeAlwaysDecline,
			},
			verify: func(t *testing.T, order Order) {
				assert.Empty(t, order.TestResult)
			},
		},
		{
			name: "capture uses the order part of the reference",
			req: &ports.Request{
				Operation:     domain.OperationCapture,
				Amount:        amount,
				Authorization: "order-1001.1;1000001",
				Order:         testOrder(),
			},
			verify: func(t *testing.T, order Order) {
				assert.Equal(t, CardActionPostAuth, order.CardAction)
				assert.Equal(t, "order-1001.1", order.OrderID)
				assert.Empty(t, order.TransRefNumber)
				assert.Empty(t, order.CardNumber)
				assert.Equal(t, "37.01", order.Subtotal)
			},
		},
		{
			name: "void carries both parts and no amount",
			req: &ports.Request{
				Operation:     domain.OperationVoid,
				Authorization: "order-1001.1;1000001",
			},
			verify: func(t *testing.T, order Order) {
				assert.Equal(t, CardActionVoid, order.CardAction)
				assert.Equal(t, "order-1001.1", order.OrderID)
				assert.Equal(t, "1000001", order.TransRefNumber)
				assert.Empty(t, order.Subtotal)
			},
		},
		{
			name: "credit",
			req: &ports.Request{
				Operation:     domain.OperationCredit,
				Amount:        money.MustParse("18.48", "CAD"),
				Authorization: "order-1001.1;1000001",
			},
			verify: func(t *testing.T, order Order) {
				assert.Equal(t, CardActionCredit, order.CardAction)
				assert.Equal(t, "18.48", order.Subtotal)
				assert.Equal(t, "order-1001.1", order.OrderID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := adapter.BuildRequest(tt.req)
			require.NoError(t, err)
			assert.Equal(t, ports.ContentTypeXML, payload.ContentType)
			assert.Contains(t, string(payload.Body), `<?xml version="1.0" encoding="UTF-8"?>`)
			tt.verify(t, decodeOrder(t, payload))
		})
	}
}

func TestBuildRequest_ValidationErrors(t *testing.T) {
	adapter := newTestAdapter(t)
	amount := money.MustParse("10.00", "CAD")

	tests := []struct {
		name  string
		req   *ports.Request
		field string
	}{
		{
			name:  "nil request",
			req:   nil,
			field: "request",
		},
		{
			name:  "purchase without card",
			req:   &ports.Request{Operation: domain.OperationPurchase, Amount: amount},
			field: "credit_card",
		},
		{
			name: "purchase with bad card number",
			req: &ports.Request{
				Operation: domain.OperationPurchase,
				Amount:    amount,
				Card:      &domain.CreditCard{FirstName: "John", LastName: "Doe", Number: "4111111111111112", Month: 1, Year: 2030},
			},
			field: "number",
		},
		{
			name:  "zero amount",
			req:   &ports.Request{Operation: domain.OperationPurchase, Card: testCard()},
			field: "amount",
		},
		{
			name:  "capture without reference",
			req:   &ports.Request{Operation: domain.OperationCapture, Amount: amount},
			field: "authorization",
		},
		{
			name:  "void without transaction reference number",
			req:   &ports.Request{Operation: domain.OperationVoid, Authorization: "order-1"},
			field: "authorization",
		},
		{
			name:  "reference without order id",
			req:   &ports.Request{Operation: domain.OperationCredit, Amount: amount, Authorization: ";123"},
			field: "authorization",
		},
		{
			name:  "unknown operation",
			req:   &ports.Request{Operation: "refund"},
			field: "operation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := adapter.BuildRequest(tt.req)
			require.Error(t, err)
			assert.Nil(t, payload)

			var vErr *pkgerrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestBuildRequest_Deterministic(t *testing.T) {
	adapter := newTestAdapter(t)
	build := func() []byte {
		payload, err := adapter.BuildRequest(&ports.Request{
			Operation:   domain.OperationPurchase,
			Amount:      money.MustParse("12.34", "CAD"),
			Card:        testCard(),
			Order:       testOrder(),
			Mode:        domain.ModeTest,
			TestOutcome: domain.TestOutcomeAlwaysAuthorize,
		})
		require.NoError(t, err)
		return payload.Body
	}

	first := build()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
}

func TestParseResponse(t *testing.T) {
	adapter := newTestAdapter(t)

	t.Run("approved", func(t *testing.T) {
		body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<Result>
  <TransTime>Mon Jan 05 10:00:00 EST 2026</TransTime>
  <OrderID>order-1001.1</OrderID>
  <Approved>APPROVED</Approved>
  <ReturnCode>Y:123456:0abcdef:M:X:NNN</ReturnCode>
  <ErrMsg></ErrMsg>
  <TransRefNumber>1bdde305d4658e08</TransRefNumber>
  <AVSResult>X</AVSResult>
  <CardIDResult>M</CardIDResult>
</Result>`)

		reply, err := adapter.ParseResponse(domain.OperationPurchase, body)
		require.NoError(t, err)
		assert.True(t, reply.Success)
		assert.Equal(t, "Success", reply.Message)
		assert.Equal(t, "order-1001.1;1bdde305d4658e08", reply.Authorization)
		assert.Equal(t, "X", reply.AVSResult)
		assert.Equal(t, "M", reply.CVVResult)
		assert.Equal(t, pkgerrors.CategoryApproved, reply.Category)
		assert.Equal(t, "Mon Jan 05 10:00:00 EST 2026", reply.Params["TransTime"])
		assert.NoError(t, adapter.MapError(reply))
	})

	t.Run("credit exceeds remaining value is a business decline", func(t *testing.T) {
		body := []byte(`<Result><OrderID>order-1001.1</OrderID><Approved>ERROR</Approved>` +
			`<ErrMsg>PSI-2005:Credit exceeds remaining order value.</ErrMsg></Result>`)

		reply, err := adapter.ParseResponse(domain.OperationCredit, body)
		require.NoError(t, err)
		assert.False(t, reply.Success)
		assert.Equal(t, "PSI-2005:Credit exceeds remaining order value.", reply.Message)
		assert.Equal(t, "PSI-2005", reply.ErrorCode)
		assert.Empty(t, reply.Authorization)
		assert.NoError(t, adapter.MapError(reply))
	})

	t.Run("declined", func(t *testing.T) {
		body := []byte(`<Result><Approved>DECLINED</Approved><ErrMsg>DECLINED</ErrMsg></Result>`)

		reply, err := adapter.ParseResponse(domain.OperationPurchase, body)
		require.NoError(t, err)
		assert.False(t, reply.Success)
		assert.Equal(t, "DECLINED", reply.Message)
		assert.Equal(t, pkgerrors.CategoryDeclined, reply.Category)
		assert.NoError(t, adapter.MapError(reply))
	})

	t.Run("request rejection maps to merchant error", func(t *testing.T) {
		body := []byte(`<Result><Approved>ERROR</Approved><ErrMsg>PSI-0007:Unable to Parse XML request.</ErrMsg></Result>`)

		reply, err := adapter.ParseResponse(domain.OperationPurchase, body)
		require.NoError(t, err)
		assert.Equal(t, pkgerrors.CategoryInvalidRequest, reply.Category)

		mapped := adapter.MapError(reply)
		require.Error(t, mapped)
		assert.True(t, pkgerrors.IsMerchant(mapped))
		assert.Equal(t, "Merchant error: PSI-0007:Unable to Parse XML request.", mapped.Error())
	})

	t.Run("unparseable body", func(t *testing.T) {
		for _, body := range [][]byte{
			[]byte(`<<?xml version="1.0"?><Result><Approved>APPROVED</Approved></Result>`),
			[]byte(``),
			[]byte(`<Response><Approved>APPROVED</Approved></Response>`),
		} {
			reply, err := adapter.ParseResponse(domain.OperationPurchase, body)
			require.Error(t, err)
			assert.Nil(t, reply)
			assert.True(t, pkgerrors.IsParse(err))
			assert.Equal(t, "Error parsing XML response from merchant", err.Error())
		}
	})
}

func TestSplitAuthorization(t *testing.T) {
	orderID, ref, err := SplitAuthorization("order-1;abc")
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
	assert.Equal(t, "abc", ref)

	orderID, ref, err = SplitAuthorization("order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
	assert.Empty(t, ref)

	assert.Equal(t, "order-1;abc", JoinAuthorization("order-1", "abc"))

	orderID, ref, err = SplitAuthorization(JoinAuthorization("inv;42", "1bdde305d4658e08"))
	require.NoError(t, err)
	assert.Equal(t, "inv;42", orderID)
	assert.Equal(t, "1bdde305d4658e08", ref)
}
