package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

func validCard() *CreditCard {
	return &CreditCard{
		FirstName:         "John",
		LastName:          "Doe",
		Number:            "4111111111111111",
		Month:             1,
		Year:              2015,
		VerificationValue: "000",
	}
}

func TestCreditCard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CreditCard)
		wantErr string
	}{
		{name: "valid card", mutate: func(c *CreditCard) {}},
		{name: "spaces allowed", mutate: func(c *CreditCard) { c.Number = "4111 1111 1111 1111" }},
		{name: "no verification value", mutate: func(c *CreditCard) { c.VerificationValue = "" }},
		{name: "missing first name", mutate: func(c *CreditCard) { c.FirstName = " " }, wantErr: "first_name"},
		{name: "missing last name", mutate: func(c *CreditCard) { c.LastName = "" }, wantErr: "last_name"},
		{name: "missing number", mutate: func(c *CreditCard) { c.Number = "" }, wantErr: "number"},
		{name: "short number", mutate: func(c *CreditCard) { c.Number = "411111" }, wantErr: "13-19 digits"},
		{name: "bad checksum", mutate: func(c *CreditCard) { c.Number = "4111111111111112" }, wantErr: "checksum"},
		{name: "month zero", mutate: func(c *CreditCard) { c.Month = 0 }, wantErr: "month"},
		{name: "month thirteen", mutate: func(c *CreditCard) { c.Month = 13 }, wantErr: "month"},
		{name: "two digit year", mutate: func(c *CreditCard) { c.Year = 15 }, wantErr: "year"},
		{name: "letters in cvv", mutate: func(c *CreditCard) { c.VerificationValue = "12a" }, wantErr: "verification_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			tt.mutate(card)
			err := card.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	var nilCard *CreditCard
	assert.Error(t, nilCard.Validate())
}

func TestCreditCard_Display(t *testing.T) {
	card := validCard()
	assert.Equal(t, "John Doe", card.Name())
	assert.Equal(t, "1111", card.LastFour())
	assert.Equal(t, "XXXXXXXXXXXX1111", card.Masked())
	assert.Equal(t, CardBrandVisa, card.Brand())

	card.Number = "5500000000000004"
	assert.Equal(t, CardBrandMastercard, card.Brand())
	card.Number = "378282246310005"
	assert.Equal(t, CardBrandAmex, card.Brand())
	card.Number = "6011111111111117"
	assert.Equal(t, CardBrandDiscover, card.Brand())
	card.Number = "3530111333300000"
	assert.Equal(t, CardBrandUnknown, card.Brand())
}

func TestCreditCard_IsExpired(t *testing.T) {
	card := &CreditCard{Month: 12, Year: 2026}
	assert.False(t, card.IsExpired(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.True(t, card.IsExpired(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseModeAndOutcome(t *testing.T) {
	m, err := ParseMode("sandbox")
	require.NoError(t, err)
	assert.Equal(t, ModeTest, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, m)

	_, err = ParseMode("staging")
	assert.Error(t, err)

	o, err := ParseTestOutcome("decline")
	require.NoError(t, err)
	assert.Equal(t, TestOutcomeAlwaysDecline, o)

	_, err = ParseTestOutcome("random")
	assert.Error(t, err)
}

func TestResponse_Immutable(t *testing.T) {
	params := map[string]string{"OrderID": "abc"}
	raw := []byte("<Result/>")

	resp := NewResponse(true, "Success", ResponseOptions{
		Authorization: "abc;123",
		Test:          true,
		Params:        params,
		Raw:           raw,
	})

	params["OrderID"] = "mutated"
	raw[0] = 'X'
	resp.Params()["OrderID"] = "mutated again"
	resp.Raw()[0] = 'Y'

	assert.Equal(t, "abc", resp.Param("OrderID"))
	assert.Equal(t, "<Result/>", string(resp.Raw()))
	assert.Equal(t, pkgerrors.CategoryApproved, resp.Category())

	declined := NewResponse(false, "DECLINED", ResponseOptions{})
	assert.Equal(t, pkgerrors.CategoryDeclined, declined.Category())
	assert.Empty(t, declined.Authorization())

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"authorization":"abc;123"`)
	assert.Contains(t, string(out), `"success":true`)
}

func TestGenerateOrderID(t *testing.T) {
	a, b := GenerateOrderID(), GenerateOrderID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
