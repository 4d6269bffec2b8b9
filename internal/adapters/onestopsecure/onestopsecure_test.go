package onestopsecure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
	"github.com/kevin07696/merchant-gateway/pkg/money"
)

func testCustomer() *domain.CustomerData {
	return &domain.CustomerData{
		CustomerID: "20571234",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.edu.au",
	}
}

func newTestBuilder(t *testing.T, extra ports.Options) *Builder {
	t.Helper()
	opts := ports.Options{OptionUDSAction: "ENROL", OptionGLCode: "1234-5678"}
	for k, v := range extra {
		opts[k] = v
	}
	b, err := New(opts, zap.NewNop())
	require.NoError(t, err)
	return b
}

func TestNew_RequiredOptions(t *testing.T) {
	_, err := New(ports.Options{OptionGLCode: "1234"}, nil)
	var cfgErr *pkgerrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{OptionUDSAction}, cfgErr.Missing)

	_, err = New(ports.Options{OptionUDSAction: "A", OptionGLCode: "B", OptionUnitSurcharge: "twelve"}, nil)
	assert.Error(t, err)
}

func TestBuildRedirectURL(t *testing.T) {
	b := newTestBuilder(t, nil)

	u, err := b.BuildRedirectURL(money.MustParse("150.00", "AUD"), testCustomer(), domain.ModeTest)
	require.NoError(t, err)

	assert.Equal(t, "https://uwa-dev.onestopsecure.com/UWA/tranadd?"+
		"CustomerId=20571234&Email=ada%40example.edu.au&FNAME=Ada&GLCODE=1234-5678&SNAME=Lovelace&"+
		"UDS_ACTION=ENROL&UnitAmountInctax=162.00&tran-type=10437", u.String())

	live, err := b.BuildRedirectURL(money.MustParse("150.00", "AUD"), testCustomer(), domain.ModeLive)
	require.NoError(t, err)
	assert.Equal(t, "payments.uwa.edu.au", live.Host)
	assert.Equal(t, "/integrated/tranadd", live.Path)
}

func TestBuildRedirectURL_Surcharge(t *testing.T) {
	tests := []struct {
		surcharge string
		want      string
	}{
		{surcharge: "", want: "162.00"},
		{surcharge: "2.50", want: "152.50"},
		{surcharge: "0", want: "150.00"},
	}

	for _, tt := range tests {
		b := newTestBuilder(t, ports.Options{OptionUnitSurcharge: tt.surcharge})
		u, err := b.BuildRedirectURL(money.MustParse("150.00", "AUD"), testCustomer(), domain.ModeTest)
		require.NoError(t, err)
		assert.Equal(t, tt.want, u.Query().Get("UnitAmountInctax"), "surcharge %q", tt.surcharge)
	}
}

func TestBuildRedirectURL_EndpointOverrides(t *testing.T) {
	// One override alone is ignored
	b := newTestBuilder(t, ports.Options{OptionDevURL: "https://dev.example.test/tranadd"})
	u, err := b.BuildRedirectURL(money.MustParse("1.00", "AUD"), testCustomer(), domain.ModeTest)
	require.NoError(t, err)
	assert.Equal(t, "uwa-dev.onestopsecure.com", u.Host)

	b = newTestBuilder(t, ports.Options{
		OptionDevURL:  "https://dev.example.test/tranadd",
		OptionProdURL: "https://pay.example.test/tranadd",
	})
	u, err = b.BuildRedirectURL(money.MustParse("1.00", "AUD"), testCustomer(), domain.ModeTest)
	require.NoError(t, err)
	assert.Equal(t, "dev.example.test", u.Host)

	u, err = b.BuildRedirectURL(money.MustParse("1.00", "AUD"), testCustomer(), domain.ModeLive)
	require.NoError(t, err)
	assert.Equal(t, "pay.example.test", u.Host)
}

func TestBuildRedirectURL_MissingCustomerFields(t *testing.T) {
	b := newTestBuilder(t, nil)

	_, err := b.BuildRedirectURL(money.MustParse("1.00", "AUD"), nil, domain.ModeTest)
	assert.True(t, pkgerrors.IsValidation(err))

	c := testCustomer()
	c.Email = ""
	u, err := b.BuildRedirectURL(money.MustParse("1.00", "AUD"), c, domain.ModeTest)
	assert.Nil(t, u)
	var vErr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
}
