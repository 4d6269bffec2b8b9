package errors

import (
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "network error uses fixed phrase",
			err:  NewNetworkError(&net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}),
			want: "couldn't connect to host",
		},
		{
			name: "xml parse error uses fixed phrase",
			err:  NewXMLParseError([]byte("<<Result>"), stderrors.New("syntax error")),
			want: "Error parsing XML response from merchant",
		},
		{
			name: "merchant error embeds processor code",
			err:  NewMerchantError("PSI-0007", "Unable to Parse XML request."),
			want: "Merchant error: PSI-0007:Unable to Parse XML request.",
		},
		{
			name: "merchant error without code",
			err:  NewMerchantError("", "request rejected"),
			want: "Merchant error: request rejected",
		},
		{
			name: "configuration error lists missing keys",
			err:  NewConfigurationError("psigate", "store_id", "passphrase"),
			want: "psigate: missing required option(s): store_id, passphrase",
		},
		{
			name: "validation error",
			err:  NewValidationError("number", "is required"),
			want: "validation error on field 'number': is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("purchase: %w", NewNetworkError(cause))

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
	assert.True(t, IsNetwork(wrapped))
	assert.False(t, IsParse(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	_, ok = KindOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsConfiguration(NewConfigurationError("", "glcode")))
	assert.True(t, IsParse(NewXMLParseError(nil, nil)))
	assert.True(t, IsMerchant(NewMerchantError("PSI-0007", "x")))
	assert.True(t, IsValidation(NewValidationError("amount", "must not be negative")))
	assert.False(t, IsMerchant(NewValidationError("amount", "x")))
}
