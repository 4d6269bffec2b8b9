package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/merchant-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

func TestOptions_Require(t *testing.T) {
	opts := Options{"store_id": "teststore", "passphrase": "  "}

	err := opts.Require("psigate", "store_id", "passphrase", "region")
	var cfgErr *pkgerrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"passphrase", "region"}, cfgErr.Missing)
	assert.Equal(t, "psigate: missing required option(s): passphrase, region", err.Error())

	assert.NoError(t, opts.Require("psigate", "store_id"))
}

func TestOptions_CloneAndGet(t *testing.T) {
	opts := Options{"Store_ID": " teststore "}
	clone := opts.Clone()
	opts["Store_ID"] = "changed"

	assert.Equal(t, "teststore", clone.Get("store_id"))
	assert.Equal(t, "fallback", clone.GetOr("live_url", "fallback"))
	assert.Equal(t, "teststore", clone.GetOr("store_id", "fallback"))
}

func TestRequest_ForcedOutcome(t *testing.T) {
	req := &Request{Mode: domain.ModeLive, TestOutcome: domain.TestOutcomeAlwaysDecline}
	assert.Equal(t, domain.TestOutcomeUnset, req.ForcedOutcome())

	req.Mode = domain.ModeTest
	assert.Equal(t, domain.TestOutcomeAlwaysDecline, req.ForcedOutcome())
}
