package ports

import (
	"strings"

	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// Options are processor credentials and settings captured at construction.
// Keys are lowercase snake_case, e.g. "store_id".
type Options map[string]string

// Clone returns a copy so later caller mutation cannot leak into an adapter
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Get returns the trimmed value for key
func (o Options) Get(key string) string {
	return strings.TrimSpace(o[key])
}

// GetOr returns the value for key or def when absent
func (o Options) GetOr(key, def string) string {
	if v := o.Get(key); v != "" {
		return v
	}
	return def
}

// Require returns a ConfigurationError naming every absent key, in the order given
func (o Options) Require(processor string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if o.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.NewConfigurationError(processor, missing...)
	}
	return nil
}
