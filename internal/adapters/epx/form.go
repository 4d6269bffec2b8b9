package epx

import (
	"net/url"
	"sync"
)

var formPool = sync.Pool{
	New: func() interface{} {
		return make(url.Values, 24)
	},
}

// form accumulates EPX request fields. Forms are pooled because each one
// briefly holds card data; release clears it before reuse.
type form struct {
	values url.Values
}

func newForm() *form {
	return &form{values: formPool.Get().(url.Values)}
}

func (f *form) set(key, value string) {
	f.values.Set(key, value)
}

// setIfPresent skips empty values so optional fields are omitted entirely
func (f *form) setIfPresent(key, value string) {
	if value != "" {
		f.values.Set(key, value)
	}
}

// merchant writes the four-level merchant hierarchy
func (f *form) merchant(c Credentials) {
	f.set("CUST_NBR", c.CustNbr)
	f.set("MERCH_NBR", c.MerchNbr)
	f.set("DBA_NBR", c.DBANbr)
	f.set("TERMINAL_NBR", c.TerminalNbr)
}

func (f *form) get(key string) string {
	return f.values.Get(key)
}

// encode sorts keys, so identical requests give identical bodies
func (f *form) encode() string {
	return f.values.Encode()
}

func (f *form) release() {
	for k := range f.values {
		delete(f.values, k)
	}
	formPool.Put(f.values)
	f.values = nil
}
