// Package encoding renders request payloads and CLI output through pooled buffers.
package encoding

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"sync"
)

// maxPooledBuffer keeps outlier payloads from pinning memory in the pool
const maxPooledBuffer = 64 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves an empty bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool unless it grew past maxPooledBuffer
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// EncodeXMLDocument encodes v as a standalone XML document with the standard
// header. Output is byte-identical for identical input.
func EncodeXMLDocument(v interface{}) ([]byte, error) {
	return encodeWith(func(buf *bytes.Buffer) error {
		buf.WriteString(xml.Header)
		return xml.NewEncoder(buf).Encode(v)
	})
}

// EncodeJSONIndent encodes v as two-space indented JSON with a trailing newline
func EncodeJSONIndent(v interface{}) ([]byte, error) {
	return encodeWith(func(buf *bytes.Buffer) error {
		encoder := json.NewEncoder(buf)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	})
}

// encodeWith runs write against a pooled buffer and returns a private copy
func encodeWith(write func(*bytes.Buffer) error) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := write(buf); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}
