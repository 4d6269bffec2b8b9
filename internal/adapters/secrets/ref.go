package secrets

import (
	"encoding/json"
	"strings"
)

// DefaultField is the entry read when a reference has no "#field" selector
const DefaultField = "value"

// splitRef parses "path#field", e.g. "merchant-gateway/psigate#passphrase".
// explicit reports whether the caller named a field.
func splitRef(ref string) (path, field string, explicit bool) {
	path, field, found := strings.Cut(ref, "#")
	if !found || field == "" {
		return path, DefaultField, false
	}
	return path, field, true
}

// selectField picks field out of a key/value secret document. Remaining string
// entries, and the entries of a nested "tags" object, are returned as metadata.
func selectField(data map[string]interface{}, field string) (string, map[string]string) {
	value, _ := data[field].(string)
	metadata := make(map[string]string)
	for k, v := range data {
		if k == field {
			continue
		}
		switch typed := v.(type) {
		case string:
			metadata[k] = typed
		case map[string]interface{}:
			if k != "tags" {
				continue
			}
			for tk, tv := range typed {
				if s, ok := tv.(string); ok {
					metadata[tk] = s
				}
			}
		}
	}
	return value, metadata
}

// decodeDocument reports whether raw is a JSON object
func decodeDocument(raw []byte) (map[string]interface{}, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return doc, true
}
