package service

import (
	"bytes"
	"encoding/json"
)

// fieldErrorsFrom detects a field-level validation payload: a JSON object
// without an "id" key with at least one string value. Only string values of
// the allowed fields are returned; ok reports detection regardless.
func fieldErrorsFrom(data json.RawMessage, allowed ...string) (fields map[string]string, ok bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	if _, hasID := obj["id"]; hasID {
		return nil, false
	}

	strs := make(map[string]string, len(obj))
	for k, v := range obj {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			strs[k] = s
		}
	}
	if len(strs) == 0 {
		return nil, false
	}

	fields = make(map[string]string)
	for _, name := range allowed {
		if msg, found := strs[name]; found {
			fields[name] = msg
		}
	}
	return fields, true
}
