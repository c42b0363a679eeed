package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// decode unmarshals body into out, unwrapping a {"data": ...} envelope when
// present. present is false for a null payload.
func decode(body []byte, out any) (present bool, err error) {
	payload := bytes.TrimSpace(body)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return false, nil
	}

	if payload[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(payload, &env); err != nil {
			return false, err
		}
		if data, ok := env["data"]; ok {
			payload = bytes.TrimSpace(data)
			if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
				return false, nil
			}
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, err
	}
	return true, nil
}

const maxMessageLen = 200

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	var fields struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &fields) == nil {
		if fields.Message != "" {
			return fields.Message
		}
		if fields.Error != "" {
			return fields.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return msg
}
