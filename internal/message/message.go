// Package message reads fields out of inbound payloads.
//
// The dispatcher treats payloads as opaque. The HTTP transport delivers
// JSON (json.RawMessage); tests and embedders often pass a plain string,
// which is taken to be the message text itself.
package message

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
)

// Field names of a chat server's outgoing webhook body.
const (
	FieldText     = "text"
	FieldUserName = "user_name"
	FieldChannel  = "channel_name"
)

// Text returns the message text of p.
func Text(p dispatch.Payload) string {
	if s, ok := p.(string); ok {
		return s
	}
	return Field(p, FieldText)
}

// UserName returns the author of p, or "" when unknown.
func UserName(p dispatch.Payload) string {
	return Field(p, FieldUserName)
}

// Field returns the value at the gjson path in a JSON payload, or "" when
// p is not JSON or the path does not exist.
func Field(p dispatch.Payload, path string) string {
	res, ok := lookup(p, path)
	if !ok {
		return ""
	}
	return res.String()
}

func lookup(p dispatch.Payload, path string) (gjson.Result, bool) {
	var raw []byte
	switch v := p.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case nil, string:
		return gjson.Result{}, false
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return gjson.Result{}, false
		}
		raw = b
	}
	res := gjson.GetBytes(raw, path)
	return res, res.Exists()
}
