package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// mapError converts a non-2xx backend response into a display-ready error.
// A 422 whose detail is an object becomes a field-keyed error; every other
// shape is a single global message.
func mapError(status int, raw []byte) *appErrors.Error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		body.Detail = nil
	}

	switch status {
	case http.StatusUnprocessableEntity:
		fields, isObject := detailFields(body.Detail)
		switch {
		case len(fields) > 0:
			return appErrors.WithFields(appErrors.ErrBackendValidation, fields)
		case isObject:
			// an empty mapping names no field; use the fallback message
			return appErrors.Clone(appErrors.ErrBackendValidation, "")
		}
		return withDetail(appErrors.ErrBackendValidation, body.Detail)
	case http.StatusBadRequest:
		return withDetail(appErrors.ErrBadRequest, body.Detail)
	case http.StatusNotFound:
		return withDetail(appErrors.ErrNotFound, body.Detail)
	case http.StatusInternalServerError:
		return withDetail(appErrors.ErrBackendFailure, body.Detail)
	default:
		return appErrors.Clone(appErrors.ErrUnexpectedStatus, "")
	}
}

func withDetail(base *appErrors.Error, detail json.RawMessage) *appErrors.Error {
	return appErrors.Clone(base, detailText(detail))
}

// detailText renders detail as a message: strings verbatim, other JSON values
// compacted, null or missing as empty so callers fall back.
func detailText(detail json.RawMessage) string {
	trimmed := bytes.TrimSpace(detail)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// detailFields decodes an object detail into field messages. The boolean
// reports whether detail was an object at all, empty or not.
func detailFields(detail json.RawMessage) (map[string]string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(detail, &obj); err != nil || obj == nil {
		return nil, false
	}
	fields := make(map[string]string, len(obj))
	for field, msg := range obj {
		fields[field] = fieldMessage(msg)
	}
	return fields, true
}

// fieldMessage renders one field's message. A list of messages is joined
// with ", ".
func fieldMessage(msg json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return detailText(msg)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if text := detailText(item); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", ")
}
