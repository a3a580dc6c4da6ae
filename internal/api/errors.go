package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindAuth
	KindValidation
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is returned for every failed request. Network errors carry the
// transport cause in Err and no Status.
type Error struct {
	Kind    ErrorKind
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ServerMessage is the human-readable message sent by the server, if any.
func (e *Error) ServerMessage() string {
	return e.Message
}

func newStatusError(method, path string, status int, body []byte) *Error {
	return &Error{
		Kind:    kindForStatus(status),
		Method:  method,
		Path:    path,
		Status:  status,
		Message: extractMessage(body),
		Body:    body,
	}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

func extractMessage(body []byte) string {
	var payload map[string]any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "Message", "error"} {
		if msg := messageText(payload[key]); msg != "" {
			return msg
		}
	}
	return ""
}

func messageText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
				parts = append(parts, strings.TrimSpace(text))
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

// MessageOr returns the server message carried by err, or fallback.
func MessageOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}
