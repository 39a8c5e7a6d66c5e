package enroll

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork wraps transport failures: the request never produced a response.
var ErrNetwork = errors.New("enrollment server unreachable")

// Error codes for the JSON endpoints.
const (
	ErrCodeUserExists   = "user_exists"
	ErrCodeNoUser       = "no_user"
	ErrCodeBadPassword  = "bad_password"
	ErrCodeNotVerified  = "not_verified"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeServerError  = "server_error"
	ErrCodeUnknownReply = "unknown_reply"
)

// APIError is a non-success reply from register or login.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" || e.Message == e.Code {
		return fmt.Sprintf("%s (status %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
}

// errorBody is the backend's error envelope. detail is either a code string
// or an object describing a failed verification.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// newAPIError converts an error reply into an APIError, mapping the status
// when the body carries no code.
func newAPIError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Detail) > 0 {
		var code string
		if err := json.Unmarshal(eb.Detail, &code); err == nil && code != "" {
			return &APIError{Status: status, Code: code, Message: code}
		}
		if status == http.StatusUnauthorized {
			return &APIError{Status: status, Code: ErrCodeNotVerified, Message: string(eb.Detail)}
		}
	}

	switch {
	case status == http.StatusBadRequest:
		return &APIError{Status: status, Code: ErrCodeBadRequest, Message: string(body)}
	case status == http.StatusNotFound:
		return &APIError{Status: status, Code: ErrCodeNoUser, Message: string(body)}
	case status == http.StatusUnauthorized:
		return &APIError{Status: status, Code: ErrCodeNotVerified, Message: string(body)}
	case status >= 500:
		return &APIError{Status: status, Code: ErrCodeServerError, Message: string(body)}
	default:
		return &APIError{Status: status, Code: ErrCodeUnknownReply, Message: string(body)}
	}
}
