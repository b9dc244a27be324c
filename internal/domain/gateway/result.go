package gateway

import (
	"encoding/json"
	"time"
)

// Result is the uniform shape of every gateway response. Body is valid JSON
// and is forwarded to the storefront untouched.
type Result struct {
	Body       json.RawMessage
	HTTPStatus int
}

// Success reports a 2xx status. A 2xx body can still carry a decline.
func (r *Result) Success() bool {
	return r != nil && r.HTTPStatus >= 200 && r.HTTPStatus < 300
}

// Issue is one entry of the gateway's details array.
type Issue struct {
	Field       string `json:"field,omitempty"`
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
}

// Summary is the handful of fields the service reads from a response for
// logging and classification. The forwarded body is never rebuilt from it.
type Summary struct {
	ID      string  `json:"id"`
	Status  string  `json:"status"`
	Name    string  `json:"name"`
	Message string  `json:"message"`
	DebugID string  `json:"debug_id"`
	Details []Issue `json:"details"`
}

// FirstIssue returns details[0].issue or "".
func (s Summary) FirstIssue() string {
	if len(s.Details) == 0 {
		return ""
	}
	return s.Details[0].Issue
}

// Summary decodes the well-known fields; unknown shapes yield a zero Summary.
func (r *Result) Summary() Summary {
	var s Summary
	if r == nil || len(r.Body) == 0 {
		return s
	}
	_ = json.Unmarshal(r.Body, &s)
	return s
}

// AccessToken is a bearer credential for the gateway.
type AccessToken struct {
	Value     string
	Obtained  time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the token may still be used at now, keeping skew in reserve.
// A token without a declared expiry is never considered reusable.
func (t AccessToken) ValidAt(now time.Time, skew time.Duration) bool {
	if t.Value == "" || t.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(skew).Before(t.ExpiresAt)
}
