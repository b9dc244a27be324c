// Package paypal talks to the PayPal REST API: OAuth client-credential tokens
// and the Orders v2 create and capture calls.
package paypal

import (
	"fmt"
	"strings"
)

const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"
)

// BaseURL maps an environment name to its API root. Empty means sandbox.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "sandbox":
		return SandboxBaseURL, nil
	case "live", "production":
		return LiveBaseURL, nil
	default:
		return "", fmt.Errorf("paypal: unknown environment %q", env)
	}
}
