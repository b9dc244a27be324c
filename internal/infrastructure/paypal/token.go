package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
)

const (
	tokenPath     = "/v1/oauth2/token"
	tokenEndpoint = "oauth2_token"
)

var errNoAccessToken = errors.New("response has no access_token")

// Credentials identify the merchant app. Secret is never logged.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

func (c Credentials) complete() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenProvider exchanges client credentials for a fresh access token on every call.
type TokenProvider struct {
	baseURL string
	creds   Credentials
	t       *transport
	now     func() time.Time
}

func NewTokenProvider(baseURL string, creds Credentials, httpClient *http.Client, tel observability.Observability) *TokenProvider {
	return &TokenProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		t:       newTransport(httpClient, tel),
		now:     time.Now,
	}
}

// ClientID is safe to expose; it scopes shared token caches.
func (p *TokenProvider) ClientID() string { return p.creds.ClientID }

func (p *TokenProvider) AcquireToken(ctx context.Context) (gateway.AccessToken, error) {
	if !p.creds.complete() {
		return gateway.AccessToken{}, domain.MissingCredentials()
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return gateway.AccessToken{}, domain.TokenAcquisitionFailed(0, "", err)
	}
	req.SetBasicAuth(p.creds.ClientID, p.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	obtained := p.now()
	resp, err := p.t.send(ctx, tokenEndpoint, req)
	if err != nil {
		return gateway.AccessToken{}, domain.TokenAcquisitionFailed(0, "", err)
	}
	if resp.Truncated {
		return gateway.AccessToken{}, tokenFailure(resp, errResponseTooLarge)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return gateway.AccessToken{}, tokenFailure(resp, nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return gateway.AccessToken{}, tokenFailure(resp, err)
	}
	if tr.AccessToken == "" {
		return gateway.AccessToken{}, tokenFailure(resp, errNoAccessToken)
	}

	tok := gateway.AccessToken{Value: tr.AccessToken, Obtained: obtained}
	if tr.ExpiresIn > 0 {
		tok.ExpiresAt = obtained.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok, nil
}

func tokenFailure(resp *response, err error) error {
	e := domain.TokenAcquisitionFailed(resp.Status, string(resp.Body), err)
	e.DebugID = resp.DebugID
	return e
}
