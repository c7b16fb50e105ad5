package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrInvalidGoogleToken is returned when Google does not vouch for a token.
var ErrInvalidGoogleToken = errors.New("invalid Google token")

// GoogleIdentity is the subset of tokeninfo claims used to provision users.
type GoogleIdentity struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Locale        string `json:"locale"`
}

// GoogleVerifier checks ID tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	endpoint  string
	clientIDs []string
	client    *http.Client
}

// NewGoogleVerifier returns a verifier. An empty clientIDs list accepts any
// audience.
func NewGoogleVerifier(endpoint string, clientIDs []string, client *http.Client) *GoogleVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{endpoint: endpoint, clientIDs: clientIDs, client: client}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrInvalidGoogleToken
	}
	u, err := url.Parse(v.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo url: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("tokeninfo read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidGoogleToken
	}

	var id GoogleIdentity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, ErrInvalidGoogleToken
	}
	if id.Email == "" || strings.EqualFold(id.EmailVerified, "false") {
		return nil, ErrInvalidGoogleToken
	}
	if len(v.clientIDs) > 0 && !contains(v.clientIDs, id.Audience) {
		return nil, ErrInvalidGoogleToken
	}
	return &id, nil
}

// DisplayName falls back to the local part of the email address.
func (id *GoogleIdentity) DisplayName() string {
	if n := strings.TrimSpace(id.Name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
