// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
)

// KeycloakClient resolves approver roles from a Keycloak realm using a
// service-account token.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	approverRole string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// RoleRepresentation is a realm role mapped to a user.
type RoleRepresentation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret, approverRole string, timeout time.Duration) *KeycloakClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		approverRole: approverRole,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// IsApprover reports whether userID holds the approver realm role.
func (k *KeycloakClient) IsApprover(ctx context.Context, userID string) (bool, error) {
	return k.HasRealmRole(ctx, userID, k.approverRole)
}

// HasRealmRole reports whether userID holds role. Unknown users hold no roles.
func (k *KeycloakClient) HasRealmRole(ctx context.Context, userID, role string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}

	token, err := k.getAccessToken(ctx)
	if err != nil {
		return false, errors.NewAuthorizationCheckFailedError(err)
	}

	rolesURL := fmt.Sprintf("%s/admin/realms/%s/users/%s/role-mappings/realm",
		k.baseURL, url.PathEscape(k.realm), url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rolesURL, nil)
	if err != nil {
		return false, errors.NewAuthorizationCheckFailedError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return false, errors.NewAuthorizationCheckFailedError(fmt.Errorf("role mapping request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		k.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		stdErr := errors.NewAuthorizationCheckFailedError(
			fmt.Errorf("keycloak role mapping status %d: %s", resp.StatusCode, body))
		stdErr.Retryable = isTransientHTTPError(resp.StatusCode)
		return false, stdErr
	}

	var roles []RoleRepresentation
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		return false, errors.NewAuthorizationCheckFailedError(fmt.Errorf("decode role mappings: %w", err))
	}
	for _, r := range roles {
		if r.Name == role {
			return true, nil
		}
	}
	return false, nil
}

// getAccessToken fetches a token using the client credentials flow and
// caches it until shortly before expiry.
func (k *KeycloakClient) getAccessToken(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.accessToken != "" && time.Now().Before(k.tokenExpiry) {
		return k.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.baseURL, url.PathEscape(k.realm))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("keycloak token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	// treat the token as expired 30s early
	k.accessToken = tokenResp.AccessToken
	k.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - 30*time.Second)
	return k.accessToken, nil
}

func (k *KeycloakClient) invalidateToken() {
	k.mu.Lock()
	k.accessToken = ""
	k.mu.Unlock()
}

func isTransientHTTPError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusUnauthorized ||
		statusCode >= 500
}
