// Package identity verifies applicant BVNs against the identity API and
// caches verified results in Redis.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	httpclient "github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/http"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	StatusVerified    = "verified"
	StatusFailed      = "failed"
	StatusBlacklisted = "blacklisted"

	cacheKeyPrefix = "identity:bvn:"
)

var idNumberPattern = regexp.MustCompile(`^\d{11}$`)

type verifyRequest struct {
	Number    string `json:"number"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type verifyResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Data    models.VerifiedIdentity `json:"data"`
}

// Verifier calls the BVN verification endpoint.
type Verifier struct {
	client   *httpclient.Client
	baseURL  string
	apiKey   string
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewVerifier builds a verifier. A nil redis client disables caching.
func NewVerifier(cfg config.IdentityConfig, rdb *redis.Client, log logger.Logger) *Verifier {
	return &Verifier{
		client:   httpclient.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		redis:    rdb,
		cacheTTL: time.Duration(cfg.CacheTTL) * time.Second,
		logger:   log.WithFields(map[string]interface{}{"component": "identity-verifier"}),
	}
}

// Verify returns the verified identity for number. Failed or blacklisted
// numbers yield UNVERIFIED_IDENTITY; an unreachable service yields the
// retryable IDENTITY_SERVICE_UNAVAILABLE.
func (v *Verifier) Verify(ctx context.Context, number, firstName, lastName string) (*models.VerifiedIdentity, error) {
	number = strings.TrimSpace(number)
	if !idNumberPattern.MatchString(number) {
		return nil, errors.NewValidationFailedError("identity number must be exactly 11 digits")
	}

	key := CacheKey(number)
	if cached, ok := v.fromCache(ctx, key); ok {
		v.logger.Debug("identity cache hit", map[string]interface{}{"idNumber": MaskIDNumber(number)})
		return cached, nil
	}

	var resp verifyResponse
	err := v.client.DoJSON(ctx, http.MethodPost, v.baseURL+"/identity/bvn/verify",
		map[string]string{"x-api-key": v.apiKey},
		verifyRequest{Number: number, FirstName: firstName, LastName: lastName},
		&resp)
	if err != nil {
		return nil, v.classify(number, err)
	}

	switch resp.Status {
	case StatusVerified:
		v.toCache(ctx, key, &resp.Data)
		v.logger.Info("identity verified", map[string]interface{}{"idNumber": MaskIDNumber(number)})
		return &resp.Data, nil
	case StatusFailed, StatusBlacklisted:
		v.logger.Warn("identity not verified", map[string]interface{}{
			"idNumber": MaskIDNumber(number),
			"status":   resp.Status,
		})
		msg := resp.Message
		if msg == "" {
			msg = "identity verification " + resp.Status
		}
		return nil, errors.NewUnverifiedIdentityError(msg).WithMetadata("verificationStatus", resp.Status)
	default:
		return nil, errors.NewIdentityServiceUnavailableError(
			fmt.Errorf("unexpected verification status %q", resp.Status))
	}
}

func (v *Verifier) classify(number string, err error) error {
	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
			return errors.NewUnverifiedIdentityError("identity number could not be verified").
				WithMetadata("verificationStatus", StatusFailed)
		}
	}
	v.logger.Error("identity service call failed", map[string]interface{}{
		"idNumber": MaskIDNumber(number),
		"error":    err,
	})
	return errors.NewIdentityServiceUnavailableError(err)
}

func (v *Verifier) fromCache(ctx context.Context, key string) (*models.VerifiedIdentity, bool) {
	if v.redis == nil {
		return nil, false
	}
	raw, err := v.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			v.logger.Warn("identity cache read failed", map[string]interface{}{"error": err})
		}
		return nil, false
	}
	var id models.VerifiedIdentity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		v.logger.Warn("identity cache entry corrupt", map[string]interface{}{"error": err})
		return nil, false
	}
	return &id, true
}

func (v *Verifier) toCache(ctx context.Context, key string, id *models.VerifiedIdentity) {
	if v.redis == nil || v.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := v.redis.Set(ctx, key, payload, v.cacheTTL).Err(); err != nil {
		v.logger.Warn("identity cache write failed", map[string]interface{}{"error": err})
	}
}

// CacheKey hashes the identity number so it never appears in Redis.
func CacheKey(number string) string {
	sum := sha256.Sum256([]byte(number))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// MaskIDNumber keeps only the last four digits.
func MaskIDNumber(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
