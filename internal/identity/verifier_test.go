package identity

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testNumber = "22212345678"

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func identityServer(t *testing.T, status int, body map[string]interface{}, calls *int32) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		assert.Equal(t, "/identity/bvn/verify", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req verifyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testNumber, req.Number)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newVerifier(t *testing.T, baseURL string, rdb *redis.Client) *Verifier {
	return NewVerifier(config.IdentityConfig{
		BaseURL:  baseURL + "/",
		APIKey:   "test-key",
		Timeout:  2000,
		CacheTTL: 3600,
	}, rdb, logger.NewTestLogger(t))
}

var verifiedBody = map[string]interface{}{
	"status":  "verified",
	"message": "ok",
	"data": map[string]interface{}{
		"firstName":   "Ada",
		"middleName":  "Ngozi",
		"lastName":    "Obi",
		"dateOfBirth": "1990-04-12",
	},
}

// ==========================
// Verify
// ==========================

func TestVerify_VerifiedIsCached(t *testing.T) {
	var calls int32
	server := identityServer(t, http.StatusOK, verifiedBody, &calls)
	rdb, mr := setupRedis(t)
	v := newVerifier(t, server.URL, rdb)

	id, err := v.Verify(context.Background(), testNumber, "Ada", "Obi")
	require.NoError(t, err)
	assert.Equal(t, "Ngozi", id.MiddleName)
	assert.True(t, mr.Exists(CacheKey(testNumber)))
	assert.Equal(t, time.Hour, mr.TTL(CacheKey(testNumber)))

	again, err := v.Verify(context.Background(), testNumber, "Ada", "Obi")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestVerify_NotVerifiedStatuses(t *testing.T) {
	for _, status := range []string{StatusFailed, StatusBlacklisted} {
		t.Run(status, func(t *testing.T) {
			server := identityServer(t, http.StatusOK, map[string]interface{}{"status": status, "message": "no match"}, nil)
			rdb, mr := setupRedis(t)
			v := newVerifier(t, server.URL, rdb)

			_, err := v.Verify(context.Background(), testNumber, "", "")
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeUnverifiedIdentity, stdErr.Code)
			assert.Equal(t, status, stdErr.Metadata["verificationStatus"])
			assert.False(t, mr.Exists(CacheKey(testNumber)))
		})
	}
}

func TestVerify_HTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   errors.ErrorCode
	}{
		{"bad request", http.StatusBadRequest, errors.ErrCodeUnverifiedIdentity},
		{"not found", http.StatusNotFound, errors.ErrCodeUnverifiedIdentity},
		{"server error", http.StatusInternalServerError, errors.ErrCodeIdentityServiceUnavailable},
		{"unavailable", http.StatusServiceUnavailable, errors.ErrCodeIdentityServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := identityServer(t, tt.status, map[string]interface{}{"message": "x"}, nil)
			v := newVerifier(t, server.URL, nil)

			_, err := v.Verify(context.Background(), testNumber, "", "")
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestVerify_UnreachableIsRetryable(t *testing.T) {
	v := newVerifier(t, "http://127.0.0.1:1", nil)

	_, err := v.Verify(context.Background(), testNumber, "", "")
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIdentityServiceUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestVerify_RejectsMalformedNumbers(t *testing.T) {
	v := newVerifier(t, "http://unused", nil)
	for _, n := range []string{"", "1234", "2221234567a", "222123456789"} {
		_, err := v.Verify(context.Background(), n, "", "")
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed), n)
	}
}

func TestVerify_CacheReadFailureFallsThrough(t *testing.T) {
	server := identityServer(t, http.StatusOK, verifiedBody, nil)
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(CacheKey(testNumber)).SetErr(stderrors.New("redis down"))
	cached, _ := json.Marshal(&models.VerifiedIdentity{
		FirstName: "Ada", MiddleName: "Ngozi", LastName: "Obi", DateOfBirth: "1990-04-12",
	})
	mock.ExpectSet(CacheKey(testNumber), cached, time.Hour).SetVal("OK")

	v := newVerifier(t, server.URL, rdb)
	id, err := v.Verify(context.Background(), testNumber, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Ada", id.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Helpers
// ==========================

func TestCacheKey_DoesNotLeakNumber(t *testing.T) {
	key := CacheKey(testNumber)
	assert.NotContains(t, key, testNumber)
	assert.Len(t, key, len(cacheKeyPrefix)+64)
}

func TestMaskIDNumber(t *testing.T) {
	assert.Equal(t, "*******5678", MaskIDNumber(testNumber))
	assert.Equal(t, "***", MaskIDNumber("123"))
}
