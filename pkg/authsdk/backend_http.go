package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lumenauth/lumen/pkg/idx"
	"github.com/lumenauth/lumen/pkg/slogx"
	"golang.org/x/time/rate"
)

// Default client-side throttle for backend calls. Generous enough to be
// invisible in normal use while keeping a runaway retry loop inside quota.
// Override with: LUMEN_BACKEND_RPS, LUMEN_BACKEND_BURST
const (
	defaultBackendRPS   = 50
	defaultBackendBurst = 100
)

// RESTBackend implements Backend over the Lumen identity service's JSON API.
type RESTBackend struct {
	BaseURL    string
	HTTPClient *http.Client

	// Limiter throttles outgoing calls. Replace before first use or leave
	// the default.
	Limiter *rate.Limiter
}

// NewRESTBackend creates a backend client for the given service URL.
func NewRESTBackend(baseURL string) *RESTBackend {
	rps := envInt("LUMEN_BACKEND_RPS", defaultBackendRPS)
	burst := envInt("LUMEN_BACKEND_BURST", defaultBackendBurst)

	return &RESTBackend{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// envInt reads an integer environment override, falling back on def.
func envInt(name string, def int) int {
	if val := os.Getenv(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (b *RESTBackend) VerifyPassword(ctx context.Context, req *VerifyPasswordRequest) (*VerifyPasswordResponse, error) {
	var resp VerifyPasswordResponse
	if err := b.post(ctx, "/v1/accounts/sign-in", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *RESTBackend) VerifyAssertion(ctx context.Context, req *VerifyAssertionRequest) (*VerifyAssertionResponse, error) {
	var resp VerifyAssertionResponse
	if err := b.post(ctx, "/v1/accounts/assert", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *RESTBackend) SetAccountInfo(ctx context.Context, req *SetAccountInfoRequest) (*SetAccountInfoResponse, error) {
	var resp SetAccountInfoResponse
	if err := b.post(ctx, "/v1/accounts/update", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *RESTBackend) GetAccountInfo(ctx context.Context, req *GetAccountInfoRequest) (*GetAccountInfoResponse, error) {
	var resp GetAccountInfoResponse
	if err := b.post(ctx, "/v1/accounts/lookup", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *RESTBackend) SecureToken(ctx context.Context, req *SecureTokenRequest) (*SecureTokenResponse, error) {
	var resp SecureTokenResponse
	if err := b.post(ctx, "/v1/token/refresh", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *RESTBackend) EnrollMFA(ctx context.Context, req *EnrollMFARequest) (*EnrollMFAResponse, error) {
	var resp EnrollMFAResponse
	if err := b.post(ctx, "/v1/mfa/enroll", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *RESTBackend) FinalizeMFA(ctx context.Context, req *FinalizeMFARequest) (*FinalizeMFAResponse, error) {
	var resp FinalizeMFAResponse
	if err := b.post(ctx, "/v1/mfa/finalize", req.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post performs one JSON round-trip. Transport failures map to ErrNetwork,
// undecodable bodies to ErrBadResponse, and error payloads through
// mapServerSignal; the Code taxonomy is the only error surface callers see.
func (b *RESTBackend) post(ctx context.Context, path, apiKey string, body, target any) error {
	if err := b.Limiter.Wait(ctx); err != nil {
		return &Error{Code: CodeNetworkError, Description: err.Error()}
	}

	reqID := idx.New().String()
	log := slogx.FromContext(ctx).With("req_id", reqID, "path", path)

	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Code: CodeInternal, Description: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Code: CodeInternal, Description: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("X-Request-Id", reqID)

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		log.Warn("backend request failed", "err", err)
		return &Error{Code: CodeNetworkError, Description: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeNetworkError, Description: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sdkErr := parseErrorBody(resp.StatusCode, bodyBytes)
		log.Debug("backend error response", "status", resp.StatusCode, "code", sdkErr.Code)
		return sdkErr
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		log.Warn("backend response undecodable", "err", err)
		return ErrBadResponse
	}

	return nil
}

// parseErrorBody parses an error response into a typed *Error. Bodies that
// don't carry a recognisable signal still produce a typed error from the
// status code alone.
func parseErrorBody(status int, body []byte) *Error {
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return mapServerSignal(errResp.Error, errResp.ErrorDescription)
	}

	if status == http.StatusTooManyRequests {
		return ErrTooManyRequests
	}

	return &Error{
		Code:        CodeInternal,
		Description: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}
