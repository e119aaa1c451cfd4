package adapter

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

const (
	// routineAttempts bounds retries for batches without crisis content.
	routineAttempts = 3
	// crisisAttempts bounds retries for crisis batches. One retry only:
	// a crisis batch that cannot reach the backend quickly is better served
	// by the local fallback path than by waiting out a backoff schedule.
	crisisAttempts = 2

	initialBackoff = 100 * time.Millisecond
)

type httpBackendAdapter struct {
	client *utils.HTTPClient

	hashKey string
	token   string

	logger *logger.Logger
}

// NewHTTPBackendAdapter constructs an HTTP/REST implementation of
// [BackendAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress, configures the underlying HTTP client with the
// resolved base URL and request timeout, and initialises the shared HMAC
// hasher pool used for transport integrity hashes.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPBackendAdapter(adapterCfg config.Adapter, appCfg config.App, logger *logger.Logger) (BackendAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	utils.InitHasherPool(appCfg.HashKey)

	return &httpBackendAdapter{client: client, hashKey: appCfg.HashKey, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [BackendAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpBackendAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [BackendAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpBackendAdapter) Token() string {
	return h.token
}

// Push implements [BackendAdapter]. It computes a transport integrity hash
// over req.Operations, sets req.Length, and POSTs the batch to
// POST /api/sync/push. The retry budget depends on the batch: routine batches
// get bounded exponential backoff, crisis batches fail fast.
func (h *httpBackendAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	req.Length = len(req.Operations)

	attempts := routineAttempts
	if batchHasCrisis(req.Operations) {
		attempts = crisisAttempts
	}

	var result models.PushResponse
	err := h.doWithRetry(ctx, attempts, func() (*resty.Response, error) {
		result = models.PushResponse{}
		return h.authedRequest(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("HashSHA256", computeTransportHash(req.Operations)).
			SetBody(req).
			SetResult(&result).
			Post("/api/sync/push")
	})
	if err != nil {
		return models.PushResponse{}, fmt.Errorf("push request: %w", err)
	}

	return result, nil
}

// Pull implements [BackendAdapter]. It POSTs the version watermark map to
// POST /api/sync/pull and decodes the missing operations from the response.
func (h *httpBackendAdapter) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	var result models.PullResponse
	err := h.doWithRetry(ctx, routineAttempts, func() (*resty.Response, error) {
		result = models.PullResponse{}
		return h.authedRequest(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(req).
			SetResult(&result).
			Post("/api/sync/pull")
	})
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("pull request: %w", err)
	}

	return result, nil
}

// RegisterDevice implements [BackendAdapter]. It POSTs the enrollment request
// to POST /api/devices/register and returns the registered record together
// with any device evicted under the tier limit.
func (h *httpBackendAdapter) RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.RegisterDeviceResponse, error) {
	var result models.RegisterDeviceResponse
	err := h.doWithRetry(ctx, routineAttempts, func() (*resty.Response, error) {
		result = models.RegisterDeviceResponse{}
		return h.authedRequest(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(req).
			SetResult(&result).
			Post("/api/devices/register")
	})
	if err != nil {
		return models.RegisterDeviceResponse{}, fmt.Errorf("register device request: %w", err)
	}

	return result, nil
}

// doWithRetry runs request up to attempts times. Transport errors (no
// response at all) and transient gateway statuses are retried with doubling
// backoff; every other failure is mapped and returned immediately. Transport
// errors that exhaust the budget wrap [models.ErrNetwork].
func (h *httpBackendAdapter) doWithRetry(ctx context.Context, attempts int, request func() (*resty.Response, error)) error {
	backoff := initialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := request()
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", models.ErrNetwork, err)
		} else {
			mapped := mapHTTPError(resp)
			if mapped == nil {
				return nil
			}
			if !retryableStatus(resp.StatusCode()) {
				return mapped
			}
			lastErr = mapped
		}

		if attempt == attempts {
			break
		}

		h.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("backend request failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", models.ErrNetwork, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return lastErr
}

func (h *httpBackendAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func batchHasCrisis(ops []*models.SyncOperation) bool {
	for _, op := range ops {
		if op != nil && op.CrisisFlagged() {
			return true
		}
	}
	return false
}

func computeTransportHash(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(utils.Hash(payload))
}
