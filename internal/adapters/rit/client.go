package rit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBase       = "http://localhost:9999/v1"
	defaultRatePerSec = 20
)

// Client es el HTTP client de la API RIT con rate limiting.
// Implementa ports.Exchange para un único ticker. Cada llamada hace una sola
// request: el único reintento (429) lo hace el engine, así un POST /orders
// aceptado por el servidor nunca se duplica.
type Client struct {
	http    *http.Client
	base    string
	apiKey  string
	ticker  string
	limiter *rate.Limiter
}

// NewClient crea un Client. Si base está vacío usa el servidor local por defecto.
func NewClient(base, apiKey, ticker string, ratePerSec float64) *Client {
	if base == "" {
		base = defaultBase
	}
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	burst := int(math.Max(1, ratePerSec/4))
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		ticker:  ticker,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// get hace un GET con rate limiting.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, out)
}

// post hace un POST; la API RIT recibe los parámetros en la query string.
func (c *Client) post(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, q, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// decodeResponse clasifica el status: 401/403 → domain.ErrAuth,
// 429 → *domain.RateLimitedError, JSON inválido → domain.ErrMalformedResponse.
// 5xx y el resto de 4xx se devuelven tal cual, sin reintento.
func decodeResponse(resp *http.Response, out any) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrAuth)

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := parseWait(resp)
		slog.Debug("rate limited by API", "wait", wait)
		return &domain.RateLimitedError{Wait: wait}

	case resp.StatusCode >= 500:
		return fmt.Errorf("server error %d", resp.StatusCode)

	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("client error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %v: %w", err, domain.ErrMalformedResponse)
	}
	return nil
}

// parseWait lee el backoff del body {"wait": ms}; si falta usa Retry-After (segundos).
func parseWait(resp *http.Response) time.Duration {
	var body rateLimitBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err == nil && body.Wait != nil && *body.Wait >= 0 {
		return time.Duration(*body.Wait * float64(time.Millisecond))
	}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.ParseFloat(s, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}
