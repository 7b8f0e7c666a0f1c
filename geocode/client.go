// Package geocode wraps a Nominatim-compatible forward-geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerSecond = 1.0
	defaultRateBurst         = 1
	maxResponseBytes         = 2 << 20
	userAgent                = "RealityBuilder/1.0 (listing aggregation)"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return NewClientWithLimits(baseURL, apiKey, timeout, defaultRequestsPerSecond, defaultRateBurst)
}

func NewClientWithLimits(baseURL, apiKey string, timeout time.Duration, perSecond float64, burst int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 2
	rc.Logger = nil
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	rc.HTTPClient.Timeout = timeout

	var limiter *rate.Limiter
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    rc,
		limiter: limiter,
	}
}

// Geocode resolves a raw address to coordinates. An empty candidate list is
// (nil, nil): not an error, just no fix.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	if address == "" {
		return nil, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", "1")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	u := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("geocoder error %d", resp.StatusCode)
	}
	body, err := readAllLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	if err := json.Unmarshal(body, &candidates); err != nil {
		return nil, fmt.Errorf("geocoder payload: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(candidates[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder lat %q: %w", candidates[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(candidates[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder lon %q: %w", candidates[0].Lon, err)
	}
	return &Result{Latitude: lat, Longitude: lon, Payload: body}, nil
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
