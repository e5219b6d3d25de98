package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/hoopline/statline-cli/internal/resilience"
)

const defaultUserAgent = "statline-cli/1.0"

// apiClient is the shared HTTP plumbing for both upstream APIs: a rate
// limiter gating every request and response classification into transient
// and permanent errors.
type apiClient struct {
	client    *http.Client
	baseURL   string
	limiter   *rate.Limiter
	userAgent string
}

func newAPIClient(baseURL string, timeout time.Duration, perSecond, burst int) *apiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if perSecond <= 0 {
		perSecond = 2
	}
	if burst <= 0 {
		burst = perSecond
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &apiClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL:   baseURL,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
		userAgent: defaultUserAgent,
	}
}

// getJSON performs a rate-limited GET and decodes the response into out.
// Timeouts, connection failures, 429 and 5xx come back as TransientError;
// 404, other 4xx and undecodable payloads come back as PermanentError.
func (a *apiClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "extract: rate limiter wait")
	}

	u := a.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrapf(err, "extract: create request for %s", path)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return eris.Wrapf(err, "extract: GET %s", path)
		}
		return resilience.NewTransientError(eris.Wrapf(err, "extract: GET %s", path), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resilience.NewTransientError(eris.Wrapf(err, "extract: read body from %s", path), 0)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return resilience.NewPermanentError(eris.Wrapf(err, "extract: decode response from %s", path), resp.StatusCode)
		}
		return nil
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(eris.Errorf("extract: http %d from %s", resp.StatusCode, path), resp.StatusCode)
	default:
		return resilience.NewPermanentError(eris.Errorf("extract: http %d from %s", resp.StatusCode, path), resp.StatusCode)
	}
}
