package upstream

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client is the shared HTTP transport every source adapter fetches through.
// Each call is bounded by two independent timeouts: the dialer's connect
// timeout and the total request timeout on the underlying http.Client.
type Client struct {
	httpClient *http.Client
	// Some reference-table hosts serve expired certificates; requests to
	// them go through this client instead.
	insecureClient *http.Client
	logger         *zap.Logger
}

// NewClient creates the shared upstream transport.
func NewClient(connectTimeout, requestTimeout time.Duration, logger *zap.Logger) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        32,
		IdleConnTimeout:     90 * time.Second,
	}

	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Client{
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		insecureClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: insecureTransport,
		},
		logger: logger,
	}
}

// Get fetches a URL and returns the raw body. Non-2xx statuses, transport
// failures and deadline overruns all come back as typed errors.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	status, body, err := c.do(ctx, c.httpClient, rawURL, headers)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamUnavailable("upstream returned status "+http.StatusText(status), nil)
	}
	return body, nil
}

// GetWithStatus fetches a URL and returns the status code alongside the body,
// leaving non-2xx handling to the caller. Used by adapters that must
// distinguish blocked-IP responses from ordinary failures.
func (c *Client) GetWithStatus(ctx context.Context, rawURL string, headers map[string]string) (int, []byte, error) {
	return c.do(ctx, c.httpClient, rawURL, headers)
}

// GetInsecure fetches a URL skipping TLS certificate verification.
func (c *Client) GetInsecure(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	status, body, err := c.do(ctx, c.insecureClient, rawURL, headers)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamUnavailable("upstream returned status "+http.StatusText(status), nil)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, rawURL string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, model.NewInvalidRequest("failed to create request: %v", err)
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("url", rawURL),
			zap.Error(err))
		return 0, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}

	return resp.StatusCode, body, nil
}

// classifyTransportError maps a transport failure to the error taxonomy:
// deadline overruns become UpstreamTimeout, everything else UpstreamUnavailable.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.NewUpstreamTimeout("upstream request timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewUpstreamTimeout("upstream request timed out", err)
	}
	return model.NewUpstreamUnavailable("upstream request failed", err)
}

// DecodeGBK converts a GBK-encoded payload to UTF-8. Sina quote feeds and
// several scraped pages are served in GBK.
func DecodeGBK(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	if err != nil {
		return "", model.NewParseError("failed to decode GBK payload: %v", err)
	}
	return string(decoded), nil
}

// sinaHeaders are the browser-like headers the Sina quote host expects.
func sinaHeaders() map[string]string {
	return map[string]string{
		"Accept":          "*/*",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
		"Referer":         "https://vip.stock.finance.sina.com.cn/",
		"User-Agent":      browserUserAgent,
	}
}

// financeHeaders are used for the stock2.finance.sina.com.cn JSONP endpoints.
func financeHeaders() map[string]string {
	return map[string]string{
		"Referer":    "https://finance.sina.com.cn/",
		"User-Agent": userAgent,
	}
}
