package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/skeinhq/skein-cli/internal/buildinfo"
	"github.com/skeinhq/skein-cli/internal/config"
	"github.com/skeinhq/skein-cli/internal/logging"
	"github.com/skeinhq/skein-cli/internal/util"
)

const (
	defaultPageSize = 25
	acceptEncoding  = "gzip, br, zstd"
)

// APIError is a non-2xx response from the Skein API.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Code is the machine-readable error code reported by the API, if any.
	Code string
	// Message is the human-readable error message.
	Message string
	// RequestID is the X-Request-Id sent with the failed call.
	RequestID string
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("skein api: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("skein api: %s (status %d)", e.Message, e.StatusCode)
}

// Client is a bearer-authenticated Skein REST client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	requestLog *logging.FileRequestLogger
	pageSize   int
}

// NewClient creates a client that authenticates every call with the given
// access token over the configured proxy.
func NewClient(cfg *config.Config, accessToken string) *Client {
	base := util.SetProxy(cfg, &http.Client{Timeout: 60 * time.Second})
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   base.Transport,
		},
	}

	baseURL := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimSuffix(config.DefaultAPIBaseURL, "/")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		requestLog: logging.NewFileRequestLogger(cfg.RequestLog, logging.ResolveLogDirectory(cfg)),
		pageSize:   pageSize,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("skein api: create request failed: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("User-Agent", "skein-cli/"+buildinfo.Version)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	log.WithField("request_id", requestID[:8]).Debugf("skein api: %s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("skein api: %s %s failed: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debugf("skein api: close response body error: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("skein api: read response failed: %w", err)
	}
	finished := time.Now()

	if c.requestLog.IsEnabled() {
		if logErr := c.requestLog.LogCall(endpoint, method, req.Header.Clone(), body, resp.StatusCode, resp.Header.Clone(), raw, requestID[:8], started, finished); logErr != nil {
			log.Debugf("skein api: request transcript failed: %v", logErr)
		}
	}

	payload, err := decompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, fmt.Errorf("skein api: decompress response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, payload, requestID)
	}
	return payload, nil
}

func (c *Client) limitOr(limit int) int {
	if limit > 0 {
		return limit
	}
	return c.pageSize
}

func newAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Code:       gjson.GetBytes(body, "error.code").String(),
		Message:    gjson.GetBytes(body, "error.message").String(),
		RequestID:  requestID,
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// decompressBody reverses the Content-Encoding of a response. Encodings
// outside the advertised set are passed through untouched.
func decompressBody(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		gzipReader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		return io.ReadAll(gzipReader)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	case "zstd":
		zstdReader, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zstdReader.Close()
		return io.ReadAll(zstdReader.IOReadCloser())
	default:
		return body, nil
	}
}
