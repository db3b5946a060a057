// Package apiclient talks to the DocuMetrics analysis backend over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// Backend endpoints.
const (
	MetricsPath    = "/api/metrics"
	AnalyzePath    = "/api/analyze"
	StatusPath     = "/api/status"
	FileDialogPath = "/api/file-dialog"
	DownloadPath   = "/api/download"
)

// ErrNoData is returned by FetchMetrics when the backend has no metrics yet.
var ErrNoData = errors.New("no metrics data available yet, analyze a path first")

// ErrNoSelection is returned by OpenFileDialog when the dialog yields no path.
var ErrNoSelection = errors.New("no path selected")

// APIError is a failed backend call. Message is safe to show to a user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// UserMessage returns the display message without the status code.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Client is a BackendClient over net/http.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ contract.BackendClient = &Client{} // Compile-time check

// New creates a client for baseURL. A zero timeout disables the per-request deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewWithHTTPClient creates a client that reuses an existing http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{httpClient: hc, baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchMetrics returns the combined metrics CSV.
func (c *Client) FetchMetrics(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, MetricsPath, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoData
	}
	if !isOK(resp) {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "Failed to load metrics: " + statusText(resp)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading metrics body: %w", err)
	}
	return string(body), nil
}

type analyzeRequest struct {
	Path string `json:"path"`
}

// StartAnalysis asks the backend to analyze path. Backslashes are sent as forward slashes.
func (c *Client) StartAnalysis(ctx context.Context, p string) (schema.StartAck, error) {
	payload, err := json.Marshal(analyzeRequest{Path: schema.NormalizePath(p)})
	if err != nil {
		return schema.StartAck{}, fmt.Errorf("encoding analyze request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, AnalyzePath, bytes.NewReader(payload))
	if err != nil {
		return schema.StartAck{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var ack schema.StartAck
	decodeErr := json.NewDecoder(resp.Body).Decode(&ack)
	if !isOK(resp) {
		msg := ack.Message
		if decodeErr != nil || msg == "" {
			msg = schema.StartFailedMessage
		}
		return ack, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return schema.StartAck{}, fmt.Errorf("decoding analyze response: %w", decodeErr)
	}
	return ack, nil
}

// GetStatus returns the backend's current job status.
func (c *Client) GetStatus(ctx context.Context) (schema.JobStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, StatusPath, nil)
	if err != nil {
		return schema.JobStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isOK(resp) {
		return schema.JobStatus{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "Failed to get analysis status: " + statusText(resp),
		}
	}
	var status schema.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return schema.JobStatus{}, fmt.Errorf("decoding status response: %w", err)
	}
	return status, nil
}

type dialogResponse struct {
	Path  *string `json:"path"`
	Error string  `json:"error"`
}

var backslashRun = regexp.MustCompile(`\\+`)

// OpenFileDialog asks the backend host to show a native folder picker and
// returns the chosen path with forward slashes.
func (c *Client) OpenFileDialog(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, FileDialogPath, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var body dialogResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	if !isOK(resp) || decodeErr != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "Failed to open file dialog"}
	}
	if body.Path == nil || *body.Path == "" {
		return "", ErrNoSelection
	}
	return backslashRun.ReplaceAllString(*body.Path, "/"), nil
}

// Download streams the metrics CSV for id into w and returns the suggested file name.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, DownloadPath+"?file="+url.QueryEscape(id), nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isOK(resp) {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "Failed to download metrics: " + statusText(resp)}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("copying download body: %w", err)
	}
	return attachmentName(resp.Header.Get("Content-Disposition"), id), nil
}

// DownloadName is the file name the backend suggests for id.
func DownloadName(id string) string {
	return path.Base(schema.NormalizePath(id)) + "_metrics.csv"
}

func attachmentName(header, id string) string {
	if header != "" {
		if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	return DownloadName(id)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

func isOK(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// statusText is the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
