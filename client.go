package botkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

// Client is a thin HTTP wrapper around the Telegram Bot API.
// It is safe for concurrent use.
type Client struct {
	token        string
	apiURL       string
	http         *http.Client
	log          *zap.Logger
	tracer       trace.Tracer
	metrics      *Metrics
	maxRetries   int
	maxFloodWait time.Duration
	defaults     *Defaults
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIURL points the client at another Bot API server, e.g. a local one.
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) { c.apiURL = strings.TrimRight(apiURL, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithZapLogger sets the transport logger.
func WithZapLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// WithTracerProvider sets the provider for API call spans.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) { c.tracer = tp.Tracer("github.com/en9inerd/botkit") }
}

// WithMetrics records API calls in m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithRetries sets how often transient failures are retried. Negative disables retries.
func WithRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithMaxFloodWait sets the longest retry_after the client sleeps through.
func WithMaxFloodWait(d time.Duration) ClientOption {
	return func(c *Client) { c.maxFloodWait = d }
}

// WithDefaults applies d to outgoing requests.
func WithDefaults(d *Defaults) ClientOption {
	return func(c *Client) { c.defaults = d }
}

// NewClient creates a Bot API client for token.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if !tokenPattern.MatchString(token) {
		return nil, ErrInvalidToken
	}
	c := &Client{
		token:        token,
		apiURL:       "https://api.telegram.org",
		http:         &http.Client{Timeout: 60 * time.Second},
		log:          zap.NewNop(),
		tracer:       otel.GetTracerProvider().Tracer("github.com/en9inerd/botkit"),
		maxRetries:   3,
		maxFloodWait: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the bot token.
func (c *Client) Token() string { return c.token }

// apiResponse is the envelope of every Bot API response.
type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	Description string              `json:"description"`
	ErrorCode   int                 `json:"error_code"`
	Parameters  *ResponseParameters `json:"parameters"`
}

// request is an encoded method call. The body is kept in memory so it can
// be replayed on retries.
type request struct {
	body        []byte
	contentType string
}

// call invokes method with params and decodes the result into T.
func call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var zero T
	raw, err := c.Raw(ctx, method, params)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("botkit: decode %s result: %w", method, err)
	}
	return out, nil
}

// Raw invokes any Bot API method and returns the undecoded result.
func (c *Client) Raw(ctx context.Context, method string, params any) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "telegram."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("telegram.method", method)))
	defer span.End()

	start := time.Now()
	req, err := c.encode(method, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := c.invoke(ctx, method, req)
	c.metrics.observeRequest(method, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// do performs a single HTTP round trip.
func (c *Client) do(ctx context.Context, method string, req *request) (json.RawMessage, error) {
	endpoint := c.apiURL + "/bot" + c.token + "/" + method
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.body))
	if err != nil {
		return nil, fmt.Errorf("botkit: create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", req.contentType)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		err = stripURL(err)
		c.log.Debug("request failed", zap.String("method", method), zap.Error(err))
		return nil, &NetworkError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Method: method, Err: err}
	}
	c.log.Debug("request done",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if resp.StatusCode >= 500 {
			return nil, &Error{Method: method, Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("botkit: decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		code := apiResp.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &Error{
			Method:      method,
			Code:        code,
			Description: apiResp.Description,
			Parameters:  apiResp.Parameters,
		}
	}
	return apiResp.Result, nil
}

// encode marshals params as JSON, or as multipart/form-data when a file
// needs uploading.
func (c *Client) encode(method string, params any) (*request, error) {
	var uploads []upload
	if u, ok := params.(uploader); ok {
		n := 0
		for _, up := range u.uploads() {
			if !up.file.NeedsUpload() {
				continue
			}
			if up.field == "" {
				up.file.attach = fmt.Sprintf("file%d", n)
				n++
			} else {
				up.file.attach = ""
			}
			uploads = append(uploads, up)
		}
	}

	fields := map[string]json.RawMessage{}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("botkit: marshal %s request: %w", method, err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("botkit: %s params must encode to an object: %w", method, err)
		}
	}
	c.defaults.apply(method, fields)

	if len(uploads) == 0 {
		body, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("botkit: marshal %s request: %w", method, err)
		}
		return &request{body: body, contentType: "application/json"}, nil
	}
	return encodeMultipart(method, fields, uploads)
}

func encodeMultipart(method string, fields map[string]json.RawMessage, uploads []upload) (*request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		raw := fields[k]
		if string(raw) == "null" {
			continue
		}
		value := string(raw)
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, fmt.Errorf("botkit: encode %s field %s: %w", method, k, err)
			}
		}
		if err := w.WriteField(k, value); err != nil {
			return nil, err
		}
	}

	for _, up := range uploads {
		name := up.field
		if name == "" {
			name = up.file.attach
		}
		part, err := w.CreateFormFile(name, up.file.name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, up.file.reader); err != nil {
			return nil, fmt.Errorf("botkit: read %s upload %s: %w", method, name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &request{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

// DownloadFile streams the content of a file obtained with GetFile.
// The caller must close the returned reader.
func (c *Client) DownloadFile(ctx context.Context, f *File) (io.ReadCloser, error) {
	if f == nil || f.FilePath == "" {
		return nil, errors.New("botkit: file has no path, call GetFile first")
	}
	endpoint := c.apiURL + "/file/bot" + c.token + "/" + f.FilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("botkit: create download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: "downloadFile", Err: stripURL(err)}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &Error{Method: "downloadFile", Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	return resp.Body, nil
}

// stripURL drops the request URL, which carries the token, from err.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
