package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/shared"
	"golang.org/x/oauth2"
)

const defaultBaseURL string = "http://localhost:8000"

// Encoding selects how a response body is interpreted.
type Encoding int

const (
	EncodingJSON  Encoding = iota // structured text, decoded into [Response.JSON]
	EncodingBlob                  // binary payload with its content type (audio files)
	EncodingBytes                 // raw bytes, no interpretation
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingBlob:
		return "blob"
	case EncodingBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

func (e Encoding) accept() string {
	switch e {
	case EncodingJSON:
		return "application/json"
	default:
		return "*/*"
	}
}

// RequestDescriptor describes a single call. It is built per call and not modified by the gateway.
type RequestDescriptor struct {
	Path     string
	Method   string // defaults to GET
	Body     []byte
	Headers  map[string]string // overrides, applied last
	Encoding Encoding

	// OnProgress receives body transfer progress (0-100) when the response length is known.
	OnProgress func(percent int)
}

func (d RequestDescriptor) method() string {
	if d.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(d.Method)
}

// Response is a completed 2xx exchange.
type Response struct {
	Status      int
	Header      http.Header
	Body        []byte
	ContentType string
	Encoding    Encoding
	IsJSON      bool
	JSON        any
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := decodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// DefaultPreflightTimeout bounds a preflight request when no explicit limit is configured.
const DefaultPreflightTimeout = 2 * time.Second

// PreflightHook observes swallowed preflight failures.
type PreflightHook func(method, path string, err error)

// GatewayOpts configures a [Gateway].
type GatewayOpts struct {
	BaseURL string
	Origin  string
	Timeout time.Duration
	Client  *http.Client
	Tokens  oauth2.TokenSource
	Logger  *log.Logger

	// PreflightTimeout bounds the OPTIONS request. Zero uses [DefaultPreflightTimeout].
	PreflightTimeout   time.Duration
	OnPreflightFailure PreflightHook
}

// Gateway is the single chokepoint for calls to the backend. It attaches the stored
// credential, precedes non-read requests with a preflight and classifies failures into
// [TransportError], [ServiceError] and [TimeoutError]. It never retries.
type Gateway struct {
	baseURL       string
	origin        string
	timeout       time.Duration
	preflightWait time.Duration
	httpClient    *http.Client
	tokens        oauth2.TokenSource
	logger        *log.Logger
	onPreflight   PreflightHook
}

// NewGateway creates a gateway. A nil client gets a fresh client with a cookie jar so
// cookies set by the backend are sent back on later calls.
func NewGateway(opts GatewayOpts) *Gateway {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := opts.Client
	if client == nil {
		jar, _ := cookiejar.New(nil)
		client = &http.Client{Jar: jar}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	preflightWait := opts.PreflightTimeout
	if preflightWait <= 0 {
		preflightWait = DefaultPreflightTimeout
	}

	return &Gateway{
		baseURL:       baseURL,
		origin:        opts.Origin,
		timeout:       opts.Timeout,
		preflightWait: preflightWait,
		httpClient:    client,
		tokens:        opts.Tokens,
		logger:        logger,
		onPreflight:   opts.OnPreflightFailure,
	}
}

// BaseURL returns the resolved service address.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Send performs the call described by d.
//
// Failures are returned as [*TransportError], [*ServiceError] or [*TimeoutError].
// A failed preflight is logged at debug level and reported to the preflight hook but
// never returned: the primary request is attempted regardless.
func (g *Gateway) Send(ctx context.Context, d RequestDescriptor) (*Response, error) {
	method := d.method()
	headers := g.headers(d)

	if method != http.MethodGet && method != http.MethodHead {
		g.preflight(ctx, method, d.Path, headers)
	}

	// The request timeout starts after the preflight so a slow one cannot use it up.
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var body io.Reader
	if d.Body != nil {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+d.Path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrInvalidInput, err)
	}
	req.Header = headers

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classify(method, d.Path, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if d.OnProgress != nil && resp.ContentLength > 0 {
		reader = &progressReader{Reader: resp.Body, Total: resp.ContentLength, OnUpdate: d.OnProgress}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, classify(method, d.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{Method: method, Path: d.Path, Status: resp.StatusCode, Body: data}
	}

	out := &Response{
		Status:      resp.StatusCode,
		Header:      resp.Header,
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Encoding:    d.Encoding,
	}

	if d.Encoding == EncodingJSON && len(data) > 0 {
		var v any
		if err := decodeJSON(data, &v); err == nil {
			out.IsJSON = true
			out.JSON = v
		}
	}

	return out, nil
}

// headers builds the request headers: defaults, then the credential, then overrides.
func (g *Gateway) headers(d RequestDescriptor) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", d.Encoding.accept())
	if g.origin != "" {
		h.Set("Origin", g.origin)
	}

	if g.tokens != nil {
		tok, err := g.tokens.Token()
		switch {
		case err == nil:
			h.Set("Authorization", tok.Type()+" "+tok.AccessToken)
		case errors.Is(err, shared.ErrMissingToken):
		default:
			g.logger.Warn("credential unavailable, sending unauthenticated", "error", err)
		}
	}

	for k, v := range d.Headers {
		h.Set(k, v)
	}
	return h
}

// preflight issues an OPTIONS request advertising method and headers. Its outcome is
// advisory only.
func (g *Gateway) preflight(ctx context.Context, method, path string, headers http.Header) {
	names := make([]string, 0, len(headers))
	for k := range headers {
		if lk := strings.ToLower(k); lk != "origin" {
			names = append(names, lk)
		}
	}
	slices.Sort(names)

	ctx, cancel := context.WithTimeout(ctx, g.preflightWait)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, g.baseURL+path, nil)
	if err != nil {
		g.preflightFailed(method, path, err)
		return
	}
	if origin := headers.Get("Origin"); origin != "" {
		req.Header.Set("Origin", origin)
	}
	req.Header.Set("Access-Control-Request-Method", method)
	req.Header.Set("Access-Control-Request-Headers", strings.Join(names, ", "))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.preflightFailed(method, path, classify(http.MethodOptions, path, err))
		return
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if err != nil {
		g.preflightFailed(method, path, classify(http.MethodOptions, path, err))
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.preflightFailed(method, path, &ServiceError{Method: http.MethodOptions, Path: path, Status: resp.StatusCode})
	}
}

func (g *Gateway) preflightFailed(method, path string, err error) {
	g.logger.Debug("preflight failed, continuing", "path", path, "method", method, "error", err)
	if g.onPreflight != nil {
		g.onPreflight(method, path, err)
	}
}

// progressReader reports percent complete as the body is read. Updates are only sent
// when the percentage changes.
type progressReader struct {
	Reader   io.Reader
	Total    int64
	Done     int64
	OnUpdate func(percent int)

	last int
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.Done += int64(n)

	percent := int(pr.Done * 100 / pr.Total)
	if percent > 100 {
		percent = 100
	}
	if percent != pr.last {
		pr.last = percent
		pr.OnUpdate(percent)
	}
	return n, err
}

func decodeJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
