package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Tokens is the session surface the client reads and the refresher writes.
type Tokens interface {
	Access() string
	Refresh() string
	Renew(access string)
	Revoke()
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	ImageHost string // host (optionally host:port) that never receives credentials
	Timeout   time.Duration
	RPS       float64 // outbound requests per second, 0 disables limiting
	Burst     int
}

// Request describes one logical call. Path is relative to the base URL unless absolute.
type Request struct {
	Method    string
	Path      string
	Body      interface{}
	Multipart bool // Body must be a *MultipartBody
	Header    http.Header
	// Anonymous requests carry no access token and are never refreshed (login, signup).
	Anonymous bool
}

// MultipartBody is a pre-encoded multipart payload.
type MultipartBody struct {
	ContentType string
	Data        []byte
}

// PendingRequest is the replayable, fully resolved form of a Request.
// Retried goes false->true at most once and is never reset.
type PendingRequest struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Retried bool

	external  bool   // targets the image host
	anonymous bool   // never carries the bearer token
	sentToken string // bearer token used on the latest attempt
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) Decode(out interface{}) error {
	if out == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Message extracts the backend's human-readable message, if any.
func (r *Response) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return strings.TrimSpace(string(r.Body))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// Client is the HTTP client core. It is safe for concurrent use; the refresh
// interceptor state is shared by every request sent through one Client.
type Client struct {
	baseURL      *url.URL
	imageHost    string
	tokens       Tokens
	api          *http.Client
	thirdParty   *http.Client
	limiter      *rate.Limiter
	refresher    *authRefresher
	interceptors []Interceptor
}

// NewClient builds a client. navigator receives the forced sign-in redirect
// when the session cannot be refreshed; nil discards it.
func NewClient(opts Options, tokens Tokens, navigator domain.Navigator) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BaseURL)
	}

	// Backend cookies ride along like withCredentials; the image host gets a jar-less client.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	if navigator == nil {
		navigator = noopNavigator{}
	}

	c := &Client{
		baseURL:    base,
		imageHost:  strings.ToLower(opts.ImageHost),
		tokens:     tokens,
		api:        &http.Client{Timeout: opts.Timeout, Jar: jar},
		thirdParty: &http.Client{Timeout: opts.Timeout},
		limiter:    limiter,
	}
	c.refresher = newAuthRefresher(c, tokens, navigator)
	c.interceptors = []Interceptor{c.refresher}
	return c, nil
}

// RefreshState reports the interceptor state: Idle or Refreshing.
func (c *Client) RefreshState() RefreshState {
	return c.refresher.State()
}

// maxReplays bounds the driver loop: one original attempt plus one replay.
const maxReplays = 1

// Send runs the request through the interceptor pipeline.
// Transport failures surface as *domain.NetworkError and are never retried.
// Non-2xx responses that no interceptor claims are returned unchanged.
func (c *Client) Send(ctx context.Context, r *Request) (*Response, error) {
	pending, err := c.prepare(r)
	if err != nil {
		return nil, err
	}
	if !pending.external && !pending.anonymous {
		if err := c.refresher.Ensure(ctx); err != nil {
			return nil, err
		}
	}

	replays := 0
	for {
		resp, err := c.roundTrip(ctx, pending)
		if err != nil {
			return nil, err
		}

		out := c.intercept(ctx, pending, resp)
		switch out.kind {
		case outcomeRetry:
			if replays >= maxReplays {
				return nil, &domain.AuthExpiredError{URL: pending.URL}
			}
			replays++
			pending = out.req
		case outcomeFail:
			return nil, out.err
		default:
			return out.resp, nil
		}
	}
}

func (c *Client) intercept(ctx context.Context, req *PendingRequest, resp *Response) Outcome {
	out := OK(resp)
	for _, in := range c.interceptors {
		out = in.Intercept(ctx, req, out.resp)
		if out.kind != outcomeOK {
			return out
		}
	}
	return out
}

func (c *Client) prepare(r *Request) (*PendingRequest, error) {
	target, err := c.resolve(r.Path)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	for k, v := range r.Header {
		header[k] = append([]string(nil), v...)
	}
	header.Set("Accept", "application/json")
	if header.Get("X-Request-ID") == "" {
		header.Set("X-Request-ID", uuid.New().String()[:8])
	}

	var body []byte
	switch {
	case r.Multipart:
		mp, ok := r.Body.(*MultipartBody)
		if !ok || mp == nil {
			return nil, fmt.Errorf("multipart request needs a *MultipartBody")
		}
		body = mp.Data
		header.Set("Content-Type", mp.ContentType)
	case r.Body != nil:
		body, err = json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		header.Set("Content-Type", "application/json")
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	return &PendingRequest{
		Method:   method,
		URL:      target.String(),
		Header:   header,
		Body:     body,
		external:  c.isImageHost(target),
		anonymous: r.Anonymous,
	}, nil
}

func (c *Client) resolve(path string) (*url.URL, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return url.Parse(path)
	}
	u := *c.baseURL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, u.RawQuery = path[:i], path[i+1:]
	}
	u.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	return &u, nil
}

func (c *Client) isImageHost(u *url.URL) bool {
	if c.imageHost == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	return host == c.imageHost || strings.ToLower(u.Hostname()) == c.imageHost
}

// roundTrip performs exactly one HTTP exchange for req.
func (c *Client) roundTrip(ctx context.Context, req *PendingRequest) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header = req.Header.Clone()

	hc := c.api
	if req.external {
		hc = c.thirdParty
		httpReq.Header.Del("Authorization")
	} else if !req.anonymous {
		req.sentToken = c.tokens.Access()
		if req.sentToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+req.sentToken)
		} else {
			httpReq.Header.Del("Authorization")
		}
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		logger.Outbound(ctx, req.Method, req.URL, 0, time.Since(start), err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.NetworkError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Outbound(ctx, req.Method, req.URL, resp.StatusCode, time.Since(start), err)
		return nil, &domain.NetworkError{Method: req.Method, URL: req.URL, Err: err}
	}
	logger.Outbound(ctx, req.Method, req.URL, resp.StatusCode, time.Since(start), nil)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}
