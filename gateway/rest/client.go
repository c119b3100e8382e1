// Package rest implements the gateway interfaces over the task service's
// REST API using fasthttp. HTTP failures are decoded here, once, into
// domain errors; no status code escapes this package.
package rest

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskwire/client/domain"
)

// TokenSource supplies the bearer token for outgoing requests. It returns
// the empty string when no session is held.
type TokenSource func() string

// Config parameterizes the REST client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   TokenSource
	// OnAuthFailure runs after any 401 response, before the error is
	// returned. The wiring uses it to drop the stored session so the next
	// action forces a fresh login.
	OnAuthFailure func()
	Logger        *zap.Logger
}

// Client is the shared HTTP plumbing for all REST gateways: base URL,
// bearer auth, request ids, deadlines and error decoding.
type Client struct {
	http          *fasthttp.Client
	baseURL       string
	timeout       time.Duration
	token         TokenSource
	onAuthFailure func()
	logger        *zap.Logger
}

// NewClient builds a REST client. Timeout defaults to 30 seconds; requests
// are never retried automatically, mutations are not idempotent.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		http:          &fasthttp.Client{Name: "taskwire"},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		timeout:       cfg.Timeout,
		token:         cfg.Token,
		onAuthFailure: cfg.OnAuthFailure,
		logger:        cfg.Logger,
	}
}

// do performs one request/response cycle. body and out may be nil. fallback
// is the user-facing message used when an error response carries no usable
// body of its own.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, fallback string) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrCodeNetwork, "request aborted", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+tok)
		}
	}

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "encode request", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	log := c.logger.With(zap.String("request_id", requestID), zap.String("method", method), zap.String("path", path))
	log.Debug("request started")

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		log.Warn("request failed", zap.Error(err))
		return domain.WrapError(domain.ErrCodeNetwork, fallback, err)
	}

	status := resp.StatusCode()
	if status >= fasthttp.StatusBadRequest {
		log.Warn("request rejected", zap.Int("status", status))
		err := decodeError(status, resp.Body(), fallback)
		if status == fasthttp.StatusUnauthorized && c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return err
	}

	if out != nil && status != fasthttp.StatusNoContent && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "decode response", err)
		}
	}
	return nil
}

// decodeError turns an HTTP failure into a tagged domain error. The body is
// either a plain string, an object with a message field (optionally with
// per-field validation messages), or garbage; the fallback message covers
// the last case.
func decodeError(status int, body []byte, fallback string) error {
	message := fallback
	var fieldErrors map[string]string

	if len(body) > 0 {
		var wire struct {
			Message     string            `json:"message"`
			FieldErrors map[string]string `json:"fieldErrors"`
		}
		var plain string
		switch {
		case json.Unmarshal(body, &wire) == nil && (wire.Message != "" || len(wire.FieldErrors) > 0):
			if wire.Message != "" {
				message = wire.Message
			}
			fieldErrors = wire.FieldErrors
		case json.Unmarshal(body, &plain) == nil && plain != "":
			message = plain
		}
	}

	err := domain.NewError(codeForStatus(status), message)
	err.FieldErrors = fieldErrors
	return err
}

func codeForStatus(status int) domain.ErrorCode {
	switch status {
	case fasthttp.StatusBadRequest:
		return domain.ErrCodeInvalid
	case fasthttp.StatusUnauthorized:
		return domain.ErrCodeUnauthorized
	case fasthttp.StatusForbidden:
		return domain.ErrCodeForbidden
	case fasthttp.StatusNotFound:
		return domain.ErrCodeNotFound
	default:
		return domain.ErrCodeInternal
	}
}
