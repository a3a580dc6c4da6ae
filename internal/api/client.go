package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Joseda-hg/lazytodo/internal/api"

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	Token() (string, bool)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logrus.FieldLogger
	tracer  trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		log:     discard,
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("request.id", requestID),
	)

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	entry := c.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(span, entry, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(span, entry, method, path, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	entry.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": time.Since(start)}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newStatusError(method, path, resp.StatusCode, data)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		span.SetStatus(codes.Error, "decode response")
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) transportError(span trace.Span, entry logrus.FieldLogger, method, path string, cause error) error {
	apiErr := &Error{Kind: KindNetwork, Method: method, Path: path, Err: cause}
	span.RecordError(cause)
	span.SetStatus(codes.Error, apiErr.Error())
	entry.WithError(cause).Debug("api request failed")
	return apiErr
}
