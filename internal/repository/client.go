package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/config"
	"github.com/spec-kit/tecnico-console/internal/observability"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

const (
	loginPath         = "/login"
	sessionCookieName = "session"
)

// Client is the transport shared by the helpdesk repositories. It never
// retries; callers decide whether to re-invoke.
type Client struct {
	rest    *resty.Client
	baseURL *url.URL
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient builds a helpdesk client from configuration.
func NewClient(cfg config.HelpdeskConfig, logger *zap.Logger, metrics *observability.Metrics) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid helpdesk base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid helpdesk base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rest := resty.New().
		SetBaseURL(base.String()).
		SetHeader("Accept", "application/json")
	if timeout := cfg.Timeout(); timeout > 0 {
		rest.SetTimeout(timeout)
	}
	if cfg.SessionCookie != "" {
		rest.SetCookie(&http.Cookie{Name: sessionCookieName, Value: cfg.SessionCookie, Path: "/"})
	}

	return &Client{rest: rest, baseURL: base, logger: logger, metrics: metrics}, nil
}

// call executes one request and normalizes every failure into the error taxonomy.
func (c *Client) call(ctx context.Context, op, method, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	requestID := uuid.NewString()
	req := c.rest.R().
		SetContext(ctx).
		SetHeader(observability.RequestIDHeader, requestID)
	if prepare != nil {
		prepare(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	duration := time.Since(start)
	err = normalize(path, resp, err)

	outcome := "ok"
	if err != nil {
		outcome = apperrors.KindOf(err)
	}
	c.metrics.RecordUpstream(op, outcome, duration)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode()))
	}
	switch apperrors.KindOf(err) {
	case "":
		c.logger.Debug("helpdesk call", fields...)
	case apperrors.CodeUnreachable, apperrors.CodeServerError:
		c.logger.Error("helpdesk call failed", append(fields, zap.Error(err))...)
	default:
		c.logger.Warn("helpdesk call rejected", append(fields, zap.Error(err))...)
	}
	return resp, err
}

func normalize(path string, resp *resty.Response, err error) error {
	if err != nil {
		return apperrors.NewUnreachable(err)
	}
	if resp == nil {
		return apperrors.NewUnreachable(fmt.Errorf("no response for %s", path))
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		requested := strings.SplitN(path, "?", 2)[0]
		if raw.Request.URL.Path == loginPath && requested != loginPath {
			return apperrors.NewUnauthenticated("session expired: redirected to login")
		}
	}

	status := resp.StatusCode()
	if status >= http.StatusMultipleChoices {
		return apperrors.FromStatus(status, upstreamMessage(resp.Body()))
	}
	if len(resp.Body()) > 0 && !isJSON(resp.Header().Get("Content-Type")) {
		return apperrors.NewUnauthenticated("helpdesk answered with a non-JSON page; session likely lost")
	}
	return nil
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// upstreamMessage extracts the helpdesk's human message from an error body.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Msg   string          `json:"msg"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Msg != "" {
		return envelope.Msg
	}
	var text string
	if err := json.Unmarshal(envelope.Error, &text); err == nil {
		return text
	}
	return ""
}

// decode unmarshals a successful body and honors {"ok": false}.
func decode(resp *resty.Response, out any) error {
	body := resp.Body()
	var envelope struct {
		OK  *bool  `json:"ok"`
		Msg string `json:"msg"`
	}
	if len(body) > 0 && body[0] == '{' {
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.OK != nil && !*envelope.OK {
			return apperrors.NewServerError(resp.StatusCode(), envelope.Msg)
		}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.DomainError{
			Code:       apperrors.CodeServerError,
			Message:    "malformed helpdesk response",
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		}
	}
	return nil
}

// resolve turns a helpdesk-relative link into an absolute URL.
func (c *Client) resolve(link string) string {
	if link == "" {
		return ""
	}
	ref, err := url.Parse(link)
	if err != nil || ref.IsAbs() {
		return link
	}
	return c.baseURL.ResolveReference(ref).String()
}
