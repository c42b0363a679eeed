// Package api is the REST client for the learning platform.
//
// Every request carries the configured bearer token and a fresh
// X-Request-ID, runs inside its own tracing span and is written to the
// request journal when a recorder is configured. Reads whose 404 means
// "nothing there yet" (progress, quiz, quiz result, enrollment, order)
// return a nil value instead of an error. Any other failure is a
// *RequestError. Requests are never retried.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// HeaderRequestID carries the client-generated request id.
const HeaderRequestID = "X-Request-ID"

const tracerName = "github.com/abhisek/lessonkit/internal/api"

// RequestRecorder journals API calls. store.EventRepo satisfies it.
type RequestRecorder interface {
	AppendRequest(ctx context.Context, data store.RequestEventData) error
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// HTTPClient overrides the underlying transport (tests).
	HTTPClient *http.Client
	Logger     *logger.Logger
	Recorder   RequestRecorder
	Tracer     trace.Tracer
}

// Client talks to the platform API. It is safe for concurrent use.
type Client struct {
	http      *resty.Client
	log       *logger.Logger
	recorder  RequestRecorder
	tracer    trace.Tracer
	studentID string
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(restyLogger{log})
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	c := &Client{
		http:     rc,
		log:      log,
		recorder: opts.Recorder,
		tracer:   tracer,
	}

	if opts.Token != "" {
		id, err := StudentID(opts.Token)
		if err != nil {
			log.Debug("token carries no student id", "error", err)
		}
		c.studentID = id
	}
	return c, nil
}

// StudentID returns the student id read from the bearer token, or "" when
// the token is not a JWT.
func (c *Client) StudentID() string { return c.studentID }

// call describes one request. path is a template such as
// "/lessons/{lessonId}/quiz"; the journal and spans use the template so
// per-endpoint stats group naturally.
type call struct {
	method   string
	path     string
	params   map[string]string
	body     any
	out      any
	optional bool // 404 means absent
	required bool // a null payload is an error
}

// do executes c and decodes the response into call.out. found is false when
// an optional resource is absent.
func (c *Client) do(ctx context.Context, req call) (found bool, err error) {
	reqID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.template", req.path),
			attribute.String("lessonkit.request_id", reqID),
		))
	defer span.End()

	r := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, reqID).
		SetPathParams(req.params)
	if req.body != nil {
		r.SetBody(req.body)
	}

	start := time.Now()
	resp, execErr := r.Execute(req.method, req.path)
	latency := time.Since(start)

	status := 0
	if execErr == nil {
		status = resp.StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}

	defer func() {
		c.record(ctx, store.RequestEventData{
			RequestID: reqID,
			Method:    req.method,
			Path:      req.path,
			Status:    status,
			LatencyMs: latency.Milliseconds(),
			Error:     errString(err),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	rerr := &RequestError{
		Method:    req.method,
		Path:      req.path,
		Status:    status,
		RequestID: reqID,
	}

	if execErr != nil {
		rerr.Err = execErr
		return false, rerr
	}

	if status == http.StatusNotFound && req.optional {
		c.log.Debug("resource absent", "method", req.method, "path", req.path, "request_id", reqID)
		return false, nil
	}

	if status < 200 || status > 299 {
		rerr.Message = errorMessage(resp.Body())
		return false, rerr
	}

	if req.out == nil {
		return true, nil
	}

	present, decErr := decode(resp.Body(), req.out)
	if decErr != nil {
		rerr.Message = "malformed response body"
		rerr.Err = decErr
		return false, rerr
	}
	switch {
	case present:
		return true, nil
	case req.required:
		rerr.Message = "empty response body"
		return false, rerr
	case req.optional:
		return false, nil
	}
	return true, nil
}

func (c *Client) record(ctx context.Context, data store.RequestEventData) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.AppendRequest(context.WithoutCancel(ctx), data); err != nil {
		c.log.Warn("journal request failed", "path", data.Path, "error", err)
	}
}

// getOptional fetches a resource whose 404 means absent.
func getOptional[T any](ctx context.Context, c *Client, path string, params map[string]string) (*T, error) {
	var out T
	found, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     path,
		params:   params,
		out:      &out,
		optional: true,
	})
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// get fetches a resource that must exist.
func get[T any](ctx context.Context, c *Client, path string, params map[string]string) (*T, error) {
	var out T
	if _, err := c.do(ctx, call{method: http.MethodGet, path: path, params: params, out: &out, required: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	var re *RequestError
	if errors.As(err, &re) && re.Err != nil {
		return re.Err.Error()
	}
	if re != nil {
		return re.Message
	}
	return err.Error()
}

// restyLogger routes resty's internal logging through the app logger.
type restyLogger struct{ l *logger.Logger }

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }
