package medapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/httpclient"
)

// LibraryVersion is reported in the User-Agent header.
const LibraryVersion = "1.0.0"

const defaultTimeout = 30 * time.Second

// Config holds credentials and per-connector settings.
type Config struct {
	AppID          string
	AppKey         string
	Endpoint       string
	Version        APIVersion
	Model          string
	DevMode        bool
	DefaultHeaders map[string]string
	Timeout        time.Duration
}

// CallInfo describes one completed API call.
type CallInfo struct {
	Version    APIVersion
	Method     Method
	StatusCode int
	Duration   time.Duration
	Err        error
}

// CallObserver is notified after every call, successful or not.
type CallObserver func(CallInfo)

type options struct {
	definitions Definitions
	client      httpclient.Client
	log         Logger
	observer    CallObserver
	rateRPS     float64
	rateBurst   int
}

// Option customises a connector.
type Option func(*options)

// WithDefinitions replaces the built-in path tables. New and Registry.Configure
// only build the typed v1, v2 and v3 connectors, so tables for any other
// version are reachable through NewConnector alone.
func WithDefinitions(defs Definitions) Option {
	return func(o *options) { o.definitions = defs }
}

// WithHTTPClient injects the transport.
func WithHTTPClient(client httpclient.Client) Option {
	return func(o *options) { o.client = client }
}

// WithLogger sets the connector logger.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// WithCallObserver registers a hook run after each call.
func WithCallObserver(fn CallObserver) Option {
	return func(o *options) { o.observer = fn }
}

// WithRateLimit throttles the default transport. Ignored when WithHTTPClient is used.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateRPS = rps
		o.rateBurst = burst
	}
}

// Request is a raw call: query params, extra headers, JSON body and optional interview id.
type Request struct {
	Params      url.Values
	Headers     map[string]string
	Body        any
	InterviewID string
}

// Connector is the version-agnostic base shared by V1Connector, V2Connector and V3Connector.
type Connector struct {
	appID          string
	appKey         string
	endpoint       string
	version        APIVersion
	model          string
	devMode        bool
	defaultHeaders map[string]string
	paths          map[Method]string
	userAgent      string

	client   httpclient.Client
	log      Logger
	observer CallObserver
}

// NewConnector builds a base connector for cfg.Version.
func NewConnector(cfg Config, opts ...Option) (*Connector, error) {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	appID := strings.TrimSpace(cfg.AppID)
	appKey := strings.TrimSpace(cfg.AppKey)
	if appID == "" || appKey == "" {
		return nil, fmt.Errorf("%w: app id and app key are required", ErrInvalidArgument)
	}

	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	defs := o.definitions
	if defs == nil {
		defs = DefaultDefinitions()
	}
	paths, ok := defs[version]
	if !ok || len(paths) == 0 {
		return nil, &MissingDefinitionError{Version: version}
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := o.client
	if client == nil {
		client = httpclient.NewRestyClient(timeout, httpclient.WithRateLimit(o.rateRPS, o.rateBurst))
	}

	headers := make(map[string]string, len(cfg.DefaultHeaders))
	for k, v := range cfg.DefaultHeaders {
		headers[k] = v
	}

	return &Connector{
		appID:          appID,
		appKey:         appKey,
		endpoint:       endpoint,
		version:        version,
		model:          strings.TrimSpace(cfg.Model),
		devMode:        cfg.DevMode,
		defaultHeaders: headers,
		paths:          paths,
		userAgent:      fmt.Sprintf("medapi-go %s (%s; connector %s)", LibraryVersion, runtime.Version(), version),
		client:         client,
		log:            ensureLogger(o.log),
		observer:       o.observer,
	}, nil
}

// Version returns the API version this connector talks to.
func (c *Connector) Version() APIVersion { return c.version }

// Supports reports whether the active path table has m.
func (c *Connector) Supports(m Method) bool {
	_, ok := c.paths[m]
	return ok
}

// URL resolves the absolute URL of m, substituting id into detail paths.
func (c *Connector) URL(m Method, id string) (string, error) {
	path, ok := c.paths[m]
	if !ok {
		return "", &MethodNotAvailableError{Version: c.version, Method: m}
	}
	return c.endpoint + string(c.version) + expandPath(path, id), nil
}

// Call performs a raw call of m and decodes the JSON response into out.
func (c *Connector) Call(ctx context.Context, m Method, req Request, out any) error {
	_, err := c.call(ctx, m, "", req, out)
	return err
}

// CallDetails performs a raw call of a detail method for id.
func (c *Connector) CallDetails(ctx context.Context, m Method, id string, req Request, out any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s requires an id", ErrInvalidArgument, m)
	}
	_, err := c.call(ctx, m, id, req, out)
	return err
}

func (c *Connector) headers(passed map[string]string, interviewID string) map[string]string {
	h := map[string]string{
		"Accept":     "application/json",
		"User-Agent": c.userAgent,
		"App-Id":     c.appID,
		"App-Key":    c.appKey,
	}
	for k, v := range c.defaultHeaders {
		h[k] = v
	}
	if c.model != "" {
		h["Model"] = c.model
	}
	if c.devMode {
		h["Dev-Mode"] = "true"
	}
	if interviewID != "" {
		h["Interview-Id"] = interviewID
	}
	for k, v := range passed {
		h[k] = v
	}
	return h
}

func (c *Connector) call(ctx context.Context, m Method, id string, req Request, out any) (httpclient.Response, error) {
	target, err := c.URL(m, id)
	if err != nil {
		return nil, err
	}
	verb := httpMethodFor(m)

	start := time.Now()
	resp, err := c.client.Do(ctx, httpclient.Request{
		Method:  verb,
		URL:     target,
		Query:   req.Params,
		Headers: c.headers(req.Headers, req.InterviewID),
		Body:    req.Body,
	})
	info := CallInfo{Version: c.version, Method: m, Duration: time.Since(start)}
	if err != nil {
		info.Err = fmt.Errorf("%w: %s %s: %w", ErrConnection, verb, target, err)
		c.finish(info)
		return nil, info.Err
	}

	info.StatusCode = resp.StatusCode()
	info.Err = c.handleResponse(m, resp, out)
	c.finish(info)
	return resp, info.Err
}

func (c *Connector) handleResponse(m Method, resp httpclient.Response, out any) error {
	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return newAPIError(status, resp.Status(), resp.Body())
	}
	body := bytes.TrimSpace(resp.Body())
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", m, err)
	}
	return nil
}

func (c *Connector) finish(info CallInfo) {
	fields := map[string]any{
		"version":     info.Version,
		"method":      info.Method,
		"status":      info.StatusCode,
		"duration_ms": info.Duration.Milliseconds(),
	}
	if info.Err != nil {
		fields["error"] = info.Err.Error()
		c.log.WarnObj("medapi call failed", "call", fields)
	} else {
		c.log.DebugObj("medapi call", "call", fields)
	}
	if c.observer != nil {
		c.observer(info)
	}
}

// diagnosticBody is the JSON payload of every evidence-based endpoint.
type diagnosticBody struct {
	Sex           Sex           `json:"sex"`
	Age           any           `json:"age"`
	Evidence      []Evidence    `json:"evidence"`
	Extras        Extras        `json:"extras,omitempty"`
	Pursued       []string      `json:"pursued,omitempty"`
	EvaluatedAt   string        `json:"evaluated_at,omitempty"`
	Target        string        `json:"target,omitempty"`
	SuggestMethod SuggestMethod `json:"suggest_method,omitempty"`
}

// newDiagnosticBody validates in and renders it with the version's age encoding.
func newDiagnosticBody(in DiagnosticInput, age any) (diagnosticBody, error) {
	if err := in.validate(); err != nil {
		return diagnosticBody{}, err
	}
	evidence := in.Evidence
	if evidence == nil {
		evidence = []Evidence{}
	}
	return diagnosticBody{
		Sex:      in.Sex,
		Age:      age,
		Evidence: evidence,
		Extras:   in.Extras,
		Pursued:  in.Pursued,
	}, nil
}

// diagnosis posts the body to /diagnosis and records the Interview-Id response header.
func (c *Connector) diagnosis(ctx context.Context, body diagnosticBody, interviewID string) (*DiagnosisResponse, error) {
	var out DiagnosisResponse
	resp, err := c.call(ctx, MethodDiagnosis, "", Request{Body: body, InterviewID: interviewID}, &out)
	if err != nil {
		return nil, err
	}
	out.InterviewID = interviewID
	if header := resp.Header("Interview-Id"); header != "" {
		out.InterviewID = header
	}
	return &out, nil
}

func maxResultsQuery(n int) url.Values {
	if n <= 0 {
		n = defaultMaxResults
	}
	return url.Values{"max_results": {fmt.Sprint(n)}}
}

const defaultMaxResults = 8

func getList[T Record](ctx context.Context, c *Connector, m Method, q url.Values) (IndexedList[T], error) {
	var items []T
	if _, err := c.call(ctx, m, "", Request{Params: q}, &items); err != nil {
		return IndexedList[T]{}, err
	}
	return NewIndexedList(items), nil
}

func getDetails[T any](ctx context.Context, c *Connector, m Method, id string, q url.Values) (*T, error) {
	var out T
	if err := c.CallDetails(ctx, m, id, Request{Params: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func diagnose(ctx context.Context, api interface {
	Diagnosis(context.Context, DiagnosticInput) (*DiagnosisResponse, error)
}, d *Diagnosis) error {
	if d == nil {
		return fmt.Errorf("%w: nil diagnosis", ErrInvalidArgument)
	}
	resp, err := api.Diagnosis(ctx, d.Input())
	if err != nil {
		return err
	}
	d.Update(resp)
	return nil
}
