package medapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestConnectorBuildsHeaders(t *testing.T) {
	client := okClient(`{}`)
	cfg := testConfig()
	cfg.Model = "infermedica-en"
	cfg.DevMode = true
	cfg.DefaultHeaders = map[string]string{"X-Trace": "default", "Accept": "application/json"}
	api, err := NewConnector(cfg, WithHTTPClient(client))
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}

	req := Request{Headers: map[string]string{"X-Trace": "call"}, InterviewID: "iv-9"}
	if err := api.Call(context.Background(), MethodInfo, req, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}

	got := client.last(t)
	want := map[string]string{
		"Accept":       "application/json",
		"App-Id":       "app-id",
		"App-Key":      "app-key",
		"Model":        "infermedica-en",
		"Dev-Mode":     "true",
		"Interview-Id": "iv-9",
		"X-Trace":      "call",
	}
	for k, v := range want {
		if got.Headers[k] != v {
			t.Fatalf("header %s: expected %q, got %q", k, v, got.Headers[k])
		}
	}
	if ua := got.Headers["User-Agent"]; !strings.Contains(ua, "connector v3") {
		t.Fatalf("unexpected user agent %q", ua)
	}
	if got.Method != http.MethodGet {
		t.Fatalf("expected GET for info, got %s", got.Method)
	}
	if got.URL != "https://api.test/v3/info" {
		t.Fatalf("unexpected url %s", got.URL)
	}
}

func TestConnectorOmitsOptionalHeaders(t *testing.T) {
	client := okClient(`{}`)
	api, err := NewConnector(testConfig(), WithHTTPClient(client))
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}
	if err := api.Call(context.Background(), MethodInfo, Request{}, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	for _, h := range []string{"Model", "Dev-Mode", "Interview-Id"} {
		if _, ok := client.last(t).Headers[h]; ok {
			t.Fatalf("did not expect header %s", h)
		}
	}
}

func TestConnectorRejectsUnavailableMethod(t *testing.T) {
	client := okClient(`{}`)
	api := newTestV3(t, client)

	err := api.Call(context.Background(), MethodLookup, Request{}, nil)
	var notAvailable *MethodNotAvailableError
	if !errors.As(err, &notAvailable) {
		t.Fatalf("expected MethodNotAvailableError, got %v", err)
	}
	if notAvailable.Version != V3 || notAvailable.Method != MethodLookup {
		t.Fatalf("unexpected error fields %+v", notAvailable)
	}
	if !errors.Is(err, ErrMethodNotAvailable) {
		t.Fatalf("expected ErrMethodNotAvailable in chain")
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected no request to be sent")
	}
}

func TestConnectorMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusMethodNotAllowed, ErrMethodNotAllowed},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusServiceUnavailable, ErrServer},
		{http.StatusTeapot, ErrConnection},
	}
	for _, tc := range cases {
		client := &fakeClient{resp: fakeResponse{status: tc.status, body: `{"message":"nope"}`}}
		api := newTestV3(t, client)

		_, err := api.Info(context.Background())
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected APIError, got %T", tc.status, err)
		}
		if apiErr.StatusCode != tc.status || apiErr.Body != `{"message":"nope"}` {
			t.Fatalf("status %d: unexpected error fields %+v", tc.status, apiErr)
		}
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := newAPIError(http.StatusNotFound, "404 Not Found", []byte("missing"))
	want := "Failed. Response status: 404. Reason: Not Found. Error message: missing"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestConnectorWrapsTransportErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("dial tcp: refused")}
	api := newTestV3(t, client)

	_, err := api.Info(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected transport cause in %q", err.Error())
	}
}

func TestConnectorEmptyBodyLeavesOutput(t *testing.T) {
	client := okClient("  ")
	api := newTestV3(t, client)

	out := map[string]any{"kept": true}
	if err := api.Call(context.Background(), MethodInfo, Request{}, &out); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out["kept"] != true {
		t.Fatalf("expected output to be untouched, got %v", out)
	}
}

func TestNewConnectorValidation(t *testing.T) {
	if _, err := NewConnector(Config{AppID: "id"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected missing key error, got %v", err)
	}

	cfg := testConfig()
	cfg.Version = "v9"
	_, err := NewConnector(cfg)
	var missing *MissingDefinitionError
	if !errors.As(err, &missing) || missing.Version != "v9" {
		t.Fatalf("expected MissingDefinitionError, got %v", err)
	}

	cfg.Version = "v9"
	defs := Definitions{"v9": {MethodInfo: "/status"}}
	api, err := NewConnector(cfg, WithDefinitions(defs), WithHTTPClient(okClient(`{}`)))
	if err != nil {
		t.Fatalf("custom definitions: %v", err)
	}
	url, err := api.URL(MethodInfo, "")
	if err != nil || url != "https://api.test/v9/status" {
		t.Fatalf("unexpected url %q err=%v", url, err)
	}
}

func TestConnectorDefaultsEndpoint(t *testing.T) {
	api, err := NewConnector(Config{AppID: "id", AppKey: "key"}, WithHTTPClient(okClient(`{}`)))
	if err != nil {
		t.Fatalf("NewConnector: %v", err)
	}
	url, err := api.URL(MethodSymptomDetails, "s 1/2")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "https://api.infermedica.com/v3/symptoms/s%201%2F2" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestConnectorReportsCalls(t *testing.T) {
	var seen []CallInfo
	client := &fakeClient{resp: fakeResponse{status: http.StatusUnauthorized}}
	api := newTestV3(t, client, WithCallObserver(func(info CallInfo) { seen = append(seen, info) }))

	_, _ = api.Info(context.Background())
	if len(seen) != 1 {
		t.Fatalf("expected one observed call, got %d", len(seen))
	}
	if seen[0].Method != MethodInfo || seen[0].StatusCode != http.StatusUnauthorized || !errors.Is(seen[0].Err, ErrUnauthorized) {
		t.Fatalf("unexpected call info %+v", seen[0])
	}
}
