package medapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/httpclient"
)

type fakeResponse struct {
	status  int
	body    string
	headers map[string]string
}

func (r fakeResponse) Body() []byte    { return []byte(r.body) }
func (r fakeResponse) StatusCode() int { return r.status }
func (r fakeResponse) Status() string {
	return fmt.Sprintf("%d %s", r.status, http.StatusText(r.status))
}
func (r fakeResponse) Header(key string) string { return r.headers[key] }

type fakeClient struct {
	resp     fakeResponse
	err      error
	requests []httpclient.Request
}

func (f *fakeClient) Do(_ context.Context, req httpclient.Request) (httpclient.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeClient) last(t *testing.T) httpclient.Request {
	t.Helper()
	if len(f.requests) == 0 {
		t.Fatalf("expected a request to be sent")
	}
	return f.requests[len(f.requests)-1]
}

func okClient(body string) *fakeClient {
	return &fakeClient{resp: fakeResponse{status: http.StatusOK, body: body}}
}

func testConfig() Config {
	return Config{AppID: "app-id", AppKey: "app-key", Endpoint: "https://api.test/"}
}

// bodyJSON round-trips a request body through JSON so it can be compared as plain data.
func bodyJSON(t *testing.T, req httpclient.Request) map[string]any {
	t.Helper()
	raw, err := json.Marshal(req.Body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	return out
}

func newTestV3(t *testing.T, client *fakeClient, opts ...Option) *V3Connector {
	t.Helper()
	api, err := NewV3(testConfig(), append([]Option{WithHTTPClient(client)}, opts...)...)
	if err != nil {
		t.Fatalf("NewV3: %v", err)
	}
	return api
}

func newTestV2(t *testing.T, client *fakeClient) *V2Connector {
	t.Helper()
	api, err := NewV2(testConfig(), WithHTTPClient(client))
	if err != nil {
		t.Fatalf("NewV2: %v", err)
	}
	return api
}

func newTestV1(t *testing.T, client *fakeClient) *V1Connector {
	t.Helper()
	api, err := NewV1(testConfig(), WithHTTPClient(client))
	if err != nil {
		t.Fatalf("NewV1: %v", err)
	}
	return api
}

func sampleInput() DiagnosticInput {
	return DiagnosticInput{
		Sex: SexFemale,
		Age: Years(35),
		Evidence: []Evidence{
			{ID: "s_21", ChoiceID: Present, Source: SourceInitial},
			{ID: "p_28", ChoiceID: Absent},
		},
		Extras:      Extras{"disable_groups": true},
		InterviewID: "iv-1",
	}
}
