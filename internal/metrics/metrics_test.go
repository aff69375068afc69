package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

func TestObserveCallLabels(t *testing.T) {
	m := New(nil)

	m.ObserveCall(medapi.CallInfo{Version: medapi.V3, Method: medapi.MethodDiagnosis, StatusCode: 200, Duration: 120 * time.Millisecond})
	m.ObserveCall(medapi.CallInfo{Version: medapi.V3, Method: medapi.MethodDiagnosis, StatusCode: 200})
	m.ObserveCall(medapi.CallInfo{Version: medapi.V3, Method: medapi.MethodDiagnosis, Err: errors.New("dial tcp")})

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("v3", "diagnosis", "200")); got != 2 {
		t.Fatalf("200 count = %v", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("v3", "diagnosis", "error")); got != 1 {
		t.Fatalf("error count = %v", got)
	}
	if got := testutil.CollectAndCount(m.requestDuration); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestObserveTurnAndHandler(t *testing.T) {
	m := New(nil)
	m.ObserveTurn(medapi.V2, "answer")
	m.ObservePublishFailure("diagnosis")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`medapi_interview_turns_total{kind="answer",version="v2"} 1`,
		`medapi_publish_failures_total{kind="diagnosis"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCall(medapi.CallInfo{})
	m.ObserveTurn(medapi.V3, "start")
	m.ObservePublishFailure("triage")
}
