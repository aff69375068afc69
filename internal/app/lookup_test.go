package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

func newLookupServer(t *testing.T, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		check(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c_49","name":"Migraine","prevalence":"common"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"conditions":  KindConditions,
		"symptom":     KindSymptoms,
		"risk-factor": KindRiskFactors,
		"LAB_TESTS":   KindLabTests,
		"observation": KindObservations,
		"concepts":    KindConcepts,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("drugs"); !errors.Is(err, medapi.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDetailsV3SendsAge(t *testing.T) {
	srv := newLookupServer(t, func(r *http.Request) {
		if r.URL.Path != "/v3/conditions/c_49" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("age.value") != "40" || r.URL.Query().Get("age.unit") != "year" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
	})
	api, err := medapi.NewV3(medapi.Config{AppID: "id", AppKey: "key", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewV3: %v", err)
	}

	out, err := Details(context.Background(), api, KindConditions, "c_49", medapi.Years(40))
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	cond, ok := out.(*medapi.Condition)
	if !ok || cond.Name != "Migraine" {
		t.Fatalf("unexpected result: %#v", out)
	}
}

func TestDetailsLegacyOmitsAge(t *testing.T) {
	srv := newLookupServer(t, func(r *http.Request) {
		if r.URL.Path != "/v2/conditions/c_49" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("legacy details should not send a query, got %s", r.URL.RawQuery)
		}
	})
	api, err := medapi.NewV2(medapi.Config{AppID: "id", AppKey: "key", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewV2: %v", err)
	}

	if _, err := Details(context.Background(), api, KindConditions, "c_49", medapi.Years(40)); err != nil {
		t.Fatalf("Details: %v", err)
	}
}

func TestUnsupportedKindsPerVersion(t *testing.T) {
	v2, err := medapi.NewV2(medapi.Config{AppID: "id", AppKey: "key", Endpoint: "https://api.test/"})
	if err != nil {
		t.Fatalf("NewV2: %v", err)
	}
	v3, err := medapi.NewV3(medapi.Config{AppID: "id", AppKey: "key", Endpoint: "https://api.test/"})
	if err != nil {
		t.Fatalf("NewV3: %v", err)
	}
	ctx := context.Background()

	if _, err := Details(ctx, v2, KindConcepts, "c_1", medapi.Age{}); !errors.Is(err, medapi.ErrMethodNotAvailable) {
		t.Fatalf("v2 concepts: expected ErrMethodNotAvailable, got %v", err)
	}
	if _, err := List(ctx, v3, KindObservations, medapi.Years(30)); !errors.Is(err, medapi.ErrMethodNotAvailable) {
		t.Fatalf("v3 observations: expected ErrMethodNotAvailable, got %v", err)
	}
	if _, err := Lookup(ctx, v3, "headache", medapi.SexMale); !errors.Is(err, medapi.ErrMethodNotAvailable) {
		t.Fatalf("v3 lookup: expected ErrMethodNotAvailable, got %v", err)
	}
	if _, err := Concepts(ctx, v2, medapi.ConceptFilter{}); !errors.Is(err, medapi.ErrMethodNotAvailable) {
		t.Fatalf("v2 concepts list: expected ErrMethodNotAvailable, got %v", err)
	}
}
