package medapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestV3SearchBuildsQuery(t *testing.T) {
	client := okClient(`[{"id":"s_21","label":"Headache"}]`)
	api := newTestV3(t, client)

	results, err := api.Search(context.Background(), SearchRequest{
		Phrase: "head",
		Sex:    SexMale,
		Age:    Age{Value: 7, Unit: AgeMonth},
		Types:  []SearchConceptType{SearchSymptom, SearchLabTest},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s_21" {
		t.Fatalf("unexpected results %+v", results)
	}

	req := client.last(t)
	want := url.Values{
		"phrase":      {"head"},
		"sex":         {"male"},
		"age.value":   {"7"},
		"age.unit":    {"month"},
		"max_results": {"8"},
		"types":       {"symptom,lab_test"},
	}
	if diff := cmp.Diff(want, req.Query); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}
	if req.URL != "https://api.test/v3/search" || req.Method != http.MethodGet {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
}

func TestV3SearchRejectsInvalidInput(t *testing.T) {
	client := okClient(`[]`)
	api := newTestV3(t, client)

	_, err := api.Search(context.Background(), SearchRequest{Phrase: "x", Age: Years(30), Types: []SearchConceptType{"condition"}})
	var invalidType *InvalidSearchConceptTypeError
	if !errors.As(err, &invalidType) {
		t.Fatalf("expected InvalidSearchConceptTypeError, got %v", err)
	}

	_, err = api.Search(context.Background(), SearchRequest{Phrase: "x", Age: Age{Value: 3, Unit: "week"}})
	var invalidUnit *InvalidAgeUnitError
	if !errors.As(err, &invalidUnit) || invalidUnit.Unit != "week" {
		t.Fatalf("expected InvalidAgeUnitError, got %v", err)
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected validation to happen before any request")
	}
}

func TestV3DiagnosisPayload(t *testing.T) {
	client := okClient(`{"question":{"type":"single","text":"Fever?","items":[{"id":"s_98","name":"Fever"}]},"conditions":[{"id":"c_49","name":"Migraine","probability":0.41}],"should_stop":false}`)
	api := newTestV3(t, client)

	in := sampleInput()
	in.Pursued = []string{"c_49"}
	resp, err := api.Diagnosis(context.Background(), in)
	if err != nil {
		t.Fatalf("Diagnosis: %v", err)
	}

	req := client.last(t)
	if req.Method != http.MethodPost || req.URL != "https://api.test/v3/diagnosis" {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
	if req.Headers["Interview-Id"] != "iv-1" {
		t.Fatalf("expected Interview-Id header, got %q", req.Headers["Interview-Id"])
	}
	want := map[string]any{
		"sex": "female",
		"age": map[string]any{"value": float64(35), "unit": "year"},
		"evidence": []any{
			map[string]any{"id": "s_21", "choice_id": "present", "source": "initial"},
			map[string]any{"id": "p_28", "choice_id": "absent"},
		},
		"extras":  map[string]any{"disable_groups": true},
		"pursued": []any{"c_49"},
	}
	if diff := cmp.Diff(want, bodyJSON(t, req)); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if resp.Question == nil || resp.Question.Text != "Fever?" {
		t.Fatalf("unexpected question %+v", resp.Question)
	}
	if len(resp.Conditions) != 1 || resp.Conditions[0].Probability != 0.41 {
		t.Fatalf("unexpected conditions %+v", resp.Conditions)
	}
	if resp.InterviewID != "iv-1" {
		t.Fatalf("expected interview id to carry over, got %q", resp.InterviewID)
	}
}

func TestV3DiagnosisValidatesSex(t *testing.T) {
	client := okClient(`{}`)
	api := newTestV3(t, client)

	in := sampleInput()
	in.Sex = "other"
	if _, err := api.Diagnosis(context.Background(), in); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected no request")
	}
}

func TestV3SuggestDefaultsMethod(t *testing.T) {
	client := okClient(`[{"id":"s_98","name":"Fever"}]`)
	api := newTestV3(t, client)

	items, err := api.Suggest(context.Background(), sampleInput(), SuggestOptions{MaxResults: 3})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(items) != 1 || items[0].ID != "s_98" {
		t.Fatalf("unexpected items %+v", items)
	}
	req := client.last(t)
	if req.Query.Get("max_results") != "3" {
		t.Fatalf("expected max_results=3, got %v", req.Query)
	}
	if got := bodyJSON(t, req)["suggest_method"]; got != "symptoms" {
		t.Fatalf("expected default suggest method, got %v", got)
	}

	if _, err := api.Suggest(context.Background(), sampleInput(), SuggestOptions{Method: SuggestRedFlags}); err != nil {
		t.Fatalf("Suggest red flags: %v", err)
	}
	if got := bodyJSON(t, client.last(t))["suggest_method"]; got != "red_flags" {
		t.Fatalf("expected red_flags suggest method, got %v", got)
	}
	if _, err := api.Suggest(context.Background(), sampleInput(), SuggestOptions{Method: "everything"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid suggest method error, got %v", err)
	}
}

func TestV3ParseSendsAgeObject(t *testing.T) {
	client := okClient(`{"mentions":[{"id":"s_21","name":"Headache","choice_id":"present"}],"obvious":true}`)
	api := newTestV3(t, client)

	res, err := api.Parse(context.Background(), ParseRequest{Text: "my head hurts", Age: Years(40), IncludeTokens: true, InterviewID: "iv-2"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	req := client.last(t)
	want := map[string]any{
		"text":           "my head hurts",
		"age":            map[string]any{"value": float64(40), "unit": "year"},
		"include_tokens": true,
	}
	if diff := cmp.Diff(want, bodyJSON(t, req)); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if req.Headers["Interview-Id"] != "iv-2" {
		t.Fatalf("expected interview header")
	}
	ev := res.Evidence(SourceInitial)
	if len(ev) != 1 || ev[0] != (Evidence{ID: "s_21", ChoiceID: Present, Source: SourceInitial}) {
		t.Fatalf("unexpected evidence %+v", ev)
	}
}

func TestV3ExplainRequiresTarget(t *testing.T) {
	client := okClient(`{"supporting_evidence":[{"id":"s_21","name":"Headache"}],"conflicting_evidence":[]}`)
	api := newTestV3(t, client)

	if _, err := api.Explain(context.Background(), sampleInput(), " "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected missing target error, got %v", err)
	}
	res, err := api.Explain(context.Background(), sampleInput(), "c_49")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got := bodyJSON(t, client.last(t))["target"]; got != "c_49" {
		t.Fatalf("expected target in body, got %v", got)
	}
	if len(res.SupportingEvidence) != 1 {
		t.Fatalf("unexpected explain result %+v", res)
	}
}

func TestV3TriageAndSpecialist(t *testing.T) {
	client := okClient(`{"triage_level":"consultation","serious":[{"id":"s_1","name":"Chest pain","is_emergency":true}]}`)
	api := newTestV3(t, client)

	triage, err := api.Triage(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if triage.TriageLevel != "consultation" || !triage.Serious[0].IsEmergency {
		t.Fatalf("unexpected triage %+v", triage)
	}

	client.resp.body = `{"recommended_specialist":{"id":"sp_1","name":"Neurologist"},"recommended_channel":"personal_visit"}`
	rec, err := api.RecommendSpecialist(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("RecommendSpecialist: %v", err)
	}
	if client.last(t).URL != "https://api.test/v3/recommend_specialist" {
		t.Fatalf("unexpected url %s", client.last(t).URL)
	}
	if rec.RecommendedSpecialist.Name != "Neurologist" {
		t.Fatalf("unexpected recommendation %+v", rec)
	}
}

func TestV3ConditionDetailsSendsAge(t *testing.T) {
	client := okClient(`{"id":"c_49","name":"Migraine","prevalence":"common","icd10_code":"G43"}`)
	api := newTestV3(t, client)

	cond, err := api.ConditionDetails(context.Background(), "c_49", Years(30))
	if err != nil {
		t.Fatalf("ConditionDetails: %v", err)
	}
	req := client.last(t)
	if req.URL != "https://api.test/v3/conditions/c_49" || req.Query.Get("age.value") != "30" {
		t.Fatalf("unexpected request %s %v", req.URL, req.Query)
	}
	if cond.Prevalence != "common" || cond.Attributes.String("icd10_code") != "G43" {
		t.Fatalf("unexpected condition %+v", cond)
	}

	if _, err := api.ConditionDetails(context.Background(), "", Years(30)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected empty id error, got %v", err)
	}
}

func TestV3SymptomsList(t *testing.T) {
	client := okClient(`[{"id":"s_1","name":"Abdominal pain"},{"id":"s_21","name":"Headache"}]`)
	api := newTestV3(t, client)

	list, err := api.Symptoms(context.Background(), Years(30))
	if err != nil {
		t.Fatalf("Symptoms: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("expected 2 symptoms, got %d", list.Len())
	}
	if s, ok := list.Get("s_21"); !ok || s.Name != "Headache" {
		t.Fatalf("expected lookup by id, got %+v ok=%v", s, ok)
	}
	if _, ok := list.Get("s_404"); ok {
		t.Fatalf("expected missing id to be absent")
	}
}

func TestV3Concepts(t *testing.T) {
	client := okClient(`[{"id":"c_1","name":"Flu","type":"condition"}]`)
	api := newTestV3(t, client)

	list, err := api.Concepts(context.Background(), ConceptFilter{IDs: []string{"c_1", "s_2"}, Types: []ConceptType{ConceptCondition, ConceptSymptom}})
	if err != nil {
		t.Fatalf("Concepts: %v", err)
	}
	req := client.last(t)
	if req.Query.Get("ids") != "c_1,s_2" || req.Query.Get("types") != "condition,symptom" {
		t.Fatalf("unexpected query %v", req.Query)
	}
	if c, ok := list.Get("c_1"); !ok || c.Type != ConceptCondition {
		t.Fatalf("unexpected concept %+v", c)
	}

	_, err = api.Concepts(context.Background(), ConceptFilter{Types: []ConceptType{"drug"}})
	var invalid *InvalidConceptTypeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConceptTypeError, got %v", err)
	}
}

func TestV3DiagnoseOverHTTP(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/diagnosis" {
			http.NotFound(w, r)
			return
		}
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Interview-Id", "server-iv")
		_, _ = w.Write([]byte(`{"question":"not-an-object","conditions":[{"id":"c_1","name":"Flu","probability":0.2}],"extras":{"echo":1},"should_stop":true,"has_emergency_evidence":false}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Endpoint = srv.URL
	api, err := NewV3(cfg)
	if err != nil {
		t.Fatalf("NewV3: %v", err)
	}

	d := NewDiagnosis(SexMale, Years(30))
	d.AddSymptom("s_21", Present, WithSource(SourceInitial))
	d.SetExtra("enable_triage_5", true, true)
	if err := api.Diagnose(context.Background(), d); err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if gotHeaders.Get("App-Id") != "app-id" || gotHeaders.Get("Accept") != "application/json" {
		t.Fatalf("unexpected headers %v", gotHeaders)
	}
	if gotBody["extras"].(map[string]any)["enable_triage_5"] != true {
		t.Fatalf("expected permanent extra in body, got %v", gotBody)
	}
	if d.Question != nil {
		t.Fatalf("expected non-object question to be dropped")
	}
	if d.InterviewID != "server-iv" {
		t.Fatalf("expected interview id from header, got %q", d.InterviewID)
	}
	if !d.Stopped() || d.HasEmergencyEvidence == nil || *d.HasEmergencyEvidence {
		t.Fatalf("unexpected flags should_stop=%v emergency=%v", d.ShouldStop, d.HasEmergencyEvidence)
	}
	if _, ok := d.Conditions.Get("c_1"); !ok {
		t.Fatalf("expected conditions to be indexed")
	}
	if d.Extras["echo"] != float64(1) {
		t.Fatalf("expected server extras, got %v", d.Extras)
	}
	if d.PermanentExtras["enable_triage_5"] != true {
		t.Fatalf("expected permanent extras to survive")
	}
}
