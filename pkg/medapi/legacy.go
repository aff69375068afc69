package medapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// legacyConnector holds the operations v1 and v2 share: integer ages, repeated
// search type params and age-free lookups.
type legacyConnector struct {
	*Connector
}

func (c *legacyConnector) body(in DiagnosticInput) (diagnosticBody, error) {
	body, err := newDiagnosticBody(in, in.Age.Value)
	if err != nil {
		return diagnosticBody{}, err
	}
	if c.version == V1 {
		body.EvaluatedAt = in.EvaluatedAt
	}
	return body, nil
}

// Info returns knowledge base metadata.
func (c *legacyConnector) Info(ctx context.Context) (*Info, error) {
	var out Info
	if err := c.Call(ctx, MethodInfo, Request{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search finds observations whose names match the phrase. Age is ignored.
func (c *legacyConnector) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	types, err := validateSearchTypes(req.Types)
	if err != nil {
		return nil, err
	}
	q := maxResultsQuery(req.MaxResults)
	q.Set("phrase", req.Phrase)
	if req.Sex != "" {
		q.Set("sex", string(req.Sex))
	}
	for _, t := range types {
		q.Add("type", t)
	}

	var out []SearchResult
	if err := c.Call(ctx, MethodSearch, Request{Params: q, InterviewID: req.InterviewID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup resolves a phrase to the single best matching observation.
func (c *legacyConnector) Lookup(ctx context.Context, phrase string, sex Sex) (*SearchResult, error) {
	q := url.Values{"phrase": {phrase}}
	if sex != "" {
		q.Set("sex", string(sex))
	}
	var out SearchResult
	if err := c.Call(ctx, MethodLookup, Request{Params: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Parse recognises concepts in free text. Age is ignored.
func (c *legacyConnector) Parse(ctx context.Context, req ParseRequest) (*ParseResults, error) {
	body := struct {
		Text          string   `json:"text"`
		IncludeTokens bool     `json:"include_tokens"`
		Context       []string `json:"context,omitempty"`
	}{req.Text, req.IncludeTokens, req.Context}

	var out ParseResults
	if err := c.Call(ctx, MethodParse, Request{Body: body, InterviewID: req.InterviewID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest proposes related symptoms. SuggestRedFlags is served by /red_flags where available.
func (c *legacyConnector) Suggest(ctx context.Context, in DiagnosticInput, opts SuggestOptions) ([]SuggestItem, error) {
	method := MethodSuggest
	switch opts.Method {
	case "", SuggestSymptoms:
	case SuggestRedFlags:
		method = MethodRedFlags
	default:
		return nil, fmt.Errorf("%w: suggest method %q is not supported by %s", ErrInvalidArgument, opts.Method, c.version)
	}
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}

	var out []SuggestItem
	req := Request{Params: maxResultsQuery(opts.MaxResults), Body: body, InterviewID: in.InterviewID}
	if err := c.Call(ctx, method, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diagnosis runs one reasoning step.
func (c *legacyConnector) Diagnosis(ctx context.Context, in DiagnosticInput) (*DiagnosisResponse, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	return c.diagnosis(ctx, body, in.InterviewID)
}

// Diagnose sends the session state and folds the response back into d.
func (c *legacyConnector) Diagnose(ctx context.Context, d *Diagnosis) error {
	return diagnose(ctx, c, d)
}

// Explain lists the evidence for and against target.
func (c *legacyConnector) Explain(ctx context.Context, in DiagnosticInput, target string) (*ExplainResults, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("%w: explain requires a target condition", ErrInvalidArgument)
	}
	body.Target = target

	var out ExplainResults
	if err := c.Call(ctx, MethodExplain, Request{Body: body, InterviewID: in.InterviewID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Triage estimates urgency.
func (c *legacyConnector) Triage(ctx context.Context, in DiagnosticInput) (*TriageResult, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	var out TriageResult
	if err := c.Call(ctx, MethodTriage, Request{Body: body, InterviewID: in.InterviewID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *legacyConnector) Conditions(ctx context.Context) (ConditionList, error) {
	return getList[Condition](ctx, c.Connector, MethodConditions, nil)
}

func (c *legacyConnector) ConditionDetails(ctx context.Context, id string) (*Condition, error) {
	return getDetails[Condition](ctx, c.Connector, MethodConditionDetails, id, nil)
}

func (c *legacyConnector) Symptoms(ctx context.Context) (SymptomList, error) {
	return getList[Symptom](ctx, c.Connector, MethodSymptoms, nil)
}

func (c *legacyConnector) SymptomDetails(ctx context.Context, id string) (*Symptom, error) {
	return getDetails[Symptom](ctx, c.Connector, MethodSymptomDetails, id, nil)
}

func (c *legacyConnector) RiskFactors(ctx context.Context) (RiskFactorList, error) {
	return getList[RiskFactor](ctx, c.Connector, MethodRiskFactors, nil)
}

func (c *legacyConnector) RiskFactorDetails(ctx context.Context, id string) (*RiskFactor, error) {
	return getDetails[RiskFactor](ctx, c.Connector, MethodRiskFactorDetails, id, nil)
}

func (c *legacyConnector) LabTests(ctx context.Context) (LabTestList, error) {
	return getList[LabTest](ctx, c.Connector, MethodLabTests, nil)
}

func (c *legacyConnector) LabTestDetails(ctx context.Context, id string) (*LabTest, error) {
	return getDetails[LabTest](ctx, c.Connector, MethodLabTestDetails, id, nil)
}
