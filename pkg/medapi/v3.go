package medapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// V3Connector talks to the v3 API: ages are objects and concepts replace lookups.
type V3Connector struct {
	*Connector
}

// NewV3 builds a v3 connector. cfg.Version is ignored.
func NewV3(cfg Config, opts ...Option) (*V3Connector, error) {
	cfg.Version = V3
	base, err := NewConnector(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &V3Connector{Connector: base}, nil
}

func (c *V3Connector) body(in DiagnosticInput) (diagnosticBody, error) {
	return newDiagnosticBody(in, in.Age)
}

func ageQuery(age Age) (url.Values, error) {
	if err := age.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	age.setQuery(q)
	return q, nil
}

// Info returns knowledge base metadata.
func (c *V3Connector) Info(ctx context.Context) (*Info, error) {
	var out Info
	if err := c.Call(ctx, MethodInfo, Request{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search finds concepts whose names match the phrase.
func (c *V3Connector) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	types, err := validateSearchTypes(req.Types)
	if err != nil {
		return nil, err
	}
	q, err := ageQuery(req.Age)
	if err != nil {
		return nil, err
	}
	q.Set("phrase", req.Phrase)
	for k, v := range maxResultsQuery(req.MaxResults) {
		q[k] = v
	}
	if req.Sex != "" {
		q.Set("sex", string(req.Sex))
	}
	if len(types) > 0 {
		q.Set("types", strings.Join(types, ","))
	}

	var out []SearchResult
	if err := c.Call(ctx, MethodSearch, Request{Params: q, InterviewID: req.InterviewID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Parse recognises concepts in free text.
func (c *V3Connector) Parse(ctx context.Context, req ParseRequest) (*ParseResults, error) {
	if err := req.Age.Validate(); err != nil {
		return nil, err
	}
	body := struct {
		Text          string   `json:"text"`
		Age           Age      `json:"age"`
		IncludeTokens bool     `json:"include_tokens"`
		Context       []string `json:"context,omitempty"`
	}{req.Text, req.Age, req.IncludeTokens, req.Context}

	var out ParseResults
	if err := c.Call(ctx, MethodParse, Request{Body: body, InterviewID: req.InterviewID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest proposes further evidence to ask about.
func (c *V3Connector) Suggest(ctx context.Context, in DiagnosticInput, opts SuggestOptions) ([]SuggestItem, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	switch opts.Method {
	case "":
		body.SuggestMethod = SuggestSymptoms
	case SuggestSymptoms, SuggestRiskFactors, SuggestRedFlags:
		body.SuggestMethod = opts.Method
	default:
		return nil, fmt.Errorf("%w: unknown suggest method %q", ErrInvalidArgument, opts.Method)
	}

	var out []SuggestItem
	req := Request{Params: maxResultsQuery(opts.MaxResults), Body: body, InterviewID: in.InterviewID}
	if err := c.Call(ctx, MethodSuggest, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diagnosis runs one reasoning step.
func (c *V3Connector) Diagnosis(ctx context.Context, in DiagnosticInput) (*DiagnosisResponse, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	return c.diagnosis(ctx, body, in.InterviewID)
}

// Diagnose sends the session state and folds the response back into d.
func (c *V3Connector) Diagnose(ctx context.Context, d *Diagnosis) error {
	return diagnose(ctx, c, d)
}

// Rationale explains why the current question is asked.
func (c *V3Connector) Rationale(ctx context.Context, in DiagnosticInput) (*RationaleResult, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	var out RationaleResult
	if err := c.Call(ctx, MethodRationale, Request{Body: body, InterviewID: in.InterviewID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain lists the evidence for and against target.
func (c *V3Connector) Explain(ctx context.Context, in DiagnosticInput, target string) (*ExplainResults, error) {
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
func (c *V3Connector) Triage(ctx context.Context, in DiagnosticInput) (*TriageResult, error) {
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

// RecommendSpecialist picks a specialty and consultation channel.
func (c *V3Connector) RecommendSpecialist(ctx context.Context, in DiagnosticInput) (*SpecialistRecommendation, error) {
	body, err := c.body(in)
	if err != nil {
		return nil, err
	}
	var out SpecialistRecommendation
	if err := c.Call(ctx, MethodSpecialistRecommender, Request{Body: body, InterviewID: in.InterviewID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conditions lists every condition for a patient of the given age.
func (c *V3Connector) Conditions(ctx context.Context, age Age) (ConditionList, error) {
	q, err := ageQuery(age)
	if err != nil {
		return ConditionList{}, err
	}
	return getList[Condition](ctx, c.Connector, MethodConditions, q)
}

// ConditionDetails fetches one condition.
func (c *V3Connector) ConditionDetails(ctx context.Context, id string, age Age) (*Condition, error) {
	q, err := ageQuery(age)
	if err != nil {
		return nil, err
	}
	return getDetails[Condition](ctx, c.Connector, MethodConditionDetails, id, q)
}

// Symptoms lists every symptom for a patient of the given age.
func (c *V3Connector) Symptoms(ctx context.Context, age Age) (SymptomList, error) {
	q, err := ageQuery(age)
	if err != nil {
		return SymptomList{}, err
	}
	return getList[Symptom](ctx, c.Connector, MethodSymptoms, q)
}

// SymptomDetails fetches one symptom.
func (c *V3Connector) SymptomDetails(ctx context.Context, id string, age Age) (*Symptom, error) {
	q, err := ageQuery(age)
	if err != nil {
		return nil, err
	}
	return getDetails[Symptom](ctx, c.Connector, MethodSymptomDetails, id, q)
}

// RiskFactors lists every risk factor for a patient of the given age.
func (c *V3Connector) RiskFactors(ctx context.Context, age Age) (RiskFactorList, error) {
	q, err := ageQuery(age)
	if err != nil {
		return RiskFactorList{}, err
	}
	return getList[RiskFactor](ctx, c.Connector, MethodRiskFactors, q)
}

// RiskFactorDetails fetches one risk factor.
func (c *V3Connector) RiskFactorDetails(ctx context.Context, id string, age Age) (*RiskFactor, error) {
	q, err := ageQuery(age)
	if err != nil {
		return nil, err
	}
	return getDetails[RiskFactor](ctx, c.Connector, MethodRiskFactorDetails, id, q)
}

// LabTests lists every lab test for a patient of the given age.
func (c *V3Connector) LabTests(ctx context.Context, age Age) (LabTestList, error) {
	q, err := ageQuery(age)
	if err != nil {
		return LabTestList{}, err
	}
	return getList[LabTest](ctx, c.Connector, MethodLabTests, q)
}

// LabTestDetails fetches one lab test.
func (c *V3Connector) LabTestDetails(ctx context.Context, id string, age Age) (*LabTest, error) {
	q, err := ageQuery(age)
	if err != nil {
		return nil, err
	}
	return getDetails[LabTest](ctx, c.Connector, MethodLabTestDetails, id, q)
}

// ConceptFilter narrows a concept listing. Empty fields mean no filter.
type ConceptFilter struct {
	IDs   []string
	Types []ConceptType
}

// Concepts lists catalogue entries across types.
func (c *V3Connector) Concepts(ctx context.Context, f ConceptFilter) (ConceptList, error) {
	types, err := validateConceptTypes(f.Types)
	if err != nil {
		return ConceptList{}, err
	}
	q := url.Values{}
	if len(f.IDs) > 0 {
		q.Set("ids", strings.Join(f.IDs, ","))
	}
	if types != "" {
		q.Set("types", types)
	}
	return getList[Concept](ctx, c.Connector, MethodConcepts, q)
}

// ConceptDetails fetches one concept.
func (c *V3Connector) ConceptDetails(ctx context.Context, id string) (*Concept, error) {
	return getDetails[Concept](ctx, c.Connector, MethodConceptDetails, id, nil)
}
