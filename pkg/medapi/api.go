package medapi

import "context"

// SearchRequest queries concepts by phrase.
type SearchRequest struct {
	Phrase string
	Sex    Sex
	// Age is sent by v3 only.
	Age         Age
	MaxResults  int
	Types       []SearchConceptType
	InterviewID string
}

// ParseRequest submits free text for concept recognition.
type ParseRequest struct {
	Text string
	// Age is sent by v3 only.
	Age           Age
	IncludeTokens bool
	Context       []string
	InterviewID   string
}

// SuggestOptions tune /suggest.
type SuggestOptions struct {
	Method     SuggestMethod
	MaxResults int
}

// API is what every version connector offers.
type API interface {
	Version() APIVersion
	Info(ctx context.Context) (*Info, error)
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	Parse(ctx context.Context, req ParseRequest) (*ParseResults, error)
	Suggest(ctx context.Context, in DiagnosticInput, opts SuggestOptions) ([]SuggestItem, error)
	Diagnosis(ctx context.Context, in DiagnosticInput) (*DiagnosisResponse, error)
	Diagnose(ctx context.Context, d *Diagnosis) error
	Explain(ctx context.Context, in DiagnosticInput, target string) (*ExplainResults, error)
	Triage(ctx context.Context, in DiagnosticInput) (*TriageResult, error)
}

// RationaleAPI is implemented from v2 on.
type RationaleAPI interface {
	Rationale(ctx context.Context, in DiagnosticInput) (*RationaleResult, error)
}

// SpecialistAPI is implemented by v3.
type SpecialistAPI interface {
	RecommendSpecialist(ctx context.Context, in DiagnosticInput) (*SpecialistRecommendation, error)
}

var (
	_ API           = (*V1Connector)(nil)
	_ API           = (*V2Connector)(nil)
	_ API           = (*V3Connector)(nil)
	_ RationaleAPI  = (*V2Connector)(nil)
	_ RationaleAPI  = (*V3Connector)(nil)
	_ SpecialistAPI = (*V3Connector)(nil)
)
