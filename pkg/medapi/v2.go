package medapi

import "context"

// V2Connector talks to the v2 API.
type V2Connector struct {
	*legacyConnector
}

// NewV2 builds a v2 connector. cfg.Version is ignored.
func NewV2(cfg Config, opts ...Option) (*V2Connector, error) {
	cfg.Version = V2
	base, err := NewConnector(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &V2Connector{legacyConnector: &legacyConnector{Connector: base}}, nil
}

// RedFlags lists evidence that may indicate an emergency.
func (c *V2Connector) RedFlags(ctx context.Context, in DiagnosticInput, maxResults int) ([]SuggestItem, error) {
	return c.Suggest(ctx, in, SuggestOptions{Method: SuggestRedFlags, MaxResults: maxResults})
}

// Rationale explains why the current question is asked.
func (c *V2Connector) Rationale(ctx context.Context, in DiagnosticInput) (*RationaleResult, error) {
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
