package medapi

import "context"

// V1Connector talks to the v1 API, which still exposes observations and evaluated_at.
type V1Connector struct {
	*legacyConnector
}

// NewV1 builds a v1 connector. cfg.Version is ignored.
func NewV1(cfg Config, opts ...Option) (*V1Connector, error) {
	cfg.Version = V1
	base, err := NewConnector(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &V1Connector{legacyConnector: &legacyConnector{Connector: base}}, nil
}

// Observations lists every observation.
func (c *V1Connector) Observations(ctx context.Context) (ObservationList, error) {
	return getList[Observation](ctx, c.Connector, MethodObservations, nil)
}

// ObservationDetails fetches one observation.
func (c *V1Connector) ObservationDetails(ctx context.Context, id string) (*Observation, error) {
	return getDetails[Observation](ctx, c.Connector, MethodObservationDetails, id, nil)
}
