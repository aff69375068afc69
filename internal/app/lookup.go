package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// Kind names a lookup collection.
type Kind string

const (
	KindConditions   Kind = "conditions"
	KindSymptoms     Kind = "symptoms"
	KindRiskFactors  Kind = "risk_factors"
	KindLabTests     Kind = "lab_tests"
	KindObservations Kind = "observations"
	KindConcepts     Kind = "concepts"
)

// ParseKind accepts the plural collection name or its singular form.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	switch k := Kind(strings.TrimSuffix(s, "s") + "s"); k {
	case KindConditions, KindSymptoms, KindRiskFactors, KindLabTests, KindObservations, KindConcepts:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", medapi.ErrInvalidArgument, s)
}

type (
	v3Lister interface {
		Conditions(ctx context.Context, age medapi.Age) (medapi.ConditionList, error)
		Symptoms(ctx context.Context, age medapi.Age) (medapi.SymptomList, error)
		RiskFactors(ctx context.Context, age medapi.Age) (medapi.RiskFactorList, error)
		LabTests(ctx context.Context, age medapi.Age) (medapi.LabTestList, error)
		ConditionDetails(ctx context.Context, id string, age medapi.Age) (*medapi.Condition, error)
		SymptomDetails(ctx context.Context, id string, age medapi.Age) (*medapi.Symptom, error)
		RiskFactorDetails(ctx context.Context, id string, age medapi.Age) (*medapi.RiskFactor, error)
		LabTestDetails(ctx context.Context, id string, age medapi.Age) (*medapi.LabTest, error)
	}

	legacyLister interface {
		Conditions(ctx context.Context) (medapi.ConditionList, error)
		Symptoms(ctx context.Context) (medapi.SymptomList, error)
		RiskFactors(ctx context.Context) (medapi.RiskFactorList, error)
		LabTests(ctx context.Context) (medapi.LabTestList, error)
		ConditionDetails(ctx context.Context, id string) (*medapi.Condition, error)
		SymptomDetails(ctx context.Context, id string) (*medapi.Symptom, error)
		RiskFactorDetails(ctx context.Context, id string) (*medapi.RiskFactor, error)
		LabTestDetails(ctx context.Context, id string) (*medapi.LabTest, error)
	}

	observationLister interface {
		Observations(ctx context.Context) (medapi.ObservationList, error)
		ObservationDetails(ctx context.Context, id string) (*medapi.Observation, error)
	}

	conceptLister interface {
		Concepts(ctx context.Context, f medapi.ConceptFilter) (medapi.ConceptList, error)
		ConceptDetails(ctx context.Context, id string) (*medapi.Concept, error)
	}

	phraseLookup interface {
		Lookup(ctx context.Context, phrase string, sex medapi.Sex) (*medapi.SearchResult, error)
	}
)

// List returns every record of kind. age is only sent by v3 connectors.
func List(ctx context.Context, api medapi.API, kind Kind, age medapi.Age) (any, error) {
	switch c := api.(type) {
	case v3Lister:
		switch kind {
		case KindConditions:
			return c.Conditions(ctx, age)
		case KindSymptoms:
			return c.Symptoms(ctx, age)
		case KindRiskFactors:
			return c.RiskFactors(ctx, age)
		case KindLabTests:
			return c.LabTests(ctx, age)
		}
	case legacyLister:
		switch kind {
		case KindConditions:
			return c.Conditions(ctx)
		case KindSymptoms:
			return c.Symptoms(ctx)
		case KindRiskFactors:
			return c.RiskFactors(ctx)
		case KindLabTests:
			return c.LabTests(ctx)
		}
	}
	switch kind {
	case KindObservations:
		if c, ok := api.(observationLister); ok {
			return c.Observations(ctx)
		}
	case KindConcepts:
		if c, ok := api.(conceptLister); ok {
			return c.Concepts(ctx, medapi.ConceptFilter{})
		}
	}
	return nil, &medapi.MethodNotAvailableError{Version: api.Version(), Method: medapi.Method(kind)}
}

// Details fetches a single record of kind by id. age is only sent by v3 connectors.
func Details(ctx context.Context, api medapi.API, kind Kind, id string, age medapi.Age) (any, error) {
	switch c := api.(type) {
	case v3Lister:
		switch kind {
		case KindConditions:
			return c.ConditionDetails(ctx, id, age)
		case KindSymptoms:
			return c.SymptomDetails(ctx, id, age)
		case KindRiskFactors:
			return c.RiskFactorDetails(ctx, id, age)
		case KindLabTests:
			return c.LabTestDetails(ctx, id, age)
		}
	case legacyLister:
		switch kind {
		case KindConditions:
			return c.ConditionDetails(ctx, id)
		case KindSymptoms:
			return c.SymptomDetails(ctx, id)
		case KindRiskFactors:
			return c.RiskFactorDetails(ctx, id)
		case KindLabTests:
			return c.LabTestDetails(ctx, id)
		}
	}
	switch kind {
	case KindObservations:
		if c, ok := api.(observationLister); ok {
			return c.ObservationDetails(ctx, id)
		}
	case KindConcepts:
		if c, ok := api.(conceptLister); ok {
			return c.ConceptDetails(ctx, id)
		}
	}
	return nil, &medapi.MethodNotAvailableError{Version: api.Version(), Method: detailsMethod(kind)}
}

// Concepts lists v3 concepts filtered by ids and types.
func Concepts(ctx context.Context, api medapi.API, f medapi.ConceptFilter) (medapi.ConceptList, error) {
	c, ok := api.(conceptLister)
	if !ok {
		return medapi.ConceptList{}, &medapi.MethodNotAvailableError{Version: api.Version(), Method: medapi.MethodConcepts}
	}
	return c.Concepts(ctx, f)
}

// Lookup resolves a phrase to a single observation on v1 and v2.
func Lookup(ctx context.Context, api medapi.API, phrase string, sex medapi.Sex) (*medapi.SearchResult, error) {
	c, ok := api.(phraseLookup)
	if !ok {
		return nil, &medapi.MethodNotAvailableError{Version: api.Version(), Method: medapi.MethodLookup}
	}
	return c.Lookup(ctx, phrase, sex)
}

func detailsMethod(kind Kind) medapi.Method {
	switch kind {
	case KindConditions:
		return medapi.MethodConditionDetails
	case KindSymptoms:
		return medapi.MethodSymptomDetails
	case KindRiskFactors:
		return medapi.MethodRiskFactorDetails
	case KindLabTests:
		return medapi.MethodLabTestDetails
	case KindObservations:
		return medapi.MethodObservationDetails
	default:
		return medapi.MethodConceptDetails
	}
}
