package medapi

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sex of the patient.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid reports whether s is a known sex value.
func (s Sex) Valid() bool { return s == SexMale || s == SexFemale }

// Presence is the evidence choice_id.
type Presence string

const (
	Present Presence = "present"
	Absent  Presence = "absent"
	Unknown Presence = "unknown"
)

// Known evidence sources. The field is free-form on the wire.
const (
	SourceInitial    = "initial"
	SourceSuggest    = "suggest"
	SourcePredefined = "predefined"
	SourceRedFlags   = "red_flags"
)

// Evidence is a single reported observation.
type Evidence struct {
	ID         string   `json:"id"`
	ChoiceID   Presence `json:"choice_id"`
	Source     string   `json:"source,omitempty"`
	ObservedAt string   `json:"observed_at,omitempty"`
}

// EvidenceOption decorates an Evidence entry.
type EvidenceOption func(*Evidence)

// WithSource tags evidence with where it came from.
func WithSource(source string) EvidenceOption {
	return func(e *Evidence) { e.Source = source }
}

// WithObservedAt stamps evidence with its observation time.
func WithObservedAt(t time.Time) EvidenceOption {
	return func(e *Evidence) {
		if !t.IsZero() {
			e.ObservedAt = t.Format(time.RFC3339)
		}
	}
}

// NewEvidence builds an evidence entry.
func NewEvidence(id string, choice Presence, opts ...EvidenceOption) Evidence {
	ev := Evidence{ID: id, ChoiceID: choice}
	for _, opt := range opts {
		if opt != nil {
			opt(&ev)
		}
	}
	return ev
}

// AgeUnit is the unit of Age.Value.
type AgeUnit string

const (
	AgeYear  AgeUnit = "year"
	AgeMonth AgeUnit = "month"
)

// Age of the patient. An empty unit means years to the server.
type Age struct {
	Value int     `json:"value"`
	Unit  AgeUnit `json:"unit,omitempty"`
}

// NewAge validates the unit and returns the age.
func NewAge(value int, unit AgeUnit) (Age, error) {
	a := Age{Value: value, Unit: unit}
	if err := a.Validate(); err != nil {
		return Age{}, err
	}
	return a, nil
}

// Years is shorthand for an age in years.
func Years(value int) Age { return Age{Value: value, Unit: AgeYear} }

// Validate checks the unit.
func (a Age) Validate() error {
	switch a.Unit {
	case "", AgeYear, AgeMonth:
		return nil
	default:
		return &InvalidAgeUnitError{Unit: a.Unit}
	}
}

// setQuery renders the age.value / age.unit query parameters.
func (a Age) setQuery(q url.Values) {
	q.Set("age.value", strconv.Itoa(a.Value))
	if a.Unit != "" {
		q.Set("age.unit", string(a.Unit))
	}
}

// Extras are free-form flags that alter the engine's reasoning.
type Extras map[string]any

// Merge returns a new map with other's entries laid over e.
func (e Extras) Merge(other Extras) Extras {
	out := make(Extras, len(e)+len(other))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// SearchConceptType filters search results.
type SearchConceptType string

const (
	SearchSymptom    SearchConceptType = "symptom"
	SearchRiskFactor SearchConceptType = "risk_factor"
	SearchLabTest    SearchConceptType = "lab_test"
)

func (t SearchConceptType) Valid() bool {
	switch t {
	case SearchSymptom, SearchRiskFactor, SearchLabTest:
		return true
	}
	return false
}

// ConceptType filters concept listings.
type ConceptType string

const (
	ConceptCondition  ConceptType = "condition"
	ConceptSymptom    ConceptType = "symptom"
	ConceptRiskFactor ConceptType = "risk_factor"
	ConceptLabTest    ConceptType = "lab_test"
)

func (t ConceptType) Valid() bool {
	switch t {
	case ConceptCondition, ConceptSymptom, ConceptRiskFactor, ConceptLabTest:
		return true
	}
	return false
}

// SuggestMethod selects what /suggest returns in v3.
type SuggestMethod string

const (
	SuggestSymptoms    SuggestMethod = "symptoms"
	SuggestRiskFactors SuggestMethod = "risk_factors"
	SuggestRedFlags    SuggestMethod = "red_flags"
)

func validateSearchTypes(types []SearchConceptType) ([]string, error) {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if !t.Valid() {
			return nil, &InvalidSearchConceptTypeError{Type: t}
		}
		out = append(out, string(t))
	}
	return out, nil
}

func validateConceptTypes(types []ConceptType) (string, error) {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if !t.Valid() {
			return "", &InvalidConceptTypeError{Type: t}
		}
		out = append(out, string(t))
	}
	return strings.Join(out, ","), nil
}
