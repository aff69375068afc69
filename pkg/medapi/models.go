package medapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attributes is the flat attribute bag of a record as returned by the server.
type Attributes map[string]any

// Get returns the raw attribute value.
func (a Attributes) Get(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// String returns the attribute formatted as a string, or "" when absent.
func (a Attributes) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// decodeWithAttributes fills dst from data and keeps every attribute in attrs.
func decodeWithAttributes(data []byte, dst any, attrs *Attributes) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	var bag Attributes
	if err := json.Unmarshal(data, &bag); err != nil {
		return err
	}
	*attrs = bag
	return nil
}

// encodeWithAttributes lays the typed fields of src over a copy of attrs.
func encodeWithAttributes(src any, attrs Attributes) ([]byte, error) {
	typed, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return typed, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(attrs)+len(fields))
	for k, v := range attrs {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// Record is anything addressable by id inside an IndexedList.
type Record interface {
	RecordID() string
}

// IndexedList keeps records in server order with O(1) lookup by id.
type IndexedList[T Record] struct {
	items []T
	index map[string]int
}

// NewIndexedList indexes items. Later duplicates win the index slot.
func NewIndexedList[T Record](items []T) IndexedList[T] {
	l := IndexedList[T]{}
	l.reset(items)
	return l
}

func (l *IndexedList[T]) reset(items []T) {
	l.items = items
	l.index = make(map[string]int, len(items))
	for i, item := range items {
		l.index[item.RecordID()] = i
	}
}

// Items returns the records in server order.
func (l IndexedList[T]) Items() []T { return l.items }

// Len returns the number of records.
func (l IndexedList[T]) Len() int { return len(l.items) }

// Get returns the record with the given id.
func (l IndexedList[T]) Get(id string) (T, bool) {
	var zero T
	i, ok := l.index[id]
	if !ok || i >= len(l.items) {
		return zero, false
	}
	return l.items[i], true
}

func (l IndexedList[T]) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *IndexedList[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	l.reset(items)
	return nil
}

type (
	ConditionList       = IndexedList[Condition]
	SymptomList         = IndexedList[Symptom]
	RiskFactorList      = IndexedList[RiskFactor]
	LabTestList         = IndexedList[LabTest]
	ObservationList     = IndexedList[Observation]
	ConceptList         = IndexedList[Concept]
	ConditionResultList = IndexedList[ConditionResult]
)

// Info describes the knowledge base behind the API.
type Info struct {
	UpdatedAt        string     `json:"updated_at,omitempty"`
	APIVersion       string     `json:"api_version,omitempty"`
	ConditionsCount  int        `json:"conditions_count,omitempty"`
	SymptomsCount    int        `json:"symptoms_count,omitempty"`
	RiskFactorsCount int        `json:"risk_factors_count,omitempty"`
	LabTestsCount    int        `json:"lab_tests_count,omitempty"`
	Attributes       Attributes `json:"-"`
}

func (i *Info) UnmarshalJSON(data []byte) error {
	type plain Info
	return decodeWithAttributes(data, (*plain)(i), &i.Attributes)
}

func (i Info) MarshalJSON() ([]byte, error) {
	type plain Info
	return encodeWithAttributes(plain(i), i.Attributes)
}

// Condition is a diagnosable condition.
type Condition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	CommonName  string         `json:"common_name,omitempty"`
	SexFilter   string         `json:"sex_filter,omitempty"`
	Categories  []string       `json:"categories,omitempty"`
	Prevalence  string         `json:"prevalence,omitempty"`
	Acuteness   string         `json:"acuteness,omitempty"`
	Severity    string         `json:"severity,omitempty"`
	TriageLevel string         `json:"triage_level,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
	Attributes  Attributes     `json:"-"`
}

func (c Condition) RecordID() string { return c.ID }

func (c *Condition) UnmarshalJSON(data []byte) error {
	type plain Condition
	return decodeWithAttributes(data, (*plain)(c), &c.Attributes)
}

func (c Condition) MarshalJSON() ([]byte, error) {
	type plain Condition
	return encodeWithAttributes(plain(c), c.Attributes)
}

// SymptomChild links a symptom to a more specific one.
type SymptomChild struct {
	ID             string `json:"id"`
	ParentRelation string `json:"parent_relation,omitempty"`
}

// Symptom is a reportable symptom.
type Symptom struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	CommonName     string         `json:"common_name,omitempty"`
	Question       string         `json:"question,omitempty"`
	SexFilter      string         `json:"sex_filter,omitempty"`
	Category       string         `json:"category,omitempty"`
	Seriousness    string         `json:"seriousness,omitempty"`
	ParentID       string         `json:"parent_id,omitempty"`
	ParentRelation string         `json:"parent_relation,omitempty"`
	Children       []SymptomChild `json:"children,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	ImageSource    string         `json:"image_source,omitempty"`
	Extras         map[string]any `json:"extras,omitempty"`
	Attributes     Attributes     `json:"-"`
}

func (s Symptom) RecordID() string { return s.ID }

func (s *Symptom) UnmarshalJSON(data []byte) error {
	type plain Symptom
	return decodeWithAttributes(data, (*plain)(s), &s.Attributes)
}

func (s Symptom) MarshalJSON() ([]byte, error) {
	type plain Symptom
	return encodeWithAttributes(plain(s), s.Attributes)
}

// RiskFactor is a reportable risk factor.
type RiskFactor struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	CommonName  string         `json:"common_name,omitempty"`
	Question    string         `json:"question,omitempty"`
	SexFilter   string         `json:"sex_filter,omitempty"`
	Category    string         `json:"category,omitempty"`
	Seriousness string         `json:"seriousness,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	ImageSource string         `json:"image_source,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
	Attributes  Attributes     `json:"-"`
}

func (r RiskFactor) RecordID() string { return r.ID }

func (r *RiskFactor) UnmarshalJSON(data []byte) error {
	type plain RiskFactor
	return decodeWithAttributes(data, (*plain)(r), &r.Attributes)
}

func (r RiskFactor) MarshalJSON() ([]byte, error) {
	type plain RiskFactor
	return encodeWithAttributes(plain(r), r.Attributes)
}

// LabTestResult is one possible outcome of a lab test.
type LabTestResult struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// LabTest is an orderable lab test.
type LabTest struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CommonName string          `json:"common_name,omitempty"`
	Category   string          `json:"category,omitempty"`
	Results    []LabTestResult `json:"results,omitempty"`
	Attributes Attributes      `json:"-"`
}

func (l LabTest) RecordID() string { return l.ID }

func (l *LabTest) UnmarshalJSON(data []byte) error {
	type plain LabTest
	return decodeWithAttributes(data, (*plain)(l), &l.Attributes)
}

func (l LabTest) MarshalJSON() ([]byte, error) {
	type plain LabTest
	return encodeWithAttributes(plain(l), l.Attributes)
}

// Observation is the v1 umbrella record for symptoms and findings.
type Observation struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CommonName  string     `json:"common_name,omitempty"`
	Question    string     `json:"question,omitempty"`
	SexFilter   string     `json:"sex_filter,omitempty"`
	Category    string     `json:"category,omitempty"`
	Seriousness string     `json:"seriousness,omitempty"`
	Attributes  Attributes `json:"-"`
}

func (o Observation) RecordID() string { return o.ID }

func (o *Observation) UnmarshalJSON(data []byte) error {
	type plain Observation
	return decodeWithAttributes(data, (*plain)(o), &o.Attributes)
}

func (o Observation) MarshalJSON() ([]byte, error) {
	type plain Observation
	return encodeWithAttributes(plain(o), o.Attributes)
}

// Concept is the v3 cross-type catalogue entry.
type Concept struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CommonName string      `json:"common_name,omitempty"`
	Type       ConceptType `json:"type"`
	Attributes Attributes  `json:"-"`
}

func (c Concept) RecordID() string { return c.ID }

func (c *Concept) UnmarshalJSON(data []byte) error {
	type plain Concept
	return decodeWithAttributes(data, (*plain)(c), &c.Attributes)
}

func (c Concept) MarshalJSON() ([]byte, error) {
	type plain Concept
	return encodeWithAttributes(plain(c), c.Attributes)
}

// ConditionResult is a ranked condition in a diagnosis response.
type ConditionResult struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CommonName  string     `json:"common_name,omitempty"`
	Probability float64    `json:"probability"`
	Attributes  Attributes `json:"-"`
}

func (c ConditionResult) RecordID() string { return c.ID }

func (c *ConditionResult) UnmarshalJSON(data []byte) error {
	type plain ConditionResult
	return decodeWithAttributes(data, (*plain)(c), &c.Attributes)
}

func (c ConditionResult) MarshalJSON() ([]byte, error) {
	type plain ConditionResult
	return encodeWithAttributes(plain(c), c.Attributes)
}

// SearchResult is returned by search and lookup.
type SearchResult struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SuggestItem is returned by suggest and red flags.
type SuggestItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"common_name,omitempty"`
}

// Mention is a concept recognised in free text.
type Mention struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CommonName string   `json:"common_name,omitempty"`
	Orth       string   `json:"orth,omitempty"`
	ChoiceID   Presence `json:"choice_id"`
	Type       string   `json:"type,omitempty"`
}

// ParseResults is the /parse response.
type ParseResults struct {
	Mentions []Mention `json:"mentions"`
	Obvious  bool      `json:"obvious"`
	Tokens   []string  `json:"tokens,omitempty"`
}

// Evidence converts the mentions into evidence tagged with source.
func (p ParseResults) Evidence(source string) []Evidence {
	out := make([]Evidence, 0, len(p.Mentions))
	for _, m := range p.Mentions {
		out = append(out, Evidence{ID: m.ID, ChoiceID: m.ChoiceID, Source: source})
	}
	return out
}

// Choice is an answer option of a question item.
type Choice struct {
	ID    Presence `json:"id"`
	Label string   `json:"label"`
}

// QuestionItem is one askable concept inside a question.
type QuestionItem struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Choices []Choice `json:"choices,omitempty"`
}

// Question is the next interview question.
type Question struct {
	Type   string         `json:"type"`
	Text   string         `json:"text"`
	Items  []QuestionItem `json:"items"`
	Extras map[string]any `json:"extras,omitempty"`
}

// DiagnosisResponse is the /diagnosis response.
type DiagnosisResponse struct {
	Question             *Question         `json:"question,omitempty"`
	Conditions           []ConditionResult `json:"conditions"`
	ShouldStop           *bool             `json:"should_stop,omitempty"`
	HasEmergencyEvidence *bool             `json:"has_emergency_evidence,omitempty"`
	Extras               Extras            `json:"extras,omitempty"`
	// InterviewID is taken from the Interview-Id response header when present.
	InterviewID string `json:"-"`
}

// UnmarshalJSON drops a question that is not a JSON object.
func (r *DiagnosisResponse) UnmarshalJSON(data []byte) error {
	type plain DiagnosisResponse
	var raw struct {
		plain
		Question json.RawMessage `json:"question"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = DiagnosisResponse(raw.plain)
	r.Question = nil
	if q := bytes.TrimSpace(raw.Question); len(q) > 0 && q[0] == '{' {
		var question Question
		if err := json.Unmarshal(q, &question); err != nil {
			return fmt.Errorf("decode question: %w", err)
		}
		r.Question = &question
	}
	return nil
}

// ExplainEvidence is one entry of an explanation.
type ExplainEvidence struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"common_name,omitempty"`
}

// ExplainResults is the /explain response.
type ExplainResults struct {
	SupportingEvidence  []ExplainEvidence `json:"supporting_evidence"`
	ConflictingEvidence []ExplainEvidence `json:"conflicting_evidence"`
	UnconfirmedEvidence []ExplainEvidence `json:"unconfirmed_evidence,omitempty"`
}

// RationaleParam names a concept the rationale refers to.
type RationaleParam struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"common_name,omitempty"`
}

// RationaleResult explains why the current question was asked.
type RationaleResult struct {
	Type              string           `json:"type"`
	ObservationParams []RationaleParam `json:"observation_params"`
	ConditionParams   []RationaleParam `json:"condition_params"`
}

// SeriousObservation is evidence that drove the triage level.
type SeriousObservation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CommonName  string `json:"common_name,omitempty"`
	IsEmergency bool   `json:"is_emergency"`
}

// TriageResult is the /triage response.
type TriageResult struct {
	TriageLevel                string               `json:"triage_level"`
	Serious                    []SeriousObservation `json:"serious"`
	RootCause                  string               `json:"root_cause,omitempty"`
	TeleconsultationApplicable bool                 `json:"teleconsultation_applicable,omitempty"`
}

// Specialist is a recommended medical specialty.
type Specialist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpecialistRecommendation is the v3 specialist recommender response.
type SpecialistRecommendation struct {
	RecommendedSpecialist Specialist `json:"recommended_specialist"`
	RecommendedChannel    string     `json:"recommended_channel"`
}
