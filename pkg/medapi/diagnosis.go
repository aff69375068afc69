package medapi

import (
	"fmt"
	"strings"
)

// DiagnosticInput is the version-neutral payload shared by diagnosis, suggest,
// explain, rationale, triage and specialist recommendation.
type DiagnosticInput struct {
	Sex         Sex
	Age         Age
	Evidence    []Evidence
	Extras      Extras
	Pursued     []string
	EvaluatedAt string
	InterviewID string
}

func (in DiagnosticInput) validate() error {
	if !in.Sex.Valid() {
		return fmt.Errorf("%w: sex must be %q or %q, got %q", ErrInvalidArgument, SexMale, SexFemale, in.Sex)
	}
	return in.Age.Validate()
}

// Diagnosis accumulates interview state across diagnosis round-trips.
// It serialises to JSON so a session can be resumed later.
type Diagnosis struct {
	Sex         Sex        `json:"sex"`
	Age         Age        `json:"age"`
	Symptoms    []Evidence `json:"symptoms"`
	LabTests    []Evidence `json:"lab_tests"`
	RiskFactors []Evidence `json:"risk_factors"`
	Pursued     []string   `json:"pursued,omitempty"`
	EvaluatedAt string     `json:"evaluated_at,omitempty"`
	InterviewID string     `json:"interview_id,omitempty"`

	Extras          Extras `json:"extras"`
	PermanentExtras Extras `json:"extras_permanent"`

	Question             *Question           `json:"question,omitempty"`
	Conditions           ConditionResultList `json:"conditions"`
	ShouldStop           *bool               `json:"should_stop,omitempty"`
	HasEmergencyEvidence *bool               `json:"has_emergency_evidence,omitempty"`
}

// NewDiagnosis starts an empty interview for the patient.
func NewDiagnosis(sex Sex, age Age) *Diagnosis {
	return &Diagnosis{
		Sex:             sex,
		Age:             age,
		Symptoms:        []Evidence{},
		LabTests:        []Evidence{},
		RiskFactors:     []Evidence{},
		Extras:          Extras{},
		PermanentExtras: Extras{},
	}
}

// AddSymptom appends symptom evidence.
func (d *Diagnosis) AddSymptom(id string, choice Presence, opts ...EvidenceOption) {
	d.Symptoms = append(d.Symptoms, NewEvidence(id, choice, opts...))
}

// AddLabTest appends lab test evidence.
func (d *Diagnosis) AddLabTest(id string, choice Presence, opts ...EvidenceOption) {
	d.LabTests = append(d.LabTests, NewEvidence(id, choice, opts...))
}

// AddRiskFactor appends risk factor evidence.
func (d *Diagnosis) AddRiskFactor(id string, choice Presence, opts ...EvidenceOption) {
	d.RiskFactors = append(d.RiskFactors, NewEvidence(id, choice, opts...))
}

// AddEvidence routes by id prefix: p_ and rf_ are risk factors, lt_ lab tests, the rest symptoms.
func (d *Diagnosis) AddEvidence(id string, choice Presence, opts ...EvidenceOption) {
	switch {
	case strings.HasPrefix(id, "p_"), strings.HasPrefix(id, "rf_"):
		d.AddRiskFactor(id, choice, opts...)
	case strings.HasPrefix(id, "lt_"):
		d.AddLabTest(id, choice, opts...)
	default:
		d.AddSymptom(id, choice, opts...)
	}
}

// AddEvidenceItems routes already-built evidence entries.
func (d *Diagnosis) AddEvidenceItems(items ...Evidence) {
	for _, ev := range items {
		d.AddEvidence(ev.ID, ev.ChoiceID, func(e *Evidence) {
			e.Source = ev.Source
			e.ObservedAt = ev.ObservedAt
		})
	}
}

// SetPursuedConditions restricts questioning to the given condition ids.
func (d *Diagnosis) SetPursuedConditions(ids []string) {
	d.Pursued = append([]string(nil), ids...)
}

// SetInterviewID binds the session to an interview id.
func (d *Diagnosis) SetInterviewID(id string) { d.InterviewID = id }

// SetExtra sets an extra. Permanent extras survive Update; transient ones are replaced by the server echo.
func (d *Diagnosis) SetExtra(key string, value any, permanent bool) {
	if permanent {
		if d.PermanentExtras == nil {
			d.PermanentExtras = Extras{}
		}
		d.PermanentExtras[key] = value
		return
	}
	if d.Extras == nil {
		d.Extras = Extras{}
	}
	d.Extras[key] = value
}

// Evidence returns symptoms, lab tests and risk factors in that order.
func (d *Diagnosis) Evidence() []Evidence {
	out := make([]Evidence, 0, len(d.Symptoms)+len(d.LabTests)+len(d.RiskFactors))
	out = append(out, d.Symptoms...)
	out = append(out, d.LabTests...)
	return append(out, d.RiskFactors...)
}

// Input builds the request payload for the current state.
func (d *Diagnosis) Input() DiagnosticInput {
	return DiagnosticInput{
		Sex:         d.Sex,
		Age:         d.Age,
		Evidence:    d.Evidence(),
		Extras:      d.PermanentExtras.Merge(d.Extras),
		Pursued:     append([]string(nil), d.Pursued...),
		EvaluatedAt: d.EvaluatedAt,
		InterviewID: d.InterviewID,
	}
}

// Update folds a diagnosis response into the session.
func (d *Diagnosis) Update(resp *DiagnosisResponse) {
	if resp == nil {
		return
	}
	d.Question = resp.Question
	conditions := resp.Conditions
	if conditions == nil {
		conditions = []ConditionResult{}
	}
	d.Conditions = NewIndexedList(conditions)
	d.ShouldStop = resp.ShouldStop
	d.HasEmergencyEvidence = resp.HasEmergencyEvidence
	d.Extras = Extras{}
	for k, v := range resp.Extras {
		d.Extras[k] = v
	}
	if d.InterviewID == "" && resp.InterviewID != "" {
		d.InterviewID = resp.InterviewID
	}
}

// Stopped reports whether the server advised ending the interview.
func (d *Diagnosis) Stopped() bool {
	return d.ShouldStop != nil && *d.ShouldStop
}

// TopConditions returns up to n conditions in server order.
func (d *Diagnosis) TopConditions(n int) []ConditionResult {
	items := d.Conditions.Items()
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return append([]ConditionResult(nil), items...)
}
