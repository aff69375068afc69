package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/domain"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// Event kinds.
const (
	KindDiagnosis = "diagnosis"
	KindTriage    = "triage"
)

// topConditionCount bounds how many ranked conditions an event carries.
const topConditionCount = 3

// Event represents an interview turn published downstream.
type Event struct {
	InterviewID string                   `json:"interview_id"`
	Alias       string                   `json:"alias,omitempty"`
	APIVersion  medapi.APIVersion        `json:"api_version"`
	Kind        string                   `json:"kind"`
	Turn        int                      `json:"turn"`
	Question    *medapi.Question         `json:"question,omitempty"`
	Conditions  []medapi.ConditionResult `json:"conditions,omitempty"`
	ShouldStop  bool                     `json:"should_stop"`
	TriageLevel string                   `json:"triage_level,omitempty"`
	EmittedAt   time.Time                `json:"emitted_at"`
}

// NewDiagnosisEvent snapshots the latest diagnosis turn of a session.
func NewDiagnosisEvent(s *domain.Session) Event {
	evt := baseEvent(s, KindDiagnosis)
	if s != nil && s.Diagnosis != nil {
		evt.Question = s.Diagnosis.Question
		evt.Conditions = s.Diagnosis.TopConditions(topConditionCount)
		evt.ShouldStop = s.Diagnosis.Stopped()
	}
	return evt
}

// NewTriageEvent records a triage result for a session.
func NewTriageEvent(s *domain.Session, triage *medapi.TriageResult) Event {
	evt := baseEvent(s, KindTriage)
	if triage != nil {
		evt.TriageLevel = triage.TriageLevel
	}
	return evt
}

func baseEvent(s *domain.Session, kind string) Event {
	evt := Event{Kind: kind, EmittedAt: time.Now().UTC()}
	if s != nil {
		evt.InterviewID = s.ID
		evt.Alias = s.Alias
		evt.APIVersion = s.APIVersion
		evt.Turn = s.Turns
	}
	return evt
}
