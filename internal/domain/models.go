package domain

import (
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// Domain contains the records persisted between CLI invocations.

// Session is one stored diagnosis interview.
type Session struct {
	ID         string            `json:"id"`
	Alias      string            `json:"alias,omitempty"`
	APIVersion medapi.APIVersion `json:"api_version"`
	Turns      int               `json:"turns"`
	Diagnosis  *medapi.Diagnosis `json:"diagnosis"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSession wraps a fresh diagnosis under id.
func NewSession(id, alias string, version medapi.APIVersion, d *medapi.Diagnosis, now time.Time) *Session {
	if d != nil {
		d.SetInterviewID(id)
	}
	return &Session{
		ID:         id,
		Alias:      alias,
		APIVersion: version,
		Diagnosis:  d,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

// Touch records a completed turn.
func (s *Session) Touch(now time.Time) {
	s.Turns++
	s.UpdatedAt = now.UTC()
}
