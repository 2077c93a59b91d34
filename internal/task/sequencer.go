package task

import (
	"net/url"
	"strings"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
)

// Sequencer resolves where a participant goes after completing a task, based
// on the configured task sequences.
type Sequencer struct {
	sequences config.Sequences
}

// NewSequencer returns a Sequencer over the configured sequences.
func NewSequencer(s config.Sequences) *Sequencer {
	return &Sequencer{sequences: s}
}

// Next returns the redirect URL for a participant who has completed taskName.
// A configured follow-up task receives the response identity as query
// parameters so that its start form is pre-filled and auto-submitted; with no
// follow-up configured the participant returns to the app start screen.
func (s *Sequencer) Next(taskName string, meta Meta) string {
	next, ok := s.sequences.Next(taskName)
	if !ok || next == "" {
		return "/app/index.html"
	}
	query := url.Values{}
	query.Set("selectSurveyVersion", baseLocalisation(meta.TaskLocalisation))
	query.Set("researcherId", meta.ResearcherID)
	query.Set("researchLocation", meta.ResearchLocation)
	query.Set("participantId", meta.ParticipantID)
	if meta.ConsentObtained {
		query.Set("confirmConsent", "1")
	} else {
		query.Set("confirmConsent", "0")
	}
	query.Set("surveyDataForm.submit", "true")
	return "/app/" + next + "/index.html?" + query.Encode()
}

// baseLocalisation strips the dot-separated suffix a consent localisation may
// carry, so that follow-up tasks receive a plain localisation label.
func baseLocalisation(label string) string {
	if i := strings.IndexByte(label, '.'); i >= 0 {
		return label[:i]
	}
	return label
}
