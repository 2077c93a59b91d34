package task

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
)

func sequencerMeta() Meta {
	return Meta{
		TaskLocalisation: "SgaEng_Eng_GB.school",
		ResearcherID:     "RES01",
		ResearchLocation: "Bangor",
		ParticipantID:    "PART01",
		ConsentObtained:  true,
	}
}

func TestNextPropagatesIdentity(t *testing.T) {
	s := NewSequencer(config.Default().Sequences)
	href := s.Next("consent", sequencerMeta())
	require.True(t, strings.HasPrefix(href, "/app/lsbqe/index.html?"))

	u, err := url.Parse(href)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "SgaEng_Eng_GB", q.Get("selectSurveyVersion"), "suffix is stripped")
	assert.Equal(t, "RES01", q.Get("researcherId"))
	assert.Equal(t, "Bangor", q.Get("researchLocation"))
	assert.Equal(t, "PART01", q.Get("participantId"))
	assert.Equal(t, "1", q.Get("confirmConsent"))
	assert.Equal(t, "true", q.Get("surveyDataForm.submit"))
}

func TestNextWithoutConsent(t *testing.T) {
	s := NewSequencer(config.Default().Sequences)
	meta := sequencerMeta()
	meta.ConsentObtained = false
	href := s.Next("lsbqe", meta)
	u, err := url.Parse(href)
	require.NoError(t, err)
	assert.Equal(t, "0", u.Query().Get("confirmConsent"))
	assert.True(t, strings.HasPrefix(href, "/app/atolc/index.html?"))
}

func TestNextWithoutMappingGoesHome(t *testing.T) {
	s := NewSequencer(config.Default().Sequences)
	assert.Equal(t, "/app/index.html", s.Next("memorytask", sequencerMeta()))
	assert.Equal(t, "/app/index.html", s.Next("nonesuch", sequencerMeta()))
}

func TestNextHonoursConfiguredSequence(t *testing.T) {
	seq := config.Default().Sequences
	seq.Consent = "memorytask"
	s := NewSequencer(seq)
	href := s.Next("consent", sequencerMeta())
	assert.True(t, strings.HasPrefix(href, "/app/memorytask/index.html?"))
}
