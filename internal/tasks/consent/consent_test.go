package consent

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/agt"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/atolc"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/conclusion"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/lsbqe"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/memorytask"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

func newTask(t *testing.T) *Task {
	t.Helper()
	return New(t.TempDir(), task.NewSequencer(config.Default().Sequences), nil)
}

func startResponse(t *testing.T, ct *Task, localisation string) string {
	t.Helper()
	id, err := ct.Controller.New(map[string]any{
		"selectSurveyVersion": localisation,
		"researcherId":        "RES01",
		"researchLocation":    "Bangor",
		"participantId":       "PART01",
		"confirmConsent":      "yes",
	})
	require.NoError(t, err)
	return id.String()
}

func TestEmbeddedLocalisations(t *testing.T) {
	ct := newTask(t)
	index, err := ct.GetLocalisations(false)
	require.NoError(t, err)
	assert.Contains(t, index, "CymEng_Eng_GB")
	assert.Contains(t, index, "SgaEng_Eng_GB")

	bundle, err := ct.LoadLocalisation("CymEng_Eng_GB", []string{"consent"}, false)
	require.NoError(t, err)
	assert.Contains(t, bundle, "consent")
	assert.NotContains(t, bundle, "intro")
}

func TestRecordConsent(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct, "CymEng_Eng_GB.school")

	href, err := ct.RecordConsent(map[string]any{
		"response_id":            id,
		"confirmInformedConsent": "yes",
		"confirmEligibility":     float64(1),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(href, "/app/lsbqe/index.html?"))
	assert.Contains(t, href, "selectSurveyVersion=CymEng_Eng_GB")
	assert.Equal(t, href, ct.TakeLocation())

	path := filepath.Join(ct.DataPath, dataDir, "CymEng_Eng_GB.school", "PART01_"+id+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	section, ok := doc["consent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "school", section["consent_task_group"])
	assert.Equal(t, true, section["informed_consent"])
	assert.Equal(t, true, section["eligibility_confirmed"])

	assert.False(t, ct.ResponseExists(uuidFrom(t, id)), "response is discarded after end")
}

func TestRecordConsentDefaultsTaskGroup(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct, "SgaEng_Eng_GB")

	_, err := ct.RecordConsent(map[string]any{
		"response_id":            id,
		"confirmInformedConsent": true,
		"confirmEligibility":     true,
	})
	require.NoError(t, err)

	path := filepath.Join(ct.DataPath, dataDir, "SgaEng_Eng_GB", "PART01_"+id+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "default", doc["consent"].(map[string]any)["consent_task_group"])
}

func TestRecordConsentMissingKeys(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct, "CymEng_Eng_GB")

	_, err := ct.RecordConsent(map[string]any{"response_id": id})
	var merr *task.MissingKeysError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"confirmEligibility", "confirmInformedConsent"}, merr.Keys)
}

func TestRecordConsentRejectsBadBool(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct, "CymEng_Eng_GB")

	_, err := ct.RecordConsent(map[string]any{
		"response_id":            id,
		"confirmInformedConsent": "maybe",
		"confirmEligibility":     true,
	})
	var verr *task.InvalidValueError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field, "confirmInformedConsent")
}

func TestRecordConsentRequiresAffirmative(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct, "CymEng_Eng_GB")

	_, err := ct.RecordConsent(map[string]any{
		"response_id":            id,
		"confirmInformedConsent": "no",
		"confirmEligibility":     true,
	})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)

	exists := ct.ResponseExists(uuidFrom(t, id))
	assert.True(t, exists, "declined consent leaves the response in memory")
}

// The localisation label a task propagates through the sequencer must be
// known to the follow-up task, or its Store rejects the participant's data at
// the end of the session.
func TestSequencedLocalisationsKnownToFollowUpTask(t *testing.T) {
	dir := t.TempDir()
	seq := task.NewSequencer(config.Default().Sequences)
	controllers := map[string]*task.Controller{
		Name:            New(dir, seq, nil).Controller,
		lsbqe.Name:      lsbqe.New(dir, seq, nil).Controller,
		atolc.Name:      atolc.New(dir, seq, nil).Controller,
		agt.Name:        agt.New(dir, seq, nil).Controller,
		memorytask.Name: memorytask.New(dir, seq, nil).Controller,
		conclusion.Name: conclusion.New(dir, seq, nil).Controller,
	}

	sequences := config.Default().Sequences
	for name, ctl := range controllers {
		next, ok := sequences.Next(name)
		if !ok || next == "" {
			continue
		}
		labels, err := ctl.GetLocalisations(false)
		require.NoError(t, err)
		require.NotEmpty(t, labels)
		followUp, err := controllers[next].GetLocalisations(false)
		require.NoError(t, err)
		for label := range labels {
			assert.Contains(t, followUp, label,
				"%s hands %q on to %s", name, label, next)
		}
	}
}

// A consent label may carry a task-group suffix; the follow-up task receives
// it with the suffix stripped and must know the bare label.
func TestRecordConsentPropagatesLabelKnownToNextTask(t *testing.T) {
	dir := t.TempDir()
	seq := task.NewSequencer(config.Default().Sequences)
	ct := New(dir, seq, nil)
	follow := lsbqe.New(dir, seq, nil)

	id := startResponse(t, ct, "SgaEng_Eng_GB.general")
	href, err := ct.RecordConsent(map[string]any{
		"response_id":            id,
		"confirmInformedConsent": true,
		"confirmEligibility":     true,
	})
	require.NoError(t, err)

	parsed, err := url.Parse(href)
	require.NoError(t, err)
	label := parsed.Query().Get("selectSurveyVersion")
	require.Equal(t, "SgaEng_Eng_GB", label)

	known, err := follow.GetLocalisations(false)
	require.NoError(t, err)
	assert.Contains(t, known, label)
}

func uuidFrom(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := task.CastUUID(Name, s)
	require.NoError(t, err)
	return id
}
