package atolc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

func newTask(t *testing.T) *Task {
	t.Helper()
	return New(t.TempDir(), task.NewSequencer(config.Default().Sequences), nil)
}

func startResponse(t *testing.T, ct *Task) uuid.UUID {
	t.Helper()
	id, err := ct.Controller.New(map[string]any{
		"selectSurveyVersion": "CymEng_Eng_GB",
		"researcherId":        "RES01",
		"participantId":       "PART01",
		"confirmConsent":      true,
	})
	require.NoError(t, err)
	return id
}

func ratingsPayload(id uuid.UUID, trial int, language string) map[string]any {
	payload := map[string]any{
		"response_id":   id.String(),
		"languageTrial": float64(trial),
		"languageName":  language,
	}
	order := make([]any, len(traits))
	for i, trait := range traits {
		payload["trait-"+trait] = float64(10 + i*5)
		order[i] = trait
	}
	payload["traitOrder"] = order
	return payload
}

func TestGetTraitsShuffles(t *testing.T) {
	ct := newTask(t)
	ct.Seed(42)

	first := ct.GetTraits()
	assert.ElementsMatch(t, traits, first)

	distinct := false
	for i := 0; i < 10; i++ {
		next := ct.GetTraits()
		assert.ElementsMatch(t, traits, next)
		if fmt.Sprint(next) != fmt.Sprint(first) {
			distinct = true
		}
	}
	assert.True(t, distinct, "repeated calls produce fresh orders")
}

func TestAddRatingsTrialFlow(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	require.NoError(t, ct.AddRatings(ratingsPayload(id, 1, "Welsh")))
	assert.Equal(t, fmt.Sprintf("start.html?instance=%s&trial=2", id), ct.TakeLocation())

	complete, err := ct.IsComplete(id)
	require.NoError(t, err)
	assert.False(t, complete)

	require.NoError(t, ct.AddRatings(ratingsPayload(id, 2, "English")))
	assert.Equal(t, "end.html?instance="+id.String(), ct.TakeLocation())

	path := filepath.Join(ct.DataPath, dataDir, "CymEng_Eng_GB", "PART01_"+id.String()+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.NotContains(t, doc, "rating1")
	ratings, ok := doc["ratings"].([]any)
	require.True(t, ok, "ratings must be stored as one list of per-language blocks")
	require.Len(t, ratings, 2)

	first := ratings[0].(map[string]any)
	assert.Equal(t, "Welsh", first["language"])
	assert.Equal(t, float64(1), first["trial"])
	assert.Equal(t, float64(10), first["logic"])
	assert.Len(t, first["order"], len(traits))

	second := ratings[1].(map[string]any)
	assert.Equal(t, "English", second["language"])
	assert.Equal(t, float64(2), second["trial"])
}

func TestAddRatingsRejectsBadTrial(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	payload := ratingsPayload(id, 3, "Welsh")
	err := ct.AddRatings(payload)
	var ierr *task.InvalidValueError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "languageTrial", ierr.Field)
}

func TestAddRatingsReportsMissingTraits(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	payload := ratingsPayload(id, 1, "Welsh")
	delete(payload, "trait-beauty")
	err := ct.AddRatings(payload)
	var merr *task.MissingKeysError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"trait-beauty"}, merr.Keys)
}

func TestAddRatingsRejectsBadOrder(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	payload := ratingsPayload(id, 1, "Welsh")
	payload["traitOrder"] = []any{"logic", "logic", "beauty"}
	err := ct.AddRatings(payload)
	var ierr *task.InvalidValueError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "traitOrder", ierr.Field)
}
