package agt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
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

func ratingsPayload(id uuid.UUID, trial string) map[string]any {
	payload := map[string]any{"response_id": id.String(), "trial": trial}
	for i, trait := range traits {
		payload["trait-"+trait] = float64(5 * i)
	}
	return payload
}

func TestGetTrialsKeepsGridInvariants(t *testing.T) {
	ct := newTask(t)
	for seed := int64(0); seed < 25; seed++ {
		ct.Seed(seed)
		order := ct.GetTrials()
		require.Len(t, order, 12, "seed %d", seed)

		var fillers, guises []string
		for i, stimulus := range order {
			if i%3 == 0 {
				fillers = append(fillers, stimulus)
			} else {
				guises = append(guises, stimulus)
			}
		}
		assert.ElementsMatch(t, []string{"f1", "f2", "f3", "f4"}, fillers,
			"every block of three opens with a filler (seed %d)", seed)

		require.Len(t, guises, 8)
		perLanguage := map[string]map[string]bool{"maj": {}, "rml": {}}
		var firstHalf []string
		for i, guise := range guises {
			speaker, language, ok := strings.Cut(guise, "_")
			require.True(t, ok, "guise %q (seed %d)", guise, seed)
			assert.False(t, perLanguage[language][speaker],
				"speaker %s heard twice in %s (seed %d)", speaker, language, seed)
			perLanguage[language][speaker] = true
			if i < 4 {
				firstHalf = append(firstHalf, speaker)
			} else {
				assert.Equal(t, firstHalf[i-4], speaker,
					"speaker order repeats with constant distance (seed %d)", seed)
			}
		}
		assert.Len(t, perLanguage["maj"], 4)
		assert.Len(t, perLanguage["rml"], 4)
	}
}

func TestGetTraitsShuffles(t *testing.T) {
	ct := newTask(t)
	ct.Seed(7)
	got := ct.GetTraits()
	assert.ElementsMatch(t, traits, got)
}

func TestAddRatingsCompletesAfterAllTrials(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	for i, trial := range trials {
		complete, err := ct.AddRatings(ratingsPayload(id, trial))
		require.NoError(t, err, trial)
		if i < len(trials)-1 {
			assert.False(t, complete, trial)
			assert.Empty(t, ct.TakeLocation())
		} else {
			assert.True(t, complete)
			assert.Equal(t, "end.html?instance="+id.String(), ct.TakeLocation())
		}
	}

	path := filepath.Join(ct.DataPath, dataDir, "CymEng_Eng_GB", "PART01_"+id.String()+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	practice, ok := doc["practice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), practice["amusing"])
	guise, ok := doc["s3_rml"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), guise["open-minded"])
}

func TestAddRatingsRejectsUnknownTrial(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	_, err := ct.AddRatings(ratingsPayload(id, "s5_maj"))
	var ierr *task.InvalidValueError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "trial", ierr.Field)
}

func TestAddRatingsReportsMissingTraits(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	payload := ratingsPayload(id, "practice")
	delete(payload, "trait-honest")
	_, err := ct.AddRatings(payload)
	var merr *task.MissingKeysError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"trait-honest"}, merr.Keys)
}
