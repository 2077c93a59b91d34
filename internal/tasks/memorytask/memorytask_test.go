package memorytask

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
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

func TestAddScoresStoresAndRedirects(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	err := ct.AddScores(map[string]any{
		"response_id": id.String(),
		"scores": []any{
			map[string]any{"score": float64(12), "time": float64(48)},
			map[string]any{"score": "15", "time": "62"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "end.html?instance="+id.String(), ct.TakeLocation())

	path := filepath.Join(ct.DataPath, dataDir, "CymEng_Eng_GB", "PART01_"+id.String()+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	rounds, ok := doc["scores"].([]any)
	require.True(t, ok, "scores must be stored as a list of per-round records")
	require.Len(t, rounds, 2)
	assert.Equal(t, map[string]any{"score": float64(12), "time": float64(48)}, rounds[0])
	assert.Equal(t, map[string]any{"score": float64(15), "time": float64(62)}, rounds[1])
}

func TestAddScoresRejectsNegativeValues(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	err := ct.AddScores(map[string]any{
		"response_id": id.String(),
		"scores":      []any{map[string]any{"score": float64(-3), "time": float64(10)}},
	})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)

	complete, err := ct.IsComplete(id)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestAddScoresRejectsMalformedRecords(t *testing.T) {
	ct := newTask(t)
	id := startResponse(t, ct)

	err := ct.AddScores(map[string]any{"response_id": id.String(), "scores": "nope"})
	var ierr *task.InvalidValueError
	require.ErrorAs(t, err, &ierr)

	err = ct.AddScores(map[string]any{
		"response_id": id.String(),
		"scores":      []any{map[string]any{"score": float64(3)}},
	})
	var merr *task.MissingKeysError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"time"}, merr.Keys)
}
