package conclusion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

func newTask(t *testing.T) *Task {
	t.Helper()
	return New(t.TempDir(), task.NewSequencer(config.Default().Sequences), nil)
}

func TestResponseIsCompleteImmediately(t *testing.T) {
	ct := newTask(t)
	id, err := ct.Controller.New(map[string]any{
		"selectSurveyVersion": "CymEng_Eng_GB",
		"researcherId":        "RES01",
		"participantId":       "PART01",
		"confirmConsent":      true,
	})
	require.NoError(t, err)

	complete, err := ct.IsComplete(id)
	require.NoError(t, err)
	assert.True(t, complete, "no data to collect, so complete from the start")
}

func TestEndRedirectsHome(t *testing.T) {
	ct := newTask(t)
	id, err := ct.Controller.New(map[string]any{
		"selectSurveyVersion": "CymEng_Eng_GB",
		"researcherId":        "RES01",
		"participantId":       "PART01",
		"confirmConsent":      true,
	})
	require.NoError(t, err)

	href, err := ct.End(id)
	require.NoError(t, err)
	assert.Equal(t, "/app/index.html", href)
	assert.False(t, ct.ResponseExists(id))
}

func TestRegisteredStoreIsNoOp(t *testing.T) {
	ct := Register(t.TempDir(), task.NewSequencer(config.Default().Sequences), nil)
	id, err := ct.Controller.New(map[string]any{
		"selectSurveyVersion": "CymEng_Eng_GB",
		"researcherId":        "RES01",
		"participantId":       "PART01",
		"confirmConsent":      true,
	})
	require.NoError(t, err)

	op, ok := task.Resolve("conclusion_store")
	require.True(t, ok)
	reply, err := op(map[string]any{"response_id": id.String()})
	require.NoError(t, err)
	assert.Equal(t, true, reply.Value)

	entries, err := os.ReadDir(filepath.Join(ct.DataPath))
	if err == nil {
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), Name), "nothing may be written to disk")
		}
	}

	_, err = op(map[string]any{"response_id": "123e4567-e89b-12d3-a456-426614174000"})
	var nferr *task.ResponseNotFoundError
	assert.ErrorAs(t, err, &nferr)
}
