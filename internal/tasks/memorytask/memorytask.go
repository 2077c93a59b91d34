// Package memorytask implements the memory game task. Each round played
// yields a score and the time taken; the rounds are submitted together when
// the participant finishes playing.
package memorytask

import (
	"embed"
	"fmt"
	"io/fs"
	"math"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

//go:embed localisations
var localisations embed.FS

const (
	Name    = "memorytask"
	Version = "0.5.0"
	dataDir = "MemoryTask"
)

var spec = schema.MustBuild(&schema.Spec{
	Task:      Name,
	ForceCast: true,
	Groups: []schema.Group{{
		Name: "scores",
		Fields: []schema.Field{
			{Name: "score", Type: "int", TypeDesc: "round score",
				Constraint: validator.Range{Lo: 0, Hi: math.MaxInt32},
				Required:   true, Multiple: true},
			{Name: "time", Type: "int", TypeDesc: "round duration in seconds",
				Constraint: validator.Range{Lo: 0, Hi: math.MaxInt32},
				Required:   true, Multiple: true},
		},
	}},
	Rules: []schema.Rule{
		schema.EqualLen{Fields: []string{"scores.score", "scores.time"}},
	},
})

// Task wraps the shared controller with the score-ingest operation.
type Task struct {
	*task.Controller
}

// New assembles the memory task over the embedded localisation bundles.
func New(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	return &Task{Controller: task.NewController(task.Options{
		Name:      Name,
		Version:   Version,
		Namespace: Name,
		Spec:      spec,
		Locales:   locale.New(Name, bundleFS(), log),
		DataPath:  dataPath,
		DataDir:   dataDir,
		Assemble:  assembleScores,
		Sequencer: seq,
		Logger:    log,
	})}
}

// assembleScores rewrites the validated parallel score and time lists into
// the list of per-round records the stored file carries.
func assembleScores(data map[string]any) map[string]any {
	section, ok := data["scores"].(map[string]any)
	if !ok {
		return data
	}
	scores, _ := section["score"].([]any)
	times, _ := section["time"].([]any)
	rounds := make([]any, 0, len(scores))
	for i := range scores {
		if i >= len(times) {
			break
		}
		rounds = append(rounds, map[string]any{"score": scores[i], "time": times[i]})
	}
	data["scores"] = rounds
	return data
}

// Register installs the task and its operations in the operation registry.
func Register(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	t := New(dataPath, seq, log)
	t.Controller = task.Register(t.Controller, map[string]task.Op{
		"add_scores": func(payload map[string]any) (task.Reply, error) {
			if err := t.AddScores(payload); err != nil {
				return task.Reply{}, err
			}
			return task.Reply{Value: true, Location: t.TakeLocation()}, nil
		},
	})
	return t
}

// AddScores attaches the played rounds to the response. Submitting scores
// completes the task, so the response is stored and the participant sent to
// the end screen in the same step.
func (t *Task) AddScores(payload map[string]any) error {
	id, err := t.ResponseID(payload)
	if err != nil {
		return err
	}
	p, err := t.Get(id)
	if err != nil {
		return err
	}
	t.Log().Info("adding scores", zap.String("response_id", id.String()))
	rows, ok := payload["scores"].([]any)
	if !ok {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "scores",
			Reason: "expected a list of score records"}
	}
	scores := make([]any, 0, len(rows))
	times := make([]any, 0, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			return &task.InvalidValueError{Task: Name, ID: id, Field: "scores",
				Reason: fmt.Sprintf("expected a score record, got %T", raw)}
		}
		if missing := task.FindMissingKeys(row, []string{"score", "time"}); len(missing) > 0 {
			return &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
		}
		scores = append(scores, row["score"])
		times = append(times, row["time"])
	}
	if err := p.Record.Set("scores.score", scores); err != nil {
		return err
	}
	if err := p.Record.Set("scores.time", times); err != nil {
		return err
	}
	t.Touch(id)
	if err := t.Store(id); err != nil {
		return err
	}
	t.SetLocation(fmt.Sprintf("end.html?instance=%s", id))
	return nil
}

func bundleFS() fs.FS {
	sub, err := fs.Sub(localisations, "localisations")
	if err != nil {
		panic(err)
	}
	return sub
}
