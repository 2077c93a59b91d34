// Package agt implements the audio guise task. The participant hears a fixed
// practice stimulus, four fillers and eight guise recordings (four speakers in
// each of two language varieties) and rates every stimulus on eighteen
// personality traits. The presentation order is pseudo-randomised on a fixed
// grid so that speakers stay equidistant and the varieties alternate.
package agt

import (
	"embed"
	"fmt"
	"io/fs"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

//go:embed localisations
var localisations embed.FS

const (
	Name    = "agt"
	Version = "0.5.0"
	dataDir = "AGT"
)

var traits = []string{
	"amusing", "open-minded", "attractive", "trustworthy", "ignorant",
	"polite", "ambitious", "international", "cool", "intelligent",
	"influential", "likeable", "educated", "friendly", "honest",
	"competent", "natural", "pretentious",
}

// trials lists every stimulus a complete response must rate: the practice
// trial, four fillers and each of four speakers in each of two varieties.
var trials = []string{
	"practice",
	"f1", "f2", "f3", "f4",
	"s1_maj", "s1_rml",
	"s2_maj", "s2_rml",
	"s3_maj", "s3_rml",
	"s4_maj", "s4_rml",
}

var spec = buildSpec()

func buildSpec() *schema.Spec {
	groups := make([]schema.Group, 0, len(trials))
	for _, trial := range trials {
		fields := make([]schema.Field, 0, len(traits))
		for _, trait := range traits {
			fields = append(fields, schema.Field{
				Name: trait, Type: "float", TypeDesc: trait + " rating",
				Constraint: validator.Range{Lo: 0, Hi: 100}, Required: true,
			})
		}
		groups = append(groups, schema.Group{Name: trial, Fields: fields})
	}
	return schema.MustBuild(&schema.Spec{Task: Name, ForceCast: true, Groups: groups})
}

// Task wraps the shared controller with the AGT operations.
type Task struct {
	*task.Controller

	mu  sync.Mutex
	rng *rand.Rand
}

// New assembles the AGT task over the embedded localisation bundles.
func New(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	return &Task{
		Controller: task.NewController(task.Options{
			Name:      Name,
			Version:   Version,
			Namespace: Name,
			Spec:      spec,
			Locales:   locale.New(Name, bundleFS(), log),
			DataPath:  dataPath,
			DataDir:   dataDir,
			Sequencer: seq,
			Logger:    log,
		}),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register installs the task and its operations in the operation registry.
func Register(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	t := New(dataPath, seq, log)
	t.Controller = task.Register(t.Controller, map[string]task.Op{
		"get_traits": func(payload map[string]any) (task.Reply, error) {
			return task.Reply{Value: t.GetTraits()}, nil
		},
		"get_trials": func(payload map[string]any) (task.Reply, error) {
			return task.Reply{Value: t.GetTrials()}, nil
		},
		"add_ratings": func(payload map[string]any) (task.Reply, error) {
			complete, err := t.AddRatings(payload)
			if err != nil {
				return task.Reply{}, err
			}
			return task.Reply{Value: complete, Location: t.TakeLocation()}, nil
		},
	})
	return t
}

// Seed re-seeds the stimulus and trait shuffles for reproducible orders.
func (t *Task) Seed(seed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng = rand.New(rand.NewSource(seed))
}

// GetTraits returns the trait list in a fresh random presentation order.
func (t *Task) GetTraits() []string {
	out := append([]string(nil), traits...)
	t.mu.Lock()
	t.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	t.mu.Unlock()
	return out
}

// GetTrials returns a pseudo-randomised presentation order for the twelve
// scored stimuli. The grid is fixed: a filler starts every block of three,
// each speaker is heard once per variety with constant distance between their
// two recordings, and the varieties alternate. Randomised are the filler
// order, the speaker order and which variety comes first.
func (t *Task) GetTrials() []string {
	fillers := []string{"f1", "f2", "f3", "f4"}
	speakers := []string{"s1", "s2", "s3", "s4"}
	languages := []string{"maj", "rml"}

	t.mu.Lock()
	t.rng.Shuffle(len(fillers), func(i, j int) { fillers[i], fillers[j] = fillers[j], fillers[i] })
	t.rng.Shuffle(len(speakers), func(i, j int) { speakers[i], speakers[j] = speakers[j], speakers[i] })
	t.rng.Shuffle(len(languages), func(i, j int) { languages[i], languages[j] = languages[j], languages[i] })
	t.mu.Unlock()

	return []string{
		fillers[0],
		speakers[0] + "_" + languages[0],
		speakers[1] + "_" + languages[1],
		fillers[1],
		speakers[2] + "_" + languages[1],
		speakers[3] + "_" + languages[0],
		fillers[2],
		speakers[0] + "_" + languages[1],
		speakers[1] + "_" + languages[0],
		fillers[3],
		speakers[2] + "_" + languages[0],
		speakers[3] + "_" + languages[1],
	}
}

// AddRatings attaches the trait ratings for one stimulus to the response and
// reports whether the response is now complete. Once every stimulus has been
// rated the response is stored and the participant sent to the end screen.
func (t *Task) AddRatings(payload map[string]any) (bool, error) {
	id, err := t.ResponseID(payload)
	if err != nil {
		return false, err
	}
	p, err := t.Get(id)
	if err != nil {
		return false, err
	}
	t.Log().Info("adding ratings", zap.String("response_id", id.String()))
	raw, ok := payload["trial"]
	if !ok {
		return false, &task.MissingKeysError{Task: Name, ID: id, Keys: []string{"trial"}}
	}
	trial, ok := raw.(string)
	if !ok {
		return false, &task.InvalidValueError{Task: Name, ID: id, Field: "trial",
			Reason: fmt.Sprintf("expected a stimulus name, got %T", raw)}
	}
	trial = strings.ToLower(strings.TrimSpace(trial))
	if !knownTrial(trial) {
		return false, &task.InvalidValueError{Task: Name, ID: id, Field: "trial",
			Reason: fmt.Sprintf("unknown stimulus %q", trial)}
	}

	keys := make([]string, len(traits))
	for i, trait := range traits {
		keys[i] = "trait-" + trait
	}
	if missing := task.FindMissingKeys(payload, keys); len(missing) > 0 {
		return false, &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
	}
	for _, trait := range traits {
		if err := p.Record.Set(trial+"."+trait, payload["trait-"+trait]); err != nil {
			return false, err
		}
	}
	t.Touch(id)

	complete, err := t.IsComplete(id)
	if err != nil {
		return false, err
	}
	if !complete {
		return false, nil
	}
	if err := t.Store(id); err != nil {
		return false, err
	}
	t.SetLocation(fmt.Sprintf("end.html?instance=%s", id))
	return true, nil
}

func knownTrial(name string) bool {
	for _, trial := range trials {
		if trial == name {
			return true
		}
	}
	return false
}

func bundleFS() fs.FS {
	sub, err := fs.Sub(localisations, "localisations")
	if err != nil {
		panic(err)
	}
	return sub
}
