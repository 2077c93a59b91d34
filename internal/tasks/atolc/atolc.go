// Package atolc implements the AToL-C language attitude task. The participant
// rates two languages on fifteen semantic-differential traits using slider
// scales; the traits are presented in a fresh random order for each trial.
package atolc

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
	Name    = "atolc"
	Version = "0.5.0"
	dataDir = "AToL-C"

	maxTrials = 2
)

var traits = []string{
	"logic", "elegance", "fluency",
	"ambiguity", "appeal", "structure",
	"precision", "harshness", "flow",
	"beauty", "sistem", "pleasure",
	"smoothness", "grace", "angularity",
}

var spec = schema.MustBuild(&schema.Spec{
	Task:      Name,
	ForceCast: true,
	Groups:    []schema.Group{ratingGroup("rating1"), ratingGroup("rating2")},
})

func ratingGroup(name string) schema.Group {
	fields := []schema.Field{
		{Name: "trial", Type: "int", TypeDesc: "trial number",
			Constraint: validator.Range{Lo: 1, Hi: maxTrials}, Required: true},
		{Name: "language", Type: "string", TypeDesc: "language name",
			Constraint: schema.LanguageName, Required: true},
		{Name: "order", Type: "string", TypeDesc: "trait presentation order",
			Constraint: schema.ShortText, Required: true, Multiple: true},
	}
	for _, trait := range traits {
		fields = append(fields, schema.Field{
			Name: trait, Type: "float", TypeDesc: trait + " rating",
			Constraint: validator.Range{Lo: 0, Hi: 100}, Required: true,
		})
	}
	return schema.Group{Name: name, Fields: fields}
}

// Task wraps the shared controller with the AToL-C operations.
type Task struct {
	*task.Controller

	mu  sync.Mutex
	rng *rand.Rand
}

// New assembles the AToL-C task over the embedded localisation bundles.
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
			Assemble:  assembleRatings,
			Sequencer: seq,
			Logger:    log,
		}),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// assembleRatings rewrites the per-trial groups into the single ratings list
// the stored file carries, ordered by trial.
func assembleRatings(data map[string]any) map[string]any {
	ratings := make([]any, 0, maxTrials)
	for i := 1; i <= maxTrials; i++ {
		key := fmt.Sprintf("rating%d", i)
		if section, ok := data[key]; ok {
			ratings = append(ratings, section)
			delete(data, key)
		}
	}
	data["ratings"] = ratings
	return data
}

// Register installs the task and its operations in the operation registry.
func Register(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	t := New(dataPath, seq, log)
	t.Controller = task.Register(t.Controller, map[string]task.Op{
		"get_traits": func(payload map[string]any) (task.Reply, error) {
			return task.Reply{Value: t.GetTraits()}, nil
		},
		"add_ratings": func(payload map[string]any) (task.Reply, error) {
			if err := t.AddRatings(payload); err != nil {
				return task.Reply{}, err
			}
			return task.Reply{Value: true, Location: t.TakeLocation()}, nil
		},
	})
	return t
}

// Seed re-seeds the trait shuffle for reproducible presentation orders.
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

// AddRatings attaches one trial's ratings to the response. The payload carries
// languageTrial (1 or 2), languageName, traitOrder (the presentation order the
// front end used) and one trait-<name> rating per trait. After trial 1 the
// participant is sent back for the second language; after trial 2 the response
// is stored and the participant sent to the end screen.
func (t *Task) AddRatings(payload map[string]any) error {
	id, err := t.ResponseID(payload)
	if err != nil {
		return err
	}
	p, err := t.Get(id)
	if err != nil {
		return err
	}
	t.Log().Info("adding ratings", zap.String("response_id", id.String()))
	if missing := task.FindMissingKeys(payload, []string{"languageTrial", "languageName"}); len(missing) > 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
	}
	if invalid := task.CastInts(payload, []string{"languageTrial"}); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "languageTrial",
			Reason: "expected an integer"}
	}
	trial := payload["languageTrial"].(int)
	if trial < 1 || trial > maxTrials {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "languageTrial",
			Reason: fmt.Sprintf("must be 1 or 2, got %d", trial)}
	}

	ratings := make(map[string]any, len(traits))
	for key, value := range payload {
		if name, ok := strings.CutPrefix(key, "trait-"); ok {
			ratings[name] = value
		}
	}
	if missing := task.FindMissingKeys(ratings, traits); len(missing) > 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: prefixed("trait-", missing)}
	}
	order := task.PayloadStrings(payload, "traitOrder")
	if len(order) == 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: []string{"traitOrder"}}
	}
	if !isPermutation(order, traits) {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "traitOrder",
			Reason: "must list each trait exactly once"}
	}

	group := fmt.Sprintf("rating%d", trial)
	if err := p.Record.Set(group+".trial", trial); err != nil {
		return err
	}
	if err := p.Record.Set(group+".language", payload["languageName"]); err != nil {
		return err
	}
	if err := p.Record.Set(group+".order", order); err != nil {
		return err
	}
	for _, trait := range traits {
		if err := p.Record.Set(group+"."+trait, ratings[trait]); err != nil {
			return err
		}
	}
	t.Touch(id)

	if trial < maxTrials {
		t.SetLocation(fmt.Sprintf("start.html?instance=%s&trial=%d", id, trial+1))
		return nil
	}
	if err := t.Store(id); err != nil {
		return err
	}
	t.SetLocation(fmt.Sprintf("end.html?instance=%s", id))
	return nil
}

func prefixed(prefix string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + k
	}
	return out
}

func isPermutation(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(want))
	for _, w := range want {
		seen[w] = true
	}
	for _, g := range got {
		if !seen[g] {
			return false
		}
		delete(seen, g)
	}
	return len(seen) == 0
}

func bundleFS() fs.FS {
	sub, err := fs.Sub(localisations, "localisations")
	if err != nil {
		panic(err)
	}
	return sub
}
