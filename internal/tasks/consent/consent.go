// Package consent implements the informed-consent task shown before any data
// collection. It records the participant's consent and eligibility
// confirmations together with the task group the consent covers.
package consent

import (
	"embed"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

//go:embed localisations
var localisations embed.FS

const (
	Name    = "consent"
	Version = "0.5.0"
	dataDir = "Consent"
)

var spec = schema.MustBuild(&schema.Spec{
	Task:      Name,
	ForceCast: true,
	Groups: []schema.Group{{
		Name: "consent",
		Fields: []schema.Field{
			{Name: "consent_task_group", Type: "string", TypeDesc: "consent task group",
				Constraint: schema.ShortText, Required: true},
			{Name: "informed_consent", Type: "bool", TypeDesc: "informed consent confirmation",
				Constraint: true, Required: true},
			{Name: "eligibility_confirmed", Type: "bool", TypeDesc: "eligibility confirmation",
				Constraint: true, Required: true},
		},
	}},
})

// Task wraps the shared controller with the consent-recording operation.
type Task struct {
	*task.Controller
}

// New assembles the consent task over the embedded localisation bundles.
func New(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	return &Task{Controller: task.NewController(task.Options{
		Name:      Name,
		Version:   Version,
		Namespace: Name,
		Spec:      spec,
		Locales:   locale.New(Name, bundleFS(), log),
		DataPath:  dataPath,
		DataDir:   dataDir,
		Sequencer: seq,
		Logger:    log,
	})}
}

// Register installs the task and its operations in the operation registry.
func Register(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	t := New(dataPath, seq, log)
	t.Controller = task.Register(t.Controller, map[string]task.Op{
		"record_consent": func(payload map[string]any) (task.Reply, error) {
			href, err := t.RecordConsent(payload)
			if err != nil {
				return task.Reply{}, err
			}
			return task.Reply{Value: href, Location: t.TakeLocation()}, nil
		},
	})
	return t
}

// RecordConsent stores the participant's confirmations on the response,
// persists it and hands over to the next task. The consent task group is
// derived from the localisation label's suffix, e.g. "CymEng_Eng_GB.school"
// covers the "school" group.
func (t *Task) RecordConsent(payload map[string]any) (string, error) {
	id, err := t.ResponseID(payload)
	if err != nil {
		return "", err
	}
	p, err := t.Get(id)
	if err != nil {
		return "", err
	}
	t.Log().Info("recording consent", zap.String("response_id", id.String()))
	required := []string{"confirmInformedConsent", "confirmEligibility"}
	if missing := task.FindMissingKeys(payload, required); len(missing) > 0 {
		return "", &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
	}
	if invalid := task.CastBools(payload, required); len(invalid) > 0 {
		return "", &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(invalid, ", "), Reason: "expected a boolean"}
	}

	group := "default"
	if _, suffix, ok := strings.Cut(p.Meta.TaskLocalisation, "."); ok && suffix != "" {
		group = suffix
	}
	if err := p.Record.Set("consent.consent_task_group", group); err != nil {
		return "", err
	}
	if err := p.Record.Set("consent.informed_consent", payload["confirmInformedConsent"]); err != nil {
		return "", err
	}
	if err := p.Record.Set("consent.eligibility_confirmed", payload["confirmEligibility"]); err != nil {
		return "", err
	}
	t.Touch(id)
	if err := t.Store(id); err != nil {
		return "", err
	}
	return t.End(id)
}

func bundleFS() fs.FS {
	sub, err := fs.Sub(localisations, "localisations")
	if err != nil {
		panic(err)
	}
	return sub
}
