// Package lsbqe implements the Language and Social Background Questionnaire
// (bilingual edition). The questionnaire is filled in over four screens:
// LSB (social background), LDB (language and dialect background), CLUB
// (community language use behaviour) and a closing screen with an optional
// participant note. Each screen is ingested by its own operation and the
// response is stored once the note screen is submitted.
package lsbqe

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

//go:embed localisations
var localisations embed.FS

const (
	Name    = "lsbqe"
	Version = "0.5.0"
	dataDir = "LSBQe"
)

var spec = schema.MustBuild(&schema.Spec{
	Task:      Name,
	ForceCast: true,
	Groups:    []schema.Group{lsbGroup(), ldbGroup(), clubGroup(), noteGroup()},
	Rules: []schema.Rule{
		schema.RequiredIf{Field: "lsb.sex_other", When: "lsb.sex", Equals: "o"},
		schema.RequiredIf{Field: "lsb.hearing_aid", When: "lsb.hearing_impairment", Equals: true},
		schema.RequiredIf{Field: "lsb.vision_aid", When: "lsb.vision_impairment", Equals: true},
		schema.RequiredIf{Field: "lsb.vision_fully_corrected", When: "lsb.vision_aid", Equals: true},
		schema.EqualLen{Fields: []string{
			"lsb.residencies_location", "lsb.residencies_start", "lsb.residencies_end",
		}},
		schema.EqualLen{Fields: []string{
			"ldb.languages_name",
			"ldb.languages_source_home", "ldb.languages_source_school",
			"ldb.languages_source_community", "ldb.languages_source_other",
			"ldb.languages_age", "ldb.languages_breaks",
			"ldb.languages_proficiency_speaking", "ldb.languages_proficiency_understanding",
			"ldb.languages_usage_speaking", "ldb.languages_usage_listening",
		}},
	},
})

func lsbGroup() schema.Group {
	return schema.Group{Name: "lsb", Fields: []schema.Field{
		{Name: "sex", Type: "string", TypeDesc: "sex", Constraint: `[mfo]`, Required: true},
		{Name: "sex_other", Type: "string", TypeDesc: "sex description", Constraint: schema.ShortText},
		{Name: "occupation", Type: "string", TypeDesc: "occupation", Constraint: schema.ShortText, Required: true},
		{Name: "handedness", Type: "string", TypeDesc: "handedness", Constraint: `[rl]`, Required: true},
		{Name: "date_of_birth", Type: "string", TypeDesc: "date of birth", Constraint: schema.ISOYearMonthDay, Required: true},
		{Name: "hearing_impairment", Type: "bool", TypeDesc: "hearing impairment", Required: true},
		{Name: "hearing_aid", Type: "bool", TypeDesc: "hearing aid use"},
		{Name: "vision_impairment", Type: "bool", TypeDesc: "vision impairment", Required: true},
		{Name: "vision_aid", Type: "bool", TypeDesc: "vision aid use"},
		{Name: "vision_fully_corrected", Type: "bool", TypeDesc: "vision fully corrected"},
		{Name: "place_of_birth", Type: "string", TypeDesc: "place of birth", Constraint: schema.LocationName, Required: true},
		{Name: "residencies_location", Type: "string", TypeDesc: "residency location", Constraint: schema.LocationName, Multiple: true},
		{Name: "residencies_start", Type: "string", TypeDesc: "residency start date", Constraint: schema.ISOYearMonthDay, Multiple: true},
		{Name: "residencies_end", Type: "string", TypeDesc: "residency end date", Constraint: schema.ISOYearMonthDay, Multiple: true},
		{Name: "education_level", Type: "int", TypeDesc: "education level", Constraint: validator.Range{Lo: 1, Hi: 5}, Required: true},
	}}
}

func ldbGroup() schema.Group {
	ratio := validator.Range{Lo: 0, Hi: 100}
	fields := []schema.Field{
		{Name: "languages_name", Type: "string", TypeDesc: "language name", Constraint: schema.LanguageName, Required: true, Multiple: true},
		{Name: "languages_source_home", Type: "bool", TypeDesc: "learned at home", Required: true, Multiple: true},
		{Name: "languages_source_school", Type: "bool", TypeDesc: "learned at school", Required: true, Multiple: true},
		{Name: "languages_source_community", Type: "bool", TypeDesc: "learned in the community", Required: true, Multiple: true},
		{Name: "languages_source_other", Type: "string", TypeDesc: "other acquisition source", Constraint: schema.ShortText, Required: true, Multiple: true},
		{Name: "languages_age", Type: "int", TypeDesc: "age of acquisition", Constraint: validator.Range{Lo: 0, Hi: 100}, Required: true, Multiple: true},
		{Name: "languages_breaks", Type: "int", TypeDesc: "months of disuse", Constraint: validator.Range{Lo: 0, Hi: 1200}, Required: true, Multiple: true},
		{Name: "languages_proficiency_speaking", Type: "float", TypeDesc: "speaking proficiency", Constraint: ratio, Required: true, Multiple: true},
		{Name: "languages_proficiency_understanding", Type: "float", TypeDesc: "understanding proficiency", Constraint: ratio, Required: true, Multiple: true},
		{Name: "languages_proficiency_reading", Type: "float", TypeDesc: "reading proficiency", Constraint: ratio, Multiple: true},
		{Name: "languages_proficiency_writing", Type: "float", TypeDesc: "writing proficiency", Constraint: ratio, Multiple: true},
		{Name: "languages_usage_speaking", Type: "float", TypeDesc: "speaking usage", Constraint: ratio, Required: true, Multiple: true},
		{Name: "languages_usage_listening", Type: "float", TypeDesc: "listening usage", Constraint: ratio, Required: true, Multiple: true},
		{Name: "languages_usage_reading", Type: "float", TypeDesc: "reading usage", Constraint: ratio, Multiple: true},
		{Name: "languages_usage_writing", Type: "float", TypeDesc: "writing usage", Constraint: ratio, Multiple: true},
	}
	for _, parent := range []string{"mother", "father"} {
		fields = append(fields,
			schema.Field{Name: parent + "_occupation", Type: "string", TypeDesc: parent + "'s occupation", Constraint: schema.ShortText},
			schema.Field{Name: parent + "_first_language", Type: "string", TypeDesc: parent + "'s first language", Constraint: schema.LanguageName},
			schema.Field{Name: parent + "_second_language", Type: "string", TypeDesc: parent + "'s second language", Constraint: schema.LanguageName},
			schema.Field{Name: parent + "_other_languages", Type: "string", TypeDesc: parent + "'s other languages", Constraint: schema.LongText},
		)
	}
	return schema.Group{Name: "ldb", Fields: fields}
}

func clubGroup() schema.Group {
	ratio := validator.Range{Lo: 0, Hi: 100}
	fields := make([]schema.Field, 0, len(clubAlwaysRequired)+len(clubBaseOptional))
	for _, key := range clubAlwaysRequired {
		fields = append(fields, schema.Field{
			Name: clubFieldName(key), Type: "float", TypeDesc: "language use proportion",
			Constraint: ratio, Required: true,
		})
	}
	for _, key := range clubBaseOptional {
		fields = append(fields, schema.Field{
			Name: clubFieldName(key), Type: "float", TypeDesc: "language use proportion",
			Constraint: ratio,
		})
	}
	for _, key := range clubCodeSwitching {
		fields = append(fields, schema.Field{
			Name: clubFieldName(key), Type: "float", TypeDesc: "code-switching amount",
			Constraint: ratio,
		})
	}
	return schema.Group{Name: "club", Fields: fields}
}

func noteGroup() schema.Group {
	return schema.Group{Name: "note", Fields: []schema.Field{
		{Name: "participant_note", Type: "string", TypeDesc: "participant note", Constraint: schema.LongText},
	}}
}

func clubFieldName(payloadKey string) string {
	return strings.ReplaceAll(payloadKey, "-", "_")
}

// Task wraps the shared controller with the LSBQe section operations.
type Task struct {
	*task.Controller
}

// New assembles the LSBQe task over the embedded localisation bundles.
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
		"add_lsb": sectionOp(t, t.AddLsb),
		"add_ldb": sectionOp(t, t.AddLdb),
		"add_club": sectionOp(t, t.AddClub),
		"add_note": sectionOp(t, t.AddNote),
		"add_note_and_end": func(payload map[string]any) (task.Reply, error) {
			href, err := t.AddNoteAndEnd(payload)
			if err != nil {
				return task.Reply{}, err
			}
			return task.Reply{Value: href, Location: t.TakeLocation()}, nil
		},
	})
	return t
}

func sectionOp(t *Task, ingest func(map[string]any) error) task.Op {
	return func(payload map[string]any) (task.Reply, error) {
		if err := ingest(payload); err != nil {
			return task.Reply{}, err
		}
		return task.Reply{Value: true, Location: t.TakeLocation()}, nil
	}
}

// AddNote attaches the optional participant note to the response. A blank
// note clears any previously attached note. No location hint is set; use
// AddNoteAndEnd to also store the response and move on.
func (t *Task) AddNote(payload map[string]any) error {
	id, err := t.ResponseID(payload)
	if err != nil {
		return err
	}
	p, err := t.Get(id)
	if err != nil {
		return err
	}
	t.Log().Info("adding note", zap.String("response_id", id.String()))
	raw, ok := payload["participant_note"]
	if !ok {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: []string{"participant_note"}}
	}
	note, ok := raw.(string)
	if !ok {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "participant_note",
			Reason: fmt.Sprintf("expected a string, got %T", raw)}
	}
	note = strings.TrimSpace(note)
	if note == "" {
		p.Record.Unset("note.participant_note")
	} else if err := p.Record.Set("note.participant_note", note); err != nil {
		return err
	}
	t.Touch(id)
	return nil
}

// AddNoteAndEnd attaches the optional note, stores the complete response and
// redirects the participant to the next task.
func (t *Task) AddNoteAndEnd(payload map[string]any) (string, error) {
	if err := t.AddNote(payload); err != nil {
		return "", err
	}
	id, err := t.ResponseID(payload)
	if err != nil {
		return "", err
	}
	if err := t.Store(id); err != nil {
		return "", err
	}
	return t.End(id)
}

// setFields stores the listed path/value pairs on the record in order,
// stopping at the first validation failure.
func setFields(rec *schema.Record, fields []fieldValue) error {
	for _, f := range fields {
		if err := rec.Set(f.path, f.value); err != nil {
			return err
		}
	}
	return nil
}

type fieldValue struct {
	path  string
	value any
}

func stringValue(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return strings.TrimSpace(s)
}

func bundleFS() fs.FS {
	sub, err := fs.Sub(localisations, "localisations")
	if err != nil {
		panic(err)
	}
	return sub
}
