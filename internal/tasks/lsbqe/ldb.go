package lsbqe

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

var ldbRowFields = []string{
	"name", "source", "source_other", "age", "break_years", "break_months",
	"proficiency_speaking", "proficiency_understanding",
	"proficiency_reading", "proficiency_writing",
	"usage_speaking", "usage_listening", "usage_reading", "usage_writing",
}

// AddLdb ingests the Language and Dialect Background screen. Languages arrive
// as indexed row fields (languages_spoken-<i>-*); acquisition sources are a
// letter set (h: home, s: school, c: community, o: other) where "o" makes a
// non-empty source_other mandatory. Disuse is submitted as years plus months
// and merged into a single month count. Parent blocks are required unless the
// matching not-applicable toggle is set.
func (t *Task) AddLdb(payload map[string]any) error {
	id, err := t.ResponseID(payload)
	if err != nil {
		return err
	}
	p, err := t.Get(id)
	if err != nil {
		return err
	}
	t.Log().Info("adding ldb section", zap.String("response_id", id.String()))

	naFields := []string{"father_not_applicable", "mother_not_applicable"}
	if invalid := task.CastBools(payload, naFields); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(invalid, ", "), Reason: "expected a boolean"}
	}

	var required []string
	var parents []string
	for _, parent := range []string{"father", "mother"} {
		if truthy(payload, parent+"_not_applicable") {
			continue
		}
		parents = append(parents, parent)
		required = append(required,
			parent+"_education_level",
			parent+"_occupation",
			parent+"_first_language",
			parent+"_second_language",
			parent+"_other_languages",
		)
	}
	if missing := task.FindMissingKeys(payload, required); len(missing) > 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
	}

	rows, err := task.CollectRows(payload, "languages_spoken", ldbRowFields)
	if err != nil {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "languages_spoken", Reason: err.Error()}
	}

	langs := newLanguageColumns(len(rows))
	for _, row := range rows {
		if err := langs.addRow(id, row); err != nil {
			return err
		}
	}

	fields := []fieldValue{
		{"ldb.languages_name", langs.name},
		{"ldb.languages_source_home", langs.sourceHome},
		{"ldb.languages_source_school", langs.sourceSchool},
		{"ldb.languages_source_community", langs.sourceCommunity},
		{"ldb.languages_source_other", langs.sourceOther},
		{"ldb.languages_age", langs.age},
		{"ldb.languages_breaks", langs.breaks},
		{"ldb.languages_proficiency_speaking", langs.profSpeaking},
		{"ldb.languages_proficiency_understanding", langs.profUnderstanding},
		{"ldb.languages_usage_speaking", langs.usageSpeaking},
		{"ldb.languages_usage_listening", langs.usageListening},
	}
	optional := []struct {
		path   string
		values []any
	}{
		{"ldb.languages_proficiency_reading", langs.profReading},
		{"ldb.languages_proficiency_writing", langs.profWriting},
		{"ldb.languages_usage_reading", langs.usageReading},
		{"ldb.languages_usage_writing", langs.usageWriting},
	}
	for _, opt := range optional {
		switch len(opt.values) {
		case 0:
		case len(rows):
			fields = append(fields, fieldValue{opt.path, opt.values})
		default:
			return &task.InvalidValueError{Task: Name, ID: id, Field: opt.path,
				Reason: "present for some languages but not all"}
		}
	}

	for _, parent := range parents {
		fields = append(fields,
			fieldValue{"ldb." + parent + "_occupation", payload[parent+"_occupation"]},
			fieldValue{"ldb." + parent + "_first_language", payload[parent+"_first_language"]},
		)
		// Blank optional free-text answers are dropped rather than stored.
		if s := stringValue(payload, parent+"_second_language"); s != "" {
			fields = append(fields, fieldValue{"ldb." + parent + "_second_language", s})
		}
		if s := stringValue(payload, parent+"_other_languages"); s != "" {
			fields = append(fields, fieldValue{"ldb." + parent + "_other_languages", s})
		}
	}

	if err := setFields(p.Record, fields); err != nil {
		return err
	}
	t.Touch(id)
	t.SetLocation("club.html?instance=" + id.String())
	return nil
}

// languageColumns accumulates the per-language row values into the parallel
// lists the record stores.
type languageColumns struct {
	name, sourceHome, sourceSchool, sourceCommunity, sourceOther []any
	age, breaks                                                  []any
	profSpeaking, profUnderstanding, profReading, profWriting    []any
	usageSpeaking, usageListening, usageReading, usageWriting    []any
}

func newLanguageColumns(n int) *languageColumns {
	return &languageColumns{
		name:              make([]any, 0, n),
		sourceHome:        make([]any, 0, n),
		sourceSchool:      make([]any, 0, n),
		sourceCommunity:   make([]any, 0, n),
		sourceOther:       make([]any, 0, n),
		age:               make([]any, 0, n),
		breaks:            make([]any, 0, n),
		profSpeaking:      make([]any, 0, n),
		profUnderstanding: make([]any, 0, n),
		usageSpeaking:     make([]any, 0, n),
		usageListening:    make([]any, 0, n),
	}
}

func (l *languageColumns) addRow(id uuid.UUID, row map[string]any) error {
	required := []string{
		"name", "source", "age", "break_years", "break_months",
		"proficiency_speaking", "proficiency_understanding",
		"usage_speaking", "usage_listening",
	}
	if missing := task.FindMissingKeys(row, required); len(missing) > 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: prefixKeys("languages_spoken-*-", missing)}
	}

	sources, err := sourceLetters(row["source"])
	if err != nil {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: "languages_spoken-*-source", Reason: err.Error()}
	}
	sourceOther := "n/a"
	if sources["o"] {
		sourceOther = stringValue(row, "source_other")
		if sourceOther == "" {
			return &task.InvalidValueError{Task: Name, ID: id,
				Field: "languages_spoken-*-source_other",
				Reason: "required when \"other\" is among the acquisition sources"}
		}
	}

	if invalid := task.CastInts(row, []string{"break_years", "break_months"}); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(prefixKeys("languages_spoken-*-", invalid), ", "),
			Reason: "expected an integer"}
	}
	breaks := row["break_years"].(int)*12 + row["break_months"].(int)

	floatFields := []string{
		"proficiency_speaking", "proficiency_understanding",
		"proficiency_reading", "proficiency_writing",
		"usage_speaking", "usage_listening", "usage_reading", "usage_writing",
	}
	if invalid := task.CastFloats(row, floatFields); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(prefixKeys("languages_spoken-*-", invalid), ", "),
			Reason: "expected a number"}
	}

	l.name = append(l.name, row["name"])
	l.sourceHome = append(l.sourceHome, sources["h"])
	l.sourceSchool = append(l.sourceSchool, sources["s"])
	l.sourceCommunity = append(l.sourceCommunity, sources["c"])
	l.sourceOther = append(l.sourceOther, sourceOther)
	l.age = append(l.age, row["age"])
	l.breaks = append(l.breaks, breaks)
	l.profSpeaking = append(l.profSpeaking, row["proficiency_speaking"])
	l.profUnderstanding = append(l.profUnderstanding, row["proficiency_understanding"])
	l.usageSpeaking = append(l.usageSpeaking, row["usage_speaking"])
	l.usageListening = append(l.usageListening, row["usage_listening"])
	if v, ok := row["proficiency_reading"]; ok {
		l.profReading = append(l.profReading, v)
	}
	if v, ok := row["proficiency_writing"]; ok {
		l.profWriting = append(l.profWriting, v)
	}
	if v, ok := row["usage_reading"]; ok {
		l.usageReading = append(l.usageReading, v)
	}
	if v, ok := row["usage_writing"]; ok {
		l.usageWriting = append(l.usageWriting, v)
	}
	return nil
}

// sourceLetters normalises an acquisition-source selection, submitted as a
// list of letters or a single letter, into a lookup set.
func sourceLetters(value any) (map[string]bool, error) {
	var raw []any
	switch x := value.(type) {
	case []any:
		raw = x
	case string:
		raw = []any{x}
	default:
		return nil, fmt.Errorf("expected a selection of source letters, got %T", value)
	}
	set := make(map[string]bool, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a source letter, got %T", v)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "h", "s", "c", "o":
			set[s] = true
		default:
			return nil, fmt.Errorf("unknown source letter %q", s)
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no acquisition source selected")
	}
	return set, nil
}

func prefixKeys(prefix string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + k
	}
	return out
}
