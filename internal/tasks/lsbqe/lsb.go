package lsbqe

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

// AddLsb ingests the Language and Social Background screen. Residencies
// arrive as indexed row fields (residencies-<i>-name/from/to) with month
// precision; rows left blank are dropped and the month dates completed to the
// first of the month. Conditional fields (sex_other, hearing_aid, vision_aid,
// vision_fully_corrected) are required or stripped depending on the answers
// they depend on.
func (t *Task) AddLsb(payload map[string]any) error {
	id, err := t.ResponseID(payload)
	if err != nil {
		return err
	}
	p, err := t.Get(id)
	if err != nil {
		return err
	}
	t.Log().Info("adding lsb section", zap.String("response_id", id.String()))

	boolFields := []string{
		"hearing_impairment", "hearing_aid",
		"vision_impairment", "vision_aid", "vision_fully_corrected",
	}
	if invalid := task.CastBools(payload, boolFields); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(invalid, ", "), Reason: "expected a boolean"}
	}

	lowerField(payload, "sex")
	lowerField(payload, "handedness")

	required := []string{
		"sex", "occupation", "handedness", "date_of_birth",
		"hearing_impairment", "vision_impairment", "place_of_birth", "education_level",
	}
	if payload["sex"] == "o" {
		required = append(required, "sex_other")
	}
	if truthy(payload, "hearing_impairment") {
		required = append(required, "hearing_aid")
	}
	if truthy(payload, "vision_impairment") {
		required = append(required, "vision_aid")
	}
	if truthy(payload, "vision_aid") {
		required = append(required, "vision_fully_corrected")
	}
	if missing := task.FindMissingKeys(payload, required); len(missing) > 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
	}

	rows, err := task.CollectRows(payload, "residencies", []string{"name", "from", "to"})
	if err != nil {
		return &task.InvalidValueError{Task: Name, ID: id, Field: "residencies", Reason: err.Error()}
	}
	locations := make([]any, 0, len(rows))
	starts := make([]any, 0, len(rows))
	ends := make([]any, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, row["name"])
		starts = append(starts, monthToDay(row["from"]))
		ends = append(ends, monthToDay(row["to"]))
	}

	// Strip dependent fields that must stay blank given the answers above.
	if payload["sex"] != "o" {
		delete(payload, "sex_other")
	}
	if stringValue(payload, "sex_other") == "" {
		delete(payload, "sex_other")
	}
	if !truthy(payload, "hearing_impairment") {
		delete(payload, "hearing_aid")
	}
	if !truthy(payload, "vision_impairment") {
		delete(payload, "vision_aid")
		delete(payload, "vision_fully_corrected")
	}
	if !truthy(payload, "vision_aid") {
		delete(payload, "vision_fully_corrected")
	}

	fields := []fieldValue{
		{"lsb.sex", payload["sex"]},
		{"lsb.occupation", payload["occupation"]},
		{"lsb.handedness", payload["handedness"]},
		{"lsb.date_of_birth", payload["date_of_birth"]},
		{"lsb.hearing_impairment", payload["hearing_impairment"]},
		{"lsb.vision_impairment", payload["vision_impairment"]},
		{"lsb.place_of_birth", payload["place_of_birth"]},
		{"lsb.education_level", payload["education_level"]},
		{"lsb.residencies_location", locations},
		{"lsb.residencies_start", starts},
		{"lsb.residencies_end", ends},
	}
	for _, key := range []string{"sex_other", "hearing_aid", "vision_aid", "vision_fully_corrected"} {
		if v, ok := payload[key]; ok {
			fields = append(fields, fieldValue{"lsb." + key, v})
		}
	}
	if err := setFields(p.Record, fields); err != nil {
		return err
	}
	t.Touch(id)
	t.SetLocation("ldb.html?instance=" + id.String())
	return nil
}

// monthToDay completes a YYYY-MM form value to YYYY-MM-DD on the first of
// the month; values already carrying a day pass through unchanged.
func monthToDay(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	s = strings.TrimSpace(s)
	if strings.Count(s, "-") == 1 {
		return s + "-01"
	}
	return s
}

func lowerField(payload map[string]any, key string) {
	if s, ok := payload[key].(string); ok {
		payload[key] = strings.ToLower(strings.TrimSpace(s))
	}
}

func truthy(payload map[string]any, key string) bool {
	b, ok := payload[key].(bool)
	return ok && b
}
