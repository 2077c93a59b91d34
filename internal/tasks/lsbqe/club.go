package lsbqe

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

// clubAlwaysRequired are answered by every participant.
var clubAlwaysRequired = []string{
	"life_stage-infancy_age",
	"life_stage-nursery_age",
	"life_stage-primary_age",
	"life_stage-secondary_age",
}

// clubBaseOptional can each be marked not applicable via a
// <field>-not_applicable toggle.
var clubBaseOptional = []string{
	"people_current-parents",
	"people_current-children",
	"people_current-siblings",
	"people_current-grandparents",
	"people_current-other_relatives",
	"people_current-partner",
	"people_current-friends",
	"people_current-flatmates",
	"people_current-neighbours",
	"people_childhood-parents",
	"people_childhood-siblings",
	"people_childhood-grandparents",
	"people_childhood-other_relatives",
	"people_childhood-friends",
	"people_childhood-neighbours",
	"situation-home",
	"situation-school",
	"situation-work",
	"situation-socialising",
	"situation-religion",
	"situation-leisure",
	"situation-commercial",
	"situation-public",
	"activity-reading",
	"activity-emailing",
	"activity-texting",
	"activity-social_media",
	"activity-notes",
	"activity-traditional_media",
	"activity-internet",
	"activity-praying",
}

// clubCodeSwitching is an optional question block: it only takes part if the
// localisation's form includes it, which is detected from the payload.
var clubCodeSwitching = []string{
	"code_switching-parents_and_family",
	"code_switching-friends",
	"code_switching-social_media",
}

// AddClub ingests the Community Language Use Behaviour screen. Every answer
// is a percentage slider; all but the life-stage block can be marked not
// applicable instead, in which case the field stays unset on the record.
func (t *Task) AddClub(payload map[string]any) error {
	id, err := t.ResponseID(payload)
	if err != nil {
		return err
	}
	p, err := t.Get(id)
	if err != nil {
		return err
	}
	t.Log().Info("adding club section", zap.String("response_id", id.String()))

	maybeNA := append([]string(nil), clubBaseOptional...)
	for _, key := range clubCodeSwitching {
		_, direct := payload[key]
		_, flagged := payload[key+"-not_applicable"]
		if direct || flagged {
			maybeNA = append(maybeNA, clubCodeSwitching...)
			break
		}
	}

	naFlags := make([]string, len(maybeNA))
	for i, key := range maybeNA {
		naFlags[i] = key + "-not_applicable"
	}
	if invalid := task.CastBools(payload, naFlags); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(invalid, ", "), Reason: "expected a boolean"}
	}

	answered := make([]string, 0, len(maybeNA))
	for _, key := range maybeNA {
		if truthy(payload, key+"-not_applicable") {
			continue
		}
		answered = append(answered, key)
	}

	required := append(append([]string(nil), clubAlwaysRequired...), answered...)
	if missing := task.FindMissingKeys(payload, required); len(missing) > 0 {
		return &task.MissingKeysError{Task: Name, ID: id, Keys: missing}
	}
	if invalid := task.CastFloats(payload, required); len(invalid) > 0 {
		return &task.InvalidValueError{Task: Name, ID: id,
			Field: strings.Join(invalid, ", "), Reason: "expected a number"}
	}

	fields := make([]fieldValue, 0, len(required))
	for _, key := range required {
		fields = append(fields, fieldValue{"club." + clubFieldName(key), payload[key]})
	}
	if err := setFields(p.Record, fields); err != nil {
		return err
	}
	t.Touch(id)
	t.SetLocation("end.html?instance=" + id.String())
	return nil
}
