package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

func demoSpec(t *testing.T) *Spec {
	t.Helper()
	s, err := (&Spec{
		Task:       "demo",
		ForceCast:  true,
		IgnoreCase: true,
		Groups: []Group{
			{
				Name: "person",
				Fields: []Field{
					{Name: "name", Type: "string", Constraint: ShortID, Required: true},
					{Name: "age", Type: "int", Constraint: validator.Range{Lo: 0, Hi: 120}, Required: true},
					{Name: "sex", Type: "enum", Constraint: validator.Enum{"f": "f", "m": "m", "o": "o"}, Required: true},
					{Name: "sex_other", Type: "string", Constraint: ShortText},
				},
			},
			{
				Name: "residencies",
				Fields: []Field{
					{Name: "location", Type: "string", Constraint: LocationName, Required: true, Multiple: true},
					{Name: "start", Type: "string", Constraint: ISOYearMonth, Required: true, Multiple: true},
					{Name: "end", Type: "string", Constraint: ISOYearMonth, Required: true, Multiple: true},
				},
			},
		},
		Rules: []Rule{
			RequiredIf{Field: "person.sex_other", When: "person.sex", Equals: "o"},
			EqualLen{Fields: []string{"residencies.location", "residencies.start", "residencies.end"}},
		},
	}).Build()
	require.NoError(t, err)
	return s
}

func TestBuildRejectsBadDeclarations(t *testing.T) {
	_, err := (&Spec{Task: "x", Groups: []Group{{Name: "g", Fields: []Field{
		{Name: "a", Type: "int", Constraint: "not a range"},
	}}}}).Build()
	assert.Error(t, err)

	_, err = (&Spec{Task: "x", Groups: []Group{{Name: "g", Fields: []Field{
		{Name: "a", Type: "string", Constraint: ShortText},
		{Name: "a", Type: "string", Constraint: ShortText},
	}}}}).Build()
	assert.Error(t, err)

	_, err = (&Spec{Task: "x",
		Groups: []Group{{Name: "g", Fields: []Field{{Name: "a", Type: "string", Constraint: ShortText}}}},
		Rules:  []Rule{RequiredIf{Field: "g.missing", When: "g.a", Equals: "x"}},
	}).Build()
	assert.Error(t, err)
}

func TestSetValidatesAndCasts(t *testing.T) {
	r := demoSpec(t).NewRecord()

	assert.NoError(t, r.Set("person.age", "42"))
	v, ok := r.Get("person.age")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	err := r.Set("person.age", 200)
	assert.Error(t, err)
	assert.IsType(t, &validator.ValidationError{}, err)
	v, _ = r.Get("person.age")
	assert.Equal(t, 42, v, "failed set must leave the record unchanged")

	assert.Error(t, r.Set("person.nonesuch", 1))
}

func TestSetMultiple(t *testing.T) {
	r := demoSpec(t).NewRecord()
	assert.NoError(t, r.Set("residencies.location", []any{"Bangor", "Aberystwyth"}))
	err := r.Set("residencies.start", []any{"2001-09", "not a date"})
	assert.Error(t, err)
	_, ok := r.Get("residencies.start")
	assert.False(t, ok)
}

func TestMissingAndComplete(t *testing.T) {
	r := demoSpec(t).NewRecord()
	assert.False(t, r.IsComplete())
	assert.Contains(t, r.Missing(true), "person.name")

	require.NoError(t, r.Set("person.name", "Jane01"))
	require.NoError(t, r.Set("person.age", 30))
	require.NoError(t, r.Set("person.sex", "f"))
	require.NoError(t, r.Set("residencies.location", []any{"Bangor"}))
	require.NoError(t, r.Set("residencies.start", []any{"2001-09"}))
	require.NoError(t, r.Set("residencies.end", []any{"2004-06"}))
	assert.True(t, r.IsComplete())

	// full listing still reports the optional absent field
	assert.Contains(t, r.Missing(false), "person.sex_other")
}

func TestRequiredIfRule(t *testing.T) {
	r := demoSpec(t).NewRecord()
	require.NoError(t, r.Set("person.name", "Jane01"))
	require.NoError(t, r.Set("person.age", 30))
	require.NoError(t, r.Set("person.sex", "o"))
	require.NoError(t, r.Set("residencies.location", []any{"Bangor"}))
	require.NoError(t, r.Set("residencies.start", []any{"2001-09"}))
	require.NoError(t, r.Set("residencies.end", []any{"2004-06"}))

	assert.False(t, r.IsComplete())
	assert.Contains(t, r.Missing(true), "person.sex_other")

	require.NoError(t, r.Set("person.sex_other", "nonbinary"))
	assert.True(t, r.IsComplete())
}

func TestEqualLenRule(t *testing.T) {
	r := demoSpec(t).NewRecord()
	require.NoError(t, r.Set("person.name", "Jane01"))
	require.NoError(t, r.Set("person.age", 30))
	require.NoError(t, r.Set("person.sex", "f"))
	require.NoError(t, r.Set("residencies.location", []any{"Bangor", "Cardiff"}))
	require.NoError(t, r.Set("residencies.start", []any{"2001-09"}))
	require.NoError(t, r.Set("residencies.end", []any{"2004-06"}))

	assert.False(t, r.IsComplete())
	assert.Contains(t, r.Missing(true), "residencies.location")
}

func TestRequiredEmptyListIsMissing(t *testing.T) {
	r := demoSpec(t).NewRecord()
	require.NoError(t, r.Set("residencies.location", []any{}))
	assert.Contains(t, r.Missing(true), "residencies.location")
}

func TestDataNesting(t *testing.T) {
	r := demoSpec(t).NewRecord()
	require.NoError(t, r.Set("person.name", "Jane01"))

	data := r.Data(false)
	person, ok := data["person"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane01", person["name"])
	_, hasAge := person["age"]
	assert.False(t, hasAge)

	full := r.Data(true)
	person = full["person"].(map[string]any)
	assert.Contains(t, person, "age")
	assert.Nil(t, person["age"])
}

func TestPatternSanity(t *testing.T) {
	v := validator.New(false, false)
	assert.True(t, v.CheckString("label", TaskLocalisationLabel, "SgaEng_Eng_GB").Success)
	assert.True(t, v.CheckString("label", TaskLocalisationLabel, "SgaEng_Eng_GB.school").Success)
	assert.False(t, v.CheckString("label", TaskLocalisationLabel, "lsbsga_eng_gb").Success)
	assert.True(t, v.CheckString("locale", SoftwareLocaleString, "en_GB").Success)
	assert.False(t, v.CheckString("locale", SoftwareLocaleString, "en-GB").Success)
	assert.True(t, v.CheckString("uuid", UUID, "123e4567-e89b-12d3-a456-426614174000").Success)
	assert.True(t, v.CheckString("uuid", UUID, "urn:uuid:123e4567-e89b-12d3-a456-426614174000").Success)
	assert.True(t, v.CheckString("uuid", UUID, "{123e4567-e89b-12d3-a456-426652340000}").Success)
	assert.True(t, v.CheckString("date", ISOYearMonth, "2023-05").Success)
	assert.False(t, v.CheckString("date", ISOYearMonth, "2023-13").Success)
}
