package locale

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundleFS() fstest.MapFS {
	return fstest.MapFS{
		"SgaEng_Eng_GB.json": {Data: []byte(`{
			"meta": {"versionId": "SgaEng_Eng_GB", "versionName": "Scottish Gaelic – English (United Kingdom)", "versionNumber": "0.3.5"},
			"base": {"appTitle": ["Language and Social Background Questionnaire"]},
			"lsb": {"secTitle": ["Language and Social Background"]}
		}`)},
		"CymEng_Eng_GB.json": {Data: []byte(`{
			"meta": {"versionId": "CymEng_Eng_GB", "versionName": "Welsh – English (United Kingdom)", "versionNumber": "0.3.5"},
			"base": {}
		}`)},
		"_template.json": {Data: []byte(`{"meta": {}}`)},
		"broken.json":    {Data: []byte(`{"meta": {"versionId": "nope"}}`)},
		"notes.txt":      {Data: []byte(`irrelevant`)},
	}
}

func TestListDiscoversValidBundles(t *testing.T) {
	s := New("lsbqe", bundleFS(), nil)
	index, err := s.List(false)
	require.NoError(t, err)
	assert.Len(t, index, 2)
	assert.Equal(t, "Scottish Gaelic – English (United Kingdom)", index["SgaEng_Eng_GB"])
	assert.NotContains(t, index, "_template")
	assert.NotContains(t, index, "nope")
}

func TestListMemoised(t *testing.T) {
	fsys := bundleFS()
	s := New("lsbqe", fsys, nil)
	_, err := s.List(false)
	require.NoError(t, err)

	delete(fsys, "CymEng_Eng_GB.json")
	index, err := s.List(false)
	require.NoError(t, err)
	assert.Len(t, index, 2, "memoised scan must not observe the deletion")

	index, err = s.List(true)
	require.NoError(t, err)
	assert.Len(t, index, 1)
}

func TestLoadWholeAndFiltered(t *testing.T) {
	s := New("lsbqe", bundleFS(), nil)

	bundle, err := s.Load("SgaEng_Eng_GB", nil, false)
	require.NoError(t, err)
	assert.Contains(t, bundle, "meta")
	assert.Contains(t, bundle, "lsb")

	filtered, err := s.Load("SgaEng_Eng_GB", []string{"base", "nonexistent"}, false)
	require.NoError(t, err)
	assert.Contains(t, filtered, "base")
	assert.NotContains(t, filtered, "meta")
	assert.NotContains(t, filtered, "nonexistent")
}

func TestLoadStripsLabelSuffix(t *testing.T) {
	s := New("consent", fstest.MapFS{
		"SgaEng_Eng_GB.json": {Data: []byte(`{
			"meta": {"versionId": "SgaEng_Eng_GB", "versionName": "Gaelic consent", "versionNumber": "1.0"}
		}`)},
	}, nil)
	bundle, err := s.Load("SgaEng_Eng_GB.school", nil, false)
	require.NoError(t, err)
	assert.Contains(t, bundle, "meta")
	assert.True(t, s.Known("SgaEng_Eng_GB.school"))
}

func TestLoadUnknownLabel(t *testing.T) {
	s := New("lsbqe", bundleFS(), nil)
	_, err := s.Load("LsbXxx_Yyy_ZZ", nil, false)
	var rerr *ResourceError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "lsbqe", rerr.Task)
	assert.Equal(t, "LsbXxx_Yyy_ZZ", rerr.Resource)
}

func TestLoadResolvesResponseID(t *testing.T) {
	s := New("lsbqe", bundleFS(), nil)
	s.SetResolver(func(id string) (string, error) {
		assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", id)
		return "SgaEng_Eng_GB", nil
	})
	bundle, err := s.Load("123e4567-e89b-12d3-a456-426614174000", nil, false)
	require.NoError(t, err)
	assert.Contains(t, bundle, "lsb")
}

func TestLoadResponseIDWithoutResolver(t *testing.T) {
	s := New("lsbqe", bundleFS(), nil)
	_, err := s.Load("123e4567-e89b-12d3-a456-426614174000", nil, false)
	var rerr *ResourceError
	require.True(t, errors.As(err, &rerr))
}

func TestLoadRejectsMismatchedMeta(t *testing.T) {
	s := New("lsbqe", fstest.MapFS{
		"SgaEng_Eng_GB.json": {Data: []byte(`{
			"meta": {"versionId": "CymEng_Eng_GB", "versionName": "x", "versionNumber": "1"}
		}`)},
	}, nil)
	_, err := s.Load("SgaEng_Eng_GB", nil, false)
	var rerr *ResourceError
	require.True(t, errors.As(err, &rerr))
}
