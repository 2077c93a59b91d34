// Package locale loads and memoises task localisation bundles. Each task owns
// one Store over an embedded localisations/ directory; bundles are discovered
// and parsed lazily and kept in memory for the life of the process.
package locale

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
)

var uuidPattern = regexp.MustCompile(`\A(?:` + schema.UUID + `)\z`)

// MetaResolver maps a response id to the localisation label recorded on that
// response. The task controller supplies it so that front-end calls can pass
// either a label or an in-flight response id.
type MetaResolver func(responseID string) (label string, err error)

// Store discovers, loads and memoises the localisation bundles of one task.
type Store struct {
	task     string
	fsys     fs.FS
	resolver MetaResolver
	log      *zap.Logger

	mu      sync.Mutex
	index   map[string]string
	bundles map[string]map[string]any
}

// New returns a Store over the given filesystem, typically an embedded
// localisations/ directory.
func New(task string, fsys fs.FS, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{task: task, fsys: fsys, log: log}
}

// SetResolver installs the response-id resolver used by Load.
func (s *Store) SetResolver(r MetaResolver) {
	s.resolver = r
}

// List returns the available localisations as a versionId→versionName map.
// The discovery scan is memoised; forceRediscovery repeats it.
func (s *Store) List(forceRediscovery bool) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil && !forceRediscovery {
		return copyIndex(s.index), nil
	}
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, &ResourceError{Task: s.task, Resource: "localisations", Err: err}
	}
	index := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		bundle, err := s.parse(name)
		if err != nil {
			s.log.Warn("skipping unreadable localisation",
				zap.String("task", s.task), zap.String("file", name), zap.Error(err))
			continue
		}
		meta, err := bundleMeta(bundle)
		if err != nil {
			s.log.Warn("skipping localisation with bad meta",
				zap.String("task", s.task), zap.String("file", name), zap.Error(err))
			continue
		}
		index[meta.versionID] = meta.versionName
	}
	s.index = index
	return copyIndex(index), nil
}

// Known reports whether the label names a discovered localisation. The label
// may carry a dot-separated suffix, which is ignored for the lookup.
func (s *Store) Known(label string) bool {
	index, err := s.List(false)
	if err != nil {
		return false
	}
	_, ok := index[baseLabel(label)]
	return ok
}

// Load returns a localisation bundle, optionally filtered to the named
// top-level sections. labelOrID may be a localisation label or a response id;
// ids are resolved through the installed MetaResolver. Bundles are memoised;
// forceReload re-reads from the filesystem. Unknown section names are
// silently skipped.
func (s *Store) Load(labelOrID string, sections []string, forceReload bool) (map[string]any, error) {
	label := labelOrID
	responseID := ""
	if uuidPattern.MatchString(labelOrID) {
		if s.resolver == nil {
			return nil, &ResourceError{Task: s.task, Resource: labelOrID,
				Err: errors.New("no response resolver installed")}
		}
		resolved, err := s.resolver(labelOrID)
		if err != nil {
			return nil, err
		}
		label = resolved
		responseID = labelOrID
	}

	bundle, err := s.load(baseLabel(label), forceReload)
	if err != nil {
		var rerr *ResourceError
		if errors.As(err, &rerr) {
			rerr.ResponseID = responseID
		}
		return nil, err
	}
	if len(sections) == 0 {
		return bundle, nil
	}
	filtered := make(map[string]any, len(sections))
	for _, section := range sections {
		if v, ok := bundle[section]; ok {
			filtered[section] = v
		}
	}
	return filtered, nil
}

func (s *Store) load(label string, forceReload bool) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundles == nil {
		s.bundles = make(map[string]map[string]any)
	}
	if bundle, ok := s.bundles[label]; ok && !forceReload {
		return bundle, nil
	}
	bundle, err := s.parse(label + ".json")
	if err != nil {
		return nil, &ResourceError{Task: s.task, Resource: label, Err: err}
	}
	meta, err := bundleMeta(bundle)
	if err != nil {
		return nil, &ResourceError{Task: s.task, Resource: label, Err: err}
	}
	if meta.versionID != label {
		return nil, &ResourceError{Task: s.task, Resource: label,
			Err: fmt.Errorf("meta.versionId %q does not match bundle %q", meta.versionID, label)}
	}
	s.bundles[label] = bundle
	return bundle, nil
}

func (s *Store) parse(name string) (map[string]any, error) {
	raw, err := fs.ReadFile(s.fsys, path.Clean(name))
	if err != nil {
		return nil, err
	}
	var bundle map[string]any
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return bundle, nil
}

type meta struct {
	versionID     string
	versionName   string
	versionNumber string
}

var labelPattern = regexp.MustCompile(`\A` + schema.TaskLocalisationLabel + `\z`)

func bundleMeta(bundle map[string]any) (meta, error) {
	section, ok := bundle["meta"].(map[string]any)
	if !ok {
		return meta{}, errors.New("bundle has no meta section")
	}
	m := meta{
		versionID:     asString(section["versionId"]),
		versionName:   asString(section["versionName"]),
		versionNumber: asString(section["versionNumber"]),
	}
	if !labelPattern.MatchString(m.versionID) {
		return meta{}, fmt.Errorf("meta.versionId %q is not a localisation label", m.versionID)
	}
	if m.versionName == "" {
		return meta{}, errors.New("meta.versionName is empty")
	}
	if m.versionNumber == "" {
		return meta{}, errors.New("meta.versionNumber is missing")
	}
	return m, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// baseLabel strips an optional dot-separated suffix from a localisation
// label, e.g. SgaEng_Eng_GB.school → SgaEng_Eng_GB.
func baseLabel(label string) string {
	if i := strings.IndexByte(label, '.'); i >= 0 {
		return label[:i]
	}
	return label
}

func copyIndex(index map[string]string) map[string]string {
	out := make(map[string]string, len(index))
	for k, v := range index {
		out[k] = v
	}
	return out
}
