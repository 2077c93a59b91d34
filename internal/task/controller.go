// Package task implements the controller shared by every research task: it
// creates and tracks in-memory responses keyed by UUID, validates untrusted
// form input against the task's schema, persists completed records and hands
// the participant on to the next task in the configured sequence.
package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

// Meta is the identity block attached to every response at creation. It is
// immutable afterwards except for DateModified, which tracks section updates.
type Meta struct {
	TaskLocalisation   string    `json:"task_localisation"`
	TaskVersionNo      string    `json:"task_version_no"`
	AppVersionNo       string    `json:"app_version_no"`
	AppSystemPlatform  string    `json:"app_system_platform"`
	AppSystemUseragent string    `json:"app_system_useragent"`
	AppDisplayLanguage string    `json:"app_display_language"`
	ResearcherID       string    `json:"researcher_id"`
	ResearchLocation   string    `json:"research_location"`
	ParticipantID      string    `json:"participant_id"`
	ConsentObtained    bool      `json:"consent_obtained"`
	DateCreated        time.Time `json:"date_created"`
	DateModified       time.Time `json:"date_modified"`
}

// Partial is one in-flight response.
type Partial struct {
	ID     uuid.UUID
	Meta   Meta
	Record *schema.Record
}

// Options configure a task controller.
type Options struct {
	// Name is the task name, used in errors, sequencing and the data
	// subdirectory.
	Name string
	// Version is the task version recorded on each response.
	Version string
	// Namespace prefixes the task's operations at the transport boundary.
	Namespace string
	Spec      *schema.Spec
	Locales   *locale.Store
	// DataPath is the root directory completed responses are written under.
	DataPath string
	// DataDir is the task's subdirectory under DataPath; defaults to Name.
	DataDir string
	// Assemble, when set, rewrites the record data into the shape the stored
	// file carries.
	Assemble  func(data map[string]any) map[string]any
	Sequencer *Sequencer
	Logger    *zap.Logger
}

// Controller tracks the in-flight responses of one task and implements the
// operations every task shares. Concrete tasks embed it and add their own
// section-ingest operations.
type Controller struct {
	Name      string
	Version   string
	Namespace string
	Spec      *schema.Spec
	Locales   *locale.Store
	DataPath  string
	DataDir   string
	Sequencer *Sequencer

	assemble func(data map[string]any) map[string]any
	log      *zap.Logger

	mu        sync.Mutex
	responses map[uuid.UUID]*Partial
	location  string
}

// NewController returns a ready controller and installs the response-id
// localisation resolver on its Store.
func NewController(o Options) *Controller {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		Name:      o.Name,
		Version:   o.Version,
		Namespace: o.Namespace,
		Spec:      o.Spec,
		Locales:   o.Locales,
		DataPath:  o.DataPath,
		DataDir:   o.DataDir,
		Sequencer: o.Sequencer,
		assemble:  o.Assemble,
		log:       log.Named(o.Name),
		responses: make(map[uuid.UUID]*Partial),
	}
	if c.DataDir == "" {
		c.DataDir = c.Name
	}
	if c.Locales != nil {
		c.Locales.SetResolver(func(responseID string) (string, error) {
			id, err := CastUUID(c.Name, responseID)
			if err != nil {
				return "", err
			}
			p, err := c.Get(id)
			if err != nil {
				return "", err
			}
			return p.Meta.TaskLocalisation, nil
		})
	}
	return c
}

func (c *Controller) lock()   { c.mu.Lock() }
func (c *Controller) unlock() { c.mu.Unlock() }

// Log returns the controller's logger for use by the embedding task.
func (c *Controller) Log() *zap.Logger {
	return c.log
}

// SetLocation records a location hint for the front end to pick up from the
// next reply envelope.
func (c *Controller) SetLocation(location string) {
	c.lock()
	defer c.unlock()
	c.log.Debug("setting location", zap.String("location", location))
	c.location = location
}

// TakeLocation pops the pending location hint, if any.
func (c *Controller) TakeLocation() string {
	c.lock()
	defer c.unlock()
	location := c.location
	c.location = ""
	return location
}

// GetLocalisations lists the task's available localisations.
func (c *Controller) GetLocalisations(forceRediscovery bool) (map[string]string, error) {
	return c.Locales.List(forceRediscovery)
}

// LoadLocalisation loads a localisation bundle by label or by the id of an
// in-flight response, optionally filtered to sections.
func (c *Controller) LoadLocalisation(labelOrID string, sections []string, forceReload bool) (map[string]any, error) {
	return c.Locales.Load(labelOrID, sections, forceReload)
}

// New initialises a response from the start-form payload and returns its id.
// The payload must carry selectSurveyVersion, researcherId, participantId and
// confirmConsent; researchLocation defaults to "Unknown".
func (c *Controller) New(payload map[string]any) (uuid.UUID, error) {
	c.log.Info("creating new response")
	required := []string{"selectSurveyVersion", "researcherId", "participantId", "confirmConsent"}
	if missing := FindMissingKeys(payload, required); len(missing) > 0 {
		return uuid.Nil, &MissingKeysError{Task: c.Name, Keys: missing}
	}

	v := validator.New(true, false)
	version := v.CheckString("survey version", schema.TaskLocalisationLabel, payload["selectSurveyVersion"])
	researcher := v.CheckString("researcher ID", schema.ShortID, payload["researcherId"])
	participant := v.CheckString("participant ID", schema.ShortID, payload["participantId"])
	consent := v.CheckBool("consent confirmation", nil, payload["confirmConsent"])
	location := validator.Result{Value: "Unknown"}
	if raw, ok := payload["researchLocation"]; ok {
		location = v.CheckString("research location", schema.LocationName, raw)
	}
	if err := v.Err(); err != nil {
		return uuid.Nil, err
	}

	now := time.Now()
	meta := Meta{
		TaskLocalisation:  version.Value.(string),
		TaskVersionNo:     c.Version,
		AppVersionNo:      config.AppVersion,
		AppSystemPlatform: runtime.GOOS,
		AppSystemUseragent: fmt.Sprintf("%s/%s (%s; %s)",
			config.AppName, config.AppVersion, runtime.GOOS, runtime.GOARCH),
		AppDisplayLanguage: displayLanguage(),
		ResearcherID:       researcher.Value.(string),
		ResearchLocation:   location.Value.(string),
		ParticipantID:      participant.Value.(string),
		ConsentObtained:    consent.Value.(bool),
		DateCreated:        now,
		DateModified:       now,
	}

	c.lock()
	defer c.unlock()
	id, err := c.freshID()
	if err != nil {
		return uuid.Nil, err
	}
	c.responses[id] = &Partial{ID: id, Meta: meta, Record: c.Spec.NewRecord()}
	c.location = fmt.Sprintf("start.html?instance=%s", id)
	c.log.Info("created response",
		zap.String("response_id", id.String()),
		zap.String("localisation", meta.TaskLocalisation),
		zap.String("participant_id", meta.ParticipantID))
	return id, nil
}

// displayLanguage derives the display language from the process locale,
// falling back to en_GB when none is usable.
func displayLanguage() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := strings.TrimSpace(os.Getenv(key))
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		return v
	}
	return "en_GB"
}

// freshID generates a time-ordered response id that is not already in use.
// Callers must hold the lock.
func (c *Controller) freshID() (uuid.UUID, error) {
	for {
		id, err := uuid.NewUUID()
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s: generate response id: %w", c.Name, err)
		}
		if _, taken := c.responses[id]; !taken {
			return id, nil
		}
	}
}

// ResponseExists reports whether the response id is in memory.
func (c *Controller) ResponseExists(id uuid.UUID) bool {
	c.lock()
	defer c.unlock()
	_, ok := c.responses[id]
	return ok
}

// Get returns the in-flight response for id.
func (c *Controller) Get(id uuid.UUID) (*Partial, error) {
	c.lock()
	defer c.unlock()
	p, ok := c.responses[id]
	if !ok {
		return nil, &ResponseNotFoundError{Task: c.Name, ID: id}
	}
	return p, nil
}

// Touch updates the response's modification timestamp after a section change.
func (c *Controller) Touch(id uuid.UUID) {
	c.lock()
	defer c.unlock()
	if p, ok := c.responses[id]; ok {
		p.Meta.DateModified = time.Now()
	}
}

// Discard removes the response from memory.
func (c *Controller) Discard(id uuid.UUID) error {
	c.lock()
	defer c.unlock()
	if _, ok := c.responses[id]; !ok {
		return &ResponseNotFoundError{Task: c.Name, ID: id}
	}
	delete(c.responses, id)
	c.log.Info("discarded response", zap.String("response_id", id.String()))
	return nil
}

// IsComplete reports whether every required field of the response is present.
func (c *Controller) IsComplete(id uuid.UUID) (bool, error) {
	p, err := c.Get(id)
	if err != nil {
		return false, err
	}
	missing := p.Record.Missing(true)
	if len(missing) > 0 {
		c.log.Debug("response incomplete",
			zap.String("response_id", id.String()), zap.Strings("missing", missing))
		return false, nil
	}
	return true, nil
}

// Store writes the response to long-term storage. The response must be
// complete, re-validate in full and name a known localisation; the file is
// written atomically under <DataPath>/<DataDir>/<localisation>/.
func (c *Controller) Store(id uuid.UUID) error {
	p, err := c.Get(id)
	if err != nil {
		return err
	}
	c.log.Info("storing response", zap.String("response_id", id.String()))
	if missing := p.Record.Missing(true); len(missing) > 0 {
		return &ResponseIncompleteError{Task: c.Name, ID: id, Missing: missing}
	}
	if err := p.Record.Validate(); err != nil {
		return err
	}
	if p.Meta.TaskLocalisation == "" {
		return &ResponseCorruptedError{Task: c.Name, ID: id, Reason: "metadata has no localisation"}
	}
	if !c.Locales.Known(p.Meta.TaskLocalisation) {
		return &ResourceError{Task: c.Name, Resource: p.Meta.TaskLocalisation,
			ResponseID: id.String(), Err: fmt.Errorf("localisation is not known to this task")}
	}

	doc := map[string]any{
		"id":   id.String(),
		"meta": p.Meta,
	}
	data := p.Record.Data(false)
	if c.assemble != nil {
		data = c.assemble(data)
	}
	for group, section := range data {
		doc[group] = section
	}
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return &ResponseStorageError{Task: c.Name, ID: id, Err: err}
	}

	dir := filepath.Join(c.DataPath, c.DataDir, p.Meta.TaskLocalisation)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ResponseStorageError{Task: c.Name, ID: id, Path: dir, Err: err}
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", p.Meta.ParticipantID, id))
	if err := writeAtomic(path, raw); err != nil {
		return &ResponseStorageError{Task: c.Name, ID: id, Path: path, Err: err}
	}
	c.log.Info("stored response",
		zap.String("response_id", id.String()), zap.String("path", path))
	return nil
}

func writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// End redirects the participant to the next task in the sequence and discards
// the response. The response must be complete; Store must have been called
// first, as the data is gone once End returns.
func (c *Controller) End(id uuid.UUID) (string, error) {
	p, err := c.Get(id)
	if err != nil {
		return "", err
	}
	complete, err := c.IsComplete(id)
	if err != nil {
		return "", err
	}
	if !complete {
		return "", &ResponseIncompleteError{Task: c.Name, ID: id, Missing: p.Record.Missing(true)}
	}
	href := c.Sequencer.Next(c.Name, p.Meta)
	c.log.Info("redirecting participant",
		zap.String("response_id", id.String()), zap.String("href", href))
	c.SetLocation(href)
	if err := c.Discard(id); err != nil {
		return "", err
	}
	return href, nil
}
