// Package bridge is the transport boundary between the embedded front end
// and the task controllers. Task operations are served as POST /api/<ns>_<op>
// with a JSON payload; every reply is wrapped in an envelope that carries the
// value, an optional location hint and, on failure, a modal for the front end
// to display.
package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/validator"
)

// Modal describes a message the front end should show the participant or
// researcher. HTML marks the body as pre-rendered HTML.
type Modal struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	HTML  bool   `json:"html"`
}

// Envelope is the reply wrapper for every API call.
type Envelope struct {
	OK       bool   `json:"ok"`
	Value    any    `json:"value,omitempty"`
	Location string `json:"location,omitempty"`
	Modal    *Modal `json:"modal,omitempty"`
}

// Liveness receives client heartbeats so the app can shut down when the last
// window closes.
type Liveness interface {
	Ping()
}

// Server exposes the registered task operations plus the app-level settings
// and backup endpoints.
type Server struct {
	Log  *zap.Logger
	Live Liveness
	// Backup exports the data directory to the given ZIP file.
	Backup func(dest string) error
}

// Routes installs the API handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/_alive", s.handleAlive)
	mux.HandleFunc("GET /api/_settings/docs", s.handleSettingsDocs)
	mux.HandleFunc("POST /api/_settings/manage", s.handleSettingsManage)
	mux.HandleFunc("POST /api/_backup", s.handleBackup)
	mux.HandleFunc("POST /api/", s.handleOp)
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	if s.Live != nil {
		s.Live.Ping()
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true})
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/")
	op, ok := task.Resolve(name)
	if !ok {
		s.log().Warn("unknown api operation", zap.String("op", name))
		writeJSON(w, http.StatusNotFound, Envelope{OK: false, Modal: &Modal{
			Title: "Unknown operation",
			Body:  "The operation " + name + " is not available.",
		}})
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		s.log().Warn("undecodable api payload", zap.String("op", name), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Envelope{OK: false, Modal: &Modal{
			Title: "Invalid request",
			Body:  "The request payload could not be read.",
		}})
		return
	}
	reply, err := op(payload)
	if err != nil {
		s.log().Error("api operation failed",
			zap.String("op", name), zap.Error(err))
		writeJSON(w, http.StatusOK, Envelope{OK: false, Modal: modalFor(err)})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Value: reply.Value, Location: reply.Location})
}

func (s *Server) handleSettingsDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Envelope{OK: true, Value: map[string]any{
		"settings": config.Load(s.Log),
		"docs":     config.Docs(),
	}})
}

func (s *Server) handleSettingsManage(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{OK: false, Modal: &Modal{
			Title: "Invalid request",
			Body:  "The request payload could not be read.",
		}})
		return
	}
	command, _ := payload["command"].(string)
	if err := config.Manage(command, s.Log); err != nil {
		s.log().Error("settings command failed", zap.String("command", command), zap.Error(err))
		writeJSON(w, http.StatusOK, Envelope{OK: false, Modal: &Modal{
			Title: "Settings error",
			Body:  err.Error(),
		}})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Value: true})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil || s.Backup == nil {
		writeJSON(w, http.StatusBadRequest, Envelope{OK: false, Modal: &Modal{
			Title: "Invalid request",
			Body:  "The backup request could not be read.",
		}})
		return
	}
	dest, _ := payload["filename"].(string)
	if dest == "" {
		writeJSON(w, http.StatusOK, Envelope{OK: false, Modal: &Modal{
			Title: "Backup error",
			Body:  "No backup filename given.",
		}})
		return
	}
	if err := s.Backup(dest); err != nil {
		s.log().Error("backup failed", zap.String("dest", dest), zap.Error(err))
		writeJSON(w, http.StatusOK, Envelope{OK: false, Modal: &Modal{
			Title: "Backup error",
			Body:  err.Error(),
		}})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Value: dest})
}

// decodePayload reads the request body as a JSON object; an empty body is an
// empty payload.
func decodePayload(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()
	payload := make(map[string]any)
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return payload, nil
}

// modalFor converts a task error into the modal shown to the user. Validation
// failures render their accumulated results as HTML; everything else shows a
// plain-text message.
func modalFor(err error) *Modal {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return &Modal{Title: "Invalid input", Body: verr.HTML(), HTML: true}
	}
	title := "Error"
	switch {
	case isAs[*task.InvalidUUIDError](err), isAs[*task.InvalidValueError](err),
		isAs[*task.MissingKeysError](err):
		title = "Invalid input"
	case isAs[*task.ResponseNotFoundError](err):
		title = "Response not found"
	case isAs[*task.ResponseIncompleteError](err):
		title = "Response incomplete"
	case isAs[*task.ResponseCorruptedError](err):
		title = "Response corrupted"
	case isAs[*task.ResponseStorageError](err):
		title = "Storage error"
	case isAs[*task.ResourceError](err):
		title = "Resource error"
	}
	return &Modal{Title: title, Body: err.Error()}
}

func isAs[E error](err error) bool {
	var target E
	return errors.As(err, &target)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
