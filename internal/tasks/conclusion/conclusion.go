// Package conclusion implements the closing screen shown after the last data
// collection task. It gathers no data of its own; its response only carries
// the participant through the final redirect.
package conclusion

import (
	"embed"
	"io/fs"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
	"github.com/lart-bangor/research-assistant-sub000/internal/schema"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
)

//go:embed localisations
var localisations embed.FS

const (
	Name    = "conclusion"
	Version = "0.5.0"
	dataDir = "Conclusion"
)

var spec = schema.MustBuild(&schema.Spec{Task: Name, ForceCast: true})

// Task wraps the shared controller for the conclusion screen.
type Task struct {
	*task.Controller
}

// New assembles the conclusion task over the embedded localisation bundles.
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

// Register installs the task in the operation registry. The store operation
// is replaced with a no-op: there is nothing worth keeping on a conclusion
// response, but the front end still calls store before end.
func Register(dataPath string, seq *task.Sequencer, log *zap.Logger) *Task {
	t := New(dataPath, seq, log)
	t.Controller = task.Register(t.Controller, map[string]task.Op{
		"store": func(payload map[string]any) (task.Reply, error) {
			id, err := t.ResponseID(payload)
			if err != nil {
				return task.Reply{}, err
			}
			if !t.ResponseExists(id) {
				return task.Reply{}, &task.ResponseNotFoundError{Task: Name, ID: id}
			}
			t.Log().Info("skipping storage, conclusion responses carry no data",
				zap.String("response_id", id.String()))
			return task.Reply{Value: true}, nil
		},
	})
	return t
}

func bundleFS() fs.FS {
	sub, err := fs.Sub(localisations, "localisations")
	if err != nil {
		panic(err)
	}
	return sub
}
