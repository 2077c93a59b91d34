// The research assistant presents a sequence of psycholinguistic survey tasks
// to a single participant: it serves an embedded front end on a loopback
// port, opens it in a browser app window and records the responses to the
// local data directory.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/app"
	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/ops"
	"github.com/lart-bangor/research-assistant-sub000/internal/task"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/agt"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/atolc"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/conclusion"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/consent"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/lsbqe"
	"github.com/lart-bangor/research-assistant-sub000/internal/tasks/memorytask"
	staticfiles "github.com/lart-bangor/research-assistant-sub000/static"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		debugLevel    string
		backupDest    string
		configCommand string
		disableGPU    bool
	)

	cmd := &cobra.Command{
		Use:           "research-assistant",
		Short:         "Run psycholinguistic survey tasks with a local participant",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(nil)
			log, err := app.NewLogger(cfg, debugLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			switch {
			case configCommand != "":
				return config.Manage(configCommand, log)
			case backupDest != "":
				if err := ops.BackupDataDir(cfg.Paths.Data, backupDest); err != nil {
					return err
				}
				log.Info("data directory backed up",
					zap.String("data", cfg.Paths.Data), zap.String("dest", backupDest))
				return nil
			}

			registerTasks(cfg, log)
			return app.Run(context.Background(), app.Options{
				Config:     cfg,
				Log:        log,
				Static:     staticfiles.EmbeddedFS(),
				OpenWindow: true,
				DisableGPU: disableGPU,
			})
		},
	}

	cmd.Flags().StringVar(&debugLevel, "debug", "",
		"log level: debug, info, warning, error or critical")
	cmd.Flags().StringVar(&backupDest, "backup", "",
		"export the data directory to a ZIP file and exit")
	cmd.Flags().StringVar(&configCommand, "config", "",
		"run a settings command (update, reset, clear or a JSON object) and exit")
	cmd.Flags().BoolVar(&disableGPU, "disable-gpu", false,
		"disable GPU acceleration in the app window")
	return cmd
}

func registerTasks(cfg *config.Config, log *zap.Logger) {
	if err := os.MkdirAll(cfg.Paths.Data, 0o755); err != nil {
		log.Warn("could not create data directory",
			zap.String("path", cfg.Paths.Data), zap.Error(err))
	}
	seq := task.NewSequencer(cfg.Sequences)
	start := time.Now()
	consent.Register(cfg.Paths.Data, seq, log)
	lsbqe.Register(cfg.Paths.Data, seq, log)
	atolc.Register(cfg.Paths.Data, seq, log)
	agt.Register(cfg.Paths.Data, seq, log)
	memorytask.Register(cfg.Paths.Data, seq, log)
	conclusion.Register(cfg.Paths.Data, seq, log)
	log.Debug("tasks registered", zap.Duration("took", time.Since(start)))
}
