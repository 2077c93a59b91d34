package app

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lart-bangor/research-assistant-sub000/internal/bridge"
	"github.com/lart-bangor/research-assistant-sub000/internal/config"
	"github.com/lart-bangor/research-assistant-sub000/internal/ops"
)

// Options configures a run of the app.
type Options struct {
	Config *config.Config
	Log    *zap.Logger
	// Static is the embedded front end, served at the server root.
	Static fs.FS
	// OpenWindow launches a browser window once the server is listening.
	OpenWindow bool
	// DisableGPU is passed through to the browser for machines with broken
	// GPU drivers.
	DisableGPU bool
}

// Run serves the task API and the front end on a loopback port and blocks
// until the last window closes or the process is interrupted.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	life := NewLifecycle(time.Duration(cfg.ShutdownDelay*float64(time.Second)), log)

	mux := http.NewServeMux()
	api := &bridge.Server{
		Log:  log,
		Live: life,
		Backup: func(dest string) error {
			return ops.BackupDataDir(cfg.Paths.Data, dest)
		},
	}
	api.Routes(mux)
	if opts.Static != nil {
		mux.Handle("GET /", http.FileServer(http.FS(opts.Static)))
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	url := "http://" + ln.Addr().String() + "/app/index.html"
	log.Info("app serving", zap.String("url", url))

	srv := &http.Server{Handler: chain(mux, withAccessLog(log), withRecover(log))}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	go life.Watch(ctx)

	if opts.OpenWindow {
		if err := openWindow(url, opts.DisableGPU); err != nil {
			log.Warn("could not open a browser window, open the URL manually",
				zap.String("url", url), zap.Error(err))
		}
	}

	select {
	case err := <-served:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-life.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("app stopped")
	return nil
}
