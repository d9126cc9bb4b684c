package app

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/config"
	"github.com/t3track/t3agent/internal/database"
	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/power"
	"github.com/t3track/t3agent/internal/relay"
	"github.com/t3track/t3agent/internal/reporter"
	"github.com/t3track/t3agent/internal/tracking"
	"github.com/t3track/t3agent/internal/web"
	"github.com/t3track/t3agent/pkg/window"
)

const (
	shutdownTimeout = 10 * time.Second
	errorRetention  = 30 * 24 * time.Hour
)

// levelSetter is satisfied by *logging.SlogLogger.
type levelSetter interface {
	SetLevel(name string) error
}

// agent is one running instance: the tracking core plus every consumer
// and signal source around it.
type agent struct {
	cfg     *config.Config
	logger  logging.Logger
	backend window.Backend

	db         *database.DB
	repo       *database.Repository
	bus        *tracking.Bus
	capturer   *tracking.Capturer
	controller *tracking.Controller
	relay      *relay.Relay
	handler    *web.Handler
	server     *web.Server
	power      power.Monitor

	mu sync.Mutex // guards cfg during reloads
}

func newAgent(cfg *config.Config, logger logging.Logger, backend window.Backend, monitor power.Monitor) (*agent, error) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	repo := database.NewRepository(db)
	if n, err := repo.DeleteErrorsBefore(time.Now().Add(-errorRetention)); err != nil {
		logger.Warn("failed to prune error log", "error", err)
	} else if n > 0 {
		logger.Debug("pruned old error log entries", "count", n)
	}
	sink := database.NewErrorSink(repo, logger)

	bus := tracking.NewBus(logger)
	sampler := tracking.NewSampler(backend, nil, logger, sink)
	capturer := tracking.NewCapturer(backend, backend, nil, logger, sink, captureOptions(cfg))
	controller := tracking.NewController(sampler, capturer, bus, nil, logger, controllerOptions(cfg))

	classifier := classifierFor(cfg)
	handler := web.NewHandler(controller, repo, bus, reporter.New(classifier), logger)
	handler.SetAllowedOrigins(cfg.Web.AllowedOrigins)

	if monitor == nil {
		monitor = power.New(config.AppName, logger, sink)
	}

	return &agent{
		cfg:        cfg,
		logger:     logger,
		backend:    backend,
		db:         db,
		repo:       repo,
		bus:        bus,
		capturer:   capturer,
		controller: controller,
		relay:      relay.New(relayOptions(cfg), classifier, logger, sink),
		handler:    handler,
		server:     web.NewServer(cfg, handler, logger, 0),
		power:      monitor,
	}, nil
}

// run serves until ctx is cancelled, then flushes the open session and
// drains the consumers. ln may be nil to listen on the configured address.
func (a *agent) run(ctx context.Context, ln net.Listener, watchPath string) error {
	cfg := a.config()
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.server.GetAddress())
		if err != nil {
			return errors.Wrapf(err, "failed to listen on %s", a.server.GetAddress())
		}
	}

	if cfg.Capture.Enabled {
		a.capturer.Prepare()
	}

	// Consumers subscribe before anything can publish.
	var relayDone chan struct{}
	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	if cfg.Relay.Enabled {
		sub := a.bus.Subscribe(128, tracking.EventUsage, tracking.EventScreenshot)
		relayDone = make(chan struct{})
		go func() {
			defer close(relayDone)
			if err := a.relay.Run(relayCtx, sub); err != nil {
				a.logger.Error("relay stopped", "error", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Serve(ln) }()

	var wg sync.WaitGroup
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.power.Run(bgCtx, a.handlePower); err != nil {
			a.logger.Warn("power monitor stopped", "error", err)
		}
	}()

	if watchPath != "" {
		if _, err := os.Stat(watchPath); err == nil {
			w, err := config.NewWatcher(watchPath, a.logger, a.applyConfig)
			if err != nil {
				a.logger.Warn("config hot reload disabled", "error", err)
			} else {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := w.Run(bgCtx); err != nil {
						a.logger.Warn("config watcher stopped", "error", err)
					}
				}()
			}
		}
	}

	a.logger.Info("agent started",
		"backend", a.backend.GetDisplayServer(),
		"control", "http://"+ln.Addr().String(),
		"capture", cfg.Capture.Enabled,
		"relay", cfg.Relay.Enabled,
	)
	if cfg.Tracker.AutoStart {
		a.controller.Start()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		serveErr = nil
	}

	a.shutdown(serveErr, relayDone, relayCancel)
	bgCancel()
	wg.Wait()
	return runErr
}

func (a *agent) shutdown(serveErr chan error, relayDone chan struct{}, relayCancel context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if report := a.controller.Shutdown(ctx); report != nil {
		a.logger.Info("final session flushed", "session", report.SessionID, "tracked_ms", report.Usage.Total())
	}

	// Closing the bus ends event streams and lets the relay drain.
	a.bus.Close()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("control API shutdown", "error", err)
	}
	if serveErr != nil {
		if err := <-serveErr; err != nil {
			a.logger.Warn("control API", "error", err)
		}
	}

	if relayDone != nil {
		select {
		case <-relayDone:
		case <-ctx.Done():
			a.logger.Warn("relay did not drain before shutdown deadline")
			relayCancel()
			<-relayDone
		}
	}
	a.logger.Info("agent stopped")
}

func (a *agent) config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

func (a *agent) handlePower(sig power.Signal) {
	switch sig {
	case power.Suspend:
		if report := a.controller.Suspend(); report != nil {
			a.logger.Info("session flushed for suspend", "session", report.SessionID)
		}
	case power.Resume:
		a.controller.Resume()
	}
}

// applyConfig hot-applies a reloaded config. Intervals take effect from
// the next session; storage and listen addresses need a restart.
func (a *agent) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.cfg
	a.controller.UpdateOptions(controllerOptions(cfg))
	a.capturer.Configure(captureOptions(cfg))
	a.relay.Configure(relayOptions(cfg), classifierFor(cfg))
	a.handler.SetAllowedOrigins(cfg.Web.AllowedOrigins)

	if ls, ok := a.logger.(levelSetter); ok && cfg.Logging.Level != old.Logging.Level {
		if err := ls.SetLevel(cfg.Logging.Level); err != nil {
			a.logger.Warn("invalid log level in config", "error", err)
		}
	}
	if cfg.Database.Path != old.Database.Path || cfg.Web.Host != old.Web.Host || cfg.Web.Port != old.Web.Port || cfg.Relay.Enabled != old.Relay.Enabled {
		a.logger.Warn("some config changes need a restart", "database", cfg.Database.Path, "web", cfg.ControlURL())
	}
	a.cfg = cfg
}

func (a *agent) close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("failed to close window backend", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
