package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/eventserver/internal/config"
	"github.com/vango-dev/eventserver/internal/errors"
	"github.com/vango-dev/eventserver/pkg/server"
	"github.com/vango-dev/eventserver/pkg/status"
)

// actionPollInterval is how often the dispatcher drains queued actions.
const actionPollInterval = 20 * time.Millisecond

type serveOptions struct {
	port          int
	allInterfaces bool
	maxClients    int
	statusAddr    string
	noStatus      bool
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the event server",
		Long: `Run the event server until interrupted.

The server binds the first free UDP port in the configured range and
a status server with health, client, metrics and live feed endpoints.
Send SIGHUP to reload the key repeat delays from the config file.

Examples:
  eventserver serve
  eventserver serve --port=9777 --all-interfaces
  eventserver serve --config=/etc/eventserver.yaml --no-status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Services.Port = opts.port
			}
			if cmd.Flags().Changed("all-interfaces") {
				cfg.Services.AllInterfaces = opts.allInterfaces
			}
			if cmd.Flags().Changed("max-clients") {
				cfg.Services.MaxClients = opts.maxClients
			}
			if opts.statusAddr != "" {
				cfg.Status.Addr = opts.statusAddr
			}
			if opts.noStatus {
				cfg.Status.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "First UDP port to try (default from config)")
	cmd.Flags().BoolVar(&opts.allInterfaces, "all-interfaces", false, "Accept clients on every interface")
	cmd.Flags().IntVar(&opts.maxClients, "max-clients", 0, "Maximum concurrent clients (default from config)")
	cmd.Flags().StringVar(&opts.statusAddr, "status-addr", "", "Status server address (default from config)")
	cmd.Flags().BoolVar(&opts.noStatus, "no-status", false, "Disable the status server")

	return cmd
}

func runServe(cfg *config.Config) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// The status server needs the event server as its source, and the event
	// server publishes notifications to the status server.
	var feed *status.Server
	publish := func(ev status.Event) {
		if feed != nil {
			feed.Publish(ev)
		}
	}

	store := config.NewStore(cfg)
	sc := store.ServerConfig(logger, reg)
	sc.Notifier = server.NotifierFunc(func(n server.Notification) {
		logger.Info("notification", "client", n.ClientName, "caption", n.Caption, "message", n.Message)
		publish(status.NotificationEvent(n, time.Now()))
	})
	sc.Watcher = server.ClientWatcherFunc(func(c server.ClientChange) {
		publish(status.ClientEvent(c, time.Now()))
	})
	srv := server.New(sc)

	if cfg.Status.Enabled {
		feed = status.New(status.Options{
			Addr:     cfg.Status.Addr,
			Source:   srv,
			Gatherer: reg,
			Logger:   logger,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return errors.New("E200").
			WithDetailf("Ports %d-%d", cfg.Services.Port, cfg.Services.Port+cfg.Services.PortRange).
			WithSuggestion("Stop the process holding the port or pick another with --port").
			Wrap(err)
	}
	defer srv.Stop()

	addr, _ := srv.Addr()
	success("Event server listening on %s", addr)

	statusErr := make(chan error, 1)
	if feed != nil {
		go func() {
			statusErr <- feed.Run(ctx)
		}()
		info("Status server on http://%s", cfg.Status.Addr)
	}

	go dispatchActions(ctx, srv, logger, publish)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reloadSettings(store, srv, logger)
				continue
			}
			fmt.Println("\n  Shutting down...")
			return nil
		case err := <-statusErr:
			if err != nil {
				return errors.New("E201").
					WithDetail("Address " + cfg.Status.Addr).
					Wrap(err)
			}
			return nil
		}
	}
}

// dispatchActions polls the server the way a host main loop would: held
// buttons and pointer first, then the action queue.
func dispatchActions(ctx context.Context, srv *server.Server, logger *slog.Logger, publish func(status.Event)) {
	ticker := time.NewTicker(actionPollInterval)
	defer ticker.Stop()

	var (
		lastButton server.ButtonEvent
		lastMouse  server.MousePos
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if b, ok := srv.ButtonCode(); ok && b != lastButton {
			logger.Debug("button held", "code", b.Code, "map", b.MapName, "name", b.ButtonName, "amount", b.Amount)
			lastButton = b
		} else if !ok {
			lastButton = server.ButtonEvent{}
		}
		if m, ok := srv.MousePos(); ok && m != lastMouse {
			logger.Debug("pointer", "x", m.X, "y", m.Y, "absolute", m.Absolute)
			lastMouse = m
		}

		for {
			action, ok := srv.ExecuteNextAction()
			if !ok {
				break
			}
			logger.Debug("action",
				"client", action.ClientName,
				"kind", action.Kind.String(),
				"message", action.Message,
				"code", action.Code,
				"map", action.MapName,
				"repeat", action.Repeat,
			)
			publish(status.ActionEvent(action, time.Now()))
		}
	}
}

func reloadSettings(store *config.Store, srv *server.Server, logger *slog.Logger) {
	if err := store.Reload(); err != nil {
		warn("Reload failed, keeping the current settings")
		errors.PrintError(err)
		return
	}
	srv.RefreshSettings()
	s := store.Settings()
	logger.Info("settings reloaded",
		"initial_delay", s.InitialDelay,
		"continuous_delay", s.ContinuousDelay,
	)
}
