// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/cinesuite/internal/api"
	"github.com/starford/cinesuite/internal/assets"
	"github.com/starford/cinesuite/internal/catalog"
	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/generator"
	"github.com/starford/cinesuite/internal/inbox"
	"github.com/starford/cinesuite/internal/mcpserver"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/slot"
	"github.com/starford/cinesuite/internal/sse"
	"github.com/starford/cinesuite/internal/storage"
	"github.com/starford/cinesuite/internal/studio"
	"github.com/starford/cinesuite/internal/transfer"
	"github.com/starford/cinesuite/internal/tui"
)

// services are the long-lived components shared by every command.
type services struct {
	cfg      *Config
	logger   *slog.Logger
	slot     *slot.SQLite
	store    *projectstore.Store
	catalog  *catalog.DB
	files    *storage.FS
	transfer *transfer.Service
	studio   *studio.Service
}

func (s *services) Close() {
	if s.catalog != nil {
		_ = s.catalog.Close()
	}
	if s.files != nil {
		_ = s.files.Close()
	}
	if s.slot != nil {
		_ = s.slot.Close()
	}
}

func setup(ctx context.Context, opts []Option) (*services, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("transfer_path", cfg.Transfer.Path),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("generator_model", cfg.Generator.Model),
		slog.Bool("generator_credential", cfg.Generator.Credential != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc := &services{cfg: cfg, logger: logger}

	sl, err := slot.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init store slot: %w", err)
	}
	svc.slot = sl

	store, err := projectstore.Open(ctx, sl, codec.Store{},
		projectstore.WithKey(cfg.Store.Key),
		projectstore.WithLogger(logger))
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("open project store: %w", err)
	}
	svc.store = store

	files, err := storage.NewFS(cfg.Transfer.Path)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("init transfer dir: %w", err)
	}
	svc.files = files
	svc.transfer = transfer.NewService(files, store, logger)

	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	svc.catalog = db

	gen := generator.NewHTTPClient(cfg.Generator.Endpoint, cfg.Generator.Model, cfg.Generator.Timeout)
	fetcher := assets.NewHTTPFetcher(cfg.Assets.BaseURL, cfg.Assets.Timeout, cfg.Assets.MaxBytes)
	svc.studio = studio.NewService(store, db, gen, assets.NewInliner(fetcher, logger), cfg.Generator.Credential, logger)

	if err := svc.studio.Reindex(); err != nil {
		logger.Warn("initial catalog sync failed", slog.String("error", err.Error()))
	}
	return svc, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	svc, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close()
	cfg, logger := svc.cfg, svc.logger

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Store changes go out as events and mark the catalog stale.
	reindex := make(chan struct{}, 1)
	svc.store.OnChange(func(c projectstore.Change) {
		broker.PublishChange(c)
		select {
		case reindex <- struct{}{}:
		default:
		}
	})

	apiRouter := api.NewRouter(api.Deps{
		Store:    svc.store,
		Transfer: svc.transfer,
		Studio:   svc.studio,
		Player:   api.NewPlayer(svc.store, cfg.Playback.Policy()),
		Events:   broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.catalog.List(""); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"catalog unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the search catalog in line with the store.
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-reindex:
				if err := svc.studio.Reindex(); err != nil {
					logger.Warn("catalog sync failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	// Import files dropped into the inbox.
	if cfg.Inbox.Enabled {
		g.Go(func() error {
			files, err := storage.NewFS(cfg.Inbox.Path)
			if err != nil {
				return fmt.Errorf("init inbox: %w", err)
			}
			defer files.Close()
			in := inbox.New(files, files.Root(), svc.transfer, func() (string, bool) {
				p, ok := svc.store.CurrentProject()
				return p.ID, ok
			},
				inbox.WithStrict(cfg.Inbox.Strict),
				inbox.WithLogger(logger),
				inbox.WithCallback(func(kind, name string) {
					broker.Publish(sse.Event{Type: sse.TypeInbox, Data: map[string]string{"kind": kind, "file": name}})
				}))
			return in.Watch(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown stops the other server goroutines once a signal arrived.
var errShutdown = errors.New("shutdown")

// Play runs the full-screen play host over the scenes of the current
// project, starting with the current scene.
func Play(ctx context.Context, opts ...Option) error {
	svc, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	p, ok := svc.store.CurrentProject()
	if !ok || len(p.Scenes) == 0 {
		return fmt.Errorf("play: the current project has no scenes")
	}
	start := 0
	if cur, ok := svc.store.CurrentScene(); ok {
		start = p.SceneIndex(cur.ID)
	}

	m := tui.New(p.Scenes, start, svc.cfg.Playback.Policy())
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// ServeMCP exposes the MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	svc, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.store.OnChange(func(projectstore.Change) {
		if err := svc.studio.Reindex(); err != nil {
			svc.logger.Warn("catalog sync failed", slog.String("error", err.Error()))
		}
	})
	return mcpserver.New(svc.store, svc.transfer, svc.studio).ServeStdio()
}

// Export writes one scene to the transfer directory and returns the file name.
// An empty sceneID exports the current scene.
func Export(ctx context.Context, projectID, sceneID string, f codec.Format, opts ...Option) (string, error) {
	svc, err := setup(ctx, opts)
	if err != nil {
		return "", err
	}
	defer svc.Close()

	if sceneID == "" {
		cur, ok := svc.store.CurrentScene()
		if !ok {
			return "", fmt.Errorf("export: no scene is selected")
		}
		p, _ := svc.store.CurrentProject()
		projectID, sceneID = p.ID, cur.ID
	}
	return svc.transfer.Export(ctx, projectID, sceneID, f)
}

// Import adds a transfer document to a project. An empty projectID targets
// the current project.
func Import(ctx context.Context, projectID string, data []byte, o transfer.ImportOptions, opts ...Option) (transfer.ImportResult, error) {
	svc, err := setup(ctx, opts)
	if err != nil {
		return transfer.ImportResult{}, err
	}
	defer svc.Close()

	if projectID == "" {
		p, ok := svc.store.CurrentProject()
		if !ok {
			return transfer.ImportResult{}, fmt.Errorf("import: no project is selected")
		}
		projectID = p.ID
	}
	res, err := svc.transfer.ImportData(ctx, projectID, data, o)
	if err != nil {
		return res, err
	}
	if err := svc.studio.Reindex(); err != nil {
		svc.logger.Warn("catalog sync failed", slog.String("error", err.Error()))
	}
	return res, nil
}
