// Package main is the entry point for the Omertà simulation server.
// It only handles dependency injection and server initialization.
// NO simulation logic belongs here.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/luparagames/omerta/internal/catalog"
	"github.com/luparagames/omerta/internal/engine"
	"github.com/luparagames/omerta/internal/events"
	"github.com/luparagames/omerta/internal/infra/cache"
	"github.com/luparagames/omerta/internal/infra/storage"
	"github.com/luparagames/omerta/internal/network"
	"github.com/luparagames/omerta/internal/platform/logger"
	"github.com/luparagames/omerta/internal/platform/metrics"
	"github.com/luparagames/omerta/internal/tuning"
)

const startingCash = 500

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // The mobile client connects cross-origin.
	},
}

type server struct {
	log        *logger.Logger
	met        *metrics.Collector
	tun        tuning.Tuning
	cats       *catalog.Catalogs
	eventLog   *events.EventLog
	service    *engine.Service
	hub        *network.Hub
	players    storage.PlayerRepository
	stateCache *cache.StateCache
}

func main() {
	var (
		addr      = flag.String("addr", ":8080", "HTTP listen address")
		dbPath    = flag.String("db", "omerta.db", "SQLite database path")
		configDir = flag.String("config", "", "directory with tuning.yaml and catalog JSON files")
	)
	flag.Parse()

	appLogger := logger.NewLogger()
	appLogger.Info("Initializing Omertà authoritative server...")

	tun := tuning.Default()
	if *configDir != "" {
		var err error
		tun, err = tuning.Load(*configDir + "/tuning.yaml")
		if err != nil {
			appLogger.Error("Failed to load tuning: %v", err)
			os.Exit(1)
		}
	}

	cats := catalog.Default()
	if *configDir != "" {
		var err error
		cats, err = catalog.Load(*configDir)
		if err != nil {
			appLogger.Error("Failed to load catalogs: %v", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, *dbPath, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	met := metrics.NewCollector()

	var (
		eventRepo  storage.EventRepository
		playerRepo storage.PlayerRepository
	)
	if os.Getenv("OMERTA_DATABASE_URL") != "" {
		eventRepo = storage.NewPostgresEventRepository(db)
		playerRepo = storage.NewPostgresPlayerRepository(db)
	} else {
		eventRepo = storage.NewSQLiteEventRepository(db)
		playerRepo = storage.NewSQLitePlayerRepository(db)
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(storage.NewEventPersister(eventRepo, appLogger, met))

	service := engine.NewService(appLogger)

	srv := &server{
		log:        appLogger,
		met:        met,
		tun:        tun,
		cats:       cats,
		eventLog:   eventLog,
		service:    service,
		players:    playerRepo,
		stateCache: cache.NewStateCache(cache.NewMemory()),
	}

	if err := srv.restoreSessions(ctx); err != nil {
		appLogger.Error("Failed to restore player sessions: %v", err)
		os.Exit(1)
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	srv.hub = network.NewHub(service, appLogger, met, tun)
	go srv.hub.Run(ctx)
	srv.hub.StartEventPoller(ctx, eventLog)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.routes(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("HTTP API & WS server listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.snapshotLoop(gctx)
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			appLogger.Info("Shutdown signal received.")
		case <-gctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server failed: %v", err)
		os.Exit(1)
	}

	// One last save so no progress since the previous tick is lost.
	srv.saveAll(context.Background())
	appLogger.Info("Server stopped.")
}

func openDatabase(ctx context.Context, dbPath string, log *logger.Logger) (*sql.DB, error) {
	if url := os.Getenv("OMERTA_DATABASE_URL"); url != "" {
		log.Info("Connecting to Postgres...")
		return storage.InitPostgres(ctx, url)
	}
	log.Info("Initializing SQLite database %q...", dbPath)
	return storage.InitSQLite(dbPath)
}

// restoreSessions rebuilds every known player's session from its last
// persisted snapshot and runs the offline catch-up immediately, so the
// window between last save and boot is settled once, on server time.
func (s *server) restoreSessions(ctx context.Context) error {
	records, err := s.players.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		s.log.Info("Database empty, no sessions to restore.")
		return nil
	}

	s.log.Info("Restoring %d player sessions...", len(records))
	for _, rec := range records {
		full, err := s.players.Get(ctx, rec.PlayerID)
		if err != nil {
			return err
		}
		if full == nil {
			continue
		}
		snap, err := storage.SnapshotFromRecord(full)
		if err != nil {
			return err
		}
		sess := engine.NewSession(engine.SessionConfig{
			Tuning:      s.tun,
			Catalogs:    s.cats,
			Logger:      s.log,
			Metrics:     s.met,
			EventLog:    s.eventLog,
			Player:      snap.Player,
			Businesses:  snap.Businesses,
			Territories: snap.Territories,
			Units:       snap.Units,
			Missions:    snap.Missions,
			Ledger:      engine.NewLedgerFrom(snap.Actions),
		})
		if _, _, err := sess.CatchUp(); err != nil {
			return fmt.Errorf("catch-up for %s: %w", rec.PlayerID, err)
		}
		s.service.Register(sess)
	}
	return nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/metrics", s.met.Handler())
	r.Get("/metrics/prometheus", s.met.PrometheusHandler())

	r.Get("/ws", s.serveWs)

	r.Route("/api/players", func(r chi.Router) {
		r.Post("/", s.handleCreatePlayer)
		r.Get("/", s.handleListPlayers)
		r.Get("/{playerID}", s.handleGetPlayer)
	})

	return r
}

// serveWs upgrades the connection and binds it to an active session.
func (s *server) serveWs(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if _, ok := s.service.Session(playerID); !ok {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := network.NewClient(s.hub, conn, playerID)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all
	// work in new goroutines.
	go client.WritePump()
	go client.ReadPump()
}

func (s *server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	playerID := uuid.NewString()
	businesses, terrs, units, missions := engine.NewPlayerTree(playerID, req.Name, s.cats)
	sess := engine.NewSession(engine.SessionConfig{
		Tuning:      s.tun,
		Catalogs:    s.cats,
		Logger:      s.log,
		Metrics:     s.met,
		EventLog:    s.eventLog,
		Player:      engine.NewPlayer(playerID, req.Name, startingCash),
		Businesses:  businesses,
		Territories: terrs,
		Units:       units,
		Missions:    missions,
	})
	s.service.Register(sess)

	if err := storage.SaveSession(r.Context(), s.players, sess); err != nil {
		s.log.Error("Failed to persist new player %s: %v", playerID, err)
	}

	s.log.Event("PLAYER_CREATED", playerID, req.Name)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	records, err := s.players.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var cached engine.Snapshot
	if err := s.stateCache.GetState(r.Context(), playerID, &cached); err == nil {
		writeJSON(w, http.StatusOK, &cached)
		return
	}

	sess, ok := s.service.Session(playerID)
	if !ok {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}
	snap := sess.Snapshot()
	if err := s.stateCache.SetState(r.Context(), playerID, snap); err != nil {
		s.log.Warn("Failed to cache state for %s: %v", playerID, err)
	}
	writeJSON(w, http.StatusOK, snap)
}

// snapshotLoop periodically flushes every active session to storage.
func (s *server) snapshotLoop(ctx context.Context) error {
	interval := time.Duration(s.tun.SnapshotEverySeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.saveAll(ctx)
		}
	}
}

func (s *server) saveAll(ctx context.Context) {
	s.service.Each(func(sess *engine.Session) {
		if err := storage.SaveSession(ctx, s.players, sess); err != nil {
			s.log.Error("Snapshot save failed for %s: %v", sess.PlayerID(), err)
			return
		}
		_ = s.stateCache.Invalidate(ctx, sess.PlayerID())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
