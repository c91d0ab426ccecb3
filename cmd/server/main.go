package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/campusfind/campusfind/config"
	"github.com/campusfind/campusfind/internal/ai"
	"github.com/campusfind/campusfind/internal/alerts"
	"github.com/campusfind/campusfind/internal/auth"
	"github.com/campusfind/campusfind/internal/campus"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/internal/lifecycle"
	"github.com/campusfind/campusfind/internal/match"
	"github.com/campusfind/campusfind/internal/surveillance"
	"github.com/campusfind/campusfind/internal/web/handlers"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const (
	pickupSweepInterval = 15 * time.Minute
	stalePickupAge      = 24 * time.Hour
	sessionSweepEvery   = time.Hour
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("campusfind-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg := config.Load()

	if cfg.Session.Secret == "" {
		log.Println("WARNING: SESSION_SECRET is empty — using insecure default (set SESSION_SECRET in production)")
		cfg.Session.Secret = "insecure-dev-secret-change-me"
	}

	// Initialize SQLite database.
	db, err := database.New(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize the AI provider. An empty AI_PROVIDER runs in fallback
	// mode: no external calls, fixed analysis results, plain text search.
	provider, err := ai.NewProvider(ai.ConfigFromApp(cfg.AI))
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	log.Printf("AI provider: %s", provider.Name())

	// Load the campus hub and timetable directory.
	campusDir, err := campus.Load(cfg.Campus.HubsPath)
	if err != nil {
		log.Fatalf("Failed to load campus directory: %v", err)
	}

	// Initialize the alert outbox when Kafka brokers are configured.
	var publisher *alerts.Publisher
	var alertSink lifecycle.AlertPublisher
	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		publisher = alerts.NewPublisher(brokers)
		defer publisher.Close()
		alertSink = publisher
		log.Printf("Alert outbox enabled (brokers=%s)", cfg.Alerts.Brokers)
	}

	// Initialize services.
	authService := auth.New(db, time.Duration(cfg.Session.MaxAge)*time.Second)
	lifecycleService := lifecycle.New(db, alertSink, cfg.Lockout)
	matchService := match.New(db, provider)
	scanner := surveillance.New(db, provider, parseFeeds(cfg.Cameras.Feeds))

	// Initialize router.
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h := handlers.New(db, authService, lifecycleService, matchService, scanner,
		provider, campusDir, cfg.Server.Env == "production")
	h.Routes(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background maintenance: flag stale pickups and drop expired sessions.
	go runSweeps(ctx, lifecycleService, authService)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("CampusFind server starting on %s (env: %s)", addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// runSweeps drives the periodic maintenance loops until ctx is cancelled.
func runSweeps(ctx context.Context, lifecycleService *lifecycle.Service, authService *auth.Service) {
	pickups := time.NewTicker(pickupSweepInterval)
	defer pickups.Stop()
	sessions := time.NewTicker(sessionSweepEvery)
	defer sessions.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pickups.C:
			flagged, err := lifecycleService.SweepStalePickups(ctx, stalePickupAge)
			if err != nil {
				log.Printf("Error sweeping stale pickups: %v", err)
			} else if flagged > 0 {
				log.Printf("Flagged %d stale pickup(s)", flagged)
			}
		case <-sessions.C:
			if err := authService.CleanExpiredSessions(); err != nil {
				log.Printf("Error cleaning expired sessions: %v", err)
			}
		}
	}
}

// parseFeeds turns the SURVEILLANCE_FEEDS value ("id|name|url;...") into
// camera feeds whose frames are fetched over HTTP. Malformed entries are
// logged and skipped.
func parseFeeds(spec string) []surveillance.Feed {
	if spec == "" {
		return nil
	}
	client := &http.Client{Timeout: 10 * time.Second}

	var feeds []surveillance.Feed
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 3)
		if len(parts) != 3 {
			log.Printf("Skipping malformed feed entry %q", entry)
			continue
		}
		url := parts[2]
		feeds = append(feeds, surveillance.Feed{
			ID:     parts[0],
			Name:   parts[1],
			Active: true,
			Source: func(ctx context.Context) ([]byte, error) {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
				if err != nil {
					return nil, err
				}
				resp, err := client.Do(req)
				if err != nil {
					return nil, err
				}
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return nil, fmt.Errorf("feed snapshot returned status %d", resp.StatusCode)
				}
				return io.ReadAll(resp.Body)
			},
		})
	}
	return feeds
}
