package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/pcslave/credential-phishing-detection/internal/adapter/controller/http/handlers"
	"github.com/pcslave/credential-phishing-detection/internal/adapter/controller/http/middleware"
	"github.com/pcslave/credential-phishing-detection/internal/adapter/external/facts"
	"github.com/pcslave/credential-phishing-detection/internal/adapter/external/reputation"
	"github.com/pcslave/credential-phishing-detection/internal/adapter/repository/sqlite"
	"github.com/pcslave/credential-phishing-detection/internal/config"
	"github.com/pcslave/credential-phishing-detection/internal/domain/evidence"
	"github.com/pcslave/credential-phishing-detection/internal/domain/scoring"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/analysis"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/lists"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := config.SetupLogger(cfg)
	logger.Info("Starting phishing detection API",
		"env", cfg.App.Env,
		"port", cfg.App.Port,
	)

	// Storage
	store, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()
	if err := store.Init(initCtx); err != nil {
		logger.Error("Failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// List management + seeds
	listsSvc := lists.NewService(store, logger)
	if err := listsSvc.SeedFromFiles(initCtx, cfg.Lists.BlacklistSeedPath, cfg.Lists.WhitelistSeedPath); err != nil {
		logger.Warn("Failed to load list seeds", "error", err)
	}

	// External reputation fan-out
	aggregator := reputation.NewAggregator(
		buildClients(cfg),
		reputation.Options{
			PerCallTimeout: cfg.Reputation.PerCallTimeout,
			GlobalBudget:   cfg.Reputation.GlobalBudget,
		},
		logger,
	)
	for _, p := range aggregator.Status() {
		logger.Info("reputation provider enabled", "provider", p.Name)
	}

	// Evidence providers
	certs := facts.NewCertProber(cfg.Analysis.EvidenceTimeout)
	ages := facts.NewRDAPClient("", cfg.Analysis.EvidenceTimeout)
	providers := []evidence.Provider{
		evidence.IPLiteralProvider{},
		evidence.SimilarityProvider{Whitelist: store},
		evidence.BlacklistProvider{Lists: store},
		evidence.CertificateProvider{Certs: certs},
		evidence.DomainAgeProvider{Ages: ages},
		evidence.URLStructureProvider{},
	}

	// Analysis service
	analysisSvc := analysis.NewService(analysis.Config{
		Providers:  providers,
		Aggregator: aggregator,
		Scorer: scoring.New(scoring.Thresholds{
			High:   cfg.Analysis.ThresholdHigh,
			Medium: cfg.Analysis.ThresholdMedium,
		}),
		Whitelist:       store,
		Audit:           store,
		CacheTTL:        cfg.Analysis.CacheTTL,
		CacheSize:       cfg.Analysis.CacheSize,
		EvidenceTimeout: cfg.Analysis.EvidenceTimeout,
		Logger:          logger,
	})

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Health check
	r.Get("/health", handlers.HealthCheck(cfg, analysisSvc, listsSvc))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/analyze", handlers.Analyze(analysisSvc))
		r.Post("/analyze", handlers.Analyze(analysisSvc))
		r.Get("/providers", handlers.Providers(analysisSvc))
		r.Post("/cache/flush", handlers.FlushCache(analysisSvc))
		r.Get("/audit", handlers.RecentAudits(store))

		r.Route("/blacklist", func(r chi.Router) {
			r.Get("/", handlers.GetBlacklist(listsSvc))
			r.Post("/", handlers.AddBlacklist(listsSvc))
			r.Delete("/{domain}", handlers.RemoveBlacklist(listsSvc))
		})
		r.Get("/whitelist", handlers.GetWhitelist(listsSvc))
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// buildClients constructs the configured external reputation clients.
// New services are added here as new variants, not by runtime dispatch.
func buildClients(cfg *config.Config) []reputation.Client {
	rep := cfg.Reputation
	var clients []reputation.Client
	if rep.UseSafeBrowsing {
		clients = append(clients, reputation.NewSafeBrowsingClient(reputation.SafeBrowsingConfig{
			APIKey:      rep.SafeBrowsingKey,
			MinInterval: rep.RateLimitDelay,
		}))
	}
	if rep.UseVirusTotal {
		clients = append(clients, reputation.NewVirusTotalClient(reputation.VirusTotalConfig{
			APIKey:      rep.VirusTotalKey,
			MinInterval: rep.RateLimitDelay,
		}))
	}
	if rep.UsePhishTank {
		clients = append(clients, reputation.NewPhishTankClient(reputation.PhishTankConfig{
			AppKey:      rep.PhishTankAppKey,
			MinInterval: rep.RateLimitDelay,
		}))
	}
	if rep.UseURLhaus {
		clients = append(clients, reputation.NewURLhausClient(reputation.URLhausConfig{
			APIKey:      rep.URLhausKey,
			MinInterval: rep.RateLimitDelay,
		}))
	}
	return clients
}
