package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Analysis   AnalysisConfig
	Reputation ReputationConfig
	Lists      ListsConfig
}

type AppConfig struct {
	Env  string
	Port int
	Host string
}

type DatabaseConfig struct {
	DSN string
}

type AnalysisConfig struct {
	CacheTTL        time.Duration
	CacheSize       int
	EvidenceTimeout time.Duration
	ThresholdHigh   int
	ThresholdMedium int
}

type ReputationConfig struct {
	// Per-provider enablement. A provider missing its key counts as
	// disabled regardless of the flag.
	UseSafeBrowsing bool
	SafeBrowsingKey string
	UseVirusTotal   bool
	VirusTotalKey   string
	UsePhishTank    bool
	PhishTankAppKey string
	UseURLhaus      bool
	URLhausKey      string

	PerCallTimeout time.Duration
	GlobalBudget   time.Duration
	RateLimitDelay time.Duration
}

type ListsConfig struct {
	BlacklistSeedPath string
	WhitelistSeedPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/etc/phishing-detection")

	viper.AutomaticEnv()

	bindEnvVars()
	setDefaults()

	// Config file is optional; env vars and defaults are enough.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Error reading config file", "error", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetInt("APP_PORT"),
			Host: viper.GetString("APP_HOST"),
		},
		Database: DatabaseConfig{
			DSN: viper.GetString("DATABASE_DSN"),
		},
		Analysis: AnalysisConfig{
			CacheTTL:        viper.GetDuration("ANALYSIS_CACHE_TTL"),
			CacheSize:       viper.GetInt("ANALYSIS_CACHE_SIZE"),
			EvidenceTimeout: viper.GetDuration("ANALYSIS_EVIDENCE_TIMEOUT"),
			ThresholdHigh:   viper.GetInt("ANALYSIS_THRESHOLD_HIGH"),
			ThresholdMedium: viper.GetInt("ANALYSIS_THRESHOLD_MEDIUM"),
		},
		Reputation: ReputationConfig{
			UseSafeBrowsing: viper.GetBool("USE_SAFE_BROWSING"),
			SafeBrowsingKey: viper.GetString("SAFE_BROWSING_API_KEY"),
			UseVirusTotal:   viper.GetBool("USE_VIRUSTOTAL"),
			VirusTotalKey:   viper.GetString("VIRUSTOTAL_API_KEY"),
			UsePhishTank:    viper.GetBool("USE_PHISHTANK"),
			PhishTankAppKey: viper.GetString("PHISHTANK_APP_KEY"),
			UseURLhaus:      viper.GetBool("USE_URLHAUS"),
			URLhausKey:      viper.GetString("URLHAUS_API_KEY"),
			PerCallTimeout:  viper.GetDuration("REPUTATION_TIMEOUT"),
			GlobalBudget:    viper.GetDuration("REPUTATION_GLOBAL_BUDGET"),
			RateLimitDelay:  viper.GetDuration("REPUTATION_RATE_LIMIT"),
		},
		Lists: ListsConfig{
			BlacklistSeedPath: viper.GetString("BLACKLIST_SEED_PATH"),
			WhitelistSeedPath: viper.GetString("WHITELIST_SEED_PATH"),
		},
	}

	return config, nil
}

func bindEnvVars() {
	// App
	viper.BindEnv("APP_ENV")
	viper.BindEnv("APP_PORT")
	viper.BindEnv("APP_HOST")

	// Database
	viper.BindEnv("DATABASE_DSN")

	// Analysis
	viper.BindEnv("ANALYSIS_CACHE_TTL")
	viper.BindEnv("ANALYSIS_CACHE_SIZE")
	viper.BindEnv("ANALYSIS_EVIDENCE_TIMEOUT")
	viper.BindEnv("ANALYSIS_THRESHOLD_HIGH")
	viper.BindEnv("ANALYSIS_THRESHOLD_MEDIUM")

	// Reputation providers
	viper.BindEnv("USE_SAFE_BROWSING")
	viper.BindEnv("SAFE_BROWSING_API_KEY")
	viper.BindEnv("USE_VIRUSTOTAL")
	viper.BindEnv("VIRUSTOTAL_API_KEY")
	viper.BindEnv("USE_PHISHTANK")
	viper.BindEnv("PHISHTANK_APP_KEY")
	viper.BindEnv("USE_URLHAUS")
	viper.BindEnv("URLHAUS_API_KEY")
	viper.BindEnv("REPUTATION_TIMEOUT")
	viper.BindEnv("REPUTATION_GLOBAL_BUDGET")
	viper.BindEnv("REPUTATION_RATE_LIMIT")

	// Lists
	viper.BindEnv("BLACKLIST_SEED_PATH")
	viper.BindEnv("WHITELIST_SEED_PATH")
}

func setDefaults() {
	// App defaults
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_HOST", "0.0.0.0")

	// Database defaults
	viper.SetDefault("DATABASE_DSN", "file:phishing.db?_pragma=busy_timeout(5000)")

	// Analysis defaults
	viper.SetDefault("ANALYSIS_CACHE_TTL", time.Hour)
	viper.SetDefault("ANALYSIS_CACHE_SIZE", 4096)
	viper.SetDefault("ANALYSIS_EVIDENCE_TIMEOUT", time.Second)
	viper.SetDefault("ANALYSIS_THRESHOLD_HIGH", 70)
	viper.SetDefault("ANALYSIS_THRESHOLD_MEDIUM", 40)

	// Reputation defaults
	viper.SetDefault("REPUTATION_TIMEOUT", 3*time.Second)
	viper.SetDefault("REPUTATION_GLOBAL_BUDGET", 3*time.Second)
	viper.SetDefault("REPUTATION_RATE_LIMIT", 200*time.Millisecond)

	// Lists defaults
	viper.SetDefault("BLACKLIST_SEED_PATH", "data/blacklist.yaml")
	viper.SetDefault("WHITELIST_SEED_PATH", "data/whitelist.yaml")
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func SetupLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
