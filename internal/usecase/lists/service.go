// Package lists manages the local blacklist and the curated whitelist.
package lists

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pcslave/credential-phishing-detection/internal/domain/urlkey"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// Repository is the persistence interface for both lists.
type Repository interface {
	IsBlacklisted(ctx context.Context, domain string) (bool, error)
	AddBlacklist(ctx context.Context, domain, source string) error
	RemoveBlacklist(ctx context.Context, domain string) (bool, error)
	BlacklistEntries(ctx context.Context) ([]entity.BlacklistEntry, error)
	IsWhitelisted(ctx context.Context, domain string) (bool, error)
	WhitelistDomains(ctx context.Context) ([]string, error)
	AddWhitelist(ctx context.Context, domain string) error
	Seed(ctx context.Context, blacklist, whitelist []string) error
	Stats(ctx context.Context) (entity.ListStats, error)
}

// Service handles list management business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a lists service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// AddToBlacklist normalizes and stores a domain.
func (s *Service) AddToBlacklist(ctx context.Context, domain, source string) error {
	target, err := urlkey.Normalize(domain, "")
	if err != nil {
		return err
	}
	if err := s.repo.AddBlacklist(ctx, target.Registrable, source); err != nil {
		return err
	}
	s.logger.Info("domain added to blacklist", "domain", target.Registrable, "source", source)
	return nil
}

// RemoveFromBlacklist removes a domain, reporting whether it was present.
func (s *Service) RemoveFromBlacklist(ctx context.Context, domain string) (bool, error) {
	target, err := urlkey.Normalize(domain, "")
	if err != nil {
		return false, err
	}
	removed, err := s.repo.RemoveBlacklist(ctx, target.Registrable)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("domain removed from blacklist", "domain", target.Registrable)
	}
	return removed, nil
}

// Blacklist returns every blacklist entry.
func (s *Service) Blacklist(ctx context.Context) ([]entity.BlacklistEntry, error) {
	return s.repo.BlacklistEntries(ctx)
}

// Whitelist returns every curated trusted domain.
func (s *Service) Whitelist(ctx context.Context) ([]string, error) {
	return s.repo.WhitelistDomains(ctx)
}

// Stats counts both lists.
func (s *Service) Stats(ctx context.Context) (entity.ListStats, error) {
	return s.repo.Stats(ctx)
}

// seedFile is the on-disk shape of a list seed.
type seedFile struct {
	Description string   `yaml:"description"`
	Domains     []string `yaml:"domains"`
}

// SeedFromFiles loads the seed files into the repository, skipping rows
// that already exist. Missing files are not an error; the lists just start
// empty.
func (s *Service) SeedFromFiles(ctx context.Context, blacklistPath, whitelistPath string) error {
	blacklist, err := readSeed(blacklistPath)
	if err != nil {
		return fmt.Errorf("blacklist seed: %w", err)
	}
	whitelist, err := readSeed(whitelistPath)
	if err != nil {
		return fmt.Errorf("whitelist seed: %w", err)
	}
	if len(blacklist) == 0 && len(whitelist) == 0 {
		return nil
	}
	if err := s.repo.Seed(ctx, blacklist, whitelist); err != nil {
		return err
	}
	s.logger.Info("list seeds loaded",
		"blacklist", len(blacklist),
		"whitelist", len(whitelist),
	)
	return nil
}

func readSeed(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return seed.Domains, nil
}
