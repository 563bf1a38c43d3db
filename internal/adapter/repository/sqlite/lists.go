package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// IsBlacklisted reports whether the domain is in the local blacklist.
func (s *Store) IsBlacklisted(ctx context.Context, domain string) (bool, error) {
	return s.exists(ctx, "blacklist", domain)
}

// IsWhitelisted reports whether the domain is in the curated whitelist.
func (s *Store) IsWhitelisted(ctx context.Context, domain string) (bool, error) {
	return s.exists(ctx, "whitelist", domain)
}

func (s *Store) exists(ctx context.Context, table, domain string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM `+table+` WHERE domain = ?`, strings.ToLower(domain),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", table, err)
	}
	return true, nil
}

// WhitelistDomains returns every curated trusted domain, the reference set
// for the similarity check.
func (s *Store) WhitelistDomains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain FROM whitelist ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("query whitelist: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan whitelist: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// AddBlacklist inserts a domain into the blacklist. Adding an existing
// domain is a no-op.
func (s *Store) AddBlacklist(ctx context.Context, domain, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blacklist (domain, source, added_at) VALUES (?, ?, ?)`,
		strings.ToLower(domain), source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("add blacklist: %w", err)
	}
	return nil
}

// RemoveBlacklist deletes a domain from the blacklist and reports whether
// an entry was removed.
func (s *Store) RemoveBlacklist(ctx context.Context, domain string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM blacklist WHERE domain = ?`, strings.ToLower(domain),
	)
	if err != nil {
		return false, fmt.Errorf("remove blacklist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BlacklistEntries returns the full blacklist.
func (s *Store) BlacklistEntries(ctx context.Context) ([]entity.BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, source, added_at FROM blacklist ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()

	var entries []entity.BlacklistEntry
	for rows.Next() {
		var e entity.BlacklistEntry
		var addedAt string
		if err := rows.Scan(&e.Domain, &e.Source, &addedAt); err != nil {
			return nil, fmt.Errorf("scan blacklist: %w", err)
		}
		e.AddedAt, _ = time.Parse(time.RFC3339, addedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddWhitelist inserts a domain into the curated whitelist.
func (s *Store) AddWhitelist(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO whitelist (domain, added_at) VALUES (?, ?)`,
		strings.ToLower(domain), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("add whitelist: %w", err)
	}
	return nil
}

// Seed loads the given domains into a list table, skipping existing rows.
// Used at startup to populate empty tables from the seed files.
func (s *Store) Seed(ctx context.Context, blacklist, whitelist []string) error {
	for _, d := range blacklist {
		if err := s.AddBlacklist(ctx, d, "seed"); err != nil {
			return err
		}
	}
	for _, d := range whitelist {
		if err := s.AddWhitelist(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Stats counts both list tables.
func (s *Store) Stats(ctx context.Context) (entity.ListStats, error) {
	var stats entity.ListStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blacklist`).Scan(&stats.BlacklistCount); err != nil {
		return stats, fmt.Errorf("count blacklist: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whitelist`).Scan(&stats.WhitelistCount); err != nil {
		return stats, fmt.Errorf("count whitelist: %w", err)
	}
	return stats, nil
}
