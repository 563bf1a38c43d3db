package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// SaveAudit persists one analysis outcome. Only the audit-safe subset of
// the result is stored, never raw signal internals.
func (s *Store) SaveAudit(ctx context.Context, rec entity.AuditRecord) error {
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_audit (id, key, tier, score, decision_source, reasons_json, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Key, string(rec.Tier), rec.Score, rec.DecisionSource,
		string(reasons), rec.ComputedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save audit: %w", err)
	}
	return nil
}

// RecentAudits returns the most recent analysis outcomes, newest first.
func (s *Store) RecentAudits(ctx context.Context, limit int) ([]entity.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, tier, score, decision_source, reasons_json, computed_at
		FROM analysis_audit ORDER BY computed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var records []entity.AuditRecord
	for rows.Next() {
		var rec entity.AuditRecord
		var tier, reasons, computedAt string
		if err := rows.Scan(&rec.ID, &rec.Key, &tier, &rec.Score, &rec.DecisionSource, &reasons, &computedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		rec.Tier = entity.RiskTier(tier)
		if err := json.Unmarshal([]byte(reasons), &rec.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
		rec.ComputedAt, _ = time.Parse(time.RFC3339Nano, computedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
