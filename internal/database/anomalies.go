package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Anomaly is one observed malformed or unusual header.
type Anomaly struct {
	ID         int64     `json:"id"`
	ObservedAt time.Time `json:"observed_at"`
	Transport  string    `json:"transport"`
	Client     string    `json:"client"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
	RawPrefix  string    `json:"raw_prefix"` // Hex of the first bytes of the message
	BitOffset  int       `json:"bit_offset"` // Bit position of the failure, -1 if not applicable
}

// AnomalyFilter narrows ListAnomalies results. Zero values mean "no filter".
type AnomalyFilter struct {
	Kind  string
	Since time.Time
	Limit int
}

// RecordAnomaly appends one anomaly to the log.
func (db *DB) RecordAnomaly(ctx context.Context, a Anomaly) error {
	observedAt := a.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO anomalies (observed_at, transport, client, kind, detail, raw_prefix, bit_offset)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, observedAt.Unix(), a.Transport, a.Client, a.Kind, a.Detail, a.RawPrefix, a.BitOffset)
	if err != nil {
		return fmt.Errorf("failed to record anomaly: %w", err)
	}
	return nil
}

// ListAnomalies returns anomalies matching the filter, most recent first.
func (db *DB) ListAnomalies(ctx context.Context, f AnomalyFilter) ([]Anomaly, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "observed_at >= ?")
		args = append(args, f.Since.Unix())
	}

	query := "SELECT id, observed_at, transport, client, kind, detail, raw_prefix, bit_offset FROM anomalies"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY observed_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	var out []Anomaly
	for rows.Next() {
		var (
			a    Anomaly
			unix int64
		)
		if err := rows.Scan(&a.ID, &unix, &a.Transport, &a.Client, &a.Kind, &a.Detail, &a.RawPrefix, &a.BitOffset); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.ObservedAt = time.Unix(unix, 0)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomalies: %w", err)
	}
	return out, nil
}

// SummarizeAnomalies returns per-kind counts since the given time.
// A zero since summarizes the whole log.
func (db *DB) SummarizeAnomalies(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := "SELECT kind, COUNT(*) FROM anomalies"
	var args []any
	if !since.IsZero() {
		query += " WHERE observed_at >= ?"
		args = append(args, since.Unix())
	}
	query += " GROUP BY kind"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize anomalies: %w", err)
	}
	defer rows.Close()

	summary := map[string]int64{}
	for rows.Next() {
		var (
			kind  string
			count int64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly summary: %w", err)
		}
		summary[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomaly summary: %w", err)
	}
	return summary, nil
}

// PurgeAnomaliesBefore deletes anomalies observed before the cutoff and
// returns the number removed.
func (db *DB) PurgeAnomaliesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM anomalies WHERE observed_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge anomalies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged anomalies: %w", err)
	}
	return n, nil
}
