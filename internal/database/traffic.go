package database

import (
	"context"
	"fmt"
	"time"
)

// TrafficPoint is one minute of counters for one transport.
type TrafficPoint struct {
	Bucket    time.Time `json:"bucket"` // Start of the minute
	Transport string    `json:"transport"`
	Headers   int64     `json:"headers"`   // Headers decoded successfully
	Queries   int64     `json:"queries"`   // Decoded headers with QR=0
	Responses int64     `json:"responses"` // Decoded headers with QR=1
	Malformed int64     `json:"malformed"` // Messages that failed to decode
	Responded int64     `json:"responded"` // Error replies sent back
	Matched   int64     `json:"matched"`   // Responses correlated to a query
}

// AddTraffic folds the counters of p into its minute bucket, creating the
// row on first sight.
func (db *DB) AddTraffic(ctx context.Context, p TrafficPoint) error {
	bucket := p.Bucket.Truncate(time.Minute)

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO traffic_minutes (bucket, transport, headers, queries, responses, malformed, responded, matched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bucket, transport) DO UPDATE SET
			headers   = headers + excluded.headers,
			queries   = queries + excluded.queries,
			responses = responses + excluded.responses,
			malformed = malformed + excluded.malformed,
			responded = responded + excluded.responded,
			matched   = matched + excluded.matched
	`, bucket.Unix(), p.Transport, p.Headers, p.Queries, p.Responses, p.Malformed, p.Responded, p.Matched)
	if err != nil {
		return fmt.Errorf("failed to add traffic: %w", err)
	}
	return nil
}

// ListTraffic returns per-minute points in [since, until), oldest first.
// A zero until means "now".
func (db *DB) ListTraffic(ctx context.Context, since, until time.Time) ([]TrafficPoint, error) {
	if until.IsZero() {
		until = time.Now().Add(time.Minute)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT bucket, transport, headers, queries, responses, malformed, responded, matched
		FROM traffic_minutes
		WHERE bucket >= ? AND bucket < ?
		ORDER BY bucket ASC, transport ASC
	`, since.Unix(), until.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list traffic: %w", err)
	}
	defer rows.Close()

	var out []TrafficPoint
	for rows.Next() {
		var (
			p    TrafficPoint
			unix int64
		)
		if err := rows.Scan(&unix, &p.Transport, &p.Headers, &p.Queries, &p.Responses, &p.Malformed, &p.Responded, &p.Matched); err != nil {
			return nil, fmt.Errorf("failed to scan traffic point: %w", err)
		}
		p.Bucket = time.Unix(unix, 0)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate traffic: %w", err)
	}
	return out, nil
}

// PurgeTrafficBefore deletes buckets older than the cutoff and returns the
// number removed.
func (db *DB) PurgeTrafficBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM traffic_minutes WHERE bucket < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge traffic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged traffic: %w", err)
	}
	return n, nil
}
