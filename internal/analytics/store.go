package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the store needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const writeTimeout = 5 * time.Second

// Store persists search analytics to Postgres. Writes are advisory: a lost
// log line must never affect a search response.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates an analytics store.
func NewStore(db DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// LogSearch records a search outcome without blocking the caller. The write
// runs on a detached context so a cancelled request does not abort it;
// failures are logged and swallowed.
func (s *Store) LogSearch(ctx context.Context, query string, hasResults bool) {
	sessionID, _ := ctx.Value(sessionIDKey{}).(string)
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		if err := s.Insert(writeCtx, query, hasResults, sessionID); err != nil {
			s.logger.Warn("search log write failed",
				slog.String("query", query),
				slog.String("error", err.Error()))
		}
	}()
}

type sessionIDKey struct{}

// WithSessionID tags the context with the searcher's session for attribution.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// Insert writes one search log row synchronously.
func (s *Store) Insert(ctx context.Context, query string, hasResults bool, sessionID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO search_logs (id, query, has_results, session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), query, hasResults, sessionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// QueryCount is an aggregated search term with its frequency.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// TopQueries returns the most frequent search terms within the window,
// ordered by frequency.
func (s *Store) TopQueries(ctx context.Context, since time.Time, limit, offset int) ([]QueryCount, error) {
	return s.aggregate(ctx,
		`SELECT query, COUNT(*) AS cnt FROM search_logs
		 WHERE created_at >= $1
		 GROUP BY query ORDER BY cnt DESC LIMIT $2 OFFSET $3`,
		since, limit, offset)
}

// ZeroResultQueries returns the most frequent terms that found nothing.
// This is the merchandising signal the search log exists for.
func (s *Store) ZeroResultQueries(ctx context.Context, since time.Time, limit, offset int) ([]QueryCount, error) {
	return s.aggregate(ctx,
		`SELECT query, COUNT(*) AS cnt FROM search_logs
		 WHERE created_at >= $1 AND has_results = false
		 GROUP BY query ORDER BY cnt DESC LIMIT $2 OFFSET $3`,
		since, limit, offset)
}

// DistinctQueries counts the distinct terms within the window, optionally
// restricted to zero-result searches.
func (s *Store) DistinctQueries(ctx context.Context, since time.Time, zeroOnly bool) (int, error) {
	sql := `SELECT COUNT(DISTINCT query) FROM search_logs WHERE created_at >= $1`
	if zeroOnly {
		sql += ` AND has_results = false`
	}

	rows, err := s.db.Query(ctx, sql, since)
	if err != nil {
		return 0, fmt.Errorf("count search log queries: %w", err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("scan search log count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read search log count: %w", err)
	}
	return count, nil
}

func (s *Store) aggregate(ctx context.Context, sql string, since time.Time, limit, offset int) ([]QueryCount, error) {
	rows, err := s.db.Query(ctx, sql, since, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query search logs: %w", err)
	}
	defer rows.Close()

	var out []QueryCount
	for rows.Next() {
		var qc QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count); err != nil {
			return nil, fmt.Errorf("scan search log aggregate: %w", err)
		}
		out = append(out, qc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read search log aggregates: %w", err)
	}
	return out, nil
}
