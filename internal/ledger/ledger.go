// Package ledger persists a durable record of every container launch the
// launcher submits, so operators can reconstruct what ran where with which
// settings after the fact.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Launch is one submitted container launch.
type Launch struct {
	LaunchID       string
	AppID          string
	RequestedBy    string
	MemoryBudgetMB int
	HeapLimitMB    int
	ResourceKeys   []string
	CreatedAt      time.Time
}

var ErrDuplicateLaunch = errors.New("launch already recorded")

func (l Launch) Validate() error {
	if strings.TrimSpace(l.LaunchID) == "" {
		return errors.New("LaunchID is required")
	}
	if strings.TrimSpace(l.AppID) == "" {
		return errors.New("AppID is required")
	}
	if strings.TrimSpace(l.RequestedBy) == "" {
		return errors.New("RequestedBy is required")
	}
	if l.MemoryBudgetMB <= 0 {
		return errors.New("MemoryBudgetMB must be positive")
	}
	if l.HeapLimitMB <= 0 || l.HeapLimitMB > l.MemoryBudgetMB {
		return errors.New("HeapLimitMB must be positive and within the memory budget")
	}
	return nil
}

type DB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Insert records a launch and returns its creation time. A replayed
// launch id reports ErrDuplicateLaunch instead of a second row.
func Insert(ctx context.Context, db DB, launch Launch) (time.Time, error) {
	if db == nil {
		return time.Time{}, errors.New("db is required")
	}
	if launch.CreatedAt.IsZero() {
		launch.CreatedAt = time.Now().UTC()
	}
	if err := launch.Validate(); err != nil {
		return time.Time{}, err
	}

	resourceKeys, err := json.Marshal(launch.ResourceKeys)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal resource keys: %w", err)
	}

	var createdAt time.Time
	err = db.QueryRowContext(
		ctx,
		`INSERT INTO launches (
			launch_id,
			app_id,
			requested_by,
			memory_budget_mb,
			heap_limit_mb,
			resource_keys,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		strings.TrimSpace(launch.LaunchID),
		strings.TrimSpace(launch.AppID),
		strings.TrimSpace(launch.RequestedBy),
		launch.MemoryBudgetMB,
		launch.HeapLimitMB,
		resourceKeys,
		launch.CreatedAt.UTC(),
	).Scan(&createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return time.Time{}, ErrDuplicateLaunch
		}
		return time.Time{}, fmt.Errorf("insert launch: %w", err)
	}
	return createdAt, nil
}

// List returns the most recent launches, newest first.
func List(ctx context.Context, db DB, limit int) ([]Launch, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := db.QueryContext(
		ctx,
		`SELECT launch_id, app_id, requested_by, memory_budget_mb, heap_limit_mb, resource_keys, created_at
		 FROM launches
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	defer rows.Close()

	out := make([]Launch, 0, limit)
	for rows.Next() {
		var (
			launch       Launch
			resourceKeys []byte
		)
		if err := rows.Scan(&launch.LaunchID, &launch.AppID, &launch.RequestedBy, &launch.MemoryBudgetMB, &launch.HeapLimitMB, &resourceKeys, &launch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		if len(resourceKeys) > 0 {
			if err := json.Unmarshal(resourceKeys, &launch.ResourceKeys); err != nil {
				return nil, fmt.Errorf("decode resource keys: %w", err)
			}
		}
		out = append(out, launch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
