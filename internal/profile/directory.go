// Package profile looks up the users a filing firm has pre-registered.
// Import uses them to tag matching company applicants.
package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/intake/internal/core"
)

// Querier is the read-only subset of pgxpool.Pool used by PgDirectory.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const authorizedUsersSQL = `
SELECT id::text, full_name
FROM firm_authorized_users
WHERE firm_id = $1 AND active
ORDER BY full_name`

// PgDirectory reads authorized users from the profile database.
type PgDirectory struct {
	db      Querier
	timeout time.Duration
}

// NewPgDirectory wraps db. A zero timeout leaves queries bounded only by
// the caller's context.
func NewPgDirectory(db Querier, timeout time.Duration) *PgDirectory {
	return &PgDirectory{db: db, timeout: timeout}
}

// AuthorizedUsers implements core.FirmDirectory.
func (d *PgDirectory) AuthorizedUsers(ctx context.Context, firmID string) ([]core.FirmUser, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	rows, err := d.db.Query(ctx, authorizedUsersSQL, firmID)
	if err != nil {
		return nil, fmt.Errorf("query authorized users for firm %s: %w", firmID, err)
	}
	defer rows.Close()

	var users []core.FirmUser
	for rows.Next() {
		var u core.FirmUser
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan authorized user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read authorized users: %w", err)
	}
	return users, nil
}

// PoolConfig sizes the profile connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
}

// Connect opens and pings a pgx pool for the profile database.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse profile database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect profile database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping profile database: %w", err)
	}
	return pool, nil
}

// StaticDirectory is an in-memory directory keyed by firm ID. The zero
// value has no users; the server falls back to it without a database.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string][]core.FirmUser
}

// NewStaticDirectory returns a directory seeded with users by firm.
func NewStaticDirectory(users map[string][]core.FirmUser) *StaticDirectory {
	d := &StaticDirectory{}
	for firm, list := range users {
		d.Set(firm, list)
	}
	return d
}

// Set replaces the users of a firm.
func (d *StaticDirectory) Set(firmID string, users []core.FirmUser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.users == nil {
		d.users = make(map[string][]core.FirmUser)
	}
	list := append([]core.FirmUser(nil), users...)
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	d.users[firmID] = list
}

// AuthorizedUsers implements core.FirmDirectory.
func (d *StaticDirectory) AuthorizedUsers(_ context.Context, firmID string) ([]core.FirmUser, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]core.FirmUser(nil), d.users[firmID]...), nil
}
