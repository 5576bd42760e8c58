// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// sqlitePragmas make concurrent writers wait for each other instead of
// failing, and start write transactions with the write lock held.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(wal)&_txlock=immediate&_time_format=sqlite"

// Open connects to PostgreSQL ("postgres") or SQLite ("sqlite") and
// verifies the connection. SQLite URLs without query parameters get the
// default pragmas.
func Open(ctx context.Context, databaseType, url string) (*sql.DB, error) {
	driver, dsn, err := dataSource(databaseType, url)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", databaseType, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", databaseType, err)
	}

	return conn, nil
}

func dataSource(databaseType, url string) (driver, dsn string, err error) {
	switch databaseType {
	case "postgres":
		return "postgres", url, nil
	case "sqlite":
		if strings.Contains(url, "?") {
			return "sqlite", url, nil
		}
		if !strings.HasPrefix(url, "file:") {
			url = "file:" + url
		}
		return "sqlite", url + "?" + sqlitePragmas, nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", databaseType)
	}
}
