// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly QV API server.

Quickly QV runs quadratic voting events: each participant spreads a
credit budget across options, and n votes on one option cost n² credits.

# Starting the Server

	DATABASE_URL=qv.db ADMIN_KEY_SALT=... EVENT_SLUG_SALT=... go run .

Or with flags, against PostgreSQL:

	go run . -t postgres -d "postgres://..." -admin-salt ... -slug-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - EVENT_SLUG_SALT (-slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - LOG_LEVEL (-log-level): debug, info, warn, error

A .env file in the working directory is read first.

# Architecture

  - credits: quadratic cost model
  - voting: ballot validation, voter resolution, settlement
  - results: aggregation and CSV export
  - db: schema and the SQL store
  - handlers, router, middleware: HTTP surface
  - metrics: Prometheus collectors served on /metrics
  - auth: admin keys, share slugs, access tokens
  - cliparse: configuration parsing
*/
package main
