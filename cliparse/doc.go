// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Values are layered, later sources winning:

 1. defaults from struct tags
 2. .env in the working directory (godotenv, never overrides the environment)
 3. environment variables (envconfig)
 4. command-line flags

# Settings

	PORT             -p          default 3318
	DATABASE_URL     -d          required
	DATABASE_TYPE    -t          sqlite (default) or postgres
	ADMIN_KEY_SALT   -admin-salt required
	EVENT_SLUG_SALT  -slug-salt  required
	LOG_LEVEL        -log-level  default info

Prefer the environment for the two salts; the flags exist for local runs.
*/
package cliparse
