// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin keys, access tokens and share slugs.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(eventID, salt)
	err := auth.ValidateAdminKey(eventID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same event ID and salt always produce the same key. This allows validation
without storing the key in the database.

# Access Tokens

Access tokens are random 24-byte (192-bit) secrets for individual events:

	tokens, err := auth.GenerateAccessTokens(100)

Each token grants exactly one ballot. The organizer distributes them out of
band; the settlement engine marks a token consumed when its ballot is created.

# Share Slugs

Share slugs create URL-friendly identifiers for events:

	slug := auth.GenerateShareSlug(eventID, salt)

Slugs are 11 base62 characters. Like admin keys they are deterministic from
the event ID and salt, but each is derived under its own purpose label, so
knowing a slug says nothing about the admin key.
*/
package auth
