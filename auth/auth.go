// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAdminKey   = errors.New("invalid admin key")
	ErrInvalidTokenCount = errors.New("token count must be positive")
)

// Derived values are bound to their purpose so an admin key and a share
// slug never come from the same MAC input.
const (
	purposeAdmin = "qv-admin-key"
	purposeSlug  = "qv-share-slug"

	slugBytes = 8
	slugLen   = 11 // base62 digits needed for 64 bits
)

func eventMAC(salt, purpose, eventID string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(purpose))
	h.Write([]byte{0})
	h.Write([]byte(eventID))
	return h.Sum(nil)
}

// GenerateAdminKey derives the admin key for an event. Nothing is stored;
// the key is recomputed from the salt on every check.
func GenerateAdminKey(eventID, salt string) string {
	return base64.RawURLEncoding.EncodeToString(eventMAC(salt, purposeAdmin, eventID))
}

// ValidateAdminKey checks adminKey in constant time.
func ValidateAdminKey(eventID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrInvalidAdminKey
	}
	got, err := base64.RawURLEncoding.DecodeString(adminKey)
	if err != nil || !hmac.Equal(got, eventMAC(salt, purposeAdmin, eventID)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateAccessToken returns one random single-use voting token.
func GenerateAccessToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateShareSlug derives the public slug voters use to reach an event.
// Slugs are always slugLen alphanumeric characters.
func GenerateShareSlug(eventID, salt string) string {
	sum := eventMAC(salt, purposeSlug, eventID)
	return base62Encode(binary.BigEndian.Uint64(sum[:slugBytes]))
}

// base62Encode writes num as slugLen base62 digits, left-padded with '0'.
func base62Encode(num uint64) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	out := []byte(strings.Repeat("0", slugLen))
	for i := slugLen - 1; i >= 0 && num > 0; i-- {
		out[i] = digits[num%62]
		num /= 62
	}
	return string(out)
}

// GenerateAccessTokens creates n access tokens
func GenerateAccessTokens(n int) ([]string, error) {
	if n < 1 {
		return nil, ErrInvalidTokenCount
	}
	tokens := make([]string, 0, n)
	for i := 0; i < n; i++ {
		token, err := GenerateAccessToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
