// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// tokenPhrase is the signed document: who the token belongs to and the
// calendar day it is valid for.
type tokenPhrase struct {
	Username   string `json:"username"`
	IssuedDate string `json:"issued_date"`
}

// DailyToken derives the deterministic session token for a user on a
// given calendar day (YYYY-MM-DD). The HMAC is keyed by the user's
// immutable creation timestamp, so the same inputs always reproduce the
// same token and a token from a previous day stops matching at midnight
// without any cleanup.
func DailyToken(username, createdAt, day string) string {
	phrase, _ := json.Marshal(tokenPhrase{Username: username, IssuedDate: day})
	h := hmac.New(sha256.New, []byte(createdAt))
	h.Write(phrase)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateToken checks a stored token against the expected derivation
// for the given day. A stale token (minted on an earlier day) and a
// tampered token are indistinguishable: both report ErrInvalidToken.
func ValidateToken(stored, username, createdAt, day string) error {
	expected := DailyToken(username, createdAt, day)
	if !hmac.Equal([]byte(stored), []byte(expected)) {
		return ErrInvalidToken
	}
	return nil
}

// HashPassword returns the bcrypt hash of a plaintext password
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plaintext password
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
