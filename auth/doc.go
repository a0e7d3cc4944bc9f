// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session token derivation and password hashing.

# Daily Tokens

Session tokens use HMAC-SHA256 keyed on the account's creation
timestamp, over a JSON phrase of the username and the day:

	token := auth.DailyToken(username, createdAt, "2025-06-01")
	err := auth.ValidateToken(stored, username, createdAt, "2025-06-01")

The token is hex encoded. Since it's deterministic, the same account
and day always produce the same token, so issuing twice on one day is
idempotent, and expiry falls out of the derivation: validating
yesterday's token against today's day simply fails. ValidateToken
compares in constant time and returns ErrInvalidToken on mismatch.

# Passwords

Passwords are hashed with bcrypt at the default cost:

	hash, err := auth.HashPassword(plain)
	ok := auth.VerifyPassword(hash, plain)
*/
package auth
