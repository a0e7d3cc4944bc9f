// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tablevote/server/auth"
	"github.com/tablevote/server/cliparse"
	"github.com/tablevote/server/db"
	"github.com/tablevote/server/models"
)

// SetupTestDB creates a fresh in-memory database with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// An in-memory database exists per connection
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	// sqlite leaves foreign keys off unless asked
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	if err := db.CreateSchema(conn, "sqlite"); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3542,
		DatabaseURL:   ":memory:",
		DatabaseType:  "sqlite",
		PlacesPerVote: 3,
	}
}

// CreateTestUser inserts an account with a known password ("hunter2")
// and the given verified flag.
func CreateTestUser(t *testing.T, conn *sql.DB, username string, verified bool) {
	t.Helper()

	passhash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err = conn.Exec(`
		INSERT INTO users (username, full_name, passhash, verified, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, username, "Test "+username, passhash, verified, createdAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
}

// IssueTestToken derives and stores the user's token for the given day
// and returns it.
func IssueTestToken(t *testing.T, conn *sql.DB, username, day string) string {
	t.Helper()

	var createdAt string
	if err := conn.QueryRow(`SELECT created_at FROM users WHERE username = $1`, username).Scan(&createdAt); err != nil {
		t.Fatalf("Failed to load test user: %v", err)
	}
	token := auth.DailyToken(username, createdAt, day)
	if _, err := conn.Exec(`
		UPDATE users SET token = $1, token_issued_on = $2 WHERE username = $3
	`, token, day, username); err != nil {
		t.Fatalf("Failed to store test token: %v", err)
	}

	return token
}

// CreateTestGroup inserts a group owned by the given user, who is also
// enrolled as its first member. Returns the group id.
func CreateTestGroup(t *testing.T, conn *sql.DB, name, owner string) int64 {
	t.Helper()

	var groupID int64
	err := conn.QueryRow(`
		INSERT INTO lunch_groups (name, owner) VALUES ($1, $2) RETURNING id
	`, name, owner).Scan(&groupID)
	if err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	if _, err := conn.Exec(`
		INSERT INTO group_members (group_id, username) VALUES ($1, $2)
	`, groupID, owner); err != nil {
		t.Fatalf("Failed to enroll test group owner: %v", err)
	}

	return groupID
}

// AddTestMember enrolls a user in a group
func AddTestMember(t *testing.T, conn *sql.DB, groupID int64, username string) {
	t.Helper()

	if _, err := conn.Exec(`
		INSERT INTO group_members (group_id, username) VALUES ($1, $2)
	`, groupID, username); err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// CreateTestPlace inserts a place and returns its id
func CreateTestPlace(t *testing.T, conn *sql.DB, name, owner string) int64 {
	t.Helper()

	var placeID int64
	err := conn.QueryRow(`
		INSERT INTO places (name, owner) VALUES ($1, $2) RETURNING id
	`, name, owner).Scan(&placeID)
	if err != nil {
		t.Fatalf("Failed to create test place: %v", err)
	}

	return placeID
}

// AttachTestPlace attaches a place to a group
func AttachTestPlace(t *testing.T, conn *sql.DB, groupID, placeID int64) {
	t.Helper()

	if _, err := conn.Exec(`
		INSERT INTO group_places (group_id, place_id) VALUES ($1, $2)
	`, groupID, placeID); err != nil {
		t.Fatalf("Failed to attach test place: %v", err)
	}
}

// CastTestVote inserts a ballot directly, bypassing the handler
func CastTestVote(t *testing.T, conn *sql.DB, username string, groupID int64, day string, choices []int64) {
	t.Helper()

	var voteID int64
	err := conn.QueryRow(`
		INSERT INTO votes (username, group_id, cast_on) VALUES ($1, $2, $3) RETURNING id
	`, username, groupID, day).Scan(&voteID)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
	for position, placeID := range choices {
		if _, err := conn.Exec(`
			INSERT INTO casted_votes (vote_id, position, place_id) VALUES ($1, $2, $3)
		`, voteID, position, placeID); err != nil {
			t.Fatalf("Failed to create test ballot line: %v", err)
		}
	}
}

// BearerHeader builds the Authorization header map for a token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertError checks status code and the error body's message field
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	AssertStatus(t, w, status)
	var body models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if body.Message != message {
		t.Errorf("Expected message %q, got %q", message, body.Message)
	}
}
