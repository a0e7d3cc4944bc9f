// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tablevote/server/auth"
	"github.com/tablevote/server/models"
	"github.com/tablevote/server/testutil"
)

// fixedClock pins a handler's clock to noon UTC on the given day.
func fixedClock(day string) func() time.Time {
	tm, err := time.Parse(models.DateLayout, day)
	if err != nil {
		panic(err)
	}
	tm = tm.Add(12 * time.Hour)
	return func() time.Time { return tm }
}

func TestIssueToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewAccountHandler(db, cfg)
	handler.now = fixedClock("2025-06-01")

	testutil.CreateTestUser(t, db, "alice", true)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
	}{
		{
			name:           "valid credentials",
			requestBody:    models.TokenRequest{Username: "alice", Password: "hunter2"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			requestBody:    models.TokenRequest{Username: "alice", Password: "wrong"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown user",
			requestBody:    models.TokenRequest{Username: "nobody", Password: "hunter2"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing password",
			requestBody:    models.TokenRequest{Username: "alice"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/token", tt.requestBody, nil)
			w := httptest.NewRecorder()
			handler.IssueToken(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var resp models.TokenResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Token == "" {
					t.Error("Expected non-empty token")
				}

				// The stored copy must match the response
				var stored string
				if err := db.QueryRow(`SELECT token FROM users WHERE username = $1`, "alice").Scan(&stored); err != nil {
					t.Fatalf("Failed to load stored token: %v", err)
				}
				if stored != resp.Token {
					t.Error("Stored token does not match response")
				}

				// And it must be the deterministic derivation for today
				var createdAt string
				if err := db.QueryRow(`SELECT created_at FROM users WHERE username = $1`, "alice").Scan(&createdAt); err != nil {
					t.Fatalf("Failed to load created_at: %v", err)
				}
				if resp.Token != auth.DailyToken("alice", createdAt, "2025-06-01") {
					t.Error("Token does not match the expected derivation")
				}
			}
		})
	}
}

func TestIssueTokenIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewAccountHandler(db, cfg)
	handler.now = fixedClock("2025-06-01")

	testutil.CreateTestUser(t, db, "alice", true)

	issue := func() string {
		req := testutil.MakeRequest("POST", "/token", models.TokenRequest{Username: "alice", Password: "hunter2"}, nil)
		w := httptest.NewRecorder()
		handler.IssueToken(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.TokenResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.Token
	}

	first := issue()
	second := issue()
	if first != second {
		t.Error("Expected the same token for repeated requests on one day")
	}

	// A new day yields a new token
	handler.now = fixedClock("2025-06-02")
	third := issue()
	if third == first {
		t.Error("Expected a different token on the next day")
	}
}
