// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/tablevote/server/models"
	"github.com/tablevote/server/testutil"
)

func castVote(t *testing.T, handler *VotingHandler, token string, groupID int64, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	idStr := strconv.FormatInt(groupID, 10)
	req := testutil.MakeRequest("POST", "/groups/"+idStr+"/vote", body, testutil.BearerHeader(token))
	req.SetPathValue("id", idStr)
	w := httptest.NewRecorder()
	handler.CastVote(w, req)
	return w
}

func TestCastVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewVotingHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	testutil.CreateTestUser(t, db, "outsider", true)
	aliceToken := testutil.IssueTestToken(t, db, "alice", testDay)
	outsiderToken := testutil.IssueTestToken(t, db, "outsider", testDay)

	groupID := testutil.CreateTestGroup(t, db, "Lunch Crew", "alice")
	tacos := testutil.CreateTestPlace(t, db, "Taco Cart", "alice")
	ramen := testutil.CreateTestPlace(t, db, "Ramen Bar", "alice")
	pizza := testutil.CreateTestPlace(t, db, "Pizza Spot", "alice")
	unattached := testutil.CreateTestPlace(t, db, "Hidden Gem", "alice")
	for _, p := range []int64{tacos, ramen, pizza} {
		testutil.AttachTestPlace(t, db, groupID, p)
	}

	t.Run("group not found", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, 9999,
			models.CastVoteRequest{Choices: []int64{tacos, ramen, pizza}})
		testutil.AssertError(t, w, http.StatusNotFound, "Group not found")
	})

	t.Run("not a member", func(t *testing.T) {
		w := castVote(t, handler, outsiderToken, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, ramen, pizza}})
		testutil.AssertError(t, w, http.StatusForbidden, "User is not member of this group")
	})

	t.Run("missing choices", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, groupID, struct{}{})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("duplicate choices", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, tacos, ramen}})
		testutil.AssertStatus(t, w, http.StatusNotAcceptable)

		var body models.ErrorResponse
		testutil.AssertJSON(t, w, &body)
		if len(body.Duplicates) != 1 || body.Duplicates[0] != tacos {
			t.Errorf("Expected duplicates [%d], got %v", tacos, body.Duplicates)
		}
	})

	t.Run("wrong ballot size", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, ramen}})
		testutil.AssertStatus(t, w, http.StatusNotAcceptable)

		var body models.ErrorResponse
		testutil.AssertJSON(t, w, &body)
		if body.Required == nil || *body.Required != 3 {
			t.Errorf("Expected required 3, got %v", body.Required)
		}
	})

	t.Run("unknown place", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, ramen, 9999}})
		testutil.AssertError(t, w, http.StatusNotFound, "Place not found")
	})

	t.Run("place outside the group", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, ramen, unattached}})
		testutil.AssertStatus(t, w, http.StatusNotFound)

		var body models.ErrorResponse
		testutil.AssertJSON(t, w, &body)
		if body.Message != "Places are not part of this group" {
			t.Errorf("Unexpected message: %q", body.Message)
		}
		if len(body.Places) != 1 || body.Places[0] != unattached {
			t.Errorf("Expected places [%d], got %v", unattached, body.Places)
		}
	})

	t.Run("first offender wins", func(t *testing.T) {
		// The unattached place comes before the missing one, so it is
		// the one reported
		w := castVote(t, handler, aliceToken, groupID,
			models.CastVoteRequest{Choices: []int64{unattached, tacos, 9999}})
		testutil.AssertStatus(t, w, http.StatusNotFound)

		var body models.ErrorResponse
		testutil.AssertJSON(t, w, &body)
		if body.Message != "Places are not part of this group" {
			t.Errorf("Unexpected message: %q", body.Message)
		}
		if len(body.Places) != 1 || body.Places[0] != unattached {
			t.Errorf("Expected places [%d], got %v", unattached, body.Places)
		}
	})

	t.Run("valid ballot", func(t *testing.T) {
		w := castVote(t, handler, aliceToken, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, ramen, pizza}})
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.CastVoteResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "Vote cast" {
			t.Errorf("Unexpected message: %q", resp.Message)
		}

		// Ballot lines persisted in order
		rows, err := db.Query(`
			SELECT cv.position, cv.place_id
			FROM casted_votes cv
			JOIN votes v ON v.id = cv.vote_id
			WHERE v.username = $1 AND v.cast_on = $2
			ORDER BY cv.position
		`, "alice", testDay)
		if err != nil {
			t.Fatalf("Failed to load ballot: %v", err)
		}
		defer rows.Close()

		want := []int64{tacos, ramen, pizza}
		pos := 0
		for rows.Next() {
			var position int
			var placeID int64
			if err := rows.Scan(&position, &placeID); err != nil {
				t.Fatalf("Failed to scan ballot line: %v", err)
			}
			if position != pos || placeID != want[pos] {
				t.Errorf("Line %d: got position %d place %d, want place %d", pos, position, placeID, want[pos])
			}
			pos++
		}
		if pos != 3 {
			t.Errorf("Expected 3 ballot lines, got %d", pos)
		}
	})

	t.Run("second vote same day", func(t *testing.T) {
		// Even in a different group
		otherGroup := testutil.CreateTestGroup(t, db, "Second Crew", "alice")
		testutil.AttachTestPlace(t, db, otherGroup, tacos)

		w := castVote(t, handler, aliceToken, otherGroup,
			models.CastVoteRequest{Choices: []int64{tacos}})
		testutil.AssertError(t, w, http.StatusNotAcceptable, "User already voted today")
	})

	t.Run("next day votes again", func(t *testing.T) {
		handler.now = fixedClock("2025-06-02")
		token := testutil.IssueTestToken(t, db, "alice", "2025-06-02")

		w := castVote(t, handler, token, groupID,
			models.CastVoteRequest{Choices: []int64{pizza, tacos, ramen}})
		testutil.AssertStatus(t, w, http.StatusCreated)
	})
}

func TestCastVoteSmallGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewVotingHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	token := testutil.IssueTestToken(t, db, "alice", testDay)

	// Fewer places than the configured ballot size
	groupID := testutil.CreateTestGroup(t, db, "Two Options", "alice")
	tacos := testutil.CreateTestPlace(t, db, "Taco Cart", "alice")
	ramen := testutil.CreateTestPlace(t, db, "Ramen Bar", "alice")
	testutil.AttachTestPlace(t, db, groupID, tacos)
	testutil.AttachTestPlace(t, db, groupID, ramen)

	t.Run("full-size ballot rejected", func(t *testing.T) {
		w := castVote(t, handler, token, groupID,
			models.CastVoteRequest{Choices: []int64{tacos, ramen, 9999}})
		testutil.AssertStatus(t, w, http.StatusNotAcceptable)

		var body models.ErrorResponse
		testutil.AssertJSON(t, w, &body)
		if body.Required == nil || *body.Required != 2 {
			t.Errorf("Expected required 2, got %v", body.Required)
		}
	})

	t.Run("two-place ballot accepted", func(t *testing.T) {
		w := castVote(t, handler, token, groupID,
			models.CastVoteRequest{Choices: []int64{ramen, tacos}})
		testutil.AssertStatus(t, w, http.StatusCreated)
	})
}

func TestCastVoteEmptyGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewVotingHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	token := testutil.IssueTestToken(t, db, "alice", testDay)
	groupID := testutil.CreateTestGroup(t, db, "No Places Yet", "alice")

	// With no attached places the only valid ballot is the empty one
	w := castVote(t, handler, token, groupID, models.CastVoteRequest{Choices: []int64{}})
	testutil.AssertStatus(t, w, http.StatusCreated)

	// It still burns the day's vote
	otherGroup := testutil.CreateTestGroup(t, db, "Other Crew", "alice")
	w = castVote(t, handler, token, otherGroup, models.CastVoteRequest{Choices: []int64{}})
	testutil.AssertError(t, w, http.StatusNotAcceptable, "User already voted today")
}

func TestCastVoteUnverified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewVotingHandler(db, cfg)
	handler.now = fixedClock(testDay)

	// The verified flag gates group and place creation, not voting: an
	// unverified member still casts like anyone else
	testutil.CreateTestUser(t, db, "alice", true)
	testutil.CreateTestUser(t, db, "newbie", false)
	token := testutil.IssueTestToken(t, db, "newbie", testDay)
	groupID := testutil.CreateTestGroup(t, db, "Lunch Crew", "alice")
	testutil.AddTestMember(t, db, groupID, "newbie")

	w := castVote(t, handler, token, groupID, models.CastVoteRequest{Choices: []int64{}})
	testutil.AssertStatus(t, w, http.StatusCreated)
}
