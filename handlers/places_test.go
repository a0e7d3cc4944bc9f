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

func TestCreatePlace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewPlaceHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	testutil.CreateTestUser(t, db, "newbie", false)
	aliceToken := testutil.IssueTestToken(t, db, "alice", testDay)
	newbieToken := testutil.IssueTestToken(t, db, "newbie", testDay)

	t.Run("valid place", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/places",
			models.CreatePlaceRequest{Name: "Taco Cart"}, testutil.BearerHeader(aliceToken))
		w := httptest.NewRecorder()
		handler.Create(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.CreatePlaceResponse
		testutil.AssertJSON(t, w, &resp)

		var owner string
		if err := db.QueryRow(`SELECT owner FROM places WHERE id = $1`, resp.ID).Scan(&owner); err != nil {
			t.Fatalf("Failed to load place: %v", err)
		}
		if owner != "alice" {
			t.Errorf("Expected maintainer alice, got %s", owner)
		}
	})

	t.Run("unverified account", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/places",
			models.CreatePlaceRequest{Name: "No Dice"}, testutil.BearerHeader(newbieToken))
		w := httptest.NewRecorder()
		handler.Create(w, req)

		testutil.AssertError(t, w, http.StatusPreconditionFailed, "Account not verified")
	})

	t.Run("missing name", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/places",
			models.CreatePlaceRequest{}, testutil.BearerHeader(aliceToken))
		w := httptest.NewRecorder()
		handler.Create(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestUpdatePlace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewPlaceHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	testutil.CreateTestUser(t, db, "bob", true)
	aliceToken := testutil.IssueTestToken(t, db, "alice", testDay)
	bobToken := testutil.IssueTestToken(t, db, "bob", testDay)

	placeID := testutil.CreateTestPlace(t, db, "Taco Cart", "alice")
	idStr := strconv.FormatInt(placeID, 10)

	t.Run("rename by maintainer", func(t *testing.T) {
		name := "Taco Truck"
		req := testutil.MakeRequest("PUT", "/places/"+idStr,
			models.UpdatePlaceRequest{Name: &name}, testutil.BearerHeader(aliceToken))
		req.SetPathValue("id", idStr)
		w := httptest.NewRecorder()
		handler.Update(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var got string
		if err := db.QueryRow(`SELECT name FROM places WHERE id = $1`, placeID).Scan(&got); err != nil {
			t.Fatalf("Failed to load place: %v", err)
		}
		if got != "Taco Truck" {
			t.Errorf("Expected name 'Taco Truck', got %q", got)
		}
	})

	t.Run("rename by someone else", func(t *testing.T) {
		name := "Bob's Tacos"
		req := testutil.MakeRequest("PUT", "/places/"+idStr,
			models.UpdatePlaceRequest{Name: &name}, testutil.BearerHeader(bobToken))
		req.SetPathValue("id", idStr)
		w := httptest.NewRecorder()
		handler.Update(w, req)

		testutil.AssertError(t, w, http.StatusForbidden, "User is not maintainer of this place")
	})

	t.Run("transfer to unknown user", func(t *testing.T) {
		maintainer := "nobody"
		req := testutil.MakeRequest("PUT", "/places/"+idStr,
			models.UpdatePlaceRequest{Maintainer: &maintainer}, testutil.BearerHeader(aliceToken))
		req.SetPathValue("id", idStr)
		w := httptest.NewRecorder()
		handler.Update(w, req)

		testutil.AssertError(t, w, http.StatusNotFound, "New maintainer not found")
	})

	t.Run("transfer to bob", func(t *testing.T) {
		maintainer := "bob"
		req := testutil.MakeRequest("PUT", "/places/"+idStr,
			models.UpdatePlaceRequest{Maintainer: &maintainer}, testutil.BearerHeader(aliceToken))
		req.SetPathValue("id", idStr)
		w := httptest.NewRecorder()
		handler.Update(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var owner string
		if err := db.QueryRow(`SELECT owner FROM places WHERE id = $1`, placeID).Scan(&owner); err != nil {
			t.Fatalf("Failed to load place: %v", err)
		}
		if owner != "bob" {
			t.Errorf("Expected maintainer bob, got %s", owner)
		}
	})

	t.Run("place not found", func(t *testing.T) {
		name := "Ghost Diner"
		req := testutil.MakeRequest("PUT", "/places/9999",
			models.UpdatePlaceRequest{Name: &name}, testutil.BearerHeader(aliceToken))
		req.SetPathValue("id", "9999")
		w := httptest.NewRecorder()
		handler.Update(w, req)

		testutil.AssertError(t, w, http.StatusNotFound, "Place not found")
	})
}

func TestDeletePlace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewPlaceHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	aliceToken := testutil.IssueTestToken(t, db, "alice", testDay)

	placeID := testutil.CreateTestPlace(t, db, "Taco Cart", "alice")
	groupID := testutil.CreateTestGroup(t, db, "Lunch Crew", "alice")
	testutil.AttachTestPlace(t, db, groupID, placeID)
	idStr := strconv.FormatInt(placeID, 10)

	req := testutil.MakeRequest("DELETE", "/places/"+idStr, nil, testutil.BearerHeader(aliceToken))
	req.SetPathValue("id", idStr)
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	testutil.AssertStatus(t, w, http.StatusNoContent)

	// The attachment cascades away with the place
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM group_places WHERE place_id = $1`, placeID).Scan(&count); err != nil {
		t.Fatalf("Failed to count attachments: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 attachments after deletion, got %d", count)
	}
}

func TestListPlaces(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	handler := NewPlaceHandler(db, cfg)
	handler.now = fixedClock(testDay)

	testutil.CreateTestUser(t, db, "alice", true)
	testutil.CreateTestUser(t, db, "bob", true)
	bobToken := testutil.IssueTestToken(t, db, "bob", testDay)

	// Bob maintains one place, sees another through a shared group, and
	// must not see Alice's unattached place.
	owned := testutil.CreateTestPlace(t, db, "Bob's Burgers", "bob")
	shared := testutil.CreateTestPlace(t, db, "Taco Cart", "alice")
	testutil.CreateTestPlace(t, db, "Hidden Gem", "alice")

	groupID := testutil.CreateTestGroup(t, db, "Lunch Crew", "alice")
	testutil.AddTestMember(t, db, groupID, "bob")
	testutil.AttachTestPlace(t, db, groupID, shared)
	// Attached and owned: must not appear twice
	testutil.AttachTestPlace(t, db, groupID, owned)

	req := testutil.MakeRequest("GET", "/places", nil, testutil.BearerHeader(bobToken))
	w := httptest.NewRecorder()
	handler.List(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.PlaceListResponse
	testutil.AssertJSON(t, w, &resp)

	if len(resp.Places) != 2 {
		t.Fatalf("Expected 2 places, got %d", len(resp.Places))
	}
	seen := map[int64]bool{}
	for _, p := range resp.Places {
		seen[p.ID] = true
	}
	if !seen[owned] || !seen[shared] {
		t.Errorf("Expected places %d and %d, got %v", owned, shared, resp.Places)
	}
}
