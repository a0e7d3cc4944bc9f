// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets a random id that appears on the start (method, path,
remote) and completion (duration_ms) log lines.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type and Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ErrorDetails writes an error body that carries extra fields, used when
a rejection needs to name the offending ids:

	middleware.ErrorDetails(w, http.StatusNotFound, models.ErrorResponse{
		Message: "Places are not part of this group",
		Places:  []int64{placeID},
	})

Parse JSON request bodies:

	var req models.CastVoteRequest
	if !middleware.ParseJSONBody(w, r, &req) {
		return
	}

ParseJSONBody writes the 400 itself and returns false on bad input.
*/
package middleware
