// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start at debug level and completion (status, remote,
duration_ms) at info level.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, X-Access-Token, X-Voter-Identity.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Settlement rejections carry a stable reason code and detail fields:

	if _, err := svc.Submit(ctx, event, creds, lines, false); err != nil {
		middleware.RejectionResponse(w, err)
		return
	}

A budget rejection, for example, is written as

	{"error":"Bad Request","reason":"budget_exceeded","used":121,"limit":100,"message":"..."}
*/
package middleware
