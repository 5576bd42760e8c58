// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/voting"
)

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		slog.Debug("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", ClientIP(r),
		)

		next(rec, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", ClientIP(r),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// RejectionStatus maps a settlement error to its HTTP status.
func RejectionStatus(err error) int {
	switch voting.Reason(err) {
	case "invalid_token":
		return http.StatusUnauthorized
	case "not_active", "not_owner":
		return http.StatusForbidden
	case "unknown_option", "invalid_amount", "budget_exceeded", "empty_ballot":
		return http.StatusBadRequest
	case "already_submitted":
		return http.StatusConflict
	case "settlement_failed":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RejectionResponse writes a settlement error with its reason code and
// any structured detail the error carries.
func RejectionResponse(w http.ResponseWriter, err error) {
	status := RejectionStatus(err)
	resp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Reason:  voting.Reason(err),
		Message: rejectionMessage(err),
	}

	var budget *voting.BudgetError
	if errors.As(err, &budget) {
		resp.Used = &budget.Used
		resp.Limit = &budget.Limit
	}
	var window *voting.WindowError
	if errors.As(err, &window) {
		resp.Boundary = string(window.Boundary)
	}
	var option *voting.OptionError
	if errors.As(err, &option) {
		resp.OptionID = option.OptionID
	}
	var amount *voting.AmountError
	if errors.As(err, &amount) {
		resp.OptionID = amount.OptionID
	}

	JSONResponse(w, status, resp)
}

func rejectionMessage(err error) string {
	var budget *voting.BudgetError
	var window *voting.WindowError
	var option *voting.OptionError
	var amount *voting.AmountError

	switch {
	case errors.As(err, &budget):
		return fmt.Sprintf("This ballot uses %s credits and exceeds your budget of %s by %s.",
			humanize.Comma(int64(budget.Used)),
			humanize.Comma(int64(budget.Limit)),
			humanize.Comma(int64(budget.Over())))
	case errors.As(err, &window):
		if window.Boundary == voting.BeforeStart {
			return fmt.Sprintf("Voting has not started yet. It opens %s.",
				humanize.Time(window.Start))
		}
		return fmt.Sprintf("Voting has ended. It closed %s.", humanize.Time(window.End))
	case errors.As(err, &option):
		if option.Duplicate {
			return "An option appears more than once in this ballot."
		}
		return "This ballot references an option that is not part of the event."
	case errors.As(err, &amount):
		return "Vote amounts must be whole numbers of zero or more."
	}

	switch voting.Reason(err) {
	case "invalid_token":
		return "Your voting credentials are missing or invalid."
	case "empty_ballot":
		return "Allocate at least one vote before submitting."
	case "already_submitted":
		return "You have already voted in this event. Amend your ballot instead."
	case "not_owner":
		return "This ballot does not belong to you."
	case "settlement_failed":
		return "Your ballot could not be saved. Please try again."
	default:
		return "Internal server error"
	}
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// CORS middleware allows cross-origin requests from the frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key, X-Access-Token, X-Voter-Identity")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP address for logging.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func ClientIP(r *http.Request) string {
	// First hop of the proxy chain
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
