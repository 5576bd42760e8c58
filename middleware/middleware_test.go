// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/voting"
)

func TestWithLogging(t *testing.T) {
	handlerCalled := false
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	wrappedHandler := WithLogging(testHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	wrappedHandler(w, req)

	if !handlerCalled {
		t.Error("Expected handler to be called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"Conflict", http.StatusConflict, `{"reason":"already_submitted"}`},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/events/abc/ballots", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       any
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "created response",
			statusCode: http.StatusCreated,
			data:       models.SubmitBallotResponse{BallotID: "abc123", Message: "Ballot submitted"},
			expected:   `{"ballot_id":"abc123","message":"Ballot submitted"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			// Trim newline added by Encode
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		message       string
		expectedError string
	}{
		{
			name:          "bad request",
			statusCode:    http.StatusBadRequest,
			message:       "title is required",
			expectedError: "Bad Request",
		},
		{
			name:          "unauthorized",
			statusCode:    http.StatusUnauthorized,
			message:       "invalid admin key",
			expectedError: "Unauthorized",
		},
		{
			name:          "not found",
			statusCode:    http.StatusNotFound,
			message:       "event not found",
			expectedError: "Not Found",
		},
		{
			name:          "conflict",
			statusCode:    http.StatusConflict,
			message:       "options cannot change once ballots exist",
			expectedError: "Conflict",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
			if resp.Reason != "" {
				t.Errorf("Expected no reason, got '%s'", resp.Reason)
			}
		})
	}
}

func TestRejectionResponse(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		statusCode int
		reason     string
		check      func(t *testing.T, resp models.ErrorResponse)
	}{
		{
			name:       "invalid token",
			err:        voting.ErrInvalidToken,
			statusCode: http.StatusUnauthorized,
			reason:     "invalid_token",
		},
		{
			name:       "missing credential",
			err:        fmt.Errorf("%w: access token required", voting.ErrMissingCredential),
			statusCode: http.StatusUnauthorized,
			reason:     "invalid_token",
		},
		{
			name:       "before start",
			err:        &voting.WindowError{Boundary: voting.BeforeStart, Start: time.Now().Add(time.Hour)},
			statusCode: http.StatusForbidden,
			reason:     "not_active",
			check: func(t *testing.T, resp models.ErrorResponse) {
				if resp.Boundary != "start" {
					t.Errorf("Expected boundary 'start', got '%s'", resp.Boundary)
				}
			},
		},
		{
			name:       "after end",
			err:        &voting.WindowError{Boundary: voting.AfterEnd, End: time.Now().Add(-time.Hour)},
			statusCode: http.StatusForbidden,
			reason:     "not_active",
			check: func(t *testing.T, resp models.ErrorResponse) {
				if resp.Boundary != "end" {
					t.Errorf("Expected boundary 'end', got '%s'", resp.Boundary)
				}
			},
		},
		{
			name:       "budget exceeded carries used and limit",
			err:        &voting.BudgetError{Used: 1121, Limit: 100},
			statusCode: http.StatusBadRequest,
			reason:     "budget_exceeded",
			check: func(t *testing.T, resp models.ErrorResponse) {
				if resp.Used == nil || *resp.Used != 1121 {
					t.Errorf("Expected used 1121, got %v", resp.Used)
				}
				if resp.Limit == nil || *resp.Limit != 100 {
					t.Errorf("Expected limit 100, got %v", resp.Limit)
				}
				if !strings.Contains(resp.Message, "1,121") || !strings.Contains(resp.Message, "1,021") {
					t.Errorf("Expected humanized numbers in message, got '%s'", resp.Message)
				}
			},
		},
		{
			name:       "unknown option",
			err:        &voting.OptionError{OptionID: "opt-x"},
			statusCode: http.StatusBadRequest,
			reason:     "unknown_option",
			check: func(t *testing.T, resp models.ErrorResponse) {
				if resp.OptionID != "opt-x" {
					t.Errorf("Expected option_id 'opt-x', got '%s'", resp.OptionID)
				}
			},
		},
		{
			name:       "invalid amount",
			err:        &voting.AmountError{OptionID: "opt-a", Amount: "-1"},
			statusCode: http.StatusBadRequest,
			reason:     "invalid_amount",
		},
		{
			name:       "empty ballot",
			err:        voting.ErrEmptyBallot,
			statusCode: http.StatusBadRequest,
			reason:     "empty_ballot",
		},
		{
			name:       "already submitted",
			err:        voting.ErrAlreadySubmitted,
			statusCode: http.StatusConflict,
			reason:     "already_submitted",
		},
		{
			name:       "not owner",
			err:        voting.ErrNotOwner,
			statusCode: http.StatusForbidden,
			reason:     "not_owner",
		},
		{
			name:       "settlement failed",
			err:        fmt.Errorf("%w: disk full", voting.ErrSettlementFailed),
			statusCode: http.StatusServiceUnavailable,
			reason:     "settlement_failed",
		},
		{
			name:       "unclassified error",
			err:        errors.New("boom"),
			statusCode: http.StatusInternalServerError,
			reason:     "internal",
			check: func(t *testing.T, resp models.ErrorResponse) {
				if strings.Contains(resp.Message, "boom") {
					t.Error("Internal error details must not leak to the client")
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			RejectionResponse(w, tc.err)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Reason != tc.reason {
				t.Errorf("Expected reason '%s', got '%s'", tc.reason, resp.Reason)
			}
			if resp.Message == "" {
				t.Error("Expected a message")
			}
			if tc.check != nil {
				tc.check(t, resp)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"title":"Budget 2025","credits_per_voter":100}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CreateEventRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Title != "Budget 2025" {
			t.Errorf("Expected title 'Budget 2025', got '%s'", parsed.Title)
		}
		if parsed.CreditsPerVoter != 100 {
			t.Errorf("Expected 100 credits, got %d", parsed.CreditsPerVoter)
		}
	})

	t.Run("amounts keep their textual form", func(t *testing.T) {
		body := `{"lines":[{"option_id":"a","amount":3},{"option_id":"b","amount":1.5}]}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.SubmitBallotRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(parsed.Lines) != 2 {
			t.Fatalf("Expected 2 lines, got %d", len(parsed.Lines))
		}
		if parsed.Lines[0].Amount.String() != "3" || parsed.Lines[1].Amount.String() != "1.5" {
			t.Errorf("Unexpected amounts %q, %q", parsed.Lines[0].Amount, parsed.Lines[1].Amount)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.CreateEventRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.CreateEventRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})

	t.Run("body is consumed after parsing", func(t *testing.T) {
		body := `{"title":"Test"}`
		req := httptest.NewRequest("POST", "/", io.NopCloser(bytes.NewReader([]byte(body))))

		var parsed models.CreateEventRequest
		_ = ParseJSONBody(req, &parsed)

		remaining, _ := io.ReadAll(req.Body)
		if len(remaining) > 0 {
			t.Error("Expected body to be consumed")
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/events/abc/ballots", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/events/abc", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})

	t.Run("allows credential headers", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/events/abc/ballots", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		allowedHeaders := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Content-Type", "X-Admin-Key", "X-Access-Token", "X-Voter-Identity"} {
			if !strings.Contains(allowedHeaders, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PUT") {
			t.Error("Expected PUT in allowed methods")
		}
	})
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "192.168.1.100",
		},
		{
			name:       "X-Forwarded-For chained IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			remoteAddr: "127.0.0.1:12345",
			expectedIP: "203.0.113.195",
		},
		{
			name:       "X-Real-IP takes precedence over RemoteAddr",
			headers:    map[string]string{"X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "203.0.113.50",
		},
		{
			name:       "RemoteAddr with port",
			remoteAddr: "192.168.1.50:54321",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.50",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "IPv6 RemoteAddr with port",
			remoteAddr: "[::1]:12345",
			expectedIP: "::1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := ClientIP(req); got != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, got)
			}
		})
	}
}
