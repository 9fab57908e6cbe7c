package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Schorakbi/roboto-ai/internal/handlers"
	"github.com/Schorakbi/roboto-ai/internal/history"
	"github.com/Schorakbi/roboto-ai/internal/llm"
	"github.com/Schorakbi/roboto-ai/internal/models"
)

const moveReply = `{"action":"MOVE","quantity":null,"item_id":null,"source":null,"destination":"dock 5","valid_command":true}`

func newTestServer(completer llm.Completer, store history.Store) http.Handler {
	handler := handlers.NewCommandHandler(completer, store, zap.NewNop())
	return NewHTTPTransport(handler, "test-service", []string{"*"}, zap.NewNop()).Handler()
}

func postCommand(t *testing.T, server http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/parse-command", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestParseCommandEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		reply          string
		replyErr       error
		expectCall     bool
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "scenario A - move to dock",
			body:           `{"command": "move to dock 5"}`,
			reply:          moveReply,
			expectCall:     true,
			expectedStatus: http.StatusOK,
			expectedBody:   moveReply,
		},
		{
			name:           "scenario B - empty command",
			body:           `{"command": ""}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"detail":"Command string cannot be empty."}`,
		},
		{
			name:           "missing command",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"detail":"Command string cannot be empty."}`,
		},
		{
			name:           "scenario C - invalid json from model",
			body:           `{"command": "move to dock 5"}`,
			reply:          "not json",
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"LLM returned invalid JSON."}`,
		},
		{
			name:           "scenario D - network failure",
			body:           `{"command": "move to dock 5"}`,
			replyErr:       errors.New("dial tcp: connection refused"),
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"An error occurred: dial tcp: connection refused"}`,
		},
		{
			name:           "schema violation",
			body:           `{"command": "move to dock 5"}`,
			reply:          `{"action":"MOVE"}`,
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"An error occurred: 1 validation error for ParsedCommand: valid_command: field required"}`,
		},
		{
			name:           "command is not a string",
			body:           `{"command": 42}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "malformed body",
			body:           `{"command":`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &llm.MockCompleter{}
			if tt.expectCall {
				completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(tt.reply, tt.replyErr).Once()
			}

			rec := postCommand(t, newTestServer(completer, nil), tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			} else {
				var resp models.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Contains(t, resp.Detail, "Invalid request body")
			}

			if tt.expectCall {
				completer.AssertExpectations(t)
			} else {
				completer.AssertNumberOfCalls(t, "Complete", 0)
			}
		})
	}
}

func TestParseCommandEndpoint_RoundTrip(t *testing.T) {
	reply := `{"action":"DELIVER","quantity":4,"item_id":"pallet-7","source":"shelf A3","destination":"dock 2","valid_command":true}`
	completer := &llm.MockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil)

	rec := postCommand(t, newTestServer(completer, nil), `{"command":"deliver 4 of pallet-7 from shelf A3 to dock 2"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, reply, rec.Body.String())
}

func TestParseCommandEndpoint_DropsExtraFields(t *testing.T) {
	completer := &llm.MockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"action":"CHARGE","valid_command":true,"reasoning":"battery low"}`, nil)

	rec := postCommand(t, newTestServer(completer, nil), `{"command":"go charge"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"action":"CHARGE","quantity":null,"item_id":null,"source":null,"destination":null,"valid_command":true}`,
		rec.Body.String())
}

func TestParseCommandEndpoint_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&llm.MockCompleter{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/parse-command", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS_WildcardEchoesOriginWithCredentials(t *testing.T) {
	completer := &llm.MockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(moveReply, nil)
	server := newTestServer(completer, nil)

	preflight := httptest.NewRequest(http.MethodOptions, "/parse-command", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, preflight)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	post := httptest.NewRequest(http.MethodPost, "/parse-command", bytes.NewBufferString(`{"command":"move to dock 5"}`))
	post.Header.Set("Origin", "http://localhost:5173")
	post.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, post)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	handler := handlers.NewCommandHandler(&llm.MockCompleter{}, nil, zap.NewNop())
	server := NewHTTPTransport(handler, "test-service", []string{"https://ops.example.com"}, zap.NewNop()).Handler()

	for origin, expected := range map[string]string{
		"https://ops.example.com":  "https://ops.example.com",
		"https://evil.example.com": "",
	} {
		req := httptest.NewRequest(http.MethodOptions, "/parse-command", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		assert.Equal(t, expected, rec.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestHealth(t *testing.T) {
	t.Run("history disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","service":"test-service"}`, rec.Body.String())
	})

	t.Run("history reachable", func(t *testing.T) {
		store := &history.MockStore{}
		store.On("Ping", mock.Anything).Return(nil)

		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","service":"test-service","history":"ok"}`, rec.Body.String())
	})

	t.Run("history unreachable", func(t *testing.T) {
		store := &history.MockStore{}
		store.On("Ping", mock.Anything).Return(errors.New("redis down"))

		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"degraded","service":"test-service","history":"unavailable"}`, rec.Body.String())
	})
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands/history", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns entries", func(t *testing.T) {
		store := &history.MockStore{}
		store.On("Recent", mock.Anything, 2).Return([]models.HistoryEntry{{
			Command:  "charge",
			Result:   models.ParsedCommand{Action: models.ActionCharge, ValidCommand: true},
			ParsedAt: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
		}}, nil)

		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands/history?limit=2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"command":"charge","result":{"action":"CHARGE","quantity":null,"item_id":null,"source":null,"destination":null,"valid_command":true},"parsed_at":"2026-10-14T09:30:00Z"}]`, rec.Body.String())
	})

	t.Run("empty history", func(t *testing.T) {
		store := &history.MockStore{}
		store.On("Recent", mock.Anything, 0).Return([]models.HistoryEntry{}, nil)

		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands/history", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, &history.MockStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands/history?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &history.MockStore{}
		store.On("Recent", mock.Anything, 0).Return(nil, errors.New("redis down"))

		rec := httptest.NewRecorder()
		newTestServer(&llm.MockCompleter{}, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands/history", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"An error occurred: redis down"}`, rec.Body.String())
	})
}
