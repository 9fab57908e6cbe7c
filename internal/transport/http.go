package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Schorakbi/roboto-ai/internal/handlers"
	"github.com/Schorakbi/roboto-ai/internal/models"
)

// maxBodyBytes bounds the request body read by /parse-command.
const maxBodyBytes = 1 << 20

type HTTPTransport struct {
	handler     *handlers.CommandHandler
	serviceName string
	origins     []string
	logger      *zap.Logger
}

func NewHTTPTransport(handler *handlers.CommandHandler, serviceName string, allowedOrigins []string, logger *zap.Logger) *HTTPTransport {
	return &HTTPTransport{
		handler:     handler,
		serviceName: serviceName,
		origins:     allowedOrigins,
		logger:      logger.With(zap.String("component", "http")),
	}
}

// Handler returns the router wrapped in the CORS middleware.
func (t *HTTPTransport) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/parse-command", t.handleParseCommand).Methods(http.MethodPost)
	router.HandleFunc("/commands/history", t.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/health", t.handleHealth).Methods(http.MethodGet)

	return cors.New(t.corsOptions()).Handler(router)
}

// corsOptions echoes the request Origin when "*" is configured, since browsers
// reject a literal "*" on credentialed requests.
func (t *HTTPTransport) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}

	if slices.Contains(t.origins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = t.origins
	}

	return opts
}

func (t *HTTPTransport) handleParseCommand(w http.ResponseWriter, r *http.Request) {
	var request models.CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		t.logger.Info("Rejected request body", zap.Error(err))
		t.writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %s", err.Error()))
		return
	}

	parsed, err := t.handler.ParseCommand(r.Context(), &request)
	if err != nil {
		var cmdErr *handlers.CommandError
		if errors.As(err, &cmdErr) {
			t.writeDetail(w, cmdErr.StatusCode(), cmdErr.Detail)
			return
		}
		t.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %s", err.Error()))
		return
	}

	t.writeJSONResponse(w, http.StatusOK, parsed)
}

func (t *HTTPTransport) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !t.handler.HistoryEnabled() {
		t.writeDetail(w, http.StatusNotFound, "Command history is not enabled.")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			t.writeDetail(w, http.StatusBadRequest, "limit must be a positive integer.")
			return
		}
		limit = n
	}

	entries, err := t.handler.RecentCommands(r.Context(), limit)
	if err != nil {
		t.logger.Error("Failed to load command history", zap.Error(err))
		t.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %s", err.Error()))
		return
	}

	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	t.writeJSONResponse(w, http.StatusOK, entries)
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":  "ok",
		"service": t.serviceName,
	}
	if !t.handler.HistoryEnabled() {
		t.writeJSONResponse(w, http.StatusOK, body)
		return
	}

	if err := t.handler.CheckHistory(r.Context()); err != nil {
		t.logger.Warn("History store unreachable", zap.Error(err))
		body["status"] = "degraded"
		body["history"] = "unavailable"
		t.writeJSONResponse(w, http.StatusServiceUnavailable, body)
		return
	}

	body["history"] = "ok"
	t.writeJSONResponse(w, http.StatusOK, body)
}

func (t *HTTPTransport) writeDetail(w http.ResponseWriter, statusCode int, detail string) {
	t.writeJSONResponse(w, statusCode, &models.ErrorResponse{Detail: detail})
}

func (t *HTTPTransport) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		t.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
