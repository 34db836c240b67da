package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"analytics-service/internal/analytics"
	"analytics-service/internal/models"
	"analytics-service/internal/store"
	"analytics-service/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AnalyticsHandler is the ingest/query façade: it forwards validated event
// payloads to the store and shapes engine output into the response contract.
// It performs no business logic of its own.
type AnalyticsHandler struct {
	store  *store.Store
	engine *analytics.Engine
	logger *zap.Logger
}

// NewAnalyticsHandler creates the façade over an opened store and engine
func NewAnalyticsHandler(st *store.Store, engine *analytics.Engine, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:  st,
		engine: engine,
		logger: logger,
	}
}

// Response represents a standard API response for the write path
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// successResponse creates a successful response
func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// errorResponse creates an error response
func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

// RegisterRoutes registers the ingest and analytics routes
func (h *AnalyticsHandler) RegisterRoutes(router chi.Router) {
	router.Route("/events", func(r chi.Router) {
		r.Post("/document", h.RecordDocumentEvent)
		r.Post("/blockchain", h.RecordBlockchainEvent)
		r.Post("/session", h.RecordUserSession)
	})

	router.Route("/analytics", func(r chi.Router) {
		r.Get("/user/{userID}", h.GetUserAnalytics)
		r.Get("/system", h.GetSystemAnalytics)
	})
}

// RecordDocumentEvent handles POST /events/document
func (h *AnalyticsHandler) RecordDocumentEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var in models.DocumentEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	eventID, err := h.store.InsertDocumentEvent(ctx, &in)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to record document event")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, successResponse(
		map[string]string{"event_id": eventID}, "Event recorded successfully"))
	h.logger.Info("Document event recorded via HTTP",
		util.String("event_id", eventID),
		util.String("user_id", in.UserID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "RecordDocumentEvent"),
	)
}

// RecordBlockchainEvent handles POST /events/blockchain
func (h *AnalyticsHandler) RecordBlockchainEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var in models.BlockchainEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	eventID, err := h.store.InsertBlockchainEvent(ctx, &in)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to record blockchain event")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, successResponse(
		map[string]string{"event_id": eventID}, "Event recorded successfully"))
	h.logger.Info("Blockchain event recorded via HTTP",
		util.String("event_id", eventID),
		util.String("user_id", in.UserID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "RecordBlockchainEvent"),
	)
}

// RecordUserSession handles POST /events/session
func (h *AnalyticsHandler) RecordUserSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var in models.UserSessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	sessionID, err := h.store.InsertUserSession(ctx, &in)
	if err != nil {
		h.respondWithError(w, h.getStatusCode(err), err, "Failed to record user session")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, successResponse(
		map[string]string{"session_id": sessionID}, "Event recorded successfully"))
	h.logger.Info("User session recorded via HTTP",
		util.String("session_id", sessionID),
		util.String("user_id", in.UserID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "RecordUserSession"),
	)
}

// GetUserAnalytics handles GET /analytics/user/{userID}. The response body is
// the assembled analytics object itself, not wrapped in an envelope.
func (h *AnalyticsHandler) GetUserAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, http.StatusBadRequest, errors.New("user ID is required"), "User ID is required")
		return
	}

	result, err := h.engine.UserAnalytics(ctx, userID)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to get user analytics")
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
	h.logger.Debug("User analytics retrieved via HTTP",
		util.String("user_id", userID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "GetUserAnalytics"),
	)
}

// GetSystemAnalytics handles GET /analytics/system
func (h *AnalyticsHandler) GetSystemAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	result, err := h.engine.SystemSummary(ctx)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to get system analytics")
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
	h.logger.Debug("System analytics retrieved via HTTP",
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "GetSystemAnalytics"),
	)
}

// HealthCheck handles GET /health
func (h *AnalyticsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		h.respondWithError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"service": "analytics",
	})
}

// Helper Methods

// respondWithJSON sends a JSON response
func (h *AnalyticsHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func (h *AnalyticsHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	h.logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	h.respondWithJSON(w, statusCode, errorResponse(err, message))
}

// getStatusCode determines the appropriate HTTP status code for an error
func (h *AnalyticsHandler) getStatusCode(err error) int {
	if errors.Is(err, store.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
