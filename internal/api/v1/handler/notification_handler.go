package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pushnotify/internal/api/v1/dto"
	"pushnotify/internal/model"
	"pushnotify/internal/service"

	"github.com/rs/zerolog"
)

const maxPayloadBytes = 1 << 20

type NotificationHandler struct {
	notificationService service.NotificationService
	timeout             time.Duration
	logger              zerolog.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, timeout time.Duration, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		timeout:             timeout,
		logger:              logger.With().Str("handler", "NotificationHandler").Logger(),
	}
}

// RegisterRoutes mounts v1 notification routes
func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/notifications/message", authMw(http.HandlerFunc(h.notifyMessage)))
	mux.Handle("/notifications/offer-contact", authMw(http.HandlerFunc(h.notifyOfferContact)))
}

func (h *NotificationHandler) notifyMessage(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, model.KindMessage)
}

func (h *NotificationHandler) notifyOfferContact(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, model.KindOfferContact)
}

func (h *NotificationHandler) notify(w http.ResponseWriter, r *http.Request, kind model.Kind) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. Read the body, capped
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), "validation_error")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body: "+err.Error(), "validation_error")
		return
	}

	// 2. Run the pipeline within the request deadline
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	resp, err := h.notificationService.Notify(ctx, kind, body)
	if err != nil {
		status := statusForError(err)
		// A failed upstream call after the deadline is a timeout, whatever the
		// client library wrapped it in.
		if status >= http.StatusInternalServerError && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("kind", string(kind)).Int("status", status).Msg("Notification failed")
		}
		writeError(w, status, err.Error(), service.ErrorType(err))
		return
	}

	// 3. Mirror the gateway's response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func statusForError(err error) int {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		authErr       *service.AuthError
		gatewayErr    *service.GatewayError
		protocolErr   *service.ProtocolError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &authErr), errors.As(err, &gatewayErr), errors.As(err, &protocolErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponseDTO{Error: msg, Type: errType})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.HealthResponseDTO{Status: "ok", Service: "pushnotify"})
}
