package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voicedesk/redial/pkg/dispatch"
	"github.com/voicedesk/redial/pkg/logger"
	"github.com/voicedesk/redial/pkg/operation"
	"github.com/voicedesk/redial/pkg/sweep"
)

// intakeAPI is the internal surface other services use to hand work to the
// engine: enqueue an operation, inspect it, cancel it.
type intakeAPI struct {
	enqueuer   *operation.Enqueuer
	store      operation.Store
	dispatcher *dispatch.Dispatcher
	waker      *sweep.Waker
	canceller  *sweep.Canceller
	log        *slog.Logger
}

func (a *intakeAPI) routes(r chi.Router) {
	r.Post("/operations", a.enqueue)
	r.Get("/operations/{id}", a.get)
	r.Post("/operations/{id}/cancel", a.cancel)
}

type enqueueRequest struct {
	ID      string          `json:"id,omitempty"`
	OwnerID string          `json:"owner_id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	// NotBefore schedules the first attempt; empty means immediately.
	NotBefore *time.Time `json:"not_before,omitempty"`
}

func (a *intakeAPI) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Payload) == 0 || string(req.Payload) == "null" {
		respondError(w, http.StatusBadRequest, "payload is required")
		return
	}
	// Accepting a kind no handler serves would park the operation until a
	// process that handles it comes along, or worse. Reject it up front.
	if req.Kind != "" && !a.dispatcher.HasHandler(req.Kind) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown operation kind %q", req.Kind))
		return
	}

	var opts []operation.EnqueueOption
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "id must be a UUID")
			return
		}
		opts = append(opts, operation.WithID(id))
	}
	if req.NotBefore != nil {
		opts = append(opts, operation.WithScheduledAt(*req.NotBefore))
	}

	op, err := a.enqueuer.Enqueue(r.Context(), req.OwnerID, req.Kind, req.Payload, opts...)
	if err != nil {
		switch {
		case errors.Is(err, operation.ErrOwnerRequired),
			errors.Is(err, operation.ErrKindRequired),
			errors.Is(err, operation.ErrPayloadNil):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			a.log.ErrorContext(r.Context(), "enqueue failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to enqueue operation")
		}
		return
	}

	// Arm a precise wake so the attempt does not wait for the next sweep.
	// The sweeper still picks the operation up if the process dies first.
	if op.NextAttemptAt != nil {
		if err := a.waker.Schedule(op.ID, *op.NextAttemptAt); err != nil {
			a.log.WarnContext(r.Context(), "failed to arm wake, sweep will pick it up",
				logger.OperationID(op.ID), logger.Error(err))
		}
	}

	respondJSON(w, http.StatusCreated, op)
}

func (a *intakeAPI) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	op, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, operation.ErrNotFound) {
			respondError(w, http.StatusNotFound, "operation not found")
			return
		}
		a.log.ErrorContext(r.Context(), "lookup failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load operation")
		return
	}

	respondJSON(w, http.StatusOK, op)
}

func (a *intakeAPI) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	// Cancellation is idempotent: unknown or already-terminal operations
	// come back as success.
	if err := a.canceller.Cancel(r.Context(), id); err != nil {
		a.log.ErrorContext(r.Context(), "cancel failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to cancel operation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
