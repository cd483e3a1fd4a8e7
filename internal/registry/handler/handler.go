// Package handler exposes a registry service over HTTP. One generic handler
// serves equipment, deployments and returns; the registry-specific parts are
// the payload type and the read view.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"reliefledger/internal/ledger"
	dErrors "reliefledger/pkg/domain-errors"
	"reliefledger/pkg/platform/httputil"
	request "reliefledger/pkg/platform/middleware/request"
)

// maxBodyBytes caps request bodies. Payloads are a handful of short strings.
const maxBodyBytes = 64 << 10

// Service is the registry call surface the handler depends on.
type Service[T any] interface {
	Schema() ledger.Schema
	Create(ctx context.Context, payload T) (ledger.ID, error)
	Get(ctx context.Context, id ledger.ID) (ledger.Record[T], error)
	SetStatus(ctx context.Context, id ledger.ID, status ledger.Status) error
}

// SetStatusRequest is the body of PUT /{registry}/{id}/status.
type SetStatusRequest struct {
	Status *string `json:"status"`
}

// Handler serves one registry. V is the JSON view returned by reads.
type Handler[T, V any] struct {
	service Service[T]
	view    func(ledger.Record[T]) V
	logger  *slog.Logger
}

func New[T, V any](service Service[T], view func(ledger.Record[T]) V, logger *slog.Logger) *Handler[T, V] {
	return &Handler[T, V]{
		service: service,
		view:    view,
		logger:  logger,
	}
}

// Register mounts POST {prefix}, GET {prefix}/{id} and PUT {prefix}/{id}/status.
func (h *Handler[T, V]) Register(r chi.Router, prefix string) {
	r.Post(prefix, h.handleCreate)
	r.Get(prefix+"/{id}", h.handleGet)
	r.Put(prefix+"/{id}/status", h.handleSetStatus)
}

func (h *Handler[T, V]) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload T
	if err := h.decode(w, r, &payload); err != nil {
		return
	}

	id, err := h.service.Create(ctx, payload)
	if err != nil {
		h.writeServiceError(ctx, w, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ledger.Ok(id))
}

func (h *Handler[T, V]) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.view(rec))
}

func (h *Handler[T, V]) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := h.decode(w, r, &req); err != nil {
		return
	}
	if req.Status == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "status is required"))
		return
	}

	if err := h.service.SetStatus(ctx, id, ledger.Status(*req.Status)); err != nil {
		h.writeServiceError(ctx, w, "set_status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ledger.Ok(true))
}

func (h *Handler[T, V]) parseID(w http.ResponseWriter, r *http.Request) (ledger.ID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid record id",
			"registry", h.service.Schema().Name,
			"id", raw,
			"request_id", request.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "record id must be a positive integer"))
		return 0, false
	}
	return ledger.ID(n), true
}

func (h *Handler[T, V]) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"registry", h.service.Schema().Name,
			"error", err.Error(),
			"request_id", request.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return err
	}
	return nil
}

func (h *Handler[T, V]) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "registry operation failed",
			"registry", h.service.Schema().Name,
			"operation", op,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
