// Package admin serves the operator routes that mint and revoke actor tokens.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reliefledger/internal/actortoken"
	"reliefledger/internal/ledger"
	dErrors "reliefledger/pkg/domain-errors"
	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/httputil"
	adminmw "reliefledger/pkg/platform/middleware/admin"
	request "reliefledger/pkg/platform/middleware/request"
	platformstrings "reliefledger/pkg/platform/strings"
)

const auditRegistry = "actor_token"

type TokenIssuer interface {
	Issue(actor ledger.Actor, ttl time.Duration) (actortoken.Issued, error)
}

type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error
}

// AuditReader answers the operator trail query.
type AuditReader interface {
	ListByActors(ctx context.Context, actors []string) ([]audit.Event, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Handler struct {
	issuer     TokenIssuer
	revoker    TokenRevoker
	auditor    AuditPublisher
	reader     AuditReader
	logger     *slog.Logger
	adminToken string
	defaultTTL time.Duration
	maxTTL     time.Duration
}

type Option func(*Handler)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(h *Handler) {
		h.auditor = p
	}
}

// WithAuditReader enables GET /admin/audit.
func WithAuditReader(r AuditReader) Option {
	return func(h *Handler) {
		h.reader = r
	}
}

// WithMaxTTL caps requested lifetimes. Revocation entries are kept for maxTTL
// so they outlive any token that could still be presented.
func WithMaxTTL(ttl time.Duration) Option {
	return func(h *Handler) {
		if ttl > 0 {
			h.maxTTL = ttl
		}
	}
}

func New(issuer TokenIssuer, revoker TokenRevoker, adminToken string, defaultTTL time.Duration, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		issuer:     issuer,
		revoker:    revoker,
		logger:     logger,
		adminToken: adminToken,
		defaultTTL: defaultTTL,
		maxTTL:     defaultTTL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the admin routes behind the X-Admin-Token check.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(adminmw.RequireAdminToken(h.adminToken, h.logger))
		ar.Post("/tokens", h.handleIssueToken)
		ar.Post("/tokens/revoke", h.handleRevokeToken)
		if h.reader != nil {
			ar.Get("/audit", h.handleListAudit)
		}
	})
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "actor is required"))
		return
	}
	ttl := h.defaultTTL
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "ttl must be a positive duration"))
			return
		}
		ttl = parsed
	}
	if ttl > h.maxTTL {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "ttl exceeds maximum of "+h.maxTTL.String()))
		return
	}

	issued, err := h.issuer.Issue(ledger.Actor(actor), ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue actor token",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "actor token issued",
		"actor", actor,
		"jti", issued.JTI,
		"request_id", requestID,
	)
	h.emit(ctx, audit.Event{
		Registry: auditRegistry,
		Actor:    "admin",
		Owner:    actor,
		Action:   string(audit.EventTokenIssued),
		Reason:   "jti=" + issued.JTI,
	})
	httputil.WriteJSON(w, http.StatusCreated, IssueTokenResponse{
		Token:     issued.Token,
		JTI:       issued.JTI,
		Actor:     issued.Actor,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (h *Handler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req RevokeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	jtis := platformstrings.DedupeAndTrim(append([]string{req.JTI}, req.JTIs...))
	if len(jtis) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "jti is required"))
		return
	}

	var err error
	if len(jtis) == 1 {
		err = h.revoker.RevokeToken(ctx, jtis[0], h.maxTTL)
	} else {
		err = h.revoker.RevokeTokens(ctx, jtis, h.maxTTL)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke actor tokens",
			"jtis", jtis,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token"))
		return
	}

	h.logger.InfoContext(ctx, "actor tokens revoked",
		"jtis", jtis,
		"request_id", requestID,
	)
	for _, jti := range jtis {
		h.emit(ctx, audit.Event{
			Registry: auditRegistry,
			Actor:    "admin",
			Action:   string(audit.EventTokenRevoked),
			Reason:   "jti=" + jti,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actors := platformstrings.DedupeAndTrim(r.URL.Query()["actor"])
	if len(actors) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "at least one actor is required"))
		return
	}

	events, err := h.reader.ListByActors(ctx, actors)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"actors", actors,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	resp := AuditEventsResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toAuditEventResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func toAuditEventResponse(e audit.Event) AuditEventResponse {
	var id string
	if e.ID != uuid.Nil {
		id = e.ID.String()
	}
	return AuditEventResponse{
		ID:             id,
		Category:       string(e.Category),
		Timestamp:      e.Timestamp,
		Registry:       e.Registry,
		RecordID:       e.RecordID,
		Actor:          e.Actor,
		Owner:          e.Owner,
		Action:         e.Action,
		Status:         e.Status,
		PreviousStatus: e.PreviousStatus,
		Reason:         e.Reason,
		RequestID:      e.RequestID,
	}
}

func (h *Handler) emit(ctx context.Context, event audit.Event) {
	if h.auditor == nil {
		return
	}
	event.RequestID = request.GetRequestID(ctx)
	if err := h.auditor.Emit(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
