// Package service is the host call surface around one registry ledger. It
// resolves the calling actor from the request context, translates ledger
// failures into domain errors and records audit, metrics and traces.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reliefledger/internal/ledger"
	"reliefledger/internal/registry/metrics"
	dErrors "reliefledger/pkg/domain-errors"
	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/requestcontext"
)

const (
	opCreate    = "create"
	opGet       = "get"
	opSetStatus = "set_status"
)

// AuditPublisher receives one event per ledger mutation attempt.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type options struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditor   AuditPublisher
	tracer    trace.Tracer
	auditRead bool
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(o *options) {
		o.auditor = p
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithReadAudit also records successful reads as operations events.
func WithReadAudit() Option {
	return func(o *options) {
		o.auditRead = true
	}
}

type Service[T any] struct {
	ledger *ledger.Ledger[T]
	schema ledger.Schema
	options
}

func New[T any](l *ledger.Ledger[T], opts ...Option) *Service[T] {
	o := options{
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("reliefledger/registry"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service[T]{ledger: l, schema: l.Schema(), options: o}
}

// Schema describes the wrapped ledger.
func (s *Service[T]) Schema() ledger.Schema {
	return s.schema
}

// Create registers payload under the calling actor and returns its id.
func (s *Service[T]) Create(ctx context.Context, payload T) (ledger.ID, error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, opCreate)
	defer span.End()

	actor, err := s.requireActor(ctx, span, opCreate, start)
	if err != nil {
		return 0, err
	}

	id := s.ledger.Create(actor, payload)
	span.SetAttributes(attribute.Int64("ledger.record_id", int64(id)))
	s.metrics.IncrementRecordsCreated(s.schema.Name)
	s.metrics.ObserveOperation(s.schema.Name, opCreate, metrics.OutcomeOK, start)

	s.logger.InfoContext(ctx, "record created",
		"registry", s.schema.Name,
		"record_id", uint64(id),
		s.schema.OwnerField, string(actor),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Registry: s.schema.Name,
		RecordID: uint64(id),
		Actor:    string(actor),
		Owner:    string(actor),
		Action:   string(audit.EventRecordCreated),
		Status:   string(s.schema.DefaultStatus),
	})
	return id, nil
}

// Get returns the record stored under id. Reads are not owner-gated.
func (s *Service[T]) Get(ctx context.Context, id ledger.ID) (ledger.Record[T], error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, opGet)
	defer span.End()
	span.SetAttributes(attribute.Int64("ledger.record_id", int64(id)))

	rec, ok := s.ledger.Get(id)
	if !ok {
		s.metrics.ObserveOperation(s.schema.Name, opGet, metrics.OutcomeNotFound, start)
		span.SetStatus(codes.Error, "not found")
		return ledger.Record[T]{}, dErrors.Wrap(
			&ledger.Error{Code: ledger.CodeNotFound, ID: id, Actor: requestcontext.Actor(ctx)},
			dErrors.CodeNotFound, s.schema.Name+" record not found")
	}
	s.metrics.ObserveOperation(s.schema.Name, opGet, metrics.OutcomeOK, start)
	if s.auditRead {
		s.emit(ctx, audit.Event{
			Registry: s.schema.Name,
			RecordID: uint64(id),
			Actor:    string(requestcontext.Actor(ctx)),
			Owner:    string(rec.Owner),
			Action:   string(audit.EventRecordRead),
			Status:   string(rec.Status),
		})
	}
	return rec, nil
}

// SetStatus overwrites the status of record id. Only the record's owner may
// do so; other actors get CodeForbidden and unknown ids CodeNotFound. Both
// wrap the originating *ledger.Error.
func (s *Service[T]) SetStatus(ctx context.Context, id ledger.ID, status ledger.Status) error {
	start := time.Now()
	ctx, span := s.startSpan(ctx, opSetStatus)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("ledger.record_id", int64(id)),
		attribute.String("ledger.status", string(status)),
	)

	actor, err := s.requireActor(ctx, span, opSetStatus, start)
	if err != nil {
		return err
	}

	previous, err := s.ledger.SwapStatus(actor, id, status)
	if err != nil {
		return s.rejectStatus(ctx, span, actor, id, status, err, start)
	}

	s.metrics.ObserveOperation(s.schema.Name, opSetStatus, metrics.OutcomeOK, start)
	s.logger.InfoContext(ctx, "record status updated",
		"registry", s.schema.Name,
		"record_id", uint64(id),
		"status", string(status),
		"previous_status", string(previous),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Registry:       s.schema.Name,
		RecordID:       uint64(id),
		Actor:          string(actor),
		Owner:          string(actor),
		Action:         string(audit.EventStatusUpdated),
		Status:         string(status),
		PreviousStatus: string(previous),
	})
	return nil
}

func (s *Service[T]) rejectStatus(ctx context.Context, span trace.Span, actor ledger.Actor, id ledger.ID, status ledger.Status, err error, start time.Time) error {
	var le *ledger.Error
	if !errors.As(err, &le) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set status failed")
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update status")
	}

	event := audit.Event{
		Registry: s.schema.Name,
		RecordID: uint64(id),
		Actor:    string(actor),
		Action:   string(audit.EventStatusUpdateRejected),
		Status:   string(status),
		Reason:   le.Code.String(),
	}
	var out error
	switch le.Code {
	case ledger.CodeNotFound:
		s.metrics.ObserveOperation(s.schema.Name, opSetStatus, metrics.OutcomeNotFound, start)
		out = dErrors.Wrap(le, dErrors.CodeNotFound, s.schema.Name+" record not found")
	default:
		s.metrics.ObserveOperation(s.schema.Name, opSetStatus, metrics.OutcomeUnauthorized, start)
		if rec, ok := s.ledger.Get(id); ok {
			event.Owner = string(rec.Owner)
			event.PreviousStatus = string(rec.Status)
		}
		out = dErrors.Wrap(le, dErrors.CodeForbidden, "only the "+s.schema.OwnerField+" may update status")
	}

	span.SetStatus(codes.Error, le.Code.String())
	s.logger.WarnContext(ctx, "record status update rejected",
		"registry", s.schema.Name,
		"record_id", uint64(id),
		"actor", string(actor),
		"reason", le.Code.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, event)
	return out
}

func (s *Service[T]) requireActor(ctx context.Context, span trace.Span, op string, start time.Time) (ledger.Actor, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		s.metrics.ObserveOperation(s.schema.Name, op, metrics.OutcomeRejected, start)
		span.SetStatus(codes.Error, "missing actor")
		return "", dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	span.SetAttributes(attribute.String("ledger.actor", string(actor)))
	return actor, nil
}

func (s *Service[T]) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, s.schema.Name+"."+op,
		trace.WithAttributes(attribute.String("ledger.registry", s.schema.Name)),
	)
}

// emit never fails the caller: the ledger write has already happened.
func (s *Service[T]) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	event.Timestamp = requestcontext.Now(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"registry", event.Registry,
			"record_id", event.RecordID,
			"error", err,
		)
	}
}
