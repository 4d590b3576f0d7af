package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

// RecordHooks adapts generic CRUD to one table. Stamp fills server-owned fields on create and
// Merge copies client-editable fields on update.
type RecordHooks[T policy.Row] struct {
	Stamp func(row *T, actor policy.Identity)
	Merge func(dst *T, src T)
}

// RecordService is policy-guarded CRUD for one protected table.
type RecordService[T policy.Row] struct {
	repo      *repository.ScopedRepository[T]
	hooks     RecordHooks[T]
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRecordService constructs a record service for T.
func NewRecordService[T policy.Row](repo *repository.ScopedRepository[T], hooks RecordHooks[T], validate *validator.Validate, logger zerolog.Logger) *RecordService[T] {
	return &RecordService[T]{
		repo:      repo,
		hooks:     hooks,
		validator: validate,
		logger:    logger.With().Str("component", "record_service").Str("table", string(repo.Table())).Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/madrasa-api/internal/service/records"),
	}
}

// Table returns the protected table served.
func (s *RecordService[T]) Table() policy.Table {
	return s.repo.Table()
}

func (s *RecordService[T]) List(ctx context.Context, actor policy.Identity, page, pageSize int) (dto.RecordListResponse[T], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	rows, total, err := s.repo.List(ctx, actor, repository.ListOptions{Page: page, PageSize: pageSize})
	if err != nil {
		return dto.RecordListResponse[T]{}, storeErr("records.list", err)
	}
	if rows == nil {
		rows = []T{}
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return dto.RecordListResponse[T]{
		Items: rows,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *RecordService[T]) Get(ctx context.Context, actor policy.Identity, id string) (T, error) {
	row, err := s.repo.Get(ctx, actor, id)
	return row, storeErr("records.get", err)
}

// serverOwned is implemented by rows whose key and timestamps are assigned by the store.
type serverOwned interface {
	ClearServerFields()
}

// Create inserts payload as a new row. Client-supplied keys and timestamps are discarded.
func (s *RecordService[T]) Create(ctx context.Context, actor policy.Identity, payload T) (T, error) {
	if row, ok := any(&payload).(serverOwned); ok {
		row.ClearServerFields()
	}
	if s.hooks.Stamp != nil {
		s.hooks.Stamp(&payload, actor)
	}
	if err := s.validator.Struct(payload); err != nil {
		return payload, err
	}

	spanCtx, span := s.start(ctx, "records.create", actor)
	defer span.End()

	if err := s.repo.Create(spanCtx, actor, &payload); err != nil {
		span.RecordError(err)
		return payload, storeErr("records.create", err)
	}
	return payload, nil
}

func (s *RecordService[T]) Update(ctx context.Context, actor policy.Identity, id string, payload T) (T, error) {
	spanCtx, span := s.start(ctx, "records.update", actor)
	defer span.End()

	row, err := s.repo.Update(spanCtx, actor, id, func(current *T) error {
		if s.hooks.Merge != nil {
			s.hooks.Merge(current, payload)
		}
		return s.validator.Struct(*current)
	})
	if err != nil {
		span.RecordError(err)
		if _, ok := err.(validator.ValidationErrors); ok {
			return row, err
		}
		return row, storeErr("records.update", err)
	}
	return row, nil
}

func (s *RecordService[T]) Delete(ctx context.Context, actor policy.Identity, id string) error {
	spanCtx, span := s.start(ctx, "records.delete", actor)
	defer span.End()

	if err := s.repo.Delete(spanCtx, actor, id); err != nil {
		span.RecordError(err)
		return storeErr("records.delete", err)
	}
	return nil
}

func (s *RecordService[T]) start(ctx context.Context, name string, actor policy.Identity) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("records.table", string(s.repo.Table())),
		attribute.String("records.user_id", actor.UserID),
	))
}
