package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/observability"
	"github.com/noah-isme/madrasa-api/internal/policy"
)

// RelationResolver supplies the relationship facts a policy needs for a row.
type RelationResolver interface {
	Relations(ctx context.Context, identity policy.Identity, resource policy.Resource) (policy.Relations, error)
}

// ListOptions paginates scoped list queries.
type ListOptions struct {
	Page     int
	PageSize int
}

// ReadScope restricts a query to the rows identity may select from table.
func ReadScope(table policy.Table, identity policy.Identity) func(*gorm.DB) *gorm.DB {
	filter := policy.ReadFilter(table, identity)
	return func(db *gorm.DB) *gorm.DB {
		if filter.Clause == "" {
			return db
		}
		return db.Where(filter.Clause, filter.Args...)
	}
}

// ScopedRepository stores rows of a protected table and evaluates the row policy on every
// statement. Hidden rows surface as gorm.ErrRecordNotFound, rejected writes as policy.ErrDenied.
type ScopedRepository[T policy.Row] struct {
	db        *gorm.DB
	relations RelationResolver
	table     policy.Table
}

// NewScopedRepository constructs a policy-guarded repository for T.
func NewScopedRepository[T policy.Row](db *gorm.DB, relations RelationResolver) *ScopedRepository[T] {
	var zero T
	return &ScopedRepository[T]{
		db:        db,
		relations: relations,
		table:     zero.PolicyResource().Table,
	}
}

// Table returns the protected table name.
func (r *ScopedRepository[T]) Table() policy.Table {
	return r.table
}

func (r *ScopedRepository[T]) List(ctx context.Context, identity policy.Identity, opts ListOptions) ([]T, int64, error) {
	query := r.db.WithContext(ctx).Model(new(T)).Scopes(ReadScope(r.table, identity))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []T
	if err := paginate(query, opts.Page, opts.PageSize).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ScopedRepository[T]) Get(ctx context.Context, identity policy.Identity, id string) (T, error) {
	var row T
	err := r.db.WithContext(ctx).
		Scopes(ReadScope(r.table, identity)).
		Where("id = ?", id).
		First(&row).Error
	return row, err
}

func (r *ScopedRepository[T]) Create(ctx context.Context, identity policy.Identity, row *T) error {
	if err := r.check(ctx, policy.OpInsert, identity, *row); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// Update loads the visible row, applies mutate and saves it when the policy allows the update
// of both the stored and the mutated row.
func (r *ScopedRepository[T]) Update(ctx context.Context, identity policy.Identity, id string, mutate func(*T) error) (T, error) {
	row, err := r.Get(ctx, identity, id)
	if err != nil {
		return row, err
	}
	if err := r.check(ctx, policy.OpUpdate, identity, row); err != nil {
		return row, err
	}

	if err := mutate(&row); err != nil {
		return row, err
	}
	if err := r.check(ctx, policy.OpUpdate, identity, row); err != nil {
		return row, err
	}

	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return row, err
	}
	return row, nil
}

func (r *ScopedRepository[T]) Delete(ctx context.Context, identity policy.Identity, id string) error {
	row, err := r.Get(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := r.check(ctx, policy.OpDelete, identity, row); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&row).Error
}

func (r *ScopedRepository[T]) check(ctx context.Context, op policy.Operation, identity policy.Identity, row T) error {
	resource := row.PolicyResource()

	var rel policy.Relations
	if r.relations != nil {
		resolved, err := r.relations.Relations(ctx, identity, resource)
		if err != nil {
			return err
		}
		rel = resolved
	}

	decision := policy.Evaluate(op, identity, resource, rel)
	observability.PolicyDecisions().WithLabelValues(string(r.table), string(op), decision.String()).Inc()
	if decision == policy.Deny {
		return policy.ErrDenied
	}
	return nil
}
