// Package repository defines the data-access contracts the core consumes and
// the adapters for the interchangeable storage backends. The core depends on
// these interfaces only; column/field naming is an adapter concern.
package repository

import (
	"context"
	"errors"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
)

// ErrNotFound is returned by id lookups that miss. Tenant identity lookups
// report tenancy.ErrTenantNotFound instead, per the Directory contract.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a uniqueness constraint (slug, custom domain)
// rejects a write. Uniqueness is enforced here, at the storage layer, because
// concurrent signups may race on the same slug.
var ErrConflict = errors.New("record conflicts with an existing one")

// TenantDirectory holds tenant records and answers identity lookups.
type TenantDirectory interface {
	tenancy.Directory

	GetByID(ctx context.Context, id string) (*models.Tenant, error)
	Create(ctx context.Context, t *models.Tenant) error
	Update(ctx context.Context, t *models.Tenant) error
	List(ctx context.Context) ([]*models.Tenant, error)
}

// OrderStore persists fully-formed order values verbatim. Save enforces
// per-order optimistic concurrency via Order.Version: a write from a stale
// snapshot returns ErrConflict, and a successful write increments the
// snapshot's Version in place. Callers re-read and retry on conflict.
type OrderStore interface {
	Save(ctx context.Context, o *models.Order) error
	LoadByID(ctx context.Context, id string) (*models.Order, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Order, error)
	ListByCustomerPhone(ctx context.Context, tenantID, phone string) ([]*models.Order, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, tenantID, id string) error
	GetByID(ctx context.Context, tenantID, id string) (*models.Product, error)
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]*models.Product, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, tenantID, id string) error
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Category, error)
}

// Store bundles the per-entity contracts one backend adapter provides.
type Store interface {
	Tenants() TenantDirectory
	Orders() OrderStore
	Products() ProductStore
	Categories() CategoryStore
}
