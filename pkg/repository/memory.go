package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
)

// MemoryStore keeps everything in process memory. It backs tests and local
// development without a database; the same interfaces hold for the mongo and
// mysql adapters.
type MemoryStore struct {
	mu         sync.RWMutex
	tenants    map[string]models.Tenant
	orders     map[string]models.Order
	products   map[string]models.Product
	categories map[string]models.Category
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:    map[string]models.Tenant{},
		orders:     map[string]models.Order{},
		products:   map[string]models.Product{},
		categories: map[string]models.Category{},
	}
}

func (m *MemoryStore) Tenants() TenantDirectory { return (*memoryTenants)(m) }
func (m *MemoryStore) Orders() OrderStore       { return (*memoryOrders)(m) }
func (m *MemoryStore) Products() ProductStore   { return (*memoryProducts)(m) }
func (m *MemoryStore) Categories() CategoryStore {
	return (*memoryCategories)(m)
}

type memoryTenants MemoryStore

func (r *memoryTenants) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.Slug == strings.ToLower(slug) {
			cp := t
			return &cp, nil
		}
	}
	return nil, tenancy.ErrTenantNotFound
}

func (r *memoryTenants) FindByCustomDomain(_ context.Context, domain string) (*models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.CustomDomain != "" && strings.EqualFold(t.CustomDomain, domain) {
			cp := t
			return &cp, nil
		}
	}
	return nil, tenancy.ErrTenantNotFound
}

func (r *memoryTenants) GetByID(_ context.Context, id string) (*models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (r *memoryTenants) Create(_ context.Context, t *models.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tenants {
		if existing.Slug == t.Slug {
			return ErrConflict
		}
		if t.CustomDomain != "" && strings.EqualFold(existing.CustomDomain, t.CustomDomain) {
			return ErrConflict
		}
	}
	r.tenants[t.ID] = *t
	return nil
}

func (r *memoryTenants) Update(_ context.Context, t *models.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.tenants {
		if id == t.ID {
			continue
		}
		if existing.Slug == t.Slug {
			return ErrConflict
		}
		if t.CustomDomain != "" && strings.EqualFold(existing.CustomDomain, t.CustomDomain) {
			return ErrConflict
		}
	}
	r.tenants[t.ID] = *t
	return nil
}

func (r *memoryTenants) List(_ context.Context) ([]*models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		cp := t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memoryOrders MemoryStore

func (r *memoryOrders) Save(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.orders[o.ID]; ok && existing.Version != o.Version {
		return ErrConflict
	}
	o.Version++
	r.orders[o.ID] = *o
	return nil
}

func (r *memoryOrders) LoadByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (r *memoryOrders) ListByTenant(_ context.Context, tenantID string) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Order{}
	for _, o := range r.orders {
		if o.TenantID == tenantID {
			cp := o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryOrders) ListByCustomerPhone(_ context.Context, tenantID, phone string) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Order{}
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.Customer.Phone == phone {
			cp := o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memoryProducts MemoryStore

func (r *memoryProducts) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *memoryProducts) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return ErrNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memoryProducts) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[id]
	if !ok || existing.TenantID != tenantID {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryProducts) GetByID(_ context.Context, tenantID, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *memoryProducts) ListByTenant(_ context.Context, tenantID string, activeOnly bool) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Product{}
	for _, p := range r.products {
		if p.TenantID != tenantID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryProducts) CountByTenant(_ context.Context, tenantID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.products {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

type memoryCategories MemoryStore

func (r *memoryCategories) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = *c
	return nil
}

func (r *memoryCategories) Update(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.categories[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return ErrNotFound
	}
	r.categories[c.ID] = *c
	return nil
}

func (r *memoryCategories) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.categories[id]
	if !ok || existing.TenantID != tenantID {
		return ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *memoryCategories) ListByTenant(_ context.Context, tenantID string) ([]*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Category{}
	for _, c := range r.categories {
		if c.TenantID == tenantID {
			cp := c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
