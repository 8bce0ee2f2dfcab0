package tenancy

import (
	"context"
	"testing"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	bySlug   map[string]*models.Tenant
	byDomain map[string]*models.Tenant
}

func (d *fakeDirectory) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	if t, ok := d.bySlug[slug]; ok {
		return t, nil
	}
	return nil, ErrTenantNotFound
}

func (d *fakeDirectory) FindByCustomDomain(_ context.Context, domain string) (*models.Tenant, error) {
	if t, ok := d.byDomain[domain]; ok {
		return t, nil
	}
	return nil, ErrTenantNotFound
}

func newTestResolver() *Resolver {
	loja := &models.Tenant{ID: "t1", Slug: "loja-maria", SubscriptionStatus: models.SubscriptionActive}
	suspended := &models.Tenant{ID: "t2", Slug: "dormant", SubscriptionStatus: models.SubscriptionSuspended}
	ambiguous := &models.Tenant{ID: "t3", Slug: "minhaloja.com.br", SubscriptionStatus: models.SubscriptionActive}
	domainOwner := &models.Tenant{ID: "t4", Slug: "padaria", CustomDomain: "minhaloja.com.br", SubscriptionStatus: models.SubscriptionActive}

	dir := &fakeDirectory{
		bySlug: map[string]*models.Tenant{
			"loja-maria":       loja,
			"dormant":          suspended,
			"minhaloja.com.br": ambiguous,
			"padaria":          domainOwner,
		},
		byDomain: map[string]*models.Tenant{
			"minhaloja.com.br": domainOwner,
			"www.padaria.com":  domainOwner,
		},
	}
	return NewResolver(dir, "katalogo.digital", []string{"app.katalogo.digital", "admin.katalogo.digital"})
}

func TestResolveSubdomain(t *testing.T) {
	r := newTestResolver()

	tenant, err := r.Resolve(context.Background(), "loja-maria.katalogo.digital")
	require.NoError(t, err)
	assert.Equal(t, "t1", tenant.ID)
}

func TestResolveNormalizesCaseAndPort(t *testing.T) {
	r := newTestResolver()

	tenant, err := r.Resolve(context.Background(), "Loja-Maria.Katalogo.Digital:8080")
	require.NoError(t, err)
	assert.Equal(t, "t1", tenant.ID)
}

func TestResolveBareSlug(t *testing.T) {
	r := newTestResolver()

	tenant, err := r.Resolve(context.Background(), "loja-maria")
	require.NoError(t, err)
	assert.Equal(t, "t1", tenant.ID)
}

func TestResolveCustomDomain(t *testing.T) {
	r := newTestResolver()

	tenant, err := r.Resolve(context.Background(), "www.padaria.com")
	require.NoError(t, err)
	assert.Equal(t, "t4", tenant.ID)
}

func TestResolveSlugTakesPrecedenceOverDomain(t *testing.T) {
	r := newTestResolver()

	// "minhaloja.com.br" exists both as a slug and as another tenant's custom
	// domain; slug wins, and repeated calls agree.
	for i := 0; i < 3; i++ {
		tenant, err := r.Resolve(context.Background(), "minhaloja.com.br")
		require.NoError(t, err)
		assert.Equal(t, "t3", tenant.ID)
	}
}

func TestResolveReservedLabels(t *testing.T) {
	r := newTestResolver()

	for _, host := range []string{
		"www.katalogo.digital",
		"app.katalogo.digital",
		"admin.katalogo.digital",
	} {
		_, err := r.Resolve(context.Background(), host)
		assert.ErrorIs(t, err, ErrTenantNotFound, host)
	}
}

func TestResolveSuspendedTenant(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), "dormant.katalogo.digital")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.Resolve(context.Background(), "dormant")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveUnknown(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), "nobody.katalogo.digital")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveDeepSubdomainUsesLeftmostLabel(t *testing.T) {
	r := newTestResolver()

	tenant, err := r.Resolve(context.Background(), "loja-maria.extra.katalogo.digital")
	require.NoError(t, err)
	assert.Equal(t, "t1", tenant.ID)
}

func TestIsAdminHost(t *testing.T) {
	r := newTestResolver()

	assert.True(t, r.IsAdminHost("app.katalogo.digital"))
	assert.True(t, r.IsAdminHost("ADMIN.katalogo.digital:443"))
	assert.True(t, r.IsAdminHost("katalogo.digital"))
	assert.False(t, r.IsAdminHost("loja-maria.katalogo.digital"))
}

func TestValidSlug(t *testing.T) {
	valid := []string{"loja", "loja-maria", "a", "loja123", "123loja"}
	for _, s := range valid {
		assert.True(t, ValidSlug(s), s)
	}

	invalid := []string{"", "-loja", "loja-", "Loja", "loja maria", "www", "app", "admin"}
	for _, s := range invalid {
		assert.False(t, ValidSlug(s), s)
	}
}
