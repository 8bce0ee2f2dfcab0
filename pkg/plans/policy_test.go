package plans

import (
	"testing"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/stretchr/testify/assert"
)

func basicTenant() *models.Tenant {
	return &models.Tenant{ID: "t1", Plan: models.PlanBasic}
}

func proTenant() *models.Tenant {
	return &models.Tenant{ID: "t2", Plan: models.PlanPro}
}

func TestCreateProductQuota(t *testing.T) {
	// 19 existing products: the 20th creation is still allowed.
	err := Authorize(basicTenant(), ActionCreateProduct, Context{CurrentProductCount: 19})
	assert.NoError(t, err)

	// At the cap the next creation is rejected.
	err = Authorize(basicTenant(), ActionCreateProduct, Context{CurrentProductCount: 20})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Pro has no cap.
	err = Authorize(proTenant(), ActionCreateProduct, Context{CurrentProductCount: 5000})
	assert.NoError(t, err)
}

func TestCustomDomainGate(t *testing.T) {
	err := Authorize(basicTenant(), ActionSetCustomDomain, Context{RequestedDomain: "minhaloja.com.br"})
	assert.ErrorIs(t, err, ErrPlanRequired)

	err = Authorize(proTenant(), ActionSetCustomDomain, Context{RequestedDomain: "minhaloja.com.br"})
	assert.NoError(t, err)

	// Clearing the domain is allowed on every plan.
	err = Authorize(basicTenant(), ActionSetCustomDomain, Context{RequestedDomain: ""})
	assert.NoError(t, err)
}

func TestReportsGate(t *testing.T) {
	assert.ErrorIs(t, Authorize(basicTenant(), ActionViewReports, Context{}), ErrPlanRequired)
	assert.NoError(t, Authorize(proTenant(), ActionViewReports, Context{}))
}

func TestUnknownPlanFallsBackToBasic(t *testing.T) {
	tenant := &models.Tenant{ID: "t3", Plan: "enterprise"}

	limits := LimitsFor(tenant.Plan)
	assert.Equal(t, Catalogue[models.PlanBasic], limits)

	err := Authorize(tenant, ActionViewReports, Context{})
	assert.ErrorIs(t, err, ErrPlanRequired)
}
