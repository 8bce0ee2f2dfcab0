// Package plans enforces subscription-tier quotas and feature flags at the
// point of mutation. The policy only classifies; it never edits state.
package plans

import (
	"errors"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
)

var (
	// ErrQuotaExceeded means the plan's product cap has been reached.
	ErrQuotaExceeded = errors.New("plan quota exceeded")
	// ErrPlanRequired means the feature needs a higher plan.
	ErrPlanRequired = errors.New("pro plan required")
)

// Limits is one plan's quota/feature row. MaxProducts == 0 means unlimited.
type Limits struct {
	MaxProducts       int
	AllowCustomDomain bool
	AllowReports      bool
}

// Catalogue is the hardcoded plan table.
var Catalogue = map[models.Plan]Limits{
	models.PlanBasic: {
		MaxProducts:       20,
		AllowCustomDomain: false,
		AllowReports:      false,
	},
	models.PlanPro: {
		MaxProducts:       0,
		AllowCustomDomain: true,
		AllowReports:      true,
	},
}

// LimitsFor returns the plan's limits; unknown plans fall back to basic.
func LimitsFor(plan models.Plan) Limits {
	if l, ok := Catalogue[plan]; ok {
		return l
	}
	return Catalogue[models.PlanBasic]
}

type Action string

const (
	ActionCreateProduct   Action = "createProduct"
	ActionSetCustomDomain Action = "setCustomDomain"
	ActionViewReports     Action = "viewReports"
)

// Context carries the counts and requested values an authorization decision
// needs; the policy performs no I/O of its own.
type Context struct {
	CurrentProductCount int
	RequestedDomain     string
}

// Authorize classifies the action against the tenant's plan. A nil error is
// an allow; a denial never mutates anything on the caller's behalf.
func Authorize(tenant *models.Tenant, action Action, ctx Context) error {
	limits := LimitsFor(tenant.Plan)

	switch action {
	case ActionCreateProduct:
		if limits.MaxProducts > 0 && ctx.CurrentProductCount >= limits.MaxProducts {
			return ErrQuotaExceeded
		}
	case ActionSetCustomDomain:
		// Clearing a domain is always permitted, also on basic.
		if ctx.RequestedDomain != "" && !limits.AllowCustomDomain {
			return ErrPlanRequired
		}
	case ActionViewReports:
		if !limits.AllowReports {
			return ErrPlanRequired
		}
	}
	return nil
}
