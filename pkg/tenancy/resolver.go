// Package tenancy maps an inbound request identity (subdomain, path slug or
// custom domain) to exactly one active tenant.
package tenancy

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
)

// ErrTenantNotFound covers both a directory miss and a suspended tenant:
// either way the public storefront is unreachable.
var ErrTenantNotFound = errors.New("tenant not found")

// Directory answers identity lookups against the tenant records. Exact match
// only; a miss is reported as ErrTenantNotFound. Uniqueness of slug and
// custom domain is a storage-layer constraint.
type Directory interface {
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	FindByCustomDomain(ctx context.Context, domain string) (*models.Tenant, error)
}

// reservedLabels must never resolve to a tenant, even if a tenant record
// coincidentally carries one of them as its slug.
var reservedLabels = map[string]bool{
	"www":   true,
	"app":   true,
	"admin": true,
}

// Reserved reports whether the label may never be used as a tenant slug.
func Reserved(label string) bool {
	return reservedLabels[strings.ToLower(label)]
}

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

// ValidSlug reports whether s is a usable subdomain label: lowercase
// alphanumeric plus interior hyphens, and not reserved.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s) && !Reserved(s)
}

type Resolver struct {
	directory  Directory
	baseDomain string
	adminHosts map[string]bool
}

func NewResolver(directory Directory, baseDomain string, adminHosts []string) *Resolver {
	hosts := make(map[string]bool, len(adminHosts))
	for _, h := range adminHosts {
		hosts[normalizeHost(h)] = true
	}
	return &Resolver{
		directory:  directory,
		baseDomain: normalizeHost(baseDomain),
		adminHosts: hosts,
	}
}

// IsAdminHost reports whether the host serves the platform's own control
// panel. Callers must branch on this before attempting tenant resolution.
func (r *Resolver) IsAdminHost(host string) bool {
	host = normalizeHost(host)
	return r.adminHosts[host] || host == r.baseDomain
}

// Resolve maps a raw host or bare slug to its tenant.
//
// A host under the platform base domain resolves by its leftmost label as
// slug; anything else is tried as a slug first, then as a custom domain
// (slug takes precedence if both could match). Reserved labels and
// suspended tenants resolve to ErrTenantNotFound.
func (r *Resolver) Resolve(ctx context.Context, hostOrSlug string) (*models.Tenant, error) {
	input := normalizeHost(hostOrSlug)
	if input == "" {
		return nil, ErrTenantNotFound
	}

	if r.baseDomain != "" && strings.HasSuffix(input, "."+r.baseDomain) {
		label, _, _ := strings.Cut(strings.TrimSuffix(input, "."+r.baseDomain), ".")
		return r.activeOnly(r.lookupSlug(ctx, label))
	}

	if t, err := r.lookupSlug(ctx, input); err == nil {
		return r.activeOnly(t, nil)
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	t, err := r.directory.FindByCustomDomain(ctx, input)
	if err != nil {
		return nil, err
	}
	return r.activeOnly(t, nil)
}

func (r *Resolver) lookupSlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if slug == "" || Reserved(slug) {
		return nil, ErrTenantNotFound
	}
	return r.directory.FindBySlug(ctx, slug)
}

func (r *Resolver) activeOnly(t *models.Tenant, err error) (*models.Tenant, error) {
	if err != nil {
		return nil, err
	}
	if t == nil || t.Suspended() {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
