package app

import (
	"fmt"

	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
)

// Registry is the identity-mapping layer between organization codes and
// Google Play application ids. It is built once from configuration and is a
// pure lookup for the rest of the run.
type Registry struct {
	ordered []domain.Organization
	byCode  map[string]domain.Organization
}

func NewRegistry(specs []shared.OrgSpec) *Registry {
	r := &Registry{byCode: make(map[string]domain.Organization, len(specs))}
	for _, s := range specs {
		org := domain.Organization{Code: s.Code, DisplayName: s.DisplayName, AppID: s.AppID}
		r.ordered = append(r.ordered, org)
		r.byCode[s.Code] = org
	}
	return r
}

func (r *Registry) Resolve(code string) (domain.Organization, error) {
	org, ok := r.byCode[code]
	if !ok {
		return domain.Organization{}, fmt.Errorf("%w: %q", domain.ErrUnknownOrganization, code)
	}
	return org, nil
}

// Invert maps an application id back to its organization code, for raw dumps
// named by app id rather than code. First configured match wins.
func (r *Registry) Invert(appID string) (string, bool) {
	for _, org := range r.ordered {
		if org.AppID == appID {
			return org.Code, true
		}
	}
	return "", false
}

// Codes returns the configured organization codes in configuration order.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.ordered))
	for _, org := range r.ordered {
		out = append(out, org.Code)
	}
	return out
}
