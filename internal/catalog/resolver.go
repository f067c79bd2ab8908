// Package catalog maps free-text treatment requests onto the service catalog
// and the staff qualified to perform them.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/dental-booking-ai/internal/store"
)

// Repository is the slice of the store the resolver reads.
type Repository interface {
	ListServices(ctx context.Context) ([]store.Service, error)
	StaffForService(ctx context.Context, serviceID int64) ([]store.Staff, error)
}

// Resolver resolves service requests. Ties are broken by catalog order and
// synonym order; there is no ranking.
type Resolver struct {
	repo     Repository
	synonyms []Synonym
}

// NewResolver uses DefaultSynonyms when synonyms is nil.
func NewResolver(repo Repository, synonyms []Synonym) *Resolver {
	if repo == nil {
		panic("catalog: repository is nil")
	}
	if synonyms == nil {
		synonyms = DefaultSynonyms
	}
	return &Resolver{repo: repo, synonyms: synonyms}
}

// Resolve matches text against active services: exact name, then a service
// name containing text, then the synonym list.
func (r *Resolver) Resolve(ctx context.Context, text string) (*store.Service, error) {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return nil, ErrServiceNotFound
	}
	services, err := r.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}

	for i := range services {
		if strings.ToLower(services[i].Name) == query {
			return &services[i], nil
		}
	}
	for i := range services {
		if strings.Contains(strings.ToLower(services[i].Name), query) {
			return &services[i], nil
		}
	}
	for _, syn := range r.synonyms {
		if !strings.Contains(query, syn.Keyword) {
			continue
		}
		// The first matching keyword decides, even if its service is inactive.
		for i := range services {
			if services[i].Name == syn.Service {
				return &services[i], nil
			}
		}
		return nil, ErrServiceNotFound
	}
	return nil, ErrServiceNotFound
}

// StaffFor lists active staff mapped to serviceID. An empty list is an error.
func (r *Resolver) StaffFor(ctx context.Context, serviceID int64) ([]store.Staff, error) {
	staff, err := r.repo.StaffForService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("catalog: staff for service %d: %w", serviceID, err)
	}
	if len(staff) == 0 {
		return nil, ErrNoQualifiedStaff
	}
	return staff, nil
}

// Match is a resolved service with its qualified staff.
type Match struct {
	Service store.Service
	Staff   []store.Staff
}

// Lookup resolves text and loads the staff for the resulting service.
func (r *Resolver) Lookup(ctx context.Context, text string) (*Match, error) {
	svc, err := r.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}
	staff, err := r.StaffFor(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	return &Match{Service: *svc, Staff: staff}, nil
}
