package knowledge

import (
	"context"
	"strings"

	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// Results holds the sections matched by a query.
type Results struct {
	Services       []ServiceInfo     `json:"services,omitempty"`
	MatchedService *ServiceInfo      `json:"matchedService,omitempty"`
	Hours          map[string]string `json:"hours,omitempty"`
	Team           []TeamMember      `json:"team,omitempty"`
	Insurance      []string          `json:"insurance,omitempty"`
	Contact        *ClinicInfo       `json:"contact,omitempty"`
	FAQ            *FAQ              `json:"faq,omitempty"`
	Policies       *Policies         `json:"policies,omitempty"`
	Clinic         *ClinicInfo       `json:"clinic,omitempty"`
}

var (
	serviceWords   = []string{"service", "treatment", "price", "cost"}
	hoursWords     = []string{"hour", "open", "close", "when"}
	teamWords      = []string{"doctor", "dentist", "team", "staff"}
	insuranceWords = []string{"insurance", "coverage", "accept"}
	contactWords   = []string{"contact", "address", "location", "phone"}
	policyWords    = []string{"cancel", "policy"}
)

// Match runs the keyword rules over b. Several sections can match at once;
// a query that matches nothing gets the clinic contact block and hours.
func Match(b *Base, query string) Results {
	q := strings.ToLower(query)
	var r Results

	if containsAny(q, serviceWords) {
		r.Services = b.Services
	}
	for i := range b.Services {
		if strings.Contains(q, strings.ToLower(b.Services[i].Name)) {
			svc := b.Services[i]
			r.MatchedService = &svc
		}
	}
	if containsAny(q, hoursWords) {
		r.Hours = b.Hours
	}
	if containsAny(q, teamWords) {
		r.Team = b.Team
	}
	if containsAny(q, insuranceWords) {
		r.Insurance = b.Insurance
	}
	if containsAny(q, contactWords) {
		clinic := b.Clinic
		r.Contact = &clinic
	}
	for i := range b.FAQs {
		if strings.Contains(q, faqPrefix(b.FAQs[i].Question)) {
			faq := b.FAQs[i]
			r.FAQ = &faq
		}
	}
	if containsAny(q, policyWords) {
		policies := b.Policies
		r.Policies = &policies
	}

	if r.empty() {
		clinic := b.Clinic
		r.Clinic = &clinic
		r.Hours = b.Hours
	}
	return r
}

func (r Results) empty() bool {
	return r.Services == nil && r.MatchedService == nil && r.Hours == nil && r.Team == nil &&
		r.Insurance == nil && r.Contact == nil && r.FAQ == nil && r.Policies == nil
}

// faqPrefix is the first three words of the question.
func faqPrefix(question string) string {
	words := strings.Split(strings.ToLower(question), " ")
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Loader returns the current override document, or nil when none is stored.
type Loader interface {
	Load(ctx context.Context) (*Base, error)
}

// Service answers searches from the override document when present and the
// built-in document otherwise.
type Service struct {
	loader   Loader
	fallback *Base
	logger   *logging.Logger
}

// NewService accepts a nil loader.
func NewService(loader Loader, fallback *Base, logger *logging.Logger) *Service {
	if fallback == nil {
		fallback = Default()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{loader: loader, fallback: fallback, logger: logger}
}

// Current returns the document searches run against.
func (s *Service) Current(ctx context.Context) *Base {
	if s.loader == nil {
		return s.fallback
	}
	b, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Warn("knowledge override unavailable, using built-in document", "error", err)
		return s.fallback
	}
	if b == nil {
		return s.fallback
	}
	return b
}

// Search matches query against the current document.
func (s *Service) Search(ctx context.Context, query string) Results {
	return Match(s.Current(ctx), query)
}
