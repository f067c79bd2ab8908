package catalog

import (
	"fmt"

	"github.com/wolfman30/dental-booking-ai/internal/store"
)

var (
	// ErrServiceNotFound means no matching rule produced an active service.
	ErrServiceNotFound = fmt.Errorf("catalog: requested service %w", store.ErrNotFound)

	// ErrNoQualifiedStaff means the service exists but nobody is mapped to
	// perform it, which is a data error rather than an empty result.
	ErrNoQualifiedStaff = fmt.Errorf("catalog: qualified staff %w", store.ErrNotFound)
)
