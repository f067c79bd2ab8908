package appointments

import "github.com/wolfman30/dental-booking-ai/internal/store"

var allowedTransitions = map[store.Status][]store.Status{
	store.StatusPending:  {store.StatusApproved, store.StatusDeclined, store.StatusCancelled},
	store.StatusApproved: {store.StatusCancelled},
}

// CanTransition reports whether from may move to to. Re-applying the current
// status is not a transition; callers treat it as a no-op.
func CanTransition(from, to store.Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
