package lib

import "github.com/google/uuid"

// NewID returns a random identifier used to correlate operations and
// subscriptions in logs.
func NewID() string {
	return uuid.NewString()
}
