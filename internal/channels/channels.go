// Package channels defines the outbound delivery surface. The dispatch
// loop only sees the Deliverer interface; concrete channels live in
// subpackages.
package channels

import "context"

// Deliverer sends one reminder text to a chat target. Implementations
// classify their own transient failures and retry internally; an error
// returned here is final for this delivery attempt.
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, chatID, text string) error
}
