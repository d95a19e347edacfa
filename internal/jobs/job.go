// Package jobs provides the bounded worker pool that executes sync work
// submitted by the webhook handler and the reconciliation scheduler.
package jobs

import "context"

// Job is a unit of background work. Key identifies the entity the job acts
// on (used for logging), Description says what the job does.
type Job interface {
	Execute(ctx context.Context) error
	Key() string
	Description() string
}
