// Package audit captures who did what to which application. The sink is
// best-effort: benefit processing never stalls or rolls back because the
// audit trail is unavailable.
package audit

import (
	"context"
	"time"
)

// Action names the audited operation.
type Action string

const (
	ActionGenerated     Action = "application_generated"
	ActionFiled         Action = "application_filed"
	ActionStatusChanged Action = "status_changed"
	ActionBatchRun      Action = "generation_batch_run"
)

// Entry is one audit record. OldStatus/NewStatus are set for status
// transitions; Details carries free-form context (remarks, batch summary).
type Entry struct {
	Timestamp time.Time
	Actor     string
	EntityID  string
	Action    Action
	OldStatus string
	NewStatus string
	Details   string
}

// Sink persists audit entries. Implementations may be remote; the worker
// absorbs their failures.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}
