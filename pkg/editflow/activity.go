package editflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityAction names the collaboration events an edit session broadcasts.
type ActivityAction string

const (
	ActivityActionEdit     ActivityAction = "Edit"
	ActivityActionActivate ActivityAction = "Activate"
	ActivityActionDiscard  ActivityAction = "Discard"
	ActivityActionCreate   ActivityAction = "Create"
	ActivityActionDelete   ActivityAction = "Delete"
	ActivityActionAction   ActivityAction = "Action"
)

// ActivityEvent is one normalized collaboration/audit event.
type ActivityEvent struct {
	Action        ActivityAction
	Path          string
	SessionID     uuid.UUID
	CorrelationID uuid.UUID
	Timestamp     time.Time
	Metadata      map[string]any
}

// ActivityEventOption configures optional fields before dispatch.
type ActivityEventOption func(*ActivityEvent)

// WithActivityMetadata merges the provided metadata map into the event.
func WithActivityMetadata(metadata map[string]any) ActivityEventOption {
	return func(evt *ActivityEvent) {
		if len(metadata) == 0 {
			return
		}
		if evt.Metadata == nil {
			evt.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			evt.Metadata[k] = v
		}
	}
}

// ActivityEmitter receives activity events for collaboration and audit
// layers. Emit errors are logged, never propagated into the cycle.
type ActivityEmitter interface {
	EmitActivity(ctx context.Context, event ActivityEvent) error
}

// CollaborationService is the live-collaboration boundary of a collaborative
// draft. All methods are no-ops for non-collaborative documents.
type CollaborationService interface {
	IsConnected(docCtx ModelContext) bool
	Share(ctx context.Context, docCtx ModelContext) error
	Disconnect(docCtx ModelContext)
}

// emitActivity dispatches one event when an emitter is configured.
func (ef *EditFlow) emitActivity(ctx context.Context, action ActivityAction, docCtx ModelContext, opts ...ActivityEventOption) {
	if ef.activity == nil {
		return
	}
	event := ActivityEvent{
		Action:        action,
		SessionID:     ef.sessionID,
		CorrelationID: uuid.New(),
		Timestamp:     time.Now(),
	}
	if docCtx != nil {
		event.Path = docCtx.Path()
	}
	for _, opt := range opts {
		opt(&event)
	}
	if err := ef.activity.EmitActivity(ctx, event); err != nil {
		ef.logger.Error("activity emit for %s failed: %v", action, err)
	}
}
