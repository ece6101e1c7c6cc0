package editflow

import (
	"context"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// ModelContext is one bound OData context: a row of a list binding or the
// root of a context binding. Implementations wrap the host toolkit's context
// object; the edit flow only compares contexts by Path identity.
type ModelContext interface {
	// Path returns the canonical binding path, unique per bound entity.
	Path() string
	Object(ctx context.Context) (map[string]any, error)
	Property(ctx context.Context, name string) (any, error)
	// RequestProperty loads a property from the server when it is not part
	// of the local data yet.
	RequestProperty(ctx context.Context, name string) (any, error)
	// IsTransient reports a created-but-not-yet-persisted context.
	IsTransient() bool
}

// ListBinding is the collection binding a create operates on.
type ListBinding interface {
	Path() string
	IsRelative() bool
	HeaderContext() ModelContext
	Create(ctx context.Context, initialData map[string]any, atEnd bool) (ModelContext, error)
	Refresh(ctx context.Context) error
	// HasTransientContexts reports in-flight created rows. Refreshes and
	// side-effect requests are skipped while any exist, so they cannot race
	// with and destroy a transient row.
	HasTransientContexts() bool
}

// Model is the shared OData model boundary.
type Model interface {
	SubmitBatch(ctx context.Context, groupID string) error
	HasPendingChanges(groupID string) bool
	BindContext(path string, parent ModelContext) (ModelContext, error)
	// SuspendETagChecks disables ETag validation and returns the restore
	// func. Used as a narrow window around collaborative-draft patches.
	SuspendETagChecks() func()
}

// TransactionHelper is the transactional boundary every cycle delegates its
// actual document mutation to. A nil context result from CancelDocument means
// a brand-new document was discarded and there is nothing to reactivate.
type TransactionHelper interface {
	EditDocument(ctx context.Context, docCtx ModelContext) (ModelContext, error)
	CreateDocument(ctx context.Context, binding ListBinding, params CreateParameters) (ModelContext, error)
	SaveDocument(ctx context.Context, docCtx ModelContext) (ModelContext, error)
	CancelDocument(ctx context.Context, docCtx ModelContext, params CancelParameters) (ModelContext, error)
	DeleteDocument(ctx context.Context, docCtx ModelContext, params DeleteParameters) error
	CallAction(ctx context.Context, actionName string, docCtx ModelContext, params ActionParameters) (ModelContext, error)
	ValidateDocument(ctx context.Context, docCtx ModelContext) error
	ProgrammingModel(docCtx ModelContext) metadata.ProgrammingModel
}

// CreateParameters configures a create cycle.
type CreateParameters struct {
	CreationMode string
	CreateAtEnd  bool
	Data         map[string]any
	// SkipSideEffects suppresses the post-create refresh entirely.
	SkipSideEffects bool
}

// CancelParameters configures a cancel cycle.
type CancelParameters struct {
	// SkipDiscardPopover bypasses the confirmation, e.g. for a keep-alive
	// teardown.
	SkipDiscardPopover bool
	SkipBindingToView  bool
}

// DeleteParameters configures a delete cycle.
type DeleteParameters struct {
	Title       string
	Description string
	// InDeleteMenu distinguishes a table toolbar delete from the page-level
	// object delete.
	InDeleteMenu bool
}

// ActionParameters configures a bound or unbound action invocation.
type ActionParameters struct {
	Model               map[string]any
	InvocationGroup     string
	SkipParameterDialog bool
}

// NavigationOptions tune a forward navigation after a cycle completes.
type NavigationOptions struct {
	// NoHistoryEntry replaces instead of pushes the hash.
	NoHistoryEntry bool
	// ForceFocus moves focus into the target page.
	ForceFocus bool
}

// NavigationHandler is the routing boundary.
type NavigationHandler interface {
	NavigateToContext(ctx context.Context, target ModelContext, opts NavigationOptions) error
	NavigateBackFromContext(ctx context.Context, source ModelContext) error
	CurrentHash() string
	// CurrentContext returns the context the page is bound to right now.
	// UpdateDocument compares it against the pre-await context to detect
	// concurrent navigation.
	CurrentContext() ModelContext
}

// ShellService is the host-shell boundary for sticky sessions. Every
// registration returns its deregistration func; the sticky teardown calls all
// of them.
type ShellService interface {
	RegisterDirtyStateProvider(fn func(targetHash string) bool) func()
	RegisterSessionTimeoutHandler(fn func()) func()
	RegisterRouteMatched(fn func(hash string)) func()
}

// ValidationMessage is one entry of the message registry.
type ValidationMessage struct {
	Message   string
	ControlID string
}

// MessageRegistry exposes validation messages scoped to a view. A save
// rejects when any message's control is a descendant of the saving view.
type MessageRegistry interface {
	ValidationMessages(viewID string) []ValidationMessage
}
