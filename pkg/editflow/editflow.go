package editflow

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

const tracerName = "github.com/goliatone/go-fiori"

// BusyLock is the advisory UI lock taken around long-running cycles. It is
// layered on top of, not instead of, the task-queue serialization: the lock
// disables user input, the queue is the actual ordering primitive.
type BusyLock interface {
	Lock()
	Unlock()
}

type noopBusyLock struct{}

func (noopBusyLock) Lock()   {}
func (noopBusyLock) Unlock() {}

// EditStateTracker is notified whenever lists elsewhere must refetch because
// this flow changed data, e.g. after a discard that may not be backed by a
// server-side delete.
type EditStateTracker interface {
	MarkDirty()
}

// EditFlow drives the transactional document lifecycle of one page instance.
// All document-mutating operations are serialized through its task queue; a
// failed operation rejects its own caller without blocking the next one.
type EditFlow struct {
	queue       *TaskQueue
	state       UiState
	model       Model
	transaction TransactionHelper
	navigation  NavigationHandler

	shell         ShellService
	messages      MessageRegistry
	activity      ActivityEmitter
	collaboration CollaborationService
	editState     EditStateTracker
	hooks         LifecycleHooks
	busy          BusyLock
	logger        Logger
	tracer        trace.Tracer
	meta          *metadata.ConvertedMetadata

	viewID     string
	batchGroup string
	fclEnabled bool
	sessionID  uuid.UUID
	survey     func()

	sticky *stickySession
}

// Option configures an EditFlow.
type Option func(*EditFlow)

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(ef *EditFlow) { ef.logger = logger }
}

// WithShellService enables sticky-session shell registrations.
func WithShellService(shell ShellService) Option {
	return func(ef *EditFlow) { ef.shell = shell }
}

// WithMessageRegistry enables pre-save validation.
func WithMessageRegistry(messages MessageRegistry, viewID string) Option {
	return func(ef *EditFlow) {
		ef.messages = messages
		ef.viewID = viewID
	}
}

// WithActivityEmitter wires collaboration/audit events.
func WithActivityEmitter(emitter ActivityEmitter) Option {
	return func(ef *EditFlow) { ef.activity = emitter }
}

// WithCollaboration wires the live-collaboration service for collaborative
// drafts.
func WithCollaboration(svc CollaborationService) Option {
	return func(ef *EditFlow) { ef.collaboration = svc }
}

// WithEditStateTracker wires cross-page refresh bookkeeping.
func WithEditStateTracker(tracker EditStateTracker) Option {
	return func(ef *EditFlow) { ef.editState = tracker }
}

// WithHooks installs the lifecycle hooks.
func WithHooks(hooks LifecycleHooks) Option {
	return func(ef *EditFlow) { ef.hooks = hooks }
}

// WithBusyLock replaces the advisory busy lock.
func WithBusyLock(lock BusyLock) Option {
	return func(ef *EditFlow) { ef.busy = lock }
}

// WithMetadata supplies the converted metadata, enabling semantic-key
// recomputation and creation-mode resolution against restrictions.
func WithMetadata(meta *metadata.ConvertedMetadata) Option {
	return func(ef *EditFlow) { ef.meta = meta }
}

// WithBatchGroup sets the update group pending changes are submitted on.
func WithBatchGroup(groupID string) Option {
	return func(ef *EditFlow) { ef.batchGroup = groupID }
}

// WithFlexibleColumnLayout marks the host as FCL, which makes cancel compute
// sibling info proactively.
func WithFlexibleColumnLayout(enabled bool) Option {
	return func(ef *EditFlow) { ef.fclEnabled = enabled }
}

// WithSurveyTrigger installs the post-save survey callback.
func WithSurveyTrigger(trigger func()) Option {
	return func(ef *EditFlow) { ef.survey = trigger }
}

// NewEditFlow builds the flow for one page instance.
func NewEditFlow(state UiState, model Model, transaction TransactionHelper, navigation NavigationHandler, opts ...Option) *EditFlow {
	ef := &EditFlow{
		queue:       NewTaskQueue(),
		state:       state,
		model:       model,
		transaction: transaction,
		navigation:  navigation,
		busy:        noopBusyLock{},
		batchGroup:  "$auto",
		sessionID:   uuid.New(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(ef)
	}
	ef.logger = loggerFor(ef.logger)
	return ef
}

// Queue exposes the serialization primitive, mainly for AwaitIdle in tests
// and teardown.
func (ef *EditFlow) Queue() *TaskQueue {
	return ef.queue
}

func (ef *EditFlow) run(ctx context.Context, op string, task Task) (any, error) {
	ctx, span := ef.tracer.Start(ctx, "editflow."+op,
		trace.WithAttributes(attribute.String("editflow.session_id", ef.sessionID.String())))
	defer span.End()

	value, err := ef.queue.Run(ctx, task)
	if err != nil {
		logError(ef.logger, op, err)
		if !IsCancelled(err) {
			span.RecordError(err)
		}
	}
	return value, err
}

// EditDocument starts an edit session on the document behind docCtx: the
// draft or sticky root is resolved first, the transaction layer creates the
// editable instance, and the page navigates to it.
func (ef *EditFlow) EditDocument(ctx context.Context, docCtx ModelContext) (ModelContext, error) {
	value, err := ef.run(ctx, "EditDocument", func(ctx context.Context) (any, error) {
		rootCtx, err := ef.resolveEditRoot(docCtx)
		if err != nil {
			return nil, err
		}
		if err := ef.runBeforeHook(ctx, ef.hooks.BeforeEdit, rootCtx); err != nil {
			return nil, err
		}
		newCtx, err := ef.transaction.EditDocument(ctx, rootCtx)
		if err != nil {
			return nil, transactionalError("edit", err)
		}

		ef.state.Set(KeyIsEditable, true)
		ef.state.Set(KeyIsDocumentModified, false)

		if newCtx.Path() != rootCtx.Path() {
			if _, err := ef.computeSiblingInfo(ctx, rootCtx); err != nil {
				ef.logger.Error("sibling info after edit failed: %v", err)
			}
		}
		if err := ef.navigation.NavigateToContext(ctx, newCtx, NavigationOptions{}); err != nil {
			return nil, err
		}
		if ef.transaction.ProgrammingModel(newCtx) == metadata.ProgrammingModelSticky {
			ef.handleStickyOn(newCtx)
		}
		if ef.collaboration != nil {
			if err := ef.collaboration.Share(ctx, newCtx); err != nil {
				ef.logger.Error("collaboration share failed: %v", err)
			}
		}
		ef.emitActivity(ctx, ActivityActionEdit, newCtx)
		ef.runAfterHook(ctx, "edit", ef.hooks.AfterEdit, newCtx)
		return newCtx, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(ModelContext), nil
}

// resolveEditRoot binds the edit cycle to the document root for draft and
// sticky models; plain documents edit in place.
func (ef *EditFlow) resolveEditRoot(docCtx ModelContext) (ModelContext, error) {
	switch ef.transaction.ProgrammingModel(docCtx) {
	case metadata.ProgrammingModelDraft, metadata.ProgrammingModelSticky:
		rootPath, err := DraftRootPath(docCtx)
		if err != nil {
			return nil, err
		}
		if rootPath == docCtx.Path() {
			return docCtx, nil
		}
		rootCtx, err := ef.model.BindContext(rootPath, nil)
		if err != nil {
			return nil, transactionalError("root binding", err)
		}
		return rootCtx, nil
	default:
		return docCtx, nil
	}
}

// SaveDocument activates the document: pending changes are submitted first
// and the save rejects while any remain, local validation messages and the
// transaction layer's document validation reject before the save runs, and a
// successful save flips the page back to display mode, navigating when the
// active context differs from the input.
func (ef *EditFlow) SaveDocument(ctx context.Context, docCtx ModelContext) (ModelContext, error) {
	value, err := ef.run(ctx, "SaveDocument", func(ctx context.Context) (any, error) {
		ef.busy.Lock()
		defer ef.busy.Unlock()

		if err := ef.submitOpenChanges(ctx); err != nil {
			return nil, err
		}
		if err := ef.rejectOnValidationMessages(); err != nil {
			return nil, err
		}
		if err := ef.transaction.ValidateDocument(ctx, docCtx); err != nil {
			return nil, err
		}
		if err := ef.runBeforeHook(ctx, ef.hooks.BeforeSave, docCtx); err != nil {
			return nil, err
		}

		activeCtx, err := ef.transaction.SaveDocument(ctx, docCtx)
		if err != nil {
			// the status indicator must not keep claiming "Saving"
			ef.state.Set(KeyDraftStatus, DraftStatusClear)
			return nil, transactionalError("save", err)
		}

		ef.handleStickyOff()
		ef.emitActivity(ctx, ActivityActionActivate, activeCtx)
		if ef.collaboration != nil {
			ef.collaboration.Disconnect(docCtx)
		}
		if ef.survey != nil {
			ef.survey()
		}

		ef.state.Set(KeyIsEditable, false)
		ef.state.Set(KeyIsDocumentModified, false)
		ef.state.Set(KeyDraftStatus, DraftStatusClear)

		if activeCtx != nil && activeCtx.Path() != docCtx.Path() {
			if _, err := ef.computeSiblingInfo(ctx, docCtx); err != nil {
				ef.logger.Error("sibling info after save failed: %v", err)
			}
			if err := ef.navigation.NavigateToContext(ctx, activeCtx, NavigationOptions{NoHistoryEntry: true}); err != nil {
				return nil, err
			}
		}
		ef.runAfterHook(ctx, "save", ef.hooks.AfterSave, activeCtx)
		return activeCtx, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(ModelContext), nil
}

func (ef *EditFlow) submitOpenChanges(ctx context.Context) error {
	if err := ef.model.SubmitBatch(ctx, ef.batchGroup); err != nil {
		return transactionalError("submit of open changes", err)
	}
	if ef.model.HasPendingChanges(ef.batchGroup) {
		return goerrors.New("submit of open changes failed", goerrors.CategoryOperation)
	}
	return nil
}

func (ef *EditFlow) rejectOnValidationMessages() error {
	if ef.messages == nil {
		return nil
	}
	pending := ef.messages.ValidationMessages(ef.viewID)
	if len(pending) == 0 {
		return nil
	}
	return goerrors.New(
		fmt.Sprintf("document cannot be saved, %d validation message(s) pending: %s",
			len(pending), pending[0].Message),
		goerrors.CategoryValidation)
}

// CancelDocument discards the edit session. A nil context from the
// transaction layer means a brand-new document was discarded: the page
// navigates back and nothing is reactivated. Otherwise the page rebinds to
// the active sibling, reloading draft semantic keys so an immediate re-edit
// has them available. Sibling info is computed before the transactional
// cancel because the source context may cease to exist afterward.
func (ef *EditFlow) CancelDocument(ctx context.Context, docCtx ModelContext, params CancelParameters) (ModelContext, error) {
	value, err := ef.run(ctx, "CancelDocument", func(ctx context.Context) (any, error) {
		if err := ef.runBeforeHook(ctx, ef.hooks.BeforeDiscard, docCtx); err != nil {
			return nil, err
		}
		pm := ef.transaction.ProgrammingModel(docCtx)

		var siblingInfo *SiblingInformation
		if ef.fclEnabled && (pm == metadata.ProgrammingModelSticky || ef.hasActiveEntity(ctx, docCtx)) {
			info, err := ef.computeSiblingInfo(ctx, docCtx)
			if err != nil {
				ef.logger.Error("proactive sibling info failed: %v", err)
			} else {
				siblingInfo = info
			}
		}

		activeCtx, err := ef.transaction.CancelDocument(ctx, docCtx, params)
		if err != nil {
			return nil, transactionalError("cancel", err)
		}
		ef.handleStickyOff()

		isNewDocument := activeCtx == nil
		if isNewDocument {
			if err := ef.navigation.NavigateBackFromContext(ctx, docCtx); err != nil {
				return nil, err
			}
		} else if !params.SkipBindingToView {
			if pm == metadata.ProgrammingModelDraft {
				if err := ef.requestSemanticKeys(ctx, activeCtx); err != nil {
					ef.logger.Error("semantic key reload after cancel failed: %v", err)
				}
			}
			target := activeCtx
			if siblingInfo != nil && siblingInfo.TargetContext != nil {
				target = siblingInfo.TargetContext
			}
			if err := ef.navigation.NavigateToContext(ctx, target, NavigationOptions{NoHistoryEntry: true}); err != nil {
				return nil, err
			}
		}

		ef.state.Set(KeyIsEditable, false)
		ef.state.Set(KeyIsDocumentModified, false)
		ef.state.Set(KeyDraftStatus, DraftStatusClear)
		// a draft discard is not always backed by a server discard, so other
		// lists must refetch regardless
		ef.markEditStateDirty()

		ef.emitActivity(ctx, ActivityActionDiscard, docCtx,
			WithActivityMetadata(map[string]any{"isNewDocument": isNewDocument}))
		ef.runAfterHook(ctx, "discard", ef.hooks.AfterDiscard, activeCtx)
		return activeCtx, nil
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return value.(ModelContext), nil
}

func (ef *EditFlow) hasActiveEntity(ctx context.Context, docCtx ModelContext) bool {
	raw, err := docCtx.Property(ctx, "HasActiveEntity")
	if err != nil {
		return false
	}
	active, _ := raw.(bool)
	return active
}

func (ef *EditFlow) markEditStateDirty() {
	if ef.editState != nil {
		ef.editState.MarkDirty()
	}
}

// CreateDocument creates a document on the list binding, resolving the
// effective creation mode from the entity set when the caller did not pin
// one, and navigates to the created context.
func (ef *EditFlow) CreateDocument(ctx context.Context, binding ListBinding, params CreateParameters) (ModelContext, error) {
	value, err := ef.run(ctx, "CreateDocument", func(ctx context.Context) (any, error) {
		params.CreationMode = ResolveCreationMode(ef.entitySetOfBinding(binding), params.CreationMode)

		if err := ef.runBeforeHook(ctx, ef.hooks.BeforeCreate, nil); err != nil {
			return nil, err
		}
		newCtx, err := ef.transaction.CreateDocument(ctx, binding, params)
		if err != nil {
			return nil, transactionalError("create", err)
		}

		ef.state.Set(KeyIsEditable, true)
		ef.state.Set(KeyIsDocumentModified, false)

		if err := ef.navigation.NavigateToContext(ctx, newCtx, NavigationOptions{ForceFocus: true}); err != nil {
			return nil, err
		}
		// refreshing while transient rows exist would destroy them
		if !params.SkipSideEffects && !binding.HasTransientContexts() {
			if err := binding.Refresh(ctx); err != nil {
				ef.logger.Error("list refresh after create failed: %v", err)
			}
		}
		ef.emitActivity(ctx, ActivityActionCreate, newCtx,
			WithActivityMetadata(map[string]any{"creationMode": params.CreationMode}))
		ef.runAfterHook(ctx, "create", ef.hooks.AfterCreate, newCtx)
		return newCtx, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(ModelContext), nil
}

func (ef *EditFlow) entitySetOfBinding(binding ListBinding) *metadata.EntitySet {
	if binding == nil {
		return nil
	}
	if binding.IsRelative() {
		if header := binding.HeaderContext(); header != nil {
			return ef.entitySetOf(header)
		}
	}
	return ef.entitySetOf(bindingPathContext{path: binding.Path()})
}

// bindingPathContext adapts a bare path to the minimal ModelContext surface
// entitySetOf needs.
type bindingPathContext struct {
	path string
}

func (c bindingPathContext) Path() string { return c.path }
func (c bindingPathContext) Object(context.Context) (map[string]any, error) {
	return nil, nil
}
func (c bindingPathContext) Property(context.Context, string) (any, error) {
	return nil, nil
}
func (c bindingPathContext) RequestProperty(context.Context, string) (any, error) {
	return nil, nil
}
func (c bindingPathContext) IsTransient() bool { return false }

// DeleteDocument deletes the document and navigates back.
func (ef *EditFlow) DeleteDocument(ctx context.Context, docCtx ModelContext, params DeleteParameters) error {
	_, err := ef.run(ctx, "DeleteDocument", func(ctx context.Context) (any, error) {
		if err := ef.runBeforeHook(ctx, ef.hooks.BeforeDelete, docCtx); err != nil {
			return nil, err
		}
		if err := ef.transaction.DeleteDocument(ctx, docCtx, params); err != nil {
			return nil, transactionalError("delete", err)
		}
		ef.markEditStateDirty()
		if err := ef.navigation.NavigateBackFromContext(ctx, docCtx); err != nil {
			return nil, err
		}
		ef.emitActivity(ctx, ActivityActionDelete, docCtx)
		ef.runAfterHook(ctx, "delete", ef.hooks.AfterDelete, docCtx)
		return nil, nil
	})
	return err
}

// ApplyDocument keeps the draft but leaves the page: open changes are
// submitted and validated, then the page navigates back while staying
// editable.
func (ef *EditFlow) ApplyDocument(ctx context.Context, docCtx ModelContext) error {
	_, err := ef.run(ctx, "ApplyDocument", func(ctx context.Context) (any, error) {
		if err := ef.submitOpenChanges(ctx); err != nil {
			return nil, err
		}
		if err := ef.rejectOnValidationMessages(); err != nil {
			return nil, err
		}
		if err := ef.transaction.ValidateDocument(ctx, docCtx); err != nil {
			return nil, err
		}
		if err := ef.navigation.NavigateBackFromContext(ctx, docCtx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// InvokeAction calls a bound or unbound action through the transaction
// layer, serialized like every other document mutation.
func (ef *EditFlow) InvokeAction(ctx context.Context, actionName string, docCtx ModelContext, params ActionParameters) (ModelContext, error) {
	value, err := ef.run(ctx, "InvokeAction", func(ctx context.Context) (any, error) {
		result, err := ef.transaction.CallAction(ctx, actionName, docCtx, params)
		if err != nil {
			return nil, transactionalError("action "+actionName, err)
		}
		ef.emitActivity(ctx, ActivityActionAction, docCtx,
			WithActivityMetadata(map[string]any{"action": actionName}))
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return value.(ModelContext), nil
}

// SecuredExecution runs an arbitrary task under the busy lock and the task
// queue, giving extension code the same serialization guarantees as the
// built-in cycles.
func (ef *EditFlow) SecuredExecution(ctx context.Context, task Task) (any, error) {
	return ef.run(ctx, "SecuredExecution", func(ctx context.Context) (any, error) {
		ef.busy.Lock()
		defer ef.busy.Unlock()
		return task(ctx)
	})
}

// NextDraftStatus is the pure decision behind patch-completion handling:
// given the programming model and whether the patch round trip succeeded,
// decide the draft status to publish.
func NextDraftStatus(pm metadata.ProgrammingModel, success bool) DraftStatus {
	if pm != metadata.ProgrammingModelDraft {
		return DraftStatusClear
	}
	if success {
		return DraftStatusSaved
	}
	return DraftStatusClear
}

// UpdateDocument handles a property patch round trip: the draft status shows
// Saving while the patch is in flight and the result is discarded when the
// page navigated away in the meantime, detected by comparing the bound
// context before and after the await.
func (ef *EditFlow) UpdateDocument(ctx context.Context, docCtx ModelContext, patch func(ctx context.Context) error) error {
	_, err := ef.run(ctx, "UpdateDocument", func(ctx context.Context) (any, error) {
		pm := ef.transaction.ProgrammingModel(docCtx)
		ef.state.Set(KeyIsDocumentModified, true)
		if pm == metadata.ProgrammingModelDraft {
			ef.state.Set(KeyDraftStatus, DraftStatusSaving)
		}

		var restoreETags func()
		if ef.collaboration != nil && ef.collaboration.IsConnected(docCtx) {
			restoreETags = ef.model.SuspendETagChecks()
		}
		patchErr := patch(ctx)
		if restoreETags != nil {
			restoreETags()
		}

		current := ef.navigation.CurrentContext()
		if current == nil || current.Path() != docCtx.Path() {
			// navigation happened while the patch was in flight
			ef.logger.Debug("stale patch result for %s discarded", docCtx.Path())
			return nil, nil
		}

		ef.state.Set(KeyDraftStatus, NextDraftStatus(pm, patchErr == nil))
		if patchErr != nil {
			return nil, transactionalError("update", patchErr)
		}
		return nil, nil
	})
	return err
}
