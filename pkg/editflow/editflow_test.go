package editflow

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

type stubContext struct {
	path      string
	props     map[string]any
	requested []string
	transient bool
}

func (c *stubContext) Path() string { return c.path }

func (c *stubContext) Object(context.Context) (map[string]any, error) {
	return c.props, nil
}

func (c *stubContext) Property(_ context.Context, name string) (any, error) {
	v, ok := c.props[name]
	if !ok {
		return nil, errors.New("no property " + name)
	}
	return v, nil
}

func (c *stubContext) RequestProperty(_ context.Context, name string) (any, error) {
	c.requested = append(c.requested, name)
	return c.props[name], nil
}

func (c *stubContext) IsTransient() bool { return c.transient }

type stubBinding struct {
	path      string
	relative  bool
	header    ModelContext
	transient bool
	refreshed int
}

func (b *stubBinding) Path() string              { return b.path }
func (b *stubBinding) IsRelative() bool          { return b.relative }
func (b *stubBinding) HeaderContext() ModelContext { return b.header }

func (b *stubBinding) Create(_ context.Context, _ map[string]any, _ bool) (ModelContext, error) {
	return &stubContext{path: b.path + "($new)", transient: true}, nil
}

func (b *stubBinding) Refresh(context.Context) error {
	b.refreshed++
	return nil
}

func (b *stubBinding) HasTransientContexts() bool { return b.transient }

type stubModel struct {
	submitErr error
	pending   bool
	siblings  map[string]ModelContext
	bindErr   error

	submitted    []string
	suspendCalls int
	restoreCalls int
}

func (m *stubModel) SubmitBatch(_ context.Context, groupID string) error {
	m.submitted = append(m.submitted, groupID)
	return m.submitErr
}

func (m *stubModel) HasPendingChanges(string) bool { return m.pending }

func (m *stubModel) BindContext(path string, parent ModelContext) (ModelContext, error) {
	if m.bindErr != nil {
		return nil, m.bindErr
	}
	if parent != nil && path == "SiblingEntity" {
		return m.siblings[parent.Path()], nil
	}
	return &stubContext{path: path}, nil
}

func (m *stubModel) SuspendETagChecks() func() {
	m.suspendCalls++
	return func() { m.restoreCalls++ }
}

type stubTransaction struct {
	pm metadata.ProgrammingModel

	editResult   ModelContext
	editErr      error
	createResult ModelContext
	createErr    error
	saveResult   ModelContext
	saveErr      error
	cancelResult ModelContext
	cancelErr    error
	deleteErr    error
	actionResult ModelContext
	actionErr    error
	validateErr  error

	editPaths   []string
	saveCalls   int
	createCalls int
	deleteCalls int
	cancels     []CancelParameters
	actions     []string
}

func (s *stubTransaction) EditDocument(_ context.Context, docCtx ModelContext) (ModelContext, error) {
	s.editPaths = append(s.editPaths, docCtx.Path())
	return s.editResult, s.editErr
}

func (s *stubTransaction) CreateDocument(_ context.Context, _ ListBinding, _ CreateParameters) (ModelContext, error) {
	s.createCalls++
	return s.createResult, s.createErr
}

func (s *stubTransaction) SaveDocument(_ context.Context, _ ModelContext) (ModelContext, error) {
	s.saveCalls++
	return s.saveResult, s.saveErr
}

func (s *stubTransaction) CancelDocument(_ context.Context, _ ModelContext, params CancelParameters) (ModelContext, error) {
	s.cancels = append(s.cancels, params)
	return s.cancelResult, s.cancelErr
}

func (s *stubTransaction) DeleteDocument(_ context.Context, _ ModelContext, _ DeleteParameters) error {
	s.deleteCalls++
	return s.deleteErr
}

func (s *stubTransaction) CallAction(_ context.Context, actionName string, _ ModelContext, _ ActionParameters) (ModelContext, error) {
	s.actions = append(s.actions, actionName)
	return s.actionResult, s.actionErr
}

func (s *stubTransaction) ValidateDocument(context.Context, ModelContext) error {
	return s.validateErr
}

func (s *stubTransaction) ProgrammingModel(ModelContext) metadata.ProgrammingModel { return s.pm }

type navigationCall struct {
	path string
	opts NavigationOptions
}

type stubNavigation struct {
	hash    string
	current ModelContext
	forward []navigationCall
	back    []string
}

func (n *stubNavigation) NavigateToContext(_ context.Context, target ModelContext, opts NavigationOptions) error {
	n.forward = append(n.forward, navigationCall{path: target.Path(), opts: opts})
	n.current = target
	return nil
}

func (n *stubNavigation) NavigateBackFromContext(_ context.Context, source ModelContext) error {
	n.back = append(n.back, source.Path())
	return nil
}

func (n *stubNavigation) CurrentHash() string          { return n.hash }
func (n *stubNavigation) CurrentContext() ModelContext { return n.current }

type stubShell struct {
	dirtyProvider func(targetHash string) bool
	timeout       func()
	routeMatched  func(hash string)
	released      int
}

func (s *stubShell) RegisterDirtyStateProvider(fn func(string) bool) func() {
	s.dirtyProvider = fn
	return func() { s.released++ }
}

func (s *stubShell) RegisterSessionTimeoutHandler(fn func()) func() {
	s.timeout = fn
	return func() { s.released++ }
}

func (s *stubShell) RegisterRouteMatched(fn func(string)) func() {
	s.routeMatched = fn
	return func() { s.released++ }
}

type stubEmitter struct {
	events []ActivityEvent
}

func (e *stubEmitter) EmitActivity(_ context.Context, event ActivityEvent) error {
	e.events = append(e.events, event)
	return nil
}

func (e *stubEmitter) lastAction(t *testing.T) ActivityEvent {
	t.Helper()
	require.NotEmpty(t, e.events)
	return e.events[len(e.events)-1]
}

type stubTracker struct {
	dirty int
}

func (s *stubTracker) MarkDirty() { s.dirty++ }

type stubMessages struct {
	messages []ValidationMessage
}

func (s *stubMessages) ValidationMessages(string) []ValidationMessage { return s.messages }

// flowMetadata covers the three creation-mode shapes: a draft root whose only
// key is computed and hidden, a sticky set with a user-visible key, and a
// draft root with a configured new action.
func flowMetadata() *metadata.ConvertedMetadata {
	m := metadata.NewConvertedMetadata("com.example.sales")

	orderID := &metadata.Property{Name: "ID", Type: "Edm.Guid", Annotations: metadata.NewAnnotationMap()}
	orderID.Annotations.Set(metadata.CoreComputed, metadata.BoolValue(true))
	orderID.Annotations.Set(metadata.UIHidden, metadata.BoolValue(true))
	orderName := &metadata.Property{Name: "Name", Type: "Edm.String", Annotations: metadata.NewAnnotationMap()}

	orderAnnotations := metadata.NewAnnotationMap()
	orderAnnotations.Set(metadata.CommonSemanticKey, metadata.CollectionOf(
		metadata.PropertyPath("Name"),
	))
	m.AddEntityType(&metadata.EntityType{
		Name:        "SalesOrder",
		Keys:        []string{"ID"},
		Properties:  []*metadata.Property{orderID, orderName},
		Annotations: orderAnnotations,
	})

	ticketNo := &metadata.Property{Name: "TicketNo", Type: "Edm.String", Annotations: metadata.NewAnnotationMap()}
	m.AddEntityType(&metadata.EntityType{
		Name:        "Ticket",
		Keys:        []string{"TicketNo"},
		Properties:  []*metadata.Property{ticketNo},
		Annotations: metadata.NewAnnotationMap(),
	})

	draftRoot := metadata.NewAnnotationMap()
	draftRoot.Set(metadata.CommonDraftRoot, metadata.RecordValue(&metadata.Record{
		Fields: map[string]metadata.Value{},
	}))
	m.AddEntitySet(&metadata.EntitySet{
		Name:           "SalesOrders",
		EntityTypeName: "com.example.sales.SalesOrder",
		Annotations:    draftRoot,
	})

	sticky := metadata.NewAnnotationMap()
	sticky.Set(metadata.SessionStickySessionSupported, metadata.RecordValue(&metadata.Record{
		Fields: map[string]metadata.Value{},
	}))
	m.AddEntitySet(&metadata.EntitySet{
		Name:           "Tickets",
		EntityTypeName: "com.example.sales.Ticket",
		Annotations:    sticky,
	})

	newAction := metadata.NewAnnotationMap()
	newAction.Set(metadata.CommonDraftRoot, metadata.RecordValue(&metadata.Record{
		Fields: map[string]metadata.Value{
			"NewAction": metadata.StringValue("com.example.sales.CreateQuote"),
		},
	}))
	m.AddEntitySet(&metadata.EntitySet{
		Name:           "Quotes",
		EntityTypeName: "com.example.sales.SalesOrder",
		Annotations:    newAction,
	})

	return m.Freeze()
}

func flowEntitySet(t *testing.T, name string) *metadata.EntitySet {
	t.Helper()
	es, ok := flowMetadata().EntitySet(name)
	require.True(t, ok)
	return es
}

type flowEnv struct {
	flow        *EditFlow
	state       *MemoryUiState
	model       *stubModel
	transaction *stubTransaction
	navigation  *stubNavigation
	emitter     *stubEmitter
}

func newFlowEnv(pm metadata.ProgrammingModel, opts ...Option) *flowEnv {
	env := &flowEnv{
		state:       NewMemoryUiState(),
		model:       &stubModel{},
		transaction: &stubTransaction{pm: pm},
		navigation:  &stubNavigation{},
		emitter:     &stubEmitter{},
	}
	opts = append([]Option{
		WithActivityEmitter(env.emitter),
		WithMetadata(flowMetadata()),
	}, opts...)
	env.flow = NewEditFlow(env.state, env.model, env.transaction, env.navigation, opts...)
	return env
}

func TestResolveCreationMode(t *testing.T) {
	tests := []struct {
		name      string
		entitySet *metadata.EntitySet
		requested string
		want      string
	}{
		{name: "explicit mode wins", entitySet: flowEntitySet(t, "Tickets"), requested: CreationModeDeferred, want: CreationModeDeferred},
		{name: "nil set defaults to sync", entitySet: nil, want: CreationModeSync},
		{name: "new action defers creation", entitySet: flowEntitySet(t, "Quotes"), want: CreationModeDeferred},
		{name: "user visible key forces sync", entitySet: flowEntitySet(t, "Tickets"), want: CreationModeSync},
		{name: "computed hidden keys allow async", entitySet: flowEntitySet(t, "SalesOrders"), want: CreationModeAsync},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveCreationMode(tc.entitySet, tc.requested))
		})
	}
}

func TestEditDocumentEntersEditMode(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=true)"}
	draftCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.transaction.editResult = draftCtx

	got, err := env.flow.EditDocument(context.Background(), docCtx)
	require.NoError(t, err)
	assert.Same(t, draftCtx, got)

	assert.Equal(t, true, env.state.Get(KeyIsEditable))
	assert.Equal(t, false, env.state.Get(KeyIsDocumentModified))

	require.Len(t, env.navigation.forward, 1)
	assert.Equal(t, draftCtx.Path(), env.navigation.forward[0].path)

	event := env.emitter.lastAction(t)
	assert.Equal(t, ActivityActionEdit, event.Action)
	assert.Equal(t, draftCtx.Path(), event.Path)
	assert.NotEqual(t, event.SessionID, event.CorrelationID)
}

func TestEditDocumentOnSubobjectBindsDraftRoot(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	itemCtx := &stubContext{path: "/SalesOrders(ID=1)/_Items(10)"}
	env.transaction.editResult = &stubContext{path: "/SalesOrders(ID=1)"}

	_, err := env.flow.EditDocument(context.Background(), itemCtx)
	require.NoError(t, err)

	require.Len(t, env.transaction.editPaths, 1)
	assert.Equal(t, "/SalesOrders(ID=1)", env.transaction.editPaths[0])
}

func TestSaveRejectsWhilePendingChangesRemain(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	env.model.pending = true
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}

	_, err := env.flow.SaveDocument(context.Background(), docCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit of open changes failed")
	assert.Zero(t, env.transaction.saveCalls)
	assert.Equal(t, []string{"$auto"}, env.model.submitted)
}

func TestSaveRejectsOnValidationMessages(t *testing.T) {
	messages := &stubMessages{messages: []ValidationMessage{{Message: "Name is required", ControlID: "fld1"}}}
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithMessageRegistry(messages, "view0"))
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}

	_, err := env.flow.SaveDocument(context.Background(), docCtx)
	require.Error(t, err)

	var typed *goerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, goerrors.CategoryValidation, typed.Category)
	assert.Zero(t, env.transaction.saveCalls)
}

func TestSaveRejectsWhenTransactionValidationFails(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	typed := goerrors.New("mandatory field Name is empty", goerrors.CategoryValidation)
	env.transaction.validateErr = typed
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}

	_, err := env.flow.SaveDocument(context.Background(), docCtx)
	require.Error(t, err)
	assert.Same(t, typed, err)
	assert.Zero(t, env.transaction.saveCalls)
}

func TestApplyRejectsWhenTransactionValidationFails(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	env.transaction.validateErr = goerrors.New("mandatory field Name is empty", goerrors.CategoryValidation)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}

	err := env.flow.ApplyDocument(context.Background(), docCtx)
	require.Error(t, err)

	var typed *goerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, goerrors.CategoryValidation, typed.Category)
	assert.Empty(t, env.navigation.back)
}

func TestSaveFailureClearsDraftStatus(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	env.transaction.saveErr = errors.New("activation rejected")
	env.state.Set(KeyIsEditable, true)
	env.state.Set(KeyDraftStatus, DraftStatusSaving)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}

	_, err := env.flow.SaveDocument(context.Background(), docCtx)
	require.Error(t, err)

	assert.Equal(t, DraftStatusClear, env.state.Get(KeyDraftStatus))
	assert.Equal(t, true, env.state.Get(KeyIsEditable))
	assert.Empty(t, env.navigation.forward)
}

func TestSaveFlipsToDisplayAndNavigates(t *testing.T) {
	surveys := 0
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithSurveyTrigger(func() { surveys++ }))
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	activeCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=true)"}
	env.transaction.saveResult = activeCtx
	env.state.Set(KeyIsEditable, true)
	env.state.Set(KeyDraftStatus, DraftStatusSaving)

	got, err := env.flow.SaveDocument(context.Background(), docCtx)
	require.NoError(t, err)
	assert.Same(t, activeCtx, got)

	assert.Equal(t, false, env.state.Get(KeyIsEditable))
	assert.Equal(t, false, env.state.Get(KeyIsDocumentModified))
	assert.Equal(t, DraftStatusClear, env.state.Get(KeyDraftStatus))
	assert.Equal(t, 1, surveys)

	require.Len(t, env.navigation.forward, 1)
	assert.Equal(t, activeCtx.Path(), env.navigation.forward[0].path)
	assert.True(t, env.navigation.forward[0].opts.NoHistoryEntry)

	assert.Equal(t, ActivityActionActivate, env.emitter.lastAction(t).Action)
}

func TestBeforeSaveHookAbortsCycle(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithHooks(LifecycleHooks{
		BeforeSave: func(context.Context, ModelContext) error { return Cancelled() },
	}))
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}

	_, err := env.flow.SaveDocument(context.Background(), docCtx)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.Zero(t, env.transaction.saveCalls)
}

func TestCancelNewDocumentNavigatesBack(t *testing.T) {
	tracker := &stubTracker{}
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithEditStateTracker(tracker))
	env.state.Set(KeyIsEditable, true)
	docCtx := &stubContext{path: "/SalesOrders(ID=new,IsActiveEntity=false)"}
	env.transaction.cancelResult = nil

	got, err := env.flow.CancelDocument(context.Background(), docCtx, CancelParameters{})
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, []string{docCtx.Path()}, env.navigation.back)
	assert.Empty(t, env.navigation.forward)

	assert.Equal(t, false, env.state.Get(KeyIsEditable))
	assert.Equal(t, DraftStatusClear, env.state.Get(KeyDraftStatus))
	assert.Equal(t, 1, tracker.dirty)

	event := env.emitter.lastAction(t)
	assert.Equal(t, ActivityActionDiscard, event.Action)
	assert.Equal(t, true, event.Metadata["isNewDocument"])
}

func TestCancelRebindsToActiveVersion(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	env.state.Set(KeyIsEditable, true)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	activeCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=true)", props: map[string]any{"Name": "Order 1"}}
	env.transaction.cancelResult = activeCtx

	got, err := env.flow.CancelDocument(context.Background(), docCtx, CancelParameters{})
	require.NoError(t, err)
	assert.Same(t, activeCtx, got)

	// semantic keys are reloaded so an immediate re-edit has them
	assert.Equal(t, []string{"Name"}, activeCtx.requested)

	require.Len(t, env.navigation.forward, 1)
	assert.Equal(t, activeCtx.Path(), env.navigation.forward[0].path)
	assert.True(t, env.navigation.forward[0].opts.NoHistoryEntry)
	assert.Equal(t, false, env.state.Get(KeyIsEditable))

	event := env.emitter.lastAction(t)
	assert.Equal(t, ActivityActionDiscard, event.Action)
	assert.Equal(t, false, event.Metadata["isNewDocument"])
}

func TestCancelSkipBindingToViewLeavesNavigationAlone(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	env.state.Set(KeyIsEditable, true)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.transaction.cancelResult = &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=true)"}

	_, err := env.flow.CancelDocument(context.Background(), docCtx, CancelParameters{SkipBindingToView: true})
	require.NoError(t, err)

	assert.Empty(t, env.navigation.forward)
	assert.Empty(t, env.navigation.back)
	assert.Equal(t, false, env.state.Get(KeyIsEditable))
}

func TestCreateDocumentResolvesModeAndRefreshes(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	binding := &stubBinding{path: "/SalesOrders"}
	newCtx := &stubContext{path: "/SalesOrders(ID=new,IsActiveEntity=false)"}
	env.transaction.createResult = newCtx

	got, err := env.flow.CreateDocument(context.Background(), binding, CreateParameters{})
	require.NoError(t, err)
	assert.Same(t, newCtx, got)

	assert.Equal(t, true, env.state.Get(KeyIsEditable))
	require.Len(t, env.navigation.forward, 1)
	assert.True(t, env.navigation.forward[0].opts.ForceFocus)
	assert.Equal(t, 1, binding.refreshed)

	event := env.emitter.lastAction(t)
	assert.Equal(t, ActivityActionCreate, event.Action)
	assert.Equal(t, CreationModeAsync, event.Metadata["creationMode"])
}

func TestCreateSkipsRefreshWhileTransientRowsExist(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	binding := &stubBinding{path: "/SalesOrders", transient: true}
	env.transaction.createResult = &stubContext{path: "/SalesOrders(ID=new,IsActiveEntity=false)"}

	_, err := env.flow.CreateDocument(context.Background(), binding, CreateParameters{})
	require.NoError(t, err)
	assert.Zero(t, binding.refreshed)
}

func TestDeleteDocumentNavigatesBack(t *testing.T) {
	tracker := &stubTracker{}
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithEditStateTracker(tracker))
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=true)"}

	err := env.flow.DeleteDocument(context.Background(), docCtx, DeleteParameters{})
	require.NoError(t, err)

	assert.Equal(t, 1, env.transaction.deleteCalls)
	assert.Equal(t, 1, tracker.dirty)
	assert.Equal(t, []string{docCtx.Path()}, env.navigation.back)
	assert.Equal(t, ActivityActionDelete, env.emitter.lastAction(t).Action)
}

func TestInvokeActionEmitsActivity(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.transaction.actionResult = docCtx

	_, err := env.flow.InvokeAction(context.Background(), "com.example.sales.Approve", docCtx, ActionParameters{})
	require.NoError(t, err)

	assert.Equal(t, []string{"com.example.sales.Approve"}, env.transaction.actions)
	event := env.emitter.lastAction(t)
	assert.Equal(t, ActivityActionAction, event.Action)
	assert.Equal(t, "com.example.sales.Approve", event.Metadata["action"])
}

func TestNextDraftStatus(t *testing.T) {
	assert.Equal(t, DraftStatusSaved, NextDraftStatus(metadata.ProgrammingModelDraft, true))
	assert.Equal(t, DraftStatusClear, NextDraftStatus(metadata.ProgrammingModelDraft, false))
	assert.Equal(t, DraftStatusClear, NextDraftStatus(metadata.ProgrammingModelSticky, true))
	assert.Equal(t, DraftStatusClear, NextDraftStatus(metadata.ProgrammingModelNonDraft, true))
}

func TestUpdateDocumentPublishesSavedOnSuccess(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.navigation.current = docCtx

	err := env.flow.UpdateDocument(context.Background(), docCtx, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, true, env.state.Get(KeyIsDocumentModified))
	assert.Equal(t, DraftStatusSaved, env.state.Get(KeyDraftStatus))
}

func TestUpdateDocumentFailurePublishesClear(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.navigation.current = docCtx

	err := env.flow.UpdateDocument(context.Background(), docCtx, func(context.Context) error {
		return errors.New("412 precondition failed")
	})
	require.Error(t, err)
	assert.Equal(t, DraftStatusClear, env.state.Get(KeyDraftStatus))
}

func TestUpdateDocumentStaleResultIsDiscarded(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.navigation.current = &stubContext{path: "/SalesOrders(ID=2,IsActiveEntity=true)"}

	err := env.flow.UpdateDocument(context.Background(), docCtx, func(context.Context) error {
		return errors.New("patch failed after navigation")
	})
	require.NoError(t, err)

	// the page moved on, the in-flight status is left alone
	assert.Equal(t, DraftStatusSaving, env.state.Get(KeyDraftStatus))
}

func TestUpdateDocumentSuspendsETagsForCollaborativeDrafts(t *testing.T) {
	connected := &stubCollaboration{connected: true}
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithCollaboration(connected))
	docCtx := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)"}
	env.navigation.current = docCtx

	err := env.flow.UpdateDocument(context.Background(), docCtx, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, env.model.suspendCalls)
	assert.Equal(t, 1, env.model.restoreCalls)
}

type stubCollaboration struct {
	connected    bool
	shared       []string
	disconnected []string
}

func (s *stubCollaboration) IsConnected(ModelContext) bool { return s.connected }

func (s *stubCollaboration) Share(_ context.Context, docCtx ModelContext) error {
	s.shared = append(s.shared, docCtx.Path())
	return nil
}

func (s *stubCollaboration) Disconnect(docCtx ModelContext) {
	s.disconnected = append(s.disconnected, docCtx.Path())
}

func TestSecuredExecutionUsesBusyLock(t *testing.T) {
	lock := &countingLock{}
	env := newFlowEnv(metadata.ProgrammingModelDraft, WithBusyLock(lock))

	value, err := env.flow.SecuredExecution(context.Background(), func(context.Context) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", value)
	assert.Equal(t, 1, lock.locks)
	assert.Equal(t, 1, lock.unlocks)
}

type countingLock struct {
	locks   int
	unlocks int
}

func (l *countingLock) Lock()   { l.locks++ }
func (l *countingLock) Unlock() { l.unlocks++ }

func TestDraftRootPath(t *testing.T) {
	root, err := DraftRootPath(&stubContext{path: "/SalesOrders(ID=1)/_Items(10)"})
	require.NoError(t, err)
	assert.Equal(t, "/SalesOrders(ID=1)", root)

	root, err = DraftRootPath(&stubContext{path: "/SalesOrders(ID=1)"})
	require.NoError(t, err)
	assert.Equal(t, "/SalesOrders(ID=1)", root)

	_, err = DraftRootPath(&stubContext{path: "/"})
	require.Error(t, err)

	_, err = DraftRootPath(nil)
	require.Error(t, err)
}

func TestComputeSiblingInfoBuildsPathMapping(t *testing.T) {
	env := newFlowEnv(metadata.ProgrammingModelDraft)
	source := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=false)/_Items(10)"}
	sibling := &stubContext{path: "/SalesOrders(ID=1,IsActiveEntity=true)/_Items(10)"}
	env.model.siblings = map[string]ModelContext{source.path: sibling}

	info, err := env.flow.computeSiblingInfo(context.Background(), source)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Same(t, sibling, info.TargetContext)

	require.Len(t, info.PathMapping, 1)
	assert.Equal(t, "/SalesOrders(ID=1,IsActiveEntity=false)", info.PathMapping[0].OldPath)
	assert.Equal(t, "/SalesOrders(ID=1,IsActiveEntity=true)", info.PathMapping[0].NewPath)
}

func TestCancelledSentinel(t *testing.T) {
	assert.True(t, IsCancelled(Cancelled()))
	assert.False(t, IsCancelled(errors.New("plain failure")))
	assert.False(t, IsCancelled(nil))
}

func TestTransactionalErrorPreservesTypedErrors(t *testing.T) {
	typed := goerrors.New("draft locked by another user", goerrors.CategoryConflict)
	assert.Same(t, typed, transactionalError("edit", typed))

	wrapped := transactionalError("edit", errors.New("socket closed"))
	var converted *goerrors.Error
	require.ErrorAs(t, wrapped, &converted)
	assert.Equal(t, goerrors.CategoryExternal, converted.Category)
	assert.Contains(t, converted.Error(), "edit failed")
}
