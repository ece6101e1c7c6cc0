package editflow

import "context"

// HookFunc is a lifecycle hook over the document context of the running
// cycle. Returning an error from a Before hook aborts the cycle; returning
// the cancellation sentinel aborts it silently.
type HookFunc func(ctx context.Context, docCtx ModelContext) error

// LifecycleHooks groups the overridable extension points of the edit flow.
// After hooks run once the transaction succeeded; their errors are logged
// but do not undo the transition.
type LifecycleHooks struct {
	BeforeEdit    HookFunc
	AfterEdit     HookFunc
	BeforeSave    HookFunc
	AfterSave     HookFunc
	BeforeCreate  HookFunc
	AfterCreate   HookFunc
	BeforeDiscard HookFunc
	AfterDiscard  HookFunc
	BeforeDelete  HookFunc
	AfterDelete   HookFunc
}

// runBeforeHook invokes a Before hook when set.
func (ef *EditFlow) runBeforeHook(ctx context.Context, hook HookFunc, docCtx ModelContext) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, docCtx)
}

// runAfterHook invokes an After hook when set; failures are logged only.
func (ef *EditFlow) runAfterHook(ctx context.Context, op string, hook HookFunc, docCtx ModelContext) {
	if hook == nil {
		return
	}
	if err := hook(ctx, docCtx); err != nil {
		ef.logger.Error("%s after-hook failed: %v", op, err)
	}
}
