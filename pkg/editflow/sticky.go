package editflow

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// stickySession tracks one active sticky edit session and the three shell
// registrations it owns. All of them are deregistered on session end; leaked
// registrations would survive into the next page instance.
type stickySession struct {
	mu sync.Mutex

	token     uuid.UUID
	guardHash string

	// guardCrossed is set once the user explicitly navigated within the
	// guarded region; the dirty-state provider then stops warning.
	guardCrossed bool
	// navigationResolving is true while a route change is still being
	// processed; the session is never reported dirty mid-transition.
	navigationResolving bool

	unregisterDirtyState func()
	unregisterTimeout    func()
	unregisterRoute      func()
}

// isDirty implements the shell's dirty-state consultation for a pending
// navigation to targetHash.
func (s *stickySession) isDirty(targetHash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.navigationResolving {
		return false
	}
	if targetHash == s.guardHash {
		// refresh or close attempt, the hash does not change
		return true
	}
	if s.guardCrossed || strings.HasPrefix(targetHash, s.guardHash) {
		return false
	}
	return true
}

func (s *stickySession) noteRouteMatched(hash string) (leftGuard bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigationResolving = false
	if strings.HasPrefix(hash, s.guardHash) {
		s.guardCrossed = true
		return false
	}
	return true
}

func (s *stickySession) deregister() {
	if s.unregisterDirtyState != nil {
		s.unregisterDirtyState()
	}
	if s.unregisterTimeout != nil {
		s.unregisterTimeout()
	}
	if s.unregisterRoute != nil {
		s.unregisterRoute()
	}
	s.unregisterDirtyState, s.unregisterTimeout, s.unregisterRoute = nil, nil, nil
}

// handleStickyOn registers the sticky session for the given document: a
// dirty-state provider, a session-timeout handler and a route-matched
// listener that discards the session when navigation leaves the guarded
// region.
func (ef *EditFlow) handleStickyOn(docCtx ModelContext) {
	if ef.shell == nil || ef.sticky != nil {
		return
	}
	session := &stickySession{
		token:     uuid.New(),
		guardHash: ef.navigation.CurrentHash(),
	}
	session.unregisterDirtyState = ef.shell.RegisterDirtyStateProvider(session.isDirty)
	session.unregisterTimeout = ef.shell.RegisterSessionTimeoutHandler(func() {
		ef.onStickyTimeout(docCtx)
	})
	session.unregisterRoute = ef.shell.RegisterRouteMatched(func(hash string) {
		if session.noteRouteMatched(hash) {
			ef.discardStickySession(context.Background(), docCtx)
		}
	})
	ef.sticky = session
	ef.logger.Debug("sticky session %s registered for %s", session.token, docCtx.Path())
}

// handleStickyOff tears the session down and releases every shell
// registration.
func (ef *EditFlow) handleStickyOff() {
	if ef.sticky == nil {
		return
	}
	ef.logger.Debug("sticky session %s deregistered", ef.sticky.token)
	ef.sticky.deregister()
	ef.sticky = nil
}

// onStickyTimeout runs when the server-side session expired: tear down the
// local session and navigate back.
func (ef *EditFlow) onStickyTimeout(docCtx ModelContext) {
	ef.handleStickyOff()
	ef.state.Set(KeyIsEditable, false)
	ef.state.Set(KeyIsDocumentModified, false)
	if err := ef.navigation.NavigateBackFromContext(context.Background(), docCtx); err != nil {
		ef.logger.Error("navigation after sticky timeout failed: %v", err)
	}
}

// discardStickySession cancels the server-side session after the user
// navigated outside the guarded region.
func (ef *EditFlow) discardStickySession(ctx context.Context, docCtx ModelContext) {
	ef.handleStickyOff()
	if _, err := ef.transaction.CancelDocument(ctx, docCtx, CancelParameters{SkipDiscardPopover: true}); err != nil {
		logError(ef.logger, "sticky discard", err)
	}
	ef.state.Set(KeyIsEditable, false)
	ef.state.Set(KeyIsDocumentModified, false)
}
