// Package editflow implements the transactional document lifecycle behind
// draft and sticky editing sessions: edit, save, cancel, create and delete
// cycles, serialized per page instance through a task queue, with sibling
// context bookkeeping for flexible-column layouts.
package editflow

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeCancelDialog marks the rejection produced when the user backs out
// of a confirmation dialog. Callers treat it as an abort, not a failure.
const TextCodeCancelDialog = "CANCEL_ACTION_DIALOG"

// Cancelled returns the sentinel error for a user-initiated abort.
func Cancelled() error {
	return goerrors.New("action cancelled by user", goerrors.CategoryOperation).
		WithTextCode(TextCodeCancelDialog)
}

// IsCancelled reports whether err is (or wraps) the user-cancellation
// sentinel. Cancellations are suppressed from error logging and never
// rethrown as failures.
func IsCancelled(err error) bool {
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		return typed.TextCode == TextCodeCancelDialog
	}
	return false
}

func transactionalError(op string, err error) error {
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return goerrors.New(op+" failed: "+err.Error(), goerrors.CategoryExternal)
}
