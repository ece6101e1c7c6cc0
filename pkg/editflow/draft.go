package editflow

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// Creation modes a create cycle resolves to. Sync creates the row and waits
// for persistence, Async creates without blocking navigation, Deferred leaves
// creation to the target page (new-action dialogs, key-field input).
const (
	CreationModeSync     = "Sync"
	CreationModeAsync    = "Async"
	CreationModeDeferred = "Deferred"
)

// ResolveCreationMode picks the effective creation mode for a list binding's
// entity set. An explicitly requested mode always wins. Otherwise a
// configured new action defers creation to its dialog, a key property that
// the user must fill forces Sync, and everything else creates asynchronously.
func ResolveCreationMode(entitySet *metadata.EntitySet, requested string) string {
	if requested != "" {
		return requested
	}
	if entitySet == nil {
		return CreationModeSync
	}
	if entitySet.NewActionName() != "" {
		return CreationModeDeferred
	}
	entityType := entitySet.EntityType()
	if entityType != nil {
		for _, key := range entityType.KeyProperties() {
			if !key.IsComputed() && !key.IsHidden() {
				return CreationModeSync
			}
		}
	}
	return CreationModeAsync
}

// DraftRootPath reduces a document context path to its draft-root path: the
// first entity segment of the canonical path. Editing a sub-object item binds
// the edit cycle to the root's draft, not the item.
func DraftRootPath(docCtx ModelContext) (string, error) {
	if docCtx == nil {
		return "", goerrors.New("no context to derive a draft root from", goerrors.CategoryBadInput)
	}
	path := strings.TrimPrefix(docCtx.Path(), "/")
	if path == "" {
		return "", goerrors.New("context has an empty path", goerrors.CategoryBadInput)
	}
	root, _, _ := strings.Cut(path, "/")
	return "/" + root, nil
}

// PathMapping records one old-path/new-path pair of a draft/active swap.
type PathMapping struct {
	OldPath string
	NewPath string
}

// SiblingInformation is the outcome of a sibling-context computation: the
// counterpart context of a draft (its active twin, or vice versa) plus the
// path substitutions a layout manager applies to keep open columns bound.
type SiblingInformation struct {
	TargetContext ModelContext
	PathMapping   []PathMapping
}

// computeSiblingInfo binds the SiblingEntity navigation of source and builds
// the path mapping from the source path segments to the sibling's. Must run
// before a transactional cancel when the source may cease to exist afterward.
func (ef *EditFlow) computeSiblingInfo(ctx context.Context, source ModelContext) (*SiblingInformation, error) {
	if source == nil {
		return nil, nil
	}
	sibling, err := ef.model.BindContext("SiblingEntity", source)
	if err != nil {
		return nil, transactionalError("sibling lookup", err)
	}
	if sibling == nil {
		return nil, nil
	}
	info := &SiblingInformation{TargetContext: sibling}

	oldSegments := strings.Split(strings.TrimPrefix(source.Path(), "/"), "/")
	newSegments := strings.Split(strings.TrimPrefix(sibling.Path(), "/"), "/")
	oldPath, newPath := "", ""
	for i := 0; i < len(oldSegments) && i < len(newSegments); i++ {
		oldPath += "/" + oldSegments[i]
		newPath += "/" + newSegments[i]
		if oldSegments[i] != newSegments[i] {
			info.PathMapping = append(info.PathMapping, PathMapping{OldPath: oldPath, NewPath: newPath})
		}
	}
	return info, nil
}

// requestSemanticKeys re-reads the semantic key properties of the active
// context from the server. Required after a cancel-to-active swap so an
// immediate re-edit has fully loaded key values to inherit.
func (ef *EditFlow) requestSemanticKeys(ctx context.Context, docCtx ModelContext) error {
	if ef.meta == nil || docCtx == nil {
		return nil
	}
	entitySet := ef.entitySetOf(docCtx)
	if entitySet == nil || entitySet.EntityType() == nil {
		return nil
	}
	for _, key := range entitySet.EntityType().SemanticKeys() {
		if _, err := docCtx.RequestProperty(ctx, key); err != nil {
			return transactionalError("semantic key load", err)
		}
	}
	return nil
}

// entitySetOf resolves the entity set a context path starts at.
func (ef *EditFlow) entitySetOf(docCtx ModelContext) *metadata.EntitySet {
	if ef.meta == nil || docCtx == nil {
		return nil
	}
	path := strings.TrimPrefix(docCtx.Path(), "/")
	name, _, _ := strings.Cut(path, "(")
	name, _, _ = strings.Cut(name, "/")
	entitySet, _ := ef.meta.EntitySet(name)
	return entitySet
}
