package fiori

import (
	"fmt"

	"github.com/goliatone/go-fiori/pkg/bindings"
	"github.com/goliatone/go-fiori/pkg/metadata"
)

// ActionType classifies the entries of an action collection.
type ActionType string

const (
	ActionTypeDataFieldForAction ActionType = "ForAction"
	ActionTypeForNavigation      ActionType = "ForNavigation"
	ActionTypeDefault            ActionType = "Default"
	ActionTypePrimary            ActionType = "Primary"
	ActionTypeSecondary          ActionType = "Secondary"
	ActionTypeMenu               ActionType = "Menu"
	ActionTypeCopy               ActionType = "Copy"
)

// ActionOrigin tags where an action definition came from.
type ActionOrigin string

const (
	ActionOriginAnnotation ActionOrigin = "Annotation"
	ActionOriginManifest   ActionOrigin = "Manifest"
)

// ConverterAction is the uniform action descriptor of the converter output.
// Annotation-backed actions carry an AnnotationPath, manifest-backed ones a
// Press handler; menus nest their resolved items.
type ConverterAction struct {
	Key               string              `json:"key"`
	Type              ActionType          `json:"type"`
	Origin            ActionOrigin        `json:"origin"`
	Text              string              `json:"text,omitempty"`
	Visible           bindings.Expression `json:"-"`
	Enabled           bindings.Expression `json:"-"`
	CompiledVisible   string              `json:"visible,omitempty"`
	CompiledEnabled   string              `json:"enabled,omitempty"`
	AnnotationPath    string              `json:"annotationPath,omitempty"`
	Press             string              `json:"press,omitempty"`
	Command           string              `json:"command,omitempty"`
	Position          *Position           `json:"position,omitempty"`
	RequiresSelection bool                `json:"requiresSelection,omitempty"`
	Inline            bool                `json:"inline,omitempty"`
	Menu              []ConverterAction   `json:"menu,omitempty"`
	DefaultAction     *ConverterAction    `json:"defaultAction,omitempty"`
}

// ObjectKey implements ConfigurableObject.
func (a ConverterAction) ObjectKey() string {
	return a.Key
}

// ObjectPosition implements ConfigurableObject.
func (a ConverterAction) ObjectPosition() *Position {
	return a.Position
}

// compileBindings freezes the expression fields into their emitted string
// form. Called once per action when the page definition is assembled.
func (a *ConverterAction) compileBindings() {
	a.CompiledVisible = bindings.Compile(a.Visible)
	a.CompiledEnabled = bindings.Compile(a.Enabled)
	for i := range a.Menu {
		a.Menu[i].compileBindings()
	}
	if a.DefaultAction != nil {
		a.DefaultAction.compileBindings()
	}
}

// ActionResolution is the merged outcome of annotation and manifest actions.
// CommandActions collects every action carrying a keyboard command so the
// consuming layer can wire shortcuts.
type ActionResolution struct {
	Actions        []ConverterAction
	CommandActions map[string]ConverterAction
}

// annotationActionsFromLineItem derives toolbar actions from the
// DataFieldForAction / DataFieldForIntentBasedNavigation entries of a line
// item. Inline and determining fields become row or footer actions and are
// skipped here.
func annotationActionsFromLineItem(cc *ConverterContext, fields []metadata.DataField, annotationTerm string) []ConverterAction {
	var actions []ConverterAction
	relative := cc.RelativeModelPathFunction()
	for _, df := range fields {
		if df.Inline || df.Determining {
			continue
		}
		switch df.Kind {
		case metadata.DataFieldKindForAction:
			actions = append(actions, ConverterAction{
				Key:            KeyForDataField(df),
				Type:           ActionTypeDataFieldForAction,
				Origin:         ActionOriginAnnotation,
				Text:           df.Label,
				AnnotationPath: cc.AbsoluteAnnotationPath("@" + annotationTerm),
				Visible:        notHiddenExpression(df.Hidden, relative),
				Enabled:        boundActionEnabled(cc, df.Action, relative),
			})
		case metadata.DataFieldKindForIntentBasedNavigation:
			enabled := bindings.True()
			if df.RequiresContext {
				enabled = bindings.Raw("{= %{internal>numberOfSelectedContexts} >= 1}")
			}
			actions = append(actions, ConverterAction{
				Key:               KeyForDataField(df),
				Type:              ActionTypeForNavigation,
				Origin:            ActionOriginAnnotation,
				Text:              df.Label,
				AnnotationPath:    cc.AbsoluteAnnotationPath("@" + annotationTerm),
				Visible:           notHiddenExpression(df.Hidden, relative),
				Enabled:           enabled,
				RequiresSelection: df.RequiresContext,
			})
		}
	}
	return actions
}

// boundActionEnabled derives the enablement expression of a bound action from
// its Core.OperationAvailable annotation. A missing annotation means always
// enabled, a static false statically disabled, a path-valued one a runtime
// binding on the row context.
func boundActionEnabled(cc *ConverterContext, actionFQN string, relative func(string) string) bindings.Expression {
	action, ok := cc.Metadata().BoundAction(actionFQN, cc.EntityType().FullyQualifiedName)
	if !ok {
		return bindings.True()
	}
	available := action.OperationAvailable()
	switch {
	case available.IsNull():
		return bindings.True()
	case available.Kind == metadata.KindBool:
		return bindings.Constant(available.Bool)
	case available.IsDynamic():
		return bindings.PathInModel(relative(available.AsPath()))
	default:
		return bindings.True()
	}
}

// notHiddenExpression negates a UI.Hidden annotation value into a visibility
// expression.
func notHiddenExpression(hidden metadata.Value, relative func(string) string) bindings.Expression {
	switch {
	case hidden.IsStaticTrue():
		return bindings.False()
	case hidden.IsDynamic():
		return bindings.Not(bindings.PathInModel(relative(hidden.AsPath())))
	default:
		return bindings.True()
	}
}

// ActionsFromManifest merges the manifest action block with the
// annotation-derived actions of the same collection. Manifest values for
// enabled and visible win only when explicitly set; type, annotation path and
// press handler of an annotation action are never manifest-overridable.
// Manifest menus swallow their item keys from the flat list, derive their own
// visibility from the surviving items and disappear entirely when no item
// survives.
func ActionsFromManifest(cc *ConverterContext, manifestActions map[string]ManifestAction, annotationActions []ConverterAction, hiddenActions map[string]bool) (ActionResolution, error) {
	byKey := make(map[string]ConverterAction, len(annotationActions))
	for _, a := range annotationActions {
		byKey[a.Key] = a
	}

	merged := make(map[string]ConverterAction, len(manifestActions))
	commandActions := map[string]ConverterAction{}
	menuItemKeys := map[string]bool{}

	for _, key := range sortedKeys(manifestActions) {
		action := mapActionByKey(key, manifestActions[key], byKey)
		if action.Command != "" {
			commandActions[key] = action
		}
		merged[key] = action
	}

	// Menu and defaultAction expansion runs after the flat merge so
	// referenced actions are already resolved regardless of manifest order.
	for _, key := range sortedKeys(manifestActions) {
		manifest := manifestActions[key]
		action, stillPresent := merged[key]
		if !stillPresent {
			continue
		}

		if manifest.DefaultAction != "" {
			def, ok := merged[manifest.DefaultAction]
			if !ok {
				def, ok = byKey[manifest.DefaultAction]
			}
			if !ok {
				return ActionResolution{}, fmt.Errorf("fiori: default action %q of %q does not exist", manifest.DefaultAction, key)
			}
			defCopy := def
			action.DefaultAction = &defCopy
			if def.Command != "" {
				commandActions[manifest.DefaultAction] = def
			}
		}

		if len(manifest.Menu) > 0 {
			action.Type = ActionTypeMenu
			var items []ConverterAction
			var itemVisibilities []bindings.Expression
			for _, itemKey := range manifest.Menu {
				menuItemKeys[itemKey] = true
				item, ok := merged[itemKey]
				if !ok {
					item, ok = byKey[itemKey]
				}
				if !ok {
					cc.AddIssue(IssueCategoryManifest, IssueSeverityMedium,
						fmt.Sprintf("menu %q references unknown action %q", key, itemKey))
					continue
				}
				if !canBeMenuItem(item, hiddenActions) {
					continue
				}
				items = append(items, item)
				itemVisibilities = append(itemVisibilities, item.Visible)
			}
			if len(items) == 0 {
				delete(merged, key)
				delete(commandActions, key)
				continue
			}
			action.Menu = items
			action.Visible = bindings.And(action.Visible, bindings.Or(itemVisibilities...))
		}

		merged[key] = action
	}

	// Menu items never stay top-level actions.
	for itemKey := range menuItemKeys {
		delete(merged, itemKey)
	}

	actions := make([]ConverterAction, 0, len(merged))
	for _, key := range sortedKeys(merged) {
		actions = append(actions, merged[key])
	}
	return ActionResolution{Actions: actions, CommandActions: commandActions}, nil
}

// mapActionByKey combines one manifest action with the annotation action of
// the same key, applying the precedence rules of the merge.
func mapActionByKey(key string, manifest ManifestAction, annotationByKey map[string]ConverterAction) ConverterAction {
	annotation, isAnnotationBacked := annotationByKey[key]

	action := ConverterAction{
		Key:      key,
		Type:     ActionTypeDefault,
		Origin:   ActionOriginManifest,
		Text:     manifest.Text,
		Press:    manifest.Press,
		Command:  manifest.Command,
		Position: manifest.Position,
		Inline:   manifest.Inline,
		Visible:  bindings.True(),
		Enabled:  bindings.True(),
	}
	if manifest.RequiresSelection != nil {
		action.RequiresSelection = *manifest.RequiresSelection
	}

	if isAnnotationBacked {
		action.Origin = ActionOriginAnnotation
		action.Type = annotation.Type
		action.AnnotationPath = annotation.AnnotationPath
		action.Press = annotation.Press
		action.Visible = annotation.Visible
		action.Enabled = annotation.Enabled
		action.RequiresSelection = annotation.RequiresSelection
		if action.Text == "" {
			action.Text = annotation.Text
		}
	}

	// Explicit manifest settings beat the annotation value, never the
	// reverse.
	if manifest.Visible != nil {
		action.Visible = bindings.Parse(*manifest.Visible)
	}
	if manifest.Enabled != nil {
		action.Enabled = bindings.Parse(*manifest.Enabled)
	}
	return action
}

// canBeMenuItem filters menu candidates: an item survives when it is not in
// hiddenActions and is either visible or of an annotation-backed action type
// whose visibility is decided at runtime.
func canBeMenuItem(action ConverterAction, hiddenActions map[string]bool) bool {
	if hiddenActions[action.Key] {
		return false
	}
	if action.Visible.IsFalse() {
		return false
	}
	if !action.Visible.IsTrue() {
		// Dynamic visibility: keep annotation-backed items, drop purely
		// manifest ones the renderer could never justify showing.
		return action.Type == ActionTypeDataFieldForAction ||
			action.Type == ActionTypeForNavigation ||
			action.Origin == ActionOriginManifest
	}
	return true
}

// RemoveDuplicateActions drops every top-level action that is referenced as a
// menu item anywhere in the collection, so an action never renders both
// inline and inside a menu.
func RemoveDuplicateActions(actions []ConverterAction) []ConverterAction {
	inMenus := map[string]bool{}
	for _, a := range actions {
		for _, item := range a.Menu {
			inMenus[item.Key] = true
		}
	}
	out := make([]ConverterAction, 0, len(actions))
	for _, a := range actions {
		if inMenus[a.Key] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// overrideManifestAction is the configurable-object override callback for
// actions: only the allow-listed manifest fields replace annotation values.
func overrideManifestAction(existing *ConverterAction, custom ConverterAction) {
	if custom.Origin != ActionOriginManifest {
		return
	}
	existing.Visible = custom.Visible
	existing.Enabled = custom.Enabled
	if custom.Position != nil {
		existing.Position = custom.Position
	}
	if custom.Command != "" {
		existing.Command = custom.Command
	}
	if custom.Text != "" {
		existing.Text = custom.Text
	}
}
