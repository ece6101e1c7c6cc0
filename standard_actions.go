package fiori

import (
	"github.com/goliatone/go-fiori/pkg/bindings"
	"github.com/goliatone/go-fiori/pkg/metadata"
)

// Well-known model paths the emitted expressions bind against.
const (
	pathIsEditable   = "/isEditable"
	modelUI          = "ui"
	modelInternal    = "internal"
	pathCreateMode   = "createMode"
	pathDeletable    = "deletableContexts"
	pathUpdatable    = "numberOfUpdatableContexts"
	pathSelectedRows = "numberOfSelectedContexts"
)

func uiIsEditable() bindings.Expression {
	return bindings.PathInModel(pathIsEditable, modelUI)
}

// StandardActionsContext is the read-only snapshot of restriction state a
// table's standard-action derivations work from. Computed once per table.
type StandardActionsContext struct {
	TemplateType TemplateType
	TableType    string
	CreationMode string

	// IsEntitySet is true when the collection is an entity set reached
	// directly; false for navigation-scoped sub-collections, where the
	// parent's deletability participates in restriction evaluation.
	IsEntitySet bool

	Insertable metadata.Value
	Updatable  metadata.Value
	Deletable  metadata.Value
	// ParentDeletable is considered for navigation-scoped collections whose
	// own delete restriction is absent.
	ParentDeletable metadata.Value

	CreateHidden metadata.Value
	DeleteHidden metadata.Value
	UpdateHidden metadata.Value

	NewActionName      string
	NewActionAvailable metadata.Value

	EnableMassEdit             bool
	HideInlineCreateInEditMode *bool

	// RelativePath rewrites annotation paths onto the current model scope.
	RelativePath func(string) string
}

// newStandardActionsContext snapshots the restriction state of the current
// converter scope.
func newStandardActionsContext(cc *ConverterContext, creationMode, tableType string, tableSettings *TableManifestSettings) StandardActionsContext {
	dataModelPath := cc.DataModelPath()
	entitySet := cc.EntitySet()
	entityType := cc.EntityType()

	sac := StandardActionsContext{
		TemplateType: cc.TemplateType(),
		TableType:    tableType,
		CreationMode: creationMode,
		IsEntitySet:  len(dataModelPath.NavigationProperties) == 0,
		RelativePath: cc.RelativeModelPathFunction(),
	}
	if entitySet != nil {
		sac.Insertable = entitySet.Insertable()
		sac.Updatable = entitySet.Updatable()
		sac.Deletable = entitySet.Deletable()
		sac.NewActionName = entitySet.NewActionName()
		if sac.NewActionName != "" {
			if action, ok := cc.Metadata().BoundAction(sac.NewActionName, entityType.FullyQualifiedName); ok {
				sac.NewActionAvailable = action.OperationAvailable()
			}
		}
	}
	if !sac.IsEntitySet && dataModelPath.StartingEntitySet != nil {
		sac.ParentDeletable = dataModelPath.StartingEntitySet.Deletable()
	}
	if v, ok := entityType.Annotations.Get(metadata.UICreateHidden); ok {
		sac.CreateHidden = v
	}
	if v, ok := entityType.Annotations.Get(metadata.UIDeleteHidden); ok {
		sac.DeleteHidden = v
	}
	if v, ok := entityType.Annotations.Get(metadata.UIUpdateHidden); ok {
		sac.UpdateHidden = v
	}
	if tableSettings != nil {
		sac.EnableMassEdit = tableSettings.EnableMassEdit
		sac.HideInlineCreateInEditMode = tableSettings.CreationMode.HiddenInEditMode
	}
	return sac
}

// StandardActionConfiguration is the derived bundle for one standard action.
// IsTemplated is false when the visibility folded to constant false, letting
// the template skip generating the control altogether.
type StandardActionConfiguration struct {
	Key         string              `json:"key"`
	Visible     bindings.Expression `json:"-"`
	Enabled     bindings.Expression `json:"-"`
	IsTemplated bool                `json:"isTemplated"`

	CompiledVisible string `json:"visible"`
	CompiledEnabled string `json:"enabled"`
}

func newStandardActionConfiguration(key string, visible, enabled bindings.Expression) StandardActionConfiguration {
	return StandardActionConfiguration{
		Key:             key,
		Visible:         visible,
		Enabled:         enabled,
		IsTemplated:     !visible.IsFalse(),
		CompiledVisible: bindings.Compile(visible),
		CompiledEnabled: bindings.Compile(enabled),
	}
}

// isStaticallyNonInsertable reports a collection that can never take inserts:
// statically non-insertable with no new action to fall back to.
func (sac StandardActionsContext) isStaticallyNonInsertable() bool {
	return sac.Insertable.IsStaticFalse() && sac.NewActionName == ""
}

// isStaticallyNonDeletable folds the own and, for navigation-scoped
// collections, the parent delete restrictions.
func (sac StandardActionsContext) isStaticallyNonDeletable() bool {
	if sac.Deletable.IsStaticFalse() {
		return true
	}
	if !sac.IsEntitySet && sac.Deletable.IsNull() {
		return sac.ParentDeletable.IsStaticFalse()
	}
	return false
}

// StandardActionCreate derives the Create action bundle.
func StandardActionCreate(sac StandardActionsContext) StandardActionConfiguration {
	visible := createVisibility(sac)
	enabled := visible
	if sac.Insertable.IsDynamic() && sac.NewActionName == "" {
		enabled = bindings.And(visible, bindings.PathInModel(sac.RelativePath(sac.Insertable.AsPath())))
	}
	return newStandardActionConfiguration("Create", visible, enabled)
}

func createVisibility(sac StandardActionsContext) bindings.Expression {
	switch {
	case sac.NewActionName != "" && sac.NewActionAvailable.IsStaticFalse():
		return bindings.False()
	case sac.isStaticallyNonInsertable():
		return bindings.False()
	case sac.CreateHidden.IsStaticTrue():
		return bindings.False()
	}

	if sac.CreationMode == CreationModeInlineCreationRow && sac.TableType == TableTypeResponsive &&
		(sac.HideInlineCreateInEditMode == nil || *sac.HideInlineCreateInEditMode) {
		// Inline creation rows supply their own empty row while editing; the
		// toolbar Create only shows during document creation.
		return bindings.PathInModel(pathCreateMode, modelUI)
	}

	notHidden := bindings.True()
	if sac.CreateHidden.IsDynamic() {
		notHidden = bindings.Not(bindings.PathInModel(sac.RelativePath(sac.CreateHidden.AsPath())))
	}
	if sac.TemplateType == TemplateListReport {
		return notHidden
	}
	return bindings.And(uiIsEditable(), notHidden)
}

// StandardActionDelete derives the Delete action bundle.
func StandardActionDelete(sac StandardActionsContext) StandardActionConfiguration {
	visible := deleteVisibility(sac)
	enabled := bindings.False()
	if !visible.IsFalse() {
		enabled = bindings.And(visible, bindings.Raw("{= %{internal>"+pathDeletable+"} > 0}"))
	}
	return newStandardActionConfiguration("Delete", visible, enabled)
}

func deleteVisibility(sac StandardActionsContext) bindings.Expression {
	switch {
	case sac.TemplateType == TemplateAnalyticalListPage:
		return bindings.False()
	case sac.isStaticallyNonDeletable():
		return bindings.False()
	case sac.DeleteHidden.IsStaticTrue():
		return bindings.False()
	}

	notHidden := bindings.True()
	if sac.DeleteHidden.IsDynamic() {
		notHidden = bindings.Not(bindings.PathInModel(sac.RelativePath(sac.DeleteHidden.AsPath())))
	}
	if sac.TemplateType == TemplateObjectPage {
		return bindings.And(uiIsEditable(), notHidden)
	}
	return notHidden
}

// StandardActionMassEdit derives the MassEdit action bundle.
func StandardActionMassEdit(sac StandardActionsContext) StandardActionConfiguration {
	visible := massEditVisibility(sac)
	enabled := bindings.False()
	if !visible.IsFalse() {
		enabled = bindings.And(visible, bindings.Raw("{= %{internal>"+pathUpdatable+"} > 1}"))
	}
	return newStandardActionConfiguration("MassEdit", visible, enabled)
}

func massEditVisibility(sac StandardActionsContext) bindings.Expression {
	switch {
	case !sac.EnableMassEdit:
		return bindings.False()
	case sac.Updatable.IsStaticFalse():
		return bindings.False()
	case sac.UpdateHidden.IsStaticTrue():
		return bindings.False()
	case sac.TemplateType == TemplateAnalyticalListPage:
		return bindings.False()
	}

	notHidden := bindings.True()
	if sac.UpdateHidden.IsDynamic() {
		notHidden = bindings.Not(bindings.PathInModel(sac.RelativePath(sac.UpdateHidden.AsPath())))
	}
	if sac.TemplateType == TemplateObjectPage {
		return bindings.And(uiIsEditable(), notHidden)
	}
	return notHidden
}

// StandardActionPaste derives the Paste action bundle. Paste rides on Create:
// it is only offered where creating rows is possible, and only when the
// manifest did not switch it off.
func StandardActionPaste(sac StandardActionsContext, createVisible bindings.Expression, enablePaste *bool) StandardActionConfiguration {
	if enablePaste != nil && !*enablePaste {
		return newStandardActionConfiguration("Paste", bindings.False(), bindings.False())
	}
	if sac.TemplateType != TemplateObjectPage {
		// Paste into a display-mode list has no transactional target.
		return newStandardActionConfiguration("Paste", bindings.False(), bindings.False())
	}
	visible := bindings.And(createVisible, uiIsEditable())
	return newStandardActionConfiguration("Paste", visible, visible)
}
