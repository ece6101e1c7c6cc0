package fiori

import (
	"github.com/goliatone/go-fiori/pkg/bindings"
	"github.com/goliatone/go-fiori/pkg/metadata"
)

// Table types understood by the converter. AnalyticalTable is a derived
// behavior bundle, not a distinct renderer: it always emits as GridTable with
// aggregation enabled.
const (
	TableTypeResponsive = "ResponsiveTable"
	TableTypeGrid       = "GridTable"
	TableTypeAnalytical = "AnalyticalTable"
	TableTypeTree       = "TreeTable"
)

// Selection modes of the emitted control configuration.
const (
	SelectionModeNone   = "None"
	SelectionModeSingle = "Single"
	SelectionModeMulti  = "Multi"
	SelectionModeAuto   = "Auto"
)

// TableStandardActions bundles the derived standard action configurations.
type TableStandardActions struct {
	Create   StandardActionConfiguration `json:"create"`
	Delete   StandardActionConfiguration `json:"delete"`
	Paste    StandardActionConfiguration `json:"paste"`
	MassEdit StandardActionConfiguration `json:"massEdit"`
}

// TableControlConfiguration is the control-level slice of a table
// visualization.
type TableControlConfiguration struct {
	Type                 string       `json:"type"`
	SelectionMode        string       `json:"selectionMode"`
	CreationMode         CreationMode `json:"creationMode"`
	EnableExport         bool         `json:"enableExport"`
	EnableFullScreen     bool         `json:"enableFullScreen,omitempty"`
	CondensedTableLayout bool         `json:"condensedTableLayout,omitempty"`
	SelectAll            bool         `json:"selectAll,omitempty"`
	SelectionLimit       int          `json:"selectionLimit,omitempty"`
	P13nModes            []string     `json:"personalization,omitempty"`
	HierarchyQualifier   string       `json:"hierarchyQualifier,omitempty"`
}

// TableVisualization is the converter output bundle for one table.
type TableVisualization struct {
	VisualizationType string                    `json:"visualizationType"`
	ID                string                    `json:"id"`
	CollectionPath    string                    `json:"collectionPath"`
	AnnotationPath    string                    `json:"annotationPath"`
	Control           TableControlConfiguration `json:"control"`
	Columns           []TableColumn             `json:"columns"`
	Actions           []ConverterAction         `json:"actions"`
	StandardActions   TableStandardActions      `json:"standardActions"`
	ThresholdVisible  int                       `json:"threshold,omitempty"`
}

// CreateTableVisualization converts one UI.LineItem (plus its manifest
// configuration) into a table visualization bundle. The annotationTerm names
// the driving annotation including qualifier, e.g. "UI.LineItem" or
// "UI.LineItem#Overview".
func CreateTableVisualization(cc *ConverterContext, annotationTerm string) (*TableVisualization, error) {
	lineItemValue, scoped, err := cc.EntityTypeAnnotation("@" + annotationTerm)
	if err != nil {
		return nil, err
	}
	fields, decodeErrs := metadata.DecodeLineItem(lineItemValue)
	for _, decodeErr := range decodeErrs {
		scoped.AddIssue(IssueCategoryAnnotation, IssueSeverityMedium, decodeErr.Error())
	}

	controlConfig := scoped.ManifestControlConfiguration("@" + annotationTerm)
	tableSettings := controlConfig.TableSettings

	tableType := resolveTableType(scoped, tableSettings)
	creationMode := resolveTableCreationMode(scoped, tableSettings)

	columns := createTableColumns(scoped, fields, controlConfig.Columns)

	hiddenActions := map[string]bool{}
	if tableSettings != nil {
		for _, key := range tableSettings.HiddenActions {
			hiddenActions[key] = true
		}
	}

	annotationActions := annotationActionsFromLineItem(scoped, fields, annotationTerm)
	resolution, err := ActionsFromManifest(scoped, controlConfig.Actions, annotationActions, hiddenActions)
	if err != nil {
		return nil, err
	}
	actions := insertCustomElements(annotationActions, resolution.Actions, overrideManifestAction)
	actions = RemoveDuplicateActions(actions)
	for i := range actions {
		actions[i].compileBindings()
	}

	sac := newStandardActionsContext(scoped, creationMode.Name, tableType, tableSettings)
	create := StandardActionCreate(sac)
	standard := TableStandardActions{
		Create:   create,
		Delete:   StandardActionDelete(sac),
		MassEdit: StandardActionMassEdit(sac),
	}
	var enablePaste *bool
	if tableSettings != nil {
		enablePaste = tableSettings.EnablePaste
	}
	standard.Paste = StandardActionPaste(sac, create.Visible, enablePaste)

	visualization := &TableVisualization{
		VisualizationType: "Table",
		ID:                StableID("fe", "table", sanitizeIDPart(annotationTerm)),
		CollectionPath:    scoped.ContextPath(),
		AnnotationPath:    scoped.AbsoluteAnnotationPath("@" + annotationTerm),
		Control: TableControlConfiguration{
			Type:          tableType,
			SelectionMode: getSelectionMode(scoped, sac, actions, tableSettings, standard),
			CreationMode:  creationMode,
			EnableExport:  tableSettings == nil || tableSettings.EnableExport == nil || *tableSettings.EnableExport,
			P13nModes:     personalizationModes(tableType, tableSettings),
		},
		Columns:         columns,
		Actions:         actions,
		StandardActions: standard,
	}
	if tableSettings != nil {
		visualization.Control.EnableFullScreen = tableSettings.EnableFullScreen
		visualization.Control.CondensedTableLayout = tableSettings.CondensedTableLayout
		visualization.Control.HierarchyQualifier = tableSettings.HierarchyQualifier
		if tableSettings.SelectAll != nil {
			visualization.Control.SelectAll = *tableSettings.SelectAll
		}
		visualization.Control.SelectionLimit = tableSettings.SelectionLimit
	}

	updateTableVisualizationForType(scoped, visualization)
	return visualization, nil
}

// resolveTableType picks the table control type: explicit manifest setting
// first, otherwise the template default (ALP charts over an analytical grid,
// everything else a responsive table).
func resolveTableType(cc *ConverterContext, settings *TableManifestSettings) string {
	if settings != nil && settings.Type != "" {
		return settings.Type
	}
	if cc.TemplateType() == TemplateAnalyticalListPage {
		return TableTypeAnalytical
	}
	return TableTypeResponsive
}

// resolveTableCreationMode defaults the creation mode per template: List
// Report rows open a new page, Object Page sub-collections create inline.
func resolveTableCreationMode(cc *ConverterContext, settings *TableManifestSettings) CreationMode {
	mode := CreationMode{}
	if settings != nil {
		mode = settings.CreationMode
	}
	if mode.Name == "" {
		if cc.TemplateType() == TemplateObjectPage {
			mode.Name = CreationModeInline
		} else {
			mode.Name = CreationModeNewPage
		}
	}
	return mode
}

// getSelectionMode derives the table selection mode. A row-context-dependent
// toolbar action that is unconditionally visible forces a selecting mode
// regardless of delete or mass-edit state; otherwise delete and mass-edit
// availability decide, either statically or through a compiled runtime
// expression. The nested conditional shape for navigation-scoped collections
// with mass edit reproduces the established branch structure on purpose.
func getSelectionMode(cc *ConverterContext, sac StandardActionsContext, actions []ConverterAction, settings *TableManifestSettings, standard TableStandardActions) string {
	configured := SelectionModeMulti
	explicitNone := false
	if settings != nil && settings.SelectionMode != "" {
		configured = settings.SelectionMode
		explicitNone = configured == SelectionModeNone
	}

	for _, action := range actions {
		if action.RequiresSelection && action.Visible.IsTrue() {
			if configured == SelectionModeSingle {
				return SelectionModeSingle
			}
			return SelectionModeMulti
		}
	}

	deleteVisible := standard.Delete.Visible
	massEditVisible := standard.MassEdit.Visible

	if deleteVisible.IsTrue() || massEditVisible.IsTrue() {
		if explicitNone || configured == SelectionModeNone {
			return SelectionModeMulti
		}
		return configured
	}

	if deleteVisible.IsFalse() && massEditVisible.IsFalse() {
		hasSelectingAction := false
		for _, action := range actions {
			if action.RequiresSelection && !action.Visible.IsFalse() {
				hasSelectingAction = true
				break
			}
		}
		if !hasSelectingAction {
			return SelectionModeNone
		}
		return configured
	}

	// Runtime-decided: compile an expression toggling between the configured
	// mode and None.
	mode := configured
	if mode == SelectionModeNone {
		mode = SelectionModeMulti
	}
	deleteTerm := deleteVisible
	if !sac.IsEntitySet {
		deleteTerm = bindings.And(uiIsEditable(), deleteVisible)
	}
	return bindings.Compile(bindings.IfElse(
		bindings.Or(deleteTerm, massEditVisible),
		bindings.Constant(mode),
		bindings.Constant(SelectionModeNone),
	))
}

// personalizationModes derives the enabled p13n aspects for the resolved
// table type, honoring per-aspect manifest overrides. An analytical table
// additionally supports Group and Aggregate.
func personalizationModes(tableType string, settings *TableManifestSettings) []string {
	analytic := tableType == TableTypeAnalytical
	enabled := func(aspect *bool, def bool) bool {
		if aspect != nil {
			return *aspect
		}
		return def
	}

	var p *PersonalizationSettings
	if settings != nil {
		p = settings.Personalization
	}
	if p == nil {
		p = &PersonalizationSettings{}
	}

	var modes []string
	if enabled(p.Sort, true) {
		modes = append(modes, "Sort")
	}
	if enabled(p.Column, true) {
		modes = append(modes, "Column")
	}
	if enabled(p.Filter, true) {
		modes = append(modes, "Filter")
	}
	if analytic {
		if enabled(p.Group, true) {
			modes = append(modes, "Group")
		}
		if enabled(p.Aggregate, true) {
			modes = append(modes, "Aggregate")
		}
	}
	return modes
}

// updateTableVisualizationForType applies the analytical specialization:
// columns matching a custom aggregate definition become aggregatable, and the
// emitted control type is rewritten to GridTable since the analytical flavor
// is a behavior bundle on top of the grid renderer.
func updateTableVisualizationForType(cc *ConverterContext, visualization *TableVisualization) {
	if visualization.Control.Type != TableTypeAnalytical {
		return
	}
	aggregates := map[string]bool{}
	for _, qualifier := range cc.EntityType().CustomAggregates() {
		aggregates[qualifier] = true
	}
	for i := range visualization.Columns {
		column := &visualization.Columns[i]
		if column.RelativePath != "" && aggregates[column.RelativePath] {
			column.Aggregatable = true
			column.CustomAggregate = column.RelativePath
		}
	}
	visualization.Control.Type = TableTypeGrid
}
