package fiori

// TemplateType selects the page archetype a conversion targets.
type TemplateType string

const (
	TemplateListReport         TemplateType = "ListReport"
	TemplateObjectPage         TemplateType = "ObjectPage"
	TemplateAnalyticalListPage TemplateType = "AnalyticalListPage"
)

// VariantManagementType configures where variant management applies.
type VariantManagementType string

const (
	VariantManagementPage    VariantManagementType = "Page"
	VariantManagementControl VariantManagementType = "Control"
	VariantManagementNone    VariantManagementType = "None"
)

// Placement positions a custom element relative to its anchor.
type Placement string

const (
	PlacementBefore Placement = "Before"
	PlacementAfter  Placement = "After"
)

// Position anchors a manifest element inside an annotation-derived sequence.
type Position struct {
	Anchor    string    `json:"anchor,omitempty"`
	Placement Placement `json:"placement,omitempty"`
}

// ManifestAction is one declarative action entry of the manifest. Enabled and
// Visible are pointers so "explicitly configured" stays distinguishable from
// "absent": only explicit values may override annotation-derived bindings.
type ManifestAction struct {
	Press             string    `json:"press,omitempty"`
	Text              string    `json:"text,omitempty"`
	Enabled           *string   `json:"enabled,omitempty"`
	Visible           *string   `json:"visible,omitempty"`
	Position          *Position `json:"position,omitempty"`
	Menu              []string  `json:"menu,omitempty"`
	DefaultAction     string    `json:"defaultAction,omitempty"`
	Command           string    `json:"command,omitempty"`
	RequiresSelection *bool     `json:"requiresSelection,omitempty"`
	Inline            bool      `json:"inline,omitempty"`
}

// ManifestColumn is one declarative column entry. Only the allow-listed
// fields may override an annotation column of the same key; structural fields
// are accepted for purely custom columns only.
type ManifestColumn struct {
	Header          string         `json:"header,omitempty"`
	Template        string         `json:"template,omitempty"`
	Width           string         `json:"width,omitempty"`
	Importance      string         `json:"importance,omitempty"`
	HorizontalAlign string         `json:"horizontalAlign,omitempty"`
	Availability    string         `json:"availability,omitempty"`
	IsNavigable     *bool          `json:"isNavigable,omitempty"`
	Position        *Position      `json:"position,omitempty"`
	Properties      []string       `json:"properties,omitempty"`
	Settings        map[string]any `json:"settings,omitempty"`
	FormatOptions   map[string]any `json:"formatOptions,omitempty"`
}

// ManifestFormElement is one declarative form field entry.
type ManifestFormElement struct {
	Label    string    `json:"label,omitempty"`
	Template string    `json:"template,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// CreationMode configures how a table creates rows.
type CreationMode struct {
	Name                   string `json:"name,omitempty"`
	CreateAtEnd            bool   `json:"createAtEnd,omitempty"`
	HiddenInEditMode       *bool  `json:"inlineCreationRowsHiddenInEditMode,omitempty"`
	CustomValidationModule string `json:"customValidationFunction,omitempty"`
}

// Creation-mode names understood by the table converter.
const (
	CreationModeNewPage           = "NewPage"
	CreationModeInline            = "Inline"
	CreationModeCreationRow       = "CreationRow"
	CreationModeInlineCreationRow = "InlineCreationRows"
	CreationModeExternal          = "External"
)

// TableManifestSettings is the tableSettings block of a control
// configuration.
type TableManifestSettings struct {
	Type                 string       `json:"type,omitempty"`
	SelectionMode        string       `json:"selectionMode,omitempty"`
	CreationMode         CreationMode `json:"creationMode,omitempty"`
	EnableMassEdit       bool         `json:"enableMassEdit,omitempty"`
	EnablePaste          *bool        `json:"enablePaste,omitempty"`
	EnableExport         *bool        `json:"enableExport,omitempty"`
	EnableFullScreen     bool         `json:"enableFullScreen,omitempty"`
	HierarchyQualifier   string       `json:"hierarchyQualifier,omitempty"`
	CondensedTableLayout bool         `json:"condensedTableLayout,omitempty"`
	SelectAll            *bool        `json:"selectAll,omitempty"`
	SelectionLimit       int          `json:"selectionLimit,omitempty"`
	// Personalization toggles the p13n aspects; nil means all supported
	// aspects of the resolved table type.
	Personalization *PersonalizationSettings `json:"personalization,omitempty"`
	HiddenActions   []string                 `json:"hiddenStandardActions,omitempty"`
	QuickVariantSelection []string           `json:"quickVariantSelection,omitempty"`
}

// PersonalizationSettings lists the end-user adjustable table aspects.
type PersonalizationSettings struct {
	Sort      *bool `json:"sort,omitempty"`
	Column    *bool `json:"column,omitempty"`
	Filter    *bool `json:"filter,omitempty"`
	Group     *bool `json:"group,omitempty"`
	Aggregate *bool `json:"aggregate,omitempty"`
}

// ChartManifestSettings is the chartSettings block of a control
// configuration.
type ChartManifestSettings struct {
	ChartType       string   `json:"chartType,omitempty"`
	Personalization *bool    `json:"personalization,omitempty"`
	HiddenMeasures  []string `json:"hiddenMeasures,omitempty"`
}

// ControlConfiguration is the manifest block attached to one annotation path.
type ControlConfiguration struct {
	Actions       map[string]ManifestAction      `json:"actions,omitempty"`
	Columns       map[string]ManifestColumn      `json:"columns,omitempty"`
	Fields        map[string]ManifestFormElement `json:"fields,omitempty"`
	TableSettings *TableManifestSettings         `json:"tableSettings,omitempty"`
	ChartSettings *ChartManifestSettings         `json:"chartSettings,omitempty"`
}

// NavigationSettings configures outbound/detail navigation for a source
// (entity set or annotation path).
type NavigationSettings struct {
	Detail  *RouteTarget `json:"detail,omitempty"`
	Display *RouteTarget `json:"display,omitempty"`
}

// RouteTarget names a navigation target route or outbound intent.
type RouteTarget struct {
	Route    string `json:"route,omitempty"`
	Outbound string `json:"outbound,omitempty"`
}

// ViewConfiguration is one entry of a multi-view List Report. A view either
// points to its own presentation annotation or to a secondary entity set,
// optionally overriding control configuration for its scope.
type ViewConfiguration struct {
	Key                  string                          `json:"key,omitempty"`
	AnnotationPath       string                          `json:"annotationPath,omitempty"`
	EntitySet            string                          `json:"entitySet,omitempty"`
	Primary              bool                            `json:"primary,omitempty"`
	ControlConfiguration map[string]ControlConfiguration `json:"controlConfiguration,omitempty"`
}

// PageContent carries the declarative header/footer action blocks.
type PageContent struct {
	Header struct {
		Actions map[string]ManifestAction `json:"actions,omitempty"`
	} `json:"header,omitempty"`
	Footer struct {
		Actions map[string]ManifestAction `json:"actions,omitempty"`
	} `json:"footer,omitempty"`
}

// PageSettings is the normalized manifest configuration of one page. It
// covers the base shape plus the template-specific sections; accessors on
// ManifestWrapper guard template-specific reads.
type PageSettings struct {
	TemplateType      TemplateType                    `json:"templateType,omitempty"`
	EntitySet         string                          `json:"entitySet,omitempty"`
	ContextPath       string                          `json:"contextPath,omitempty"`
	VariantManagement VariantManagementType           `json:"variantManagement,omitempty"`
	ControlConfig     map[string]ControlConfiguration `json:"controlConfiguration,omitempty"`
	Content           PageContent                     `json:"content,omitempty"`
	Navigation        map[string]NavigationSettings   `json:"navigation,omitempty"`

	// List Report / ALP
	Views         []ViewConfiguration `json:"views,omitempty"`
	HideFilterBar bool                `json:"hideFilterBar,omitempty"`
	InitialLoad   string              `json:"initialLoad,omitempty"`

	// Object Page
	SectionLayout         string `json:"sectionLayout,omitempty"`
	EditableHeaderContent bool   `json:"editableHeaderContent,omitempty"`

	// App level
	FlexibleColumnLayout bool `json:"flexibleColumnLayout,omitempty"`
}
