package fiori

import (
	"strings"

	"dario.cat/mergo"
)

// ManifestWrapper is the typed accessor over a page's manifest settings. It
// normalizes annotation-path keys and merges view-level configuration blocks
// over page-level ones, so converters never touch the raw maps.
type ManifestWrapper struct {
	settings PageSettings
	// activeViewKey scopes ControlConfiguration lookups to one multi-view
	// entry; empty outside multi-view List Reports.
	activeViewKey string
}

// NewManifestWrapper wraps normalized page settings.
func NewManifestWrapper(settings PageSettings) *ManifestWrapper {
	return &ManifestWrapper{settings: settings}
}

// ForView returns a wrapper scoped to the given multi-view entry. The
// underlying settings are shared; only lookup scoping changes.
func (mw *ManifestWrapper) ForView(viewKey string) *ManifestWrapper {
	scoped := *mw
	scoped.activeViewKey = viewKey
	return &scoped
}

// TemplateType returns the page archetype, defaulting to ListReport.
func (mw *ManifestWrapper) TemplateType() TemplateType {
	if mw.settings.TemplateType == "" {
		return TemplateListReport
	}
	return mw.settings.TemplateType
}

// EntitySetName returns the page's leading entity set.
func (mw *ManifestWrapper) EntitySetName() string {
	return mw.settings.EntitySet
}

// ContextPath returns the configured context path, derived from the entity
// set when absent.
func (mw *ManifestWrapper) ContextPath() string {
	if mw.settings.ContextPath != "" {
		return mw.settings.ContextPath
	}
	if mw.settings.EntitySet != "" {
		return "/" + mw.settings.EntitySet
	}
	return ""
}

// VariantManagement returns the configured variant management mode; pages
// default to Page-level variants.
func (mw *ManifestWrapper) VariantManagement() VariantManagementType {
	if mw.settings.VariantManagement == "" {
		return VariantManagementPage
	}
	return mw.settings.VariantManagement
}

// Views returns the multi-view configuration of a List Report.
func (mw *ManifestWrapper) Views() []ViewConfiguration {
	return mw.settings.Views
}

// HasMultipleEntitySets reports whether any view targets a secondary entity
// set, which changes how plain-string control configuration keys are
// qualified.
func (mw *ManifestWrapper) HasMultipleEntitySets() bool {
	for _, view := range mw.settings.Views {
		if view.EntitySet != "" && view.EntitySet != mw.settings.EntitySet {
			return true
		}
	}
	return false
}

// HeaderActions returns the declarative header action block.
func (mw *ManifestWrapper) HeaderActions() map[string]ManifestAction {
	return mw.settings.Content.Header.Actions
}

// FooterActions returns the declarative footer action block.
func (mw *ManifestWrapper) FooterActions() map[string]ManifestAction {
	return mw.settings.Content.Footer.Actions
}

// NavigationSettings returns the navigation block for a source key (entity
// set name or annotation path).
func (mw *ManifestWrapper) NavigationSettings(source string) (NavigationSettings, bool) {
	nav, ok := mw.settings.Navigation[source]
	return nav, ok
}

// HideFilterBar reports the List Report filter-bar toggle.
func (mw *ManifestWrapper) HideFilterBar() bool {
	return mw.settings.HideFilterBar
}

// SectionLayout returns the Object Page section layout, defaulting to Page.
func (mw *ManifestWrapper) SectionLayout() string {
	if mw.settings.SectionLayout == "" {
		return "Page"
	}
	return mw.settings.SectionLayout
}

// EditableHeaderContent reports the Object Page header edit toggle.
func (mw *ManifestWrapper) EditableHeaderContent() bool {
	return mw.settings.EditableHeaderContent
}

// IsFclEnabled reports whether the app runs inside a flexible column layout.
func (mw *ManifestWrapper) IsFclEnabled() bool {
	return mw.settings.FlexibleColumnLayout
}

// ControlConfiguration resolves the configuration block for an annotation
// path. Page-level configuration is the base; when a view-level block exists
// for the active view it is merged on top (override semantics, inputs left
// untouched).
func (mw *ManifestWrapper) ControlConfiguration(annotationPath string) ControlConfiguration {
	key := NormalizeAnnotationPathKey(annotationPath)

	var merged ControlConfiguration
	if base, ok := mw.lookupConfig(mw.settings.ControlConfig, key); ok {
		merged = cloneControlConfiguration(base)
	}
	if mw.activeViewKey == "" {
		return merged
	}
	for _, view := range mw.settings.Views {
		if view.Key != mw.activeViewKey {
			continue
		}
		if override, ok := mw.lookupConfig(view.ControlConfiguration, key); ok {
			override = cloneControlConfiguration(override)
			if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
				// Merge failures are programming errors in the settings
				// shapes, not user input problems.
				panic(err)
			}
		}
		break
	}
	return merged
}

func (mw *ManifestWrapper) lookupConfig(configs map[string]ControlConfiguration, key string) (ControlConfiguration, bool) {
	if configs == nil {
		return ControlConfiguration{}, false
	}
	for rawKey, cfg := range configs {
		if NormalizeAnnotationPathKey(rawKey) == key {
			return cfg, true
		}
	}
	return ControlConfiguration{}, false
}

// NormalizeAnnotationPathKey canonicalizes the annotation-path strings used
// as manifest keys: leading slashes are dropped and the com.sap vocabulary
// prefix collapses to its alias so both spellings address the same block.
func NormalizeAnnotationPathKey(path string) string {
	key := strings.TrimPrefix(path, "/")
	key = strings.ReplaceAll(key, "@com.sap.vocabularies.UI.v1.", "@UI.")
	key = strings.ReplaceAll(key, "@com.sap.vocabularies.Common.v1.", "@Common.")
	return key
}

func cloneControlConfiguration(cfg ControlConfiguration) ControlConfiguration {
	out := ControlConfiguration{}
	if cfg.Actions != nil {
		out.Actions = make(map[string]ManifestAction, len(cfg.Actions))
		for k, v := range cfg.Actions {
			out.Actions[k] = v
		}
	}
	if cfg.Columns != nil {
		out.Columns = make(map[string]ManifestColumn, len(cfg.Columns))
		for k, v := range cfg.Columns {
			out.Columns[k] = v
		}
	}
	if cfg.Fields != nil {
		out.Fields = make(map[string]ManifestFormElement, len(cfg.Fields))
		for k, v := range cfg.Fields {
			out.Fields[k] = v
		}
	}
	if cfg.TableSettings != nil {
		ts := *cfg.TableSettings
		out.TableSettings = &ts
	}
	if cfg.ChartSettings != nil {
		cs := *cfg.ChartSettings
		out.ChartSettings = &cs
	}
	return out
}
