package fiori

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// ColumnAvailability states whether a column shows by default, is offered in
// personalization only, or stays technical.
type ColumnAvailability string

const (
	ColumnAvailabilityDefault    ColumnAvailability = "Default"
	ColumnAvailabilityAdaptation ColumnAvailability = "Adaptation"
	ColumnAvailabilityHidden     ColumnAvailability = "Hidden"
)

// ColumnOrigin tags annotation-derived versus manifest-derived columns.
type ColumnOrigin string

const (
	ColumnOriginAnnotation ColumnOrigin = "Annotation"
	ColumnOriginCustom     ColumnOrigin = "Custom"
)

// TableColumn is one column of a table visualization. Annotation columns
// carry a RelativePath into the row entity; custom columns a Template.
// PropertyInfos reference sibling columns by Name and must stay closed within
// the final column set.
type TableColumn struct {
	Key          string             `json:"key"`
	Name         string             `json:"name"`
	Origin       ColumnOrigin       `json:"origin"`
	Label        string             `json:"label,omitempty"`
	RelativePath string             `json:"relativePath,omitempty"`
	Availability ColumnAvailability `json:"availability"`
	Sortable     bool               `json:"sortable"`
	IsGroupable  bool               `json:"isGroupable"`
	IsKey        bool               `json:"isKey,omitempty"`

	PropertyInfos []string `json:"propertyInfos,omitempty"`

	// Links to sibling columns by name.
	Unit            string `json:"unit,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	TextColumn      string `json:"text,omitempty"`
	TextArrangement string `json:"textArrangement,omitempty"`

	Width           string         `json:"width,omitempty"`
	Importance      string         `json:"importance,omitempty"`
	HorizontalAlign string         `json:"horizontalAlign,omitempty"`
	IsNavigable     bool           `json:"isNavigable,omitempty"`
	Settings        map[string]any `json:"settings,omitempty"`
	FormatOptions   map[string]any `json:"formatOptions,omitempty"`
	Template        string         `json:"template,omitempty"`

	Aggregatable    bool   `json:"aggregatable,omitempty"`
	CustomAggregate string `json:"customAggregate,omitempty"`

	Position *Position `json:"position,omitempty"`
}

// ObjectKey implements ConfigurableObject.
func (c TableColumn) ObjectKey() string {
	return c.Key
}

// ObjectPosition implements ConfigurableObject.
func (c TableColumn) ObjectPosition() *Position {
	return c.Position
}

// createTableColumns derives the full column set of a table: annotation
// columns from the line item's data fields, synthesized technical columns for
// indirectly referenced properties, personalization columns for the remaining
// entity properties, and manifest custom columns merged last.
func createTableColumns(cc *ConverterContext, fields []metadata.DataField, manifestColumns map[string]ManifestColumn) []TableColumn {
	entityType := cc.EntityType()

	columns := annotationColumns(cc, fields)
	columns = createRelatedColumns(cc, columns)
	columns = appendPersonalizationColumns(entityType, columns)
	columns = mergeManifestColumns(cc, columns, manifestColumns)
	return columns
}

func annotationColumns(cc *ConverterContext, fields []metadata.DataField) []TableColumn {
	entityType := cc.EntityType()
	seen := map[string]bool{}
	var columns []TableColumn

	for _, df := range fields {
		switch df.Kind {
		case metadata.DataFieldKindForAction, metadata.DataFieldKindForIntentBasedNavigation:
			// Toolbar or inline actions, not columns.
			continue
		case metadata.DataFieldKindForAnnotation:
			columns = append(columns, TableColumn{
				Key:          KeyForDataField(df),
				Name:         df.Target,
				Origin:       ColumnOriginAnnotation,
				Label:        df.Label,
				Availability: availabilityFromHidden(df.Hidden),
				Importance:   df.Importance,
			})
			continue
		}
		if df.Value == "" {
			continue
		}
		if seen[df.Value] {
			continue
		}
		seen[df.Value] = true

		column := TableColumn{
			Key:          KeyForDataField(df),
			Name:         df.Value,
			Origin:       ColumnOriginAnnotation,
			Label:        df.Label,
			RelativePath: df.Value,
			Availability: availabilityFromHidden(df.Hidden),
			Importance:   df.Importance,
		}
		if prop := propertyAtPath(entityType, df.Value); prop != nil {
			if column.Label == "" {
				if v, ok := prop.Annotations.Get(metadata.CommonLabel); ok {
					column.Label = v.AsString()
				}
			}
			column.Sortable = !prop.IsComplex()
			column.IsGroupable = !prop.IsComplex()
			column.IsKey = isKeyProperty(entityType, df.Value)
		}
		columns = append(columns, column)
	}
	return columns
}

// createRelatedColumns synthesizes a hidden technical column for every
// property referenced indirectly by an existing column: unit/currency,
// timezone, text arrangement targets and Core.OperationAvailable paths. The
// synthesized keys carry the Property prefix, keeping them disjoint from the
// data-field keyed columns, and the referencing column records the link plus
// a propertyInfos entry.
func createRelatedColumns(cc *ConverterContext, columns []TableColumn) []TableColumn {
	entityType := cc.EntityType()
	names := map[string]bool{}
	for _, c := range columns {
		names[c.Name] = true
	}

	// Synthesized columns collect apart from the input slice: the loop below
	// holds pointers into columns, so columns must not grow under it.
	var synthesized []TableColumn
	ensure := func(path string) string {
		if path == "" || names[path] {
			return path
		}
		names[path] = true
		synthesized = append(synthesized, TableColumn{
			Key:          KeyForProperty(path),
			Name:         path,
			Origin:       ColumnOriginAnnotation,
			RelativePath: path,
			Availability: ColumnAvailabilityHidden,
			Sortable:     true,
		})
		return path
	}

	for i := range columns {
		column := &columns[i]
		if column.RelativePath == "" {
			continue
		}
		prop := propertyAtPath(entityType, column.RelativePath)
		if prop == nil {
			continue
		}
		if unit := prop.UnitPropertyPath(); unit != "" {
			column.Unit = ensure(resolveSibling(column.RelativePath, unit))
			column.PropertyInfos = append(column.PropertyInfos, column.Unit)
		}
		if currency := prop.CurrencyPropertyPath(); currency != "" {
			column.Unit = ensure(resolveSibling(column.RelativePath, currency))
			column.PropertyInfos = append(column.PropertyInfos, column.Unit)
		}
		if tz := prop.TimezonePropertyPath(); tz != "" {
			column.Timezone = ensure(resolveSibling(column.RelativePath, tz))
			column.PropertyInfos = append(column.PropertyInfos, column.Timezone)
		}
		if text := prop.TextPropertyPath(); text != "" {
			column.TextColumn = ensure(resolveSibling(column.RelativePath, text))
			column.TextArrangement = prop.TextArrangement()
			column.PropertyInfos = append(column.PropertyInfos, column.TextColumn)
		}
	}

	// Bound actions with a path-valued Core.OperationAvailable need their
	// guard property loaded with the rows.
	for _, action := range boundActionsOf(cc.Metadata(), entityType) {
		available := action.OperationAvailable()
		if available.IsDynamic() {
			ensure(available.AsPath())
		}
	}
	return append(columns, synthesized...)
}

// appendPersonalizationColumns adds one Adaptation column per entity property
// not yet covered by any column, so users can add them later even though the
// line item does not show them. Navigation and complex typed properties are
// skipped.
func appendPersonalizationColumns(entityType *metadata.EntityType, columns []TableColumn) []TableColumn {
	names := map[string]bool{}
	for _, c := range columns {
		names[c.Name] = true
	}
	for _, prop := range entityType.Properties {
		if names[prop.Name] || prop.IsComplex() || prop.IsHidden() {
			continue
		}
		label := prop.Name
		if v, ok := prop.Annotations.Get(metadata.CommonLabel); ok {
			label = v.AsString()
		}
		columns = append(columns, TableColumn{
			Key:          KeyForProperty(prop.Name),
			Name:         prop.Name,
			Origin:       ColumnOriginAnnotation,
			Label:        label,
			RelativePath: prop.Name,
			Availability: ColumnAvailabilityAdaptation,
			Sortable:     true,
			IsGroupable:  true,
			IsKey:        isKeyProperty(entityType, prop.Name),
		})
	}
	return columns
}

// mergeManifestColumns folds the manifest column block into the derived set.
// Keys matching an existing column may only override the allow-listed
// properties; the rest become custom columns with a normalized key. A custom
// column whose propertyInfos reference does not resolve against the derived
// name set is dropped entirely, with a diagnostic.
func mergeManifestColumns(cc *ConverterContext, columns []TableColumn, manifestColumns map[string]ManifestColumn) []TableColumn {
	if len(manifestColumns) == 0 {
		return columns
	}

	names := map[string]bool{}
	existingKeys := map[string]bool{}
	for _, c := range columns {
		names[c.Name] = true
		existingKeys[c.Key] = true
	}

	var custom []TableColumn
	for _, rawKey := range sortedKeys(manifestColumns) {
		mc := manifestColumns[rawKey]
		key := rawKey
		if !existingKeys[rawKey] {
			// purely custom column, not an override of a derived one
			key = KeyForCustomElement("CustomColumn", rawKey)
		}
		column := TableColumn{
			Key:             key,
			Name:            rawKey,
			Origin:          ColumnOriginCustom,
			Label:           mc.Header,
			Template:        mc.Template,
			Width:           mc.Width,
			Importance:      mc.Importance,
			HorizontalAlign: mc.HorizontalAlign,
			Availability:    ColumnAvailability(mc.Availability),
			Settings:        mc.Settings,
			FormatOptions:   mc.FormatOptions,
			Position:        mc.Position,
		}
		if column.Availability == "" {
			column.Availability = ColumnAvailabilityDefault
		}
		if mc.IsNavigable != nil {
			column.IsNavigable = *mc.IsNavigable
		}
		dangling := false
		for _, ref := range mc.Properties {
			if !names[ref] {
				cc.AddIssue(IssueCategoryManifest, IssueSeverityMedium,
					fmt.Sprintf("custom column %q references unknown column %q, dropping the column", rawKey, ref))
				dangling = true
				break
			}
			column.PropertyInfos = append(column.PropertyInfos, ref)
		}
		if dangling {
			continue
		}
		custom = append(custom, column)
	}

	return insertCustomElements(columns, custom, overrideManifestColumn)
}

// overrideManifestColumn applies the column override allow-list: width,
// importance, horizontal alignment, availability, navigability, settings and
// format options. Structural fields (name, relativePath, template) of an
// annotation column are never manifest-overridable.
func overrideManifestColumn(existing *TableColumn, custom TableColumn) {
	if custom.Width != "" {
		existing.Width = custom.Width
	}
	if custom.Importance != "" {
		existing.Importance = custom.Importance
	}
	if custom.HorizontalAlign != "" {
		existing.HorizontalAlign = custom.HorizontalAlign
	}
	if custom.Availability != "" && custom.Availability != ColumnAvailabilityDefault {
		existing.Availability = custom.Availability
	}
	if custom.Settings != nil {
		existing.Settings = custom.Settings
	}
	if custom.FormatOptions != nil {
		existing.FormatOptions = custom.FormatOptions
	}
	existing.IsNavigable = custom.IsNavigable
	if custom.Position != nil {
		existing.Position = custom.Position
	}
}

func availabilityFromHidden(hidden metadata.Value) ColumnAvailability {
	if hidden.IsStaticTrue() {
		return ColumnAvailabilityHidden
	}
	return ColumnAvailabilityDefault
}

// propertyAtPath resolves a possibly navigated property path from the given
// type. Only single-segment navigation hops are supported; deeper paths are
// rare in line items and resolve to nil.
func propertyAtPath(entityType *metadata.EntityType, path string) *metadata.Property {
	segments := strings.Split(path, "/")
	current := entityType
	for i, seg := range segments {
		if i == len(segments)-1 {
			return current.Property(seg)
		}
		nav := current.NavigationProperty(seg)
		if nav == nil {
			return nil
		}
		target, ok := current.Arena().EntityType(nav.TargetTypeName)
		if !ok {
			return nil
		}
		current = target
	}
	return nil
}

// resolveSibling rebases a related-property path onto the navigation prefix
// of the referencing path, so unit columns of navigated properties land on
// the right entity.
func resolveSibling(referencingPath, related string) string {
	if idx := strings.LastIndex(referencingPath, "/"); idx >= 0 && !strings.Contains(related, "/") {
		return referencingPath[:idx+1] + related
	}
	return related
}

func isKeyProperty(entityType *metadata.EntityType, name string) bool {
	for _, key := range entityType.Keys {
		if key == name {
			return true
		}
	}
	return false
}

func boundActionsOf(meta *metadata.ConvertedMetadata, entityType *metadata.EntityType) []*metadata.Action {
	return meta.BoundActionsFor(entityType.FullyQualifiedName)
}
