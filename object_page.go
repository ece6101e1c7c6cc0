package fiori

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fiori/pkg/bindings"
	"github.com/goliatone/go-fiori/pkg/metadata"
)

// convertObjectPage builds the definition for an Object Page: sections from
// UI.Facets, standard Edit/Delete header actions and determining footer
// actions from UI.Identification, each merged with the manifest blocks.
func convertObjectPage(cc *ConverterContext) (*PageDefinition, error) {
	manifest := cc.ManifestWrapper()
	definition := &PageDefinition{
		TemplateType:          TemplateObjectPage,
		EntitySet:             manifest.EntitySetName(),
		ContextPath:           cc.ContextPath(),
		VariantManagement:     manifest.VariantManagement(),
		EditableHeaderContent: manifest.EditableHeaderContent(),
		SectionLayout:         manifest.SectionLayout(),
	}

	sections, err := objectPageSections(cc)
	if err != nil {
		return nil, err
	}
	definition.Sections = sections

	header, footer, err := headerAndFooterActions(cc,
		objectPageHeaderActions(cc), determiningActions(cc, metadata.UIIdentification))
	if err != nil {
		return nil, err
	}
	definition.HeaderActions = header
	definition.FooterActions = footer
	return definition, nil
}

// objectPageSections walks the top-level UI.Facets entries. A facet whose
// target drives a data visualization becomes a table section, everything else
// a form section. A missing UI.Facets annotation yields a page without
// sections rather than an error.
func objectPageSections(cc *ConverterContext) ([]ObjectPageSection, error) {
	value, ok := cc.EntityType().Annotations.Get(metadata.UIFacets)
	if !ok {
		return nil, nil
	}
	facets, errs := metadata.DecodeFacets(value)
	for _, err := range errs {
		cc.AddIssue(IssueCategoryFacets, IssueSeverityMedium, err.Error())
	}

	relative := cc.RelativeModelPathFunction()
	var sections []ObjectPageSection
	for _, facet := range facets {
		section, err := sectionFromFacet(cc, facet, relative)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func sectionFromFacet(cc *ConverterContext, facet metadata.Facet, relative func(string) string) (ObjectPageSection, error) {
	id := facet.ID
	if id == "" {
		id = sanitizeIDPart(facet.Label + facet.Target)
		cc.AddIssue(IssueCategoryFacets, IssueSeverityMedium,
			fmt.Sprintf("section facet %q has no ID, generated %q", facet.Label, id))
	}
	section := ObjectPageSection{
		ID:              StableID("fe", "FacetSection", id),
		Title:           facet.Label,
		CompiledVisible: bindings.Compile(notHiddenExpression(facet.Hidden, relative)),
	}

	if facet.Kind == metadata.FacetKindReference && facetDrivesTable(facet.Target) {
		sectionCC, annotationPath, err := scopeForFacetTarget(cc, facet.Target)
		if err != nil {
			return ObjectPageSection{}, err
		}
		visualization, err := GetDataVisualizationConfiguration(sectionCC, annotationPath)
		if err != nil {
			return ObjectPageSection{}, err
		}
		section.Type = SectionTypeTable
		if len(visualization.Tables) > 0 {
			section.Table = visualization.Tables[0]
		}
		return section, nil
	}

	form, err := CreateFormDefinition(cc, facet)
	if err != nil {
		return ObjectPageSection{}, err
	}
	section.Type = SectionTypeForm
	section.Form = form
	return section, nil
}

// facetDrivesTable reports whether a facet target names a presentation
// annotation rather than a field group.
func facetDrivesTable(target string) bool {
	switch termBase(annotationTermOf(target)) {
	case metadata.UILineItem, metadata.UIPresentationVariant, metadata.UISelectionPresentationVariant:
		return true
	}
	return false
}

// scopeForFacetTarget rescopes the context to the navigation prefix of a
// facet target, so "_Items/@UI.LineItem" converts against the items entity
// set. The returned annotation path is the target's "@Term" tail.
func scopeForFacetTarget(cc *ConverterContext, target string) (*ConverterContext, string, error) {
	at := strings.Index(target, "@")
	if at <= 0 {
		return cc, target, nil
	}
	prefix := strings.TrimSuffix(target[:at], "/")
	scoped, err := cc.ConverterContextFor(cc.ContextPath() + "/" + prefix)
	if err != nil {
		return nil, "", err
	}
	return scoped, target[at:], nil
}

// objectPageHeaderActions derives the standard Edit and Delete header
// actions from the update and delete restrictions of the page's entity set.
// Statically impossible operations produce no action at all.
func objectPageHeaderActions(cc *ConverterContext) []ConverterAction {
	entitySet := cc.EntitySet()
	if entitySet == nil {
		return nil
	}
	annotations := cc.EntityType().Annotations
	relative := cc.RelativeModelPathFunction()
	displayMode := bindings.Not(uiIsEditable())

	var actions []ConverterAction
	if !entitySet.Updatable().IsStaticFalse() {
		updateHidden, _ := annotations.Get(metadata.UIUpdateHidden)
		actions = append(actions, ConverterAction{
			Key:     StableID("fe", "StandardAction", "Edit"),
			Type:    ActionTypePrimary,
			Origin:  ActionOriginAnnotation,
			Text:    "Edit",
			Command: "Edit",
			Visible: bindings.And(displayMode, notHiddenExpression(updateHidden, relative)),
			Enabled: bindings.True(),
		})
	}
	if !entitySet.Deletable().IsStaticFalse() {
		deleteHidden, _ := annotations.Get(metadata.UIDeleteHidden)
		actions = append(actions, ConverterAction{
			Key:     StableID("fe", "StandardAction", "Delete"),
			Type:    ActionTypeSecondary,
			Origin:  ActionOriginAnnotation,
			Text:    "Delete",
			Command: "DeleteObject",
			Visible: bindings.And(displayMode, notHiddenExpression(deleteHidden, relative)),
			Enabled: bindings.True(),
		})
	}
	return actions
}

// determiningActions derives footer actions from the determining data fields
// of an identification-like annotation. Non-determining entries belong to the
// header toolbar and are skipped.
func determiningActions(cc *ConverterContext, annotationTerm string) []ConverterAction {
	value, ok := cc.EntityType().Annotations.Get(annotationTerm)
	if !ok {
		return nil
	}
	fields, errs := metadata.DecodeLineItem(value)
	for _, err := range errs {
		cc.AddIssue(IssueCategoryAnnotation, IssueSeverityLow, err.Error())
	}

	relative := cc.RelativeModelPathFunction()
	var actions []ConverterAction
	for _, df := range fields {
		if !df.Determining {
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
			actions = append(actions, ConverterAction{
				Key:            KeyForDataField(df),
				Type:           ActionTypeForNavigation,
				Origin:         ActionOriginAnnotation,
				Text:           df.Label,
				AnnotationPath: cc.AbsoluteAnnotationPath("@" + annotationTerm),
				Visible:        notHiddenExpression(df.Hidden, relative),
				Enabled:        bindings.True(),
			})
		}
	}
	return actions
}
