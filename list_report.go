package fiori

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// convertListReport builds the definition for List Report and Analytical List
// Page templates. Both share the filter bar and multi-view machinery; the ALP
// additionally requires a chart next to the table, which the visualization
// resolver enforces per view.
func convertListReport(cc *ConverterContext) (*PageDefinition, error) {
	manifest := cc.ManifestWrapper()
	definition := &PageDefinition{
		TemplateType:      manifest.TemplateType(),
		EntitySet:         manifest.EntitySetName(),
		ContextPath:       cc.ContextPath(),
		VariantManagement: manifest.VariantManagement(),
	}

	filterBar, err := createFilterBar(cc)
	if err != nil {
		return nil, err
	}
	definition.FilterBar = filterBar

	views, err := createListReportViews(cc)
	if err != nil {
		return nil, err
	}
	definition.Views = views

	header, footer, err := headerAndFooterActions(cc, nil, nil)
	if err != nil {
		return nil, err
	}
	definition.HeaderActions = header
	definition.FooterActions = footer
	return definition, nil
}

// createFilterBar derives the filter bar from UI.SelectionFields. A missing
// annotation yields an empty filter bar, not an error.
func createFilterBar(cc *ConverterContext) (*FilterBarDefinition, error) {
	bar := &FilterBarDefinition{
		Hidden: cc.ManifestWrapper().HideFilterBar(),
	}
	value, ok := cc.EntityType().Annotations.Get(metadata.UISelectionFields)
	if !ok {
		return bar, nil
	}
	if value.Kind != metadata.KindCollection {
		cc.AddIssue(IssueCategoryAnnotation, IssueSeverityMedium,
			fmt.Sprintf("%s on %s is not a collection", metadata.UISelectionFields, cc.EntityType().Name))
		return bar, nil
	}
	for _, entry := range value.Collection {
		path := entry.AsPath()
		if path == "" {
			continue
		}
		field := SelectionField{
			Key:          KeyForProperty(path),
			RelativePath: path,
		}
		if prop := propertyAtPath(cc.EntityType(), path); prop != nil {
			if label, ok := prop.Annotations.Get(metadata.CommonLabel); ok {
				field.Label = label.AsString()
			}
		} else {
			cc.AddIssue(IssueCategoryAnnotation, IssueSeverityMedium,
				fmt.Sprintf("selection field %q does not resolve to a property of %s", path, cc.EntityType().Name))
		}
		bar.SelectionFields = append(bar.SelectionFields, field)
	}
	return bar, nil
}

// createListReportViews expands the manifest views block, or synthesizes the
// single default view when the manifest declares none.
func createListReportViews(cc *ConverterContext) ([]ListReportView, error) {
	configured := cc.ManifestWrapper().Views()
	if len(configured) == 0 {
		view, err := createListReportView(cc, ViewConfiguration{})
		if err != nil {
			return nil, err
		}
		return []ListReportView{view}, nil
	}

	views := make([]ListReportView, 0, len(configured))
	seen := map[string]bool{}
	for _, config := range configured {
		view, err := createListReportView(cc, config)
		if err != nil {
			return nil, err
		}
		if seen[view.Key] {
			return nil, goerrors.New(
				fmt.Sprintf("duplicate view key %q", view.Key), goerrors.CategoryValidation)
		}
		seen[view.Key] = true
		views = append(views, view)
	}
	return views, nil
}

func createListReportView(cc *ConverterContext, config ViewConfiguration) (ListReportView, error) {
	viewCC := cc
	entitySetName := cc.ManifestWrapper().EntitySetName()
	if config.EntitySet != "" && config.EntitySet != entitySetName {
		rescoped, err := cc.ConverterContextFor("/" + config.EntitySet)
		if err != nil {
			return ListReportView{}, err
		}
		viewCC = rescoped
		entitySetName = config.EntitySet
	}

	key := config.Key
	if key == "" {
		key = viewKeyFor(config, entitySetName)
	}
	viewCC = viewCC.ForView(key)

	annotationPath := config.AnnotationPath
	if annotationPath == "" {
		term, err := defaultPresentationTerm(viewCC)
		if err != nil {
			return ListReportView{}, err
		}
		annotationPath = "@" + term
	}

	visualization, err := GetDataVisualizationConfiguration(viewCC, annotationPath)
	if err != nil {
		return ListReportView{}, err
	}
	return ListReportView{
		Key:           key,
		Title:         config.Key,
		EntitySet:     entitySetName,
		Visualization: visualization,
	}, nil
}

// viewKeyFor derives a stable key for a view that declares none.
func viewKeyFor(config ViewConfiguration, entitySetName string) string {
	if config.AnnotationPath != "" {
		return StableID("View", sanitizeIDPart(config.AnnotationPath))
	}
	return StableID("View", entitySetName)
}

// defaultPresentationTerm picks the presentation annotation a view falls back
// to when the manifest names none: the unqualified selection presentation
// variant wins over the presentation variant, which wins over the bare line
// item. An entity type carrying none of the three cannot host a list view.
func defaultPresentationTerm(cc *ConverterContext) (string, error) {
	annotations := cc.EntityType().Annotations
	for _, term := range []string{
		metadata.UISelectionPresentationVariant,
		metadata.UIPresentationVariant,
		metadata.UILineItem,
	} {
		if _, ok := annotations.Get(term); ok {
			return term, nil
		}
	}
	return "", goerrors.New(
		fmt.Sprintf("entity type %s carries no presentation annotation for a list view",
			cc.EntityType().FullyQualifiedName),
		goerrors.CategoryValidation)
}
