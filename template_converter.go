package fiori

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

const tracerName = "github.com/goliatone/go-fiori"

// PageDefinition is the sole output of the converter pipeline: a plain
// marshalable tree consumed by the rendering layer.
type PageDefinition struct {
	TemplateType      TemplateType          `json:"templateType"`
	EntitySet         string                `json:"entitySet"`
	ContextPath       string                `json:"contextPath"`
	VariantManagement VariantManagementType `json:"variantManagement"`

	HeaderActions []ConverterAction `json:"headerActions,omitempty"`
	FooterActions []ConverterAction `json:"footerActions,omitempty"`

	// List Report / ALP
	FilterBar *FilterBarDefinition `json:"filterBar,omitempty"`
	Views     []ListReportView     `json:"views,omitempty"`

	// Object Page
	Sections              []ObjectPageSection `json:"sections,omitempty"`
	EditableHeaderContent bool                `json:"editableHeaderContent,omitempty"`
	SectionLayout         string              `json:"sectionLayout,omitempty"`
}

// FilterBarDefinition is the filter-bar slice of a List Report definition.
type FilterBarDefinition struct {
	Hidden          bool             `json:"hidden,omitempty"`
	SelectionFields []SelectionField `json:"selectionFields,omitempty"`
}

// SelectionField is one filter field derived from UI.SelectionFields.
type SelectionField struct {
	Key          string `json:"key"`
	RelativePath string `json:"relativePath"`
	Label        string `json:"label,omitempty"`
}

// ListReportView is one (possibly multi-view) List Report tab.
type ListReportView struct {
	Key           string                       `json:"key"`
	Title         string                       `json:"title,omitempty"`
	EntitySet     string                       `json:"entitySet"`
	Visualization *DataVisualizationDefinition `json:"visualization"`
}

// ObjectPageSectionType tags the section flavors of an Object Page.
type ObjectPageSectionType string

const (
	SectionTypeForm  ObjectPageSectionType = "Form"
	SectionTypeTable ObjectPageSectionType = "Table"
)

// ObjectPageSection is one section of an Object Page definition.
type ObjectPageSection struct {
	ID              string                `json:"id"`
	Type            ObjectPageSectionType `json:"type"`
	Title           string                `json:"title,omitempty"`
	CompiledVisible string                `json:"visible"`
	Form            *FormDefinition       `json:"form,omitempty"`
	Table           *TableVisualization   `json:"table,omitempty"`
}

// TemplateConverter drives a full page conversion. It is safe for concurrent
// use; every ConvertPage call builds its own context and diagnostics sink.
type TemplateConverter struct {
	logger Logger
	tracer trace.Tracer
}

// TemplateConverterOption configures a TemplateConverter.
type TemplateConverterOption func(*TemplateConverter)

// WithConverterLogger sets a custom logger.
func WithConverterLogger(logger Logger) TemplateConverterOption {
	return func(tc *TemplateConverter) {
		tc.logger = logger
	}
}

// NewTemplateConverter builds a converter with the given options.
func NewTemplateConverter(opts ...TemplateConverterOption) *TemplateConverter {
	tc := &TemplateConverter{
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(tc)
	}
	tc.logger = loggerFor(tc.logger)
	return tc
}

// ConvertPage builds the full page definition for the manifest's template
// type. Configuration errors abort the whole call; non-fatal findings are
// returned as issues next to the definition.
func (tc *TemplateConverter) ConvertPage(ctx context.Context, meta *metadata.ConvertedMetadata, settings PageSettings) (*PageDefinition, []Issue, error) {
	_, span := tc.tracer.Start(ctx, "fiori.ConvertPage",
		trace.WithAttributes(
			attribute.String("fiori.template_type", string(settings.TemplateType)),
			attribute.String("fiori.entity_set", settings.EntitySet),
		))
	defer span.End()

	manifest := NewManifestWrapper(settings)
	issues := NewIssueManager()

	cc, err := NewConverterContext(meta, manifest, issues)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	var definition *PageDefinition
	switch manifest.TemplateType() {
	case TemplateListReport, TemplateAnalyticalListPage:
		definition, err = convertListReport(cc)
	case TemplateObjectPage:
		definition, err = convertObjectPage(cc)
	default:
		err = goerrors.New(
			fmt.Sprintf("unsupported template type %q", manifest.TemplateType()),
			goerrors.CategoryValidation)
	}
	if err != nil {
		span.RecordError(err)
		return nil, issues.Issues(), err
	}

	logger := tc.logger
	if fl, ok := logger.(loggerWithFields); ok {
		logger = fl.WithFields(Fields{
			"templateType": string(definition.TemplateType),
			"entitySet":    definition.EntitySet,
		})
	}
	logger.Debug("page converted with %d issue(s)", len(issues.Issues()))
	return definition, issues.Issues(), nil
}

// headerAndFooterActions merges the manifest header/footer blocks with
// annotation actions already derived by the caller.
func headerAndFooterActions(cc *ConverterContext, annotationHeader, annotationFooter []ConverterAction) ([]ConverterAction, []ConverterAction, error) {
	headerResolution, err := ActionsFromManifest(cc, cc.ManifestWrapper().HeaderActions(), annotationHeader, nil)
	if err != nil {
		return nil, nil, err
	}
	footerResolution, err := ActionsFromManifest(cc, cc.ManifestWrapper().FooterActions(), annotationFooter, nil)
	if err != nil {
		return nil, nil, err
	}
	header := insertCustomElements(annotationHeader, headerResolution.Actions, overrideManifestAction)
	header = RemoveDuplicateActions(header)
	footer := insertCustomElements(annotationFooter, footerResolution.Actions, overrideManifestAction)
	footer = RemoveDuplicateActions(footer)
	for i := range header {
		header[i].compileBindings()
	}
	for i := range footer {
		footer[i].compileBindings()
	}
	return header, footer, nil
}
