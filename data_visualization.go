package fiori

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// DataVisualizationDefinition is the resolved outcome of one presentation
// annotation: the tables and charts it drives, in annotation order.
type DataVisualizationDefinition struct {
	// PresentationPath is the annotation the resolution started from.
	PresentationPath string                `json:"presentationPath"`
	Tables           []*TableVisualization `json:"tables,omitempty"`
	Charts           []*ChartVisualization `json:"charts,omitempty"`
	SortOrder        []metadata.SortCondition `json:"sortOrder,omitempty"`
}

// GetDataVisualizationConfiguration determines which annotation drives a view
// (LineItem, Chart, PresentationVariant or SelectionPresentationVariant),
// validates template compliance and dispatches to the table and chart
// converters. ALP views must resolve both a table and a chart; failing that
// is a configuration error that aborts the conversion.
func GetDataVisualizationConfiguration(cc *ConverterContext, annotationPath string) (*DataVisualizationDefinition, error) {
	term := annotationTermOf(annotationPath)
	definition := &DataVisualizationDefinition{
		PresentationPath: cc.AbsoluteAnnotationPath(annotationPath),
	}

	switch termBase(term) {
	case metadata.UILineItem:
		table, err := CreateTableVisualization(cc, term)
		if err != nil {
			return nil, err
		}
		definition.Tables = append(definition.Tables, table)

	case metadata.UIChart:
		chart, err := CreateChartVisualization(cc, term)
		if err != nil {
			return nil, err
		}
		definition.Charts = append(definition.Charts, chart)

	case metadata.UIPresentationVariant:
		value, scoped, err := cc.EntityTypeAnnotation("@" + term)
		if err != nil {
			return nil, err
		}
		pv, err := metadata.DecodePresentationVariant(value)
		if err != nil {
			return nil, goerrors.New(err.Error(), goerrors.CategoryValidation)
		}
		if err := resolvePresentationVariant(scoped, pv, definition); err != nil {
			return nil, err
		}

	case metadata.UISelectionPresentationVariant:
		value, scoped, err := cc.EntityTypeAnnotation("@" + term)
		if err != nil {
			return nil, err
		}
		spv, err := metadata.DecodeSelectionPresentationVariant(value)
		if err != nil {
			return nil, goerrors.New(err.Error(), goerrors.CategoryValidation)
		}
		var pv metadata.PresentationVariant
		switch {
		case spv.Inline != nil:
			pv = *spv.Inline
		case spv.PresentationVariantPath != "":
			pvValue, _, err := scoped.EntityTypeAnnotation("@" + annotationTermOf(spv.PresentationVariantPath))
			if err != nil {
				return nil, goerrors.New(
					fmt.Sprintf("selection presentation variant references missing %q: %v", spv.PresentationVariantPath, err),
					goerrors.CategoryValidation)
			}
			pv, err = metadata.DecodePresentationVariant(pvValue)
			if err != nil {
				return nil, goerrors.New(err.Error(), goerrors.CategoryValidation)
			}
		default:
			return nil, goerrors.New("selection presentation variant carries no presentation variant", goerrors.CategoryValidation)
		}
		if err := resolvePresentationVariant(scoped, pv, definition); err != nil {
			return nil, err
		}

	default:
		return nil, goerrors.New(
			fmt.Sprintf("annotation %q cannot drive a data visualization", annotationPath),
			goerrors.CategoryValidation)
	}

	if cc.TemplateType() == TemplateAnalyticalListPage {
		if len(definition.Tables) == 0 || len(definition.Charts) == 0 {
			return nil, goerrors.New(
				"an analytical list page requires both a table and a chart visualization",
				goerrors.CategoryValidation)
		}
	}
	return definition, nil
}

// resolvePresentationVariant walks the PV's visualization references and
// converts the first line item and the first chart it names.
func resolvePresentationVariant(cc *ConverterContext, pv metadata.PresentationVariant, definition *DataVisualizationDefinition) error {
	definition.SortOrder = pv.SortOrder
	for _, visualization := range pv.Visualizations {
		term := annotationTermOf(visualization)
		switch termBase(term) {
		case metadata.UILineItem:
			if len(definition.Tables) > 0 {
				continue
			}
			table, err := CreateTableVisualization(cc, term)
			if err != nil {
				return err
			}
			definition.Tables = append(definition.Tables, table)
		case metadata.UIChart:
			if len(definition.Charts) > 0 {
				continue
			}
			chart, err := CreateChartVisualization(cc, term)
			if err != nil {
				return err
			}
			definition.Charts = append(definition.Charts, chart)
		default:
			cc.AddIssue(IssueCategoryAnnotation, IssueSeverityLow,
				fmt.Sprintf("presentation variant visualization %q is not supported", visualization))
		}
	}
	if len(definition.Tables) == 0 && len(definition.Charts) == 0 {
		return goerrors.New("presentation variant drives no supported visualization", goerrors.CategoryValidation)
	}
	return nil
}

// annotationTermOf extracts the term (with qualifier) from an annotation
// path: the part after the last '@'.
func annotationTermOf(path string) string {
	if idx := strings.LastIndex(path, "@"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// termBase strips the qualifier from a term.
func termBase(term string) string {
	if idx := strings.Index(term, "#"); idx >= 0 {
		return term[:idx]
	}
	return term
}
