package fiori

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// ChartDimension is one dimension of a chart visualization.
type ChartDimension struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ChartMeasure is one measure of a chart visualization. Dynamic measures are
// backed by an Analytics.AggregatedProperty or a custom aggregate instead of
// a plain property.
type ChartMeasure struct {
	Name              string `json:"name"`
	Label             string `json:"label,omitempty"`
	Role              string `json:"role,omitempty"`
	IsDynamic         bool   `json:"isDynamic,omitempty"`
	AggregationMethod string `json:"aggregationMethod,omitempty"`
}

// ChartVisualization is the converter output bundle for one chart.
type ChartVisualization struct {
	VisualizationType string            `json:"visualizationType"`
	ID                string            `json:"id"`
	CollectionPath    string            `json:"collectionPath"`
	AnnotationPath    string            `json:"annotationPath"`
	ChartType         string            `json:"chartType"`
	Title             string            `json:"title,omitempty"`
	Dimensions        []ChartDimension  `json:"dimensions"`
	Measures          []ChartMeasure    `json:"measures"`
	Personalization   bool              `json:"personalization"`
	Actions           []ConverterAction `json:"actions,omitempty"`
}

// CreateChartVisualization converts a UI.Chart annotation (plus manifest
// chart settings) into a chart visualization bundle.
func CreateChartVisualization(cc *ConverterContext, annotationTerm string) (*ChartVisualization, error) {
	chartValue, scoped, err := cc.EntityTypeAnnotation("@" + annotationTerm)
	if err != nil {
		return nil, err
	}
	definition, err := metadata.DecodeChart(chartValue)
	if err != nil {
		return nil, err
	}

	controlConfig := scoped.ManifestControlConfiguration("@" + annotationTerm)
	chartSettings := controlConfig.ChartSettings

	hiddenMeasures := map[string]bool{}
	personalization := true
	if chartSettings != nil {
		for _, m := range chartSettings.HiddenMeasures {
			hiddenMeasures[m] = true
		}
		if chartSettings.Personalization != nil {
			personalization = *chartSettings.Personalization
		}
	}

	entityType := scoped.EntityType()
	visualization := &ChartVisualization{
		VisualizationType: "Chart",
		ID:                StableID("fe", "chart", sanitizeIDPart(annotationTerm)),
		CollectionPath:    scoped.ContextPath(),
		AnnotationPath:    scoped.AbsoluteAnnotationPath("@" + annotationTerm),
		ChartType:         definition.ChartType,
		Title:             definition.Title,
		Personalization:   personalization,
	}
	if visualization.ChartType == "" {
		visualization.ChartType = "Column"
	}

	for _, dim := range definition.Dimensions {
		dimension := ChartDimension{Name: dim, Role: "category"}
		if prop := entityType.Property(dim); prop != nil {
			if v, ok := prop.Annotations.Get(metadata.CommonLabel); ok {
				dimension.Label = v.AsString()
			}
		}
		visualization.Dimensions = append(visualization.Dimensions, dimension)
	}

	for _, measure := range definition.Measures {
		if hiddenMeasures[measure] {
			continue
		}
		m := ChartMeasure{Name: measure, Role: "axis1"}
		if prop := entityType.Property(measure); prop != nil {
			if v, ok := prop.Annotations.Get(metadata.CommonLabel); ok {
				m.Label = v.AsString()
			}
		}
		visualization.Measures = append(visualization.Measures, m)
	}

	for _, dynamicPath := range definition.DynamicMeasures {
		measure, err := resolveDynamicMeasure(scoped, dynamicPath)
		if err != nil {
			scoped.AddIssue(IssueCategoryAnnotation, IssueSeverityMedium, err.Error())
			continue
		}
		if hiddenMeasures[measure.Name] {
			continue
		}
		visualization.Measures = append(visualization.Measures, measure)
	}

	if len(visualization.Measures) == 0 {
		scoped.AddIssue(IssueCategoryAnnotation, IssueSeverityHigh,
			fmt.Sprintf("chart %q defines no visible measure", annotationTerm))
	}
	return visualization, nil
}

// resolveDynamicMeasure decodes an Analytics.AggregatedProperty reference
// into a chart measure.
func resolveDynamicMeasure(cc *ConverterContext, dynamicPath string) (ChartMeasure, error) {
	term := strings.TrimPrefix(dynamicPath, "@")
	value, _, err := cc.EntityTypeAnnotation("@" + term)
	if err != nil {
		return ChartMeasure{}, fmt.Errorf("fiori: dynamic measure %q cannot be resolved: %v", dynamicPath, err)
	}
	if value.Kind != metadata.KindRecord {
		return ChartMeasure{}, fmt.Errorf("fiori: dynamic measure %q is not a record", dynamicPath)
	}
	rec := value.Record
	name := rec.Field("Name").AsString()
	if name == "" {
		return ChartMeasure{}, fmt.Errorf("fiori: dynamic measure %q carries no name", dynamicPath)
	}
	return ChartMeasure{
		Name:              name,
		Label:             rec.Field("Label").AsString(),
		Role:              "axis1",
		IsDynamic:         true,
		AggregationMethod: rec.Field("AggregationMethod").AsString(),
	}, nil
}
