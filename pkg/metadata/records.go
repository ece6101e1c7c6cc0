package metadata

import (
	"fmt"
)

// DataFieldKind is the closed variant tag for UI data field records. Decoding
// maps the $Type string once; converters switch on the kind exhaustively
// instead of re-comparing type strings.
type DataFieldKind int

const (
	DataFieldKindGeneric DataFieldKind = iota
	DataFieldKindForAction
	DataFieldKindForIntentBasedNavigation
	DataFieldKindForAnnotation
	DataFieldKindWithURL
	DataFieldKindWithNavigationPath
)

// DataField is the decoded view of one UI.DataFieldAbstract record.
type DataField struct {
	Kind            DataFieldKind
	Label           string
	Value           string // property path for value-carrying variants
	Action          string // action FQN (ForAction)
	SemanticObject  string // IBN
	IBNAction       string // IBN
	Target          string // annotation path (ForAnnotation)
	URL             string // WithUrl
	Inline          bool
	Determining     bool
	RequiresContext bool
	Importance      string // enum member: High, Medium, Low
	Hidden          Value  // UI.Hidden nested annotation
	Criticality     Value
}

// DecodeDataField maps a raw annotation record onto the DataField union. An
// unknown $Type is an error; the UI vocabulary is closed for our purposes and
// silent fallthrough would hide malformed metadata.
func DecodeDataField(rec *Record) (DataField, error) {
	if rec == nil {
		return DataField{}, fmt.Errorf("metadata: nil data field record")
	}
	df := DataField{
		Label:       rec.Field("Label").AsString(),
		Importance:  rec.Field("Importance").AsEnumMember(),
		Hidden:      rec.Field("@UI.Hidden"),
		Criticality: rec.Field("Criticality"),
	}
	switch rec.Type {
	case TypeDataField:
		df.Kind = DataFieldKindGeneric
		df.Value = rec.Field("Value").AsPath()
	case TypeDataFieldForAction:
		df.Kind = DataFieldKindForAction
		df.Action = rec.Field("Action").AsString()
		df.Inline = rec.Field("Inline").IsStaticTrue()
		df.Determining = rec.Field("Determining").IsStaticTrue()
	case TypeDataFieldForIntentBasedNavigation:
		df.Kind = DataFieldKindForIntentBasedNavigation
		df.SemanticObject = rec.Field("SemanticObject").AsString()
		df.IBNAction = rec.Field("Action").AsString()
		df.Inline = rec.Field("Inline").IsStaticTrue()
		df.Determining = rec.Field("Determining").IsStaticTrue()
		df.RequiresContext = rec.Field("RequiresContext").IsStaticTrue()
	case TypeDataFieldForAnnotation:
		df.Kind = DataFieldKindForAnnotation
		df.Target = rec.Field("Target").AsPath()
	case TypeDataFieldWithURL:
		df.Kind = DataFieldKindWithURL
		df.Value = rec.Field("Value").AsPath()
		df.URL = rec.Field("Url").AsString()
	case TypeDataFieldWithNavigationPath:
		df.Kind = DataFieldKindWithNavigationPath
		df.Value = rec.Field("Value").AsPath()
		df.Target = rec.Field("Target").AsPath()
	default:
		return DataField{}, fmt.Errorf("metadata: unsupported data field type %q", rec.Type)
	}
	return df, nil
}

// DecodeLineItem decodes a UI.LineItem collection into its data fields.
// Records that fail to decode are skipped and reported through the returned
// error slice so callers can log diagnostics without aborting conversion.
func DecodeLineItem(v Value) ([]DataField, []error) {
	if v.Kind != KindCollection {
		return nil, []error{fmt.Errorf("metadata: line item annotation is not a collection")}
	}
	fields := make([]DataField, 0, len(v.Collection))
	var errs []error
	for _, item := range v.Collection {
		if item.Kind != KindRecord {
			errs = append(errs, fmt.Errorf("metadata: line item entry is not a record"))
			continue
		}
		df, err := DecodeDataField(item.Record)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fields = append(fields, df)
	}
	return fields, errs
}

// ChartDefinition is the decoded view of a UI.Chart annotation.
type ChartDefinition struct {
	Title           string
	ChartType       string // enum member, e.g. Column, Bar, Line
	Dimensions      []string
	Measures        []string
	DynamicMeasures []string // annotation paths to Analytics.AggregatedProperty
}

// DecodeChart decodes a UI.Chart record value.
func DecodeChart(v Value) (ChartDefinition, error) {
	if v.Kind != KindRecord {
		return ChartDefinition{}, fmt.Errorf("metadata: chart annotation is not a record")
	}
	rec := v.Record
	def := ChartDefinition{
		Title:     rec.Field("Title").AsString(),
		ChartType: rec.Field("ChartType").AsEnumMember(),
	}
	for _, d := range rec.Field("Dimensions").Collection {
		if p := d.AsPath(); p != "" {
			def.Dimensions = append(def.Dimensions, p)
		}
	}
	for _, m := range rec.Field("Measures").Collection {
		if p := m.AsPath(); p != "" {
			def.Measures = append(def.Measures, p)
		}
	}
	for _, m := range rec.Field("DynamicMeasures").Collection {
		if p := m.AsPath(); p != "" {
			def.DynamicMeasures = append(def.DynamicMeasures, p)
		}
	}
	return def, nil
}

// SortCondition is one entry of a presentation variant's SortOrder.
type SortCondition struct {
	Property   string
	Descending bool
}

// PresentationVariant is the decoded view of a UI.PresentationVariant
// annotation. Visualizations keeps the raw annotation paths in order; the
// data-visualization resolver picks the first supported one.
type PresentationVariant struct {
	Visualizations []string
	SortOrder      []SortCondition
	GroupBy        []string
	MaxItems       int64
}

// DecodePresentationVariant decodes a UI.PresentationVariant record value.
func DecodePresentationVariant(v Value) (PresentationVariant, error) {
	if v.Kind != KindRecord {
		return PresentationVariant{}, fmt.Errorf("metadata: presentation variant is not a record")
	}
	rec := v.Record
	pv := PresentationVariant{}
	for _, item := range rec.Field("Visualizations").Collection {
		if p := item.AsPath(); p != "" {
			pv.Visualizations = append(pv.Visualizations, p)
		}
	}
	for _, item := range rec.Field("SortOrder").Collection {
		if item.Kind != KindRecord {
			continue
		}
		pv.SortOrder = append(pv.SortOrder, SortCondition{
			Property:   item.Record.Field("Property").AsPath(),
			Descending: item.Record.Field("Descending").IsStaticTrue(),
		})
	}
	for _, item := range rec.Field("GroupBy").Collection {
		if p := item.AsPath(); p != "" {
			pv.GroupBy = append(pv.GroupBy, p)
		}
	}
	if max := rec.Field("MaxItems"); max.Kind == KindInt {
		pv.MaxItems = max.Int
	}
	return pv, nil
}

// SelectionPresentationVariant is the decoded view of a
// UI.SelectionPresentationVariant annotation. PresentationVariantPath is set
// when the PV is referenced by path, Inline when it is embedded.
type SelectionPresentationVariant struct {
	Text                    string
	PresentationVariantPath string
	Inline                  *PresentationVariant
	SelectionVariantPath    string
}

// DecodeSelectionPresentationVariant decodes a UI.SelectionPresentationVariant
// record value.
func DecodeSelectionPresentationVariant(v Value) (SelectionPresentationVariant, error) {
	if v.Kind != KindRecord {
		return SelectionPresentationVariant{}, fmt.Errorf("metadata: selection presentation variant is not a record")
	}
	rec := v.Record
	spv := SelectionPresentationVariant{
		Text: rec.Field("Text").AsString(),
	}
	pvField := rec.Field("PresentationVariant")
	switch pvField.Kind {
	case KindPath, KindAnnotationPath:
		spv.PresentationVariantPath = pvField.AsPath()
	case KindRecord:
		inline, err := DecodePresentationVariant(pvField)
		if err != nil {
			return spv, err
		}
		spv.Inline = &inline
	}
	if sv := rec.Field("SelectionVariant"); sv.AsPath() != "" {
		spv.SelectionVariantPath = sv.AsPath()
	}
	return spv, nil
}

// FacetKind tags the closed union of UI.Facets entries.
type FacetKind int

const (
	FacetKindReference FacetKind = iota
	FacetKindCollection
)

// Facet is the decoded view of a UI.Facets entry. Collection facets carry
// nested facets, reference facets a target annotation path.
type Facet struct {
	Kind   FacetKind
	ID     string
	Label  string
	Target string
	Hidden Value
	Facets []Facet
}

// DecodeFacets decodes a UI.Facets collection. Unknown facet types are
// reported and skipped.
func DecodeFacets(v Value) ([]Facet, []error) {
	if v.Kind != KindCollection {
		return nil, []error{fmt.Errorf("metadata: facets annotation is not a collection")}
	}
	var facets []Facet
	var errs []error
	for _, item := range v.Collection {
		if item.Kind != KindRecord {
			errs = append(errs, fmt.Errorf("metadata: facet entry is not a record"))
			continue
		}
		rec := item.Record
		facet := Facet{
			ID:     rec.Field("ID").AsString(),
			Label:  rec.Field("Label").AsString(),
			Hidden: rec.Field("@UI.Hidden"),
		}
		switch rec.Type {
		case TypeReferenceFacet:
			facet.Kind = FacetKindReference
			facet.Target = rec.Field("Target").AsPath()
		case TypeCollectionFacet:
			facet.Kind = FacetKindCollection
			nested, nestedErrs := DecodeFacets(rec.Field("Facets"))
			facet.Facets = nested
			errs = append(errs, nestedErrs...)
		default:
			errs = append(errs, fmt.Errorf("metadata: unsupported facet type %q", rec.Type))
			continue
		}
		facets = append(facets, facet)
	}
	return facets, errs
}
