package metadata

// Vocabulary terms recognized by the converters. Stored unprefixed by schema
// alias; callers always use these constants so arena keys stay consistent.
const (
	UILineItem                     = "UI.LineItem"
	UIChart                        = "UI.Chart"
	UIPresentationVariant          = "UI.PresentationVariant"
	UISelectionPresentationVariant = "UI.SelectionPresentationVariant"
	UISelectionFields              = "UI.SelectionFields"
	UIFacets                       = "UI.Facets"
	UIFieldGroup                   = "UI.FieldGroup"
	UIHeaderInfo                   = "UI.HeaderInfo"
	UIIdentification               = "UI.Identification"
	UIHidden                       = "UI.Hidden"
	UICreateHidden                 = "UI.CreateHidden"
	UIDeleteHidden                 = "UI.DeleteHidden"
	UIUpdateHidden                 = "UI.UpdateHidden"
	UIDataFieldDefault             = "UI.DataFieldDefault"

	CommonDraftRoot       = "Common.DraftRoot"
	CommonDraftNode       = "Common.DraftNode"
	CommonSemanticKey     = "Common.SemanticKey"
	CommonText            = "Common.Text"
	CommonTextArrangement = "Common.TextArrangement"
	CommonTimezone        = "Common.Timezone"
	CommonLabel           = "Common.Label"
	CommonFieldControl    = "Common.FieldControl"

	SessionStickySessionSupported = "Session.StickySessionSupported"

	CapabilitiesInsertRestrictions = "Capabilities.InsertRestrictions"
	CapabilitiesUpdateRestrictions = "Capabilities.UpdateRestrictions"
	CapabilitiesDeleteRestrictions = "Capabilities.DeleteRestrictions"

	MeasuresUnit        = "Measures.Unit"
	MeasuresISOCurrency = "Measures.ISOCurrency"

	CoreComputed           = "Core.Computed"
	CoreImmutable          = "Core.Immutable"
	CoreOperationAvailable = "Core.OperationAvailable"

	AggregationCustomAggregate  = "Aggregation.CustomAggregate"
	AnalyticsAggregatedProperty = "Analytics.AggregatedProperty"
)

// Record $Type tags of the UI vocabulary.
const (
	TypeDataField                           = "UI.DataField"
	TypeDataFieldForAction                  = "UI.DataFieldForAction"
	TypeDataFieldForIntentBasedNavigation   = "UI.DataFieldForIntentBasedNavigation"
	TypeDataFieldForAnnotation              = "UI.DataFieldForAnnotation"
	TypeDataFieldWithURL                    = "UI.DataFieldWithUrl"
	TypeDataFieldWithNavigationPath         = "UI.DataFieldWithNavigationPath"
	TypeChartDefinition                     = "UI.ChartDefinitionType"
	TypePresentationVariant                 = "UI.PresentationVariantType"
	TypeSelectionPresentationVariant        = "UI.SelectionPresentationVariantType"
	TypeReferenceFacet                      = "UI.ReferenceFacet"
	TypeCollectionFacet                     = "UI.CollectionFacet"
	TypeChartMeasureAttribute               = "UI.ChartMeasureAttributeType"
	TypeChartDynamicMeasureAttribute        = "UI.ChartDynamicMeasureAttributeType"
	TypeFieldGroup                          = "UI.FieldGroupType"
)
