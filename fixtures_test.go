package fiori

import (
	"testing"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

const (
	testNamespace    = "com.example.sales"
	orderTypeFQN     = testNamespace + ".SalesOrder"
	itemTypeFQN      = testNamespace + ".SalesOrderItem"
	approveActionFQN = testNamespace + ".Approve"
	rejectActionFQN  = testNamespace + ".Reject"
)

func dataField(path string, extra ...func(*metadata.Record)) metadata.Value {
	rec := &metadata.Record{
		Type:   metadata.TypeDataField,
		Fields: map[string]metadata.Value{"Value": metadata.PathValue(path)},
	}
	for _, fn := range extra {
		fn(rec)
	}
	return metadata.RecordValue(rec)
}

func actionField(actionFQN, label string, extra ...func(*metadata.Record)) metadata.Value {
	rec := &metadata.Record{
		Type: metadata.TypeDataFieldForAction,
		Fields: map[string]metadata.Value{
			"Action": metadata.StringValue(actionFQN),
			"Label":  metadata.StringValue(label),
		},
	}
	for _, fn := range extra {
		fn(rec)
	}
	return metadata.RecordValue(rec)
}

func withField(name string, value metadata.Value) func(*metadata.Record) {
	return func(rec *metadata.Record) {
		rec.Fields[name] = value
	}
}

func stringProperty(name string, extra ...func(*metadata.Property)) *metadata.Property {
	p := &metadata.Property{
		Name:        name,
		Type:        "Edm.String",
		Annotations: metadata.NewAnnotationMap(),
	}
	for _, fn := range extra {
		fn(p)
	}
	return p
}

// testMetadata builds the sales-order model most converter tests run
// against: a draft-root order set with an item sub-collection, one bound
// action with a dynamic availability path, and the usual UI annotations.
func testMetadata() *metadata.ConvertedMetadata {
	return buildTestMetadata().Freeze()
}

// buildTestMetadata returns the arena unfrozen so individual tests can tweak
// annotations before freezing.
func buildTestMetadata() *metadata.ConvertedMetadata {
	m := metadata.NewConvertedMetadata(testNamespace)

	orderID := stringProperty("ID", func(p *metadata.Property) {
		p.Type = "Edm.Guid"
		p.Annotations.Set(metadata.CoreComputed, metadata.BoolValue(true))
		p.Annotations.Set(metadata.UIHidden, metadata.BoolValue(true))
	})
	name := stringProperty("Name", func(p *metadata.Property) {
		p.Annotations.Set(metadata.CommonLabel, metadata.StringValue("Order Name"))
	})
	amount := stringProperty("Amount", func(p *metadata.Property) {
		p.Type = "Edm.Decimal"
		p.Annotations.Set(metadata.MeasuresISOCurrency, metadata.PathValue("Currency"))
	})
	currency := stringProperty("Currency")
	status := stringProperty("Status")

	orderAnnotations := metadata.NewAnnotationMap()
	orderAnnotations.Set(metadata.UILineItem, metadata.CollectionOf(
		dataField("Name"),
		dataField("Amount"),
		actionField(approveActionFQN, "Approve"),
	))
	orderAnnotations.Set(metadata.UISelectionFields, metadata.CollectionOf(
		metadata.PropertyPath("Name"),
		metadata.PropertyPath("Status"),
	))
	orderAnnotations.Set(metadata.UIFieldGroup, metadata.RecordValue(&metadata.Record{
		Type: metadata.TypeFieldGroup,
		Fields: map[string]metadata.Value{
			"Data": metadata.CollectionOf(dataField("Name"), dataField("Status")),
		},
	}))
	orderAnnotations.Set(metadata.UIFacets, metadata.CollectionOf(
		metadata.RecordValue(&metadata.Record{
			Type: metadata.TypeReferenceFacet,
			Fields: map[string]metadata.Value{
				"ID":     metadata.StringValue("GeneralSection"),
				"Label":  metadata.StringValue("General"),
				"Target": metadata.AnnotationPath("@UI.FieldGroup"),
			},
		}),
		metadata.RecordValue(&metadata.Record{
			Type: metadata.TypeReferenceFacet,
			Fields: map[string]metadata.Value{
				"ID":     metadata.StringValue("ItemsSection"),
				"Label":  metadata.StringValue("Items"),
				"Target": metadata.AnnotationPath("_Items/@UI.LineItem"),
			},
		}),
	))
	orderAnnotations.Set(metadata.UIIdentification, metadata.CollectionOf(
		actionField(approveActionFQN, "Approve", withField("Determining", metadata.BoolValue(true))),
	))
	orderAnnotations.Set(metadata.CommonSemanticKey, metadata.CollectionOf(
		metadata.PropertyPath("Name"),
	))
	orderAnnotations.SetQualified(metadata.AggregationCustomAggregate, "Amount",
		metadata.StringValue("Amount"))

	m.AddEntityType(&metadata.EntityType{
		Name:        "SalesOrder",
		Keys:        []string{"ID"},
		Properties:  []*metadata.Property{orderID, name, amount, currency, status},
		Annotations: orderAnnotations,
		NavigationProps: []*metadata.NavigationProperty{{
			Name:           "_Items",
			TargetTypeName: itemTypeFQN,
			IsCollection:   true,
		}},
	})

	itemAnnotations := metadata.NewAnnotationMap()
	itemAnnotations.Set(metadata.UILineItem, metadata.CollectionOf(
		dataField("Product"),
		dataField("Quantity"),
	))
	m.AddEntityType(&metadata.EntityType{
		Name:        "SalesOrderItem",
		Keys:        []string{"ItemID"},
		Properties:  []*metadata.Property{stringProperty("ItemID"), stringProperty("Product"), stringProperty("Quantity")},
		Annotations: itemAnnotations,
	})

	orderSetAnnotations := metadata.NewAnnotationMap()
	orderSetAnnotations.Set(metadata.CommonDraftRoot, metadata.RecordValue(&metadata.Record{
		Fields: map[string]metadata.Value{},
	}))
	m.AddEntitySet(&metadata.EntitySet{
		Name:               "SalesOrders",
		EntityTypeName:     orderTypeFQN,
		NavigationBindings: map[string]string{"_Items": "SalesOrderItems"},
		Annotations:        orderSetAnnotations,
	})
	m.AddEntitySet(&metadata.EntitySet{
		Name:           "SalesOrderItems",
		EntityTypeName: itemTypeFQN,
		Annotations:    metadata.NewAnnotationMap(),
	})

	approveAnnotations := metadata.NewAnnotationMap()
	approveAnnotations.Set(metadata.CoreOperationAvailable, metadata.PathValue("IsActiveEntity"))
	m.AddAction(&metadata.Action{
		Name:                 "Approve",
		IsBound:              true,
		BindingParameterType: orderTypeFQN,
		Annotations:          approveAnnotations,
	})
	m.AddAction(&metadata.Action{
		Name:                 "Reject",
		IsBound:              true,
		BindingParameterType: orderTypeFQN,
		Annotations:          metadata.NewAnnotationMap(),
	})

	return m
}

func testSettings(template TemplateType) PageSettings {
	return PageSettings{
		TemplateType: template,
		EntitySet:    "SalesOrders",
	}
}

func testContext(t *testing.T, settings PageSettings) *ConverterContext {
	t.Helper()
	cc, err := NewConverterContext(testMetadata(), NewManifestWrapper(settings), NewIssueManager())
	if err != nil {
		t.Fatalf("building converter context: %v", err)
	}
	return cc
}

func strptr(s string) *string { return &s }
