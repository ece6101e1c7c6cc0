package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNamespace = "com.example.travel"
	orderFQN      = testNamespace + ".Order"
	itemFQN       = testNamespace + ".OrderItem"
)

// testArena builds the order/item graph the resolution tests walk: a draft
// root with a contained item collection, a bound action with an overload, and
// annotations on every level so term lookup can be exercised per scope.
func testArena() *ConvertedMetadata {
	m := NewConvertedMetadata(testNamespace)

	name := &Property{Name: "Name", Type: "Edm.String", Annotations: NewAnnotationMap().
		Set(CommonLabel, StringValue("Order Name")).
		Set(CommonText, PathValue("Description"))}
	status := &Property{Name: "Status", Type: "Edm.String", Annotations: NewAnnotationMap()}

	orderAnnotations := NewAnnotationMap()
	orderAnnotations.Set(UILineItem, CollectionOf(
		RecordValue(&Record{Type: TypeDataField, Fields: map[string]Value{"Value": PathValue("Name")}}),
	))
	orderAnnotations.SetQualified(UILineItem, "Compact", CollectionOf(
		RecordValue(&Record{Type: TypeDataField, Fields: map[string]Value{"Value": PathValue("Status")}}),
	))
	orderAnnotations.Set(CommonSemanticKey, CollectionOf(PropertyPath("Name")))
	orderAnnotations.SetQualified(AggregationCustomAggregate, "Amount", StringValue("Amount"))
	orderAnnotations.SetQualified(AggregationCustomAggregate, "Quantity", StringValue("Quantity"))

	m.AddEntityType(&EntityType{
		Name:        "Order",
		Keys:        []string{"ID", "Name"},
		Properties:  []*Property{{Name: "ID", Type: "Edm.Guid", Annotations: NewAnnotationMap()}, name, status},
		Annotations: orderAnnotations,
		NavigationProps: []*NavigationProperty{{
			Name:           "_Items",
			TargetTypeName: itemFQN,
			IsCollection:   true,
		}},
	})
	m.AddEntityType(&EntityType{
		Name:        "OrderItem",
		Keys:        []string{"ItemID"},
		Properties:  []*Property{{Name: "ItemID", Type: "Edm.String", Annotations: NewAnnotationMap()}, {Name: "Product", Type: "Edm.String", Annotations: NewAnnotationMap()}},
		Annotations: NewAnnotationMap().Set(UILineItem, CollectionOf()),
	})

	m.AddEntitySet(&EntitySet{
		Name:               "Orders",
		EntityTypeName:     orderFQN,
		NavigationBindings: map[string]string{"_Items": "OrderItems"},
		Annotations: NewAnnotationMap().
			Set(CommonDraftRoot, RecordValue(&Record{Fields: map[string]Value{
				"NewAction": StringValue(testNamespace + ".CreateOrder"),
			}})).
			Set(CapabilitiesDeleteRestrictions, RecordValue(&Record{Fields: map[string]Value{
				"Deletable": BoolValue(false),
			}})).
			Set(CapabilitiesUpdateRestrictions, RecordValue(&Record{Fields: map[string]Value{
				"Updatable": PathValue("IsActiveEntity"),
			}})),
	})
	m.AddEntitySet(&EntitySet{
		Name:           "OrderItems",
		EntityTypeName: itemFQN,
		Annotations:    NewAnnotationMap(),
	})
	m.AddEntitySet(&EntitySet{
		Name:           "ArchivedOrders",
		EntityTypeName: orderFQN,
		Annotations:    NewAnnotationMap().Set(SessionStickySessionSupported, RecordValue(&Record{Fields: map[string]Value{}})),
	})

	m.AddAction(&Action{Name: "Approve", IsBound: true, BindingParameterType: orderFQN,
		Annotations: NewAnnotationMap().Set(CoreOperationAvailable, PathValue("IsActiveEntity"))})
	m.AddAction(&Action{Name: "Archive", IsBound: true, BindingParameterType: orderFQN, Annotations: NewAnnotationMap()})
	m.AddAction(&Action{Name: "Archive", FullyQualifiedName: testNamespace + ".Archive", IsBound: true, BindingParameterType: itemFQN, Annotations: NewAnnotationMap()})

	return m.Freeze()
}

func TestQualifiedName(t *testing.T) {
	m := testArena()
	assert.Equal(t, orderFQN, m.QualifiedName("Order"))
	assert.Equal(t, orderFQN, m.QualifiedName(orderFQN))
	assert.Equal(t, "other.ns.Thing", m.QualifiedName("other.ns.Thing"))
}

func TestEntityTypeLookupAcceptsLocalAndQualifiedNames(t *testing.T) {
	m := testArena()

	byLocal, ok := m.EntityType("Order")
	require.True(t, ok)
	byFQN, ok := m.EntityType(orderFQN)
	require.True(t, ok)
	assert.Same(t, byLocal, byFQN)

	_, ok = m.EntityType("Nope")
	assert.False(t, ok)
}

func TestFrozenArenaRejectsRegistration(t *testing.T) {
	m := testArena()
	assert.Panics(t, func() {
		m.AddEntitySet(&EntitySet{Name: "Late", EntityTypeName: orderFQN})
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	m := NewConvertedMetadata(testNamespace)
	m.AddEntityType(&EntityType{Name: "Order"})
	assert.Panics(t, func() {
		m.AddEntityType(&EntityType{Name: "Order"})
	})
}

func TestEntitySetsPreserveRegistrationOrder(t *testing.T) {
	sets := testArena().EntitySets()
	require.Len(t, sets, 3)
	assert.Equal(t, "Orders", sets[0].Name)
	assert.Equal(t, "OrderItems", sets[1].Name)
	assert.Equal(t, "ArchivedOrders", sets[2].Name)
}

func TestBoundActionResolvesOverloadByBindingType(t *testing.T) {
	m := testArena()

	forOrder, ok := m.BoundAction("Archive", orderFQN)
	require.True(t, ok)
	assert.Equal(t, orderFQN, forOrder.BindingParameterType)

	forItem, ok := m.BoundAction("Archive", itemFQN)
	require.True(t, ok)
	assert.Equal(t, itemFQN, forItem.BindingParameterType)
	assert.NotSame(t, forOrder, forItem)
}

func TestBoundActionRejectsMismatchedBindingType(t *testing.T) {
	m := testArena()

	// Approve is registered under a single overload key bound to Order.
	_, ok := m.BoundAction("Approve", itemFQN)
	assert.False(t, ok)

	approve, ok := m.BoundAction("Approve", orderFQN)
	require.True(t, ok)
	assert.Equal(t, "IsActiveEntity", approve.OperationAvailable().AsPath())
}

func TestBoundActionsForReturnsStableOrder(t *testing.T) {
	actions := testArena().BoundActionsFor(orderFQN)
	require.Len(t, actions, 2)
	assert.Equal(t, "Approve", actions[0].Name)
	assert.Equal(t, "Archive", actions[1].Name)
}

func TestNavigationTargetFollowsBindings(t *testing.T) {
	m := testArena()
	orders, _ := m.EntitySet("Orders")

	items := orders.NavigationTarget("_Items")
	require.NotNil(t, items)
	assert.Equal(t, "OrderItems", items.Name)

	assert.Nil(t, orders.NavigationTarget("_Nope"))
}

func TestProgrammingModelClassification(t *testing.T) {
	m := testArena()
	orders, _ := m.EntitySet("Orders")
	items, _ := m.EntitySet("OrderItems")
	archived, _ := m.EntitySet("ArchivedOrders")

	assert.Equal(t, ProgrammingModelDraft, ProgrammingModelOf(orders))
	assert.Equal(t, ProgrammingModelNonDraft, ProgrammingModelOf(items))
	assert.Equal(t, ProgrammingModelSticky, ProgrammingModelOf(archived))
	assert.Equal(t, ProgrammingModelNonDraft, ProgrammingModelOf(nil))
}

func TestDraftWinsOverStickyWhenBothAnnotated(t *testing.T) {
	m := NewConvertedMetadata(testNamespace)
	m.AddEntityType(&EntityType{Name: "Order"})
	set := m.AddEntitySet(&EntitySet{
		Name:           "Orders",
		EntityTypeName: orderFQN,
		Annotations: NewAnnotationMap().
			Set(CommonDraftRoot, RecordValue(&Record{Fields: map[string]Value{}})).
			Set(SessionStickySessionSupported, RecordValue(&Record{Fields: map[string]Value{}})),
	})
	assert.Equal(t, ProgrammingModelDraft, ProgrammingModelOf(set))
}

func TestNewActionName(t *testing.T) {
	m := testArena()
	orders, _ := m.EntitySet("Orders")
	items, _ := m.EntitySet("OrderItems")

	assert.Equal(t, testNamespace+".CreateOrder", orders.NewActionName())
	assert.Equal(t, "", items.NewActionName())
}

func TestRestrictionFields(t *testing.T) {
	m := testArena()
	orders, _ := m.EntitySet("Orders")

	assert.True(t, orders.Deletable().IsStaticFalse())
	assert.True(t, orders.Updatable().IsDynamic())
	assert.Equal(t, "IsActiveEntity", orders.Updatable().AsPath())
	// absent restriction reads as unrestricted
	assert.True(t, orders.Insertable().IsNull())
}

func TestSemanticKeysAndCustomAggregates(t *testing.T) {
	m := testArena()
	order, _ := m.EntityType("Order")

	assert.Equal(t, []string{"Name"}, order.SemanticKeys())
	assert.Equal(t, []string{"Amount", "Quantity"}, order.CustomAggregates())
}

func TestKeyPropertiesPreserveDeclarationOrder(t *testing.T) {
	order, _ := testArena().EntityType("Order")
	keys := order.KeyProperties()
	require.Len(t, keys, 2)
	assert.Equal(t, "ID", keys[0].Name)
	assert.Equal(t, "Name", keys[1].Name)
}

func TestPropertyAnnotationAccessors(t *testing.T) {
	order, _ := testArena().EntityType("Order")
	name := order.Property("Name")
	require.NotNil(t, name)

	assert.Equal(t, "Description", name.TextPropertyPath())
	assert.False(t, name.IsComputed())
	assert.False(t, name.IsComplex())
	assert.Nil(t, order.Property("Nope"))
}

func TestAnnotationMapQualifiedLookup(t *testing.T) {
	order, _ := testArena().EntityType("Order")

	unqualified, ok := order.Annotations.GetQualified(UILineItem, "")
	require.True(t, ok)
	require.Len(t, unqualified.Collection, 1)

	compact, ok := order.Annotations.GetQualified(UILineItem, "Compact")
	require.True(t, ok)
	require.Len(t, compact.Collection, 1)
	assert.Equal(t, "Status", compact.Collection[0].Record.Field("Value").AsPath())

	_, ok = order.Annotations.GetQualified(UILineItem, "Nope")
	assert.False(t, ok)
}

func TestAnnotationMapTrueTreatsTagTermsAsTrue(t *testing.T) {
	am := NewAnnotationMap().
		Set(CoreComputed, NullValue()).
		Set(CoreImmutable, BoolValue(false))

	assert.True(t, am.True(CoreComputed))
	assert.False(t, am.True(CoreImmutable))
	assert.False(t, am.True(UIHidden))
}
