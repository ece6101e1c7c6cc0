package metadata

import (
	"fmt"
	"sort"
	"strings"
)

// ConvertedMetadata is the fully resolved OData schema graph for one service.
// Every schema element is registered in the arena under its fully qualified
// name; cross references between elements are stored as names and resolved
// through the arena, never as live pointers. The graph is immutable once
// Freeze is called and is shared read-only by all converters of a conversion
// pass.
type ConvertedMetadata struct {
	namespace     string
	containerName string

	entityTypes  map[string]*EntityType
	entitySets   map[string]*EntitySet
	singletons   map[string]*Singleton
	actions      map[string]*Action
	entitySetSeq []string

	frozen bool
}

// NewConvertedMetadata creates an empty arena for the given schema namespace.
func NewConvertedMetadata(namespace string) *ConvertedMetadata {
	return &ConvertedMetadata{
		namespace:     namespace,
		containerName: namespace + ".EntityContainer",
		entityTypes:   map[string]*EntityType{},
		entitySets:    map[string]*EntitySet{},
		singletons:    map[string]*Singleton{},
		actions:       map[string]*Action{},
	}
}

// Namespace returns the schema namespace the arena was built for.
func (m *ConvertedMetadata) Namespace() string {
	return m.namespace
}

// QualifiedName prefixes a local name with the schema namespace unless it is
// already qualified.
func (m *ConvertedMetadata) QualifiedName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return m.namespace + "." + name
}

// AddEntityType registers an entity type. Panics when called after Freeze or
// when the name is already taken; metadata construction is a setup-time
// concern and duplicate registrations are programming errors.
func (m *ConvertedMetadata) AddEntityType(et *EntityType) *EntityType {
	m.mustBeMutable()
	if et.FullyQualifiedName == "" {
		et.FullyQualifiedName = m.QualifiedName(et.Name)
	}
	if _, exists := m.entityTypes[et.FullyQualifiedName]; exists {
		panic(fmt.Sprintf("metadata: entity type %q registered twice", et.FullyQualifiedName))
	}
	et.arena = m
	m.entityTypes[et.FullyQualifiedName] = et
	return et
}

// AddEntitySet registers an entity set of the container.
func (m *ConvertedMetadata) AddEntitySet(es *EntitySet) *EntitySet {
	m.mustBeMutable()
	if _, exists := m.entitySets[es.Name]; exists {
		panic(fmt.Sprintf("metadata: entity set %q registered twice", es.Name))
	}
	es.arena = m
	m.entitySets[es.Name] = es
	m.entitySetSeq = append(m.entitySetSeq, es.Name)
	return es
}

// AddSingleton registers a singleton of the container.
func (m *ConvertedMetadata) AddSingleton(s *Singleton) *Singleton {
	m.mustBeMutable()
	if _, exists := m.singletons[s.Name]; exists {
		panic(fmt.Sprintf("metadata: singleton %q registered twice", s.Name))
	}
	s.arena = m
	m.singletons[s.Name] = s
	return s
}

// AddAction registers an action or function import.
func (m *ConvertedMetadata) AddAction(a *Action) *Action {
	m.mustBeMutable()
	if a.FullyQualifiedName == "" {
		a.FullyQualifiedName = m.QualifiedName(a.Name)
	}
	key := a.arenaKey()
	if _, exists := m.actions[key]; exists {
		panic(fmt.Sprintf("metadata: action %q registered twice", key))
	}
	a.arena = m
	m.actions[key] = a
	return a
}

// Freeze seals the arena. Further Add calls panic.
func (m *ConvertedMetadata) Freeze() *ConvertedMetadata {
	m.frozen = true
	return m
}

func (m *ConvertedMetadata) mustBeMutable() {
	if m.frozen {
		panic("metadata: arena is frozen")
	}
}

// EntityType resolves an entity type by fully qualified or local name.
func (m *ConvertedMetadata) EntityType(name string) (*EntityType, bool) {
	et, ok := m.entityTypes[m.QualifiedName(name)]
	return et, ok
}

// EntitySet resolves an entity set by its container-local name.
func (m *ConvertedMetadata) EntitySet(name string) (*EntitySet, bool) {
	es, ok := m.entitySets[name]
	return es, ok
}

// Singleton resolves a singleton by its container-local name.
func (m *ConvertedMetadata) Singleton(name string) (*Singleton, bool) {
	s, ok := m.singletons[name]
	return s, ok
}

// EntitySets returns the container's entity sets in registration order.
func (m *ConvertedMetadata) EntitySets() []*EntitySet {
	out := make([]*EntitySet, 0, len(m.entitySetSeq))
	for _, name := range m.entitySetSeq {
		out = append(out, m.entitySets[name])
	}
	return out
}

// Action resolves an unbound action by fully qualified name.
func (m *ConvertedMetadata) Action(fqn string) (*Action, bool) {
	a, ok := m.actions[m.QualifiedName(fqn)]
	return a, ok
}

// BoundAction resolves an action bound to the given entity type. Lookup first
// tries the exact overload key, then the plain name for services that do not
// qualify overloads.
func (m *ConvertedMetadata) BoundAction(fqn, bindingType string) (*Action, bool) {
	qualified := m.QualifiedName(fqn)
	if a, ok := m.actions[qualified+"("+bindingType+")"]; ok {
		return a, true
	}
	a, ok := m.actions[qualified]
	if ok && a.IsBound && a.BindingParameterType != bindingType {
		return nil, false
	}
	return a, ok
}

// BoundActionsFor returns every action bound to the given entity type, in
// stable name order.
func (m *ConvertedMetadata) BoundActionsFor(bindingType string) []*Action {
	var keys []string
	for key, a := range m.actions {
		if a.IsBound && a.BindingParameterType == bindingType {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := make([]*Action, 0, len(keys))
	for _, key := range keys {
		out = append(out, m.actions[key])
	}
	return out
}

// EntityTypeNames returns all registered entity type FQNs, sorted. Intended
// for diagnostics output.
func (m *ConvertedMetadata) EntityTypeNames() []string {
	names := make([]string, 0, len(m.entityTypes))
	for name := range m.entityTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityType is one node of the schema graph.
type EntityType struct {
	Name               string
	FullyQualifiedName string
	Keys               []string
	Properties         []*Property
	NavigationProps    []*NavigationProperty
	Annotations        AnnotationMap

	arena *ConvertedMetadata
}

// Property returns the named structural property, or nil.
func (et *EntityType) Property(name string) *Property {
	for _, p := range et.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// NavigationProperty returns the named navigation property, or nil.
func (et *EntityType) NavigationProperty(name string) *NavigationProperty {
	for _, np := range et.NavigationProps {
		if np.Name == name {
			return np
		}
	}
	return nil
}

// KeyProperties resolves the declared key names to properties, preserving
// declaration order.
func (et *EntityType) KeyProperties() []*Property {
	keys := make([]*Property, 0, len(et.Keys))
	for _, name := range et.Keys {
		if p := et.Property(name); p != nil {
			keys = append(keys, p)
		}
	}
	return keys
}

// SemanticKeys returns the property names listed in Common.SemanticKey, in
// annotation order.
func (et *EntityType) SemanticKeys() []string {
	value, ok := et.Annotations.Get(CommonSemanticKey)
	if !ok || value.Kind != KindCollection {
		return nil
	}
	keys := make([]string, 0, len(value.Collection))
	for _, item := range value.Collection {
		if path := item.AsPath(); path != "" {
			keys = append(keys, path)
		}
	}
	return keys
}

// CustomAggregates returns the qualifier (aggregatable property name) of every
// Aggregation.CustomAggregate annotation on the type.
func (et *EntityType) CustomAggregates() []string {
	return et.Annotations.Qualifiers(AggregationCustomAggregate)
}

// Arena returns the owning metadata graph.
func (et *EntityType) Arena() *ConvertedMetadata {
	return et.arena
}

// Property is a structural property of an entity type.
type Property struct {
	Name        string
	Type        string // Edm type name, e.g. Edm.String
	Nullable    bool
	MaxLength   int
	Precision   int
	Scale       int
	Annotations AnnotationMap
}

// IsComputed reports Core.Computed.
func (p *Property) IsComputed() bool {
	return p.Annotations.True(CoreComputed)
}

// IsImmutable reports Core.Immutable.
func (p *Property) IsImmutable() bool {
	return p.Annotations.True(CoreImmutable)
}

// IsHidden reports a statically true UI.Hidden.
func (p *Property) IsHidden() bool {
	return p.Annotations.True(UIHidden)
}

// TextPropertyPath returns the Common.Text target path, or "".
func (p *Property) TextPropertyPath() string {
	if v, ok := p.Annotations.Get(CommonText); ok {
		return v.AsPath()
	}
	return ""
}

// TextArrangement returns the Common.TextArrangement enum member of the
// Common.Text annotation, or "".
func (p *Property) TextArrangement() string {
	if v, ok := p.Annotations.Get(CommonTextArrangement); ok {
		return v.AsEnumMember()
	}
	return ""
}

// UnitPropertyPath returns the Measures.Unit target path, or "".
func (p *Property) UnitPropertyPath() string {
	if v, ok := p.Annotations.Get(MeasuresUnit); ok {
		return v.AsPath()
	}
	return ""
}

// CurrencyPropertyPath returns the Measures.ISOCurrency target path, or "".
func (p *Property) CurrencyPropertyPath() string {
	if v, ok := p.Annotations.Get(MeasuresISOCurrency); ok {
		return v.AsPath()
	}
	return ""
}

// TimezonePropertyPath returns the Common.Timezone target path, or "".
func (p *Property) TimezonePropertyPath() string {
	if v, ok := p.Annotations.Get(CommonTimezone); ok {
		return v.AsPath()
	}
	return ""
}

// IsComplex reports whether the property type lives outside the Edm namespace,
// which marks complex-typed properties in this arena.
func (p *Property) IsComplex() bool {
	return !strings.HasPrefix(p.Type, "Edm.")
}

// NavigationProperty is an edge of the schema graph. TargetTypeName is the FQN
// of the target entity type; resolution goes through the arena.
type NavigationProperty struct {
	Name                   string
	TargetTypeName         string
	IsCollection           bool
	ContainsTarget         bool
	Partner                string
	ReferentialConstraints map[string]string
	Annotations            AnnotationMap
}

// EntitySet is a container child binding an entity type to a collection.
type EntitySet struct {
	Name           string
	EntityTypeName string
	// NavigationBindings maps a navigation property path to the name of the
	// target entity set.
	NavigationBindings map[string]string
	Annotations        AnnotationMap

	arena *ConvertedMetadata
}

// EntityType resolves the set's entity type through the arena.
func (es *EntitySet) EntityType() *EntityType {
	et, ok := es.arena.EntityType(es.EntityTypeName)
	if !ok {
		panic(fmt.Sprintf("metadata: entity set %q references unknown type %q", es.Name, es.EntityTypeName))
	}
	return et
}

// NavigationTarget resolves the entity set bound to a navigation path, or nil.
func (es *EntitySet) NavigationTarget(navPath string) *EntitySet {
	targetName, ok := es.NavigationBindings[navPath]
	if !ok {
		return nil
	}
	target, _ := es.arena.EntitySet(targetName)
	return target
}

// IsDraftRoot reports Common.DraftRoot.
func (es *EntitySet) IsDraftRoot() bool {
	_, ok := es.Annotations.Get(CommonDraftRoot)
	return ok
}

// IsDraftNode reports Common.DraftNode.
func (es *EntitySet) IsDraftNode() bool {
	_, ok := es.Annotations.Get(CommonDraftNode)
	return ok
}

// IsStickySupported reports Session.StickySessionSupported.
func (es *EntitySet) IsStickySupported() bool {
	_, ok := es.Annotations.Get(SessionStickySessionSupported)
	return ok
}

// NewActionName returns the NewAction of the set's draft root or sticky
// session annotation, or "".
func (es *EntitySet) NewActionName() string {
	for _, term := range []string{CommonDraftRoot, SessionStickySessionSupported} {
		if v, ok := es.Annotations.Get(term); ok && v.Kind == KindRecord {
			if action, ok := v.Record.Fields["NewAction"]; ok {
				return action.AsString()
			}
		}
	}
	return ""
}

// restrictionField extracts one field of a Capabilities restriction record.
// Missing annotations and missing fields both yield Null, which readers treat
// as "unrestricted".
func (es *EntitySet) restrictionField(term, field string) Value {
	v, ok := es.Annotations.Get(term)
	if !ok || v.Kind != KindRecord {
		return NullValue()
	}
	f, ok := v.Record.Fields[field]
	if !ok {
		return NullValue()
	}
	return f
}

// Insertable returns the Capabilities.InsertRestrictions/Insertable value.
func (es *EntitySet) Insertable() Value {
	return es.restrictionField(CapabilitiesInsertRestrictions, "Insertable")
}

// Updatable returns the Capabilities.UpdateRestrictions/Updatable value.
func (es *EntitySet) Updatable() Value {
	return es.restrictionField(CapabilitiesUpdateRestrictions, "Updatable")
}

// Deletable returns the Capabilities.DeleteRestrictions/Deletable value.
func (es *EntitySet) Deletable() Value {
	return es.restrictionField(CapabilitiesDeleteRestrictions, "Deletable")
}

// Singleton is a single-instance container child.
type Singleton struct {
	Name           string
	EntityTypeName string
	Annotations    AnnotationMap

	arena *ConvertedMetadata
}

// EntityType resolves the singleton's entity type through the arena.
func (s *Singleton) EntityType() *EntityType {
	et, ok := s.arena.EntityType(s.EntityTypeName)
	if !ok {
		panic(fmt.Sprintf("metadata: singleton %q references unknown type %q", s.Name, s.EntityTypeName))
	}
	return et
}

// ActionParameter describes one parameter of an action or function.
type ActionParameter struct {
	Name     string
	Type     string
	Nullable bool
}

// Action is a bound or unbound action/function of the schema.
type Action struct {
	Name                 string
	FullyQualifiedName   string
	IsBound              bool
	IsFunction           bool
	BindingParameterType string // FQN of the binding entity type for bound actions
	Parameters           []ActionParameter
	ReturnTypeName       string
	ReturnsCollection    bool
	Annotations          AnnotationMap

	arena *ConvertedMetadata
}

func (a *Action) arenaKey() string {
	if a.IsBound && a.BindingParameterType != "" {
		return a.FullyQualifiedName + "(" + a.BindingParameterType + ")"
	}
	return a.FullyQualifiedName
}

// OperationAvailable returns the Core.OperationAvailable value. Null means the
// action is unconditionally available.
func (a *Action) OperationAvailable() Value {
	v, ok := a.Annotations.Get(CoreOperationAvailable)
	if !ok {
		return NullValue()
	}
	return v
}

// ProgrammingModel identifies the server-side edit-session strategy of an
// entity set.
type ProgrammingModel string

const (
	ProgrammingModelDraft    ProgrammingModel = "Draft"
	ProgrammingModelSticky   ProgrammingModel = "Sticky"
	ProgrammingModelNonDraft ProgrammingModel = "NonDraft"
)

// ProgrammingModelOf classifies an entity set. Draft wins over sticky when a
// service (incorrectly) annotates both.
func ProgrammingModelOf(es *EntitySet) ProgrammingModel {
	switch {
	case es == nil:
		return ProgrammingModelNonDraft
	case es.IsDraftRoot() || es.IsDraftNode():
		return ProgrammingModelDraft
	case es.IsStickySupported():
		return ProgrammingModelSticky
	default:
		return ProgrammingModelNonDraft
	}
}
