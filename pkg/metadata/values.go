package metadata

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind tags the closed union of annotation value shapes.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindString
	KindInt
	KindDecimal
	KindPath
	KindPropertyPath
	KindAnnotationPath
	KindEnumMember
	KindRecord
	KindCollection
)

// Value is one vocabulary annotation value. Exactly the field matching Kind is
// meaningful; the zero value is Null.
type Value struct {
	Kind       ValueKind
	Bool       bool
	String     string
	Int        int64
	Decimal    decimal.Decimal
	Record     *Record
	Collection []Value
}

// Record is a structured annotation value carrying its $Type tag.
type Record struct {
	Type   string
	Fields map[string]Value
}

// Field returns the named record field, Null when absent.
func (r *Record) Field(name string) Value {
	if r == nil {
		return NullValue()
	}
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return NullValue()
}

func NullValue() Value               { return Value{Kind: KindNull} }
func BoolValue(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func StringValue(s string) Value     { return Value{Kind: KindString, String: s} }
func IntValue(i int64) Value         { return Value{Kind: KindInt, Int: i} }
func PathValue(p string) Value       { return Value{Kind: KindPath, String: p} }
func PropertyPath(p string) Value    { return Value{Kind: KindPropertyPath, String: p} }
func AnnotationPath(p string) Value  { return Value{Kind: KindAnnotationPath, String: p} }
func EnumValue(member string) Value  { return Value{Kind: KindEnumMember, String: member} }
func RecordValue(r *Record) Value    { return Value{Kind: KindRecord, Record: r} }
func CollectionOf(vs ...Value) Value { return Value{Kind: KindCollection, Collection: vs} }

// DecimalValue parses s as an Edm.Decimal constant; invalid input yields Null.
func DecimalValue(s string) Value {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return NullValue()
	}
	return Value{Kind: KindDecimal, Decimal: d}
}

// IsNull reports the Null kind.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// StaticBool returns the boolean value when the annotation is a compile-time
// constant. Null counts as known-false only when treatNullAsFalse drives the
// caller; here Null is simply not known.
func (v Value) StaticBool() (value, known bool) {
	if v.Kind == KindBool {
		return v.Bool, true
	}
	return false, false
}

// IsStaticTrue reports a constant true value.
func (v Value) IsStaticTrue() bool {
	return v.Kind == KindBool && v.Bool
}

// IsStaticFalse reports a constant false value.
func (v Value) IsStaticFalse() bool {
	return v.Kind == KindBool && !v.Bool
}

// IsDynamic reports a path-valued annotation whose outcome is only known at
// runtime.
func (v Value) IsDynamic() bool {
	return v.Kind == KindPath
}

// AsString returns the textual payload for string-like kinds, "" otherwise.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString, KindEnumMember, KindPath, KindPropertyPath, KindAnnotationPath:
		return v.String
	default:
		return ""
	}
}

// AsPath returns the path payload for path-like kinds, "" otherwise.
func (v Value) AsPath() string {
	switch v.Kind {
	case KindPath, KindPropertyPath, KindAnnotationPath:
		return v.String
	default:
		return ""
	}
}

// AsEnumMember strips the enum type prefix and returns the bare member name.
func (v Value) AsEnumMember() string {
	if v.Kind != KindEnumMember {
		return ""
	}
	if idx := strings.LastIndex(v.String, "/"); idx >= 0 {
		return v.String[idx+1:]
	}
	return v.String
}

// AnnotationMap stores annotations keyed by "Term" or "Term#Qualifier".
type AnnotationMap map[string]Value

// NewAnnotationMap builds a map from alternating term, value pairs; the
// variadic ctor keeps fixture setup in tests compact.
func NewAnnotationMap() AnnotationMap {
	return AnnotationMap{}
}

// Set stores an unqualified annotation and returns the map for chaining.
func (am AnnotationMap) Set(term string, v Value) AnnotationMap {
	am[term] = v
	return am
}

// SetQualified stores a qualified annotation.
func (am AnnotationMap) SetQualified(term, qualifier string, v Value) AnnotationMap {
	am[term+"#"+qualifier] = v
	return am
}

// Get returns the unqualified annotation for term.
func (am AnnotationMap) Get(term string) (Value, bool) {
	v, ok := am[term]
	return v, ok
}

// GetQualified returns the annotation for term with the given qualifier; an
// empty qualifier falls back to the unqualified term.
func (am AnnotationMap) GetQualified(term, qualifier string) (Value, bool) {
	if qualifier == "" {
		return am.Get(term)
	}
	v, ok := am[term+"#"+qualifier]
	return v, ok
}

// True reports an unqualified annotation whose value is constant true. A
// tag-style annotation present with a Null value also counts as true,
// matching vocabulary tag term defaults.
func (am AnnotationMap) True(term string) bool {
	v, ok := am.Get(term)
	if !ok {
		return false
	}
	return v.IsStaticTrue() || v.IsNull()
}

// Qualifiers returns every qualifier under which term is annotated, sorted.
func (am AnnotationMap) Qualifiers(term string) []string {
	var out []string
	prefix := term + "#"
	for key := range am {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key[len(prefix):])
		}
	}
	sort.Strings(out)
	return out
}
