package metadata

import (
	"fmt"
	"strings"
)

// SegmentKind classifies one step of a resolved metadata path.
type SegmentKind int

const (
	SegmentEntitySet SegmentKind = iota
	SegmentSingleton
	SegmentNavigation
	SegmentProperty
	SegmentAnnotation
)

// PathSegment is one visited object of a path resolution. Exactly one of the
// typed fields matching Kind is set.
type PathSegment struct {
	Kind       SegmentKind
	Name       string
	EntitySet  *EntitySet
	Singleton  *Singleton
	Navigation *NavigationProperty
	Property   *Property
	Annotation Value
}

// ResolvedTarget is the outcome of walking an absolute metadata path: the
// ordered visited objects plus the classified endpoints converters need to
// build a data model object path.
type ResolvedTarget struct {
	Path                 string
	Segments             []PathSegment
	StartingEntitySet    *EntitySet
	TargetEntitySet      *EntitySet
	TargetEntityType     *EntityType
	NavigationProperties []*NavigationProperty

	// Target is the innermost resolved object: a Value for annotation
	// segments, otherwise *Property, *NavigationProperty, *EntitySet or
	// *Singleton.
	Target any
}

// ResolvePath walks an absolute `/`-separated path from the entity container,
// classifying each segment as entity set, singleton, navigation property,
// structural property or `@`-annotation. The target entity set is tracked
// through navigation property bindings and may end up nil for containment
// navigations without an own set.
func (m *ConvertedMetadata) ResolvePath(path string) (*ResolvedTarget, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("metadata: cannot resolve empty path")
	}

	segments := strings.Split(trimmed, "/")
	resolved := &ResolvedTarget{Path: path}

	var currentType *EntityType
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("metadata: empty segment in path %q", path)
		}

		// Annotations may be attached to the current scope ("@Term") or to a
		// property within the segment ("Property@Term").
		if at := strings.Index(seg, "@"); at >= 0 {
			if at > 0 {
				propName := seg[:at]
				if currentType == nil {
					return nil, fmt.Errorf("metadata: property segment %q outside an entity scope in %q", propName, path)
				}
				if err := m.resolveTypeSegment(resolved, &currentType, propName, path, i == len(segments)-1); err != nil {
					return nil, err
				}
			}
			term := seg[at+1:]
			value, err := m.resolveAnnotationSegment(resolved, currentType, term, path)
			if err != nil {
				return nil, err
			}
			resolved.Segments = append(resolved.Segments, PathSegment{Kind: SegmentAnnotation, Name: term, Annotation: value})
			resolved.Target = value
			continue
		}

		if i == 0 {
			if es, ok := m.EntitySet(seg); ok {
				resolved.StartingEntitySet = es
				resolved.TargetEntitySet = es
				currentType = es.EntityType()
				resolved.TargetEntityType = currentType
				resolved.Segments = append(resolved.Segments, PathSegment{Kind: SegmentEntitySet, Name: seg, EntitySet: es})
				resolved.Target = es
				continue
			}
			if s, ok := m.Singleton(seg); ok {
				currentType = s.EntityType()
				resolved.TargetEntityType = currentType
				resolved.Segments = append(resolved.Segments, PathSegment{Kind: SegmentSingleton, Name: seg, Singleton: s})
				resolved.Target = s
				continue
			}
			return nil, fmt.Errorf("metadata: unknown entity set or singleton %q in path %q", seg, path)
		}

		if currentType == nil {
			return nil, fmt.Errorf("metadata: segment %q has no enclosing entity type in path %q", seg, path)
		}
		if err := m.resolveTypeSegment(resolved, &currentType, seg, path, i == len(segments)-1); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}

// resolveTypeSegment handles a navigation or structural property step against
// the current entity type, updating the running target classification.
func (m *ConvertedMetadata) resolveTypeSegment(resolved *ResolvedTarget, currentType **EntityType, seg, path string, last bool) error {
	et := *currentType
	if np := et.NavigationProperty(seg); np != nil {
		target, ok := m.EntityType(np.TargetTypeName)
		if !ok {
			return fmt.Errorf("metadata: navigation %q targets unknown type %q", seg, np.TargetTypeName)
		}
		resolved.NavigationProperties = append(resolved.NavigationProperties, np)
		if resolved.TargetEntitySet != nil {
			resolved.TargetEntitySet = resolved.TargetEntitySet.NavigationTarget(seg)
		}
		*currentType = target
		resolved.TargetEntityType = target
		resolved.Segments = append(resolved.Segments, PathSegment{Kind: SegmentNavigation, Name: seg, Navigation: np})
		resolved.Target = np
		return nil
	}
	if p := et.Property(seg); p != nil {
		if !last {
			// Complex property drill-down is not modeled in this arena;
			// converters only address terminal structural properties.
			return fmt.Errorf("metadata: property %q is not the final segment of %q", seg, path)
		}
		resolved.Segments = append(resolved.Segments, PathSegment{Kind: SegmentProperty, Name: seg, Property: p})
		resolved.Target = p
		return nil
	}
	return fmt.Errorf("metadata: %q has no property or navigation %q (path %q)", et.FullyQualifiedName, seg, path)
}

// resolveAnnotationSegment looks the term up on the innermost property when
// the walk ended on one, then on the entity type, then on the entity set
// (capabilities and draft terms live there).
func (m *ConvertedMetadata) resolveAnnotationSegment(resolved *ResolvedTarget, currentType *EntityType, term, path string) (Value, error) {
	term, qualifier := splitTermQualifier(term)

	if p, ok := resolved.Target.(*Property); ok {
		if v, found := p.Annotations.GetQualified(term, qualifier); found {
			return v, nil
		}
		return NullValue(), fmt.Errorf("metadata: property %q carries no annotation %q (path %q)", p.Name, term, path)
	}
	if currentType != nil {
		if v, found := currentType.Annotations.GetQualified(term, qualifier); found {
			return v, nil
		}
	}
	if resolved.TargetEntitySet != nil {
		if v, found := resolved.TargetEntitySet.Annotations.GetQualified(term, qualifier); found {
			return v, nil
		}
	}
	return NullValue(), fmt.Errorf("metadata: annotation %q not found (path %q)", term, path)
}

func splitTermQualifier(term string) (string, string) {
	if idx := strings.Index(term, "#"); idx >= 0 {
		return term[:idx], term[idx+1:]
	}
	return term, ""
}
