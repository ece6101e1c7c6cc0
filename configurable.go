package fiori

import "sort"

// ConfigurableObject is implemented by every element kind that supports
// manifest-side customization: actions, table columns, form elements.
type ConfigurableObject interface {
	ObjectKey() string
	ObjectPosition() *Position
}

// insertCustomElements merges manifest-declared elements into an
// annotation-derived sequence. Elements whose key matches an existing one are
// folded through the override callback, which enforces the per-kind
// allow-list; the rest are inserted at their configured position relative to
// an anchor key, default placement After, missing or unknown anchors append
// at the end.
func insertCustomElements[T ConfigurableObject](annotationElements []T, customElements []T, override func(existing *T, custom T)) []T {
	result := make([]T, len(annotationElements))
	copy(result, annotationElements)

	for _, custom := range customElements {
		if idx := indexOfKey(result, custom.ObjectKey()); idx >= 0 {
			if override != nil {
				override(&result[idx], custom)
			}
			continue
		}
		result = insertAtPosition(result, custom)
	}
	return result
}

func indexOfKey[T ConfigurableObject](elements []T, key string) int {
	for i, el := range elements {
		if el.ObjectKey() == key {
			return i
		}
	}
	return -1
}

func insertAtPosition[T ConfigurableObject](elements []T, custom T) []T {
	pos := custom.ObjectPosition()
	if pos == nil || pos.Anchor == "" {
		return append(elements, custom)
	}
	anchorIdx := indexOfKey(elements, pos.Anchor)
	if anchorIdx < 0 {
		return append(elements, custom)
	}
	insertIdx := anchorIdx + 1
	if pos.Placement == PlacementBefore {
		insertIdx = anchorIdx
	}
	elements = append(elements, custom)
	copy(elements[insertIdx+1:], elements[insertIdx:])
	elements[insertIdx] = custom
	return elements
}

// sortedKeys returns the map keys in lexical order. Manifest blocks are JSON
// objects without reliable ordering, so custom elements are processed in
// sorted-key order to keep conversion output deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
