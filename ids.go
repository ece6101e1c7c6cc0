package fiori

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ettle/strcase"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

const maxStableIDLength = 64

// StableID joins id segments with the "::" separator used throughout the
// generated configuration. Overlong results keep a readable prefix and gain
// an xxhash suffix so ids stay unique and stable across conversions.
func StableID(segments ...string) string {
	id := strings.Join(segments, "::")
	if len(id) <= maxStableIDLength {
		return id
	}
	sum := xxhash.Sum64String(id)
	return fmt.Sprintf("%s::%08x", id[:maxStableIDLength-10], uint32(sum))
}

// KeyForDataField derives the deterministic key of an annotation data field.
// The key encodes the variant and its identifying payload; slashes in
// property paths become id separators.
func KeyForDataField(df metadata.DataField) string {
	switch df.Kind {
	case metadata.DataFieldKindForAction:
		return StableID("DataFieldForAction", sanitizeIDPart(df.Action))
	case metadata.DataFieldKindForIntentBasedNavigation:
		return StableID("DataFieldForIntentBasedNavigation", sanitizeIDPart(df.SemanticObject), sanitizeIDPart(df.IBNAction))
	case metadata.DataFieldKindForAnnotation:
		return StableID("DataFieldForAnnotation", sanitizeIDPart(df.Target))
	default:
		return StableID("DataField", sanitizeIDPart(df.Value))
	}
}

// KeyForProperty derives the key of a synthesized technical column. The
// Property prefix keeps these keys disjoint from data-field keys.
func KeyForProperty(path string) string {
	return StableID("Property", sanitizeIDPart(path))
}

// KeyForCustomElement derives the key of a manifest-declared element. The
// manifest key is normalized to Pascal case so generated ids stay well formed
// regardless of the author's casing.
func KeyForCustomElement(kind, manifestKey string) string {
	return StableID(kind, strcase.ToPascal(manifestKey))
}

func sanitizeIDPart(part string) string {
	part = strings.ReplaceAll(part, "/", "::")
	part = strings.ReplaceAll(part, "@", "")
	part = strings.ReplaceAll(part, "#", "::")
	part = strings.ReplaceAll(part, "(", "::")
	part = strings.ReplaceAll(part, ")", "")
	return part
}
