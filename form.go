package fiori

import (
	"fmt"

	"github.com/goliatone/go-fiori/pkg/bindings"
	"github.com/goliatone/go-fiori/pkg/metadata"
)

// FormElement is one field of a form container.
type FormElement struct {
	Key             string       `json:"key"`
	Origin          ColumnOrigin `json:"origin"`
	Label           string       `json:"label,omitempty"`
	RelativePath    string       `json:"relativePath,omitempty"`
	Template        string       `json:"template,omitempty"`
	CompiledVisible string       `json:"visible,omitempty"`
	Position        *Position    `json:"position,omitempty"`
}

// ObjectKey implements ConfigurableObject.
func (e FormElement) ObjectKey() string {
	return e.Key
}

// ObjectPosition implements ConfigurableObject.
func (e FormElement) ObjectPosition() *Position {
	return e.Position
}

// FormContainer groups the elements of one field group reference.
type FormContainer struct {
	ID             string        `json:"id"`
	Label          string        `json:"label,omitempty"`
	AnnotationPath string        `json:"annotationPath"`
	Elements       []FormElement `json:"elements"`
}

// FormDefinition is the converter output bundle for one form section.
type FormDefinition struct {
	ID                     string          `json:"id"`
	UseFormContainerLabels bool            `json:"useFormContainerLabels"`
	Containers             []FormContainer `json:"containers"`
}

// CreateFormDefinition converts a facet into a form definition: a collection
// facet yields one container per nested reference facet, a reference facet a
// single container. Facets without an ID get a generated one plus a
// diagnostic; the page still builds.
func CreateFormDefinition(cc *ConverterContext, facet metadata.Facet) (*FormDefinition, error) {
	id := facet.ID
	if id == "" {
		id = StableID("fe", "form", sanitizeIDPart(facet.Label+facet.Target))
		cc.AddIssue(IssueCategoryFacets, IssueSeverityMedium,
			fmt.Sprintf("facet %q has no ID, generated %q", facet.Label, id))
	}

	definition := &FormDefinition{
		ID:                     StableID("fe", "form", id),
		UseFormContainerLabels: facet.Kind == metadata.FacetKindCollection,
	}

	switch facet.Kind {
	case metadata.FacetKindCollection:
		for _, nested := range facet.Facets {
			if nested.Kind != metadata.FacetKindReference {
				cc.AddIssue(IssueCategoryFacets, IssueSeverityMedium,
					"nested collection facets are flattened to one level")
				continue
			}
			container, err := formContainerFromFacet(cc, nested)
			if err != nil {
				cc.AddIssue(IssueCategoryFacets, IssueSeverityMedium, err.Error())
				continue
			}
			definition.Containers = append(definition.Containers, container)
		}
	case metadata.FacetKindReference:
		container, err := formContainerFromFacet(cc, facet)
		if err != nil {
			return nil, err
		}
		definition.Containers = append(definition.Containers, container)
	}
	return definition, nil
}

func formContainerFromFacet(cc *ConverterContext, facet metadata.Facet) (FormContainer, error) {
	value, scoped, err := cc.EntityTypeAnnotation(facet.Target)
	if err != nil {
		return FormContainer{}, fmt.Errorf("fiori: facet target %q cannot be resolved: %v", facet.Target, err)
	}
	if value.Kind != metadata.KindRecord {
		return FormContainer{}, fmt.Errorf("fiori: facet target %q is not a field group", facet.Target)
	}

	id := facet.ID
	if id == "" {
		id = sanitizeIDPart(facet.Target)
	}
	container := FormContainer{
		ID:             StableID("fe", "formContainer", id),
		Label:          facet.Label,
		AnnotationPath: scoped.AbsoluteAnnotationPath(facet.Target),
	}

	relative := scoped.RelativeModelPathFunction()
	elements := formElementsFromFieldGroup(scoped, value.Record, relative)

	controlConfig := scoped.ManifestControlConfiguration(facet.Target)
	custom := customFormElements(elements, controlConfig.Fields)
	container.Elements = insertCustomElements(elements, custom, func(existing *FormElement, c FormElement) {
		if c.Label != "" {
			existing.Label = c.Label
		}
		if c.Position != nil {
			existing.Position = c.Position
		}
	})
	return container, nil
}

func formElementsFromFieldGroup(cc *ConverterContext, fieldGroup *metadata.Record, relative func(string) string) []FormElement {
	data := fieldGroup.Field("Data")
	var elements []FormElement
	for _, item := range data.Collection {
		if item.Kind != metadata.KindRecord {
			continue
		}
		df, err := metadata.DecodeDataField(item.Record)
		if err != nil {
			cc.AddIssue(IssueCategoryAnnotation, IssueSeverityLow, err.Error())
			continue
		}
		if df.Kind != metadata.DataFieldKindGeneric && df.Kind != metadata.DataFieldKindWithURL {
			continue
		}
		label := df.Label
		if label == "" {
			if prop := propertyAtPath(cc.EntityType(), df.Value); prop != nil {
				if v, ok := prop.Annotations.Get(metadata.CommonLabel); ok {
					label = v.AsString()
				}
			}
		}
		elements = append(elements, FormElement{
			Key:             KeyForDataField(df),
			Origin:          ColumnOriginAnnotation,
			Label:           label,
			RelativePath:    df.Value,
			CompiledVisible: bindings.Compile(notHiddenExpression(df.Hidden, relative)),
		})
	}
	return elements
}

// customFormElements builds the manifest-declared fields of a container.
// Keys matching an annotation element stay as-is so the override binds; new
// fields get a normalized custom key.
func customFormElements(elements []FormElement, fields map[string]ManifestFormElement) []FormElement {
	existingKeys := map[string]bool{}
	for _, e := range elements {
		existingKeys[e.Key] = true
	}
	var custom []FormElement
	for _, rawKey := range sortedKeys(fields) {
		field := fields[rawKey]
		key := rawKey
		if !existingKeys[rawKey] {
			key = KeyForCustomElement("CustomFormElement", rawKey)
		}
		custom = append(custom, FormElement{
			Key:             key,
			Origin:          ColumnOriginCustom,
			Label:           field.Label,
			Template:        field.Template,
			Position:        field.Position,
			CompiledVisible: "true",
		})
	}
	return custom
}
