package fiori

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-fiori/pkg/metadata"
)

// DataModelObjectPath is a resolved traversal through the metadata graph. It
// is created by path resolution and consumed immutably; re-scoping builds new
// values.
type DataModelObjectPath struct {
	StartingEntitySet    *metadata.EntitySet
	TargetEntitySet      *metadata.EntitySet
	TargetEntityType     *metadata.EntityType
	NavigationProperties []*metadata.NavigationProperty

	// TargetObject is the annotation value or schema element the path ends
	// on; nil when the path addresses the entity collection itself.
	TargetObject any

	// ContextLocation is the path of the innermost enclosing non-navigated
	// context; relative model paths are computed against it.
	ContextLocation *DataModelObjectPath
}

// ContextPath renders the absolute path of the traversal.
func (p *DataModelObjectPath) ContextPath() string {
	if p.StartingEntitySet == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(p.StartingEntitySet.Name)
	for _, nav := range p.NavigationProperties {
		b.WriteString("/")
		b.WriteString(nav.Name)
	}
	return b.String()
}

// RelativeNavigationPrefix returns the navigation segments between the
// context location and the target, joined as a model path prefix.
func (p *DataModelObjectPath) RelativeNavigationPrefix() string {
	skip := 0
	if p.ContextLocation != nil {
		skip = len(p.ContextLocation.NavigationProperties)
	}
	if skip > len(p.NavigationProperties) {
		skip = len(p.NavigationProperties)
	}
	var parts []string
	for _, nav := range p.NavigationProperties[skip:] {
		parts = append(parts, nav.Name)
	}
	return strings.Join(parts, "/")
}

// ConverterContext is the immutable per-scope view every converter receives:
// converted metadata, manifest settings, the diagnostics sink and the data
// model object path of the current annotation location. Re-scoping always
// returns a new instance.
type ConverterContext struct {
	meta            *metadata.ConvertedMetadata
	manifest        *ManifestWrapper
	issues          *IssueManager
	templateType    TemplateType
	dataModelPath   DataModelObjectPath
	baseContextPath string
	logger          Logger
}

// NewConverterContext builds the root context of a conversion pass for the
// manifest's context path.
func NewConverterContext(meta *metadata.ConvertedMetadata, manifest *ManifestWrapper, issues *IssueManager) (*ConverterContext, error) {
	contextPath := manifest.ContextPath()
	if contextPath == "" {
		return nil, goerrors.New("manifest configures no entity set or context path", goerrors.CategoryValidation)
	}
	return newContextFor(meta, manifest, issues, manifest.TemplateType(), contextPath, nil)
}

// NewConverterContextForControl builds a context outside of the page template
// pipeline, for converters invoked on demand for a single control bound to an
// entity set.
func NewConverterContextForControl(entitySetName string, meta *metadata.ConvertedMetadata, settings PageSettings) (*ConverterContext, error) {
	settings.EntitySet = entitySetName
	settings.ContextPath = "/" + entitySetName
	manifest := NewManifestWrapper(settings)
	return newContextFor(meta, manifest, NewIssueManager(), manifest.TemplateType(), settings.ContextPath, nil)
}

func newContextFor(meta *metadata.ConvertedMetadata, manifest *ManifestWrapper, issues *IssueManager, templateType TemplateType, contextPath string, contextLocation *DataModelObjectPath) (*ConverterContext, error) {
	resolved, err := meta.ResolvePath(contextPath)
	if err != nil {
		return nil, goerrors.New(fmt.Sprintf("cannot resolve context path %q: %v", contextPath, err), goerrors.CategoryValidation)
	}
	dataModelPath := dataModelPathFromResolved(resolved)
	dataModelPath.ContextLocation = contextLocation

	return &ConverterContext{
		meta:            meta,
		manifest:        manifest,
		issues:          issues,
		templateType:    templateType,
		dataModelPath:   dataModelPath,
		baseContextPath: "/" + strings.SplitN(strings.TrimPrefix(contextPath, "/"), "/", 2)[0],
		logger:          loggerFor(nil),
	}, nil
}

// dataModelPathFromResolved classifies a resolved metadata path into a data
// model object path.
func dataModelPathFromResolved(resolved *metadata.ResolvedTarget) DataModelObjectPath {
	return DataModelObjectPath{
		StartingEntitySet:    resolved.StartingEntitySet,
		TargetEntitySet:      resolved.TargetEntitySet,
		TargetEntityType:     resolved.TargetEntityType,
		NavigationProperties: resolved.NavigationProperties,
		TargetObject:         resolved.Target,
	}
}

// Metadata returns the shared metadata arena.
func (cc *ConverterContext) Metadata() *metadata.ConvertedMetadata {
	return cc.meta
}

// ManifestWrapper returns the manifest accessor of this pass.
func (cc *ConverterContext) ManifestWrapper() *ManifestWrapper {
	return cc.manifest
}

// IssueManager returns the diagnostics sink of this pass.
func (cc *ConverterContext) IssueManager() *IssueManager {
	return cc.issues
}

// AddIssue records a diagnostic on the shared sink.
func (cc *ConverterContext) AddIssue(category IssueCategory, severity IssueSeverity, message string) {
	cc.issues.AddIssue(category, severity, message)
}

// TemplateType returns the page archetype of this pass.
func (cc *ConverterContext) TemplateType() TemplateType {
	return cc.templateType
}

// DataModelPath returns the current traversal.
func (cc *ConverterContext) DataModelPath() DataModelObjectPath {
	return cc.dataModelPath
}

// EntityType returns the entity type at the current path. Callers assume it
// is always resolvable; a nil type means malformed metadata and panics.
func (cc *ConverterContext) EntityType() *metadata.EntityType {
	if cc.dataModelPath.TargetEntityType == nil {
		panic(fmt.Sprintf("converter context at %q has no entity type", cc.ContextPath()))
	}
	return cc.dataModelPath.TargetEntityType
}

// EntitySet returns the entity set at the current path; nil for containment
// navigations without their own set.
func (cc *ConverterContext) EntitySet() *metadata.EntitySet {
	return cc.dataModelPath.TargetEntitySet
}

// ContextPath returns the absolute path of the current scope.
func (cc *ConverterContext) ContextPath() string {
	return cc.dataModelPath.ContextPath()
}

// AbsoluteAnnotationPath prefixes a relative annotation path with the base
// context path. Already-absolute paths pass through unchanged, so the
// operation is idempotent.
func (cc *ConverterContext) AbsoluteAnnotationPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return cc.baseContextPath + "/" + path
}

// EntityTypeAnnotation resolves a possibly relative annotation path and
// returns the annotation value together with a context rescoped to the
// resolved location. Relative paths resolve against the current context path.
func (cc *ConverterContext) EntityTypeAnnotation(path string) (metadata.Value, *ConverterContext, error) {
	if !strings.Contains(path, "@") {
		return metadata.NullValue(), nil, goerrors.New(
			fmt.Sprintf("%q is not an annotation path", path), goerrors.CategoryValidation)
	}
	absolute := path
	if !strings.HasPrefix(absolute, "/") {
		absolute = cc.ContextPath() + "/" + absolute
	}
	resolved, err := cc.meta.ResolvePath(absolute)
	if err != nil {
		return metadata.NullValue(), nil, goerrors.New(
			fmt.Sprintf("cannot resolve annotation path %q: %v", absolute, err), goerrors.CategoryValidation)
	}
	value, ok := resolved.Target.(metadata.Value)
	if !ok {
		return metadata.NullValue(), nil, goerrors.New(
			fmt.Sprintf("path %q does not end on an annotation", absolute), goerrors.CategoryValidation)
	}

	current := cc.dataModelPath
	rescoped := *cc
	rescoped.dataModelPath = dataModelPathFromResolved(resolved)
	rescoped.dataModelPath.ContextLocation = &current
	return value, &rescoped, nil
}

// ConverterContextFor builds a brand-new root-like context for an arbitrary
// absolute context path, used when a converter switches to a navigation
// target's own entity set.
func (cc *ConverterContext) ConverterContextFor(contextPath string) (*ConverterContext, error) {
	return newContextFor(cc.meta, cc.manifest, cc.issues, cc.templateType, contextPath, nil)
}

// ForView returns a context whose manifest lookups prefer the named view's
// configuration over the page-level one.
func (cc *ConverterContext) ForView(viewKey string) *ConverterContext {
	scoped := *cc
	scoped.manifest = cc.manifest.ForView(viewKey)
	return &scoped
}

// RelativeModelPathFunction returns a closure capturing the current data
// model path by value. Deferred formatter arguments computed through the
// closure stay relative to the context as it was now, decoupled from any
// later re-scoping of the receiver.
func (cc *ConverterContext) RelativeModelPathFunction() func(string) string {
	captured := cc.dataModelPath
	prefix := captured.RelativeNavigationPrefix()
	return func(propertyPath string) string {
		if prefix == "" {
			return propertyPath
		}
		return prefix + "/" + propertyPath
	}
}

// ManifestControlConfiguration looks up the manifest block for an annotation.
// Fully qualified annotation names have their entity-type prefix stripped;
// plain relative paths are qualified with the base context path only when the
// manifest spans multiple entity sets and this context is not the default
// one.
func (cc *ConverterContext) ManifestControlConfiguration(pathOrTerm string) ControlConfiguration {
	key := pathOrTerm
	if at := strings.Index(key, "@"); at > 0 && strings.Contains(key[:at], ".") {
		key = key[at:]
	}
	if !strings.HasPrefix(key, "@") && !strings.HasPrefix(key, "/") {
		if cc.manifest.HasMultipleEntitySets() && cc.baseContextPath != "/"+cc.manifest.EntitySetName() {
			key = cc.baseContextPath + "/" + key
		}
	}
	return cc.manifest.ControlConfiguration(key)
}

// RelativeAnnotationPath strips the current context path from an absolute
// annotation path; paths outside the scope are returned unchanged.
func (cc *ConverterContext) RelativeAnnotationPath(absolute string) string {
	prefix := cc.ContextPath() + "/"
	if strings.HasPrefix(absolute, prefix) {
		return absolute[len(prefix):]
	}
	return absolute
}
