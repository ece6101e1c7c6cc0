package fiori

import "fmt"

// IssueCategory groups conversion diagnostics by the kind of source artifact
// that caused them.
type IssueCategory string

const (
	IssueCategoryAnnotation IssueCategory = "Annotation"
	IssueCategoryFacets     IssueCategory = "Facets"
	IssueCategoryManifest   IssueCategory = "Manifest"
)

// IssueSeverity ranks conversion diagnostics.
type IssueSeverity int

const (
	IssueSeverityLow IssueSeverity = iota
	IssueSeverityMedium
	IssueSeverityHigh
)

func (s IssueSeverity) String() string {
	switch s {
	case IssueSeverityLow:
		return "Low"
	case IssueSeverityMedium:
		return "Medium"
	default:
		return "High"
	}
}

// Issue is one non-fatal diagnostic recorded during conversion. Fatal
// configuration errors abort the conversion instead and never land here.
type Issue struct {
	Category    IssueCategory `json:"category"`
	Severity    IssueSeverity `json:"severity"`
	Message     string        `json:"message"`
	SubCategory string        `json:"subCategory,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s/%s] %s", i.Category, i.Severity, i.Message)
}

// IssueManager is the diagnostics sink shared by every converter of one
// conversion pass.
type IssueManager struct {
	issues []Issue
}

// NewIssueManager returns an empty sink.
func NewIssueManager() *IssueManager {
	return &IssueManager{}
}

// AddIssue records a diagnostic.
func (im *IssueManager) AddIssue(category IssueCategory, severity IssueSeverity, message string, subCategory ...string) {
	issue := Issue{Category: category, Severity: severity, Message: message}
	if len(subCategory) > 0 {
		issue.SubCategory = subCategory[0]
	}
	im.issues = append(im.issues, issue)
}

// Issues returns the recorded diagnostics in insertion order.
func (im *IssueManager) Issues() []Issue {
	out := make([]Issue, len(im.issues))
	copy(out, im.issues)
	return out
}
