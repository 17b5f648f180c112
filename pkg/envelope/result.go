// Package envelope defines the request/response envelope protocol and the
// discriminated result payload union carried inside it.
package envelope

// ResultKind discriminates the payload shapes a capability may return.
type ResultKind string

const (
	// KindText is a plain text result.
	KindText ResultKind = "text"
	// KindCode is a single code artifact.
	KindCode ResultKind = "code"
	// KindCodeSet is an ordered set of code artifacts.
	KindCodeSet ResultKind = "code_set"
	// KindLinkReport is a structured link-analysis report.
	KindLinkReport ResultKind = "link_report"
)

// ResultPayload is the sealed union of capability result shapes. Only the
// types in this package implement it, so a switch over the concrete types
// has total coverage.
type ResultPayload interface {
	Kind() ResultKind
	sealedResult()
}

// TextResult is a plain text payload.
type TextResult struct {
	Content string `json:"content"`
}

// Kind returns KindText.
func (TextResult) Kind() ResultKind { return KindText }

func (TextResult) sealedResult() {}

// CodeBlock is one code artifact. Filename is optional; order within a set
// is display order.
type CodeBlock struct {
	Language string `json:"language"`
	Content  string `json:"content"`
	Filename string `json:"filename,omitempty"`
}

// CodeResult carries exactly one code artifact.
type CodeResult struct {
	Block CodeBlock `json:"block"`
}

// Kind returns KindCode.
func (CodeResult) Kind() ResultKind { return KindCode }

func (CodeResult) sealedResult() {}

// CodeSetResult carries one or more code artifacts in display order.
type CodeSetResult struct {
	Blocks []CodeBlock `json:"blocks"`
}

// Kind returns KindCodeSet.
func (CodeSetResult) Kind() ResultKind { return KindCodeSet }

func (CodeSetResult) sealedResult() {}

// LinkRecord is one checked link in a link-analysis report.
type LinkRecord struct {
	URL            string `json:"url"`
	AnchorText     string `json:"anchorText"`
	StatusCode     int    `json:"statusCode,omitempty"`
	ResponseTimeMs int    `json:"responseTimeMs,omitempty"`
	Error          string `json:"error,omitempty"`
}

// LinkReportResult partitions checked links into three disjoint ordered
// sequences. A given link occurrence appears in exactly one of them.
type LinkReportResult struct {
	OK     []LinkRecord `json:"ok"`
	Broken []LinkRecord `json:"broken"`
	Slow   []LinkRecord `json:"slow"`
}

// Kind returns KindLinkReport.
func (LinkReportResult) Kind() ResultKind { return KindLinkReport }

func (LinkReportResult) sealedResult() {}

// Total returns the number of links across all three sequences.
func (r LinkReportResult) Total() int {
	return len(r.OK) + len(r.Broken) + len(r.Slow)
}
