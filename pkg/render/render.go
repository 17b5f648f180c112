// Package render turns response envelopes into a presentation tree and
// serializes that tree to HTML. Rendering is a pure function of the
// envelope and branches exhaustively over the result union.
package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/GYFX35/AI-services/pkg/envelope"
)

// Section titles and notices for link-analysis reports.
const (
	TitleBrokenLinks = "Broken Links"
	TitleSlowLinks   = "Slow Links"
	TitleOKLinks     = "OK Links"
	NoticeNoLinks    = "No links found to analyze."
)

// placeholder fills table cells whose value is absent.
const placeholder = "—"

// NodeType discriminates presentation tree nodes.
type NodeType string

const (
	// NodeRoot is the top-level container.
	NodeRoot NodeType = "root"
	// NodeText is a literal text node.
	NodeText NodeType = "text"
	// NodeNotice is an informational notice.
	NodeNotice NodeType = "notice"
	// NodeError is an error notice carrying a failure message.
	NodeError NodeType = "error"
	// NodeCode is a code container with optional filename header and a
	// syntax-tagged body.
	NodeCode NodeType = "code"
	// NodeTable is a titled table.
	NodeTable NodeType = "table"
)

// Node is one element of the presentation tree.
type Node struct {
	Type     NodeType
	Text     string     // NodeText, NodeNotice, NodeError
	Title    string     // NodeTable title; NodeCode filename header
	Language string     // NodeCode
	Markup   string     // NodeCode: escaped, syntax-tagged body
	Columns  []string   // NodeTable
	Rows     [][]string // NodeTable
	Children []*Node    // NodeRoot
}

// Render builds the presentation tree for a response envelope. Failure
// envelopes render as a single error notice; success envelopes branch on
// the result kind. The switch covers the sealed union exhaustively.
func Render(env *envelope.ResponseEnvelope) *Node {
	if env.Status == envelope.StatusError {
		return &Node{Type: NodeRoot, Children: []*Node{
			{Type: NodeError, Text: env.Failure.Text},
		}}
	}

	switch result := env.Result.(type) {
	case envelope.TextResult:
		return &Node{Type: NodeRoot, Children: []*Node{
			{Type: NodeText, Text: result.Content},
		}}
	case envelope.CodeResult:
		return &Node{Type: NodeRoot, Children: []*Node{codeNode(result.Block)}}
	case envelope.CodeSetResult:
		children := make([]*Node, 0, len(result.Blocks))
		for _, block := range result.Blocks {
			children = append(children, codeNode(block))
		}
		return &Node{Type: NodeRoot, Children: children}
	case envelope.LinkReportResult:
		return renderLinkReport(result)
	}
	panic(fmt.Sprintf("render: result type %T outside the sealed union", env.Result))
}

func codeNode(block envelope.CodeBlock) *Node {
	return &Node{
		Type:     NodeCode,
		Title:    block.Filename,
		Language: block.Language,
		Markup:   Highlight(block.Language, block.Content),
	}
}

var linkColumns = []string{"URL", "Anchor Text", "Status", "Response Time", "Error"}

func renderLinkReport(report envelope.LinkReportResult) *Node {
	if report.Total() == 0 {
		return &Node{Type: NodeRoot, Children: []*Node{
			{Type: NodeNotice, Text: NoticeNoLinks},
		}}
	}

	children := []*Node{
		{Type: NodeText, Text: fmt.Sprintf("Scanned %d links.", report.Total())},
	}
	// Fixed display order: broken first, then slow, then ok. Empty
	// sequences produce no table.
	sections := []struct {
		title   string
		records []envelope.LinkRecord
	}{
		{TitleBrokenLinks, report.Broken},
		{TitleSlowLinks, report.Slow},
		{TitleOKLinks, report.OK},
	}
	for _, section := range sections {
		if len(section.records) == 0 {
			continue
		}
		rows := make([][]string, 0, len(section.records))
		for _, record := range section.records {
			rows = append(rows, linkRow(record))
		}
		children = append(children, &Node{
			Type:    NodeTable,
			Title:   section.title,
			Columns: linkColumns,
			Rows:    rows,
		})
	}
	return &Node{Type: NodeRoot, Children: children}
}

func linkRow(record envelope.LinkRecord) []string {
	status := placeholder
	if record.StatusCode > 0 {
		status = strconv.Itoa(record.StatusCode)
	}
	responseTime := placeholder
	if record.ResponseTimeMs > 0 {
		responseTime = fmt.Sprintf("%d ms", record.ResponseTimeMs)
	}
	errText := placeholder
	if record.Error != "" {
		errText = record.Error
	}
	return []string{record.URL, record.AnchorText, status, responseTime, errText}
}

// HTML serializes the presentation tree. All text fields are escaped here;
// NodeCode markup was escaped and tagged by Highlight and is written as-is.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	switch n.Type {
	case NodeRoot:
		for _, child := range n.Children {
			child.writeHTML(b)
		}
	case NodeText:
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString("</p>\n")
	case NodeNotice:
		b.WriteString(`<p class="notice">`)
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString("</p>\n")
	case NodeError:
		b.WriteString(`<p class="error">`)
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString("</p>\n")
	case NodeCode:
		b.WriteString(`<div class="code-block">`)
		if n.Title != "" {
			b.WriteString(`<div class="filename">`)
			b.WriteString(html.EscapeString(n.Title))
			b.WriteString("</div>")
		}
		fmt.Fprintf(b, `<pre><code class="language-%s">`, html.EscapeString(n.Language))
		b.WriteString(n.Markup)
		b.WriteString("</code></pre></div>\n")
	case NodeTable:
		b.WriteString("<h3>")
		b.WriteString(html.EscapeString(n.Title))
		b.WriteString("</h3>\n<table><thead><tr>")
		for _, col := range n.Columns {
			b.WriteString("<th>")
			b.WriteString(html.EscapeString(col))
			b.WriteString("</th>")
		}
		b.WriteString("</tr></thead><tbody>\n")
		for _, row := range n.Rows {
			b.WriteString("<tr>")
			for _, cell := range row {
				b.WriteString("<td>")
				b.WriteString(html.EscapeString(cell))
				b.WriteString("</td>")
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</tbody></table>\n")
	}
}
