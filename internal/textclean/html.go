package textclean

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsHTMLDocument reports whether the text looks like an HTML document,
// checking the first 500 characters for an opening html tag.
func IsHTMLDocument(text string) bool {
	head := text
	if len(head) > 500 {
		head = head[:500]
	}
	return strings.Contains(strings.ToLower(head), "<html")
}

// dropTags are removed wholesale before text extraction.
var dropTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Header: true,
	atom.Footer: true,
	atom.Nav:    true,
	atom.Aside:  true,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// HTMLToMarkdown restores document structure from extractor HTML output:
// boilerplate containers are dropped, tables become Markdown tables with a
// separator row after the header, and h1-h6 become Markdown headings. All
// remaining text is emitted with newline separators.
func HTMLToMarkdown(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	var segments []string
	collectText(doc, &segments)
	return strings.Join(segments, "\n"), nil
}

func collectText(n *html.Node, segments *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*segments = append(*segments, t)
		}
		return
	case html.ElementNode:
		if dropTags[n.DataAtom] {
			return
		}
		if level, ok := headingLevels[n.DataAtom]; ok {
			if t := strings.TrimSpace(nodeText(n)); t != "" {
				*segments = append(*segments, strings.Repeat("#", level)+" "+t+"\n")
			}
			return
		}
		if n.DataAtom == atom.Table {
			if t := tableToMarkdown(n); t != "" {
				*segments = append(*segments, t)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, segments)
	}
}

// tableToMarkdown flattens a table into pipe-delimited rows.
func tableToMarkdown(table *html.Node) string {
	var rows []string
	var cellCount int

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					text := strings.ReplaceAll(strings.TrimSpace(nodeText(c)), "\n", " ")
					cells = append(cells, text)
				}
			}
			if len(cells) > 0 {
				cellCount = len(cells)
				rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	if len(rows) == 0 {
		return ""
	}
	sep := make([]string, cellCount)
	for i := range sep {
		sep[i] = "---"
	}
	out := []string{rows[0], "| " + strings.Join(sep, " | ") + " |"}
	out = append(out, rows[1:]...)
	return strings.Join(out, "\n") + "\n"
}

// nodeText returns the concatenated text content of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
