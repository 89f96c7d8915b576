package caselaw

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	inlineSpace  = regexp.MustCompile(`[ \t\f\r]+`)
)

// opinionText returns the best text representation of an opinion
func opinionText(op Opinion) string {
	if t := strings.TrimSpace(op.PlainText); t != "" {
		return t
	}
	for _, h := range []string{op.HTMLWithCitations, op.HTML, op.HTMLLawbox, op.XMLHarvard} {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if t := HTMLToText(h); t != "" {
			return t
		}
	}
	return ""
}

// HTMLToText flattens opinion markup to text, keeping paragraph breaks
func HTMLToText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}
	walk(doc)

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	text := strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "blockquote", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "section", "article", "center", "opinion":
		return true
	}
	return false
}
