// Package lyrics implements the lyrics lookup strategies.
package lyrics

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Predicate selects the elements whose text should be extracted.
type Predicate func(n *html.Node) bool

// ClassContains matches elements whose class attribute contains sub.
func ClassContains(sub string) Predicate {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == "class" && strings.Contains(a.Val, sub) {
				return true
			}
		}
		return false
	}
}

// ExtractText parses an HTML document and returns the text of every element
// matching match, in document order, blocks separated by a blank line.
// <br> becomes a newline; script and style contents and elements marked
// data-exclude-from-selection are dropped. A document without matches
// yields "".
func ExtractText(r io.Reader, match Predicate) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			return
		}
		if match(n) {
			if text := cleanBlock(textOf(n)); text != "" {
				blocks = append(blocks, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(strings.Join(blocks, "\n\n")), nil
}

// ExtractTextString is ExtractText over a string.
func ExtractTextString(doc string, match Predicate) (string, error) {
	return ExtractText(strings.NewReader(doc), match)
}

func skipped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return n.Type == html.CommentNode
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript:
		return true
	}
	for _, a := range n.Attr {
		if a.Key == "data-exclude-from-selection" && a.Val == "true" {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			return
		}
		switch {
		case n.Type == html.TextNode:
			// Source line breaks are plain whitespace in HTML
			sb.WriteString(strings.Map(func(r rune) rune {
				if r == '\n' || r == '\r' || r == '\t' {
					return ' '
				}
				return r
			}, n.Data))
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// cleanBlock collapses spaces within each line and trims the block,
// keeping blank lines between stanzas.
func cleanBlock(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
