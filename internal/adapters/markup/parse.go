package markup

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hylla/rota/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseAssignments reads every td.duty-cell[data-duty] of a rendered page.
// The value comes from the nested input, or from the cell text when the
// page was rendered without inputs. Values are returned verbatim.
func ParseAssignments(r io.Reader) (domain.Assignments, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	out := domain.Assignments{}
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Td || !hasClass(n, CellClass) {
			return true
		}
		key, ok := attr(n, KeyAttr)
		if !ok || strings.TrimSpace(key) == "" {
			return true
		}
		out[key] = cellValue(n)
		return false
	})
	if len(out) == 0 {
		return nil, domain.ErrNoAssignments
	}
	return out, nil
}

// cellValue returns the first input's value, falling back to the cell's text.
func cellValue(td *html.Node) string {
	var (
		value string
		found bool
	)
	walk(td, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Input {
			value, _ = attr(n, "value")
			found = true
			return false
		}
		return true
	})
	if found {
		return value
	}
	return text(td)
}

// walk visits n and its descendants depth first; visit returns false to skip children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// text concatenates the text nodes under n.
func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	return ok && slices.Contains(strings.Fields(v), class)
}
