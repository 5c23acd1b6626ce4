package greeting

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// VisibleClass is the class added to a surface once it has something to show.
const VisibleClass = "visible"

// ErrElementNotFound is returned when a document has no element with the requested id.
var ErrElementNotFound = errors.New("element not found")

// Surface is the region of a rendered page a greeting is written into.
type Surface interface {
	// Show replaces the surface content with node and marks the surface visible.
	Show(node *html.Node)
}

// Document is a parsed HTML page whose elements can act as display surfaces.
type Document struct {
	root *html.Node
	mu   sync.Mutex
}

// ParseDocument parses an HTML page
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return &Document{root: root}, nil
}

// NewDocument returns a minimal page holding an empty greeting element.
func NewDocument() *Document {
	doc, err := ParseDocument(strings.NewReader(`<!DOCTYPE html><html><head></head><body><div id="greeting"></div></body></html>`))
	if err != nil {
		// the literal above always parses
		panic(err)
	}
	return doc
}

// ElementByID finds the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	if found == nil {
		return nil, fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}

	return &Element{doc: d, node: found}, nil
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// Element is a single node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// Show implements Surface. The replacement and the class change happen under
// the document lock, so readers see either the previous state or the new one.
func (e *Element) Show(node *html.Node) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	if node != nil {
		e.node.AppendChild(node)
	}

	addClass(e.node, VisibleClass)
}

// InnerHTML renders the children of the element.
func (e *Element) InnerHTML() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var buf bytes.Buffer
	_ = html.Render(&buf, e.node)
	return buf.String()
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return sb.String()
}

// Classes returns the element's class list.
func (e *Element) Classes() []string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return strings.Fields(attr(e.node, "class"))
}

// HasClass reports whether name is in the element's class list.
func (e *Element) HasClass(name string) bool {
	return slices.Contains(e.Classes(), name)
}

func paragraph(text string) *html.Node {
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return p
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func addClass(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		classes := strings.Fields(a.Val)
		if !slices.Contains(classes, name) {
			classes = append(classes, name)
		}
		n.Attr[i].Val = strings.Join(classes, " ")
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: name})
}
