package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/beevik/etree"
)

const (
	// RootTag is the tag of the merged catalog root.
	RootTag = "products"

	// ProductTag is the tag of a product record.
	ProductTag = "product"

	// NameTag is the optional child holding a product's display name.
	NameTag = "name"

	// Unnamed is displayed for products without a usable name.
	Unnamed = "unnamed"
)

// Merger combines documents into one catalog.
type Merger struct {
	logger *slog.Logger

	// out receives one line per merged product and a closing total.
	out io.Writer
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithMergerLogger sets a custom logger.
func WithMergerLogger(logger *slog.Logger) MergerOption {
	return func(m *Merger) {
		m.logger = logger
	}
}

// WithMergerOutput sets the writer for status lines. Defaults to io.Discard.
func WithMergerOutput(w io.Writer) MergerOption {
	return func(m *Merger) {
		m.out = w
	}
}

// NewMerger creates a Merger.
func NewMerger(opts ...MergerOption) *Merger {
	m := &Merger{
		logger: slog.Default(),
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewCatalog returns an empty catalog document: an XML declaration and an
// empty products root.
func NewCatalog() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateElement(RootTag)
	return doc
}

// Merge moves every product of docs into a new catalog and returns it.
// Nil documents are skipped. The result is valid for empty input.
func (m *Merger) Merge(docs []*etree.Document) *etree.Document {
	catalog := NewCatalog()
	root := catalog.Root()

	for i, doc := range docs {
		if doc == nil || doc.Root() == nil {
			continue
		}
		products := Products(doc)
		m.logger.Debug("merging document", "document", i+1, "root", doc.Root().Tag, "products", len(products))

		for _, p := range products {
			Adopt(root, p)
			fmt.Fprintf(m.out, "  + %s\n", ProductName(p))
		}
	}

	total := len(root.ChildElements())
	fmt.Fprintf(m.out, "Merged %d products\n", total)
	m.logger.Info("merge completed", "documents", len(docs), "products", total)
	return catalog
}

// Products returns every unprefixed product element below the root of doc,
// in document (pre-order) order. The root itself is never included, and a
// product nested in another product is listed after its ancestor.
func Products(doc *etree.Document) []*etree.Element {
	if doc == nil || doc.Root() == nil {
		return nil
	}
	var found []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			if isProduct(child) {
				found = append(found, child)
			}
			walk(child)
		}
	}
	walk(doc.Root())
	return found
}

// CountProducts returns len(Products(doc)).
func CountProducts(doc *etree.Document) int {
	return len(Products(doc))
}

// Adopt detaches child from its current parent, if any, and appends it to
// parent. The element is moved, never copied. Namespace declarations of the
// old ancestors that the subtree uses are copied onto child first, so the
// moved product stays namespace-well-formed.
func Adopt(parent, child *etree.Element) {
	if old := child.Parent(); old != nil {
		declareInherited(child)
		old.RemoveChild(child)
	}
	parent.AddChild(child)
}

// declareInherited adds to e every namespace declaration that e's subtree
// uses but that is only made by an ancestor of e. A nearer declaration wins.
func declareInherited(e *etree.Element) {
	used := usedPrefixes(e)
	for _, a := range e.Attr {
		delete(used, declaredPrefix(a))
	}
	for anc := e.Parent(); anc != nil && len(used) > 0; anc = anc.Parent() {
		for _, a := range anc.Attr {
			prefix := declaredPrefix(a)
			if prefix == "-" || !used[prefix] {
				continue
			}
			e.CreateAttr(a.FullKey(), a.Value)
			delete(used, prefix)
		}
	}
}

// usedPrefixes returns the namespace prefixes used by the elements and
// attributes of e's subtree. The default namespace is the empty prefix and
// counts as used by any unprefixed element. Declarations themselves and the
// reserved xml prefix are not counted.
func usedPrefixes(e *etree.Element) map[string]bool {
	used := map[string]bool{}
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Space != "xml" {
			used[el.Space] = true
		}
		for _, a := range el.Attr {
			if a.Space != "" && a.Space != "xml" && declaredPrefix(a) == "-" {
				used[a.Space] = true
			}
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(e)
	return used
}

// declaredPrefix returns the prefix a declares: "" for xmlns, the local
// name for xmlns:p, and "-" when a is not a namespace declaration.
func declaredPrefix(a etree.Attr) string {
	switch {
	case a.Space == "" && a.Key == "xmlns":
		return ""
	case a.Space == "xmlns":
		return a.Key
	default:
		return "-"
	}
}

// ProductName returns the trimmed text of the product's name child, or
// Unnamed when the child is missing or blank.
func ProductName(product *etree.Element) string {
	name := product.SelectElement(NameTag)
	if name == nil {
		return Unnamed
	}
	text := strings.TrimSpace(name.Text())
	if text == "" {
		return Unnamed
	}
	return text
}

// ProductNames returns the display name of every direct child of the
// catalog root, in order.
func ProductNames(catalog *etree.Document) []string {
	if catalog == nil || catalog.Root() == nil {
		return nil
	}
	children := catalog.Root().ChildElements()
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = ProductName(c)
	}
	return names
}

func isProduct(e *etree.Element) bool {
	return e.Space == "" && e.Tag == ProductTag
}
