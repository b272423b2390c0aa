package catalog

import (
	"errors"

	"github.com/beevik/etree"
)

// indentSpaces is the indentation width of serialized catalogs.
const indentSpaces = 2

// ErrNilCatalog is returned when serializing a nil or root-less document.
var ErrNilCatalog = errors.New("catalog has no root element")

// Serialize renders the catalog as indented UTF-8 XML with a declaration.
// The catalog itself is left unchanged.
func Serialize(catalog *etree.Document) ([]byte, error) {
	if catalog == nil || catalog.Root() == nil {
		return nil, ErrNilCatalog
	}
	out := catalog.Copy()
	if !hasDeclaration(out) {
		out.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="UTF-8"`))
	}
	out.Indent(indentSpaces)
	return out.WriteToBytes()
}

func hasDeclaration(doc *etree.Document) bool {
	for _, t := range doc.Child {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == "xml" {
			return true
		}
	}
	return false
}
