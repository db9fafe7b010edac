package xml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/rezonia/einvoice-extractor/internal/model"
)

// TextKey holds the character data of an element that also has attributes
// or child elements
const TextKey = "_"

// Tree is a parsed XML document keyed by the local name of its root.
//
// Element values follow these rules:
//   - an element without attributes or children is its trimmed text
//   - otherwise it is a map of attribute and child local names; text, if
//     any, goes under TextKey
//   - a name seen once maps to a single value, a repeated name to a
//     []any in document order
//
// Namespace prefixes are dropped from every tag and attribute name and
// namespace declarations are not kept.
type Tree map[string]any

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseTree parses XML text into a Tree
func ParseTree(data []byte) (Tree, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	if err := doc.ReadFromBytes(bytes.TrimPrefix(data, utf8BOM)); err != nil {
		return nil, model.NewExtractionError(model.ErrCodeMalformedXML, "", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, model.NewExtractionError(model.ErrCodeMalformedXML, "", fmt.Errorf("no root element"))
	}

	return Tree{root.Tag: elementValue(root)}, nil
}

// Root returns the local name of the root element
func (t Tree) Root() string {
	for name := range t {
		return name
	}
	return ""
}

func elementValue(el *etree.Element) any {
	children := el.ChildElements()
	attrs := attributes(el)
	text := strings.TrimSpace(charData(el))

	if len(children) == 0 && len(attrs) == 0 {
		return text
	}

	var order []string
	groups := make(map[string][]any)
	add := func(name string, v any) {
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], v)
	}

	for _, a := range attrs {
		add(a.Key, a.Value)
	}
	for _, c := range children {
		add(c.Tag, elementValue(c))
	}

	node := make(map[string]any, len(order)+1)
	for _, name := range order {
		values := groups[name]
		if len(values) == 1 {
			node[name] = values[0]
		} else {
			node[name] = values
		}
	}
	if text != "" {
		node[TextKey] = text
	}
	return node
}

// charData joins every text run directly inside el, including runs that
// follow child elements
func charData(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

func attributes(el *etree.Element) []etree.Attr {
	attrs := make([]etree.Attr, 0, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	return attrs
}
