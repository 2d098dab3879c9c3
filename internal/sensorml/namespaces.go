// Package sensorml parses IOOS-profile SensorML 1.0.1 documents into
// station descriptions.
//
// etree path queries match the literal namespace prefixes found in a
// document, but prefixes are an authoring choice: two endpoints can bind
// "sml" and "sensorML" to the same URI. Traversal here therefore resolves
// the short prefixes of a Namespaces table to their URIs up front and
// matches elements by (namespace URI, local name).
package sensorml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Namespaces maps short prefixes to namespace URIs. The table is built once
// and passed to the parser; it is never mutated afterward.
type Namespaces map[string]string

// DefaultNamespaces returns the prefix bindings of the IOOS SOS 1.0 SensorML
// profile.
func DefaultNamespaces() Namespaces {
	return Namespaces{
		"sml":   "http://www.opengis.net/sensorML/1.0.1",
		"gml":   "http://www.opengis.net/gml",
		"swe":   "http://www.opengis.net/swe/1.0.1",
		"xlink": "http://www.w3.org/1999/xlink",
		"ism":   "urn:us:gov:ic:ism:v2",
	}
}

// qname is a URI-qualified element or attribute name.
type qname struct {
	uri   string
	local string
}

// resolve splits a prefixed path like "sml:member/sml:System" into qualified
// segments. An unknown prefix is a programming error — the table and every
// path are fixed at build time — so it panics rather than returning an error.
func (ns Namespaces) resolve(path string) []qname {
	segments := strings.Split(path, "/")
	out := make([]qname, len(segments))
	for i, seg := range segments {
		prefix, local, found := strings.Cut(seg, ":")
		if !found {
			out[i] = qname{local: seg}
			continue
		}
		uri, ok := ns[prefix]
		if !ok {
			panic(fmt.Sprintf("sensorml: unknown namespace prefix %q in path %q", prefix, path))
		}
		out[i] = qname{uri: uri, local: local}
	}
	return out
}

// findFirst returns the first element reached by walking path from el in
// document order, or nil.
func (ns Namespaces) findFirst(el *etree.Element, path string) *etree.Element {
	matches := ns.findAll(el, path)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// findAll returns every element reached by walking path from el, in
// document order.
func (ns Namespaces) findAll(el *etree.Element, path string) []*etree.Element {
	current := []*etree.Element{el}
	for _, q := range ns.resolve(path) {
		var next []*etree.Element
		for _, e := range current {
			for _, child := range e.ChildElements() {
				if child.Tag != q.local {
					continue
				}
				if q.uri != "" && child.NamespaceURI() != q.uri {
					continue
				}
				next = append(next, child)
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// attr returns the value of a possibly prefixed attribute, e.g. "xlink:href"
// or "definition". Attributes are matched by namespace URI like elements.
func (ns Namespaces) attr(el *etree.Element, name string) (string, bool) {
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		a := el.SelectAttr(name)
		if a == nil {
			return "", false
		}
		return a.Value, true
	}
	uri, ok := ns[prefix]
	if !ok {
		panic(fmt.Sprintf("sensorml: unknown namespace prefix %q in attribute %q", prefix, name))
	}
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Key == local && a.NamespaceURI() == uri {
			return a.Value, true
		}
	}
	return "", false
}
