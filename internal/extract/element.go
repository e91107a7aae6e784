// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Element is a parsed XML element with its descendants.
type Element struct {
	Name     string
	Attr     []xml.Attr
	Children []*Element

	// text is every character data inside the element, descendants
	// included, in document order.
	text strings.Builder
}

// Text returns the element's text content with surrounding whitespace trimmed.
func (e *Element) Text() string {
	return strings.TrimSpace(e.text.String())
}

// Child returns the first direct child named name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first direct child named name, or "".
func (e *Element) ChildText(name string) string {
	if c := e.Child(name); c != nil {
		return c.Text()
	}
	return ""
}

// Find returns the first descendant named name in document order, or nil.
// The element itself is not considered.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindText returns the text of the first descendant named name, or "".
func (e *Element) FindText(name string) string {
	if d := e.Find(name); d != nil {
		return d.Text()
	}
	return ""
}

// FindAll returns every descendant named name in document order.
func (e *Element) FindAll(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
		out = append(out, c.FindAll(name)...)
	}
	return out
}

// ParseError reports a fragment that could not be parsed.
type ParseError struct {
	// Offset is the byte position inside the fragment where parsing stopped.
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// newDecoder returns a decoder tolerant of HTML entities and unquoted
// attributes, the common defects of remote records.
func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	return d
}

// TryParseElement parses one element from data. Anything before the first
// start tag (declarations, comments, whitespace) is ignored, as is anything
// after the element closes. A fragment that is not well-formed returns a
// *ParseError and no element.
func TryParseElement(data []byte) (*Element, error) {
	d := newDecoder(data)

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if root == nil {
					err = errors.New("no element found")
				} else {
					err = io.ErrUnexpectedEOF
				}
			}
			return nil, &ParseError{Offset: d.InputOffset(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attr: t.Copy().Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, &ParseError{Offset: d.InputOffset(), Err: fmt.Errorf("unexpected end element </%s>", t.Name.Local)}
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return root, nil
			}

		case xml.CharData:
			for _, el := range stack {
				el.text.Write(t)
			}
		}
	}
}
