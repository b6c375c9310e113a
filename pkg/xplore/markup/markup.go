// Package markup decodes taxonomy documents into flat lists of the
// namespaced elements each pipeline stage is interested in.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
)

// Namespaces used by taxonomy schemas and linkbases.
const (
	NSSchema   = "http://www.w3.org/2001/XMLSchema"
	NSLinkbase = "http://www.xbrl.org/2003/linkbase"
	NSXLink    = "http://www.w3.org/1999/xlink"
	NSInstance = "http://www.xbrl.org/2003/instance"
	NSXML      = "http://www.w3.org/XML/1998/namespace"
)

// Matcher selects elements by qualified name.
type Matcher func(name xml.Name) bool

// Named matches elements in namespace space whose local name is any of
// locals.
func Named(space string, locals ...string) Matcher {
	set := make(map[string]struct{}, len(locals))
	for _, l := range locals {
		set[l] = struct{}{}
	}
	return func(name xml.Name) bool {
		if name.Space != space {
			return false
		}
		_, ok := set[name.Local]
		return ok
	}
}

// Element is a matched start element with its attributes and the
// trimmed character data preceding its first child.
type Element struct {
	Name  xml.Name
	Attrs []xml.Attr
	Text  string
}

// Attr returns the value of the attribute space:local.
func (e Element) Attr(space, local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// XLink returns the value of the xlink:local attribute.
func (e Element) XLink(local string) (string, bool) {
	return e.Attr(NSXLink, local)
}

type frame struct {
	index    int // position in the result slice, -1 when not matched
	sawChild bool
	text     strings.Builder
}

// Decode reads a whole document and returns every element anywhere in
// the tree accepted by match, in document order. A document that is not
// well-formed, has no root element, or has content after its root
// element yields an error and no elements.
func Decode(r io.Reader, match Matcher) ([]Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		out        []Element
		stack      []*frame
		sawRoot    bool
		rootClosed bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("element <%s> after document element", t.Name.Local)
			}
			sawRoot = true
			if n := len(stack); n > 0 {
				stack[n-1].sawChild = true
			}
			f := &frame{index: -1}
			if match(t.Name) {
				f.index = len(out)
				out = append(out, Element{Name: t.Name, Attrs: t.Copy().Attr})
			}
			stack = append(stack, f)
		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("junk outside document element")
			}
			if n := len(stack); n > 0 {
				if f := stack[n-1]; f.index >= 0 && !f.sawChild {
					f.text.Write(t)
				}
			}
		case xml.EndElement:
			n := len(stack)
			f := stack[n-1]
			stack = stack[:n-1]
			if f.index >= 0 {
				out[f.index].Text = strings.TrimSpace(f.text.String())
			}
			if len(stack) == 0 {
				rootClosed = true
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("no root element")
	}
	return out, nil
}

// DecodeFile decodes the document at path. A missing file wraps
// internalerr.ErrMissingResource; a parse failure wraps
// internalerr.ErrMalformedDocument.
func DecodeFile(path string, match Matcher) ([]Element, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", internalerr.ErrMissingResource, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	elems, err := Decode(f, match)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrMalformedDocument, path, err)
	}
	return elems, nil
}
