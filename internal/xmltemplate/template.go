// Package xmltemplate loads the group/composite/snippet XML template tree
// used by the script emitter: a recursive-descent parser over
// encoding/xml.Decoder tokens (the heterogeneous composite/snippet children
// don't map cleanly onto struct-tag unmarshaling), an embedded resource
// table resolving <include path="..."/> references, and product-version
// substitution at load time.
package xmltemplate

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// UnknownResource is returned when an <include path="..."/> names a
// resource not present in the embedded table.
type UnknownResource struct {
	Name string
}

func (e *UnknownResource) Error() string {
	return fmt.Sprintf("xmltemplate: unknown resource %q", e.Name)
}

// Node is implemented by *Composite and *Snippet, the two child kinds a
// Group or Composite may contain.
type Node interface {
	isNode()
}

// Substitute is a name/value pair contributing to a substitution map.
type Substitute struct {
	Name  string
	Value string
}

// Condition gates a snippet's emission: it is skipped unless the named key
// in the substitution map satisfies op against value.
type Condition struct {
	Name  string
	Op    string
	Value string
}

// Satisfied evaluates this condition against the merged substitution map.
// Unlike the reference implementation's constructor (which swaps op and
// value), this compares against the attribute actually named "op".
func (c Condition) Satisfied(vals map[string]string) bool {
	actual := vals[c.Name]
	switch c.Op {
	case "not-equals":
		return actual != c.Value
	default: // "equals" and any unrecognized op default to equality
		return actual == c.Value
	}
}

// Group is the top-level template for one script function.
type Group struct {
	ID       string
	Type     string
	Children []Node
}

// Composite is an indent/repeat-bearing container of substitutes, snippets,
// and nested composites.
type Composite struct {
	Name          string
	Type          string
	HasType       bool
	Indent        int
	Repeat        string
	Substitutions []Substitute
	Children      []Node
}

func (*Composite) isNode() {}

// Snippet is a leaf template: a verbatim code body, its own substitutions,
// and conditions gating emission.
type Snippet struct {
	Name          string
	Repeat        string
	Code          string
	Substitutions []Substitute
	Conditions    []Condition
}

func (*Snippet) isNode() {}

// Loader parses group XML documents, resolving <include> references against
// an embedded (or on-disk override) resource table.
type Loader struct {
	resources      map[string]string
	productVersion string
}

// NewLoader constructs a Loader over resources, substituting
// "!<!<VERSION>!>!" for productVersion in every resource body at load time.
func NewLoader(resources map[string]string, productVersion string) *Loader {
	return &Loader{resources: resources, productVersion: productVersion}
}

const versionToken = "!<!<VERSION>!>!"

func (l *Loader) resource(name string) (string, error) {
	body, ok := l.resources[name]
	if !ok {
		return "", &UnknownResource{Name: name}
	}
	return strings.ReplaceAll(body, versionToken, l.productVersion), nil
}

// LoadGroup parses the top-level <group> element out of xmlDoc.
func (l *Loader) LoadGroup(xmlDoc string) (*Group, error) {
	dec := xml.NewDecoder(strings.NewReader(xmlDoc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("xmltemplate: no <group> element found")
		}
		if err != nil {
			return nil, fmt.Errorf("xmltemplate: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "group" {
			return l.parseGroup(dec, start)
		}
	}
}

// LoadResource parses the named embedded resource as a top-level group,
// e.g. "INITIALIZE_XML".
func (l *Loader) LoadResource(name string) (*Group, error) {
	body, err := l.resource(name)
	if err != nil {
		return nil, err
	}
	return l.LoadGroup(body)
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (l *Loader) parseGroup(dec *xml.Decoder, start xml.StartElement) (*Group, error) {
	g := &Group{}
	g.ID, _ = attr(start, "id")
	g.Type, _ = attr(start, "type")

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xmltemplate: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "composite":
				c, err := l.parseComposite(dec, t)
				if err != nil {
					return nil, err
				}
				g.Children = append(g.Children, c)
			case "include":
				children, err := l.parseInclude(t)
				if err != nil {
					return nil, err
				}
				g.Children = append(g.Children, children...)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "group" {
				return g, nil
			}
		}
	}
}

// parseInclude resolves path against the resource table and parses the
// resulting document's root element as either a composite or a snippet.
func (l *Loader) parseInclude(start xml.StartElement) ([]Node, error) {
	path, _ := attr(start, "path")
	body, err := l.resource(path)
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(strings.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("xmltemplate: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "composite":
			c, err := l.parseComposite(dec, start)
			if err != nil {
				return nil, err
			}
			return []Node{c}, nil
		case "snippet":
			s, err := l.parseSnippet(dec, start)
			if err != nil {
				return nil, err
			}
			return []Node{s}, nil
		}
	}
}

func (l *Loader) parseComposite(dec *xml.Decoder, start xml.StartElement) (*Composite, error) {
	c := &Composite{}
	c.Name, _ = attr(start, "name")
	if t, ok := attr(start, "type"); ok {
		c.Type, c.HasType = t, true
	}
	if indentAttr, ok := attr(start, "indent"); ok && indentAttr == "default" {
		c.Indent = 4
	}
	c.Repeat, _ = attr(start, "repeat")

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xmltemplate: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "substitute":
				sub, err := l.parseSubstitute(dec, t)
				if err != nil {
					return nil, err
				}
				c.Substitutions = append(c.Substitutions, sub)
			case "snippet":
				s, err := l.parseSnippet(dec, t)
				if err != nil {
					return nil, err
				}
				c.Children = append(c.Children, s)
			case "composite":
				nested, err := l.parseComposite(dec, t)
				if err != nil {
					return nil, err
				}
				c.Children = append(c.Children, nested)
			case "include":
				children, err := l.parseInclude(t)
				if err != nil {
					return nil, err
				}
				c.Children = append(c.Children, children...)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "composite" {
				return c, nil
			}
		}
	}
}

func (l *Loader) parseSnippet(dec *xml.Decoder, start xml.StartElement) (*Snippet, error) {
	s := &Snippet{}
	s.Name, _ = attr(start, "name")
	s.Repeat, _ = attr(start, "repeat")

	var code strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xmltemplate: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			code.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "substitute":
				sub, err := l.parseSubstitute(dec, t)
				if err != nil {
					return nil, err
				}
				s.Substitutions = append(s.Substitutions, sub)
			case "condition":
				cond, err := l.parseCondition(dec, t)
				if err != nil {
					return nil, err
				}
				s.Conditions = append(s.Conditions, cond)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "snippet" {
				s.Code = code.String()
				return s, nil
			}
		}
	}
}

func (l *Loader) parseSubstitute(dec *xml.Decoder, start xml.StartElement) (Substitute, error) {
	sub := Substitute{}
	sub.Name, _ = attr(start, "name")
	var value strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return sub, fmt.Errorf("xmltemplate: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			value.Write(t)
		case xml.EndElement:
			if t.Name.Local == "substitute" {
				sub.Value = value.String()
				return sub, nil
			}
		}
	}
}

func (l *Loader) parseCondition(dec *xml.Decoder, start xml.StartElement) (Condition, error) {
	cond := Condition{}
	cond.Name, _ = attr(start, "name")
	cond.Op, _ = attr(start, "op")
	var value strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return cond, fmt.Errorf("xmltemplate: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			value.Write(t)
		case xml.EndElement:
			if t.Name.Local == "condition" {
				cond.Value = value.String()
				return cond, nil
			}
		}
	}
}
