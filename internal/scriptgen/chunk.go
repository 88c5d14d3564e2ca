package scriptgen

import (
	"regexp"
	"strings"

	"github.com/jihwankim/scriptgend/internal/xmltemplate"
)

// Chunk is the shared state every function chunk (Initialize, Sweep,
// DataReport, Finalize) carries: its template metadata, description, and
// substitution map, plus the build algorithm common to all four
// (spec.md §4.I "Chunk build").
type Chunk struct {
	FuncType    string
	Description string
	Metadata    *xmltemplate.Group
	ValMap      map[string]string
}

var tokenPattern = regexp.MustCompile(`@([A-Za-z0-9_-]+)@`)

// Build runs the fixed chunk-build algorithm against buf: a banner comment,
// a `function <chunk_name>()` wrapper, a walk of every untyped top-level
// composite, and the closing banner plus postamble call.
func (c *Chunk) Build(buf *ScriptBuffer) {
	chunkName := buf.GetUniqueName("_" + c.FuncType)

	c.startBanner(buf)

	buf.Append("function " + chunkName + "()")
	buf.ChangeIndent(DefaultIndent)

	if c.Metadata != nil {
		for _, child := range c.Metadata.Children {
			comp, ok := child.(*xmltemplate.Composite)
			if !ok || comp.HasType {
				continue
			}
			walkComposite(buf, comp, c.ValMap)
		}
	}

	buf.ChangeIndent(-DefaultIndent)
	buf.Append("end")

	c.endBanner(buf)
	buf.Postpend(chunkName + "()")
}

func (c *Chunk) startBanner(buf *ScriptBuffer) {
	rule := strings.Repeat("-", 76)
	buf.Append(rule)
	buf.Append("-- START OF " + strings.ToUpper(c.FuncType) + " SEGMENT ... do not modify this section")
	buf.Append(rule)
	buf.Append(strings.Repeat("=", 2) + strings.Repeat("-", 74))
	for _, line := range strings.Split(c.Description, "\n") {
		buf.Append("-- " + strings.TrimSpace(line))
	}
	buf.Append(strings.Repeat("=", 2) + strings.Repeat("-", 74))
}

func (c *Chunk) endBanner(buf *ScriptBuffer) {
	rule := strings.Repeat("-", 76)
	buf.Append(rule)
	buf.Append("-- END OF " + strings.ToUpper(c.FuncType) + " SEGMENT ... do not modify code after this point")
	buf.Append(rule)
	buf.Append("")
}

// walkComposite implements the "Composite walk" of spec.md §4.I: an
// unconditional gate (reserved for future condition support), an indent
// bump, and — for a non-repeating composite — each snippet child evaluated
// in document order. Nested composites are walked too since the catalog's
// own templates nest composites for grouping.
func walkComposite(buf *ScriptBuffer, comp *xmltemplate.Composite, outer map[string]string) {
	if comp.Indent > 0 {
		buf.ChangeIndent(comp.Indent)
	}
	if comp.Repeat == "" {
		for _, child := range comp.Children {
			switch c := child.(type) {
			case *xmltemplate.Snippet:
				walkSnippet(buf, c, mergeSubstitutions(outer, comp.Substitutions))
			case *xmltemplate.Composite:
				walkComposite(buf, c, mergeSubstitutions(outer, comp.Substitutions))
			}
		}
	}
	if comp.Indent > 0 {
		buf.ChangeIndent(-comp.Indent)
	}
}

// walkSnippet implements "Snippet evaluation": skip on any failed
// condition, else append the text body with merged substitutions applied.
func walkSnippet(buf *ScriptBuffer, s *xmltemplate.Snippet, outer map[string]string) {
	for _, cond := range s.Conditions {
		if !cond.Satisfied(outer) {
			return
		}
	}
	vals := mergeSubstitutions(outer, s.Substitutions)
	for _, line := range strings.Split(strings.TrimRight(s.Code, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		buf.Append(substituteTokens(line, vals))
	}
}

// mergeSubstitutions layers a composite or snippet's own <substitute>
// entries over the inherited map, the snippet's own values winning
// (spec.md §4.I "snippet's own substitutes override composite-level").
func mergeSubstitutions(outer map[string]string, own []xmltemplate.Substitute) map[string]string {
	if len(own) == 0 {
		return outer
	}
	merged := make(map[string]string, len(outer)+len(own))
	for k, v := range outer {
		merged[k] = v
	}
	for _, sub := range own {
		merged[sub.Name] = sub.Value
	}
	return merged
}

func substituteTokens(line string, vals map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(line, func(token string) string {
		key := token[1 : len(token)-1]
		if v, ok := vals[key]; ok {
			return v
		}
		return token
	})
}
