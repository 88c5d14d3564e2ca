// Package scriptgen implements the script emitter: a three-buffer script
// builder with an indent engine and unique-name minting, the chunk-build
// algorithm that walks a parsed XML template tree substituting `@KEY@`
// tokens, and the four fixed function chunks (Initialize, Sweep, DataReport,
// Finalize) assembled into one emitted artifact.
package scriptgen

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxIndent is the largest indent depth, in 1-space units (spec.md §4.I).
const MaxIndent = 20

// DefaultIndent is the indent shift a chunk's function body applies.
const DefaultIndent = 4

// Buffer is one of the emitter's three named sections (preamble, body,
// postamble). Indent is tracked by the owning ScriptBuffer and shared across
// all three, matching the single running indent count a generated script
// uses regardless of which section is currently being written.
type Buffer struct {
	content strings.Builder
}

func (b *Buffer) append(line string, indent int) {
	if indent > 0 {
		b.content.WriteString(strings.Repeat(" ", indent))
	}
	b.content.WriteString(line)
	b.content.WriteByte('\n')
}

// ScriptBuffer owns the preamble/body/postamble buffers, the single shared
// indent count applied to whichever one is written to, and the set of
// already-minted unique chunk names (spec.md §4.I).
type ScriptBuffer struct {
	Preamble  Buffer
	Body      Buffer
	Postamble Buffer
	indent    int
	names     map[string]bool
}

// NewScriptBuffer constructs an empty ScriptBuffer.
func NewScriptBuffer() *ScriptBuffer {
	return &ScriptBuffer{names: map[string]bool{}}
}

// Append writes line to the body buffer at the current indent.
func (s *ScriptBuffer) Append(line string) { s.Body.append(line, s.indent) }

// Prepend writes line to the preamble buffer at the current indent.
func (s *ScriptBuffer) Prepend(line string) { s.Preamble.append(line, s.indent) }

// Postpend writes line to the postamble buffer at the current indent.
func (s *ScriptBuffer) Postpend(line string) { s.Postamble.append(line, s.indent) }

// ChangeIndent shifts the shared indent by n, clamped to [0, MaxIndent].
func (s *ScriptBuffer) ChangeIndent(n int) {
	next := s.indent + n
	switch {
	case next < 0:
		next = 0
	case next > MaxIndent:
		next = MaxIndent
	}
	s.indent = next
}

// GetUniqueName returns base if unused, else base1, base2, … — the first
// unused suffix — and records the minted name.
func (s *ScriptBuffer) GetUniqueName(base string) string {
	name := base
	for copy := 1; s.names[name]; copy++ {
		name = base + strconv.Itoa(copy)
	}
	s.names[name] = true
	return name
}

// String concatenates preamble, body, and postamble, in that order.
func (s *ScriptBuffer) String() string {
	var out strings.Builder
	out.WriteString(s.Preamble.content.String())
	out.WriteString(s.Body.content.String())
	out.WriteString(s.Postamble.content.String())
	return out.String()
}

// Format renders a float the way a generated script literal would: scientific
// notation when its magnitude is nonzero and outside [0.1, 1000], else plain
// decimal (spec.md §4.I "format(x)").
func Format(x float64) string {
	abs := x
	if abs < 0 {
		abs = -abs
	}
	if abs > 0 && !(abs >= 0.1 && abs <= 1000) {
		return fmt.Sprintf("%e", x)
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
