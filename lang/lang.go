// Package lang defines the interface each target-language backend
// implements, plus the helpers the backends share: case transforms,
// decorator merging, carrier-type synthesis for anonymous struct variants,
// and the per-run emission ledger.
package lang

import (
	"io"

	"github.com/typebridge/typebridge/ir"
)

// Language is the capability interface for one target language. Each
// backend consumes the same immutable IR and renders its own syntax; new
// target languages are pure additions.
//
// A Language instance is constructed once per generation run and may keep
// run-scoped state (imports seen, helper types referenced).
type Language interface {
	// Name returns the language identifier used in configuration
	Name() ir.Lang

	// Extension returns the output file extension without the dot
	Extension() string

	// BeginFile writes header boilerplate. module is the output unit's
	// originating source module, empty in single-file mode.
	BeginFile(w io.Writer, module string) error

	// EndFile writes trailing helper code, emitted once per file and only
	// if referenced by at least one emitted type
	EndFile(w io.Writer) error

	// WriteImports renders cross-file references for multi-file output.
	// imports maps a source module to the sorted type names used from it.
	WriteImports(w io.Writer, imports map[string][]string) error

	WriteAlias(w io.Writer, a *ir.Alias) error
	WriteStruct(w io.Writer, s *ir.Struct) error
	WriteEnum(w io.Writer, e *ir.Enum) error
	WriteConst(w io.Writer, c *ir.Const) error

	// FormatType maps a field type to target syntax. generics lists the
	// enclosing declaration's generic parameter names.
	FormatType(ft ir.FieldType, generics []string) (string, error)
}

// Preparer is an optional interface a Language implements when it needs a
// pass over the full ordered declaration list before writing begins, for
// decisions that depend on declarations not yet written.
type Preparer interface {
	Prepare(decls []ir.Decl)
}

// FileNamer is an optional interface for languages whose output file name
// must match a declared construct, like Java's public-class rule. Languages
// without the interface get the default name for the output unit.
type FileNamer interface {
	FileName(module string) string
}

// Ledger tracks per-run emission state: synthesized carrier types already
// written (so multi-file mode never duplicates them) and warnings raised by
// degraded fallbacks. It is constructed once per generation run, passed
// explicitly, and discarded at run end.
type Ledger struct {
	emitted  map[string]bool
	warnings []string
}

// NewLedger creates an empty ledger for one generation run.
func NewLedger() *Ledger {
	return &Ledger{emitted: make(map[string]bool)}
}

// MarkEmitted records that the named type has been written. It returns
// false if the type was already emitted, in which case the caller skips it.
func (l *Ledger) MarkEmitted(name string) bool {
	if l.emitted[name] {
		return false
	}
	l.emitted[name] = true
	return true
}

// Warn records a non-fatal degraded condition for the caller to surface.
func (l *Ledger) Warn(msg string) {
	l.warnings = append(l.warnings, msg)
}

// Warnings returns the recorded warnings in order.
func (l *Ledger) Warnings() []string {
	return l.warnings
}
