//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import (
	"errors"
	"fmt"
	"io"
)

// Ref locates a log event within a design: the module it occurred in
// and, where applicable, the cell or wire responsible. It plays the
// role the teacher's compiler/utils.Point plays for source locations,
// but names netlist structure instead of source text.
type Ref struct {
	Module string
	Cell   *Cell
	Wire   *Wire
}

// ModuleRef builds a Ref naming only a module.
func ModuleRef(m *Module) Ref {
	return Ref{Module: m.Name}
}

// CellRef builds a Ref naming a module and one of its cells.
func CellRef(m *Module, c *Cell) Ref {
	return Ref{Module: m.Name, Cell: c}
}

// WireRef builds a Ref naming a module and one of its wires.
func WireRef(m *Module, w *Wire) Ref {
	return Ref{Module: m.Name, Wire: w}
}

func (r Ref) String() string {
	switch {
	case r.Cell != nil:
		return fmt.Sprintf("%s: %s", r.Module, r.Cell)
	case r.Wire != nil:
		return fmt.Sprintf("%s: %s", r.Module, r.Wire)
	default:
		return r.Module
	}
}

// Logger is the progress and diagnostics sink the passes borrow from
// the pass manager (spec.md §2, §6). A nil *Logger is valid and
// silently discards every event, so tests that don't care about log
// text can run passes without constructing one.
type Logger struct {
	out io.Writer
}

// NewLogger creates a logger writing to out.
func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out}
}

// Logf emits a progress event (spec.md §6: "textual progress
// indications... observationally stable enough for golden-output
// tests").
func (l *Logger) Logf(ref Ref, format string, a ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.out, "%s: %s\n", ref, fmt.Sprintf(format, a...))
}

// Warningf logs a recoverable condition (UnsupportedDriver, an
// unexpected tri-state reader) and lets the caller continue.
func (l *Logger) Warningf(ref Ref, format string, a ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.out, "%s: warning: %s\n", ref, fmt.Sprintf(format, a...))
}

// Errorf logs a fatal condition and returns it as an error for the
// pass to propagate to the pass manager.
func (l *Logger) Errorf(ref Ref, format string, a ...interface{}) error {
	msg := fmt.Sprintf(format, a...)
	if l != nil {
		fmt.Fprintf(l.out, "%s: error: %s\n", ref, msg)
	}
	return errors.New(msg)
}
