// Package resolve builds the type reference graph for an IR snapshot and
// produces the deterministic emission order that generation runs on.
//
// Edges that pass through Optional, Sequence, or Map are "soft": they never
// make a containment cycle illegal, because every target language gives
// those containers reference semantics. A FixedArray is direct value
// containment, so references through it stay hard. Hard cycles between
// structs and aliases have no legal layout in any language and fail
// resolution.
// Hard cycles that pass through an enum mark the enum recursive instead, so
// backends can apply their indirection mechanism.
package resolve

import (
	"sort"
	"strings"

	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
)

type edge struct {
	target string
	soft   bool
}

// Analysis is the result of dependency resolution for one generation run.
type Analysis struct {
	// Order lists declarations with dependencies before dependents.
	// Ties between unrelated types break on (name, module) so output is
	// byte-reproducible regardless of input order.
	Order []ir.Decl
}

// Analyze resolves the snapshot's dependency graph: it orders declarations,
// marks recursive enums, and reports every illegal direct-containment cycle
// found, joined into a single error.
//
// Analyze mutates the IsRecursive flag on the *ir.Enum values it receives;
// callers pass the per-run copies produced by ir.FilterByOS, never the
// shared snapshot.
func Analyze(decls []ir.Decl) (*Analysis, error) {
	sorted := make([]ir.Decl, len(decls))
	copy(sorted, decls)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Shared().ID, sorted[j].Shared().ID
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Module < b.Module
	})

	known := make(map[string]ir.Decl, len(sorted))
	for _, d := range sorted {
		known[d.Shared().ID.Name] = d
	}

	edges := make(map[string][]edge, len(sorted))
	for _, d := range sorted {
		edges[d.Shared().ID.Name] = declEdges(d, known)
	}

	if err := rejectHardCycles(sorted, edges, known); err != nil {
		return nil, err
	}
	markRecursiveEnums(sorted, edges)

	return &Analysis{Order: order(sorted, edges)}, nil
}

// ReferencedNames returns the names of every declared type d references,
// deduplicated and sorted. Used by multi-file emission to compute imports.
func ReferencedNames(d ir.Decl) []string {
	names := make(map[string]bool)
	for _, r := range rawRefs(d) {
		names[r.Target.Name] = true
	}
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func rawRefs(d ir.Decl) []ir.ReferenceEdge {
	var raw []ir.ReferenceEdge
	switch t := d.(type) {
	case *ir.Struct:
		for _, f := range t.Fields {
			raw = append(raw, ir.References(f.Type)...)
		}
	case *ir.Enum:
		for _, v := range t.Variants {
			switch p := v.Payload.(type) {
			case ir.TuplePayload:
				raw = append(raw, ir.References(p.Type)...)
			case ir.StructPayload:
				for _, f := range p.Fields {
					raw = append(raw, ir.References(f.Type)...)
				}
			}
		}
	case *ir.Alias:
		raw = append(raw, ir.References(t.Target)...)
	case *ir.Const:
		raw = append(raw, ir.References(t.Type)...)
	}
	return raw
}

// declEdges collects the outgoing references of a declaration, deduplicated
// and sorted. A target is kept hard if any occurrence of it is hard.
func declEdges(d ir.Decl, known map[string]ir.Decl) []edge {
	soft := make(map[string]bool)
	for _, r := range rawRefs(d) {
		if _, ok := known[r.Target.Name]; !ok {
			continue
		}
		if prev, seen := soft[r.Target.Name]; !seen || (prev && !r.Soft) {
			soft[r.Target.Name] = r.Soft
		}
	}

	names := make([]string, 0, len(soft))
	for name := range soft {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]edge, len(names))
	for i, name := range names {
		out[i] = edge{target: name, soft: soft[name]}
	}
	return out
}

// rejectHardCycles walks the hard-edge subgraph restricted to structs,
// aliases, and consts. Any cycle there is a direct value containment cycle
// with no possible layout; every independent cycle is reported in one pass.
func rejectHardCycles(sorted []ir.Decl, edges map[string][]edge, known map[string]ir.Decl) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(sorted))
	var errs []error
	reported := make(map[string]bool)

	var stack []string
	var visit func(name string)
	visit = func(name string) {
		state[name] = visiting
		stack = append(stack, name)
		for _, e := range edges[name] {
			if e.soft {
				continue
			}
			if _, isEnum := known[e.target].(*ir.Enum); isEnum {
				// hard edges into enums are the recursive-enum case,
				// handled by markRecursiveEnums
				continue
			}
			switch state[e.target] {
			case unvisited:
				visit(e.target)
			case visiting:
				chain := cycleChain(stack, e.target)
				if !reported[chain] {
					reported[chain] = true
					errs = append(errs, errors.Wrapf(errors.ErrCyclicDependency,
						"type %q in module %q is part of a direct containment cycle: %s",
						e.target, known[e.target].Shared().ID.Module, chain))
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
	}

	for _, d := range sorted {
		name := d.Shared().ID.Name
		if _, isEnum := d.(*ir.Enum); isEnum {
			continue
		}
		if state[name] == unvisited {
			visit(name)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// cycleChain renders the portion of the DFS stack from the cycle entry
// back to itself, e.g. "A -> B -> A".
func cycleChain(stack []string, entry string) string {
	start := 0
	for i, name := range stack {
		if name == entry {
			start = i
			break
		}
	}
	parts := append(append([]string{}, stack[start:]...), entry)
	return strings.Join(parts, " -> ")
}

// markRecursiveEnums sets IsRecursive on every enum that can reach itself
// through any variant payload, directly or transitively. Soft edges count:
// indirection decisions belong to the backend, not the graph.
func markRecursiveEnums(sorted []ir.Decl, edges map[string][]edge) {
	for _, d := range sorted {
		e, ok := d.(*ir.Enum)
		if !ok {
			continue
		}
		name := e.ID.Name
		seen := map[string]bool{}
		queue := make([]string, 0, len(edges[name]))
		for _, out := range edges[name] {
			queue = append(queue, out.target)
		}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			if next == name {
				e.IsRecursive = true
				break
			}
			if seen[next] {
				continue
			}
			seen[next] = true
			for _, out := range edges[next] {
				queue = append(queue, out.target)
			}
		}
	}
}

// order produces a depth-first post-order over all edges. When the graph is
// acyclic this puts every dependency before its dependent; cycles (already
// vetted as legal) fall back to the deterministic visit order.
func order(sorted []ir.Decl, edges map[string][]edge) []ir.Decl {
	byName := make(map[string]ir.Decl, len(sorted))
	for _, d := range sorted {
		byName[d.Shared().ID.Name] = d
	}

	visited := make(map[string]bool, len(sorted))
	visiting := make(map[string]bool, len(sorted))
	out := make([]ir.Decl, 0, len(sorted))

	var visit func(name string)
	visit = func(name string) {
		if visited[name] || visiting[name] {
			return
		}
		visiting[name] = true
		for _, e := range edges[name] {
			visit(e.target)
		}
		visiting[name] = false
		visited[name] = true
		out = append(out, byName[name])
	}

	for _, d := range sorted {
		visit(d.Shared().ID.Name)
	}
	return out
}
