package ir

// OSPredicate restricts a declaration, field, or variant to certain target
// OS tags. It is the flattened form of a cfg-style boolean expression:
// Accept lists tags the element is limited to, Reject lists tags it is
// excluded from (a `not(...)` in the source).
type OSPredicate struct {
	Accept []string `json:"accept,omitempty"`
	Reject []string `json:"reject,omitempty"`
}

// Matches evaluates the predicate against the active OS tag set.
// An empty tag set accepts everything: OS filtering is opt-in.
func (p *OSPredicate) Matches(targetOS []string) bool {
	if p == nil || len(targetOS) == 0 {
		return true
	}

	for _, target := range targetOS {
		for _, rejected := range p.Reject {
			if target == rejected {
				return false
			}
		}
	}

	if len(p.Accept) == 0 {
		return true
	}
	for _, target := range targetOS {
		for _, accepted := range p.Accept {
			if target == accepted {
				return true
			}
		}
	}
	return false
}

// FilterByOS returns the declarations that survive OS filtering, with
// non-matching fields and variants removed entirely. Filtering happens
// before dependency resolution and encoding: an elided variant is absent
// from tag enumerations, and an elided field is absent from carrier types.
// Fields marked Skip are removed in the same pass.
func FilterByOS(decls []Decl, targetOS []string) []Decl {
	out := make([]Decl, 0, len(decls))
	for _, d := range decls {
		if !d.Shared().OSPredicate.Matches(targetOS) {
			continue
		}
		switch t := d.(type) {
		case *Struct:
			filtered := *t
			filtered.Fields = filterFields(t.Fields, targetOS)
			out = append(out, &filtered)
		case *Enum:
			filtered := *t
			filtered.Variants = filterVariants(t.Variants, targetOS)
			out = append(out, &filtered)
		default:
			out = append(out, d)
		}
	}
	return out
}

func filterFields(fields []Field, targetOS []string) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Skip || !f.OSPredicate.Matches(targetOS) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func filterVariants(variants []Variant, targetOS []string) []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Skip || !v.OSPredicate.Matches(targetOS) {
			continue
		}
		if sp, ok := v.Payload.(StructPayload); ok {
			inner := filterFields(sp.Fields, targetOS)
			v.Payload = StructPayload{Fields: inner}
		}
		out = append(out, v)
	}
	return out
}
