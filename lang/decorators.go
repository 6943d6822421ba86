package lang

import "sort"

// MergeDecorators combines the three decorator sources for one declaration:
// language-wide defaults from configuration, explicit per-type directives
// from the source, and structurally required capabilities (e.g. a type used
// as a map key needing a comparable conformance).
//
// Duplicates are removed keeping the first occurrence. Order is
// deterministic: defaults first, then explicit, then structural, each group
// alphabetized, so output never depends on map iteration order.
func MergeDecorators(defaults, explicit, structural []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, group := range [][]string{defaults, explicit, structural} {
		sorted := make([]string, len(group))
		copy(sorted, group)
		sort.Strings(sorted)
		for _, d := range sorted {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
