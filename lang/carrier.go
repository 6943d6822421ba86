package lang

import (
	"fmt"

	"github.com/typebridge/typebridge/ir"
)

// carrierSuffix ends every synthesized carrier type name.
const carrierSuffix = "Inner"

// CarrierName builds the name of the struct synthesized for an anonymous
// struct variant: the enum name, the variant name, and a fixed suffix.
func CarrierName(enumName, variantName string) string {
	return enumName + variantName + carrierSuffix
}

// Carriers synthesizes one struct per anonymous-struct variant of e, in
// variant order. Each carrier inherits only the subset of the enum's
// generic parameters its fields actually reference, preserving the enum's
// declaration order. The carrier's doc comment marks it as generated.
//
// Carriers belong to the enum's module, so the multi-file partitioner
// places them next to the enum and the ledger deduplicates them across
// files.
func Carriers(e *ir.Enum) []*ir.Struct {
	var out []*ir.Struct
	for _, v := range e.Variants {
		payload, ok := v.Payload.(ir.StructPayload)
		if !ok {
			continue
		}

		var generics []ir.GenericParam
		for _, g := range e.Generics {
			used := false
			for _, f := range payload.Fields {
				if ir.ContainsGeneric(f.Type, g.Name) {
					used = true
					break
				}
			}
			if used {
				generics = append(generics, g)
			}
		}

		name := CarrierName(e.ID.Name, v.Name)
		out = append(out, &ir.Struct{
			DeclShared: ir.DeclShared{
				ID:       ir.TypeID{Name: name, Module: e.ID.Module},
				Generics: generics,
				Comments: []string{fmt.Sprintf(
					"Generated type representing the anonymous struct variant `%s` of the `%s` enum",
					v.Name, e.ID.Name,
				)},
			},
			Fields: payload.Fields,
		})
	}
	return out
}
