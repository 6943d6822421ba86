package lang

import "github.com/typebridge/typebridge/ir"

// VariantTag returns the serialized tag value for a variant: the literal
// rename when the source supplied one, otherwise the declared name passed
// through the configured case rule. The same value is used for runtime tag
// comparison and for deriving generated identifiers, so the two never
// drift apart.
func VariantTag(v *ir.Variant, rule CaseRule) string {
	if v.Renamed != "" {
		return v.Renamed
	}
	return ApplyCase(rule, v.Name)
}

// FieldName returns the serialized name for a field.
func FieldName(f *ir.Field) string {
	return f.SerializedName()
}
