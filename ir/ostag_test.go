package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typebridge/typebridge/ir"
)

func TestOSPredicate_Matches(t *testing.T) {
	tests := []struct {
		name     string
		pred     *ir.OSPredicate
		targetOS []string
		want     bool
	}{
		{"nil predicate accepts", nil, []string{"ios"}, true},
		{"empty target set accepts everything", &ir.OSPredicate{Accept: []string{"ios"}}, nil, true},
		{"accept hit", &ir.OSPredicate{Accept: []string{"ios", "macos"}}, []string{"ios"}, true},
		{"accept miss", &ir.OSPredicate{Accept: []string{"ios"}}, []string{"android"}, false},
		{"reject hit wins", &ir.OSPredicate{Reject: []string{"android"}}, []string{"android"}, false},
		{"reject miss accepts", &ir.OSPredicate{Reject: []string{"android"}}, []string{"ios"}, true},
		{"reject beats accept", &ir.OSPredicate{Accept: []string{"ios"}, Reject: []string{"ios"}}, []string{"ios"}, false},
		{"any target in accept list suffices", &ir.OSPredicate{Accept: []string{"macos"}}, []string{"ios", "macos"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred.Matches(tt.targetOS))
		})
	}
}

func TestFilterByOS_RemovesDeclsFieldsAndVariants(t *testing.T) {
	decls := []ir.Decl{
		&ir.Struct{
			DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Config", Module: "core"}},
			Fields: []ir.Field{
				{Name: "shared", Type: ir.Scalar{K: ir.String}},
				{Name: "ios_only", Type: ir.Scalar{K: ir.Bool}, OSPredicate: &ir.OSPredicate{Accept: []string{"ios"}}},
				{Name: "hidden", Type: ir.Scalar{K: ir.Bool}, Skip: true},
			},
		},
		&ir.Struct{
			DeclShared: ir.DeclShared{
				ID:          ir.TypeID{Name: "IOSSettings", Module: "core"},
				OSPredicate: &ir.OSPredicate{Accept: []string{"ios"}},
			},
		},
		&ir.Enum{
			DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Event", Module: "core"}},
			Variants: []ir.Variant{
				{Name: "Common"},
				{Name: "Desktop", OSPredicate: &ir.OSPredicate{Reject: []string{"android"}}},
				{Name: "Payload", Payload: ir.StructPayload{Fields: []ir.Field{
					{Name: "value", Type: ir.Scalar{K: ir.I32}},
					{Name: "mac_value", Type: ir.Scalar{K: ir.I32}, OSPredicate: &ir.OSPredicate{Accept: []string{"macos"}}},
				}}},
			},
		},
	}

	out := ir.FilterByOS(decls, []string{"android"})
	require.Len(t, out, 2, "ios-only struct should be dropped")

	s := out[0].(*ir.Struct)
	require.Len(t, s.Fields, 1, "os-filtered and skipped fields removed")
	assert.Equal(t, "shared", s.Fields[0].Name)

	e := out[1].(*ir.Enum)
	require.Len(t, e.Variants, 2, "rejected variant removed")
	assert.Equal(t, "Common", e.Variants[0].Name)

	payload := e.Variants[1].Payload.(ir.StructPayload)
	require.Len(t, payload.Fields, 1, "payload fields filtered too")
	assert.Equal(t, "value", payload.Fields[0].Name)
}

func TestFilterByOS_CopiesDecls(t *testing.T) {
	original := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "E", Module: "m"}},
		Variants:   []ir.Variant{{Name: "A"}, {Name: "B", Skip: true}},
	}

	out := ir.FilterByOS([]ir.Decl{original}, nil)
	filtered := out[0].(*ir.Enum)
	filtered.IsRecursive = true

	assert.False(t, original.IsRecursive, "per-run copy must not mutate the snapshot")
	assert.Len(t, original.Variants, 2, "snapshot variants untouched")
	assert.Len(t, filtered.Variants, 1)
}

func TestEnum_IsUnit(t *testing.T) {
	unit := &ir.Enum{Variants: []ir.Variant{{Name: "A"}, {Name: "B"}}}
	assert.True(t, unit.IsUnit())

	mixed := &ir.Enum{Variants: []ir.Variant{
		{Name: "A"},
		{Name: "B", Payload: ir.TuplePayload{Type: ir.Scalar{K: ir.String}}},
	}}
	assert.False(t, mixed.IsUnit())
}

func TestEnum_TagContentDefaults(t *testing.T) {
	e := &ir.Enum{}
	assert.Equal(t, "type", e.Tag())
	assert.Equal(t, "content", e.Content())

	renamed := &ir.Enum{TagKey: "t", ContentKey: "c"}
	assert.Equal(t, "t", renamed.Tag())
	assert.Equal(t, "c", renamed.Content())
}
