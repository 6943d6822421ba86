package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typebridge/typebridge/ir"
)

func ref(name string) ir.Reference {
	return ir.Reference{ID: ir.TypeID{Name: name, Module: "m"}}
}

func TestReferences_SoftnessTracksIndirection(t *testing.T) {
	tests := []struct {
		name     string
		ft       ir.FieldType
		wantName string
		wantSoft bool
	}{
		{"bare reference is hard", ref("Node"), "Node", false},
		{"through optional is soft", ir.Optional{Inner: ref("Node")}, "Node", true},
		{"through sequence is soft", ir.Sequence{Elem: ref("Node")}, "Node", true},
		{"through map value is soft", ir.Map{Key: ir.Scalar{K: ir.String}, Value: ref("Node")}, "Node", true},
		{"through fixed array stays hard", ir.FixedArray{Elem: ref("Node"), Len: 3}, "Node", false},
		{"fixed array behind optional stays soft", ir.Optional{Inner: ir.FixedArray{Elem: ref("Node"), Len: 3}}, "Node", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := ir.References(tt.ft)
			require.Len(t, edges, 1)
			assert.Equal(t, tt.wantName, edges[0].Target.Name)
			assert.Equal(t, tt.wantSoft, edges[0].Soft)
		})
	}
}

func TestReferences_GenericArgsInheritContext(t *testing.T) {
	// Wrapper<Inner> in a hard position: both references are hard
	ft := ir.Reference{
		ID:   ir.TypeID{Name: "Wrapper", Module: "m"},
		Args: []ir.FieldType{ref("Inner")},
	}
	edges := ir.References(ft)
	require.Len(t, edges, 2)
	assert.False(t, edges[0].Soft)
	assert.False(t, edges[1].Soft)

	// the same shape behind Optional turns soft
	edges = ir.References(ir.Optional{Inner: ft})
	require.Len(t, edges, 2)
	assert.True(t, edges[0].Soft)
	assert.True(t, edges[1].Soft)
}

func TestIsDoubleOptional(t *testing.T) {
	single := ir.Optional{Inner: ir.Scalar{K: ir.String}}
	double := ir.Optional{Inner: single}

	assert.False(t, ir.IsDoubleOptional(single))
	assert.True(t, ir.IsDoubleOptional(double))
	assert.True(t, ir.IsOptional(double))
}

func TestContainsGeneric(t *testing.T) {
	ft := ir.Map{
		Key:   ir.Scalar{K: ir.String},
		Value: ir.Sequence{Elem: ir.Generic{Name: "T"}},
	}
	assert.True(t, ir.ContainsGeneric(ft, "T"))
	assert.False(t, ir.ContainsGeneric(ft, "U"))
}

func TestSnapshot_ValidateRejectsDuplicates(t *testing.T) {
	snap := &ir.Snapshot{Decls: []ir.Decl{
		&ir.Struct{DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Foo", Module: "a"}}},
		&ir.Struct{DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Foo", Module: "b"}}},
	}}
	err := snap.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Foo")
}
