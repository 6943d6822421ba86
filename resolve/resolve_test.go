package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/resolve"
)

func structOf(name string, fieldTypes ...ir.FieldType) *ir.Struct {
	fields := make([]ir.Field, len(fieldTypes))
	for i, ft := range fieldTypes {
		fields[i] = ir.Field{Name: "f", Type: ft}
	}
	return &ir.Struct{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: name, Module: "m"}},
		Fields:     fields,
	}
}

func refTo(name string) ir.Reference {
	return ir.Reference{ID: ir.TypeID{Name: name, Module: "m"}}
}

func names(decls []ir.Decl) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Shared().ID.Name
	}
	return out
}

func TestAnalyze_DependenciesBeforeDependents(t *testing.T) {
	decls := []ir.Decl{
		structOf("Outer", refTo("Middle")),
		structOf("Middle", refTo("Leaf")),
		structOf("Leaf", ir.Scalar{K: ir.String}),
	}

	analysis, err := resolve.Analyze(decls)
	require.NoError(t, err)
	assert.Equal(t, []string{"Leaf", "Middle", "Outer"}, names(analysis.Order))
}

func TestAnalyze_OrderIgnoresInputOrder(t *testing.T) {
	build := func(order ...string) []ir.Decl {
		byName := map[string]ir.Decl{
			"A": structOf("A", refTo("C")),
			"B": structOf("B", ir.Scalar{K: ir.Bool}),
			"C": structOf("C", refTo("B")),
		}
		out := make([]ir.Decl, len(order))
		for i, n := range order {
			out[i] = byName[n]
		}
		return out
	}

	first, err := resolve.Analyze(build("A", "B", "C"))
	require.NoError(t, err)
	second, err := resolve.Analyze(build("C", "A", "B"))
	require.NoError(t, err)
	third, err := resolve.Analyze(build("B", "C", "A"))
	require.NoError(t, err)

	assert.Equal(t, names(first.Order), names(second.Order))
	assert.Equal(t, names(first.Order), names(third.Order))
	assert.Equal(t, []string{"B", "C", "A"}, names(first.Order))
}

func TestAnalyze_RejectsHardCycle(t *testing.T) {
	decls := []ir.Decl{
		structOf("A", refTo("B")),
		structOf("B", refTo("A")),
	}

	_, err := resolve.Analyze(decls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCyclicDependency))
	assert.Contains(t, err.Error(), "A -> B -> A", "error should name the full chain")
}

func TestAnalyze_ReportsEveryIndependentCycle(t *testing.T) {
	decls := []ir.Decl{
		structOf("A", refTo("B")),
		structOf("B", refTo("A")),
		structOf("X", refTo("Y")),
		structOf("Y", refTo("X")),
	}

	_, err := resolve.Analyze(decls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A -> B -> A")
	assert.Contains(t, err.Error(), "X -> Y -> X")
}

func TestAnalyze_SoftCycleIsLegal(t *testing.T) {
	// Tree -> Vec<Tree> is self-referential but every target gives
	// sequences reference semantics
	decls := []ir.Decl{
		structOf("Tree", ir.Sequence{Elem: refTo("Tree")}),
	}

	analysis, err := resolve.Analyze(decls)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tree"}, names(analysis.Order))
}

func TestAnalyze_FixedArrayCycleIsHard(t *testing.T) {
	// [S; 2] inlines two values of S into S itself, there is no layout
	decls := []ir.Decl{
		structOf("S", ir.FixedArray{Elem: refTo("S"), Len: 2}),
	}

	_, err := resolve.Analyze(decls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCyclicDependency))
	assert.Contains(t, err.Error(), "S -> S")
}

func TestAnalyze_OptionalBreaksCycle(t *testing.T) {
	decls := []ir.Decl{
		structOf("Node", ir.Optional{Inner: refTo("Node")}),
	}
	_, err := resolve.Analyze(decls)
	require.NoError(t, err)
}

func TestAnalyze_AliasCycleIsHard(t *testing.T) {
	decls := []ir.Decl{
		&ir.Alias{
			DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Loop", Module: "m"}},
			Target:     refTo("Loop"),
		},
	}
	_, err := resolve.Analyze(decls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCyclicDependency))
}

func TestAnalyze_MarksDirectlyRecursiveEnum(t *testing.T) {
	e := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Expr", Module: "m"}},
		Variants: []ir.Variant{
			{Name: "Lit", Payload: ir.TuplePayload{Type: ir.Scalar{K: ir.I32}}},
			{Name: "Neg", Payload: ir.TuplePayload{Type: refTo("Expr")}},
		},
	}

	_, err := resolve.Analyze([]ir.Decl{e})
	require.NoError(t, err, "self-reference through an enum is legal")
	assert.True(t, e.IsRecursive)
}

func TestAnalyze_MarksTransitivelyRecursiveEnum(t *testing.T) {
	e := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Expr", Module: "m"}},
		Variants: []ir.Variant{
			{Name: "Bin", Payload: ir.TuplePayload{Type: refTo("BinOp")}},
		},
	}
	binOp := structOf("BinOp", refTo("Expr"), refTo("Expr"))

	_, err := resolve.Analyze([]ir.Decl{e, binOp})
	require.NoError(t, err)
	assert.True(t, e.IsRecursive, "cycle through an intermediate struct still marks the enum")
}

func TestAnalyze_NonRecursiveEnumStaysUnmarked(t *testing.T) {
	e := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Status", Module: "m"}},
		Variants: []ir.Variant{
			{Name: "Ok"},
			{Name: "Failed", Payload: ir.TuplePayload{Type: ir.Scalar{K: ir.String}}},
		},
	}
	_, err := resolve.Analyze([]ir.Decl{e})
	require.NoError(t, err)
	assert.False(t, e.IsRecursive)
}

func TestAnalyze_UnknownReferenceIsIgnored(t *testing.T) {
	// references to types outside the snapshot (mapped via type_overrides)
	// contribute no edges
	decls := []ir.Decl{structOf("Holder", refTo("ExternalUuid"))}
	analysis, err := resolve.Analyze(decls)
	require.NoError(t, err)
	assert.Equal(t, []string{"Holder"}, names(analysis.Order))
}

func TestReferencedNames(t *testing.T) {
	e := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "E", Module: "m"}},
		Variants: []ir.Variant{
			{Name: "A", Payload: ir.TuplePayload{Type: refTo("Zeta")}},
			{Name: "B", Payload: ir.StructPayload{Fields: []ir.Field{
				{Name: "x", Type: ir.Sequence{Elem: refTo("Alpha")}},
				{Name: "y", Type: refTo("Zeta")},
			}}},
		},
	}
	assert.Equal(t, []string{"Alpha", "Zeta"}, resolve.ReferencedNames(e), "deduplicated and sorted")
}
