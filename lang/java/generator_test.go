package java_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
	"github.com/typebridge/typebridge/lang/java"
)

func newGenerator(mutate func(*config.Config)) *java.Generator {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return java.New(cfg, lang.NewLedger())
}

func TestWriteStruct_Record(t *testing.T) {
	g := newGenerator(nil)
	s := &ir.Struct{
		DeclShared: ir.DeclShared{
			ID:       ir.TypeID{Name: "Person", Module: "m"},
			Comments: []string{"A registered person."},
		},
		Fields: []ir.Field{
			{Name: "name", Type: ir.Scalar{K: ir.String}},
			{Name: "age", Type: ir.Scalar{K: ir.U16}},
			{Name: "extra", Renamed: "extra-info", Type: ir.Optional{Inner: ir.Scalar{K: ir.String}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteStruct(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "/// A registered person.")
	assert.Contains(t, out, "public record Person(")
	assert.Contains(t, out, "\t\tString name,")
	assert.Contains(t, out, "\t\tint age,")
	assert.Contains(t, out, "\t\tString extra_info\n")
	assert.Contains(t, out, "\t) {}")
	// the first record opens the namespace class
	assert.Contains(t, out, "public class Types {")
}

func TestWriteStruct_EmptyAndGeneric(t *testing.T) {
	g := newGenerator(nil)

	empty := &ir.Struct{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Marker", Module: "m"}},
	}
	box := &ir.Struct{
		DeclShared: ir.DeclShared{
			ID:       ir.TypeID{Name: "Box", Module: "m"},
			Generics: []ir.GenericParam{{Name: "T"}},
		},
		Fields: []ir.Field{{Name: "value", Type: ir.Generic{Name: "T"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteStruct(&buf, empty))
	require.NoError(t, g.WriteStruct(&buf, box))
	out := buf.String()

	assert.Contains(t, out, "public record Marker() {}")
	assert.Contains(t, out, "public record Box<T>(")
	assert.Contains(t, out, "\t\tT value\n")
}

func TestFormatType_UnsignedWidening(t *testing.T) {
	g := newGenerator(nil)

	tests := []struct {
		kind ir.ScalarKind
		want string
	}{
		{ir.I8, "byte"},
		{ir.I16, "short"},
		{ir.I32, "int"},
		{ir.I64, "long"},
		{ir.ISize, "int"},
		{ir.U8, "short"},
		{ir.U16, "int"},
		{ir.U32, "long"},
		{ir.USize, "long"},
		{ir.U53, "java.math.BigInteger"},
		{ir.U64, "java.math.BigInteger"},
		{ir.F32, "float"},
		{ir.F64, "double"},
		{ir.Bool, "boolean"},
		{ir.Char, "String"},
		{ir.String, "String"},
		{ir.Bytes, "byte[]"},
		{ir.Unit, "Void"},
	}
	for _, tc := range tests {
		got, err := g.FormatType(ir.Scalar{K: tc.kind}, nil)
		require.NoError(t, err, "scalar %q", tc.kind)
		assert.Equal(t, tc.want, got, "scalar %q", tc.kind)
	}
}

func TestFormatType_BoxedGenericArguments(t *testing.T) {
	g := newGenerator(nil)

	tests := []struct {
		name string
		ft   ir.FieldType
		want string
	}{
		{"sequence boxes element", ir.Sequence{Elem: ir.Scalar{K: ir.I32}}, "java.util.ArrayList<Integer>"},
		{"map boxes both sides", ir.Map{Key: ir.Scalar{K: ir.String}, Value: ir.Scalar{K: ir.U32}}, "java.util.HashMap<String, Long>"},
		{"optional boxes for null", ir.Optional{Inner: ir.Scalar{K: ir.I64}}, "Long"},
		{"fixed array keeps primitive", ir.FixedArray{Elem: ir.Scalar{K: ir.U8}, Len: 4}, "short[]"},
		{"nested", ir.Sequence{Elem: ir.Sequence{Elem: ir.Scalar{K: ir.Bool}}}, "java.util.ArrayList<java.util.ArrayList<Boolean>>"},
	}
	for _, tc := range tests {
		got, err := g.FormatType(tc.ft, nil)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestFormatType_DateTimeNeedsOverride(t *testing.T) {
	g := newGenerator(nil)
	_, err := g.FormatType(ir.Scalar{K: ir.DateTime}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
	assert.Contains(t, errors.GetAllHints(err)[0], "java.time.Instant")

	g = newGenerator(func(c *config.Config) {
		c.Java.TypeOverrides = map[string]string{"datetime": "java.time.Instant"}
	})
	got, err := g.FormatType(ir.Scalar{K: ir.DateTime}, nil)
	require.NoError(t, err)
	assert.Equal(t, "java.time.Instant", got)
}

func TestWriteEnum_UnitEnum(t *testing.T) {
	g := newGenerator(nil)
	e := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Color", Module: "m"}},
		Variants: []ir.Variant{
			{Name: "Red"},
			{Name: "Green", Comments: []string{"the grass one"}},
			{Name: "static"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteEnum(&buf, e))
	out := buf.String()

	assert.Contains(t, out, "public enum Color {")
	assert.Contains(t, out, "\t\tRed,")
	assert.Contains(t, out, "\t\t/// the grass one\n\t\tGreen,")
	assert.Contains(t, out, "\t\t_static\n")
}

func TestWriteEnum_AlgebraicEnumUnsupported(t *testing.T) {
	g := newGenerator(nil)
	e := &ir.Enum{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Shape", Module: "m"}},
		Variants: []ir.Variant{
			{Name: "Circle", Payload: ir.TuplePayload{Type: ir.Scalar{K: ir.F64}}},
		},
	}

	var buf bytes.Buffer
	err := g.WriteEnum(&buf, e)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "Shape")
}

func TestPrepare_AliasSubstitutedAtReferences(t *testing.T) {
	g := newGenerator(nil)
	alias := &ir.Alias{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "UserId", Module: "m"}},
		Target:     ir.Scalar{K: ir.U64},
	}
	g.Prepare([]ir.Decl{alias})

	// the alias itself emits nothing
	var buf bytes.Buffer
	require.NoError(t, g.WriteAlias(&buf, alias))
	assert.Empty(t, buf.String())

	got, err := g.FormatType(ir.Reference{ID: alias.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, "java.math.BigInteger", got)

	// inside a generic argument the substituted primitive still boxes
	got, err = g.FormatType(ir.Sequence{Elem: ir.Reference{
		ID: ir.TypeID{Name: "Count", Module: "m"},
	}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "java.util.ArrayList<Count>", got)
}

func TestWriteConst(t *testing.T) {
	g := newGenerator(nil)

	intConst := &ir.Const{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "max_retries", Module: "m"}},
		Type:       ir.Scalar{K: ir.U8},
		Value:      ir.IntValue{Value: 5},
	}
	strConst := &ir.Const{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "api_version", Module: "m"}},
		Type:       ir.Scalar{K: ir.String},
		Value:      ir.StringValue{Value: "v2\n"},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteConst(&buf, intConst))
	require.NoError(t, g.WriteConst(&buf, strConst))
	out := buf.String()

	assert.Contains(t, out, "public static final short MAX_RETRIES = 5;")
	assert.Contains(t, out, `public static final String API_VERSION = "v2\n";`)
}

func TestBeginFile_PackageAndFileName(t *testing.T) {
	g := newGenerator(func(c *config.Config) {
		c.Java.Package = "com.example.types"
	})

	assert.Equal(t, "Types.java", g.FileName(""))
	assert.Equal(t, "ApiModels.java", g.FileName("api/models"))

	var buf bytes.Buffer
	require.NoError(t, g.BeginFile(&buf, "api/models"))
	assert.Contains(t, buf.String(), "package com.example.types.api_models;")

	buf.Reset()
	require.NoError(t, g.BeginFile(&buf, ""))
	assert.Contains(t, buf.String(), "package com.example.types;")
}

func TestEndFile_ClosesNamespaceClassOnlyWhenOpened(t *testing.T) {
	g := newGenerator(func(c *config.Config) {
		c.NoVersionHeader = true
	})

	var buf bytes.Buffer
	require.NoError(t, g.BeginFile(&buf, ""))
	require.NoError(t, g.EndFile(&buf))
	assert.NotContains(t, buf.String(), "}", "nothing written means no class to close")

	buf.Reset()
	require.NoError(t, g.BeginFile(&buf, ""))
	s := &ir.Struct{DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "A", Module: "m"}}}
	require.NoError(t, g.WriteStruct(&buf, s))
	require.NoError(t, g.EndFile(&buf))
	out := buf.String()
	assert.Contains(t, out, "public class Types {")
	assert.Equal(t, "}\n", out[len(out)-2:])
}

func TestWriteImports_NestedTypeImports(t *testing.T) {
	g := newGenerator(func(c *config.Config) {
		c.Java.Package = "com.example.types"
		c.Java.Prefix = "TB"
	})

	var buf bytes.Buffer
	require.NoError(t, g.WriteImports(&buf, map[string][]string{
		"models": {"Person", "Role"},
	}))
	out := buf.String()

	assert.Contains(t, out, "import com.example.types.models.Models.TBPerson;")
	assert.Contains(t, out, "import com.example.types.models.Models.TBRole;")
}

func TestWriteStruct_PrefixAppliesToTypesAndReferences(t *testing.T) {
	g := newGenerator(func(c *config.Config) {
		c.Java.Prefix = "TB"
	})
	s := &ir.Struct{
		DeclShared: ir.DeclShared{ID: ir.TypeID{Name: "Team", Module: "m"}},
		Fields: []ir.Field{
			{Name: "lead", Type: ir.Reference{ID: ir.TypeID{Name: "Person", Module: "m"}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteStruct(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "public record TBTeam(")
	assert.Contains(t, out, "\t\tTBPerson lead\n")
}
