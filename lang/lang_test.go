package lang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
)

func TestMergeDecorators(t *testing.T) {
	out := lang.MergeDecorators(
		[]string{"Equatable", "Codable"},
		[]string{"Hashable", "Equatable"},
		[]string{"Sendable"},
	)
	// defaults first, then explicit, then structural; each group
	// alphabetized; duplicates keep first occurrence
	assert.Equal(t, []string{"Codable", "Equatable", "Hashable", "Sendable"}, out)
}

func TestMergeDecorators_EmptyGroups(t *testing.T) {
	assert.Nil(t, lang.MergeDecorators(nil, nil, nil))
	assert.Equal(t, []string{"Codable"}, lang.MergeDecorators([]string{"Codable"}, nil, nil))
}

func TestCarriers_SynthesizesOnePerStructVariant(t *testing.T) {
	e := &ir.Enum{
		DeclShared: ir.DeclShared{
			ID:       ir.TypeID{Name: "Message", Module: "chat"},
			Generics: []ir.GenericParam{{Name: "A"}, {Name: "B"}},
		},
		Variants: []ir.Variant{
			{Name: "Ping"},
			{Name: "Send", Payload: ir.StructPayload{Fields: []ir.Field{
				{Name: "body", Type: ir.Generic{Name: "B"}},
			}}},
			{Name: "Raw", Payload: ir.TuplePayload{Type: ir.Scalar{K: ir.Bytes}}},
			{Name: "Batch", Payload: ir.StructPayload{Fields: []ir.Field{
				{Name: "items", Type: ir.Sequence{Elem: ir.Generic{Name: "A"}}},
				{Name: "tail", Type: ir.Optional{Inner: ir.Generic{Name: "B"}}},
			}}},
		},
	}

	carriers := lang.Carriers(e)
	require.Len(t, carriers, 2, "only anonymous struct variants get carriers")

	send := carriers[0]
	assert.Equal(t, "MessageSendInner", send.ID.Name)
	assert.Equal(t, "chat", send.ID.Module, "carrier lives in the enum's module")
	assert.Equal(t, []string{"B"}, send.GenericNames(), "only the generics the fields use")
	require.NotEmpty(t, send.Comments, "carrier is marked generated")
	assert.Contains(t, send.Comments[0], "Send")
	assert.Contains(t, send.Comments[0], "Message")

	batch := carriers[1]
	assert.Equal(t, "MessageBatchInner", batch.ID.Name)
	assert.Equal(t, []string{"A", "B"}, batch.GenericNames(), "enum declaration order preserved")
	assert.Len(t, batch.Fields, 2)
}

func TestVariantTag_RenameWinsOverCaseRule(t *testing.T) {
	renamed := &ir.Variant{Name: "SomeVariant", Renamed: "exact-tag"}
	assert.Equal(t, "exact-tag", lang.VariantTag(renamed, lang.CaseSnake))

	plain := &ir.Variant{Name: "SomeVariant"}
	assert.Equal(t, "some_variant", lang.VariantTag(plain, lang.CaseSnake))
	assert.Equal(t, "SomeVariant", lang.VariantTag(plain, lang.CaseNone))
}

func TestLedger(t *testing.T) {
	l := lang.NewLedger()
	assert.True(t, l.MarkEmitted("FooInner"))
	assert.False(t, l.MarkEmitted("FooInner"), "second emission is suppressed")
	assert.True(t, l.MarkEmitted("BarInner"))

	l.Warn("first")
	l.Warn("second")
	assert.Equal(t, []string{"first", "second"}, l.Warnings())
}
