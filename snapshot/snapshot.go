// Package snapshot decodes the JSON IR snapshot a source-language front end
// produces into ir declarations. The wire format tags every polymorphic node
// with a "kind" field; transparent ownership wrappers (box, rc, arc, cell,
// mutex, rwlock, cow) are unwrapped to their inner type during decode, so
// downstream code never sees them.
package snapshot

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
)

// transparentWrappers are ownership and interior-mutability wrappers with no
// serialization footprint of their own.
var transparentWrappers = map[string]bool{
	"box": true, "rc": true, "arc": true,
	"cell": true, "mutex": true, "rwlock": true, "cow": true,
}

type wireSnapshot struct {
	Version int               `json:"version"`
	Modules []string          `json:"modules"`
	Decls   []json.RawMessage `json:"decls"`
}

type wireDecl struct {
	Kind ir.DeclKind `json:"kind"`
	ir.DeclShared

	// struct
	Fields []wireField `json:"fields"`

	// enum
	TagKey     string        `json:"tag_key"`
	ContentKey string        `json:"content_key"`
	Variants   []wireVariant `json:"variants"`

	// alias
	Target json.RawMessage `json:"target"`

	// const
	Type  json.RawMessage `json:"type"`
	Value *wireConstValue `json:"value"`
}

type wireField struct {
	Name          string               `json:"name"`
	Renamed       string               `json:"renamed"`
	Type          json.RawMessage      `json:"type"`
	HasDefault    bool                 `json:"has_default"`
	Skip          bool                 `json:"skip"`
	Flatten       bool                 `json:"flatten"`
	Comments      []string             `json:"comments"`
	TypeOverrides map[ir.Lang]string   `json:"type_overrides"`
	Decorators    map[ir.Lang][]string `json:"decorators"`
	OSPredicate   *ir.OSPredicate      `json:"os"`
}

type wireVariant struct {
	Name        string          `json:"name"`
	Renamed     string          `json:"renamed"`
	Payload     json.RawMessage `json:"payload"`
	Comments    []string        `json:"comments"`
	Skip        bool            `json:"skip"`
	OSPredicate *ir.OSPredicate `json:"os"`
}

type wirePayload struct {
	Kind   string          `json:"kind"`
	Type   json.RawMessage `json:"type"`
	Fields []wireField     `json:"fields"`
}

type wireConstValue struct {
	Int    *int64  `json:"int"`
	String *string `json:"string"`
}

type wireType struct {
	Kind string `json:"kind"`

	Scalar ir.ScalarKind   `json:"scalar"`
	Elem   json.RawMessage `json:"elem"`
	Len    int             `json:"len"`
	Key    json.RawMessage `json:"key"`
	Value  json.RawMessage `json:"value"`
	Inner  json.RawMessage `json:"inner"`
	ID     ir.TypeID       `json:"id"`
	Args   []json.RawMessage `json:"args"`
	Name   string          `json:"name"`
}

// Decode reads a JSON IR snapshot and validates its shape. Decode errors
// name the offending declaration.
func Decode(r io.Reader) (*ir.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a JSON IR snapshot held in memory.
func DecodeBytes(data []byte) (*ir.Snapshot, error) {
	var wire wireSnapshot
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, "malformed snapshot")
	}

	snap := &ir.Snapshot{
		Modules: ir.SortModules(wire.Modules),
		Decls:   make([]ir.Decl, 0, len(wire.Decls)),
	}
	for i, raw := range wire.Decls {
		decl, err := decodeDecl(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "declaration %d", i)
		}
		snap.Decls = append(snap.Decls, decl)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func decodeDecl(raw json.RawMessage) (ir.Decl, error) {
	var wire wireDecl
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.Wrap(err, "malformed declaration")
	}

	decl, err := buildDecl(&wire)
	if err != nil && wire.ID.Name != "" {
		return nil, errors.Wrapf(err, "type %q in module %q", wire.ID.Name, wire.ID.Module)
	}
	return decl, err
}

func buildDecl(wire *wireDecl) (ir.Decl, error) {
	switch wire.Kind {
	case ir.KindStruct:
		fields, err := decodeFields(wire.Fields)
		if err != nil {
			return nil, err
		}
		return &ir.Struct{DeclShared: wire.DeclShared, Fields: fields}, nil

	case ir.KindEnum:
		variants := make([]ir.Variant, 0, len(wire.Variants))
		for _, wv := range wire.Variants {
			v, err := decodeVariant(&wv)
			if err != nil {
				return nil, err
			}
			variants = append(variants, v)
		}
		return &ir.Enum{
			DeclShared: wire.DeclShared,
			TagKey:     wire.TagKey,
			ContentKey: wire.ContentKey,
			Variants:   variants,
		}, nil

	case ir.KindAlias:
		if wire.Target == nil {
			return nil, errors.New("alias has no target type")
		}
		target, err := DecodeType(wire.Target)
		if err != nil {
			return nil, err
		}
		return &ir.Alias{DeclShared: wire.DeclShared, Target: target}, nil

	case ir.KindConst:
		if wire.Type == nil || wire.Value == nil {
			return nil, errors.New("const needs both a type and a value")
		}
		typ, err := DecodeType(wire.Type)
		if err != nil {
			return nil, err
		}
		value, err := decodeConstValue(wire.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Const{DeclShared: wire.DeclShared, Type: typ, Value: value}, nil
	}
	return nil, errors.Newf("unknown declaration kind %q", wire.Kind)
}

func decodeFields(wires []wireField) ([]ir.Field, error) {
	fields := make([]ir.Field, 0, len(wires))
	for _, wf := range wires {
		if wf.Type == nil {
			return nil, errors.Newf("field %q has no type", wf.Name)
		}
		typ, err := DecodeType(wf.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", wf.Name)
		}
		fields = append(fields, ir.Field{
			Name:          wf.Name,
			Renamed:       wf.Renamed,
			Type:          typ,
			HasDefault:    wf.HasDefault,
			Skip:          wf.Skip,
			Flatten:       wf.Flatten,
			Comments:      wf.Comments,
			TypeOverrides: wf.TypeOverrides,
			Decorators:    wf.Decorators,
			OSPredicate:   wf.OSPredicate,
		})
	}
	return fields, nil
}

func decodeVariant(wire *wireVariant) (ir.Variant, error) {
	v := ir.Variant{
		Name:        wire.Name,
		Renamed:     wire.Renamed,
		Comments:    wire.Comments,
		Skip:        wire.Skip,
		OSPredicate: wire.OSPredicate,
	}
	if wire.Payload == nil {
		return v, nil
	}

	var wp wirePayload
	if err := json.Unmarshal(wire.Payload, &wp); err != nil {
		return v, errors.Wrapf(err, "variant %q payload", wire.Name)
	}
	switch wp.Kind {
	case "tuple":
		if wp.Type == nil {
			return v, errors.Newf("tuple variant %q has no type", wire.Name)
		}
		typ, err := DecodeType(wp.Type)
		if err != nil {
			return v, errors.Wrapf(err, "variant %q", wire.Name)
		}
		v.Payload = ir.TuplePayload{Type: typ}
	case "struct":
		fields, err := decodeFields(wp.Fields)
		if err != nil {
			return v, errors.Wrapf(err, "variant %q", wire.Name)
		}
		v.Payload = ir.StructPayload{Fields: fields}
	default:
		return v, errors.Newf("variant %q has unknown payload kind %q", wire.Name, wp.Kind)
	}
	return v, nil
}

func decodeConstValue(wire *wireConstValue) (ir.ConstValue, error) {
	switch {
	case wire.Int != nil && wire.String != nil:
		return nil, errors.New("const value carries both int and string")
	case wire.Int != nil:
		return ir.IntValue{Value: *wire.Int}, nil
	case wire.String != nil:
		return ir.StringValue{Value: *wire.String}, nil
	}
	return nil, errors.New("const value carries neither int nor string")
}

// DecodeType decodes one type node, unwrapping transparent ownership
// wrappers as it goes.
func DecodeType(raw json.RawMessage) (ir.FieldType, error) {
	var wire wireType
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.Wrap(err, "malformed type node")
	}

	if transparentWrappers[wire.Kind] {
		if wire.Inner == nil {
			return nil, errors.Newf("%s wrapper has no inner type", wire.Kind)
		}
		return DecodeType(wire.Inner)
	}

	switch wire.Kind {
	case "scalar":
		if !ir.KnownScalar(wire.Scalar) {
			return nil, errors.Newf("unknown scalar kind %q", wire.Scalar)
		}
		return ir.Scalar{K: wire.Scalar}, nil

	case "sequence":
		elem, err := DecodeType(wire.Elem)
		if err != nil {
			return nil, err
		}
		return ir.Sequence{Elem: elem}, nil

	case "fixed_array":
		elem, err := DecodeType(wire.Elem)
		if err != nil {
			return nil, err
		}
		if wire.Len < 0 {
			return nil, errors.Newf("fixed array has negative length %d", wire.Len)
		}
		return ir.FixedArray{Elem: elem, Len: wire.Len}, nil

	case "map":
		key, err := DecodeType(wire.Key)
		if err != nil {
			return nil, err
		}
		value, err := DecodeType(wire.Value)
		if err != nil {
			return nil, err
		}
		return ir.Map{Key: key, Value: value}, nil

	case "optional":
		inner, err := DecodeType(wire.Inner)
		if err != nil {
			return nil, err
		}
		return ir.Optional{Inner: inner}, nil

	case "reference":
		if wire.ID.Name == "" {
			return nil, errors.New("reference has no target name")
		}
		args := make([]ir.FieldType, 0, len(wire.Args))
		for _, rawArg := range wire.Args {
			arg, err := DecodeType(rawArg)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if len(args) == 0 {
			args = nil
		}
		return ir.Reference{ID: wire.ID, Args: args}, nil

	case "generic":
		if wire.Name == "" {
			return nil, errors.New("generic parameter reference has no name")
		}
		return ir.Generic{Name: wire.Name}, nil
	}
	return nil, errors.Newf("unknown type kind %q", wire.Kind)
}
