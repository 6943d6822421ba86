// Package ir defines the language-agnostic type model that typebridge
// generates target code from.
//
// A front end parses source-language declarations into a Snapshot of Decl
// values. The snapshot is immutable once built: every generation run reads
// the same Decls, so multiple target languages can be generated from one
// parse without copying.
package ir

import (
	"fmt"
	"sort"
)

// Lang identifies a target language.
type Lang string

// Supported target languages.
const (
	LangTypeScript Lang = "typescript"
	LangSwift      Lang = "swift"
	LangGo         Lang = "go"
	LangJava       Lang = "java"
)

// TypeID uniquely identifies a declared type within its originating module.
type TypeID struct {
	// Name is the declared type name
	Name string `json:"name"`
	// Module is the source module path the type was declared in
	Module string `json:"module"`
}

func (id TypeID) String() string {
	if id.Module == "" {
		return id.Name
	}
	return id.Module + "::" + id.Name
}

// DeclShared holds the attributes common to every declaration kind.
type DeclShared struct {
	ID TypeID `json:"id"`
	// Renamed is the serialized name after rename attributes. Identical to
	// ID.Name when no rename applies.
	Renamed string `json:"renamed,omitempty"`
	// Comments are the doc comment lines from the source declaration
	Comments []string `json:"comments,omitempty"`
	// Decorators are extra per-language attributes requested by the source,
	// e.g. swift: ["Equatable", "Hashable"]
	Decorators map[Lang][]string `json:"decorators,omitempty"`
	// Generics are the declaration's generic parameters, in order
	Generics []GenericParam `json:"generics,omitempty"`
	// OSPredicate restricts the declaration to certain target OS tags
	OSPredicate *OSPredicate `json:"os,omitempty"`
}

// SerializedName returns the name used on the wire.
func (s *DeclShared) SerializedName() string {
	if s.Renamed != "" {
		return s.Renamed
	}
	return s.ID.Name
}

// GenericNames returns the generic parameter names in declaration order.
func (s *DeclShared) GenericNames() []string {
	names := make([]string, len(s.Generics))
	for i, g := range s.Generics {
		names[i] = g.Name
	}
	return names
}

// GenericParam is one generic parameter with optional bound annotations.
type GenericParam struct {
	Name   string   `json:"name"`
	Bounds []string `json:"bounds,omitempty"`
}

// DeclKind discriminates Decl implementations.
type DeclKind string

// Declaration kinds.
const (
	KindStruct DeclKind = "struct"
	KindEnum   DeclKind = "enum"
	KindAlias  DeclKind = "alias"
	KindConst  DeclKind = "const"
)

// Decl is a single type declaration in the IR snapshot.
type Decl interface {
	Shared() *DeclShared
	Kind() DeclKind
}

// Struct is an ordered sequence of named fields.
type Struct struct {
	DeclShared
	Fields []Field `json:"fields"`
}

func (s *Struct) Shared() *DeclShared { return &s.DeclShared }
func (s *Struct) Kind() DeclKind      { return KindStruct }

// Enum is a sum type. TagKey and ContentKey configure the tagged-wrapper
// serialization used when at least one variant carries data.
type Enum struct {
	DeclShared
	// TagKey is the discriminant field name, "type" unless renamed
	TagKey string `json:"tag_key,omitempty"`
	// ContentKey is the payload field name, "content" unless renamed
	ContentKey string `json:"content_key,omitempty"`
	Variants   []Variant `json:"variants"`
	// IsRecursive is true when the enum reaches itself through any variant
	// payload. Computed by the resolver, consulted by backends that need an
	// indirection marker (Swift's `indirect`).
	IsRecursive bool `json:"-"`
}

func (e *Enum) Shared() *DeclShared { return &e.DeclShared }
func (e *Enum) Kind() DeclKind      { return KindEnum }

// Tag returns the configured tag key, defaulting to "type".
func (e *Enum) Tag() string {
	if e.TagKey == "" {
		return "type"
	}
	return e.TagKey
}

// Content returns the configured content key, defaulting to "content".
func (e *Enum) Content() string {
	if e.ContentKey == "" {
		return "content"
	}
	return e.ContentKey
}

// IsUnit reports whether every variant is payload-less. Unit enums are
// serialized as a bare closed string enumeration, never a tagged wrapper.
func (e *Enum) IsUnit() bool {
	for _, v := range e.Variants {
		if v.Payload != nil {
			return false
		}
	}
	return true
}

// Alias declares one type as a name for another. Aliases resolve lazily:
// the target type is substituted at every reference site.
type Alias struct {
	DeclShared
	Target FieldType `json:"target"`
}

func (a *Alias) Shared() *DeclShared { return &a.DeclShared }
func (a *Alias) Kind() DeclKind      { return KindAlias }

// Const is a shared numeric or string constant.
type Const struct {
	DeclShared
	Type  FieldType  `json:"type"`
	Value ConstValue `json:"value"`
}

func (c *Const) Shared() *DeclShared { return &c.DeclShared }
func (c *Const) Kind() DeclKind      { return KindConst }

// ConstValue is the literal a Const carries.
type ConstValue interface{ isConstValue() }

// IntValue is an integer constant expression.
type IntValue struct {
	Value int64 `json:"value"`
}

// StringValue is a string constant expression. The content is preserved
// byte for byte: no Unicode normalization, no trimming.
type StringValue struct {
	Value string `json:"value"`
}

func (IntValue) isConstValue()    {}
func (StringValue) isConstValue() {}

// Field is one named member of a struct or struct-like variant payload.
type Field struct {
	Name string `json:"name"`
	// Renamed is the serialized field name, empty when unchanged
	Renamed string    `json:"renamed,omitempty"`
	Type    FieldType `json:"type"`
	// HasDefault marks fields the source gives a default for; targets treat
	// them as optional even when the type itself is not
	HasDefault bool `json:"has_default,omitempty"`
	// Skip excludes the field from all generated output
	Skip bool `json:"skip,omitempty"`
	// Flatten is carried from the source but rejected at generation time
	Flatten  bool     `json:"flatten,omitempty"`
	Comments []string `json:"comments,omitempty"`
	// TypeOverrides replaces the mapped type with literal target text
	TypeOverrides map[Lang]string `json:"type_overrides,omitempty"`
	// Decorators are per-language field attributes, e.g. typescript: ["readonly"]
	Decorators  map[Lang][]string `json:"decorators,omitempty"`
	OSPredicate *OSPredicate      `json:"os,omitempty"`
}

// SerializedName returns the field name used on the wire.
func (f *Field) SerializedName() string {
	if f.Renamed != "" {
		return f.Renamed
	}
	return f.Name
}

// TypeOverride returns the literal target type text for lang, if configured.
func (f *Field) TypeOverride(lang Lang) (string, bool) {
	ov, ok := f.TypeOverrides[lang]
	return ov, ok
}

// HasDecorator reports whether the field carries the named decorator for lang.
func (f *Field) HasDecorator(lang Lang, name string) bool {
	for _, d := range f.Decorators[lang] {
		if d == name {
			return true
		}
	}
	return false
}

// Variant is one case of an enum.
type Variant struct {
	Name    string `json:"name"`
	Renamed string `json:"renamed,omitempty"`
	// Payload is nil for unit variants
	Payload     Payload      `json:"payload,omitempty"`
	Comments    []string     `json:"comments,omitempty"`
	Skip        bool         `json:"skip,omitempty"`
	OSPredicate *OSPredicate `json:"os,omitempty"`
}

// SerializedName returns the tag value used on the wire for this variant.
func (v *Variant) SerializedName() string {
	if v.Renamed != "" {
		return v.Renamed
	}
	return v.Name
}

// Payload is the data shape a variant carries.
type Payload interface{ isPayload() }

// TuplePayload is a single unnamed value.
type TuplePayload struct {
	Type FieldType `json:"type"`
}

// StructPayload is a set of inline named fields. Backends synthesize a
// carrier struct type for it.
type StructPayload struct {
	Fields []Field `json:"fields"`
}

func (TuplePayload) isPayload()  {}
func (StructPayload) isPayload() {}

// Snapshot is the immutable result of one front-end parse.
type Snapshot struct {
	// Decls holds every shared declaration, keyed lookup via ByName
	Decls []Decl
	// Modules lists the declared source modules, sorted
	Modules []string
}

// ByName builds a lookup table from type name to declaration. Names are
// unique across modules in a valid snapshot.
func (s *Snapshot) ByName() map[string]Decl {
	m := make(map[string]Decl, len(s.Decls))
	for _, d := range s.Decls {
		m[d.Shared().ID.Name] = d
	}
	return m
}

// Validate checks snapshot-level invariants: unique type IDs and non-empty
// names. Shape errors name the offending declaration.
func (s *Snapshot) Validate() error {
	seen := make(map[string]TypeID, len(s.Decls))
	for _, d := range s.Decls {
		id := d.Shared().ID
		if id.Name == "" {
			return fmt.Errorf("declaration in module %q has no name", id.Module)
		}
		if prev, ok := seen[id.Name]; ok {
			return fmt.Errorf("duplicate type name %q declared in %q and %q", id.Name, prev.Module, id.Module)
		}
		seen[id.Name] = id
	}
	return nil
}

// SortModules returns the snapshot's modules in deterministic order.
func SortModules(modules []string) []string {
	out := make([]string, len(modules))
	copy(out, modules)
	sort.Strings(out)
	return out
}
