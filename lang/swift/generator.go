// Package swift renders IR declarations as Swift: Codable structs, string
// raw-value enums for unit enums, and enums with associated values plus
// hand-written Codable conformance for algebraic enums. Recursive enums are
// marked `indirect`.
package swift

import (
	"fmt"
	"io"
	"strings"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
	"github.com/typebridge/typebridge/version"
)

const codable = "Codable"

// Generator implements lang.Language for Swift.
type Generator struct {
	cfg             config.SwiftConfig
	enumCase        lang.CaseRule
	noVersionHeader bool
	ledger          *lang.Ledger

	// set when any emitted type mapped the unit scalar, so EndFile can
	// write the shared CodableVoid placeholder once
	needsVoid bool

	// declarations used as dictionary keys anywhere in the run; these need
	// a Hashable conformance on top of the configured decorators
	mapKeys map[string]bool
}

// New creates a Swift generator for one run.
func New(cfg *config.Config, ledger *lang.Ledger) *Generator {
	return &Generator{
		cfg:             cfg.Swift,
		enumCase:        cfg.EnumCase,
		noVersionHeader: cfg.NoVersionHeader,
		ledger:          ledger,
		mapKeys:         make(map[string]bool),
	}
}

// Prepare scans every declaration for dictionary keys that are user-defined
// types. Swift requires dictionary keys to be Hashable, so those types get
// the conformance added structurally.
func (g *Generator) Prepare(decls []ir.Decl) {
	collect := func(ft ir.FieldType) {
		ir.Walk(ft, func(t ir.FieldType) {
			if m, ok := t.(ir.Map); ok {
				if ref, ok := m.Key.(ir.Reference); ok {
					g.mapKeys[ref.ID.Name] = true
				}
			}
		})
	}
	for _, d := range decls {
		switch t := d.(type) {
		case *ir.Struct:
			for i := range t.Fields {
				collect(t.Fields[i].Type)
			}
		case *ir.Enum:
			for _, v := range t.Variants {
				switch p := v.Payload.(type) {
				case ir.TuplePayload:
					collect(p.Type)
				case ir.StructPayload:
					for i := range p.Fields {
						collect(p.Fields[i].Type)
					}
				}
			}
		case *ir.Alias:
			collect(t.Target)
		}
	}
}

// structuralDecorators returns conformances the declaration's usage demands
// regardless of configuration.
func (g *Generator) structuralDecorators(id ir.TypeID) []string {
	if g.mapKeys[id.Name] {
		return []string{"Hashable"}
	}
	return nil
}

// Name returns "swift"
func (g *Generator) Name() ir.Lang { return ir.LangSwift }

// Extension returns "swift"
func (g *Generator) Extension() string { return "swift" }

// BeginFile writes the header and the Foundation import.
func (g *Generator) BeginFile(w io.Writer, module string) error {
	if !g.noVersionHeader {
		fmt.Fprintf(w, "/*\n Generated by typebridge %s\n*/\n\n", version.Tag)
	}
	fmt.Fprintf(w, "import Foundation\n")
	return nil
}

// EndFile writes the shared void placeholder if any type referenced it.
func (g *Generator) EndFile(w io.Writer) error {
	if !g.needsVoid {
		return nil
	}
	name := g.typeName("CodableVoid")
	if !g.ledger.MarkEmitted(name) {
		return nil
	}
	fmt.Fprintf(w, "\n/// () isn't codable, so we use this instead to represent Rust's unit type\n")
	fmt.Fprintf(w, "public struct %s: %s {}\n", name, strings.Join(g.defaultDecorators(), ", "))
	return nil
}

// WriteImports is a no-op: Swift resolves types module-wide, so split files
// need no import statements for sibling files.
func (g *Generator) WriteImports(w io.Writer, imports map[string][]string) error {
	return nil
}

// WriteAlias renders `public typealias`.
func (g *Generator) WriteAlias(w io.Writer, a *ir.Alias) error {
	fmt.Fprintln(w)
	writeComments(w, 0, a.Comments)

	formatted, err := g.FormatType(a.Target, a.GenericNames())
	if err != nil {
		return wrapDeclErr(err, &a.DeclShared)
	}
	fmt.Fprintf(w, "public typealias %s%s = %s\n",
		g.typeName(a.SerializedName()), g.genericList(a.GenericNames()), formatted)
	return nil
}

// WriteStruct renders a Codable struct with a memberwise initializer.
// CodingKeys are emitted when any serialized field name is not directly
// usable as a Swift property name.
func (g *Generator) WriteStruct(w io.Writer, s *ir.Struct) error {
	fmt.Fprintln(w)
	writeComments(w, 0, s.Comments)

	typeName := g.typeName(s.SerializedName())
	decorators := lang.MergeDecorators(g.defaultDecorators(), s.Decorators[ir.LangSwift], g.structuralDecorators(s.ID))

	fmt.Fprintf(w, "public struct %s%s: %s {\n",
		typeName, g.genericList(s.GenericNames()), strings.Join(decorators, ", "))

	var codingKeys []string
	needsCodingKeys := false
	type member struct{ name, typ string }
	members := make([]member, 0, len(s.Fields))

	for i := range s.Fields {
		f := &s.Fields[i]
		writeComments(w, 1, f.Comments)

		serialized := f.SerializedName()
		property := propertyName(serialized)
		if property != keywordAwareRename(serialized) {
			codingKeys = append(codingKeys, fmt.Sprintf("%s = %q", property, serialized))
			needsCodingKeys = true
		} else {
			codingKeys = append(codingKeys, property)
		}

		var fieldType string
		if override, ok := f.TypeOverride(ir.LangSwift); ok {
			fieldType = override
		} else {
			var err error
			fieldType, err = g.FormatType(f.Type, s.GenericNames())
			if err != nil {
				return wrapDeclErr(errors.Wrapf(err, "field %q", f.Name), &s.DeclShared)
			}
		}
		if f.HasDefault && !ir.IsOptional(f.Type) {
			fieldType += "?"
		}

		fmt.Fprintf(w, "\tpublic let %s: %s\n", property, fieldType)
		members = append(members, member{name: property, typ: fieldType})
	}

	if needsCodingKeys {
		fmt.Fprintf(w, "\n\tenum CodingKeys: String, CodingKey, %s {\n\t\tcase %s\n\t}\n",
			codable, strings.Join(codingKeys, ",\n\t\t\t"))
	}

	if len(members) > 0 {
		fmt.Fprintln(w)
	}
	params := make([]string, len(members))
	for i, m := range members {
		params[i] = fmt.Sprintf("%s: %s", m.name, m.typ)
	}
	fmt.Fprintf(w, "\tpublic init(%s) {", strings.Join(params, ", "))
	for _, m := range members {
		fmt.Fprintf(w, "\n\t\tself.%s = %s", m.name, m.name)
	}
	if len(members) > 0 {
		fmt.Fprint(w, "\n\t")
	}
	fmt.Fprintf(w, "}\n}\n")
	return nil
}

// WriteEnum renders unit enums as string raw-value enums and algebraic
// enums as associated-value enums with custom Codable conformance keyed by
// the tag and content fields. Carrier structs for anonymous struct variants
// are written first so the enum can reference them.
func (g *Generator) WriteEnum(w io.Writer, e *ir.Enum) error {
	for _, carrier := range lang.Carriers(e) {
		if !g.ledger.MarkEmitted(g.typeName(carrier.ID.Name)) {
			continue
		}
		if err := g.WriteStruct(w, carrier); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	writeComments(w, 0, e.Comments)

	if e.IsUnit() {
		return g.writeUnitEnum(w, e)
	}
	return g.writeAlgebraicEnum(w, e)
}

func (g *Generator) writeUnitEnum(w io.Writer, e *ir.Enum) error {
	name := g.typeName(e.SerializedName())
	// the raw-value type must come first in the inheritance clause
	decorators := append([]string{"String"},
		lang.MergeDecorators(g.defaultDecorators(), e.Decorators[ir.LangSwift], g.structuralDecorators(e.ID))...)

	fmt.Fprintf(w, "public enum %s: %s {\n", name, strings.Join(decorators, ", "))
	for i := range e.Variants {
		v := &e.Variants[i]
		writeComments(w, 1, v.Comments)
		tag := lang.VariantTag(v, g.enumCase)
		caseName := keywordAwareRename(lang.ToCamelCase(v.Name))
		if caseName == tag {
			fmt.Fprintf(w, "\tcase %s\n", caseName)
		} else {
			fmt.Fprintf(w, "\tcase %s = %q\n", caseName, tag)
		}
	}
	fmt.Fprintf(w, "}\n")
	return nil
}

type caseInfo struct {
	name    string // Swift case identifier
	tag     string // serialized tag value
	payload string // associated value type, empty for unit variants
}

func (g *Generator) writeAlgebraicEnum(w io.Writer, e *ir.Enum) error {
	name := g.typeName(e.SerializedName())
	decorators := lang.MergeDecorators(g.defaultDecorators(), e.Decorators[ir.LangSwift], g.structuralDecorators(e.ID))

	indirect := ""
	if e.IsRecursive {
		indirect = "indirect "
	}

	cases := make([]caseInfo, 0, len(e.Variants))
	for i := range e.Variants {
		v := &e.Variants[i]
		info := caseInfo{
			name: keywordAwareRename(lang.ToCamelCase(v.Name)),
			tag:  lang.VariantTag(v, g.enumCase),
		}
		switch p := v.Payload.(type) {
		case ir.TuplePayload:
			formatted, err := g.FormatType(p.Type, e.GenericNames())
			if err != nil {
				return wrapDeclErr(errors.Wrapf(err, "variant %q", v.Name), &e.DeclShared)
			}
			info.payload = formatted
		case ir.StructPayload:
			carrier := g.typeName(lang.CarrierName(e.ID.Name, v.Name))
			carrierGenerics := carrierGenericNames(e, p.Fields)
			info.payload = carrier + g.plainGenericList(carrierGenerics)
		}
		cases = append(cases, info)
	}

	fmt.Fprintf(w, "public %senum %s%s: %s {\n",
		indirect, name, g.genericList(e.GenericNames()), strings.Join(decorators, ", "))

	for i := range e.Variants {
		writeComments(w, 1, e.Variants[i].Comments)
		c := cases[i]
		if c.payload == "" {
			fmt.Fprintf(w, "\tcase %s\n", c.name)
		} else {
			fmt.Fprintf(w, "\tcase %s(%s)\n", c.name, c.payload)
		}
	}

	g.writeCodableConformance(w, e, name, cases)
	fmt.Fprintf(w, "}\n")
	return nil
}

func (g *Generator) writeCodableConformance(w io.Writer, e *ir.Enum, name string, cases []caseInfo) {
	codingKeys := make([]string, len(cases))
	for i, c := range cases {
		if c.name == c.tag {
			codingKeys[i] = c.name
		} else {
			codingKeys[i] = fmt.Sprintf("%s = %q", c.name, c.tag)
		}
	}

	tagKey := keywordAwareRename(lang.ToCamelCase(e.Tag()))
	contentKey := keywordAwareRename(lang.ToCamelCase(e.Content()))
	containerKeys := []string{tagKey, contentKey}
	for i, key := range []string{e.Tag(), e.Content()} {
		if containerKeys[i] != key {
			containerKeys[i] = fmt.Sprintf("%s = %q", containerKeys[i], key)
		}
	}

	fmt.Fprintf(w, `
	enum CodingKeys: String, CodingKey, %s {
		case %s
	}

	private enum ContainerCodingKeys: String, CodingKey {
		case %s
	}

	public init(from decoder: Decoder) throws {
		let container = try decoder.container(keyedBy: ContainerCodingKeys.self)
		if let type = try? container.decode(CodingKeys.self, forKey: .%s) {
			switch type {
`, codable, strings.Join(codingKeys, ",\n\t\t\t"), strings.Join(containerKeys, ", "), tagKey)

	for _, c := range cases {
		if c.payload == "" {
			fmt.Fprintf(w, "\t\t\tcase .%s:\n\t\t\t\tself = .%s\n\t\t\t\treturn\n", c.name, c.name)
		} else {
			fmt.Fprintf(w, `			case .%s:
				if let content = try? container.decode(%s.self, forKey: .%s) {
					self = .%s(content)
					return
				}
`, c.name, c.payload, contentKey, c.name)
		}
	}

	fmt.Fprintf(w, `			}
		}
		throw DecodingError.typeMismatch(%s.self, DecodingError.Context(codingPath: decoder.codingPath, debugDescription: "Couldn't decode %s"))
	}

	public func encode(to encoder: Encoder) throws {
		var container = encoder.container(keyedBy: ContainerCodingKeys.self)
		switch self {
`, name, name)

	for _, c := range cases {
		if c.payload == "" {
			fmt.Fprintf(w, "\t\tcase .%s:\n\t\t\ttry container.encode(CodingKeys.%s, forKey: .%s)\n",
				c.name, c.name, tagKey)
		} else {
			fmt.Fprintf(w, `		case .%s(let content):
			try container.encode(CodingKeys.%s, forKey: .%s)
			try container.encode(content, forKey: .%s)
`, c.name, c.name, tagKey, contentKey)
		}
	}
	fmt.Fprintf(w, "\t\t}\n\t}\n")
}

// WriteConst renders a public static constant on an empty namespace enum.
func (g *Generator) WriteConst(w io.Writer, c *ir.Const) error {
	fmt.Fprintln(w)
	writeComments(w, 0, c.Comments)

	name := lang.ToCamelCase(c.SerializedName())
	switch v := c.Value.(type) {
	case ir.IntValue:
		formatted, err := g.FormatType(c.Type, nil)
		if err != nil {
			return wrapDeclErr(err, &c.DeclShared)
		}
		fmt.Fprintf(w, "public let %s: %s = %d\n", keywordAwareRename(name), formatted, v.Value)
	case ir.StringValue:
		fmt.Fprintf(w, "public let %s: String = %s\n", keywordAwareRename(name), quoteString(v.Value))
	default:
		return wrapDeclErr(errors.Wrap(errors.ErrUnsupportedType, "unsupported const value"), &c.DeclShared)
	}
	return nil
}

// FormatType maps a field type to Swift syntax.
func (g *Generator) FormatType(ft ir.FieldType, generics []string) (string, error) {
	switch t := ft.(type) {
	case ir.Scalar:
		return g.formatScalar(t.K)
	case ir.Generic:
		return t.Name, nil
	case ir.Reference:
		return g.formatReference(t, generics)
	case ir.Sequence:
		inner, err := g.FormatType(t.Elem, generics)
		if err != nil {
			return "", err
		}
		return "[" + inner + "]", nil
	case ir.FixedArray:
		// Swift has no fixed-length array type: fall back to a plain array
		// and surface the dropped length as a warning
		inner, err := g.FormatType(t.Elem, generics)
		if err != nil {
			return "", err
		}
		g.ledger.Warn(fmt.Sprintf("swift: fixed-length array [%s; %d] emitted as [%s], length constraint dropped", t.Elem, t.Len, inner))
		return "[" + inner + "]", nil
	case ir.Optional:
		inner, err := g.FormatType(t.Inner, generics)
		if err != nil {
			return "", err
		}
		return inner + "?", nil
	case ir.Map:
		if err := g.checkMapKey(t.Key); err != nil {
			return "", err
		}
		key, err := g.FormatType(t.Key, generics)
		if err != nil {
			return "", err
		}
		value, err := g.FormatType(t.Value, generics)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s: %s]", key, value), nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "cannot represent %s in Swift", ft)
}

func (g *Generator) checkMapKey(key ir.FieldType) error {
	switch key.(type) {
	case ir.Sequence, ir.FixedArray, ir.Map, ir.Optional:
		return errors.Wrapf(errors.ErrInvalidMapKey, "%s cannot be used as a dictionary key in Swift", key)
	}
	return nil
}

func (g *Generator) formatScalar(k ir.ScalarKind) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[string(k)]; ok {
		return mapped, nil
	}
	switch k {
	case ir.Unit:
		g.needsVoid = true
		return g.typeName("CodableVoid"), nil
	case ir.Bool:
		return "Bool", nil
	case ir.Char, ir.String:
		return "String", nil
	case ir.I8:
		return "Int8", nil
	case ir.I16:
		return "Int16", nil
	case ir.I32:
		return "Int32", nil
	case ir.I64, ir.I54, ir.ISize:
		return "Int64", nil
	case ir.U8:
		return "UInt8", nil
	case ir.U16:
		return "UInt16", nil
	case ir.U32:
		return "UInt32", nil
	case ir.U64, ir.U53, ir.USize:
		return "UInt64", nil
	case ir.F32:
		return "Float", nil
	case ir.F64:
		return "Double", nil
	case ir.DateTime:
		return "Date", nil
	case ir.Bytes:
		return "Data", nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "scalar kind %q has no Swift mapping", k)
}

func (g *Generator) formatReference(r ir.Reference, generics []string) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[r.ID.Name]; ok {
		return mapped, nil
	}
	base := g.typeName(r.ID.Name)
	if len(r.Args) == 0 {
		return base, nil
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		formatted, err := g.FormatType(a, generics)
		if err != nil {
			return "", err
		}
		args[i] = formatted
	}
	return fmt.Sprintf("%s<%s>", base, strings.Join(args, ", ")), nil
}

// typeName applies the configured prefix and keyword escaping to a
// user-defined type name. Generic parameters never get the prefix.
func (g *Generator) typeName(base string) string {
	return keywordAwareRename(g.cfg.Prefix + base)
}

func (g *Generator) defaultDecorators() []string {
	return lang.MergeDecorators([]string{codable}, g.cfg.DefaultDecorators, nil)
}

// genericList renders generic parameters with the configured constraints.
func (g *Generator) genericList(generics []string) string {
	if len(generics) == 0 {
		return ""
	}
	constraint := strings.Join(g.cfg.GenericConstraints, " & ")
	parts := make([]string, len(generics))
	for i, name := range generics {
		if constraint != "" {
			parts[i] = name + ": " + constraint
		} else {
			parts[i] = name
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// plainGenericList renders generic arguments without constraints, for use
// sites rather than declarations.
func (g *Generator) plainGenericList(generics []string) string {
	if len(generics) == 0 {
		return ""
	}
	return "<" + strings.Join(generics, ", ") + ">"
}

// carrierGenericNames returns the subset of the enum's generic parameters
// used by the given carrier fields, in declaration order.
func carrierGenericNames(e *ir.Enum, fields []ir.Field) []string {
	var names []string
	for _, gp := range e.Generics {
		for i := range fields {
			if ir.ContainsGeneric(fields[i].Type, gp.Name) {
				names = append(names, gp.Name)
				break
			}
		}
	}
	return names
}

var swiftKeywords = map[string]bool{
	"associatedtype": true, "class": true, "deinit": true, "enum": true,
	"extension": true, "fileprivate": true, "func": true, "import": true,
	"init": true, "inout": true, "internal": true, "let": true,
	"open": true, "operator": true, "private": true, "protocol": true,
	"public": true, "rethrows": true, "static": true, "struct": true,
	"subscript": true, "typealias": true, "var": true, "break": true,
	"case": true, "continue": true, "default": true, "defer": true,
	"do": true, "else": true, "fallthrough": true, "for": true,
	"guard": true, "if": true, "in": true, "repeat": true, "return": true,
	"switch": true, "where": true, "while": true, "as": true, "catch": true,
	"false": true, "is": true, "nil": true, "super": true, "self": true,
	"Self": true, "throw": true, "throws": true, "true": true, "try": true,
	"Type": true, "Protocol": true,
}

// keywordAwareRename backtick-escapes Swift keywords instead of mangling
// them.
func keywordAwareRename(name string) string {
	if swiftKeywords[name] {
		return "`" + name + "`"
	}
	return name
}

// propertyName converts a serialized name to a usable Swift property name:
// dashes removed, keywords escaped.
func propertyName(serialized string) string {
	return keywordAwareRename(strings.ReplaceAll(serialized, "-", ""))
}

// quoteString renders a Swift string literal. Unicode content is preserved
// without normalization; only characters Swift requires escaping for are
// escaped.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u{%x}`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeComments(w io.Writer, indent int, comments []string) {
	tabs := strings.Repeat("\t", indent)
	for _, c := range comments {
		fmt.Fprintf(w, "%s/// %s\n", tabs, c)
	}
}

func wrapDeclErr(err error, shared *ir.DeclShared) error {
	return errors.Wrapf(err, "type %q in module %q", shared.ID.Name, shared.ID.Module)
}
