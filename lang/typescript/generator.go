// Package typescript renders IR declarations as TypeScript: interfaces for
// structs, closed string enums for unit enums, and discriminated unions for
// algebraic enums.
package typescript

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
	"github.com/typebridge/typebridge/version"
)

// Generator implements lang.Language for TypeScript. One instance serves
// one generation run; it tracks which coercion helpers the emitted types
// referenced so EndFile can emit them exactly once.
type Generator struct {
	cfg             config.TypeScriptConfig
	enumCase        lang.CaseRule
	noVersionHeader bool
	ledger          *lang.Ledger

	// helper type -> serialized field names that referenced it, for the
	// key-scoped Date reviver
	helperFields map[string]map[string]bool
}

// New creates a TypeScript generator for one run.
func New(cfg *config.Config, ledger *lang.Ledger) *Generator {
	return &Generator{
		cfg:             cfg.TypeScript,
		enumCase:        cfg.EnumCase,
		noVersionHeader: cfg.NoVersionHeader,
		ledger:          ledger,
		helperFields:    make(map[string]map[string]bool),
	}
}

// Name returns "typescript"
func (g *Generator) Name() ir.Lang { return ir.LangTypeScript }

// Extension returns "ts"
func (g *Generator) Extension() string { return "ts" }

// BeginFile writes the version header unless suppressed for snapshot tests.
// Helper tracking resets here: each output file carries its own reviver and
// replacer when needed.
func (g *Generator) BeginFile(w io.Writer, module string) error {
	g.helperFields = make(map[string]map[string]bool)
	if !g.noVersionHeader {
		fmt.Fprintf(w, "/*\n Generated by typebridge %s\n*/\n\n", version.Tag)
	}
	return nil
}

// EndFile writes the JSON reviver/replacer helpers, once per file, only if
// an emitted type used Uint8Array, Date, or string-encoded 64-bit integers.
func (g *Generator) EndFile(w io.Writer) error {
	if len(g.helperFields) == 0 {
		return nil
	}

	names := make([]string, 0, len(g.helperFields))
	for name := range g.helperFields {
		names = append(names, name)
	}
	sort.Strings(names)

	var revivers, replacers []string
	for _, name := range names {
		switch name {
		case "Uint8Array":
			revivers = append(revivers, `if (Array.isArray(value) && value.every(v => Number.isInteger(v) && v >= 0 && v <= 255) && value.length > 0) {
        return new Uint8Array(value);
    }`)
			replacers = append(replacers, `if (value instanceof Uint8Array) {
        return Array.from(value);
    }`)
		case "Date":
			revivers = append(revivers, fmt.Sprintf(`if (typeof value === "string" && /^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z$/.test(value)%s) {
        return new Date(value);
    }`, g.keyGuard("Date")))
			replacers = append(replacers, `if (value instanceof Date) {
        return value.toISOString();
    }`)
		case "Int64String":
			revivers = append(revivers, fmt.Sprintf(`if (typeof value === "number"%s) {
        return value.toString();
    }`, g.keyGuard("Int64String")))
			replacers = append(replacers, fmt.Sprintf(`if (typeof value === "bigint"%s) {
        return value.toString();
    }`, g.keyGuard("Int64String")))
		}
	}

	fmt.Fprintln(w, "/** Custom JSON reviver and replacer functions for dynamic data transformation */")
	fmt.Fprintf(w, `export const ReviverFunc = (key: string, value: unknown): unknown => {
    %s
    return value;
};

export const ReplacerFunc = (key: string, value: unknown): unknown => {
    %s
    return value;
};
`, strings.Join(revivers, "\n    "), strings.Join(replacers, "\n    "))
	return nil
}

// keyGuard limits a coercion to the field names that actually carry the
// helper's type, so look-alike values elsewhere survive parsing untouched.
func (g *Generator) keyGuard(helper string) string {
	fields := g.helperFields[helper]
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]string, len(names))
	for i, name := range names {
		checks[i] = fmt.Sprintf("key === %q", name)
	}
	return fmt.Sprintf(" && (%s)", strings.Join(checks, " || "))
}

// WriteImports renders one import statement per referenced module.
func (g *Generator) WriteImports(w io.Writer, imports map[string][]string) error {
	modules := make([]string, 0, len(imports))
	for m := range imports {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, m := range modules {
		fmt.Fprintf(w, "import { %s } from \"./%s\";\n", strings.Join(imports[m], ", "), m)
	}
	if len(modules) > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

// WriteAlias renders `export type Name<T> = target;`.
func (g *Generator) WriteAlias(w io.Writer, a *ir.Alias) error {
	writeComments(w, 0, a.Comments)

	formatted, err := g.FormatType(a.Target, a.GenericNames())
	if err != nil {
		return wrapDeclErr(err, &a.DeclShared)
	}

	undefined := ""
	if ir.IsOptional(a.Target) {
		undefined = " | undefined"
	}
	fmt.Fprintf(w, "export type %s%s = %s%s;\n\n",
		a.SerializedName(), genericList(a.GenericNames()), formatted, undefined)
	return nil
}

// WriteStruct renders `export interface`.
func (g *Generator) WriteStruct(w io.Writer, s *ir.Struct) error {
	writeComments(w, 0, s.Comments)
	fmt.Fprintf(w, "export interface %s%s {\n", s.SerializedName(), genericList(s.GenericNames()))

	for i := range s.Fields {
		if err := g.writeField(w, &s.Fields[i], s.GenericNames()); err != nil {
			return wrapDeclErr(err, &s.DeclShared)
		}
	}

	fmt.Fprintf(w, "}\n\n")
	return nil
}

// WriteEnum renders unit enums as closed string enums and algebraic enums
// as discriminated unions keyed by the tag field. Anonymous struct variants
// keep their fields inline under the content key; TypeScript needs no
// separate carrier type.
func (g *Generator) WriteEnum(w io.Writer, e *ir.Enum) error {
	writeComments(w, 0, e.Comments)

	if e.IsUnit() {
		fmt.Fprintf(w, "export enum %s {\n", e.SerializedName())
		for i := range e.Variants {
			v := &e.Variants[i]
			writeComments(w, 1, v.Comments)
			fmt.Fprintf(w, "\t%s = %q,\n", v.Name, lang.VariantTag(v, g.enumCase))
		}
		fmt.Fprintf(w, "}\n\n")
		return nil
	}

	fmt.Fprintf(w, "export type %s%s = ", e.SerializedName(), genericList(e.GenericNames()))
	for i := range e.Variants {
		v := &e.Variants[i]
		fmt.Fprintln(w)
		writeComments(w, 1, v.Comments)
		if err := g.writeUnionArm(w, e, v); err != nil {
			return wrapDeclErr(err, &e.DeclShared)
		}
	}
	fmt.Fprintf(w, ";\n\n")
	return nil
}

func (g *Generator) writeUnionArm(w io.Writer, e *ir.Enum, v *ir.Variant) error {
	tag := lang.VariantTag(v, g.enumCase)

	switch p := v.Payload.(type) {
	case nil:
		fmt.Fprintf(w, "\t| { %s: %q, %s?: undefined }", e.Tag(), tag, e.Content())
	case ir.TuplePayload:
		formatted, err := g.FormatType(p.Type, e.GenericNames())
		if err != nil {
			return errors.Wrapf(err, "variant %q", v.Name)
		}
		optional := ""
		if ir.IsOptional(p.Type) {
			optional = "?"
		}
		fmt.Fprintf(w, "\t| { %s: %q, %s%s: %s }", e.Tag(), tag, e.Content(), optional, formatted)
	case ir.StructPayload:
		fmt.Fprintf(w, "\t| { %s: %q, %s: {\n", e.Tag(), tag, e.Content())
		for i := range p.Fields {
			if err := g.writeField(w, &p.Fields[i], e.GenericNames()); err != nil {
				return errors.Wrapf(err, "variant %q", v.Name)
			}
		}
		fmt.Fprintf(w, "}}")
	}
	return nil
}

// WriteConst renders `export const NAME: type = value;`.
func (g *Generator) WriteConst(w io.Writer, c *ir.Const) error {
	writeComments(w, 0, c.Comments)

	name := lang.ToScreamingSnakeCase(c.SerializedName())
	switch v := c.Value.(type) {
	case ir.IntValue:
		formatted, err := g.FormatType(c.Type, nil)
		if err != nil {
			return wrapDeclErr(err, &c.DeclShared)
		}
		fmt.Fprintf(w, "export const %s: %s = %d;\n\n", name, formatted, v.Value)
	case ir.StringValue:
		fmt.Fprintf(w, "export const %s: string = %s;\n\n", name, quoteString(v.Value))
	default:
		return wrapDeclErr(errors.Wrap(errors.ErrUnsupportedType, "unsupported const value"), &c.DeclShared)
	}
	return nil
}

func (g *Generator) writeField(w io.Writer, f *ir.Field, generics []string) error {
	writeComments(w, 1, f.Comments)

	var formatted string
	if override, ok := f.TypeOverride(ir.LangTypeScript); ok {
		formatted = override
	} else {
		var err error
		formatted, err = g.FormatType(f.Type, generics)
		if err != nil {
			return errors.Wrapf(err, "field %q", f.Name)
		}
		g.trackHelpers(f.Type, f.SerializedName())
	}

	readonly := ""
	if f.HasDecorator(ir.LangTypeScript, "readonly") {
		readonly = "readonly "
	}
	optional := ""
	if ir.IsOptional(f.Type) || f.HasDefault {
		optional = "?"
	}
	// double optional keeps "present but null" distinguishable from absent
	null := ""
	if ir.IsDoubleOptional(f.Type) {
		null = " | null"
	}

	fmt.Fprintf(w, "\t%s%s%s: %s%s;\n",
		readonly, propertyName(f.SerializedName()), optional, formatted, null)
	return nil
}

// trackHelpers records, per field, the runtime coercions the field's type
// needs. Tracking walks the IR rather than the rendered text, so a user type
// whose name merely ends in "Date" never arms the Date reviver.
func (g *Generator) trackHelpers(ft ir.FieldType, fieldName string) {
	ir.Walk(ft, func(t ir.FieldType) {
		s, ok := t.(ir.Scalar)
		if !ok {
			return
		}
		if _, overridden := g.cfg.TypeOverrides[string(s.K)]; overridden {
			return
		}
		switch {
		case s.K == ir.Bytes:
			g.markHelper("Uint8Array", fieldName)
		case s.K == ir.DateTime:
			g.markHelper("Date", fieldName)
		case s.K.Is64Bit() && g.cfg.Int64Handling == config.Int64String:
			g.markHelper("Int64String", fieldName)
		}
	})
}

func (g *Generator) markHelper(helper, fieldName string) {
	if g.helperFields[helper] == nil {
		g.helperFields[helper] = make(map[string]bool)
	}
	g.helperFields[helper][fieldName] = true
}

// FormatType maps a field type to TypeScript syntax.
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
		return arraySyntax(inner), nil
	case ir.FixedArray:
		inner, err := g.FormatType(t.Elem, generics)
		if err != nil {
			return "", err
		}
		parts := make([]string, t.Len)
		for i := range parts {
			parts[i] = inner
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case ir.Optional:
		// optionality is rendered at the field level
		return g.FormatType(t.Inner, generics)
	case ir.Map:
		return g.formatMap(t, generics)
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "cannot represent %s in TypeScript", ft)
}

func (g *Generator) formatScalar(k ir.ScalarKind) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[string(k)]; ok {
		return mapped, nil
	}
	if k.Is64Bit() {
		switch g.cfg.Int64Handling {
		case config.Int64String:
			return "string", nil
		case config.Int64BigInt:
			return "bigint", nil
		case config.Int64Number:
			return "number", nil
		default:
			return "", errors.WithHint(
				errors.Wrapf(errors.ErrUnsafeNumeric, "%s cannot be represented as a JSON number", k),
				`set typescript.int64_handling = "string", "bigint", or "number" to override`)
		}
	}
	switch k {
	case ir.Unit:
		return "undefined", nil
	case ir.Bool:
		return "boolean", nil
	case ir.Char, ir.String:
		return "string", nil
	case ir.I8, ir.I16, ir.I32, ir.U8, ir.U16, ir.U32, ir.I54, ir.U53, ir.F32, ir.F64:
		return "number", nil
	case ir.DateTime:
		return "Date", nil
	case ir.Bytes:
		return "Uint8Array", nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "scalar kind %q has no TypeScript mapping", k)
}

func (g *Generator) formatReference(r ir.Reference, generics []string) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[r.ID.Name]; ok {
		// a type-mapped reference drops its generic arguments
		return mapped, nil
	}
	if len(r.Args) == 0 {
		return r.ID.Name, nil
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		formatted, err := g.FormatType(a, generics)
		if err != nil {
			return "", err
		}
		args[i] = formatted
	}
	return fmt.Sprintf("%s<%s>", r.ID.Name, strings.Join(args, ", ")), nil
}

func (g *Generator) formatMap(m ir.Map, generics []string) (string, error) {
	if gk, ok := m.Key.(ir.Generic); ok {
		return "", errors.Wrapf(errors.ErrInvalidMapKey,
			"generic type %q cannot be used as a map key in TypeScript", gk.Name)
	}
	if sk, ok := m.Key.(ir.Scalar); ok {
		if !sk.K.IsStringLike() && !sk.K.IsInteger() {
			return "", errors.Wrapf(errors.ErrInvalidMapKey,
				"%s cannot be used as a map key in TypeScript", sk.K)
		}
	}
	key, err := g.FormatType(m.Key, generics)
	if err != nil {
		return "", err
	}
	value, err := g.FormatType(m.Value, generics)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Record<%s, %s>", key, value), nil
}

// arraySyntax wraps union and object types in parentheses so `A | B` comes
// out as `(A | B)[]`, not `A | B[]`.
func arraySyntax(inner string) string {
	if strings.ContainsAny(inner, "|{ ") {
		return "(" + inner + ")[]"
	}
	return inner + "[]"
}

func genericList(generics []string) string {
	if len(generics) == 0 {
		return ""
	}
	return "<" + strings.Join(generics, ", ") + ">"
}

// propertyName quotes names that are not valid TypeScript identifiers
// rather than mangling them.
func propertyName(name string) string {
	if strings.ContainsAny(name, "- ") {
		return fmt.Sprintf("%q", name)
	}
	return name
}

// quoteString renders a TypeScript string literal, escaping only what the
// language requires so Unicode content passes through unnormalized.
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
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeComments(w io.Writer, indent int, comments []string) {
	if len(comments) == 0 {
		return
	}
	tabs := strings.Repeat("\t", indent)
	if len(comments) == 1 {
		fmt.Fprintf(w, "%s/** %s */\n", tabs, comments[0])
		return
	}
	fmt.Fprintf(w, "%s/**\n", tabs)
	for _, c := range comments {
		fmt.Fprintf(w, "%s * %s\n", tabs, c)
	}
	fmt.Fprintf(w, "%s */\n", tabs)
}

func wrapDeclErr(err error, shared *ir.DeclShared) error {
	return errors.Wrapf(err, "type %q in module %q", shared.ID.Name, shared.ID.Module)
}
