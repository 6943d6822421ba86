// Package golang renders IR declarations as Go: plain structs with json
// tags, string-typed constant sets for unit enums, and tag/content wrapper
// structs with MarshalJSON/UnmarshalJSON glue for algebraic enums.
package golang

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
	"github.com/typebridge/typebridge/version"
)

// Generator implements lang.Language for Go.
type Generator struct {
	cfg             config.GoConfig
	enumCase        lang.CaseRule
	noVersionHeader bool
	ledger          *lang.Ledger

	// stdlib packages referenced by the current file's body, written by
	// WriteImports after the body has been rendered
	imports map[string]bool

	// names of declarations that are structs, or aliases resolving to
	// structs. Enum variant accessors return these by pointer.
	structLike map[string]bool
}

// New creates a Go generator for one run.
func New(cfg *config.Config, ledger *lang.Ledger) *Generator {
	return &Generator{
		cfg:             cfg.Go,
		enumCase:        cfg.EnumCase,
		noVersionHeader: cfg.NoVersionHeader,
		ledger:          ledger,
		imports:         make(map[string]bool),
		structLike:      make(map[string]bool),
	}
}

// Name returns "go"
func (g *Generator) Name() ir.Lang { return ir.LangGo }

// Extension returns "go"
func (g *Generator) Extension() string { return "go" }

// Prepare records which declarations are structs, including aliases that
// resolve to structs. decls is in dependency order, so an alias chain is
// resolved by the time the alias itself is seen.
func (g *Generator) Prepare(decls []ir.Decl) {
	for _, d := range decls {
		switch t := d.(type) {
		case *ir.Struct:
			g.structLike[t.ID.Name] = true
		case *ir.Alias:
			if ref, ok := t.Target.(ir.Reference); ok && g.structLike[ref.ID.Name] {
				g.structLike[t.ID.Name] = true
			}
		}
	}
}

// BeginFile writes the generated-code marker and package clause. The marker
// follows the convention tools like gosec use to recognize generated files.
func (g *Generator) BeginFile(w io.Writer, module string) error {
	g.imports = make(map[string]bool)
	if !g.noVersionHeader {
		fmt.Fprintf(w, "// Code generated by typebridge %s. DO NOT EDIT.\n", version.Tag)
	}
	fmt.Fprintf(w, "package %s\n", g.cfg.Package)
	return nil
}

// EndFile is a no-op for Go.
func (g *Generator) EndFile(w io.Writer) error { return nil }

// WriteImports renders the stdlib imports the file body accumulated. Output
// split across files stays in one package, so cross-module references need
// no import lines of their own.
func (g *Generator) WriteImports(w io.Writer, imports map[string][]string) error {
	paths := make([]string, 0, len(g.imports))
	for p := range g.imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Fprintln(w)
	switch len(paths) {
	case 0:
		return nil
	case 1:
		fmt.Fprintf(w, "import %q\n\n", paths[0])
	default:
		fmt.Fprintf(w, "import (\n")
		for _, p := range paths {
			fmt.Fprintf(w, "\t%q\n", p)
		}
		fmt.Fprintf(w, ")\n\n")
	}
	return nil
}

// WriteAlias renders a type definition.
func (g *Generator) WriteAlias(w io.Writer, a *ir.Alias) error {
	fmt.Fprintln(w)
	writeComments(w, 0, a.Comments)

	formatted, err := g.FormatType(a.Target, a.GenericNames())
	if err != nil {
		return wrapDeclErr(err, &a.DeclShared)
	}
	fmt.Fprintf(w, "type %s%s %s\n",
		g.acronyms(a.SerializedName()), g.genericParams(a.GenericNames()), formatted)
	return nil
}

// WriteStruct renders a struct with json tags. Optional and defaulted
// fields get omitempty; defaulted non-optional fields become pointers so an
// absent field stays distinguishable from the zero value.
func (g *Generator) WriteStruct(w io.Writer, s *ir.Struct) error {
	fmt.Fprintln(w)
	writeComments(w, 0, s.Comments)

	fmt.Fprintf(w, "type %s%s struct {\n",
		g.acronyms(s.SerializedName()), g.genericParams(s.GenericNames()))

	for i := range s.Fields {
		if err := g.writeField(w, &s.Fields[i], s.GenericNames()); err != nil {
			return wrapDeclErr(err, &s.DeclShared)
		}
	}
	fmt.Fprintf(w, "}\n")
	return nil
}

func (g *Generator) writeField(w io.Writer, f *ir.Field, generics []string) error {
	writeComments(w, 1, f.Comments)

	var fieldType string
	if override, ok := f.TypeOverride(ir.LangGo); ok {
		fieldType = override
	} else {
		var err error
		fieldType, err = g.FormatType(f.Type, generics)
		if err != nil {
			return errors.Wrapf(err, "field %q", f.Name)
		}
	}

	pointer := ""
	if f.HasDefault && !ir.IsOptional(f.Type) {
		pointer = "*"
	}
	omitEmpty := ""
	if f.HasDefault || ir.IsOptional(f.Type) {
		omitEmpty = ",omitempty"
	}

	fmt.Fprintf(w, "\t%s %s%s `json:\"%s%s\"`\n",
		g.fieldName(f.Name), pointer, g.acronyms(fieldType), f.SerializedName(), omitEmpty)
	return nil
}

// WriteEnum renders unit enums as a string type with a constant block, and
// algebraic enums as a tag/content wrapper struct with a typed tag constant
// set, per-variant constructors and accessors, and custom JSON glue.
// Carrier structs for anonymous struct variants are written first.
func (g *Generator) WriteEnum(w io.Writer, e *ir.Enum) error {
	for _, carrier := range lang.Carriers(e) {
		name := g.acronyms(carrier.ID.Name)
		g.structLike[name] = true
		if !g.ledger.MarkEmitted(name) {
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
	name := g.acronyms(e.SerializedName())
	fmt.Fprintf(w, "type %s string\n", name)
	fmt.Fprintf(w, "const (\n")
	for i := range e.Variants {
		v := &e.Variants[i]
		writeComments(w, 1, v.Comments)
		fmt.Fprintf(w, "\t%s%s %s = %q\n",
			name, g.acronyms(v.Name), name, lang.VariantTag(v, g.enumCase))
	}
	fmt.Fprintf(w, ")\n")
	return nil
}

func (g *Generator) writeAlgebraicEnum(w io.Writer, e *ir.Enum) error {
	g.imports["encoding/json"] = true

	name := g.acronyms(e.SerializedName())
	tagField := g.acronyms(lang.ToPascalCase(e.Tag()))
	tagType := name + tagField + "s"
	contentField := lang.ToCamelCase(e.Content())
	receiver := strings.ToLower(name[:1])

	type variantInfo struct {
		constName string // e.g. MyEnumTypeVariantFoo
		typ       string // Go type of the payload, empty for unit variants
		pointer   bool   // accessor and constructor pass the payload by pointer
	}
	infos := make([]variantInfo, 0, len(e.Variants))

	fmt.Fprintf(w, "type %s string\n", tagType)
	fmt.Fprintf(w, "const (\n")
	for i := range e.Variants {
		v := &e.Variants[i]
		variantName := g.acronyms(v.Name)
		info := variantInfo{constName: name + tagField + "Variant" + variantName}

		switch p := v.Payload.(type) {
		case ir.TuplePayload:
			formatted, err := g.FormatType(p.Type, e.GenericNames())
			if err != nil {
				return wrapDeclErr(errors.Wrapf(err, "variant %q", v.Name), &e.DeclShared)
			}
			info.typ = g.acronyms(formatted)
			info.pointer = g.structLike[info.typ]
		case ir.StructPayload:
			info.typ = g.acronyms(lang.CarrierName(e.ID.Name, v.Name))
			info.pointer = true
		}
		infos = append(infos, info)

		writeComments(w, 1, v.Comments)
		fmt.Fprintf(w, "\t%s %s = %q\n", info.constName, tagType, lang.VariantTag(v, g.enumCase))
	}
	fmt.Fprintf(w, ")\n\n")

	fmt.Fprintf(w, "type %s struct {\n", name)
	fmt.Fprintf(w, "\t%s %s `json:%q`\n", tagField, tagType, e.Tag())
	fmt.Fprintf(w, "\t%s interface{}\n", contentField)
	fmt.Fprintf(w, "}\n\n")

	fmt.Fprintf(w, "func (%s *%s) UnmarshalJSON(data []byte) error {\n", receiver, name)
	fmt.Fprintf(w, "\tvar enum struct {\n")
	fmt.Fprintf(w, "\t\tTag     %s          `json:%q`\n", tagType, e.Tag())
	fmt.Fprintf(w, "\t\tContent json.RawMessage `json:%q`\n", e.Content())
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\tif err := json.Unmarshal(data, &enum); err != nil {\n\t\treturn err\n\t}\n\n")
	fmt.Fprintf(w, "\t%s.%s = enum.Tag\n", receiver, tagField)
	fmt.Fprintf(w, "\tswitch %s.%s {\n", receiver, tagField)
	for _, info := range infos {
		fmt.Fprintf(w, "\tcase %s:\n", info.constName)
		if info.typ == "" {
			fmt.Fprintf(w, "\t\treturn nil\n")
		} else {
			fmt.Fprintf(w, "\t\tvar res %s\n", info.typ)
			fmt.Fprintf(w, "\t\t%s.%s = &res\n", receiver, contentField)
		}
	}
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\tif err := json.Unmarshal(enum.Content, &%s.%s); err != nil {\n\t\treturn err\n\t}\n\n", receiver, contentField)
	fmt.Fprintf(w, "\treturn nil\n}\n\n")

	fmt.Fprintf(w, "func (%s %s) MarshalJSON() ([]byte, error) {\n", receiver, name)
	fmt.Fprintf(w, "\tvar enum struct {\n")
	fmt.Fprintf(w, "\t\tTag     %s          `json:%q`\n", tagType, e.Tag())
	fmt.Fprintf(w, "\t\tContent interface{} `json:\"%s,omitempty\"`\n", e.Content())
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\tenum.Tag = %s.%s\n", receiver, tagField)
	fmt.Fprintf(w, "\tenum.Content = %s.%s\n", receiver, contentField)
	fmt.Fprintf(w, "\treturn json.Marshal(enum)\n}\n")

	for i := range e.Variants {
		info := infos[i]
		if info.typ == "" {
			continue
		}
		star, deref := "", "*"
		if info.pointer {
			star, deref = "*", ""
		}
		fmt.Fprintf(w, "\nfunc (%s %s) %s() %s%s {\n", receiver, name, g.acronyms(e.Variants[i].Name), star, info.typ)
		fmt.Fprintf(w, "\tres, _ := %s.%s.(*%s)\n", receiver, contentField, info.typ)
		fmt.Fprintf(w, "\treturn %sres\n}\n", deref)
	}

	for i := range e.Variants {
		info := infos[i]
		if info.typ == "" {
			fmt.Fprintf(w, "\nfunc New%s() %s {\n", info.constName, name)
			fmt.Fprintf(w, "\treturn %s{\n\t\t%s: %s,\n\t}\n}\n", name, tagField, info.constName)
			continue
		}
		star, ref := "", "&"
		if info.pointer {
			star, ref = "*", ""
		}
		fmt.Fprintf(w, "\nfunc New%s(content %s%s) %s {\n", info.constName, star, info.typ, name)
		fmt.Fprintf(w, "\treturn %s{\n\t\t%s: %s,\n\t\t%s: %scontent,\n\t}\n}\n",
			name, tagField, info.constName, contentField, ref)
	}
	return nil
}

// WriteConst renders a package-level constant.
func (g *Generator) WriteConst(w io.Writer, c *ir.Const) error {
	fmt.Fprintln(w)
	writeComments(w, 0, c.Comments)

	name := g.acronyms(lang.ToPascalCase(c.SerializedName()))
	switch v := c.Value.(type) {
	case ir.IntValue:
		formatted, err := g.FormatType(c.Type, nil)
		if err != nil {
			return wrapDeclErr(err, &c.DeclShared)
		}
		fmt.Fprintf(w, "const %s %s = %d\n", name, formatted, v.Value)
	case ir.StringValue:
		fmt.Fprintf(w, "const %s string = %s\n", name, strconv.Quote(v.Value))
	default:
		return wrapDeclErr(errors.Wrap(errors.ErrUnsupportedType, "unsupported const value"), &c.DeclShared)
	}
	return nil
}

// FormatType maps a field type to Go syntax.
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
		return "[]" + inner, nil
	case ir.FixedArray:
		inner, err := g.FormatType(t.Elem, generics)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d]%s", t.Len, inner), nil
	case ir.Optional:
		inner, err := g.FormatType(t.Inner, generics)
		if err != nil {
			return "", err
		}
		if _, isSeq := t.Inner.(ir.Sequence); isSeq && g.cfg.NoPointerSlice {
			return inner, nil
		}
		return "*" + inner, nil
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
		return fmt.Sprintf("map[%s]%s", key, value), nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "cannot represent %s in Go", ft)
}

func (g *Generator) checkMapKey(key ir.FieldType) error {
	switch key.(type) {
	case ir.Sequence, ir.Map, ir.Optional:
		return errors.Wrapf(errors.ErrInvalidMapKey, "%s is not a comparable Go map key", key)
	}
	return nil
}

func (g *Generator) formatScalar(k ir.ScalarKind) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[string(k)]; ok {
		return mapped, nil
	}
	switch k {
	case ir.Unit:
		return "struct{}", nil
	case ir.Bool:
		return "bool", nil
	case ir.Char:
		return "rune", nil
	case ir.String:
		return "string", nil
	case ir.I8, ir.I16, ir.I32, ir.U8, ir.U16:
		return "int", nil
	case ir.U32:
		return "uint32", nil
	case ir.I54, ir.I64, ir.ISize:
		return "int64", nil
	case ir.U53, ir.U64, ir.USize:
		return "uint64", nil
	case ir.F32:
		return "float32", nil
	case ir.F64:
		return "float64", nil
	case ir.DateTime:
		g.imports["time"] = true
		return "time.Time", nil
	case ir.Bytes:
		return "[]byte", nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "scalar kind %q has no Go mapping", k)
}

func (g *Generator) formatReference(r ir.Reference, generics []string) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[r.ID.Name]; ok {
		return mapped, nil
	}
	base := g.acronyms(r.ID.Name)
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
	return fmt.Sprintf("%s[%s]", base, strings.Join(args, ", ")), nil
}

func (g *Generator) genericParams(generics []string) string {
	if len(generics) == 0 {
		return ""
	}
	parts := make([]string, len(generics))
	for i, name := range generics {
		parts[i] = name + " any"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (g *Generator) fieldName(name string) string {
	return g.acronyms(lang.ToPascalCase(name))
}

// acronyms uppercases the configured abbreviations wherever they appear in
// pascal form, e.g. with ["id"] configured, UserId becomes UserID. A match
// followed by a lowercase letter is left alone so Identity never becomes
// IDentity.
func (g *Generator) acronyms(name string) string {
	result := name
	for _, acronym := range g.cfg.UppercaseAcronyms {
		pascal := lang.ToPascalCase(acronym)
		upper := strings.ToUpper(acronym)
		for idx := 0; ; {
			i := strings.Index(result[idx:], pascal)
			if i < 0 {
				break
			}
			i += idx
			end := i + len(pascal)
			followedByLower := false
			if end < len(result) {
				r := []rune(result[end:])[0]
				followedByLower = unicode.IsLower(r)
			}
			if !followedByLower {
				result = result[:i] + upper + result[end:]
			}
			idx = i + len(upper)
		}
	}
	return result
}

func writeComments(w io.Writer, indent int, comments []string) {
	tabs := strings.Repeat("\t", indent)
	for _, c := range comments {
		fmt.Fprintf(w, "%s// %s\n", tabs, c)
	}
}

func wrapDeclErr(err error, shared *ir.DeclShared) error {
	return errors.Wrapf(err, "type %q in module %q", shared.ID.Name, shared.ID.Module)
}
