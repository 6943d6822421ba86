// Package java renders IR declarations as Java: records for structs and
// plain enums for unit enums, nested inside one namespace class per output
// file. Java has no unsigned integer types, so unsigned widths widen to the
// next signed type that holds every value; U64 lands on BigInteger.
package java

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

// Generator implements lang.Language for Java.
type Generator struct {
	cfg             config.JavaConfig
	enumCase        lang.CaseRule
	noVersionHeader bool
	ledger          *lang.Ledger

	// alias name -> target type, substituted at every reference site since
	// Java has no type aliases
	aliases map[string]ir.FieldType

	// the namespace class wrapping the current file's declarations. Opened
	// lazily by the first declaration so imports land between the package
	// clause and the class.
	className string
	opened    bool
}

// New creates a Java generator for one run.
func New(cfg *config.Config, ledger *lang.Ledger) *Generator {
	return &Generator{
		cfg:             cfg.Java,
		enumCase:        cfg.EnumCase,
		noVersionHeader: cfg.NoVersionHeader,
		ledger:          ledger,
		aliases:         make(map[string]ir.FieldType),
		className:       namespaceClass(""),
	}
}

// Name returns "java"
func (g *Generator) Name() ir.Lang { return ir.LangJava }

// Extension returns "java"
func (g *Generator) Extension() string { return "java" }

// FileName names the output file after the namespace class, since a Java
// source file must match its public class.
func (g *Generator) FileName(module string) string {
	return namespaceClass(module) + ".java"
}

// Prepare records alias targets for reference-site substitution.
func (g *Generator) Prepare(decls []ir.Decl) {
	for _, d := range decls {
		if a, ok := d.(*ir.Alias); ok {
			g.aliases[a.ID.Name] = a.Target
		}
	}
}

// BeginFile writes the header and package clause. In multi-file mode each
// source module becomes a subpackage.
func (g *Generator) BeginFile(w io.Writer, module string) error {
	g.className = namespaceClass(module)
	g.opened = false

	if !g.noVersionHeader {
		fmt.Fprintf(w, "/**\n * Generated by typebridge %s\n */\n\n", version.Tag)
	}
	switch {
	case g.cfg.Package != "" && module != "":
		fmt.Fprintf(w, "package %s.%s;\n\n", g.cfg.Package, packageSegment(module))
	case g.cfg.Package != "":
		fmt.Fprintf(w, "package %s;\n\n", g.cfg.Package)
	}
	return nil
}

// EndFile closes the namespace class if any declaration opened it.
func (g *Generator) EndFile(w io.Writer) error {
	if g.opened {
		fmt.Fprintf(w, "}\n")
	}
	return nil
}

// WriteImports renders one import per foreign nested type.
func (g *Generator) WriteImports(w io.Writer, imports map[string][]string) error {
	if len(imports) == 0 {
		return nil
	}
	prefix := ""
	if g.cfg.Package != "" {
		prefix = g.cfg.Package + "."
	}

	modules := make([]string, 0, len(imports))
	for m := range imports {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, m := range modules {
		for _, t := range imports[m] {
			fmt.Fprintf(w, "import %s%s.%s.%s;\n", prefix, m, namespaceClass(m), g.cfg.Prefix+t)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteAlias emits nothing: Java has no type aliases, so the target type is
// substituted wherever the alias is referenced.
func (g *Generator) WriteAlias(w io.Writer, a *ir.Alias) error {
	return nil
}

// WriteStruct renders a record.
func (g *Generator) WriteStruct(w io.Writer, s *ir.Struct) error {
	g.ensureOpen(w)
	fmt.Fprintln(w)
	writeComments(w, 1, s.Comments)

	fmt.Fprintf(w, "\tpublic record %s%s%s(",
		g.cfg.Prefix, s.SerializedName(), genericList(s.GenericNames()))
	if len(s.Fields) == 0 {
		fmt.Fprintf(w, ") {}\n")
		return nil
	}
	fmt.Fprintln(w)

	for i := range s.Fields {
		f := &s.Fields[i]
		writeComments(w, 2, f.Comments)

		var fieldType string
		if override, ok := f.TypeOverride(ir.LangJava); ok {
			fieldType = override
		} else {
			var err error
			fieldType, err = g.FormatType(f.Type, s.GenericNames())
			if err != nil {
				return wrapDeclErr(errors.Wrapf(err, "field %q", f.Name), &s.DeclShared)
			}
		}

		comma := ","
		if i == len(s.Fields)-1 {
			comma = ""
		}
		fmt.Fprintf(w, "\t\t%s %s%s\n", fieldType, sanitizeIdentifier(f.SerializedName()), comma)
	}
	fmt.Fprintf(w, "\t) {}\n")
	return nil
}

// WriteEnum renders unit enums as plain Java enums. Algebraic enums have no
// representation here and fail generation.
func (g *Generator) WriteEnum(w io.Writer, e *ir.Enum) error {
	if !e.IsUnit() {
		return wrapDeclErr(errors.Wrap(errors.ErrUnsupportedType,
			"enums with associated data cannot be represented in Java"), &e.DeclShared)
	}

	g.ensureOpen(w)
	fmt.Fprintln(w)
	writeComments(w, 1, e.Comments)

	fmt.Fprintf(w, "\tpublic enum %s%s {\n", g.cfg.Prefix, e.SerializedName())
	for i := range e.Variants {
		v := &e.Variants[i]
		writeComments(w, 2, v.Comments)
		comma := ","
		if i == len(e.Variants)-1 {
			comma = ""
		}
		fmt.Fprintf(w, "\t\t%s%s\n", sanitizeIdentifier(lang.VariantTag(v, g.enumCase)), comma)
	}
	fmt.Fprintf(w, "\t}\n")
	return nil
}

// WriteConst renders a static final constant on the namespace class.
func (g *Generator) WriteConst(w io.Writer, c *ir.Const) error {
	g.ensureOpen(w)
	fmt.Fprintln(w)
	writeComments(w, 1, c.Comments)

	name := sanitizeIdentifier(lang.ToScreamingSnakeCase(c.SerializedName()))
	switch v := c.Value.(type) {
	case ir.IntValue:
		formatted, err := g.FormatType(c.Type, nil)
		if err != nil {
			return wrapDeclErr(err, &c.DeclShared)
		}
		fmt.Fprintf(w, "\tpublic static final %s %s = %d;\n", formatted, name, v.Value)
	case ir.StringValue:
		fmt.Fprintf(w, "\tpublic static final String %s = %s;\n", name, quoteString(v.Value))
	default:
		return wrapDeclErr(errors.Wrap(errors.ErrUnsupportedType, "unsupported const value"), &c.DeclShared)
	}
	return nil
}

func (g *Generator) ensureOpen(w io.Writer) {
	if g.opened {
		return
	}
	g.opened = true
	fmt.Fprintf(w, "public class %s {\n", g.className)
}

// FormatType maps a field type to Java syntax. Type arguments are boxed
// because Java generics only take reference types.
func (g *Generator) FormatType(ft ir.FieldType, generics []string) (string, error) {
	switch t := ft.(type) {
	case ir.Scalar:
		return g.formatScalar(t.K)
	case ir.Generic:
		return t.Name, nil
	case ir.Reference:
		return g.formatReference(t, generics)
	case ir.Sequence:
		inner, err := g.formatBoxed(t.Elem, generics)
		if err != nil {
			return "", err
		}
		return "java.util.ArrayList<" + inner + ">", nil
	case ir.FixedArray:
		inner, err := g.FormatType(t.Elem, generics)
		if err != nil {
			return "", err
		}
		return inner + "[]", nil
	case ir.Optional:
		// absent serializes as null, so the component must be a reference type
		return g.formatBoxed(t.Inner, generics)
	case ir.Map:
		key, err := g.formatBoxed(t.Key, generics)
		if err != nil {
			return "", err
		}
		value, err := g.formatBoxed(t.Value, generics)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("java.util.HashMap<%s, %s>", key, value), nil
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "cannot represent %s in Java", ft)
}

// boxedTypes maps each primitive to its wrapper class.
var boxedTypes = map[string]string{
	"byte":    "Byte",
	"short":   "Short",
	"int":     "Integer",
	"long":    "Long",
	"boolean": "Boolean",
	"float":   "Float",
	"double":  "Double",
}

// formatBoxed renders a type for a generic argument position.
func (g *Generator) formatBoxed(ft ir.FieldType, generics []string) (string, error) {
	formatted, err := g.FormatType(ft, generics)
	if err != nil {
		return "", err
	}
	if boxed, ok := boxedTypes[formatted]; ok {
		return boxed, nil
	}
	return formatted, nil
}

func (g *Generator) formatScalar(k ir.ScalarKind) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[string(k)]; ok {
		return mapped, nil
	}
	switch k {
	case ir.Unit:
		return "Void", nil
	case ir.Bool:
		return "boolean", nil
	case ir.Char, ir.String:
		// Java's char is a 16-bit UTF-16 unit, not a code point
		return "String", nil
	case ir.I8:
		return "byte", nil
	case ir.I16:
		return "short", nil
	case ir.I32, ir.ISize:
		return "int", nil
	case ir.I54, ir.I64:
		return "long", nil
	// no unsigned types: each unsigned width widens to the next signed
	// type that holds every value
	case ir.U8:
		return "short", nil
	case ir.U16:
		return "int", nil
	case ir.U32, ir.USize:
		return "long", nil
	case ir.U53, ir.U64:
		return "java.math.BigInteger", nil
	case ir.F32:
		return "float", nil
	case ir.F64:
		return "double", nil
	case ir.Bytes:
		return "byte[]", nil
	case ir.DateTime:
		return "", errors.WithHint(
			errors.Wrap(errors.ErrUnsupportedType, "datetime has no Java mapping"),
			`set a java type override for "datetime", e.g. java.time.Instant`)
	}
	return "", errors.Wrapf(errors.ErrUnsupportedType, "scalar kind %q has no Java mapping", k)
}

func (g *Generator) formatReference(r ir.Reference, generics []string) (string, error) {
	if mapped, ok := g.cfg.TypeOverrides[r.ID.Name]; ok {
		return mapped, nil
	}
	if target, ok := g.aliases[r.ID.Name]; ok {
		if len(r.Args) > 0 {
			return "", errors.Wrapf(errors.ErrUnsupportedType,
				"generic alias %q cannot be substituted in Java", r.ID.Name)
		}
		return g.FormatType(target, generics)
	}
	base := g.cfg.Prefix + r.ID.Name
	if len(r.Args) == 0 {
		return base, nil
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		formatted, err := g.formatBoxed(a, generics)
		if err != nil {
			return "", err
		}
		args[i] = formatted
	}
	return fmt.Sprintf("%s<%s>", base, strings.Join(args, ", ")), nil
}

// namespaceClass names the class wrapping one output file's declarations.
func namespaceClass(module string) string {
	if module == "" {
		return "Types"
	}
	return lang.ToPascalCase(packageSegment(module))
}

// packageSegment flattens a module path into one package name component.
func packageSegment(module string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_", "-", "_").Replace(module)
}

func genericList(generics []string) string {
	if len(generics) == 0 {
		return ""
	}
	return "<" + strings.Join(generics, ", ") + ">"
}

func isJavaLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
}

func isJavaLetterOrDigit(r rune) bool {
	return isJavaLetter(r) || (r >= '0' && r <= '9')
}

var javaReserved = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "class": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extends": true,
	"final": true, "finally": true, "float": true, "for": true, "goto": true,
	"if": true, "implements": true, "import": true, "instanceof": true,
	"int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true,
	"public": true, "return": true, "short": true, "static": true,
	"strictfp": true, "super": true, "switch": true, "synchronized": true,
	"this": true, "throw": true, "throws": true, "transient": true,
	"try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "_": true,
}

// sanitizeIdentifier coerces a serialized name into a legal Java identifier:
// dashes become underscores, other illegal characters are dropped, and
// reserved words get a leading underscore.
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	first := true
	for _, r := range name {
		if first {
			first = false
			if isJavaLetter(r) {
				b.WriteRune(r)
			} else {
				b.WriteRune('_')
			}
			continue
		}
		switch {
		case r == '-':
			b.WriteRune('_')
		case isJavaLetterOrDigit(r):
			b.WriteRune(r)
		}
	}
	out := b.String()
	if javaReserved[out] {
		return "_" + out
	}
	return out
}

// quoteString renders a Java string literal.
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
	tabs := strings.Repeat("\t", indent)
	for _, c := range comments {
		fmt.Fprintf(w, "%s/// %s\n", tabs, c)
	}
}

func wrapDeclErr(err error, shared *ir.DeclShared) error {
	return errors.Wrapf(err, "type %q in module %q", shared.ID.Name, shared.ID.Module)
}
