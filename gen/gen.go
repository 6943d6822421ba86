// Package gen drives one generation run: OS-predicate filtering, structural
// validation, dependency resolution, per-language emission, and output
// partitioning. A run either produces every output file or none; structural
// problems are collected across the whole snapshot before aborting so one
// fix cycle surfaces them all.
package gen

import (
	"bytes"
	"sort"
	"strings"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
	"github.com/typebridge/typebridge/lang/golang"
	"github.com/typebridge/typebridge/lang/java"
	"github.com/typebridge/typebridge/lang/swift"
	"github.com/typebridge/typebridge/lang/typescript"
	"github.com/typebridge/typebridge/logger"
	"github.com/typebridge/typebridge/resolve"
)

// File is one generated output unit. Path is relative to the output
// directory the caller chooses.
type File struct {
	Path    string
	Content []byte
}

// Run generates target code for one language. Output is deterministic:
// equal snapshot and config produce byte-identical files regardless of
// declaration order in the snapshot.
func Run(snap *ir.Snapshot, cfg *config.Config, target ir.Lang) ([]File, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// cfg.Validate only covers the configured language list; library callers
	// can pass any target directly
	if target == ir.LangGo && cfg.Go.Package == "" {
		return nil, errors.Wrap(errors.ErrMissingConfig, "go.package must be set when generating Go")
	}

	filtered := ir.FilterByOS(snap.Decls, cfg.TargetOS)

	var structural []error
	structural = append(structural, checkFlatten(filtered)...)

	analysis, err := resolve.Analyze(filtered)
	if err != nil {
		structural = append(structural, err)
	}
	if len(structural) > 0 {
		return nil, errors.Join(structural...)
	}

	ledger := lang.NewLedger()
	language, err := newLanguage(target, cfg, ledger)
	if err != nil {
		return nil, err
	}
	if p, ok := language.(lang.Preparer); ok {
		p.Prepare(analysis.Order)
	}

	var files []File
	if cfg.MultiFile {
		files, err = emitPerModule(language, analysis.Order)
	} else {
		files, err = emitSingle(language, analysis.Order)
	}
	if err != nil {
		return nil, err
	}

	for _, warning := range ledger.Warnings() {
		logger.Warnf("%s", warning)
	}

	if formatter := cfg.Common(target).Formatter; len(formatter) > 0 {
		for i := range files {
			formatted, ferr := runFormatter(formatter, files[i].Content)
			if ferr != nil {
				logger.Warnw("formatter failed, using unformatted output",
					"file", files[i].Path, "error", ferr)
				continue
			}
			files[i].Content = formatted
		}
	}
	return files, nil
}

// newLanguage builds the backend for a target. Unknown targets are caught
// by config validation; this guards direct library callers.
func newLanguage(target ir.Lang, cfg *config.Config, ledger *lang.Ledger) (lang.Language, error) {
	switch target {
	case ir.LangTypeScript:
		return typescript.New(cfg, ledger), nil
	case ir.LangSwift:
		return swift.New(cfg, ledger), nil
	case ir.LangGo:
		return golang.New(cfg, ledger), nil
	case ir.LangJava:
		return java.New(cfg, ledger), nil
	}
	return nil, errors.Newf("unknown target language %q", target)
}

// checkFlatten rejects flattened fields everywhere they can appear. Flatten
// changes the wire shape in ways no backend reproduces, so it fails loudly
// instead of generating wrong types.
func checkFlatten(decls []ir.Decl) []error {
	var errs []error
	flag := func(id ir.TypeID, f *ir.Field) {
		if f.Flatten {
			errs = append(errs, errors.Wrapf(errors.ErrFlattenUnsupported,
				"field %q of type %q in module %q", f.Name, id.Name, id.Module))
		}
	}
	for _, d := range decls {
		switch t := d.(type) {
		case *ir.Struct:
			for i := range t.Fields {
				flag(t.ID, &t.Fields[i])
			}
		case *ir.Enum:
			for _, v := range t.Variants {
				if p, ok := v.Payload.(ir.StructPayload); ok {
					for i := range p.Fields {
						flag(t.ID, &p.Fields[i])
					}
				}
			}
		}
	}
	return errs
}

// emitSingle renders every declaration into one file.
func emitSingle(language lang.Language, order []ir.Decl) ([]File, error) {
	content, err := renderFile(language, "", order, nil)
	if err != nil {
		return nil, err
	}
	return []File{{Path: outputName(language, ""), Content: content}}, nil
}

// emitPerModule renders one file per source module. Declarations keep their
// resolved order within each module; cross-module references become imports.
func emitPerModule(language lang.Language, order []ir.Decl) ([]File, error) {
	byModule := make(map[string][]ir.Decl)
	var modules []string
	for _, d := range order {
		m := d.Shared().ID.Module
		if _, seen := byModule[m]; !seen {
			modules = append(modules, m)
		}
		byModule[m] = append(byModule[m], d)
	}
	modules = ir.SortModules(modules)

	declaredIn := make(map[string]string, len(order))
	serialized := make(map[string]string, len(order))
	for _, d := range order {
		declaredIn[d.Shared().ID.Name] = d.Shared().ID.Module
		serialized[d.Shared().ID.Name] = d.Shared().SerializedName()
	}

	var files []File
	var errs []error
	for _, module := range modules {
		decls := byModule[module]
		imports := moduleImports(module, decls, declaredIn, serialized)

		content, err := renderFile(language, module, decls, imports)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, File{
			Path:    outputName(language, module),
			Content: content,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return files, nil
}

// moduleImports maps each foreign module to the sorted serialized names this
// module's declarations use from it.
func moduleImports(module string, decls []ir.Decl, declaredIn, serialized map[string]string) map[string][]string {
	used := make(map[string]map[string]bool)
	for _, d := range decls {
		for _, name := range resolve.ReferencedNames(d) {
			home, known := declaredIn[name]
			if !known || home == module {
				continue
			}
			key := fileName(home)
			if used[key] == nil {
				used[key] = make(map[string]bool)
			}
			used[key][serialized[name]] = true
		}
	}
	if len(used) == 0 {
		return nil
	}
	imports := make(map[string][]string, len(used))
	for m, names := range used {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		imports[m] = list
	}
	return imports
}

// renderFile stitches one output file: header, imports, body, trailing
// helpers. The body renders first so backends that discover imports while
// writing declarations have them ready when WriteImports runs.
func renderFile(language lang.Language, module string, decls []ir.Decl, imports map[string][]string) ([]byte, error) {
	var head, imp, body bytes.Buffer

	if err := language.BeginFile(&head, module); err != nil {
		return nil, err
	}

	var errs []error
	for _, d := range decls {
		var err error
		switch t := d.(type) {
		case *ir.Struct:
			err = language.WriteStruct(&body, t)
		case *ir.Enum:
			err = language.WriteEnum(&body, t)
		case *ir.Alias:
			err = language.WriteAlias(&body, t)
		case *ir.Const:
			err = language.WriteConst(&body, t)
		default:
			err = errors.Newf("unknown declaration kind %q", d.Kind())
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := language.EndFile(&body); err != nil {
		return nil, err
	}
	if err := language.WriteImports(&imp, imports); err != nil {
		return nil, err
	}

	out := make([]byte, 0, head.Len()+imp.Len()+body.Len())
	out = append(out, head.Bytes()...)
	out = append(out, imp.Bytes()...)
	out = append(out, body.Bytes()...)
	return out, nil
}

// outputName resolves the output file name for one unit, deferring to the
// language when its file names are constrained.
func outputName(language lang.Language, module string) string {
	if fn, ok := language.(lang.FileNamer); ok {
		return fn.FileName(module)
	}
	return fileName(module) + "." + language.Extension()
}

// fileName flattens a module path into a single file name component.
func fileName(module string) string {
	if module == "" {
		return "types"
	}
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(module)
}
