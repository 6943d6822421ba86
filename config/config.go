// Package config holds the per-invocation configuration for a generation
// run: target selection, per-language settings, type overrides, and output
// layout. Configuration is loaded from a TOML file via viper; every field
// has a default so a missing file is not an error.
package config

import (
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
)

// Int64Handling selects how 64-bit integers are emitted toward a target
// whose native numeric type cannot represent them safely.
type Int64Handling string

// Int64 handling modes. Each override trades precision differently:
// strings round-trip exactly but lose numeric operations, bigint keeps
// arithmetic but changes the runtime type, number silently truncates above
// 2^53-1.
const (
	Int64Error  Int64Handling = "error"
	Int64String Int64Handling = "string"
	Int64BigInt Int64Handling = "bigint"
	Int64Number Int64Handling = "number"
)

// Config is the full configuration for one invocation.
type Config struct {
	// Languages selects the targets to generate, in order
	Languages []string `mapstructure:"languages"`

	// TargetOS is the active OS tag set for cfg-predicate filtering.
	// Empty means no filtering.
	TargetOS []string `mapstructure:"target_os"`

	// MultiFile splits output into one file per source module
	MultiFile bool `mapstructure:"multi_file"`

	// NoVersionHeader strips the generated-by header for deterministic
	// snapshot tests
	NoVersionHeader bool `mapstructure:"no_version_header"`

	// EnumCase is the case transform applied to enum variant names that
	// carry no literal rename
	EnumCase lang.CaseRule `mapstructure:"enum_case"`

	TypeScript TypeScriptConfig `mapstructure:"typescript"`
	Swift      SwiftConfig      `mapstructure:"swift"`
	Go         GoConfig         `mapstructure:"go"`
	Java       JavaConfig       `mapstructure:"java"`
}

// LangCommon holds the settings every target language shares.
type LangCommon struct {
	// TypeOverrides maps a source type name to literal target type text,
	// consulted before any built-in mapping
	TypeOverrides map[string]string `mapstructure:"type_overrides"`

	// Formatter is an external formatting command (argv form) the output
	// is piped through. A missing or failing formatter is a warning, never
	// a fatal condition.
	Formatter []string `mapstructure:"formatter"`
}

// TypeScriptConfig configures the TypeScript backend.
type TypeScriptConfig struct {
	LangCommon `mapstructure:",squash"`

	// Int64Handling decides what to do with 64-bit integers; the default
	// Int64Error makes them a hard generation error
	Int64Handling Int64Handling `mapstructure:"int64_handling"`
}

// SwiftConfig configures the Swift backend.
type SwiftConfig struct {
	LangCommon `mapstructure:",squash"`

	// Prefix is prepended to every generated type name
	Prefix string `mapstructure:"prefix"`

	// DefaultDecorators are conformances added to every generated type,
	// e.g. ["Equatable"]. Codable is always present.
	DefaultDecorators []string `mapstructure:"default_decorators"`

	// GenericConstraints are appended to every generic parameter,
	// e.g. ["Codable", "Equatable"]
	GenericConstraints []string `mapstructure:"generic_constraints"`
}

// GoConfig configures the Go backend.
type GoConfig struct {
	LangCommon `mapstructure:",squash"`

	// Package is the generated package name. Required when Go output is
	// requested.
	Package string `mapstructure:"package"`

	// UppercaseAcronyms lists abbreviations to fully uppercase in
	// generated identifiers, e.g. ["id", "url"]
	UppercaseAcronyms []string `mapstructure:"uppercase_acronyms"`

	// NoPointerSlice emits optional slices as []T instead of *[]T. Both
	// serialize identically when nil; the pointer form only matters when an
	// empty slice and an absent field must stay distinguishable.
	NoPointerSlice bool `mapstructure:"no_pointer_slice"`
}

// JavaConfig configures the Java backend.
type JavaConfig struct {
	LangCommon `mapstructure:",squash"`

	// Package is the Java package generated code is declared in. Empty
	// leaves the code in the default package.
	Package string `mapstructure:"package"`

	// Prefix is prepended to every generated type name
	Prefix string `mapstructure:"prefix"`
}

// Common returns the shared settings for the given language.
func (c *Config) Common(l ir.Lang) LangCommon {
	switch l {
	case ir.LangTypeScript:
		return c.TypeScript.LangCommon
	case ir.LangSwift:
		return c.Swift.LangCommon
	case ir.LangGo:
		return c.Go.LangCommon
	case ir.LangJava:
		return c.Java.LangCommon
	}
	return LangCommon{}
}

// Validate checks settings that must be correct before any generation
// begins. Errors name the specific missing or invalid key.
func (c *Config) Validate() error {
	var errs []error

	if !lang.KnownCaseRule(c.EnumCase) {
		errs = append(errs, errors.Newf("unknown enum_case rule %q", c.EnumCase))
	}

	switch c.TypeScript.Int64Handling {
	case Int64Error, Int64String, Int64BigInt, Int64Number:
	default:
		errs = append(errs, errors.Newf("unknown typescript.int64_handling %q", c.TypeScript.Int64Handling))
	}

	for _, l := range c.Languages {
		switch ir.Lang(l) {
		case ir.LangTypeScript, ir.LangSwift, ir.LangJava:
		case ir.LangGo:
			if c.Go.Package == "" {
				errs = append(errs, errors.Wrap(errors.ErrMissingConfig,
					"go.package must be set when generating Go"))
			}
		default:
			errs = append(errs, errors.Newf("unknown target language %q", l))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
