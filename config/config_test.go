package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/lang"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, []string{"typescript"}, cfg.Languages)
	assert.Equal(t, config.Int64Error, cfg.TypeScript.Int64Handling)
	assert.Equal(t, []string{"Codable"}, cfg.Swift.GenericConstraints)
	assert.False(t, cfg.MultiFile)
	assert.Equal(t, lang.CaseNone, cfg.EnumCase)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typebridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
languages = ["typescript", "swift", "go"]
target_os = ["ios", "macos"]
multi_file = true
enum_case = "camel"

[typescript]
int64_handling = "string"

[swift]
prefix = "TB"
default_decorators = ["Equatable"]

[go]
package = "models"
uppercase_acronyms = ["id"]
`), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"typescript", "swift", "go"}, cfg.Languages)
	assert.Equal(t, []string{"ios", "macos"}, cfg.TargetOS)
	assert.True(t, cfg.MultiFile)
	assert.Equal(t, lang.CaseCamel, cfg.EnumCase)
	assert.Equal(t, config.Int64String, cfg.TypeScript.Int64Handling)
	assert.Equal(t, "TB", cfg.Swift.Prefix)
	assert.Equal(t, []string{"Equatable"}, cfg.Swift.DefaultDecorators)
	assert.Equal(t, "models", cfg.Go.Package)
	assert.Equal(t, []string{"id"}, cfg.Go.UppercaseAcronyms)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_MissingExplicitPathFails(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadFromFile_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := config.LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, []string{"typescript"}, cfg.Languages)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = []string{"go", "cobol"}
	cfg.EnumCase = "UPPER"
	cfg.TypeScript.Int64Handling = "saturate"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum_case")
	assert.Contains(t, err.Error(), "int64_handling")
	assert.Contains(t, err.Error(), "cobol")
	assert.True(t, errors.Is(err, errors.ErrMissingConfig), "go without package name")
}

func TestValidate_GoNeedsPackage(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = []string{"go"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingConfig))

	cfg.Go.Package = "models"
	require.NoError(t, cfg.Validate())
}

func TestCommon_PerLanguageSettings(t *testing.T) {
	cfg := config.Default()
	cfg.TypeScript.TypeOverrides = map[string]string{"Uuid": "string"}
	cfg.Swift.Formatter = []string{"swiftformat", "--quiet"}

	assert.Equal(t, "string", cfg.Common(ir.LangTypeScript).TypeOverrides["Uuid"])
	assert.Equal(t, []string{"swiftformat", "--quiet"}, cfg.Common(ir.LangSwift).Formatter)
	assert.Empty(t, cfg.Common(ir.LangGo).TypeOverrides)
}
